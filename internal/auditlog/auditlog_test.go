package auditlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func testKey() []byte {
	dek := make([]byte, 32)
	for i := range dek {
		dek[i] = byte(i)
	}
	return dek
}

func TestNewLogger(t *testing.T) {
	tmpDir := t.TempDir()
	l := NewLogger(tmpDir)

	if l == nil {
		t.Fatal("NewLogger returned nil")
	}
	if l.dir != tmpDir {
		t.Errorf("expected dir %s, got %s", tmpDir, l.dir)
	}
	if l.prevHash != "genesis" {
		t.Errorf("expected prevHash 'genesis', got %s", l.prevHash)
	}
}

func TestSetHMACKeyDerivesDistinctKeysPerDEK(t *testing.T) {
	l1 := NewLogger(t.TempDir())
	l2 := NewLogger(t.TempDir())

	dekA := testKey()
	dekB := testKey()
	dekB[0] ^= 0xFF

	if err := l1.SetHMACKey(dekA); err != nil {
		t.Fatalf("SetHMACKey failed: %v", err)
	}
	if err := l2.SetHMACKey(dekB); err != nil {
		t.Fatalf("SetHMACKey failed: %v", err)
	}
	if string(l1.hmacKey) == string(l2.hmacKey) {
		t.Fatal("expected distinct DEKs to derive distinct HMAC keys")
	}
}

func TestLogWithoutHMACKey(t *testing.T) {
	l := NewLogger(t.TempDir())
	if err := l.Log("v1", OpVaultUnlock, ResultSuccess, "", nil); err == nil {
		t.Error("expected error when logging without HMAC key")
	}
}

func TestLogSuccessWritesChainedRecord(t *testing.T) {
	tmpDir := t.TempDir()
	l := NewLogger(tmpDir)
	if err := l.SetHMACKey(testKey()); err != nil {
		t.Fatalf("SetHMACKey failed: %v", err)
	}

	if err := l.LogSuccess("v1", OpVaultUnlock, map[string]interface{}{"attempt": 1}); err != nil {
		t.Fatalf("LogSuccess failed: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(tmpDir, "*.jsonl"))
	if err != nil {
		t.Fatalf("failed to list log files: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 log file, got %d", len(files))
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	var event Event
	if err := json.Unmarshal(data[:len(data)-1], &event); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}

	if event.VaultID != "v1" {
		t.Errorf("expected vault id v1, got %s", event.VaultID)
	}
	if event.Operation != OpVaultUnlock {
		t.Errorf("expected operation %s, got %s", OpVaultUnlock, event.Operation)
	}
	if event.Result != ResultSuccess {
		t.Errorf("expected result %s, got %s", ResultSuccess, event.Result)
	}
	if event.Chain.Sequence != 1 {
		t.Errorf("expected sequence 1, got %d", event.Chain.Sequence)
	}
	if event.Chain.PrevHash != "genesis" {
		t.Errorf("expected prevHash 'genesis', got %s", event.Chain.PrevHash)
	}
	if event.Chain.HMAC == "" {
		t.Error("expected non-empty HMAC")
	}
}

func TestLogErrorRecordsMessage(t *testing.T) {
	tmpDir := t.TempDir()
	l := NewLogger(tmpDir)
	if err := l.SetHMACKey(testKey()); err != nil {
		t.Fatalf("SetHMACKey failed: %v", err)
	}

	if err := l.LogError("v1", OpVaultUnlockFailed, errBadPassphrase); err != nil {
		t.Fatalf("LogError failed: %v", err)
	}

	result, err := l.Verify()
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid chain, got errors: %v", result.Errors)
	}
	if result.RecordsTotal != 1 {
		t.Fatalf("expected 1 record, got %d", result.RecordsTotal)
	}
}

func TestChainPersistsAcrossLoggerInstances(t *testing.T) {
	tmpDir := t.TempDir()
	dek := testKey()

	l1 := NewLogger(tmpDir)
	if err := l1.SetHMACKey(dek); err != nil {
		t.Fatalf("SetHMACKey failed: %v", err)
	}
	if err := l1.LogSuccess("v1", OpVaultUnlock, nil); err != nil {
		t.Fatalf("LogSuccess failed: %v", err)
	}

	l2 := NewLogger(tmpDir)
	if err := l2.SetHMACKey(dek); err != nil {
		t.Fatalf("SetHMACKey failed: %v", err)
	}
	if err := l2.LogSuccess("v1", OpVaultLock, nil); err != nil {
		t.Fatalf("LogSuccess failed: %v", err)
	}

	if l2.sequence != 2 {
		t.Fatalf("expected sequence to resume at 2, got %d", l2.sequence)
	}

	result, err := l2.Verify()
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid chain across instances, got errors: %v", result.Errors)
	}
	if result.RecordsTotal != 2 {
		t.Fatalf("expected 2 records, got %d", result.RecordsTotal)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	tmpDir := t.TempDir()
	l := NewLogger(tmpDir)
	if err := l.SetHMACKey(testKey()); err != nil {
		t.Fatalf("SetHMACKey failed: %v", err)
	}
	if err := l.LogSuccess("v1", OpMerge, map[string]interface{}{"commands": 3}); err != nil {
		t.Fatalf("LogSuccess failed: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(tmpDir, "*.jsonl"))
	if err != nil || len(files) != 1 {
		t.Fatalf("expected 1 log file, got %v (err=%v)", files, err)
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	var event Event
	if err := json.Unmarshal(data[:len(data)-1], &event); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}
	event.Operation = OpAttachmentRemove
	tampered, err := json.Marshal(&event)
	if err != nil {
		t.Fatalf("failed to marshal tampered entry: %v", err)
	}
	if err := os.WriteFile(files[0], append(tampered, '\n'), 0o600); err != nil {
		t.Fatalf("failed to write tampered entry: %v", err)
	}

	result, err := l.Verify()
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if result.Valid {
		t.Fatal("expected Verify to detect the tampered record")
	}
}

type stringError string

func (e stringError) Error() string { return string(e) }

const errBadPassphrase = stringError("wrong passphrase")
