// Package auditlog provides an HMAC-chained, JSON-lines audit trail for
// vault-engine operations (unlock/lock, merge outcomes, attachment
// writes), adapted from the teacher's pkg/audit. The HMAC key here is
// derived via HKDF from a vault secret the caller supplies rather than a
// bespoke secret; cmd/vaultenginectl passes the master password bytes,
// since the engine keeps no separate key of its own.
package auditlog

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Operation types recorded by this module (spec §1 AMBIENT STACK:
// "unlock/lock, merge outcomes, attachment writes").
const (
	OpVaultUnlock       = "vault.unlock"
	OpVaultUnlockFailed = "vault.unlock_failed"
	OpVaultLock         = "vault.lock"
	OpCommandsExecuted  = "vault.commands_executed"
	OpMerge             = "vault.merge"
	OpAttachmentPut     = "attachment.put"
	OpAttachmentRemove  = "attachment.remove"
)

// Result indicates the outcome of an operation.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Event is a single audit log record.
type Event struct {
	ID        string                 `json:"id"`
	Timestamp string                 `json:"ts"`
	VaultID   string                 `json:"vaultId"`
	Operation string                 `json:"op"`
	Result    string                 `json:"result"`
	Error     string                 `json:"error,omitempty"`
	Context   map[string]interface{} `json:"ctx,omitempty"`
	Chain     Chain                  `json:"chain"`
}

// Chain carries the tamper-detection fields: a strictly increasing
// sequence number, the previous record's HMAC, and this record's HMAC.
type Chain struct {
	Sequence int64  `json:"seq"`
	PrevHash string `json:"prev"`
	HMAC     string `json:"hmac"`
}

// Logger writes one JSON-lines file per calendar month under its
// directory, HMAC-chaining every record to the one before it.
type Logger struct {
	dir        string
	mu         sync.Mutex
	hmacKey    []byte
	hmacKeySet bool
	sequence   int64
	prevHash   string
}

// NewLogger builds a logger rooted at dir. SetHMACKey must be called
// before Log.
func NewLogger(dir string) *Logger {
	return &Logger{dir: dir, prevHash: "genesis"}
}

// SetHMACKey derives this logger's HMAC key from the given vault secret
// via HKDF-SHA256, and resumes the chain state persisted from prior runs.
func (l *Logger) SetHMACKey(dek []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	reader := hkdf.New(sha256.New, dek, nil, []byte("vaultengine-auditlog-v1"))
	l.hmacKey = make([]byte, 32)
	if _, err := reader.Read(l.hmacKey); err != nil {
		return fmt.Errorf("auditlog: failed to derive HMAC key: %w", err)
	}
	l.hmacKeySet = true

	if err := l.loadChainState(); err != nil {
		l.sequence = 0
		l.prevHash = "genesis"
	}
	return nil
}

// Log appends one audit event, non-fatal-on-failure per the engine's
// logging policy: callers that cannot tolerate a logging failure should
// check the returned error themselves, but the rest of the engine treats
// it as a warning (spec §1 AMBIENT STACK).
func (l *Logger) Log(vaultID, op, result string, errMsg string, ctx map[string]interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hmacKeySet {
		return fmt.Errorf("auditlog: HMAC key not set")
	}
	if err := os.MkdirAll(l.dir, 0o700); err != nil {
		return fmt.Errorf("auditlog: failed to create directory: %w", err)
	}

	event := Event{
		ID:        generateEventID(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		VaultID:   vaultID,
		Operation: op,
		Result:    result,
		Error:     errMsg,
		Context:   ctx,
	}

	l.sequence++
	event.Chain.Sequence = l.sequence
	event.Chain.PrevHash = l.prevHash

	mac := hmac.New(sha256.New, l.hmacKey)
	mac.Write(recordData(&event))
	event.Chain.HMAC = hex.EncodeToString(mac.Sum(nil))
	l.prevHash = event.Chain.HMAC

	if err := l.appendEvent(&event); err != nil {
		return err
	}
	return l.saveChainState()
}

// LogSuccess records a successful operation.
func (l *Logger) LogSuccess(vaultID, op string, ctx map[string]interface{}) error {
	return l.Log(vaultID, op, ResultSuccess, "", ctx)
}

// LogError records a failed operation.
func (l *Logger) LogError(vaultID, op string, err error) error {
	return l.Log(vaultID, op, ResultError, err.Error(), nil)
}

func recordData(e *Event) []byte {
	contextData := ""
	if e.Context != nil {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		insertionSortStrings(keys)
		for _, k := range keys {
			contextData += fmt.Sprintf("%s=%v|", k, e.Context[k])
		}
	}
	return []byte(fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d|%s",
		e.ID, e.Timestamp, e.VaultID, e.Operation, e.Result, contextData,
		e.Chain.Sequence, e.Chain.PrevHash))
}

func insertionSortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func (l *Logger) appendEvent(event *Event) error {
	filename := time.Now().UTC().Format("2006-01") + ".jsonl"
	path := filepath.Join(l.dir, filename)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("auditlog: failed to open %s: %w", path, err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("auditlog: failed to marshal event: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("auditlog: failed to write event: %w", err)
	}
	return nil
}

type chainState struct {
	Sequence int64  `json:"seq"`
	PrevHash string `json:"prev"`
}

func (l *Logger) metaPath() string { return filepath.Join(l.dir, "auditlog.meta") }

func (l *Logger) loadChainState() error {
	data, err := os.ReadFile(l.metaPath())
	if err != nil {
		return err
	}
	var state chainState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	l.sequence = state.Sequence
	l.prevHash = state.PrevHash
	return nil
}

func (l *Logger) saveChainState() error {
	data, err := json.Marshal(chainState{Sequence: l.sequence, PrevHash: l.prevHash})
	if err != nil {
		return fmt.Errorf("auditlog: failed to marshal chain state: %w", err)
	}
	if err := os.WriteFile(l.metaPath(), data, 0o600); err != nil {
		return fmt.Errorf("auditlog: failed to save chain state: %w", err)
	}
	return nil
}

func generateEventID() string {
	ts := time.Now().UnixMilli()
	tsBytes := make([]byte, 6)
	for i := 5; i >= 0; i-- {
		tsBytes[i] = byte(ts & 0xFF)
		ts >>= 8
	}
	randBytes := make([]byte, 10)
	if _, err := rand.Read(randBytes); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(append(tsBytes, randBytes...))
}

// VerifyResult reports the outcome of Verify.
type VerifyResult struct {
	Valid        bool
	RecordsTotal int
	Errors       []string
}

// Verify re-derives and checks every record's HMAC and chain linkage
// across all log files in dir, reporting every tamper sign it finds.
func (l *Logger) Verify() (*VerifyResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hmacKeySet {
		return nil, fmt.Errorf("auditlog: HMAC key not set")
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("auditlog: failed to list log files: %w", err)
	}
	insertionSortStrings(files)

	result := &VerifyResult{Valid: true}
	expectedPrev := "genesis"
	var expectedSeq int64 = 1

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("auditlog: failed to read %s: %w", file, err)
		}
		for _, line := range splitNonEmptyLines(data) {
			var event Event
			if err := json.Unmarshal(line, &event); err != nil {
				return nil, fmt.Errorf("auditlog: failed to parse record in %s: %w", file, err)
			}
			result.RecordsTotal++

			if event.Chain.Sequence != expectedSeq {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf(
					"sequence gap at %s: expected %d, got %d", event.ID, expectedSeq, event.Chain.Sequence))
			}
			if event.Chain.PrevHash != expectedPrev {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf(
					"chain broken at %s: expected prev %s, got %s", event.ID, expectedPrev, event.Chain.PrevHash))
			}

			mac := hmac.New(sha256.New, l.hmacKey)
			mac.Write(recordData(&event))
			if expected := hex.EncodeToString(mac.Sum(nil)); event.Chain.HMAC != expected {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf("HMAC mismatch at %s: possible tampering", event.ID))
			}

			expectedPrev = event.Chain.HMAC
			expectedSeq++
		}
	}
	return result, nil
}

func splitNonEmptyLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
