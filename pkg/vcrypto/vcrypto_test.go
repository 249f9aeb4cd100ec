package vcrypto

import "testing"

func TestEncryptDecryptText(t *testing.T) {
	SetDerivationRounds(1000) // keep the test fast; restored below
	defer SetDerivationRounds(0)

	plaintext := "fmt 1\naid abcdefab-1234-5678-9abc-def012345678\n"
	blob, err := EncryptText(plaintext, "correct horse battery staple")
	if err != nil {
		t.Fatalf("EncryptText: %v", err)
	}

	got, err := DecryptText(blob, "correct horse battery staple")
	if err != nil {
		t.Fatalf("DecryptText: %v", err)
	}
	if got != plaintext {
		t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
	}

	if _, err := DecryptText(blob, "wrong password"); err == nil {
		t.Fatal("expected decryption with wrong password to fail")
	}
}

func TestEncryptBufferTamperDetection(t *testing.T) {
	key := make([]byte, KeyLength)
	ciphertext, nonce, err := EncryptBuffer(key, []byte("attachment bytes"))
	if err != nil {
		t.Fatal(err)
	}
	ciphertext[0] ^= 0xFF
	if _, err := DecryptBuffer(key, ciphertext, nonce); err != ErrAuthFailed {
		t.Errorf("expected ErrAuthFailed on tamper, got %v", err)
	}
}

func TestDerivationRoundsOverride(t *testing.T) {
	SetDerivationRounds(500)
	if got := derivationRoundsNow(); got != 500 {
		t.Errorf("got %d rounds, want 500", got)
	}
	SetDerivationRounds(0)
	if got := derivationRoundsNow(); got != DefaultDerivationRounds {
		t.Errorf("got %d rounds, want default %d", got, DefaultDerivationRounds)
	}
}

func TestRandomStringAlphabetAndLength(t *testing.T) {
	s, err := RandomString(48)
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 48 {
		t.Fatalf("got length %d, want 48", len(s))
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			t.Fatalf("unexpected character %q in random string", r)
		}
	}
}
