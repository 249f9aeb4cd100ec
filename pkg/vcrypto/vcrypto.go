// Package vcrypto provides the Cryptor capability of the vault engine
// (spec §4.2): authenticated symmetric encryption of history blobs and
// attachment buffers, keyed from a password via PBKDF2, plus secure random
// string generation. Adapted from the teacher's AES-256-GCM primitives in
// pkg/crypto, with Argon2id key derivation replaced by the PBKDF2-like
// derivation the spec calls for (see DESIGN.md).
package vcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"math/big"
	"runtime"
	"sync/atomic"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// Sizes used throughout the engine's symmetric crypto.
const (
	// KeyLength is the length of derived/encryption keys in bytes (256 bits).
	KeyLength = 32
	// NonceLength is the length of GCM nonces in bytes (96 bits).
	NonceLength = 12
	// SaltLength is the recommended salt length for DeriveKey callers.
	SaltLength = 16
	// DefaultDerivationRounds is the minimum PBKDF2 iteration count (spec §4.2).
	DefaultDerivationRounds = 250_000
)

// randomAlphabet is the alphabet RandomString draws from (spec §4.2).
const randomAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Sentinel errors.
var (
	ErrInvalidKeyLength   = errors.New("vcrypto: invalid key length, must be 32 bytes")
	ErrInvalidNonceLength = errors.New("vcrypto: invalid nonce length, must be 12 bytes")
	// ErrAuthFailed indicates GCM authentication tag verification failed.
	// Spec §4.2: indistinguishable from a bad password.
	ErrAuthFailed       = errors.New("vcrypto: decryption failed, authentication tag verification failed")
	ErrCiphertextShort  = errors.New("vcrypto: ciphertext too short")
)

// derivationRounds is the process-wide PBKDF2 iteration override (spec §5
// "the global derivationRoundsOverride is a process-wide setting; reads
// and writes must be atomic"). Zero means "use DefaultDerivationRounds".
var derivationRounds atomic.Int64

// SetDerivationRounds overrides the default PBKDF2 iteration count for all
// subsequent DeriveKey calls in this process. A zero or negative value
// restores the default.
func SetDerivationRounds(rounds int) {
	if rounds <= 0 {
		derivationRounds.Store(0)
		return
	}
	derivationRounds.Store(int64(rounds))
}

// derivationRoundsNow returns the currently effective PBKDF2 iteration count.
func derivationRoundsNow() int {
	if r := derivationRounds.Load(); r > 0 {
		return int(r)
	}
	return DefaultDerivationRounds
}

// DeriveKey derives a 256-bit key from a password using PBKDF2-HMAC-SHA256
// at the current derivation-rounds setting. salt should be at least
// SaltLength bytes of cryptographically secure random data.
func DeriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, derivationRoundsNow(), KeyLength, sha256.New)
}

// EncryptBuffer encrypts plaintext with AES-256-GCM using a fresh random
// nonce, returning ciphertext and nonce separately.
func EncryptBuffer(key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	if len(key) != KeyLength {
		return nil, nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("vcrypto: failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("vcrypto: failed to create GCM: %w", err)
	}

	nonce = make([]byte, NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("vcrypto: failed to generate nonce: %w", err)
	}

	ciphertext = gcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// DecryptBuffer decrypts ciphertext produced by EncryptBuffer, verifying
// the GCM authentication tag.
func DecryptBuffer(key, ciphertext, nonce []byte) ([]byte, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}
	if len(nonce) != NonceLength {
		return nil, ErrInvalidNonceLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vcrypto: failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vcrypto: failed to create GCM: %w", err)
	}
	if len(ciphertext) < gcm.Overhead() {
		return nil, ErrCiphertextShort
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// EncryptText encrypts a UTF-8 plaintext string with a key derived from
// password, returning a single blob with a fresh salt and nonce prepended
// (salt || nonce || ciphertext) so the result is self-describing for
// DecryptText.
func EncryptText(plaintext, password string) ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("vcrypto: failed to generate salt: %w", err)
	}
	key := DeriveKey([]byte(password), salt)
	defer SecureWipe(key)

	ciphertext, nonce, err := EncryptBuffer(key, []byte(plaintext))
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// DecryptText inverts EncryptText.
func DecryptText(blob []byte, password string) (string, error) {
	if len(blob) < SaltLength+NonceLength {
		return "", ErrCiphertextShort
	}
	salt := blob[:SaltLength]
	nonce := blob[SaltLength : SaltLength+NonceLength]
	ciphertext := blob[SaltLength+NonceLength:]

	key := DeriveKey([]byte(password), salt)
	defer SecureWipe(key)

	plaintext, err := DecryptBuffer(key, ciphertext, nonce)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// DeriveSubKey splits a 32-byte AES key out of secret via HKDF-SHA256,
// domain-separated by info, so that different uses of the same stored
// secret never share a key. pkg/attachment uses it to turn the vault's
// attachment-key attribute into the blob key (spec §4.9).
func DeriveSubKey(secret []byte, info string) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, nil, []byte(info))
	key := make([]byte, KeyLength)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("vcrypto: failed to derive sub-key: %w", err)
	}
	return key, nil
}

// RandomString returns a cryptographically secure random string of the
// given length drawn from A-Z, a-z, 0-9 (spec §4.2).
func RandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	alphabetLen := big.NewInt(int64(len(randomAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("vcrypto: failed to generate random string: %w", err)
		}
		out[i] = randomAlphabet[n.Int64()]
	}
	return string(out), nil
}

// SecureWipe overwrites b with zeros in a way that survives compiler
// dead-store elimination, for destroying keys held only in memory.
func SecureWipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
