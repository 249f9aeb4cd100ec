package engine

import (
	"fmt"

	"github.com/riftlock/vaultengine/internal/capabilities"
	"github.com/riftlock/vaultengine/pkg/codec"
	"github.com/riftlock/vaultengine/pkg/history"
)

// capabilityRegistry is the configurable-capability lookup (spec §6.4)
// Save/Open route their compression and encryption calls through, rather
// than calling pkg/compress/pkg/vcrypto directly. The registry is
// unexported, so code outside this package cannot replace an entry;
// Save/Open use the implementations capabilities.NewRegistry installs.
var capabilityRegistry = capabilities.NewRegistry()

// Save seals the engine's history into the on-disk/on-wire envelope (spec
// §6.1): compress → encrypt → sign. It transitions the engine to Sealed.
func (e *Engine) Save(password string) ([]byte, error) {
	blob := history.JoinLines(e.lines)

	compressText, err := capabilityRegistry.GetProperty(capabilities.KeyCompressText)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	compressed, err := compressText.(func(string) ([]byte, error))(blob)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to compress history: %w", err)
	}

	encryptText, err := capabilityRegistry.GetProperty(capabilities.KeyEncryptText)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	ciphertext, err := encryptText.(func(string, string) ([]byte, error))(string(compressed), password)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to encrypt history: %w", err)
	}

	if err := e.Seal(); err != nil {
		return nil, err
	}
	e.dirty = false
	return codec.Sign(ciphertext), nil
}

// Open is the inverse of Save: unwrap the signature, decrypt, decompress,
// lex, and replay into a fresh tree (spec §2 "Data flow on load").
func Open(data []byte, password string) (*Engine, error) {
	body, err := codec.StripSignature(data)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	decryptText, err := capabilityRegistry.GetProperty(capabilities.KeyDecryptText)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	plainCompressed, err := decryptText.(func([]byte, string) (string, error))(body, password)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to decrypt history: %w", err)
	}

	decompressText, err := capabilityRegistry.GetProperty(capabilities.KeyDecompressText)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	blob, err := decompressText.(func([]byte) (string, error))([]byte(plainCompressed))
	if err != nil {
		return nil, fmt.Errorf("engine: failed to decompress history: %w", err)
	}

	lines, err := history.ParseLines(blob)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	e := New()
	if err := e.Load(lines); err != nil {
		return nil, err
	}
	return e, nil
}
