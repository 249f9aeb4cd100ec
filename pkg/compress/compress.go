// Package compress provides the deterministic, byte-preserving text
// compression the engine applies to history blobs before encryption (spec
// §4.1, §2 "Compressor"). The algorithm itself is an app-environment
// capability per spec §6.4 ("compression/v1/compressText",
// "compression/v1/decompressText"); this package is the default registered
// implementation.
package compress

import (
	"bytes"
	"compress/flate"
	"errors"
	"fmt"
	"io"
)

// Level is the fixed flate compression level used for history blobs.
// A fixed level keeps CompressText deterministic across calls, which the
// engine's round-trip invariants (spec §8.3) depend on.
const Level = flate.BestCompression

// ErrEmptyInput is returned by DecompressText when given a zero-length blob,
// which can never be the product of CompressText (it always emits a
// flate stream trailer).
var ErrEmptyInput = errors.New("compress: empty input")

// CompressText deterministically compresses UTF-8 history text into a
// flate-encoded byte blob.
func CompressText(text string) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, Level)
	if err != nil {
		return nil, fmt.Errorf("compress: failed to create writer: %w", err)
	}
	if _, err := w.Write([]byte(text)); err != nil {
		return nil, fmt.Errorf("compress: failed to write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: failed to close writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DecompressText inverts CompressText, returning the original UTF-8 text.
func DecompressText(blob []byte) (string, error) {
	if len(blob) == 0 {
		return "", ErrEmptyInput
	}
	r := flate.NewReader(bytes.NewReader(blob))
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("compress: failed to decompress: %w", err)
	}
	return string(out), nil
}
