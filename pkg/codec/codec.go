// Package codec recognizes, wraps and unwraps the signed envelope that
// surrounds an encrypted vault history. It never touches plaintext: the
// body it signs and strips is already ciphertext produced by pkg/vcrypto.
package codec

import (
	"bytes"
	"errors"
)

// FormatKind identifies the wire format of a serialized vault.
type FormatKind int

const (
	// Unknown means the leading bytes did not match any known signature.
	Unknown FormatKind = iota
	// FormatA is the textual, line-oriented command-log format (spec §4.1).
	FormatA
)

// Signature is the fixed 8-byte ASCII magic identifying format A, version 1.
var Signature = [8]byte{'V', 'L', 'T', 'A', '0', '0', '0', '1'}

// SignatureLength is the number of magic bytes prepended to every envelope.
const SignatureLength = len(Signature)

// Sentinel errors for envelope handling.
var (
	// ErrMissingSignature indicates the input is shorter than the signature.
	ErrMissingSignature = errors.New("codec: missing signature")
	// ErrUnknownFormat indicates the leading bytes do not match any known signature.
	ErrUnknownFormat = errors.New("codec: unknown format")
)

// Detect inspects the leading magic of data and reports which format, if
// any, it belongs to.
func Detect(data []byte) FormatKind {
	if len(data) < SignatureLength {
		return Unknown
	}
	if bytes.Equal(data[:SignatureLength], Signature[:]) {
		return FormatA
	}
	return Unknown
}

// IsEncrypted reports whether data carries a recognized signature. It is
// true iff Detect(data) != Unknown.
func IsEncrypted(data []byte) bool {
	return Detect(data) != Unknown
}

// Sign prepends the format-A signature to an already-encrypted body,
// producing the on-disk/on-wire envelope described in spec §6.1.
func Sign(body []byte) []byte {
	out := make([]byte, SignatureLength+len(body))
	copy(out, Signature[:])
	copy(out[SignatureLength:], body)
	return out
}

// StripSignature removes the envelope's leading signature and returns the
// ciphertext body. It fails with ErrMissingSignature if data is too short
// and ErrUnknownFormat if the magic does not match.
func StripSignature(data []byte) ([]byte, error) {
	if len(data) < SignatureLength {
		return nil, ErrMissingSignature
	}
	if !bytes.Equal(data[:SignatureLength], Signature[:]) {
		return nil, ErrUnknownFormat
	}
	return data[SignatureLength:], nil
}

// HasValidSignature reports whether data begins with the format-A
// signature. Sign/StripSignature form an involution on well-formed input:
// StripSignature(Sign(b)) == b and HasValidSignature(Sign(b)) == true.
func HasValidSignature(data []byte) bool {
	return len(data) >= SignatureLength && bytes.Equal(data[:SignatureLength], Signature[:])
}
