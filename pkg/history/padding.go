package history

import "github.com/riftlock/vaultengine/pkg/vcrypto"

// NewPadding builds a padding line (spec §3 "Padding"): a no-op command
// carrying a random nonce, inserted between meaningful commands to
// obscure command boundaries in ciphertext. Two padding lines never
// appear consecutively (spec invariant 1 enforcement lives in pkg/engine,
// which is the only place that knows the line that came before).
func NewPadding() (Line, error) {
	nonce, err := vcrypto.RandomString(16)
	if err != nil {
		// Spec §7: "Padding emission failures are non-fatal (dropped
		// silently)." Callers treat a returned error as "skip the pad".
		return Line{}, err
	}
	return Line{Op: OpPad, Args: []string{nonce}}, nil
}

// IsPad reports whether l is a padding line.
func IsPad(l Line) bool {
	return l.Op == OpPad
}

// StripPadding returns lines with all padding lines removed, preserving
// relative order of the remaining lines. Used by the merge engine (spec
// §4.7 step 5) before it re-emits padding.
func StripPadding(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if !IsPad(l) {
			out = append(out, l)
		}
	}
	return out
}
