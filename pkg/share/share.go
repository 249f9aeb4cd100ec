// Package share demultiplexes a history that carries per-share command
// lines (the "$<uuid> <opcode> ..." prefix, spec §4.3) into a base history
// plus one sub-history per share (spec §4.8 "Share extractor").
package share

import "github.com/riftlock/vaultengine/pkg/history"

// Extracted is the result of demultiplexing a history by share ID.
type Extracted struct {
	Base   []history.Line
	Shares map[string][]history.Line
}

// ExtractSharesFromHistory buckets lines into Base (ShareID == "") and one
// slice per distinct ShareID, preserving the original relative order
// within each bucket (spec §4.8: "grouping preserves order").
func ExtractSharesFromHistory(lines []history.Line) Extracted {
	out := Extracted{Shares: make(map[string][]history.Line)}
	for _, l := range lines {
		if l.ShareID == "" {
			out.Base = append(out.Base, l)
			continue
		}
		out.Shares[l.ShareID] = append(out.Shares[l.ShareID], l)
	}
	return out
}

// Recombine is the inverse of ExtractSharesFromHistory: it interleaves base
// and every share's lines back into order values, ranges over shareOrder
// decide which share's lines are inserted at each recorded position.
// shareOrder must be the same slice of ShareIDs (with "" for base lines)
// that ExtractSharesFromHistory's caller observed in the original history,
// since bucketing alone discards interleaving order across shares.
func Recombine(extracted Extracted, shareOrder []string) []history.Line {
	cursors := make(map[string]int, len(extracted.Shares))
	out := make([]history.Line, 0, len(shareOrder))
	baseCursor := 0
	for _, id := range shareOrder {
		if id == "" {
			if baseCursor < len(extracted.Base) {
				out = append(out, extracted.Base[baseCursor])
				baseCursor++
			}
			continue
		}
		lines := extracted.Shares[id]
		i := cursors[id]
		if i < len(lines) {
			out = append(out, lines[i])
			cursors[id] = i + 1
		}
	}
	return out
}

// ShareOrder records, for a history, the ShareID of each line in order
// (including "" for base lines). A caller that needs to recombine an
// extraction later must keep this alongside the Extracted value, since
// Extracted itself no longer remembers how shares were interleaved.
func ShareOrder(lines []history.Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.ShareID
	}
	return out
}
