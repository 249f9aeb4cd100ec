// Package merge reconciles two histories that share a common root but have
// since diverged (spec §4.7 "Merge engine"). There is no tombstone in this
// format (vaultmodel.RemoveGroup/RemoveEntry detach subtrees entirely), so
// a merge cannot causally order a delete against a concurrent edit; instead
// the weaker side's destructive commands are dropped.
package merge

import (
	"errors"
	"fmt"

	"github.com/riftlock/vaultengine/pkg/engine"
	"github.com/riftlock/vaultengine/pkg/executors"
	"github.com/riftlock/vaultengine/pkg/history"
)

// ErrNoCommonRoot is returned when two histories' common prefix is
// shorter than the minimum valid prefix: the opening fmt and aid lines
// (spec §7 "MergeError::NoCommonRoot"). Two vaults that agree on fmt but
// carry different aid lines are different vaults, not a divergence of the
// same one, and must not be merged.
var ErrNoCommonRoot = errors.New("merge: histories share no common root")

// destructiveSet is the opcode set prepareHistoryForMerge strips from the
// weaker side (spec §4.7). daa is included: vault attributes, including
// the attachment key, must never be concurrently erased out from under a
// merge partner.
var destructiveSet = buildDestructiveSet()

func buildDestructiveSet() map[history.Opcode]bool {
	m := make(map[history.Opcode]bool)
	for _, op := range history.DestructiveOpcodes() {
		m[op] = true
	}
	return m
}

func equalLine(a, b history.Line) bool {
	if a.ShareID != b.ShareID || a.Op != b.Op || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if a.Args[i] != b.Args[i] {
			return false
		}
	}
	return true
}

// commonPrefixLen returns how many leading lines strong and weak agree on
// exactly, stopping at the first divergence.
func commonPrefixLen(strong, weak []history.Line) int {
	n := len(strong)
	if len(weak) < n {
		n = len(weak)
	}
	i := 0
	for i < n && equalLine(strong[i], weak[i]) {
		i++
	}
	return i
}

// prepareHistoryForMerge downgrades every destructive command in tail to a
// comment recording what was dropped, and removes padding lines (padding
// is regenerated fresh by Merge once the tails are combined).
func prepareHistoryForMerge(tail []history.Line) []history.Line {
	stripped := history.StripPadding(tail)
	out := make([]history.Line, 0, len(stripped))
	for _, l := range stripped {
		if destructiveSet[l.Op] {
			out = append(out, history.Line{
				Op:   history.OpComment,
				Args: []string{"merge-dropped-destructive: " + history.EncodeLine(l)},
			})
			continue
		}
		out = append(out, l)
	}
	return out
}

// revalidate replays base then applies each line in tail in turn against a
// fresh tree seeded from base, downgrading any line that fails replay
// (ReplayError, e.g. a reference to an id the strong side already removed)
// to a comment. Lines that succeed are returned verbatim; the working tree
// is discarded once validation is done, since Merge's caller replays the
// final merged history through its own engine.
func revalidate(base, tail []history.Line) ([]history.Line, error) {
	e := engine.New()
	if err := e.Load(base); err != nil {
		return nil, fmt.Errorf("merge: failed to replay base: %w", err)
	}

	out := make([]history.Line, 0, len(tail))
	for _, l := range tail {
		if l.Op == history.OpComment {
			out = append(out, l)
			continue
		}
		if err := e.Execute(l); err != nil {
			var replayErr *executors.ReplayError
			if errors.As(err, &replayErr) {
				out = append(out, history.Line{
					Op:   history.OpComment,
					Args: []string{"merge-dropped-invalid: " + history.EncodeLine(l)},
				})
				continue
			}
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// Merge reconciles strong and weak, two histories that share a common
// root. strong's tail is kept as-is; weak's tail has its destructive
// commands dropped (prepareHistoryForMerge) and is then re-validated
// against the tree strong's tail produces, downgrading anything that no
// longer applies to a comment. The common prefix is kept verbatim; padding
// is regenerated over the combined tails (spec §4.7 step 5). Order within
// the merged tail is strong's commands first, then weak's, matching "weak
// yields to strong."
func Merge(strong, weak []history.Line) ([]history.Line, error) {
	prefixLen := commonPrefixLen(strong, weak)
	if prefixLen < 2 {
		return nil, ErrNoCommonRoot
	}

	base := strong[:prefixLen]
	strongTail := strong[prefixLen:]
	weakTail := weak[prefixLen:]

	prepared := prepareHistoryForMerge(weakTail)

	strongBase := append(append([]history.Line(nil), base...), strongTail...)
	validated, err := revalidate(strongBase, prepared)
	if err != nil {
		return nil, err
	}

	tails := make([]history.Line, 0, len(strongTail)+len(validated))
	tails = append(tails, history.StripPadding(strongTail)...)
	tails = append(tails, validated...)

	merged := make([]history.Line, 0, len(base)+2*len(tails))
	merged = append(merged, base...)
	merged = append(merged, repad(tails)...)
	return merged, nil
}

// repad interleaves a fresh padding line after every non-pad, non-comment
// line, matching the shape Engine.Execute produces during normal use.
func repad(lines []history.Line) []history.Line {
	out := make([]history.Line, 0, len(lines)*2)
	for _, l := range lines {
		out = append(out, l)
		if l.Op == history.OpComment || history.IsPad(l) {
			continue
		}
		if pad, err := history.NewPadding(); err == nil {
			out = append(out, pad)
		}
	}
	return out
}
