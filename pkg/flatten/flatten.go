// Package flatten implements history compaction: folding prior state into
// a minimal equivalent prefix that reconstructs the same final tree (spec
// §4.6 "Flattener").
package flatten

import (
	"github.com/riftlock/vaultengine/pkg/history"
	"github.com/riftlock/vaultengine/pkg/vaultmodel"
)

// Threshold is the history length at or above which CanBeFlattened is true even
// without a destructive command present (spec §4.6).
const Threshold = 1000

// CanBeFlattened reports whether history is long enough, or carries any
// destructive command, to make flattening worthwhile.
func CanBeFlattened(lines []history.Line) bool {
	if len(lines) >= Threshold {
		return true
	}
	for _, l := range lines {
		if history.IsDestructive(l.Op) {
			return true
		}
	}
	return false
}

// Optimise replays tree's current shape into a minimal construction
// sequence: fmt, aid, then for each group (pre-order) cgr + tgr + sga*,
// and for each entry cen + sep* + sea* (spec §4.6). Property histories are
// dropped; the caller's engine starts fresh per-property history after
// adopting the flattened lines.
func Optimise(tree *vaultmodel.Vault) []history.Line {
	var out []history.Line
	out = append(out, history.Line{Op: history.OpFormat, Args: []string{tree.FormatTag}})
	out = append(out, history.Line{Op: history.OpVaultID, Args: []string{tree.VaultID}})

	for _, kv := range sortedPairs(tree.Attributes) {
		out = append(out, history.Line{Op: history.OpSetVaultAttr, Args: []string{kv.Key, kv.Value}})
	}

	out = append(out, flattenGroups(tree.Groups)...)
	return out
}

func flattenGroups(groups []*vaultmodel.Group) []history.Line {
	var out []history.Line
	for _, g := range groups {
		out = append(out, history.Line{Op: history.OpCreateGroup, Args: []string{g.ParentID, g.ID}})
		out = append(out, history.Line{Op: history.OpSetGroupTitle, Args: []string{g.ID, g.Title}})
		for _, kv := range sortedPairs(g.Attributes) {
			out = append(out, history.Line{Op: history.OpSetGroupAttr, Args: []string{g.ID, kv.Key, kv.Value}})
		}
		for _, e := range g.Entries {
			out = append(out, flattenEntry(e)...)
		}
		out = append(out, flattenGroups(g.Groups)...)
	}
	return out
}

func flattenEntry(e *vaultmodel.Entry) []history.Line {
	var out []history.Line
	out = append(out, history.Line{Op: history.OpCreateEntry, Args: []string{e.ParentGroupID, e.ID}})
	for _, kv := range sortedPairs(e.Properties) {
		out = append(out, history.Line{Op: history.OpSetEntryProperty, Args: []string{e.ID, kv.Key, kv.Value}})
	}
	for _, kv := range sortedPairs(e.Attributes) {
		out = append(out, history.Line{Op: history.OpSetEntryAttr, Args: []string{e.ID, kv.Key, kv.Value}})
	}
	return out
}

// pair is a key/value tuple used to walk maps in deterministic, sorted-by-
// key order so the same tree always flattens to the same byte sequence.
type pair struct{ Key, Value string }

func sortedPairs(m map[string]string) []pair {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Small, always-short slices: a plain insertion sort avoids pulling
	// in "sort" for what is at most a few dozen attributes/properties.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	out := make([]pair, len(keys))
	for i, k := range keys {
		out[i] = pair{Key: k, Value: m[k]}
	}
	return out
}
