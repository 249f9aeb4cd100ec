package search

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/riftlock/vaultengine/pkg/kvstore"
)

func hitCountKey(vaultID string) string { return "bcup_search_" + vaultID }

func scoreKey(entryID, domain string) string { return entryID + "|" + domain }

// URLIndex ranks candidates by host relation plus a persisted per-domain
// hit count (spec §4.10 "URL index").
type URLIndex struct {
	store *kvstore.Store
}

// NewURLIndex builds a URL index backed by store for hit-count persistence.
func NewURLIndex(store *kvstore.Store) *URLIndex {
	return &URLIndex{store: store}
}

// HostOf extracts and normalizes the host portion of a URL, or "" if
// rawURL does not parse to one.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return normalize(u.Hostname())
}

// Related reports whether two hosts are related: one is a suffix of the
// other (spec §4.10). Empty hosts are never related to anything.
func Related(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.HasSuffix(a, b) || strings.HasSuffix(b, a)
}

func (x *URLIndex) loadCounts(vaultID string) (map[string]int, error) {
	raw, ok, err := x.store.Get(hitCountKey(vaultID))
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	if ok {
		if err := json.Unmarshal([]byte(raw), &counts); err != nil {
			return nil, fmt.Errorf("search: corrupt hit-count map for vault %s: %w", vaultID, err)
		}
	}
	return counts, nil
}

func (x *URLIndex) saveCounts(vaultID string, counts map[string]int) error {
	raw, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return x.store.Set(hitCountKey(vaultID), string(raw))
}

// IncrementScore is the indexer's only write: it bumps the hit count for
// (vaultID, entryID, domain-of-url) (spec §4.10). Repeated calls
// accumulate: each call adds one to the same counter.
func (x *URLIndex) IncrementScore(vaultID, entryID, rawURL string) error {
	domain := HostOf(rawURL)
	if domain == "" {
		return nil
	}
	counts, err := x.loadCounts(vaultID)
	if err != nil {
		return err
	}
	counts[scoreKey(entryID, domain)]++
	return x.saveCounts(vaultID, counts)
}

type urlMatch struct {
	hit      Hit
	hitCount int
}

// Search ranks candidates whose host is related to queryURL's host by
// (domain-hit-count descending, edit distance ascending) — spec §4.10's
// "(domain-hit-count, 1/Levenshtein(...))" ranking, expressed as a
// descending-then-ascending sort rather than computing the reciprocal.
func (x *URLIndex) Search(vaultID, queryURL string, candidates []Candidate, limit int) ([]Hit, error) {
	counts, err := x.loadCounts(vaultID)
	if err != nil {
		return nil, err
	}
	queryHost := HostOf(queryURL)
	normalizedQuery := normalize(queryURL)

	var matches []urlMatch
	for _, c := range candidates {
		host := HostOf(c.URL)
		if !Related(queryHost, host) {
			continue
		}
		matches = append(matches, urlMatch{
			hit:      Hit{Candidate: c, Distance: Levenshtein(normalizedQuery, normalize(c.URL))},
			hitCount: counts[scoreKey(c.EntryID, host)],
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].hitCount != matches[j].hitCount {
			return matches[i].hitCount > matches[j].hitCount
		}
		return matches[i].hit.Distance < matches[j].hit.Distance
	})

	out := make([]Hit, len(matches))
	for i, m := range matches {
		out[i] = m.hit
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
