// Package search implements the engine's search indexer (spec §4.10): a
// fuzzy term index over title/username/url, and a URL/domain index with
// persisted hit counts.
package search

import (
	"sort"

	"golang.org/x/text/cases"
)

// foldCaser performs locale-independent case folding so term matching is
// insensitive to case without depending on the user's language settings.
var foldCaser = cases.Fold()

func normalize(s string) string {
	return foldCaser.String(s)
}

// Candidate is one searchable entry projection (spec §4.10: "over title,
// username, url").
type Candidate struct {
	VaultID  string
	EntryID  string
	Title    string
	Username string
	URL      string
}

// Hit pairs a Candidate with its match distance (lower is closer).
type Hit struct {
	Candidate Candidate
	Distance  int
}

// TermIndex ranks candidates against a query over their title, username,
// and url fields, using a pluggable Ranker (default Levenshtein).
type TermIndex struct {
	ranker Ranker
	items  []Candidate
}

// NewTermIndex builds an index with the given ranker. A nil ranker
// defaults to Levenshtein.
func NewTermIndex(ranker Ranker) *TermIndex {
	if ranker == nil {
		ranker = Levenshtein
	}
	return &TermIndex{ranker: ranker}
}

// Index replaces the indexed candidate set.
func (t *TermIndex) Index(items []Candidate) {
	t.items = items
}

// Search ranks every indexed candidate against query, taking the best
// (lowest-distance) match across title/username/url per candidate, and
// returns up to limit hits in ascending distance order. limit <= 0 means
// unlimited.
func (t *TermIndex) Search(query string, limit int) []Hit {
	q := normalize(query)
	hits := make([]Hit, 0, len(t.items))
	for _, c := range t.items {
		best := t.ranker(q, normalize(c.Title))
		if d := t.ranker(q, normalize(c.Username)); d < best {
			best = d
		}
		if d := t.ranker(q, normalize(c.URL)); d < best {
			best = d
		}
		hits = append(hits, Hit{Candidate: c, Distance: best})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
