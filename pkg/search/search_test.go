package search

import (
	"testing"

	"github.com/riftlock/vaultengine/pkg/kvstore"
)

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"kitten", "sitting", 3},
		{"github", "github", 0},
		{"abc", "", 3},
	}
	for _, c := range cases {
		if got := Levenshtein(c.a, c.b); got != c.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestTermIndexRanksClosestFirst(t *testing.T) {
	idx := NewTermIndex(nil)
	idx.Index([]Candidate{
		{EntryID: "e1", Title: "GitHub", Username: "alice"},
		{EntryID: "e2", Title: "Gitlab", Username: "bob"},
		{EntryID: "e3", Title: "Totally unrelated", Username: "carol"},
	})

	hits := idx.Search("github", 0)
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].Candidate.EntryID != "e1" {
		t.Fatalf("expected exact-ish match first, got %+v", hits[0])
	}
}

func TestTermIndexCaseInsensitive(t *testing.T) {
	idx := NewTermIndex(nil)
	idx.Index([]Candidate{{EntryID: "e1", Title: "GitHub"}})
	hits := idx.Search("GITHUB", 0)
	if len(hits) != 1 || hits[0].Distance != 0 {
		t.Fatalf("expected a case-insensitive exact match, got %+v", hits)
	}
}

func TestHostOfAndRelated(t *testing.T) {
	if got := HostOf("https://accounts.google.com/login"); got != "accounts.google.com" {
		t.Fatalf("unexpected host: %q", got)
	}
	if !Related("accounts.google.com", "google.com") {
		t.Fatal("expected subdomain to be related to its parent domain")
	}
	if Related("example.com", "other.com") {
		t.Fatal("expected unrelated hosts to not match")
	}
}

func TestIncrementScoreAffectsRanking(t *testing.T) {
	store, err := kvstore.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	idx := NewURLIndex(store)
	candidates := []Candidate{
		{EntryID: "e1", URL: "https://mail.example.com"},
		{EntryID: "e2", URL: "https://example.com"},
	}

	for i := 0; i < 5; i++ {
		if err := idx.IncrementScore("v1", "e2", "https://example.com"); err != nil {
			t.Fatal(err)
		}
	}

	hits, err := idx.Search("v1", "https://example.com", candidates, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected both related hosts to match, got %d", len(hits))
	}
	if hits[0].Candidate.EntryID != "e2" {
		t.Fatalf("expected the entry with more hits to rank first, got %+v", hits[0])
	}
}

func TestIncrementScoreIsCumulative(t *testing.T) {
	store, err := kvstore.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	idx := NewURLIndex(store)
	for i := 0; i < 3; i++ {
		if err := idx.IncrementScore("v1", "e1", "https://example.com/login"); err != nil {
			t.Fatal(err)
		}
	}
	counts, err := idx.loadCounts("v1")
	if err != nil {
		t.Fatal(err)
	}
	if counts[scoreKey("e1", "example.com")] != 3 {
		t.Fatalf("expected cumulative count of 3, got %d", counts[scoreKey("e1", "example.com")])
	}
}
