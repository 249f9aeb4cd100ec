package kvstore

import "testing"

func TestSetGetRoundTrip(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("expected missing key to be absent, got ok=%v err=%v", ok, err)
	}

	if err := s.Set("bcup_search_v1", `{"e1":1}`); err != nil {
		t.Fatal(err)
	}
	value, ok, err := s.Get("bcup_search_v1")
	if err != nil || !ok {
		t.Fatalf("expected key present, got ok=%v err=%v", ok, err)
	}
	if value != `{"e1":1}` {
		t.Fatalf("unexpected value: %s", value)
	}

	if err := s.Set("bcup_search_v1", `{"e1":2}`); err != nil {
		t.Fatal(err)
	}
	value, _, _ = s.Get("bcup_search_v1")
	if value != `{"e1":2}` {
		t.Fatalf("expected overwrite to replace value, got %s", value)
	}
}

func TestDelete(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Set("k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get("k"); ok {
		t.Fatal("expected key to be gone after delete")
	}
	if err := s.Delete("nonexistent"); err != nil {
		t.Fatalf("deleting an absent key should not error: %v", err)
	}
}
