package executors

import (
	"errors"
	"testing"

	"github.com/riftlock/vaultengine/pkg/history"
	"github.com/riftlock/vaultengine/pkg/vaultmodel"
)

func ctx() ExecContext {
	var tick int64
	return ExecContext{Now: func() int64 {
		tick++
		return tick
	}}
}

func TestCreateGroupAndEntry(t *testing.T) {
	v := vaultmodel.New()
	c := ctx()

	if err := Dispatch[history.OpCreateGroup](v, c, []string{vaultmodel.RootGroupID, "g1"}); err != nil {
		t.Fatal(err)
	}
	if err := Dispatch[history.OpSetGroupTitle](v, c, []string{"g1", "Home"}); err != nil {
		t.Fatal(err)
	}
	if err := Dispatch[history.OpCreateEntry](v, c, []string{"g1", "e1"}); err != nil {
		t.Fatal(err)
	}
	if err := Dispatch[history.OpSetEntryProperty](v, c, []string{"e1", "username", "alice"}); err != nil {
		t.Fatal(err)
	}

	if len(v.Groups) != 1 || v.Groups[0].Title != "Home" {
		t.Fatalf("unexpected groups: %+v", v.Groups)
	}
	if v.Groups[0].Entries[0].Properties["username"] != "alice" {
		t.Fatalf("unexpected entry: %+v", v.Groups[0].Entries[0])
	}
}

func TestDuplicateGroupRejected(t *testing.T) {
	v := vaultmodel.New()
	c := ctx()
	if err := Dispatch[history.OpCreateGroup](v, c, []string{vaultmodel.RootGroupID, "g1"}); err != nil {
		t.Fatal(err)
	}
	err := Dispatch[history.OpCreateGroup](v, c, []string{vaultmodel.RootGroupID, "g1"})
	var re *ReplayError
	if !errors.As(err, &re) || !errors.Is(re, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestUnknownIDFails(t *testing.T) {
	v := vaultmodel.New()
	c := ctx()
	err := Dispatch[history.OpSetEntryProperty](v, c, []string{"no-such-entry", "password", "x"})
	if !errors.Is(err, ErrUnknownID) {
		t.Fatalf("expected ErrUnknownID, got %v", err)
	}
}

func TestMoveGroupCycleRejected(t *testing.T) {
	v := vaultmodel.New()
	c := ctx()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(Dispatch[history.OpCreateGroup](v, c, []string{vaultmodel.RootGroupID, "g1"}))
	must(Dispatch[history.OpCreateGroup](v, c, []string{"g1", "g2"}))

	err := Dispatch[history.OpMoveGroup](v, c, []string{"g1", "g2"})
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestDeletePropertyHistory(t *testing.T) {
	v := vaultmodel.New()
	c := ctx()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(Dispatch[history.OpCreateGroup](v, c, []string{vaultmodel.RootGroupID, "g1"}))
	must(Dispatch[history.OpCreateEntry](v, c, []string{"g1", "e1"}))
	must(Dispatch[history.OpSetEntryProperty](v, c, []string{"e1", "password", "x"}))
	must(Dispatch[history.OpDeleteEntryProp](v, c, []string{"e1", "password"}))

	e := v.FindEntry("e1")
	if len(e.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(e.History))
	}
	if e.History[1].NewValue != nil {
		t.Errorf("expected delete to record nil NewValue, got %v", *e.History[1].NewValue)
	}
	if *e.History[1].OldValue != "x" {
		t.Errorf("expected delete OldValue to carry prior value, got %v", e.History[1].OldValue)
	}
}

func TestNoPartialMutationOnFailure(t *testing.T) {
	v := vaultmodel.New()
	c := ctx()
	// sep against an unknown entry must not mutate anything.
	_ = Dispatch[history.OpSetEntryProperty](v, c, []string{"missing", "password", "x"})
	if len(v.AllEntries()) != 0 {
		t.Fatal("expected no entries after failed executor call")
	}
}
