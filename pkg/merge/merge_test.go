package merge

import (
	"errors"
	"testing"

	"github.com/riftlock/vaultengine/pkg/engine"
	"github.com/riftlock/vaultengine/pkg/history"
)

func clockFrom(start int64) func() int64 {
	t := start
	return func() int64 { t++; return t }
}

func newInitialised(t *testing.T) (*engine.Engine, string) {
	t.Helper()
	e := engine.New()
	e.SetClock(clockFrom(0))
	if err := e.Initialise("1"); err != nil {
		t.Fatal(err)
	}
	groupID, err := e.CreateGroup("0")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.SetGroupTitle(groupID, "Home"); err != nil {
		t.Fatal(err)
	}
	return e, groupID
}

func TestMergeNoCommonRoot(t *testing.T) {
	a := []history.Line{{Op: history.OpFormat, Args: []string{"1"}}}
	b := []history.Line{{Op: history.OpFormat, Args: []string{"2"}}}
	_, err := Merge(a, b)
	if !errors.Is(err, ErrNoCommonRoot) {
		t.Fatalf("expected ErrNoCommonRoot, got %v", err)
	}
}

func TestMergeNoCommonRootWhenVaultIDsDiffer(t *testing.T) {
	a := []history.Line{
		{Op: history.OpFormat, Args: []string{"1"}},
		{Op: history.OpVaultID, Args: []string{"vault-a"}},
	}
	b := []history.Line{
		{Op: history.OpFormat, Args: []string{"1"}},
		{Op: history.OpVaultID, Args: []string{"vault-b"}},
	}
	_, err := Merge(a, b)
	if !errors.Is(err, ErrNoCommonRoot) {
		t.Fatalf("expected ErrNoCommonRoot for differing vault IDs, got %v", err)
	}
}

func TestMergeCombinesIndependentEdits(t *testing.T) {
	base, _ := newInitialised(t)
	shared := base.Lines()

	strong := engine.New()
	if err := strong.Load(shared); err != nil {
		t.Fatal(err)
	}
	strongGroup, err := strong.CreateGroup("0")
	if err != nil {
		t.Fatal(err)
	}
	if err := strong.SetGroupTitle(strongGroup, "Work"); err != nil {
		t.Fatal(err)
	}

	weak := engine.New()
	if err := weak.Load(shared); err != nil {
		t.Fatal(err)
	}
	weakGroup, err := weak.CreateGroup("0")
	if err != nil {
		t.Fatal(err)
	}
	if err := weak.SetGroupTitle(weakGroup, "Personal"); err != nil {
		t.Fatal(err)
	}

	merged, err := Merge(strong.Lines(), weak.Lines())
	if err != nil {
		t.Fatal(err)
	}

	replayed := engine.New()
	if err := replayed.Load(merged); err != nil {
		t.Fatalf("merged history failed to replay: %v", err)
	}
	titles := map[string]bool{}
	for _, g := range replayed.Tree().Groups {
		titles[g.Title] = true
	}
	if !titles["Home"] || !titles["Work"] || !titles["Personal"] {
		t.Fatalf("expected all three groups to survive merge, got %+v", replayed.Tree().Groups)
	}
}

func TestMergeDropsDestructiveFromWeakSide(t *testing.T) {
	base, groupID := newInitialised(t)
	shared := base.Lines()

	strong := engine.New()
	if err := strong.Load(shared); err != nil {
		t.Fatal(err)
	}
	entryID, err := strong.CreateEntry(groupID)
	if err != nil {
		t.Fatal(err)
	}
	if err := strong.SetEntryProperty(entryID, "username", "alice"); err != nil {
		t.Fatal(err)
	}

	weak := engine.New()
	if err := weak.Load(shared); err != nil {
		t.Fatal(err)
	}
	if err := weak.DeleteGroup(groupID); err != nil {
		t.Fatal(err)
	}

	merged, err := Merge(strong.Lines(), weak.Lines())
	if err != nil {
		t.Fatal(err)
	}

	replayed := engine.New()
	if err := replayed.Load(merged); err != nil {
		t.Fatalf("merged history failed to replay: %v", err)
	}
	if replayed.Tree().FindGroup(groupID) == nil {
		t.Fatal("expected group deleted only on the weak side to survive the merge")
	}
	if replayed.Tree().FindEntry(entryID) == nil {
		t.Fatal("expected entry created on the strong side to survive the merge")
	}
}

func TestMergeDropsWeakCommandInvalidatedByStrongSide(t *testing.T) {
	base, groupID := newInitialised(t)
	shared := base.Lines()

	strong := engine.New()
	if err := strong.Load(shared); err != nil {
		t.Fatal(err)
	}
	if err := strong.DeleteGroup(groupID); err != nil {
		t.Fatal(err)
	}

	weak := engine.New()
	if err := weak.Load(shared); err != nil {
		t.Fatal(err)
	}
	if err := weak.SetGroupTitle(groupID, "Renamed"); err != nil {
		t.Fatal(err)
	}

	merged, err := Merge(strong.Lines(), weak.Lines())
	if err != nil {
		t.Fatal(err)
	}

	replayed := engine.New()
	if err := replayed.Load(merged); err != nil {
		t.Fatalf("merged history with a stale weak edit failed to replay: %v", err)
	}
	if replayed.Tree().FindGroup(groupID) != nil {
		t.Fatal("expected group deleted on the strong side to stay deleted")
	}
}
