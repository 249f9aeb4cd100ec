package vaultmodel

import "testing"

func TestAddFindRemoveGroup(t *testing.T) {
	v := New()
	g := NewGroup("g1", RootGroupID)
	g.Title = "Home"
	if err := v.AddGroup(g); err != nil {
		t.Fatal(err)
	}
	if found := v.FindGroup("g1"); found == nil || found.Title != "Home" {
		t.Fatalf("expected to find group g1, got %v", found)
	}

	child := NewGroup("g2", "g1")
	if err := v.AddGroup(child); err != nil {
		t.Fatal(err)
	}
	if !v.IsDescendant("g1", "g2") {
		t.Error("expected g2 to be a descendant of g1")
	}
	if v.IsDescendant("g2", "g1") {
		t.Error("g1 is not a descendant of g2")
	}

	if err := v.RemoveGroup("g1"); err != nil {
		t.Fatal(err)
	}
	if v.FindGroup("g1") != nil || v.FindGroup("g2") != nil {
		t.Error("expected whole subtree to be removed")
	}
}

func TestAddGroupMissingParent(t *testing.T) {
	v := New()
	g := NewGroup("g1", "missing-parent")
	if err := v.AddGroup(g); err != ErrGroupNotFound {
		t.Errorf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestEntryLifecycle(t *testing.T) {
	v := New()
	root := NewGroup("g1", RootGroupID)
	if err := v.AddGroup(root); err != nil {
		t.Fatal(err)
	}

	e := NewEntry("e1", "g1")
	if err := v.AddEntry(e); err != nil {
		t.Fatal(err)
	}
	if v.FindEntry("e1") == nil {
		t.Fatal("expected to find entry e1")
	}

	newVal := "alice"
	e.Properties["username"] = newVal
	e.RecordPropertyChange("username", &newVal, 1)
	if len(e.History) != 1 || e.History[0].OldValue != nil {
		t.Fatalf("expected first history entry to have nil OldValue, got %+v", e.History)
	}

	updated := "bob"
	e.RecordPropertyChange("username", &updated, 2)
	if *e.History[1].OldValue != newVal {
		t.Errorf("expected second history OldValue to equal first NewValue, got %+v", e.History[1])
	}

	if err := v.RemoveEntry("e1"); err != nil {
		t.Fatal(err)
	}
	if v.FindEntry("e1") != nil {
		t.Error("expected entry to be removed")
	}
}

func TestIsVaultFacade(t *testing.T) {
	valid := map[string]any{"type": "vault", "id": "1", "groups": []any{}, "entries": []any{}}
	if !IsVaultFacade(valid) {
		t.Error("expected valid facade to be recognized")
	}
	noID := map[string]any{"type": "vault", "groups": []any{}, "entries": []any{}}
	if IsVaultFacade(noID) {
		t.Error("expected facade without id to be rejected")
	}
	if IsVaultFacade(nil) {
		t.Error("expected nil to be rejected")
	}
	if IsVaultFacade("not a map") {
		t.Error("expected non-map to be rejected")
	}
}

func TestToFacade(t *testing.T) {
	v := New()
	v.VaultID = "vault-1"
	root := NewGroup("g1", RootGroupID)
	root.Title = "Home"
	if err := v.AddGroup(root); err != nil {
		t.Fatal(err)
	}
	e := NewEntry("e1", "g1")
	e.Properties["username"] = "alice"
	if err := v.AddEntry(e); err != nil {
		t.Fatal(err)
	}

	f := ToFacade(v)
	if f.Type != "vault" || f.ID != "vault-1" {
		t.Fatalf("unexpected facade header: %+v", f)
	}
	if len(f.Groups) != 1 || f.Groups[0].Title != "Home" {
		t.Fatalf("unexpected groups: %+v", f.Groups)
	}
	if len(f.Entries) != 1 || f.Entries[0].Properties["username"] != "alice" {
		t.Fatalf("unexpected entries: %+v", f.Entries)
	}

	// Mutating the facade must not affect the original tree.
	f.Entries[0].Properties["username"] = "mallory"
	if e.Properties["username"] != "alice" {
		t.Error("facade mutation leaked back into the vault tree")
	}
}
