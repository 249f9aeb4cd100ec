// Package vaultmodel holds the in-memory tree of groups and entries that a
// history replays into (spec §3 "Vault object model"), plus the identity
// and uniqueness invariants pkg/executors and pkg/engine must preserve.
package vaultmodel

import "errors"

// RootGroupID is the sentinel parent ID meaning "no parent, this is a
// root-level group" (spec §3 "Group.parentID").
const RootGroupID = "0"

// Sentinel lookup errors shared by the executors and the merge/flatten
// layers that walk the tree directly.
var (
	ErrGroupNotFound = errors.New("vaultmodel: group not found")
	ErrEntryNotFound = errors.New("vaultmodel: entry not found")
	ErrGroupExists   = errors.New("vaultmodel: group already exists")
	ErrEntryExists   = errors.New("vaultmodel: entry already exists")
)

// PropertyChange is one append-only record in an entry's per-property
// change history (spec §3 "Entry.history", invariant 4).
type PropertyChange struct {
	Property string
	OldValue *string
	NewValue *string
	Ts       int64
}

// Entry is a single credential record: a bag of properties (username,
// password, url, ...) plus engine-controlled attributes and an
// append-only per-property change log.
type Entry struct {
	ID            string
	ParentGroupID string
	Properties    map[string]string
	Attributes    map[string]string
	History       []PropertyChange
}

// NewEntry constructs an empty entry under parentGroupID.
func NewEntry(id, parentGroupID string) *Entry {
	return &Entry{
		ID:            id,
		ParentGroupID: parentGroupID,
		Properties:    make(map[string]string),
		Attributes:    make(map[string]string),
	}
}

// RecordPropertyChange appends a change record for one property (spec
// invariant 4: each item's OldValue equals the prior item's NewValue for
// the same key, or nil if there was none).
func (e *Entry) RecordPropertyChange(property string, newValue *string, ts int64) {
	var old *string
	for i := len(e.History) - 1; i >= 0; i-- {
		if e.History[i].Property == property {
			old = e.History[i].NewValue
			break
		}
	}
	e.History = append(e.History, PropertyChange{
		Property: property,
		OldValue: old,
		NewValue: newValue,
		Ts:       ts,
	})
}

// Group is a node in the vault's tree: a named container of child groups
// and entries, plus engine-controlled attributes.
type Group struct {
	ID         string
	Title      string
	ParentID   string
	Attributes map[string]string
	Groups     []*Group
	Entries    []*Entry
}

// NewGroup constructs an empty group under parentID.
func NewGroup(id, parentID string) *Group {
	return &Group{
		ID:         id,
		ParentID:   parentID,
		Attributes: make(map[string]string),
	}
}

// Vault is the authoritative in-memory representation of one vault: its
// identity, format tag, top-level attributes, and the root-level group
// forest (spec §3 "Vault").
type Vault struct {
	VaultID    string
	FormatTag  string
	Attributes map[string]string
	Groups     []*Group
}

// New constructs an empty vault with no ID or format tag set yet. Those
// are assigned by replaying the fmt/aid commands (spec §3 "Lifecycle").
func New() *Vault {
	return &Vault{Attributes: make(map[string]string)}
}

// Clear resets the vault to the same state New() would produce (spec §3
// "Destruction is by erase: history truncated to zero, tree cleared").
func (v *Vault) Clear() {
	v.VaultID = ""
	v.FormatTag = ""
	v.Attributes = make(map[string]string)
	v.Groups = nil
}

// AllGroups returns every group in the tree in pre-order (group, then its
// children, before siblings), the order the flattener re-emits in.
func (v *Vault) AllGroups() []*Group {
	var out []*Group
	var walk func([]*Group)
	walk = func(groups []*Group) {
		for _, g := range groups {
			out = append(out, g)
			walk(g.Groups)
		}
	}
	walk(v.Groups)
	return out
}

// AllEntries returns every entry in the tree, grouped by the pre-order
// traversal of their parent groups.
func (v *Vault) AllEntries() []*Entry {
	var out []*Entry
	for _, g := range v.AllGroups() {
		out = append(out, g.Entries...)
	}
	return out
}

// FindGroup locates a group anywhere in the tree by ID.
func (v *Vault) FindGroup(id string) *Group {
	for _, g := range v.AllGroups() {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// FindEntry locates an entry anywhere in the tree by ID.
func (v *Vault) FindEntry(id string) *Entry {
	for _, e := range v.AllEntries() {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// groupsUnder returns the slice a group with the given parent ID should be
// appended to / removed from: the vault's root Groups slice when
// parentID is RootGroupID, or the parent group's Groups slice otherwise.
// The returned setter lets callers replace the slice after mutation.
func (v *Vault) groupsUnder(parentID string) (get func() []*Group, set func([]*Group)) {
	if parentID == RootGroupID || parentID == "" {
		return func() []*Group { return v.Groups }, func(gs []*Group) { v.Groups = gs }
	}
	parent := v.FindGroup(parentID)
	if parent == nil {
		return nil, nil
	}
	return func() []*Group { return parent.Groups }, func(gs []*Group) { parent.Groups = gs }
}

// AddGroup appends g as a child of g.ParentID. Returns ErrGroupNotFound if
// the parent does not exist (and is not the root sentinel).
func (v *Vault) AddGroup(g *Group) error {
	get, set := v.groupsUnder(g.ParentID)
	if get == nil {
		return ErrGroupNotFound
	}
	set(append(get(), g))
	return nil
}

// RemoveGroup detaches the subtree rooted at id from the tree entirely
// (spec §4.4: "there is no tombstone"). Returns ErrGroupNotFound if id
// does not exist.
func (v *Vault) RemoveGroup(id string) error {
	g := v.FindGroup(id)
	if g == nil {
		return ErrGroupNotFound
	}
	get, set := v.groupsUnder(g.ParentID)
	if get == nil {
		return ErrGroupNotFound
	}
	siblings := get()
	for i, s := range siblings {
		if s.ID == id {
			set(append(siblings[:i], siblings[i+1:]...))
			return nil
		}
	}
	return ErrGroupNotFound
}

// AddEntry appends e as a child of its ParentGroupID. Returns
// ErrGroupNotFound if the parent group does not exist.
func (v *Vault) AddEntry(e *Entry) error {
	g := v.FindGroup(e.ParentGroupID)
	if g == nil {
		return ErrGroupNotFound
	}
	g.Entries = append(g.Entries, e)
	return nil
}

// RemoveEntry detaches an entry from its parent group entirely.
func (v *Vault) RemoveEntry(id string) error {
	e := v.FindEntry(id)
	if e == nil {
		return ErrEntryNotFound
	}
	g := v.FindGroup(e.ParentGroupID)
	if g == nil {
		return ErrGroupNotFound
	}
	for i, s := range g.Entries {
		if s.ID == id {
			g.Entries = append(g.Entries[:i], g.Entries[i+1:]...)
			return nil
		}
	}
	return ErrEntryNotFound
}

// IsDescendant reports whether candidateID names a group that is id itself
// or appears anywhere in the subtree rooted at id. Used by mgr's cycle
// check (spec §4.4: "mgr rejects cycles").
func (v *Vault) IsDescendant(id, candidateID string) bool {
	if id == candidateID {
		return true
	}
	g := v.FindGroup(id)
	if g == nil {
		return false
	}
	for _, child := range g.Groups {
		if v.IsDescendant(child.ID, candidateID) {
			return true
		}
	}
	return false
}
