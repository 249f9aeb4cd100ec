// Package executors implements one pure function per opcode, mutating a
// vault tree in response to a lexed command line (spec §4.4 "Command
// executors"). Each executor is total within its precondition and fails
// with a ReplayError on a violated precondition; the caller (pkg/engine)
// is responsible for making execution atomic per command.
package executors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/riftlock/vaultengine/pkg/history"
	"github.com/riftlock/vaultengine/pkg/vaultmodel"
)

// ReplayError wraps the specific semantic violation an executor hit,
// carrying the opcode and arguments for auditability (spec §7
// "ReplayError").
type ReplayError struct {
	Op   history.Opcode
	Args []string
	Kind error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("executors: %v (op=%s args=%v)", e.Kind, e.Op, e.Args)
}

func (e *ReplayError) Unwrap() error { return e.Kind }

// Sentinel ReplayError kinds (spec §3 invariant 3, §4.4).
var (
	ErrUnknownID     = errors.New("replay: unknown id")
	ErrDuplicateID   = errors.New("replay: duplicate id on create")
	ErrCycle         = errors.New("replay: move would create a cycle")
	ErrMissingParent = errors.New("replay: missing parent group")
	ErrBadArity      = errors.New("replay: wrong number of arguments")
	ErrAlreadySet    = errors.New("replay: fmt/aid already set")
)

func fail(op history.Opcode, args []string, kind error) error {
	return &ReplayError{Op: op, Args: args, Kind: kind}
}

// ExecContext carries the parameters replay needs but that are not part of
// the command text itself: the share a command belongs to, and a clock.
// Making these explicit keeps replay a pure function of (tree, history,
// share-mapping) per DESIGN NOTES "replay determinism and sharing",
// instead of a mutable options bag.
type ExecContext struct {
	ShareID string
	Now     func() int64
}

func (c ExecContext) timestamp() int64 {
	if c.Now == nil {
		return 0
	}
	return c.Now()
}

// Exec is the signature every opcode's executor satisfies.
type Exec func(v *vaultmodel.Vault, ctx ExecContext, args []string) error

// Dispatch maps each opcode in the manifest to its executor. pkg/engine
// routes lexed lines through this table (DESIGN NOTES "dynamic dispatch
// over opcodes": a closed table indexed by the opcode tag).
var Dispatch = map[history.Opcode]Exec{
	history.OpFormat:             execFormat,
	history.OpVaultID:            execVaultID,
	history.OpComment:            execComment,
	history.OpPad:                execPad,
	history.OpCreateGroup:        execCreateGroup,
	history.OpSetGroupTitle:      execSetGroupTitle,
	history.OpMoveGroup:          execMoveGroup,
	history.OpDeleteGroup:        execDeleteGroup,
	history.OpSetGroupAttr:       execSetGroupAttr,
	history.OpDeleteGroupAttr:    execDeleteGroupAttr,
	history.OpCreateEntry:        execCreateEntry,
	history.OpMoveEntry:          execMoveEntry,
	history.OpDeleteEntry:        execDeleteEntry,
	history.OpSetEntryProperty:   execSetEntryProperty,
	history.OpSetEntryPropAlt:    execSetEntryProperty,
	history.OpDeleteEntryProp:    execDeleteEntryProp,
	history.OpDeleteEntryPropAlt: execDeleteEntryProp,
	history.OpSetEntryAttr:       execSetEntryAttr,
	history.OpDeleteEntryAttr:    execDeleteEntryAttr,
	history.OpSetVaultAttr:       execSetVaultAttr,
	history.OpDeleteVaultAttr:    execDeleteVaultAttr,
}

func checkArity(op history.Opcode, args []string) error {
	spec, ok := history.Lookup(op)
	if !ok {
		return fail(op, args, ErrUnknownID)
	}
	if len(args) != spec.Arity {
		return fail(op, args, ErrBadArity)
	}
	return nil
}

func execFormat(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpFormat, args); err != nil {
		return err
	}
	if v.FormatTag != "" {
		return fail(history.OpFormat, args, ErrAlreadySet)
	}
	v.FormatTag = args[0]
	return nil
}

func execVaultID(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpVaultID, args); err != nil {
		return err
	}
	if v.VaultID != "" {
		return fail(history.OpVaultID, args, ErrAlreadySet)
	}
	v.VaultID = args[0]
	return nil
}

func execComment(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	return checkArity(history.OpComment, args)
}

func execPad(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	return checkArity(history.OpPad, args)
}

func execCreateGroup(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpCreateGroup, args); err != nil {
		return err
	}
	parentID, groupID := args[0], args[1]
	if v.FindGroup(groupID) != nil {
		return fail(history.OpCreateGroup, args, ErrDuplicateID)
	}
	if parentID != vaultmodel.RootGroupID && v.FindGroup(parentID) == nil {
		return fail(history.OpCreateGroup, args, ErrMissingParent)
	}
	g := vaultmodel.NewGroup(groupID, parentID)
	return v.AddGroup(g)
}

func execSetGroupTitle(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpSetGroupTitle, args); err != nil {
		return err
	}
	groupID, title := args[0], args[1]
	g := v.FindGroup(groupID)
	if g == nil {
		return fail(history.OpSetGroupTitle, args, ErrUnknownID)
	}
	g.Title = title
	return nil
}

func execMoveGroup(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpMoveGroup, args); err != nil {
		return err
	}
	groupID, newParentID := args[0], args[1]
	g := v.FindGroup(groupID)
	if g == nil {
		return fail(history.OpMoveGroup, args, ErrUnknownID)
	}
	if newParentID != vaultmodel.RootGroupID {
		if v.FindGroup(newParentID) == nil {
			return fail(history.OpMoveGroup, args, ErrMissingParent)
		}
		if v.IsDescendant(groupID, newParentID) {
			return fail(history.OpMoveGroup, args, ErrCycle)
		}
	}
	if err := v.RemoveGroup(groupID); err != nil {
		return fail(history.OpMoveGroup, args, ErrUnknownID)
	}
	g.ParentID = newParentID
	return v.AddGroup(g)
}

func execDeleteGroup(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpDeleteGroup, args); err != nil {
		return err
	}
	groupID := args[0]
	if v.FindGroup(groupID) == nil {
		return fail(history.OpDeleteGroup, args, ErrUnknownID)
	}
	return v.RemoveGroup(groupID)
}

func execSetGroupAttr(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpSetGroupAttr, args); err != nil {
		return err
	}
	groupID, key, value := args[0], args[1], args[2]
	g := v.FindGroup(groupID)
	if g == nil {
		return fail(history.OpSetGroupAttr, args, ErrUnknownID)
	}
	g.Attributes[key] = value
	return nil
}

func execDeleteGroupAttr(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpDeleteGroupAttr, args); err != nil {
		return err
	}
	groupID, key := args[0], args[1]
	g := v.FindGroup(groupID)
	if g == nil {
		return fail(history.OpDeleteGroupAttr, args, ErrUnknownID)
	}
	delete(g.Attributes, key)
	return nil
}

func execCreateEntry(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpCreateEntry, args); err != nil {
		return err
	}
	groupID, entryID := args[0], args[1]
	if v.FindEntry(entryID) != nil {
		return fail(history.OpCreateEntry, args, ErrDuplicateID)
	}
	if v.FindGroup(groupID) == nil {
		return fail(history.OpCreateEntry, args, ErrMissingParent)
	}
	e := vaultmodel.NewEntry(entryID, groupID)
	return v.AddEntry(e)
}

func execMoveEntry(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpMoveEntry, args); err != nil {
		return err
	}
	entryID, groupID := args[0], args[1]
	e := v.FindEntry(entryID)
	if e == nil {
		return fail(history.OpMoveEntry, args, ErrUnknownID)
	}
	if v.FindGroup(groupID) == nil {
		return fail(history.OpMoveEntry, args, ErrMissingParent)
	}
	if err := v.RemoveEntry(entryID); err != nil {
		return fail(history.OpMoveEntry, args, ErrUnknownID)
	}
	e.ParentGroupID = groupID
	return v.AddEntry(e)
}

func execDeleteEntry(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpDeleteEntry, args); err != nil {
		return err
	}
	entryID := args[0]
	if v.FindEntry(entryID) == nil {
		return fail(history.OpDeleteEntry, args, ErrUnknownID)
	}
	return v.RemoveEntry(entryID)
}

func execSetEntryProperty(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpSetEntryProperty, args); err != nil {
		return err
	}
	entryID, key, value := args[0], args[1], args[2]
	e := v.FindEntry(entryID)
	if e == nil {
		return fail(history.OpSetEntryProperty, args, ErrUnknownID)
	}
	e.Properties[key] = value
	newValue := value
	e.RecordPropertyChange(key, &newValue, ctx.timestamp())
	return nil
}

func execDeleteEntryProp(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpDeleteEntryProp, args); err != nil {
		return err
	}
	entryID, key := args[0], args[1]
	e := v.FindEntry(entryID)
	if e == nil {
		return fail(history.OpDeleteEntryProp, args, ErrUnknownID)
	}
	delete(e.Properties, key)
	e.RecordPropertyChange(key, nil, ctx.timestamp())
	return nil
}

func execSetEntryAttr(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpSetEntryAttr, args); err != nil {
		return err
	}
	entryID, key, value := args[0], args[1], args[2]
	e := v.FindEntry(entryID)
	if e == nil {
		return fail(history.OpSetEntryAttr, args, ErrUnknownID)
	}
	e.Attributes[key] = value
	return nil
}

func execDeleteEntryAttr(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpDeleteEntryAttr, args); err != nil {
		return err
	}
	entryID, key := args[0], args[1]
	e := v.FindEntry(entryID)
	if e == nil {
		return fail(history.OpDeleteEntryAttr, args, ErrUnknownID)
	}
	delete(e.Attributes, key)
	return nil
}

func execSetVaultAttr(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpSetVaultAttr, args); err != nil {
		return err
	}
	key, value := args[0], args[1]
	v.Attributes[key] = value
	return nil
}

func execDeleteVaultAttr(v *vaultmodel.Vault, ctx ExecContext, args []string) error {
	if err := checkArity(history.OpDeleteVaultAttr, args); err != nil {
		return err
	}
	delete(v.Attributes, args[0])
	return nil
}

// NewUUID returns a fresh lowercase UUID string suitable for group/entry
// IDs (spec §4.3's UUID shape).
func NewUUID() string {
	return uuid.New().String()
}
