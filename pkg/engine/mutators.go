package engine

import (
	"github.com/riftlock/vaultengine/pkg/executors"
	"github.com/riftlock/vaultengine/pkg/history"
)

// The mutators below are thin wrappers that construct a command line via
// the encoder and delegate to Execute (spec §4.5). They exist so callers
// never have to spell out opcodes by hand.

func (e *Engine) CreateGroup(parentID string) (string, error) {
	id := executors.NewUUID()
	return id, e.Execute(history.Line{Op: history.OpCreateGroup, Args: []string{parentID, id}})
}

func (e *Engine) SetGroupTitle(groupID, title string) error {
	return e.Execute(history.Line{Op: history.OpSetGroupTitle, Args: []string{groupID, title}})
}

func (e *Engine) MoveGroup(groupID, newParentID string) error {
	return e.Execute(history.Line{Op: history.OpMoveGroup, Args: []string{groupID, newParentID}})
}

func (e *Engine) DeleteGroup(groupID string) error {
	return e.Execute(history.Line{Op: history.OpDeleteGroup, Args: []string{groupID}})
}

func (e *Engine) SetGroupAttribute(groupID, key, value string) error {
	return e.Execute(history.Line{Op: history.OpSetGroupAttr, Args: []string{groupID, key, value}})
}

func (e *Engine) DeleteGroupAttribute(groupID, key string) error {
	return e.Execute(history.Line{Op: history.OpDeleteGroupAttr, Args: []string{groupID, key}})
}

func (e *Engine) CreateEntry(groupID string) (string, error) {
	id := executors.NewUUID()
	return id, e.Execute(history.Line{Op: history.OpCreateEntry, Args: []string{groupID, id}})
}

func (e *Engine) MoveEntry(entryID, groupID string) error {
	return e.Execute(history.Line{Op: history.OpMoveEntry, Args: []string{entryID, groupID}})
}

func (e *Engine) DeleteEntry(entryID string) error {
	return e.Execute(history.Line{Op: history.OpDeleteEntry, Args: []string{entryID}})
}

func (e *Engine) SetEntryProperty(entryID, key, value string) error {
	return e.Execute(history.Line{Op: history.OpSetEntryProperty, Args: []string{entryID, key, value}})
}

func (e *Engine) DeleteEntryProperty(entryID, key string) error {
	return e.Execute(history.Line{Op: history.OpDeleteEntryProp, Args: []string{entryID, key}})
}

func (e *Engine) SetEntryAttribute(entryID, key, value string) error {
	return e.Execute(history.Line{Op: history.OpSetEntryAttr, Args: []string{entryID, key, value}})
}

func (e *Engine) DeleteEntryAttribute(entryID, key string) error {
	return e.Execute(history.Line{Op: history.OpDeleteEntryAttr, Args: []string{entryID, key}})
}

func (e *Engine) SetVaultAttribute(key, value string) error {
	return e.Execute(history.Line{Op: history.OpSetVaultAttr, Args: []string{key, value}})
}

func (e *Engine) DeleteVaultAttribute(key string) error {
	return e.Execute(history.Line{Op: history.OpDeleteVaultAttr, Args: []string{key}})
}
