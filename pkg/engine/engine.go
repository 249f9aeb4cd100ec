// Package engine owns one vault's tree, its history, and the read-only
// flag, and is the only place that turns a command into both a tree
// mutation and a history append in the same atomic step (spec §4.5
// "Format engine").
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/riftlock/vaultengine/pkg/executors"
	"github.com/riftlock/vaultengine/pkg/flatten"
	"github.com/riftlock/vaultengine/pkg/history"
	"github.com/riftlock/vaultengine/pkg/share"
	"github.com/riftlock/vaultengine/pkg/vaultmodel"
)

// State is one node of the engine's lifecycle state machine (spec §4.5
// "Empty → Initialised → Mutable ↔ ReadOnly → Sealed").
type State int

const (
	StateEmpty State = iota
	StateInitialised
	StateMutable
	StateReadOnly
	StateSealed
)

// Sentinel engine errors (spec §7 "EngineError").
var (
	ErrReadOnly       = errors.New("engine: vault is read-only")
	ErrNotInitialised = errors.New("engine: vault is not initialised")
	ErrAlreadySealed  = errors.New("engine: vault is sealed")
)

// Listener receives typed notifications from an Engine (DESIGN NOTES
// "event emission": an explicit listener interface rather than dynamic
// string channels).
type Listener interface {
	OnCommandsExecuted(lines []history.Line)
}

// Engine owns (source_tree, history, read_only, dirty) per spec §4.5.
type Engine struct {
	tree     *vaultmodel.Vault
	lines    []history.Line
	state    State
	dirty    bool
	listener Listener
	now      func() int64
}

// New constructs an empty, uninitialised engine. Call Initialise or Load
// before executing commands.
func New() *Engine {
	return &Engine{
		tree:  vaultmodel.New(),
		state: StateEmpty,
		now:   func() int64 { return time.Now().UnixNano() },
	}
}

// SetListener registers the listener that receives OnCommandsExecuted
// notifications. A nil listener disables notification.
func (e *Engine) SetListener(l Listener) { e.listener = l }

// SetClock overrides the timestamp source used for property-history
// entries. Exposed for deterministic tests.
func (e *Engine) SetClock(now func() int64) { e.now = now }

// State returns the engine's current lifecycle state.
func (e *Engine) State() State { return e.state }

// Tree returns the live vault tree. Callers outside this package should
// treat it as read-only; vaultmodel.ToFacade is the supported way to hand
// vault contents to external code (spec §5 "external callers receive
// facade snapshots... and may not mutate internals directly").
func (e *Engine) Tree() *vaultmodel.Vault { return e.tree }

// Lines returns the current history as a copy.
func (e *Engine) Lines() []history.Line {
	out := make([]history.Line, len(e.lines))
	copy(out, e.lines)
	return out
}

// Dirty reports whether the engine has unpersisted mutations.
func (e *Engine) Dirty() bool { return e.dirty }

// GetFormat returns the format identity token recorded by the fmt command,
// or "" if the engine has not been initialised yet.
func (e *Engine) GetFormat() string { return e.tree.FormatTag }

// Initialise emits fmt then aid, taking the engine Empty → Initialised
// (spec §3 "Lifecycle", §4.5).
func (e *Engine) Initialise(formatTag string) error {
	if e.state != StateEmpty {
		return fmt.Errorf("engine: cannot initialise from state %v", e.state)
	}
	if err := e.appendAndApply(history.Line{Op: history.OpFormat, Args: []string{formatTag}}, false); err != nil {
		return err
	}
	vaultID := executors.NewUUID()
	if err := e.appendAndApply(history.Line{Op: history.OpVaultID, Args: []string{vaultID}}, false); err != nil {
		return err
	}
	e.state = StateInitialised
	e.dirty = true
	return nil
}

// Load replaces the engine's tree and history with the result of replaying
// lines from scratch, taking the engine to Initialised (or Mutable, if the
// caller subsequently executes more commands). Load is how the engine
// reopens a deserialized history (spec §3 "Lifecycle").
//
// lines may carry share-prefixed commands ("$<uuid> <opcode> ...", spec
// §4.3). Those belong to a share's own sub-history, not the main tree: per
// spec §2's data-flow pipeline, the share extractor demultiplexes lines
// before replay, and only the base (non-share) lines are replayed into the
// tree. The full, undemultiplexed lines are still what Lines/Save expose,
// so a share's commands round-trip through Save/Open unchanged even though
// this engine never applies them to its own tree.
func (e *Engine) Load(lines []history.Line) error {
	extracted := share.ExtractSharesFromHistory(lines)

	tree := vaultmodel.New()
	ctx := executors.ExecContext{Now: e.now}
	for _, l := range extracted.Base {
		if history.IsPad(l) || l.Op == history.OpComment {
			continue
		}
		exec, ok := executors.Dispatch[l.Op]
		if !ok {
			return fmt.Errorf("engine: %w: unrecognized opcode %q", executors.ErrUnknownID, l.Op)
		}
		ctx.ShareID = l.ShareID
		if err := exec(tree, ctx, l.Args); err != nil {
			return err
		}
	}
	e.tree = tree
	e.lines = append([]history.Line(nil), lines...)
	e.state = StateInitialised
	e.dirty = false
	return nil
}

// ReadOnly reports whether the engine currently rejects mutators.
func (e *Engine) ReadOnly() bool { return e.state == StateReadOnly }

// SetReadOnly freezes or unfreezes Execute (spec §5 "Read-only mode").
// The flag is authoritative: there is no bypass.
func (e *Engine) SetReadOnly(readOnly bool) {
	switch {
	case readOnly && e.state == StateMutable:
		e.state = StateReadOnly
	case readOnly && e.state == StateInitialised:
		e.state = StateReadOnly
	case !readOnly && e.state == StateReadOnly:
		if e.dirty {
			e.state = StateMutable
		} else {
			e.state = StateInitialised
		}
	}
}

// Seal marks the engine Sealed, the state serialization transitions the
// engine into (spec §4.5 state machine). A sealed engine accepts no
// further mutation; Clear is required to reuse it.
func (e *Engine) Seal() error {
	if e.state == StateEmpty {
		return ErrNotInitialised
	}
	e.state = StateSealed
	return nil
}

// Clear resets the engine to Empty (spec §3 "Destruction is by erase").
func (e *Engine) Clear() {
	e.tree.Clear()
	e.lines = nil
	e.state = StateEmpty
	e.dirty = false
}

// Execute lexes and routes a single already-rendered command line through
// its executor, appends it to history on success, and (unless the
// command itself is a pad) appends a padding line. It is atomic per
// command: on executor failure, neither the tree nor the history is
// mutated (spec §4.5 "execute is atomic per command").
func (e *Engine) Execute(l history.Line) error {
	if e.state == StateReadOnly {
		return ErrReadOnly
	}
	if e.state == StateEmpty {
		return ErrNotInitialised
	}
	if e.state == StateSealed {
		return ErrAlreadySealed
	}

	needsPad := l.Op != history.OpPad
	if err := e.appendAndApply(l, needsPad); err != nil {
		return err
	}

	e.state = StateMutable
	e.dirty = true
	if e.listener != nil {
		n := 1
		if needsPad {
			n = 2
		}
		e.listener.OnCommandsExecuted(e.lines[len(e.lines)-n:])
	}
	return nil
}

// ExecuteBatch runs a sequence of commands as one logical execute call:
// all of them are applied, and at most one trailing padding line is
// appended after the whole batch (spec §4.5, §5 "commandsExecuted is
// emitted once per execute call, after the ... batch is fully applied").
// The batch is atomic as a whole: commands replay against a scratch copy
// of the tree first, and e.tree/e.lines are only updated if every command
// in the batch succeeds, so a mid-batch failure leaves both unchanged
// (the same all-or-nothing guarantee Load gives a freshly replayed
// history).
func (e *Engine) ExecuteBatch(lines []history.Line) error {
	if e.state == StateReadOnly {
		return ErrReadOnly
	}
	if e.state == StateEmpty {
		return ErrNotInitialised
	}
	if e.state == StateSealed {
		return ErrAlreadySealed
	}
	if len(lines) == 0 {
		return nil
	}

	scratch, err := replayFresh(e.lines, e.now)
	if err != nil {
		return fmt.Errorf("engine: failed to rebuild scratch tree: %w", err)
	}
	ctx := executors.ExecContext{Now: e.now}
	for _, l := range lines {
		exec, ok := executors.Dispatch[l.Op]
		if !ok {
			return fmt.Errorf("engine: %w: unrecognized opcode %q", executors.ErrUnknownID, l.Op)
		}
		ctx.ShareID = l.ShareID
		if err := exec(scratch, ctx, l.Args); err != nil {
			return err
		}
	}

	start := len(e.lines)
	e.lines = append(e.lines, lines...)
	last := lines[len(lines)-1]
	if last.Op != history.OpPad {
		if pad, err := history.NewPadding(); err == nil {
			e.lines = append(e.lines, pad)
		}
	}

	e.tree = scratch
	e.state = StateMutable
	e.dirty = true
	if e.listener != nil {
		e.listener.OnCommandsExecuted(e.lines[start:])
	}
	return nil
}

// replayFresh rebuilds a tree from lines (base lines only, per the share
// extractor rule Load follows) without touching any Engine state, so
// ExecuteBatch can validate a whole batch before committing it.
func replayFresh(lines []history.Line, now func() int64) (*vaultmodel.Vault, error) {
	extracted := share.ExtractSharesFromHistory(lines)
	tree := vaultmodel.New()
	ctx := executors.ExecContext{Now: now}
	for _, l := range extracted.Base {
		if history.IsPad(l) || l.Op == history.OpComment {
			continue
		}
		exec, ok := executors.Dispatch[l.Op]
		if !ok {
			return nil, fmt.Errorf("engine: %w: unrecognized opcode %q", executors.ErrUnknownID, l.Op)
		}
		ctx.ShareID = l.ShareID
		if err := exec(tree, ctx, l.Args); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// Optimise folds the engine's history into its minimal equivalent
// construction sequence when doing so is worthwhile (spec §4.6, §3
// "Lifecycle": "it shrinks only through optimise()"). Optimise is a no-op,
// reported by its bool return, when the current history is already short
// and carries no destructive command. Per-property change history does
// not survive flattening: each entry starts a fresh history afterward,
// since the flattened lines no longer record the intermediate edits that
// produced the entry's current properties.
func (e *Engine) Optimise() bool {
	if !flatten.CanBeFlattened(e.lines) {
		return false
	}
	e.lines = flatten.Optimise(e.tree)
	for _, entry := range e.tree.AllEntries() {
		entry.History = nil
	}
	e.dirty = true
	return true
}

// appendAndApply routes l through its executor against the live tree and,
// only on success, appends l (and optionally a trailing pad) to history.
func (e *Engine) appendAndApply(l history.Line, withPad bool) error {
	exec, ok := executors.Dispatch[l.Op]
	if !ok {
		return fmt.Errorf("engine: %w: unrecognized opcode %q", executors.ErrUnknownID, l.Op)
	}
	ctx := executors.ExecContext{ShareID: l.ShareID, Now: e.now}
	if err := exec(e.tree, ctx, l.Args); err != nil {
		return err
	}
	e.lines = append(e.lines, l)
	if withPad {
		if pad, err := history.NewPadding(); err == nil {
			e.lines = append(e.lines, pad)
		}
	}
	return nil
}
