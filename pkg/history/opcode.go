// Package history implements the textual, line-oriented command log that
// is the canonical serialization of a vault (spec §3 "History", §4.3
// "Command lexer/encoder"). It knows how to lex and encode lines; it does
// not interpret what a command does to a vault tree (that is
// pkg/executors's job).
package history

// Opcode is a closed, three-letter lowercase command tag. Using a string
// type keeps the opcode manifest below an exhaustive, greppable table
// instead of scattering magic strings through the engine (DESIGN NOTES
// "dynamic dispatch over opcodes").
type Opcode string

// The full opcode manifest (spec §4.3).
const (
	OpFormat            Opcode = "fmt"
	OpVaultID           Opcode = "aid"
	OpComment           Opcode = "cmm"
	OpPad               Opcode = "pad"
	OpCreateGroup       Opcode = "cgr"
	OpSetGroupTitle     Opcode = "tgr"
	OpMoveGroup         Opcode = "mgr"
	OpDeleteGroup       Opcode = "dgr"
	OpSetGroupAttr      Opcode = "sga"
	OpDeleteGroupAttr   Opcode = "dga"
	OpCreateEntry       Opcode = "cen"
	OpMoveEntry         Opcode = "men"
	OpDeleteEntry       Opcode = "den"
	OpSetEntryProperty  Opcode = "sep"
	OpSetEntryPropAlt   Opcode = "sem"
	OpDeleteEntryProp   Opcode = "dep"
	OpDeleteEntryPropAlt Opcode = "dem"
	OpSetEntryAttr      Opcode = "sea"
	OpDeleteEntryAttr   Opcode = "dea"
	OpSetVaultAttr      Opcode = "saa"
	OpDeleteVaultAttr   Opcode = "daa"
)

// OpSpec describes one opcode's shape: its argument count and whether
// executing it destroys state (spec §4.3's table, §4.7's merge rules).
type OpSpec struct {
	Op          Opcode
	Arity       int
	Destructive bool
}

// Manifest is the full, ordered opcode table. Order matches spec §4.3.
var Manifest = []OpSpec{
	{OpFormat, 1, false},
	{OpVaultID, 1, false},
	{OpComment, 1, false},
	{OpPad, 1, false},
	{OpCreateGroup, 2, false},
	{OpSetGroupTitle, 2, false},
	{OpMoveGroup, 2, false},
	{OpDeleteGroup, 1, true},
	{OpSetGroupAttr, 3, false},
	{OpDeleteGroupAttr, 2, true},
	{OpCreateEntry, 2, false},
	{OpMoveEntry, 2, false},
	{OpDeleteEntry, 1, true},
	{OpSetEntryProperty, 3, false},
	{OpSetEntryPropAlt, 3, false},
	{OpDeleteEntryProp, 2, true},
	{OpDeleteEntryPropAlt, 2, true},
	{OpSetEntryAttr, 3, false},
	{OpDeleteEntryAttr, 2, true},
	{OpSetVaultAttr, 2, false},
	{OpDeleteVaultAttr, 1, true},
}

var specByOp map[Opcode]OpSpec

func init() {
	specByOp = make(map[Opcode]OpSpec, len(Manifest))
	for _, s := range Manifest {
		specByOp[s.Op] = s
	}
}

// Lookup returns the OpSpec for op, or false if op is not in the manifest.
func Lookup(op Opcode) (OpSpec, bool) {
	s, ok := specByOp[op]
	return s, ok
}

// IsDestructive reports whether op removes state when executed. Unknown
// opcodes are treated as non-destructive (callers that care about
// unknown opcodes should reject them explicitly via Lookup).
func IsDestructive(op Opcode) bool {
	s, ok := specByOp[op]
	return ok && s.Destructive
}

// DestructiveOpcodes returns the set of opcodes prepareHistoryForMerge
// (pkg/merge) strips from the weaker side of a merge (spec §4.7). This
// includes daa: see DESIGN.md for the Open Question resolution.
func DestructiveOpcodes() []Opcode {
	var out []Opcode
	for _, s := range Manifest {
		if s.Destructive {
			out = append(out, s.Op)
		}
	}
	return out
}
