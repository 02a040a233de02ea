// Package mir is blood's mid-level intermediate representation: a
// three-address control-flow graph per function, lowered from typed HIR
// (spec.md §4.6). It generalizes the teacher's A-Normal-Form Core
// (internal/core/core.go) one step further: where Core keeps nested
// let-bound atoms, MIR flattens every function body into explicit
// Local/BasicBlock/Statement/Terminator structure the way a Call/SwitchInt
// CFG demands, grounded on the HIR-to-MIR shape in
// other_examples/.../hir_to_mir.go.go (Value/BasicBlock/Function,
// currentBlock cursor, getNextValue/createBasicBlock bookkeeping) but typed
// against blood's types.Ty instead of a value-class enum, and carrying the
// ownership/effect statements spec.md §3 requires that the grounding file
// does not model.
package mir

import (
	"github.com/jkindrix/blood/internal/defid"
	"github.com/jkindrix/blood/internal/types"
)

// LocalKind classifies why a Local exists.
type LocalKind int

const (
	LocalArg LocalKind = iota
	LocalRet
	LocalTemp
	LocalNamed
)

// Local is one stack slot: an argument, the return slot, a compiler temp,
// or a surface-named `let` binding.
type Local struct {
	Ty   types.Ty
	Kind LocalKind
	Name string // "" for temps
}

// BlockID indexes Body.Blocks.
type BlockID int

// Body is one function's CFG (spec.md §3's "Body{locals, basic_blocks,
// arg_count, return_local}").
type Body struct {
	Locals      []Local
	Blocks      []*BasicBlock
	ArgCount    int
	ReturnLocal int
}

// BasicBlock holds straight-line statements ending in exactly one
// terminator (spec.md §3 invariant: "statements in a block do not branch").
type BasicBlock struct {
	Statements []Statement
	Terminator Terminator
}

// Program is every function's lowered Body, keyed by the same DefId the
// HIR program used, plus the closure bodies lambdas lowered into —
// lambdas have no surface DefId of their own, so they're collected
// separately and referenced by index from an AggClosure's ClosureBody.
type Program struct {
	Funcs    map[defid.ID]*Body
	Closures []*Body
}

func NewProgram() *Program {
	return &Program{Funcs: make(map[defid.ID]*Body)}
}

// ---- Statements ----

type Statement interface{ isStatement() }

// Assign writes Rvalue's result into Place.
type Assign struct {
	Place  Place
	Rvalue Rvalue
}

func (Assign) isStatement() {}

// StorageLive/StorageDead bracket a local's lifetime within a scope, so
// codegen (or a future stack-slot allocator) can reuse dead slots.
type StorageLive struct{ Local int }
type StorageDead struct{ Local int }

func (StorageLive) isStatement() {}
func (StorageDead) isStatement() {}

// PushHandler installs a handler descriptor on the runtime handler stack
// before entering a `try` body; PopHandler removes it on every exit path
// (spec.md §4.6, §4.7's @blood_push_handler/@blood_pop_handler shims).
type PushHandler struct{ Descriptor *HandlerDescriptor }
type PopHandler struct{}

func (PushHandler) isStatement() {}
func (PopHandler) isStatement()  {}

// ---- Terminators ----

type Terminator interface{ isTerminator() }

// Goto is an unconditional jump.
type Goto struct{ Target BlockID }

// SwitchInt tests Discriminant against each key in Targets, falling
// through to Fallback when nothing matches. Keys are literal values
// (ints, bools, strings) or bare enum tag names; internal/dtree's
// discriminant keys enum tags as "Enum::Tag" instead.
type SwitchInt struct {
	Discriminant Operand
	Targets      map[interface{}]BlockID
	Fallback     BlockID
}

// Return reads the function's return local and exits.
type Return struct{}

// Unreachable marks a statically-impossible path (e.g. the fallback of an
// exhaustive match, once exhaustiveness analysis confirms it).
type Unreachable struct{}

// Call invokes Func with Args, writing the result through Destination,
// then continuing at Next. Cleanup is a landing block for an unwinding
// callee, or -1 if none.
type Call struct {
	Func        string
	Args        []Operand
	Destination Destination
	Next        BlockID
	Cleanup     BlockID
}

// Perform invokes an effect operation against the active handler stack.
// Codegen lowers it to `call @blood_perform(...)`; its result is written
// into ResumeLocal and control continues at ResumeTarget — the
// continuation the source-level `perform` expression would have had under
// ordinary call semantics (spec.md §4.6).
type Perform struct {
	Effect       string
	Op           string
	Args         []Operand
	ResumeTarget BlockID
	ResumeLocal  int
}

// Assert branches to Fail (which panics with Msg) unless Cond holds.
type Assert struct {
	Cond Operand
	Msg  string
	Next BlockID
	Fail BlockID
}

func (Goto) isTerminator()        {}
func (SwitchInt) isTerminator()   {}
func (Return) isTerminator()      {}
func (Unreachable) isTerminator() {}
func (Call) isTerminator()        {}
func (Perform) isTerminator()     {}
func (Assert) isTerminator()      {}

// HandlerDescriptor is what PushHandler installs: one nested Body per
// handled operation (so `resume` inside an arm is an ordinary Call
// terminator back into the suspended computation), plus an optional
// distinguished return-clause Body.
type HandlerDescriptor struct {
	Effect    string
	Shallow   bool
	Ops       map[string]*Body
	ReturnOp  *Body
}

// ---- Destination (spec.md §4.6's lower_expr contract) ----

type Destination interface{ isDestination() }

type DestLocal struct{ Local int }
type DestReturn struct{}
type DestIgnore struct{}
type DestSubPlace struct{ Place Place }

func (DestLocal) isDestination()    {}
func (DestReturn) isDestination()   {}
func (DestIgnore) isDestination()   {}
func (DestSubPlace) isDestination() {}

// ---- Rvalues ----

type Rvalue interface{ isRvalue() }

type Use struct{ Operand Operand }
type BinOp struct {
	Op   string
	L, R Operand
}
type UnaryOp struct {
	Op      string
	Operand Operand
}
type Ref struct{ Place Place }

// AggregateKind distinguishes the compound values Aggregate can build.
type AggregateKind int

const (
	AggTuple AggregateKind = iota
	AggArray
	AggStruct
	AggRecord
	AggEnumVariant
	AggClosure
)

// Aggregate builds a compound value from its parts: a tuple/array/struct
// element list, an enum variant's tag plus payload, or (AggClosure) a
// captured-environment plus an index into Program.Closures.
type Aggregate struct {
	Kind        AggregateKind
	Ty          types.Ty
	Variant     string // set when Kind == AggEnumVariant
	ClosureBody int    // set when Kind == AggClosure: index into Program.Closures
	Fields      []Operand
}

type Cast struct {
	Operand Operand
	Target  types.Ty
}

type Discriminant struct{ Place Place }

// CheckedBinOp is BinOp plus an overflow flag, for signed integer
// `+`/`-`/`*` (spec.md §4.6; codegen expands to llvm.sadd.with.overflow.*
// and a trap block). Lowering emits it for every such op; there is no
// separate unchecked release mode.
type CheckedBinOp struct {
	Op   string
	L, R Operand
}

func (Use) isRvalue()          {}
func (BinOp) isRvalue()        {}
func (UnaryOp) isRvalue()      {}
func (Ref) isRvalue()          {}
func (Aggregate) isRvalue()    {}
func (Cast) isRvalue()         {}
func (Discriminant) isRvalue() {}
func (CheckedBinOp) isRvalue() {}

// ---- Places, projections, operands ----

// Place is a local plus a chain of projections (spec.md §3).
type Place struct {
	Local       int
	Projections []Projection
}

// Field appends a field-index projection (struct/tuple/record element n).
func (p Place) Field(n int) Place {
	return Place{Local: p.Local, Projections: append(append([]Projection{}, p.Projections...), FieldProj{Index: n})}
}

// Downcast appends a variant-narrowing projection.
func (p Place) Downcast(variant string) Place {
	return Place{Local: p.Local, Projections: append(append([]Projection{}, p.Projections...), DowncastProj{Variant: variant})}
}

type Projection interface{ isProjection() }

type FieldProj struct {
	Index int
	Name  string // "" for positional (tuple) fields
}
type IndexProj struct{ IndexLocal int }
type DerefProj struct{}
type DowncastProj struct{ Variant string }

func (FieldProj) isProjection()    {}
func (IndexProj) isProjection()    {}
func (DerefProj) isProjection()    {}
func (DowncastProj) isProjection() {}

// Operand is a use of a value: a copy (re-readable), a move (marks the
// place moved-from), or an inline constant.
type Operand interface{ isOperand() }

type CopyOperand struct{ Place Place }
type MoveOperand struct{ Place Place }
type ConstantOperand struct {
	Ty    types.Ty
	Value interface{}
}

func (CopyOperand) isOperand()     {}
func (MoveOperand) isOperand()     {}
func (ConstantOperand) isOperand() {}
