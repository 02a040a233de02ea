// Package hir is the desugared, name-resolved intermediate tree produced
// between parsing and typechecking (spec.md §4.4). It generalizes the
// teacher's A-Normal-Form Core AST (internal/core/core.go: a CoreNode
// carrying a stable NodeID plus CoreSpan/OrigSpan, and a CoreExpr
// interface over Var/Lit/Lambda/Let/App/If/Match/...) to a tree-shaped
// (not ANF-flattened — blood's MIR stage owns three-address lowering,
// so HIR keeps nested expressions) representation where every binder
// carries a defid.ID instead of a bare name, and every Ty position is an
// explicit types.Ty rather than a string.
package hir

import (
	"github.com/jkindrix/blood/internal/defid"
	"github.com/jkindrix/blood/internal/source"
	"github.com/jkindrix/blood/internal/types"
)

// Node is the base for all HIR nodes: every node keeps the surface span
// it was lowered from, for diagnostics raised in later phases.
type Node interface {
	Span() source.Span
}

// Expr is any HIR expression; Ty is filled in by the typechecker and is
// nil until then.
type Expr interface {
	Node
	exprNode()
	Ty() types.Ty
	SetTy(types.Ty)
}

// exprBase factors the span/type bookkeeping every Expr variant shares.
type exprBase struct {
	span source.Span
	ty   types.Ty
}

func (b *exprBase) Span() source.Span { return b.span }
func (b *exprBase) Ty() types.Ty      { return b.ty }
func (b *exprBase) SetTy(t types.Ty)  { b.ty = t }

// Var references a resolved definition or local binding.
type Var struct {
	exprBase
	Def  defid.ID
	Name string
}

func (*Var) exprNode() {}

type LitKind int

const (
	IntLit LitKind = iota
	FloatLit
	StringLit
	CharLit
	BoolLit
	UnitLit
)

type Lit struct {
	exprBase
	Kind  LitKind
	Value interface{}
}

func (*Lit) exprNode() {}

// Lambda is a desugared closure: explicit parameter DefIds, a body, and
// the effect row it performs.
type Lambda struct {
	exprBase
	Params  []*Param
	Effects *types.EffectRow
	Body    Expr
}

func (*Lambda) exprNode() {}

// Param is a lowered function/closure parameter. Complex surface
// patterns (tuple/struct destructuring in a parameter position) are
// desugared at lowering time into a synthetic fresh-named param plus a
// leading Let in the body that destructures it via Pattern — mirroring
// how the teacher's elaborator flattens non-atomic binders into lets.
type Param struct {
	Def  defid.ID
	Name string
	Type types.Ty
	Span source.Span
}

// Let is a non-recursive binding: `let pat = value; body`.
type Let struct {
	exprBase
	Pattern Pattern
	Value   Expr
	Body    Expr
}

func (*Let) exprNode() {}

// App is function application.
type App struct {
	exprBase
	Func Expr
	Args []Expr
}

func (*App) exprNode() {}

// MethodCall is `recv.name(args)`, kept distinct from App because
// resolution consults the receiver's trait impls / multiple-dispatch
// candidates (spec.md §2, §4.5).
type MethodCall struct {
	exprBase
	Receiver Expr
	Name     string
	Args     []Expr
}

func (*MethodCall) exprNode() {}

// If is a conditional; Else is nil for a valueless `if` with no else
// branch (the whole expression then has type Unit).
type If struct {
	exprBase
	Cond Expr
	Then Expr
	Else Expr
}

func (*If) exprNode() {}

// While is a pretest loop. ForExpr and LoopExpr both desugar into this
// (spec.md §4.4): `loop { body }` becomes `while true { body }`, and
// `for pat in iter { body }` becomes a fresh iterator-local plus a
// `while true` whose body is a `next()` match that breaks on exhaustion.
type While struct {
	exprBase
	Cond Expr
	Body Expr
}

func (*While) exprNode() {}

type Break struct {
	exprBase
	Value Expr // nil => unit
}

func (*Break) exprNode() {}

type Continue struct{ exprBase }

func (*Continue) exprNode() {}

type Return struct {
	exprBase
	Value Expr
}

func (*Return) exprNode() {}

// MatchArm is one compiled arm: pattern, optional guard, body.
type MatchArm struct {
	Pattern Pattern
	Guard   Expr
	Body    Expr
	Span    source.Span
}

type Match struct {
	exprBase
	Scrutinee Expr
	Arms      []*MatchArm
}

func (*Match) exprNode() {}

type BinOp struct {
	exprBase
	Op    string
	Left  Expr
	Right Expr
}

func (*BinOp) exprNode() {}

type UnOp struct {
	exprBase
	Op      string
	Operand Expr
}

func (*UnOp) exprNode() {}

// Assign mutates a place (a local, a field, or an index); Op is "=" or
// a desugared compound-assignment operator.
type Assign struct {
	exprBase
	Target Expr
	Op     string
	Value  Expr
}

func (*Assign) exprNode() {}

type RecordField struct {
	Name  string
	Value Expr
}

// RecordLit constructs a row-polymorphic record, optionally as a
// functional update over Base.
type RecordLit struct {
	exprBase
	Base   Expr
	Fields []RecordField
}

func (*RecordLit) exprNode() {}

type FieldAccess struct {
	exprBase
	X     Expr
	Field string
}

func (*FieldAccess) exprNode() {}

type Index struct {
	exprBase
	X     Expr
	Index Expr
}

func (*Index) exprNode() {}

type ArrayLit struct {
	exprBase
	Elements []Expr
}

func (*ArrayLit) exprNode() {}

type TupleLit struct {
	exprBase
	Elements []Expr
}

func (*TupleLit) exprNode() {}

type StructLit struct {
	exprBase
	Def    defid.ID
	Name   string
	Fields []RecordField
}

func (*StructLit) exprNode() {}

type EnumLit struct {
	exprBase
	Def     defid.ID // the enum's DefId
	Variant defid.ID // the variant's DefId
	Enum    string
	Tag     string
	Args    []Expr
}

func (*EnumLit) exprNode() {}

// Perform invokes an effect operation: `perform State.get()`.
type Perform struct {
	exprBase
	EffectDef defid.ID
	OpDef     defid.ID
	Effect    string
	Op        string
	Args      []Expr
}

func (*Perform) exprNode() {}

// Resume resumes a suspended handler continuation.
type Resume struct {
	exprBase
	Value Expr
}

func (*Resume) exprNode() {}

// HandlerArm is one `Effect.op(params) => body` clause, or the
// distinguished return clause when IsReturn.
type HandlerArm struct {
	EffectDef defid.ID
	OpDef     defid.ID
	Effect    string
	Op        string
	IsReturn  bool
	Params    []*Param
	Body      Expr
	Span      source.Span
}

type Handler struct {
	exprBase
	Arms    []*HandlerArm
	Shallow bool
}

func (*Handler) exprNode() {}

// Try runs Body under Handler, removing Handler's handled effects from
// Body's apparent effect row once checked (spec.md §4.5 row subtraction).
type Try struct {
	exprBase
	Body    Expr
	Handler Expr
}

func (*Try) exprNode() {}

type Range struct {
	exprBase
	Lo, Hi    Expr
	Inclusive bool
}

func (*Range) exprNode() {}

// Cast is `x as T`, a checked numeric/reference reinterpretation.
type Cast struct {
	exprBase
	X      Expr
	Target types.Ty
}

func (*Cast) exprNode() {}

// Propagate is the postfix `?` operator: unwrap X's success payload or
// return early with its failure case.
type Propagate struct {
	exprBase
	X Expr
}

func (*Propagate) exprNode() {}

// Err is a lowering-error placeholder: parse/resolve already reported a
// diagnostic, so this node just lets later phases keep walking a
// well-formed tree without cascading further errors (its Ty resolves to
// types.ErrType).
type Err struct{ exprBase }

func (*Err) exprNode() {}

// ---- Patterns ----

type Pattern interface {
	Node
	patternNode()
}

type patternBase struct{ span source.Span }

func (b *patternBase) Span() source.Span { return b.span }

type WildcardPattern struct{ patternBase }

func (*WildcardPattern) patternNode() {}

// BindingPattern binds Def to Name, optionally further constrained by
// Sub (an `@`-pattern).
type BindingPattern struct {
	patternBase
	Def  defid.ID
	Name string
	Sub  Pattern
}

func (*BindingPattern) patternNode() {}

type LitPattern struct {
	patternBase
	Kind  LitKind
	Value interface{}
}

func (*LitPattern) patternNode() {}

type TuplePattern struct {
	patternBase
	Elements []Pattern
}

func (*TuplePattern) patternNode() {}

type FieldPattern struct {
	Name    string
	Pattern Pattern
}

type StructPattern struct {
	patternBase
	Def    defid.ID
	Name   string
	Fields []FieldPattern
	Rest   bool
}

func (*StructPattern) patternNode() {}

type RecordPattern struct {
	patternBase
	Fields []FieldPattern
	Rest   bool
}

func (*RecordPattern) patternNode() {}

type EnumPattern struct {
	patternBase
	Def      defid.ID
	Variant  defid.ID
	Enum     string
	Tag      string
	Elements []Pattern
}

func (*EnumPattern) patternNode() {}

type OrPattern struct {
	patternBase
	Alternatives []Pattern
}

func (*OrPattern) patternNode() {}

type RangePattern struct {
	patternBase
	Lo, Hi    Expr
	Inclusive bool
}

func (*RangePattern) patternNode() {}

// ---- Top-level items ----

type FuncDef struct {
	Def        defid.ID
	Name       string
	TypeParams []string
	Params     []*Param
	ReturnType types.Ty
	Effects    *types.EffectRow
	Body       Expr
	Span       source.Span
}

type StructField struct {
	Name string
	Type types.Ty
}

type StructDef struct {
	Def        defid.ID
	Name       string
	TypeParams []string
	Fields     []StructField
	Span       source.Span
}

type EnumVariant struct {
	Def    defid.ID
	Name   string
	Fields []types.Ty
}

type EnumDef struct {
	Def        defid.ID
	Name       string
	TypeParams []string
	Variants   []EnumVariant
	Span       source.Span
}

type EffectOp struct {
	Def    defid.ID
	Name   string
	Params []types.Ty
	Return types.Ty
}

type EffectDef struct {
	Def        defid.ID
	Name       string
	TypeParams []string
	Ops        []EffectOp
	Span       source.Span
}

type TraitMethod struct {
	Def     defid.ID
	Name    string
	Params  []types.Ty
	Return  types.Ty
	Effects *types.EffectRow
	Default Expr // nil if no default body
}

type TraitDef struct {
	Def       defid.ID
	Name      string
	TypeParam string
	Methods   []TraitMethod
	Span      source.Span
}

type ImplDef struct {
	Trait      string
	TypeParams []string
	ForType    types.Ty
	Methods    []*FuncDef
	Span       source.Span
}

type ConstDef struct {
	Def   defid.ID
	Name  string
	Type  types.Ty
	Value Expr
	Span  source.Span
}

type StaticDef struct {
	Def   defid.ID
	Name  string
	Type  types.Ty
	Value Expr
	Span  source.Span
}

// Program is a fully-lowered compilation unit: every definition flattened
// into DefId-keyed tables, as spec.md §4.4 requires ("flatten modules
// into a DefId-keyed registry").
type Program struct {
	Funcs   map[defid.ID]*FuncDef
	Structs map[defid.ID]*StructDef
	Enums   map[defid.ID]*EnumDef
	Effects map[defid.ID]*EffectDef
	Traits  map[defid.ID]*TraitDef
	Impls   []*ImplDef
	Consts  map[defid.ID]*ConstDef
	Statics map[defid.ID]*StaticDef
}

func NewProgram() *Program {
	return &Program{
		Funcs:   make(map[defid.ID]*FuncDef),
		Structs: make(map[defid.ID]*StructDef),
		Enums:   make(map[defid.ID]*EnumDef),
		Effects: make(map[defid.ID]*EffectDef),
		Traits:  make(map[defid.ID]*TraitDef),
		Consts:  make(map[defid.ID]*ConstDef),
		Statics: make(map[defid.ID]*StaticDef),
	}
}
