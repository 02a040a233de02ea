package mir

import (
	"github.com/jkindrix/blood/internal/defid"
	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/hir"
	"github.com/jkindrix/blood/internal/types"
)

// Lowerer turns one typed HIR program into MIR, one function at a time.
// It keeps the bookkeeping the grounding transformer keeps (a current
// function, a current block cursor, fresh-value/fresh-block counters)
// plus a loop stack and a MoveTracker. It keeps no scope stack and no
// handler stack: StorageLive is emitted only for simple `let` bindings,
// and StorageDead is never emitted.
type Lowerer struct {
	diags *diag.Context

	prog *hir.Program
	out  *Program
	body *Body
	cur  BlockID

	locals map[defid.ID]int
	moves  *MoveTracker
	loops  []loopCtx
	fresh  int

	structFields map[string]map[string]int // struct/record name -> field -> ordinal
}

type loopCtx struct {
	breakTarget    BlockID
	continueTarget BlockID
	breakDest      int // local the loop's value (if any) is written into
}

func NewLowerer(diags *diag.Context) *Lowerer {
	return &Lowerer{diags: diags}
}

// LowerProgram lowers every function in prog. Struct/enum/effect/trait/impl
// definitions need no MIR of their own — they only shape the Ty values
// already attached to HIR expressions by the typechecker.
func (l *Lowerer) LowerProgram(prog *hir.Program) *Program {
	l.prog = prog
	l.structFields = make(map[string]map[string]int)
	for _, sd := range prog.Structs {
		fields := make(map[string]int, len(sd.Fields))
		for i, f := range sd.Fields {
			fields[f.Name] = i
		}
		l.structFields[sd.Name] = fields
	}
	l.out = NewProgram()
	for id, fn := range prog.Funcs {
		l.out.Funcs[id] = l.lowerFunc(fn)
	}
	for _, impl := range prog.Impls {
		for _, fn := range impl.Methods {
			l.out.Funcs[fn.Def] = l.lowerFunc(fn)
		}
	}
	return l.out
}

// ---- Function-level setup ----

func (l *Lowerer) lowerFunc(fn *hir.FuncDef) *Body {
	l.body = &Body{}
	l.locals = make(map[defid.ID]int)
	l.moves = NewMoveTracker()
	l.loops = nil

	l.body.ReturnLocal = l.addLocal(fn.ReturnType, LocalRet, "")
	for _, p := range fn.Params {
		idx := l.addLocal(p.Type, LocalArg, p.Name)
		l.locals[p.Def] = idx
	}
	l.body.ArgCount = len(fn.Params)

	l.cur = l.newBlock()
	l.lowerExpr(fn.Body, DestReturn{})
	l.terminateFallthrough(Return{})

	return l.body
}

func (l *Lowerer) addLocal(ty types.Ty, kind LocalKind, name string) int {
	l.body.Locals = append(l.body.Locals, Local{Ty: ty, Kind: kind, Name: name})
	return len(l.body.Locals) - 1
}

func (l *Lowerer) newBlock() BlockID {
	l.body.Blocks = append(l.body.Blocks, &BasicBlock{})
	return BlockID(len(l.body.Blocks) - 1)
}

func (l *Lowerer) block(id BlockID) *BasicBlock { return l.body.Blocks[id] }

func (l *Lowerer) emit(stmt Statement) {
	b := l.block(l.cur)
	b.Statements = append(b.Statements, stmt)
}

// setTerminator installs term on the current block if it has none yet —
// a block already reached by an early return/break/continue keeps its
// real terminator instead of being overwritten by the code that would
// otherwise have followed it in source order.
func (l *Lowerer) setTerminator(term Terminator) {
	b := l.block(l.cur)
	if b.Terminator == nil {
		b.Terminator = term
	}
}

// terminateFallthrough installs term only if the current block is still
// open, then leaves a fresh unreachable block as current so lowering
// code that runs after a diverging construct (return/break/continue) has
// somewhere harmless to write into.
func (l *Lowerer) terminateFallthrough(term Terminator) {
	l.setTerminator(term)
	next := l.newBlock()
	l.cur = next
}

// ---- Destinations ----

// assignDest writes rv into whatever dest names, materializing a Place
// for Local/Return/SubPlace and simply dropping the value for Ignore.
func (l *Lowerer) assignDest(dest Destination, rv Rvalue) {
	switch d := dest.(type) {
	case DestLocal:
		l.emit(Assign{Place: Place{Local: d.Local}, Rvalue: rv})
	case DestReturn:
		l.emit(Assign{Place: Place{Local: l.body.ReturnLocal}, Rvalue: rv})
	case DestSubPlace:
		l.emit(Assign{Place: d.Place, Rvalue: rv})
	case DestIgnore:
		// Still materialize it in a throwaway temp: side effects in rv's
		// operands already happened, this just drops the result value.
		tmp := l.addLocal(types.Unit, LocalTemp, "")
		l.emit(Assign{Place: Place{Local: tmp}, Rvalue: rv})
	}
}

// destLocal resolves dest to a concrete local to read back from
// afterward — used when a sub-lowering needs dest's value as an operand
// (e.g. the condition of a short-circuit `&&`).
func (l *Lowerer) destLocal(dest Destination, ty types.Ty) int {
	switch d := dest.(type) {
	case DestLocal:
		return d.Local
	case DestReturn:
		return l.body.ReturnLocal
	default:
		return l.addLocal(ty, LocalTemp, "")
	}
}

func (l *Lowerer) freshTemp(ty types.Ty) int {
	return l.addLocal(ty, LocalTemp, "")
}

// ---- Operand helpers ----

func tyOf(e hir.Expr) types.Ty {
	if t := e.Ty(); t != nil {
		return t
	}
	return types.ErrType
}

// operandFromPlace reads place per spec.md §4.6's
// operand_from_place_tracked: a Copy type always copies; otherwise the
// first read moves (and marks moved), a second read is a use-after-move
// diagnostic.
func (l *Lowerer) operandFromPlace(place Place, ty types.Ty) Operand {
	if IsCopy(ty) {
		return CopyOperand{Place: place}
	}
	if l.moves.IsMoved(place) {
		l.diags.Emit(&diag.Report{
			Severity: diag.SeverityError,
			Code:     diag.EPatternUseAfterMove,
			Message:  "use of moved value",
		})
	}
	l.moves.MarkMoved(place)
	return MoveOperand{Place: place}
}

func (l *Lowerer) operandFromLocal(local int, ty types.Ty) Operand {
	return l.operandFromPlace(Place{Local: local}, ty)
}

// lowerOperand fully evaluates e into a temp and returns an operand
// reading it back — used where MIR needs an atomic Operand (call args,
// binop operands) rather than an arbitrary nested expression.
func (l *Lowerer) lowerOperand(e hir.Expr) Operand {
	if v, ok := e.(*hir.Var); ok {
		if idx, ok := l.locals[v.Def]; ok {
			return l.operandFromLocal(idx, tyOf(e))
		}
	}
	if lit, ok := e.(*hir.Lit); ok {
		return ConstantOperand{Ty: tyOf(e), Value: lit.Value}
	}
	tmp := l.freshTemp(tyOf(e))
	l.lowerExpr(e, DestLocal{Local: tmp})
	return l.operandFromLocal(tmp, tyOf(e))
}

func (l *Lowerer) lowerOperands(es []hir.Expr) []Operand {
	out := make([]Operand, len(es))
	for i, e := range es {
		out[i] = l.lowerOperand(e)
	}
	return out
}

// lowerPlace evaluates e as an addressable Place — a Var resolves
// directly to its local, a FieldAccess/Index projects off its base's
// place, anything else is spilled into a fresh temp first.
func (l *Lowerer) lowerPlace(e hir.Expr) Place {
	switch x := e.(type) {
	case *hir.Var:
		if idx, ok := l.locals[x.Def]; ok {
			return Place{Local: idx}
		}
	case *hir.FieldAccess:
		base := l.lowerPlace(x.X)
		idx := l.fieldIndex(tyOf(x.X), x.Field)
		return Place{Local: base.Local, Projections: append(append([]Projection{}, base.Projections...), FieldProj{Index: idx, Name: x.Field})}
	case *hir.Index:
		base := l.lowerPlace(x.X)
		idxOperand := l.lowerOperand(x.Index)
		idxLocal := l.freshTemp(tyOf(x.Index))
		l.emit(Assign{Place: Place{Local: idxLocal}, Rvalue: Use{Operand: idxOperand}})
		return Place{Local: base.Local, Projections: append(append([]Projection{}, base.Projections...), IndexProj{IndexLocal: idxLocal})}
	}
	tmp := l.freshTemp(tyOf(e))
	l.lowerExpr(e, DestLocal{Local: tmp})
	return Place{Local: tmp}
}

// fieldIndex resolves a struct field name to its declaration-order
// ordinal. Open records (TRecord) have no such fixed layout before
// codegen picks one for a given closed instantiation, so field access on
// a record is name-addressed via a dedicated FieldProj carrying Name and
// an Index of -1; codegen resolves the concrete offset there.
func (l *Lowerer) fieldIndex(ty types.Ty, name string) int {
	if st, ok := ty.(*types.TCon); ok {
		if fields, ok := l.structFields[st.Name]; ok {
			if idx, ok := fields[name]; ok {
				return idx
			}
		}
	}
	return -1
}
