package mir

import (
	"sort"

	"github.com/jkindrix/blood/internal/defid"
	"github.com/jkindrix/blood/internal/dtree"
	"github.com/jkindrix/blood/internal/hir"
	"github.com/jkindrix/blood/internal/types"
)

// lowerExpr is spec.md §4.6's lower_expr contract: emit e's effect into
// the current block, writing its value through dest. Branching
// constructs (If/While/Match/short-circuit BinOp) split the block and
// leave l.cur pointing at the continuation.
func (l *Lowerer) lowerExpr(e hir.Expr, dest Destination) {
	switch x := e.(type) {
	case *hir.Lit:
		l.assignDest(dest, Use{Operand: ConstantOperand{Ty: tyOf(x), Value: x.Value}})

	case *hir.Var:
		if idx, ok := l.locals[x.Def]; ok {
			l.assignDest(dest, Use{Operand: l.operandFromLocal(idx, tyOf(x))})
			return
		}
		// A Var not bound to a local is a reference to a top-level
		// function/const/static — codegen resolves it by its mangled
		// DefId-derived symbol, so it passes through as a named constant.
		l.assignDest(dest, Use{Operand: ConstantOperand{Ty: tyOf(x), Value: x.Name}})

	case *hir.Lambda:
		l.lowerLambda(x, dest)

	case *hir.Let:
		l.lowerLet(x, dest)

	case *hir.App:
		args := l.lowerOperands(x.Args)
		callee := calleeName(x.Func)
		destLocal := l.destLocal(dest, tyOf(x))
		next := l.newBlock()
		l.setTerminator(Call{Func: callee, Args: args, Destination: DestLocal{Local: destLocal}, Next: next, Cleanup: -1})
		l.cur = next
		if _, isLocalDest := dest.(DestLocal); !isLocalDest {
			l.assignDest(dest, Use{Operand: l.operandFromLocal(destLocal, tyOf(x))})
		}

	case *hir.MethodCall:
		args := make([]Operand, 0, len(x.Args)+1)
		args = append(args, l.lowerOperand(x.Receiver))
		args = append(args, l.lowerOperands(x.Args)...)
		destLocal := l.destLocal(dest, tyOf(x))
		next := l.newBlock()
		l.setTerminator(Call{Func: x.Name, Args: args, Destination: DestLocal{Local: destLocal}, Next: next, Cleanup: -1})
		l.cur = next
		if _, isLocalDest := dest.(DestLocal); !isLocalDest {
			l.assignDest(dest, Use{Operand: l.operandFromLocal(destLocal, tyOf(x))})
		}

	case *hir.If:
		l.lowerIf(x, dest)

	case *hir.While:
		l.lowerWhile(x, dest)

	case *hir.Break:
		l.lowerBreak(x)

	case *hir.Continue:
		if len(l.loops) > 0 {
			l.terminateFallthrough(Goto{Target: l.loops[len(l.loops)-1].continueTarget})
		}

	case *hir.Return:
		if x.Value != nil {
			l.lowerExpr(x.Value, DestReturn{})
		} else {
			l.assignDest(DestReturn{}, Use{Operand: ConstantOperand{Ty: types.Unit, Value: nil}})
		}
		l.terminateFallthrough(Return{})

	case *hir.Match:
		l.lowerMatch(x, dest)

	case *hir.BinOp:
		l.lowerBinOp(x, dest)

	case *hir.UnOp:
		operand := l.lowerOperand(x.Operand)
		l.assignDest(dest, UnaryOp{Op: x.Op, Operand: operand})

	case *hir.Assign:
		place := l.lowerPlace(x.Target)
		l.moves.ClearMoved(place)
		value := l.lowerOperand(x.Value)
		l.emit(Assign{Place: place, Rvalue: Use{Operand: value}})
		l.assignDest(dest, Use{Operand: ConstantOperand{Ty: types.Unit, Value: nil}})

	case *hir.RecordLit:
		l.lowerRecordLit(x, dest)

	case *hir.FieldAccess:
		place := l.lowerPlace(x)
		l.assignDest(dest, Use{Operand: l.operandFromPlace(place, tyOf(x))})

	case *hir.Index:
		place := l.lowerPlace(x)
		l.assignDest(dest, Use{Operand: l.operandFromPlace(place, tyOf(x))})

	case *hir.ArrayLit:
		l.assignDest(dest, Aggregate{Kind: AggArray, Ty: tyOf(x), Fields: l.lowerOperands(x.Elements)})

	case *hir.TupleLit:
		l.assignDest(dest, Aggregate{Kind: AggTuple, Ty: tyOf(x), Fields: l.lowerOperands(x.Elements)})

	case *hir.StructLit:
		fields := make([]Operand, len(x.Fields))
		for i, f := range x.Fields {
			fields[i] = l.lowerOperand(f.Value)
		}
		l.assignDest(dest, Aggregate{Kind: AggStruct, Ty: tyOf(x), Fields: fields})

	case *hir.EnumLit:
		fields := l.lowerOperands(x.Args)
		l.assignDest(dest, Aggregate{Kind: AggEnumVariant, Ty: tyOf(x), Variant: x.Tag, Fields: fields})

	case *hir.Perform:
		l.lowerPerform(x, dest)

	case *hir.Resume:
		value := l.lowerOperand(x.Value)
		destLocal := l.destLocal(dest, tyOf(x))
		next := l.newBlock()
		l.setTerminator(Call{Func: "@blood_resume", Args: []Operand{value}, Destination: DestLocal{Local: destLocal}, Next: next, Cleanup: -1})
		l.cur = next
		if _, isLocalDest := dest.(DestLocal); !isLocalDest {
			l.assignDest(dest, Use{Operand: l.operandFromLocal(destLocal, tyOf(x))})
		}

	case *hir.Handler:
		// A bare handler value (not the direct operand of `try`) has no
		// first-class runtime representation yet; represent it as an
		// opaque named constant so callers that only pass it through
		// (e.g. storing it, rather than installing it) still lower.
		l.assignDest(dest, Use{Operand: ConstantOperand{Ty: tyOf(x), Value: "<handler>"}})

	case *hir.Try:
		l.lowerTry(x, dest)

	case *hir.Range:
		lo := l.lowerOperand(x.Lo)
		hi := l.lowerOperand(x.Hi)
		l.assignDest(dest, Aggregate{Kind: AggTuple, Ty: tyOf(x), Fields: []Operand{lo, hi}})

	case *hir.Cast:
		operand := l.lowerOperand(x.X)
		l.assignDest(dest, Cast{Operand: operand, Target: x.Target})

	case *hir.Propagate:
		l.lowerPropagate(x, dest)

	case *hir.Err:
		l.assignDest(dest, Use{Operand: ConstantOperand{Ty: types.ErrType, Value: nil}})

	default:
		l.assignDest(dest, Use{Operand: ConstantOperand{Ty: types.ErrType, Value: nil}})
	}
}

func calleeName(fn hir.Expr) string {
	if v, ok := fn.(*hir.Var); ok {
		return v.Name
	}
	return ""
}

// lowerLambda compiles a closure into its own Body (collected into
// Program.Closures, since a lambda has no surface DefId to key Funcs
// by) plus an AggClosure aggregate capturing the enclosing function's
// currently-bound locals as trailing arguments. Capturing the whole
// visible environment rather than just the lambda's free variables
// over-captures, but is sound — codegen only ever reads the slots the
// closure body actually references.
func (l *Lowerer) lowerLambda(x *hir.Lambda, dest Destination) {
	captured := make([]defid.ID, 0, len(l.locals))
	for def := range l.locals {
		captured = append(captured, def)
	}
	sort.Slice(captured, func(i, j int) bool { return captured[i] < captured[j] })
	fields := make([]Operand, len(captured))
	for i, def := range captured {
		idx := l.locals[def]
		fields[i] = l.operandFromLocal(idx, l.body.Locals[idx].Ty)
	}

	savedBody, savedCur, savedLocals, savedMoves, savedLoops := l.body, l.cur, l.locals, l.moves, l.loops
	l.body = &Body{}
	l.locals = make(map[defid.ID]int)
	l.moves = NewMoveTracker()
	l.loops = nil

	l.body.ReturnLocal = l.addLocal(tyOf(x.Body), LocalRet, "")
	for _, p := range x.Params {
		idx := l.addLocal(p.Type, LocalArg, p.Name)
		l.locals[p.Def] = idx
	}
	for _, def := range captured {
		info := savedBody.Locals[savedLocals[def]]
		idx := l.addLocal(info.Ty, LocalArg, info.Name)
		l.locals[def] = idx
	}
	l.body.ArgCount = len(x.Params) + len(captured)

	l.cur = l.newBlock()
	l.lowerExpr(x.Body, DestReturn{})
	l.terminateFallthrough(Return{})

	closureIdx := len(l.out.Closures)
	l.out.Closures = append(l.out.Closures, l.body)

	l.body, l.cur, l.locals, l.moves, l.loops = savedBody, savedCur, savedLocals, savedMoves, savedLoops
	l.assignDest(dest, Aggregate{Kind: AggClosure, Ty: tyOf(x), ClosureBody: closureIdx, Fields: fields})
}

func (l *Lowerer) lowerLet(x *hir.Let, dest Destination) {
	valTy := tyOf(x.Value)
	if bp, ok := x.Pattern.(*hir.BindingPattern); ok && bp.Sub == nil {
		idx := l.addLocal(valTy, LocalNamed, bp.Name)
		l.locals[bp.Def] = idx
		l.emit(StorageLive{Local: idx})
		l.lowerExpr(x.Value, DestLocal{Local: idx})
		l.lowerExpr(x.Body, dest)
		return
	}
	// Compound pattern: materialize the value once, then destructure by
	// testing it against the pattern (always taken — a `let` pattern
	// that could fail is a parser/typecheck-time error, not a runtime
	// branch), binding each sub-pattern's names along the way.
	valLocal := l.freshTemp(valTy)
	l.lowerExpr(x.Value, DestLocal{Local: valLocal})
	matchBlock := l.newBlock()
	failBlock := l.newBlock() // unreachable: irrefutable by construction
	l.lowerPatternTest(x.Pattern, Place{Local: valLocal}, valTy, matchBlock, failBlock)
	l.cur = failBlock
	l.setTerminator(Unreachable{})
	l.cur = matchBlock
	l.lowerExpr(x.Body, dest)
}

func (l *Lowerer) lowerIf(x *hir.If, dest Destination) {
	cond := l.lowerOperand(x.Cond)
	thenBlock := l.newBlock()
	contBlock := l.newBlock()
	elseBlock := contBlock
	if x.Else != nil {
		elseBlock = l.newBlock()
	}
	l.setTerminator(SwitchInt{Discriminant: cond, Targets: map[interface{}]BlockID{true: thenBlock}, Fallback: elseBlock})

	l.cur = thenBlock
	l.lowerExpr(x.Then, dest)
	l.terminateFallthroughTo(contBlock)

	if x.Else != nil {
		l.cur = elseBlock
		l.lowerExpr(x.Else, dest)
		l.terminateFallthroughTo(contBlock)
	} else {
		l.assignDest(dest, Use{Operand: ConstantOperand{Ty: types.Unit, Value: nil}})
	}

	l.cur = contBlock
}

// terminateFallthroughTo is terminateFallthrough specialized to jump to
// an already-allocated block instead of a freshly minted one, for the
// convergent continuation of a branch.
func (l *Lowerer) terminateFallthroughTo(target BlockID) {
	l.setTerminator(Goto{Target: target})
}

func (l *Lowerer) lowerWhile(x *hir.While, dest Destination) {
	headerBlock := l.newBlock()
	bodyBlock := l.newBlock()
	normalExit := l.newBlock()
	exitBlock := l.newBlock()

	l.terminateFallthroughTo(headerBlock)

	l.cur = headerBlock
	cond := l.lowerOperand(x.Cond)
	l.setTerminator(SwitchInt{Discriminant: cond, Targets: map[interface{}]BlockID{true: bodyBlock}, Fallback: normalExit})

	loopDest := l.freshTemp(types.Unit)
	l.loops = append(l.loops, loopCtx{breakTarget: exitBlock, continueTarget: headerBlock, breakDest: loopDest})

	l.cur = bodyBlock
	l.lowerExpr(x.Body, DestIgnore{})
	l.terminateFallthroughTo(headerBlock)

	l.loops = l.loops[:len(l.loops)-1]

	l.cur = normalExit
	l.emit(Assign{Place: Place{Local: loopDest}, Rvalue: Use{Operand: ConstantOperand{Ty: types.Unit, Value: nil}}})
	l.terminateFallthroughTo(exitBlock)

	l.cur = exitBlock
	l.assignDest(dest, Use{Operand: l.operandFromLocal(loopDest, types.Unit)})
}

func (l *Lowerer) lowerBreak(x *hir.Break) {
	if len(l.loops) == 0 {
		return
	}
	ctx := l.loops[len(l.loops)-1]
	if x.Value != nil {
		l.lowerExpr(x.Value, DestLocal{Local: ctx.breakDest})
	} else {
		l.emit(Assign{Place: Place{Local: ctx.breakDest}, Rvalue: Use{Operand: ConstantOperand{Ty: types.Unit, Value: nil}}})
	}
	l.terminateFallthrough(Goto{Target: ctx.breakTarget})
}

func (l *Lowerer) lowerBinOp(x *hir.BinOp, dest Destination) {
	switch x.Op {
	case "&&":
		l.lowerShortCircuit(x, dest, false)
		return
	case "||":
		l.lowerShortCircuit(x, dest, true)
		return
	}
	lhs := l.lowerOperand(x.Left)
	rhs := l.lowerOperand(x.Right)
	switch x.Op {
	case "+", "-", "*":
		if isSignedIntTy(tyOf(x.Left)) {
			l.assignDest(dest, CheckedBinOp{Op: x.Op, L: lhs, R: rhs})
			return
		}
	}
	l.assignDest(dest, BinOp{Op: x.Op, L: lhs, R: rhs})
}

// lowerShortCircuit lowers `a && b` / `a || b` as a branch rather than an
// eager BinOp, so b is only evaluated when it can affect the result.
// shortOnTrue is true for `||` (short-circuits to `true`), false for `&&`.
func (l *Lowerer) lowerShortCircuit(x *hir.BinOp, dest Destination, shortOnTrue bool) {
	resultLocal := l.destLocal(dest, types.Bool)
	lhs := l.lowerOperand(x.Left)
	evalRHS := l.newBlock()
	shortCircuit := l.newBlock()
	contBlock := l.newBlock()

	trueTarget, falseTarget := evalRHS, shortCircuit
	if shortOnTrue {
		trueTarget, falseTarget = shortCircuit, evalRHS
	}
	l.setTerminator(SwitchInt{Discriminant: lhs, Targets: map[interface{}]BlockID{true: trueTarget}, Fallback: falseTarget})

	l.cur = shortCircuit
	l.emit(Assign{Place: Place{Local: resultLocal}, Rvalue: Use{Operand: ConstantOperand{Ty: types.Bool, Value: shortOnTrue}}})
	l.terminateFallthroughTo(contBlock)

	l.cur = evalRHS
	rhs := l.lowerOperand(x.Right)
	l.emit(Assign{Place: Place{Local: resultLocal}, Rvalue: Use{Operand: rhs}})
	l.terminateFallthroughTo(contBlock)

	l.cur = contBlock
	if _, ok := dest.(DestLocal); !ok {
		l.assignDest(dest, Use{Operand: l.operandFromLocal(resultLocal, types.Bool)})
	}
}

func isSignedIntTy(ty types.Ty) bool {
	c, ok := ty.(*types.TCon)
	if !ok {
		return false
	}
	switch c.Name {
	case "i8", "i16", "i32", "i64":
		return true
	}
	return false
}

func (l *Lowerer) lowerRecordLit(x *hir.RecordLit, dest Destination) {
	fields := make([]Operand, len(x.Fields))
	for i, f := range x.Fields {
		fields[i] = l.lowerOperand(f.Value)
	}
	if x.Base != nil {
		// Functional update: the base's un-overridden fields still need
		// to flow through; codegen fills the gap from Base's own
		// aggregate since blood's TRecord is row-polymorphic and the
		// exact closed field set is only known here, at the use site.
		basePlace := l.lowerPlace(x.Base)
		l.assignDest(dest, Aggregate{Kind: AggRecord, Ty: tyOf(x), Fields: append([]Operand{CopyOperand{Place: basePlace}}, fields...)})
		return
	}
	l.assignDest(dest, Aggregate{Kind: AggRecord, Ty: tyOf(x), Fields: fields})
}

// ---- Effects ----

func (l *Lowerer) lowerPerform(x *hir.Perform, dest Destination) {
	args := l.lowerOperands(x.Args)
	resultLocal := l.destLocal(dest, tyOf(x))
	resumeTarget := l.newBlock()
	l.setTerminator(Perform{Effect: x.Effect, Op: x.Op, Args: args, ResumeTarget: resumeTarget, ResumeLocal: resultLocal})
	l.cur = resumeTarget
	if _, isLocalDest := dest.(DestLocal); !isLocalDest {
		l.assignDest(dest, Use{Operand: l.operandFromLocal(resultLocal, tyOf(x))})
	}
}

func (l *Lowerer) lowerTry(x *hir.Try, dest Destination) {
	descriptor := l.buildHandlerDescriptor(x.Handler)
	l.emit(PushHandler{Descriptor: descriptor})
	bodyLocal := l.destLocal(dest, tyOf(x))
	l.lowerExpr(x.Body, DestLocal{Local: bodyLocal})
	l.emit(PopHandler{})
	if _, isLocalDest := dest.(DestLocal); !isLocalDest {
		l.assignDest(dest, Use{Operand: l.operandFromLocal(bodyLocal, tyOf(x))})
	}
}

// buildHandlerDescriptor compiles a `with`-clause handler literal into
// one nested Body per operation, so a `resume` inside an arm lowers to
// an ordinary Call back into the runtime (spec.md §4.6, §4.7's
// @blood_resume shim) instead of requiring MIR itself to model
// continuations.
func (l *Lowerer) buildHandlerDescriptor(handlerExpr hir.Expr) *HandlerDescriptor {
	h, ok := handlerExpr.(*hir.Handler)
	if !ok {
		return &HandlerDescriptor{Ops: map[string]*Body{}}
	}
	desc := &HandlerDescriptor{Shallow: h.Shallow, Ops: map[string]*Body{}}
	savedBody, savedCur, savedLocals, savedMoves, savedLoops := l.body, l.cur, l.locals, l.moves, l.loops
	for _, arm := range h.Arms {
		l.body = &Body{}
		l.locals = make(map[defid.ID]int)
		l.moves = NewMoveTracker()
		l.loops = nil
		l.body.ReturnLocal = l.addLocal(arm.Body.Ty(), LocalRet, "")
		for _, p := range arm.Params {
			idx := l.addLocal(p.Type, LocalArg, p.Name)
			l.locals[p.Def] = idx
		}
		l.body.ArgCount = len(arm.Params)
		l.cur = l.newBlock()
		l.lowerExpr(arm.Body, DestReturn{})
		l.terminateFallthrough(Return{})
		if arm.IsReturn {
			desc.ReturnOp = l.body
		} else {
			desc.Effect = arm.Effect
			desc.Ops[arm.Op] = l.body
		}
	}
	l.body, l.cur, l.locals, l.moves, l.loops = savedBody, savedCur, savedLocals, savedMoves, savedLoops
	return desc
}

func (l *Lowerer) lowerPropagate(x *hir.Propagate, dest Destination) {
	valTy := tyOf(x.X)
	valLocal := l.freshTemp(valTy)
	l.lowerExpr(x.X, DestLocal{Local: valLocal})

	okBlock := l.newBlock()
	errBlock := l.newBlock()
	disc := Discriminant{Place: Place{Local: valLocal}}
	discLocal := l.freshTemp(types.Str)
	l.emit(Assign{Place: Place{Local: discLocal}, Rvalue: disc})
	l.setTerminator(SwitchInt{Discriminant: l.operandFromLocal(discLocal, types.Str), Targets: map[interface{}]BlockID{"Ok": okBlock, "Some": okBlock}, Fallback: errBlock})

	l.cur = errBlock
	l.setTerminator(Return{})

	l.cur = okBlock
	payload := Place{Local: valLocal, Projections: []Projection{DowncastProj{Variant: "Ok"}, FieldProj{Index: 0}}}
	l.assignDest(dest, Use{Operand: l.operandFromPlace(payload, tyOf(x))})
}

// ---- Pattern matching ----

func (l *Lowerer) lowerMatch(x *hir.Match, dest Destination) {
	scrutTy := tyOf(x.Scrutinee)
	scrutLocal := l.freshTemp(scrutTy)
	l.lowerExpr(x.Scrutinee, DestLocal{Local: scrutLocal})
	scrutPlace := Place{Local: scrutLocal}

	contBlock := l.newBlock()
	resultLocal := l.destLocal(dest, tyOf(x))

	// dtree.CanCompileToTree records whether this match would benefit
	// from shared discriminant testing; arms still compile by direct
	// sequential testing below (first-match order, matching the
	// language's pattern-matching semantics), so the check is advisory
	// only — a future pass can route "worth it" matches through a
	// dtree.DecisionTreeCompiler-built shared CFG instead.
	_ = dtree.CanCompileToTree(x.Arms)

	l.compileArms(scrutPlace, scrutTy, x.Arms, 0, resultLocal, contBlock)

	l.cur = contBlock
	if _, isLocalDest := dest.(DestLocal); !isLocalDest {
		l.assignDest(dest, Use{Operand: l.operandFromLocal(resultLocal, tyOf(x))})
	}
}

func (l *Lowerer) compileArms(scrutPlace Place, scrutTy types.Ty, arms []*hir.MatchArm, idx int, resultLocal int, contBlock BlockID) {
	if idx >= len(arms) {
		l.setTerminator(Unreachable{})
		return
	}
	arm := arms[idx]
	matchBlock := l.newBlock()
	failBlock := l.newBlock()
	l.lowerPatternTest(arm.Pattern, scrutPlace, scrutTy, matchBlock, failBlock)

	l.cur = matchBlock
	if arm.Guard != nil {
		guardOk := l.newBlock()
		l.setGuardBranch(arm.Guard, guardOk, failBlock)
		l.cur = guardOk
	}
	l.lowerExpr(arm.Body, DestLocal{Local: resultLocal})
	l.terminateFallthroughTo(contBlock)

	l.cur = failBlock
	l.compileArms(scrutPlace, scrutTy, arms, idx+1, resultLocal, contBlock)
}

func (l *Lowerer) setGuardBranch(guard hir.Expr, onTrue, onFalse BlockID) {
	cond := l.lowerOperand(guard)
	l.setTerminator(SwitchInt{Discriminant: cond, Targets: map[interface{}]BlockID{true: onTrue}, Fallback: onFalse})
}

// lowerPatternTest emits the CFG that decides whether pat matches place,
// binding pat's names into l.locals along the way and jumping to
// matchBlock on success or failBlock otherwise.
func (l *Lowerer) lowerPatternTest(pat hir.Pattern, place Place, ty types.Ty, matchBlock, failBlock BlockID) {
	switch p := pat.(type) {
	case *hir.WildcardPattern:
		l.terminateFallthroughTo(matchBlock)

	case *hir.BindingPattern:
		idx := l.addLocal(ty, LocalNamed, p.Name)
		l.locals[p.Def] = idx
		l.emit(Assign{Place: Place{Local: idx}, Rvalue: Use{Operand: l.operandFromPlace(place, ty)}})
		if p.Sub != nil {
			l.lowerPatternTest(p.Sub, place, ty, matchBlock, failBlock)
			return
		}
		l.terminateFallthroughTo(matchBlock)

	case *hir.LitPattern:
		discLocal := l.freshTemp(ty)
		l.emit(Assign{Place: Place{Local: discLocal}, Rvalue: Use{Operand: l.operandFromPlace(place, ty)}})
		l.setTerminator(SwitchInt{Discriminant: l.operandFromLocal(discLocal, ty), Targets: map[interface{}]BlockID{p.Value: matchBlock}, Fallback: failBlock})

	case *hir.EnumPattern:
		sub := l.newBlock()
		disc := Discriminant{Place: place}
		discLocal := l.freshTemp(types.Str)
		l.emit(Assign{Place: Place{Local: discLocal}, Rvalue: disc})
		l.setTerminator(SwitchInt{Discriminant: l.operandFromLocal(discLocal, types.Str), Targets: map[interface{}]BlockID{p.Tag: sub}, Fallback: failBlock})
		l.cur = sub
		payload := place
		payload.Projections = append(append([]Projection{}, place.Projections...), DowncastProj{Variant: p.Tag})
		elemTypes := l.enumVariantFieldTypes(p.Enum, p.Tag)
		l.lowerPatternSeq(p.Elements, payload, elemTypes, matchBlock, failBlock, 0)

	case *hir.TuplePattern:
		elemTypes := make([]types.Ty, len(p.Elements))
		if tt, ok := ty.(*types.TTuple); ok {
			for i := range p.Elements {
				if i < len(tt.Elements) {
					elemTypes[i] = tt.Elements[i]
				}
			}
		}
		l.lowerPatternSeqTuple(p.Elements, place, elemTypes, matchBlock, failBlock, 0)

	case *hir.StructPattern:
		l.lowerPatternSeqFields(p.Fields, place, ty, matchBlock, failBlock, 0)

	case *hir.RecordPattern:
		l.lowerPatternSeqFields(p.Fields, place, ty, matchBlock, failBlock, 0)

	case *hir.OrPattern:
		l.lowerPatternOr(p.Alternatives, place, ty, matchBlock, failBlock, 0)

	case *hir.RangePattern:
		discLocal := l.freshTemp(ty)
		l.emit(Assign{Place: Place{Local: discLocal}, Rvalue: Use{Operand: l.operandFromPlace(place, ty)}})
		loOp := l.lowerOperand(p.Lo)
		geBlock := l.newBlock()
		l.setTerminator(SwitchInt{Discriminant: BinOp{Op: ">=", L: l.operandFromLocal(discLocal, ty), R: loOp}.asOperand(l), Targets: map[interface{}]BlockID{true: geBlock}, Fallback: failBlock})
		l.cur = geBlock
		hiOp := l.lowerOperand(p.Hi)
		op := "<"
		if p.Inclusive {
			op = "<="
		}
		l.setTerminator(SwitchInt{Discriminant: BinOp{Op: op, L: l.operandFromLocal(discLocal, ty), R: hiOp}.asOperand(l), Targets: map[interface{}]BlockID{true: matchBlock}, Fallback: failBlock})

	default:
		l.terminateFallthroughTo(failBlock)
	}
}

// asOperand materializes a computed Rvalue into a fresh temp so it can
// be used where the CFG shape requires an atomic Operand (a SwitchInt
// discriminant built from a comparison, here).
func (b BinOp) asOperand(l *Lowerer) Operand {
	tmp := l.freshTemp(types.Bool)
	l.emit(Assign{Place: Place{Local: tmp}, Rvalue: b})
	return l.operandFromLocal(tmp, types.Bool)
}

func (l *Lowerer) lowerPatternSeq(pats []hir.Pattern, base Place, tys []types.Ty, matchBlock, failBlock BlockID, i int) {
	if i >= len(pats) {
		l.terminateFallthroughTo(matchBlock)
		return
	}
	var elemTy types.Ty = types.ErrType
	if i < len(tys) && tys[i] != nil {
		elemTy = tys[i]
	}
	elemPlace := base.Field(i)
	if i == len(pats)-1 {
		l.lowerPatternTest(pats[i], elemPlace, elemTy, matchBlock, failBlock)
		return
	}
	next := l.newBlock()
	l.lowerPatternTest(pats[i], elemPlace, elemTy, next, failBlock)
	l.cur = next
	l.lowerPatternSeq(pats, base, tys, matchBlock, failBlock, i+1)
}

func (l *Lowerer) lowerPatternSeqTuple(pats []hir.Pattern, base Place, tys []types.Ty, matchBlock, failBlock BlockID, i int) {
	l.lowerPatternSeq(pats, base, tys, matchBlock, failBlock, i)
}

func (l *Lowerer) lowerPatternSeqFields(fields []hir.FieldPattern, base Place, ty types.Ty, matchBlock, failBlock BlockID, i int) {
	if i >= len(fields) {
		l.terminateFallthroughTo(matchBlock)
		return
	}
	f := fields[i]
	idx := l.fieldIndex(ty, f.Name)
	fieldPlace := Place{Local: base.Local, Projections: append(append([]Projection{}, base.Projections...), FieldProj{Index: idx, Name: f.Name})}
	fieldTy := l.structFieldTypeOrRecord(ty, f.Name)
	if i == len(fields)-1 {
		l.lowerPatternTest(f.Pattern, fieldPlace, fieldTy, matchBlock, failBlock)
		return
	}
	next := l.newBlock()
	l.lowerPatternTest(f.Pattern, fieldPlace, fieldTy, next, failBlock)
	l.cur = next
	l.lowerPatternSeqFields(fields, base, ty, matchBlock, failBlock, i+1)
}

func (l *Lowerer) lowerPatternOr(alts []hir.Pattern, place Place, ty types.Ty, matchBlock, failBlock BlockID, i int) {
	if i >= len(alts) {
		l.terminateFallthroughTo(failBlock)
		return
	}
	if i == len(alts)-1 {
		l.lowerPatternTest(alts[i], place, ty, matchBlock, failBlock)
		return
	}
	next := l.newBlock()
	l.lowerPatternTest(alts[i], place, ty, matchBlock, next)
	l.cur = next
	l.lowerPatternOr(alts, place, ty, matchBlock, failBlock, i+1)
}

func (l *Lowerer) structFieldTypeOrRecord(ty types.Ty, field string) types.Ty {
	if tc, ok := ty.(*types.TCon); ok {
		if sd := l.structByName(tc.Name); sd != nil {
			for _, f := range sd.Fields {
				if f.Name == field {
					return f.Type
				}
			}
		}
	}
	if rec, ok := ty.(*types.TRecord); ok {
		if t, ok := rec.Fields[field]; ok {
			return t
		}
	}
	return types.ErrType
}

func (l *Lowerer) structByName(name string) *hir.StructDef {
	for _, sd := range l.prog.Structs {
		if sd.Name == name {
			return sd
		}
	}
	return nil
}

func (l *Lowerer) enumVariantFieldTypes(enumName, tag string) []types.Ty {
	for _, ed := range l.prog.Enums {
		if ed.Name != enumName {
			continue
		}
		for _, v := range ed.Variants {
			if v.Name == tag {
				return v.Fields
			}
		}
	}
	return nil
}
