package hir

import (
	"fmt"

	"github.com/jkindrix/blood/internal/ast"
	"github.com/jkindrix/blood/internal/defid"
	"github.com/jkindrix/blood/internal/resolve"
	"github.com/jkindrix/blood/internal/source"
	"github.com/jkindrix/blood/internal/types"
)

// Lowerer turns one resolved file into HIR definitions, merging them
// into a shared Program. The driver lowers its single input file.
type Lowerer struct {
	Reg    *defid.Registry
	Res    *resolve.Result
	Module string

	prog      *Program
	fresh     int
	structIDs map[string]defid.ID
	enumIDs   map[string]defid.ID
	variants  map[string]defid.ID // "Enum::Variant" -> DefId
}

// New creates a Lowerer targeting prog; call LowerFile once per module
// sharing the same defid.Registry that produced res.
func New(reg *defid.Registry, res *resolve.Result, module string, prog *Program) *Lowerer {
	return &Lowerer{
		Reg: reg, Res: res, Module: module, prog: prog,
		structIDs: make(map[string]defid.ID),
		enumIDs:   make(map[string]defid.ID),
		variants:  make(map[string]defid.ID),
	}
}

func (l *Lowerer) freshName(prefix string) string {
	l.fresh++
	return fmt.Sprintf("%s%d", prefix, l.fresh)
}

func (l *Lowerer) freshTVar() types.Ty {
	return &types.TVar{Name: l.freshName("t$")}
}

func (l *Lowerer) freshLocal(name string, span source.Span) defid.ID {
	return l.Reg.Alloc(0, defid.KindLocal, name, l.Module, span.Start, span.End, nil)
}

// LowerFile lowers every item of file into l's shared Program.
func (l *Lowerer) LowerFile(file *ast.File) {
	l.indexNames(file)
	for _, it := range file.Items {
		l.lowerItem(it)
	}
}

// indexNames records struct/enum/variant DefIds by name so StructLit and
// EnumLit (which the resolver does not attach a Ref to directly) can be
// looked up during lowering.
func (l *Lowerer) indexNames(file *ast.File) {
	for _, it := range file.Items {
		switch d := it.(type) {
		case *ast.StructDecl:
			l.structIDs[d.Name] = l.Res.Defs[d]
		case *ast.EnumDecl:
			l.enumIDs[d.Name] = l.Res.Defs[d]
			for _, v := range d.Variants {
				l.variants[d.Name+"::"+v.Name] = l.Res.Defs[v]
			}
		}
	}
}

func (l *Lowerer) lowerItem(it ast.Item) {
	switch d := it.(type) {
	case *ast.FuncDecl:
		fn := l.lowerFunc(d)
		l.prog.Funcs[fn.Def] = fn
	case *ast.StructDecl:
		l.prog.Structs[l.Res.Defs[d]] = l.lowerStruct(d)
	case *ast.EnumDecl:
		l.prog.Enums[l.Res.Defs[d]] = l.lowerEnum(d)
	case *ast.EffectDecl:
		l.prog.Effects[l.Res.Defs[d]] = l.lowerEffect(d)
	case *ast.TraitDecl:
		l.prog.Traits[l.Res.Defs[d]] = l.lowerTrait(d)
	case *ast.ImplDecl:
		l.prog.Impls = append(l.prog.Impls, l.lowerImpl(d))
	case *ast.ConstDecl:
		l.prog.Consts[l.Res.Defs[d]] = &ConstDef{
			Def: l.Res.Defs[d], Name: d.Name, Type: l.lowerTypeOrFresh(d.Type, nil),
			Value: l.lowerExpr(d.Value), Span: d.Span,
		}
	case *ast.StaticDecl:
		l.prog.Statics[l.Res.Defs[d]] = &StaticDef{
			Def: l.Res.Defs[d], Name: d.Name, Type: l.lowerTypeOrFresh(d.Type, nil),
			Value: l.lowerExpr(d.Value), Span: d.Span,
		}
	}
}

func typeParamSet(tps []*ast.TypeParam) map[string]bool {
	s := make(map[string]bool, len(tps))
	for _, tp := range tps {
		s[tp.Name] = true
	}
	return s
}

func typeParamNames(tps []*ast.TypeParam) []string {
	names := make([]string, len(tps))
	for i, tp := range tps {
		names[i] = tp.Name
	}
	return names
}

func (l *Lowerer) lowerFunc(d *ast.FuncDecl) *FuncDef {
	tparams := typeParamSet(d.TypeParams)

	params := make([]*Param, len(d.Params))
	var prelude []func(body Expr) Expr
	for i, p := range d.Params {
		ty := l.lowerTypeOrFresh(p.Type, tparams)
		if bp, ok := p.Pattern.(*ast.BindingPattern); ok && bp.Sub == nil {
			params[i] = &Param{Def: l.Res.Defs[bp], Name: bp.Name, Type: ty, Span: p.Span}
			continue
		}
		// Complex parameter pattern: bind a synthetic local and destructure
		// it via a leading Let, mirroring how the teacher's elaborator
		// flattens non-atomic binders into lets (spec.md §4.4).
		synthDef := l.freshLocal(l.freshName("__arg"), p.Span)
		synthName := l.Reg.Info(synthDef).Name
		params[i] = &Param{Def: synthDef, Name: synthName, Type: ty, Span: p.Span}
		pat := l.lowerPattern(p.Pattern)
		val := &Var{exprBase: exprBase{span: p.Span}, Def: synthDef, Name: synthName}
		prelude = append(prelude, func(body Expr) Expr {
			return &Let{exprBase: exprBase{span: p.Span}, Pattern: pat, Value: val, Body: body}
		})
	}

	body := l.lowerBlock(d.Body)
	for i := len(prelude) - 1; i >= 0; i-- {
		body = prelude[i](body)
	}

	return &FuncDef{
		Def:        l.Res.Defs[d],
		Name:       d.Name,
		TypeParams: typeParamNames(d.TypeParams),
		Params:     params,
		ReturnType: l.lowerTypeOrFresh(d.ReturnType, tparams),
		Effects:    l.lowerEffectRowSyntax(d.Effects),
		Body:       body,
		Span:       d.Span,
	}
}

func (l *Lowerer) lowerStruct(d *ast.StructDecl) *StructDef {
	tparams := typeParamSet(d.TypeParams)
	fields := make([]StructField, len(d.Fields))
	for i, f := range d.Fields {
		fields[i] = StructField{Name: f.Name, Type: l.lowerTypeOrFresh(f.Type, tparams)}
	}
	return &StructDef{Def: l.Res.Defs[d], Name: d.Name, TypeParams: typeParamNames(d.TypeParams), Fields: fields, Span: d.Span}
}

func (l *Lowerer) lowerEnum(d *ast.EnumDecl) *EnumDef {
	tparams := typeParamSet(d.TypeParams)
	variants := make([]EnumVariant, len(d.Variants))
	for i, v := range d.Variants {
		fields := make([]types.Ty, len(v.Fields))
		for j, f := range v.Fields {
			fields[j] = l.lowerTypeOrFresh(f, tparams)
		}
		variants[i] = EnumVariant{Def: l.Res.Defs[v], Name: v.Name, Fields: fields}
	}
	return &EnumDef{Def: l.Res.Defs[d], Name: d.Name, TypeParams: typeParamNames(d.TypeParams), Variants: variants, Span: d.Span}
}

func (l *Lowerer) lowerEffect(d *ast.EffectDecl) *EffectDef {
	tparams := typeParamSet(d.TypeParams)
	ops := make([]EffectOp, len(d.Ops))
	for i, op := range d.Ops {
		params := make([]types.Ty, len(op.Params))
		for j, p := range op.Params {
			params[j] = l.lowerTypeOrFresh(p.Type, tparams)
		}
		ops[i] = EffectOp{Def: l.Res.Defs[op], Name: op.Name, Params: params, Return: l.lowerTypeOrFresh(op.ReturnType, tparams)}
	}
	return &EffectDef{Def: l.Res.Defs[d], Name: d.Name, TypeParams: typeParamNames(d.TypeParams), Ops: ops, Span: d.Span}
}

func (l *Lowerer) lowerTrait(d *ast.TraitDecl) *TraitDef {
	tparams := map[string]bool{d.TypeParam: true}
	methods := make([]TraitMethod, len(d.Methods))
	for i, m := range d.Methods {
		params := make([]types.Ty, len(m.Params))
		for j, p := range m.Params {
			params[j] = l.lowerTypeOrFresh(p.Type, tparams)
		}
		var def Expr
		if m.Default != nil {
			def = l.lowerBlock(m.Default)
		}
		methods[i] = TraitMethod{
			Def: l.Res.Defs[m], Name: m.Name, Params: params,
			Return: l.lowerTypeOrFresh(m.ReturnType, tparams), Effects: l.lowerEffectRowSyntax(m.Effects),
			Default: def,
		}
	}
	return &TraitDef{Def: l.Res.Defs[d], Name: d.Name, TypeParam: d.TypeParam, Methods: methods, Span: d.Span}
}

func (l *Lowerer) lowerImpl(d *ast.ImplDecl) *ImplDef {
	tparams := typeParamSet(d.TypeParams)
	methods := make([]*FuncDef, len(d.Methods))
	for i, m := range d.Methods {
		methods[i] = l.lowerFunc(m)
	}
	return &ImplDef{
		Trait: d.Trait, TypeParams: typeParamNames(d.TypeParams),
		ForType: l.lowerTypeOrFresh(d.ForType, tparams), Methods: methods, Span: d.Span,
	}
}

// ---- Types ----

func (l *Lowerer) lowerTypeOrFresh(t ast.Ty, tparams map[string]bool) types.Ty {
	if t == nil {
		return l.freshTVar()
	}
	return l.lowerType(t, tparams)
}

var primitiveTypes = map[string]types.Ty{
	"i8": types.I8, "i16": types.I16, "i32": types.I32, "i64": types.I64,
	"u8": types.U8, "u16": types.U16, "u32": types.U32, "u64": types.U64,
	"f32": types.F32, "f64": types.F64, "bool": types.Bool, "char": types.Char,
	"String": types.Str, "str": types.Str, "()": types.Unit,
}

func (l *Lowerer) lowerType(t ast.Ty, tparams map[string]bool) types.Ty {
	switch x := t.(type) {
	case *ast.NamedType:
		if len(x.Path) == 1 && tparams != nil && tparams[x.Path[0]] && len(x.Args) == 0 {
			return &types.TVar{Name: x.Path[0]}
		}
		name := x.Path[len(x.Path)-1]
		if len(x.Args) == 0 {
			if prim, ok := primitiveTypes[name]; ok {
				return prim
			}
			return &types.TCon{Name: name}
		}
		args := make([]types.Ty, len(x.Args))
		for i, a := range x.Args {
			args[i] = l.lowerType(a, tparams)
		}
		return &types.TApp{Name: name, Args: args}
	case *ast.Path:
		if prim, ok := primitiveTypes[x.Segments[len(x.Segments)-1]]; ok {
			return prim
		}
		return &types.TCon{Name: x.Segments[len(x.Segments)-1]}
	case *ast.RefType:
		return &types.TRef{Qualifier: types.Ownership(x.Qualifier), Elem: l.lowerType(x.Elem, tparams)}
	case *ast.ArrayType:
		return &types.TArray{Elem: l.lowerType(x.Elem, tparams)}
	case *ast.TupleType:
		elems := make([]types.Ty, len(x.Elements))
		for i, e := range x.Elements {
			elems[i] = l.lowerType(e, tparams)
		}
		return &types.TTuple{Elements: elems}
	case *ast.FnType:
		params := make([]types.Ty, len(x.Params))
		for i, p := range x.Params {
			params[i] = l.lowerType(p, tparams)
		}
		return &types.TFunc{Params: params, Return: l.lowerType(x.Ret, tparams), Effects: l.lowerEffectRowSyntax(x.Effects)}
	case *ast.RecordTypeExpr:
		fields := make(map[string]types.Ty, len(x.Fields))
		for _, f := range x.Fields {
			fields[f.Name] = l.lowerType(f.Type, tparams)
		}
		return &types.TRecord{Fields: fields, Var: x.Var}
	case *ast.ForallType:
		merged := make(map[string]bool, len(tparams)+len(x.TypeParams))
		for k := range tparams {
			merged[k] = true
		}
		for _, tp := range x.TypeParams {
			merged[tp.Name] = true
		}
		return &types.TForall{Vars: typeParamNames(x.TypeParams), Body: l.lowerType(x.Body, merged)}
	}
	return l.freshTVar()
}

func (l *Lowerer) lowerEffectRowSyntax(e *ast.EffectRowSyntax) *types.EffectRow {
	if e == nil {
		return types.NewEffectRow()
	}
	row := types.NewEffectRow(e.Labels...)
	row.Var = e.Var
	return row
}

// ---- Patterns ----

func (l *Lowerer) lowerPattern(p ast.Pattern) Pattern {
	switch x := p.(type) {
	case *ast.WildcardPattern:
		return &WildcardPattern{patternBase{x.Span}}
	case *ast.BindingPattern:
		var sub Pattern
		if x.Sub != nil {
			sub = l.lowerPattern(x.Sub)
		}
		return &BindingPattern{patternBase: patternBase{x.Span}, Def: l.Res.Defs[x], Name: x.Name, Sub: sub}
	case *ast.Literal:
		return &LitPattern{patternBase: patternBase{x.Span}, Kind: LitKind(x.Kind), Value: x.Value}
	case *ast.TuplePattern:
		elems := make([]Pattern, len(x.Elements))
		for i, e := range x.Elements {
			elems[i] = l.lowerPattern(e)
		}
		return &TuplePattern{patternBase: patternBase{x.Span}, Elements: elems}
	case *ast.StructPattern:
		fields := make([]FieldPattern, len(x.Fields))
		for i, f := range x.Fields {
			fields[i] = FieldPattern{Name: f.Name, Pattern: l.lowerPattern(f.Pattern)}
		}
		return &StructPattern{patternBase: patternBase{x.Span}, Def: l.structIDs[x.Name], Name: x.Name, Fields: fields, Rest: x.Rest}
	case *ast.RecordPattern:
		fields := make([]FieldPattern, len(x.Fields))
		for i, f := range x.Fields {
			fields[i] = FieldPattern{Name: f.Name, Pattern: l.lowerPattern(f.Pattern)}
		}
		return &RecordPattern{patternBase: patternBase{x.Span}, Fields: fields, Rest: x.Rest}
	case *ast.EnumPattern:
		elems := make([]Pattern, len(x.Elements))
		for i, e := range x.Elements {
			elems[i] = l.lowerPattern(e)
		}
		return &EnumPattern{
			patternBase: patternBase{x.Span}, Def: l.enumIDs[x.Enum], Variant: l.variants[x.Enum+"::"+x.Variant],
			Enum: x.Enum, Tag: x.Variant, Elements: elems,
		}
	case *ast.OrPattern:
		alts := make([]Pattern, len(x.Alternatives))
		for i, a := range x.Alternatives {
			alts[i] = l.lowerPattern(a)
		}
		return &OrPattern{patternBase: patternBase{x.Span}, Alternatives: alts}
	case *ast.RangePattern:
		return &RangePattern{
			patternBase: patternBase{x.Span}, Lo: l.lowerExpr(x.Lo), Hi: l.lowerExpr(x.Hi), Inclusive: x.Inclusive,
		}
	}
	return &WildcardPattern{patternBase{p.Position()}}
}

// ---- Blocks & expressions ----

func unitLit(span source.Span) Expr {
	return &Lit{exprBase: exprBase{span: span}, Kind: UnitLit, Value: nil}
}

func (l *Lowerer) lowerBlock(b *ast.Block) Expr {
	var tail Expr
	if b.Tail != nil {
		tail = l.lowerExpr(b.Tail)
	} else {
		tail = unitLit(b.Span)
	}
	for i := len(b.Stmts) - 1; i >= 0; i-- {
		stmt := b.Stmts[i]
		switch st := stmt.(type) {
		case *ast.LetStmt:
			tail = &Let{
				exprBase: exprBase{span: st.Span},
				Pattern:  l.lowerPattern(st.Pattern),
				Value:    l.lowerExpr(st.Value),
				Body:     tail,
			}
		case *ast.ExprStmt:
			tail = &Let{
				exprBase: exprBase{span: st.Span},
				Pattern:  &WildcardPattern{patternBase{st.Span}},
				Value:    l.lowerExpr(st.X),
				Body:     tail,
			}
		case *ast.ItemStmt:
			// Nested items are lowered into the shared Program and
			// referenced by DefId from wherever they're used; they don't
			// themselves contribute a value to the block's sequencing.
			l.lowerItem(st.It)
		}
	}
	return tail
}

func (l *Lowerer) lowerExpr(e ast.Expr) Expr {
	if e == nil {
		return nil
	}
	span := e.Position()
	base := exprBase{span: span}
	switch x := e.(type) {
	case *ast.Ident:
		return &Var{exprBase: base, Def: l.Res.Refs[x], Name: x.Name}
	case *ast.Path:
		name := x.Segments[len(x.Segments)-1]
		return &Var{exprBase: base, Def: l.Res.Refs[x], Name: name}
	case *ast.Literal:
		return &Lit{exprBase: base, Kind: LitKind(x.Kind), Value: x.Value}
	case *ast.BinaryExpr:
		return &BinOp{exprBase: base, Op: x.Op, Left: l.lowerExpr(x.Left), Right: l.lowerExpr(x.Right)}
	case *ast.UnaryExpr:
		return &UnOp{exprBase: base, Op: x.Op, Operand: l.lowerExpr(x.X)}
	case *ast.AssignExpr:
		return &Assign{exprBase: base, Target: l.lowerExpr(x.Target), Op: x.Op, Value: l.lowerExpr(x.Value)}
	case *ast.CallExpr:
		args := make([]Expr, len(x.Args))
		for i, a := range x.Args {
			args[i] = l.lowerExpr(a)
		}
		return &App{exprBase: base, Func: l.lowerExpr(x.Callee), Args: args}
	case *ast.MethodCallExpr:
		args := make([]Expr, len(x.Args))
		for i, a := range x.Args {
			args[i] = l.lowerExpr(a)
		}
		return &MethodCall{exprBase: base, Receiver: l.lowerExpr(x.Receiver), Name: x.Name, Args: args}
	case *ast.FieldExpr:
		return &FieldAccess{exprBase: base, X: l.lowerExpr(x.X), Field: x.Field}
	case *ast.IndexExpr:
		return &Index{exprBase: base, X: l.lowerExpr(x.X), Index: l.lowerExpr(x.Index)}
	case *ast.Block:
		return l.lowerBlock(x)
	case *ast.IfExpr:
		var elseExpr Expr
		if x.Else != nil {
			elseExpr = l.lowerExpr(x.Else)
		}
		return &If{exprBase: base, Cond: l.lowerExpr(x.Cond), Then: l.lowerBlock(x.Then), Else: elseExpr}
	case *ast.WhileExpr:
		return &While{exprBase: base, Cond: l.lowerExpr(x.Cond), Body: l.lowerBlock(x.Body)}
	case *ast.LoopExpr:
		return &While{exprBase: base, Cond: &Lit{exprBase: base, Kind: BoolLit, Value: true}, Body: l.lowerBlock(x.Body)}
	case *ast.ForExpr:
		return l.lowerFor(x)
	case *ast.BreakExpr:
		var v Expr
		if x.Value != nil {
			v = l.lowerExpr(x.Value)
		}
		return &Break{exprBase: base, Value: v}
	case *ast.ContinueExpr:
		return &Continue{exprBase: base}
	case *ast.ReturnExpr:
		var v Expr
		if x.Value != nil {
			v = l.lowerExpr(x.Value)
		}
		return &Return{exprBase: base, Value: v}
	case *ast.MatchExpr:
		arms := make([]*MatchArm, len(x.Arms))
		for i, a := range x.Arms {
			var guard Expr
			if a.Guard != nil {
				guard = l.lowerExpr(a.Guard)
			}
			arms[i] = &MatchArm{Pattern: l.lowerPattern(a.Pattern), Guard: guard, Body: l.lowerExpr(a.Body), Span: a.Span}
		}
		return &Match{exprBase: base, Scrutinee: l.lowerExpr(x.Scrutinee), Arms: arms}
	case *ast.ClosureExpr:
		params := make([]*Param, len(x.Params))
		for i, p := range x.Params {
			ty := l.lowerTypeOrFresh(p.Type, nil)
			if bp, ok := p.Pattern.(*ast.BindingPattern); ok {
				params[i] = &Param{Def: l.Res.Defs[bp], Name: bp.Name, Type: ty, Span: p.Span}
			} else {
				params[i] = &Param{Def: 0, Name: "_", Type: ty, Span: p.Span}
			}
		}
		return &Lambda{exprBase: base, Params: params, Effects: l.lowerEffectRowSyntax(x.Effects), Body: l.lowerExpr(x.Body)}
	case *ast.PerformExpr:
		args := make([]Expr, len(x.Args))
		for i, a := range x.Args {
			args[i] = l.lowerExpr(a)
		}
		return &Perform{exprBase: base, Effect: x.Effect, Op: x.Op, Args: args}
	case *ast.ResumeExpr:
		return &Resume{exprBase: base, Value: l.lowerExpr(x.Value)}
	case *ast.HandlerExpr:
		arms := make([]*HandlerArm, len(x.Arms))
		for i, a := range x.Arms {
			params := make([]*Param, len(a.Params))
			for j, p := range a.Params {
				ty := l.lowerTypeOrFresh(p.Type, nil)
				if bp, ok := p.Pattern.(*ast.BindingPattern); ok {
					params[j] = &Param{Def: l.Res.Defs[bp], Name: bp.Name, Type: ty, Span: p.Span}
				}
			}
			arms[i] = &HandlerArm{
				Effect: a.Effect, Op: a.Op, IsReturn: a.IsReturn, Params: params,
				Body: l.lowerExpr(a.Body), Span: a.Span,
			}
		}
		return &Handler{exprBase: base, Arms: arms, Shallow: x.Shallow}
	case *ast.TryExpr:
		return &Try{exprBase: base, Body: l.lowerBlock(x.Body), Handler: l.lowerExpr(x.Handler)}
	case *ast.ArrayExpr:
		elems := make([]Expr, len(x.Elements))
		for i, el := range x.Elements {
			elems[i] = l.lowerExpr(el)
		}
		return &ArrayLit{exprBase: base, Elements: elems}
	case *ast.TupleExpr:
		elems := make([]Expr, len(x.Elements))
		for i, el := range x.Elements {
			elems[i] = l.lowerExpr(el)
		}
		return &TupleLit{exprBase: base, Elements: elems}
	case *ast.RangeExpr:
		return &Range{exprBase: base, Lo: l.lowerExpr(x.Lo), Hi: l.lowerExpr(x.Hi), Inclusive: x.Inclusive}
	case *ast.StructLit:
		fields := make([]RecordField, len(x.Fields))
		for i, f := range x.Fields {
			fields[i] = RecordField{Name: f.Name, Value: l.lowerExpr(f.Value)}
		}
		return &StructLit{exprBase: base, Def: l.structIDs[x.Name], Name: x.Name, Fields: fields}
	case *ast.RecordLit:
		var baseExpr Expr
		if x.Base != nil {
			baseExpr = l.lowerExpr(x.Base)
		}
		fields := make([]RecordField, len(x.Fields))
		for i, f := range x.Fields {
			fields[i] = RecordField{Name: f.Name, Value: l.lowerExpr(f.Value)}
		}
		return &RecordLit{exprBase: base, Base: baseExpr, Fields: fields}
	case *ast.EnumLit:
		args := make([]Expr, len(x.Args))
		for i, a := range x.Args {
			args[i] = l.lowerExpr(a)
		}
		return &EnumLit{
			exprBase: base, Def: l.enumIDs[x.Enum], Variant: l.variants[x.Enum+"::"+x.Variant],
			Enum: x.Enum, Tag: x.Variant, Args: args,
		}
	case *ast.CastExpr:
		return &Cast{exprBase: base, X: l.lowerExpr(x.X), Target: l.lowerType(x.Type, nil)}
	case *ast.PropagateExpr:
		return &Propagate{exprBase: base, X: l.lowerExpr(x.X)}
	case *ast.ErrorExpr:
		return &Err{exprBase: exprBase{span: base.span, ty: types.ErrType}}
	}
	return &Err{exprBase: exprBase{span: span, ty: types.ErrType}}
}

// lowerFor desugars `for pat in iter { body }` into a fresh iterator
// local plus a `while true` loop whose body matches the iterator's
// `next()` result, breaking on `None` (spec.md §4.4: "desugar for-loops
// ... at HIR lowering"). This assumes the conventional `next() ->
// Option<T>` iterator protocol rather than introducing a distinct
// Iterator trait of its own.
func (l *Lowerer) lowerFor(x *ast.ForExpr) Expr {
	span := x.Span
	iterDef := l.freshLocal("__iter", span)
	iterName := l.Reg.Info(iterDef).Name

	iterVal := l.lowerExpr(x.Iter)
	nextCall := &MethodCall{exprBase: exprBase{span: span}, Receiver: &Var{exprBase: exprBase{span: span}, Def: iterDef, Name: iterName}, Name: "next"}

	somePat := &EnumPattern{patternBase: patternBase{span}, Enum: "Option", Tag: "Some", Elements: []Pattern{l.lowerPattern(x.Pattern)}}
	nonePat := &EnumPattern{patternBase: patternBase{span}, Enum: "Option", Tag: "None"}

	matchExpr := &Match{
		exprBase:  exprBase{span: span},
		Scrutinee: nextCall,
		Arms: []*MatchArm{
			{Pattern: somePat, Body: l.lowerBlock(x.Body), Span: span},
			{Pattern: nonePat, Body: &Break{exprBase: exprBase{span: span}}, Span: span},
		},
	}

	loop := &While{exprBase: exprBase{span: span}, Cond: &Lit{exprBase: exprBase{span: span}, Kind: BoolLit, Value: true}, Body: matchExpr}

	return &Let{
		exprBase: exprBase{span: span},
		Pattern:  &BindingPattern{patternBase: patternBase{span}, Def: iterDef, Name: iterName},
		Value:    iterVal,
		Body:     loop,
	}
}
