package types

import (
	"fmt"

	"github.com/jkindrix/blood/internal/defid"
	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/hir"
	"github.com/jkindrix/blood/internal/source"
)

// Checker walks a lowered hir.Program bidirectionally (spec.md §4.5):
// literals and constructors synthesize a type outright, everything else
// infers via Unify against a running Substitution shared across the
// whole program, mirroring the teacher's single-InferenceContext style
// but keyed on HIR's defid.ID-qualified bindings rather than bare names.
type Checker struct {
	diags   *diag.Context
	impls   *Registry
	structs map[defid.ID]*hir.StructDef
	enums   map[defid.ID]*hir.EnumDef
	sub     Substitution
	fresh   int
}

// NewChecker creates a Checker that reports into diags.
func NewChecker(diags *diag.Context) *Checker {
	return &Checker{
		diags:   diags,
		impls:   NewRegistry(),
		structs: make(map[defid.ID]*hir.StructDef),
		enums:   make(map[defid.ID]*hir.EnumDef),
		sub:     make(Substitution),
	}
}

func (c *Checker) freshVar(hint string) Ty {
	c.fresh++
	return &TVar{Name: fmt.Sprintf("%s$%d", hint, c.fresh)}
}

// CheckProgram type checks every item in prog, annotating each hir.Expr's
// Ty in place and reporting diag.Reports for any failure. It never
// returns early on a single bad definition — like the teacher's
// CheckProgram, it keeps checking the rest of the program so one bad
// function doesn't hide every other diagnostic.
func (c *Checker) CheckProgram(prog *hir.Program) {
	for id, s := range prog.Structs {
		c.structs[id] = s
	}
	for id, e := range prog.Enums {
		c.enums[id] = e
	}

	global := c.globalEnv(prog)

	for _, impl := range prog.Impls {
		info := &ImplInfo{Trait: impl.Trait, Self: impl.ForType, Methods: make(map[string]Ty)}
		for _, m := range impl.Methods {
			info.Methods[m.Name] = c.funcType(m)
		}
		c.impls.Add(info)
	}

	for _, fn := range prog.Funcs {
		c.checkFunc(fn, global)
	}
	for _, impl := range prog.Impls {
		for _, m := range impl.Methods {
			env := global.Extend("self", impl.ForType)
			c.checkFunc(m, env)
		}
	}
	for _, cst := range prog.Consts {
		t, _ := c.infer(global, cst.Value)
		c.unifyOrReport(cst.Value.Span(), cst.Type, t)
	}
	for _, st := range prog.Statics {
		t, _ := c.infer(global, st.Value)
		c.unifyOrReport(st.Value.Span(), st.Type, t)
	}
}

func (c *Checker) funcType(fn *hir.FuncDef) Ty {
	params := make([]Ty, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Type
	}
	ft := &TFunc{Params: params, Return: fn.ReturnType, Effects: fn.Effects}
	if len(fn.TypeParams) == 0 {
		return ft
	}
	return &TForall{Vars: fn.TypeParams, Body: ft}
}

// globalEnv binds every top-level function, const, and static by name so
// a body can call forward or backward without a two-pass forward
// declaration dance.
func (c *Checker) globalEnv(prog *hir.Program) *Env {
	env := NewEnv()
	for _, fn := range prog.Funcs {
		t := c.funcType(fn)
		if forall, ok := t.(*TForall); ok {
			env = env.ExtendScheme(fn.Name, forall)
		} else {
			env = env.Extend(fn.Name, t)
		}
	}
	for _, cst := range prog.Consts {
		env = env.Extend(cst.Name, cst.Type)
	}
	for _, st := range prog.Statics {
		env = env.Extend(st.Name, st.Type)
	}
	return env
}

// checkFunc infers fn.Body under a scope extended with its parameters,
// unifies the result against the declared return type, and checks the
// body's inferred effect row is no larger than the declared one (spec.md
// §4.5 "a function's effect row is an upper bound on what its body may
// perform").
func (c *Checker) checkFunc(fn *hir.FuncDef, global *Env) {
	env := global
	for _, p := range fn.Params {
		env = env.Extend(p.Name, p.Type)
	}
	bodyTy, bodyEff := c.infer(env, fn.Body)
	c.unifyOrReport(fn.Body.Span(), fn.ReturnType, bodyTy)
	c.checkEffectsContained(fn.Span, fn.Effects, bodyEff)
}

func (c *Checker) checkEffectsContained(span source.Span, declared, actual *EffectRow) {
	if declared == nil || actual == nil {
		return
	}
	for label := range actual.Labels {
		if declared.Labels[label] {
			continue
		}
		if declared.Var != "" {
			continue
		}
		c.diags.Emit(&diag.Report{
			Severity: diag.SeverityError,
			Code:     diag.EEffectRowMismatch,
			Message:  fmt.Sprintf("effect %q performed but not declared in %s", label, declared.String()),
			Span:     span,
		})
	}
}

func (c *Checker) unifyOrReport(span source.Span, want, got Ty) {
	next, err := Unify(want, got, c.sub)
	if err != nil {
		c.diags.Emit(&diag.Report{
			Severity: diag.SeverityError,
			Code:     diag.ETypeMismatch,
			Message:  fmt.Sprintf("expected %s, found %s", Apply(c.sub, want).String(), Apply(c.sub, got).String()),
			Span:     span,
		})
		return
	}
	c.sub = next
}

// infer is the single dispatch point for every HIR expression kind, each
// returning its synthesized type plus the effect row its evaluation may
// perform. It also records the resolved type back onto the node via
// SetTy so later phases (MIR lowering, codegen) don't need to re-run
// inference.
func (c *Checker) infer(env *Env, e hir.Expr) (Ty, *EffectRow) {
	t, eff := c.inferRaw(env, e)
	e.SetTy(t)
	return t, eff
}

func pure() *EffectRow { return NewEffectRow() }

func mergeEffects(rows ...*EffectRow) *EffectRow {
	out := NewEffectRow()
	for _, r := range rows {
		if r == nil {
			continue
		}
		for l := range r.Labels {
			out.Labels[l] = true
		}
		if r.Var != "" {
			out.Var = r.Var
		}
	}
	return out
}

func (c *Checker) inferRaw(env *Env, e hir.Expr) (Ty, *EffectRow) {
	switch x := e.(type) {
	case *hir.Lit:
		switch x.Kind {
		case hir.IntLit:
			return I64, pure()
		case hir.FloatLit:
			return F64, pure()
		case hir.StringLit:
			return Str, pure()
		case hir.CharLit:
			return Char, pure()
		case hir.BoolLit:
			return Bool, pure()
		default:
			return Unit, pure()
		}

	case *hir.Var:
		t, err := env.Lookup(x.Name, freshNamer())
		if err != nil {
			c.diags.Emit(&diag.Report{
				Severity: diag.SeverityError,
				Code:     diag.EResolveUnresolvedName,
				Message:  err.Error(),
				Span:     x.Span(),
			})
			return c.freshVar("unbound"), pure()
		}
		return t, pure()

	case *hir.Lambda:
		body := env
		params := make([]Ty, len(x.Params))
		for i, p := range x.Params {
			params[i] = p.Type
			body = body.Extend(p.Name, p.Type)
		}
		bt, beff := c.infer(body, x.Body)
		eff := x.Effects
		if eff == nil {
			eff = beff
		}
		return &TFunc{Params: params, Return: bt, Effects: eff}, pure()

	case *hir.Let:
		vt, veff := c.infer(env, x.Value)
		inner := c.bindPattern(env, x.Pattern, vt)
		bt, beff := c.infer(inner, x.Body)
		return bt, mergeEffects(veff, beff)

	case *hir.App:
		ft, feff := c.infer(env, x.Func)
		argTys := make([]Ty, len(x.Args))
		effs := []*EffectRow{feff}
		for i, a := range x.Args {
			at, aeff := c.infer(env, a)
			argTys[i] = at
			effs = append(effs, aeff)
		}
		ret := c.freshVar("ret")
		want := &TFunc{Params: argTys, Return: ret, Effects: c.freshEffectRow()}
		c.unifyOrReport(x.Span(), ft, want)
		if fn, ok := Apply(c.sub, ft).(*TFunc); ok && fn.Effects != nil {
			effs = append(effs, fn.Effects)
		}
		return Apply(c.sub, ret), mergeEffects(effs...)

	case *hir.MethodCall:
		rt, reff := c.infer(env, x.Receiver)
		argTys := make([]Ty, len(x.Args))
		effs := []*EffectRow{reff}
		for i, a := range x.Args {
			at, aeff := c.infer(env, a)
			argTys[i] = at
			effs = append(effs, aeff)
		}
		ret := c.freshVar("ret")
		return ret, mergeEffects(effs...).union(c.resolveMethod(x.Span(), rt, x.Name, argTys, ret))

	case *hir.If:
		ct, ceff := c.infer(env, x.Cond)
		c.unifyOrReport(x.Cond.Span(), Bool, ct)
		tt, teff := c.infer(env, x.Then)
		if x.Else == nil {
			c.unifyOrReport(x.Span(), Unit, tt)
			return Unit, mergeEffects(ceff, teff)
		}
		et, eeff := c.infer(env, x.Else)
		c.unifyOrReport(x.Else.Span(), tt, et)
		return Apply(c.sub, tt), mergeEffects(ceff, teff, eeff)

	case *hir.While:
		ct, ceff := c.infer(env, x.Cond)
		c.unifyOrReport(x.Cond.Span(), Bool, ct)
		_, beff := c.infer(env, x.Body)
		return Unit, mergeEffects(ceff, beff)

	case *hir.Break:
		if x.Value == nil {
			return Unit, pure()
		}
		return c.infer(env, x.Value)

	case *hir.Continue:
		return Unit, pure()

	case *hir.Return:
		if x.Value == nil {
			return Unit, pure()
		}
		return c.infer(env, x.Value)

	case *hir.Match:
		st, seff := c.infer(env, x.Scrutinee)
		var result Ty = c.freshVar("arm")
		effs := []*EffectRow{seff}
		for _, arm := range x.Arms {
			armEnv := c.bindPatternAgainst(env, arm.Pattern, st)
			if arm.Guard != nil {
				gt, geff := c.infer(armEnv, arm.Guard)
				c.unifyOrReport(arm.Guard.Span(), Bool, gt)
				effs = append(effs, geff)
			}
			bt, beff := c.infer(armEnv, arm.Body)
			c.unifyOrReport(arm.Body.Span(), result, bt)
			result = Apply(c.sub, result)
			effs = append(effs, beff)
		}
		return result, mergeEffects(effs...)

	case *hir.BinOp:
		lt, leff := c.infer(env, x.Left)
		rt, reff := c.infer(env, x.Right)
		switch x.Op {
		case "==", "!=", "<", ">", "<=", ">=":
			c.unifyOrReport(x.Span(), lt, rt)
			return Bool, mergeEffects(leff, reff)
		case "&&", "||":
			c.unifyOrReport(x.Left.Span(), Bool, lt)
			c.unifyOrReport(x.Right.Span(), Bool, rt)
			return Bool, mergeEffects(leff, reff)
		default:
			c.unifyOrReport(x.Span(), lt, rt)
			return Apply(c.sub, lt), mergeEffects(leff, reff)
		}

	case *hir.UnOp:
		t, eff := c.infer(env, x.Operand)
		if x.Op == "!" {
			c.unifyOrReport(x.Span(), Bool, t)
			return Bool, eff
		}
		return t, eff

	case *hir.Assign:
		tt, teff := c.infer(env, x.Target)
		vt, veff := c.infer(env, x.Value)
		c.unifyOrReport(x.Span(), tt, vt)
		return Unit, mergeEffects(teff, veff)

	case *hir.RecordLit:
		fields := make(map[string]Ty, len(x.Fields))
		var effs []*EffectRow
		for _, f := range x.Fields {
			ft, feff := c.infer(env, f.Value)
			fields[f.Name] = ft
			effs = append(effs, feff)
		}
		rowVar := ""
		if x.Base != nil {
			bt, beff := c.infer(env, x.Base)
			effs = append(effs, beff)
			if br, ok := Apply(c.sub, bt).(*TRecord); ok {
				for n, t := range br.Fields {
					if _, exists := fields[n]; !exists {
						fields[n] = t
					}
				}
				rowVar = br.Var
			}
		}
		return &TRecord{Fields: fields, Var: rowVar}, mergeEffects(effs...)

	case *hir.FieldAccess:
		xt, xeff := c.infer(env, x.X)
		if st, ok := Apply(c.sub, xt).(*TCon); ok {
			if ft, ok := c.structFieldType(st.Name, x.Field); ok {
				return ft, xeff
			}
		}
		fresh := c.freshVar("field")
		rec := &TRecord{Fields: map[string]Ty{x.Field: fresh}, Var: c.freshRowVar()}
		c.unifyOrReport(x.Span(), rec, xt)
		return Apply(c.sub, fresh), xeff

	case *hir.Index:
		xt, xeff := c.infer(env, x.X)
		it, ieff := c.infer(env, x.Index)
		c.unifyOrReport(x.Index.Span(), I64, it)
		elem := c.freshVar("elem")
		c.unifyOrReport(x.X.Span(), &TArray{Elem: elem}, xt)
		return Apply(c.sub, elem), mergeEffects(xeff, ieff)

	case *hir.ArrayLit:
		elem := c.freshVar("elem")
		var effs []*EffectRow
		for _, el := range x.Elements {
			et, eeff := c.infer(env, el)
			c.unifyOrReport(el.Span(), elem, et)
			effs = append(effs, eeff)
		}
		return &TArray{Elem: Apply(c.sub, elem)}, mergeEffects(effs...)

	case *hir.TupleLit:
		elems := make([]Ty, len(x.Elements))
		var effs []*EffectRow
		for i, el := range x.Elements {
			et, eeff := c.infer(env, el)
			elems[i] = et
			effs = append(effs, eeff)
		}
		return &TTuple{Elements: elems}, mergeEffects(effs...)

	case *hir.StructLit:
		sd, ok := c.structs[x.Def]
		if !ok {
			return c.freshVar("struct"), pure()
		}
		var effs []*EffectRow
		for _, f := range x.Fields {
			ft, ok := c.structFieldType(sd.Name, f.Name)
			if !ok {
				continue
			}
			vt, veff := c.infer(env, f.Value)
			c.unifyOrReport(f.Value.Span(), ft, vt)
			effs = append(effs, veff)
		}
		return &TCon{Name: sd.Name}, mergeEffects(effs...)

	case *hir.EnumLit:
		ed, ok := c.enums[x.Def]
		if !ok {
			return c.freshVar("enum"), pure()
		}
		var effs []*EffectRow
		var fieldTys []Ty
		for _, v := range ed.Variants {
			if v.Def == x.Variant {
				fieldTys = v.Fields
				break
			}
		}
		for i, a := range x.Args {
			at, aeff := c.infer(env, a)
			if i < len(fieldTys) {
				c.unifyOrReport(a.Span(), fieldTys[i], at)
			}
			effs = append(effs, aeff)
		}
		return &TCon{Name: ed.Name}, mergeEffects(effs...)

	case *hir.Perform:
		var effs []*EffectRow
		for _, a := range x.Args {
			_, aeff := c.infer(env, a)
			effs = append(effs, aeff)
		}
		ret := c.freshVar("perform")
		row := NewEffectRow(x.Effect)
		return ret, mergeEffects(append(effs, row)...)

	case *hir.Resume:
		if x.Value == nil {
			return Unit, pure()
		}
		return c.infer(env, x.Value)

	case *hir.Handler:
		result := c.freshVar("handler")
		var effs []*EffectRow
		for _, arm := range x.Arms {
			armEnv := env
			for _, p := range arm.Params {
				armEnv = armEnv.Extend(p.Name, p.Type)
			}
			bt, beff := c.infer(armEnv, arm.Body)
			c.unifyOrReport(arm.Body.Span(), result, bt)
			result = Apply(c.sub, result)
			effs = append(effs, beff)
		}
		return result, mergeEffects(effs...)

	case *hir.Try:
		_, heff := c.infer(env, x.Handler)
		bt, beff := c.infer(env, x.Body)
		remaining := beff
		for _, label := range c.handledLabels(x.Handler) {
			remaining = SubtractEffectRow(remaining, label)
		}
		return bt, mergeEffects(remaining, heff)

	case *hir.Range:
		lt, leff := c.infer(env, x.Lo)
		ht, heff := c.infer(env, x.Hi)
		c.unifyOrReport(x.Span(), lt, ht)
		return &TArray{Elem: Apply(c.sub, lt)}, mergeEffects(leff, heff)

	case *hir.Cast:
		_, xeff := c.infer(env, x.X)
		return x.Target, xeff

	case *hir.Propagate:
		xt, xeff := c.infer(env, x.X)
		if app, ok := Apply(c.sub, xt).(*TApp); ok && len(app.Args) >= 1 {
			return app.Args[0], xeff
		}
		return c.freshVar("propagated"), xeff

	case *hir.Err:
		return ErrType, pure()

	default:
		c.diags.Emit(&diag.Report{
			Severity: diag.SeverityError,
			Code:     diag.EInternal,
			Message:  fmt.Sprintf("typecheck: unhandled HIR node %T", e),
			Span:     e.Span(),
		})
		return ErrType, pure()
	}
}

// resolveMethod dispatches a `.name(...)` call: first against a
// receiver's inherent impl methods via the obligation Registry, falling
// back to synthesizing a fresh call shape so unrelated errors don't
// cascade (spec.md §2's multiple-dispatch candidate search is narrowed
// here to single-receiver resolution against registered impls, since
// blood's HIR already flattens free-function overload sets at
// resolution time — see DESIGN.md).
func (c *Checker) resolveMethod(span source.Span, recv Ty, name string, args []Ty, ret Ty) *EffectRow {
	for trait := range c.traitsFor(recv) {
		impl, sub, err := c.impls.Resolve(Obligation{Trait: trait, Self: recv}, c.sub)
		if err != nil {
			continue
		}
		c.sub = sub
		mt, ok := impl.Method(name)
		if !ok {
			continue
		}
		fn, ok := Apply(c.sub, mt).(*TFunc)
		if !ok {
			continue
		}
		want := &TFunc{Params: args, Return: ret, Effects: fn.Effects}
		c.unifyOrReport(span, fn, want)
		return fn.Effects
	}
	c.diags.Emit(&diag.Report{
		Severity: diag.SeverityError,
		Code:     diag.ETypeUnresolvedObligation,
		Message:  fmt.Sprintf("no method %q found for %s", name, recv.String()),
		Span:     span,
	})
	return pure()
}

// traitsFor returns every trait name with at least one impl whose Self
// could match recv, a cheap pre-filter before attempting full
// unification in resolveMethod.
func (c *Checker) traitsFor(recv Ty) map[string]bool {
	out := make(map[string]bool)
	for trait, impls := range c.impls.impls {
		for _, impl := range impls {
			if _, err := Unify(recv, impl.Self, c.sub); err == nil {
				out[trait] = true
				break
			}
		}
	}
	return out
}

func (c *Checker) structFieldType(structName, field string) (Ty, bool) {
	for _, sd := range c.structs {
		if sd.Name != structName {
			continue
		}
		for _, f := range sd.Fields {
			if f.Name == field {
				return f.Type, true
			}
		}
	}
	return nil, false
}

// handledLabels lists the effect labels a `with handler { ... }`
// expression handles, i.e. every non-return-clause arm's Effect name.
func (c *Checker) handledLabels(e hir.Expr) []string {
	h, ok := e.(*hir.Handler)
	if !ok {
		return nil
	}
	var out []string
	for _, arm := range h.Arms {
		if !arm.IsReturn {
			out = append(out, arm.Effect)
		}
	}
	return out
}

func (c *Checker) freshRowVar() string {
	c.fresh++
	return fmt.Sprintf("rho$%d", c.fresh)
}

func (c *Checker) freshEffectRow() *EffectRow {
	return &EffectRow{Labels: make(map[string]bool), Var: c.freshRowVar()}
}

// bindPattern extends env for a `let` binding's pattern against vt, the
// already-inferred value type.
func (c *Checker) bindPattern(env *Env, p hir.Pattern, vt Ty) *Env {
	return c.bindPatternAgainst(env, p, vt)
}

// bindPatternAgainst recursively destructures p, unifying each
// sub-pattern's expected shape against the scrutinee type and extending
// env with every binding it introduces.
func (c *Checker) bindPatternAgainst(env *Env, p hir.Pattern, vt Ty) *Env {
	switch pat := p.(type) {
	case *hir.WildcardPattern:
		return env

	case *hir.BindingPattern:
		env = env.Extend(pat.Name, vt)
		if pat.Sub != nil {
			env = c.bindPatternAgainst(env, pat.Sub, vt)
		}
		return env

	case *hir.LitPattern:
		return env

	case *hir.TuplePattern:
		tup, ok := Apply(c.sub, vt).(*TTuple)
		if !ok || len(tup.Elements) != len(pat.Elements) {
			for _, el := range pat.Elements {
				env = c.bindPatternAgainst(env, el, c.freshVar("tup"))
			}
			return env
		}
		for i, el := range pat.Elements {
			env = c.bindPatternAgainst(env, el, tup.Elements[i])
		}
		return env

	case *hir.StructPattern:
		for _, f := range pat.Fields {
			ft, ok := c.structFieldType(pat.Name, f.Name)
			if !ok {
				ft = c.freshVar("structfield")
			}
			env = c.bindPatternAgainst(env, f.Pattern, ft)
		}
		return env

	case *hir.RecordPattern:
		for _, f := range pat.Fields {
			env = c.bindPatternAgainst(env, f.Pattern, c.freshVar("recfield"))
		}
		return env

	case *hir.EnumPattern:
		var fieldTys []Ty
		if ed, ok := c.enums[pat.Def]; ok {
			for _, v := range ed.Variants {
				if v.Def == pat.Variant {
					fieldTys = v.Fields
					break
				}
			}
		}
		for i, el := range pat.Elements {
			var ft Ty
			if i < len(fieldTys) {
				ft = fieldTys[i]
			} else {
				ft = c.freshVar("variantfield")
			}
			env = c.bindPatternAgainst(env, el, ft)
		}
		return env

	case *hir.OrPattern:
		for _, alt := range pat.Alternatives {
			env = c.bindPatternAgainst(env, alt, vt)
		}
		return env

	case *hir.RangePattern:
		return env

	default:
		return env
	}
}

// union merges r's labels into a fresh copy of rows, used where a single
// EffectRow value (rather than mergeEffects's variadic slice) reads more
// naturally at the call site.
func (r *EffectRow) union(other *EffectRow) *EffectRow {
	return mergeEffects(r, other)
}
