package types

import "fmt"

// Substitution maps type-variable and row-variable names to their
// resolved Ty. Row variables are stored wrapped (see EffectRow.substitute
// / TRecord.Substitute) since EffectRow does not itself implement Ty.
type Substitution map[string]Ty

// UnifyError reports two types that could not be made equal. It carries
// no span; the caller supplies one when wrapping it into a diag.Report.
type UnifyError struct {
	Left, Right Ty
}

func (e *UnifyError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, found %s", e.Left.String(), e.Right.String())
}

// Unify walks t1 and t2 under sub, extending it with new bindings.
// TErr unifies with anything (spec.md §4.5, §7: error-suppression). Every
// variable binding is occurs-checked.
func Unify(t1, t2 Ty, sub Substitution) (Substitution, error) {
	t1 = resolve(t1, sub)
	t2 = resolve(t2, sub)

	if _, ok := t1.(*TErr); ok {
		return sub, nil
	}
	if _, ok := t2.(*TErr); ok {
		return sub, nil
	}

	if v1, ok := t1.(*TVar); ok {
		return bindVar(v1.Name, t2, sub)
	}
	if v2, ok := t2.(*TVar); ok {
		return bindVar(v2.Name, t1, sub)
	}

	switch a := t1.(type) {
	case *TCon:
		b, ok := t2.(*TCon)
		if !ok || a.Name != b.Name {
			return nil, &UnifyError{t1, t2}
		}
		return sub, nil

	case *TApp:
		b, ok := t2.(*TApp)
		if !ok || a.Name != b.Name || len(a.Args) != len(b.Args) {
			return nil, &UnifyError{t1, t2}
		}
		var err error
		for i := range a.Args {
			sub, err = Unify(a.Args[i], b.Args[i], sub)
			if err != nil {
				return nil, err
			}
		}
		return sub, nil

	case *TFunc:
		b, ok := t2.(*TFunc)
		if !ok || len(a.Params) != len(b.Params) {
			return nil, &UnifyError{t1, t2}
		}
		var err error
		for i := range a.Params {
			sub, err = Unify(a.Params[i], b.Params[i], sub)
			if err != nil {
				return nil, err
			}
		}
		sub, err = Unify(a.Return, b.Return, sub)
		if err != nil {
			return nil, err
		}
		if a.Effects != nil && b.Effects != nil {
			return UnifyEffectRows(a.Effects, b.Effects, sub)
		}
		return sub, nil

	case *TTuple:
		b, ok := t2.(*TTuple)
		if !ok || len(a.Elements) != len(b.Elements) {
			return nil, &UnifyError{t1, t2}
		}
		var err error
		for i := range a.Elements {
			sub, err = Unify(a.Elements[i], b.Elements[i], sub)
			if err != nil {
				return nil, err
			}
		}
		return sub, nil

	case *TArray:
		b, ok := t2.(*TArray)
		if !ok {
			return nil, &UnifyError{t1, t2}
		}
		return Unify(a.Elem, b.Elem, sub)

	case *TRecord:
		b, ok := t2.(*TRecord)
		if !ok {
			return nil, &UnifyError{t1, t2}
		}
		return UnifyRecordRows(a, b, sub)

	case *TRef:
		b, ok := t2.(*TRef)
		if !ok || a.Qualifier != b.Qualifier {
			return nil, &UnifyError{t1, t2}
		}
		return Unify(a.Elem, b.Elem, sub)

	case *TForall:
		// Instantiate the left-hand scheme with fresh variables and unify
		// its body against t2 as given; callers that need call-site instantiation should use
		// Instantiate directly instead of unifying a TForall in place.
		return Unify(Instantiate(a, freshNamer()), t2, sub)
	}

	return nil, &UnifyError{t1, t2}
}

func resolve(t Ty, sub Substitution) Ty {
	for {
		v, ok := t.(*TVar)
		if !ok {
			return t
		}
		next, ok := sub[v.Name]
		if !ok {
			return t
		}
		t = next
	}
}

func bindVar(name string, t Ty, sub Substitution) (Substitution, error) {
	if v, ok := t.(*TVar); ok && v.Name == name {
		return sub, nil
	}
	if occurs(name, t, sub) {
		return nil, fmt.Errorf("occurs check failed: %s occurs in %s", name, t.String())
	}
	next := make(Substitution, len(sub)+1)
	for k, v := range sub {
		next[k] = v
	}
	next[name] = t
	return next, nil
}

func occurs(name string, t Ty, sub Substitution) bool {
	t = resolve(t, sub)
	switch x := t.(type) {
	case *TVar:
		return x.Name == name
	case *TApp:
		for _, a := range x.Args {
			if occurs(name, a, sub) {
				return true
			}
		}
	case *TFunc:
		for _, p := range x.Params {
			if occurs(name, p, sub) {
				return true
			}
		}
		return occurs(name, x.Return, sub)
	case *TTuple:
		for _, e := range x.Elements {
			if occurs(name, e, sub) {
				return true
			}
		}
	case *TArray:
		return occurs(name, x.Elem, sub)
	case *TRecord:
		for _, f := range x.Fields {
			if occurs(name, f, sub) {
				return true
			}
		}
	case *TRef:
		return occurs(name, x.Elem, sub)
	}
	return false
}

// Apply fully resolves t under sub (following every bound variable to
// its end, recursively through compound types).
func Apply(sub Substitution, t Ty) Ty {
	return t.Substitute(sub)
}

// Compose produces a substitution equivalent to applying s1 then s2.
func Compose(s1, s2 Substitution) Substitution {
	out := make(Substitution, len(s1)+len(s2))
	for k, v := range s1 {
		out[k] = v.Substitute(s2)
	}
	for k, v := range s2 {
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	return out
}

// freshNamer returns a closure producing a fresh, session-unique type
// variable name on each call. Kept local to the unifier rather than
// global so tests can construct independent instantiations.
func freshNamer() func(string) string {
	counter := 0
	seen := make(map[string]string)
	return func(orig string) string {
		if n, ok := seen[orig]; ok {
			return n
		}
		counter++
		n := fmt.Sprintf("%s$%d", orig, counter)
		seen[orig] = n
		return n
	}
}

// Instantiate replaces a TForall's bound variables with fresh ones
// (generated via namer) throughout its body — used both at generic call
// sites and when unifying against a quantified type directly.
func Instantiate(f *TForall, namer func(string) string) Ty {
	sub := make(Substitution, len(f.Vars))
	for _, v := range f.Vars {
		sub[v] = &TVar{Name: namer(v)}
	}
	return f.Body.Substitute(sub)
}
