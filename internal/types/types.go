// Package types implements blood's type representation and the
// bidirectional-with-unification typechecker (spec.md §4.5): row-polymorphic
// records and effects, generics via forall instantiation, and trait
// obligations resolved eagerly against impl registrations.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Ty is any type in the system. Every variant supports structural
// equality, substitution under a Substitution, and a canonical
// string form used for diagnostics and iface signatures.
type Ty interface {
	String() string
	Substitute(sub Substitution) Ty
}

// TVar is an inference variable, created at polymorphic instantiation
// sites and `_`-typed positions. Resolved through a Substitution via
// union-find-style path compression in Unify.
type TVar struct{ Name string }

func (t *TVar) String() string          { return t.Name }
func (t *TVar) Substitute(s Substitution) Ty {
	if r, ok := s[t.Name]; ok {
		if rv, ok := r.(*TVar); ok && rv.Name == t.Name {
			return t
		}
		return r.Substitute(s)
	}
	return t
}

// TCon is a nullary type constructor: i32, bool, String, a user-defined
// struct/enum name, etc.
type TCon struct{ Name string }

func (t *TCon) String() string               { return t.Name }
func (t *TCon) Substitute(s Substitution) Ty { return t }

// TApp is a type constructor applied to arguments: List<T>, Option<T>.
type TApp struct {
	Name string
	Args []Ty
}

func (t *TApp) String() string {
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", t.Name, strings.Join(parts, ", "))
}

func (t *TApp) Substitute(s Substitution) Ty {
	args := make([]Ty, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.Substitute(s)
	}
	return &TApp{Name: t.Name, Args: args}
}

// EffectRow is `{E1, ..., En | rho}`: a closed or open set of effect
// labels. Var == "" means closed.
type EffectRow struct {
	Labels map[string]bool
	Var    string
}

func NewEffectRow(labels ...string) *EffectRow {
	r := &EffectRow{Labels: make(map[string]bool)}
	for _, l := range labels {
		r.Labels[l] = true
	}
	return r
}

func (r *EffectRow) String() string {
	names := make([]string, 0, len(r.Labels))
	for l := range r.Labels {
		names = append(names, l)
	}
	sort.Strings(names)
	body := strings.Join(names, ", ")
	if r.Var != "" {
		if body != "" {
			body += " | " + r.Var
		} else {
			body = "| " + r.Var
		}
	}
	return "{" + body + "}"
}

func (r *EffectRow) substitute(s Substitution) *EffectRow {
	if r.Var == "" {
		return r
	}
	if repl, ok := s[r.Var]; ok {
		if rowVar, ok := repl.(*effectRowVarTy); ok {
			merged := NewEffectRow()
			for l := range r.Labels {
				merged.Labels[l] = true
			}
			for l := range rowVar.Row.Labels {
				merged.Labels[l] = true
			}
			merged.Var = rowVar.Row.Var
			return merged
		}
	}
	return r
}

// effectRowVarTy lets an effect row variable be stored in a Substitution
// (which is otherwise keyed to Ty values) without effect rows themselves
// implementing Ty.
type effectRowVarTy struct{ Row *EffectRow }

func (e *effectRowVarTy) String() string               { return e.Row.String() }
func (e *effectRowVarTy) Substitute(s Substitution) Ty { return e }

// TFunc is a function type: parameters, return type, and effect row.
type TFunc struct {
	Params  []Ty
	Return  Ty
	Effects *EffectRow
}

func (t *TFunc) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	s := fmt.Sprintf("fn(%s) -> %s", strings.Join(parts, ", "), t.Return.String())
	if t.Effects != nil && (len(t.Effects.Labels) > 0 || t.Effects.Var != "") {
		s += " ! " + t.Effects.String()
	}
	return s
}

func (t *TFunc) Substitute(s Substitution) Ty {
	params := make([]Ty, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.Substitute(s)
	}
	var eff *EffectRow
	if t.Effects != nil {
		eff = t.Effects.substitute(s)
	}
	return &TFunc{Params: params, Return: t.Return.Substitute(s), Effects: eff}
}

// TTuple is a fixed-arity product type.
type TTuple struct{ Elements []Ty }

func (t *TTuple) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (t *TTuple) Substitute(s Substitution) Ty {
	elems := make([]Ty, len(t.Elements))
	for i, e := range t.Elements {
		elems[i] = e.Substitute(s)
	}
	return &TTuple{Elements: elems}
}

// TArray is a fixed-element-type array (blood's `[T]`).
type TArray struct{ Elem Ty }

func (t *TArray) String() string               { return "[" + t.Elem.String() + "]" }
func (t *TArray) Substitute(s Substitution) Ty { return &TArray{Elem: t.Elem.Substitute(s)} }

// TRecord is a row-polymorphic record: `{f1: t1, ... | rho}`.
type TRecord struct {
	Fields map[string]Ty
	Var    string // "" => closed
}

func (t *TRecord) String() string {
	names := make([]string, 0, len(t.Fields))
	for n := range t.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + ": " + t.Fields[n].String()
	}
	body := strings.Join(parts, ", ")
	if t.Var != "" {
		if body != "" {
			body += " | " + t.Var
		} else {
			body = "| " + t.Var
		}
	}
	return "{" + body + "}"
}

func (t *TRecord) Substitute(s Substitution) Ty {
	fields := make(map[string]Ty, len(t.Fields))
	for n, ty := range t.Fields {
		fields[n] = ty.Substitute(s)
	}
	rec := &TRecord{Fields: fields, Var: t.Var}
	if t.Var != "" {
		if repl, ok := s[t.Var]; ok {
			if other, ok := repl.(*TRecord); ok {
				for n, ty := range other.Fields {
					if _, exists := rec.Fields[n]; !exists {
						rec.Fields[n] = ty
					}
				}
				rec.Var = other.Var
			}
		}
	}
	return rec
}

// Ownership mirrors ast.Ownership for the type layer.
type Ownership int

const (
	Owned Ownership = iota
	Shared
	Unique
)

// TRef is a generational reference type, `&T` / `&mut T`.
type TRef struct {
	Qualifier Ownership
	Elem      Ty
}

func (t *TRef) String() string {
	if t.Qualifier == Unique {
		return "&mut " + t.Elem.String()
	}
	return "&" + t.Elem.String()
}

func (t *TRef) Substitute(s Substitution) Ty { return &TRef{Qualifier: t.Qualifier, Elem: t.Elem.Substitute(s)} }

// TForall is a universally quantified type, `forall <T, ...> body`.
type TForall struct {
	Vars []string
	Body Ty
}

func (t *TForall) String() string {
	return fmt.Sprintf("forall <%s> %s", strings.Join(t.Vars, ", "), t.Body.String())
}

func (t *TForall) Substitute(s Substitution) Ty {
	filtered := make(Substitution, len(s))
	for k, v := range s {
		bound := false
		for _, v2 := range t.Vars {
			if k == v2 {
				bound = true
				break
			}
		}
		if !bound {
			filtered[k] = v
		}
	}
	return &TForall{Vars: t.Vars, Body: t.Body.Substitute(filtered)}
}

// TErr is the sentinel error type: it unifies with anything and never
// produces a cascading diagnostic (spec.md §4.5, §7).
type TErr struct{}

func (t *TErr) String() string               { return "<error>" }
func (t *TErr) Substitute(s Substitution) Ty { return t }

var ErrType Ty = &TErr{}

// Builtin primitive constructors, shared across the pipeline.
var (
	I8   Ty = &TCon{Name: "i8"}
	I16  Ty = &TCon{Name: "i16"}
	I32  Ty = &TCon{Name: "i32"}
	I64  Ty = &TCon{Name: "i64"}
	U8   Ty = &TCon{Name: "u8"}
	U16  Ty = &TCon{Name: "u16"}
	U32  Ty = &TCon{Name: "u32"}
	U64  Ty = &TCon{Name: "u64"}
	F32  Ty = &TCon{Name: "f32"}
	F64  Ty = &TCon{Name: "f64"}
	Bool Ty = &TCon{Name: "bool"}
	Str  Ty = &TCon{Name: "String"}
	Char Ty = &TCon{Name: "char"}
	Unit Ty = &TCon{Name: "()"}
)
