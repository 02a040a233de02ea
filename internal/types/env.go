package types

import "fmt"

// Env is an immutable, linked scope: looking up a name walks outward
// through Parent until it finds a binding or runs out of scopes. Extend
// never mutates the receiver, so a closure can safely capture an outer
// Env while a nested scope keeps extending its own chain (grounded on
// the teacher's TypeEnv.Extend scoping idiom).
type Env struct {
	Parent  *Env
	Name    string
	Type    Ty
	Scheme  *TForall // non-nil for let-generalized bindings
}

// NewEnv creates an empty root environment.
func NewEnv() *Env { return nil }

// Extend returns a new scope binding name to t, parented on e.
func (e *Env) Extend(name string, t Ty) *Env {
	return &Env{Parent: e, Name: name, Type: t}
}

// ExtendScheme returns a new scope binding name to a generalized scheme.
func (e *Env) ExtendScheme(name string, scheme *TForall) *Env {
	return &Env{Parent: e, Name: name, Scheme: scheme}
}

// Lookup finds name's type, instantiating it fresh if it was bound
// generalized. Returns an error if the name isn't in scope.
func (e *Env) Lookup(name string, namer func(string) string) (Ty, error) {
	for s := e; s != nil; s = s.Parent {
		if s.Name != name {
			continue
		}
		if s.Scheme != nil {
			return Instantiate(s.Scheme, namer), nil
		}
		return s.Type, nil
	}
	return nil, fmt.Errorf("unbound identifier: %s", name)
}
