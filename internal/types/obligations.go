package types

import "fmt"

// ImplInfo records one `impl Trait for Self` block: the trait being
// implemented, the concrete (or partially generic) Self type, and the
// method names it provides. Typechecking a trait-bounded call resolves
// eagerly against a Registry of these (spec.md §4.5), rather than
// building dictionaries at runtime.
type ImplInfo struct {
	Trait   string
	Self    Ty
	Methods map[string]Ty // method name -> its TFunc type, Self already substituted in
}

// Registry indexes ImplInfo by trait name for obligation resolution.
type Registry struct {
	impls map[string][]*ImplInfo
}

func NewRegistry() *Registry {
	return &Registry{impls: make(map[string][]*ImplInfo)}
}

func (r *Registry) Add(impl *ImplInfo) {
	r.impls[impl.Trait] = append(r.impls[impl.Trait], impl)
}

// Obligation is "self must implement trait" as raised by a generic
// function's `where T: Trait` bound or a method call on a type
// parameter.
type Obligation struct {
	Trait string
	Self  Ty
}

func (o Obligation) String() string {
	return fmt.Sprintf("%s: %s", o.Self.String(), o.Trait)
}

// ObligationError reports an obligation no registered impl satisfies.
type ObligationError struct {
	Obligation Obligation
}

func (e *ObligationError) Error() string {
	return fmt.Sprintf("no impl satisfies obligation %s", e.Obligation.String())
}

// Resolve finds the ImplInfo satisfying ob by unifying ob.Self against
// each candidate impl's Self type under sub, without permanently
// committing sub unless a unique match is found. Multiple Dispatch
// (spec.md §2) means more than one impl may structurally match; the
// first successful unification wins, mirroring the teacher's
// first-match instance-selection policy generalized from typeclasses to
// explicit impl blocks.
func (r *Registry) Resolve(ob Obligation, sub Substitution) (*ImplInfo, Substitution, error) {
	candidates := r.impls[ob.Trait]
	for _, impl := range candidates {
		trial := make(Substitution, len(sub))
		for k, v := range sub {
			trial[k] = v
		}
		next, err := Unify(ob.Self, impl.Self, trial)
		if err != nil {
			continue
		}
		return impl, next, nil
	}
	return nil, nil, &ObligationError{Obligation: ob}
}

// Method looks up a method by name on an already-resolved impl.
func (impl *ImplInfo) Method(name string) (Ty, bool) {
	t, ok := impl.Methods[name]
	return t, ok
}
