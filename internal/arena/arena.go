// Package arena implements blood's per-phase allocation discipline
// (spec.md §5, §9): the parser's AST lives in one arena, HIR lowering
// gets its own (with the AST arena dropped once HIR lowering is done),
// MIR lowering gets a third, and LLVM IR text grows in its own
// builder. Go's allocator is GC-managed rather than mmap/arena-backed,
// so Arena doesn't carve out raw memory the way a bump allocator in a
// self-hosted build would — instead it retains every value a phase
// produced in one slice and Reset drops that whole slice's last
// reference at once, so the collector reclaims a phase's entire
// generation in one pass instead of piecemeal as individual values
// go out of scope.
package arena

// Arena retains every value a single compiler phase allocated.
type Arena struct {
	name string
	objs []any
}

// New creates an empty, named arena.
func New(name string) *Arena {
	return &Arena{name: name}
}

// Name returns the phase name this arena was created for.
func (a *Arena) Name() string { return a.name }

// Put registers v as owned by a and returns it unchanged, so call
// sites can wrap an allocation in place: `node := arena.Put(a, &Node{...})`.
func Put[T any](a *Arena, v T) T {
	a.objs = append(a.objs, v)
	return v
}

// Len reports how many values this arena currently retains.
func (a *Arena) Len() int { return len(a.objs) }

// Reset drops every value this arena retained. Call it once the phase
// that owns this arena has handed its result to the next phase in a
// form that doesn't need the original values anymore.
func (a *Arena) Reset() {
	a.objs = nil
}

// Set is a driver-owned collection of named arenas, one per pipeline
// phase, so Drop can discard a finished phase's generation without the
// caller needing to hold every Arena pointer individually.
type Set struct {
	arenas map[string]*Arena
	order  []string
}

// NewSet creates an empty arena set.
func NewSet() *Set {
	return &Set{arenas: make(map[string]*Arena)}
}

// Arena returns the named arena, creating it on first use.
func (s *Set) Arena(name string) *Arena {
	if a, ok := s.arenas[name]; ok {
		return a
	}
	a := New(name)
	s.arenas[name] = a
	s.order = append(s.order, name)
	return a
}

// Drop resets and forgets the named arena. A no-op if it was never
// created or already dropped.
func (s *Set) Drop(name string) {
	if a, ok := s.arenas[name]; ok {
		a.Reset()
		delete(s.arenas, name)
	}
}

// Names lists every arena currently live in the set, in creation order.
func (s *Set) Names() []string {
	live := make([]string, 0, len(s.order))
	for _, n := range s.order {
		if _, ok := s.arenas[n]; ok {
			live = append(live, n)
		}
	}
	return live
}
