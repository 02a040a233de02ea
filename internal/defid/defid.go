// Package defid assigns every top-level definition a dense, monotonic
// DefId and records its DefInfo (spec.md §3). DefIds are allocated in a
// single linear pass over the compiled file's definitions so that two
// compilations of byte-identical input always allocate identical IDs — the bootstrap-gate
// determinism invariant (spec.md §8.2) depends on this.
//
// Content-addressed stability across edits (not just within one run) is
// provided by internal/sid, which this package consults when a caller
// needs an identity that survives unrelated insertions elsewhere in the
// file.
package defid

import (
	"fmt"

	"github.com/jkindrix/blood/internal/sid"
)

// ID is a dense identifier for a top-level or nested definition,
// allocated in source order starting at 1 (0 is the reserved "no
// definition" sentinel).
type ID uint32

// Kind classifies what a DefId names.
type Kind int

const (
	KindFunc Kind = iota
	KindStruct
	KindEnum
	KindEnumVariant
	KindTrait
	KindTraitMethod
	KindImplMethod
	KindEffect
	KindEffectOp
	KindConst
	KindStatic
	KindModule
	KindParam
	KindLocal
	KindTypeParam
)

func (k Kind) String() string {
	switch k {
	case KindFunc:
		return "func"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindEnumVariant:
		return "enum_variant"
	case KindTrait:
		return "trait"
	case KindTraitMethod:
		return "trait_method"
	case KindImplMethod:
		return "impl_method"
	case KindEffect:
		return "effect"
	case KindEffectOp:
		return "effect_op"
	case KindConst:
		return "const"
	case KindStatic:
		return "static"
	case KindModule:
		return "module"
	case KindParam:
		return "param"
	case KindLocal:
		return "local"
	case KindTypeParam:
		return "type_param"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Info is the registry entry for a single DefId.
type Info struct {
	ID        ID
	Parent    ID // 0 if top-level
	Kind      Kind
	Name      string
	ScopeRefs []ID // other DefIds visible from this definition's body scope
	StableSID sid.SID
}

// Registry is the dense DefId → Info table built by a single allocation
// pass (see internal/resolve, which drives allocation while walking the
// HIR-bound AST).
type Registry struct {
	infos []Info // index 0 unused
}

// NewRegistry creates an empty registry with the reserved-zero slot.
func NewRegistry() *Registry {
	return &Registry{infos: make([]Info, 1)}
}

// Alloc assigns the next dense ID to a definition and records its Info.
// The StableSID is computed eagerly so cross-run identity checks never
// need to revisit the AST.
func (r *Registry) Alloc(parent ID, kind Kind, name string, path string, start, end int, childPath []int) ID {
	id := ID(len(r.infos))
	r.infos = append(r.infos, Info{
		ID:        id,
		Parent:    parent,
		Kind:      kind,
		Name:      name,
		StableSID: sid.NewSID(path, start, end, kind.String(), childPath),
	})
	return id
}

// AddScopeRef records that def can see other in its body scope, used by
// the resolver to build ScopeRefs incrementally as names are looked up.
func (r *Registry) AddScopeRef(def, other ID) {
	info := &r.infos[def]
	info.ScopeRefs = append(info.ScopeRefs, other)
}

// Info looks up a DefId's registered Info. Panics on an unallocated ID —
// every ID in a well-formed program was allocated by this registry.
func (r *Registry) Info(id ID) Info {
	return r.infos[id]
}

// Len returns the number of allocated DefIds (excluding the reserved
// zero slot).
func (r *Registry) Len() int {
	return len(r.infos) - 1
}

// All returns every allocated Info in allocation (and therefore source)
// order, for deterministic iteration during codegen name mangling.
func (r *Registry) All() []Info {
	return r.infos[1:]
}
