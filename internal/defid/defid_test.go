package defid_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/defid"
)

func TestAllocIsDenseAndMonotonic(t *testing.T) {
	r := defid.NewRegistry()
	a := r.Alloc(0, defid.KindFunc, "add", "a.blood", 0, 10, nil)
	b := r.Alloc(0, defid.KindFunc, "sub", "a.blood", 11, 20, nil)

	require.Equal(t, defid.ID(1), a)
	require.Equal(t, defid.ID(2), b)
	require.Equal(t, 2, r.Len())
}

func TestAllocSameInputIsDeterministic(t *testing.T) {
	r1 := defid.NewRegistry()
	id1 := r1.Alloc(0, defid.KindFunc, "add", "a.blood", 0, 10, []int{0})

	r2 := defid.NewRegistry()
	id2 := r2.Alloc(0, defid.KindFunc, "add", "a.blood", 0, 10, []int{0})

	require.Equal(t, id1, id2)
	require.Equal(t, r1.Info(id1).StableSID, r2.Info(id2).StableSID)
}

func TestAddScopeRefAccumulates(t *testing.T) {
	r := defid.NewRegistry()
	fn := r.Alloc(0, defid.KindFunc, "f", "a.blood", 0, 1, nil)
	p := r.Alloc(fn, defid.KindParam, "x", "a.blood", 2, 3, nil)

	r.AddScopeRef(fn, p)
	info := r.Info(fn)
	require.Equal(t, []defid.ID{p}, info.ScopeRefs)
}

func TestAllReturnsSourceOrder(t *testing.T) {
	r := defid.NewRegistry()
	r.Alloc(0, defid.KindFunc, "a", "f.blood", 0, 1, nil)
	r.Alloc(0, defid.KindFunc, "b", "f.blood", 2, 3, nil)

	all := r.All()
	require.Len(t, all, 2)
	require.Equal(t, "a", all[0].Name)
	require.Equal(t, "b", all[1].Name)
}
