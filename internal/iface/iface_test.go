package iface_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/defid"
	"github.com/jkindrix/blood/internal/iface"
)

func TestAddAndGet(t *testing.T) {
	i := iface.New("collections/list")
	i.Add("map", defid.ID(7), "fn(List<a>, fn(a) -> b) -> List<b>", []string{"IO", "State"}, false)

	e, ok := i.Get("map")
	require.True(t, ok)
	require.Equal(t, defid.ID(7), e.Def)
	require.Equal(t, []string{"IO", "State"}, e.Effects)
	require.False(t, e.Pure)

	_, ok = i.Get("missing")
	require.False(t, ok)
}

func TestFinalizeIsDeterministic(t *testing.T) {
	build := func() *iface.Iface {
		i := iface.New("math")
		i.Add("gcd", defid.ID(2), "fn(i64, i64) -> i64", nil, true)
		i.Add("add", defid.ID(1), "fn(i64, i64) -> i64", nil, true)
		return i
	}
	a, b := build(), build()
	require.NoError(t, a.Finalize())
	require.NoError(t, b.Finalize())
	require.Equal(t, a.Digest, b.Digest)
	require.NotEmpty(t, a.Digest)
}

func TestToNormalizedJSONSortsExportsByName(t *testing.T) {
	i := iface.New("math")
	i.Add("sub", defid.ID(2), "fn(i64, i64) -> i64", nil, true)
	i.Add("add", defid.ID(1), "fn(i64, i64) -> i64", nil, true)

	b, err := i.ToNormalizedJSON()
	require.NoError(t, err)
	require.Less(t, indexOf(string(b), `"add"`), indexOf(string(b), `"sub"`))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
