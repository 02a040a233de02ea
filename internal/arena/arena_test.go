package arena_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/arena"
)

func TestPutRetainsValueAndReturnsItUnchanged(t *testing.T) {
	a := arena.New("ast")
	type node struct{ n int }
	got := arena.Put(a, &node{n: 7})
	require.Equal(t, 7, got.n)
	require.Equal(t, 1, a.Len())
}

func TestResetDropsRetainedValues(t *testing.T) {
	a := arena.New("hir")
	arena.Put(a, "one")
	arena.Put(a, "two")
	require.Equal(t, 2, a.Len())
	a.Reset()
	require.Equal(t, 0, a.Len())
}

func TestSetCreatesArenasOnFirstUse(t *testing.T) {
	s := arena.NewSet()
	a1 := s.Arena("ast")
	a2 := s.Arena("ast")
	require.Same(t, a1, a2)
	require.Equal(t, []string{"ast"}, s.Names())
}

func TestSetDropRemovesArenaFromLiveSet(t *testing.T) {
	s := arena.NewSet()
	s.Arena("ast")
	s.Arena("hir")
	s.Drop("ast")
	require.Equal(t, []string{"hir"}, s.Names())
}

func TestSetDropIsNoopForUnknownName(t *testing.T) {
	s := arena.NewSet()
	require.NotPanics(t, func() { s.Drop("never-created") })
}
