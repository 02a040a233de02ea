package link_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/ast"
	"github.com/jkindrix/blood/internal/link"
	"github.com/jkindrix/blood/internal/loader"
)

func mod(path string, imports ...string) *loader.Module {
	return &loader.Module{Path: path, File: &ast.File{}, Imports: imports}
}

func TestTopoSortOrdersDependenciesFirst(t *testing.T) {
	loaded := map[string]*loader.Module{
		"main":        mod("main", "collections", "io"),
		"collections": mod("collections"),
		"io":          mod("io", "collections"),
	}
	sorted, err := link.TopoSort([]string{"main"}, loaded)
	require.NoError(t, err)

	pos := map[link.ModuleID]int{}
	for i, m := range sorted {
		pos[m] = i
	}
	require.Less(t, pos["collections"], pos["io"])
	require.Less(t, pos["io"], pos["main"])
}

func TestTopoSortDetectsCycle(t *testing.T) {
	loaded := map[string]*loader.Module{
		"a": mod("a", "b"),
		"b": mod("b", "a"),
	}
	_, err := link.TopoSort([]string{"a"}, loaded)
	require.Error(t, err)
	var cycleErr *link.CycleError
	require.ErrorAs(t, err, &cycleErr)
}
