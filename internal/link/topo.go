// Package link orders a set of modules into dependency order
// (dependencies before dependents). No other package of the compiler
// calls it; the driver compiles a single file.
package link

import (
	"fmt"
	"strings"

	"github.com/jkindrix/blood/internal/loader"
)

// ModuleID is a canonical module path, as produced by loader.CanonicalModuleID.
type ModuleID string

// CycleError reports a `use` cycle discovered during ordering.
type CycleError struct {
	Code  string
	Cycle []ModuleID
}

func (e *CycleError) Error() string {
	path := make([]string, len(e.Cycle))
	for i, m := range e.Cycle {
		path[i] = string(m)
	}
	return fmt.Sprintf("%s: dependency cycle detected: %s", e.Code, strings.Join(path, " -> "))
}

// TopoSort orders the loaded module set starting from roots, dependencies
// first, via post-order DFS. A `use` cycle is reported as a CycleError
// rather than silently broken.
func TopoSort(roots []string, loaded map[string]*loader.Module) ([]ModuleID, error) {
	visited := make(map[ModuleID]bool)
	inPath := make(map[ModuleID]bool)
	var path []ModuleID
	var sorted []ModuleID

	var dfs func(id ModuleID) error
	dfs = func(id ModuleID) error {
		if visited[id] {
			return nil
		}
		if inPath[id] {
			cycle := append([]ModuleID{}, path...)
			cycle = append(cycle, id)
			start := 0
			for i, m := range cycle {
				if m == id {
					start = i
					break
				}
			}
			return &CycleError{Code: "E0204", Cycle: cycle[start:]}
		}
		inPath[id] = true
		path = append(path, id)

		mod, ok := loaded[string(id)]
		if !ok {
			return fmt.Errorf("E0200: module not found during ordering: %s", id)
		}
		for _, imp := range mod.Imports {
			dep := ModuleID(loader.CanonicalModuleID(imp))
			if err := dfs(dep); err != nil {
				return err
			}
		}

		inPath[id] = false
		path = path[:len(path)-1]
		visited[id] = true
		sorted = append(sorted, id)
		return nil
	}

	for _, root := range roots {
		if err := dfs(ModuleID(loader.CanonicalModuleID(root))); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}
