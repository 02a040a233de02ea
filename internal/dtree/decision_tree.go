// Package dtree compiles a `match` expression's arms into a decision
// tree (spec.md §4.6's match-compilation requirement). MIR lowering
// consults CanCompileToTree only as an advisory check; it still emits a
// linear chain of arm-by-arm tests rather than lowering the tree.
package dtree

import (
	"fmt"
	"sort"

	"github.com/jkindrix/blood/internal/hir"
)

// DecisionTree represents a compiled pattern matching decision tree.
// This optimizes pattern matching by avoiding redundant tests.
type DecisionTree interface {
	isDecisionTree()
	String() string
}

// LeafNode represents a match with a body to execute.
type LeafNode struct {
	ArmIndex int // Index of the original match arm
	Body     hir.Expr
	Guard    hir.Expr // nil if the arm has no guard
}

func (l *LeafNode) isDecisionTree() {}
func (l *LeafNode) String() string  { return fmt.Sprintf("Leaf(arm=%d)", l.ArmIndex) }

// FailNode represents no match (non-exhaustive).
type FailNode struct{}

func (f *FailNode) isDecisionTree() {}
func (f *FailNode) String() string  { return "Fail" }

// SwitchNode represents a choice based on a discriminator.
type SwitchNode struct {
	Path    []int                        // path to the value being tested, e.g. [0, 1] = first field of second field
	Cases   map[interface{}]DecisionTree // discriminant value/tag -> subtree
	Default DecisionTree                 // fallback for wildcard/variable patterns
}

func (s *SwitchNode) isDecisionTree() {}
func (s *SwitchNode) String() string {
	return fmt.Sprintf("Switch(path=%v, cases=%d, default=%v)", s.Path, len(s.Cases), s.Default != nil)
}

// DecisionTreeCompiler compiles match arms into a decision tree.
type DecisionTreeCompiler struct {
	arms []*hir.MatchArm
}

// NewDecisionTreeCompiler creates a new compiler.
func NewDecisionTreeCompiler(arms []*hir.MatchArm) *DecisionTreeCompiler {
	return &DecisionTreeCompiler{arms: arms}
}

// Compile builds a decision tree from match arms. Or-patterns are
// expanded into one matrix row per alternative before compilation, all
// sharing the same arm index/guard/body.
func (c *DecisionTreeCompiler) Compile() DecisionTree {
	var matrix []matchRow
	for i, arm := range c.arms {
		for _, pat := range expandOr(arm.Pattern) {
			matrix = append(matrix, matchRow{
				patterns: []hir.Pattern{pat},
				armIndex: i,
				guard:    arm.Guard,
				body:     arm.Body,
			})
		}
	}
	return c.compileMatrix(matrix, []int{})
}

func expandOr(p hir.Pattern) []hir.Pattern {
	or, ok := p.(*hir.OrPattern)
	if !ok {
		return []hir.Pattern{p}
	}
	var out []hir.Pattern
	for _, alt := range or.Alternatives {
		out = append(out, expandOr(alt)...)
	}
	return out
}

// matchRow represents one row in the pattern matrix: the remaining
// test columns, plus the originating arm's metadata.
type matchRow struct {
	patterns []hir.Pattern
	armIndex int
	guard    hir.Expr
	body     hir.Expr
}

// compileMatrix builds a decision tree from a pattern matrix.
func (c *DecisionTreeCompiler) compileMatrix(matrix []matchRow, path []int) DecisionTree {
	if len(matrix) == 0 {
		return &FailNode{}
	}

	if isDefaultRow(matrix[0]) || len(matrix[0].patterns) == 0 {
		return &LeafNode{ArmIndex: matrix[0].armIndex, Body: matrix[0].body, Guard: matrix[0].guard}
	}

	return c.buildSwitch(matrix, path, 0)
}

// isDefaultRow reports whether every remaining column in row is a
// wildcard, plain binding or range pattern — such a row is treated as
// always matching, so it's a leaf.
func isDefaultRow(row matchRow) bool {
	for _, pat := range row.patterns {
		switch pat.(type) {
		case *hir.WildcardPattern, *hir.BindingPattern, *hir.RangePattern:
			continue
		default:
			return false
		}
	}
	return true
}

// discriminant returns the tag this pattern tests against, and the
// sub-patterns its arguments specialize into (in canonical field order
// for field-named patterns so two rows over the same constructor line up
// column-for-column). ok is false for patterns with no discriminant
// (wildcard/binding/range), which belong in the default bucket.
func discriminant(pat hir.Pattern) (key interface{}, args []hir.Pattern, ok bool) {
	switch p := pat.(type) {
	case *hir.LitPattern:
		return p.Value, nil, true
	case *hir.EnumPattern:
		return p.Enum + "::" + p.Tag, p.Elements, true
	case *hir.TuplePattern:
		return "(tuple)", p.Elements, true
	case *hir.StructPattern:
		return p.Name, sortedFieldPatterns(p.Fields), true
	case *hir.RecordPattern:
		return "{record}", sortedFieldPatterns(p.Fields), true
	default:
		return nil, nil, false
	}
}

func sortedFieldPatterns(fields []hir.FieldPattern) []hir.Pattern {
	sorted := make([]hir.FieldPattern, len(fields))
	copy(sorted, fields)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	out := make([]hir.Pattern, len(sorted))
	for i, f := range sorted {
		out[i] = f.Pattern
	}
	return out
}

// buildSwitch creates a switch node for the given column.
func (c *DecisionTreeCompiler) buildSwitch(matrix []matchRow, path []int, colIndex int) DecisionTree {
	cases := make(map[interface{}][]matchRow)
	var order []interface{}
	var defaultRows []matchRow

	for _, row := range matrix {
		if colIndex >= len(row.patterns) {
			defaultRows = append(defaultRows, row)
			continue
		}
		key, _, ok := discriminant(row.patterns[colIndex])
		if !ok {
			defaultRows = append(defaultRows, row)
			continue
		}
		if _, seen := cases[key]; !seen {
			order = append(order, key)
		}
		cases[key] = append(cases[key], row)
	}

	if len(cases) == 0 && len(defaultRows) > 0 {
		return &LeafNode{ArmIndex: defaultRows[0].armIndex, Body: defaultRows[0].body, Guard: defaultRows[0].guard}
	}

	switchNode := &SwitchNode{Path: append(append([]int{}, path...), colIndex), Cases: make(map[interface{}]DecisionTree)}

	for _, key := range order {
		rows := cases[key]
		specialized := specializeRows(rows, colIndex)
		switchNode.Cases[key] = c.compileMatrix(specialized, switchNode.Path)
	}

	if len(defaultRows) > 0 {
		specialized := specializeRows(defaultRows, colIndex)
		switchNode.Default = c.compileMatrix(specialized, path)
	} else {
		switchNode.Default = &FailNode{}
	}

	return switchNode
}

// specializeRows removes the matched column from rows, replacing a
// constructor pattern with its sub-patterns (pattern specialization).
func specializeRows(rows []matchRow, colIndex int) []matchRow {
	var result []matchRow
	for _, row := range rows {
		newPatterns := make([]hir.Pattern, 0, len(row.patterns)-1+2)
		for i, pat := range row.patterns {
			if i != colIndex {
				newPatterns = append(newPatterns, pat)
				continue
			}
			if _, args, ok := discriminant(pat); ok {
				newPatterns = append(newPatterns, args...)
			}
		}
		result = append(result, matchRow{patterns: newPatterns, armIndex: row.armIndex, guard: row.guard, body: row.body})
	}
	return result
}

// CanCompileToTree reports whether arms have enough testable
// (literal/enum/struct) patterns for decision-tree compilation to pay
// for itself over a linear if-else chain.
func CanCompileToTree(arms []*hir.MatchArm) bool {
	count := 0
	for _, arm := range arms {
		for _, pat := range expandOr(arm.Pattern) {
			if _, _, ok := discriminant(pat); ok {
				count++
			}
		}
	}
	return count >= 2
}
