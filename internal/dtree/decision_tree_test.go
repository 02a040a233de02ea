package dtree

import (
	"testing"

	"github.com/jkindrix/blood/internal/hir"
)

func lit(v interface{}) *hir.Lit { return &hir.Lit{Kind: hir.IntLit, Value: v} }

func TestDecisionTreeSimpleBoolMatch(t *testing.T) {
	// match x { true => 1, false => 0 }
	arms := []*hir.MatchArm{
		{Pattern: &hir.LitPattern{Value: true}, Body: lit(1)},
		{Pattern: &hir.LitPattern{Value: false}, Body: lit(0)},
	}

	tree := NewDecisionTreeCompiler(arms).Compile()

	switchNode, ok := tree.(*SwitchNode)
	if !ok {
		t.Fatalf("expected SwitchNode, got %T", tree)
	}
	if len(switchNode.Cases) != 2 {
		t.Errorf("expected 2 cases, got %d", len(switchNode.Cases))
	}
	if _, ok := switchNode.Cases[true]; !ok {
		t.Error("missing case for true")
	}
	if _, ok := switchNode.Cases[false]; !ok {
		t.Error("missing case for false")
	}
}

func TestDecisionTreeWithWildcard(t *testing.T) {
	// match x { true => 1, _ => 0 }
	arms := []*hir.MatchArm{
		{Pattern: &hir.LitPattern{Value: true}, Body: lit(1)},
		{Pattern: &hir.WildcardPattern{}, Body: lit(0)},
	}

	tree := NewDecisionTreeCompiler(arms).Compile()

	switchNode, ok := tree.(*SwitchNode)
	if !ok {
		t.Fatalf("expected SwitchNode, got %T", tree)
	}
	if switchNode.Default == nil {
		t.Error("expected default branch for wildcard")
	}
}

func TestDecisionTreeAllWildcards(t *testing.T) {
	// match x { _ => 42 }
	arms := []*hir.MatchArm{
		{Pattern: &hir.WildcardPattern{}, Body: lit(42)},
	}

	tree := NewDecisionTreeCompiler(arms).Compile()

	leaf, ok := tree.(*LeafNode)
	if !ok {
		t.Fatalf("expected LeafNode for wildcard-only match, got %T", tree)
	}
	if leaf.ArmIndex != 0 {
		t.Errorf("expected arm index 0, got %d", leaf.ArmIndex)
	}
}

func TestDecisionTreeEnumVariants(t *testing.T) {
	// match o { Option::Some(x) => x, Option::None => 0 }
	arms := []*hir.MatchArm{
		{
			Pattern: &hir.EnumPattern{Enum: "Option", Tag: "Some", Elements: []hir.Pattern{&hir.BindingPattern{Name: "x"}}},
			Body:    lit(1),
		},
		{Pattern: &hir.EnumPattern{Enum: "Option", Tag: "None"}, Body: lit(0)},
	}

	tree := NewDecisionTreeCompiler(arms).Compile()

	switchNode, ok := tree.(*SwitchNode)
	if !ok {
		t.Fatalf("expected SwitchNode, got %T", tree)
	}
	if _, ok := switchNode.Cases["Option::Some"]; !ok {
		t.Error("missing case for Option::Some")
	}
	if _, ok := switchNode.Cases["Option::None"]; !ok {
		t.Error("missing case for Option::None")
	}
}

func TestDecisionTreeOrPatternExpandsToBothAlternatives(t *testing.T) {
	// match n { 1 | 2 => 0, _ => 1 }
	arms := []*hir.MatchArm{
		{
			Pattern: &hir.OrPattern{Alternatives: []hir.Pattern{
				&hir.LitPattern{Value: int64(1)},
				&hir.LitPattern{Value: int64(2)},
			}},
			Body: lit(0),
		},
		{Pattern: &hir.WildcardPattern{}, Body: lit(1)},
	}

	tree := NewDecisionTreeCompiler(arms).Compile()

	switchNode, ok := tree.(*SwitchNode)
	if !ok {
		t.Fatalf("expected SwitchNode, got %T", tree)
	}
	if len(switchNode.Cases) != 2 {
		t.Errorf("expected 2 cases from expanded or-pattern, got %d", len(switchNode.Cases))
	}
}

func TestCanCompileToTree(t *testing.T) {
	tests := []struct {
		name     string
		arms     []*hir.MatchArm
		expected bool
	}{
		{
			name:     "single arm - not worth it",
			arms:     []*hir.MatchArm{{Pattern: &hir.LitPattern{Value: true}}},
			expected: false,
		},
		{
			name: "two wildcards - not worth it",
			arms: []*hir.MatchArm{
				{Pattern: &hir.WildcardPattern{}},
				{Pattern: &hir.WildcardPattern{}},
			},
			expected: false,
		},
		{
			name: "multiple literals - worth it",
			arms: []*hir.MatchArm{
				{Pattern: &hir.LitPattern{Value: true}},
				{Pattern: &hir.LitPattern{Value: false}},
				{Pattern: &hir.WildcardPattern{}},
			},
			expected: true,
		},
		{
			name: "multiple enum variants - worth it",
			arms: []*hir.MatchArm{
				{Pattern: &hir.EnumPattern{Enum: "Option", Tag: "Some"}},
				{Pattern: &hir.EnumPattern{Enum: "Option", Tag: "None"}},
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanCompileToTree(tt.arms); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
