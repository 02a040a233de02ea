package ast_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/ast"
	"github.com/jkindrix/blood/internal/source"
)

func TestPrintFuncDecl(t *testing.T) {
	decl := &ast.FuncDecl{
		Name: "add",
		Params: []*ast.Param{
			{Pattern: &ast.BindingPattern{Name: "x"}},
			{Pattern: &ast.BindingPattern{Name: "y"}},
		},
		Body: &ast.Block{
			Tail: &ast.BinaryExpr{
				Left:  &ast.Ident{Name: "x"},
				Op:    "+",
				Right: &ast.Ident{Name: "y"},
			},
		},
	}

	out := ast.Print(decl)
	require.True(t, strings.Contains(out, `"type": "FuncDecl"`))
	require.True(t, strings.Contains(out, `"name": "add"`))
	require.True(t, strings.Contains(out, `"BinaryExpr"`))
}

func TestPrintEnumDecl(t *testing.T) {
	decl := &ast.EnumDecl{
		Name: "Option",
		Variants: []*ast.EnumVariant{
			{Name: "Some", Fields: []ast.Ty{&ast.NamedType{Path: []string{"a"}}}},
			{Name: "None"},
		},
	}

	out := ast.Print(decl)
	require.True(t, strings.Contains(out, "EnumDecl"))
	require.True(t, strings.Contains(out, "Some"))
	require.True(t, strings.Contains(out, "None"))
}

func TestPrintOmitsSpans(t *testing.T) {
	sp := source.Span{File: 1, Start: 5, End: 9, Line: 2, Col: 3}
	lit := &ast.Literal{Kind: ast.IntLit, Value: int64(42), Span: sp}

	out := ast.Print(lit)
	require.True(t, strings.Contains(out, "42"))
	require.False(t, strings.Contains(out, "\"Line\""))
}

func TestPrintMatchExprWithOrPattern(t *testing.T) {
	m := &ast.MatchExpr{
		Scrutinee: &ast.Ident{Name: "n"},
		Arms: []*ast.MatchArm{
			{
				Pattern: &ast.OrPattern{Alternatives: []ast.Pattern{
					&ast.Literal{Kind: ast.IntLit, Value: int64(0)},
					&ast.Literal{Kind: ast.IntLit, Value: int64(1)},
				}},
				Body: &ast.Ident{Name: "n"},
			},
			{Pattern: &ast.WildcardPattern{}, Body: &ast.Literal{Kind: ast.IntLit, Value: int64(-1)}},
		},
	}

	out := ast.Print(m)
	require.True(t, strings.Contains(out, "OrPattern"))
	require.True(t, strings.Contains(out, "WildcardPattern"))
}

func TestCompactIsSingleLine(t *testing.T) {
	out := ast.Compact(&ast.Ident{Name: "x"})
	require.False(t, strings.Contains(out, "\n"))
}
