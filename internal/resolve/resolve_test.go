package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/ast"
	"github.com/jkindrix/blood/internal/defid"
	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/lexer"
	"github.com/jkindrix/blood/internal/parser"
	"github.com/jkindrix/blood/internal/resolve"
	"github.com/jkindrix/blood/internal/source"
)

func parseFile(t *testing.T, src string) (*ast.File, *diag.Context, *source.Map, source.FileID) {
	t.Helper()
	srcs := source.NewMap()
	file := srcs.AddFile("test.blood", src)
	diags := diag.NewContext(srcs, 64)
	lx := lexer.New(src, file, srcs, diags)
	p := parser.New(lx.Tokens(), srcs, file, diags)
	return p.ParseFile(), diags, srcs, file
}

func TestResolveFunctionBindsParamsAndLocals(t *testing.T) {
	f, parseDiags, _, fid := parseFile(t, `
fn add(a: i64, b: i64) -> i64 {
	let c = a + b;
	c
}
`)
	require.False(t, parseDiags.HasErrors())

	reg := defid.NewRegistry()
	diags := diag.NewContext(source.NewMap(), 64)
	r := resolve.New(reg, diags, "main", fid)
	res := r.ResolveFile(f)

	require.False(t, diags.HasErrors())

	fn := f.Items[0].(*ast.FuncDecl)
	_, ok := res.Defs[fn]
	require.True(t, ok)

	addExpr := fn.Body.Stmts[0].(*ast.LetStmt).Value.(*ast.BinaryExpr)
	aRef, ok := res.Refs[addExpr.Left.(*ast.Ident)]
	require.True(t, ok)
	require.NotZero(t, aRef)
}

func TestResolveUnknownNameEmitsDiagnostic(t *testing.T) {
	f, parseDiags, _, fid := parseFile(t, `
fn bad() -> i64 {
	missing_name
}
`)
	require.False(t, parseDiags.HasErrors())

	reg := defid.NewRegistry()
	diags := diag.NewContext(source.NewMap(), 64)
	r := resolve.New(reg, diags, "main", fid)
	r.ResolveFile(f)

	require.True(t, diags.HasErrors())
}

func TestResolveDuplicateTopLevelDefEmitsDiagnostic(t *testing.T) {
	f, parseDiags, _, fid := parseFile(t, `
fn dup() -> i64 { 1 }
fn dup() -> i64 { 2 }
`)
	require.False(t, parseDiags.HasErrors())

	reg := defid.NewRegistry()
	diags := diag.NewContext(source.NewMap(), 64)
	r := resolve.New(reg, diags, "main", fid)
	r.ResolveFile(f)

	require.True(t, diags.HasErrors())
}

func TestResolveEnumVariantPatternBindings(t *testing.T) {
	f, parseDiags, _, fid := parseFile(t, `
enum Option {
	Some(i64),
	None,
}

fn unwrap_or(o: Option, default: i64) -> i64 {
	match o {
		Option::Some(x) => x,
		Option::None => default,
	}
}
`)
	require.False(t, parseDiags.HasErrors())

	reg := defid.NewRegistry()
	diags := diag.NewContext(source.NewMap(), 64)
	r := resolve.New(reg, diags, "main", fid)
	r.ResolveFile(f)

	require.False(t, diags.HasErrors())
}
