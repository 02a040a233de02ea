package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/ast"
	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/lexer"
	"github.com/jkindrix/blood/internal/parser"
	"github.com/jkindrix/blood/internal/source"
)

func parse(t *testing.T, src string) (*ast.File, *diag.Context) {
	t.Helper()
	srcs := source.NewMap()
	file := srcs.AddFile("test.blood", src)
	diags := diag.NewContext(srcs, 64)
	lx := lexer.New(src, file, srcs, diags)
	p := parser.New(lx.Tokens(), srcs, file, diags)
	return p.ParseFile(), diags
}

func TestParseFuncDeclWithEffects(t *testing.T) {
	f, diags := parse(t, `
fn greet(name: String) -> String ! {IO} {
	perform IO.print(name)
}
`)
	require.False(t, diags.HasErrors())
	require.Len(t, f.Items, 1)
	fn, ok := f.Items[0].(*ast.FuncDecl)
	require.True(t, ok)
	require.Equal(t, "greet", fn.Name)
	require.Len(t, fn.Params, 1)
	require.NotNil(t, fn.Effects)
	require.Equal(t, []string{"IO"}, fn.Effects.Labels)
	require.NotNil(t, fn.ReturnType)
}

func TestParseStructAndImpl(t *testing.T) {
	f, diags := parse(t, `
struct Point {
	x: i64,
	y: i64,
}

impl Point {
	fn sum(self) -> i64 {
		self.x + self.y
	}
}
`)
	require.False(t, diags.HasErrors())
	require.Len(t, f.Items, 2)
	sd, ok := f.Items[0].(*ast.StructDecl)
	require.True(t, ok)
	require.Equal(t, "Point", sd.Name)
	require.Len(t, sd.Fields, 2)
	impl, ok := f.Items[1].(*ast.ImplDecl)
	require.True(t, ok)
	require.Len(t, impl.Methods, 1)
}

func TestParseEnumAndMatch(t *testing.T) {
	f, diags := parse(t, `
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
	require.False(t, diags.HasErrors())
	require.Len(t, f.Items, 2)
	ed, ok := f.Items[0].(*ast.EnumDecl)
	require.True(t, ok)
	require.Len(t, ed.Variants, 2)
	fn, ok := f.Items[1].(*ast.FuncDecl)
	require.True(t, ok)
	match, ok := fn.Body.Tail.(*ast.MatchExpr)
	require.True(t, ok)
	require.Len(t, match.Arms, 2)
	_, ok = match.Arms[0].Pattern.(*ast.EnumPattern)
	require.True(t, ok)
}

func TestParseExprPrecedence(t *testing.T) {
	f, diags := parse(t, `
fn calc() -> i64 {
	1 + 2 * 3 - 4
}
`)
	require.False(t, diags.HasErrors())
	fn := f.Items[0].(*ast.FuncDecl)
	top, ok := fn.Body.Tail.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "-", top.Op)
	lhs, ok := top.Left.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "+", lhs.Op)
	rhs, ok := lhs.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "*", rhs.Op)
}

func TestParseOrPatternInMatch(t *testing.T) {
	f, diags := parse(t, `
fn classify(n: i64) -> i64 {
	match n {
		1 | 2 | 3 => 0,
		_ => 1,
	}
}
`)
	require.False(t, diags.HasErrors())
	fn := f.Items[0].(*ast.FuncDecl)
	match := fn.Body.Tail.(*ast.MatchExpr)
	require.Len(t, match.Arms, 2)
	or, ok := match.Arms[0].Pattern.(*ast.OrPattern)
	require.True(t, ok)
	require.Len(t, or.Alternatives, 3)
}

func TestParseHandlerAndPerform(t *testing.T) {
	f, diags := parse(t, `
fn run() -> i64 ! {} {
	try {
		perform State.get()
	} with handler {
		State.get() => resume(42),
		return(x) => x,
	}
}
`)
	require.False(t, diags.HasErrors())
	fn := f.Items[0].(*ast.FuncDecl)
	tryExpr, ok := fn.Body.Tail.(*ast.TryExpr)
	require.True(t, ok)
	h, ok := tryExpr.Handler.(*ast.HandlerExpr)
	require.True(t, ok)
	require.Len(t, h.Arms, 2)
	require.True(t, h.Arms[1].IsReturn)
}

func TestParseGenericFnWithRefType(t *testing.T) {
	f, diags := parse(t, `
fn identity<T>(x: &T) -> &T {
	x
}
`)
	require.False(t, diags.HasErrors())
	fn := f.Items[0].(*ast.FuncDecl)
	require.Len(t, fn.TypeParams, 1)
	require.Equal(t, "T", fn.TypeParams[0].Name)
	ref, ok := fn.Params[0].Type.(*ast.RefType)
	require.True(t, ok)
	require.Equal(t, ast.Shared, ref.Qualifier)
}

func TestParseRecordType(t *testing.T) {
	f, diags := parse(t, `
fn describe(p: {x: i64, y: i64 | rho}) -> i64 {
	p.x
}
`)
	require.False(t, diags.HasErrors())
	fn := f.Items[0].(*ast.FuncDecl)
	rt, ok := fn.Params[0].Type.(*ast.RecordTypeExpr)
	require.True(t, ok)
	require.Len(t, rt.Fields, 2)
	require.Equal(t, "rho", rt.Var)
}

func TestParseErrorRecoverySynchronizes(t *testing.T) {
	f, diags := parse(t, `
fn broken( {{ }

fn ok_after() -> i64 {
	1
}
`)
	require.True(t, diags.HasErrors())
	var names []string
	for _, it := range f.Items {
		if fn, ok := it.(*ast.FuncDecl); ok {
			names = append(names, fn.Name)
		}
	}
	require.Contains(t, names, "ok_after")
}

func TestParseCastExpr(t *testing.T) {
	f, diags := parse(t, `
fn truncate(x: i64) -> i32 {
	x as i32
}
`)
	require.False(t, diags.HasErrors())
	fn := f.Items[0].(*ast.FuncDecl)
	cast, ok := fn.Body.Tail.(*ast.CastExpr)
	require.True(t, ok)
	_, ok = cast.X.(*ast.Ident)
	require.True(t, ok)
}

func TestParseCastBindsTighterThanMultiplicative(t *testing.T) {
	f, diags := parse(t, `
fn calc(x: i64) -> i64 {
	x as i64 * 2
}
`)
	require.False(t, diags.HasErrors())
	fn := f.Items[0].(*ast.FuncDecl)
	top, ok := fn.Body.Tail.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "*", top.Op)
	_, ok = top.Left.(*ast.CastExpr)
	require.True(t, ok)
}

func TestParsePropagateExpr(t *testing.T) {
	f, diags := parse(t, `
fn run() -> i64 {
	fetch()?
}
`)
	require.False(t, diags.HasErrors())
	fn := f.Items[0].(*ast.FuncDecl)
	prop, ok := fn.Body.Tail.(*ast.PropagateExpr)
	require.True(t, ok)
	_, ok = prop.X.(*ast.CallExpr)
	require.True(t, ok)
}

func TestParseComparisonIsNonAssociative(t *testing.T) {
	_, diags := parse(t, `
fn bad(a: i64, b: i64, c: i64) -> bool {
	a < b < c
}
`)
	require.True(t, diags.HasErrors())
}

func TestParseAssignmentIsRightAssociative(t *testing.T) {
	f, diags := parse(t, `
fn chain() -> i64 {
	a = b = c;
	0
}
`)
	require.False(t, diags.HasErrors())
	fn := f.Items[0].(*ast.FuncDecl)
	assign, ok := fn.Body.Stmts[0].(*ast.ExprStmt).X.(*ast.AssignExpr)
	require.True(t, ok)
	_, ok = assign.Target.(*ast.Ident)
	require.True(t, ok)
	inner, ok := assign.Value.(*ast.AssignExpr)
	require.True(t, ok)
	_, ok = inner.Target.(*ast.Ident)
	require.True(t, ok)
	_, ok = inner.Value.(*ast.Ident)
	require.True(t, ok)
}

func TestParseUseDeclGlobAndSelective(t *testing.T) {
	f, diags := parse(t, `
use collections::*;
use io::{read, write};

fn main() -> i64 {
	0
}
`)
	require.False(t, diags.HasErrors())
	require.Len(t, f.Uses, 2)
	require.True(t, f.Uses[0].Glob)
	require.Equal(t, []string{"read", "write"}, f.Uses[1].Symbols)
}
