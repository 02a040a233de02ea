package hir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/ast"
	"github.com/jkindrix/blood/internal/defid"
	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/hir"
	"github.com/jkindrix/blood/internal/lexer"
	"github.com/jkindrix/blood/internal/parser"
	"github.com/jkindrix/blood/internal/resolve"
	"github.com/jkindrix/blood/internal/source"
)

func lower(t *testing.T, src string) (*hir.Program, *defid.Registry) {
	t.Helper()
	srcs := source.NewMap()
	file := srcs.AddFile("test.blood", src)
	diags := diag.NewContext(srcs, 64)
	lx := lexer.New(src, file, srcs, diags)
	p := parser.New(lx.Tokens(), srcs, file, diags)
	astFile := p.ParseFile()
	require.False(t, diags.HasErrors())

	reg := defid.NewRegistry()
	r := resolve.New(reg, diags, "main", file)
	res := r.ResolveFile(astFile)
	require.False(t, diags.HasErrors())

	prog := hir.NewProgram()
	l := hir.New(reg, res, "main", prog)
	l.LowerFile(astFile)
	return prog, reg
}

func TestLowerSimpleFunction(t *testing.T) {
	prog, _ := lower(t, `
fn add(a: i64, b: i64) -> i64 {
	a + b
}
`)
	require.Len(t, prog.Funcs, 1)
	for _, fn := range prog.Funcs {
		require.Equal(t, "add", fn.Name)
		require.Len(t, fn.Params, 2)
		bin, ok := fn.Body.(*hir.BinOp)
		require.True(t, ok)
		require.Equal(t, "+", bin.Op)
	}
}

func TestLowerLetChainBuildsNestedLets(t *testing.T) {
	prog, _ := lower(t, `
fn f() -> i64 {
	let a = 1;
	let b = 2;
	a + b
}
`)
	for _, fn := range prog.Funcs {
		outer, ok := fn.Body.(*hir.Let)
		require.True(t, ok)
		inner, ok := outer.Body.(*hir.Let)
		require.True(t, ok)
		_, ok = inner.Body.(*hir.BinOp)
		require.True(t, ok)
	}
}

func TestLowerForDesugarsToWhileWithNextMatch(t *testing.T) {
	prog, _ := lower(t, `
fn sum(xs: i64) -> i64 {
	for x in xs {
		x;
	}
	0
}
`)
	for _, fn := range prog.Funcs {
		let, ok := fn.Body.(*hir.Let)
		require.True(t, ok)
		iterLet, ok := let.Value.(*hir.Let)
		require.True(t, ok)
		loop, ok := iterLet.Body.(*hir.While)
		require.True(t, ok)
		match, ok := loop.Body.(*hir.Match)
		require.True(t, ok)
		require.Len(t, match.Arms, 2)
		require.Equal(t, "Some", match.Arms[0].Pattern.(*hir.EnumPattern).Tag)
		require.Equal(t, "None", match.Arms[1].Pattern.(*hir.EnumPattern).Tag)
	}
}

func TestLowerStructAndEnumDefs(t *testing.T) {
	prog, _ := lower(t, `
struct Point {
	x: i64,
	y: i64,
}

enum Option {
	Some(i64),
	None,
}
`)
	require.Len(t, prog.Structs, 1)
	require.Len(t, prog.Enums, 1)
	for _, s := range prog.Structs {
		require.Equal(t, "Point", s.Name)
		require.Len(t, s.Fields, 2)
	}
	for _, e := range prog.Enums {
		require.Equal(t, "Option", e.Name)
		require.Len(t, e.Variants, 2)
		require.Equal(t, "Some", e.Variants[0].Name)
		require.Len(t, e.Variants[0].Fields, 1)
	}
}

func TestLowerEnumLitResolvesDefIds(t *testing.T) {
	prog, _ := lower(t, `
enum Option {
	Some(i64),
	None,
}

fn make() -> Option {
	Option::Some(1)
}
`)
	var enumDef defid.ID
	for id, e := range prog.Enums {
		if e.Name == "Option" {
			enumDef = id
		}
	}
	require.NotZero(t, enumDef)

	for _, fn := range prog.Funcs {
		if fn.Name != "make" {
			continue
		}
		lit, ok := fn.Body.(*hir.EnumLit)
		require.True(t, ok)
		require.Equal(t, enumDef, lit.Def)
		require.NotZero(t, lit.Variant)
	}
}

func TestLowerHandlerAndPerform(t *testing.T) {
	prog, _ := lower(t, `
effect State {
	fn get() -> i64;
	fn put(v: i64) -> ();
}

fn run() -> i64 ! {State} {
	perform State.get()
}
`)
	for _, fn := range prog.Funcs {
		if fn.Name != "run" {
			continue
		}
		perf, ok := fn.Body.(*hir.Perform)
		require.True(t, ok)
		require.Equal(t, "State", perf.Effect)
		require.Equal(t, "get", perf.Op)
	}
	require.True(t, fn_hasEffect(prog, "run", "State"))
}

func TestLowerCastExpr(t *testing.T) {
	prog, _ := lower(t, `
fn truncate(x: i64) -> i32 {
	x as i32
}
`)
	for _, fn := range prog.Funcs {
		cast, ok := fn.Body.(*hir.Cast)
		require.True(t, ok)
		_, ok = cast.X.(*hir.Var)
		require.True(t, ok)
		require.NotNil(t, cast.Target)
	}
}

func TestLowerPropagateExpr(t *testing.T) {
	prog, _ := lower(t, `
fn run(x: i64) -> i64 {
	x?
}
`)
	for _, fn := range prog.Funcs {
		prop, ok := fn.Body.(*hir.Propagate)
		require.True(t, ok)
		_, ok = prop.X.(*hir.Var)
		require.True(t, ok)
	}
}

func fn_hasEffect(prog *hir.Program, name, label string) bool {
	for _, fn := range prog.Funcs {
		if fn.Name == name {
			return fn.Effects.Labels[label]
		}
	}
	return false
}
