package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/defid"
	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/hir"
	"github.com/jkindrix/blood/internal/lexer"
	"github.com/jkindrix/blood/internal/parser"
	"github.com/jkindrix/blood/internal/resolve"
	"github.com/jkindrix/blood/internal/source"
	"github.com/jkindrix/blood/internal/types"
)

func check(t *testing.T, src string) (*hir.Program, *diag.Context) {
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

	tc := types.NewChecker(diags)
	tc.CheckProgram(prog)
	return prog, diags
}

func TestCheckSimpleArithmeticFunction(t *testing.T) {
	prog, diags := check(t, `
fn add(a: i64, b: i64) -> i64 {
	a + b
}
`)
	require.False(t, diags.HasErrors())
	for _, fn := range prog.Funcs {
		require.Equal(t, types.I64, fn.Body.Ty())
	}
}

func TestCheckReturnTypeMismatchReported(t *testing.T) {
	_, diags := check(t, `
fn bad() -> i64 {
	true
}
`)
	require.True(t, diags.HasErrors())
}

func TestCheckIfBranchesMustAgree(t *testing.T) {
	_, diags := check(t, `
fn pick(cond: bool) -> i64 {
	if cond {
		1
	} else {
		2
	}
}
`)
	require.False(t, diags.HasErrors())
}

func TestCheckIfBranchMismatchReported(t *testing.T) {
	_, diags := check(t, `
fn pick(cond: bool) -> i64 {
	if cond {
		1
	} else {
		true
	}
}
`)
	require.True(t, diags.HasErrors())
}

func TestCheckStructFieldAccess(t *testing.T) {
	prog, diags := check(t, `
struct Point {
	x: i64,
	y: i64,
}

fn getx(p: Point) -> i64 {
	p.x
}
`)
	require.False(t, diags.HasErrors())
	for _, fn := range prog.Funcs {
		if fn.Name == "getx" {
			require.Equal(t, types.I64, fn.Body.Ty())
		}
	}
}

func TestCheckUnhandledEffectReported(t *testing.T) {
	_, diags := check(t, `
effect State {
	fn get() -> i64;
}

fn run() -> i64 {
	perform State.get()
}
`)
	require.True(t, diags.HasErrors())
}

func TestCheckDeclaredEffectSatisfied(t *testing.T) {
	_, diags := check(t, `
effect State {
	fn get() -> i64;
}

fn run() -> i64 ! {State} {
	perform State.get()
}
`)
	require.False(t, diags.HasErrors())
}

func TestCheckEnumConstructorArgType(t *testing.T) {
	_, diags := check(t, `
enum Option {
	Some(i64),
	None,
}

fn make() -> Option {
	Option::Some(1)
}
`)
	require.False(t, diags.HasErrors())
}

func TestCheckMatchArmsMustAgree(t *testing.T) {
	_, diags := check(t, `
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
}
