package codegen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/codegen"
	"github.com/jkindrix/blood/internal/defid"
	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/hir"
	"github.com/jkindrix/blood/internal/lexer"
	"github.com/jkindrix/blood/internal/mir"
	"github.com/jkindrix/blood/internal/parser"
	"github.com/jkindrix/blood/internal/resolve"
	"github.com/jkindrix/blood/internal/source"
	"github.com/jkindrix/blood/internal/types"
)

// generate runs the full lex->parse->resolve->HIR->typecheck->MIR
// pipeline and returns the LLVM IR text codegen emits for it.
func generate(t *testing.T, src string) (string, *diag.Context) {
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
	require.False(t, diags.HasErrors())

	lowerer := mir.NewLowerer(diags)
	mirProg := lowerer.LowerProgram(prog)
	require.False(t, diags.HasErrors())

	gen := codegen.New(prog, mirProg)
	return gen.Generate(), diags
}

func TestGenerateEmitsRuntimeDeclarations(t *testing.T) {
	ir, _ := generate(t, `
fn id(x: i64) -> i64 {
	x
}
`)
	require.Contains(t, ir, "declare ptr @blood_alloc(i64)")
	require.Contains(t, ir, "declare i64 @blood_perform(i32, i32, ...)")
	require.Contains(t, ir, "declare void @blood_panic(ptr, i64)")
}

func TestGenerateArithmeticFunctionUsesCheckedAdd(t *testing.T) {
	ir, _ := generate(t, `
fn add(a: i64, b: i64) -> i64 {
	a + b
}
`)
	require.Contains(t, ir, "llvm.sadd.with.overflow.i64")
	require.Contains(t, ir, "define i64 @def")
}

func TestGenerateIfLowersToSwitchOnBool(t *testing.T) {
	ir, _ := generate(t, `
fn pick(cond: bool) -> i64 {
	if cond {
		1
	} else {
		2
	}
}
`)
	require.Contains(t, ir, "switch i1")
}

func TestGenerateStructLiteralBuildsInsertvalueChain(t *testing.T) {
	ir, _ := generate(t, `
struct Point {
	x: i64,
	y: i64,
}

fn origin() -> Point {
	Point { x: 0, y: 0 }
}
`)
	require.Contains(t, ir, "%struct.Point = type { i64, i64 }")
	require.Contains(t, ir, "insertvalue %struct.Point")
}

func TestGenerateEnumDefinitionPacksPayloadSlab(t *testing.T) {
	ir, _ := generate(t, `
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
	require.Contains(t, ir, "%enum.Option = type { i32, [1 x i64] }")
}

func TestGeneratePerformLowersToRuntimeShim(t *testing.T) {
	ir, _ := generate(t, `
effect State {
	fn get() -> i64;
	fn put(v: i64) -> ();
}

fn run() -> i64 ! {State} {
	perform State.get()
}
`)
	require.Contains(t, ir, "call i64 @blood_perform(")
}

func TestGenerateTryEmitsHandlerPushAndDescriptor(t *testing.T) {
	ir, _ := generate(t, `
effect State {
	fn get() -> i64;
	fn put(v: i64) -> ();
}

fn withState() -> i64 {
	try {
		perform State.get()
	} with handler {
		State.get() => resume(1),
		return(v) => v,
	}
}
`)
	require.Contains(t, ir, "call void @blood_push_handler(")
	require.Contains(t, ir, "call void @blood_pop_handler()")
	require.Contains(t, ir, "@handler.desc.0 = private constant i32 0")
}

func TestGenerateClosureAllocatesCaptureEnvironment(t *testing.T) {
	ir, _ := generate(t, `
fn adder(base: i64) -> i64 {
	let f = |x: i64| { x + base };
	f(1)
}
`)
	require.Contains(t, ir, "define i64 @closure0(")
	require.Contains(t, ir, "call ptr @blood_alloc(")
}

func TestGenerateStringLiteralDeduplicatesIntoStringTable(t *testing.T) {
	ir, _ := generate(t, `
fn greet() -> String {
	let a = "hi";
	let b = "hi";
	a
}
`)
	require.Equal(t, 1, strings.Count(ir, `constant [3 x i8] c"hi\00"`))
}

func TestGenerateIsDeterministicAcrossRuns(t *testing.T) {
	src := `
fn add(a: i64, b: i64) -> i64 {
	a + b
}
`
	first, _ := generate(t, src)
	second, _ := generate(t, src)
	require.Equal(t, first, second)
}
