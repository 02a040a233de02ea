// Package driver orchestrates the compiler's phases — lex, parse,
// resolve, lower to HIR, typecheck, lower to MIR, codegen — into the
// single synchronous pipeline spec.md §4.8 describes. It generalizes
// the teacher's internal/pipeline/pipeline.go (Mode/Config/Source/
// Artifacts/Result shape, a top-level Run(cfg, src) dispatching to a
// phase sequence with per-phase timings) to blood's phase list, and
// drops the module-graph/REPL branching runSingle/runModule carried —
// blood compiles one file at a time (spec.md's Non-goals exclude an
// incremental build graph), so there is only one path through Run.
package driver

import (
	"fmt"
	"time"

	"github.com/jkindrix/blood/internal/arena"
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

// Mode selects how far the pipeline runs (spec.md §6's check/build/run
// subcommands).
type Mode int

const (
	// ModeCheck runs every phase through typechecking and stops —
	// `bloodc check`.
	ModeCheck Mode = iota
	// ModeBuild additionally lowers to MIR and emits LLVM IR text —
	// `bloodc build`.
	ModeBuild
	// ModeRun backs `bloodc run`. Run executes the same phases for it
	// as for ModeBuild; it does not invoke llc/clang and does not
	// execute anything.
	ModeRun
)

// Config carries the knobs a Run needs beyond the source itself.
type Config struct {
	Mode       Mode
	ModuleName string
	JSON       bool // render diagnostics as JSON instead of text
	DiagCap    int  // 0 = unbounded
}

// Source is one compilation unit.
type Source struct {
	Code     string
	Filename string
}

// Artifacts holds every intermediate representation a Run produced, so
// callers (the CLI's --dump-* flags, or tests) can inspect a phase
// without re-running the pipeline.
type Artifacts struct {
	AST  *source.Map // retained for diagnostic rendering after Run returns
	HIR  *hir.Program
	MIR  *mir.Program
	LLVM string
}

// Result is what Run returns: the artifacts reached, the diagnostics
// collected along the way, and a millisecond timing per phase
// (spec.md §4.8 "diagnostic collection between phases").
type Result struct {
	Artifacts    Artifacts
	Diags        *diag.Context
	PhaseTimings map[string]int64
	// ArenaNames lists whichever phase arenas were still live when Run
	// returned. The AST arena is dropped once HIR lowering has read it;
	// the HIR arena stays live alongside the MIR arena because codegen
	// reads struct/enum definitions back out of the HIR program
	// (spec.md §5, §9's per-phase arena discipline).
	ArenaNames []string
}

// Run executes cfg.Mode's phase prefix against src, stopping at the
// first phase that leaves diags holding an error (spec.md §4.8 "early
// exit on fatal errors"). It never panics on malformed input — every
// failure path is surfaced through Result.Diags.
func Run(cfg Config, src Source) (result Result) {
	moduleName := cfg.ModuleName
	if moduleName == "" {
		moduleName = "main"
	}
	srcs := source.NewMap()
	file := srcs.AddFile(src.Filename, src.Code)
	diags := diag.NewContext(srcs, cfg.DiagCap)
	arenas := arena.NewSet()
	result = Result{
		Artifacts:    Artifacts{AST: srcs},
		Diags:        diags,
		PhaseTimings: make(map[string]int64),
	}
	defer func() { result.ArenaNames = arenas.Names() }()

	// Phase 1+2: lex, parse. The AST lives in its own arena until HIR
	// lowering has consumed it.
	start := time.Now()
	lx := lexer.New(src.Code, file, srcs, diags)
	toks := lx.Tokens()
	p := parser.New(toks, srcs, file, diags)
	astFile := arena.Put(arenas.Arena("ast"), p.ParseFile())
	result.PhaseTimings["parse"] = time.Since(start).Milliseconds()
	if diags.HasErrors() {
		return result
	}

	// Phase 3: resolve.
	start = time.Now()
	reg := defid.NewRegistry()
	r := resolve.New(reg, diags, moduleName, file)
	res := r.ResolveFile(astFile)
	result.PhaseTimings["resolve"] = time.Since(start).Milliseconds()
	if diags.HasErrors() {
		return result
	}

	// Phase 4: lower to HIR, into its own arena; the AST arena is
	// dropped once lowering has read everything it needs from it.
	start = time.Now()
	prog := arena.Put(arenas.Arena("hir"), hir.NewProgram())
	l := hir.New(reg, res, moduleName, prog)
	l.LowerFile(astFile)
	arenas.Drop("ast")
	result.Artifacts.HIR = prog
	result.PhaseTimings["hir"] = time.Since(start).Milliseconds()
	if diags.HasErrors() {
		return result
	}

	// Phase 5: typecheck, in place on the HIR arena's program.
	start = time.Now()
	tc := types.NewChecker(diags)
	tc.CheckProgram(prog)
	result.PhaseTimings["typecheck"] = time.Since(start).Milliseconds()
	if diags.HasErrors() || cfg.Mode == ModeCheck {
		return result
	}

	// Phase 6: lower to MIR. Codegen still needs struct/enum names out
	// of the HIR arena, so it stays live until Run returns rather than
	// being dropped here.
	start = time.Now()
	lowerer := mir.NewLowerer(diags)
	mirProg := arena.Put(arenas.Arena("mir"), lowerer.LowerProgram(prog))
	result.Artifacts.MIR = mirProg
	result.PhaseTimings["mir"] = time.Since(start).Milliseconds()
	if diags.HasErrors() {
		return result
	}

	// Phase 7: codegen.
	start = time.Now()
	gen := codegen.New(prog, mirProg)
	result.Artifacts.LLVM = gen.Generate()
	result.PhaseTimings["codegen"] = time.Since(start).Milliseconds()

	return result
}

// RenderDiagnostics formats res.Diags as JSON when jsonMode is set and as
// text otherwise, per spec.md §6's text/JSON diagnostic rendering.
func RenderDiagnostics(res Result, jsonMode bool) (string, error) {
	if jsonMode {
		return res.Diags.RenderJSON()
	}
	return res.Diags.RenderText(), nil
}

// ExitCode maps a Result onto spec.md §6's exit-code contract: 0 on
// success, 1 on a compile error, 2 on an internal compiler error.
func ExitCode(res Result) int {
	for _, r := range res.Diags.Reports() {
		if r.Code == diag.EInternal {
			return 2
		}
	}
	if res.Diags.HasErrors() {
		return 1
	}
	return 0
}

// Summary renders a one-line, human-facing description of what a Run
// produced — used by the CLI's non-JSON progress output.
func Summary(res Result, mode Mode) string {
	switch {
	case res.Diags.HasErrors():
		n := 0
		for _, r := range res.Diags.Reports() {
			if r.Severity == diag.SeverityError {
				n++
			}
		}
		return fmt.Sprintf("failed: %d error(s)", n)
	case mode == ModeCheck:
		return "ok: no type errors"
	case mode == ModeBuild:
		return fmt.Sprintf("ok: emitted %d bytes of LLVM IR", len(res.Artifacts.LLVM))
	default:
		return "ok"
	}
}
