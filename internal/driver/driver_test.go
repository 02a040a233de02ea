package driver_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/driver"
)

func TestRunCheckModeStopsBeforeCodegen(t *testing.T) {
	res := driver.Run(driver.Config{Mode: driver.ModeCheck}, driver.Source{
		Filename: "ok.blood",
		Code: `
fn add(a: i64, b: i64) -> i64 {
	a + b
}
`,
	})
	require.False(t, res.Diags.HasErrors())
	require.NotNil(t, res.Artifacts.HIR)
	require.Nil(t, res.Artifacts.MIR)
	require.Empty(t, res.Artifacts.LLVM)
	require.Equal(t, 0, driver.ExitCode(res))
}

func TestRunBuildModeProducesLLVMIR(t *testing.T) {
	res := driver.Run(driver.Config{Mode: driver.ModeBuild}, driver.Source{
		Filename: "ok.blood",
		Code: `
fn add(a: i64, b: i64) -> i64 {
	a + b
}
`,
	})
	require.False(t, res.Diags.HasErrors())
	require.NotNil(t, res.Artifacts.MIR)
	require.Contains(t, res.Artifacts.LLVM, "declare ptr @blood_alloc")
	require.Equal(t, 0, driver.ExitCode(res))
}

func TestRunStopsAtFirstFailingPhase(t *testing.T) {
	res := driver.Run(driver.Config{Mode: driver.ModeBuild}, driver.Source{
		Filename: "bad.blood",
		Code:     `fn broken( -> i64 { 1 }`,
	})
	require.True(t, res.Diags.HasErrors())
	require.Nil(t, res.Artifacts.HIR)
	require.Equal(t, 1, driver.ExitCode(res))
}

func TestRunTypeErrorStopsBeforeMIR(t *testing.T) {
	res := driver.Run(driver.Config{Mode: driver.ModeBuild}, driver.Source{
		Filename: "typeerr.blood",
		Code: `
fn bad() -> i64 {
	true
}
`,
	})
	require.True(t, res.Diags.HasErrors())
	require.NotNil(t, res.Artifacts.HIR)
	require.Nil(t, res.Artifacts.MIR)
	require.Equal(t, 1, driver.ExitCode(res))
}

func TestRenderDiagnosticsJSON(t *testing.T) {
	res := driver.Run(driver.Config{Mode: driver.ModeCheck}, driver.Source{
		Filename: "bad.blood",
		Code:     `fn broken( -> i64 { 1 }`,
	})
	out, err := driver.RenderDiagnostics(res, true)
	require.NoError(t, err)
	require.Contains(t, out, `"code"`)
}

func TestRunDropsASTArenaButKeepsHIRAndMIRLive(t *testing.T) {
	res := driver.Run(driver.Config{Mode: driver.ModeBuild}, driver.Source{
		Filename: "ok.blood",
		Code: `
fn add(a: i64, b: i64) -> i64 {
	a + b
}
`,
	})
	require.False(t, res.Diags.HasErrors())
	want := []string{"hir", "mir"}
	if diff := cmp.Diff(want, res.ArenaNames); diff != "" {
		t.Errorf("live arenas after a build run differ (-want +got):\n%s", diff)
	}
}

func TestSummaryReportsFailureCount(t *testing.T) {
	res := driver.Run(driver.Config{Mode: driver.ModeCheck}, driver.Source{
		Filename: "bad.blood",
		Code:     `fn broken( -> i64 { 1 }`,
	})
	require.Contains(t, driver.Summary(res, driver.ModeCheck), "error(s)")
}
