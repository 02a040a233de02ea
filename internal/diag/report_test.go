package diag_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/source"
)

func TestContextOrdersReportsBySourcePosition(t *testing.T) {
	srcs := source.NewMap()
	f := srcs.AddFile("a.blood", "let x = 1\nlet y = 2\n")

	ctx := diag.NewContext(srcs, 0)
	ctx.Emit(&diag.Report{Severity: diag.SeverityError, Code: diag.ETypeMismatch, Message: "second", Span: srcs.MakeSpan(f, 11, 14)})
	ctx.Emit(&diag.Report{Severity: diag.SeverityError, Code: diag.EResolveUnresolvedName, Message: "first", Span: srcs.MakeSpan(f, 4, 5)})

	reports := ctx.Reports()
	require.Len(t, reports, 2)
	require.Equal(t, "first", reports[0].Message)
	require.Equal(t, "second", reports[1].Message)
	require.True(t, ctx.HasErrors())
}

func TestRenderTextIncludesSourceSnippet(t *testing.T) {
	srcs := source.NewMap()
	f := srcs.AddFile("a.blood", "let x = 1\n")
	ctx := diag.NewContext(srcs, 0)
	ctx.Emit(&diag.Report{Severity: diag.SeverityError, Code: diag.ETypeMismatch, Message: "type mismatch", Span: srcs.MakeSpan(f, 4, 5)})

	out := ctx.RenderText()
	require.True(t, strings.Contains(out, "error[E0300]: type mismatch"))
	require.True(t, strings.Contains(out, "a.blood:1:5"))
	require.True(t, strings.Contains(out, "let x = 1"))
}

func TestRenderJSONRoundTrips(t *testing.T) {
	srcs := source.NewMap()
	f := srcs.AddFile("a.blood", "x\n")
	ctx := diag.NewContext(srcs, 0)
	ctx.Emit(&diag.Report{Severity: diag.SeverityError, Code: diag.EResolveUnresolvedName, Message: "unbound x", Span: srcs.MakeSpan(f, 0, 1)})

	out, err := ctx.RenderJSON()
	require.NoError(t, err)
	require.True(t, strings.Contains(out, "\"code\": \"E0200\""))
}

func TestCapTruncatesRendering(t *testing.T) {
	srcs := source.NewMap()
	ctx := diag.NewContext(srcs, 1)
	ctx.Emit(&diag.Report{Severity: diag.SeverityError, Code: diag.ETypeMismatch, Message: "a"})
	ctx.Emit(&diag.Report{Severity: diag.SeverityError, Code: diag.ETypeMismatch, Message: "b"})

	out := ctx.RenderText()
	require.True(t, strings.Contains(out, "1 additional diagnostics suppressed"))
}
