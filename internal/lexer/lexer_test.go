package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/lexer"
	"github.com/jkindrix/blood/internal/source"
)

func kinds(toks []lexer.Token) []lexer.Kind {
	ks := make([]lexer.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func lexAll(t *testing.T, src string) ([]lexer.Token, *diag.Context) {
	t.Helper()
	srcs := source.NewMap()
	f := srcs.AddFile("t.blood", src)
	ctx := diag.NewContext(srcs, 0)
	l := lexer.New(src, f, srcs, ctx)
	return l.Tokens(), ctx
}

func TestLexKeywordsAndIdents(t *testing.T) {
	toks, ctx := lexAll(t, "fn add let x")
	require.False(t, ctx.HasErrors())
	require.Equal(t, []lexer.Kind{lexer.FN, lexer.IDENT, lexer.LET, lexer.IDENT, lexer.EOF}, kinds(toks))
}

func TestLexNumbers(t *testing.T) {
	toks, ctx := lexAll(t, "1_000 3.14 2e10 42i64")
	require.False(t, ctx.HasErrors())
	require.Equal(t, []lexer.Kind{lexer.INT, lexer.FLOAT, lexer.FLOAT, lexer.INT, lexer.EOF}, kinds(toks))
	require.Equal(t, "1000", toks[0].Text)
}

func TestLexOperators(t *testing.T) {
	toks, ctx := lexAll(t, "-> => == != <= >= && || :: .. !")
	require.False(t, ctx.HasErrors())
	require.Equal(t, []lexer.Kind{
		lexer.ARROW, lexer.FATARROW, lexer.EQEQ, lexer.NEQ, lexer.LE, lexer.GE,
		lexer.ANDAND, lexer.OROR, lexer.COLONCOLON, lexer.DOTDOT, lexer.BANG, lexer.EOF,
	}, kinds(toks))
}

func TestLexStringEscapes(t *testing.T) {
	toks, ctx := lexAll(t, `"hello\nworld"`)
	require.False(t, ctx.HasErrors())
	require.Equal(t, lexer.STRING, toks[0].Kind)
	require.Equal(t, "hello\nworld", toks[0].Text)
}

func TestLexUnterminatedStringEmitsDiagnostic(t *testing.T) {
	toks, ctx := lexAll(t, `"oops`)
	require.True(t, ctx.HasErrors())
	require.Equal(t, lexer.ILLEGAL, toks[0].Kind)
	reports := ctx.Reports()
	require.Len(t, reports, 1)
	require.Equal(t, diag.ELexUnterminatedString, reports[0].Code)
}

func TestLexInvalidCharacterRecovers(t *testing.T) {
	toks, ctx := lexAll(t, "let x = 1 @ 2")
	require.True(t, ctx.HasErrors())
	require.Equal(t, lexer.EOF, toks[len(toks)-1].Kind)
	found := false
	for _, k := range kinds(toks) {
		if k == lexer.ILLEGAL {
			found = true
		}
	}
	require.True(t, found)
}

func TestLexCommentsAttachAsTrivia(t *testing.T) {
	toks, ctx := lexAll(t, "// hi\nlet x")
	require.False(t, ctx.HasErrors())
	require.Equal(t, lexer.LET, toks[0].Kind)
	require.Len(t, toks[0].Trivia, 1)
	require.Equal(t, "line-comment", toks[0].Trivia[0].Kind)
}
