// Package parser implements a recursive-descent, Pratt-expression parser
// from blood's token stream to internal/ast (spec.md §4.2). It never
// aborts on malformed input: on a syntax error it emits a diag.Report and
// synchronizes to the next statement/item boundary, producing an
// ast.ErrorExpr (or skipping the item) so downstream phases still see a
// well-formed tree.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jkindrix/blood/internal/ast"
	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/lexer"
	"github.com/jkindrix/blood/internal/source"
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

// Precedence levels, lowest to highest, exactly per spec.md §4.2:
// "assignment (right-assoc) < || < && < comparison (non-assoc) <
// bitwise or < xor < and < shifts < additive < multiplicative < cast
// `as` < unary prefix < postfix (call, index, field, method, `?`)".
// Equality (==, !=) and relational (<, >, <=, >=) operators both sit at
// the single "comparison" level the spec names, rather than at two
// separate levels — blood's grammar treats comparison as non-associative
// (chained comparisons don't parse as nested binary expressions), which
// parseBinaryExpr enforces by not re-entering at the same precedence.
const (
	LOWEST int = iota
	ASSIGN     // =  (right-assoc)
	RANGE      // .. ..=
	LOGOR      // ||
	LOGAND     // &&
	COMPARISON // == != < > <= >=  (non-assoc)
	BITOR      // |
	BITXOR     // ^
	BITAND     // &
	SHIFT      // << >>
	SUM        // + -
	PRODUCT    // * / %
	CAST       // x as T
	UNARY      // -x !x (prefix)
	CALL       // f(x) r.field r[i] x? (postfix)
)

var precedences = map[lexer.Kind]int{
	lexer.ASSIGN:   ASSIGN,
	lexer.DOTDOT:   RANGE,
	lexer.OROR:     LOGOR,
	lexer.ANDAND:   LOGAND,
	lexer.EQEQ:     COMPARISON,
	lexer.NEQ:      COMPARISON,
	lexer.LT:       COMPARISON,
	lexer.GT:       COMPARISON,
	lexer.LE:       COMPARISON,
	lexer.GE:       COMPARISON,
	lexer.PIPE:     BITOR,
	lexer.CARET:    BITXOR,
	lexer.AMP:      BITAND,
	lexer.SHL:      SHIFT,
	lexer.SHR:      SHIFT,
	lexer.PLUS:     SUM,
	lexer.MINUS:    SUM,
	lexer.STAR:     PRODUCT,
	lexer.SLASH:    PRODUCT,
	lexer.PERCENT:  PRODUCT,
	lexer.AS:       CAST,
	lexer.LPAREN:   CALL,
	lexer.DOT:      CALL,
	lexer.LBRACKET: CALL,
	lexer.QUESTION: CALL,
}

// Parser consumes a full token stream up front (the lexer never fails
// fatally, so there is always a complete stream to consume) and walks it
// with one token of lookahead.
type Parser struct {
	toks []lexer.Token
	pos  int
	cur  lexer.Token
	peek lexer.Token

	srcs  *source.Map
	file  source.FileID
	diags *diag.Context

	prefixFns map[lexer.Kind]prefixParseFn
	infixFns  map[lexer.Kind]infixParseFn
}

// New creates a Parser over a complete token stream produced by the
// lexer for the given file.
func New(toks []lexer.Token, srcs *source.Map, file source.FileID, diags *diag.Context) *Parser {
	p := &Parser{toks: toks, srcs: srcs, file: file, diags: diags}

	p.prefixFns = map[lexer.Kind]prefixParseFn{
		lexer.IDENT:    p.parseIdent,
		lexer.INT:      p.parseIntLit,
		lexer.FLOAT:    p.parseFloatLit,
		lexer.STRING:   p.parseStringLit,
		lexer.CHAR:     p.parseCharLit,
		lexer.TRUE:     p.parseBoolLit,
		lexer.FALSE:    p.parseBoolLit,
		lexer.LPAREN:   p.parseGroupedOrTuple,
		lexer.LBRACKET: p.parseArrayLit,
		lexer.LBRACE:   p.parseBlockExpr,
		lexer.MINUS:    p.parsePrefixExpr,
		lexer.BANG:     p.parsePrefixExpr,
		lexer.AMP:      p.parsePrefixExpr,
		lexer.IF:       p.parseIfExpr,
		lexer.WHILE:    p.parseWhileExpr,
		lexer.FOR:      p.parseForExpr,
		lexer.LOOP:     p.parseLoopExpr,
		lexer.MATCH:    p.parseMatchExpr,
		lexer.PIPE:     p.parseClosureExpr,
		lexer.OROR:     p.parseClosureExprNoParams,
		lexer.PERFORM:  p.parsePerformExpr,
		lexer.RESUME:   p.parseResumeExpr,
		lexer.HANDLER:  p.parseHandlerExpr,
		lexer.TRY:      p.parseTryExpr,
		lexer.BREAK:    p.parseBreakExpr,
		lexer.CONTINUE: p.parseContinueExpr,
		lexer.RETURN:   p.parseReturnExpr,
	}

	p.infixFns = map[lexer.Kind]infixParseFn{
		lexer.PLUS: p.parseBinaryExpr, lexer.MINUS: p.parseBinaryExpr,
		lexer.STAR: p.parseBinaryExpr, lexer.SLASH: p.parseBinaryExpr, lexer.PERCENT: p.parseBinaryExpr,
		lexer.EQEQ: p.parseBinaryExpr, lexer.NEQ: p.parseBinaryExpr,
		lexer.LT: p.parseBinaryExpr, lexer.GT: p.parseBinaryExpr, lexer.LE: p.parseBinaryExpr, lexer.GE: p.parseBinaryExpr,
		lexer.ANDAND: p.parseBinaryExpr, lexer.OROR: p.parseBinaryExpr,
		lexer.PIPE: p.parseBinaryExpr, lexer.CARET: p.parseBinaryExpr, lexer.AMP: p.parseBinaryExpr,
		lexer.SHL: p.parseBinaryExpr, lexer.SHR: p.parseBinaryExpr,
		lexer.DOTDOT: p.parseRangeExpr,
		lexer.ASSIGN: p.parseAssignExpr,
		lexer.LPAREN: p.parseCallExpr,
		lexer.DOT:    p.parseDotExpr,
		lexer.LBRACKET: p.parseIndexExpr,
		lexer.AS:       p.parseCastExpr,
		lexer.QUESTION: p.parsePropagateExpr,
	}

	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	if p.pos < len(p.toks) {
		p.peek = p.toks[p.pos]
		p.pos++
	} else {
		p.peek = lexer.Token{Kind: lexer.EOF}
	}
}

func (p *Parser) curIs(k lexer.Kind) bool  { return p.cur.Kind == k }
func (p *Parser) peekIs(k lexer.Kind) bool { return p.peek.Kind == k }

func (p *Parser) expect(k lexer.Kind) bool {
	if p.curIs(k) {
		p.advance()
		return true
	}
	p.errorf(diag.EParseUnexpectedToken, "expected %s, got %s", k, p.cur.Kind)
	return false
}

func (p *Parser) errorf(code diag.Code, format string, args ...interface{}) {
	if p.diags == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	p.diags.Emit(&diag.Report{Severity: diag.SeverityError, Code: code, Message: msg, Span: p.cur.Span})
}

func peekPrec(k lexer.Kind) int {
	if prec, ok := precedences[k]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int  { return peekPrec(p.cur.Kind) }
func (p *Parser) span(start source.Span) source.Span {
	return p.srcs.MakeSpan(p.file, start.Start, p.cur.Span.Start)
}

// ParseFile parses an entire file: an optional mod decl, any number of
// use decls, then items until EOF.
func (p *Parser) ParseFile() *ast.File {
	f := &ast.File{}
	start := p.cur.Span

	if p.curIs(lexer.MOD) {
		f.Mod = p.parseModDecl()
	}
	for p.curIs(lexer.USE) {
		f.Uses = append(f.Uses, p.parseUseDecl())
	}
	for !p.curIs(lexer.EOF) {
		before := p.pos
		it := p.parseItem()
		if it != nil {
			f.Items = append(f.Items, it)
		}
		if p.pos == before && !p.curIs(lexer.EOF) {
			// parseItem made no progress; force advance to avoid an infinite loop.
			p.advance()
		}
	}
	f.Span = p.span(start)
	return f
}

// synchronize skips tokens until a plausible item/statement boundary,
// the standard parser error-recovery policy.
func (p *Parser) synchronize() {
	for !p.curIs(lexer.EOF) {
		if p.curIs(lexer.SEMI) {
			p.advance()
			return
		}
		switch p.cur.Kind {
		case lexer.FN, lexer.STRUCT, lexer.ENUM, lexer.TRAIT, lexer.IMPL,
			lexer.EFFECT, lexer.MOD, lexer.USE, lexer.CONST, lexer.STATIC, lexer.RBRACE:
			return
		}
		p.advance()
	}
}

func intOfString(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func floatOfString(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func isTypeSuffix(s string) bool {
	for _, suf := range []string{"i8", "i16", "i32", "i64", "i128", "u8", "u16", "u32", "u64", "u128", "f32", "f64"} {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
