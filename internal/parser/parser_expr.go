package parser

import (
	"github.com/jkindrix/blood/internal/ast"
	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/lexer"
	"github.com/jkindrix/blood/internal/source"
)

// parseExpr is the Pratt entry point: parse a prefix expression, then
// keep absorbing infix/postfix operators while their precedence exceeds
// minPrec.
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	prefix, ok := p.prefixFns[p.cur.Kind]
	if !ok {
		p.errorf(diag.EParseUnexpectedToken, "unexpected token in expression: %s", p.cur.Kind)
		start := p.cur.Span
		p.advance()
		return &ast.ErrorExpr{Msg: "unexpected token", Span: start}
	}
	left := prefix()

	// Comparison is non-associative (spec.md §4.2): once one comparison
	// operator has been consumed at this level, a second one immediately
	// following ends the expression instead of chaining (`a < b < c` does
	// not parse as `(a < b) < c`).
	sawComparison := false
	for !p.curIs(lexer.SEMI) && minPrec < p.curPrecedence() {
		if sawComparison && p.curPrecedence() == COMPARISON {
			break
		}
		infix, ok := p.infixFns[p.cur.Kind]
		if !ok {
			return left
		}
		if p.curPrecedence() == COMPARISON {
			sawComparison = true
		}
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdent() ast.Expr {
	tok := p.cur
	p.advance()
	if p.curIs(lexer.COLONCOLON) {
		segs := []string{tok.Text}
		for p.curIs(lexer.COLONCOLON) {
			p.advance()
			segs = append(segs, p.cur.Text)
			p.advance()
		}
		if p.curIs(lexer.LPAREN) {
			return p.parsePathCallOrEnumLit(segs, tok.Span)
		}
		return &ast.Path{Segments: segs, Span: p.span(tok.Span)}
	}
	if p.curIs(lexer.LBRACE) && p.looksLikeStructLit() {
		return p.parseStructLit(tok.Text, tok.Span)
	}
	return &ast.Ident{Name: tok.Text, Span: tok.Span}
}

// looksLikeStructLit disambiguates `Name { ... }` struct literals from a
// following block (e.g. the body after an `if`/`match`/`for` head), which
// is ambiguous in a brace-delimited grammar. `Name {` starts a struct
// literal only when the brace is followed by `field:`; an empty `Name {}`
// and the `Name { base | ... }` form are therefore read as an identifier
// followed by a block.
func (p *Parser) looksLikeStructLit() bool {
	return p.peekIs(lexer.IDENT) && p.pos < len(p.toks) && p.toks[p.pos].Kind == lexer.COLON
}

func (p *Parser) parsePathCallOrEnumLit(segs []string, start source.Span) ast.Expr {
	args := p.parseCallArgs()
	if len(segs) >= 2 {
		return &ast.EnumLit{Enum: segs[len(segs)-2], Variant: segs[len(segs)-1], Args: args, Span: p.span(start)}
	}
	return &ast.CallExpr{Callee: &ast.Path{Segments: segs, Span: start}, Args: args, Span: p.span(start)}
}

func (p *Parser) parseIntLit() ast.Expr {
	tok := p.cur
	p.advance()
	return &ast.Literal{Kind: ast.IntLit, Value: intOfString(tok.Text), Span: tok.Span}
}

func (p *Parser) parseFloatLit() ast.Expr {
	tok := p.cur
	p.advance()
	return &ast.Literal{Kind: ast.FloatLit, Value: floatOfString(tok.Text), Span: tok.Span}
}

func (p *Parser) parseStringLit() ast.Expr {
	tok := p.cur
	p.advance()
	return &ast.Literal{Kind: ast.StringLit, Value: tok.Text, Span: tok.Span}
}

func (p *Parser) parseCharLit() ast.Expr {
	tok := p.cur
	p.advance()
	var r rune
	for _, c := range tok.Text {
		r = c
		break
	}
	return &ast.Literal{Kind: ast.CharLit, Value: r, Span: tok.Span}
}

func (p *Parser) parseBoolLit() ast.Expr {
	tok := p.cur
	v := tok.Kind == lexer.TRUE
	p.advance()
	return &ast.Literal{Kind: ast.BoolLit, Value: v, Span: tok.Span}
}

func (p *Parser) parseGroupedOrTuple() ast.Expr {
	start := p.cur.Span
	p.advance() // (
	if p.curIs(lexer.RPAREN) {
		p.advance()
		return &ast.Literal{Kind: ast.UnitLit, Value: nil, Span: p.span(start)}
	}
	first := p.parseExpr(LOWEST)
	if p.curIs(lexer.COMMA) {
		elems := []ast.Expr{first}
		for p.curIs(lexer.COMMA) {
			p.advance()
			if p.curIs(lexer.RPAREN) {
				break
			}
			elems = append(elems, p.parseExpr(LOWEST))
		}
		p.expect(lexer.RPAREN)
		return &ast.TupleExpr{Elements: elems, Span: p.span(start)}
	}
	p.expect(lexer.RPAREN)
	return first
}

func (p *Parser) parseArrayLit() ast.Expr {
	start := p.cur.Span
	p.advance() // [
	var elems []ast.Expr
	for !p.curIs(lexer.RBRACKET) && !p.curIs(lexer.EOF) {
		elems = append(elems, p.parseExpr(LOWEST))
		if p.curIs(lexer.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(lexer.RBRACKET)
	return &ast.ArrayExpr{Elements: elems, Span: p.span(start)}
}

func (p *Parser) parseStructLit(name string, start source.Span) ast.Expr {
	p.advance() // {
	var fields []*ast.FieldInit
	var base ast.Expr
	if !p.curIs(lexer.RBRACE) && !p.looksLikeFieldInit() {
		base = p.parseExpr(LOWEST)
		p.expect(lexer.PIPE)
	}
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		fstart := p.cur.Span
		fname := p.cur.Text
		p.expect(lexer.IDENT)
		p.expect(lexer.COLON)
		val := p.parseExpr(LOWEST)
		fields = append(fields, &ast.FieldInit{Name: fname, Value: val, Span: p.span(fstart)})
		if p.curIs(lexer.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(lexer.RBRACE)
	if base != nil {
		return &ast.RecordLit{Base: base, Fields: fields, Span: p.span(start)}
	}
	return &ast.StructLit{Name: name, Fields: fields, Span: p.span(start)}
}

func (p *Parser) looksLikeFieldInit() bool {
	return p.curIs(lexer.IDENT) && p.peekIs(lexer.COLON)
}

func (p *Parser) parsePrefixExpr() ast.Expr {
	tok := p.cur
	p.advance()
	x := p.parseExpr(UNARY)
	return &ast.UnaryExpr{Op: tok.Kind.String(), X: x, Span: p.span(tok.Span)}
}

func (p *Parser) parseBinaryExpr(left ast.Expr) ast.Expr {
	tok := p.cur
	prec := p.curPrecedence()
	p.advance()
	right := p.parseExpr(prec)
	return &ast.BinaryExpr{Left: left, Op: tok.Kind.String(), Right: right, Span: p.span(tok.Span)}
}

func (p *Parser) parseRangeExpr(left ast.Expr) ast.Expr {
	tok := p.cur
	p.advance()
	inclusive := false
	if p.curIs(lexer.ASSIGN) {
		inclusive = true
		p.advance()
	}
	var hi ast.Expr
	if !p.curIs(lexer.SEMI) && !p.curIs(lexer.RBRACE) && !p.curIs(lexer.RPAREN) && !p.curIs(lexer.RBRACKET) && !p.curIs(lexer.COMMA) {
		hi = p.parseExpr(RANGE)
	}
	return &ast.RangeExpr{Lo: left, Hi: hi, Inclusive: inclusive, Span: p.span(tok.Span)}
}

// parseAssignExpr is right-associative (spec.md §4.2): the right side is
// parsed at ASSIGN-1 so a chained `a = b = c` recurses as `a = (b = c)`
// instead of stopping after `b`.
func (p *Parser) parseAssignExpr(left ast.Expr) ast.Expr {
	tok := p.cur
	p.advance()
	val := p.parseExpr(ASSIGN - 1)
	return &ast.AssignExpr{Target: left, Op: "=", Value: val, Span: p.span(tok.Span)}
}

func (p *Parser) parseCallArgs() []ast.Expr {
	p.expect(lexer.LPAREN)
	var args []ast.Expr
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		args = append(args, p.parseExpr(LOWEST))
		if p.curIs(lexer.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(lexer.RPAREN)
	return args
}

func (p *Parser) parseCallExpr(callee ast.Expr) ast.Expr {
	start := callee.Position()
	args := p.parseCallArgs()
	return &ast.CallExpr{Callee: callee, Args: args, Span: p.span(start)}
}

func (p *Parser) parseDotExpr(x ast.Expr) ast.Expr {
	start := x.Position()
	p.advance() // .
	name := p.cur.Text
	p.expect(lexer.IDENT)
	if p.curIs(lexer.LPAREN) {
		args := p.parseCallArgs()
		return &ast.MethodCallExpr{Receiver: x, Name: name, Args: args, Span: p.span(start)}
	}
	return &ast.FieldExpr{X: x, Field: name, Span: p.span(start)}
}

func (p *Parser) parseIndexExpr(x ast.Expr) ast.Expr {
	start := x.Position()
	p.advance() // [
	idx := p.parseExpr(LOWEST)
	p.expect(lexer.RBRACKET)
	return &ast.IndexExpr{X: x, Index: idx, Span: p.span(start)}
}

// parseCastExpr parses the `as` binary-looking form, whose right side is
// a type rather than an expression.
func (p *Parser) parseCastExpr(x ast.Expr) ast.Expr {
	start := x.Position()
	p.advance() // as
	ty := p.parseType()
	return &ast.CastExpr{X: x, Type: ty, Span: p.span(start)}
}

// parsePropagateExpr parses the postfix `?` error-propagation operator.
func (p *Parser) parsePropagateExpr(x ast.Expr) ast.Expr {
	start := x.Position()
	p.advance() // ?
	return &ast.PropagateExpr{X: x, Span: p.span(start)}
}

// parseBlockExpr parses `{ stmt* tail? }`. A trailing expression not
// followed by `;` becomes the block's tail value.
func (p *Parser) parseBlockExpr() ast.Expr {
	return p.parseBlock()
}

func (p *Parser) parseBlock() *ast.Block {
	start := p.cur.Span
	p.expect(lexer.LBRACE)
	b := &ast.Block{}
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.LET) {
			b.Stmts = append(b.Stmts, p.parseLetStmt())
			continue
		}
		if p.isItemStart() {
			it := p.parseItem()
			if it != nil {
				b.Stmts = append(b.Stmts, &ast.ItemStmt{It: it, Span: it.Position()})
			}
			continue
		}
		exprStart := p.cur.Span
		e := p.parseExpr(LOWEST)
		if p.curIs(lexer.SEMI) {
			p.advance()
			b.Stmts = append(b.Stmts, &ast.ExprStmt{X: e, Span: p.span(exprStart)})
			continue
		}
		if p.curIs(lexer.RBRACE) {
			b.Tail = e
			break
		}
		b.Stmts = append(b.Stmts, &ast.ExprStmt{X: e, Span: p.span(exprStart)})
	}
	p.expect(lexer.RBRACE)
	b.Span = p.span(start)
	return b
}

func (p *Parser) parseLetStmt() ast.Stmt {
	start := p.cur.Span
	p.advance() // let
	pat := p.parsePattern()
	var ty ast.Ty
	if p.curIs(lexer.COLON) {
		p.advance()
		ty = p.parseType()
	}
	p.expect(lexer.ASSIGN)
	val := p.parseExpr(LOWEST)
	if p.curIs(lexer.SEMI) {
		p.advance()
	}
	return &ast.LetStmt{Pattern: pat, Type: ty, Value: val, Span: p.span(start)}
}

func (p *Parser) parseIfExpr() ast.Expr {
	start := p.cur.Span
	p.advance() // if
	cond := p.parseExpr(LOWEST)
	then := p.parseBlock()
	var els ast.Expr
	if p.curIs(lexer.ELSE) {
		p.advance()
		if p.curIs(lexer.IF) {
			els = p.parseIfExpr()
		} else {
			els = p.parseBlock()
		}
	}
	return &ast.IfExpr{Cond: cond, Then: then, Else: els, Span: p.span(start)}
}

func (p *Parser) parseWhileExpr() ast.Expr {
	start := p.cur.Span
	p.advance() // while
	cond := p.parseExpr(LOWEST)
	body := p.parseBlock()
	return &ast.WhileExpr{Cond: cond, Body: body, Span: p.span(start)}
}

func (p *Parser) parseForExpr() ast.Expr {
	start := p.cur.Span
	p.advance() // for
	pat := p.parsePattern()
	p.expect(lexer.IN)
	iter := p.parseExpr(LOWEST)
	body := p.parseBlock()
	return &ast.ForExpr{Pattern: pat, Iter: iter, Body: body, Span: p.span(start)}
}

func (p *Parser) parseLoopExpr() ast.Expr {
	start := p.cur.Span
	p.advance() // loop
	body := p.parseBlock()
	return &ast.LoopExpr{Body: body, Span: p.span(start)}
}

func (p *Parser) parseMatchExpr() ast.Expr {
	start := p.cur.Span
	p.advance() // match
	scrut := p.parseExpr(LOWEST)
	p.expect(lexer.LBRACE)
	var arms []*ast.MatchArm
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		astart := p.cur.Span
		pat := p.parsePatternTopLevel()
		var guard ast.Expr
		if p.curIs(lexer.IF) {
			p.advance()
			guard = p.parseExpr(LOWEST)
		}
		p.expect(lexer.FATARROW)
		body := p.parseExpr(LOWEST)
		arms = append(arms, &ast.MatchArm{Pattern: pat, Guard: guard, Body: body, Span: p.span(astart)})
		if p.curIs(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.MatchExpr{Scrutinee: scrut, Arms: arms, Span: p.span(start)}
}

// parseClosureExpr handles `|params| body`.
func (p *Parser) parseClosureExpr() ast.Expr {
	start := p.cur.Span
	p.advance() // |
	var params []*ast.Param
	for !p.curIs(lexer.PIPE) && !p.curIs(lexer.EOF) {
		params = append(params, p.parseParam())
		if p.curIs(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.PIPE)
	var eff *ast.EffectRowSyntax
	if p.curIs(lexer.BANG) {
		eff = p.parseEffectRow()
	}
	body := p.parseExpr(LOWEST)
	return &ast.ClosureExpr{Params: params, Effects: eff, Body: body, Span: p.span(start)}
}

// parseClosureExprNoParams handles the `||` (zero-parameter closure)
// token, which the lexer produces as a single OROR token.
func (p *Parser) parseClosureExprNoParams() ast.Expr {
	start := p.cur.Span
	p.advance() // ||
	var eff *ast.EffectRowSyntax
	if p.curIs(lexer.BANG) {
		eff = p.parseEffectRow()
	}
	body := p.parseExpr(LOWEST)
	return &ast.ClosureExpr{Params: nil, Effects: eff, Body: body, Span: p.span(start)}
}

func (p *Parser) parsePerformExpr() ast.Expr {
	start := p.cur.Span
	p.advance() // perform
	effect := p.cur.Text
	p.expect(lexer.IDENT)
	p.expect(lexer.DOT)
	op := p.cur.Text
	p.expect(lexer.IDENT)
	args := p.parseCallArgs()
	return &ast.PerformExpr{Effect: effect, Op: op, Args: args, Span: p.span(start)}
}

func (p *Parser) parseResumeExpr() ast.Expr {
	start := p.cur.Span
	p.advance() // resume
	p.expect(lexer.LPAREN)
	val := p.parseExpr(LOWEST)
	p.expect(lexer.RPAREN)
	return &ast.ResumeExpr{Value: val, Span: p.span(start)}
}

func (p *Parser) parseHandlerExpr() ast.Expr {
	start := p.cur.Span
	p.advance() // handler
	shallow := false
	p.expect(lexer.LBRACE)
	var arms []*ast.HandlerArm
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		astart := p.cur.Span
		isReturn := false
		effect := ""
		var name string
		if p.curIs(lexer.RETURN) {
			isReturn = true
			p.advance()
		} else {
			effect = p.cur.Text
			p.expect(lexer.IDENT)
			p.expect(lexer.DOT)
			name = p.cur.Text
			p.expect(lexer.IDENT)
		}
		var params []*ast.Param
		p.expect(lexer.LPAREN)
		for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
			params = append(params, p.parseParam())
			if p.curIs(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.RPAREN)
		p.expect(lexer.FATARROW)
		body := p.parseExpr(LOWEST)
		arms = append(arms, &ast.HandlerArm{Effect: effect, Op: name, IsReturn: isReturn, Params: params, Body: body, Span: p.span(astart)})
		if p.curIs(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.HandlerExpr{Arms: arms, Shallow: shallow, Span: p.span(start)}
}

func (p *Parser) parseTryExpr() ast.Expr {
	start := p.cur.Span
	p.advance() // try
	body := p.parseBlock()
	p.expect(lexer.WITH)
	handler := p.parseExpr(LOWEST)
	return &ast.TryExpr{Body: body, Handler: handler, Span: p.span(start)}
}

func (p *Parser) parseBreakExpr() ast.Expr {
	start := p.cur.Span
	p.advance()
	var val ast.Expr
	if !p.curIs(lexer.SEMI) && !p.curIs(lexer.RBRACE) {
		val = p.parseExpr(LOWEST)
	}
	return &ast.BreakExpr{Value: val, Span: p.span(start)}
}

func (p *Parser) parseContinueExpr() ast.Expr {
	tok := p.cur
	p.advance()
	return &ast.ContinueExpr{Span: tok.Span}
}

func (p *Parser) parseReturnExpr() ast.Expr {
	start := p.cur.Span
	p.advance()
	var val ast.Expr
	if !p.curIs(lexer.SEMI) && !p.curIs(lexer.RBRACE) {
		val = p.parseExpr(LOWEST)
	}
	return &ast.ReturnExpr{Value: val, Span: p.span(start)}
}

func (p *Parser) isItemStart() bool {
	switch p.cur.Kind {
	case lexer.FN, lexer.STRUCT, lexer.ENUM, lexer.TRAIT, lexer.IMPL, lexer.EFFECT, lexer.CONST, lexer.STATIC:
		return true
	}
	return false
}
