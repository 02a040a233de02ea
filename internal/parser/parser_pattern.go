package parser

import (
	"github.com/jkindrix/blood/internal/ast"
	"github.com/jkindrix/blood/internal/lexer"
	"github.com/jkindrix/blood/internal/source"
)

// parsePatternTopLevel parses a full match-arm pattern, including `|`
// alternation, which parsePattern (used in let/fn-param position) does
// not accept.
func (p *Parser) parsePatternTopLevel() ast.Pattern {
	first := p.parsePattern()
	if !p.curIs(lexer.PIPE) {
		return first
	}
	start := first.Position()
	alts := []ast.Pattern{first}
	for p.curIs(lexer.PIPE) {
		p.advance()
		alts = append(alts, p.parsePattern())
	}
	return &ast.OrPattern{Alternatives: alts, Span: p.span(start)}
}

func (p *Parser) parsePattern() ast.Pattern {
	switch p.cur.Kind {
	case lexer.IDENT:
		return p.parseBindingOrConstructorPattern()
	case lexer.INT, lexer.FLOAT, lexer.STRING, lexer.CHAR, lexer.TRUE, lexer.FALSE:
		return p.parseLiteralOrRangePattern()
	case lexer.MINUS:
		return p.parseLiteralOrRangePattern()
	case lexer.LPAREN:
		return p.parseTuplePattern()
	case lexer.LBRACE:
		return p.parseRecordPattern()
	default:
		start := p.cur.Span
		p.advance()
		return &ast.WildcardPattern{Span: start}
	}
}

func (p *Parser) parseBindingOrConstructorPattern() ast.Pattern {
	tok := p.cur
	if tok.Text == "_" {
		p.advance()
		return &ast.WildcardPattern{Span: tok.Span}
	}
	p.advance()

	if p.curIs(lexer.COLONCOLON) {
		enum := tok.Text
		p.advance()
		variant := p.cur.Text
		p.expect(lexer.IDENT)
		var elems []ast.Pattern
		if p.curIs(lexer.LPAREN) {
			p.advance()
			for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
				elems = append(elems, p.parsePattern())
				if p.curIs(lexer.COMMA) {
					p.advance()
				}
			}
			p.expect(lexer.RPAREN)
		}
		return &ast.EnumPattern{Enum: enum, Variant: variant, Elements: elems, Span: p.span(tok.Span)}
	}

	if p.curIs(lexer.LBRACE) {
		return p.parseStructPatternFields(tok.Text, tok.Span)
	}

	return &ast.BindingPattern{Name: tok.Text, Span: tok.Span}
}

func (p *Parser) parseStructPatternFields(name string, start source.Span) ast.Pattern {
	p.advance() // {
	var fields []*ast.FieldPattern
	rest := false
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.DOTDOT) {
			p.advance()
			rest = true
			break
		}
		fstart := p.cur.Span
		fname := p.cur.Text
		if !p.expect(lexer.IDENT) {
			break
		}
		var sub ast.Pattern
		if p.curIs(lexer.COLON) {
			p.advance()
			sub = p.parsePattern()
		} else {
			sub = &ast.BindingPattern{Name: fname, Span: fstart}
		}
		fields = append(fields, &ast.FieldPattern{Name: fname, Pattern: sub, Span: p.span(fstart)})
		if p.curIs(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.StructPattern{Name: name, Fields: fields, Rest: rest, Span: p.span(start)}
}

func (p *Parser) parseLiteralOrRangePattern() ast.Pattern {
	start := p.cur.Span
	lit := p.parseExpr(UNARY)
	if p.curIs(lexer.DOTDOT) {
		p.advance()
		inclusive := false
		if p.curIs(lexer.ASSIGN) {
			inclusive = true
			p.advance()
		}
		hi := p.parseExpr(UNARY)
		return &ast.RangePattern{Lo: lit, Hi: hi, Inclusive: inclusive, Span: p.span(start)}
	}
	litExpr, ok := lit.(*ast.Literal)
	if !ok {
		return &ast.WildcardPattern{Span: p.span(start)}
	}
	return litExpr
}

func (p *Parser) parseTuplePattern() ast.Pattern {
	start := p.cur.Span
	p.advance() // (
	var elems []ast.Pattern
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		elems = append(elems, p.parsePattern())
		if p.curIs(lexer.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(lexer.RPAREN)
	return &ast.TuplePattern{Elements: elems, Span: p.span(start)}
}

func (p *Parser) parseRecordPattern() ast.Pattern {
	start := p.cur.Span
	p.advance() // {
	var fields []*ast.FieldPattern
	rest := false
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.DOTDOT) {
			p.advance()
			rest = true
			break
		}
		fstart := p.cur.Span
		fname := p.cur.Text
		if !p.expect(lexer.IDENT) {
			break
		}
		var sub ast.Pattern
		if p.curIs(lexer.COLON) {
			p.advance()
			sub = p.parsePattern()
		} else {
			sub = &ast.BindingPattern{Name: fname, Span: fstart}
		}
		fields = append(fields, &ast.FieldPattern{Name: fname, Pattern: sub, Span: p.span(fstart)})
		if p.curIs(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.RecordPattern{Fields: fields, Rest: rest, Span: p.span(start)}
}
