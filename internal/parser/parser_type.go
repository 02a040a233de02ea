package parser

import (
	"github.com/jkindrix/blood/internal/ast"
	"github.com/jkindrix/blood/internal/lexer"
)

func (p *Parser) parseType() ast.Ty {
	switch p.cur.Kind {
	case lexer.AMP:
		return p.parseRefType()
	case lexer.LBRACKET:
		return p.parseArrayType()
	case lexer.LPAREN:
		return p.parseTupleOrFnParamType()
	case lexer.FN:
		return p.parseFnType()
	case lexer.LBRACE:
		return p.parseRecordType()
	case lexer.FORALL:
		return p.parseForallType()
	default:
		return p.parseNamedType()
	}
}

func (p *Parser) parseRefType() ast.Ty {
	start := p.cur.Span
	p.advance() // &
	qual := ast.Shared
	if p.curIs(lexer.IDENT) && p.cur.Text == "mut" {
		qual = ast.Unique
		p.advance()
	}
	elem := p.parseType()
	return &ast.RefType{Qualifier: qual, Elem: elem, Span: p.span(start)}
}

func (p *Parser) parseArrayType() ast.Ty {
	start := p.cur.Span
	p.advance() // [
	elem := p.parseType()
	p.expect(lexer.RBRACKET)
	return &ast.ArrayType{Elem: elem, Span: p.span(start)}
}

// parseTupleOrFnParamType parses a parenthesized type, which is always a
// tuple type in type position (bare function parameter lists only occur
// after the `fn` keyword — see parseFnType).
func (p *Parser) parseTupleOrFnParamType() ast.Ty {
	start := p.cur.Span
	p.advance() // (
	var elems []ast.Ty
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		elems = append(elems, p.parseType())
		if p.curIs(lexer.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(lexer.RPAREN)
	if len(elems) == 1 {
		return elems[0]
	}
	return &ast.TupleType{Elements: elems, Span: p.span(start)}
}

func (p *Parser) parseFnType() ast.Ty {
	start := p.cur.Span
	p.advance() // fn
	p.expect(lexer.LPAREN)
	var params []ast.Ty
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		params = append(params, p.parseType())
		if p.curIs(lexer.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(lexer.RPAREN)
	var ret ast.Ty
	if p.curIs(lexer.ARROW) {
		p.advance()
		ret = p.parseType()
	}
	var eff *ast.EffectRowSyntax
	if p.curIs(lexer.BANG) {
		eff = p.parseEffectRow()
	}
	return &ast.FnType{Params: params, Ret: ret, Effects: eff, Span: p.span(start)}
}

func (p *Parser) parseRecordType() ast.Ty {
	start := p.cur.Span
	p.advance() // {
	var fields []*ast.RecordFieldType
	rowVar := ""
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.PIPE) {
			p.advance()
			rowVar = p.cur.Text
			p.expect(lexer.IDENT)
			break
		}
		fstart := p.cur.Span
		fname := p.cur.Text
		p.expect(lexer.IDENT)
		p.expect(lexer.COLON)
		ty := p.parseType()
		fields = append(fields, &ast.RecordFieldType{Name: fname, Type: ty, Span: p.span(fstart)})
		if p.curIs(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.RecordTypeExpr{Fields: fields, Var: rowVar, Span: p.span(start)}
}

func (p *Parser) parseForallType() ast.Ty {
	start := p.cur.Span
	p.advance() // forall
	tparams := p.parseTypeParams()
	body := p.parseType()
	return &ast.ForallType{TypeParams: tparams, Body: body, Span: p.span(start)}
}

func (p *Parser) parseNamedType() ast.Ty {
	start := p.cur.Span
	path := []string{p.cur.Text}
	p.expect(lexer.IDENT)
	for p.curIs(lexer.COLONCOLON) {
		p.advance()
		path = append(path, p.cur.Text)
		p.expect(lexer.IDENT)
	}
	var args []ast.Ty
	if p.curIs(lexer.LT) {
		p.advance()
		for !p.curIs(lexer.GT) && !p.curIs(lexer.EOF) {
			args = append(args, p.parseType())
			if p.curIs(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.GT)
	}
	return &ast.NamedType{Path: path, Args: args, Span: p.span(start)}
}
