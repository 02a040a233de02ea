package parser

import (
	"github.com/jkindrix/blood/internal/ast"
	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/lexer"
)

func (p *Parser) parseModDecl() *ast.ModDecl {
	start := p.cur.Span
	p.advance() // mod
	path := []string{p.cur.Text}
	p.expect(lexer.IDENT)
	for p.curIs(lexer.COLONCOLON) {
		p.advance()
		path = append(path, p.cur.Text)
		p.expect(lexer.IDENT)
	}
	if p.curIs(lexer.SEMI) {
		p.advance()
	}
	return &ast.ModDecl{Path: path, Span: p.span(start)}
}

func (p *Parser) parseUseDecl() *ast.UseDecl {
	start := p.cur.Span
	p.advance() // use
	path := []string{p.cur.Text}
	p.expect(lexer.IDENT)
	for p.curIs(lexer.COLONCOLON) {
		p.advance()
		if p.curIs(lexer.STAR) {
			p.advance()
			if p.curIs(lexer.SEMI) {
				p.advance()
			}
			return &ast.UseDecl{Path: path, Glob: true, Span: p.span(start)}
		}
		if p.curIs(lexer.LBRACE) {
			p.advance()
			var syms []string
			for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
				syms = append(syms, p.cur.Text)
				p.expect(lexer.IDENT)
				if p.curIs(lexer.COMMA) {
					p.advance()
				}
			}
			p.expect(lexer.RBRACE)
			if p.curIs(lexer.SEMI) {
				p.advance()
			}
			return &ast.UseDecl{Path: path, Symbols: syms, Span: p.span(start)}
		}
		path = append(path, p.cur.Text)
		p.expect(lexer.IDENT)
	}
	if p.curIs(lexer.SEMI) {
		p.advance()
	}
	return &ast.UseDecl{Path: path, Span: p.span(start)}
}

func (p *Parser) parseVisibility() ast.Visibility {
	if p.curIs(lexer.PUB) {
		p.advance()
		return ast.Public
	}
	return ast.Private
}

func (p *Parser) parseItem() ast.Item {
	vis := p.parseVisibility()
	switch p.cur.Kind {
	case lexer.FN:
		return p.parseFuncDecl(vis)
	case lexer.STRUCT:
		return p.parseStructDecl(vis)
	case lexer.ENUM:
		return p.parseEnumDecl(vis)
	case lexer.EFFECT:
		return p.parseEffectDecl(vis)
	case lexer.TRAIT:
		return p.parseTraitDecl(vis)
	case lexer.IMPL:
		return p.parseImplDecl()
	case lexer.CONST:
		return p.parseConstDecl(vis)
	case lexer.STATIC:
		return p.parseStaticDecl(vis)
	default:
		p.errorf(diag.EParseUnexpectedToken, "expected an item, got %s", p.cur.Kind)
		p.synchronize()
		return nil
	}
}

func (p *Parser) parseTypeParams() []*ast.TypeParam {
	if !p.curIs(lexer.LT) {
		return nil
	}
	p.advance()
	var tps []*ast.TypeParam
	for !p.curIs(lexer.GT) && !p.curIs(lexer.EOF) {
		start := p.cur.Span
		name := p.cur.Text
		p.expect(lexer.IDENT)
		var bounds []string
		if p.curIs(lexer.COLON) {
			p.advance()
			bounds = append(bounds, p.cur.Text)
			p.expect(lexer.IDENT)
			for p.curIs(lexer.PLUS) {
				p.advance()
				bounds = append(bounds, p.cur.Text)
				p.expect(lexer.IDENT)
			}
		}
		tps = append(tps, &ast.TypeParam{Name: name, Bounds: bounds, Span: p.span(start)})
		if p.curIs(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.GT)
	return tps
}

func (p *Parser) parseEffectRow() *ast.EffectRowSyntax {
	start := p.cur.Span
	p.advance() // !
	p.expect(lexer.LBRACE)
	row := &ast.EffectRowSyntax{}
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.PIPE) {
			p.advance()
			row.Var = p.cur.Text
			p.expect(lexer.IDENT)
			break
		}
		row.Labels = append(row.Labels, p.cur.Text)
		p.expect(lexer.IDENT)
		if p.curIs(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	row.Span = p.span(start)
	return row
}

func (p *Parser) parseParam() *ast.Param {
	start := p.cur.Span
	pat := p.parsePattern()
	var ty ast.Ty
	if p.curIs(lexer.COLON) {
		p.advance()
		ty = p.parseType()
	}
	return &ast.Param{Pattern: pat, Type: ty, Span: p.span(start)}
}

func (p *Parser) parseParamList() []*ast.Param {
	p.expect(lexer.LPAREN)
	var params []*ast.Param
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		params = append(params, p.parseParam())
		if p.curIs(lexer.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(lexer.RPAREN)
	return params
}

func (p *Parser) parseFuncDecl(vis ast.Visibility) *ast.FuncDecl {
	start := p.cur.Span
	p.advance() // fn
	name := p.cur.Text
	p.expect(lexer.IDENT)
	tparams := p.parseTypeParams()
	params := p.parseParamList()
	var ret ast.Ty
	if p.curIs(lexer.ARROW) {
		p.advance()
		ret = p.parseType()
	}
	var eff *ast.EffectRowSyntax
	if p.curIs(lexer.BANG) {
		eff = p.parseEffectRow()
	}
	body := p.parseBlock()
	return &ast.FuncDecl{Name: name, TypeParams: tparams, Params: params, ReturnType: ret, Effects: eff, Body: body, Vis: vis, Span: p.span(start)}
}

func (p *Parser) parseStructDecl(vis ast.Visibility) *ast.StructDecl {
	start := p.cur.Span
	p.advance() // struct
	name := p.cur.Text
	p.expect(lexer.IDENT)
	tparams := p.parseTypeParams()
	p.expect(lexer.LBRACE)
	var fields []*ast.StructField
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		fstart := p.cur.Span
		fvis := p.parseVisibility()
		fname := p.cur.Text
		p.expect(lexer.IDENT)
		p.expect(lexer.COLON)
		ty := p.parseType()
		fields = append(fields, &ast.StructField{Name: fname, Type: ty, Vis: fvis, Span: p.span(fstart)})
		if p.curIs(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.StructDecl{Name: name, TypeParams: tparams, Fields: fields, Vis: vis, Span: p.span(start)}
}

func (p *Parser) parseEnumDecl(vis ast.Visibility) *ast.EnumDecl {
	start := p.cur.Span
	p.advance() // enum
	name := p.cur.Text
	p.expect(lexer.IDENT)
	tparams := p.parseTypeParams()
	p.expect(lexer.LBRACE)
	var variants []*ast.EnumVariant
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		vstart := p.cur.Span
		vname := p.cur.Text
		p.expect(lexer.IDENT)
		var fields []ast.Ty
		if p.curIs(lexer.LPAREN) {
			p.advance()
			for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
				fields = append(fields, p.parseType())
				if p.curIs(lexer.COMMA) {
					p.advance()
				}
			}
			p.expect(lexer.RPAREN)
		}
		variants = append(variants, &ast.EnumVariant{Name: vname, Fields: fields, Span: p.span(vstart)})
		if p.curIs(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.EnumDecl{Name: name, TypeParams: tparams, Variants: variants, Vis: vis, Span: p.span(start)}
}

func (p *Parser) parseEffectDecl(vis ast.Visibility) *ast.EffectDecl {
	start := p.cur.Span
	p.advance() // effect
	name := p.cur.Text
	p.expect(lexer.IDENT)
	tparams := p.parseTypeParams()
	p.expect(lexer.LBRACE)
	var ops []*ast.EffectOp
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		ostart := p.cur.Span
		p.expect(lexer.FN)
		oname := p.cur.Text
		p.expect(lexer.IDENT)
		params := p.parseParamList()
		var ret ast.Ty
		if p.curIs(lexer.ARROW) {
			p.advance()
			ret = p.parseType()
		}
		if p.curIs(lexer.SEMI) {
			p.advance()
		}
		ops = append(ops, &ast.EffectOp{Name: oname, Params: params, ReturnType: ret, Span: p.span(ostart)})
	}
	p.expect(lexer.RBRACE)
	return &ast.EffectDecl{Name: name, TypeParams: tparams, Ops: ops, Vis: vis, Span: p.span(start)}
}

func (p *Parser) parseTraitDecl(vis ast.Visibility) *ast.TraitDecl {
	start := p.cur.Span
	p.advance() // trait
	name := p.cur.Text
	p.expect(lexer.IDENT)
	typeParam := ""
	if p.curIs(lexer.LT) {
		p.advance()
		typeParam = p.cur.Text
		p.expect(lexer.IDENT)
		p.expect(lexer.GT)
	}
	p.expect(lexer.LBRACE)
	var methods []*ast.TraitMethod
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		mstart := p.cur.Span
		p.expect(lexer.FN)
		mname := p.cur.Text
		p.expect(lexer.IDENT)
		params := p.parseParamList()
		var ret ast.Ty
		if p.curIs(lexer.ARROW) {
			p.advance()
			ret = p.parseType()
		}
		var eff *ast.EffectRowSyntax
		if p.curIs(lexer.BANG) {
			eff = p.parseEffectRow()
		}
		var def *ast.Block
		if p.curIs(lexer.LBRACE) {
			def = p.parseBlock()
		} else if p.curIs(lexer.SEMI) {
			p.advance()
		}
		methods = append(methods, &ast.TraitMethod{Name: mname, Params: params, ReturnType: ret, Effects: eff, Default: def, Span: p.span(mstart)})
	}
	p.expect(lexer.RBRACE)
	return &ast.TraitDecl{Name: name, TypeParam: typeParam, Methods: methods, Vis: vis, Span: p.span(start)}
}

func (p *Parser) parseImplDecl() *ast.ImplDecl {
	start := p.cur.Span
	p.advance() // impl
	tparams := p.parseTypeParams()
	first := p.parseType()
	trait := ""
	forType := first
	if p.curIs(lexer.FOR) {
		p.advance()
		if named, ok := first.(*ast.NamedType); ok {
			trait = named.String()
		}
		forType = p.parseType()
	}
	p.expect(lexer.LBRACE)
	var methods []*ast.FuncDecl
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		vis := p.parseVisibility()
		methods = append(methods, p.parseFuncDecl(vis))
	}
	p.expect(lexer.RBRACE)
	return &ast.ImplDecl{Trait: trait, TypeParams: tparams, ForType: forType, Methods: methods, Span: p.span(start)}
}

func (p *Parser) parseConstDecl(vis ast.Visibility) *ast.ConstDecl {
	start := p.cur.Span
	p.advance() // const
	name := p.cur.Text
	p.expect(lexer.IDENT)
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
	return &ast.ConstDecl{Name: name, Type: ty, Value: val, Vis: vis, Span: p.span(start)}
}

func (p *Parser) parseStaticDecl(vis ast.Visibility) *ast.StaticDecl {
	start := p.cur.Span
	p.advance() // static
	name := p.cur.Text
	p.expect(lexer.IDENT)
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
	return &ast.StaticDecl{Name: name, Type: ty, Value: val, Vis: vis, Span: p.span(start)}
}
