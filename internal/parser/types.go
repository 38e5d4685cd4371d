package parser

import (
	"github.com/funvibe/tsnc/internal/ir"
	"github.com/funvibe/tsnc/internal/token"
)

// parseType parses a type annotation at union precedence (the loosest
// level): intersections bind tighter than unions, array suffixes and
// generic arguments bind tightest of all.
func (p *Parser) parseType() ir.Type {
	first := p.parseIntersectionType()
	if !p.curIs(token.PIPE) {
		return first
	}
	tok := p.cur
	members := []ir.Type{first}
	for p.accept(token.PIPE) {
		members = append(members, p.parseIntersectionType())
	}
	return ir.NormalizeUnion(tok, members)
}

func (p *Parser) parseIntersectionType() ir.Type {
	first := p.parsePostfixType()
	if !p.curIs(token.AMP) {
		return first
	}
	tok := p.cur
	members := []ir.Type{first}
	for p.accept(token.AMP) {
		members = append(members, p.parsePostfixType())
	}
	return &ir.IntersectionType{Token: tok, Types: members}
}

// parsePostfixType applies `[]` array suffixes to a primary type.
func (p *Parser) parsePostfixType() ir.Type {
	t := p.parsePrimaryType()
	for p.curIs(token.LBRACKET) && p.peekIs(token.RBRACKET) {
		tok := p.cur
		p.advance()
		p.advance()
		t = &ir.ArrayType{Token: tok, Element: t, Origin: ir.OriginExplicit}
	}
	return t
}

func (p *Parser) parsePrimaryType() ir.Type {
	tok := p.cur
	switch p.cur.Type {
	case token.VOID:
		p.advance()
		return &ir.PrimitiveType{Token: tok, Name: ir.PrimVoid}
	case token.ANY:
		p.advance()
		return &ir.PrimitiveType{Token: tok, Name: ir.PrimAny}
	case token.UNKNOWN:
		p.advance()
		return &ir.PrimitiveType{Token: tok, Name: ir.PrimUnknown}
	case token.NEVER:
		p.advance()
		return &ir.PrimitiveType{Token: tok, Name: ir.PrimNever}
	case token.NULL:
		p.advance()
		return &ir.PrimitiveType{Token: tok, Name: ir.PrimNull}
	case token.UNDEFINED:
		p.advance()
		return &ir.PrimitiveType{Token: tok, Name: ir.PrimUndefined}
	case token.TRUE:
		p.advance()
		return &ir.LiteralType{Token: tok, Value: true}
	case token.FALSE:
		p.advance()
		return &ir.LiteralType{Token: tok, Value: false}
	case token.STRING:
		p.advance()
		return &ir.LiteralType{Token: tok, Value: tok.Lexeme}
	case token.INT, token.FLOAT:
		p.advance()
		return &ir.LiteralType{Token: tok, Value: parseIntLiteral(tok.Lexeme)}
	case token.LPAREN:
		return p.parseFunctionOrTupleType()
	case token.LBRACE:
		return p.parseObjectType()
	case token.LBRACKET:
		return p.parseTupleType()
	case token.IDENT_LOWER, token.IDENT_UPPER:
		switch tok.Lexeme {
		case ir.PrimBoolean, ir.PrimString, ir.PrimNumber, ir.PrimInt, ir.PrimLong:
			p.advance()
			return &ir.PrimitiveType{Token: tok, Name: tok.Lexeme}
		}
		return p.parseReferenceType()
	default:
		p.error("expected a type, got %q", p.cur.Lexeme)
		p.advance()
		return &ir.PrimitiveType{Token: tok, Name: ir.PrimAny}
	}
}

func (p *Parser) parseReferenceType() ir.Type {
	tok := p.cur
	name := p.cur.Lexeme
	p.advance()
	var args []ir.Type
	if p.curIs(token.LT) {
		p.advance()
		for !p.curIs(token.GT) && !p.curIs(token.EOF) {
			args = append(args, p.parseType())
			if !p.accept(token.COMMA) {
				break
			}
		}
		p.expect(token.GT, ">")
	}
	return &ir.ReferenceType{Token: tok, Name: name, TypeArguments: args}
}

// parseFunctionOrTupleType disambiguates `(a: T, b: U) -> R` function
// types from a parenthesised type by always requiring named parameters
// inside the parens, matching this grammar's function-type syntax.
func (p *Parser) parseFunctionOrTupleType() ir.Type {
	tok := p.cur
	p.expect(token.LPAREN, "(")
	var params []ir.Param
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		nameTok := p.cur
		p.advance()
		optional := p.accept(token.QUESTION)
		p.expect(token.COLON, ":")
		pt := p.parseType()
		params = append(params, ir.Param{Name: nameTok.Lexeme, Type: pt, Optional: optional})
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN, ")")
	p.expect(token.ARROW, "->")
	ret := p.parseType()
	return &ir.FunctionType{Token: tok, Parameters: params, ReturnType: ret}
}

func (p *Parser) parseTupleType() ir.Type {
	tok := p.cur
	p.expect(token.LBRACKET, "[")
	var elems []ir.Type
	for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
		elems = append(elems, p.parseType())
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACKET, "]")
	return &ir.TupleType{Token: tok, Elements: elems}
}

func (p *Parser) parseObjectType() ir.Type {
	tok := p.cur
	p.expect(token.LBRACE, "{")
	var members []ir.Member
	var index *ir.IndexSignature
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.curIs(token.LBRACKET) {
			p.advance()
			p.advance() // key name, ignored
			p.expect(token.COLON, ":")
			keyType := p.parseType()
			p.expect(token.RBRACKET, "]")
			p.expect(token.COLON, ":")
			valType := p.parseType()
			index = &ir.IndexSignature{KeyType: keyType, ValueType: valType}
			p.accept(token.COMMA)
			p.accept(token.SEMICOLON)
			continue
		}
		readonly := p.accept(token.READONLY)
		nameTok := p.cur
		p.advance()
		optional := p.accept(token.QUESTION)
		p.expect(token.COLON, ":")
		mt := p.parseType()
		members = append(members, ir.Member{Name: nameTok.Lexeme, Type: mt, Optional: optional, Readonly: readonly})
		if !p.accept(token.COMMA) {
			p.accept(token.SEMICOLON)
		}
		p.skipNewlines()
	}
	p.expect(token.RBRACE, "}")
	return &ir.ObjectType{Token: tok, Members: members, IndexSignature: index}
}

// parseTypeParameters parses an optional `<T, U extends X = D>` clause.
func (p *Parser) parseTypeParameters() []ir.TypeParam {
	if !p.curIs(token.LT) {
		return nil
	}
	p.advance()
	var params []ir.TypeParam
	for !p.curIs(token.GT) && !p.curIs(token.EOF) {
		nameTok := p.cur
		p.advance()
		tp := ir.TypeParam{Name: nameTok.Lexeme}
		if p.accept(token.EXTENDS) {
			tp.Constraint = p.parseType()
		}
		if p.accept(token.ASSIGN) {
			tp.Default = p.parseType()
		}
		params = append(params, tp)
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.GT, ">")
	return params
}
