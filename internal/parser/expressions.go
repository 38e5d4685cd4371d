package parser

import (
	"strings"

	"github.com/funvibe/tsnc/internal/ir"
	"github.com/funvibe/tsnc/internal/token"
)

// parseExpression is the single entry point into the precedence chain;
// this grammar has no comma operator, so it is exactly parseAssignExpr.
func (p *Parser) parseExpression() ir.Expr {
	return p.parseAssignExpr()
}

func (p *Parser) parseAssignExpr() ir.Expr {
	left := p.parseConditional()
	if p.curIs(token.ASSIGN) {
		tok := p.cur
		p.advance()
		right := p.parseAssignExpr()
		return &ir.AssignmentExpr{Token: tok, Operator: "=", Target: left, Value: right}
	}
	return left
}

func (p *Parser) parseConditional() ir.Expr {
	test := p.parseNullish()
	if !p.curIs(token.QUESTION) {
		return test
	}
	tok := p.cur
	p.advance()
	consequent := p.parseAssignExpr()
	p.expect(token.COLON, ":")
	alternate := p.parseAssignExpr()
	return &ir.ConditionalExpr{Token: tok, Test: test, Consequent: consequent, Alternate: alternate}
}

func (p *Parser) parseNullish() ir.Expr {
	left := p.parseLogicalOr()
	for p.curIs(token.NULLISH) {
		tok := p.cur
		p.advance()
		right := p.parseLogicalOr()
		left = &ir.LogicalExpr{Token: tok, Operator: "??", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseLogicalOr() ir.Expr {
	left := p.parseLogicalAnd()
	for p.curIs(token.OR) {
		tok := p.cur
		p.advance()
		right := p.parseLogicalAnd()
		left = &ir.LogicalExpr{Token: tok, Operator: "||", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseLogicalAnd() ir.Expr {
	left := p.parseEquality()
	for p.curIs(token.AND) {
		tok := p.cur
		p.advance()
		right := p.parseEquality()
		left = &ir.LogicalExpr{Token: tok, Operator: "&&", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseEquality() ir.Expr {
	left := p.parseRelational()
	for p.curIs(token.EQ) || p.curIs(token.NEQ) {
		tok := p.cur
		op := opLexeme(tok.Type)
		p.advance()
		right := p.parseRelational()
		left = &ir.BinaryExpr{Token: tok, Operator: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseRelational() ir.Expr {
	left := p.parseAdditive()
	for p.curIs(token.LT) || p.curIs(token.GT) || p.curIs(token.LE) || p.curIs(token.GE) ||
		p.curIs(token.INSTANCEOF) || p.curIs(token.IN) {
		tok := p.cur
		op := opLexeme(tok.Type)
		p.advance()
		right := p.parseAdditive()
		left = &ir.BinaryExpr{Token: tok, Operator: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAdditive() ir.Expr {
	left := p.parseMultiplicative()
	for p.curIs(token.PLUS) || p.curIs(token.MINUS) {
		tok := p.cur
		op := opLexeme(tok.Type)
		p.advance()
		right := p.parseMultiplicative()
		left = &ir.BinaryExpr{Token: tok, Operator: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() ir.Expr {
	left := p.parseUnary()
	for p.curIs(token.STAR) || p.curIs(token.SLASH) || p.curIs(token.PERCENT) {
		tok := p.cur
		op := opLexeme(tok.Type)
		p.advance()
		right := p.parseUnary()
		left = &ir.BinaryExpr{Token: tok, Operator: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ir.Expr {
	switch p.cur.Type {
	case token.BANG, token.MINUS, token.PLUS, token.TYPEOF:
		tok := p.cur
		op := opLexeme(tok.Type)
		p.advance()
		operand := p.parseUnary()
		return &ir.UnaryExpr{Token: tok, Operator: op, Operand: operand}
	case token.PLUS_PLUS, token.MINUS_MINUS:
		tok := p.cur
		op := opLexeme(tok.Type)
		p.advance()
		operand := p.parseUnary()
		return &ir.UpdateExpr{Token: tok, Operator: op, Operand: operand, Prefix: true}
	case token.AWAIT:
		tok := p.cur
		p.advance()
		return &ir.AwaitExpr{Token: tok, Argument: p.parseUnary()}
	case token.YIELD:
		tok := p.cur
		p.advance()
		delegate := p.accept(token.STAR)
		if p.curIs(token.SEMICOLON) || p.curIs(token.NEWLINE) || p.curIs(token.RBRACE) || p.curIs(token.RPAREN) {
			return &ir.YieldExpr{Token: tok, Delegate: delegate}
		}
		return &ir.YieldExpr{Token: tok, Argument: p.parseAssignExpr(), Delegate: delegate}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ir.Expr {
	expr := p.parseCallMemberChain(p.parsePrimaryExpr())
	if p.curIs(token.PLUS_PLUS) || p.curIs(token.MINUS_MINUS) {
		tok := p.cur
		op := opLexeme(tok.Type)
		p.advance()
		return &ir.UpdateExpr{Token: tok, Operator: op, Operand: expr, Prefix: false}
	}
	return expr
}

// parseCallMemberChain attaches any run of `.prop`, `?.prop`,
// `[computed]` and `(args)` suffixes to a base expression.
func (p *Parser) parseCallMemberChain(base ir.Expr) ir.Expr {
	for {
		switch {
		case p.curIs(token.DOT):
			tok := p.cur
			p.advance()
			nameTok := p.cur
			p.advance()
			base = &ir.MemberExpr{Token: tok, Object: base, Property: nameTok.Lexeme}
		case p.curIs(token.QUESTION) && p.peekIs(token.DOT):
			tok := p.cur
			p.advance()
			p.advance()
			nameTok := p.cur
			p.advance()
			base = &ir.MemberExpr{Token: tok, Object: base, Property: nameTok.Lexeme, OptionalChain: true}
		case p.curIs(token.LBRACKET):
			tok := p.cur
			p.advance()
			idx := p.parseExpression()
			p.expect(token.RBRACKET, "]")
			base = &ir.MemberExpr{Token: tok, Object: base, ComputedExpr: idx, Computed: true}
		case p.curIs(token.LPAREN):
			tok := p.cur
			args := p.parseArgumentList()
			base = &ir.CallExpr{Token: tok, Callee: base, Arguments: args}
		default:
			return base
		}
	}
}

func (p *Parser) parseArgumentList() []ir.Expr {
	p.expect(token.LPAREN, "(")
	var args []ir.Expr
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		if p.curIs(token.SPREAD) {
			tok := p.cur
			p.advance()
			args = append(args, &ir.SpreadExpr{Token: tok, Argument: p.parseAssignExpr()})
		} else {
			args = append(args, p.parseAssignExpr())
		}
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN, ")")
	return args
}

func (p *Parser) parsePrimaryExpr() ir.Expr {
	tok := p.cur
	switch tok.Type {
	case token.INT, token.FLOAT:
		p.advance()
		return &ir.LiteralExpr{Token: tok, Value: parseIntLiteral(tok.Lexeme)}
	case token.STRING:
		p.advance()
		return &ir.LiteralExpr{Token: tok, Value: tok.Lexeme}
	case token.TRUE:
		p.advance()
		return &ir.LiteralExpr{Token: tok, Value: true}
	case token.FALSE:
		p.advance()
		return &ir.LiteralExpr{Token: tok, Value: false}
	case token.NULL:
		p.advance()
		return &ir.LiteralExpr{Token: tok, Value: nil}
	case token.UNDEFINED:
		p.advance()
		return &ir.LiteralExpr{Token: tok, Value: nil}
	case token.TEMPLATE_STRING:
		p.advance()
		return p.parseTemplateLiteral(tok)
	case token.THIS:
		p.advance()
		return &ir.IdentifierExpr{Token: tok, Name: "this"}
	case token.NEW:
		return p.parseNewExpr()
	case token.FUNCTION:
		return p.parseFunctionExpr()
	case token.ASYNC:
		if p.peekIs(token.FUNCTION) {
			return p.parseFunctionExpr()
		}
		p.advance()
		return p.parseArrowOrParen(true)
	case token.LBRACKET:
		return p.parseArrayExpr()
	case token.LBRACE:
		return p.parseObjectExpr()
	case token.LPAREN:
		return p.parseArrowOrParen(false)
	case token.IDENT_LOWER, token.IDENT_UPPER:
		if p.peekIs(token.FAT_ARROW) {
			p.advance()
			p.advance() // consume "=>"
			param := ir.Param{Name: tok.Lexeme}
			return p.finishArrow(tok, []ir.Param{param}, false)
		}
		p.advance()
		return &ir.IdentifierExpr{Token: tok, Name: tok.Lexeme}
	default:
		p.error("expected an expression, got %q", tok.Lexeme)
		p.advance()
		return &ir.IdentifierExpr{Token: tok, Name: "__error__"}
	}
}

func (p *Parser) parseNewExpr() ir.Expr {
	tok := p.expect(token.NEW, "new")
	nameTok := p.cur
	p.advance()
	var callee ir.Expr = &ir.IdentifierExpr{Token: nameTok, Name: nameTok.Lexeme}
	var typeArgs []ir.Type
	if p.curIs(token.LT) {
		p.advance()
		for !p.curIs(token.GT) && !p.curIs(token.EOF) {
			typeArgs = append(typeArgs, p.parseType())
			if !p.accept(token.COMMA) {
				break
			}
		}
		p.expect(token.GT, ">")
	}
	for p.curIs(token.DOT) {
		dotTok := p.cur
		p.advance()
		propTok := p.cur
		p.advance()
		callee = &ir.MemberExpr{Token: dotTok, Object: callee, Property: propTok.Lexeme}
	}
	var args []ir.Expr
	if p.curIs(token.LPAREN) {
		args = p.parseArgumentList()
	}
	return &ir.NewExpr{Token: tok, Callee: callee, Arguments: args, TypeArguments: typeArgs}
}

func (p *Parser) parseFunctionExpr() ir.Expr {
	isAsync := p.accept(token.ASYNC)
	tok := p.expect(token.FUNCTION, "function")
	isGenerator := p.accept(token.STAR)
	name := ""
	if p.curIs(token.IDENT_LOWER) || p.curIs(token.IDENT_UPPER) {
		name = p.cur.Lexeme
		p.advance()
	}
	params := p.parseParamList()
	var ret ir.Type = &ir.PrimitiveType{Token: tok, Name: ir.PrimVoid}
	if p.accept(token.COLON) {
		ret = p.parseType()
	}
	body := p.parseBlockStatement()
	return &ir.FunctionExpr{
		Token: tok, Name: name, Parameters: params, ReturnType: ret,
		Body: body, IsAsync: isAsync, IsGenerator: isGenerator,
	}
}

// parseArrowOrParen handles a leading '(' that may open either a
// parenthesised expression or an arrow-function parameter list; the
// two are disambiguated by scanning ahead with a cloned lexer for a
// matching ')' immediately followed by '=>', without disturbing the
// parser's own token stream.
func (p *Parser) parseArrowOrParen(isAsync bool) ir.Expr {
	tok := p.cur
	if p.arrowFollows() {
		params := p.parseParamList()
		var ret ir.Type
		if p.accept(token.COLON) {
			ret = p.parseType()
		}
		p.expect(token.FAT_ARROW, "=>")
		return p.finishArrowWithReturnType(tok, params, ret, isAsync)
	}

	p.expect(token.LPAREN, "(")
	inner := p.parseExpression()
	p.expect(token.RPAREN, ")")
	return inner
}

// arrowFollows reports whether the parenthesised group starting at the
// current '(' is immediately followed by '=>', using a lexer clone so
// the lookahead consumes no tokens from the live stream.
func (p *Parser) arrowFollows() bool {
	depth := 1
	tok := p.peek
	cl := p.l.Clone()
	for {
		switch tok.Type {
		case token.EOF:
			return false
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				next := cl.NextToken()
				return next.Type == token.FAT_ARROW
			}
		}
		tok = cl.NextToken()
	}
}

func (p *Parser) finishArrow(tok token.Token, params []ir.Param, isAsync bool) ir.Expr {
	return p.finishArrowWithReturnType(tok, params, nil, isAsync)
}

func (p *Parser) finishArrowWithReturnType(tok token.Token, params []ir.Param, ret ir.Type, isAsync bool) ir.Expr {
	var body ir.Node
	if p.curIs(token.LBRACE) {
		body = p.parseBlockStatement()
	} else {
		body = p.parseAssignExpr()
	}
	return &ir.ArrowFunctionExpr{Token: tok, Parameters: params, ReturnType: ret, Body: body, IsAsync: isAsync}
}

func (p *Parser) parseArrayExpr() ir.Expr {
	tok := p.expect(token.LBRACKET, "[")
	var elems []ir.Expr
	for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
		if p.curIs(token.SPREAD) {
			stok := p.cur
			p.advance()
			elems = append(elems, &ir.SpreadExpr{Token: stok, Argument: p.parseAssignExpr()})
		} else {
			elems = append(elems, p.parseAssignExpr())
		}
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACKET, "]")
	return &ir.ArrayExpr{Token: tok, Elements: elems, Origin: ir.OriginInferred}
}

func (p *Parser) parseObjectExpr() ir.Expr {
	tok := p.expect(token.LBRACE, "{")
	var props []ir.ObjectProperty
	p.skipNewlines()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.curIs(token.SPREAD) {
			p.advance()
			val := p.parseAssignExpr()
			props = append(props, ir.ObjectProperty{Value: val, Spread: true})
		} else if p.curIs(token.LBRACKET) {
			p.advance()
			keyExpr := p.parseAssignExpr()
			p.expect(token.RBRACKET, "]")
			p.expect(token.COLON, ":")
			val := p.parseAssignExpr()
			props = append(props, ir.ObjectProperty{Value: val, Computed: true, Key: keyExprPlaceholder(keyExpr)})
		} else {
			nameTok := p.cur
			p.advance()
			if p.accept(token.COLON) {
				val := p.parseAssignExpr()
				props = append(props, ir.ObjectProperty{Key: nameTok.Lexeme, Value: val})
			} else {
				props = append(props, ir.ObjectProperty{
					Key:   nameTok.Lexeme,
					Value: &ir.IdentifierExpr{Token: nameTok, Name: nameTok.Lexeme},
				})
			}
		}
		if !p.accept(token.COMMA) {
			p.skipNewlines()
			break
		}
		p.skipNewlines()
	}
	p.expect(token.RBRACE, "}")
	return &ir.ObjectExpr{Token: tok, Properties: props}
}

// keyExprPlaceholder uses a computed key's identifier name as the
// property name (any other key expression yields ""); the computed
// expression itself is dropped since
// emission for computed keys is out of scope for static class fields.
func keyExprPlaceholder(e ir.Expr) string {
	if id, ok := e.(*ir.IdentifierExpr); ok {
		return id.Name
	}
	return ""
}

func (p *Parser) parseTemplateLiteral(tok token.Token) *ir.TemplateLiteralExpr {
	raw := tok.Lexeme
	var quasis []string
	var exprs []ir.Expr
	var cur strings.Builder
	i := 0
	for i < len(raw) {
		if raw[i] == '$' && i+1 < len(raw) && raw[i+1] == '{' {
			quasis = append(quasis, cur.String())
			cur.Reset()
			depth := 1
			j := i + 2
			start := j
			for j < len(raw) && depth > 0 {
				if raw[j] == '{' {
					depth++
				} else if raw[j] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			exprSrc := raw[start:j]
			sub := New(p.modulePath, exprSrc, p.diags)
			exprs = append(exprs, sub.parseExpression())
			i = j + 1
			continue
		}
		cur.WriteByte(raw[i])
		i++
	}
	quasis = append(quasis, cur.String())
	return &ir.TemplateLiteralExpr{Token: tok, Quasis: quasis, Expressions: exprs}
}

func opLexeme(t token.Type) string {
	switch t {
	case token.EQ:
		return "=="
	case token.NEQ:
		return "!="
	case token.LT:
		return "<"
	case token.GT:
		return ">"
	case token.LE:
		return "<="
	case token.GE:
		return ">="
	case token.INSTANCEOF:
		return "instanceof"
	case token.IN:
		return "in"
	case token.PLUS:
		return "+"
	case token.MINUS:
		return "-"
	case token.STAR:
		return "*"
	case token.SLASH:
		return "/"
	case token.PERCENT:
		return "%"
	case token.BANG:
		return "!"
	case token.TYPEOF:
		return "typeof"
	case token.PLUS_PLUS:
		return "++"
	case token.MINUS_MINUS:
		return "--"
	default:
		return ""
	}
}
