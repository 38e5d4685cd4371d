package parser

import (
	"github.com/funvibe/tsnc/internal/ir"
	"github.com/funvibe/tsnc/internal/token"
)

// parseStatement dispatches on the current token to the statement
// grammar production it starts; syntax errors are recorded and parsing
// continues rather than aborting the whole module.
func (p *Parser) parseStatement() ir.Statement {
	p.skipNewlines()
	switch p.cur.Type {
	case token.ASYNC:
		if p.peekIs(token.FUNCTION) {
			return p.parseFunctionDeclaration()
		}
	case token.FUNCTION:
		return p.parseFunctionDeclaration()
	case token.CLASS:
		return p.parseClassDeclaration()
	case token.INTERFACE:
		return p.parseInterfaceDeclaration()
	case token.ENUM:
		return p.parseEnumDeclaration()
	case token.TYPE:
		return p.parseTypeAliasDeclaration()
	case token.CONST, token.LET, token.VAR:
		return p.parseVariableDeclaration()
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.TRY:
		return p.parseTryStatement()
	case token.THROW:
		return p.parseThrowStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		tok := p.cur
		p.advance()
		return &ir.BreakStatement{Token: tok}
	case token.CONTINUE:
		tok := p.cur
		p.advance()
		return &ir.ContinueStatement{Token: tok}
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseFunctionDeclaration() *ir.FunctionDeclaration {
	isAsync := p.accept(token.ASYNC)
	tok := p.expect(token.FUNCTION, "function")
	isGenerator := p.accept(token.STAR)
	nameTok := p.cur
	p.advance()

	typeParams := p.parseTypeParameters()
	params := p.parseParamList()
	var ret ir.Type = &ir.PrimitiveType{Token: tok, Name: ir.PrimVoid}
	if p.accept(token.COLON) {
		ret = p.parseType()
	}
	body := p.parseBlockStatement()

	return &ir.FunctionDeclaration{
		Token: tok, Name: nameTok.Lexeme, Parameters: params, ReturnType: ret,
		TypeParameters: typeParams, Body: body, IsAsync: isAsync, IsGenerator: isGenerator,
	}
}

func (p *Parser) parseParamList() []ir.Param {
	p.expect(token.LPAREN, "(")
	var params []ir.Param
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		nameTok := p.cur
		p.advance()
		optional := p.accept(token.QUESTION)
		var pt ir.Type
		if p.accept(token.COLON) {
			pt = p.parseType()
		}
		var def ir.Expr
		if p.accept(token.ASSIGN) {
			def = p.parseAssignExpr()
		}
		params = append(params, ir.Param{Name: nameTok.Lexeme, Type: pt, Optional: optional, Default: def})
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN, ")")
	return params
}

func (p *Parser) parseClassDeclaration() *ir.ClassDeclaration {
	tok := p.expect(token.CLASS, "class")
	nameTok := p.cur
	p.advance()
	typeParams := p.parseTypeParameters()

	var super *ir.ReferenceType
	if p.accept(token.EXTENDS) {
		if ref, ok := p.parseReferenceType().(*ir.ReferenceType); ok {
			super = ref
		}
	}
	var impls []*ir.ReferenceType
	isStructMarker := false
	if p.accept(token.IMPLEMENTS) {
		for {
			ref, ok := p.parseReferenceType().(*ir.ReferenceType)
			if ok {
				if ref.Name == "StructMarker" {
					isStructMarker = true
				}
				impls = append(impls, ref)
			}
			if !p.accept(token.COMMA) {
				break
			}
		}
	}

	members := p.parseClassBody()
	return &ir.ClassDeclaration{
		Token: tok, Name: nameTok.Lexeme, TypeParameters: typeParams,
		SuperClass: super, Implements: impls, Members: members, IsStructMarker: isStructMarker,
	}
}

func (p *Parser) parseClassBody() []ir.ClassMember {
	p.expect(token.LBRACE, "{")
	var members []ir.ClassMember
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		p.skipNewlines()
		if p.curIs(token.RBRACE) {
			break
		}
		members = append(members, p.parseClassMember())
		p.accept(token.SEMICOLON)
		p.skipNewlines()
	}
	p.expect(token.RBRACE, "}")
	return members
}

func (p *Parser) parseClassMember() ir.ClassMember {
	isStatic := p.accept(token.STATIC)
	isReadonly := p.accept(token.READONLY)
	isAsync := p.accept(token.ASYNC)

	nameTok := p.cur
	p.advance()

	if p.curIs(token.LPAREN) || p.curIs(token.LT) {
		typeParams := p.parseTypeParameters()
		params := p.parseParamList()
		var ret ir.Type = &ir.PrimitiveType{Token: nameTok, Name: ir.PrimVoid}
		if p.accept(token.COLON) {
			ret = p.parseType()
		}
		body := p.parseBlockStatement()
		method := &ir.FunctionDeclaration{
			Token: nameTok, Name: nameTok.Lexeme, Parameters: params, ReturnType: ret,
			TypeParameters: typeParams, Body: body, IsAsync: isAsync,
		}
		return ir.ClassMember{Name: nameTok.Lexeme, Method: method, Static: isStatic}
	}

	optional := p.accept(token.QUESTION)
	var ft ir.Type
	if p.accept(token.COLON) {
		ft = p.parseType()
	}
	if p.accept(token.ASSIGN) {
		p.parseAssignExpr() // field initializer parsed for side effects; static-init emission is a known simplification
	}
	return ir.ClassMember{Name: nameTok.Lexeme, Type: ft, Optional: optional, Readonly: isReadonly, Static: isStatic}
}

func (p *Parser) parseInterfaceDeclaration() *ir.InterfaceDeclaration {
	tok := p.expect(token.INTERFACE, "interface")
	nameTok := p.cur
	p.advance()
	typeParams := p.parseTypeParameters()
	var extends []*ir.ReferenceType
	if p.accept(token.EXTENDS) {
		for {
			if ref, ok := p.parseReferenceType().(*ir.ReferenceType); ok {
				extends = append(extends, ref)
			}
			if !p.accept(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.LBRACE, "{")
	var members []ir.Member
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		p.skipNewlines()
		if p.curIs(token.RBRACE) {
			break
		}
		readonly := p.accept(token.READONLY)
		nameTok := p.cur
		p.advance()
		optional := p.accept(token.QUESTION)
		var mt ir.Type
		if p.curIs(token.LPAREN) {
			params := p.parseParamList()
			var ret ir.Type = &ir.PrimitiveType{Token: nameTok, Name: ir.PrimVoid}
			if p.accept(token.COLON) {
				ret = p.parseType()
			}
			mt = &ir.FunctionType{Token: nameTok, Parameters: params, ReturnType: ret}
		} else {
			p.expect(token.COLON, ":")
			mt = p.parseType()
		}
		members = append(members, ir.Member{Name: nameTok.Lexeme, Type: mt, Optional: optional, Readonly: readonly})
		p.accept(token.SEMICOLON)
		p.accept(token.COMMA)
		p.skipNewlines()
	}
	p.expect(token.RBRACE, "}")
	return &ir.InterfaceDeclaration{Token: tok, Name: nameTok.Lexeme, TypeParameters: typeParams, Extends: extends, Members: members}
}

func (p *Parser) parseEnumDeclaration() *ir.EnumDeclaration {
	tok := p.expect(token.ENUM, "enum")
	nameTok := p.cur
	p.advance()
	p.expect(token.LBRACE, "{")
	var members []ir.EnumMember
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		p.skipNewlines()
		if p.curIs(token.RBRACE) {
			break
		}
		memberTok := p.cur
		p.advance()
		var val ir.Expr
		if p.accept(token.ASSIGN) {
			val = p.parseAssignExpr()
		}
		members = append(members, ir.EnumMember{Name: memberTok.Lexeme, Value: val})
		if !p.accept(token.COMMA) {
			p.skipNewlines()
		}
	}
	p.expect(token.RBRACE, "}")
	return &ir.EnumDeclaration{Token: tok, Name: nameTok.Lexeme, Members: members}
}

func (p *Parser) parseTypeAliasDeclaration() *ir.TypeAliasDeclaration {
	tok := p.expect(token.TYPE, "type")
	nameTok := p.cur
	p.advance()
	typeParams := p.parseTypeParameters()
	p.expect(token.ASSIGN, "=")
	target := p.parseType()
	return &ir.TypeAliasDeclaration{Token: tok, Name: nameTok.Lexeme, TypeParameters: typeParams, Target: target}
}

func (p *Parser) parseVariableDeclaration() *ir.VariableDeclaration {
	kindTok := p.cur
	p.advance()
	nameTok := p.cur
	p.advance()
	var vt ir.Type
	if p.accept(token.COLON) {
		vt = p.parseType()
	}
	var init ir.Expr
	if p.accept(token.ASSIGN) {
		init = p.parseAssignExpr()
	}
	p.accept(token.SEMICOLON)
	return &ir.VariableDeclaration{Token: kindTok, VarKind: kindTok.Lexeme, Name: nameTok.Lexeme, VarType: vt, Init: init}
}

func (p *Parser) parseBlockStatement() *ir.BlockStatement {
	tok := p.expect(token.LBRACE, "{")
	var stmts []ir.Statement
	p.skipNewlines()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		s := p.parseStatement()
		if s != nil {
			stmts = append(stmts, s)
		}
		p.accept(token.SEMICOLON)
		p.skipNewlines()
	}
	p.expect(token.RBRACE, "}")
	return &ir.BlockStatement{Token: tok, Statements: stmts}
}

func (p *Parser) parseIfStatement() *ir.IfStatement {
	tok := p.expect(token.IF, "if")
	p.expect(token.LPAREN, "(")
	test := p.parseExpression()
	p.expect(token.RPAREN, ")")
	consequent := p.parseStatement()
	var alternate ir.Statement
	p.skipNewlines()
	if p.curIs(token.ELSE) {
		p.advance()
		alternate = p.parseStatement()
	}
	return &ir.IfStatement{Token: tok, Test: test, Consequent: consequent, Alternate: alternate}
}

func (p *Parser) parseForStatement() ir.Statement {
	tok := p.expect(token.FOR, "for")
	p.expect(token.LPAREN, "(")

	if p.curIs(token.CONST) || p.curIs(token.LET) || p.curIs(token.VAR) {
		p.advance() // consume kind; for-of binds a single fresh name
		nameTok := p.cur
		p.advance()
		var vt ir.Type
		if p.accept(token.COLON) {
			vt = p.parseType()
		}
		if p.accept(token.OF) {
			iterable := p.parseExpression()
			p.expect(token.RPAREN, ")")
			body := p.parseStatement()
			return &ir.ForOfStatement{Token: tok, VarName: nameTok.Lexeme, VarType: vt, Iterable: iterable, Body: body}
		}
		// classic C-style for with a declared init variable
		var init ir.Expr
		if p.accept(token.ASSIGN) {
			init = p.parseAssignExpr()
		}
		initStmt := ir.Statement(&ir.VariableDeclaration{Token: tok, VarKind: "let", Name: nameTok.Lexeme, VarType: vt, Init: init})
		return p.finishForStatement(tok, initStmt)
	}

	var initStmt ir.Statement
	if !p.curIs(token.SEMICOLON) {
		initStmt = &ir.ExpressionStatement{Token: p.cur, Expression: p.parseExpression()}
	}
	return p.finishForStatement(tok, initStmt)
}

func (p *Parser) finishForStatement(tok token.Token, initStmt ir.Statement) *ir.ForStatement {
	p.expect(token.SEMICOLON, ";")
	var test ir.Expr
	if !p.curIs(token.SEMICOLON) {
		test = p.parseExpression()
	}
	p.expect(token.SEMICOLON, ";")
	var update ir.Expr
	if !p.curIs(token.RPAREN) {
		update = p.parseExpression()
	}
	p.expect(token.RPAREN, ")")
	body := p.parseStatement()
	return &ir.ForStatement{Token: tok, Init: initStmt, Test: test, Update: update, Body: body}
}

func (p *Parser) parseWhileStatement() *ir.WhileStatement {
	tok := p.expect(token.WHILE, "while")
	p.expect(token.LPAREN, "(")
	test := p.parseExpression()
	p.expect(token.RPAREN, ")")
	body := p.parseStatement()
	return &ir.WhileStatement{Token: tok, Test: test, Body: body}
}

func (p *Parser) parseTryStatement() *ir.TryStatement {
	tok := p.expect(token.TRY, "try")
	block := p.parseBlockStatement()
	stmt := &ir.TryStatement{Token: tok, Block: block}
	p.skipNewlines()
	if p.curIs(token.CATCH) {
		p.advance()
		if p.accept(token.LPAREN) {
			nameTok := p.cur
			p.advance()
			stmt.CatchParam = nameTok.Lexeme
			if p.accept(token.COLON) {
				stmt.CatchParamType = p.parseType()
			}
			p.expect(token.RPAREN, ")")
		}
		stmt.CatchBlock = p.parseBlockStatement()
	}
	p.skipNewlines()
	if p.curIs(token.FINALLY) {
		p.advance()
		stmt.FinallyBlock = p.parseBlockStatement()
	}
	return stmt
}

func (p *Parser) parseThrowStatement() *ir.ThrowStatement {
	tok := p.expect(token.THROW, "throw")
	arg := p.parseExpression()
	p.accept(token.SEMICOLON)
	return &ir.ThrowStatement{Token: tok, Argument: arg}
}

func (p *Parser) parseReturnStatement() *ir.ReturnStatement {
	tok := p.expect(token.RETURN, "return")
	var arg ir.Expr
	if !p.curIs(token.SEMICOLON) && !p.curIs(token.NEWLINE) && !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		arg = p.parseExpression()
	}
	p.accept(token.SEMICOLON)
	return &ir.ReturnStatement{Token: tok, Argument: arg}
}

func (p *Parser) parseExpressionStatement() ir.Statement {
	tok := p.cur
	if p.curIs(token.EOF) {
		return nil
	}
	expr := p.parseExpression()
	p.accept(token.SEMICOLON)
	return &ir.ExpressionStatement{Token: tok, Expression: expr}
}
