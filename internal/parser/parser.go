// Package parser implements the surface-grammar recursive-descent /
// Pratt parser, turning a token stream into an *ir.Module. Grounded on
// the teacher's internal/parser split-by-concern file layout (one file
// per grammar area) and its token-buffer/expect/synchronize recovery
// style, rebuilt against this grammar's closed ir.Statement/ir.Expr/
// ir.Type families rather than the teacher's ast package.
package parser

import (
	"strconv"
	"strings"

	"github.com/funvibe/tsnc/internal/diagnostics"
	"github.com/funvibe/tsnc/internal/ir"
	"github.com/funvibe/tsnc/internal/lexer"
	"github.com/funvibe/tsnc/internal/token"
)

// Parser holds the two-token lookahead buffer and accumulates
// diagnostics rather than returning an error per call; a syntax error
// is recorded and parsing carries on from the current token, so one bad
// line doesn't abort the whole module. No production calls synchronize.
type Parser struct {
	l          *lexer.Lexer
	modulePath string
	diags      *diagnostics.Bag

	cur  token.Token
	peek token.Token
}

func New(modulePath, source string, diags *diagnostics.Bag) *Parser {
	p := &Parser{l: lexer.New(source), modulePath: modulePath, diags: diags}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

// skipNewlines treats NEWLINE as insignificant whitespace everywhere
// except where a statement list uses it in place of a semicolon; the
// grammar accepts both, so the parser simply never requires NEWLINE.
func (p *Parser) skipNewlines() {
	for p.cur.Type == token.NEWLINE {
		p.advance()
	}
}

func (p *Parser) curIs(t token.Type) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t token.Type) bool { return p.peek.Type == t }

func (p *Parser) accept(t token.Type) bool {
	p.skipNewlines()
	if p.cur.Type == t {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(t token.Type, what string) token.Token {
	p.skipNewlines()
	tok := p.cur
	if p.cur.Type != t {
		p.error("expected %s, got %q", what, p.cur.Lexeme)
		return tok
	}
	p.advance()
	return tok
}

func (p *Parser) error(format string, args ...any) {
	p.diags.Add(diagnostics.Fatal(diagnostics.ErrSyntax, diagnostics.KindStructural,
		diagnostics.LocationFromToken(p.modulePath, p.cur), format, args...))
}

// synchronize advances past tokens until a likely statement boundary,
// so one malformed statement does not cascade into spurious errors for
// everything that follows it.
func (p *Parser) synchronize() {
	for !p.curIs(token.EOF) {
		if p.curIs(token.SEMICOLON) || p.curIs(token.NEWLINE) {
			p.advance()
			return
		}
		switch p.cur.Type {
		case token.CLASS, token.FUNCTION, token.INTERFACE, token.ENUM, token.TYPE,
			token.CONST, token.LET, token.VAR, token.EXPORT, token.IMPORT, token.RBRACE:
			return
		}
		p.advance()
	}
}

// ParseModule lexes and parses one source file, deriving its
// namespace/class name from its module path per the static-container
// naming rule (pkg/foo/bar.ts -> namespace "Pkg.Foo", class "Bar").
func ParseModule(modulePath, source string) (*ir.Module, *diagnostics.Bag) {
	diags := diagnostics.NewBag("")
	p := New(modulePath, source, diags)
	mod := &ir.Module{
		Path:      modulePath,
		Namespace: DeriveNamespace(modulePath),
		ClassName: DeriveClassName(modulePath),
		Exports:   map[string]bool{},
	}

	p.skipNewlines()
	for !p.curIs(token.EOF) {
		if p.curIs(token.IMPORT) {
			imp := p.parseImport()
			if imp != nil {
				mod.Imports = append(mod.Imports, imp)
			}
			p.skipNewlines()
			continue
		}
		stmt := p.parseTopLevelStatement()
		if stmt != nil {
			mod.Statements = append(mod.Statements, stmt)
			if named, ok := exportedName(stmt); ok {
				mod.Exports[named] = true
			}
		}
		p.skipNewlines()
	}
	return mod, diags
}

func exportedName(s ir.Statement) (string, bool) {
	switch st := s.(type) {
	case *ir.FunctionDeclaration:
		if st.Exported {
			return st.Name, true
		}
	case *ir.ClassDeclaration:
		if st.Exported {
			return st.Name, true
		}
	case *ir.InterfaceDeclaration:
		if st.Exported {
			return st.Name, true
		}
	case *ir.EnumDeclaration:
		if st.Exported {
			return st.Name, true
		}
	case *ir.TypeAliasDeclaration:
		if st.Exported {
			return st.Name, true
		}
	case *ir.VariableDeclaration:
		if st.Exported {
			return st.Name, true
		}
	}
	return "", false
}

// DeriveNamespace maps a module path's directory components to a
// dot-joined PascalCase namespace, e.g. "pkg/foo/bar.ts" -> "Pkg.Foo".
func DeriveNamespace(modulePath string) string {
	clean := strings.TrimSuffix(modulePath, ".ts")
	clean = strings.TrimSuffix(clean, ".tsn")
	parts := strings.Split(clean, "/")
	if len(parts) <= 1 {
		return "Generated"
	}
	dirs := parts[:len(parts)-1]
	segs := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d == "" || d == "." {
			continue
		}
		segs = append(segs, pascalCase(d))
	}
	if len(segs) == 0 {
		return "Generated"
	}
	return strings.Join(segs, ".")
}

// DeriveClassName maps a module path's base file name to its static
// container class name, e.g. "pkg/foo/bar.ts" -> "Bar".
func DeriveClassName(modulePath string) string {
	clean := strings.TrimSuffix(modulePath, ".ts")
	clean = strings.TrimSuffix(clean, ".tsn")
	parts := strings.Split(clean, "/")
	base := parts[len(parts)-1]
	return pascalCase(base)
}

func pascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) == 0 {
		return s
	}
	var sb strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(part[:1]))
		if len(part) > 1 {
			sb.WriteString(part[1:])
		}
	}
	return sb.String()
}

func (p *Parser) parseImport() *ir.ImportSpecifier {
	tok := p.cur
	p.advance() // consume "import"

	typeOnly := false
	if p.curIs(token.TYPE) {
		typeOnly = true
		p.advance()
	}

	var names []ir.ImportedName
	if p.accept(token.LBRACE) {
		for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			nameTok := p.cur
			p.advance()
			alias := ""
			if p.accept(token.AS) {
				alias = p.cur.Lexeme
				p.advance()
			}
			names = append(names, ir.ImportedName{Name: nameTok.Lexeme, Alias: alias})
			if !p.accept(token.COMMA) {
				break
			}
		}
		p.expect(token.RBRACE, "}")
	}

	p.expect(token.FROM, "from")
	pathTok := p.expect(token.STRING, "import path string")

	return &ir.ImportSpecifier{Token: tok, Names: names, Path: pathTok.Lexeme, TypeOnly: typeOnly}
}

func (p *Parser) parseTopLevelStatement() ir.Statement {
	exported := false
	if p.curIs(token.EXPORT) {
		exported = true
		p.advance()
	}
	stmt := p.parseStatement()
	applyExported(stmt, exported)
	return stmt
}

func applyExported(s ir.Statement, exported bool) {
	if !exported {
		return
	}
	switch st := s.(type) {
	case *ir.FunctionDeclaration:
		st.Exported = true
	case *ir.ClassDeclaration:
		st.Exported = true
	case *ir.InterfaceDeclaration:
		st.Exported = true
	case *ir.EnumDeclaration:
		st.Exported = true
	case *ir.TypeAliasDeclaration:
		st.Exported = true
	case *ir.VariableDeclaration:
		st.Exported = true
	}
}

func parseIntLiteral(lexeme string) float64 {
	v, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return 0
	}
	return v
}
