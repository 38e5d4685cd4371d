package ir

import "github.com/funvibe/tsnc/internal/token"

// Statement is the closed statement family: function, class,
// interface, enum, type-alias, variable, block, control flow, try,
// throw, return, expression statement.
type Statement interface {
	Node
	Kind() string
	stmtNode()
}

// Module is one input source file's IR: its ordered statements plus
// its import/export surface.
type Module struct {
	Path       string
	Namespace  string // derived from Path, e.g. pkg/foo/bar.ts -> Pkg.Foo
	ClassName  string // derived from Path's base name, e.g. Bar
	Statements []Statement
	Imports    []*ImportSpecifier
	Exports    map[string]bool // exported top-level names
}

// ImportedName is a single `{ a, b as c }` import clause entry.
type ImportedName struct {
	Name  string
	Alias string
}

// ImportSpecifier is one `import { ... } from "path"` statement.
// TypeOnly imports are erased at emission and do not count as value
// edges in the dependency graph (spec §4.4).
type ImportSpecifier struct {
	Token    token.Token
	Names    []ImportedName
	Path     string
	TypeOnly bool
}

func (i *ImportSpecifier) GetToken() token.Token { return i.Token }

// FunctionDeclaration is a top-level or nested named function.
type FunctionDeclaration struct {
	Token          token.Token
	Name           string
	Parameters     []Param
	ReturnType     Type
	TypeParameters []TypeParam
	Body           *BlockStatement
	IsAsync        bool
	IsGenerator    bool
	Exported       bool
}

func (s *FunctionDeclaration) GetToken() token.Token { return s.Token }
func (s *FunctionDeclaration) Kind() string          { return "functionDeclaration" }
func (s *FunctionDeclaration) stmtNode()             {}

// ClassMember is a field or method of a class/interface body.
type ClassMember struct {
	Name     string
	Type     Type // field type, or nil when Method is set
	Method   *FunctionDeclaration
	Optional bool
	Readonly bool
	Static   bool
}

// ClassDeclaration is a class definition. When it implements a
// struct-marker interface it lowers to a C# value type and every
// descendant must agree (spec invariant).
type ClassDeclaration struct {
	Token          token.Token
	Name           string
	TypeParameters []TypeParam
	SuperClass     *ReferenceType
	Implements     []*ReferenceType
	Members        []ClassMember
	IsStructMarker bool
	Exported       bool
	// BindingName names a binding-table entry for the class. The parser
	// does not set it (the lexer has no `@` token) and the emitter does
	// not read it.
	BindingName string
}

func (s *ClassDeclaration) GetToken() token.Token { return s.Token }
func (s *ClassDeclaration) Kind() string          { return "classDeclaration" }
func (s *ClassDeclaration) stmtNode()             {}

// InterfaceDeclaration is an interface definition.
type InterfaceDeclaration struct {
	Token          token.Token
	Name           string
	TypeParameters []TypeParam
	Extends        []*ReferenceType
	Members        []Member
	Exported       bool
}

func (s *InterfaceDeclaration) GetToken() token.Token { return s.Token }
func (s *InterfaceDeclaration) Kind() string          { return "interfaceDeclaration" }
func (s *InterfaceDeclaration) stmtNode()             {}

// EnumMember is one case of an enum declaration.
type EnumMember struct {
	Name  string
	Value Expr // literal value, nil when auto-numbered
}

// EnumDeclaration is an enum definition.
type EnumDeclaration struct {
	Token    token.Token
	Name     string
	Members  []EnumMember
	Exported bool
}

func (s *EnumDeclaration) GetToken() token.Token { return s.Token }
func (s *EnumDeclaration) Kind() string          { return "enumDeclaration" }
func (s *EnumDeclaration) stmtNode()             {}

// TypeAliasDeclaration is a `type X<...> = ...` definition.
type TypeAliasDeclaration struct {
	Token          token.Token
	Name           string
	TypeParameters []TypeParam
	Target         Type
	Exported       bool
}

func (s *TypeAliasDeclaration) GetToken() token.Token { return s.Token }
func (s *TypeAliasDeclaration) Kind() string          { return "typeAliasDeclaration" }
func (s *TypeAliasDeclaration) stmtNode()             {}

// VariableDeclaration is a const/let/var declaration. At module level,
// it becomes a static field when it is exported or referenced by name
// anywhere in the module's top-level code, and a Main-local variable
// otherwise.
type VariableDeclaration struct {
	Token    token.Token
	VarKind  string // "const" | "let" | "var"
	Name     string
	VarType  Type // nil when inferred from Init
	Init     Expr
	Exported bool
}

func (s *VariableDeclaration) GetToken() token.Token { return s.Token }
func (s *VariableDeclaration) Kind() string          { return "variableDeclaration" }
func (s *VariableDeclaration) stmtNode()             {}

// BlockStatement is a `{ ... }` sequence of statements.
type BlockStatement struct {
	Token      token.Token
	Statements []Statement
}

func (s *BlockStatement) GetToken() token.Token { return s.Token }
func (s *BlockStatement) Kind() string          { return "blockStatement" }
func (s *BlockStatement) stmtNode()             {}

// IfStatement is an if/else conditional.
type IfStatement struct {
	Token       token.Token
	Test        Expr
	Consequent  Statement
	Alternate   Statement // nil when there is no else branch
}

func (s *IfStatement) GetToken() token.Token { return s.Token }
func (s *IfStatement) Kind() string          { return "ifStatement" }
func (s *IfStatement) stmtNode()             {}

// ForStatement is a classic C-style for loop.
type ForStatement struct {
	Token  token.Token
	Init   Statement
	Test   Expr
	Update Expr
	Body   Statement
}

func (s *ForStatement) GetToken() token.Token { return s.Token }
func (s *ForStatement) Kind() string          { return "forStatement" }
func (s *ForStatement) stmtNode()             {}

// ForOfStatement is a `for (const x of xs)` loop; it lowers to
// `foreach` over an array/list (spec §4.3).
type ForOfStatement struct {
	Token    token.Token
	VarName  string
	VarType  Type
	Iterable Expr
	Body     Statement
}

func (s *ForOfStatement) GetToken() token.Token { return s.Token }
func (s *ForOfStatement) Kind() string          { return "forOfStatement" }
func (s *ForOfStatement) stmtNode()             {}

// WhileStatement is a while loop.
type WhileStatement struct {
	Token token.Token
	Test  Expr
	Body  Statement
}

func (s *WhileStatement) GetToken() token.Token { return s.Token }
func (s *WhileStatement) Kind() string          { return "whileStatement" }
func (s *WhileStatement) stmtNode()             {}

// TryStatement maps to C# try/catch/finally, preserving catch-variable
// scope (spec §4.3).
type TryStatement struct {
	Token          token.Token
	Block          *BlockStatement
	CatchParam     string
	CatchParamType Type
	CatchBlock     *BlockStatement // nil when there is no catch clause
	FinallyBlock   *BlockStatement // nil when there is no finally clause
}

func (s *TryStatement) GetToken() token.Token { return s.Token }
func (s *TryStatement) Kind() string          { return "tryStatement" }
func (s *TryStatement) stmtNode()             {}

// ThrowStatement throws an expression. A non-Error-shaped argument is
// reported as a diagnostic (spec §4.3).
type ThrowStatement struct {
	Token    token.Token
	Argument Expr
}

func (s *ThrowStatement) GetToken() token.Token { return s.Token }
func (s *ThrowStatement) Kind() string          { return "throwStatement" }
func (s *ThrowStatement) stmtNode()             {}

// ReturnStatement returns an optional expression.
type ReturnStatement struct {
	Token    token.Token
	Argument Expr // nil for a bare `return;`
}

func (s *ReturnStatement) GetToken() token.Token { return s.Token }
func (s *ReturnStatement) Kind() string          { return "returnStatement" }
func (s *ReturnStatement) stmtNode()             {}

// BreakStatement is a loop/switch break.
type BreakStatement struct {
	Token token.Token
}

func (s *BreakStatement) GetToken() token.Token { return s.Token }
func (s *BreakStatement) Kind() string          { return "breakStatement" }
func (s *BreakStatement) stmtNode()             {}

// ContinueStatement is a loop continue.
type ContinueStatement struct {
	Token token.Token
}

func (s *ContinueStatement) GetToken() token.Token { return s.Token }
func (s *ContinueStatement) Kind() string          { return "continueStatement" }
func (s *ContinueStatement) stmtNode()             {}

// ExpressionStatement wraps an expression used as a statement.
type ExpressionStatement struct {
	Token      token.Token
	Expression Expr
}

func (s *ExpressionStatement) GetToken() token.Token { return s.Token }
func (s *ExpressionStatement) Kind() string          { return "expressionStatement" }
func (s *ExpressionStatement) stmtNode()             {}
