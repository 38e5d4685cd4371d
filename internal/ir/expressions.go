package ir

import "github.com/funvibe/tsnc/internal/token"

// Expr is the closed expression family. Every expression node carries
// a mutable inferred-type slot filled in by resolve/specialize and
// consumed by emit for integer-width and nullability decisions.
type Expr interface {
	Node
	Kind() string
	exprNode()
	InferredType() Type
	SetInferredType(Type)
}

// typed is embedded by every expression struct to provide the
// inferred-type slot without repeating the boilerplate.
type typed struct {
	inferred Type
}

func (t *typed) InferredType() Type     { return t.inferred }
func (t *typed) SetInferredType(ty Type) { t.inferred = ty }

// LiteralExpr is a literal value: string, number, boolean, null.
type LiteralExpr struct {
	typed
	Token token.Token
	Value any
}

func (e *LiteralExpr) GetToken() token.Token { return e.Token }
func (e *LiteralExpr) Kind() string          { return "literal" }
func (e *LiteralExpr) exprNode()             {}

// IdentifierExpr references a bound name.
type IdentifierExpr struct {
	typed
	Token token.Token
	Name  string
}

func (e *IdentifierExpr) GetToken() token.Token { return e.Token }
func (e *IdentifierExpr) Kind() string          { return "identifier" }
func (e *IdentifierExpr) exprNode()             {}

// BinaryExpr is a binary operator expression (+, -, ==, <, etc).
type BinaryExpr struct {
	typed
	Token    token.Token
	Operator string
	Left     Expr
	Right    Expr
}

func (e *BinaryExpr) GetToken() token.Token { return e.Token }
func (e *BinaryExpr) Kind() string          { return "binary" }
func (e *BinaryExpr) exprNode()             {}

// LogicalExpr is &&, ||, or ??.
type LogicalExpr struct {
	typed
	Token    token.Token
	Operator string
	Left     Expr
	Right    Expr
}

func (e *LogicalExpr) GetToken() token.Token { return e.Token }
func (e *LogicalExpr) Kind() string          { return "logical" }
func (e *LogicalExpr) exprNode()             {}

// UnaryExpr is a prefix unary operator (!x, -x, typeof x).
type UnaryExpr struct {
	typed
	Token    token.Token
	Operator string
	Operand  Expr
}

func (e *UnaryExpr) GetToken() token.Token { return e.Token }
func (e *UnaryExpr) Kind() string          { return "unary" }
func (e *UnaryExpr) exprNode()             {}

// UpdateExpr is ++/-- in prefix or postfix position.
type UpdateExpr struct {
	typed
	Token    token.Token
	Operator string
	Operand  Expr
	Prefix   bool
}

func (e *UpdateExpr) GetToken() token.Token { return e.Token }
func (e *UpdateExpr) Kind() string          { return "update" }
func (e *UpdateExpr) exprNode()             {}

// AssignmentExpr is `target op= value`.
type AssignmentExpr struct {
	typed
	Token    token.Token
	Operator string
	Target   Expr
	Value    Expr
}

func (e *AssignmentExpr) GetToken() token.Token { return e.Token }
func (e *AssignmentExpr) Kind() string          { return "assignment" }
func (e *AssignmentExpr) exprNode()             {}

// ConditionalExpr is `test ? consequent : alternate`.
type ConditionalExpr struct {
	typed
	Token      token.Token
	Test       Expr
	Consequent Expr
	Alternate  Expr
}

func (e *ConditionalExpr) GetToken() token.Token { return e.Token }
func (e *ConditionalExpr) Kind() string          { return "conditional" }
func (e *ConditionalExpr) exprNode()             {}

// CallExpr is a function/method call, possibly with explicit type
// arguments feeding the specialisation engine.
type CallExpr struct {
	typed
	Token         token.Token
	Callee        Expr
	Arguments     []Expr
	TypeArguments []Type
}

func (e *CallExpr) GetToken() token.Token { return e.Token }
func (e *CallExpr) Kind() string          { return "call" }
func (e *CallExpr) exprNode()             {}

// NewExpr is `new T<...>(...)`.
type NewExpr struct {
	typed
	Token         token.Token
	Callee        Expr
	Arguments     []Expr
	TypeArguments []Type
}

func (e *NewExpr) GetToken() token.Token { return e.Token }
func (e *NewExpr) Kind() string          { return "new" }
func (e *NewExpr) exprNode()             {}

// MemberExpr is `object.property` or `object[computed]`, optionally a
// `?.` optional-chain access.
type MemberExpr struct {
	typed
	Token         token.Token
	Object        Expr
	Property      string
	ComputedExpr  Expr // set when Computed is true
	Computed      bool
	OptionalChain bool
}

func (e *MemberExpr) GetToken() token.Token { return e.Token }
func (e *MemberExpr) Kind() string          { return "member" }
func (e *MemberExpr) exprNode()             {}

// ArrayExpr is an array literal. Origin records whether its type came
// from an explicit annotation or was inferred (drives numeric width).
type ArrayExpr struct {
	typed
	Token    token.Token
	Elements []Expr
	Origin   Origin
}

func (e *ArrayExpr) GetToken() token.Token { return e.Token }
func (e *ArrayExpr) Kind() string          { return "array" }
func (e *ArrayExpr) exprNode()             {}

// ObjectProperty is one `key: value` entry of an object literal.
type ObjectProperty struct {
	Key      string
	Value    Expr
	Computed bool
	Spread   bool
}

// ObjectExpr is an object literal.
type ObjectExpr struct {
	typed
	Token      token.Token
	Properties []ObjectProperty
}

func (e *ObjectExpr) GetToken() token.Token { return e.Token }
func (e *ObjectExpr) Kind() string          { return "object" }
func (e *ObjectExpr) exprNode()             {}

// ArrowFunctionExpr is `(params) => body`, where Body is either an
// Expr (expression-bodied arrow) or a *BlockStatement.
type ArrowFunctionExpr struct {
	typed
	Token      token.Token
	Parameters []Param
	ReturnType Type
	Body       Node
	IsAsync    bool
}

func (e *ArrowFunctionExpr) GetToken() token.Token { return e.Token }
func (e *ArrowFunctionExpr) Kind() string          { return "arrowFunction" }
func (e *ArrowFunctionExpr) exprNode()             {}

// FunctionExpr is a function expression (named or anonymous).
type FunctionExpr struct {
	typed
	Token       token.Token
	Name        string
	Parameters  []Param
	ReturnType  Type
	Body        *BlockStatement
	IsAsync     bool
	IsGenerator bool
}

func (e *FunctionExpr) GetToken() token.Token { return e.Token }
func (e *FunctionExpr) Kind() string          { return "functionExpr" }
func (e *FunctionExpr) exprNode()             {}

// TemplateLiteralExpr is a template string with embedded expressions,
// lowering to C# interpolated string `$"..."` (spec §4.3).
type TemplateLiteralExpr struct {
	typed
	Token       token.Token
	Quasis      []string // len(Quasis) == len(Expressions) + 1
	Expressions []Expr
}

func (e *TemplateLiteralExpr) GetToken() token.Token { return e.Token }
func (e *TemplateLiteralExpr) Kind() string          { return "templateLiteral" }
func (e *TemplateLiteralExpr) exprNode()             {}

// SpreadExpr is `...expr` in an array/object literal or call argument.
type SpreadExpr struct {
	typed
	Token    token.Token
	Argument Expr
}

func (e *SpreadExpr) GetToken() token.Token { return e.Token }
func (e *SpreadExpr) Kind() string          { return "spread" }
func (e *SpreadExpr) exprNode()             {}

// AwaitExpr is `await expr`.
type AwaitExpr struct {
	typed
	Token    token.Token
	Argument Expr
}

func (e *AwaitExpr) GetToken() token.Token { return e.Token }
func (e *AwaitExpr) Kind() string          { return "await" }
func (e *AwaitExpr) exprNode()             {}

// YieldExpr is `yield expr` or `yield* expr`. The emitter lowers it to
// a `yield return` statement; a value pushed back into the generator is
// not modelled.
type YieldExpr struct {
	typed
	Token    token.Token
	Argument Expr // nil for a bare `yield`
	Delegate bool
}

func (e *YieldExpr) GetToken() token.Token { return e.Token }
func (e *YieldExpr) Kind() string          { return "yield" }
func (e *YieldExpr) exprNode()             {}
