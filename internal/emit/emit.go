// Package emit walks the specialised IR and produces C# source
// fragments: polymorphic dispatch from IR kind to handler, namespace
// and static-container synthesis, and the integer-width/nullability
// lowering rules of spec §4.3. Grounded on the teacher's
// internal/backend (Backend interface selecting an emission strategy)
// and internal/prettyprinter (indentation/fragment accumulation).
package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/tsnc/internal/bindings"
	"github.com/funvibe/tsnc/internal/context"
	"github.com/funvibe/tsnc/internal/diagnostics"
	"github.com/funvibe/tsnc/internal/ir"
	"github.com/funvibe/tsnc/internal/resolve"
)

// Fragment is the result of emitting one IR node: text plus the set
// of using directives and any newly introduced names (e.g. a
// specialised class name, an anonymous-object-type name) it requires.
type Fragment struct {
	Text            string
	RequiredUsings  map[string]bool
	IntroducedNames []string
}

func frag(text string) Fragment {
	return Fragment{Text: text, RequiredUsings: map[string]bool{}}
}

func (f *Fragment) use(using string) {
	if f.RequiredUsings == nil {
		f.RequiredUsings = map[string]bool{}
	}
	f.RequiredUsings[using] = true
}

func merge(into *Fragment, from Fragment) {
	for u := range from.RequiredUsings {
		into.use(u)
	}
	into.IntroducedNames = append(into.IntroducedNames, from.IntroducedNames...)
}

// Context carries emission-time state: current indentation depth,
// current class name (for `this`-relative lowering), scope flags
// (static/async/checked-numeric), and the owning module's accumulating
// using-set in the program context (spec §4.3).
type Context struct {
	Program          *context.Program
	Bindings         *bindings.Table
	ModulePath       string
	IndentDepth      int
	CurrentClassName string
	InStaticScope    bool
	InAsyncScope     bool
	CheckedNumeric   bool
	// IsModuleField marks a variableDeclaration emitted directly as a
	// static-container member rather than a Main-local statement,
	// deciding the public/static/readonly modifier prefix independent
	// of indentation depth.
	IsModuleField bool
	Diagnostics   *diagnostics.Bag
}

func (c *Context) indent() string {
	return strings.Repeat("    ", c.IndentDepth)
}

func (c *Context) nested() *Context {
	n := *c
	n.IndentDepth++
	return &n
}

func (c *Context) useUsing(using string) {
	c.Program.RequireUsing(c.ModulePath, using)
}

// EmitResult is the file-emitter collaborator's input: one per input
// module, guaranteeing requiredUsings is sorted, deduplicated and
// minimal (spec §6).
type EmitResult struct {
	Path           string
	NamespaceName  string
	Text           string
	RequiredUsings []string
	Diagnostics    []*diagnostics.Diagnostic
}

// stmtHandler and exprHandler are the polymorphic-dispatch handler
// shapes: pure functions of (node, context) returning a Fragment.
// emitStatement/emitExpression below implement the "single table maps
// each IR kind to a handler" dispatch spec §4.3 calls for, keyed by
// each node's Kind() discriminant and backed by an exhaustive type
// switch (idiomatic Go for a closed sum type).
type stmtHandler func(*Context, ir.Statement) Fragment
type exprHandler func(*Context, ir.Expr) Fragment

var stmtHandlers map[string]stmtHandler
var exprHandlers map[string]exprHandler

func init() {
	stmtHandlers = map[string]stmtHandler{
		"functionDeclaration":  emitFunctionDeclaration,
		"classDeclaration":     emitClassDeclaration,
		"interfaceDeclaration": emitInterfaceDeclaration,
		"enumDeclaration":      emitEnumDeclaration,
		"typeAliasDeclaration": emitTypeAliasDeclaration,
		"variableDeclaration":  emitVariableDeclaration,
		"blockStatement":       emitBlockStatement,
		"ifStatement":          emitIfStatement,
		"forStatement":         emitForStatement,
		"forOfStatement":       emitForOfStatement,
		"whileStatement":       emitWhileStatement,
		"tryStatement":         emitTryStatement,
		"throwStatement":       emitThrowStatement,
		"returnStatement":      emitReturnStatement,
		"breakStatement":       func(c *Context, s ir.Statement) Fragment { return frag(c.indent() + "break;\n") },
		"continueStatement":    func(c *Context, s ir.Statement) Fragment { return frag(c.indent() + "continue;\n") },
		"expressionStatement":  emitExpressionStatement,
	}

	exprHandlers = map[string]exprHandler{
		"literal":         emitLiteral,
		"identifier":      emitIdentifier,
		"binary":          emitBinary,
		"logical":         emitLogical,
		"unary":           emitUnary,
		"update":          emitUpdate,
		"assignment":      emitAssignment,
		"conditional":     emitConditional,
		"call":            emitCall,
		"new":             emitNew,
		"member":          emitMember,
		"array":           emitArray,
		"object":          emitObject,
		"arrowFunction":   emitArrowFunction,
		"functionExpr":    emitFunctionExpr,
		"templateLiteral": emitTemplateLiteral,
		"spread":          emitSpread,
		"await":           emitAwait,
		"yield":           emitYield,
	}
}

// EmitStatement dispatches a statement to its handler. Unknown kinds
// cannot occur against the closed ir.Statement family except through
// a programming error, so this is a structural fatal.
func EmitStatement(c *Context, s ir.Statement) Fragment {
	h, ok := stmtHandlers[s.Kind()]
	if !ok {
		c.Diagnostics.Add(diagnostics.Fatal(diagnostics.ErrUnknownKind, diagnostics.KindStructural, diagnostics.LocationFromToken(c.ModulePath, s.GetToken()), "no emission handler for statement kind %q", s.Kind()))
		return frag("")
	}
	fragment := h(c, s)
	for u := range fragment.RequiredUsings {
		c.useUsing(u)
	}
	return fragment
}

// EmitExpression dispatches an expression to its handler.
func EmitExpression(c *Context, e ir.Expr) Fragment {
	h, ok := exprHandlers[e.Kind()]
	if !ok {
		c.Diagnostics.Add(diagnostics.Fatal(diagnostics.ErrUnknownKind, diagnostics.KindStructural, diagnostics.LocationFromToken(c.ModulePath, e.GetToken()), "no emission handler for expression kind %q", e.Kind()))
		return frag("")
	}
	fragment := h(c, e)
	for u := range fragment.RequiredUsings {
		c.useUsing(u)
	}
	return fragment
}

// emitBlock renders a braced statement sequence at the given context's
// indentation depth.
func emitBlock(c *Context, b *ir.BlockStatement) string {
	var sb strings.Builder
	sb.WriteString("{\n")
	inner := c.nested()
	for _, s := range b.Statements {
		f := EmitStatement(inner, s)
		sb.WriteString(f.Text)
	}
	sb.WriteString(c.indent() + "}\n")
	return sb.String()
}

// CSharpType renders an IR type as C# source text, applying the
// nullability rules of spec §4.3: `T | null` -> `T?`; `T | undefined`
// alone -> `T?`; `T | null | undefined` -> `T?` with the
// ErrNullUndefinedSplit warning that csharpUnion records.
func CSharpType(c *Context, t ir.Type) string {
	if ref, ok := t.(*ir.ReferenceType); ok {
		if resolved, err := resolve.ResolveAlias(c.Program, ref); err == nil && resolved != ref {
			return CSharpType(c, resolved)
		} else if err != nil {
			c.Diagnostics.Add(diagnostics.Fatal(diagnostics.ErrAliasCycle, diagnostics.KindType,
				diagnostics.Location{File: c.ModulePath}, "%s", err.Error()))
			return "object"
		}
	}
	switch typ := t.(type) {
	case *ir.PrimitiveType:
		return primitiveCSharpName(typ.Name)
	case *ir.LiteralType:
		return literalCSharpType(typ.Value)
	case *ir.ArrayType:
		return CSharpType(c, resolve.ArrayElementType(typ)) + "[]"
	case *ir.ReferenceType:
		return csharpReference(c, typ)
	case *ir.FunctionType:
		return csharpFunctionType(c, typ)
	case *ir.ObjectType:
		// No pass gives anonymous object types a synthesised name, so
		// every one falls back to `object` with a diagnostic.
		c.Diagnostics.Add(diagnostics.Warning(diagnostics.ErrUnsupportedAny, diagnostics.KindUnsupported, diagnostics.Location{File: c.ModulePath}, "anonymous object type emitted without a synthesised name"))
		return "object"
	case *ir.UnionType:
		return csharpUnion(c, typ)
	case *ir.IntersectionType:
		// No direct C# equivalent: emit the first member's shape and
		// warn (spec §7 "unsupported -> diagnostic; best-effort placeholder").
		c.Diagnostics.Add(diagnostics.Warning(diagnostics.ErrUnsupportedAny, diagnostics.KindUnsupported, diagnostics.Location{File: c.ModulePath}, "intersection type lowered to its first member only"))
		if len(typ.Types) > 0 {
			return CSharpType(c, typ.Types[0])
		}
		return "object"
	case *ir.TupleType:
		parts := make([]string, len(typ.Elements))
		for i, e := range typ.Elements {
			parts[i] = CSharpType(c, e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ir.TypeParameterRef:
		return typ.Name
	default:
		return "object"
	}
}

func primitiveCSharpName(name string) string {
	switch name {
	case ir.PrimBoolean:
		return "bool"
	case ir.PrimString:
		return "string"
	case ir.PrimNumber:
		return "double"
	case ir.PrimInt:
		return "int"
	case ir.PrimLong:
		return "long"
	case ir.PrimVoid:
		return "void"
	case ir.PrimUnknown, ir.PrimAny:
		return "object"
	case ir.PrimNever:
		return "void"
	case ir.PrimNull, ir.PrimUndefined:
		return "object"
	case ir.PrimStructMarker:
		return "struct"
	default:
		return name
	}
}

func literalCSharpType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "double"
	case bool:
		return "bool"
	default:
		return "object"
	}
}

func csharpReference(c *Context, ref *ir.ReferenceType) string {
	if resolved, ok := c.Bindings.Lookup(ref.Name); ok {
		c.useUsing(resolved.Namespace)
		return resolved.QualifiedName(ref, func(t ir.Type) string { return CSharpType(c, t) })
	}
	isValueType := c.Program.NominalEnv.IsValueType(ref.Name)
	_ = isValueType
	if len(ref.TypeArguments) == 0 {
		return ref.Name
	}
	args := make([]string, len(ref.TypeArguments))
	for i, a := range ref.TypeArguments {
		args[i] = CSharpType(c, a)
	}
	return fmt.Sprintf("%s<%s>", ref.Name, strings.Join(args, ", "))
}

func csharpFunctionType(c *Context, ft *ir.FunctionType) string {
	params := make([]string, len(ft.Parameters))
	for i, p := range ft.Parameters {
		params[i] = CSharpType(c, p.Type)
	}
	ret := CSharpType(c, ft.ReturnType)
	if ret == "void" {
		if len(params) == 0 {
			return "Action"
		}
		return fmt.Sprintf("Action<%s>", strings.Join(params, ", "))
	}
	all := append(params, ret)
	return fmt.Sprintf("Func<%s>", strings.Join(all, ", "))
}

// csharpUnion lowers a union type per spec §4.3's nullability rules,
// stripping null/undefined to decide `T?` vs. the bare member type.
// Every union holding both null and undefined gets an
// ErrNullUndefinedSplit warning here, whether or not the position
// distinguishes the two.
func csharpUnion(c *Context, u *ir.UnionType) string {
	if resolve.HasDistinctNullAndUndefined(u) {
		c.Diagnostics.Add(diagnostics.Warning(diagnostics.ErrNullUndefinedSplit, diagnostics.KindType,
			diagnostics.Location{File: c.ModulePath}, "union distinguishes null from undefined; both lower to C# nullable"))
	}

	stripped, nullable := resolve.StripNullish(u)
	if stripped == nil {
		return "object"
	}

	var inner string
	if _, ok := stripped.(*ir.UnionType); ok {
		c.Diagnostics.Add(diagnostics.Warning(diagnostics.ErrUnsupportedAny, diagnostics.KindUnsupported, diagnostics.Location{File: c.ModulePath}, "multi-member union lowered to object; discriminated access should narrow before reaching here"))
		inner = "object"
	} else {
		inner = CSharpType(c, stripped)
	}

	if nullable {
		return inner + "?"
	}
	return inner
}

// sortedUsings returns a module's accumulated using-set sorted and
// deduplicated, the guarantee spec §6 requires of EmitResult.
func sortedUsings(c *Context) []string {
	usings := c.Program.Usings(c.ModulePath)
	sort.Strings(usings)
	return usings
}
