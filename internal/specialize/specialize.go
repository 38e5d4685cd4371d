// Package specialize implements monomorphisation: collecting
// instantiation requests, substituting under a type environment,
// generating specialised non-generic declarations with deterministic
// names, and coalescing duplicates (spec §4.2). Grounded on the
// teacher's internal/typesystem/replace.go (capture-avoiding
// substitution) and internal/analyzer/declarations_instances*.go
// (instantiation-request collection from call sites).
package specialize

import (
	"fmt"

	"github.com/funvibe/tsnc/internal/context"
	"github.com/funvibe/tsnc/internal/diagnostics"
	"github.com/funvibe/tsnc/internal/ir"
)

// Request is a single monomorphisation request gathered from a call
// site: `new T<...>`, a call with explicit type arguments, a class
// `extends` clause with concrete arguments, or an object literal typed
// by a generic reference.
type Request struct {
	DeclarationName string
	TypeArguments   []ir.Type
}

// GenericRecursionDepthError is returned when the fixed-point worklist
// exceeds the bounded iteration count — divergent recursive
// instantiation (spec §4.2, §7).
type GenericRecursionDepthError struct {
	DeclarationName string
}

func (e *GenericRecursionDepthError) Error() string {
	return fmt.Sprintf("generic recursion depth exceeded specialising %q", e.DeclarationName)
}

const maxIterations = 10000

// Collect walks every statement/expression of every module and
// gathers the initial set of specialisation requests. Requests found
// inside a generic declaration's own body are deferred — they surface
// again once that declaration is itself specialised, forming the
// transitive closure handled by Engine.Run.
func Collect(modules map[string]*ir.Module) []Request {
	var reqs []Request
	collector := &requestCollector{}
	for _, mod := range modules {
		for _, stmt := range mod.Statements {
			collector.visitStatement(stmt)
		}
	}
	reqs = append(reqs, collector.requests...)
	return reqs
}

type requestCollector struct {
	requests []Request
}

func (c *requestCollector) visitStatement(s ir.Statement) {
	switch st := s.(type) {
	case *ir.FunctionDeclaration:
		c.visitBlock(st.Body)
	case *ir.ClassDeclaration:
		if st.SuperClass != nil && len(st.SuperClass.TypeArguments) > 0 {
			c.requests = append(c.requests, Request{DeclarationName: st.SuperClass.Name, TypeArguments: st.SuperClass.TypeArguments})
		}
		for _, m := range st.Members {
			if m.Method != nil {
				c.visitBlock(m.Method.Body)
			}
		}
	case *ir.VariableDeclaration:
		if st.Init != nil {
			c.visitExpr(st.Init)
		}
	case *ir.BlockStatement:
		c.visitBlock(st)
	case *ir.IfStatement:
		c.visitExpr(st.Test)
		c.visitStatement(st.Consequent)
		if st.Alternate != nil {
			c.visitStatement(st.Alternate)
		}
	case *ir.ForStatement:
		if st.Init != nil {
			c.visitStatement(st.Init)
		}
		if st.Test != nil {
			c.visitExpr(st.Test)
		}
		if st.Update != nil {
			c.visitExpr(st.Update)
		}
		c.visitStatement(st.Body)
	case *ir.ForOfStatement:
		c.visitExpr(st.Iterable)
		c.visitStatement(st.Body)
	case *ir.WhileStatement:
		c.visitExpr(st.Test)
		c.visitStatement(st.Body)
	case *ir.TryStatement:
		c.visitBlock(st.Block)
		if st.CatchBlock != nil {
			c.visitBlock(st.CatchBlock)
		}
		if st.FinallyBlock != nil {
			c.visitBlock(st.FinallyBlock)
		}
	case *ir.ThrowStatement:
		c.visitExpr(st.Argument)
	case *ir.ReturnStatement:
		if st.Argument != nil {
			c.visitExpr(st.Argument)
		}
	case *ir.ExpressionStatement:
		c.visitExpr(st.Expression)
	}
}

func (c *requestCollector) visitBlock(b *ir.BlockStatement) {
	if b == nil {
		return
	}
	for _, s := range b.Statements {
		c.visitStatement(s)
	}
}

func (c *requestCollector) visitExpr(e ir.Expr) {
	if e == nil {
		return
	}
	switch ex := e.(type) {
	case *ir.NewExpr:
		if len(ex.TypeArguments) > 0 {
			// `new Promise<T>(...)` is lowered structurally by emitNew and
			// has no generic declaration to specialise.
			if ref, ok := calleeName(ex.Callee); ok && ref != "Promise" {
				c.requests = append(c.requests, Request{DeclarationName: ref, TypeArguments: ex.TypeArguments})
			}
		}
		for _, a := range ex.Arguments {
			c.visitExpr(a)
		}
	case *ir.CallExpr:
		if len(ex.TypeArguments) > 0 {
			if ref, ok := calleeName(ex.Callee); ok {
				c.requests = append(c.requests, Request{DeclarationName: ref, TypeArguments: ex.TypeArguments})
			}
		}
		c.visitExpr(ex.Callee)
		for _, a := range ex.Arguments {
			c.visitExpr(a)
		}
	case *ir.ObjectExpr:
		if ref, ok := ex.InferredType().(*ir.ReferenceType); ok && len(ref.TypeArguments) > 0 {
			c.requests = append(c.requests, Request{DeclarationName: ref.Name, TypeArguments: ref.TypeArguments})
		}
		for _, p := range ex.Properties {
			c.visitExpr(p.Value)
		}
	case *ir.BinaryExpr:
		c.visitExpr(ex.Left)
		c.visitExpr(ex.Right)
	case *ir.LogicalExpr:
		c.visitExpr(ex.Left)
		c.visitExpr(ex.Right)
	case *ir.UnaryExpr:
		c.visitExpr(ex.Operand)
	case *ir.UpdateExpr:
		c.visitExpr(ex.Operand)
	case *ir.AssignmentExpr:
		c.visitExpr(ex.Target)
		c.visitExpr(ex.Value)
	case *ir.ConditionalExpr:
		c.visitExpr(ex.Test)
		c.visitExpr(ex.Consequent)
		c.visitExpr(ex.Alternate)
	case *ir.MemberExpr:
		c.visitExpr(ex.Object)
		if ex.Computed {
			c.visitExpr(ex.ComputedExpr)
		}
	case *ir.ArrayExpr:
		for _, el := range ex.Elements {
			c.visitExpr(el)
		}
	case *ir.ArrowFunctionExpr:
		if body, ok := ex.Body.(ir.Expr); ok {
			c.visitExpr(body)
		} else if block, ok := ex.Body.(*ir.BlockStatement); ok {
			c.visitBlock(block)
		}
	case *ir.FunctionExpr:
		c.visitBlock(ex.Body)
	case *ir.TemplateLiteralExpr:
		for _, sub := range ex.Expressions {
			c.visitExpr(sub)
		}
	case *ir.SpreadExpr:
		c.visitExpr(ex.Argument)
	case *ir.AwaitExpr:
		c.visitExpr(ex.Argument)
	case *ir.YieldExpr:
		if ex.Argument != nil {
			c.visitExpr(ex.Argument)
		}
	}
}

func calleeName(e ir.Expr) (string, bool) {
	if id, ok := e.(*ir.IdentifierExpr); ok {
		return id.Name, true
	}
	return "", false
}

// Engine runs the fixed-point worklist: each unique (declarationName,
// θ) request is substituted into one specialised declaration, coalesced
// by its serialised key; requests surfacing inside a newly generated
// body feed back into the worklist until none remain (spec §4.2, §5 —
// deterministic, insertion-order iteration).
type Engine struct {
	Program *context.Program
	// Specialized holds, per owning module path, the specialised
	// declarations appended during this run, in generation order. A
	// base specialisation first requested by a derived class's extends
	// clause is generated, and listed, after that derived class.
	Specialized map[string][]ir.Statement
	// DeclarationModule maps an original generic declaration's name to
	// the module path that owns it, so a specialised copy is appended
	// to the same module.
	DeclarationModule map[string]string
}

func NewEngine(prog *context.Program, declarationModule map[string]string) *Engine {
	return &Engine{Program: prog, Specialized: map[string][]ir.Statement{}, DeclarationModule: declarationModule}
}

// Run drains the worklist starting from the initial requests,
// returning the first fatal diagnostic encountered (missing type
// declaration, arity mismatch, or recursion-depth overflow).
func (e *Engine) Run(initial []Request) *diagnostics.Diagnostic {
	worklist := append([]Request(nil), initial...)
	iterations := 0

	for len(worklist) > 0 {
		req := worklist[0]
		worklist = worklist[1:]

		iterations++
		if iterations > maxIterations {
			return diagnostics.Fatal(diagnostics.ErrGenericRecursion, diagnostics.KindGenerics,
				diagnostics.Location{}, "%s", (&GenericRecursionDepthError{DeclarationName: req.DeclarationName}).Error())
		}

		key := Key(req.DeclarationName, req.TypeArguments)
		if _, ok := e.Program.LookupSpecialization(key); ok {
			continue // coalesced: duplicate request
		}

		decl, ok := e.Program.TypeRegistry.Lookup(req.DeclarationName)
		if !ok {
			return diagnostics.Fatal(diagnostics.ErrMissingTypeArgs, diagnostics.KindGenerics,
				diagnostics.Location{}, "no generic declaration named %q", req.DeclarationName)
		}

		specialized, nested, err := e.substituteDeclaration(decl, req.TypeArguments, key)
		if err != nil {
			return err
		}

		e.Program.CacheSpecialization(key, specialized)
		modPath := e.DeclarationModule[req.DeclarationName]
		e.Specialized[modPath] = append(e.Specialized[modPath], specialized)

		worklist = append(worklist, nested...)
	}
	return nil
}

// substituteDeclaration applies θ to a generic declaration, producing
// a specialised, non-generic copy under its deterministic name, plus
// any nested specialisation requests discovered while substituting
// (e.g. a base class reference still carrying type arguments).
func (e *Engine) substituteDeclaration(decl ir.Statement, args []ir.Type, key string) (ir.Statement, []Request, *diagnostics.Diagnostic) {
	switch d := decl.(type) {
	case *ir.ClassDeclaration:
		if len(args) != len(d.TypeParameters) {
			return nil, nil, diagnostics.Fatal(diagnostics.ErrMissingTypeArgs, diagnostics.KindGenerics,
				diagnostics.LocationFromToken(e.DeclarationModule[d.Name], d.GetToken()), "expected %d type arguments for %q, got %d", len(d.TypeParameters), d.Name, len(args))
		}
		theta := ir.Subst{}
		for i, tp := range d.TypeParameters {
			theta[tp.Name] = args[i]
		}
		newMembers := make([]ir.ClassMember, len(d.Members))
		var nested []Request
		for i, m := range d.Members {
			newMembers[i] = m
			if m.Type != nil {
				newMembers[i].Type = m.Type.Apply(theta)
			}
			if m.Method != nil {
				method := *m.Method
				method.ReturnType = method.ReturnType.Apply(theta)
				params := make([]ir.Param, len(method.Parameters))
				for j, p := range method.Parameters {
					pp := p
					if pp.Type != nil {
						pp.Type = pp.Type.Apply(theta)
					}
					params[j] = pp
				}
				method.Parameters = params
				newMembers[i].Method = &method
			}
		}
		var super *ir.ReferenceType
		if d.SuperClass != nil {
			applied := d.SuperClass.Apply(theta)
			if ref, ok := applied.(*ir.ReferenceType); ok {
				super = ref
				if len(ref.TypeArguments) > 0 {
					nested = append(nested, Request{DeclarationName: ref.Name, TypeArguments: ref.TypeArguments})
				}
			}
		}
		specialized := &ir.ClassDeclaration{
			Token:          d.Token,
			Name:           Name(d.Name, args),
			TypeParameters: nil,
			SuperClass:     super,
			Implements:     d.Implements,
			Members:        newMembers,
			IsStructMarker: d.IsStructMarker,
		}
		return specialized, nested, nil

	case *ir.FunctionDeclaration:
		if len(args) != len(d.TypeParameters) {
			return nil, nil, diagnostics.Fatal(diagnostics.ErrMissingTypeArgs, diagnostics.KindGenerics,
				diagnostics.LocationFromToken(e.DeclarationModule[d.Name], d.GetToken()), "expected %d type arguments for %q, got %d", len(d.TypeParameters), d.Name, len(args))
		}
		theta := ir.Subst{}
		for i, tp := range d.TypeParameters {
			theta[tp.Name] = args[i]
		}
		params := make([]ir.Param, len(d.Parameters))
		for i, p := range d.Parameters {
			pp := p
			if pp.Type != nil {
				pp.Type = pp.Type.Apply(theta)
			}
			params[i] = pp
		}
		specialized := &ir.FunctionDeclaration{
			Token:          d.Token,
			Name:           Name(d.Name, args),
			Parameters:     params,
			ReturnType:     d.ReturnType.Apply(theta),
			TypeParameters: nil,
			Body:           d.Body,
			IsAsync:        d.IsAsync,
			IsGenerator:    d.IsGenerator,
		}
		return specialized, nil, nil

	default:
		return nil, nil, diagnostics.Fatal(diagnostics.ErrUnknownKind, diagnostics.KindStructural,
			diagnostics.LocationFromToken("", decl.GetToken()), "declaration kind %q cannot be specialised", decl.Kind())
	}
}
