package resolve

import (
	"github.com/funvibe/tsnc/internal/context"
	"github.com/funvibe/tsnc/internal/ir"
)

// ApplyContextualTypes walks a module's statement tree and propagates
// each explicitly-typed declaration's type onto its initializer
// expression tree, so later passes (emission's renderNumeric, array
// element rendering) see a concrete InferredType instead of guessing
// from the literal's Go value alone (spec §4.1's "inference flows
// outside-in"). It is the one orchestrator this package intentionally
// omits everywhere else: resolve's other functions stay pure, call
// this walker once per module from the pipeline, after parsing and
// before emission.
func ApplyContextualTypes(prog *context.Program, mod *ir.Module) {
	for _, s := range mod.Statements {
		applyStatement(prog, s)
	}
}

func applyStatement(prog *context.Program, s ir.Statement) {
	switch st := s.(type) {
	case *ir.VariableDeclaration:
		if st.VarType != nil && st.Init != nil {
			propagate(prog, st.Init, resolvedOrSelf(prog, st.VarType))
		}
	case *ir.FunctionDeclaration:
		for _, p := range st.Parameters {
			if p.Default != nil && p.Type != nil {
				propagate(prog, p.Default, resolvedOrSelf(prog, p.Type))
			}
		}
		if st.Body != nil {
			applyStatement(prog, st.Body)
		}
	case *ir.ClassDeclaration:
		for _, m := range st.Members {
			if m.Method != nil {
				applyStatement(prog, m.Method)
			}
		}
	case *ir.BlockStatement:
		for _, inner := range st.Statements {
			applyStatement(prog, inner)
		}
	case *ir.IfStatement:
		applyStatement(prog, st.Consequent)
		if st.Alternate != nil {
			applyStatement(prog, st.Alternate)
		}
	case *ir.ForStatement:
		if st.Init != nil {
			applyStatement(prog, st.Init)
		}
		applyStatement(prog, st.Body)
	case *ir.ForOfStatement:
		applyStatement(prog, st.Body)
	case *ir.WhileStatement:
		applyStatement(prog, st.Body)
	case *ir.TryStatement:
		if st.Block != nil {
			applyStatement(prog, st.Block)
		}
		if st.CatchBlock != nil {
			applyStatement(prog, st.CatchBlock)
		}
		if st.FinallyBlock != nil {
			applyStatement(prog, st.FinallyBlock)
		}
	case *ir.ReturnStatement:
		// The enclosing function's return type is not threaded through
		// this walk, so a return argument gets no contextual type.
	}
}

func resolvedOrSelf(prog *context.Program, t ir.Type) ir.Type {
	resolved, err := ResolveAlias(prog, t)
	if err != nil {
		return t
	}
	return resolved
}

// propagate pushes a contextual type onto an expression and recurses
// into the shapes spec §4.1 names: array/object literals and their
// elements, numeric literals needing width resolution.
func propagate(prog *context.Program, e ir.Expr, contextual ir.Type) {
	switch expr := e.(type) {
	case *ir.LiteralExpr:
		if resolvedType, diag := WidenNumeric(expr, contextual); diag == nil {
			expr.SetInferredType(resolvedType)
		} else {
			prog.Diagnostics.Add(diag)
			expr.SetInferredType(resolvedType)
		}
	case *ir.ArrayExpr:
		expr.SetInferredType(contextual)
		arrType, ok := contextual.(*ir.ArrayType)
		if !ok {
			return
		}
		elemType := ArrayElementType(arrType)
		for _, el := range expr.Elements {
			propagate(prog, el, elemType)
		}
	case *ir.ObjectExpr:
		expr.SetInferredType(InferObjectLiteral(expr, contextual))
	case *ir.ArrowFunctionExpr:
		if ft, ok := contextual.(*ir.FunctionType); ok {
			expr.Parameters = InferLambdaParamTypes(expr, ft)
		}
	}
}
