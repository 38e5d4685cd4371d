package emit

import "github.com/funvibe/tsnc/internal/ir"

// collectReferencedNames walks a set of statements and records every
// identifier name they reference, used by emitMainAndFields to decide
// whether a loose top-level const/let must become a static field: one
// "referenced by exported members" (spec §4.3) in the broad sense of
// being read anywhere else in the module, including the synthesised
// (inherently public) Main method.
func collectReferencedNames(stmts []ir.Statement, into map[string]bool) {
	for _, s := range stmts {
		walkStatementNames(s, into)
	}
}

func walkStatementNames(s ir.Statement, into map[string]bool) {
	if s == nil {
		return
	}
	switch st := s.(type) {
	case *ir.FunctionDeclaration:
		if st.Body != nil {
			walkStatementNames(st.Body, into)
		}
	case *ir.ClassDeclaration:
		for _, m := range st.Members {
			if m.Method != nil && m.Method.Body != nil {
				walkStatementNames(m.Method.Body, into)
			}
		}
	case *ir.VariableDeclaration:
		walkExprNames(st.Init, into)
	case *ir.BlockStatement:
		for _, inner := range st.Statements {
			walkStatementNames(inner, into)
		}
	case *ir.IfStatement:
		walkExprNames(st.Test, into)
		walkStatementNames(st.Consequent, into)
		walkStatementNames(st.Alternate, into)
	case *ir.ForStatement:
		walkStatementNames(st.Init, into)
		walkExprNames(st.Test, into)
		walkExprNames(st.Update, into)
		walkStatementNames(st.Body, into)
	case *ir.ForOfStatement:
		walkExprNames(st.Iterable, into)
		walkStatementNames(st.Body, into)
	case *ir.WhileStatement:
		walkExprNames(st.Test, into)
		walkStatementNames(st.Body, into)
	case *ir.TryStatement:
		if st.Block != nil {
			walkStatementNames(st.Block, into)
		}
		if st.CatchBlock != nil {
			walkStatementNames(st.CatchBlock, into)
		}
		if st.FinallyBlock != nil {
			walkStatementNames(st.FinallyBlock, into)
		}
	case *ir.ThrowStatement:
		walkExprNames(st.Argument, into)
	case *ir.ReturnStatement:
		walkExprNames(st.Argument, into)
	case *ir.ExpressionStatement:
		walkExprNames(st.Expression, into)
	}
}

func walkExprNames(e ir.Expr, into map[string]bool) {
	if e == nil {
		return
	}
	switch ex := e.(type) {
	case *ir.IdentifierExpr:
		into[ex.Name] = true
	case *ir.BinaryExpr:
		walkExprNames(ex.Left, into)
		walkExprNames(ex.Right, into)
	case *ir.LogicalExpr:
		walkExprNames(ex.Left, into)
		walkExprNames(ex.Right, into)
	case *ir.UnaryExpr:
		walkExprNames(ex.Operand, into)
	case *ir.UpdateExpr:
		walkExprNames(ex.Operand, into)
	case *ir.AssignmentExpr:
		walkExprNames(ex.Target, into)
		walkExprNames(ex.Value, into)
	case *ir.ConditionalExpr:
		walkExprNames(ex.Test, into)
		walkExprNames(ex.Consequent, into)
		walkExprNames(ex.Alternate, into)
	case *ir.CallExpr:
		walkExprNames(ex.Callee, into)
		for _, a := range ex.Arguments {
			walkExprNames(a, into)
		}
	case *ir.NewExpr:
		walkExprNames(ex.Callee, into)
		for _, a := range ex.Arguments {
			walkExprNames(a, into)
		}
	case *ir.MemberExpr:
		walkExprNames(ex.Object, into)
		if ex.Computed {
			walkExprNames(ex.ComputedExpr, into)
		}
	case *ir.ArrayExpr:
		for _, el := range ex.Elements {
			walkExprNames(el, into)
		}
	case *ir.ObjectExpr:
		for _, p := range ex.Properties {
			walkExprNames(p.Value, into)
		}
	case *ir.ArrowFunctionExpr:
		switch body := ex.Body.(type) {
		case ir.Expr:
			walkExprNames(body, into)
		case *ir.BlockStatement:
			walkStatementNames(body, into)
		}
	case *ir.FunctionExpr:
		if ex.Body != nil {
			walkStatementNames(ex.Body, into)
		}
	case *ir.TemplateLiteralExpr:
		for _, sub := range ex.Expressions {
			walkExprNames(sub, into)
		}
	case *ir.SpreadExpr:
		walkExprNames(ex.Argument, into)
	case *ir.AwaitExpr:
		walkExprNames(ex.Argument, into)
	case *ir.YieldExpr:
		walkExprNames(ex.Argument, into)
	}
}
