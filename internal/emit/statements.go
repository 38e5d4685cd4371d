package emit

import (
	"fmt"
	"strings"

	"github.com/funvibe/tsnc/internal/context"
	"github.com/funvibe/tsnc/internal/diagnostics"
	"github.com/funvibe/tsnc/internal/ir"
)

func emitFunctionDeclaration(c *Context, s ir.Statement) Fragment {
	fn := s.(*ir.FunctionDeclaration)
	var sb strings.Builder
	sb.WriteString(c.indent())
	if c.InStaticScope {
		sb.WriteString("static ")
	}
	if fn.IsAsync {
		sb.WriteString("async ")
	}
	ret := CSharpType(c, fn.ReturnType)
	if fn.IsAsync && ret != "void" {
		ret = fmt.Sprintf("Task<%s>", ret)
	} else if fn.IsAsync {
		ret = "Task"
	}
	sb.WriteString(ret)
	sb.WriteString(" ")
	sb.WriteString(fn.Name)
	sb.WriteString(typeParamSuffix(fn.TypeParameters))
	sb.WriteString("(")
	sb.WriteString(renderParams(c, fn.Parameters))
	sb.WriteString(")\n")
	sb.WriteString(c.indent())
	bodyScope := *c
	bodyScope.CheckedNumeric = isNarrowIntegerType(fn.ReturnType)
	sb.WriteString(emitBlock(&bodyScope, fn.Body))
	if fn.IsAsync {
		c.useUsing("System.Threading.Tasks")
	}
	return frag(sb.String())
}

// isNarrowIntegerType reports whether t is a width-carrying integer
// (int/long) rather than a double or reference type — the boundary
// where the checked-numeric scope flag (spec §4.3) is worth carrying,
// since overflow of a declared int/long return value is the case the
// flag exists to guard.
func isNarrowIntegerType(t ir.Type) bool {
	p, ok := t.(*ir.PrimitiveType)
	return ok && (p.Name == ir.PrimInt || p.Name == ir.PrimLong)
}

func emitClassDeclaration(c *Context, s ir.Statement) Fragment {
	cls := s.(*ir.ClassDeclaration)
	var sb strings.Builder
	sb.WriteString(c.indent())
	if cls.Exported {
		sb.WriteString("public ")
	}
	kind := "class"
	if cls.IsStructMarker {
		kind = "struct"
	}
	sb.WriteString(kind)
	sb.WriteString(" ")
	sb.WriteString(cls.Name)
	sb.WriteString(typeParamSuffix(cls.TypeParameters))

	var bases []string
	if cls.SuperClass != nil {
		bases = append(bases, CSharpType(c, cls.SuperClass))
	}
	for _, iface := range cls.Implements {
		bases = append(bases, CSharpType(c, iface))
	}
	if len(bases) > 0 {
		sb.WriteString(" : " + strings.Join(bases, ", "))
	}
	sb.WriteString("\n")
	sb.WriteString(c.indent() + "{\n")

	inner := c.nested()
	inner.CurrentClassName = cls.Name
	for _, m := range cls.Members {
		sb.WriteString(emitClassMember(inner, m))
	}
	sb.WriteString(c.indent() + "}\n")
	return frag(sb.String())
}

func emitClassMember(c *Context, m ir.ClassMember) string {
	var sb strings.Builder
	if m.Method != nil {
		sb.WriteString(c.indent())
		vis := "public "
		static := ""
		if m.Static {
			static = "static "
		}
		async := ""
		ret := CSharpType(c, m.Method.ReturnType)
		if m.Method.IsAsync {
			async = "async "
			if ret == "void" {
				ret = "Task"
			} else {
				ret = fmt.Sprintf("Task<%s>", ret)
			}
			c.useUsing("System.Threading.Tasks")
		}
		sb.WriteString(vis + static + async + ret + " " + m.Method.Name)
		sb.WriteString(typeParamSuffix(m.Method.TypeParameters))
		sb.WriteString("(" + renderParams(c, m.Method.Parameters) + ")\n")
		sb.WriteString(c.indent())
		scope := *c
		scope.InStaticScope = m.Static
		scope.InAsyncScope = m.Method.IsAsync
		scope.CheckedNumeric = isNarrowIntegerType(m.Method.ReturnType)
		sb.WriteString(emitBlock(&scope, m.Method.Body))
		return sb.String()
	}
	sb.WriteString(c.indent())
	vis := "public "
	static := ""
	if m.Static {
		static = "static "
	}
	readonly := ""
	if m.Readonly {
		readonly = "readonly "
	}
	ty := CSharpType(c, m.Type)
	if m.Optional {
		ty = nullableSuffixed(ty)
	}
	sb.WriteString(vis + static + readonly + ty + " " + m.Name + " { get; set; }\n")
	return sb.String()
}

func nullableSuffixed(ty string) string {
	if strings.HasSuffix(ty, "?") {
		return ty
	}
	return ty + "?"
}

func emitInterfaceDeclaration(c *Context, s ir.Statement) Fragment {
	iface := s.(*ir.InterfaceDeclaration)
	var sb strings.Builder
	sb.WriteString(c.indent())
	if iface.Exported {
		sb.WriteString("public ")
	}
	sb.WriteString("interface ")
	sb.WriteString(iface.Name)
	sb.WriteString(typeParamSuffix(iface.TypeParameters))
	var bases []string
	for _, e := range iface.Extends {
		bases = append(bases, CSharpType(c, e))
	}
	if len(bases) > 0 {
		sb.WriteString(" : " + strings.Join(bases, ", "))
	}
	sb.WriteString("\n")
	sb.WriteString(c.indent() + "{\n")
	inner := c.nested()
	for _, m := range iface.Members {
		ty := CSharpType(inner, m.Type)
		if m.Optional {
			ty = nullableSuffixed(ty)
		}
		sb.WriteString(inner.indent() + ty + " " + m.Name + " { get; set; }\n")
	}
	sb.WriteString(c.indent() + "}\n")
	return frag(sb.String())
}

func emitEnumDeclaration(c *Context, s ir.Statement) Fragment {
	en := s.(*ir.EnumDeclaration)
	var sb strings.Builder
	sb.WriteString(c.indent())
	if en.Exported {
		sb.WriteString("public ")
	}
	sb.WriteString("enum " + en.Name + "\n")
	sb.WriteString(c.indent() + "{\n")
	inner := c.nested()
	for i, m := range en.Members {
		sb.WriteString(inner.indent() + m.Name)
		if m.Value != nil {
			f := EmitExpression(inner, m.Value)
			sb.WriteString(" = " + f.Text)
		}
		if i < len(en.Members)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(c.indent() + "}\n")
	return frag(sb.String())
}

func emitTypeAliasDeclaration(c *Context, s ir.Statement) Fragment {
	// Type aliases are erased at emission: CSharpType calls
	// resolve.ResolveAlias on each reference it renders, so uses of the
	// alias name emit as its target.
	return frag("")
}

func emitVariableDeclaration(c *Context, s ir.Statement) Fragment {
	v := s.(*ir.VariableDeclaration)
	var sb strings.Builder
	ty := "var"
	if v.VarType != nil {
		ty = CSharpType(c, v.VarType)
	} else if v.Init != nil && v.Init.InferredType() != nil {
		ty = CSharpType(c, v.Init.InferredType())
	}
	modifier := ""
	if c.IsModuleField {
		vis := "private "
		if v.Exported {
			vis = "public "
		}
		readonly := ""
		if v.VarKind == "const" {
			readonly = "readonly "
		}
		modifier = vis + "static " + readonly
	}
	sb.WriteString(c.indent() + modifier + ty + " " + v.Name)
	if v.Init != nil {
		f := EmitExpression(c, v.Init)
		sb.WriteString(" = " + f.Text)
	}
	sb.WriteString(";\n")
	return frag(sb.String())
}

func emitBlockStatement(c *Context, s ir.Statement) Fragment {
	b := s.(*ir.BlockStatement)
	return frag(c.indent() + emitBlock(c, b))
}

func emitIfStatement(c *Context, s ir.Statement) Fragment {
	i := s.(*ir.IfStatement)
	test := EmitExpression(c, i.Test)
	var sb strings.Builder
	sb.WriteString(c.indent() + "if (" + test.Text + ")\n")
	sb.WriteString(emitBranch(c, i.Consequent))
	if i.Alternate != nil {
		sb.WriteString(c.indent() + "else\n")
		sb.WriteString(emitBranch(c, i.Alternate))
	}
	return frag(sb.String())
}

func emitBranch(c *Context, s ir.Statement) string {
	if b, ok := s.(*ir.BlockStatement); ok {
		return c.indent() + emitBlock(c, b)
	}
	inner := c.nested()
	return EmitStatement(inner, s).Text
}

func emitForStatement(c *Context, s ir.Statement) Fragment {
	f := s.(*ir.ForStatement)
	var initText, testText, updateText string
	inner := c.nested()
	if f.Init != nil {
		t := EmitStatement(inner, f.Init).Text
		initText = strings.TrimSuffix(strings.TrimSpace(t), ";")
	}
	if f.Test != nil {
		testText = EmitExpression(c, f.Test).Text
	}
	if f.Update != nil {
		updateText = EmitExpression(c, f.Update).Text
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%sfor (%s; %s; %s)\n", c.indent(), initText, testText, updateText))
	sb.WriteString(emitBranch(c, f.Body))
	return frag(sb.String())
}

func emitForOfStatement(c *Context, s ir.Statement) Fragment {
	f := s.(*ir.ForOfStatement)
	iterable := EmitExpression(c, f.Iterable)
	varType := "var"
	if f.VarType != nil {
		varType = CSharpType(c, f.VarType)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%sforeach (%s %s in %s)\n", c.indent(), varType, f.VarName, iterable.Text))
	sb.WriteString(emitBranch(c, f.Body))
	return frag(sb.String())
}

func emitWhileStatement(c *Context, s ir.Statement) Fragment {
	w := s.(*ir.WhileStatement)
	test := EmitExpression(c, w.Test)
	var sb strings.Builder
	sb.WriteString(c.indent() + "while (" + test.Text + ")\n")
	sb.WriteString(emitBranch(c, w.Body))
	return frag(sb.String())
}

func emitTryStatement(c *Context, s ir.Statement) Fragment {
	t := s.(*ir.TryStatement)
	var sb strings.Builder
	sb.WriteString(c.indent() + "try\n")
	sb.WriteString(c.indent() + emitBlock(c, t.Block))
	if t.CatchBlock != nil {
		exType := "Exception"
		if t.CatchParamType != nil {
			exType = CSharpType(c, t.CatchParamType)
		} else {
			c.useUsing("System")
		}
		name := t.CatchParam
		if name == "" {
			sb.WriteString(c.indent() + "catch (" + exType + ")\n")
		} else {
			sb.WriteString(c.indent() + "catch (" + exType + " " + name + ")\n")
		}
		sb.WriteString(c.indent() + emitBlock(c, t.CatchBlock))
	}
	if t.FinallyBlock != nil {
		sb.WriteString(c.indent() + "finally\n")
		sb.WriteString(c.indent() + emitBlock(c, t.FinallyBlock))
	}
	return frag(sb.String())
}

// emitThrowStatement distinguishes an Error-shaped throw argument,
// which lowers to `throw new Exception(...)`, from everything else,
// which is reported via TSN7415 and still emitted best-effort (spec
// §4.3, §7 "unsupported -> diagnostic; best-effort placeholder").
func emitThrowStatement(c *Context, s ir.Statement) Fragment {
	t := s.(*ir.ThrowStatement)
	if n, ok := t.Argument.(*ir.NewExpr); ok && isErrorShaped(c, n) {
		args := make([]string, len(n.Arguments))
		f := frag("")
		for i, a := range n.Arguments {
			af := EmitExpression(c, a)
			args[i] = af.Text
			merge(&f, af)
		}
		c.useUsing("System")
		f.Text = c.indent() + "throw new Exception(" + strings.Join(args, ", ") + ");\n"
		return f
	}
	c.Diagnostics.Add(diagnostics.Warning(diagnostics.ErrUnsupportedThrow, diagnostics.KindUnsupported,
		diagnostics.LocationFromToken(c.ModulePath, t.Token), "throw argument is not Error-shaped; emitted as a raw throw"))
	arg := EmitExpression(c, t.Argument)
	f := frag(c.indent() + "throw " + arg.Text + ";\n")
	merge(&f, arg)
	return f
}

// isErrorShaped reports whether a `new X(...)` expression's class
// ultimately extends Error (or Exception, for a binding-table-sourced
// base), walking the SuperClass chain through the program's type
// registry.
func isErrorShaped(c *Context, n *ir.NewExpr) bool {
	id, ok := n.Callee.(*ir.IdentifierExpr)
	if !ok {
		return false
	}
	return classExtendsError(c.Program, id.Name, map[string]bool{})
}

func classExtendsError(prog *context.Program, name string, visited map[string]bool) bool {
	if name == "Error" || name == "Exception" {
		return true
	}
	if visited[name] {
		return false
	}
	visited[name] = true
	decl, ok := prog.TypeRegistry.Lookup(name)
	if !ok {
		return false
	}
	cls, ok := decl.(*ir.ClassDeclaration)
	if !ok || cls.SuperClass == nil {
		return false
	}
	return classExtendsError(prog, cls.SuperClass.Name, visited)
}

func emitReturnStatement(c *Context, s ir.Statement) Fragment {
	r := s.(*ir.ReturnStatement)
	if r.Argument == nil {
		return frag(c.indent() + "return;\n")
	}
	arg := EmitExpression(c, r.Argument)
	return frag(c.indent() + "return " + arg.Text + ";\n")
}

func emitExpressionStatement(c *Context, s ir.Statement) Fragment {
	e := s.(*ir.ExpressionStatement)
	f := EmitExpression(c, e.Expression)
	return frag(c.indent() + f.Text + ";\n")
}

func typeParamSuffix(tps []ir.TypeParam) string {
	if len(tps) == 0 {
		return ""
	}
	names := make([]string, len(tps))
	for i, tp := range tps {
		names[i] = tp.Name
	}
	return "<" + strings.Join(names, ", ") + ">"
}

func renderParams(c *Context, params []ir.Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		ty := CSharpType(c, p.Type)
		if p.Optional {
			ty = nullableSuffixed(ty)
		}
		text := ty + " " + p.Name
		if p.Default != nil {
			d := EmitExpression(c, p.Default)
			text += " = " + d.Text
		}
		parts[i] = text
	}
	return strings.Join(parts, ", ")
}
