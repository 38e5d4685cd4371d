package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/tsnc/internal/ir"
	"github.com/funvibe/tsnc/internal/resolve"
)

// typed numeric literal rendering, member-binding resolution and
// object/array literal emission below are grounded on the teacher's
// prettyprinter fragment-accumulation style: each handler renders its
// own text and merges its operands' required usings upward.

func emitLiteral(c *Context, e ir.Expr) Fragment {
	lit := e.(*ir.LiteralExpr)
	switch v := lit.Value.(type) {
	case nil:
		return frag("null")
	case string:
		return frag(strconv.Quote(v))
	case bool:
		if v {
			return frag("true")
		}
		return frag("false")
	case float64:
		return frag(renderNumeric(v, lit.InferredType()))
	default:
		return frag(fmt.Sprintf("%v", v))
	}
}

// renderNumeric applies invariant 5: an int/long-typed position renders
// without a trailing `d`/decimal point even for a literal written with
// one, while a number/double-typed position always carries one so the
// emitted literal round-trips as a C# double.
func renderNumeric(v float64, inferred ir.Type) string {
	isIntWidth := false
	if p, ok := inferred.(*ir.PrimitiveType); ok && (p.Name == ir.PrimInt || p.Name == ir.PrimLong) {
		isIntWidth = true
	}
	if isIntWidth && v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func emitIdentifier(c *Context, e ir.Expr) Fragment {
	id := e.(*ir.IdentifierExpr)
	switch id.Name {
	case "this":
		return frag("this")
	case "undefined":
		return frag("null")
	}
	return frag(id.Name)
}

func emitBinary(c *Context, e ir.Expr) Fragment {
	b := e.(*ir.BinaryExpr)
	if f, ok := tryEmitTypeofComparison(c, b); ok {
		return f
	}
	switch b.Operator {
	case "instanceof":
		return emitInstanceofTest(c, b)
	case "in":
		return emitShapeTest(c, b)
	}
	left := EmitExpression(c, b.Left)
	right := EmitExpression(c, b.Right)
	op := b.Operator
	switch op {
	case "===":
		op = "=="
	case "!==":
		op = "!="
	}
	f := frag(fmt.Sprintf("(%s %s %s)", left.Text, op, right.Text))
	merge(&f, left)
	merge(&f, right)
	return f
}

// emitInstanceofTest lowers `x instanceof T` to C#'s `is` type-test
// operator (spec §4.3).
func emitInstanceofTest(c *Context, b *ir.BinaryExpr) Fragment {
	left := EmitExpression(c, b.Left)
	typeName := left.Text
	if id, ok := b.Right.(*ir.IdentifierExpr); ok {
		typeName = id.Name
	} else {
		right := EmitExpression(c, b.Right)
		typeName = right.Text
		merge(&left, right)
	}
	f := frag(fmt.Sprintf("(%s is %s)", left.Text, typeName))
	merge(&f, left)
	return f
}

// emitShapeTest lowers `"k" in obj` to a presence check on the named
// member — the discriminated-union narrowing idiom of spec §4.3 and
// boundary behaviour ("k in obj narrows obj to the member declaring k").
// Member names are emitted without case conversion elsewhere in this
// package (emitClassMember, emitObject), so the literal key is reused
// directly as the C# property name.
func emitShapeTest(c *Context, b *ir.BinaryExpr) Fragment {
	obj := EmitExpression(c, b.Right)
	lit, ok := b.Left.(*ir.LiteralExpr)
	if !ok {
		key := EmitExpression(c, b.Left)
		f := frag(fmt.Sprintf("(%s != null)", obj.Text))
		merge(&f, obj)
		merge(&f, key)
		return f
	}
	name, ok := lit.Value.(string)
	if !ok {
		f := frag(fmt.Sprintf("(%s != null)", obj.Text))
		merge(&f, obj)
		return f
	}
	f := frag(fmt.Sprintf("(%s.%s != null)", obj.Text, name))
	merge(&f, obj)
	return f
}

// tryEmitTypeofComparison recognises `typeof x === "<primtype>"` (and
// `!==`) and lowers it to an `is`-pattern test, since `typeof
// x.GetType().Name` is never equal to the lower-case JS type name
// (spec §4.3).
func tryEmitTypeofComparison(c *Context, b *ir.BinaryExpr) (Fragment, bool) {
	if b.Operator != "===" && b.Operator != "!==" {
		return Fragment{}, false
	}
	typeofExpr, other, ok := splitTypeofComparison(b.Left, b.Right)
	if !ok {
		return Fragment{}, false
	}
	lit, ok := other.(*ir.LiteralExpr)
	if !ok {
		return Fragment{}, false
	}
	prim, ok := lit.Value.(string)
	if !ok {
		return Fragment{}, false
	}
	u := typeofExpr.(*ir.UnaryExpr)
	operand := EmitExpression(c, u.Operand)
	negate := b.Operator == "!=="
	var text string
	switch prim {
	case "string":
		text = typeIsTest(operand.Text, "string", negate)
	case "number":
		text = typeIsTest(operand.Text, "double", negate)
	case "boolean":
		text = typeIsTest(operand.Text, "bool", negate)
	case "undefined":
		if negate {
			text = fmt.Sprintf("(%s != null)", operand.Text)
		} else {
			text = fmt.Sprintf("(%s == null)", operand.Text)
		}
	default:
		return Fragment{}, false
	}
	f := frag(text)
	merge(&f, operand)
	return f, true
}

func typeIsTest(operand, csharpType string, negate bool) string {
	if negate {
		return fmt.Sprintf("!(%s is %s)", operand, csharpType)
	}
	return fmt.Sprintf("(%s is %s)", operand, csharpType)
}

func splitTypeofComparison(left, right ir.Expr) (typeofExpr ir.Expr, other ir.Expr, ok bool) {
	if u, isU := left.(*ir.UnaryExpr); isU && u.Operator == "typeof" {
		return left, right, true
	}
	if u, isU := right.(*ir.UnaryExpr); isU && u.Operator == "typeof" {
		return right, left, true
	}
	return nil, nil, false
}

// emitLogical lowers `&&`/`||` on boolean operands straight through;
// non-boolean operands get the JS-truthiness conditional spec §4.3
// requires (falsy = null, empty string, numeric zero, false). The
// truthiness test re-renders the left operand's text as both the test
// and one branch value, so a left operand with side effects evaluates
// twice — accepted here since the fragment model has no temp-binding
// mechanism to avoid it.
func emitLogical(c *Context, e ir.Expr) Fragment {
	l := e.(*ir.LogicalExpr)
	left := EmitExpression(c, l.Left)
	right := EmitExpression(c, l.Right)
	if l.Operator == "??" || (isBooleanType(l.Left.InferredType()) && isBooleanType(l.Right.InferredType())) {
		f := frag(fmt.Sprintf("(%s %s %s)", left.Text, l.Operator, right.Text))
		merge(&f, left)
		merge(&f, right)
		return f
	}
	truthy := truthyTest(left.Text, l.Left.InferredType())
	var text string
	if l.Operator == "||" {
		text = fmt.Sprintf("(%s ? %s : %s)", truthy, left.Text, right.Text)
	} else {
		text = fmt.Sprintf("(%s ? %s : %s)", truthy, right.Text, left.Text)
	}
	f := frag(text)
	merge(&f, left)
	merge(&f, right)
	return f
}

func isBooleanType(t ir.Type) bool {
	p, ok := t.(*ir.PrimitiveType)
	return ok && p.Name == ir.PrimBoolean
}

func truthyTest(operand string, t ir.Type) string {
	if p, ok := t.(*ir.PrimitiveType); ok {
		switch p.Name {
		case ir.PrimString:
			return fmt.Sprintf("!string.IsNullOrEmpty(%s)", operand)
		case ir.PrimNumber, ir.PrimInt, ir.PrimLong:
			return fmt.Sprintf("(%s != 0)", operand)
		case ir.PrimBoolean:
			return operand
		}
	}
	return fmt.Sprintf("(%s != null)", operand)
}

func emitUnary(c *Context, e ir.Expr) Fragment {
	u := e.(*ir.UnaryExpr)
	operand := EmitExpression(c, u.Operand)
	op := u.Operator
	if op == "typeof" {
		c.useUsing("System")
		f := frag(fmt.Sprintf("%s.GetType().Name", operand.Text))
		merge(&f, operand)
		return f
	}
	f := frag(op + operand.Text)
	merge(&f, operand)
	return f
}

func emitUpdate(c *Context, e ir.Expr) Fragment {
	u := e.(*ir.UpdateExpr)
	operand := EmitExpression(c, u.Operand)
	var text string
	if u.Prefix {
		text = u.Operator + operand.Text
	} else {
		text = operand.Text + u.Operator
	}
	if c.CheckedNumeric {
		text = "checked(" + text + ")"
	}
	f := frag(text)
	merge(&f, operand)
	return f
}

func emitAssignment(c *Context, e ir.Expr) Fragment {
	a := e.(*ir.AssignmentExpr)
	target := EmitExpression(c, a.Target)
	value := EmitExpression(c, a.Value)
	f := frag(fmt.Sprintf("%s %s %s", target.Text, a.Operator, value.Text))
	merge(&f, target)
	merge(&f, value)
	return f
}

func emitConditional(c *Context, e ir.Expr) Fragment {
	cond := e.(*ir.ConditionalExpr)
	test := EmitExpression(c, cond.Test)
	then := EmitExpression(c, cond.Consequent)
	els := EmitExpression(c, cond.Alternate)
	f := frag(fmt.Sprintf("(%s ? %s : %s)", test.Text, then.Text, els.Text))
	merge(&f, test)
	merge(&f, then)
	merge(&f, els)
	return f
}

func emitCall(c *Context, e ir.Expr) Fragment {
	call := e.(*ir.CallExpr)
	callee := EmitExpression(c, call.Callee)
	args := make([]string, len(call.Arguments))
	f := frag("")
	for i, a := range call.Arguments {
		af := EmitExpression(c, a)
		args[i] = af.Text
		merge(&f, af)
	}
	typeArgs := ""
	if len(call.TypeArguments) > 0 {
		parts := make([]string, len(call.TypeArguments))
		for i, t := range call.TypeArguments {
			parts[i] = CSharpType(c, t)
		}
		typeArgs = "<" + strings.Join(parts, ", ") + ">"
	}
	// A call whose result is awaited is wrapped separately by
	// emitAwait; a bare call here is left as a plain invocation.
	f.Text = fmt.Sprintf("%s%s(%s)", callee.Text, typeArgs, strings.Join(args, ", "))
	merge(&f, callee)
	return f
}

func emitNew(c *Context, e ir.Expr) Fragment {
	n := e.(*ir.NewExpr)
	if id, ok := n.Callee.(*ir.IdentifierExpr); ok && id.Name == "Promise" {
		return emitPromiseExecutor(c, n)
	}
	callee := EmitExpression(c, n.Callee)
	args := make([]string, len(n.Arguments))
	f := frag("")
	for i, a := range n.Arguments {
		af := EmitExpression(c, a)
		args[i] = af.Text
		merge(&f, af)
	}
	typeArgs := ""
	if len(n.TypeArguments) > 0 {
		parts := make([]string, len(n.TypeArguments))
		for i, t := range n.TypeArguments {
			parts[i] = CSharpType(c, t)
		}
		typeArgs = "<" + strings.Join(parts, ", ") + ">"
	}
	f.Text = fmt.Sprintf("new %s%s(%s)", callee.Text, typeArgs, strings.Join(args, ", "))
	merge(&f, callee)
	return f
}

// emitPromiseExecutor lowers `new Promise<T>((resolve, reject) => ...)`
// to an immediately-invoked lambda wrapping a TaskCompletionSource,
// the "target runtime helper with a task-completion source" spec §4.3
// names for this idiom (end-to-end scenario 5).
func emitPromiseExecutor(c *Context, n *ir.NewExpr) Fragment {
	elemType := "object"
	if len(n.TypeArguments) > 0 {
		elemType = CSharpType(c, n.TypeArguments[0])
	}
	c.useUsing("System.Threading.Tasks")
	c.useUsing("System")

	resolveName, rejectName := "resolve", "reject"
	var bodyStatements []ir.Statement
	var exprBody ir.Expr
	if len(n.Arguments) > 0 {
		switch executor := n.Arguments[0].(type) {
		case *ir.ArrowFunctionExpr:
			if len(executor.Parameters) > 0 {
				resolveName = executor.Parameters[0].Name
			}
			if len(executor.Parameters) > 1 {
				rejectName = executor.Parameters[1].Name
			}
			switch body := executor.Body.(type) {
			case ir.Expr:
				exprBody = body
			case *ir.BlockStatement:
				bodyStatements = body.Statements
			}
		case *ir.FunctionExpr:
			if len(executor.Parameters) > 0 {
				resolveName = executor.Parameters[0].Name
			}
			if len(executor.Parameters) > 1 {
				rejectName = executor.Parameters[1].Name
			}
			if executor.Body != nil {
				bodyStatements = executor.Body.Statements
			}
		}
	}

	f := frag("")
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("new Func<Task<%s>>(() =>\n", elemType))
	sb.WriteString(c.indent() + "{\n")
	inner := c.nested()
	sb.WriteString(inner.indent() + fmt.Sprintf("var tcs = new TaskCompletionSource<%s>();\n", elemType))
	sb.WriteString(inner.indent() + fmt.Sprintf("void %s(%s value) => tcs.TrySetResult(value);\n", resolveName, elemType))
	sb.WriteString(inner.indent() + fmt.Sprintf("void %s(Exception error) => tcs.TrySetException(error);\n", rejectName))
	if exprBody != nil {
		ef := EmitExpression(inner, exprBody)
		sb.WriteString(inner.indent() + ef.Text + ";\n")
		merge(&f, ef)
	} else {
		for _, st := range bodyStatements {
			sf := EmitStatement(inner, st)
			sb.WriteString(sf.Text)
			merge(&f, sf)
		}
	}
	sb.WriteString(inner.indent() + "return tcs.Task;\n")
	sb.WriteString(c.indent() + "})()")
	f.Text = sb.String()
	return f
}

func emitMember(c *Context, e ir.Expr) Fragment {
	m := e.(*ir.MemberExpr)
	obj := EmitExpression(c, m.Object)
	op := "."
	if m.OptionalChain {
		op = "?."
	}
	if m.Computed {
		idx := EmitExpression(c, m.ComputedExpr)
		f := frag(fmt.Sprintf("%s[%s]", obj.Text, idx.Text))
		merge(&f, obj)
		merge(&f, idx)
		return f
	}
	name := m.Property
	if ref, ok := m.Object.InferredType().(*ir.ReferenceType); ok {
		if resolved, ok := c.Bindings.Lookup(ref.Name); ok {
			name = resolved.MemberCSharpName(m.Property)
		}
	}
	f := frag(obj.Text + op + name)
	merge(&f, obj)
	return f
}

func emitArray(c *Context, e ir.Expr) Fragment {
	a := e.(*ir.ArrayExpr)
	elemType := "object"
	if at, ok := a.InferredType().(*ir.ArrayType); ok {
		elemType = CSharpType(c, resolve.ArrayElementType(at))
	}
	parts := make([]string, len(a.Elements))
	f := frag("")
	for i, el := range a.Elements {
		ef := EmitExpression(c, el)
		parts[i] = ef.Text
		merge(&f, ef)
	}
	f.Text = fmt.Sprintf("new %s[] { %s }", elemType, strings.Join(parts, ", "))
	return f
}

func emitObject(c *Context, e ir.Expr) Fragment {
	o := e.(*ir.ObjectExpr)
	typeName := "object"
	var parts []string
	f := frag("")
	for _, p := range o.Properties {
		vf := EmitExpression(c, p.Value)
		parts = append(parts, p.Key+" = "+vf.Text)
		merge(&f, vf)
	}
	f.Text = fmt.Sprintf("new %s { %s }", typeName, strings.Join(parts, ", "))
	return f
}

func emitArrowFunction(c *Context, e ir.Expr) Fragment {
	a := e.(*ir.ArrowFunctionExpr)
	params := make([]string, len(a.Parameters))
	for i, p := range a.Parameters {
		params[i] = p.Name
	}
	paramText := strings.Join(params, ", ")
	if len(params) != 1 {
		paramText = "(" + paramText + ")"
	}
	scope := *c
	scope.InAsyncScope = a.IsAsync
	switch body := a.Body.(type) {
	case ir.Expr:
		bf := EmitExpression(&scope, body)
		async := ""
		if a.IsAsync {
			async = "async "
		}
		f := frag(fmt.Sprintf("%s%s => %s", async, paramText, bf.Text))
		merge(&f, bf)
		return f
	case *ir.BlockStatement:
		async := ""
		if a.IsAsync {
			async = "async "
		}
		text := fmt.Sprintf("%s%s => %s", async, paramText, emitBlock(&scope, body))
		return frag(text)
	default:
		return frag(paramText + " => {}")
	}
}

func emitFunctionExpr(c *Context, e ir.Expr) Fragment {
	fn := e.(*ir.FunctionExpr)
	params := renderParams(c, fn.Parameters)
	scope := c.nested()
	scope.InAsyncScope = fn.IsAsync
	async := ""
	if fn.IsAsync {
		async = "async "
	}
	text := fmt.Sprintf("%sdelegate(%s) %s", async, params, emitBlock(scope, fn.Body))
	return frag(text)
}

func emitTemplateLiteral(c *Context, e ir.Expr) Fragment {
	t := e.(*ir.TemplateLiteralExpr)
	var sb strings.Builder
	sb.WriteString(`$"`)
	f := frag("")
	for i, q := range t.Quasis {
		sb.WriteString(escapeInterpolated(q))
		if i < len(t.Expressions) {
			ef := EmitExpression(c, t.Expressions[i])
			sb.WriteString("{" + ef.Text + "}")
			merge(&f, ef)
		}
	}
	sb.WriteString(`"`)
	f.Text = sb.String()
	return f
}

func escapeInterpolated(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "{", "{{")
	s = strings.ReplaceAll(s, "}", "}}")
	return s
}

func emitSpread(c *Context, e ir.Expr) Fragment {
	s := e.(*ir.SpreadExpr)
	arg := EmitExpression(c, s.Argument)
	c.useUsing("System.Linq")
	f := frag(arg.Text + ".ToArray()")
	merge(&f, arg)
	return f
}

func emitAwait(c *Context, e ir.Expr) Fragment {
	a := e.(*ir.AwaitExpr)
	arg := EmitExpression(c, a.Argument)
	f := frag("await " + arg.Text)
	merge(&f, arg)
	return f
}

func emitYield(c *Context, e ir.Expr) Fragment {
	y := e.(*ir.YieldExpr)
	if y.Argument == nil {
		return frag("yield return default;")
	}
	arg := EmitExpression(c, y.Argument)
	if y.Delegate {
		f := frag(fmt.Sprintf("foreach (var each in %s) yield return each;", arg.Text))
		merge(&f, arg)
		return f
	}
	f := frag("yield return " + arg.Text + ";")
	merge(&f, arg)
	return f
}
