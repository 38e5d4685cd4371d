package emit

import (
	"fmt"
	"strings"

	"github.com/funvibe/tsnc/internal/bindings"
	"github.com/funvibe/tsnc/internal/context"
	"github.com/funvibe/tsnc/internal/ir"
)

// EmitModule renders one input module into its EmitResult: namespace
// and static-container synthesis, top-level-code wrapping into Main,
// and the requiredUsings/sorted-using guarantee of spec §6.
//
// Declaration-named members (class/interface/enum/type-alias/function)
// are emitted into the module's primary class Bar. Any other
// top-level statement — a bare expression, a loose variable, a loop —
// is collected into a sibling static class Bar__Module only when such
// code coexists with at least one declaration; otherwise everything
// lives directly in Bar.
func EmitModule(prog *context.Program, bindingTable *bindings.Table, mod *ir.Module) EmitResult {
	c := &Context{
		Program:     prog,
		Bindings:    bindingTable,
		ModulePath:  mod.Path,
		Diagnostics: prog.Diagnostics,
	}

	decls, loose := partitionTopLevel(mod)
	needsModuleClass := len(loose) > 0 && len(decls) > 0

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("// Generated by tsnc from %s. Do not edit directly.\n", mod.Path))
	usingsMark := sb.Len()
	sb.WriteString(fmt.Sprintf("namespace %s\n{\n", mod.Namespace))

	inner := c.nested()
	inner.CurrentClassName = mod.ClassName

	sb.WriteString(inner.indent() + "public static class " + mod.ClassName + "\n")
	sb.WriteString(inner.indent() + "{\n")
	body := inner.nested()
	body.InStaticScope = true
	for _, d := range decls {
		f := EmitStatement(body, d)
		sb.WriteString(f.Text)
	}
	if !needsModuleClass {
		sb.WriteString(emitMainAndFields(body, decls, loose))
	}
	sb.WriteString(inner.indent() + "}\n")

	if needsModuleClass {
		moduleClassName := mod.ClassName + "__Module"
		sb.WriteString("\n")
		sb.WriteString(inner.indent() + "public static class " + moduleClassName + "\n")
		sb.WriteString(inner.indent() + "{\n")
		modBody := inner.nested()
		modBody.InStaticScope = true
		modBody.CurrentClassName = moduleClassName
		sb.WriteString(emitMainAndFields(modBody, decls, loose))
		sb.WriteString(inner.indent() + "}\n")
	}

	sb.WriteString("}\n")

	usings := sortedUsings(c)
	var usingBlock strings.Builder
	for _, u := range usings {
		usingBlock.WriteString("using " + u + ";\n")
	}
	if usingBlock.Len() > 0 {
		usingBlock.WriteString("\n")
	}
	rendered := sb.String()
	text := rendered[:usingsMark] + usingBlock.String() + rendered[usingsMark:]

	return EmitResult{
		Path:           mod.Path,
		NamespaceName:  mod.Namespace,
		Text:           text,
		RequiredUsings: usings,
		Diagnostics:    prog.Diagnostics.All(),
	}
}

// partitionTopLevel splits a module's statements into named
// declarations and loose executable/variable statements (spec §4.3
// "top-level-code wrapping").
func partitionTopLevel(mod *ir.Module) (decls []ir.Statement, loose []ir.Statement) {
	for _, s := range mod.Statements {
		switch s.Kind() {
		case "functionDeclaration", "classDeclaration", "interfaceDeclaration",
			"enumDeclaration", "typeAliasDeclaration":
			decls = append(decls, s)
		default:
			loose = append(loose, s)
		}
	}
	return decls, loose
}

// emitMainAndFields renders a static container's member list for its
// loose top-level statements: a const/let that is exported, or whose
// name appears in any top-level declaration or loose statement of the
// module, becomes a static field (public when exported, private
// otherwise); everything else is collected, in source order, into a
// synthesised `static void Main(string[] args)`.
func emitMainAndFields(c *Context, decls []ir.Statement, loose []ir.Statement) string {
	referenced := map[string]bool{}
	collectReferencedNames(decls, referenced)
	collectReferencedNames(loose, referenced)

	var fields strings.Builder
	var mainStatements []ir.Statement
	fieldScope := *c
	fieldScope.IsModuleField = true
	for _, s := range loose {
		if v, ok := s.(*ir.VariableDeclaration); ok && (v.Exported || referenced[v.Name]) {
			fields.WriteString(EmitStatement(&fieldScope, v).Text)
			continue
		}
		mainStatements = append(mainStatements, s)
	}

	var sb strings.Builder
	sb.WriteString(fields.String())
	if len(mainStatements) == 0 {
		return sb.String()
	}
	sb.WriteString(c.indent() + "public static void Main(string[] args)\n")
	sb.WriteString(c.indent() + "{\n")
	body := c.nested()
	for _, s := range mainStatements {
		sb.WriteString(EmitStatement(body, s).Text)
	}
	sb.WriteString(c.indent() + "}\n")
	return sb.String()
}
