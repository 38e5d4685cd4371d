// Package pipeline drives a whole compilation: parsing every module,
// building the program context, ordering modules by their dependency
// graph, and emitting each in order. Grounded on the teacher's
// Pipeline/Processor abstraction (a linear chain of stages threading a
// single context object through); PipelineContext and Processor below
// are this compiler's concrete fill-in for what the teacher's pipeline
// left as bare type parameters, and CompileProgram is the multi-module
// driver the teacher's single-file interpreter pipeline never needed.
package pipeline

import (
	"fmt"
	"sort"

	"github.com/funvibe/tsnc/internal/bindings"
	"github.com/funvibe/tsnc/internal/context"
	"github.com/funvibe/tsnc/internal/depgraph"
	"github.com/funvibe/tsnc/internal/diagnostics"
	"github.com/funvibe/tsnc/internal/emit"
	"github.com/funvibe/tsnc/internal/ir"
	"github.com/funvibe/tsnc/internal/parser"
	"github.com/funvibe/tsnc/internal/resolve"
	"github.com/funvibe/tsnc/internal/specialize"
)

// PipelineContext is the value threaded through a Processor chain for
// one module: its source, its parsed IR, and the diagnostics
// accumulated against it so far.
type PipelineContext struct {
	ModulePath string
	Source     string
	Module     *ir.Module
	Program    *context.Program
	Err        error
}

func NewPipelineContext(modulePath, source string, prog *context.Program) *PipelineContext {
	return &PipelineContext{ModulePath: modulePath, Source: source, Program: prog}
}

// Processor is one stage of a single-module pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline runs a fixed sequence of Processors over one PipelineContext,
// continuing past a stage's error so later stages can still surface
// their own diagnostics (e.g. emission can still run with partial type
// information, the way the teacher's LSP wants both parse and semantic
// errors out of one pass).
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}

// ParseProcessor turns ctx.Source into ctx.Module.
type ParseProcessor struct{}

func (ParseProcessor) Process(ctx *PipelineContext) *PipelineContext {
	mod, diags := parser.ParseModule(ctx.ModulePath, ctx.Source)
	ctx.Module = mod
	for _, d := range diags.All() {
		ctx.Program.Diagnostics.Add(d)
	}
	if diags.HasFatal() {
		ctx.Err = fmt.Errorf("module %s failed to parse", ctx.ModulePath)
	}
	return ctx
}

// RegisterProcessor declares a parsed module's named types into the
// program's TypeRegistry/NominalEnv, the step every later stage
// (alias resolution, specialisation, emission) depends on having run
// first across the whole program.
type RegisterProcessor struct{}

func (RegisterProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Module == nil {
		return ctx
	}
	ctx.Program.AddModule(ctx.Module)
	RegisterDeclarations(ctx.Program, ctx.Module)
	return ctx
}

// RegisterDeclarations walks a module's top-level statements, entering
// every named class/interface/enum/type-alias into the type registry
// (keyed by name, recording its arity) and marking struct-marker classes in the
// nominal environment.
func RegisterDeclarations(prog *context.Program, mod *ir.Module) {
	for _, s := range mod.Statements {
		switch d := s.(type) {
		case *ir.ClassDeclaration:
			prog.TypeRegistry.Declare(d.Name, d, len(d.TypeParameters))
			if d.IsStructMarker {
				prog.NominalEnv.Mark(d.Name, context.NominalValue)
			}
		case *ir.InterfaceDeclaration:
			prog.TypeRegistry.Declare(d.Name, d, len(d.TypeParameters))
		case *ir.EnumDeclaration:
			prog.TypeRegistry.Declare(d.Name, d, 0)
		case *ir.TypeAliasDeclaration:
			prog.TypeRegistry.Declare(d.Name, d, len(d.TypeParameters))
		}
		if named, ok := exportKind(s); ok {
			prog.ExportMap[mod.Path+"#"+named.name] = context.ExportEntry{
				Module: mod.Path, Name: named.name, Kind: named.kind,
			}
		}
	}
}

// propagateStructMarkers spreads struct-marker (value-type) status
// down SuperClass chains across the whole program, then checks every
// class against NominalEnv.CheckStructAgreement: a class marked
// struct (via its own `implements StructMarker`) whose SuperClass
// lowers to a reference type is invalid C# (a struct cannot extend a
// class) and is reported as a fatal diagnostic (spec §3 invariant, "a
// classDeclaration implementing struct-marker interfaces lowers to a
// value type; all descendants must agree").
func propagateStructMarkers(prog *context.Program, modules map[string]*ir.Module) {
	type classInfo struct {
		cls  *ir.ClassDeclaration
		path string
	}
	var classes []classInfo
	for path, mod := range modules {
		for _, s := range mod.Statements {
			if cls, ok := s.(*ir.ClassDeclaration); ok {
				classes = append(classes, classInfo{cls, path})
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for _, ci := range classes {
			cls := ci.cls
			if cls.SuperClass == nil || cls.IsStructMarker {
				continue
			}
			if prog.NominalEnv.IsValueType(cls.SuperClass.Name) {
				cls.IsStructMarker = true
				prog.NominalEnv.Mark(cls.Name, context.NominalValue)
				changed = true
			}
		}
	}

	for _, ci := range classes {
		cls := ci.cls
		if cls.SuperClass == nil {
			continue
		}
		if err := prog.NominalEnv.CheckStructAgreement(cls.Name, cls.SuperClass.Name); err != nil {
			prog.Diagnostics.Add(diagnostics.Fatal(diagnostics.ErrStructAgreement, diagnostics.KindStructural,
				diagnostics.LocationFromToken(ci.path, cls.Token), "%s", err.Error()))
		}
	}
}

type exportedDecl struct {
	name string
	kind context.ExportKind
}

func exportKind(s ir.Statement) (exportedDecl, bool) {
	switch d := s.(type) {
	case *ir.FunctionDeclaration:
		if d.Exported {
			return exportedDecl{d.Name, context.ExportValue}, true
		}
	case *ir.VariableDeclaration:
		if d.Exported {
			return exportedDecl{d.Name, context.ExportValue}, true
		}
	case *ir.ClassDeclaration:
		if d.Exported {
			return exportedDecl{d.Name, context.ExportType}, true
		}
	case *ir.InterfaceDeclaration:
		if d.Exported {
			return exportedDecl{d.Name, context.ExportType}, true
		}
	case *ir.EnumDeclaration:
		if d.Exported {
			return exportedDecl{d.Name, context.ExportType}, true
		}
	case *ir.TypeAliasDeclaration:
		if d.Exported {
			return exportedDecl{d.Name, context.ExportType}, true
		}
	}
	return exportedDecl{}, false
}

// Result is one emitted module's output file path and C# source text.
type Result struct {
	Path string
	Text string
}

// CompileProgram parses, registers, orders and emits a whole set of
// modules in one pass. sources maps each module's path to its source
// text; resolveImport maps (fromModule, importPath) to another
// module's path when the import is local, mirroring the signature
// depgraph.Build expects so an external-runtime import never becomes a
// graph edge.
func CompileProgram(
	runID string,
	sources map[string]string,
	resolveImport func(fromModule, importPath string) (string, bool),
	bindingTable *bindings.Table,
) ([]Result, *diagnostics.Bag) {
	prog := context.New(runID)
	chain := New(ParseProcessor{}, RegisterProcessor{})

	modules := map[string]*ir.Module{}
	paths := make([]string, 0, len(sources))
	for path := range sources {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		ctx := NewPipelineContext(path, sources[path], prog)
		ctx = chain.Run(ctx)
		if ctx.Module != nil {
			modules[path] = ctx.Module
		}
	}

	propagateStructMarkers(prog, modules)

	graph := depgraph.Build(modules, resolveImport)
	order, err := graph.TopoOrder()
	if err != nil {
		if cycleErr, ok := err.(*depgraph.CycleError); ok {
			prog.Diagnostics.Add(diagnostics.Fatal(diagnostics.ErrImportCycle, diagnostics.KindImportExport,
				diagnostics.Location{}, "%s", cycleErr.Error()))
		}
		order = paths
	}

	for _, mod := range modules {
		resolve.ApplyContextualTypes(prog, mod)
	}

	specializeProgram(prog, modules)

	var results []Result
	for _, path := range order {
		mod, ok := modules[path]
		if !ok {
			continue
		}
		res := emit.EmitModule(prog, bindingTable, mod)
		results = append(results, Result{Path: res.Path, Text: res.Text})
	}
	return results, prog.Diagnostics
}

// specializeProgram collects every generic call/new-expression
// instantiation reachable from the whole module set and runs them to a
// fixed point, appending each specialised declaration back onto the
// module that owns its generic original so emission picks it up
// alongside the rest of that module's statements.
func specializeProgram(prog *context.Program, modules map[string]*ir.Module) {
	reqs := specialize.Collect(modules)
	if len(reqs) == 0 {
		return
	}

	declModule := map[string]string{}
	for path, mod := range modules {
		for _, s := range mod.Statements {
			switch d := s.(type) {
			case *ir.ClassDeclaration:
				declModule[d.Name] = path
			case *ir.FunctionDeclaration:
				declModule[d.Name] = path
			}
		}
	}

	engine := specialize.NewEngine(prog, declModule)
	if diag := engine.Run(reqs); diag != nil {
		prog.Diagnostics.Add(diag)
	}
	for path, specs := range engine.Specialized {
		if mod, ok := modules[path]; ok {
			mod.Statements = append(mod.Statements, specs...)
		}
	}
}
