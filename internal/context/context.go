// Package context implements the per-compilation program context: the
// module table, type registry, nominal environment and import/export
// maps that every core operation threads through explicitly rather
// than reaching for process-wide state (spec §9 "shared program
// context replaces globals"), grounded on the teacher's
// internal/symbols.SymbolTable shape.
package context

import (
	"fmt"

	"github.com/funvibe/tsnc/internal/diagnostics"
	"github.com/funvibe/tsnc/internal/ir"
)

// ExportKind distinguishes what an exported symbol names.
type ExportKind string

const (
	ExportValue     ExportKind = "value"
	ExportType      ExportKind = "type"
	ExportNamespace ExportKind = "namespace"
)

// ExportEntry records where an exported symbol is defined and what
// kind of declaration it names.
type ExportEntry struct {
	Module string
	Name   string
	Kind   ExportKind
}

// NominalKind classifies a declared type as reference or value for
// nullability emission (spec §3 NominalEnv).
type NominalKind int

const (
	NominalReference NominalKind = iota
	NominalValue
)

// TypeRegistry maps a declared type name to its defining declaration.
type TypeRegistry struct {
	declarations map[string]ir.Statement
	arity        map[string]int
}

func newTypeRegistry() *TypeRegistry {
	return &TypeRegistry{declarations: map[string]ir.Statement{}, arity: map[string]int{}}
}

// Declare registers a named declaration with its generic arity.
func (r *TypeRegistry) Declare(name string, decl ir.Statement, arity int) {
	r.declarations[name] = decl
	r.arity[name] = arity
}

func (r *TypeRegistry) Lookup(name string) (ir.Statement, bool) {
	d, ok := r.declarations[name]
	return d, ok
}

func (r *TypeRegistry) Arity(name string) (int, bool) {
	a, ok := r.arity[name]
	return a, ok
}

// NominalEnv classifies every declared type as reference or value and
// propagates struct-marker status: a class implementing a
// struct-marker interface lowers to a C# value type, and all
// descendants must agree (spec §3 invariant).
type NominalEnv struct {
	kinds map[string]NominalKind
}

func newNominalEnv() *NominalEnv {
	return &NominalEnv{kinds: map[string]NominalKind{}}
}

func (n *NominalEnv) Mark(name string, kind NominalKind) {
	n.kinds[name] = kind
}

func (n *NominalEnv) KindOf(name string) NominalKind {
	if k, ok := n.kinds[name]; ok {
		return k
	}
	return NominalReference
}

func (n *NominalEnv) IsValueType(name string) bool {
	return n.KindOf(name) == NominalValue
}

// CheckStructAgreement verifies that a descendant class lowering to a
// value type does not extend a reference-typed parent, and vice
// versa — the invariant that "all descendants must agree".
func (n *NominalEnv) CheckStructAgreement(childName, parentName string) error {
	if n.IsValueType(childName) != n.IsValueType(parentName) {
		return fmt.Errorf("%s and its base %s disagree on struct-marker lowering", childName, parentName)
	}
	return nil
}

// JsonAotRegistry tracks types requiring pre-compiled (de)serialisation
// so the emission core can generate the matching source-generator
// attributes/partial context in the output.
type JsonAotRegistry struct {
	types map[string]bool
}

func newJsonAotRegistry() *JsonAotRegistry {
	return &JsonAotRegistry{types: map[string]bool{}}
}

func (j *JsonAotRegistry) Register(typeName string) { j.types[typeName] = true }
func (j *JsonAotRegistry) Requires(typeName string) bool { return j.types[typeName] }
func (j *JsonAotRegistry) All() []string {
	out := make([]string, 0, len(j.types))
	for t := range j.types {
		out = append(out, t)
	}
	return out
}

// Program owns the per-compilation environment: the module table, the
// import binding table per module, the export map, the type registry,
// the nominal environment and the JSON AOT registry. It is constructed
// once per compilation and passed through every operation; there is no
// process-wide state (spec §3, §9).
type Program struct {
	ModuleMap       map[string]*ir.Module
	ImportBindings  map[string][]*ir.ImportSpecifier
	ExportMap       map[string]ExportEntry
	TypeRegistry    *TypeRegistry
	NominalEnv      *NominalEnv
	JsonAotRegistry *JsonAotRegistry
	Diagnostics     *diagnostics.Bag

	// usingSets accumulates each module's required C# usings during
	// emission — the only per-module mutable state besides the
	// specialisation cache and the diagnostic list (spec §5).
	usingSets map[string]map[string]bool
	// specializationCache coalesces specialisation requests by their
	// serialised (declarationName, θ) key.
	specializationCache map[string]ir.Statement
}

// New constructs a fresh program context for one compilation.
func New(runID string) *Program {
	return &Program{
		ModuleMap:           map[string]*ir.Module{},
		ImportBindings:      map[string][]*ir.ImportSpecifier{},
		ExportMap:           map[string]ExportEntry{},
		TypeRegistry:        newTypeRegistry(),
		NominalEnv:          newNominalEnv(),
		JsonAotRegistry:     newJsonAotRegistry(),
		Diagnostics:         diagnostics.NewBag(runID),
		usingSets:           map[string]map[string]bool{},
		specializationCache: map[string]ir.Statement{},
	}
}

// AddModule registers a module's IR and import table.
func (p *Program) AddModule(mod *ir.Module) {
	p.ModuleMap[mod.Path] = mod
	p.ImportBindings[mod.Path] = mod.Imports
	p.usingSets[mod.Path] = map[string]bool{}
}

// RequireUsing appends a using directive to a module's accumulating
// using-set (append-only per spec §5).
func (p *Program) RequireUsing(modulePath, using string) {
	set, ok := p.usingSets[modulePath]
	if !ok {
		set = map[string]bool{}
		p.usingSets[modulePath] = set
	}
	set[using] = true
}

// Usings returns the deduplicated using-set for a module, in no
// particular order (emit's sortedUsings sorts it).
func (p *Program) Usings(modulePath string) []string {
	set := p.usingSets[modulePath]
	out := make([]string, 0, len(set))
	for u := range set {
		out = append(out, u)
	}
	return out
}

// CacheSpecialization coalesces a specialised declaration by its
// structural key, returning the previously cached copy on a repeat
// request (specialisation idempotence, spec §8).
func (p *Program) CacheSpecialization(key string, decl ir.Statement) ir.Statement {
	if existing, ok := p.specializationCache[key]; ok {
		return existing
	}
	p.specializationCache[key] = decl
	return decl
}

func (p *Program) LookupSpecialization(key string) (ir.Statement, bool) {
	d, ok := p.specializationCache[key]
	return d, ok
}
