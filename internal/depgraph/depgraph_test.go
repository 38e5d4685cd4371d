package depgraph

import (
	"testing"

	"github.com/funvibe/tsnc/internal/ir"
)

func resolveAll(modules map[string]*ir.Module) func(string, string) (string, bool) {
	return func(_ string, importPath string) (string, bool) {
		if _, ok := modules[importPath]; ok {
			return importPath, true
		}
		return "", false
	}
}

func TestTopoOrderLinearChain(t *testing.T) {
	modules := map[string]*ir.Module{
		"a": {Path: "a", Imports: []*ir.ImportSpecifier{{Path: "b"}}},
		"b": {Path: "b", Imports: []*ir.ImportSpecifier{{Path: "c"}}},
		"c": {Path: "c"},
	}
	order, err := Build(modules, resolveAll(modules)).TopoOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pos := map[string]int{}
	for i, p := range order {
		pos[p] = i
	}
	if pos["c"] > pos["b"] || pos["b"] > pos["a"] {
		t.Fatalf("expected c before b before a, got %v", order)
	}
}

func TestTopoOrderRejectsValueCycle(t *testing.T) {
	modules := map[string]*ir.Module{
		"a": {Path: "a", Imports: []*ir.ImportSpecifier{{Path: "b"}}},
		"b": {Path: "b", Imports: []*ir.ImportSpecifier{{Path: "a"}}},
	}
	_, err := Build(modules, resolveAll(modules)).TopoOrder()
	if err == nil {
		t.Fatal("expected a cycle error for a value-edge cycle")
	}
	if _, ok := err.(*CycleError); !ok {
		t.Fatalf("expected *CycleError, got %T", err)
	}
}

func TestTopoOrderPermitsTypeOnlyCycle(t *testing.T) {
	modules := map[string]*ir.Module{
		"a": {Path: "a", Imports: []*ir.ImportSpecifier{{Path: "b", TypeOnly: true}}},
		"b": {Path: "b", Imports: []*ir.ImportSpecifier{{Path: "a", TypeOnly: true}}},
	}
	_, err := Build(modules, resolveAll(modules)).TopoOrder()
	if err != nil {
		t.Fatalf("expected a type-only cycle to be permitted, got error: %v", err)
	}
}

func TestBuildSkipsExternalRuntimeImports(t *testing.T) {
	modules := map[string]*ir.Module{
		"a": {Path: "a", Imports: []*ir.ImportSpecifier{{Path: "System.Collections.Generic"}}},
	}
	g := Build(modules, resolveAll(modules))
	if len(g.edges["a"]) != 0 {
		t.Fatalf("expected an unresolved import path to produce no graph edge, got %v", g.edges["a"])
	}
}
