package bindings

import (
	"testing"

	"github.com/funvibe/tsnc/internal/ir"
)

func TestFromConfigResolvesLookup(t *testing.T) {
	table := FromConfig(Config{Types: []TypeBinding{
		{Surface: "Guid", Namespace: "System", Name: "Guid", Arity: 0},
	}})
	resolved, ok := table.Lookup("Guid")
	if !ok {
		t.Fatal("expected Guid binding to resolve")
	}
	if resolved.Namespace != "System" || resolved.Name != "Guid" {
		t.Fatalf("unexpected resolved binding: %+v", resolved)
	}
}

func TestMemberCSharpNameFallsBackToSurfaceName(t *testing.T) {
	resolved := &ResolvedBinding{Members: []MemberBinding{
		{Surface: "length", CSharp: "Length"},
	}}
	if got := resolved.MemberCSharpName("length"); got != "Length" {
		t.Fatalf("expected bound member name Length, got %s", got)
	}
	if got := resolved.MemberCSharpName("unbound"); got != "unbound" {
		t.Fatalf("expected unbound member name to fall back unchanged, got %s", got)
	}
}

func TestQualifiedNameRendersGenericArguments(t *testing.T) {
	resolved := &ResolvedBinding{Name: "List"}
	ref := &ir.ReferenceType{Name: "Array", TypeArguments: []ir.Type{&ir.PrimitiveType{Name: ir.PrimString}}}
	got := resolved.QualifiedName(ref, func(t ir.Type) string { return t.(*ir.PrimitiveType).Name })
	if got != "List<string>" {
		t.Fatalf("expected List<string>, got %s", got)
	}
}

func TestSurfacesListsEveryBoundName(t *testing.T) {
	table := FromConfig(Config{Types: []TypeBinding{
		{Surface: "Guid"}, {Surface: "DateTime"},
	}})
	surfaces := table.Surfaces()
	if len(surfaces) != 2 {
		t.Fatalf("expected 2 surfaces, got %v", surfaces)
	}
}

func TestSurfacesRoundTripsThroughConfig(t *testing.T) {
	original := FromConfig(Config{Types: []TypeBinding{
		{Surface: "Guid", Namespace: "System", Name: "Guid"},
	}})
	merged := Empty()
	for _, surface := range original.Surfaces() {
		b, _ := original.Lookup(surface)
		merged.byName[surface] = b
	}
	if _, ok := merged.Lookup("Guid"); !ok {
		t.Fatal("expected round-tripped table to still resolve Guid")
	}
}
