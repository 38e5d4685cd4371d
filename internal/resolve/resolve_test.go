package resolve

import (
	"testing"

	"github.com/funvibe/tsnc/internal/context"
	"github.com/funvibe/tsnc/internal/ir"
)

func numberType() *ir.PrimitiveType  { return &ir.PrimitiveType{Name: ir.PrimNumber} }
func intType() *ir.PrimitiveType     { return &ir.PrimitiveType{Name: ir.PrimInt} }
func nullType() *ir.PrimitiveType    { return &ir.PrimitiveType{Name: ir.PrimNull} }
func undefType() *ir.PrimitiveType   { return &ir.PrimitiveType{Name: ir.PrimUndefined} }
func stringType() *ir.PrimitiveType  { return &ir.PrimitiveType{Name: ir.PrimString} }

func TestResolveAliasSubstitutesTarget(t *testing.T) {
	prog := context.New("test")
	prog.TypeRegistry.Declare("Id", &ir.TypeAliasDeclaration{Name: "Id", Target: stringType()}, 0)

	resolved, err := ResolveAlias(prog, &ir.ReferenceType{Name: "Id"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := resolved.(*ir.PrimitiveType); !ok {
		t.Fatalf("expected alias to resolve to its primitive target, got %T", resolved)
	}
}

func TestResolveAliasDetectsCycle(t *testing.T) {
	prog := context.New("test")
	prog.TypeRegistry.Declare("A", &ir.TypeAliasDeclaration{Name: "A", Target: &ir.ReferenceType{Name: "A"}}, 0)

	_, err := ResolveAlias(prog, &ir.ReferenceType{Name: "A"})
	if err == nil {
		t.Fatal("expected a cycle error, got nil")
	}
	if _, ok := err.(*AliasCycleError); !ok {
		t.Fatalf("expected *AliasCycleError, got %T", err)
	}
}

func TestStripNullishUnwrapsSingleRemainingMember(t *testing.T) {
	u := &ir.UnionType{Types: []ir.Type{stringType(), nullType()}}
	inner, optional := StripNullish(u)
	if !optional {
		t.Fatal("expected optional=true")
	}
	if _, ok := inner.(*ir.PrimitiveType); !ok {
		t.Fatalf("expected the surviving member to unwrap to a bare primitive, got %T", inner)
	}
}

func TestStripNullishAllNullishCollapsesToNil(t *testing.T) {
	u := &ir.UnionType{Types: []ir.Type{nullType(), undefType()}}
	inner, optional := StripNullish(u)
	if inner != nil || !optional {
		t.Fatalf("expected (nil, true), got (%v, %v)", inner, optional)
	}
}

func TestHasDistinctNullAndUndefined(t *testing.T) {
	both := &ir.UnionType{Types: []ir.Type{nullType(), undefType(), stringType()}}
	if !HasDistinctNullAndUndefined(both) {
		t.Fatal("expected true when both null and undefined are present")
	}
	onlyNull := &ir.UnionType{Types: []ir.Type{nullType(), stringType()}}
	if HasDistinctNullAndUndefined(onlyNull) {
		t.Fatal("expected false when only null is present")
	}
}

func TestWidenNumericWidensIntegerLiteralToDoubleInNumberContext(t *testing.T) {
	lit := &ir.LiteralExpr{Value: float64(3)}
	resolved, diag := WidenNumeric(lit, numberType())
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	p, ok := resolved.(*ir.PrimitiveType)
	if !ok || p.Name != ir.PrimNumber {
		t.Fatalf("expected number, got %v", resolved)
	}
}

func TestWidenNumericRejectsOutOfRangeIntContext(t *testing.T) {
	lit := &ir.LiteralExpr{Value: float64(int64(1) << 40)}
	_, diag := WidenNumeric(lit, intType())
	if diag == nil {
		t.Fatal("expected a diagnostic for a value exceeding 32-bit int range")
	}
}

func TestArrayElementTypeWidensExplicitNumberArray(t *testing.T) {
	arr := &ir.ArrayType{Element: numberType(), Origin: ir.OriginExplicit}
	elem := ArrayElementType(arr)
	p, ok := elem.(*ir.PrimitiveType)
	if !ok || p.Name != ir.PrimNumber {
		t.Fatalf("expected number element type preserved, got %v", elem)
	}
}
