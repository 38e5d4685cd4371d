// Package resolve turns surface-level IR types into canonical types
// suitable for emission: alias resolution, nullish stripping, union
// flattening, contextual inference for lambdas and object literals,
// and numeric-width propagation (spec §4.1). It never unifies — all
// inference flows outside-in, bounded, grounded on the teacher's
// internal/typesystem (Type/Subst/Apply shape) and
// internal/analyzer/inference*.go (bidirectional, non-unifying
// contextual inference).
package resolve

import (
	"fmt"

	"github.com/funvibe/tsnc/internal/context"
	"github.com/funvibe/tsnc/internal/diagnostics"
	"github.com/funvibe/tsnc/internal/ir"
	"github.com/funvibe/tsnc/internal/token"
)

// AliasCycleError is returned by ResolveAlias when a type alias
// refers to itself, directly or transitively.
type AliasCycleError struct {
	Name string
}

func (e *AliasCycleError) Error() string {
	return fmt.Sprintf("alias cycle detected at %q", e.Name)
}

// ResolveAlias substitutes a referenceType naming a type alias with
// the alias body under the type-argument environment, recursing until
// a non-alias type is reached. Alias resolution is a fixed point:
// resolve(resolve(t)) = resolve(t) (spec §8).
func ResolveAlias(prog *context.Program, t ir.Type) (ir.Type, error) {
	return resolveAliasVisited(prog, t, map[string]bool{})
}

func resolveAliasVisited(prog *context.Program, t ir.Type, visited map[string]bool) (ir.Type, error) {
	ref, ok := t.(*ir.ReferenceType)
	if !ok {
		return t, nil
	}
	decl, ok := prog.TypeRegistry.Lookup(ref.Name)
	if !ok {
		return t, nil
	}
	alias, ok := decl.(*ir.TypeAliasDeclaration)
	if !ok {
		return t, nil
	}
	if visited[ref.Name] {
		return nil, &AliasCycleError{Name: ref.Name}
	}
	newVisited := make(map[string]bool, len(visited)+1)
	for k, v := range visited {
		newVisited[k] = v
	}
	newVisited[ref.Name] = true

	subst := ir.Subst{}
	for i, tp := range alias.TypeParameters {
		if i < len(ref.TypeArguments) {
			subst[tp.Name] = ref.TypeArguments[i]
		}
	}
	substituted := alias.Target.Apply(subst)
	return resolveAliasVisited(prog, substituted, newVisited)
}

// StripNullish removes null/undefined members from a union, unwrapping
// to the single remaining member when only one is left. It answers
// "is this T optional?" independent from "what is its inner shape?".
func StripNullish(t ir.Type) (inner ir.Type, optional bool) {
	u, ok := t.(*ir.UnionType)
	if !ok {
		if ir.IsNullOrUndefined(t) {
			return t, true
		}
		return t, false
	}
	var kept []ir.Type
	stripped := false
	for _, m := range u.Types {
		if ir.IsNullOrUndefined(m) {
			stripped = true
			continue
		}
		kept = append(kept, m)
	}
	if !stripped {
		return t, false
	}
	if len(kept) == 0 {
		return nil, true
	}
	if len(kept) == 1 {
		return kept[0], true
	}
	return &ir.UnionType{Token: u.Token, Types: kept}, true
}

// HasDistinctNullAndUndefined reports whether a union carries both
// null and undefined — the ambiguous case spec §9's open question
// asks diagnostics to flag at the first point of observable
// difference, rather than guess.
func HasDistinctNullAndUndefined(t ir.Type) bool {
	u, ok := t.(*ir.UnionType)
	if !ok {
		return false
	}
	hasNull, hasUndefined := false, false
	for _, m := range u.Types {
		if p, ok := m.(*ir.PrimitiveType); ok {
			if p.Name == ir.PrimNull {
				hasNull = true
			}
			if p.Name == ir.PrimUndefined {
				hasUndefined = true
			}
		}
	}
	return hasNull && hasUndefined
}

// ContainsDynamicAny structurally searches unions/intersections, after
// alias resolution, for the reserved dynamic-any name.
func ContainsDynamicAny(prog *context.Program, t ir.Type) bool {
	resolved, err := ResolveAlias(prog, t)
	if err != nil {
		resolved = t
	}
	switch typ := resolved.(type) {
	case *ir.ReferenceType:
		return typ.Name == ir.DynamicAnyName
	case *ir.UnionType:
		for _, m := range typ.Types {
			if ContainsDynamicAny(prog, m) {
				return true
			}
		}
	case *ir.IntersectionType:
		for _, m := range typ.Types {
			if ContainsDynamicAny(prog, m) {
				return true
			}
		}
	}
	return false
}

// FlattenUnion recursively inlines nested unions and deduplicates by
// the structural key (ir.Type.String()).
func FlattenUnion(tok token.Token, types []ir.Type) ir.Type {
	return ir.NormalizeUnion(tok, types)
}

// InferLambdaParamTypes assigns each unannotated lambda parameter the
// contextual parameter's type. A missing contextual type yields
// `unknown`; no diagnostic is issued here, and no caller reports
// UnresolvedLambdaParamDiagnostic for such a parameter.
func InferLambdaParamTypes(lambda *ir.ArrowFunctionExpr, contextual *ir.FunctionType) []ir.Param {
	params := make([]ir.Param, len(lambda.Parameters))
	for i, p := range lambda.Parameters {
		params[i] = p
		if params[i].Type != nil {
			continue
		}
		if contextual != nil && i < len(contextual.Parameters) {
			params[i].Type = contextual.Parameters[i].Type
		} else {
			params[i].Type = &ir.PrimitiveType{Name: ir.PrimUnknown}
		}
	}
	return params
}

// UnresolvedLambdaParamDiagnostic reports a lambda parameter that
// remained `unknown` and was observed used in a position requiring a
// concrete type.
func UnresolvedLambdaParamDiagnostic(file string, tok token.Token, paramName string) *diagnostics.Diagnostic {
	return diagnostics.Fatal(diagnostics.ErrAmbiguousInference, diagnostics.KindType,
		diagnostics.LocationFromToken(file, tok),
		"parameter %q has no contextual type and is used where a concrete type is required", paramName)
}

// InferObjectLiteral assigns a static type to an object literal. When
// the contextual type is a named reference, the literal's type
// becomes that reference (with its type arguments); otherwise an
// anonymous object type is synthesised from the properties' inferred
// types. The synthesised type is not recorded or named anywhere;
// emission lowers it to `object`.
func InferObjectLiteral(obj *ir.ObjectExpr, contextual ir.Type) ir.Type {
	if ref, ok := contextual.(*ir.ReferenceType); ok {
		return ref
	}
	members := make([]ir.Member, 0, len(obj.Properties))
	for _, p := range obj.Properties {
		if p.Spread {
			continue
		}
		var t ir.Type = &ir.PrimitiveType{Name: ir.PrimUnknown}
		if p.Value != nil && p.Value.InferredType() != nil {
			t = p.Value.InferredType()
		}
		members = append(members, ir.Member{Name: p.Key, Type: t})
	}
	return &ir.ObjectType{Token: obj.Token, Members: members}
}

// PickUnionMember selects the first union member whose shape is
// structurally compatible — inference over a union contextual type
// never backtracks (spec §4.1 tie-break).
func PickUnionMember(candidates []ir.Type, isCompatible func(ir.Type) bool) (ir.Type, bool) {
	for _, c := range candidates {
		if isCompatible(c) {
			return c, true
		}
	}
	return nil, false
}

// WidenNumeric widens an integer-valued literal to double in a number
// context, and keeps it at its declared width in an int/long context.
// Array elements get their container's element type from propagate in
// infer.go; tuple elements are not given a contextual type.
func WidenNumeric(lit *ir.LiteralExpr, contextual ir.Type) (ir.Type, *diagnostics.Diagnostic) {
	val, isFloat := lit.Value.(float64)
	if !isFloat {
		return contextual, nil
	}
	prim, ok := contextual.(*ir.PrimitiveType)
	if !ok {
		return &ir.PrimitiveType{Name: ir.PrimNumber}, nil
	}
	switch prim.Name {
	case ir.PrimNumber:
		return prim, nil
	case ir.PrimInt:
		if val != float64(int32(val)) {
			return prim, diagnostics.Fatal(diagnostics.ErrIntDoubleMismatch, diagnostics.KindType,
				diagnostics.LocationFromToken("", lit.Token),
				"integer literal %v exceeds 32-bit range required by int context", val)
		}
		return prim, nil
	case ir.PrimLong:
		if val != float64(int64(val)) {
			return prim, diagnostics.Fatal(diagnostics.ErrIntDoubleMismatch, diagnostics.KindType,
				diagnostics.LocationFromToken("", lit.Token),
				"numeric literal %v exceeds 64-bit integer range required by long context", val)
		}
		return prim, nil
	default:
		return prim, nil
	}
}

// ArrayElementType returns the effective element type for an array
// literal, honouring invariant 5: an explicit `number[]` always emits
// double[], even when every literal is integer-valued.
func ArrayElementType(arr *ir.ArrayType) ir.Type {
	if arr.Origin == ir.OriginExplicit {
		if p, ok := arr.Element.(*ir.PrimitiveType); ok && p.Name == ir.PrimNumber {
			return &ir.PrimitiveType{Name: ir.PrimNumber}
		}
	}
	return arr.Element
}
