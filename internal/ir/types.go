// Package ir defines the closed, discriminated intermediate
// representation shared by type resolution, specialisation and
// emission: a type algebra, a statement family and an expression
// family. New kinds require touching these closed sets by design —
// every consumer that switches on Kind() is meant to be exhaustive.
package ir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/tsnc/internal/token"
)

// Node is the common surface every IR element exposes for diagnostics.
type Node interface {
	GetToken() token.Token
}

// Subst maps a type-parameter name to the type substituted for it.
type Subst map[string]Type

// Type is the interface every IR type node implements. Kind returns
// the stable discriminant used by the emission dispatch table and by
// resolve/specialize type switches.
type Type interface {
	Node
	Kind() string
	String() string
	Apply(Subst) Type
	FreeVars() []string
}

// Origin records whether an array type came from an explicit type
// annotation or was inferred from a literal — it decides numeric-width
// selection per spec invariant 5.
type Origin int

const (
	OriginExplicit Origin = iota
	OriginInferred
)

// Primitive names. number is 64-bit float; int/long are distinct
// width-carrying integers, kept separate from number by design.
const (
	PrimBoolean      = "boolean"
	PrimString       = "string"
	PrimNumber       = "number"
	PrimInt          = "int"
	PrimLong         = "long"
	PrimNull         = "null"
	PrimUndefined    = "undefined"
	PrimVoid         = "void"
	PrimUnknown      = "unknown"
	PrimAny          = "any"
	PrimNever        = "never"
	PrimStructMarker = "struct-marker"
)

// DynamicAnyName is the reserved type name marking values that escape
// the static discipline (spec glossary: Dynamic-any).
const DynamicAnyName = "__DYN_ANY__"

// PrimitiveType is a leaf type.
type PrimitiveType struct {
	Token token.Token
	Name  string
}

func (t *PrimitiveType) GetToken() token.Token { return t.Token }
func (t *PrimitiveType) Kind() string          { return "primitive" }
func (t *PrimitiveType) String() string         { return t.Name }
func (t *PrimitiveType) Apply(Subst) Type       { return t }
func (t *PrimitiveType) FreeVars() []string     { return nil }

// LiteralType is a singleton type used for discriminants, e.g. the
// `true` in `{ ok: true, v: int }`.
type LiteralType struct {
	Token token.Token
	Value any // string | float64 | bool
}

func (t *LiteralType) GetToken() token.Token { return t.Token }
func (t *LiteralType) Kind() string          { return "literal" }
func (t *LiteralType) String() string        { return fmt.Sprintf("%v", t.Value) }
func (t *LiteralType) Apply(Subst) Type       { return t }
func (t *LiteralType) FreeVars() []string     { return nil }

// ArrayType is an ordered sequence. Origin drives numeric-width
// selection: an explicit `number[]` containing only integer literals
// still emits as double[] (invariant 5).
type ArrayType struct {
	Token   token.Token
	Element Type
	Origin  Origin
}

func (t *ArrayType) GetToken() token.Token { return t.Token }
func (t *ArrayType) Kind() string          { return "array" }
func (t *ArrayType) String() string        { return t.Element.String() + "[]" }
func (t *ArrayType) Apply(s Subst) Type {
	return &ArrayType{Token: t.Token, Element: t.Element.Apply(s), Origin: t.Origin}
}
func (t *ArrayType) FreeVars() []string { return t.Element.FreeVars() }

// Member is a named, possibly optional/readonly field of an object or
// structural reference type.
type Member struct {
	Name     string
	Type     Type
	Optional bool
	Readonly bool
}

func (m Member) apply(s Subst) Member {
	return Member{Name: m.Name, Type: m.Type.Apply(s), Optional: m.Optional, Readonly: m.Readonly}
}

// ReferenceType is a named type, possibly generic, possibly carrying a
// resolved structural shape (once alias/interface resolution has run).
type ReferenceType struct {
	Token             token.Token
	Name              string
	TypeArguments     []Type
	StructuralMembers []Member // resolved shape, nil until resolve fills it in
}

func (t *ReferenceType) GetToken() token.Token { return t.Token }
func (t *ReferenceType) Kind() string          { return "reference" }
func (t *ReferenceType) String() string {
	if len(t.TypeArguments) == 0 {
		return t.Name
	}
	args := make([]string, len(t.TypeArguments))
	for i, a := range t.TypeArguments {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", t.Name, strings.Join(args, ", "))
}
func (t *ReferenceType) Apply(s Subst) Type {
	if len(t.TypeArguments) == 0 {
		if repl, ok := s[t.Name]; ok {
			return repl
		}
		return t
	}
	newArgs := make([]Type, len(t.TypeArguments))
	for i, a := range t.TypeArguments {
		newArgs[i] = a.Apply(s)
	}
	return &ReferenceType{Token: t.Token, Name: t.Name, TypeArguments: newArgs, StructuralMembers: t.StructuralMembers}
}
func (t *ReferenceType) FreeVars() []string {
	if len(t.TypeArguments) == 0 {
		return []string{t.Name}
	}
	var vars []string
	for _, a := range t.TypeArguments {
		vars = append(vars, a.FreeVars()...)
	}
	return uniqueStrings(vars)
}

// Param is a function parameter: name, type, optional flag, default.
type Param struct {
	Name     string
	Type     Type
	Optional bool
	Default  Expr
}

func (p Param) apply(s Subst) Param {
	var t Type
	if p.Type != nil {
		t = p.Type.Apply(s)
	}
	return Param{Name: p.Name, Type: t, Optional: p.Optional, Default: p.Default}
}

// TypeParam is a declared generic type parameter with optional
// constraint and default.
type TypeParam struct {
	Name       string
	Constraint Type
	Default    Type
}

// FunctionType is the type of a function value.
type FunctionType struct {
	Token         token.Token
	Parameters    []Param
	ReturnType    Type
	TypeParameters []TypeParam
	IsAsync       bool
}

func (t *FunctionType) GetToken() token.Token { return t.Token }
func (t *FunctionType) Kind() string          { return "function" }
func (t *FunctionType) String() string {
	params := make([]string, len(t.Parameters))
	for i, p := range t.Parameters {
		suffix := ""
		if p.Optional {
			suffix = "?"
		}
		params[i] = p.Name + suffix + ": " + p.Type.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), t.ReturnType.String())
}
func (t *FunctionType) Apply(s Subst) Type {
	bound := make(map[string]bool, len(t.TypeParameters))
	for _, tp := range t.TypeParameters {
		bound[tp.Name] = true
	}
	inner := s
	if len(bound) > 0 {
		inner = Subst{}
		for k, v := range s {
			if !bound[k] {
				inner[k] = v
			}
		}
	}
	newParams := make([]Param, len(t.Parameters))
	for i, p := range t.Parameters {
		newParams[i] = p.apply(inner)
	}
	return &FunctionType{
		Token:          t.Token,
		Parameters:     newParams,
		ReturnType:     t.ReturnType.Apply(inner),
		TypeParameters: t.TypeParameters,
		IsAsync:        t.IsAsync,
	}
}
func (t *FunctionType) FreeVars() []string {
	bound := make(map[string]bool, len(t.TypeParameters))
	for _, tp := range t.TypeParameters {
		bound[tp.Name] = true
	}
	var vars []string
	for _, p := range t.Parameters {
		if p.Type != nil {
			vars = append(vars, p.Type.FreeVars()...)
		}
	}
	vars = append(vars, t.ReturnType.FreeVars()...)
	var out []string
	for _, v := range uniqueStrings(vars) {
		if !bound[v] {
			out = append(out, v)
		}
	}
	return out
}

// IndexSignature is an object type's `[key: K]: V` index signature.
type IndexSignature struct {
	KeyType   Type
	ValueType Type
}

// ObjectType is an anonymous record.
type ObjectType struct {
	Token          token.Token
	Members        []Member
	IndexSignature *IndexSignature
}

func (t *ObjectType) GetToken() token.Token { return t.Token }
func (t *ObjectType) Kind() string          { return "object" }
func (t *ObjectType) String() string {
	members := make([]string, len(t.Members))
	for i, m := range t.Members {
		opt := ""
		if m.Optional {
			opt = "?"
		}
		members[i] = m.Name + opt + ": " + m.Type.String()
	}
	sort.Strings(members)
	return "{ " + strings.Join(members, ", ") + " }"
}
func (t *ObjectType) Apply(s Subst) Type {
	newMembers := make([]Member, len(t.Members))
	for i, m := range t.Members {
		newMembers[i] = m.apply(s)
	}
	var idx *IndexSignature
	if t.IndexSignature != nil {
		idx = &IndexSignature{KeyType: t.IndexSignature.KeyType.Apply(s), ValueType: t.IndexSignature.ValueType.Apply(s)}
	}
	return &ObjectType{Token: t.Token, Members: newMembers, IndexSignature: idx}
}
func (t *ObjectType) FreeVars() []string {
	var vars []string
	for _, m := range t.Members {
		vars = append(vars, m.Type.FreeVars()...)
	}
	if t.IndexSignature != nil {
		vars = append(vars, t.IndexSignature.KeyType.FreeVars()...)
		vars = append(vars, t.IndexSignature.ValueType.FreeVars()...)
	}
	return uniqueStrings(vars)
}

// UnionType is a flattened, deduplicated n-ary union (invariant: at
// least two members, none of kind union, deduped by structural key).
type UnionType struct {
	Token token.Token
	Types []Type
}

func (t *UnionType) GetToken() token.Token { return t.Token }
func (t *UnionType) Kind() string          { return "union" }
func (t *UnionType) String() string {
	parts := make([]string, len(t.Types))
	for i, m := range t.Types {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}
func (t *UnionType) Apply(s Subst) Type {
	newTypes := make([]Type, len(t.Types))
	for i, m := range t.Types {
		newTypes[i] = m.Apply(s)
	}
	return NormalizeUnion(t.Token, newTypes)
}
func (t *UnionType) FreeVars() []string {
	var vars []string
	for _, m := range t.Types {
		vars = append(vars, m.FreeVars()...)
	}
	return uniqueStrings(vars)
}

// IntersectionType is a flattened n-ary intersection.
type IntersectionType struct {
	Token token.Token
	Types []Type
}

func (t *IntersectionType) GetToken() token.Token { return t.Token }
func (t *IntersectionType) Kind() string          { return "intersection" }
func (t *IntersectionType) String() string {
	parts := make([]string, len(t.Types))
	for i, m := range t.Types {
		parts[i] = m.String()
	}
	return strings.Join(parts, " & ")
}
func (t *IntersectionType) Apply(s Subst) Type {
	newTypes := make([]Type, len(t.Types))
	for i, m := range t.Types {
		newTypes[i] = m.Apply(s)
	}
	return &IntersectionType{Token: t.Token, Types: newTypes}
}
func (t *IntersectionType) FreeVars() []string {
	var vars []string
	for _, m := range t.Types {
		vars = append(vars, m.FreeVars()...)
	}
	return uniqueStrings(vars)
}

// TupleType is a fixed-length ordered product.
type TupleType struct {
	Token    token.Token
	Elements []Type
}

func (t *TupleType) GetToken() token.Token { return t.Token }
func (t *TupleType) Kind() string          { return "tuple" }
func (t *TupleType) String() string {
	parts := make([]string, len(t.Elements))
	for i, m := range t.Elements {
		parts[i] = m.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (t *TupleType) Apply(s Subst) Type {
	newElems := make([]Type, len(t.Elements))
	for i, m := range t.Elements {
		newElems[i] = m.Apply(s)
	}
	return &TupleType{Token: t.Token, Elements: newElems}
}
func (t *TupleType) FreeVars() []string {
	var vars []string
	for _, m := range t.Elements {
		vars = append(vars, m.FreeVars()...)
	}
	return uniqueStrings(vars)
}

// TypeParameterRef is a reference to an in-scope type parameter.
type TypeParameterRef struct {
	Token      token.Token
	Name       string
	Constraint Type
	Default    Type
}

func (t *TypeParameterRef) GetToken() token.Token { return t.Token }
func (t *TypeParameterRef) Kind() string          { return "typeParamRef" }
func (t *TypeParameterRef) String() string        { return t.Name }
func (t *TypeParameterRef) Apply(s Subst) Type {
	if repl, ok := s[t.Name]; ok {
		return repl
	}
	return t
}
func (t *TypeParameterRef) FreeVars() []string { return []string{t.Name} }

// NormalizeUnion flattens nested unions, deduplicates by structural
// key (String()), and unwraps a single-member result — the fixed
// point `flatten(flatten(u)) = flatten(u)` required by spec §8.
func NormalizeUnion(tok token.Token, types []Type) Type {
	var flat []Type
	for _, t := range types {
		if u, ok := t.(*UnionType); ok {
			flat = append(flat, u.Types...)
		} else {
			flat = append(flat, t)
		}
	}

	seen := map[string]bool{}
	var unique []Type
	for _, t := range flat {
		key := t.String()
		if !seen[key] {
			seen[key] = true
			unique = append(unique, t)
		}
	}

	if len(unique) == 1 {
		return unique[0]
	}

	sort.Slice(unique, func(i, j int) bool { return unique[i].String() < unique[j].String() })
	return &UnionType{Token: tok, Types: unique}
}

func uniqueStrings(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// IsNullOrUndefined reports whether t is exactly the null or
// undefined primitive.
func IsNullOrUndefined(t Type) bool {
	p, ok := t.(*PrimitiveType)
	return ok && (p.Name == PrimNull || p.Name == PrimUndefined)
}
