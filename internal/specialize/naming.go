package specialize

import (
	"sort"
	"strings"

	"github.com/funvibe/tsnc/internal/ir"
)

// Serialise produces the stable, collision-free structural encoding
// used both for specialised-declaration naming and for the
// specialisation cache key (spec §4.2):
//
//	primitive -> its name
//	reference -> name + recursive serialisation of arguments joined by _
//	array     -> Arr_ + element
//	function  -> Fn_ + parameter kinds + _ + return
//	union     -> Or_ + sorted member serialisations
//	tuple     -> Tup_ + length + elements
func Serialise(t ir.Type) string {
	switch typ := t.(type) {
	case *ir.PrimitiveType:
		return typ.Name
	case *ir.LiteralType:
		return typ.String()
	case *ir.ReferenceType:
		if len(typ.TypeArguments) == 0 {
			return typ.Name
		}
		parts := make([]string, len(typ.TypeArguments))
		for i, a := range typ.TypeArguments {
			parts[i] = Serialise(a)
		}
		return typ.Name + "_" + strings.Join(parts, "_")
	case *ir.ArrayType:
		return "Arr_" + Serialise(typ.Element)
	case *ir.FunctionType:
		parts := make([]string, len(typ.Parameters))
		for i, p := range typ.Parameters {
			parts[i] = Serialise(p.Type)
		}
		return "Fn_" + strings.Join(parts, "_") + "_" + Serialise(typ.ReturnType)
	case *ir.UnionType:
		parts := make([]string, len(typ.Types))
		for i, m := range typ.Types {
			parts[i] = Serialise(m)
		}
		sort.Strings(parts)
		return "Or_" + strings.Join(parts, "_")
	case *ir.IntersectionType:
		parts := make([]string, len(typ.Types))
		for i, m := range typ.Types {
			parts[i] = Serialise(m)
		}
		return "And_" + strings.Join(parts, "_")
	case *ir.TupleType:
		parts := make([]string, len(typ.Elements))
		for i, e := range typ.Elements {
			parts[i] = Serialise(e)
		}
		return "Tup_" + itoa(len(typ.Elements)) + "_" + strings.Join(parts, "_")
	case *ir.ObjectType:
		keys := make([]string, 0, len(typ.Members))
		byKey := map[string]string{}
		for _, m := range typ.Members {
			byKey[m.Name] = m.Name + "_" + Serialise(m.Type)
			keys = append(keys, m.Name)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = byKey[k]
		}
		return "Obj_" + strings.Join(parts, "_")
	case *ir.TypeParameterRef:
		return typ.Name
	default:
		return t.String()
	}
}

// Name builds the deterministic specialised-declaration name
// `D__<serialise(A)>__<serialise(B)>` for declaration D instantiated
// with type arguments [A, B, ...].
func Name(declarationName string, typeArguments []ir.Type) string {
	parts := make([]string, len(typeArguments))
	for i, a := range typeArguments {
		parts[i] = Serialise(a)
	}
	if len(parts) == 0 {
		return declarationName
	}
	return declarationName + "__" + strings.Join(parts, "__")
}

// Key is the cache key for a (declarationName, θ) instantiation: the
// declaration name plus the serialised type-argument tuple, stable
// across repeated requests for the same instantiation.
func Key(declarationName string, typeArguments []ir.Type) string {
	return Name(declarationName, typeArguments)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}
