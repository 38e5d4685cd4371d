// Package bindings implements the "Metadata/bindings collaborator" of
// spec §6: a declarative table mapping external-runtime type names to
// their target-namespace fully-qualified C# names, arity, and member
// shapes, exposed to the core via lookupTypeBinding(name).
//
// It is a direct generalisation of the teacher's internal/ext.Config
// (a funxy.yaml table binding Go packages into the Funxy runtime): the
// same As/Bind/BindAll-shaped YAML schema, repointed at C# binding
// metadata instead of Go interop metadata.
package bindings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/tsnc/internal/ir"
)

// MemberBinding describes one member of an external-runtime type: its
// surface name, its C# member name, and its declared type (as an IR
// type so the emitter can render it with the usual CSharpType rules).
type MemberBinding struct {
	Surface string `yaml:"surface"`
	CSharp  string `yaml:"csharp"`
	Type    string `yaml:"type"` // primitive name or a registered reference name
}

// TypeBinding is one declarative binding-table entry.
type TypeBinding struct {
	// Surface is the name used in the surface language source.
	Surface string `yaml:"surface"`
	// Namespace is the C# namespace the target type lives in, added to
	// the emitting module's using-set whenever this binding is used.
	Namespace string `yaml:"namespace"`
	// Name is the target type's simple C# name.
	Name string `yaml:"name"`
	// Arity is the expected number of generic type arguments.
	Arity int `yaml:"arity"`
	// Immutable marks a binding as immutable. It is loaded and merged
	// with the table; the emitter does not read it.
	Immutable bool `yaml:"immutable"`
	// Members lists the bound shape, used for structural validation
	// and member-access emission.
	Members []MemberBinding `yaml:"members"`
}

// ResolvedBinding is what lookupTypeBinding returns: enough to emit a
// qualified reference and validate arity.
type ResolvedBinding struct {
	Namespace string
	Name      string
	Arity     int
	Immutable bool
	Members   []MemberBinding
}

// QualifiedName renders the C# reference for a use of this binding,
// including any generic type arguments rendered by renderArg.
func (r *ResolvedBinding) QualifiedName(ref *ir.ReferenceType, renderArg func(ir.Type) string) string {
	if len(ref.TypeArguments) == 0 {
		return r.Name
	}
	args := make([]string, len(ref.TypeArguments))
	for i, a := range ref.TypeArguments {
		args[i] = renderArg(a)
	}
	joined := args[0]
	for _, a := range args[1:] {
		joined += ", " + a
	}
	return fmt.Sprintf("%s<%s>", r.Name, joined)
}

// MemberCSharpName looks up the C# member name bound to a surface
// member name, falling back to the surface name unchanged.
func (r *ResolvedBinding) MemberCSharpName(surface string) string {
	for _, m := range r.Members {
		if m.Surface == surface {
			return m.CSharp
		}
	}
	return surface
}

// Table is the loaded binding table, queried by lookupTypeBinding.
type Table struct {
	byName map[string]*ResolvedBinding
}

func Empty() *Table {
	return &Table{byName: map[string]*ResolvedBinding{}}
}

// Lookup implements lookupTypeBinding(name) -> ResolvedBinding? from
// spec §6.
func (t *Table) Lookup(name string) (*ResolvedBinding, bool) {
	b, ok := t.byName[name]
	return b, ok
}

// Surfaces lists every bound surface name, used to merge multiple
// tables back into a single Config.
func (t *Table) Surfaces() []string {
	out := make([]string, 0, len(t.byName))
	for s := range t.byName {
		out = append(out, s)
	}
	return out
}

// Config is the top-level bindings.yaml document.
type Config struct {
	Types []TypeBinding `yaml:"types"`
}

// Load parses a bindings.yaml file into a queryable Table.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading binding table: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing binding table %s: %w", path, err)
	}
	return FromConfig(cfg), nil
}

// FromConfig builds a Table directly from a parsed Config, used by
// both the YAML loader and the descriptor-catalogue loader.
func FromConfig(cfg Config) *Table {
	t := Empty()
	for _, tb := range cfg.Types {
		t.byName[tb.Surface] = &ResolvedBinding{
			Namespace: tb.Namespace,
			Name:      tb.Name,
			Arity:     tb.Arity,
			Immutable: tb.Immutable,
			Members:   tb.Members,
		}
	}
	return t
}
