// Package config holds compiler-wide constants, grounded on the
// teacher's own internal/config (version + recognized source
// extensions + mode flags).
package config

// Version is the current tsnc version, set at build time via
// -ldflags or left at this default for local builds.
var Version = "0.1.0"

const SourceFileExt = ".tsn"

// SourceFileExtensions are all recognized surface-language extensions.
var SourceFileExtensions = []string{".tsn", ".tsn.ts"}

// TrimSourceExt removes a recognized source extension from a filename,
// returning the original string unchanged if none match.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt reports whether path ends with a recognized source
// extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsLSPMode indicates the process is running in Language Server
// Protocol mode. No command in this tree sets it, so it stays false.
var IsLSPMode = false

// Reserved type names the resolver treats specially.
const (
	DynamicAnyTypeName = "__DYN_ANY__"
	NumberTypeName     = "number"
	IntTypeName        = "int"
	LongTypeName       = "long"
)
