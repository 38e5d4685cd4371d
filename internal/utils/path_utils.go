package utils

import (
	"path/filepath"

	"github.com/funvibe/tsnc/internal/config"
)

// ResolveImportPath joins a relative import path ("./foo", "../bar")
// against the importing module's own directory; a bare specifier (no
// leading dot) is returned unchanged, since bare specifiers name
// external-runtime imports rather than another local module.
func ResolveImportPath(baseDir, importPath string) string {
	if len(importPath) > 0 && importPath[0] == '.' {
		return filepath.ToSlash(filepath.Join(baseDir, importPath))
	}
	return importPath
}

// ExtractModuleName derives a module's base name from its path,
// stripping any recognized source extension, e.g. "pkg/foo/bar.tsn" ->
// "bar".
func ExtractModuleName(path string) string {
	name := filepath.Base(path)
	return config.TrimSourceExt(name)
}

// GetModuleDir returns a module path's directory component, used as
// the base for resolving its own relative imports.
func GetModuleDir(path string) string {
	if config.HasSourceExt(path) {
		return filepath.Dir(path)
	}
	return path
}
