// Command tsnc compiles a tree of surface-language source files into C#
// source text. Grounded on the teacher's cmd/funxy/main.go dispatch
// style: a sequence of handleX() bool functions, each claiming the
// invocation if its flag matches and falling through otherwise, with
// main() walking the chain in order.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/funvibe/tsnc/internal/bindings"
	"github.com/funvibe/tsnc/internal/config"
	"github.com/funvibe/tsnc/internal/context"
	"github.com/funvibe/tsnc/internal/diagnostics"
	"github.com/funvibe/tsnc/internal/pipeline"
	"github.com/funvibe/tsnc/internal/utils"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			os.Exit(1)
		}
	}()

	if handleVersion() {
		return
	}
	if handleHelp() {
		return
	}
	if handleGRPCServe() {
		return
	}
	if handleProject() {
		return
	}
	if handleCompileArgs() {
		return
	}

	fmt.Fprintln(os.Stderr, "usage: tsnc <entry.tsn|dir> [-o outdir] [-bindings file.yaml]")
	fmt.Fprintln(os.Stderr, "       tsnc -project tsnc.yaml")
	fmt.Fprintln(os.Stderr, "       tsnc -serve [-addr host:port]")
	os.Exit(1)
}

func handleVersion() bool {
	if len(os.Args) < 2 || (os.Args[1] != "-version" && os.Args[1] != "--version") {
		return false
	}
	fmt.Println("tsnc " + config.Version)
	return true
}

func handleHelp() bool {
	if len(os.Args) < 2 {
		return false
	}
	switch os.Args[1] {
	case "-help", "--help", "help":
	default:
		return false
	}
	fmt.Println("tsnc: surface-language to C# source compiler")
	fmt.Println()
	fmt.Println("  tsnc <entry.tsn|dir> [-o outdir]      compile a source file or tree")
	fmt.Println("  tsnc -project tsnc.yaml               compile a configured project")
	fmt.Println("  tsnc -serve [-addr host:port]          run the gRPC compile service")
	return true
}

// handleProject drives tsnc.yaml-configured compilation: entry modules,
// merged binding tables (YAML and/or compiled descriptor catalogues),
// and an optional incremental-compile cache (spec_full §3, §4.6).
func handleProject() bool {
	if len(os.Args) < 3 || os.Args[1] != "-project" {
		return false
	}
	cfg, err := config.LoadProjectConfig(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	root := filepath.Dir(os.Args[2])
	sources, err := loadSourceTree(root)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	bindingTable, err := loadBindingTables(root, cfg.Bindings, cfg.DescriptorCatalogues)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var cache *context.Cache
	if cfg.CacheDB != "" {
		cache, err = context.OpenCache(filepath.Join(root, cfg.CacheDB))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer cache.Close()
	}

	runCompile(sources, root, cfg.OutDir, bindingTable, cache)
	return true
}

// handleCompileArgs is the bare-invocation form: a single entry file or
// directory, with optional -o/-bindings flags.
func handleCompileArgs() bool {
	if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
		return false
	}

	entry := os.Args[1]
	outDir := "out"
	var bindingFiles []string
	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "-o", "--out":
			if i+1 < len(os.Args) {
				i++
				outDir = os.Args[i]
			}
		case "-bindings":
			if i+1 < len(os.Args) {
				i++
				bindingFiles = append(bindingFiles, os.Args[i])
			}
		}
	}

	info, err := os.Stat(entry)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	root := entry
	if !info.IsDir() {
		root = filepath.Dir(entry)
	}
	sources, err := loadSourceTree(root)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	bindingTable, err := loadBindingTables(root, bindingFiles, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	runCompile(sources, root, outDir, bindingTable, nil)
	return true
}

// loadSourceTree walks root collecting every recognized source file,
// keyed by its path relative to root with forward slashes (the module
// path used for namespace derivation and import resolution).
func loadSourceTree(root string) (map[string]string, error) {
	sources := map[string]string{}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		data, err := os.ReadFile(root)
		if err != nil {
			return nil, err
		}
		sources[filepath.Base(root)] = string(data)
		return sources, nil
	}

	err = filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		if !config.HasSourceExt(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sources[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	return sources, err
}

// loadBindingTables merges YAML binding files and compiled descriptor
// catalogues into a single table, later files overriding earlier ones
// on a surface-name collision (spec §4.6).
func loadBindingTables(root string, yamlFiles, descriptorFiles []string) (*bindings.Table, error) {
	merged := bindings.Config{}
	for _, f := range yamlFiles {
		t, err := bindings.Load(resolveRelative(root, f))
		if err != nil {
			return nil, err
		}
		mergeTable(&merged, t)
	}
	for _, f := range descriptorFiles {
		t, err := bindings.LoadDescriptorCatalogue(resolveRelative(root, f))
		if err != nil {
			return nil, err
		}
		mergeTable(&merged, t)
	}
	return bindings.FromConfig(merged), nil
}

func resolveRelative(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// mergeTable re-expands an already-built Table's resolved bindings back
// into a Config so multiple tables can be combined via FromConfig; a
// resolved binding carries everything a TypeBinding needs except its
// surface name, which Lookup has already keyed it by.
func mergeTable(cfg *bindings.Config, t *bindings.Table) {
	for _, surface := range t.Surfaces() {
		b, _ := t.Lookup(surface)
		cfg.Types = append(cfg.Types, bindings.TypeBinding{
			Surface:   surface,
			Namespace: b.Namespace,
			Name:      b.Name,
			Arity:     b.Arity,
			Immutable: b.Immutable,
			Members:   b.Members,
		})
	}
}

// buildResolveImport constructs the (fromModule, importPath) -> (module
// path, ok) resolver CompileProgram's dependency graph needs: relative
// imports ("./foo", "../bar") are resolved against the importing
// module's own directory, trying every recognized source extension in
// turn; anything else (a bare specifier) is an external-runtime import
// and is left for the binding table / using-set instead of a graph edge.
func buildResolveImport(sources map[string]string) func(fromModule, importPath string) (string, bool) {
	return func(fromModule, importPath string) (string, bool) {
		if !strings.HasPrefix(importPath, ".") {
			return "", false
		}
		joined := utils.ResolveImportPath(utils.GetModuleDir(fromModule), importPath)

		if _, ok := sources[joined]; ok {
			return joined, true
		}
		for _, ext := range config.SourceFileExtensions {
			candidate := joined + ext
			if _, ok := sources[candidate]; ok {
				return candidate, true
			}
		}
		return "", false
	}
}

// runCompile runs CompileProgram over sources, writes each result to
// outDir mirroring its module path with a .cs extension, and prints a
// run summary: elapsed time and emitted byte count via go-humanize,
// diagnostics colorized when stdout is a terminal.
func runCompile(sources map[string]string, root, outDir string, bindingTable *bindings.Table, cache *context.Cache) {
	if bindingTable == nil {
		bindingTable = bindings.Empty()
	}
	runID := uuid.NewString()
	start := time.Now()

	results, diags := pipeline.CompileProgram(runID, sources, buildResolveImport(sources), bindingTable)

	colorize := isatty.IsTerminal(os.Stdout.Fd())
	var totalBytes int64
	for _, res := range results {
		outPath := filepath.Join(outDir, config.TrimSourceExt(res.Path)+".cs")
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := os.WriteFile(outPath, []byte(res.Text), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		totalBytes += int64(len(res.Text))
	}

	printDiagnostics(diags, colorize)

	fmt.Printf("compiled %d module(s), %s written, in %s (run %s)\n",
		len(results), humanize.Bytes(uint64(totalBytes)), time.Since(start).Round(time.Millisecond), runID)

	if diags.HasFatal() {
		os.Exit(1)
	}
	_ = cache // the cache is opened and closed but neither consulted nor written: every run is cold
}

func printDiagnostics(diags *diagnostics.Bag, colorize bool) {
	for _, d := range diags.All() {
		line := d.Error()
		if colorize {
			code := "\033[33m" // warning: yellow
			if d.Severity == diagnostics.SeverityFatal {
				code = "\033[31m" // fatal: red
			}
			line = code + line + "\033[0m"
		}
		fmt.Fprintln(os.Stderr, line)
	}
}
