package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProjectConfig is the top-level tsnc.yaml project configuration,
// grounded on the teacher's internal/ext.Config shape: a declarative
// YAML document naming the entry module(s), the binding table(s) to
// load, and output layout options.
type ProjectConfig struct {
	// EntryModules names source module paths relative to the project
	// root. LoadProjectConfig requires it to be non-empty; the CLI
	// compiles every source file under the config's directory regardless
	// of which modules are listed.
	EntryModules []string `yaml:"entry_modules"`

	// OutDir is where generated .cs files are written, one per input
	// module, mirroring the module's source path with a .cs extension.
	OutDir string `yaml:"out_dir"`

	// Bindings lists bindings.yaml files to merge, in order; later
	// files override earlier ones on a surface-name collision.
	Bindings []string `yaml:"bindings,omitempty"`

	// DescriptorCatalogues lists compiled FileDescriptorSet binding
	// catalogues to merge alongside Bindings (spec §4.6).
	DescriptorCatalogues []string `yaml:"descriptor_catalogues,omitempty"`

	// CacheDB is the path to the incremental-compile cache database.
	// Empty disables caching.
	CacheDB string `yaml:"cache_db,omitempty"`

	// RootNamespace is parsed from the config (e.g. "Acme.App") but not
	// read by namespace derivation, which uses the module path alone.
	RootNamespace string `yaml:"root_namespace,omitempty"`
}

// LoadProjectConfig reads and parses a tsnc.yaml file.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project config %s: %w", path, err)
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing project config %s: %w", path, err)
	}
	if len(cfg.EntryModules) == 0 {
		return nil, fmt.Errorf("project config %s: entry_modules must list at least one module", path)
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "out"
	}
	return &cfg, nil
}
