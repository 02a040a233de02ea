// Package config loads blood.yaml, the per-project configuration file
// cmd/bloodc reads before falling back to its own flag defaults.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file bloodc looks for in the input file's
// directory and each ancestor, the way a Cargo.toml/go.mod search
// would.
const FileName = "blood.yaml"

// Config is blood.yaml's shape.
type Config struct {
	Module string `yaml:"module"`
	Output string `yaml:"output"`

	// Target is an LLVM target triple. It is parsed but not passed to
	// codegen, whose header always declares x86_64-unknown-linux-gnu.
	Target string `yaml:"target"`

	// DiagCap bounds how many diagnostics a Run renders before
	// truncating (0 = unbounded), mirroring diag.Context's cap.
	DiagCap int `yaml:"diag_cap"`

	// JSON is parsed but not consulted by bloodc; JSON diagnostic
	// rendering is selected only by the -json flag.
	JSON bool `yaml:"json"`
}

// Default returns the configuration bloodc uses when no blood.yaml is
// found.
func Default() Config {
	return Config{
		Module: "main",
		Output: "a.out",
		Target: "x86_64-unknown-linux-gnu",
	}
}

// Load reads and parses path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Find walks up from dir looking for blood.yaml, the way a module
// loader walks up looking for a workspace root. It returns ("", false)
// if none is found by the filesystem root.
func Find(dir string) (string, bool) {
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// LoadFromDir finds and loads blood.yaml starting at dir, falling back
// to Default() if none exists.
func LoadFromDir(dir string) (Config, error) {
	path, ok := Find(dir)
	if !ok {
		return Default(), nil
	}
	return Load(path)
}
