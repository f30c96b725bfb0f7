// Package config loads gate configuration from builtin profiles and
// repository config files.
package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/scan"
	"github.com/GarciaKevinFab/SISTEMA-ACADEMICO-sub002/internal/schema"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// DefaultProfile is used when no profile is named.
const DefaultProfile = "default"

// FileNames are the config files looked up in the repository root, in order.
var FileNames = []string{".mutationguard.yaml", ".mutationguard.yml", ".mutationguard.toml"}

// Rules configures one language's wrappers module.
type Rules struct {
	Module   string            `yaml:"module" toml:"module"`
	Wrappers map[string]string `yaml:"wrappers" toml:"wrappers"`
}

// Config is a resolved gate configuration.
type Config struct {
	Name        string   `yaml:"name" toml:"name"`
	Description string   `yaml:"description" toml:"description"`
	Go          *Rules   `yaml:"go" toml:"go"`
	Python      *Rules   `yaml:"python" toml:"python"`
	Exclude     []string `yaml:"exclude" toml:"exclude"`
	Extensions  []string `yaml:"extensions" toml:"extensions"`
	Jobs        int      `yaml:"jobs" toml:"jobs"`

	// Source names where the config came from, for --verbose output.
	Source string `yaml:"-" toml:"-"`
}

// LoadBuiltin loads a built-in profile by name.
func LoadBuiltin(name string) (*Config, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("config.LoadBuiltin: unknown profile %q: %w", name, err)
	}
	c, err := decode(data, ".yaml")
	if err != nil {
		return nil, fmt.Errorf("config.LoadBuiltin: %q: %w", name, err)
	}
	c.Source = "profile:" + name
	return c, nil
}

// List returns the names of all built-in profiles, sorted.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads a YAML or TOML config file. The format follows the extension.
func Load(p string) (*Config, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	c, err := decode(data, strings.ToLower(filepath.Ext(p)))
	if err != nil {
		return nil, fmt.Errorf("config.Load: %s: %w", p, err)
	}
	c.Source = p
	return c, nil
}

// Discover returns the first config file present in root.
func Discover(root string) (string, bool) {
	for _, name := range FileNames {
		p := filepath.Join(root, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Resolve picks the configuration for a run: the explicit file when given,
// else a config file discovered in root, else nothing. Whatever is found is
// layered on top of the named builtin profile.
func Resolve(explicit, root, profile string) (*Config, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	base, err := LoadBuiltin(profile)
	if err != nil {
		return nil, err
	}

	p := explicit
	if p == "" {
		var ok bool
		if p, ok = Discover(root); !ok {
			return base, nil
		}
	}
	file, err := Load(p)
	if err != nil {
		return nil, err
	}
	return base.Overlay(file), nil
}

// Overlay returns a copy of c with every field set in o replacing c's.
func (c *Config) Overlay(o *Config) *Config {
	out := *c
	if o.Name != "" {
		out.Name = o.Name
	}
	if o.Description != "" {
		out.Description = o.Description
	}
	out.Go = overlayRules(c.Go, o.Go)
	out.Python = overlayRules(c.Python, o.Python)
	if o.Exclude != nil {
		out.Exclude = o.Exclude
	}
	if o.Extensions != nil {
		out.Extensions = o.Extensions
	}
	if o.Jobs != 0 {
		out.Jobs = o.Jobs
	}
	if o.Source != "" {
		out.Source = o.Source
	}
	return &out
}

func overlayRules(base, o *Rules) *Rules {
	if o == nil {
		return base
	}
	if base == nil {
		return o
	}
	out := *base
	if o.Module != "" {
		out.Module = o.Module
	}
	if o.Wrappers != nil {
		out.Wrappers = o.Wrappers
	}
	return &out
}

// ScanConfig converts the configuration into scanner rules. A language
// without rules is given an empty rule set, so nothing is flagged for it.
func (c *Config) ScanConfig() scan.Config {
	var sc scan.Config
	if c.Go != nil {
		sc.Go = scan.Rules{Module: c.Go.Module, Wrappers: c.Go.Wrappers}
	}
	if c.Python != nil {
		sc.Python = scan.Rules{Module: c.Python.Module, Wrappers: c.Python.Wrappers}
	}
	return sc
}

// Excluded reports whether the slash-separated path rel, relative to the
// repository root, matches an exclude pattern. Patterns ending in "/" match
// a directory at any depth; other patterns are path.Match globs, matched
// against the base name when they contain no slash.
func (c *Config) Excluded(rel string) bool {
	rel = strings.TrimPrefix(path.Clean(filepath.ToSlash(rel)), "./")
	for _, pat := range c.Exclude {
		pat = strings.TrimPrefix(pat, "./")
		if strings.HasSuffix(pat, "/") {
			if strings.HasPrefix(rel, pat) || strings.Contains("/"+rel, "/"+pat) {
				return true
			}
			continue
		}
		if ok, _ := path.Match(pat, rel); ok {
			return true
		}
		if !strings.Contains(pat, "/") {
			if ok, _ := path.Match(pat, path.Base(rel)); ok {
				return true
			}
		}
	}
	return false
}

// Accepts reports whether p has one of the configured extensions and a
// language the scanner understands.
func (c *Config) Accepts(p string) bool {
	if _, ok := scan.LanguageOf(p); !ok {
		return false
	}
	if len(c.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range c.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func decode(data []byte, ext string) (*Config, error) {
	var raw map[string]any
	var c Config
	switch ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		if _, err := toml.Decode(string(data), &c); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	violations, err := schema.ValidateValue(schema.Config, raw)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		errs := make([]error, len(violations))
		for i, v := range violations {
			errs[i] = v
		}
		return nil, fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return &c, nil
}
