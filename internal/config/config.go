package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/ecsrx/internal/core/observability/log"
)

const defaultPool = "default"

var (
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrInvalidConfig     = errors.New("invalid config")
)

// Config describes a session: the component types to register, the pools to
// create, the groups to declare up front and the entities to spawn.
type Config struct {
	LogLevel   string         `json:"log_level" yaml:"log_level" toml:"log_level"`
	Components []string       `json:"components" yaml:"components" toml:"components"`
	Pools      []string       `json:"pools" yaml:"pools" toml:"pools"`
	Groups     []GroupConfig  `json:"groups" yaml:"groups" toml:"groups"`
	Entities   []EntityConfig `json:"entities" yaml:"entities" toml:"entities"`
}

type GroupConfig struct {
	Name       string   `json:"name" yaml:"name" toml:"name"`
	Pool       string   `json:"pool,omitempty" yaml:"pool,omitempty" toml:"pool,omitempty"`
	Components []string `json:"components" yaml:"components" toml:"components"`
}

// EntityConfig spawns Count entities in Pool, each carrying Components.
type EntityConfig struct {
	Pool       string   `json:"pool,omitempty" yaml:"pool,omitempty" toml:"pool,omitempty"`
	Count      int      `json:"count" yaml:"count" toml:"count"`
	Components []string `json:"components" yaml:"components" toml:"components"`
}

// Default returns a config with only the default pool and no groups.
func Default() Config {
	return Config{
		LogLevel: "info",
		Pools:    []string{defaultPool},
	}
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file, applies defaults and
// validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the given format ("yaml", "yml" or "toml").
func Parse(data []byte, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, err
		}
	case "toml":
		meta, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("%w: unknown keys %v", ErrInvalidConfig, undecoded)
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	for i := range c.Groups {
		if c.Groups[i].Pool == "" {
			c.Groups[i].Pool = defaultPool
		}
	}
	for i := range c.Entities {
		if c.Entities[i].Pool == "" {
			c.Entities[i].Pool = defaultPool
		}
	}
}

// Validate checks that every reference points at a declared pool or
// component and that names are unique.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	components, err := uniqueSet("component", c.Components)
	if err != nil {
		return err
	}
	pools, err := uniqueSet("pool", c.Pools)
	if err != nil {
		return err
	}
	pools[defaultPool] = struct{}{}

	groupNames := make(map[string]struct{}, len(c.Groups))
	for i, g := range c.Groups {
		if strings.TrimSpace(g.Name) == "" {
			return fmt.Errorf("%w: group[%d] missing name", ErrInvalidConfig, i)
		}
		if _, dup := groupNames[g.Name]; dup {
			return fmt.Errorf("%w: duplicate group %q", ErrInvalidConfig, g.Name)
		}
		groupNames[g.Name] = struct{}{}
		if err := checkRefs(fmt.Sprintf("group %q", g.Name), g.Pool, g.Components, pools, components); err != nil {
			return err
		}
	}

	for i, e := range c.Entities {
		if e.Count < 0 {
			return fmt.Errorf("%w: entities[%d] negative count", ErrInvalidConfig, i)
		}
		if err := checkRefs(fmt.Sprintf("entities[%d]", i), e.Pool, e.Components, pools, components); err != nil {
			return err
		}
	}
	return nil
}

func checkRefs(owner, pool string, refs []string, pools, components map[string]struct{}) error {
	if _, ok := pools[pool]; !ok {
		return fmt.Errorf("%w: %s references undeclared pool %q", ErrInvalidConfig, owner, pool)
	}
	for _, name := range refs {
		if _, ok := components[name]; !ok {
			return fmt.Errorf("%w: %s references undeclared component %q", ErrInvalidConfig, owner, name)
		}
	}
	return nil
}

func uniqueSet(kind string, names []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return nil, fmt.Errorf("%w: empty %s name", ErrInvalidConfig, kind)
		}
		if _, dup := set[n]; dup {
			return nil, fmt.Errorf("%w: duplicate %s %q", ErrInvalidConfig, kind, n)
		}
		set[n] = struct{}{}
	}
	return set, nil
}
