package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
log_level: debug
components: [position, velocity, health]
pools: [enemies]
groups:
  - name: movers
    components: [position, velocity]
  - name: hostile
    pool: enemies
    components: [health]
entities:
  - count: 3
    components: [position, velocity]
  - pool: enemies
    count: 2
    components: [health]
`

const sampleTOML = `
log_level = "warn"
components = ["position", "velocity"]

[[groups]]
name = "movers"
components = ["velocity", "position"]

[[entities]]
count = 1
components = ["position"]
`

func TestParseYAML(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML), "yaml")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"position", "velocity", "health"}, cfg.Components)
	require.Len(t, cfg.Groups, 2)
	assert.Equal(t, "default", cfg.Groups[0].Pool)
	assert.Equal(t, "enemies", cfg.Groups[1].Pool)
	require.Len(t, cfg.Entities, 2)
	assert.Equal(t, 3, cfg.Entities[0].Count)
	assert.Equal(t, "default", cfg.Entities[0].Pool)
}

func TestParseTOML(t *testing.T) {
	cfg, err := Parse([]byte(sampleTOML), "toml")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	require.Len(t, cfg.Groups, 1)
	assert.Equal(t, GroupConfig{Name: "movers", Pool: "default", Components: []string{"velocity", "position"}}, cfg.Groups[0])
}

func TestParseEmptyYAMLUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil, "yml")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("log_level: info\nbogus: 1\n"), "yaml")
	assert.Error(t, err)

	_, err = Parse([]byte("bogus = 1\n"), "toml")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte("{}"), "json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestValidate(t *testing.T) {
	cases := map[string]Config{
		"bad level":            {LogLevel: "loud"},
		"duplicate component":  {LogLevel: "info", Components: []string{"a", "a"}},
		"empty pool":           {LogLevel: "info", Pools: []string{""}},
		"group without name":   {LogLevel: "info", Groups: []GroupConfig{{Pool: "default"}}},
		"duplicate group":      {LogLevel: "info", Groups: []GroupConfig{{Name: "g", Pool: "default"}, {Name: "g", Pool: "default"}}},
		"undeclared component": {LogLevel: "info", Groups: []GroupConfig{{Name: "g", Pool: "default", Components: []string{"x"}}}},
		"undeclared pool":      {LogLevel: "info", Groups: []GroupConfig{{Name: "g", Pool: "nowhere"}}},
		"negative count":       {LogLevel: "info", Entities: []EntityConfig{{Pool: "default", Count: -1}}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "session.yaml")
	tomlPath := filepath.Join(dir, "session.toml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(sampleYAML), 0o600))
	require.NoError(t, os.WriteFile(tomlPath, []byte(sampleTOML), 0o600))

	y, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Len(t, y.Groups, 2)

	tm, err := Load(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, "warn", tm.LogLevel)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
