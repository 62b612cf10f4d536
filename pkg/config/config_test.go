package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 100, cfg.WCCMaxIterations)
	assert.Equal(t, 20, cfg.LouvainMaxPhases)
	assert.Equal(t, 20, cfg.LouvainMaxIterations)
	assert.Equal(t, 0.05, cfg.DenseThreshold)
	assert.Equal(t, 0, cfg.Workers)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"zero dense threshold", func(c *Config) { c.DenseThreshold = 0 }},
		{"threshold above one", func(c *Config) { c.DenseThreshold = 1.5 }},
		{"zero wcc iterations", func(c *Config) { c.WCCMaxIterations = 0 }},
		{"zero louvain phases", func(c *Config) { c.LouvainMaxPhases = 0 }},
		{"zero louvain iterations", func(c *Config) { c.LouvainMaxIterations = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 8\nwcc_max_iterations: 50\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 50, cfg.WCCMaxIterations)
	// Unset fields keep defaults.
	assert.Equal(t, 0.05, cfg.DenseThreshold)
	assert.Equal(t, 20, cfg.LouvainMaxPhases)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dense_threshold: 5.0\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [not an int\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
