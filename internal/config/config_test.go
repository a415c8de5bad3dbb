package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceBIST/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/lfsr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "x7 + x6 + x5 + x3 + x2 + x1 + 1", cfg.Sweep.Reference)
	assert.Equal(t, 9, cfg.Sweep.Width)
	assert.Equal(t, []string{"f1", "f2", "f3", "f4", "f5", "f6"}, cfg.Sweep.Observe)
	assert.Equal(t, FormatTable, cfg.Report.Format)
	assert.False(t, cfg.Report.Rank)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Empty(t, cfg.Metrics.Textfile)

	sc, err := cfg.SweepConfig()
	require.NoError(t, err)
	assert.True(t, sc.Reference.Equal(lfsr.ReferencePolynomial()))
	assert.Equal(t, circuit.OutputNodes(), sc.Observe)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
sweep:
  width: 5
  observe: [f6]
report:
  format: json
  rank: true
log:
  level: debug
metrics:
  textfile: /tmp/bist.prom
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Sweep.Width)
	assert.Equal(t, []string{"f6"}, cfg.Sweep.Observe)
	assert.Equal(t, DefaultReference, cfg.Sweep.Reference)
	assert.Equal(t, FormatJSON, cfg.Report.Format)
	assert.True(t, cfg.Report.Rank)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/bist.prom", cfg.Metrics.Textfile)

	sc, err := cfg.SweepConfig()
	require.NoError(t, err)
	assert.Equal(t, []circuit.Node{circuit.F6}, sc.Observe)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "sweep:\n  width: 5\n")
	t.Setenv("BIST_SWEEP_WIDTH", "4")
	t.Setenv("BIST_REPORT_FORMAT", "yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Sweep.Width)
	assert.Equal(t, FormatYAML, cfg.Report.Format)
}

func TestEnvObserveList(t *testing.T) {
	t.Setenv("BIST_SWEEP_OBSERVE", "f5,f6")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	sc, err := cfg.SweepConfig()
	require.NoError(t, err)
	assert.Equal(t, []circuit.Node{circuit.F5, circuit.F6}, sc.Observe)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad reference", func(c *Config) { c.Sweep.Reference = "x7 + x3" }},
		{"reference too long", func(c *Config) { c.Sweep.Reference = "x8 + x3 + 1" }},
		{"width too large", func(c *Config) { c.Sweep.Width = 17 }},
		{"unknown node", func(c *Config) { c.Sweep.Observe = []string{"f7"} }},
		{"input observed", func(c *Config) { c.Sweep.Observe = []string{"x1"} }},
		{"report format", func(c *Config) { c.Report.Format = "csv" }},
		{"log level", func(c *Config) { c.Log.Level = "trace" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			ApplyDefaults(cfg)
			require.NoError(t, cfg.Validate())

			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestParseObserve(t *testing.T) {
	nodes, err := ParseObserve([]string{"f1, f2", "F6", ""})
	require.NoError(t, err)
	assert.Equal(t, []circuit.Node{circuit.F1, circuit.F2, circuit.F6}, nodes)

	_, err = ParseObserve([]string{"y1"})
	assert.ErrorIs(t, err, circuit.ErrInvalidFaultNode)
}

func TestApplyDefaultsKeepsValues(t *testing.T) {
	cfg := &Config{Sweep: SweepConfig{Width: 3, Observe: []string{"f6"}}}
	ApplyDefaults(cfg)
	assert.Equal(t, 3, cfg.Sweep.Width)
	assert.Equal(t, []string{"f6"}, cfg.Sweep.Observe)
	assert.Equal(t, DefaultReference, cfg.Sweep.Reference)
}
