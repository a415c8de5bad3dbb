// Package config loads bist settings from a YAML file and BIST_* environment
// variables, fills defaults and validates the result.
package config

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceBIST/internal/logging"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/lfsr"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/sweep"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Report formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Config is the full settings tree.
type Config struct {
	Sweep   SweepConfig    `mapstructure:"sweep" yaml:"sweep"`
	Report  ReportConfig   `mapstructure:"report" yaml:"report"`
	Log     logging.Config `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
}

// SweepConfig is the textual form of sweep.Config.
type SweepConfig struct {
	// Reference is the generator polynomial, e.g. "x7 + x6 + x5 + x3 + x2 + x1 + 1".
	Reference string `mapstructure:"reference" yaml:"reference"`
	// Width is the signature register length.
	Width int `mapstructure:"width" yaml:"width"`
	// Observe lists the outputs fed to the analyzer, in order.
	Observe []string `mapstructure:"observe" yaml:"observe"`
}

// ReportConfig controls how sweep results are written.
type ReportConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Rank   bool   `mapstructure:"rank" yaml:"rank"`
}

// MetricsConfig names the node_exporter textfile written after a run. Empty
// disables it.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := c.SweepConfig(); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	switch c.Report.Format {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return errors.Wrapf(ErrInvalid, "report.format %q (want table, json or yaml)", c.Report.Format)
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return errors.Wrapf(ErrInvalid, "log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.Wrapf(ErrInvalid, "log.format %q (want console or json)", c.Log.Format)
	}
	return nil
}

// SweepConfig parses the sweep section into a validated sweep.Config.
func (c *Config) SweepConfig() (*sweep.Config, error) {
	ref, err := lfsr.ParsePolynomial(c.Sweep.Reference, circuit.InputCount)
	if err != nil {
		return nil, errors.Wrap(err, "sweep.reference")
	}
	observe, err := ParseObserve(c.Sweep.Observe)
	if err != nil {
		return nil, err
	}
	cfg := &sweep.Config{
		Reference: ref,
		Width:     c.Sweep.Width,
		Observe:   observe,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseObserve parses output names. Entries may themselves be comma
// separated, so "f1,f6" and ["f1", "f6"] are equivalent.
func ParseObserve(names []string) ([]circuit.Node, error) {
	var nodes []circuit.Node
	for _, entry := range names {
		for _, name := range strings.Split(entry, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			n, err := circuit.ParseNode(name)
			if err != nil {
				return nil, errors.Wrap(err, "sweep.observe")
			}
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}
