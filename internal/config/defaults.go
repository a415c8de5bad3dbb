package config

import (
	"github.com/spf13/viper"

	"github.com/OpenTraceLab/OpenTraceBIST/internal/logging"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/sweep"
)

// Defaults reproduce the classic run: reference generator, 9-bit analyzer,
// all six outputs, table report in sweep order.
var (
	DefaultReference = sweep.DefaultConfig().Reference.String()
	DefaultWidth     = sweep.DefaultConfig().Width
	DefaultObserve   = nodeNames(circuit.OutputNodes())
)

const (
	DefaultReportFormat = FormatTable
	DefaultLogLevel     = logging.LevelInfo
	DefaultLogFormat    = "console"
)

func nodeNames(nodes []circuit.Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.String()
	}
	return names
}

// ApplyDefaults fills unset fields in place.
func ApplyDefaults(cfg *Config) {
	if cfg.Sweep.Reference == "" {
		cfg.Sweep.Reference = DefaultReference
	}
	if cfg.Sweep.Width == 0 {
		cfg.Sweep.Width = DefaultWidth
	}
	if len(cfg.Sweep.Observe) == 0 {
		cfg.Sweep.Observe = append([]string(nil), DefaultObserve...)
	}
	if cfg.Report.Format == "" {
		cfg.Report.Format = DefaultReportFormat
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// setDefaults registers every key with viper so AutomaticEnv can override
// keys that are absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("sweep.reference", DefaultReference)
	v.SetDefault("sweep.width", DefaultWidth)
	v.SetDefault("sweep.observe", DefaultObserve)
	v.SetDefault("report.format", DefaultReportFormat)
	v.SetDefault("report.rank", false)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("metrics.textfile", "")
}
