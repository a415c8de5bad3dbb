package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceBIST/internal/config"
	"github.com/OpenTraceLab/OpenTraceBIST/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	logLevel   string

	// Loaded by the root pre-run hook.
	settings *config.Config
	logger   logging.Logger = logging.NewNopLogger()
)

var rootCmd = &cobra.Command{
	Use:   "bist",
	Short: "Built-in self-test analysis for a small combinational circuit",
	Long: `Exhaustive stuck-at fault analysis and signature analyzer selection
for a seven-input, six-gate combinational circuit driven by an LFSR
pattern generator.

Examples:
  bist sweep                          # Rank every 9-bit analyzer polynomial
  bist sweep --observe f6 --rank      # Compact only the f6 output
  bist table --vector 0000000         # Faults detected by one vector
  bist eval 0001111 --fault f3/0      # Faulty vs fault-free response
  bist cycle                          # Walk the reference generator`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

// Execute runs the root command
func Execute() {
	os.Exit(runRoot(rootCmd, os.Args[1:], os.Stderr))
}

// runRoot executes c and returns the process exit code. The default logger
// is flushed on every path, since os.Exit skips deferred calls.
func runRoot(c *cobra.Command, args []string, stderr io.Writer) int {
	c.SetArgs(args)
	err := c.Execute()

	l := logging.Default()
	code := 0
	if err != nil {
		l.Debug("command failed", logging.Err(err), logging.Any("args", args))
		fmt.Fprintln(stderr, "bist:", err)
		code = 1
	}
	_ = l.Sync()
	return code
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// loadSettings reads the configuration, applies the global flags and
// installs the process logger.
func loadSettings(cmd *cobra.Command, _ []string) error {
	var err error
	if configPath != "" {
		settings, err = config.Load(configPath)
	} else {
		settings, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	if logLevel != "" {
		settings.Log.Level = logLevel
	}
	if verbose {
		settings.Log.Level = logging.LevelDebug
	}
	if _, ok := logging.ParseLevel(settings.Log.Level); !ok {
		return errors.Errorf("unknown log level %q", settings.Log.Level)
	}

	l, err := logging.NewLogger(settings.Log)
	if err != nil {
		return err
	}
	logging.SetDefault(l)
	logger = l.Named(cmd.Name())
	return nil
}
