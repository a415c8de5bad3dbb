package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceBIST/internal/logging"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/circuit"
)

var (
	netlistOutput string
	netlistCheck  string
)

var netlistCmd = &cobra.Command{
	Use:   "netlist",
	Short: "Export the circuit as a KiCad netlist",
	Long: `Write the gate network as a KiCad-style netlist: one component per gate
and one net per node. With --check, read a netlist back and verify that
every net connects the pins of the built-in gate table.

Examples:
  bist netlist
  bist netlist -o circuit.net
  bist netlist --check circuit.net`,
	Args: cobra.NoArgs,
	RunE: runNetlist,
}

func init() {
	rootCmd.AddCommand(netlistCmd)

	netlistCmd.Flags().StringVarP(&netlistOutput, "output", "o", "",
		"output file path (default stdout)")
	netlistCmd.Flags().StringVar(&netlistCheck, "check", "",
		"verify an existing netlist file against the circuit")
	netlistCmd.MarkFlagsMutuallyExclusive("output", "check")
}

func runNetlist(cmd *cobra.Command, args []string) error {
	scheme := circuit.NewScheme()
	if netlistCheck != "" {
		return checkNetlist(cmd, scheme, netlistCheck)
	}

	data := scheme.ExportKiCad()
	if netlistOutput == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), data)
		return err
	}
	if err := writeFile(netlistOutput, []byte(data+"\n")); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ KiCad netlist saved to: %s\n", netlistOutput)
	return nil
}

func checkNetlist(cmd *cobra.Command, scheme *circuit.Scheme, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	if err := scheme.VerifyKiCad(string(data)); err != nil {
		return errors.Wrap(err, path)
	}
	logger.Debug("netlist verified", logging.String("path", path))
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s matches the circuit (%d nets)\n", path, circuit.NodeCount)
	return nil
}
