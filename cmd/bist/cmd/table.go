package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceBIST/internal/config"
	"github.com/OpenTraceLab/OpenTraceBIST/internal/logging"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/coverage"
)

var (
	// Flags for table command
	tableVector  string
	tableValue   int
	tableFormat  string
	tableCompact bool
	tableOutput  string
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Build the single stuck-at detection table",
	Long: `Inject every single stuck-at fault (13 nodes, stuck at 0 and at 1) under
every one of the 128 input vectors and record which faults change the
circuit output.

Examples:
  bist table                              # whole table plus summary
  bist table --vector 1111111 --value 0   # nodes detected stuck-at-0
  bist table --compact                    # greedy minimal test set
  bist table --format json -o table.json`,
	Args: cobra.NoArgs,
	RunE: runTable,
}

func init() {
	rootCmd.AddCommand(tableCmd)

	tableCmd.Flags().StringVar(&tableVector, "vector", "",
		"only show this test vector (x1..x7, e.g. 0001111)")
	tableCmd.Flags().IntVar(&tableValue, "value", -1,
		"only show faults stuck at this value (0 or 1)")
	tableCmd.Flags().StringVarP(&tableFormat, "format", "f", config.FormatTable,
		"output format (table, json, yaml)")
	tableCmd.Flags().BoolVar(&tableCompact, "compact", false,
		"print a compact test set covering every detected fault")
	tableCmd.Flags().StringVarP(&tableOutput, "output", "o", "",
		"write to a file instead of stdout")
}

func runTable(cmd *cobra.Command, args []string) error {
	if tableValue < -1 || tableValue > 1 {
		return errors.Errorf("--value must be 0 or 1, got %d", tableValue)
	}
	vectors := circuit.AllVectors()
	if tableVector != "" {
		v, err := circuit.ParseVector(tableVector)
		if err != nil {
			return err
		}
		vectors = []circuit.Vector{v}
	}

	table, err := coverage.NewBuilder(circuit.NewScheme()).Build()
	if err != nil {
		return errors.Wrap(err, "failed to build coverage table")
	}
	logger.Debug("coverage table built",
		logging.Int("vectors", len(table.Vectors())),
		logging.Float64("fault_coverage", table.FaultCoverage()))

	var data []byte
	switch tableFormat {
	case config.FormatJSON:
		data, err = table.ExportJSON()
	case config.FormatYAML:
		data, err = table.ExportYAML()
	case config.FormatTable:
		var sb strings.Builder
		printTable(&sb, table, vectors)
		data = []byte(sb.String())
	default:
		return errors.Errorf("unknown format %q", tableFormat)
	}
	if err != nil {
		return err
	}

	if tableOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return writeFile(tableOutput, data)
}

func printTable(w io.Writer, table *coverage.Table, vectors []circuit.Vector) {
	for _, v := range vectors {
		fmt.Fprintf(w, "%s", v)
		for value := uint8(0); value <= 1; value++ {
			if tableValue >= 0 && int(value) != tableValue {
				continue
			}
			fmt.Fprintf(w, "  sa%d: %-40s", value, joinNodes(table.CoveredNodesFor(v, value)))
		}
		fmt.Fprintln(w)
	}

	if tableVector != "" {
		return
	}
	all := circuit.AllFaults()
	undetected := table.Undetected()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Fault coverage:  %.2f%% (%d/%d)\n", table.FaultCoverage(), len(all)-len(undetected), len(all))
	fmt.Fprintf(w, "Detected nodes:  %s\n", joinNodes(table.Nodes()))
	if len(undetected) > 0 {
		names := make([]string, len(undetected))
		for i, f := range undetected {
			names[i] = f.String()
		}
		fmt.Fprintf(w, "Undetected:      %s\n", strings.Join(names, ","))
	}
	if tableCompact {
		set := table.CompactTestSet()
		names := make([]string, len(set))
		for i, v := range set {
			names[i] = v.String()
		}
		fmt.Fprintf(w, "Compact set:     %s (%d vectors)\n", strings.Join(names, ","), len(set))
	}
}

func joinNodes(nodes []circuit.Node) string {
	if len(nodes) == 0 {
		return "-"
	}
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.String()
	}
	return strings.Join(names, ",")
}
