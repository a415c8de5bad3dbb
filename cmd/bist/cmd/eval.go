package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceBIST/pkg/circuit"
)

var (
	// Flags for eval command
	evalFault string
	evalNodes bool
)

var evalCmd = &cobra.Command{
	Use:   "eval <vector>",
	Short: "Evaluate the circuit for one input vector",
	Long: `Print the f1..f6 response to an input vector given as seven bits,
x1 first. With --fault the faulty response is printed as well and the
fault is reported as detected when the two differ.

Examples:
  bist eval 0000000
  bist eval 0001111 --fault f3/0
  bist eval 1111111 --nodes`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVar(&evalFault, "fault", "",
		"inject a stuck-at fault (e.g. f1/0, x3/1)")
	evalCmd.Flags().BoolVar(&evalNodes, "nodes", false,
		"print the fault-free value of every node")
}

func runEval(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	v, err := circuit.ParseVector(args[0])
	if err != nil {
		return err
	}
	scheme := circuit.NewScheme()

	good, err := scheme.Evaluate(v)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "vector:  %s\n", v)
	fmt.Fprintf(out, "output:  %s\n", good)

	if evalNodes {
		values, err := scheme.Values(v)
		if err != nil {
			return err
		}
		for _, n := range circuit.AllNodes() {
			fmt.Fprintf(out, "  %-3s %d\n", n, values[n.Index()])
		}
	}

	if evalFault == "" {
		return nil
	}
	f, err := circuit.ParseFault(evalFault)
	if err != nil {
		return err
	}
	bad, err := scheme.EvaluateFault(v, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "faulty:  %s (%s)\n", bad, f)
	if bad != good {
		fmt.Fprintln(out, "detected: yes")
	} else {
		fmt.Fprintln(out, "detected: no")
	}
	return nil
}
