package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceBIST/internal/logging"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/gf2"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/lfsr"
)

var (
	// Flags for cycle command
	cyclePoly  string
	cycleQuiet bool
)

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Walk a pattern generator through its full cycle",
	Long: `Step an LFSR from its seed (1 followed by zeros) until a state repeats
and print every state visited. The default polynomial is the configured
reference generator.

Examples:
  bist cycle
  bist cycle --poly "x4 + x3 + 1"
  bist cycle --quiet`,
	Args: cobra.NoArgs,
	RunE: runCycle,
}

func init() {
	rootCmd.AddCommand(cycleCmd)

	cycleCmd.Flags().StringVarP(&cyclePoly, "poly", "p", "",
		"generator polynomial (default: sweep.reference)")
	cycleCmd.Flags().BoolVarP(&cycleQuiet, "quiet", "q", false,
		"only print the period")
}

func runCycle(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var poly lfsr.Polynomial
	var err error
	if cyclePoly != "" {
		poly, err = lfsr.ParsePolynomial(cyclePoly, 0)
	} else {
		poly, err = lfsr.ParsePolynomial(settings.Sweep.Reference, circuit.InputCount)
	}
	if err != nil {
		return err
	}
	if poly.Degree() > lfsr.MaxWalkDegree {
		return errors.Wrapf(lfsr.ErrInvalidPolynomial,
			"degree %d is too large to walk (max %d)", poly.Degree(), lfsr.MaxWalkDegree)
	}

	states := lfsr.New(poly).Cycle()
	if !cycleQuiet {
		for i, s := range states {
			fmt.Fprintf(out, "%4d  %s\n", i, gf2.Format(s))
		}
	}
	fmt.Fprintf(out, "polynomial: %s\n", poly)
	fmt.Fprintf(out, "period:     %d\n", len(states))
	maximal := len(states) == (1<<poly.Degree())-1
	if maximal {
		fmt.Fprintln(out, "maximal:    yes")
	} else {
		fmt.Fprintln(out, "maximal:    no")
	}
	logger.Debug("cycle walked",
		logging.Stringer("polynomial", poly),
		logging.Int("period", len(states)),
		logging.Bool("maximal", maximal))
	return nil
}
