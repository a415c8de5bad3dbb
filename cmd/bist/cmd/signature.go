package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceBIST/pkg/gf2"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/lfsr"
)

var (
	// Flags for signature command
	signaturePoly  string
	signatureWidth int
)

var signatureCmd = &cobra.Command{
	Use:   "signature <bits>",
	Short: "Compress a bit sequence with a signature analyzer",
	Long: `Feed a bit sequence into a signature analyzer starting from the all-zero
register and print every intermediate state.

The register width defaults to the highest power of the polynomial; set
--width for polynomials whose leading taps are zero.

Examples:
  bist signature --poly "x3 + 1" 10110010
  bist signature --poly "x3 + x1 + 1" --width 5 10110010`,
	Args: cobra.ExactArgs(1),
	RunE: runSignature,
}

func init() {
	rootCmd.AddCommand(signatureCmd)

	signatureCmd.Flags().StringVarP(&signaturePoly, "poly", "p", "",
		"analyzer polynomial")
	signatureCmd.Flags().IntVarP(&signatureWidth, "width", "w", 0,
		"register width (default: highest power)")
	signatureCmd.MarkFlagRequired("poly")
}

func runSignature(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	poly, err := lfsr.ParsePolynomial(signaturePoly, signatureWidth)
	if err != nil {
		return err
	}
	bits, err := gf2.ParseBits(args[0])
	if err != nil {
		return err
	}

	states, err := lfsr.NewSignatureAnalyzer(poly).Run(bits)
	if err != nil {
		return err
	}
	for i, s := range states {
		if i == 0 {
			fmt.Fprintf(out, "     %s\n", gf2.Format(s))
			continue
		}
		fmt.Fprintf(out, "%d -> %s\n", bits[i-1], gf2.Format(s))
	}
	fmt.Fprintf(out, "signature: %s\n", gf2.Format(states[len(states)-1]))
	return nil
}
