package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceBIST/internal/config"
	"github.com/OpenTraceLab/OpenTraceBIST/internal/logging"
	"github.com/OpenTraceLab/OpenTraceBIST/internal/metrics"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/coverage"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/gf2"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/sweep"
)

var (
	// Flags for sweep command
	sweepReference   string
	sweepWidth       int
	sweepObserve     []string
	sweepFormat      string
	sweepRank        bool
	sweepStep        bool
	sweepProgress    bool
	sweepOutput      string
	sweepMetricsFile string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Rank every signature analyzer polynomial of a given width",
	Long: `Evaluate every nonzero polynomial of the signature register width.

For each candidate the reference generator walks its full cycle, the
fault-free circuit response to each pattern is fed into a fresh signature
analyzer, and the distinct analyzer states are counted. Coverage is
distinct states over the cycle length.

Examples:
  bist sweep                                  # 9-bit analyzer, all outputs
  bist sweep --observe f6                     # compact only f6
  bist sweep --width 5 --rank --format json   # ranked JSON report
  bist sweep --width 3 --step                 # single-step trace
  bist sweep --metrics-file /var/lib/node_exporter/bist.prom`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepReference, "reference", "",
		"generator polynomial (default from config)")
	sweepCmd.Flags().IntVarP(&sweepWidth, "width", "w", 0,
		"signature register width")
	sweepCmd.Flags().StringSliceVar(&sweepObserve, "observe", nil,
		"outputs fed to the analyzer, in order (e.g. f1,f6)")
	sweepCmd.Flags().StringVarP(&sweepFormat, "format", "f", "",
		"report format (table, json, yaml)")
	sweepCmd.Flags().BoolVar(&sweepRank, "rank", false,
		"order rows by coverage, then fewest taps")
	sweepCmd.Flags().BoolVar(&sweepStep, "step", false,
		"print every step and wait for Enter")
	sweepCmd.Flags().BoolVar(&sweepProgress, "progress", false,
		"show a progress bar on stderr")
	sweepCmd.Flags().StringVarP(&sweepOutput, "output", "o", "",
		"write the report to a file instead of stdout")
	sweepCmd.Flags().StringVar(&sweepMetricsFile, "metrics-file", "",
		"write prometheus textfile metrics to this path")
}

// applySweepFlags copies explicitly set flags over the loaded settings.
func applySweepFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("reference") {
		cfg.Sweep.Reference = sweepReference
	}
	if flags.Changed("width") {
		cfg.Sweep.Width = sweepWidth
	}
	if flags.Changed("observe") {
		cfg.Sweep.Observe = sweepObserve
	}
	if flags.Changed("format") {
		cfg.Report.Format = sweepFormat
	}
	if flags.Changed("rank") {
		cfg.Report.Rank = sweepRank
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.Textfile = sweepMetricsFile
	}
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg := *settings
	applySweepFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	sc, err := cfg.SweepConfig()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	log := logger.With(logging.String("run_id", runID))
	log.Info("sweep started",
		logging.Stringer("reference", sc.Reference),
		logging.Int("width", sc.Width),
		logging.String("observe", strings.Join(cfg.Sweep.Observe, ",")))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var tracer sweep.Tracer
	if sweepStep {
		tracer = newStepTracer(cmd.InOrStdin(), cmd.ErrOrStderr())
	}

	progressCh := make(chan sweep.Progress, 16)
	done := make(chan struct{})
	go func() {
		displayProgress(progressCh, cmd.ErrOrStderr(), sweepProgress && !sweepStep, log)
		close(done)
	}()

	scheme := circuit.NewScheme()
	start := time.Now()
	records, err := sweep.RunTraced(ctx, scheme, sc, progressCh, tracer)
	close(progressCh)
	<-done
	elapsed := time.Since(start)
	if err != nil {
		log.Error("sweep aborted", logging.Err(err))
		return errors.Wrap(err, "sweep failed")
	}

	if best, ok := sweep.Best(records); ok {
		log.Info("sweep complete",
			logging.Int("records", len(records)),
			logging.Stringer("best", best.Polynomial),
			logging.Float64("best_coverage", best.Coverage),
			logging.Duration("elapsed", elapsed))
	}

	if cfg.Report.Rank {
		records = sweep.Rank(records)
	}
	if err := writeSweepReport(cmd.OutOrStdout(), cfg.Report.Format, sweep.NewReport(runID, sc, records)); err != nil {
		return err
	}

	if cfg.Metrics.Textfile != "" {
		if err := writeSweepMetrics(cfg.Metrics.Textfile, runID, scheme, records, elapsed); err != nil {
			return err
		}
		log.Info("metrics written", logging.String("path", cfg.Metrics.Textfile))
	}
	return nil
}

func writeSweepReport(stdout io.Writer, format string, report sweep.Report) error {
	var data []byte
	var err error
	switch format {
	case config.FormatJSON:
		data, err = report.ExportJSON()
	case config.FormatYAML:
		data, err = report.ExportYAML()
	default:
		var sb strings.Builder
		err = sweep.WriteTable(&sb, report.Records)
		data = []byte(sb.String())
	}
	if err != nil {
		return err
	}

	if sweepOutput == "" {
		_, err = stdout.Write(data)
		return err
	}
	return writeFile(sweepOutput, data)
}

func writeSweepMetrics(path, runID string, scheme *circuit.Scheme, records []sweep.Record, elapsed time.Duration) error {
	rec := metrics.NewRecorder(runID)
	for _, r := range records {
		rec.ObserveRecord(r)
	}
	rec.ObserveSweep(elapsed)

	table, err := coverage.NewBuilder(scheme).Build()
	if err != nil {
		return errors.Wrap(err, "failed to build coverage table")
	}
	rec.SetFaultCoverage(table.FaultCoverage())
	return rec.WriteTextfile(path)
}

// displayProgress drains the progress channel, drawing a bar when show is
// set and logging each candidate at debug level.
func displayProgress(progressCh <-chan sweep.Progress, w io.Writer, show bool, log logging.Logger) {
	lastPercent := -1
	for p := range progressCh {
		switch p.Phase {
		case "init":
			log.Debug("candidates enumerated", logging.Int("total", p.Total))
			continue
		case "done":
			if show {
				fmt.Fprintf(w, "\r%-80s\r", "")
			}
			continue
		}

		log.Debug("candidate evaluated",
			logging.Stringer("polynomial", p.Record.Polynomial),
			logging.Int("distinct", p.Record.Distinct),
			logging.Int("taps", p.Record.Taps))

		if !show || p.Total == 0 {
			continue
		}
		percent := ((p.Index + 1) * 100) / p.Total
		if percent == lastPercent {
			continue
		}
		barWidth := 40
		filled := (percent * barWidth) / 100
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
		fmt.Fprintf(w, "\r[%s] %3d%% | %d/%d | %s", bar, percent, p.Index+1, p.Total, p.Record.Polynomial)
		lastPercent = percent
	}
}

// stepTracer prints each sweep step and blocks until a line is read. Once
// the input is exhausted it keeps printing without waiting.
type stepTracer struct {
	in  *bufio.Reader
	out io.Writer
	eof bool
}

func newStepTracer(in io.Reader, out io.Writer) *stepTracer {
	return &stepTracer{in: bufio.NewReader(in), out: out}
}

func (s *stepTracer) Trace(step sweep.Step) error {
	fmt.Fprintf(s.out, "step %3d  lfsr %s  out %s  sa %s", step.Index,
		gf2.Format(step.Pattern), step.Output, gf2.Format(step.Signature))
	if s.eof {
		fmt.Fprintln(s.out)
		return nil
	}
	fmt.Fprint(s.out, "  [enter]")
	if _, err := s.in.ReadString('\n'); err != nil {
		if err != io.EOF {
			return err
		}
		s.eof = true
	}
	fmt.Fprintln(s.out)
	return nil
}

// writeFile writes data to path, creating the directory if needed.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "failed to create directory")
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
