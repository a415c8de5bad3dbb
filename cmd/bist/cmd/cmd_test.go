package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/OpenTraceLab/OpenTraceBIST/internal/config"
	"github.com/OpenTraceLab/OpenTraceBIST/internal/logging"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/lfsr"
)

// resetFlags restores every flag to its default so invocations do not leak
// into each other through the package-level flag variables.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestEvalE2E(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "fault free",
			args:        []string{"eval", "0000000"},
			wantContain: []string{"vector:  0000000", "output:  110010"},
		},
		{
			name:        "detected fault",
			args:        []string{"eval", "0001111", "--fault", "f3/0"},
			wantContain: []string{"output:  111101", "faulty:  110010 (f3/0)", "detected: yes"},
		},
		{
			name:        "masked fault",
			args:        []string{"eval", "0000000", "--fault", "f1/1"},
			wantContain: []string{"faulty:  110010 (f1/1)", "detected: no"},
		},
		{
			name:        "node values",
			args:        []string{"eval", "1111111", "--nodes"},
			wantContain: []string{"output:  001111", "  x1  1", "  f1  0", "  f6  1"},
		},
		{name: "short vector", args: []string{"eval", "010"}, wantErr: true},
		{name: "bad fault", args: []string{"eval", "0000000", "--fault", "f9/0"}, wantErr: true},
		{name: "missing vector", args: []string{"eval"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "", tt.args...)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v\nOutput: %s", err, out)
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(out, want) {
					t.Errorf("Output missing expected string: %q\nGot:\n%s", want, out)
				}
			}
		})
	}
}

func TestCycleE2E(t *testing.T) {
	out, _, err := execute(t, "", "cycle")
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if lines[0] != "   0  1000000" || lines[1] != "   1  1100000" {
		t.Errorf("first states = %q, %q", lines[0], lines[1])
	}
	for _, want := range []string{"polynomial: x7 + x6 + x5 + x3 + x2 + x1 + 1", "period:     127", "maximal:    yes"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q", want)
		}
	}

	out, _, err = execute(t, "", "cycle", "--quiet", "--poly", "x4 + x3 + 1")
	if err != nil {
		t.Fatalf("cycle --poly: %v", err)
	}
	if !strings.Contains(out, "period:     5") || !strings.Contains(out, "maximal:    no") {
		t.Errorf("x4 + x3 + 1 output:\n%s", out)
	}

	out, _, err = execute(t, "", "cycle", "-q", "-p", "x4 + x1 + 1")
	if err != nil {
		t.Fatalf("cycle --poly: %v", err)
	}
	if !strings.Contains(out, "period:     15") || !strings.Contains(out, "maximal:    yes") {
		t.Errorf("x4 + x1 + 1 output:\n%s", out)
	}

	if _, _, err := execute(t, "", "cycle", "--poly", "x4 + x3"); err == nil {
		t.Errorf("Expected error for polynomial without constant term")
	}
}

func TestSignatureE2E(t *testing.T) {
	out, _, err := execute(t, "", "signature", "--poly", "x3 + x1 + 1", "--width", "5", "10110010")
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	for _, want := range []string{"     00000", "1 -> 00001", "0 -> 00010", "signature: 10010"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q\nGot:\n%s", want, out)
		}
	}

	if _, _, err := execute(t, "", "signature", "--poly", "x3 + 1", "1021"); err == nil {
		t.Errorf("Expected error for non-binary input")
	}
	if _, _, err := execute(t, "", "signature", "1011"); err == nil {
		t.Errorf("Expected error without --poly")
	}
}

func TestTableE2E(t *testing.T) {
	out, _, err := execute(t, "", "table", "--vector", "0000000")
	if err != nil {
		t.Fatalf("table --vector: %v", err)
	}
	if !strings.Contains(out, "sa0: f1,f2,f5") || !strings.Contains(out, "sa1: x3,f3,f4,f6") {
		t.Errorf("unexpected vector row:\n%s", out)
	}
	if strings.Contains(out, "Fault coverage") {
		t.Errorf("single vector query printed the summary")
	}

	out, _, err = execute(t, "", "table", "--vector", "1111111", "--value", "1")
	if err != nil {
		t.Fatalf("table --value: %v", err)
	}
	if !strings.Contains(out, "sa1: f1,f2") || strings.Contains(out, "sa0") {
		t.Errorf("unexpected filtered row:\n%s", out)
	}

	out, _, err = execute(t, "", "table", "--compact")
	if err != nil {
		t.Fatalf("table --compact: %v", err)
	}
	for _, want := range []string{
		"Fault coverage:  100.00% (26/26)",
		"Detected nodes:  x3,f1,f2,f3,f4,f5,f6,x5,x6,x4,x7,x1,x2",
		"Compact set:     0000111,0001110,0100010,1010100,1101111 (5 vectors)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q", want)
		}
	}
	if n := strings.Count(out, "sa0:"); n != 128 {
		t.Errorf("table printed %d rows, want 128", n)
	}

	out, _, err = execute(t, "", "table", "--format", "json")
	if err != nil {
		t.Fatalf("table --format json: %v", err)
	}
	var report struct {
		FaultCoverage float64 `json:"fault_coverage"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil || report.FaultCoverage != 100 {
		t.Errorf("json report = %+v, err %v", report, err)
	}

	if _, _, err := execute(t, "", "table", "--value", "2"); err == nil {
		t.Errorf("Expected error for --value 2")
	}
	if _, _, err := execute(t, "", "table", "--format", "csv"); err == nil {
		t.Errorf("Expected error for unknown format")
	}
}

func TestSweepE2E(t *testing.T) {
	out, _, err := execute(t, "", "sweep", "--width", "3")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 11 {
		t.Fatalf("table has %d lines, want 11:\n%s", len(lines), out)
	}
	if lines[0] != "Coverage Adders Polynom" || lines[10] != "Coverage Adders Polynom" {
		t.Errorf("header lines = %q, %q", lines[0], lines[10])
	}
	if lines[2] != "6.30%   1      x1 + 1" || lines[3] != "5.51%   1      x2 + 1" {
		t.Errorf("first rows = %q, %q", lines[2], lines[3])
	}

	out, _, err = execute(t, "", "sweep", "--width", "3", "--rank", "--format", "json")
	if err != nil {
		t.Fatalf("sweep --format json: %v", err)
	}
	var report struct {
		RunID   string `json:"run_id"`
		Records []struct {
			Polynomial string
			Distinct   int
		}
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("sweep JSON does not decode: %v\n%s", err, out)
	}
	if report.RunID == "" || len(report.Records) != 7 {
		t.Fatalf("report = %+v", report)
	}
	if last := report.Records[6]; last.Polynomial != "x2 + 1" || last.Distinct != 7 {
		t.Errorf("ranked last = %+v, want x2 + 1 with 7", last)
	}
}

func TestSweepStepAndMetrics(t *testing.T) {
	metricsPath := filepath.Join(t.TempDir(), "bist.prom")
	out, errOut, err := execute(t, "\n\n", "sweep", "--width", "1", "--step", "--metrics-file", metricsPath)
	if err != nil {
		t.Fatalf("sweep --step: %v", err)
	}
	if !strings.Contains(out, "1.57%   1      x1 + 1") {
		t.Errorf("unexpected report:\n%s", out)
	}
	if n := strings.Count(errOut, "step "); n != 127 {
		t.Errorf("trace printed %d steps, want 127", n)
	}
	if !strings.Contains(errOut, "step   0  lfsr 1100000  out") {
		t.Errorf("trace missing first step:\n%s", errOut[:200])
	}

	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	for _, want := range []string{"bist_polynomials_evaluated_total", "bist_fault_coverage_percent", "bist_sweep_duration_seconds_count"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestSweepConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bist.yaml")
	content := "sweep:\n  width: 2\n  observe: [f6]\nreport:\n  format: yaml\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "", "--config", cfgPath, "sweep")
	if err != nil {
		t.Fatalf("sweep --config: %v", err)
	}
	for _, want := range []string{"run_id:", "width: 2", "- f6", "polynomial: x2 + x1 + 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q\nGot:\n%s", want, out)
		}
	}

	reportPath := filepath.Join(dir, "out", "report.txt")
	if _, _, err := execute(t, "", "--config", cfgPath, "sweep", "--format", "table", "-o", reportPath); err != nil {
		t.Fatalf("sweep -o: %v", err)
	}
	data, err := os.ReadFile(reportPath)
	if err != nil || !strings.HasPrefix(string(data), "Coverage Adders Polynom") {
		t.Errorf("report file = %q, err %v", data, err)
	}

	if _, _, err := execute(t, "", "sweep", "--observe", "x1"); err == nil {
		t.Errorf("Expected error when observing a primary input")
	}
	if _, _, err := execute(t, "", "--config", filepath.Join(dir, "absent.yaml"), "sweep"); err == nil {
		t.Errorf("Expected error for a missing config file")
	}
}

func TestNetlistE2E(t *testing.T) {
	out, _, err := execute(t, "", "netlist")
	if err != nil {
		t.Fatalf("netlist: %v", err)
	}
	for _, want := range []string{"(export (version D)", "(comp (ref U1) (value NAND2)", "(ref U6)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q", want)
		}
	}

	path := filepath.Join(t.TempDir(), "circuit.net")
	if _, _, err := execute(t, "", "netlist", "-o", path); err != nil {
		t.Fatalf("netlist -o: %v", err)
	}
	out, _, err = execute(t, "", "netlist", "--check", path)
	if err != nil {
		t.Fatalf("netlist --check on exported file: %v", err)
	}
	if !strings.Contains(out, "matches the circuit (13 nets)") {
		t.Errorf("unexpected check output: %q", out)
	}

	// Swap the output pin of U1 onto x1.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	rewired := strings.Replace(string(data), "(name x1) (node (ref U1) (pin 1))", "(name x1) (node (ref U1) (pin Y))", 1)
	if rewired == string(data) {
		t.Fatalf("x1 net not found in %s", data)
	}
	bad := filepath.Join(t.TempDir(), "rewired.net")
	if err := os.WriteFile(bad, []byte(rewired), 0644); err != nil {
		t.Fatal(err)
	}
	_, _, err = execute(t, "", "netlist", "--check", bad)
	if errors.Cause(err) != circuit.ErrInvalidNetlist {
		t.Errorf("netlist --check on rewired file = %v, want ErrInvalidNetlist", err)
	}

	_, _, err = execute(t, "", "netlist", "--check", filepath.Join(t.TempDir(), "missing.net"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("netlist --check on missing file = %v, want not-exist", err)
	}
}

func TestCycleDegreeLimit(t *testing.T) {
	for _, poly := range []string{"x40 + x3 + 1", "x64 + x1 + 1"} {
		out, _, err := execute(t, "", "cycle", "--poly", poly, "--quiet")
		if !errors.Is(err, lfsr.ErrInvalidPolynomial) {
			t.Errorf("cycle --poly %q = %v, want ErrInvalidPolynomial", poly, err)
		}
		if out != "" {
			t.Errorf("cycle --poly %q printed %q", poly, out)
		}
	}
	if _, _, err := execute(t, "", "cycle", "--poly", "x4 + x1 + 1", "--quiet"); err != nil {
		t.Errorf("cycle --poly x4 + x1 + 1: %v", err)
	}
}

func TestCommandErrorsKeepCause(t *testing.T) {
	_, _, err := execute(t, "", "eval", "01")
	if errors.Cause(err) != circuit.ErrInvalidTestVector {
		t.Errorf("eval 01 cause = %v, want ErrInvalidTestVector", errors.Cause(err))
	}
	_, _, err = execute(t, "", "table", "--value", "3")
	if err == nil || !strings.Contains(err.Error(), "--value must be 0 or 1") {
		t.Errorf("table --value 3 = %v", err)
	}
	_, _, err = execute(t, "", "sweep", "--width", "0")
	if errors.Cause(err) != config.ErrInvalid {
		t.Errorf("sweep --width 0 = %v, want ErrInvalid", err)
	}
}

// recordingLogger notes debug messages and Sync calls.
type recordingLogger struct {
	logging.Logger
	messages []string
	synced   int
}

func (r *recordingLogger) Debug(msg string, _ ...logging.Field) { r.messages = append(r.messages, msg) }
func (r *recordingLogger) Sync() error                            { r.synced++; return nil }

func TestRunRootFlushesDefaultLogger(t *testing.T) {
	prev := logging.Default()
	t.Cleanup(func() { logging.SetDefault(prev) })

	rec := &recordingLogger{Logger: logging.NewNopLogger()}
	logging.SetDefault(rec)
	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(io.Discard)

	// Flag parsing fails before the pre-run hook replaces the default logger.
	if code := runRoot(rootCmd, []string{"eval", "--bogus"}, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.HasPrefix(stderr.String(), "bist: unknown flag: --bogus") {
		t.Errorf("stderr = %q", stderr.String())
	}
	if rec.synced != 1 {
		t.Errorf("default logger synced %d times, want 1", rec.synced)
	}
	if len(rec.messages) != 1 || rec.messages[0] != "command failed" {
		t.Errorf("logged %v, want [command failed]", rec.messages)
	}

	resetFlags(rootCmd)
	stderr.Reset()
	if code := runRoot(rootCmd, []string{"--log-level", "error", "eval", "0000000"}, &stderr); code != 0 {
		t.Fatalf("exit code = %d, want 0 (stderr %q)", code, stderr.String())
	}
}
