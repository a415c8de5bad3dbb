package sweep

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/OpenTraceBIST/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceBIST/pkg/lfsr"
)

// TableHeader heads the text report.
const TableHeader = "Coverage Adders Polynom"

var tableRule = strings.Repeat("-", 80)

// Rank returns a copy of records ordered by coverage (highest first), then
// tap count (fewest first). Equal rows keep their sweep order.
func Rank(records []Record) []Record {
	ranked := append([]Record(nil), records...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Coverage != ranked[j].Coverage {
			return ranked[i].Coverage > ranked[j].Coverage
		}
		return ranked[i].Taps < ranked[j].Taps
	})
	return ranked
}

// Best returns the top ranked record.
func Best(records []Record) (Record, bool) {
	if len(records) == 0 {
		return Record{}, false
	}
	return Rank(records)[0], true
}

// FormatRow renders one record as a table row.
func FormatRow(r Record) string {
	return fmt.Sprintf("%.2f%%   %d      %s", r.Coverage, r.Taps, r.Polynomial)
}

// WriteTable writes the text report: header, rule, one row per record in
// the given order, rule, header.
func WriteTable(w io.Writer, records []Record) error {
	var b strings.Builder
	b.WriteString(TableHeader + "\n")
	b.WriteString(tableRule + "\n")
	for _, r := range records {
		b.WriteString(FormatRow(r) + "\n")
	}
	b.WriteString(tableRule + "\n")
	b.WriteString(TableHeader + "\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Wrap(err, "sweep: write table")
	}
	return nil
}

// Report is the exported form of a sweep.
type Report struct {
	RunID     string          `json:"run_id" yaml:"run_id"`
	Reference lfsr.Polynomial `json:"reference" yaml:"reference"`
	Width     int             `json:"width" yaml:"width"`
	Observe   []circuit.Node  `json:"observe" yaml:"observe"`
	Best      *Record         `json:"best,omitempty" yaml:"best,omitempty"`
	Records   []Record        `json:"records" yaml:"records"`
}

// NewReport wraps records with the configuration that produced them.
func NewReport(runID string, cfg *Config, records []Record) Report {
	r := Report{
		RunID:     runID,
		Reference: cfg.Reference,
		Width:     cfg.Width,
		Observe:   cfg.Observe,
		Records:   records,
	}
	if best, ok := Best(records); ok {
		r.Best = &best
	}
	return r
}

// ExportJSON encodes the report as indented JSON.
func (r Report) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "sweep: encode json")
	}
	return data, nil
}

// ExportYAML encodes the report as YAML.
func (r Report) ExportYAML() ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "sweep: encode yaml")
	}
	return data, nil
}
