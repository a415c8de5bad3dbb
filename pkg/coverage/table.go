// Package coverage builds the exhaustive single stuck-at detection table of
// a circuit and answers queries about it.
package coverage

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/OpenTraceBIST/pkg/circuit"
)

// Detection records that the Value stuck-at fault on Node changes the
// circuit output for some vector.
type Detection struct {
	Value uint8        `json:"value" yaml:"value"`
	Node  circuit.Node `json:"node" yaml:"node"`
}

// Fault converts the detection back to a fault.
func (d Detection) Fault() circuit.Fault {
	return circuit.Fault{Node: d.Node, Value: d.Value}
}

// Table maps each test vector to the faults it detects. It is read-only
// once built.
type Table struct {
	sets map[circuit.Vector][]Detection

	nodes []circuit.Node // memoized by Nodes
}

// NewTable wraps a prebuilt detection map.
func NewTable(sets map[circuit.Vector][]Detection) *Table {
	return &Table{sets: sets}
}

// Nodes returns every node that appears in at least one detection, in
// first-seen order over the vector enumeration. Nodes whose faults no
// vector detects are absent.
func (t *Table) Nodes() []circuit.Node {
	if t.nodes == nil {
		seen := make(map[circuit.Node]bool)
		nodes := []circuit.Node{}
		for _, v := range circuit.AllVectors() {
			for _, d := range t.sets[v] {
				if !seen[d.Node] {
					seen[d.Node] = true
					nodes = append(nodes, d.Node)
				}
			}
		}
		t.nodes = nodes
	}
	return append([]circuit.Node(nil), t.nodes...)
}

// CoveredNodesFor returns the nodes whose value stuck-at fault is detected
// by v.
func (t *Table) CoveredNodesFor(v circuit.Vector, value uint8) []circuit.Node {
	seen := make(map[circuit.Node]bool)
	var nodes []circuit.Node
	for _, d := range t.sets[v] {
		if d.Value == value && !seen[d.Node] {
			seen[d.Node] = true
			nodes = append(nodes, d.Node)
		}
	}
	return nodes
}

// DetectionsFor returns a copy of the detections recorded for v.
func (t *Table) DetectionsFor(v circuit.Vector) []Detection {
	return append([]Detection(nil), t.sets[v]...)
}

// Detects reports whether v detects f.
func (t *Table) Detects(v circuit.Vector, f circuit.Fault) bool {
	for _, d := range t.sets[v] {
		if d.Fault() == f {
			return true
		}
	}
	return false
}

// Vectors returns the vectors with at least one detection, in enumeration
// order.
func (t *Table) Vectors() []circuit.Vector {
	var vs []circuit.Vector
	for _, v := range circuit.AllVectors() {
		if len(t.sets[v]) > 0 {
			vs = append(vs, v)
		}
	}
	return vs
}

// DetectedBy returns the vectors that detect f, in enumeration order.
func (t *Table) DetectedBy(f circuit.Fault) []circuit.Vector {
	var vs []circuit.Vector
	for _, v := range circuit.AllVectors() {
		if t.Detects(v, f) {
			vs = append(vs, v)
		}
	}
	return vs
}

// Undetected returns the faults no vector detects. They are redundant
// faults of the circuit, not table errors.
func (t *Table) Undetected() []circuit.Fault {
	detected := t.detectedFaults()
	var faults []circuit.Fault
	for _, f := range circuit.AllFaults() {
		if !detected[f] {
			faults = append(faults, f)
		}
	}
	return faults
}

// FaultCoverage is the percentage of all single stuck-at faults detected by
// at least one vector.
func (t *Table) FaultCoverage() float64 {
	total := len(circuit.AllFaults())
	return float64(len(t.detectedFaults())) * 100 / float64(total)
}

func (t *Table) detectedFaults() map[circuit.Fault]bool {
	detected := make(map[circuit.Fault]bool)
	for _, ds := range t.sets {
		for _, d := range ds {
			detected[d.Fault()] = true
		}
	}
	return detected
}

// CompactTestSet picks vectors greedily until every detectable fault is
// covered. Each round takes the vector detecting the most uncovered faults,
// the lowest enumeration index on a tie.
func (t *Table) CompactTestSet() []circuit.Vector {
	remaining := t.detectedFaults()
	var chosen []circuit.Vector
	for len(remaining) > 0 {
		best, bestGain := circuit.Vector{}, 0
		for _, v := range circuit.AllVectors() {
			gain := 0
			for _, d := range t.sets[v] {
				if remaining[d.Fault()] {
					gain++
				}
			}
			if gain > bestGain {
				best, bestGain = v, gain
			}
		}
		if bestGain == 0 {
			break
		}
		for _, d := range t.sets[best] {
			delete(remaining, d.Fault())
		}
		chosen = append(chosen, best)
	}
	sort.Slice(chosen, func(i, j int) bool { return chosen[i].Index() < chosen[j].Index() })
	return chosen
}

// Entry is one row of an exported table.
type Entry struct {
	Vector     circuit.Vector `json:"vector" yaml:"vector"`
	Detections []Detection    `json:"detections" yaml:"detections"`
}

// Report is the exported form of a table.
type Report struct {
	Version       string           `json:"version" yaml:"version"`
	FaultCoverage float64          `json:"fault_coverage" yaml:"fault_coverage"`
	Nodes         []circuit.Node   `json:"nodes" yaml:"nodes"`
	Undetected    []circuit.Fault  `json:"undetected" yaml:"undetected"`
	CompactSet    []circuit.Vector `json:"compact_test_set" yaml:"compact_test_set"`
	Entries       []Entry          `json:"entries" yaml:"entries"`
	GeneratedBy   string           `json:"generated_by" yaml:"generated_by"`
}

// Report assembles the exported form, entries in enumeration order.
func (t *Table) Report() Report {
	r := Report{
		Version:       "1.0",
		FaultCoverage: t.FaultCoverage(),
		Nodes:         t.Nodes(),
		Undetected:    t.Undetected(),
		CompactSet:    t.CompactTestSet(),
		GeneratedBy:   "bist stuck-at coverage table",
	}
	for _, v := range t.Vectors() {
		r.Entries = append(r.Entries, Entry{Vector: v, Detections: t.DetectionsFor(v)})
	}
	return r
}

// ExportJSON encodes the table report as indented JSON.
func (t *Table) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(t.Report(), "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "coverage: encode json")
	}
	return data, nil
}

// ExportYAML encodes the table report as YAML.
func (t *Table) ExportYAML() ([]byte, error) {
	data, err := yaml.Marshal(t.Report())
	if err != nil {
		return nil, errors.Wrap(err, "coverage: encode yaml")
	}
	return data, nil
}
