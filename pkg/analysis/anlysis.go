// Package analysis drives the stamping engine and the linear backends: a
// Solver owns the solution window of one topology and advances it with
// Newton-Raphson or a single linear solve. Transient, OperatingPoint and
// DCSweep are built on top of it.
package analysis

import (
	"fmt"
	"math"

	"github.com/edp1096/circuit-sim/pkg/circuit"
)

type Analysis interface {
	Setup(topo *circuit.Topology) error
	Execute() error
	GetResults() map[string][]float64
}

// Labels name the result columns. Missing names fall back to indices.
type Labels struct {
	Nodes         []string
	TwoTerminal   []string
	ThreeTerminal []string
}

type BaseAnalysis struct {
	Topology *circuit.Topology
	Labels   Labels
	results  map[string][]float64 // key: variable name, value: result by time
	options  []Option
}

func NewBaseAnalysis(opts ...Option) *BaseAnalysis {
	return &BaseAnalysis{results: make(map[string][]float64), options: opts}
}

func (a *BaseAnalysis) SetLabels(l Labels) { a.Labels = l }

func (a *BaseAnalysis) NodeName(i int) string {
	if i < len(a.Labels.Nodes) && a.Labels.Nodes[i] != "" {
		return fmt.Sprintf("V(%s)", a.Labels.Nodes[i])
	}
	return fmt.Sprintf("V(%d)", i)
}

func (a *BaseAnalysis) CurrentName(i int) string {
	if i < len(a.Labels.TwoTerminal) && a.Labels.TwoTerminal[i] != "" {
		return fmt.Sprintf("I(%s)", a.Labels.TwoTerminal[i])
	}
	return fmt.Sprintf("I(%d)", i)
}

func (a *BaseAnalysis) TerminalName(k, terminal int) string {
	name := fmt.Sprintf("Q%d", k)
	if k < len(a.Labels.ThreeTerminal) && a.Labels.ThreeTerminal[k] != "" {
		name = a.Labels.ThreeTerminal[k]
	}
	return fmt.Sprintf("I(%s.%c)", name, "abc"[terminal])
}

// Flatten names every value of out. The ground node is omitted.
func (a *BaseAnalysis) Flatten(out SimOutputs) map[string]float64 {
	solution := make(map[string]float64, len(out.Voltages)+len(out.TwoTerminalCurrent)+3*len(out.ThreeTerminalCurrent))
	for i, v := range out.Voltages {
		if i == len(out.Voltages)-1 {
			break
		}
		solution[a.NodeName(i)] = v
	}
	for i, c := range out.TwoTerminalCurrent {
		solution[a.CurrentName(i)] = c
	}
	for k, triple := range out.ThreeTerminalCurrent {
		for j, c := range triple {
			solution[a.TerminalName(k, j)] = c
		}
	}
	return solution
}

func (a *BaseAnalysis) StoreTimeResult(time float64, solution map[string]float64) {
	// Ignore same time
	if times := a.results["TIME"]; len(times) > 0 {
		last := times[len(times)-1]
		if math.Abs(time-last) <= 1e-12*math.Max(1, math.Abs(time)) {
			return
		}
	}

	a.results["TIME"] = append(a.results["TIME"], time)
	for name, value := range solution {
		a.results[name] = append(a.results[name], value)
	}
}

// StoreResult appends one row keyed by an arbitrary sweep column.
func (a *BaseAnalysis) StoreResult(key string, x float64, solution map[string]float64) {
	a.results[key] = append(a.results[key], x)
	for name, value := range solution {
		a.results[name] = append(a.results[name], value)
	}
}

func (a *BaseAnalysis) GetResults() map[string][]float64 {
	return a.results
}
