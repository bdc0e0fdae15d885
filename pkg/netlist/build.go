package netlist

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/edp1096/circuit-sim/pkg/analysis"
	"github.com/edp1096/circuit-sim/pkg/circuit"
	"github.com/edp1096/circuit-sim/pkg/linsolve"
)

var ErrUnknownSource = errors.New("netlist: unknown source")

// Netlist is a parsed circuit ready for analysis.
type Netlist struct {
	Title    string
	Topology *circuit.Topology
	Labels   analysis.Labels
	Analysis AnalysisType
	Tran     TranParam
	DC       DCParam
	Config   analysis.Config
}

// IsGround reports whether a node name is the reference node.
func IsGround(name string) bool {
	return name == "0" || strings.EqualFold(name, "gnd")
}

// Load parses input and builds it on top of base.
func Load(input string, base analysis.Config) (*Netlist, error) {
	data, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return data.Build(base)
}

// Build numbers the nodes, ground last, and converts every element.
func (nd *NetlistData) Build(base analysis.Config) (*Netlist, error) {
	names := nd.nodeOrder()
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}
	ground := len(names)

	node := func(name string) int {
		if IsGround(name) {
			return ground
		}
		return index[name]
	}

	topo := &circuit.Topology{NumNodes: ground + 1}
	labels := analysis.Labels{Nodes: append(names, "0")}

	for _, elem := range nd.Elements {
		switch elem.Type {
		case "Q":
			kind, err := transistorKind(elem)
			if err != nil {
				return nil, err
			}
			c, b, e := node(elem.Nodes[0]), node(elem.Nodes[1]), node(elem.Nodes[2])
			topo.ThreeTerminal = append(topo.ThreeTerminal, circuit.ThreeTerminal{Nodes: [3]int{e, b, c}, Kind: kind})
			labels.ThreeTerminal = append(labels.ThreeTerminal, elem.Name)

		default:
			kind, err := twoTerminalKind(elem)
			if err != nil {
				return nil, err
			}
			a, b := node(elem.Nodes[0]), node(elem.Nodes[1])
			nodes := [2]int{a, b}
			if elem.Type == "V" {
				// n+ is the end terminal
				nodes = [2]int{b, a}
			}
			topo.TwoTerminal = append(topo.TwoTerminal, circuit.TwoTerminal{Nodes: nodes, Kind: kind})
			labels.TwoTerminal = append(labels.TwoTerminal, elem.Name)
		}
	}

	cfg, err := nd.Config(base)
	if err != nil {
		return nil, err
	}

	n := &Netlist{
		Title:    nd.Title,
		Topology: topo,
		Labels:   labels,
		Analysis: nd.Analysis,
		Tran:     nd.TranParam,
		DC:       nd.DCParam,
		Config:   cfg,
	}

	if nd.Analysis == AnalysisDC {
		if _, err := n.SourceIndex(nd.DCParam.Source); err != nil {
			return nil, err
		}
	}

	return n, nil
}

// nodeOrder lists the non-ground node names by first appearance.
func (nd *NetlistData) nodeOrder() []string {
	names := make([]string, 0, len(nd.Nodes))
	seen := make(map[string]bool, len(nd.Nodes))
	for _, elem := range nd.Elements {
		for _, name := range elem.Nodes {
			if IsGround(name) || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func twoTerminalKind(elem Element) (circuit.TwoTerminalKind, error) {
	switch elem.Type {
	case "R":
		return circuit.Resistor{Resistance: elem.Value}, nil
	case "C":
		return circuit.Capacitor{Capacitance: elem.Value}, nil
	case "V":
		return circuit.Battery{Voltage: elem.Value}, nil
	case "I":
		return circuit.CurrentSource{Current: elem.Value}, nil
	case "D":
		return circuit.Diode{}, nil
	case "W":
		return circuit.Wire{}, nil
	case "S":
		return circuit.Switch{Open: elem.Params["state"] == "open"}, nil
	case "L":
		ind := circuit.Inductor{Inductance: elem.Value}
		if core, ok := elem.Params["core"]; ok {
			id, err := strconv.ParseUint(core, 10, 16)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid core id %q: %v", elem.Name, core, err)
			}
			ind.CoreID = circuit.Core(uint16(id))
		}
		return ind, nil
	}
	return nil, fmt.Errorf("unsupported element type: %s", elem.Name)
}

func transistorKind(elem Element) (circuit.ThreeTerminalKind, error) {
	switch elem.Params["model"] {
	case "NPN":
		return circuit.NTransistor{Beta: elem.Value}, nil
	case "PNP":
		return circuit.PTransistor{Beta: elem.Value}, nil
	}
	return nil, fmt.Errorf("%s: unsupported transistor type %s", elem.Name, elem.Params["model"])
}

// SourceIndex finds a battery by element name.
func (n *Netlist) SourceIndex(name string) (int, error) {
	for i, label := range n.Labels.TwoTerminal {
		if !strings.EqualFold(label, name) {
			continue
		}
		if _, ok := n.Topology.TwoTerminal[i].Kind.(circuit.Battery); !ok {
			return 0, fmt.Errorf("%w: %s is not a voltage source", ErrUnknownSource, name)
		}
		return i, nil
	}
	return 0, fmt.Errorf("%w: source %s not found", ErrUnknownSource, name)
}

// Config applies .tran and .options on top of base.
func (nd *NetlistData) Config(base analysis.Config) (analysis.Config, error) {
	cfg := base
	if nd.Analysis == AnalysisTRAN && nd.TranParam.TStep > 0 {
		cfg.Dt = nd.TranParam.TStep
	}

	for _, opt := range nd.Options {
		if err := applyOption(&cfg, opt); err != nil {
			return cfg, fmt.Errorf("option %s: %w", opt.Key, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyOption(cfg *analysis.Config, opt Option) error {
	var err error

	switch opt.Key {
	case "method", "mode":
		cfg.Mode, err = analysis.ParseMode(opt.Value)
	case "solver":
		cfg.LinearSolver, err = linsolve.ParseMethod(opt.Value)
	case "steps", "ntimesteps":
		cfg.NTimesteps, err = strconv.Atoi(opt.Value)
	case "maxiter":
		cfg.MaxNRIters, err = strconv.Atoi(opt.Value)
	case "nrstep":
		cfg.NRStepSize, err = ParseValue(opt.Value)
	case "reltol", "nrtol":
		cfg.NRTolerance, err = ParseValue(opt.Value)
	case "dxtol":
		cfg.DxSolnTolerance, err = ParseValue(opt.Value)
	case "restart":
		cfg.GMRESRestart, err = strconv.Atoi(opt.Value)
	case "adaptive":
		cfg.AdaptiveStepSize = true
		if opt.Value != "" {
			cfg.AdaptiveStepSize, err = strconv.ParseBool(opt.Value)
		}
	default:
		return fmt.Errorf("%w: unknown option", analysis.ErrInvalidConfig)
	}

	return err
}
