package circuit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownKind = errors.New("circuit: unknown component kind")

// The wire shape is externally tagged: unit variants are bare strings,
// variants with data are single-key objects.
//
//	{"num_nodes":3,"two_terminal":[[[0,1],{"Resistor":1000}],[[1,2],"Diode"]]}
type topologyJSON struct {
	NumNodes      int               `json:"num_nodes"`
	TwoTerminal   []json.RawMessage `json:"two_terminal"`
	ThreeTerminal []json.RawMessage `json:"three_terminal"`
}

func (t Topology) MarshalJSON() ([]byte, error) {
	out := topologyJSON{
		NumNodes:      t.NumNodes,
		TwoTerminal:   make([]json.RawMessage, 0, len(t.TwoTerminal)),
		ThreeTerminal: make([]json.RawMessage, 0, len(t.ThreeTerminal)),
	}

	for i, c := range t.TwoTerminal {
		kind, err := encodeTwoTerminal(c.Kind)
		if err != nil {
			return nil, fmt.Errorf("two-terminal %d: %w", i, err)
		}
		raw, err := json.Marshal([2]any{c.Nodes, kind})
		if err != nil {
			return nil, err
		}
		out.TwoTerminal = append(out.TwoTerminal, raw)
	}

	for i, c := range t.ThreeTerminal {
		kind, err := encodeThreeTerminal(c.Kind)
		if err != nil {
			return nil, fmt.Errorf("three-terminal %d: %w", i, err)
		}
		raw, err := json.Marshal([2]any{c.Nodes, kind})
		if err != nil {
			return nil, err
		}
		out.ThreeTerminal = append(out.ThreeTerminal, raw)
	}

	return json.Marshal(out)
}

func (t *Topology) UnmarshalJSON(data []byte) error {
	var in topologyJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	topo := Topology{NumNodes: in.NumNodes}

	for i, raw := range in.TwoTerminal {
		var pair [2]json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil {
			return fmt.Errorf("two-terminal %d: %v", i, err)
		}
		var c TwoTerminal
		if err := json.Unmarshal(pair[0], &c.Nodes); err != nil {
			return fmt.Errorf("two-terminal %d nodes: %v", i, err)
		}
		kind, err := decodeTwoTerminal(pair[1])
		if err != nil {
			return fmt.Errorf("two-terminal %d: %w", i, err)
		}
		c.Kind = kind
		topo.TwoTerminal = append(topo.TwoTerminal, c)
	}

	for i, raw := range in.ThreeTerminal {
		var pair [2]json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil {
			return fmt.Errorf("three-terminal %d: %v", i, err)
		}
		var c ThreeTerminal
		if err := json.Unmarshal(pair[0], &c.Nodes); err != nil {
			return fmt.Errorf("three-terminal %d nodes: %v", i, err)
		}
		kind, err := decodeThreeTerminal(pair[1])
		if err != nil {
			return fmt.Errorf("three-terminal %d: %w", i, err)
		}
		c.Kind = kind
		topo.ThreeTerminal = append(topo.ThreeTerminal, c)
	}

	*t = topo
	return nil
}

func encodeTwoTerminal(kind TwoTerminalKind) (any, error) {
	switch k := kind.(type) {
	case Wire:
		return "Wire", nil
	case Diode:
		return "Diode", nil
	case Resistor:
		return map[string]any{"Resistor": k.Resistance}, nil
	case Inductor:
		return map[string]any{"Inductor": [2]any{k.Inductance, k.CoreID}}, nil
	case Capacitor:
		return map[string]any{"Capacitor": k.Capacitance}, nil
	case Battery:
		return map[string]any{"Battery": k.Voltage}, nil
	case Switch:
		return map[string]any{"Switch": k.Open}, nil
	case CurrentSource:
		return map[string]any{"CurrentSource": k.Current}, nil
	case nil:
		return nil, ErrNilKind
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, kind)
	}
}

func encodeThreeTerminal(kind ThreeTerminalKind) (any, error) {
	switch k := kind.(type) {
	case NTransistor:
		return map[string]any{"NTransistor": k.Beta}, nil
	case PTransistor:
		return map[string]any{"PTransistor": k.Beta}, nil
	case nil:
		return nil, ErrNilKind
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, kind)
	}
}

// splitTag returns the variant name and its payload (nil for unit variants).
func splitTag(raw json.RawMessage) (string, json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var tag string
		if err := json.Unmarshal(raw, &tag); err != nil {
			return "", nil, err
		}
		return tag, nil, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", nil, err
	}
	if len(obj) != 1 {
		return "", nil, fmt.Errorf("%w: expected a single variant, got %d keys", ErrUnknownKind, len(obj))
	}
	for tag, payload := range obj {
		return tag, payload, nil
	}
	return "", nil, nil
}

func decodeTwoTerminal(raw json.RawMessage) (TwoTerminalKind, error) {
	tag, payload, err := splitTag(raw)
	if err != nil {
		return nil, err
	}

	var v float64
	switch tag {
	case "Wire":
		return Wire{}, nil
	case "Diode":
		return Diode{}, nil
	case "Inductor":
		var fields [2]json.RawMessage
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, fmt.Errorf("inductor: %v", err)
		}
		ind := Inductor{}
		if err := json.Unmarshal(fields[0], &ind.Inductance); err != nil {
			return nil, fmt.Errorf("inductor value: %v", err)
		}
		if len(fields[1]) > 0 {
			if err := json.Unmarshal(fields[1], &ind.CoreID); err != nil {
				return nil, fmt.Errorf("inductor core: %v", err)
			}
		}
		return ind, nil
	case "Switch":
		var open bool
		if err := json.Unmarshal(payload, &open); err != nil {
			return nil, fmt.Errorf("switch: %v", err)
		}
		return Switch{Open: open}, nil
	case "Resistor", "Capacitor", "Battery", "CurrentSource":
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("%s: %v", tag, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, tag)
	}

	switch tag {
	case "Resistor":
		return Resistor{Resistance: v}, nil
	case "Capacitor":
		return Capacitor{Capacitance: v}, nil
	case "Battery":
		return Battery{Voltage: v}, nil
	default:
		return CurrentSource{Current: v}, nil
	}
}

func decodeThreeTerminal(raw json.RawMessage) (ThreeTerminalKind, error) {
	tag, payload, err := splitTag(raw)
	if err != nil {
		return nil, err
	}

	var beta float64
	if payload != nil {
		if err := json.Unmarshal(payload, &beta); err != nil {
			return nil, fmt.Errorf("%s: %v", tag, err)
		}
	}

	switch tag {
	case "NTransistor":
		return NTransistor{Beta: beta}, nil
	case "PTransistor":
		return PTransistor{Beta: beta}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, tag)
	}
}
