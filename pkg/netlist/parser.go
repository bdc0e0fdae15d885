// Package netlist reads a SPICE-like text description into a circuit
// topology with its analysis card and solver options.
package netlist

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type AnalysisType int

const (
	AnalysisOP AnalysisType = iota
	AnalysisTRAN
	AnalysisDC
)

func (a AnalysisType) String() string {
	switch a {
	case AnalysisOP:
		return "OP"
	case AnalysisTRAN:
		return "TRAN"
	case AnalysisDC:
		return "DC"
	}
	return fmt.Sprintf("AnalysisType(%d)", int(a))
}

type TranParam struct {
	TStep float64 // timestep
	TStop float64 // stop time
}

type DCParam struct {
	Source    string
	Start     float64
	Stop      float64
	Increment float64
}

type NetlistData struct {
	Elements  []Element      // Circuit elements
	Nodes     map[string]int // Node name and order of appearance
	Analysis  AnalysisType   // Analysis type
	TranParam TranParam
	DCParam   DCParam
	Options   []Option // .options in file order
	Title     string   // Circuit title
}

type Element struct {
	Type   string            // Part type (R, L, C, V, etc.)
	Name   string            // Part name
	Nodes  []string          // Node names
	Value  float64           // Part value
	Params map[string]string // Parameter values
}

// Option is one .options entry. Flags have an empty Value.
type Option struct {
	Key, Value string
}

var unitMap = map[string]float64{
	"T":   1e12,  // tera
	"G":   1e9,   // giga
	"meg": 1e6,   // mega
	"K":   1e3,   // kilo
	"k":   1e3,   // kilo
	"M":   1e-3,  // milli
	"m":   1e-3,  // milli
	"u":   1e-6,  // micro
	"n":   1e-9,  // nano
	"p":   1e-12, // pico
	"f":   1e-15, // femto
}

var (
	valuePattern = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)((?i:meg)|[TGMKkmunpf])?[a-zA-Z]*$`)
	spacePattern = regexp.MustCompile(`\s+`)
)

func Parse(input string) (*NetlistData, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	netlistData := &NetlistData{
		Nodes: make(map[string]int),
	}

	// Title or comment
	if scanner.Scan() {
		netlistData.Title = strings.TrimPrefix(scanner.Text(), "*")
		netlistData.Title = strings.TrimSpace(netlistData.Title)
	}

	var currentLine string
	var continuationMode bool
	var ended bool

	flush := func() error {
		if currentLine == "" || ended {
			currentLine = ""
			return nil
		}
		if strings.EqualFold(currentLine, ".end") {
			ended = true
			currentLine = ""
			return nil
		}
		err := parseLine(netlistData, currentLine)
		currentLine = ""
		return err
	}

	for scanner.Scan() {
		raw := scanner.Text()
		line := strings.TrimSpace(raw)

		// Empty line
		if len(line) == 0 {
			if err := flush(); err != nil {
				return nil, err
			}
			continuationMode = false
			continue
		}

		// Whole comment line
		if strings.HasPrefix(line, "*") {
			if err := flush(); err != nil {
				return nil, err
			}
			continuationMode = false
			continue
		}

		// Trailing comment
		if idx := strings.Index(line, "*"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}

		// Line continue
		if strings.HasPrefix(line, "+") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "+"))
			if currentLine != "" {
				currentLine += " " + line
			}
			continuationMode = true
			continue
		}

		// Indented continuation
		if continuationMode && strings.HasPrefix(raw, " ") {
			if currentLine != "" {
				currentLine += " " + line
			}
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}
		currentLine = line
		continuationMode = false
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading netlist: %v", err)
	}

	if err := flush(); err != nil {
		return nil, err
	}

	return netlistData, nil
}

func parseLine(netlistData *NetlistData, line string) error {
	line = spacePattern.ReplaceAllString(line, " ")

	if strings.HasPrefix(line, ".") {
		return parseDotOperator(netlistData, line)
	}

	element, err := parseElement(line)
	if err != nil {
		return err
	}

	netlistData.Elements = append(netlistData.Elements, *element)
	for _, node := range element.Nodes {
		if _, exists := netlistData.Nodes[node]; !exists {
			netlistData.Nodes[node] = len(netlistData.Nodes)
		}
	}
	return nil
}

// Parse .op, .tran, .dc, .options
func parseDotOperator(netlistData *NetlistData, line string) error {
	var err error

	fields := strings.Fields(line)

	switch strings.ToLower(fields[0]) {
	case ".op":
		netlistData.Analysis = AnalysisOP

	case ".tran":
		netlistData.Analysis = AnalysisTRAN
		if len(fields) < 3 {
			return fmt.Errorf("insufficient tran parameters, need tstep and tstop")
		}
		netlistData.TranParam.TStep, err = ParseValue(fields[1])
		if err != nil {
			return fmt.Errorf("invalid tstep: %v", err)
		}
		netlistData.TranParam.TStop, err = ParseValue(fields[2])
		if err != nil {
			return fmt.Errorf("invalid tstop: %v", err)
		}

	case ".dc":
		netlistData.Analysis = AnalysisDC
		if len(fields) < 5 {
			return fmt.Errorf("insufficient DC sweep parameters")
		}

		netlistData.DCParam.Source = fields[1]
		netlistData.DCParam.Start, err = ParseValue(fields[2])
		if err != nil {
			return fmt.Errorf("invalid start value: %v", err)
		}
		netlistData.DCParam.Stop, err = ParseValue(fields[3])
		if err != nil {
			return fmt.Errorf("invalid stop value: %v", err)
		}
		netlistData.DCParam.Increment, err = ParseValue(fields[4])
		if err != nil {
			return fmt.Errorf("invalid increment value: %v", err)
		}

	case ".options", ".option":
		for _, field := range fields[1:] {
			key, value, _ := strings.Cut(field, "=")
			netlistData.Options = append(netlistData.Options, Option{Key: strings.ToLower(key), Value: value})
		}

	default:
		return fmt.Errorf("unsupported analysis type: %s", fields[0])
	}

	return nil
}

func parseElement(line string) (*Element, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, fmt.Errorf("invalid element format: %s", line)
	}

	elem := &Element{
		Name:   fields[0],
		Type:   strings.ToUpper(string(fields[0][0])),
		Params: make(map[string]string),
	}

	switch elem.Type {
	case "R", "C":
		if len(fields) != 4 {
			return nil, fmt.Errorf("%s: expected 2 nodes and a value", elem.Name)
		}
		return withValue(elem, fields[1:3], fields[3])

	case "V", "I":
		// An optional DC keyword precedes the value.
		rest := fields[3:]
		if len(rest) > 1 && strings.EqualFold(rest[0], "dc") {
			rest = rest[1:]
		}
		if len(rest) != 1 {
			return nil, fmt.Errorf("%s: expected 2 nodes and a DC value", elem.Name)
		}
		return withValue(elem, fields[1:3], rest[0])

	case "L":
		if len(fields) < 4 {
			return nil, fmt.Errorf("%s: expected 2 nodes and a value", elem.Name)
		}
		elem.Nodes = fields[1:3]
		for i := 3; i < len(fields); i++ {
			if name, val, ok := strings.Cut(fields[i], "="); ok {
				elem.Params[strings.ToLower(name)] = val
				continue
			}
			value, err := ParseValue(fields[i])
			if err != nil {
				return nil, fmt.Errorf("%s: %v", elem.Name, err)
			}
			elem.Value = value
		}
		return elem, nil

	case "D", "W":
		if len(fields) != 3 {
			return nil, fmt.Errorf("%s: expected 2 nodes", elem.Name)
		}
		elem.Nodes = fields[1:3]
		return elem, nil

	case "S":
		if len(fields) != 4 {
			return nil, fmt.Errorf("%s: expected 2 nodes and open|closed", elem.Name)
		}
		elem.Nodes = fields[1:3]
		switch strings.ToLower(fields[3]) {
		case "open", "off":
			elem.Params["state"] = "open"
		case "closed", "close", "on":
			elem.Params["state"] = "closed"
		default:
			return nil, fmt.Errorf("%s: invalid switch state %q", elem.Name, fields[3])
		}
		return elem, nil

	case "Q":
		if len(fields) < 5 || len(fields) > 6 {
			return nil, fmt.Errorf("%s: expected collector, base, emitter and NPN|PNP", elem.Name)
		}
		elem.Nodes = fields[1:4]
		model := strings.ToUpper(fields[4])
		if model != "NPN" && model != "PNP" {
			return nil, fmt.Errorf("%s: unsupported transistor type %s", elem.Name, fields[4])
		}
		elem.Params["model"] = model
		elem.Value = 100
		if len(fields) == 6 {
			beta, err := ParseValue(strings.TrimPrefix(strings.ToLower(fields[5]), "beta="))
			if err != nil {
				return nil, fmt.Errorf("%s: invalid beta: %v", elem.Name, err)
			}
			elem.Value = beta
		}
		return elem, nil

	default:
		return nil, fmt.Errorf("unsupported element type: %s", elem.Name)
	}
}

func withValue(elem *Element, nodes []string, valueStr string) (*Element, error) {
	value, err := ParseValue(valueStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", elem.Name, err)
	}
	elem.Nodes = nodes
	elem.Value = value
	return elem, nil
}

func ParseValue(val string) (float64, error) {
	matches := valuePattern.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %s", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}

	suffix := matches[2]
	if strings.EqualFold(suffix, "meg") {
		suffix = "meg"
	}
	if multiplier, ok := unitMap[suffix]; ok {
		num *= multiplier
	}

	return num, nil
}
