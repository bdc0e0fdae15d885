package util

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case absValue >= 1e6:
		return fmt.Sprintf("%.3f M%s", value/1e6, unit)
	case absValue >= 1e3:
		return fmt.Sprintf("%.3f k%s", value/1e3, unit)
	case absValue >= 1:
		return fmt.Sprintf("%.3f %s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case absValue >= 1e-6:
		return fmt.Sprintf("%.3f u%s", value*1e6, unit)
	case absValue >= 1e-9:
		return fmt.Sprintf("%.3f n%s", value*1e9, unit)
	case absValue >= 1e-12:
		return fmt.Sprintf("%.3f p%s", value*1e12, unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

// SignalNames splits result keys into sorted V(...) and I(...) names.
func SignalNames(results map[string][]float64) (voltages, currents []string) {
	for name := range results {
		switch {
		case strings.HasPrefix(name, "V("):
			voltages = append(voltages, name)
		case strings.HasPrefix(name, "I("):
			currents = append(currents, name)
		}
	}
	sort.Strings(voltages)
	sort.Strings(currents)
	return voltages, currents
}

// Unit is "V" for voltages and "A" for everything else.
func Unit(name string) string {
	if strings.HasPrefix(name, "V(") {
		return "V"
	}
	return "A"
}
