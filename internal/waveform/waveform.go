// Package waveform collects signal traces from an analysis and renders them
// as line plots.
package waveform

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var ErrNoData = errors.New("waveform: no samples recorded")

// Recorder holds one trace per signal against a shared x axis, usually time.
type Recorder struct {
	XLabel string
	Names  []string
	X      []float64
	Series [][]float64
}

func NewRecorder(xLabel string, names ...string) *Recorder {
	return &Recorder{
		XLabel: xLabel,
		Names:  names,
		Series: make([][]float64, len(names)),
	}
}

// Record appends one sample. values must line up with Names.
func (r *Recorder) Record(x float64, values ...float64) error {
	if len(values) != len(r.Names) {
		return fmt.Errorf("waveform: got %d values for %d signals", len(values), len(r.Names))
	}
	r.X = append(r.X, x)
	for i, v := range values {
		r.Series[i] = append(r.Series[i], v)
	}
	return nil
}

func (r *Recorder) Len() int { return len(r.X) }

// FromResults builds a recorder from analysis results keyed like
// "TIME" -> times, "V(out)" -> values.
func FromResults(results map[string][]float64, xKey string, names ...string) (*Recorder, error) {
	xs, ok := results[xKey]
	if !ok {
		return nil, fmt.Errorf("waveform: missing axis %q", xKey)
	}

	r := NewRecorder(xKey, names...)
	r.X = append([]float64(nil), xs...)
	for i, name := range names {
		ys, ok := results[name]
		if !ok {
			return nil, fmt.Errorf("waveform: missing signal %q", name)
		}
		if len(ys) != len(xs) {
			return nil, fmt.Errorf("waveform: %s has %d samples, %s has %d", name, len(ys), xKey, len(xs))
		}
		r.Series[i] = append([]float64(nil), ys...)
	}
	return r, nil
}

func (r *Recorder) points(i int) plotter.XYs {
	pts := make(plotter.XYs, len(r.X))
	for k := range r.X {
		pts[k].X = r.X[k]
		pts[k].Y = r.Series[i][k]
	}
	return pts
}

// Plot lays out every trace on one set of axes.
func (r *Recorder) Plot(title string) (*plot.Plot, error) {
	if r.Len() == 0 || len(r.Names) == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = r.XLabel
	p.Y.Label.Text = "value"
	p.Add(plotter.NewGrid())

	lines := make([]interface{}, 0, 2*len(r.Names))
	for i, name := range r.Names {
		lines = append(lines, name, r.points(i))
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return nil, fmt.Errorf("adding lines: %v", err)
	}
	return p, nil
}

// SavePNG renders the traces to an image file. The format follows the
// extension, defaulting to png.
func (r *Recorder) SavePNG(path, title string) error {
	p, err := r.Plot(title)
	if err != nil {
		return err
	}
	if filepath.Ext(path) == "" {
		path += ".png"
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot: %v", err)
	}
	return nil
}

// Render writes the traces in the given format ("png", "svg", "pdf").
func (r *Recorder) Render(w io.Writer, title, format string) error {
	p, err := r.Plot(title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, strings.ToLower(format))
	if err != nil {
		return fmt.Errorf("rendering plot: %v", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
