package trackers

import (
	"fmt"

	ts "github.com/samuelfneumann/gymclient/timestep"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot tracks episodic returns and saves them as a line plot. The
// image format is taken from the extension of the filename.
type Plot struct {
	returns  *Return
	filename string
	title    string
}

// NewPlot returns a new Plot Tracker which saves to filename
func NewPlot(filename, title string) *Plot {
	return &Plot{
		returns:  NewReturn(""),
		filename: filename,
		title:    title,
	}
}

// Track tracks the rewards seen on a timestep
func (p *Plot) Track(step ts.TimeStep) error {
	return p.returns.Track(step)
}

// Save plots the returns of all finished episodes
func (p *Plot) Save() error {
	return PlotReturns(p.returns.Returns(), p.filename, p.title)
}

// PlotReturns saves a line plot of episodic returns to filename
func PlotReturns(returns []float64, filename, title string) error {
	if len(returns) == 0 {
		return fmt.Errorf("plotReturns: no returns to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Return"

	points := make(plotter.XYs, len(returns))
	for i, v := range returns {
		points[i] = plotter.XY{
			X: float64(i + 1),
			Y: v,
		}
	}
	line, err := plotter.NewLine(points)
	if err != nil {
		return fmt.Errorf("plotReturns: %w", err)
	}
	p.Add(line, plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 5*vg.Inch, filename); err != nil {
		return fmt.Errorf("plotReturns: could not save plot: %w", err)
	}
	return nil
}
