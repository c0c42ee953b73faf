// Package charts renders the schedule and the cost breakdown as images.
// The output format follows the file extension (png, svg, pdf, ...).
package charts

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/awaistahir/loadplan/internal/engine"
)

// DefaultTopN is the number of appliances shown in the cost chart
const DefaultTopN = 10

var (
	chartWidth  = 8 * vg.Inch
	chartHeight = 5 * vg.Inch
)

// LoadCurve draws total load against hour of day
func LoadCurve(rows []engine.ScheduleRow, path string) error {
	p := plot.New()
	p.Title.Text = "Optimized Load Curve (24h)"
	p.X.Label.Text = "Hour of Day"
	p.Y.Label.Text = "Total Load (kW)"

	grid := plotter.NewGrid()
	dashes := []vg.Length{vg.Points(3), vg.Points(3)}
	grid.Vertical.Dashes = dashes
	grid.Vertical.Width = vg.Points(0.5)
	grid.Horizontal.Dashes = dashes
	grid.Horizontal.Width = vg.Points(0.5)
	p.Add(grid)

	pts := make(plotter.XYs, len(rows))
	for i, r := range rows {
		pts[i].X = float64(r.Hour)
		pts[i].Y = r.LoadKW
	}

	if len(pts) > 0 {
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return fmt.Errorf("load curve: %w", err)
		}
		p.Add(line, points)
	}

	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return fmt.Errorf("saving load curve: %w", err)
	}
	return nil
}

// CostBars draws the topN most expensive appliances.
// rows are expected in descending cost order.
func CostBars(rows []engine.CostRow, path string, topN int) error {
	if topN <= 0 {
		topN = DefaultTopN
	}
	top := rows[:min(topN, len(rows))]

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Cost Contribution (Top %d)", topN)
	p.X.Label.Text = "Appliance"
	p.Y.Label.Text = "Cost (Rs)"

	if len(top) > 0 {
		values := make(plotter.Values, len(top))
		labels := make([]string, len(top))
		for i, r := range top {
			values[i] = r.Cost
			labels[i] = r.Name
		}

		bars, err := plotter.NewBarChart(values, vg.Points(20))
		if err != nil {
			return fmt.Errorf("cost chart: %w", err)
		}
		p.Add(bars)
		p.NominalX(labels...)
		p.X.Tick.Label.Rotation = math.Pi / 4
	}

	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return fmt.Errorf("saving cost chart: %w", err)
	}
	return nil
}
