// Package chart renders the monthly sales line chart as PNG.
package chart

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"salesreport/internal/report"
)

// Defaults used when Options fields are zero.
const (
	DefaultTitle    = "Sales by Month"
	DefaultWidthIn  = 8.0
	DefaultHeightIn = 4.5
	DefaultDPI      = 160
)

// Options sizes the chart. Zero values take the defaults.
type Options struct {
	Title    string
	WidthIn  float64
	HeightIn float64
	DPI      int
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.WidthIn <= 0 {
		o.WidthIn = DefaultWidthIn
	}
	if o.HeightIn <= 0 {
		o.HeightIn = DefaultHeightIn
	}
	if o.DPI <= 0 {
		o.DPI = DefaultDPI
	}
	return o
}

// RenderMonthlySales draws series in the given order, one x position per
// month, and writes the PNG to w. Non-finite values are left out of the
// line; an empty series yields an empty chart.
func RenderMonthlySales(w io.Writer, series []report.MonthSales, opt Options) error {
	opt = opt.withDefaults()

	p := plot.New()
	p.Title.Text = opt.Title
	p.X.Label.Text = "month"
	p.Y.Label.Text = "sales"

	ticks := make([]plot.Tick, len(series))
	pts := make(plotter.XYs, 0, len(series))
	for i, m := range series {
		ticks[i] = plot.Tick{Value: float64(i), Label: m.Month}
		// Sums that overflowed to ±Inf (or NaN) cannot be placed on the axis.
		if math.IsInf(m.Sales, 0) || math.IsNaN(m.Sales) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(i), Y: m.Sales})
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	if len(pts) == 0 {
		// No data range to derive from.
		p.X.Min, p.X.Max = 0, math.Max(1, float64(len(series)-1))
		p.Y.Min, p.Y.Max = 0, 1
	} else {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("chart: line: %w", err)
		}
		p.Add(line, plotter.NewGrid())
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opt.WidthIn)*vg.Inch, vg.Length(opt.HeightIn)*vg.Inch),
		vgimg.UseDPI(opt.DPI),
	)
	p.Draw(draw.New(c))

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("chart: encode png: %w", err)
	}
	return nil
}
