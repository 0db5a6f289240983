// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chart renders stacked-area charts.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"
)

// A Figure is a stacked-area chart: every series is drawn on top of the
// sum of the series before it.
type Figure struct {
	Title  string
	XLabel string
	YLabel string

	// X holds the x coordinates shared by all series.
	X []float64

	// Series are stacked bottom to top.
	Series []Series
}

// A Series is one named layer of a Figure.
type Series struct {
	Label string
	Y     []float64 // len(Y) == len(Figure.X)
}

func (f *Figure) validate() error {
	if len(f.X) < 2 {
		return errors.New("chart: need at least two x points")
	}
	for _, s := range f.Series {
		if len(s.Y) != len(f.X) {
			return fmt.Errorf("chart: series %q has %d values for %d x points", s.Label, len(s.Y), len(f.X))
		}
	}
	return nil
}

// A Renderer draws a Figure as an image.
type Renderer interface {
	// Render writes fig to w.
	Render(w io.Writer, fig *Figure) error

	// Ext returns the file name extension of the images Render
	// writes, without a dot.
	Ext() string
}

// A Plotter renders figures with gonum/plot.
type Plotter struct {
	Style Style
}

var _ Renderer = (*Plotter)(nil)

// NewPlotter returns a Plotter that draws with style s.
func NewPlotter(s Style) (*Plotter, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &Plotter{Style: s}, nil
}

// Ext returns the image format of p.
func (p *Plotter) Ext() string {
	return string(p.Style.Format)
}

// Render draws fig and writes the encoded image to w.
func (p *Plotter) Render(w io.Writer, fig *Figure) error {
	if err := fig.validate(); err != nil {
		return err
	}
	pl, err := p.plot(fig)
	if err != nil {
		return err
	}
	c, err := p.canvas()
	if err != nil {
		return err
	}
	pl.Draw(draw.New(c))
	_, err = c.WriteTo(w)
	return err
}

func (p *Plotter) plot(fig *Figure) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = fig.Title
	pl.X.Label.Text = fig.XLabel
	pl.Y.Label.Text = fig.YLabel
	pl.Legend.Top = true
	pl.Legend.Padding = vg.Millimeter

	colors := p.Style.colors(len(fig.Series))
	lower := make([]float64, len(fig.X))
	upper := make([]float64, len(fig.X))
	var layers []*plotter.Polygon
	for i, s := range fig.Series {
		for j, y := range s.Y {
			upper[j] = lower[j] + y
		}
		poly, err := plotter.NewPolygon(band(fig.X, lower, upper))
		if err != nil {
			return nil, fmt.Errorf("chart: series %q: %v", s.Label, err)
		}
		poly.Color = colors[i]
		poly.LineStyle.Width = 0
		pl.Add(poly)
		layers = append(layers, poly)
		copy(lower, upper)
	}
	// List the legend in stacking order, top layer first.
	for i := len(layers) - 1; i >= 0; i-- {
		pl.Legend.Add(fig.Series[i].Label, layers[i])
	}

	pl.X.Min, pl.X.Max = fig.X[0], fig.X[len(fig.X)-1]
	top := 1.0
	for _, y := range lower {
		top = math.Max(top, y)
	}
	pl.Y.Min, pl.Y.Max = 0, top
	return pl, nil
}

// band returns the closed outline of the area between lower and upper.
func band(x, lower, upper []float64) plotter.XYs {
	ring := make(plotter.XYs, 0, 2*len(x))
	for i := range x {
		ring = append(ring, plotter.XY{X: x[i], Y: upper[i]})
	}
	for i := len(x) - 1; i >= 0; i-- {
		ring = append(ring, plotter.XY{X: x[i], Y: lower[i]})
	}
	return ring
}

func (p *Plotter) canvas() (vg.CanvasWriterTo, error) {
	s := &p.Style
	w, h := vg.Length(s.WidthCm)*vg.Centimeter, vg.Length(s.HeightCm)*vg.Centimeter
	switch s.Format {
	case PDF:
		return vgpdf.New(w, h), nil
	case SVG:
		return vgsvg.New(w, h), nil
	case PNG:
		return vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(w, h),
			vgimg.UseDPI(s.DPI), vgimg.UseBackgroundColor(color.White))}, nil
	}
	return nil, fmt.Errorf("chart: unknown format %q", s.Format)
}

// colors returns n fill colors. Brewer palettes have at least 3 and at
// most 9 to 12 colors; other counts use the plotutil colors.
func (s *Style) colors(n int) []color.Color {
	if pal, err := brewer.GetPalette(brewer.TypeAny, s.Palette, n); err == nil {
		return pal.Colors()
	}
	cs := make([]color.Color, n)
	for i := range cs {
		cs[i] = plotutil.Color(i)
	}
	return cs
}
