package integrator

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Number of samples along the radius axis of a profile plot
const plotSamples = 256

// ProfileSeries samples r * R(r) per channel on [0, maxRadius], the radial
// energy distribution of the profile
func ProfileSeries(p Profile, maxRadius float64) [3]plotter.XYs {
	var series [3]plotter.XYs
	for ch := range series {
		series[ch] = make(plotter.XYs, plotSamples)
	}

	for i := 0; i < plotSamples; i++ {
		r := maxRadius * float64(i) / float64(plotSamples-1)
		value := p.Evaluate(r).Multiply(2 * math.Pi * r)
		for ch := range series {
			series[ch][i] = plotter.XY{X: r, Y: value.Channel(ch)}
		}
	}
	return series
}

// PlotProfile renders the per-channel radial profile to an image file.
// The format is chosen from the extension of path (png, svg, pdf, ...).
func PlotProfile(p Profile, maxRadius float64, path string) error {
	if !(maxRadius > 0) {
		return fmt.Errorf("max radius %v must be positive", maxRadius)
	}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("Diffusion profile: %s", p.Name)
	pl.X.Label.Text = "Radius (mm)"
	pl.Y.Label.Text = "2πr·R(r)"
	pl.Add(plotter.NewGrid())

	channelColors := [3]color.RGBA{
		{R: 220, A: 255},
		{G: 170, A: 255},
		{B: 220, A: 255},
	}
	channelNames := [3]string{"red", "green", "blue"}

	for ch, pts := range ProfileSeries(p, maxRadius) {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to create %s line: %w", channelNames[ch], err)
		}
		line.Color = channelColors[ch]
		line.Width = vg.Points(1.5)
		pl.Add(line)
		pl.Legend.Add(channelNames[ch], line)
	}
	pl.Legend.Top = true

	if err := pl.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save profile plot: %w", err)
	}
	return nil
}
