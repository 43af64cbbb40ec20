package app

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/roman-kulish/sweep-heatmap/internal/spectrum"
)

var backgroundColor = color.RGBA{A: 0xff}

// DrawStats counts what the second pass could not place on the raster.
// Records appended to a live capture after the first pass show up here.
type DrawStats struct {
	Records        int `yaml:"records"`         // Records read
	UnknownTime    int `yaml:"unknown_time"`    // Records whose time key is not on the axis
	UnmatchedRange int `yaml:"unmatched_range"` // Records whose range low is not on the axis
	ClippedSamples int `yaml:"clipped_samples"` // Samples that fell past the right edge
	PaintedSamples int `yaml:"painted_samples"` // Samples written to the raster
}

// Skipped reports whether any record or sample was left out.
func (s DrawStats) Skipped() bool {
	return s.UnknownTime > 0 || s.UnmatchedRange > 0 || s.ClippedSamples > 0
}

// DrawRaster re-reads the source and paints one pixel per sample at the row of
// its time key and the column of its frequency. Pixels no sample reaches stay
// black; when several samples land on one pixel the last one read wins.
func DrawRaster(ctx context.Context, src spectrum.Source, axes *Axes, colorFn ColorFunc) (*image.RGBA, DrawStats, error) {
	var stats DrawStats

	img := image.NewRGBA(image.Rect(0, 0, axes.Width(), axes.Height()))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	reader, err := src.Open(ctx)
	if err != nil {
		return nil, stats, err
	}
	defer reader.Close()

	width := axes.Width()
	for reader.Next(ctx) {
		r := reader.Current()
		stats.Records++

		y, ok := axes.Row(r.TimeKey)
		if !ok {
			stats.UnknownTime++
			continue
		}
		x0, ok := axes.Column(r.RangeLow, r.Step)
		if !ok {
			stats.UnmatchedRange++
			continue
		}

		for i, z := range r.Samples {
			x := x0 + i
			if x >= width {
				stats.ClippedSamples += len(r.Samples) - i
				break
			}
			// -Inf and NaN are painted as the quietest reading
			if !(z >= axes.Power.Min) {
				z = axes.Power.Min
			}
			img.SetRGBA(x, y, colorFn(z))
			stats.PaintedSamples++
		}
	}
	if err = reader.Error(); err != nil {
		return nil, stats, fmt.Errorf("reading %s: %w", src.Name(), err)
	}

	return img, stats, nil
}
