package app

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTheme selects how normalized power is turned into a pixel color.
type ColorTheme string

const (
	LinearTheme ColorTheme = "linear" // Dark blue to yellow
	HueTheme    ColorTheme = "hue"    // Blue through red with rising brightness
)

var validColorThemes = map[ColorTheme]struct{}{
	LinearTheme: {},
	HueTheme:    {},
}

// ColorFunc maps a power value in dBm to an opaque color.
type ColorFunc func(power float64) color.RGBA

// NewColorFunc returns the color function of theme normalized to bounds.
func NewColorFunc(theme ColorTheme, bounds PowerRange) (ColorFunc, error) {
	var palette func(float64) color.RGBA
	switch theme {
	case LinearTheme:
		palette = linearColor
	case HueTheme:
		palette = hueColor
	default:
		return nil, fmt.Errorf("invalid color theme: %s", theme)
	}

	return func(power float64) color.RGBA {
		return palette(bounds.normalize(power))
	}, nil
}

// normalize maps power onto [0, 1]. A degenerate range maps everything to 0.
func (b PowerRange) normalize(power float64) float64 {
	span := b.Max - b.Min
	if !(span > 0) || math.IsInf(span, 0) {
		return 0
	}

	g := (power - b.Min) / span
	switch {
	case math.IsNaN(g), g < 0:
		return 0
	case g > 1:
		return 1
	}
	return g
}

func linearColor(g float64) color.RGBA {
	v := uint8(g * 255)
	return color.RGBA{R: v, G: v, B: 50, A: 0xff}
}

func hueColor(g float64) color.RGBA {
	hue := 0.65 - (g - 0.08)
	hue -= math.Floor(hue) // wrap into [0, 1)

	r, gr, b := colorful.Hsv(hue*360, 1, 0.2+g).Clamped().RGB255()
	return color.RGBA{R: r, G: gr, B: b, A: 0xff}
}
