package app

import (
	"fmt"
	"image"
	"image/draw"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAxes(width, height int, start, stop time.Time) *Axes {
	axes := &Axes{
		Frequencies: make([]float64, width),
		Times:       make([]string, height),
		Start:       start,
		Stop:        stop,
		Step:        10000,
	}
	for i := range axes.Frequencies {
		axes.Frequencies[i] = 88_000_000 + float64(i)*axes.Step
	}
	for i := range axes.Times {
		axes.Times[i] = fmt.Sprintf("row %04d", i)
	}
	axes.Labels = []float64{axes.Frequencies[0], axes.Frequencies[width/2]}
	return axes
}

func TestLegendLines(t *testing.T) {
	start := time.Date(2024, 1, 1, 22, 15, 0, 0, time.UTC)
	axes := testAxes(2000, 100, start, start.Add(25*time.Hour+30*time.Minute+59*time.Second))

	assert.Equal(t, []string{
		"Duration: 25:30",
		"Range: 88.00MHz - 107.99MHz",
		"Pixel: 10000.00Hz x 918s",
		"Started: 2024-01-01 22:15:00",
	}, legendLines(axes))
}

func TestLegendLines_TwoSweeps(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	axes := &Axes{
		Frequencies: []float64{100000, 100010},
		Times:       []string{"a", "b"},
		Start:       start,
		Stop:        start.Add(5 * time.Second),
		Step:        10,
	}

	assert.Equal(t, []string{
		"Duration: 0:00",
		"Range: 0.10MHz - 0.10MHz",
		"Pixel: 10.00Hz x 2s",
		"Started: 2024-01-01 00:00:00",
	}, legendLines(axes))
}

func TestFrequencyLabel(t *testing.T) {
	assert.Equal(t, "0.100MHz", frequencyLabel(100000))
	assert.Equal(t, "433.920MHz", frequencyLabel(433_920_000))
}

func TestAnnotator_DrawsWhiteText(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	axes := testAxes(400, 120, start, start.Add(time.Hour))

	img := image.NewRGBA(image.Rect(0, 0, axes.Width(), axes.Height()))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	annotator, err := NewAnnotator(DefaultFontSize)
	require.NoError(t, err)
	require.NoError(t, annotator.Annotate(img, axes))

	// labels along the top, legend along the bottom
	assert.True(t, hasWhite(img, image.Rect(0, 0, axes.Width(), 25)))
	assert.True(t, hasWhite(img, image.Rect(0, axes.Height()-50, axes.Width(), axes.Height())))
	assert.False(t, hasWhite(img, image.Rect(0, 30, axes.Width(), 60)))
}

func TestNewAnnotator_DefaultSize(t *testing.T) {
	annotator, err := NewAnnotator(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultFontSize, annotator.size)
}

// hasWhite reports whether r holds a near white pixel; glyph edges are
// anti-aliased.
func hasWhite(img *image.RGBA, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if c := img.RGBAAt(x, y); c.R >= 0xc0 && c.G >= 0xc0 && c.B >= 0xc0 {
				return true
			}
		}
	}
	return false
}
