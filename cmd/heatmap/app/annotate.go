package app

import (
	"fmt"
	"image"
	"math"
	"time"

	"github.com/golang/freetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi     float64 = 72
	hinting string  = "full"
	spacing float64 = 1.1

	DefaultFontSize float64 = 9

	labelTop     = 10 // Top of the frequency labels in pixels
	legendLeft   = 2
	legendMargin = 5 // Gap between the last legend line and the bottom edge
)

// Annotator writes frequency labels and a legend onto a rendered raster in
// white text.
type Annotator struct {
	context *freetype.Context
	size    float64
}

// NewAnnotator prepares the embedded Go Regular font at size points.
func NewAnnotator(size float64) (*Annotator, error) {
	if size <= 0 {
		size = DefaultFontSize
	}

	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	context := freetype.NewContext()
	context.SetDPI(dpi)
	context.SetFont(parsedFont)
	context.SetFontSize(size)
	context.SetSrc(image.White)

	switch hinting {
	case "full":
		context.SetHinting(font.HintingFull)
	default:
		context.SetHinting(font.HintingNone)
	}

	return &Annotator{context: context, size: size}, nil
}

func (a *Annotator) Annotate(img *image.RGBA, axes *Axes) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func(*image.RGBA, *Axes) error
	}{
		{"drawing frequency labels", a.drawLabels},
		{"drawing legend", a.drawLegend},
	}
	for _, op := range ops {
		if err := op.fn(img, axes); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	return nil
}

func (a *Annotator) drawLabels(_ *image.RGBA, axes *Axes) error {
	// freetype positions text by its baseline, labels are placed by their top
	baseline := labelTop + a.ascent()

	for _, label := range axes.Labels {
		pt := freetype.Pt(axes.LabelColumn(label), baseline)
		if _, err := a.context.DrawString(frequencyLabel(label), pt); err != nil {
			return err
		}
	}

	return nil
}

func (a *Annotator) drawLegend(img *image.RGBA, axes *Axes) error {
	lines := legendLines(axes)

	lineHeight := a.context.PointToFixed(a.size * spacing)
	top := img.Bounds().Dy() - legendMargin - len(lines)*lineHeight.Ceil()

	pt := freetype.Pt(legendLeft, top+a.ascent())
	for _, s := range lines {
		if _, err := a.context.DrawString(s, pt); err != nil {
			return err
		}
		pt.Y += lineHeight
	}

	return nil
}

func (a *Annotator) ascent() int {
	return int(math.Ceil(a.size * dpi / 72))
}

func frequencyLabel(hz float64) string {
	return fmt.Sprintf("%.3fMHz", hz/1e6)
}

// legendLines describes the raster: its duration, the frequency range, the
// size of one pixel and the start time.
func legendLines(axes *Axes) []string {
	duration := int64(axes.Stop.Sub(axes.Start) / time.Second)
	hours := duration / 3600
	minutes := (duration - hours*3600) / 60

	pixelSeconds := 0.0
	if axes.Height() > 0 {
		pixelSeconds = float64(duration) / float64(axes.Height())
	}

	return []string{
		fmt.Sprintf("Duration: %d:%02d", hours, minutes),
		fmt.Sprintf("Range: %.2fMHz - %.2fMHz", axes.MinFrequency()/1e6, axes.MaxFrequency()/1e6),
		fmt.Sprintf("Pixel: %.2fHz x %ds", axes.Step, int(pixelSeconds)),
		"Started: " + axes.Start.Format(time.DateTime),
	}
}
