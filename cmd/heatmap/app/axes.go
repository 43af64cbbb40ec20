package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/roman-kulish/sweep-heatmap/internal/spectrum"
)

// ErrEmptyInput is returned when the source holds no sweep records.
var ErrEmptyInput = errors.New("no sweep records in input")

// PowerRange is the global power span in dBm used to normalize colors.
type PowerRange struct {
	Min float64
	Max float64
}

// Axes is the outcome of the first pass over the input: the raster geometry,
// the power range and the frequencies to label. It is read-only once built.
type Axes struct {
	Frequencies []float64 // Sorted distinct bin frequencies in Hz; raster width
	Times       []string  // Sorted distinct time keys; raster height
	Labels      []float64 // Sorted frequencies to annotate in Hz
	Power       PowerRange
	Start       time.Time // Earliest timestamp
	Stop        time.Time // Latest timestamp
	Step        float64   // Step of the last record read in Hz
	Records     int       // Number of records read

	timeIndex map[string]int
}

// Width returns the raster width in pixels.
func (a *Axes) Width() int {
	return len(a.Frequencies)
}

// Height returns the raster height in pixels.
func (a *Axes) Height() int {
	return len(a.Times)
}

// MinFrequency returns the lowest frequency on the axis.
func (a *Axes) MinFrequency() float64 {
	return a.Frequencies[0]
}

// MaxFrequency returns the highest frequency on the axis.
func (a *Axes) MaxFrequency() float64 {
	return a.Frequencies[len(a.Frequencies)-1]
}

// Row returns the raster row of a time key.
func (a *Axes) Row(timeKey string) (int, bool) {
	y, ok := a.timeIndex[timeKey]
	return y, ok
}

// Column returns the raster column of freq. An exact match is preferred,
// otherwise the nearest bin within half a step.
func (a *Axes) Column(freq, step float64) (int, bool) {
	i := sort.SearchFloat64s(a.Frequencies, freq)
	if i < len(a.Frequencies) && a.Frequencies[i] == freq {
		return i, true
	}

	best, bestDiff := -1, step/2
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= len(a.Frequencies) {
			continue
		}
		// ties go to the lower bin
		if diff := math.Abs(a.Frequencies[j] - freq); diff <= bestDiff && (best < 0 || diff < bestDiff) {
			best, bestDiff = j, diff
		}
	}
	return best, best >= 0
}

// LabelColumn returns the column of the first bin at or above freq.
func (a *Axes) LabelColumn(freq float64) int {
	return sort.SearchFloat64s(a.Frequencies, freq)
}

// BuildAxes reads the whole source once and computes the axes of the raster.
func BuildAxes(ctx context.Context, src spectrum.Source) (*Axes, error) {
	reader, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	b := newAxisBuilder()
	for reader.Next(ctx) {
		b.Update(reader.Current())
	}
	if err = reader.Error(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", src.Name(), err)
	}
	if b.records == 0 {
		return nil, ErrEmptyInput
	}

	return b.Axes(), nil
}

// rangeKey identifies a sweep shape whose bins were already expanded.
type rangeKey struct {
	low, high int64
	step      float64
}

type axisBuilder struct {
	shapes      map[rangeKey]struct{}
	frequencies map[float64]struct{}
	times       map[string]struct{}
	lows        map[float64]struct{}

	minZ, maxZ       float64
	hasMinZ, hasMaxZ bool

	start, stop time.Time
	step        float64
	records     int
}

func newAxisBuilder() *axisBuilder {
	return &axisBuilder{
		shapes:      make(map[rangeKey]struct{}),
		frequencies: make(map[float64]struct{}),
		times:       make(map[string]struct{}),
		lows:        make(map[float64]struct{}),
		minZ:        math.Inf(1),
		maxZ:        math.Inf(-1),
	}
}

func (b *axisBuilder) Update(r *spectrum.SweepRecord) {
	key := rangeKey{low: int64(r.RangeLow), high: int64(r.RangeHigh), step: r.Step}
	if _, ok := b.shapes[key]; !ok {
		for i := 0; ; i++ {
			f := float64(i)*r.Step + r.RangeLow
			if f > r.RangeHigh {
				break
			}
			b.frequencies[f] = struct{}{}
		}
		// rounding may stop the walk one step short of the upper edge
		b.frequencies[r.RangeHigh] = struct{}{}
		b.lows[r.RangeLow] = struct{}{}
		b.shapes[key] = struct{}{}
	}

	b.times[r.TimeKey] = struct{}{}

	if b.records == 0 || r.Timestamp.Before(b.start) {
		b.start = r.Timestamp
	}
	if b.records == 0 || r.Timestamp.After(b.stop) {
		b.stop = r.Timestamp
	}

	for _, z := range r.Samples {
		if math.IsNaN(z) {
			continue
		}
		if !math.IsInf(z, -1) && z < b.minZ {
			b.minZ, b.hasMinZ = z, true
		}
		if z > b.maxZ {
			b.maxZ, b.hasMaxZ = z, true
		}
	}

	b.step = r.Step
	b.records++
}

func (b *axisBuilder) Axes() *Axes {
	axes := &Axes{
		Frequencies: sortedKeys(b.frequencies),
		Times:       sortedKeys(b.times),
		Labels:      sortedKeys(b.lows),
		Power:       b.powerRange(),
		Start:       b.start,
		Stop:        b.stop,
		Step:        b.step,
		Records:     b.records,
		timeIndex:   make(map[string]int, len(b.times)),
	}
	for y, key := range axes.Times {
		axes.timeIndex[key] = y
	}

	if len(axes.Labels) == 1 {
		if ticks := synthesizeTicks(axes.Frequencies); len(ticks) > 0 {
			axes.Labels = ticks
		}
	}

	return axes
}

func (b *axisBuilder) powerRange() PowerRange {
	switch {
	case b.hasMinZ:
		return PowerRange{Min: b.minZ, Max: b.maxZ}
	case b.hasMaxZ: // only -Inf below the maximum
		return PowerRange{Min: b.maxZ, Max: b.maxZ}
	default:
		return PowerRange{}
	}
}

func sortedKeys[K float64 | string](m map[K]struct{}) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
