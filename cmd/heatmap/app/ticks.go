package app

import "math"

// binsPerTick is the target number of raster columns between two synthesized
// frequency labels.
const binsPerTick = 500

// synthesizeTicks picks evenly spaced, round frequencies to label an axis that
// came from a single sweep range. The spacing is the span divided by one
// tick per binsPerTick bins, rounded to one significant digit. Ticks are
// multiples of the spacing at or above the lowest frequency and strictly below
// the highest one.
func synthesizeTicks(frequencies []float64) []float64 {
	if len(frequencies) < 2 {
		return nil
	}

	low, high := frequencies[0], frequencies[len(frequencies)-1]
	span := high - low
	if span <= 0 || math.IsInf(span, 0) || math.IsNaN(span) {
		return nil
	}

	delta := roundSignificant(span / float64(max(1, len(frequencies)/binsPerTick)))
	if delta >= 1 {
		delta = math.Trunc(delta)
	}
	if delta <= 0 {
		return nil
	}

	first := math.Ceil(low/delta) * delta
	upper := math.Trunc(high)

	var ticks []float64
	for i := 0; ; i++ {
		tick := first + float64(i)*delta
		if tick >= upper {
			break
		}
		ticks = append(ticks, tick)
	}
	return ticks
}

// roundSignificant rounds v to its leading decimal digit, with the exponent
// truncated toward zero: 2718 becomes 3000.
func roundSignificant(v float64) float64 {
	scale := math.Pow(10, math.Trunc(math.Log10(v)))
	return math.Round(v/scale) * scale
}
