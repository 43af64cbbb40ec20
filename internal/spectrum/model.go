package spectrum

import (
	"time"
)

// TimestampLayout is the layout of the date and time columns written by rtl_power.
const TimestampLayout = time.DateTime

// SweepRecord represents a single line of sweep output: one hop of the receiver
// across a contiguous frequency range, with the power measured in every bin.
// Records are immutable once parsed.
type SweepRecord struct {
	TimeKey    string    // "date time" as logged, identifies the row of the raster
	Timestamp  time.Time // TimeKey parsed in the configured location
	RangeLow   float64   // Lowest frequency of the hop in Hz
	RangeHigh  float64   // Highest frequency of the hop in Hz
	Step       float64   // Bin width in Hz
	NumSamples int       // Number of samples integrated per bin (informational)
	Samples    []float64 // Power in dBm at RangeLow, RangeLow+Step, ...; may hold -Inf or NaN
}

// Frequency returns the frequency of the i-th sample in Hz.
func (r *SweepRecord) Frequency(i int) float64 {
	return r.RangeLow + float64(i)*r.Step
}
