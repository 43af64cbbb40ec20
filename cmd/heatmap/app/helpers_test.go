package app

import (
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/roman-kulish/sweep-heatmap/internal/spectrum"
)

const (
	scenarioFirst  = "2024-01-01, 00:00:00, 100000, 100010, 10, 1, -80, -70, -60"
	scenarioSecond = "2024-01-01, 00:00:05, 100000, 100010, 10, 1, -75, -65, -55"
)

func memorySource(lines ...string) spectrum.Source {
	data := strings.Join(lines, "\n")
	return spectrum.NewReaderSource("memory", func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(data)), nil
	}, spectrum.WithLocation(time.UTC))
}

// growingSource yields one more line on every pass, like a capture that is
// still being written.
func growingSource(first int, lines ...string) spectrum.Source {
	var passes atomic.Int32
	return spectrum.NewReaderSource("growing", func() (io.ReadCloser, error) {
		n := min(first+int(passes.Add(1))-1, len(lines))
		return io.NopCloser(strings.NewReader(strings.Join(lines[:n], "\n"))), nil
	}, spectrum.WithLocation(time.UTC))
}
