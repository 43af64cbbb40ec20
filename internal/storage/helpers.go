package storage

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

const sampleSize = 8

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && *err == nil {
		*err = cErr
	}
}

// encodeSamples packs power readings as little-endian IEEE 754 doubles, which
// keeps -Inf and NaN intact.
func encodeSamples(samples []float64) []byte {
	buf := make([]byte, len(samples)*sampleSize)
	for i, s := range samples {
		binary.LittleEndian.PutUint64(buf[i*sampleSize:], math.Float64bits(s))
	}
	return buf
}

func decodeSamples(buf []byte) ([]float64, error) {
	if len(buf)%sampleSize != 0 {
		return nil, fmt.Errorf("invalid samples blob: %d bytes", len(buf))
	}

	samples := make([]float64, len(buf)/sampleSize)
	for i := range samples {
		samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*sampleSize:]))
	}
	return samples, nil
}

func fromUnix(sec int64, loc *time.Location) time.Time {
	return time.Unix(sec, 0).In(loc)
}
