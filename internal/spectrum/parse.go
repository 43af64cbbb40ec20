package spectrum

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// minNumericFields is range low, range high, step and the sample count column.
const minNumericFields = 4

var (
	// ErrMalformedRecord is returned when a field cannot be parsed.
	ErrMalformedRecord = errors.New("malformed sweep record")

	// ErrTooFewFields is returned when a line has fewer than six usable fields.
	ErrTooFewFields = errors.New("too few fields in sweep record")
)

// ParseError reports the input line a parse failure happened on.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Err.Error())
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseRecord parses one line of rtl_power CSV output:
//
//	date, time, Hz low, Hz high, Hz step, samples, dBm, dBm, ...
//
// Every field is trimmed, empty fields after the time column are dropped and the
// rest must be numeric. The timestamp is interpreted in loc (time.Local if nil).
func ParseRecord(line string, loc *time.Location) (*SweepRecord, error) {
	if loc == nil {
		loc = time.Local
	}

	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewFields, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	values := make([]float64, 0, len(fields)-2)
	for i, field := range fields[2:] {
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: field %d %q is not a number", ErrMalformedRecord, i+3, field)
		}
		values = append(values, v)
	}
	if len(values) < minNumericFields {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewFields, len(values)+2)
	}

	step := values[2]
	if !(step > 0) || math.IsInf(step, 1) {
		return nil, fmt.Errorf("%w: step must be positive: %v", ErrMalformedRecord, step)
	}

	key := fields[0] + " " + fields[1]
	timestamp, err := time.ParseInLocation(TimestampLayout, key, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid timestamp %q: %w", ErrMalformedRecord, key, err)
	}

	return &SweepRecord{
		TimeKey:    key,
		Timestamp:  timestamp,
		RangeLow:   values[0],
		RangeHigh:  values[1],
		Step:       step,
		NumSamples: int(values[3]),
		Samples:    values[minNumericFields:],
	}, nil
}
