package spectrum

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

const (
	initialLineBuffer = 64 * 1024
	maxLineLength     = 64 * 1024 * 1024
)

// RecordReader iterates over the sweep records of one pass over a Source.
type RecordReader interface {
	// Next advances to the next record and returns false at the end of the
	// stream or on error.
	Next(context.Context) bool

	// Current returns the record read by the last call to Next.
	Current() *SweepRecord

	// Error returns the error that stopped the iteration, if any.
	Error() error

	// Close releases the underlying stream.
	Close() error
}

// Source is a re-readable origin of sweep records. Every call to Open starts a
// new pass from the first record; a growing source may yield more records on a
// later pass than on an earlier one, never fewer.
type Source interface {
	Open(ctx context.Context) (RecordReader, error)
	Name() string
}

// ErrTooManyParseErrors stops a lenient pass once the configured number of
// consecutive malformed lines is reached.
var ErrTooManyParseErrors = errors.New("too many consecutive parse errors")

// SourceOption configures a ReaderSource.
type SourceOption func(*ReaderSource)

// WithLocation sets the time zone the timestamps are logged in.
func WithLocation(loc *time.Location) SourceOption {
	return func(s *ReaderSource) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithParseErrorsThreshold makes a pass skip malformed lines, reporting each to
// onSkip, until threshold consecutive ones are seen. By default the first
// malformed line ends the pass.
func WithParseErrorsThreshold(threshold int, onSkip func(*ParseError)) SourceOption {
	return func(s *ReaderSource) {
		s.parseErrorsThreshold = threshold
		s.onSkip = onSkip
	}
}

// ReaderSource is a Source backed by a function that opens a fresh byte stream
// of CSV lines.
type ReaderSource struct {
	name     string
	open     func() (io.ReadCloser, error)
	location *time.Location

	parseErrorsThreshold int
	onSkip               func(*ParseError)
}

// NewReaderSource creates a Source that calls open once per pass.
func NewReaderSource(name string, open func() (io.ReadCloser, error), opts ...SourceOption) *ReaderSource {
	s := &ReaderSource{
		name:     name,
		open:     open,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFileSource creates a Source reading the file at path, decompressing it
// when the name ends with ".gz".
func NewFileSource(path string, opts ...SourceOption) *ReaderSource {
	return NewReaderSource(path, func() (io.ReadCloser, error) {
		return openFile(path)
	}, opts...)
}

func (s *ReaderSource) Name() string {
	return s.name
}

func (s *ReaderSource) Open(ctx context.Context) (RecordReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.name, err)
	}

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, initialLineBuffer), maxLineLength)

	return &lineReader{
		closer:               rc,
		scanner:              scanner,
		location:             s.location,
		parseErrorsThreshold: s.parseErrorsThreshold,
		onSkip:               s.onSkip,
	}, nil
}

type lineReader struct {
	closer   io.Closer
	scanner  *bufio.Scanner
	location *time.Location

	parseErrorsThreshold int
	parseErrors          int
	onSkip               func(*ParseError)

	line    int
	current *SweepRecord
	err     error
}

func (r *lineReader) Next(ctx context.Context) bool {
	if r.err != nil {
		return false
	}

	for {
		select {
		case <-ctx.Done():
			r.err = ctx.Err()
			return false
		default:
		}

		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				r.err = fmt.Errorf("reading line %d: %w", r.line+1, err)
			}
			r.current = nil
			return false
		}
		r.line++

		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}

		record, err := ParseRecord(line, r.location)
		if err != nil {
			perr := &ParseError{Line: r.line, Err: err}
			r.current = nil

			if r.parseErrorsThreshold <= 0 {
				r.err = perr
				return false
			}

			r.parseErrors++
			if r.parseErrors >= r.parseErrorsThreshold {
				r.err = fmt.Errorf("%w: %w", ErrTooManyParseErrors, perr)
				return false
			}
			if r.onSkip != nil {
				r.onSkip(perr)
			}
			continue
		}

		r.parseErrors = 0
		r.current = record
		return true
	}
}

func (r *lineReader) Current() *SweepRecord {
	return r.current
}

func (r *lineReader) Error() error {
	return r.err
}

func (r *lineReader) Close() error {
	return r.closer.Close()
}

// compressedFile closes both the decompressor and the file underneath it.
type compressedFile struct {
	*gzip.Reader
	file *os.File
}

func (c *compressedFile) Close() error {
	return errors.Join(c.Reader.Close(), c.file.Close())
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("reading gzip header: %w", err)
	}
	return &compressedFile{Reader: zr, file: f}, nil
}
