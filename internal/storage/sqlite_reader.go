package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/sweep-heatmap/internal/spectrum"
)

// ReaderOption configures a SweepSource.
type ReaderOption func(*SweepSource)

// WithStartTime excludes records logged before t.
func WithStartTime(t time.Time) ReaderOption {
	return func(s *SweepSource) {
		s.startTime = &t
	}
}

// WithEndTime excludes records logged after t.
func WithEndTime(t time.Time) ReaderOption {
	return func(s *SweepSource) {
		s.endTime = &t
	}
}

// WithTimeRange is WithStartTime and WithEndTime combined.
func WithTimeRange(startTime, endTime time.Time) ReaderOption {
	return func(s *SweepSource) {
		s.startTime = &startTime
		s.endTime = &endTime
	}
}

// WithLocation sets the time zone of the timestamps handed out.
func WithLocation(loc *time.Location) ReaderOption {
	return func(s *SweepSource) {
		if loc != nil {
			s.location = loc
		}
	}
}

// SweepSource is a spectrum.Source over the records of one stored session, in
// insertion order.
type SweepSource struct {
	db      *sql.DB
	dbPath  string
	session *Session

	startTime *time.Time
	endTime   *time.Time
	location  *time.Location
}

func newSweepSource(db *sql.DB, dbPath string, session *Session, opts ...ReaderOption) *SweepSource {
	s := &SweepSource{
		db:       db,
		dbPath:   dbPath,
		session:  session,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SweepSource) Session() *Session {
	return s.session
}

func (s *SweepSource) Name() string {
	return fmt.Sprintf("%s#%d", s.dbPath, s.session.ID)
}

func (s *SweepSource) Open(ctx context.Context) (spectrum.RecordReader, error) {
	from, to := int64(math.MinInt64), int64(math.MaxInt64)
	if s.startTime != nil {
		from = s.startTime.Unix()
	}
	if s.endTime != nil {
		to = s.endTime.Unix()
	}

	rows, err := s.db.QueryContext(ctx, selectSweepsSQL, s.session.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying sweeps: %w", err)
	}

	return &sweepReader{rows: rows, location: s.location}, nil
}

type sweepReader struct {
	rows     *sql.Rows
	location *time.Location

	current *spectrum.SweepRecord
	err     error
}

func (r *sweepReader) Next(ctx context.Context) bool {
	if r.err != nil {
		return false
	}

	select {
	case <-ctx.Done():
		r.err = ctx.Err()
		return false
	default:
	}

	if !r.rows.Next() {
		r.err = r.rows.Err()
		r.current = nil
		return false
	}

	var (
		record    spectrum.SweepRecord
		timestamp int64
		blob      []byte
	)
	if err := r.rows.Scan(
		&record.TimeKey,
		&timestamp,
		&record.RangeLow,
		&record.RangeHigh,
		&record.Step,
		&record.NumSamples,
		&blob,
	); err != nil {
		r.err = fmt.Errorf("scanning sweep: %w", err)
		r.current = nil
		return false
	}

	samples, err := decodeSamples(blob)
	if err != nil {
		r.err = fmt.Errorf("sweep %s: %w", record.TimeKey, err)
		r.current = nil
		return false
	}
	record.Samples = samples
	record.Timestamp = fromUnix(timestamp, r.location)

	r.current = &record
	return true
}

func (r *sweepReader) Current() *spectrum.SweepRecord {
	return r.current
}

func (r *sweepReader) Error() error {
	return r.err
}

func (r *sweepReader) Close() error {
	return r.rows.Close()
}
