package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roman-kulish/sweep-heatmap/internal/spectrum"
)

const defaultBatchSize = 100

// SweepStore is where an Ingester writes records.
type SweepStore interface {
	CreateSession(ctx context.Context, label string) (int64, error)
	StoreSweeps(ctx context.Context, sessionID int64, records []*spectrum.SweepRecord) error
}

// WithBatchSize sets the number of records stored within a single database
// transaction.
func WithBatchSize(size int) func(*Ingester) {
	return func(i *Ingester) {
		if size > 0 {
			i.batchSize = size
		}
	}
}

func WithLogger(logger zerolog.Logger) func(*Ingester) {
	return func(i *Ingester) {
		i.logger = logger
	}
}

// IngestStats describes one finished ingest.
type IngestStats struct {
	SessionID int64
	Records   int
	Samples   int
	Batches   int
}

// Ingester copies every record of a source into a new session of a store.
type Ingester struct {
	store     SweepStore
	logger    zerolog.Logger
	batchSize int
}

func NewIngester(store SweepStore, options ...func(*Ingester)) *Ingester {
	i := Ingester{
		store:     store,
		logger:    zerolog.Nop(),
		batchSize: defaultBatchSize,
	}

	for _, option := range options {
		option(&i)
	}

	return &i
}

// Ingest reads src once. Records already stored stay in place when the pass
// fails half way.
func (i *Ingester) Ingest(ctx context.Context, src spectrum.Source, label string) (stats IngestStats, err error) {
	if stats.SessionID, err = i.store.CreateSession(ctx, label); err != nil {
		return stats, fmt.Errorf("creating session: %w", err)
	}

	logger := i.logger.With().Int64("session", stats.SessionID).Logger()
	logger.Info().Str("source", src.Name()).Str("label", label).Msg("ingesting")

	reader, err := src.Open(ctx)
	if err != nil {
		return stats, err
	}
	defer reader.Close()

	batch := make([]*spectrum.SweepRecord, 0, i.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := i.store.StoreSweeps(ctx, stats.SessionID, batch); err != nil {
			return fmt.Errorf("storing sweeps: %w", err)
		}
		stats.Batches++
		logger.Debug().Int("records", stats.Records).Msg("batch stored")

		batch = batch[:0]
		return nil
	}

	for reader.Next(ctx) {
		record := reader.Current()
		batch = append(batch, record)
		stats.Records++
		stats.Samples += len(record.Samples)

		if len(batch) == i.batchSize {
			if err = flush(); err != nil {
				return stats, err
			}
		}
	}
	if err = reader.Error(); err != nil {
		return stats, fmt.Errorf("reading %s: %w", src.Name(), err)
	}

	if err = flush(); err != nil {
		return stats, err
	}
	return stats, nil
}
