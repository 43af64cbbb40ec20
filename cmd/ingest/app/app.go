package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/roman-kulish/sweep-heatmap/internal/logging"
	"github.com/roman-kulish/sweep-heatmap/internal/spectrum"
	"github.com/roman-kulish/sweep-heatmap/internal/storage"
)

func runCommand(ctx context.Context, config *Config) error {
	logger, err := logging.New(config.LogLevel, config.LogJSON)
	if err != nil {
		return err
	}
	return Run(ctx, config, os.Stdin, logger)
}

// Run stores the records of config.InputPath, or of stdin for "-", as a new
// session of the database at config.DBPath.
func Run(ctx context.Context, config *Config, stdin io.Reader, logger zerolog.Logger) error {
	opts := []spectrum.SourceOption{spectrum.WithLocation(config.Location)}
	if config.MaxParseErrors > 0 {
		opts = append(opts, spectrum.WithParseErrorsThreshold(config.MaxParseErrors, func(err *spectrum.ParseError) {
			logger.Warn().Int("line", err.Line).Err(err.Err).Msg("skipping malformed line")
		}))
	}

	var src spectrum.Source
	if config.InputPath == StdinInput {
		src = spectrum.NewReaderSource("stdin", func() (io.ReadCloser, error) {
			return io.NopCloser(stdin), nil
		}, opts...)
	} else {
		if _, err := os.Stat(config.InputPath); err != nil {
			return fmt.Errorf("input file '%s': %w", config.InputPath, err)
		}
		src = spectrum.NewFileSource(config.InputPath, opts...)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	ingester := NewIngester(store, WithBatchSize(config.BatchSize), WithLogger(logger))

	stats, err := ingester.Ingest(ctx, src, config.Label)
	if err != nil {
		return err
	}

	logger.Info().
		Int64("session", stats.SessionID).
		Str("records", humanize.Comma(int64(stats.Records))).
		Str("samples", humanize.Comma(int64(stats.Samples))).
		Int("batches", stats.Batches).
		Str("database", config.DBPath).
		Msg("ingest finished")

	return nil
}
