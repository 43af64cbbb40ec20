package app

import (
	"context"
	"fmt"
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
	return Run(ctx, config, logger)
}

// Run renders the heatmap of config.InputPath into config.OutputFile in two
// passes over the input, then optionally writes a summary and uploads the
// image.
func Run(ctx context.Context, config *Config, logger zerolog.Logger) error {
	if _, err := os.Stat(config.InputPath); err != nil {
		return fmt.Errorf("input file '%s': %w", config.InputPath, err)
	}

	src, closeSource, err := openSource(ctx, config)
	if err != nil {
		return err
	}
	defer closeSource()

	logger.Info().Str("source", src.Name()).Msg("loading")

	axes, err := BuildAxes(ctx, src)
	if err != nil {
		return err
	}

	logger.Info().
		Int("x", axes.Width()).
		Int("y", axes.Height()).
		Float64("min_z", axes.Power.Min).
		Float64("max_z", axes.Power.Max).
		Str("records", humanize.Comma(int64(axes.Records))).
		Str("start", axes.Start.Format(spectrum.TimestampLayout)).
		Str("stop", axes.Stop.Format(spectrum.TimestampLayout)).
		Msgf("x: %d, y: %d, z: (%f, %f)", axes.Width(), axes.Height(), axes.Power.Min, axes.Power.Max)

	colorFn, err := NewColorFunc(config.Theme, axes.Power)
	if err != nil {
		return err
	}

	logger.Info().Str("theme", string(config.Theme)).Msg("drawing")

	img, stats, err := DrawRaster(ctx, src, axes, colorFn)
	if err != nil {
		return fmt.Errorf("drawing heatmap: %w", err)
	}

	event := logger.Debug()
	if stats.Skipped() {
		// the input grew or shifted between the passes
		event = logger.Warn()
	}
	event.
		Int("records", stats.Records).
		Int("unknown_time", stats.UnknownTime).
		Int("unmatched_range", stats.UnmatchedRange).
		Int("clipped_samples", stats.ClippedSamples).
		Msg("raster drawn")

	if !config.NoAnnotations {
		logger.Info().Int("labels", len(axes.Labels)).Msg("labeling")

		annotator, err := NewAnnotator(config.FontSize)
		if err != nil {
			return fmt.Errorf("creating annotator: %w", err)
		}
		if err = annotator.Annotate(img, axes); err != nil {
			return fmt.Errorf("annotating heatmap: %w", err)
		}
	}

	logger.Info().
		Str("destination", config.OutputFile).
		Str("format", string(config.Format)).
		Msg("saving")

	if err = saveImage(config.OutputFile, img, config.Format, config.JPEGQuality); err != nil {
		return fmt.Errorf("saving %s: %w", config.OutputFile, err)
	}

	if config.SummaryFile != "" {
		summary := NewSummary(src.Name(), config.OutputFile, config.Theme, axes, stats)
		if err = writeSummary(config.SummaryFile, summary); err != nil {
			return fmt.Errorf("writing summary %s: %w", config.SummaryFile, err)
		}
		logger.Debug().Str("summary", config.SummaryFile).Msg("summary written")
	}

	if config.S3.Enabled() {
		if err = publish(ctx, config, logger); err != nil {
			return err
		}
	}

	return nil
}

func openSource(ctx context.Context, config *Config) (spectrum.Source, func(), error) {
	if !config.IsDatabase() {
		src := spectrum.NewFileSource(config.InputPath, spectrum.WithLocation(config.Location))
		return src, func() {}, nil
	}

	store := storage.NewSqliteStore(config.InputPath)

	opts := []storage.ReaderOption{storage.WithLocation(config.Location)}
	if config.StartTime != nil {
		opts = append(opts, storage.WithStartTime(*config.StartTime))
	}
	if config.EndTime != nil {
		opts = append(opts, storage.WithEndTime(*config.EndTime))
	}

	src, err := store.SweepSource(ctx, config.SessionID, opts...)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("opening session: %w", err)
	}

	return src, func() { _ = store.Close() }, nil
}

func publish(ctx context.Context, config *Config, logger zerolog.Logger) (err error) {
	publisher, err := storage.NewS3Publisher(ctx, config.S3)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}

	f, err := os.Open(config.OutputFile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	logger.Info().
		Str("bucket", config.S3.Bucket).
		Str("key", config.S3Key).
		Str("size", humanize.Bytes(uint64(info.Size()))).
		Msg("uploading")

	location, err := publisher.Upload(ctx, config.S3Key, config.Format.ContentType(), f)
	if err != nil {
		return err
	}

	logger.Info().Str("location", location).Msg("uploaded")
	return nil
}
