package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/sweep-heatmap/internal/storage"
)

func testViper() *viper.Viper {
	v := viper.New()
	bindFlags(&cobra.Command{}, v)
	return v
}

func TestRun_File(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	input := filepath.Join(dir, "airband.csv")
	require.NoError(t, os.WriteFile(input, []byte(sweepLines(5)), 0o644))
	dbPath := filepath.Join(dir, "sweeps.db")

	v := testViper()
	v.Set("location", "UTC")
	v.Set("batch-size", 2)
	config, err := NewConfig(v, input, dbPath)
	require.NoError(t, err)
	require.NoError(t, Run(ctx, config, nil, zerolog.Nop()))

	// A second run appends a second session.
	require.NoError(t, Run(ctx, config, nil, zerolog.Nop()))

	store := storage.NewSqliteStore(dbPath)
	defer store.Close()

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "airband.csv", sessions[0].Label)

	count, err := store.CountSweeps(ctx, sessions[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestRun_Stdin(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "sweeps.db")

	v := testViper()
	v.Set("label", "live")
	v.Set("max-parse-errors", 2)
	config, err := NewConfig(v, StdinInput, dbPath)
	require.NoError(t, err)

	// a truncated last line, as left by an interrupted capture
	stdin := strings.NewReader(sweepLines(3) + "2024-01-01, 00:00:03, 100000")
	require.NoError(t, Run(ctx, config, stdin, zerolog.Nop()))

	store := storage.NewSqliteStore(dbPath)
	defer store.Close()

	session, err := store.LatestSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "live", session.Label)

	count, err := store.CountSweeps(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRun_MissingInput(t *testing.T) {
	dir := t.TempDir()
	config, err := NewConfig(testViper(), filepath.Join(dir, "missing.csv"), filepath.Join(dir, "sweeps.db"))
	require.NoError(t, err)

	assert.ErrorIs(t, Run(context.Background(), config, nil, zerolog.Nop()), os.ErrNotExist)
	assert.NoFileExists(t, filepath.Join(dir, "sweeps.db"))
}

func TestNewConfig(t *testing.T) {
	config, err := NewConfig(testViper(), "/data/airband.csv.gz", "sweeps.db")
	require.NoError(t, err)
	assert.Equal(t, "airband.csv.gz", config.Label)
	assert.Equal(t, defaultBatchSize, config.BatchSize)
	assert.Zero(t, config.MaxParseErrors)

	config, err = NewConfig(testViper(), StdinInput, "sweeps.db")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(config.Label, "stdin "))

	for key, value := range map[string]any{
		"batch-size":       0,
		"max-parse-errors": -1,
		"location":         "Nowhere/Special",
	} {
		v := testViper()
		v.Set(key, value)
		_, err := NewConfig(v, "a.csv", "sweeps.db")
		assert.Error(t, err, key)
	}

	_, err = NewConfig(testViper(), "a.csv", "")
	assert.Error(t, err)
}
