package app

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testViper() *viper.Viper {
	v := viper.New()
	bindFlags(&cobra.Command{}, v)
	return v
}

func TestNewConfig_Defaults(t *testing.T) {
	config, err := NewConfig(testViper(), "scan.csv", "/tmp/scan.png")
	require.NoError(t, err)

	assert.Equal(t, "scan.csv", config.InputPath)
	assert.Equal(t, ImagePNG, config.Format)
	assert.Equal(t, LinearTheme, config.Theme)
	assert.Equal(t, time.Local, config.Location)
	assert.Equal(t, DefaultFontSize, config.FontSize)
	assert.Equal(t, DefaultJPEGQuality, config.JPEGQuality)
	assert.Equal(t, "info", config.LogLevel)
	assert.Zero(t, config.SessionID)
	assert.Nil(t, config.StartTime)
	assert.False(t, config.S3.Enabled())
	assert.Equal(t, "scan.png", config.S3Key)
	assert.False(t, config.IsDatabase())
}

func TestNewConfig_Overrides(t *testing.T) {
	v := testViper()
	v.Set("theme", "HUE")
	v.Set("location", "UTC")
	v.Set("start", "2024-01-01 10:00:00")
	v.Set("session", 3)
	v.Set("s3.bucket", "heatmaps")
	v.Set("s3.key", "daily/scan.jpg")

	config, err := NewConfig(v, "sweeps.db", "scan.jpg")
	require.NoError(t, err)

	assert.Equal(t, HueTheme, config.Theme)
	assert.Equal(t, ImageJPEG, config.Format)
	assert.Equal(t, time.UTC, config.Location)
	require.NotNil(t, config.StartTime)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), *config.StartTime)
	assert.Equal(t, int64(3), config.SessionID)
	assert.True(t, config.S3.Enabled())
	assert.Equal(t, "daily/scan.jpg", config.S3Key)
	assert.True(t, config.IsDatabase())
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("HEATMAP_THEME", "hue")
	t.Setenv("HEATMAP_S3_BUCKET", "from-env")
	t.Setenv("HEATMAP_NO_ANNOTATIONS", "true")

	config, err := NewConfig(testViper(), "scan.csv", "scan.png")
	require.NoError(t, err)

	assert.Equal(t, HueTheme, config.Theme)
	assert.Equal(t, "from-env", config.S3.Bucket)
	assert.True(t, config.NoAnnotations)
}

func TestNewConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heatmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: hue\nfont-size: 12\ns3:\n  bucket: from-file\n  endpoint: localhost:9000\n"), 0o644))

	v := testViper()
	v.Set("config", path)

	config, err := NewConfig(v, "scan.csv", "scan.png")
	require.NoError(t, err)

	assert.Equal(t, HueTheme, config.Theme)
	assert.Equal(t, 12.0, config.FontSize)
	assert.Equal(t, "from-file", config.S3.Bucket)
	assert.Equal(t, "localhost:9000", config.S3.Endpoint)
}

func TestNewConfig_Invalid(t *testing.T) {
	testCases := []struct {
		name   string
		key    string
		value  any
		output string
		want   string
	}{
		{"format", "", nil, "scan.webp", "unsupported image format"},
		{"theme", "theme", "thermal", "scan.png", "invalid color theme: thermal"},
		{"location", "location", "Mars/Olympus", "scan.png", "invalid location: Mars/Olympus"},
		{"font size", "font-size", -1, "scan.png", "invalid font size: -1"},
		{"jpeg quality", "jpeg-quality", 101, "scan.jpg", "invalid jpeg quality: 101"},
		{"session", "session", -2, "scan.png", "invalid session id: -2"},
		{"start", "start", "yesterday", "scan.png", "invalid start time"},
		{"config file", "config", "/nonexistent/heatmap.yaml", "scan.png", "reading config"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := testViper()
			if tc.key != "" {
				v.Set(tc.key, tc.value)
			}
			_, err := NewConfig(v, "scan.csv", tc.output)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNewCommand_RequiresTwoArgs(t *testing.T) {
	cmd := NewCommand()
	cmd.SetArgs([]string{"scan.csv"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	assert.Error(t, cmd.Execute())
}
