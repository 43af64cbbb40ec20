package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roman-kulish/sweep-heatmap/internal/storage"
)

const envPrefix = "HEATMAP"

type Config struct {
	InputPath     string
	OutputFile    string
	Format        ImageFormat
	Theme         ColorTheme
	Location      *time.Location
	FontSize      float64
	NoAnnotations bool
	SummaryFile   string
	JPEGQuality   int

	// SQLite input only
	SessionID int64
	StartTime *time.Time
	EndTime   *time.Time

	LogLevel string
	LogJSON  bool

	S3    storage.S3Config
	S3Key string
}

// NewCommand builds the heatmap command line. Every flag can also be set in the
// file named by --config or through a HEATMAP_ prefixed environment variable,
// e.g. HEATMAP_S3_BUCKET.
func NewCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "heatmap <input> <output>",
		Short: "Render an rtl_power sweep log as a waterfall heatmap",
		Long: `Renders the CSV log of rtl_power (plain or .gz) or a session of an ingested
SQLite database (.db, .sqlite) as an image with one row per sweep and one
column per frequency bin. The output format follows the file extension:
png, jpg, gif, bmp or tiff.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := NewConfig(v, args[0], args[1])
			if err != nil {
				return err
			}
			return runCommand(cmd.Context(), config)
		},
	}
	bindFlags(cmd, v)

	return cmd
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.Flags()
	flags.String("config", "", "Path to a yaml configuration file")
	flags.String("theme", string(LinearTheme), "Color theme [linear, hue]")
	flags.String("location", "Local", "Time zone of the logged timestamps, e.g. UTC or Europe/Berlin")
	flags.Float64("font-size", DefaultFontSize, "Font size of labels and legend in points")
	flags.Bool("no-annotations", false, "Skip frequency labels and legend")
	flags.String("summary", "", "Write a yaml summary of the rendered heatmap to this file")
	flags.Int("jpeg-quality", DefaultJPEGQuality, "JPEG quality [1-100]")
	flags.Int64("session", 0, "Session ID to render from a SQLite input, 0 for the latest")
	flags.String("start", "", "Skip sweeps logged before this time (SQLite input, YYYY-MM-DD HH:MM:SS)")
	flags.String("end", "", "Skip sweeps logged after this time (SQLite input, YYYY-MM-DD HH:MM:SS)")
	flags.String("log-level", "info", "Log level [debug, info, warn, error]")
	flags.Bool("log-json", false, "Log as JSON instead of console text")
	flags.String("s3-bucket", "", "Upload the image to this bucket")
	flags.String("s3-endpoint", "", "S3 compatible endpoint, e.g. localhost:9000 for MinIO")
	flags.String("s3-region", "", "S3 region")
	flags.String("s3-access-key", "", "S3 access key, the default AWS credential chain is used if empty")
	flags.String("s3-secret-key", "", "S3 secret key")
	flags.String("s3-key", "", "Object key of the upload, the output file name if empty")

	_ = v.BindPFlags(flags)
	for _, name := range []string{"bucket", "endpoint", "region", "access-key", "secret-key", "key"} {
		_ = v.BindPFlag("s3."+name, flags.Lookup("s3-"+name))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

func NewConfig(v *viper.Viper, input, output string) (*Config, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	c := &Config{
		InputPath:     input,
		OutputFile:    output,
		Theme:         ColorTheme(strings.ToLower(v.GetString("theme"))),
		FontSize:      v.GetFloat64("font-size"),
		NoAnnotations: v.GetBool("no-annotations"),
		SummaryFile:   v.GetString("summary"),
		JPEGQuality:   v.GetInt("jpeg-quality"),
		SessionID:     v.GetInt64("session"),
		LogLevel:      v.GetString("log-level"),
		LogJSON:       v.GetBool("log-json"),
		S3: storage.S3Config{
			Bucket:    v.GetString("s3.bucket"),
			Endpoint:  v.GetString("s3.endpoint"),
			Region:    v.GetString("s3.region"),
			AccessKey: v.GetString("s3.access-key"),
			SecretKey: v.GetString("s3.secret-key"),
		},
		S3Key: v.GetString("s3.key"),
	}

	var err error
	if c.InputPath == "" {
		return nil, errors.New("input path is required")
	}
	if c.Format, err = FormatFromPath(c.OutputFile); err != nil {
		return nil, err
	}
	if _, ok := validColorThemes[c.Theme]; !ok {
		return nil, fmt.Errorf("invalid color theme: %s", c.Theme)
	}
	if c.Location, err = loadLocation(v.GetString("location")); err != nil {
		return nil, err
	}
	if c.FontSize <= 0 {
		return nil, fmt.Errorf("invalid font size: %g", c.FontSize)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return nil, fmt.Errorf("invalid jpeg quality: %d", c.JPEGQuality)
	}
	if c.SessionID < 0 {
		return nil, fmt.Errorf("invalid session id: %d", c.SessionID)
	}
	if c.StartTime, err = parseTime(v.GetString("start"), c.Location); err != nil {
		return nil, fmt.Errorf("invalid start time: %w", err)
	}
	if c.EndTime, err = parseTime(v.GetString("end"), c.Location); err != nil {
		return nil, fmt.Errorf("invalid end time: %w", err)
	}
	if c.S3Key == "" {
		c.S3Key = filepath.Base(c.OutputFile)
	}

	return c, nil
}

// IsDatabase reports whether the input is an ingested SQLite database rather
// than a CSV log.
func (c *Config) IsDatabase() bool {
	switch strings.ToLower(filepath.Ext(c.InputPath)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid location: %s", name)
	}
	return loc, nil
}

func parseTime(value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateTime, value, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
