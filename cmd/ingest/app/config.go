package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix = "HEATMAP"

	// StdinInput reads the sweep log from standard input, e.g. piped from
	// rtl_power.
	StdinInput = "-"
)

type Config struct {
	InputPath      string
	DBPath         string
	Label          string
	BatchSize      int
	Location       *time.Location
	MaxParseErrors int

	LogLevel string
	LogJSON  bool
}

// NewCommand builds the ingest command line. Flags can also be set in the file
// named by --config or through HEATMAP_ prefixed environment variables.
func NewCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "ingest <input|-> <database>",
		Short: "Store an rtl_power sweep log as a new session of a SQLite database",
		Long: `Reads the CSV log of rtl_power (plain, .gz or "-" for standard input) and
stores every sweep record as a new session of a SQLite database, which the
heatmap command renders like a CSV log.`,
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
	flags.String("label", "", "Session label, the input file name if empty")
	flags.Int("batch-size", defaultBatchSize, "Number of sweep records stored per transaction")
	flags.String("location", "Local", "Time zone of the logged timestamps, e.g. UTC or Europe/Berlin")
	flags.Int("max-parse-errors", 0, "Skip malformed lines until this many occur in a row, 0 stops at the first one")
	flags.String("log-level", "info", "Log level [debug, info, warn, error]")
	flags.Bool("log-json", false, "Log as JSON instead of console text")

	_ = v.BindPFlags(flags)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

func NewConfig(v *viper.Viper, input, dbPath string) (*Config, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	c := &Config{
		InputPath:      input,
		DBPath:         dbPath,
		Label:          v.GetString("label"),
		BatchSize:      v.GetInt("batch-size"),
		MaxParseErrors: v.GetInt("max-parse-errors"),
		LogLevel:       v.GetString("log-level"),
		LogJSON:        v.GetBool("log-json"),
	}

	switch {
	case c.InputPath == "":
		return nil, errors.New("input path is required")
	case c.DBPath == "":
		return nil, errors.New("database path is required")
	case c.BatchSize <= 0:
		return nil, fmt.Errorf("invalid batch size: %d", c.BatchSize)
	case c.MaxParseErrors < 0:
		return nil, fmt.Errorf("invalid max parse errors: %d", c.MaxParseErrors)
	}

	location := v.GetString("location")
	if location == "" || strings.EqualFold(location, "local") {
		c.Location = time.Local
	} else {
		loc, err := time.LoadLocation(location)
		if err != nil {
			return nil, fmt.Errorf("invalid location: %s", location)
		}
		c.Location = loc
	}

	if c.Label == "" {
		if c.InputPath == StdinInput {
			c.Label = "stdin " + time.Now().Format(time.DateTime)
		} else {
			c.Label = filepath.Base(c.InputPath)
		}
	}

	return c, nil
}
