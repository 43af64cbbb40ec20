package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Summary is the machine readable description of a rendered heatmap, written
// next to the image on request.
type Summary struct {
	Source       string    `yaml:"source"`
	Image        string    `yaml:"image"`
	Width        int       `yaml:"width"`
	Height       int       `yaml:"height"`
	FrequencyMin float64   `yaml:"frequency_min_hz"`
	FrequencyMax float64   `yaml:"frequency_max_hz"`
	Step         float64   `yaml:"step_hz"`
	PowerMin     float64   `yaml:"power_min_dbm"`
	PowerMax     float64   `yaml:"power_max_dbm"`
	Start        time.Time `yaml:"start"`
	Stop         time.Time `yaml:"stop"`
	Labels       []float64 `yaml:"labels_hz"`
	Theme        string    `yaml:"theme"`
	Draw         DrawStats `yaml:"draw"`
	Location     string    `yaml:"location,omitempty"`
}

func NewSummary(source, image string, theme ColorTheme, axes *Axes, stats DrawStats) Summary {
	return Summary{
		Source:       source,
		Image:        image,
		Width:        axes.Width(),
		Height:       axes.Height(),
		FrequencyMin: axes.MinFrequency(),
		FrequencyMax: axes.MaxFrequency(),
		Step:         axes.Step,
		PowerMin:     axes.Power.Min,
		PowerMax:     axes.Power.Max,
		Start:        axes.Start,
		Stop:         axes.Stop,
		Labels:       axes.Labels,
		Theme:        string(theme),
		Draw:         stats,
		Location:     axes.Start.Location().String(),
	}
}

func writeSummary(path string, summary Summary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
