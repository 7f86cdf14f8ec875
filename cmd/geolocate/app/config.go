package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/sar-geolocator/internal/detection"
	"github.com/roman-kulish/sar-geolocator/internal/locator"
	"github.com/roman-kulish/sar-geolocator/internal/telemetry"
)

// Environment variables overriding the configuration file
const (
	EnvExifTool    = "GEOLOCATE_EXIFTOOL"
	EnvDetectorURL = "GEOLOCATE_DETECTOR_URL"
	EnvDataDir     = "GEOLOCATE_DATA_DIR"
)

const (
	defaultWorkers  = 4
	defaultExifTool = "exiftool"
	defaultDataDir  = "data"
	defaultGeoJSON  = "output_map.geojson"
)

// Duration is a time.Duration read from strings such as "10s"
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("app.Duration: failed to parse: %s", err)
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Config represents the main application configuration
type Config struct {
	Settings   Settings              `yaml:"settings"`
	Camera     locator.CameraProfile `yaml:"camera"`
	GeoLocator GeoLocatorConfig      `yaml:"geolocator"`
	Metadata   MetadataConfig        `yaml:"metadata"`
	Detector   DetectorConfig        `yaml:"detector"`
	Storage    StorageConfig         `yaml:"storage"`
	Output     OutputConfig          `yaml:"output"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"log_level"`
	Workers  int    `yaml:"workers"`
}

// GeoLocatorConfig represents detection filtering settings
type GeoLocatorConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// MetadataConfig represents the exiftool provider settings
type MetadataConfig struct {
	ExifTool string   `yaml:"exiftool"`
	Timeout  Duration `yaml:"timeout"`
	Retries  uint8    `yaml:"retries"`
}

// DetectorConfig represents the inference service settings
type DetectorConfig struct {
	URL       string   `yaml:"url"`
	InputSize int      `yaml:"input_size"`
	Timeout   Duration `yaml:"timeout"`
	Classes   []string `yaml:"classes"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"data_directory"`
}

// OutputConfig represents visualisation outputs. Empty paths disable them.
type OutputConfig struct {
	GeoJSON     string `yaml:"geojson"`
	AnnotateDir string `yaml:"annotate_dir"`
}

// NewConfig returns a configuration populated with defaults
func NewConfig() *Config {
	return &Config{
		Settings: Settings{
			LogLevel: "info",
			Workers:  defaultWorkers,
		},
		GeoLocator: GeoLocatorConfig{
			ConfidenceThreshold: 0.5,
		},
		Metadata: MetadataConfig{
			ExifTool: defaultExifTool,
			Timeout:  Duration(telemetry.DefaultTimeout),
			Retries:  telemetry.DefaultRetries,
		},
		Detector: DetectorConfig{
			InputSize: detection.DefaultInputSize,
			Timeout:   Duration(detection.DefaultTimeout),
		},
		Storage: StorageConfig{
			DataDirectory: defaultDataDir,
		},
		Output: OutputConfig{
			GeoJSON: defaultGeoJSON,
		},
	}
}

// LoadConfig reads the YAML configuration at path, applies environment
// overrides and validates the result
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	c := NewConfig()
	if err = yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	c.applyEnv(os.LookupEnv)

	if err = c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		env string
		dst *string
	}{
		{EnvExifTool, &c.Metadata.ExifTool},
		{EnvDetectorURL, &c.Detector.URL},
		{EnvDataDir, &c.Storage.DataDirectory},
	}
	for _, o := range overrides {
		if v, ok := lookup(o.env); ok && strings.TrimSpace(v) != "" {
			*o.dst = strings.TrimSpace(v)
		}
	}
}

// Validate checks the configuration sections
func (c *Config) Validate() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
		return fmt.Errorf("app.Config: invalid log_level: %s", c.Settings.LogLevel)
	}
	if c.Settings.Workers < 1 {
		return fmt.Errorf("app.Config: workers must be at least 1: %d", c.Settings.Workers)
	}

	if err := c.Camera.Validate(); err != nil {
		return fmt.Errorf("app.Config: camera: %w", err)
	}

	steps := []struct {
		msg string
		fn  func() error
	}{
		{"geolocator", c.GeoLocator.Validate},
		{"metadata", c.Metadata.Validate},
		{"detector", c.Detector.Validate},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fmt.Errorf("app.Config: %s: %w", s.msg, err)
		}
	}

	return nil
}

func (c GeoLocatorConfig) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be within [0, 1]: %g", c.ConfidenceThreshold)
	}
	return nil
}

func (c MetadataConfig) Validate() error {
	if c.ExifTool == "" {
		return errors.New("exiftool path is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %s", c.Timeout)
	}
	return nil
}

func (c DetectorConfig) Validate() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	if c.InputSize <= 0 {
		return fmt.Errorf("input_size must be positive: %d", c.InputSize)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %s", c.Timeout)
	}
	return nil
}

// LocatorConfig returns the immutable GeoLocator configuration
func (c *Config) LocatorConfig() locator.Config {
	return locator.Config{
		Camera:              c.Camera,
		ConfidenceThreshold: c.GeoLocator.ConfidenceThreshold,
	}
}
