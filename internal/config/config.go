package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Step names understood by the repair pipeline.
const (
	StepFillHoles    = "fill_holes"
	StepSizeFilter   = "size_filter"
	StepRemoveBorder = "remove_border"
	StepBorderRepair = "border_repair"
	StepElongate     = "elongate"
)

var knownSteps = map[string]bool{
	StepFillHoles:    true,
	StepSizeFilter:   true,
	StepRemoveBorder: true,
	StepBorderRepair: true,
	StepElongate:     true,
}

type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Filter     FilterConfig     `yaml:"filter"`
	Border     BorderConfig     `yaml:"border"`
	Elongate   ElongateConfig   `yaml:"elongate"`
	Background BackgroundConfig `yaml:"background"`
	Histogram  HistogramConfig  `yaml:"histogram"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
}

// FilterConfig bounds region bounding-box areas. MaxSize 0 means half the image.
type FilterConfig struct {
	MinSize int `yaml:"min_size"`
	MaxSize int `yaml:"max_size"`
}

type BorderConfig struct {
	// DropAmbiguous removes regions whose clipped side cannot be determined
	// instead of keeping them unrepaired.
	DropAmbiguous bool `yaml:"drop_ambiguous"`
	Workers       int  `yaml:"workers"`
}

// ElongateConfig sets the cap length. Values in (0, 1] with Fraction set scale
// with the region's long side.
type ElongateConfig struct {
	Length   float64 `yaml:"length"`
	Fraction bool    `yaml:"fraction"`
}

type BackgroundConfig struct {
	Segments        int     `yaml:"segments"`
	Compactness     float64 `yaml:"compactness"`
	Sigma           float64 `yaml:"sigma"`
	ErodeKernel     int     `yaml:"erode_kernel"`
	ErodeIterations int     `yaml:"erode_iterations"`
	MinSize         int     `yaml:"min_size"`
	MaxSize         int     `yaml:"max_size"`
	RemoveBorder    bool    `yaml:"remove_border"`
}

type HistogramConfig struct {
	Bins            int     `yaml:"bins"`
	MinPeakFraction float64 `yaml:"min_peak_fraction"`
	InitialWidth    float64 `yaml:"initial_width"`
}

type PipelineConfig struct {
	Steps         []string `yaml:"steps"`
	Workers       int      `yaml:"workers"`
	MemoryLimitMB int      `yaml:"memory_limit_mb"`
	OutputSuffix  string   `yaml:"output_suffix"`
	OutputFormat  string   `yaml:"output_format"`
}

func Default() *Config {
	workers := runtime.NumCPU()

	return &Config{
		LogLevel: "info",
		Filter: FilterConfig{
			MinSize: 1024,
		},
		Border: BorderConfig{
			Workers: workers,
		},
		Elongate: ElongateConfig{
			Length:   0.1,
			Fraction: true,
		},
		Background: BackgroundConfig{
			Segments:        200,
			Compactness:     100,
			Sigma:           1,
			ErodeKernel:     3,
			ErodeIterations: 3,
			MinSize:         64 * 64,
			MaxSize:         1000 * 1000,
			RemoveBorder:    true,
		},
		Histogram: HistogramConfig{
			Bins:            256,
			MinPeakFraction: 0.01,
			InitialWidth:    10,
		},
		Pipeline: PipelineConfig{
			Steps:         []string{StepFillHoles, StepSizeFilter, StepBorderRepair},
			Workers:       workers,
			MemoryLimitMB: 512,
			OutputSuffix:  "_repaired",
			OutputFormat:  "png",
		},
	}
}

// LoadFromFile reads YAML over the defaults, so omitted keys keep their
// default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from the environment. LOG_LEVEL is honoured.
func (c *Config) ApplyEnv() {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

func (c *Config) Validate() error {
	if c.Filter.MinSize < 0 {
		return fmt.Errorf("filter.min_size must not be negative")
	}

	if c.Filter.MaxSize != 0 && c.Filter.MaxSize < c.Filter.MinSize {
		return fmt.Errorf("filter.max_size must be 0 or at least filter.min_size")
	}

	if c.Border.Workers < 1 {
		return fmt.Errorf("border.workers must be positive")
	}

	if c.Background.Segments < 1 {
		return fmt.Errorf("background.segments must be positive")
	}

	if c.Background.ErodeKernel < 1 || c.Background.ErodeKernel%2 == 0 {
		return fmt.Errorf("background.erode_kernel must be a positive odd number")
	}

	if c.Background.ErodeIterations < 0 {
		return fmt.Errorf("background.erode_iterations must not be negative")
	}

	if c.Background.MaxSize != 0 && c.Background.MaxSize < c.Background.MinSize {
		return fmt.Errorf("background.max_size must be 0 or at least background.min_size")
	}

	if c.Histogram.Bins < 2 || c.Histogram.Bins > 256 {
		return fmt.Errorf("histogram.bins must be between 2 and 256")
	}

	if c.Histogram.MinPeakFraction < 0 || c.Histogram.MinPeakFraction > 1 {
		return fmt.Errorf("histogram.min_peak_fraction must be between 0 and 1")
	}

	if c.Histogram.InitialWidth <= 0 {
		return fmt.Errorf("histogram.initial_width must be positive")
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be positive")
	}

	if c.Pipeline.MemoryLimitMB < 1 {
		return fmt.Errorf("pipeline.memory_limit_mb must be positive")
	}

	for _, step := range c.Pipeline.Steps {
		if !knownSteps[step] {
			return fmt.Errorf("pipeline.steps: unknown step %q", step)
		}
	}

	switch c.Pipeline.OutputFormat {
	case "png", "tiff", "bmp", "jpg", "jpeg":
	default:
		return fmt.Errorf("pipeline.output_format %q is not supported", c.Pipeline.OutputFormat)
	}

	return nil
}

// MemoryLimitBytes converts the pipeline memory budget to bytes.
func (c *Config) MemoryLimitBytes() int64 {
	return int64(c.Pipeline.MemoryLimitMB) * 1024 * 1024
}
