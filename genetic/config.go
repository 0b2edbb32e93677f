package genetic

import (
	"errors"
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/baldhumanity/genetic-go/genetic/nn"
)

// Default hyper parameters.
const (
	DefaultNumPopulations     = 10
	DefaultCrossoverThreshold = 0.001
	DefaultMutation1Rate      = 0.85
	DefaultMutation2Rate      = 0.99
	DefaultNumNew             = 0
	DefaultIDSpace            = 10000
)

// DefaultMutation2Range is the default [low, high] offset magnitude for mutation-2.
var DefaultMutation2Range = []float64{0.1, 2.5}

// Config stores the parameters of a genetic training run. It is fixed once
// an Engine has been created from it.
type Config struct {
	LayerSizes         []int     `ini:"layer_sizes" delim:" "`
	NumPopulations     int       `ini:"num_populations"`     // individuals per generation
	CrossoverThreshold float64   `ini:"crossover_threshold"` // parents closer than this are averaged
	Mutation1Rate      float64   `ini:"mutation1_rate"`      // resample probability when parents agree
	Mutation2Rate      float64   `ini:"mutation2_rate"`      // offset probability when parents disagree
	Mutation2Range     []float64 `ini:"mutation2_range" delim:" "`
	NumNew             int       `ini:"num_new"`  // fresh random individuals per generation
	IDSpace            int       `ini:"id_space"` // individual ids are drawn from [0, IDSpace)
}

// DefaultConfig returns the default configuration for the given topology.
func DefaultConfig(layerSizes []int) *Config {
	return &Config{
		LayerSizes:         append([]int(nil), layerSizes...),
		NumPopulations:     DefaultNumPopulations,
		CrossoverThreshold: DefaultCrossoverThreshold,
		Mutation1Rate:      DefaultMutation1Rate,
		Mutation2Rate:      DefaultMutation2Rate,
		Mutation2Range:     append([]float64(nil), DefaultMutation2Range...),
		NumNew:             DefaultNumNew,
		IDSpace:            DefaultIDSpace,
	}
}

// loadOptions is shared by file and in-memory sources so both parse alike.
var loadOptions = ini.LoadOptions{
	IgnoreInlineComment:         true,
	UnescapeValueCommentSymbols: true,
}

// LoadConfig loads configuration parameters from the [Genetic] section of an
// INI file. Keys that are absent keep their default values.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(loadOptions, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}
	return parseConfig(cfg)
}

// ParseConfig is LoadConfig for in-memory INI data.
func ParseConfig(data []byte) (*Config, error) {
	cfg, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return parseConfig(cfg)
}

func parseConfig(cfg *ini.File) (*Config, error) {
	if !cfg.HasSection("Genetic") {
		return nil, fmt.Errorf("%w: missing [Genetic] section", ErrInvalidConfiguration)
	}

	config := DefaultConfig(nil)
	config.LayerSizes = nil
	if err := cfg.Section("Genetic").MapTo(config); err != nil {
		return nil, fmt.Errorf("failed to map [Genetic] section: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks every parameter constraint. All failures wrap
// ErrInvalidConfiguration.
func (c *Config) Validate() error {
	if err := nn.ValidateSizes(c.LayerSizes); err != nil {
		return fmt.Errorf("%w: layer_sizes: %w", ErrInvalidConfiguration, err)
	}
	if c.NumPopulations < 3 {
		return fmt.Errorf("%w: num_populations must be at least 3, got %d", ErrInvalidConfiguration, c.NumPopulations)
	}
	if c.CrossoverThreshold < 0 {
		return fmt.Errorf("%w: crossover_threshold cannot be negative", ErrInvalidConfiguration)
	}
	if c.Mutation1Rate < 0 || c.Mutation1Rate > 1 {
		return fmt.Errorf("%w: mutation1_rate must be between 0 and 1", ErrInvalidConfiguration)
	}
	if c.Mutation2Rate < 0 || c.Mutation2Rate > 1 {
		return fmt.Errorf("%w: mutation2_rate must be between 0 and 1", ErrInvalidConfiguration)
	}
	if len(c.Mutation2Range) != 2 {
		return fmt.Errorf("%w: mutation2_range needs exactly 2 values, got %d", ErrInvalidConfiguration, len(c.Mutation2Range))
	}
	if c.Mutation2Range[0] < 0 {
		return fmt.Errorf("%w: mutation2_range bounds are magnitudes and cannot be negative", ErrInvalidConfiguration)
	}
	if c.Mutation2Range[0] > c.Mutation2Range[1] {
		return fmt.Errorf("%w: mutation2_range low (%g) exceeds high (%g)", ErrInvalidConfiguration, c.Mutation2Range[0], c.Mutation2Range[1])
	}
	if c.NumNew < 0 || c.NumNew >= c.NumPopulations-3 {
		return fmt.Errorf("%w: num_new must satisfy 0 <= num_new < num_populations-3, got %d", ErrInvalidConfiguration, c.NumNew)
	}
	if c.IDSpace < 2*c.NumPopulations {
		return fmt.Errorf("%w: id_space must be at least 2*num_populations (%d), got %d", ErrInvalidConfiguration, 2*c.NumPopulations, c.IDSpace)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	cp.LayerSizes = append([]int(nil), c.LayerSizes...)
	cp.Mutation2Range = append([]float64(nil), c.Mutation2Range...)
	return &cp
}

// Sentinel errors of the genetic package.
var (
	// ErrInvalidConfiguration wraps every constructor parameter violation.
	ErrInvalidConfiguration = errors.New("config error")
	// ErrEmptyPopulation is returned for statistics over zero individuals.
	ErrEmptyPopulation = errors.New("empty population")
	// ErrIDSpaceExhausted is returned when no free identifier remains.
	ErrIDSpaceExhausted = errors.New("id space exhausted")
	// ErrInvalidScore is returned when a ScoringFunc reports NaN.
	ErrInvalidScore = errors.New("invalid score")
)
