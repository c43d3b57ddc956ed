package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/defistate/routematrix-go/chains"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxHops     = 3
	DefaultCompression = "none"
)

// validate is a singleton validator instance
var validate = validator.New()

// ChainConfig describes one chain to build a route matrix for.
type ChainConfig struct {
	Name        string `yaml:"name" validate:"required"`
	MarketsFile string `yaml:"markets_file" validate:"required"`
	// MaxHops overrides the top-level value when set.
	MaxHops int `yaml:"max_hops" validate:"omitempty,min=1,max=8"`
}

// BuilderConfig is the configuration of the routematrix command.
type BuilderConfig struct {
	OutputDir     string        `yaml:"output_dir"`
	MaxHops       int           `yaml:"max_hops" validate:"min=1,max=8"`
	IncludeCycles bool          `yaml:"include_cycles"`
	Compression   string        `yaml:"compression" validate:"oneof=none snappy"`
	MetricsAddr   string        `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
	Chains        []ChainConfig `yaml:"chains" validate:"required,min=1,dive"`
}

// HopsFor returns the effective hop limit of a chain.
func (c *BuilderConfig) HopsFor(chain ChainConfig) int {
	if chain.MaxHops > 0 {
		return chain.MaxHops
	}
	return c.MaxHops
}

// LoadConfig reads a configuration file from the given path, applies defaults
// and validates the result.
func LoadConfig(path string) (*BuilderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg BuilderConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *BuilderConfig) applyDefaults() {
	if c.MaxHops == 0 {
		c.MaxHops = DefaultMaxHops
	}
	if c.Compression == "" {
		c.Compression = DefaultCompression
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
}

// Validate checks field constraints, that every chain is known and that no
// chain is listed twice. Chain names are rewritten to their canonical form,
// which output file names are derived from.
func (c *BuilderConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	seen := make(map[string]struct{}, len(c.Chains))
	for i, ch := range c.Chains {
		known, ok := chains.ByName(ch.Name)
		if !ok {
			return fmt.Errorf("config: unknown chain %q", ch.Name)
		}
		if _, ok := seen[known.Name]; ok {
			return fmt.Errorf("config: chain %q listed more than once", known.Name)
		}
		seen[known.Name] = struct{}{}
		c.Chains[i].Name = known.Name
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("config: %s is required", field)
		case "min":
			return fmt.Errorf("config: %s must be at least %s", field, e.Param())
		case "max":
			return fmt.Errorf("config: %s must not exceed %s", field, e.Param())
		case "oneof":
			return fmt.Errorf("config: %s must be one of [%s]", field, e.Param())
		default:
			return fmt.Errorf("config: %s failed validation (%s)", field, e.Tag())
		}
	}
	return err
}
