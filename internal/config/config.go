package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type PostGISConfig struct {
	Connection string `yaml:"connection,omitempty"`
	Schema     string `yaml:"schema,omitempty"`
	Overwrite  bool   `yaml:"overwrite,omitempty"`
	Timeout    string `yaml:"timeout,omitempty"`
}

// ProjectConfig is the content of catasto2gpkg.yaml. Pointer fields
// distinguish "unset" from an explicit false.
type ProjectConfig struct {
	Output           string        `yaml:"output,omitempty"`
	ScratchDir       string        `yaml:"scratch_dir,omitempty"`
	KeepIntermediate *bool         `yaml:"keep_intermediate,omitempty"`
	Report           string        `yaml:"report,omitempty"`
	MetricsFile      string        `yaml:"metrics_file,omitempty"`
	Picker           *bool         `yaml:"picker,omitempty"`
	PostGIS          PostGISConfig `yaml:"postgis,omitempty"`
}

// Load reads catasto2gpkg.yaml from dir.
func Load(dir string) (*ProjectConfig, error) {
	configPath := filepath.Join(dir, catasto.ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w: %w", configPath, err, catasto.ErrInvalidConfig)
	}
	return &cfg, nil
}

// Save writes cfg to catasto2gpkg.yaml in dir.
func Save(dir string, cfg *ProjectConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, catasto.ConfigFileName), data, 0o644)
}

// ApplyEnv overrides cfg with CATASTO_* variables found by lookup.
// CATASTO_NO_PICKER=1 is accepted as the inverse of CATASTO_PICKER.
func ApplyEnv(cfg *ProjectConfig, lookup func(string) (string, bool)) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(catasto.EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(name string, apply func(bool)) {
		v, ok := lookup(catasto.EnvPrefix + name)
		if !ok || v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s=%q is not a boolean: %w", catasto.EnvPrefix, name, v, catasto.ErrInvalidConfig))
			return
		}
		apply(b)
	}

	str("OUTPUT", &cfg.Output)
	str("SCRATCH_DIR", &cfg.ScratchDir)
	str("REPORT", &cfg.Report)
	str("METRICS_FILE", &cfg.MetricsFile)
	str("POSTGIS_CONNECTION", &cfg.PostGIS.Connection)
	str("POSTGIS_SCHEMA", &cfg.PostGIS.Schema)
	str("POSTGIS_TIMEOUT", &cfg.PostGIS.Timeout)

	boolean("KEEP_INTERMEDIATE", func(b bool) { cfg.KeepIntermediate = &b })
	boolean("PICKER", func(b bool) { cfg.Picker = &b })
	boolean("NO_PICKER", func(b bool) {
		enabled := !b
		cfg.Picker = &enabled
	})
	boolean("POSTGIS_OVERWRITE", func(b bool) { cfg.PostGIS.Overwrite = b })

	return errors.Join(errs...)
}

// KeepIntermediateOrDefault returns the configured value, or false.
func (c *ProjectConfig) KeepIntermediateOrDefault() bool {
	return c.KeepIntermediate != nil && *c.KeepIntermediate
}

// PickerEnabled returns the configured value, or true.
func (c *ProjectConfig) PickerEnabled() bool {
	return c.Picker == nil || *c.Picker
}

// TimeoutDuration parses the PostGIS timeout. An empty value is zero.
func (c PostGISConfig) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid postgis.timeout %q: %w", c.Timeout, catasto.ErrInvalidConfig)
	}
	return d, nil
}
