package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/geodati/catasto2gpkg/internal/config"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

// loadEnvConfig loads .env and returns the settings found in CATASTO_*
// variables alone. It is used before the root directory, and with it
// catasto2gpkg.yaml, is known.
func loadEnvConfig() (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	cfg := &config.ProjectConfig{}
	if err := config.ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadProjectConfig loads .env and catasto2gpkg.yaml from dir, then applies
// CATASTO_* variables on top. A missing config file is not an error.
func loadProjectConfig(dir string) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(dir)
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("failed to load %s: %w", catasto.ConfigFileName, err)
		}
		cfg = &config.ProjectConfig{}
	}
	if err := config.ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// conversionOutputs are the side files written after a conversion run.
type conversionOutputs struct {
	ReportPath  string
	MetricsFile string
}

// buildConversionConfig merges flags over the project config. changed reports
// whether a flag was set on the command line. Relative paths from the config
// file resolve against root; relative flag values against the working directory.
func buildConversionConfig(root string, projectCfg *config.ProjectConfig, flags convertFlagValues, changed func(string) bool, verbose bool) (catasto.ConversionConfig, conversionOutputs, error) {
	cfg := catasto.ConversionConfig{
		RootDir:          root,
		Output:           resolveAgainst(root, projectCfg.Output),
		ScratchDir:       resolveAgainst(root, projectCfg.ScratchDir),
		KeepIntermediate: projectCfg.KeepIntermediateOrDefault(),
		Verbose:          verbose,
	}
	out := conversionOutputs{
		ReportPath:  resolveAgainst(root, projectCfg.Report),
		MetricsFile: resolveAgainst(root, projectCfg.MetricsFile),
	}

	var err error
	override := func(name, value string, dst *string) {
		if !changed(name) || err != nil {
			return
		}
		if value == "" {
			*dst = ""
			return
		}
		*dst, err = filepath.Abs(value)
	}
	override("output", flags.output, &cfg.Output)
	override("scratch-dir", flags.scratchDir, &cfg.ScratchDir)
	override("report", flags.report, &out.ReportPath)
	override("metrics-file", flags.metricsFile, &out.MetricsFile)
	if err != nil {
		return catasto.ConversionConfig{}, conversionOutputs{}, fmt.Errorf("resolving flag path: %w", err)
	}

	if changed("keep-intermediate") {
		cfg.KeepIntermediate = flags.keepIntermediate
	}

	if err := cfg.Validate(); err != nil {
		return catasto.ConversionConfig{}, conversionOutputs{}, err
	}
	return cfg, out, nil
}

// buildPublishConfig merges publish flags over the project config.
func buildPublishConfig(pkgPath string, projectCfg *config.ProjectConfig, flags publishFlagValues, changed func(string) bool) (catasto.PublishConfig, error) {
	pg := projectCfg.PostGIS

	timeout, err := pg.TimeoutDuration()
	if err != nil {
		return catasto.PublishConfig{}, err
	}

	cfg := catasto.PublishConfig{
		PackagePath:      pkgPath,
		ConnectionString: pg.Connection,
		Schema:           pg.Schema,
		Overwrite:        pg.Overwrite,
		Timeout:          timeout,
	}
	if changed("connection") {
		cfg.ConnectionString = flags.connection
	}
	if changed("schema") {
		cfg.Schema = flags.schema
	}
	if changed("overwrite") {
		cfg.Overwrite = flags.overwrite
	}
	if changed("timeout") {
		cfg.Timeout = flags.timeout
	}
	if changed("batch-size") {
		cfg.BatchSize = flags.batchSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultPublishTimeout
	}

	if err := cfg.Validate(); err != nil {
		return catasto.PublishConfig{}, err
	}
	return cfg, nil
}

const defaultPublishTimeout = 30 * time.Minute

func resolveAgainst(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
