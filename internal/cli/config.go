package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/geodati/catasto2gpkg/internal/config"
	"github.com/geodati/catasto2gpkg/internal/tui"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create catasto2gpkg.yaml",
}

var configShowCmd = &cobra.Command{
	Use:   "show [root]",
	Short: "Print the settings in effect for a root directory",
	Long: `Show prints catasto2gpkg.yaml from the root directory (default: current
directory) with CATASTO_* environment variables applied, as YAML.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init [root]",
	Short: "Write a catasto2gpkg.yaml with default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func targetDir(args []string) (string, error) {
	if len(args) == 0 {
		return ".", nil
	}
	return checkRootDir(args[0])
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	dir, err := targetDir(args)
	if err != nil {
		return err
	}
	projectCfg, err := loadProjectConfig(dir)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(effectiveConfig(projectCfg))
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	dir, err := targetDir(args)
	if err != nil {
		return err
	}

	_, err = config.Load(dir)
	if err == nil {
		return fmt.Errorf("%s already exists: %w", filepath.Join(dir, catasto.ConfigFileName), catasto.ErrInvalidConfig)
	}
	if !errors.Is(err, config.ErrConfigNotFound) {
		return err
	}

	if err := config.Save(dir, effectiveConfig(&config.ProjectConfig{})); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Configuration saved to %s\n",
		tui.SuccessStyle.Render(tui.SymbolCheck), filepath.Join(dir, catasto.ConfigFileName))
	return nil
}

// effectiveConfig fills the defaults a run would use into a copy of projectCfg.
func effectiveConfig(projectCfg *config.ProjectConfig) *config.ProjectConfig {
	cfg := *projectCfg
	if cfg.PostGIS.Schema == "" {
		cfg.PostGIS.Schema = catasto.DefaultSchema
	}
	keep := cfg.KeepIntermediateOrDefault()
	cfg.KeepIntermediate = &keep
	picker := cfg.PickerEnabled()
	cfg.Picker = &picker
	return &cfg
}
