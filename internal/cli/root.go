package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "catasto2gpkg [root]",
	Short: "Convert nested cadastral ZIP archives into one GeoPackage",
	Long: `catasto2gpkg reads a directory of top-level ZIP archives, each named after
its province (VE_F229.zip, TV_L407.zip), opens the municipal ZIPs nested inside
them and converts every *_ple.gml (parcels) and *_map.gml (map sheets) file
into a single GeoPackage with the layers ple_layer and map_layer.

Invalid geometries are repaired with a zero-width buffer; rows that cannot be
repaired are dropped. Every row is tagged with comune and provincia.

Without a subcommand, catasto2gpkg runs convert. Without a root argument, it
prompts for one on the terminal, or opens a folder dialog when there is no
terminal.

Exit Codes:
  0  - Success (regions may have been skipped, see the summary)
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or root directory
  11 - PostGIS connection failed
  12 - No layer had data, no package written
  13 - PostGIS publish failed`,
	Args:         cobra.MaximumNArgs(1),
	RunE:         runConvert,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout, os.Stderr)
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	addConvertFlags(rootCmd)
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
