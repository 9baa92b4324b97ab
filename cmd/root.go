package cmd

import (
	"github.com/spf13/cobra"
)

// Version is overridden at build time or from the embedded VERSION file.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "kahla",
	Short: "Converts Picasa tags to digiKam tags",
	Long: `kahla reads the .picasa.ini files Picasa leaves in each photo folder and
copies their keywords (and optionally Picasa albums and face tags) into
digiKam's digikam4.db catalog.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// ApplyVersion copies Version onto the root command.
func ApplyVersion() {
	rootCmd.Version = Version
}

func init() {
	ApplyVersion()
}
