package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/logai/logai/internal/server/handlers"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info := handlers.GetVersionInfo()
		fmt.Printf("logai %s (commit %s, built %s)\n", info.Version, info.Commit, info.BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
