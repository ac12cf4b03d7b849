// Package commands is the insightsdb-rollup command line
package commands

import (
	"github.com/spf13/cobra"

	"insightsdb/internal/platform/config"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:   "insightsdb-rollup",
	Short: "Recompute parent numeric fields from their children",
	Long: `Rolls child values up into their parents (epic story points) for one or more
integrations, once or on a cron schedule.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadEnvFiles(envFiles...)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	rootCmd.AddCommand(newRunCmd())
}
