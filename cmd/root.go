package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "adaptive-assessment-service",
	Short: "Adaptive assessment and behavioral analytics engine",
	Long: "Serves adaptive quiz sessions with LLM-generated questions and computes\n" +
		"anti-cheat risk reports and cognitive profiles from completed sessions.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("analytics-config", "", "Path to the analytics tuning file (overrides ANALYTICS_CONFIG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(exportCmd)
}
