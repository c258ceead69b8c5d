package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute risk reports and cognitive profiles for a subject",
	Long: "Rescores every completed session of a subject against its current peers\n" +
		"and rebuilds the cognitive profiles from stored telemetry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		subject = strings.TrimSpace(subject)
		if subject == "" {
			return fmt.Errorf("--subject is required")
		}

		app, err := newApplication(cmd)
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.wireServices(cmd.Context()); err != nil {
			return err
		}

		summary, err := app.services.Analytics().RecomputeSubject(cmd.Context(), subject)
		if err != nil {
			return fmt.Errorf("recompute %s: %w", subject, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", "Subject:", summary.Subject)
		fmt.Fprintf(cmd.OutOrStdout(), "%-12s %d\n", "Sessions:", summary.Sessions)
		fmt.Fprintf(cmd.OutOrStdout(), "%-12s %d\n", "Reports:", summary.RiskReports)
		fmt.Fprintf(cmd.OutOrStdout(), "%-12s %d\n", "Profiles:", summary.Profiles)
		fmt.Fprintf(cmd.OutOrStdout(), "%-12s %d\n", "Failures:", summary.Failures)
		return nil
	},
}

func init() {
	recomputeCmd.Flags().String("subject", "", "Subject whose completed sessions are rescored")
}
