package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a subject's risk reports and profiles to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		subject = strings.TrimSpace(subject)
		if subject == "" {
			return fmt.Errorf("--subject is required")
		}
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = "adaptive_" + strings.ReplaceAll(subject, " ", "_") + ".xlsx"
		}

		app, err := newApplication(cmd)
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.wireServices(cmd.Context()); err != nil {
			return err
		}

		if err := app.services.Export().WriteFile(cmd.Context(), subject, out); err != nil {
			return fmt.Errorf("export %s: %w", subject, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("subject", "", "Subject to export")
	exportCmd.Flags().String("out", "", "Output file (default adaptive_<subject>.xlsx)")
}
