package main

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/lessonplay/internal/app"
	"github.com/felixgeelhaar/lessonplay/internal/catalog"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the catalog for missing translations and scaffolds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Player.Validate()
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			if strict && !report.OK() {
				return fmt.Errorf("catalog has %d warnings", len(report.Warnings))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when warnings are found")
	return cmd
}

func printReport(w io.Writer, report *catalog.Report) {
	fmt.Fprintf(w, "%d lessons, locales: %v\n", report.Lessons, report.Locales)
	if report.OK() {
		fmt.Fprintln(w, "✓ catalog is consistent")
		return
	}
	for _, issue := range report.Warnings {
		fmt.Fprintf(w, "⚠ %s\n", issue)
	}
}
