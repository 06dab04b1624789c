package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/felixgeelhaar/lessonplay/internal/app"
	"github.com/felixgeelhaar/lessonplay/internal/player"
	"github.com/spf13/cobra"
)

func newProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show completed chapters per lesson",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.Player.Progress(commandContext(cmd), learnerFlag(cmd))
			if err != nil {
				return err
			}
			return printProgress(cmd.OutOrStdout(), view)
		},
	}
}

func printProgress(w io.Writer, view player.ProgressView) error {
	if view.Anonymous {
		fmt.Fprintln(w, "No learner selected; set --learner or LESSONPLAY_LEARNER.")
		return nil
	}

	fmt.Fprintf(w, "Progress for %s\n\n", view.LearnerID)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LESSON\tTITLE\tDONE\tPERCENT")
	for _, l := range view.Lessons {
		fmt.Fprintf(tw, "%d\t%s\t%d/%d\t%.0f%%\n", l.Lesson, l.Title, l.Completed, l.Total, l.Fraction*100)
	}
	return tw.Flush()
}

func newResetCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear a learner's progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			learner := learnerFlag(cmd)
			if learner == "" {
				return errors.New("--learner is required")
			}
			if !confirm {
				return fmt.Errorf("this deletes all progress for %s; pass --yes to confirm", learner)
			}

			a, err := openApp(cmd, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Player.Reset(commandContext(cmd), learner); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Progress reset for %s\n", learner)
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm the reset")
	return cmd
}
