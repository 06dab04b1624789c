package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/felixgeelhaar/lessonplay/internal/app"
	"github.com/felixgeelhaar/lessonplay/internal/domain"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List a learner's recorded chapter completions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			learner := learnerFlag(cmd)
			if learner == "" {
				return errors.New("--learner is required")
			}

			a, err := openApp(cmd, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			events, err := a.Player.History(commandContext(cmd), learner)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), events)
		},
	}
}

func printHistory(w io.Writer, events []domain.ChapterCompletedEvent) error {
	if len(events) == 0 {
		fmt.Fprintln(w, "No completions recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tLESSON\tCHAPTER\tDONE")
	for _, ev := range events {
		done := fmt.Sprintf("%d", ev.Completed)
		if ev.LessonFinished {
			done += " (finished)"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n",
			ev.OccurredAt().Local().Format("2006-01-02 15:04"), ev.Lesson, ev.ChapterIndex+1, done)
	}
	return tw.Flush()
}

func newLearnersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "learners",
		Short: "List learners with recorded progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			learners, err := a.Player.Learners(commandContext(cmd))
			if err != nil {
				return err
			}
			for _, id := range learners {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
