package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/felixgeelhaar/lessonplay/internal/app"
	"github.com/felixgeelhaar/lessonplay/internal/navigation"
	"github.com/felixgeelhaar/lessonplay/internal/player"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List lessons and where to resume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.Player.ListLessons(commandContext(cmd), learnerFlag(cmd), localeFlag(cmd))
			if err != nil {
				return err
			}
			return printLessonList(cmd.OutOrStdout(), list)
		},
	}
}

func printLessonList(w io.Writer, list player.LessonList) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LESSON\tTITLE\tCHAPTERS\tPROGRESS\tRESUME")
	for _, l := range list.Lessons {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", l.Number, l.Title, l.Total, l.ProgressLabel, l.ResumePath)
	}
	return tw.Flush()
}

func newShowCmd() *cobra.Command {
	var showAnswer, raw bool

	cmd := &cobra.Command{
		Use:   "show <lesson> <chapter>",
		Short: "Show a chapter's instruction and starter code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cursor, err := navigation.ParseCursor(args[0], args[1])
			if err != nil {
				return err
			}

			a, err := openApp(cmd, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.Player.Chapter(localeFlag(cmd), cursor)
			if err != nil {
				return err
			}

			doc := chapterMarkdown(view, showAnswer)
			if raw {
				_, err = io.WriteString(cmd.OutOrStdout(), doc)
				return err
			}
			out, err := renderMarkdown(doc)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVar(&showAnswer, "answer", false, "Include the answer code")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown without terminal rendering")
	return cmd
}

func newNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next <lesson> <chapter>",
		Short: "Complete a chapter and move to the next one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cursor, err := navigation.ParseCursor(args[0], args[1])
			if err != nil {
				return err
			}

			a, err := openApp(cmd, app.Options{UseQueue: true})
			if err != nil {
				return err
			}
			defer a.Close()

			t := a.Player.Next(commandContext(cmd), learnerFlag(cmd), cursor)
			printTransition(cmd.OutOrStdout(), t)
			return nil
		},
	}
}

func newBackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "back <lesson> <chapter>",
		Short: "Move to the previous chapter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cursor, err := navigation.ParseCursor(args[0], args[1])
			if err != nil {
				return err
			}

			a, err := openApp(cmd, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			printTransition(cmd.OutOrStdout(), a.Player.Back(commandContext(cmd), cursor))
			return nil
		},
	}
}

func printTransition(w io.Writer, t navigation.Transition) {
	switch t.Kind {
	case navigation.KindLessonComplete:
		fmt.Fprintf(w, "Lesson %d complete! %s\n", t.From.Lesson, t.Path)
	case navigation.KindChapter:
		fmt.Fprintln(w, t.Path)
	default:
		fmt.Fprintf(w, "Staying on %s (%s)\n", navigation.ChapterPath(t.From.Lesson, t.From.ChapterNumber()), t.Reason)
	}
}
