package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/felixgeelhaar/lessonplay/internal/player"
)

// chapterMarkdown lays out a chapter view as a markdown document
func chapterMarkdown(view player.ChapterView, showAnswer bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Lesson %d: %s\n\n", view.Lesson, view.LessonTitle)
	if view.Step.Total > 0 {
		fmt.Fprintf(&b, "_Chapter %d of %d_\n\n", view.Step.Current, view.Step.Total)
	}

	if !view.Available {
		fmt.Fprintf(&b, "Chapter %d is not available in locale `%s`.\n", view.Chapter, view.Locale)
		return b.String()
	}

	fmt.Fprintf(&b, "## %s\n\n%s\n", view.Content.Instruction.Title, strings.TrimSpace(view.Content.Instruction.Content))

	if view.Content.InitialCode != "" {
		fmt.Fprintf(&b, "\n### Starter code\n\n```\n%s\n```\n", strings.TrimRight(view.Content.InitialCode, "\n"))
	}
	if showAnswer && view.Content.AnswerCode != "" {
		fmt.Fprintf(&b, "\n### Answer\n\n```\n%s\n```\n", strings.TrimRight(view.Content.AnswerCode, "\n"))
	}

	if view.Bounds != nil {
		var nav []string
		if !view.Bounds.IsLessThanOne {
			nav = append(nav, fmt.Sprintf("`lesson back %d %d`", view.Lesson, view.Chapter))
		}
		if view.Bounds.IsGreaterThanTotal {
			nav = append(nav, fmt.Sprintf("`lesson next %d %d` to finish the lesson", view.Lesson, view.Chapter))
		} else {
			nav = append(nav, fmt.Sprintf("`lesson next %d %d`", view.Lesson, view.Chapter))
		}
		fmt.Fprintf(&b, "\n---\n\n%s\n", strings.Join(nav, " · "))
	}
	return b.String()
}

func renderMarkdown(doc string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	out, err := renderer.Render(doc)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
