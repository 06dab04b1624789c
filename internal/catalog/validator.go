package catalog

import (
	"fmt"
	"sort"
)

// Issue describes one inconsistency in a catalog
type Issue struct {
	Locale    string `json:"locale,omitempty"`
	LessonKey string `json:"lesson_key"`
	Message   string `json:"message"`
}

func (i Issue) String() string {
	if i.Locale == "" {
		return fmt.Sprintf("%s: %s", i.LessonKey, i.Message)
	}
	return fmt.Sprintf("%s/%s: %s", i.Locale, i.LessonKey, i.Message)
}

// Report is the result of validating a catalog. Partially translated
// content is expected, so everything here is a warning.
type Report struct {
	Lessons  int      `json:"lessons"`
	Locales  []string `json:"locales"`
	Warnings []Issue  `json:"warnings"`
}

// OK reports whether no issues were found
func (r *Report) OK() bool {
	return len(r.Warnings) == 0
}

// Validate checks that every lesson has a code scaffold and an instruction
// sequence per locale whose length matches the lesson's chapter count.
func Validate(c *Catalog) *Report {
	report := &Report{Warnings: []Issue{}}
	if c == nil {
		return report
	}

	report.Lessons = len(c.lessons)
	report.Locales = c.Locales()

	for _, lesson := range c.lessons {
		key := lesson.Key()
		total := lesson.TotalChapters()

		if total == 0 {
			report.Warnings = append(report.Warnings, Issue{
				LessonKey: key,
				Message:   "lesson has no chapters",
			})
		}

		codes, ok := c.codes[key]
		switch {
		case !ok:
			report.Warnings = append(report.Warnings, Issue{
				LessonKey: key,
				Message:   "no code scaffold",
			})
		case len(codes) != total:
			report.Warnings = append(report.Warnings, Issue{
				LessonKey: key,
				Message:   fmt.Sprintf("code scaffold has %d chapters, lesson has %d", len(codes), total),
			})
		}

		for _, locale := range report.Locales {
			chapters, ok := c.instructions[locale][key]
			switch {
			case !ok:
				report.Warnings = append(report.Warnings, Issue{
					Locale:    locale,
					LessonKey: key,
					Message:   "missing translation",
				})
			case len(chapters) != total:
				report.Warnings = append(report.Warnings, Issue{
					Locale:    locale,
					LessonKey: key,
					Message:   fmt.Sprintf("%d instructions for %d chapters", len(chapters), total),
				})
			}
		}
	}

	// Code files for lessons that do not exist
	known := make(map[string]bool, len(c.lessons))
	for _, lesson := range c.lessons {
		known[lesson.Key()] = true
	}
	var orphans []string
	for key := range c.codes {
		if !known[key] {
			orphans = append(orphans, key)
		}
	}
	sort.Strings(orphans)
	for _, key := range orphans {
		report.Warnings = append(report.Warnings, Issue{
			LessonKey: key,
			Message:   "code scaffold for unknown lesson",
		})
	}

	return report
}
