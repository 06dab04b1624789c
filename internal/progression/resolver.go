// Package progression computes where a learner resumes a lesson and how
// far through a lesson a chapter cursor is.
package progression

import (
	"fmt"

	"github.com/felixgeelhaar/lessonplay/internal/domain"
)

// Resume is the resume target for one lesson in the lesson list
type Resume struct {
	Lesson         int    `json:"lesson"`
	ChapterToStart int    `json:"chapter_to_start"` // 1-based, 0 when the lesson has no chapters
	ProgressLabel  string `json:"progress_label"`
	Completed      int    `json:"completed"`
	Total          int    `json:"total"`
}

// ResolveResume returns the chapter a learner should resume at and the
// progress label for the lesson list. A fully completed lesson resumes at
// its last chapter.
func ResolveResume(lesson domain.Lesson, progress domain.ProgressRecord) Resume {
	total := lesson.TotalChapters()
	completed := progress.CompletedCount(lesson.Key())

	return Resume{
		Lesson:         lesson.Number,
		ChapterToStart: ChapterToStart(completed, total),
		ProgressLabel:  ProgressLabel(completed, total, progress),
		Completed:      completed,
		Total:          total,
	}
}

// ChapterToStart returns min(completed, total-1)+1, or 0 for an empty lesson
func ChapterToStart(completed, total int) int {
	completed = max(0, completed)
	if total <= completed {
		return total
	}
	return completed + 1
}

// ProgressLabel formats "(completed/total)". It is empty unless progress
// has loaded and belongs to a signed-in learner.
func ProgressLabel(completed, total int, progress domain.ProgressRecord) string {
	if !progress.Meaningful() {
		return ""
	}
	return fmt.Sprintf("(%d/%d)", completed, total)
}

// ResumePath returns the route a lesson list entry links to
func ResumePath(lesson domain.Lesson, progress domain.ProgressRecord) string {
	r := ResolveResume(lesson, progress)
	return fmt.Sprintf("/lesson/%d/chapter/%d", lesson.Number, r.ChapterToStart)
}

// Fraction returns the completed share of a lesson in [0, 1]
func Fraction(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 1
	}
	return float64(completed) / float64(total)
}
