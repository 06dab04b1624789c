package domain

import (
	"strconv"
	"strings"
)

// LessonKey returns the catalog/progress key for a lesson number, e.g. "lesson3".
// The format is shared with persisted progress data and must not change.
func LessonKey(lessonNumber int) string {
	return "lesson" + strconv.Itoa(lessonNumber)
}

// ParseLessonKey returns the lesson number for a key produced by LessonKey.
// Padded or non-positive numbers are rejected.
func ParseLessonKey(key string) (int, bool) {
	digits, ok := strings.CutPrefix(key, "lesson")
	if !ok || digits == "" || digits[0] == '0' {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Lesson is a numbered course unit made of ordered chapters
type Lesson struct {
	Number   int      `json:"number" yaml:"-"` // 1-based
	Title    string   `json:"title" yaml:"title"`
	Chapters []string `json:"chapters" yaml:"chapters"` // chapter titles, position = chapter number - 1
}

// Key returns the lesson key for this lesson
func (l Lesson) Key() string {
	return LessonKey(l.Number)
}

// TotalChapters returns the number of chapters in the lesson
func (l Lesson) TotalChapters() int {
	return len(l.Chapters)
}

// Instruction is the localized instructional payload for one chapter
type Instruction struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"` // markdown
}

// ChapterCode is the code scaffold for one chapter
type ChapterCode struct {
	InitialCode string `json:"initial_code" yaml:"initial_code"`
	AnswerCode  string `json:"answer_code" yaml:"answer_code"`
}

// Instructions maps locale -> lesson key -> ordered chapter instructions
type Instructions map[string]map[string][]Instruction

// Codes maps lesson key -> ordered chapter code scaffolds
type Codes map[string][]ChapterCode

// ChapterContent is the resolved content for the active chapter
type ChapterContent struct {
	Instruction Instruction `json:"instruction"`
	InitialCode string      `json:"initial_code"`
	AnswerCode  string      `json:"answer_code"`
}
