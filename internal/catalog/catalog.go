package catalog

import (
	"slices"
	"sort"

	"github.com/felixgeelhaar/lessonplay/internal/domain"
)

// Catalog is an immutable snapshot of lesson metadata, localized
// instructions and code scaffolds. A nil *Catalog is valid and behaves
// as a catalog that has not been loaded yet.
type Catalog struct {
	lessons      []domain.Lesson
	instructions domain.Instructions
	codes        domain.Codes
}

// New builds a catalog snapshot. Lessons are numbered by position (1-based).
func New(lessons []domain.Lesson, instructions domain.Instructions, codes domain.Codes) *Catalog {
	numbered := make([]domain.Lesson, len(lessons))
	for i, l := range lessons {
		l.Number = i + 1
		l.Chapters = slices.Clone(l.Chapters)
		numbered[i] = l
	}
	if instructions == nil {
		instructions = domain.Instructions{}
	}
	if codes == nil {
		codes = domain.Codes{}
	}
	return &Catalog{
		lessons:      numbered,
		instructions: instructions,
		codes:        codes,
	}
}

// Lessons returns all lessons in order
func (c *Catalog) Lessons() []domain.Lesson {
	if c == nil {
		return nil
	}
	out := make([]domain.Lesson, len(c.lessons))
	for i, l := range c.lessons {
		out[i] = cloneLesson(l)
	}
	return out
}

// Lesson returns a lesson by its 1-based number
func (c *Catalog) Lesson(number int) (domain.Lesson, bool) {
	if c == nil || number < 1 || number > len(c.lessons) {
		return domain.Lesson{}, false
	}
	return cloneLesson(c.lessons[number-1]), true
}

func cloneLesson(l domain.Lesson) domain.Lesson {
	l.Chapters = slices.Clone(l.Chapters)
	return l
}

// Locales returns the locales that have instructions, sorted
func (c *Catalog) Locales() []string {
	if c == nil {
		return nil
	}
	locales := make([]string, 0, len(c.instructions))
	for locale := range c.instructions {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales
}

// ChapterCount returns the number of chapters the code catalog holds for a
// lesson. ok is false when the code catalog for the lesson is not available.
func (c *Catalog) ChapterCount(lessonKey string) (int, bool) {
	if c == nil {
		return 0, false
	}
	chapters, ok := c.codes[lessonKey]
	if !ok {
		return 0, false
	}
	return len(chapters), true
}

// Instruction looks up a chapter instruction: locale, then lesson, then index.
func (c *Catalog) Instruction(locale, lessonKey string, chapterIndex int) (domain.Instruction, bool) {
	if c == nil {
		return domain.Instruction{}, false
	}
	localized, ok := c.instructions[locale]
	if !ok {
		return domain.Instruction{}, false
	}
	chapters, ok := localized[lessonKey]
	if !ok {
		return domain.Instruction{}, false
	}
	if chapterIndex < 0 || chapterIndex >= len(chapters) {
		return domain.Instruction{}, false
	}
	return chapters[chapterIndex], true
}

// Code looks up a chapter code scaffold
func (c *Catalog) Code(lessonKey string, chapterIndex int) (domain.ChapterCode, bool) {
	if c == nil {
		return domain.ChapterCode{}, false
	}
	chapters, ok := c.codes[lessonKey]
	if !ok || chapterIndex < 0 || chapterIndex >= len(chapters) {
		return domain.ChapterCode{}, false
	}
	return chapters[chapterIndex], true
}

// ResolveChapterContent resolves the instruction and code scaffold for a
// chapter. It reports false when the instruction is unavailable at any of
// the three lookup levels. There is no fallback to another locale. A missing
// code scaffold leaves InitialCode and AnswerCode empty.
func (c *Catalog) ResolveChapterContent(locale, lessonKey string, chapterIndex int) (domain.ChapterContent, bool) {
	instruction, ok := c.Instruction(locale, lessonKey, chapterIndex)
	if !ok {
		return domain.ChapterContent{}, false
	}

	content := domain.ChapterContent{Instruction: instruction}
	if code, ok := c.Code(lessonKey, chapterIndex); ok {
		content.InitialCode = code.InitialCode
		content.AnswerCode = code.AnswerCode
	}
	return content, true
}

// Stats summarizes a catalog snapshot
type Stats struct {
	LessonCount  int            `json:"lesson_count"`
	ChapterCount int            `json:"chapter_count"`
	Locales      []string       `json:"locales"`
	ByLocale     map[string]int `json:"instructions_by_locale"`
}

// Stats returns counts for the snapshot
func (c *Catalog) Stats() Stats {
	stats := Stats{ByLocale: make(map[string]int)}
	if c == nil {
		return stats
	}
	stats.LessonCount = len(c.lessons)
	for _, l := range c.lessons {
		stats.ChapterCount += l.TotalChapters()
	}
	stats.Locales = c.Locales()
	for locale, lessons := range c.instructions {
		for _, chapters := range lessons {
			stats.ByLocale[locale] += len(chapters)
		}
	}
	return stats
}
