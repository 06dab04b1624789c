package navigation

import (
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/lessonplay/internal/domain"
)

// ParseCursor derives the cursor from the route's lesson and chapter
// parameters. Chapter numbers in routes are 1-based.
func ParseCursor(lessonParam, chapterParam string) (domain.Cursor, error) {
	lesson, err := strconv.Atoi(lessonParam)
	if err != nil {
		return domain.Cursor{}, fmt.Errorf("%w: lesson %q is not a number", domain.ErrInvalidRoute, lessonParam)
	}
	if lesson < 1 {
		return domain.Cursor{}, fmt.Errorf("%w: lesson %d", domain.ErrInvalidRoute, lesson)
	}

	chapter, err := strconv.Atoi(chapterParam)
	if err != nil {
		return domain.Cursor{}, fmt.Errorf("%w: chapter %q is not a number", domain.ErrInvalidRoute, chapterParam)
	}
	// chapter 0 stays valid: empty lessons resume at /chapter/0
	if chapter < 0 {
		return domain.Cursor{}, fmt.Errorf("%w: chapter %d", domain.ErrInvalidRoute, chapter)
	}

	return domain.Cursor{Lesson: lesson, ChapterIndex: chapter - 1}, nil
}

// ChapterPath returns the route for a 1-based chapter number
func ChapterPath(lesson, chapterNumber int) string {
	return fmt.Sprintf("/lesson/%d/chapter/%d", lesson, chapterNumber)
}

// LessonCompletePath returns the route shown after the last chapter
func LessonCompletePath(lesson int) string {
	return fmt.Sprintf("/lesson-complete/%d", lesson)
}
