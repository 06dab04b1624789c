package domain

// Cursor identifies the chapter on screen. It is derived from the route on
// every request and is never stored.
type Cursor struct {
	Lesson       int `json:"lesson"`        // 1-based lesson number
	ChapterIndex int `json:"chapter_index"` // 0-based
}

// LessonKey returns the lesson key for the cursor's lesson
func (c Cursor) LessonKey() string {
	return LessonKey(c.Lesson)
}

// ChapterNumber returns the 1-based chapter number used in routes
func (c Cursor) ChapterNumber() int {
	return c.ChapterIndex + 1
}
