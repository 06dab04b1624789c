package player

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/lessonplay/internal/catalog"
	"github.com/felixgeelhaar/lessonplay/internal/domain"
	"github.com/felixgeelhaar/lessonplay/internal/navigation"
	"github.com/felixgeelhaar/lessonplay/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixture = map[string]string{
	"lessons.yaml": `lessons:
  - title: Basics
    chapters: [Contracts, Fields, Transitions]
  - title: Types
    chapters: [Integers, Strings]
`,
	"codes/lesson1.yaml": `chapters:
  - initial_code: "contract A()"
    answer_code: "contract A()\nend"
  - initial_code: "field f : Uint32"
    answer_code: "field f : Uint32 = Uint32 0"
  - initial_code: ""
    answer_code: "transition T()\nend"
`,
	"instructions/en.yaml": `lesson1:
  - title: Contracts
    content: "Declare a contract."
  - title: Fields
    content: "Declare a field."
  - title: Transitions
    content: "Write a transition."
lesson2:
  - title: Integers
    content: "Integers are sized."
  - title: Strings
    content: "Strings are quoted."
`,
	"instructions/ko.yaml": `lesson1:
  - title: 컨트랙트
    content: "컨트랙트를 선언하세요."
`,
}

func writeFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range fixture {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	registry := catalog.NewRegistry(catalog.NewLoader(writeFixture(t)))
	require.NoError(t, registry.Load())
	return NewService(Config{
		Registry: registry,
		Progress: progress.NewService(progress.NewMemoryStore()),
	})
}

func finish(t *testing.T, s *Service, learnerID string, lesson, chapters int) {
	t.Helper()
	for i := 0; i < chapters; i++ {
		s.Next(context.Background(), learnerID, domain.Cursor{Lesson: lesson, ChapterIndex: i})
	}
	s.Wait()
}

func TestService_ListLessons_Anonymous(t *testing.T) {
	s := newTestService(t)

	list, err := s.ListLessons(context.Background(), "", "")
	require.NoError(t, err)

	assert.Equal(t, "en", list.Locale)
	assert.True(t, list.ProgressLoaded)
	require.Len(t, list.Lessons, 2)

	first := list.Lessons[0]
	assert.Equal(t, "lesson1", first.Key)
	assert.Equal(t, 1, first.ChapterToStart)
	assert.Empty(t, first.ProgressLabel)
	assert.Equal(t, "/lesson/1/chapter/1", first.ResumePath)
	assert.True(t, first.Translated)
}

func TestService_ListLessons_ResumesAfterProgress(t *testing.T) {
	s := newTestService(t)
	finish(t, s, "learner-1", 1, 1)

	list, err := s.ListLessons(context.Background(), "learner-1", "ko")
	require.NoError(t, err)

	first := list.Lessons[0]
	assert.Equal(t, 1, first.Completed)
	assert.Equal(t, 2, first.ChapterToStart)
	assert.Equal(t, "(1/3)", first.ProgressLabel)
	assert.Equal(t, "/lesson/1/chapter/2", first.ResumePath)

	second := list.Lessons[1]
	assert.Equal(t, "(0/2)", second.ProgressLabel)
	assert.False(t, second.Translated, "lesson2 has no ko instructions")
}

func TestService_ListLessons_FinishedLessonResumesAtLastChapter(t *testing.T) {
	s := newTestService(t)
	finish(t, s, "learner-1", 1, 3)

	list, err := s.ListLessons(context.Background(), "learner-1", "en")
	require.NoError(t, err)
	assert.Equal(t, 3, list.Lessons[0].ChapterToStart)
	assert.Equal(t, "(3/3)", list.Lessons[0].ProgressLabel)
}

func TestService_CatalogNotLoaded(t *testing.T) {
	registry := catalog.NewRegistry(catalog.NewLoader(t.TempDir()))
	s := NewService(Config{
		Registry: registry,
		Progress: progress.NewService(progress.NewMemoryStore()),
	})

	_, err := s.ListLessons(context.Background(), "", "en")
	assert.ErrorIs(t, err, domain.ErrCatalogNotLoaded)

	_, err = s.Chapter("en", domain.Cursor{Lesson: 1})
	assert.ErrorIs(t, err, domain.ErrCatalogNotLoaded)

	_, err = s.Validate()
	assert.ErrorIs(t, err, domain.ErrCatalogNotLoaded)

	tr := s.Next(context.Background(), "learner-1", domain.Cursor{Lesson: 1})
	assert.Equal(t, navigation.KindNone, tr.Kind)
	assert.Equal(t, navigation.ReasonNotReady, tr.Reason)

	view, err := s.Progress(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Empty(t, view.Lessons)
	assert.False(t, s.CatalogLoaded())
}

func TestService_Chapter(t *testing.T) {
	s := newTestService(t)

	tests := []struct {
		name          string
		locale        string
		cursor        domain.Cursor
		wantAvailable bool
		wantReady     bool
		wantTitle     string
		wantStep      int
	}{
		{"first chapter", "en", domain.Cursor{Lesson: 1, ChapterIndex: 0}, true, true, "Contracts", 1},
		{"localized", "ko", domain.Cursor{Lesson: 1, ChapterIndex: 0}, true, true, "컨트랙트", 1},
		{"no fallback to en", "fr", domain.Cursor{Lesson: 1, ChapterIndex: 1}, false, true, "", 2},
		{"past the end", "en", domain.Cursor{Lesson: 1, ChapterIndex: 7}, false, true, "", 3},
		{"no code scaffold", "en", domain.Cursor{Lesson: 2, ChapterIndex: 0}, true, false, "Integers", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := s.Chapter(tt.locale, tt.cursor)
			require.NoError(t, err)

			assert.Equal(t, tt.wantAvailable, view.Available)
			assert.Equal(t, tt.wantReady, view.Ready)
			assert.Equal(t, tt.wantStep, view.Step.Current)
			if tt.wantAvailable {
				require.NotNil(t, view.Content)
				assert.Equal(t, tt.wantTitle, view.Content.Instruction.Title)
			} else {
				assert.Nil(t, view.Content)
			}
			if tt.wantReady {
				assert.NotNil(t, view.Bounds)
			} else {
				assert.Nil(t, view.Bounds)
			}
		})
	}
}

func TestService_Chapter_Bounds(t *testing.T) {
	s := newTestService(t)

	first, err := s.Chapter("en", domain.Cursor{Lesson: 1, ChapterIndex: 0})
	require.NoError(t, err)
	assert.True(t, first.Bounds.IsLessThanOne)
	assert.False(t, first.Bounds.IsGreaterThanTotal)
	assert.Equal(t, "Contracts", first.ChapterTitle)
	assert.Equal(t, "contract A()", first.Content.InitialCode)

	last, err := s.Chapter("en", domain.Cursor{Lesson: 1, ChapterIndex: 2})
	require.NoError(t, err)
	assert.False(t, last.Bounds.IsLessThanOne)
	assert.True(t, last.Bounds.IsGreaterThanTotal)
	assert.Equal(t, 3, last.Step.Total)
}

func TestService_Chapter_UnknownLesson(t *testing.T) {
	s := newTestService(t)

	_, err := s.Chapter("en", domain.Cursor{Lesson: 9})
	assert.ErrorIs(t, err, domain.ErrLessonNotFound)
}

func TestService_NextAndBack(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	tr := s.Next(ctx, "learner-1", domain.Cursor{Lesson: 1, ChapterIndex: 0})
	assert.Equal(t, navigation.KindChapter, tr.Kind)
	assert.Equal(t, "/lesson/1/chapter/2", tr.Path)

	tr = s.Next(ctx, "learner-1", domain.Cursor{Lesson: 1, ChapterIndex: 2})
	assert.Equal(t, navigation.KindLessonComplete, tr.Kind)
	assert.Equal(t, "/lesson-complete/1", tr.Path)

	tr = s.Back(ctx, domain.Cursor{Lesson: 1, ChapterIndex: 1})
	assert.Equal(t, "/lesson/1/chapter/1", tr.Path)

	tr = s.Back(ctx, domain.Cursor{Lesson: 1, ChapterIndex: 0})
	assert.False(t, tr.Moved())

	tr = s.Next(ctx, "learner-1", domain.Cursor{Lesson: 2, ChapterIndex: 0})
	assert.Equal(t, navigation.ReasonNotReady, tr.Reason)
	s.Wait()
}

func TestService_ProgressAndReset(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	finish(t, s, "learner-1", 1, 2)

	view, err := s.Progress(ctx, "learner-1")
	require.NoError(t, err)
	assert.False(t, view.Anonymous)
	assert.Equal(t, 2, view.Completed["lesson1"])
	require.Len(t, view.Lessons, 2)
	assert.InDelta(t, 2.0/3.0, view.Lessons[0].Fraction, 1e-9)
	assert.Zero(t, view.Lessons[1].Fraction)

	require.NoError(t, s.Reset(ctx, "learner-1"))
	view, err = s.Progress(ctx, "learner-1")
	require.NoError(t, err)
	assert.Zero(t, view.Lessons[0].Completed)

	anon, err := s.Progress(ctx, "")
	require.NoError(t, err)
	assert.True(t, anon.Anonymous)
}

func TestService_ReloadAndValidate(t *testing.T) {
	s := newTestService(t)

	stats, err := s.Reload()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.LessonCount)
	assert.Equal(t, 5, stats.ChapterCount)

	report, err := s.Validate()
	require.NoError(t, err)
	assert.False(t, report.OK(), "lesson2 has no code scaffold and no ko translation")
}
