package navigation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/felixgeelhaar/lessonplay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog map[string]int

func (f fakeCatalog) ChapterCount(key string) (int, bool) {
	n, ok := f[key]
	return n, ok
}

type recordingNavigator struct {
	paths []string
}

func (r *recordingNavigator) Push(path string) {
	r.paths = append(r.paths, path)
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.ChapterCompletedEvent
	err    error
}

func (s *recordingSink) Complete(_ context.Context, event domain.ChapterCompletedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) received() []domain.ChapterCompletedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChapterCompletedEvent(nil), s.events...)
}

func cursor(lesson, index int) domain.Cursor {
	return domain.Cursor{Lesson: lesson, ChapterIndex: index}
}

func TestController_GoNext(t *testing.T) {
	catalog := fakeCatalog{"lesson1": 3, "lesson3": 3, "lesson4": 0}

	tests := []struct {
		name       string
		cursor     domain.Cursor
		wantKind   Kind
		wantPath   string
		wantReason string
	}{
		{"first to second", cursor(1, 0), KindChapter, "/lesson/1/chapter/2", ""},
		{"second to third", cursor(1, 1), KindChapter, "/lesson/1/chapter/3", ""},
		{"last chapter completes lesson", cursor(3, 2), KindLessonComplete, "/lesson-complete/3", ""},
		{"code catalog not ready", cursor(2, 0), KindNone, "", ReasonNotReady},
		{"empty lesson", cursor(4, 0), KindNone, "", ReasonEmptyLesson},
		{"past the end", cursor(1, 3), KindNone, "", ReasonOutOfRange},
		{"before the start", cursor(1, -1), KindNone, "", ReasonOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			nav := &recordingNavigator{}
			c := NewController(catalog, sink)

			got := c.GoNext(context.Background(), nav, "learner-1", tt.cursor)
			c.Wait()

			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantPath, got.Path)
			assert.Equal(t, tt.wantReason, got.Reason)
			assert.Equal(t, tt.cursor, got.From)

			if tt.wantKind == KindNone {
				assert.Empty(t, nav.paths)
				assert.Empty(t, sink.received())
				return
			}

			assert.Equal(t, []string{tt.wantPath}, nav.paths)
			events := sink.received()
			require.Len(t, events, 1)
			assert.Equal(t, "learner-1", events[0].LearnerID)
			assert.Equal(t, tt.cursor.LessonKey(), events[0].LessonKey)
			assert.Equal(t, tt.cursor.ChapterIndex+1, events[0].Completed)
			assert.Equal(t, tt.wantKind == KindLessonComplete, events[0].LessonFinished)
		})
	}
}

func TestController_GoNext_FromRoute(t *testing.T) {
	c := NewController(fakeCatalog{"lesson3": 3}, nil)

	cur, err := ParseCursor("3", "3")
	require.NoError(t, err)

	got := c.GoNext(context.Background(), nil, "learner-1", cur)
	assert.Equal(t, KindLessonComplete, got.Kind)
	assert.Equal(t, "/lesson-complete/3", got.Path)
}

func TestController_GoBack(t *testing.T) {
	tests := []struct {
		name       string
		catalog    fakeCatalog
		cursor     domain.Cursor
		wantKind   Kind
		wantPath   string
		wantReason string
	}{
		{"third to second", fakeCatalog{"lesson1": 3}, cursor(1, 2), KindChapter, "/lesson/1/chapter/2", ""},
		{"second to first", fakeCatalog{"lesson1": 3}, cursor(1, 1), KindChapter, "/lesson/1/chapter/1", ""},
		{"at first chapter", fakeCatalog{"lesson1": 3}, cursor(1, 0), KindNone, "", ReasonFirstChapter},
		{"negative index", fakeCatalog{"lesson1": 3}, cursor(1, -2), KindNone, "", ReasonFirstChapter},
		{"past the end", fakeCatalog{"lesson1": 3}, cursor(1, 5), KindNone, "", ReasonOutOfRange},
		{"catalog not ready", fakeCatalog{}, cursor(1, 2), KindChapter, "/lesson/1/chapter/2", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			nav := &recordingNavigator{}
			c := NewController(tt.catalog, sink)

			got := c.GoBack(context.Background(), nav, tt.cursor)
			c.Wait()

			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantPath, got.Path)
			assert.Equal(t, tt.wantReason, got.Reason)
			assert.Empty(t, sink.received(), "going back never completes a chapter")
			if tt.wantPath != "" {
				assert.Equal(t, []string{tt.wantPath}, nav.paths)
			} else {
				assert.Empty(t, nav.paths)
			}
		})
	}
}

func TestController_NextThenBackReturns(t *testing.T) {
	c := NewController(fakeCatalog{"lesson2": 5}, nil)

	for i := 0; i < 4; i++ {
		start := cursor(2, i)

		next := c.GoNext(context.Background(), nil, "learner-1", start)
		require.Equal(t, KindChapter, next.Kind)

		lesson, chapter := splitChapterPath(t, next.Path)
		moved, err := ParseCursor(lesson, chapter)
		require.NoError(t, err)

		back := c.GoBack(context.Background(), nil, moved)
		assert.Equal(t, ChapterPath(2, start.ChapterNumber()), back.Path)
	}
}

func splitChapterPath(t *testing.T, path string) (string, string) {
	t.Helper()
	parts := strings.Split(path, "/")
	require.Len(t, parts, 5, "unexpected chapter path %q", path)
	return parts[2], parts[4]
}

func TestController_Guards(t *testing.T) {
	c := NewController(fakeCatalog{"lesson1": 3}, nil)

	bounds, ok := c.Guards(cursor(1, 0))
	require.True(t, ok)
	assert.True(t, bounds.IsLessThanOne)
	assert.False(t, bounds.IsGreaterThanTotal)

	bounds, ok = c.Guards(cursor(1, 2))
	require.True(t, ok)
	assert.False(t, bounds.IsLessThanOne)
	assert.True(t, bounds.IsGreaterThanTotal)

	_, ok = c.Guards(cursor(7, 0))
	assert.False(t, ok)
}

func TestController_SinkErrorDoesNotBlockNavigation(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	nav := &recordingNavigator{}
	c := NewController(fakeCatalog{"lesson1": 3}, sink)

	got := c.GoNext(context.Background(), nav, "learner-1", cursor(1, 0))
	c.Wait()

	assert.Equal(t, KindChapter, got.Kind)
	assert.Equal(t, []string{"/lesson/1/chapter/2"}, nav.paths)
	assert.Len(t, sink.received(), 1)
}

func TestController_AnonymousLearnerNotReported(t *testing.T) {
	sink := &recordingSink{}
	c := NewController(fakeCatalog{"lesson1": 3}, sink)

	got := c.GoNext(context.Background(), nil, "", cursor(1, 0))
	c.Wait()

	assert.Equal(t, KindChapter, got.Kind)
	assert.Empty(t, sink.received())
}

func TestController_CancelledRequestStillReports(t *testing.T) {
	sink := &recordingSink{}
	c := NewController(fakeCatalog{"lesson1": 3}, sink)

	ctx, cancel := context.WithCancel(context.Background())
	c.GoNext(ctx, nil, "learner-1", cursor(1, 1))
	cancel()
	c.Wait()

	assert.Len(t, sink.received(), 1)
}
