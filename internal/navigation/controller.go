// Package navigation moves a learner between chapters of a lesson and
// signals chapter completion to the progress owner.
package navigation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/lessonplay/internal/domain"
	"github.com/felixgeelhaar/lessonplay/internal/progression"
)

// Catalog reports a lesson's chapter count from its code scaffolds.
// ok is false while the scaffolds are not available.
type Catalog interface {
	ChapterCount(lessonKey string) (count int, ok bool)
}

// Navigator receives the route to show next
type Navigator interface {
	Push(path string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(path string)

// Push calls f(path)
func (f NavigatorFunc) Push(path string) { f(path) }

// CompletionSink accepts chapter completion events. Delivery is best
// effort; navigation never waits for it.
type CompletionSink interface {
	Complete(ctx context.Context, event domain.ChapterCompletedEvent) error
}

// Kind classifies a navigation outcome
type Kind string

const (
	KindNone           Kind = "none"
	KindChapter        Kind = "chapter"
	KindLessonComplete Kind = "lesson_complete"
)

// Reasons for a KindNone transition
const (
	ReasonNotReady     = "not ready"
	ReasonEmptyLesson  = "lesson has no chapters"
	ReasonOutOfRange   = "chapter out of range"
	ReasonFirstChapter = "already at first chapter"
)

// Transition is the result of a navigation request
type Transition struct {
	Kind   Kind          `json:"kind"`
	Path   string        `json:"path,omitempty"`
	From   domain.Cursor `json:"from"`
	Reason string        `json:"reason,omitempty"`
}

// Moved reports whether the transition changed the route
func (t Transition) Moved() bool {
	return t.Kind != KindNone
}

func none(from domain.Cursor, reason string) Transition {
	return Transition{Kind: KindNone, From: from, Reason: reason}
}

const defaultEmitTimeout = 10 * time.Second

// Controller implements forward and back stepping through a lesson
type Controller struct {
	catalog     Catalog
	sink        CompletionSink
	emitTimeout time.Duration
	wg          sync.WaitGroup
}

// NewController creates a controller. sink may be nil, in which case
// completions are dropped.
func NewController(catalog Catalog, sink CompletionSink) *Controller {
	return &Controller{
		catalog:     catalog,
		sink:        sink,
		emitTimeout: defaultEmitTimeout,
	}
}

// Guards returns the boundary predicates for the cursor's lesson.
// ok is false while the lesson's code catalog is not ready.
func (c *Controller) Guards(cursor domain.Cursor) (progression.Bounds, bool) {
	total, ok := c.catalog.ChapterCount(cursor.LessonKey())
	if !ok {
		return progression.Bounds{}, false
	}
	return progression.ComputeBounds(cursor.ChapterIndex, total), true
}

// GoNext advances to the next chapter, or to the lesson-complete route
// from the last chapter. Either way the current chapter is reported as
// completed for learnerID.
func (c *Controller) GoNext(ctx context.Context, nav Navigator, learnerID string, cursor domain.Cursor) Transition {
	total, ok := c.catalog.ChapterCount(cursor.LessonKey())
	if !ok {
		return none(cursor, ReasonNotReady)
	}
	if total == 0 {
		return none(cursor, ReasonEmptyLesson)
	}
	if cursor.ChapterIndex < 0 || cursor.ChapterIndex > total-1 {
		return none(cursor, ReasonOutOfRange)
	}

	t := Transition{From: cursor}
	if cursor.ChapterIndex == total-1 {
		t.Kind = KindLessonComplete
		t.Path = LessonCompletePath(cursor.Lesson)
	} else {
		t.Kind = KindChapter
		t.Path = ChapterPath(cursor.Lesson, cursor.ChapterIndex+2)
	}

	c.emit(ctx, domain.NewChapterCompletedEvent(learnerID, cursor, total))
	if nav != nil {
		nav.Push(t.Path)
	}
	return t
}

// GoBack returns to the previous chapter
func (c *Controller) GoBack(ctx context.Context, nav Navigator, cursor domain.Cursor) Transition {
	if progression.IsLessThanOne(cursor.ChapterIndex) {
		return none(cursor, ReasonFirstChapter)
	}
	if total, ok := c.catalog.ChapterCount(cursor.LessonKey()); ok && cursor.ChapterIndex > total-1 {
		return none(cursor, ReasonOutOfRange)
	}

	t := Transition{
		Kind: KindChapter,
		Path: ChapterPath(cursor.Lesson, cursor.ChapterIndex),
		From: cursor,
	}
	if nav != nil {
		nav.Push(t.Path)
	}
	return t
}

// Wait blocks until in-flight completion deliveries finish
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) emit(ctx context.Context, event domain.ChapterCompletedEvent) {
	if c.sink == nil {
		return
	}
	if event.LearnerID == "" {
		slog.Debug("skipping completion for anonymous learner", "lesson", event.LessonKey, "chapter", event.ChapterIndex)
		return
	}

	// Detach from the request so delivery outlives it
	ctx = context.WithoutCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, c.emitTimeout)
		defer cancel()

		if err := c.sink.Complete(ctx, event); err != nil {
			slog.Warn("chapter completion not delivered",
				"learner_id", event.LearnerID,
				"lesson", event.LessonKey,
				"completed", event.Completed,
				"error", err,
			)
		}
	}()
}
