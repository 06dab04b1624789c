package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Event Interface and Base Event
// -----------------------------------------------------------------------------

// Event represents a domain event
type Event interface {
	// EventID returns the unique identifier for this event
	EventID() uuid.UUID
	// EventType returns the type name of this event
	EventType() string
	// OccurredAt returns when this event occurred
	OccurredAt() time.Time
	// AggregateID returns the ID of the aggregate that produced this event
	AggregateID() string
}

// BaseEvent provides common event fields
type BaseEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Aggregate string    `json:"aggregate_id"`
}

// NewBaseEvent creates a new BaseEvent
func NewBaseEvent(eventType, aggregateID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
		Aggregate: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.Aggregate }

// -----------------------------------------------------------------------------
// Progress Events
// -----------------------------------------------------------------------------

const EventChapterCompleted = "chapter.completed"

// ChapterCompletedEvent proposes a progress increment after a learner
// finishes a chapter. The progress owner applies it as max(old, Completed).
type ChapterCompletedEvent struct {
	BaseEvent
	LearnerID      string `json:"learner_id"`
	Lesson         int    `json:"lesson"`
	LessonKey      string `json:"lesson_key"`
	ChapterIndex   int    `json:"chapter_index"`
	Completed      int    `json:"completed"`
	LessonFinished bool   `json:"lesson_finished"`
}

// NewChapterCompletedEvent creates a completion event for the chapter at cursor
func NewChapterCompletedEvent(learnerID string, cursor Cursor, totalChapters int) ChapterCompletedEvent {
	return ChapterCompletedEvent{
		BaseEvent:      NewBaseEvent(EventChapterCompleted, learnerID),
		LearnerID:      learnerID,
		Lesson:         cursor.Lesson,
		LessonKey:      cursor.LessonKey(),
		ChapterIndex:   cursor.ChapterIndex,
		Completed:      cursor.ChapterIndex + 1,
		LessonFinished: cursor.ChapterIndex == totalChapters-1,
	}
}

// Validate checks that the event can be applied to a progress record
func (e ChapterCompletedEvent) Validate() error {
	if e.LessonKey == "" || e.Lesson < 1 {
		return fmt.Errorf("%w: lesson is required", ErrInvalidEvent)
	}
	if e.LessonKey != LessonKey(e.Lesson) {
		return fmt.Errorf("%w: lesson key %q does not match lesson %d", ErrInvalidEvent, e.LessonKey, e.Lesson)
	}
	if e.Completed < 1 {
		return fmt.Errorf("%w: completed count must be positive", ErrInvalidEvent)
	}
	return nil
}
