package progress

import (
	"context"

	"github.com/felixgeelhaar/lessonplay/internal/domain"
)

// Store persists learner progress records
type Store interface {
	// Get returns the record for a learner, or domain.ErrProgressNotFound
	Get(ctx context.Context, learnerID string) (domain.ProgressRecord, error)

	// Advance raises a lesson's completed count to at least count and
	// reports whether it changed. It must never lower a stored count.
	Advance(ctx context.Context, learnerID, lessonKey string, count int) (bool, error)

	// Reset removes all progress for a learner
	Reset(ctx context.Context, learnerID string) error
}

// CompletionLog is implemented by stores that keep an audit trail of
// applied completion events
type CompletionLog interface {
	RecordCompletion(ctx context.Context, event domain.ChapterCompletedEvent) error

	// Completions returns a learner's recorded events, oldest first
	Completions(ctx context.Context, learnerID string) ([]domain.ChapterCompletedEvent, error)

	// Learners lists every learner with stored progress, whether or not
	// any completion was logged for them
	Learners(ctx context.Context) ([]string, error)
}
