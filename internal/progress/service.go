// Package progress owns learner progress. It applies chapter completion
// events and serves read-only snapshots to the progression resolver.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/lessonplay/internal/domain"
)

// ErrNoCompletionLog is returned by history queries when the store keeps
// no completion log
var ErrNoCompletionLog = errors.New("progress store keeps no completion log")

// Service applies completion events to a Store
type Service struct {
	store Store
	log   CompletionLog
}

// NewService creates a progress service. If store also implements
// CompletionLog, applied events are recorded there.
func NewService(store Store) *Service {
	s := &Service{store: store}
	if log, ok := store.(CompletionLog); ok {
		s.log = log
	}
	return s
}

// Snapshot returns the learner's progress. An empty learnerID yields the
// anonymous record, and a learner with no stored progress gets an empty
// loaded record.
func (s *Service) Snapshot(ctx context.Context, learnerID string) (domain.ProgressRecord, error) {
	if learnerID == "" {
		return domain.AnonymousProgress(), nil
	}

	record, err := s.store.Get(ctx, learnerID)
	if err != nil {
		if errors.Is(err, domain.ErrProgressNotFound) {
			return domain.NewProgressRecord(learnerID), nil
		}
		return domain.ProgressRecord{}, fmt.Errorf("get progress: %w", err)
	}

	record.LearnerID = learnerID
	record.Loaded = true
	record.Empty = false
	if record.Completed == nil {
		record.Completed = make(map[string]int)
	}
	return record, nil
}

// Apply raises the learner's completed count for the event's lesson.
// Redelivered or stale events leave the stored count unchanged.
func (s *Service) Apply(ctx context.Context, event domain.ChapterCompletedEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if event.LearnerID == "" {
		return fmt.Errorf("%w: learner is required", domain.ErrInvalidEvent)
	}

	if s.log != nil {
		if err := s.log.RecordCompletion(ctx, event); err != nil {
			slog.Warn("failed to record completion", "event_id", event.EventID(), "error", err)
		}
	}

	changed, err := s.store.Advance(ctx, event.LearnerID, event.LessonKey, event.Completed)
	if err != nil {
		return fmt.Errorf("advance progress: %w", err)
	}

	slog.Debug("completion applied",
		"learner_id", event.LearnerID,
		"lesson", event.LessonKey,
		"completed", event.Completed,
		"changed", changed,
	)
	if changed && event.LessonFinished {
		slog.Info("lesson finished", "learner_id", event.LearnerID, "lesson", event.LessonKey)
	}
	return nil
}

// Complete implements navigation.CompletionSink
func (s *Service) Complete(ctx context.Context, event domain.ChapterCompletedEvent) error {
	return s.Apply(ctx, event)
}

// Reset clears a learner's progress
func (s *Service) Reset(ctx context.Context, learnerID string) error {
	if learnerID == "" {
		return fmt.Errorf("%w: learner is required", domain.ErrProgressNotFound)
	}
	if err := s.store.Reset(ctx, learnerID); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	slog.Info("progress reset", "learner_id", learnerID)
	return nil
}

// History returns the completion events recorded for a learner
func (s *Service) History(ctx context.Context, learnerID string) ([]domain.ChapterCompletedEvent, error) {
	if s.log == nil {
		return nil, ErrNoCompletionLog
	}
	if learnerID == "" {
		return []domain.ChapterCompletedEvent{}, nil
	}
	events, err := s.log.Completions(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return events, nil
}

// Learners lists learners with stored progress
func (s *Service) Learners(ctx context.Context) ([]string, error) {
	if s.log == nil {
		return nil, ErrNoCompletionLog
	}
	learners, err := s.log.Learners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}
	return learners, nil
}
