package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/lessonplay/internal/domain"
	"github.com/google/uuid"
)

// ProgressStore implements progress persistence backed by SQLite.
type ProgressStore struct {
	db *DB
}

// NewProgressStore creates a new SQLite-backed progress store.
func NewProgressStore(db *DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Get returns a learner's completed counts.
func (s *ProgressStore) Get(ctx context.Context, learnerID string) (domain.ProgressRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT lesson_key, completed FROM learner_progress WHERE learner_id = ?", learnerID)
	if err != nil {
		return domain.ProgressRecord{}, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	record := domain.NewProgressRecord(learnerID)
	found := false
	for rows.Next() {
		var key string
		var completed int
		if err := rows.Scan(&key, &completed); err != nil {
			return domain.ProgressRecord{}, fmt.Errorf("scan progress: %w", err)
		}
		record.Completed[key] = completed
		found = true
	}
	if err := rows.Err(); err != nil {
		return domain.ProgressRecord{}, err
	}
	if !found {
		return domain.ProgressRecord{}, domain.ErrProgressNotFound
	}
	return record, nil
}

// Advance raises a lesson's completed count. The upsert only fires when
// the new count is higher, so counts never go down.
func (s *ProgressStore) Advance(ctx context.Context, learnerID, lessonKey string, count int) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO learner_progress (learner_id, lesson_key, completed, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(learner_id, lesson_key) DO UPDATE SET
			completed = excluded.completed,
			updated_at = excluded.updated_at
		WHERE excluded.completed > learner_progress.completed`,
		learnerID, lessonKey, count, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("upsert progress: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Reset deletes a learner's progress and completion history.
func (s *ProgressStore) Reset(ctx context.Context, learnerID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM learner_progress WHERE learner_id = ?", learnerID); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chapter_completions WHERE learner_id = ?", learnerID); err != nil {
		return fmt.Errorf("delete completions: %w", err)
	}
	return tx.Commit()
}

// RecordCompletion stores a completion event. Redelivered events are ignored.
func (s *ProgressStore) RecordCompletion(ctx context.Context, event domain.ChapterCompletedEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO chapter_completions
			(event_id, learner_id, lesson_key, chapter_index, completed, lesson_finished, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.EventID().String(), event.LearnerID, event.LessonKey,
		event.ChapterIndex, event.Completed, event.LessonFinished, event.OccurredAt().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

// Completions returns a learner's completion history, oldest first.
func (s *ProgressStore) Completions(ctx context.Context, learnerID string) ([]domain.ChapterCompletedEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, lesson_key, chapter_index, completed, lesson_finished, occurred_at
		FROM chapter_completions WHERE learner_id = ? ORDER BY occurred_at`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()

	events := make([]domain.ChapterCompletedEvent, 0)
	for rows.Next() {
		var id string
		e := domain.ChapterCompletedEvent{LearnerID: learnerID}
		if err := rows.Scan(&id, &e.LessonKey, &e.ChapterIndex, &e.Completed, &e.LessonFinished, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse event id %q: %w", id, err)
		}
		e.ID = parsed
		e.Type = domain.EventChapterCompleted
		e.Aggregate = learnerID
		e.Lesson, _ = domain.ParseLessonKey(e.LessonKey)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Learners lists learners with stored progress.
func (s *ProgressStore) Learners(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT learner_id FROM learner_progress ORDER BY learner_id")
	if err != nil {
		return nil, fmt.Errorf("query learners: %w", err)
	}
	defer rows.Close()

	learners := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan learner: %w", err)
		}
		learners = append(learners, id)
	}
	return learners, rows.Err()
}
