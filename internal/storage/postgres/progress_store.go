package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/lessonplay/internal/domain"
	"github.com/felixgeelhaar/lessonplay/internal/progress"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sqlc-dev/pqtype"
)

var (
	_ progress.Store         = (*ProgressStore)(nil)
	_ progress.CompletionLog = (*ProgressStore)(nil)
)

// ProgressStore implements progress persistence using PostgreSQL
type ProgressStore struct {
	pool *pgxpool.Pool
}

// NewProgressStore creates a new PostgreSQL progress store
func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

// Get returns a learner's completed counts
func (s *ProgressStore) Get(ctx context.Context, learnerID string) (domain.ProgressRecord, error) {
	query := `SELECT lesson_key, completed FROM learner_progress WHERE learner_id = $1`
	rows, err := s.pool.Query(ctx, query, learnerID)
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

// Advance raises a lesson's completed count, never lowering it
func (s *ProgressStore) Advance(ctx context.Context, learnerID, lessonKey string, count int) (bool, error) {
	query := `
		INSERT INTO learner_progress (learner_id, lesson_key, completed, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (learner_id, lesson_key) DO UPDATE SET
			completed = EXCLUDED.completed,
			updated_at = EXCLUDED.updated_at
		WHERE EXCLUDED.completed > learner_progress.completed
	`
	tag, err := s.pool.Exec(ctx, query, learnerID, lessonKey, count, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("upsert progress: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Reset deletes a learner's progress and completion history
func (s *ProgressStore) Reset(ctx context.Context, learnerID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM learner_progress WHERE learner_id = $1`, learnerID); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM chapter_completions WHERE learner_id = $1`, learnerID); err != nil {
		return fmt.Errorf("delete completions: %w", err)
	}
	return tx.Commit(ctx)
}

// RecordCompletion stores a completion event with its full payload as
// metadata. Redelivered events are ignored.
func (s *ProgressStore) RecordCompletion(ctx context.Context, event domain.ChapterCompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal completion: %w", err)
	}
	metadata := pqtype.NullRawMessage{RawMessage: payload, Valid: true}

	query := `
		INSERT INTO chapter_completions
			(event_id, learner_id, lesson_key, chapter_index, completed, lesson_finished, metadata, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
	`
	_, err = s.pool.Exec(ctx, query,
		event.EventID(), event.LearnerID, event.LessonKey, event.ChapterIndex,
		event.Completed, event.LessonFinished, metadata, event.OccurredAt(),
	)
	if err != nil {
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

// Completions returns a learner's completion history, oldest first
func (s *ProgressStore) Completions(ctx context.Context, learnerID string) ([]domain.ChapterCompletedEvent, error) {
	query := `
		SELECT event_id, lesson_key, chapter_index, completed, lesson_finished, metadata, occurred_at
		FROM chapter_completions WHERE learner_id = $1 ORDER BY occurred_at
	`
	rows, err := s.pool.Query(ctx, query, learnerID)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()

	events := make([]domain.ChapterCompletedEvent, 0)
	for rows.Next() {
		var e domain.ChapterCompletedEvent
		var metadata pqtype.NullRawMessage
		if err := rows.Scan(&e.ID, &e.LessonKey, &e.ChapterIndex, &e.Completed, &e.LessonFinished, &metadata, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		if metadata.Valid {
			var original domain.ChapterCompletedEvent
			if err := json.Unmarshal(metadata.RawMessage, &original); err == nil {
				e.Aggregate = original.Aggregate
				e.Lesson = original.Lesson
			}
		}
		e.Type = domain.EventChapterCompleted
		e.LearnerID = learnerID
		if e.Aggregate == "" {
			e.Aggregate = learnerID
		}
		if e.Lesson == 0 {
			e.Lesson, _ = domain.ParseLessonKey(e.LessonKey)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Learners lists learners with stored progress
func (s *ProgressStore) Learners(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT learner_id FROM learner_progress ORDER BY learner_id`)
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
