package local

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/lessonplay/internal/domain"
)

const (
	progressCollection    = "progress"
	completionsCollection = "completions"
)

type progressDocument struct {
	LearnerID string         `json:"learner_id"`
	Completed map[string]int `json:"completed"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ProgressStore keeps one JSON document per learner
type ProgressStore struct {
	store *Store
	mu    sync.Mutex // serializes read-modify-write in Advance
}

// NewProgressStore creates a progress store on top of a JSON store
func NewProgressStore(store *Store) *ProgressStore {
	return &ProgressStore{store: store}
}

// Get returns the learner's progress record
func (p *ProgressStore) Get(ctx context.Context, learnerID string) (domain.ProgressRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProgressRecord{}, err
	}

	doc, err := p.load(learnerID)
	if err != nil {
		return domain.ProgressRecord{}, err
	}

	record := domain.NewProgressRecord(learnerID)
	for key, count := range doc.Completed {
		record.Completed[key] = count
	}
	return record, nil
}

// Advance raises a lesson's completed count, never lowering it
func (p *ProgressStore) Advance(ctx context.Context, learnerID, lessonKey string, count int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.load(learnerID)
	if errors.Is(err, domain.ErrProgressNotFound) {
		doc = progressDocument{LearnerID: learnerID, Completed: make(map[string]int)}
	} else if err != nil {
		return false, err
	}
	if doc.Completed == nil {
		doc.Completed = make(map[string]int)
	}

	if count <= doc.Completed[lessonKey] {
		return false, nil
	}
	doc.Completed[lessonKey] = count
	doc.UpdatedAt = time.Now().UTC()

	if err := p.store.Save(progressCollection, learnerID, doc); err != nil {
		return false, fmt.Errorf("save progress: %w", err)
	}
	return true, nil
}

// Reset removes the learner's progress and completion history
func (p *ProgressStore) Reset(ctx context.Context, learnerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Delete(progressCollection, learnerID); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete progress: %w", err)
	}
	return p.store.RemoveEntries(completionsCollection, learnerID)
}

// RecordCompletion appends a completion event to the learner's history
func (p *ProgressStore) RecordCompletion(ctx context.Context, event domain.ChapterCompletedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.store.Append(completionsCollection, event.LearnerID, event.EventID().String(), event)
}

// Completions returns the learner's recorded completion events
func (p *ProgressStore) Completions(ctx context.Context, learnerID string) ([]domain.ChapterCompletedEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names, err := p.store.Entries(completionsCollection, learnerID)
	if err != nil {
		return nil, err
	}

	events := make([]domain.ChapterCompletedEvent, 0, len(names))
	for _, name := range names {
		var event domain.ChapterCompletedEvent
		if err := p.store.LoadEntry(completionsCollection, learnerID, name, &event); err != nil {
			return nil, fmt.Errorf("read completion %s: %w", name, err)
		}
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].OccurredAt().Before(events[j].OccurredAt())
	})
	return events, nil
}

// Learners lists learners with stored progress
func (p *ProgressStore) Learners(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.store.List(progressCollection)
}

func (p *ProgressStore) load(learnerID string) (progressDocument, error) {
	var doc progressDocument
	if !p.store.Exists(progressCollection, learnerID) {
		return doc, domain.ErrProgressNotFound
	}
	if err := p.store.Load(progressCollection, learnerID, &doc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return doc, domain.ErrProgressNotFound
		}
		return doc, fmt.Errorf("load progress: %w", err)
	}
	return doc, nil
}
