// Package player combines the catalog, progress and navigation packages
// into the operations a lesson player front end calls.
package player

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/lessonplay/internal/catalog"
	"github.com/felixgeelhaar/lessonplay/internal/domain"
	"github.com/felixgeelhaar/lessonplay/internal/navigation"
	"github.com/felixgeelhaar/lessonplay/internal/progress"
	"github.com/felixgeelhaar/lessonplay/internal/progression"
)

// Service serves lesson lists, chapter views and navigation
type Service struct {
	registry      *catalog.Registry
	progress      *progress.Service
	controller    *navigation.Controller
	defaultLocale string
}

// Config holds the collaborators of a Service
type Config struct {
	Registry *catalog.Registry
	Progress *progress.Service
	// Sink receives chapter completions. Defaults to Progress.
	Sink          navigation.CompletionSink
	DefaultLocale string
}

// NewService creates a player service
func NewService(cfg Config) *Service {
	sink := cfg.Sink
	if sink == nil && cfg.Progress != nil {
		sink = cfg.Progress
	}
	locale := cfg.DefaultLocale
	if locale == "" {
		locale = "en"
	}
	return &Service{
		registry:      cfg.Registry,
		progress:      cfg.Progress,
		controller:    navigation.NewController(cfg.Registry, sink),
		defaultLocale: locale,
	}
}

// Locale returns locale, or the default locale when empty
func (s *Service) Locale(locale string) string {
	if locale == "" {
		return s.defaultLocale
	}
	return locale
}

// LessonSummary is one entry of the lesson list
type LessonSummary struct {
	Number         int      `json:"number"`
	Key            string   `json:"key"`
	Title          string   `json:"title"`
	Chapters       []string `json:"chapters"`
	Total          int      `json:"total"`
	Completed      int      `json:"completed"`
	ChapterToStart int      `json:"chapter_to_start"`
	ProgressLabel  string   `json:"progress_label"`
	ResumePath     string   `json:"resume_path"`
	Translated     bool     `json:"translated"`
}

// LessonList is the lesson list for one learner and locale
type LessonList struct {
	Locale         string          `json:"locale"`
	ProgressLoaded bool            `json:"progress_loaded"`
	Lessons        []LessonSummary `json:"lessons"`
}

// ListLessons returns every lesson with its resume target. If progress
// cannot be read the list is still returned, without progress labels.
func (s *Service) ListLessons(ctx context.Context, learnerID, locale string) (LessonList, error) {
	c, err := s.catalog()
	if err != nil {
		return LessonList{}, err
	}
	locale = s.Locale(locale)

	record, err := s.progress.Snapshot(ctx, learnerID)
	if err != nil {
		slog.Warn("progress unavailable for lesson list", "learner_id", learnerID, "error", err)
		record = domain.ProgressRecord{}
	}

	list := LessonList{
		Locale:         locale,
		ProgressLoaded: record.Loaded,
		Lessons:        make([]LessonSummary, 0),
	}
	for _, lesson := range c.Lessons() {
		resume := progression.ResolveResume(lesson, record)
		_, translated := c.Instruction(locale, lesson.Key(), 0)
		list.Lessons = append(list.Lessons, LessonSummary{
			Number:         lesson.Number,
			Key:            lesson.Key(),
			Title:          lesson.Title,
			Chapters:       lesson.Chapters,
			Total:          resume.Total,
			Completed:      resume.Completed,
			ChapterToStart: resume.ChapterToStart,
			ProgressLabel:  resume.ProgressLabel,
			ResumePath:     progression.ResumePath(lesson, record),
			Translated:     translated,
		})
	}
	return list, nil
}

// ChapterView is everything the chapter screen renders
type ChapterView struct {
	Lesson       int                    `json:"lesson"`
	Chapter      int                    `json:"chapter"`
	ChapterIndex int                    `json:"chapter_index"`
	Locale       string                 `json:"locale"`
	LessonTitle  string                 `json:"lesson_title"`
	ChapterTitle string                 `json:"chapter_title,omitempty"`
	Available    bool                   `json:"available"`
	Content      *domain.ChapterContent `json:"content,omitempty"`
	Ready        bool                   `json:"ready"`
	Bounds       *progression.Bounds    `json:"bounds,omitempty"`
	Step         progression.Step       `json:"step"`
}

// Chapter resolves the content and navigation state for a cursor.
// Missing content is reported through Available, not as an error.
func (s *Service) Chapter(locale string, cursor domain.Cursor) (ChapterView, error) {
	c, err := s.catalog()
	if err != nil {
		return ChapterView{}, err
	}
	lesson, ok := c.Lesson(cursor.Lesson)
	if !ok {
		return ChapterView{}, fmt.Errorf("lesson %d: %w", cursor.Lesson, domain.ErrLessonNotFound)
	}
	locale = s.Locale(locale)

	view := ChapterView{
		Lesson:       cursor.Lesson,
		Chapter:      cursor.ChapterNumber(),
		ChapterIndex: cursor.ChapterIndex,
		Locale:       locale,
		LessonTitle:  lesson.Title,
	}
	if cursor.ChapterIndex >= 0 && cursor.ChapterIndex < len(lesson.Chapters) {
		view.ChapterTitle = lesson.Chapters[cursor.ChapterIndex]
	}

	if content, ok := c.ResolveChapterContent(locale, cursor.LessonKey(), cursor.ChapterIndex); ok {
		view.Available = true
		view.Content = &content
	}

	if bounds, ready := s.controller.Guards(cursor); ready {
		total, _ := c.ChapterCount(cursor.LessonKey())
		view.Ready = true
		view.Bounds = &bounds
		view.Step = progression.StepProgress(cursor.ChapterIndex, total)
	}
	return view, nil
}

// Next finishes the current chapter for learnerID and moves forward
func (s *Service) Next(ctx context.Context, learnerID string, cursor domain.Cursor) navigation.Transition {
	return s.controller.GoNext(ctx, nil, learnerID, cursor)
}

// Back moves to the previous chapter
func (s *Service) Back(ctx context.Context, cursor domain.Cursor) navigation.Transition {
	return s.controller.GoBack(ctx, nil, cursor)
}

// LessonProgress is one lesson's share of a learner's progress
type LessonProgress struct {
	Lesson    int     `json:"lesson"`
	Key       string  `json:"key"`
	Title     string  `json:"title"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Fraction  float64 `json:"fraction"`
}

// ProgressView is a learner's progress across the catalog
type ProgressView struct {
	LearnerID string           `json:"learner_id,omitempty"`
	Anonymous bool             `json:"anonymous"`
	Completed map[string]int   `json:"completed"`
	Lessons   []LessonProgress `json:"lessons"`
}

// Progress returns the learner's completed counts. Lessons is empty while
// the catalog is not loaded.
func (s *Service) Progress(ctx context.Context, learnerID string) (ProgressView, error) {
	record, err := s.progress.Snapshot(ctx, learnerID)
	if err != nil {
		return ProgressView{}, err
	}

	view := ProgressView{
		LearnerID: record.LearnerID,
		Anonymous: record.Empty,
		Completed: record.Completed,
		Lessons:   make([]LessonProgress, 0),
	}
	for _, lesson := range s.registry.Snapshot().Lessons() {
		completed := record.CompletedCount(lesson.Key())
		view.Lessons = append(view.Lessons, LessonProgress{
			Lesson:    lesson.Number,
			Key:       lesson.Key(),
			Title:     lesson.Title,
			Completed: completed,
			Total:     lesson.TotalChapters(),
			Fraction:  progression.Fraction(completed, lesson.TotalChapters()),
		})
	}
	return view, nil
}

// Reset clears a learner's progress
func (s *Service) Reset(ctx context.Context, learnerID string) error {
	return s.progress.Reset(ctx, learnerID)
}

// History returns the learner's recorded chapter completions
func (s *Service) History(ctx context.Context, learnerID string) ([]domain.ChapterCompletedEvent, error) {
	return s.progress.History(ctx, learnerID)
}

// Learners lists learners with stored progress
func (s *Service) Learners(ctx context.Context) ([]string, error) {
	return s.progress.Learners(ctx)
}

// Reload re-reads the catalog from disk
func (s *Service) Reload() (catalog.Stats, error) {
	if err := s.registry.Reload(); err != nil {
		return catalog.Stats{}, err
	}
	return s.registry.Snapshot().Stats(), nil
}

// Validate checks the loaded catalog for inconsistencies
func (s *Service) Validate() (*catalog.Report, error) {
	c, err := s.catalog()
	if err != nil {
		return nil, err
	}
	return catalog.Validate(c), nil
}

// Stats summarizes the loaded catalog
func (s *Service) Stats() catalog.Stats {
	return s.registry.Snapshot().Stats()
}

// CatalogLoadedAt returns when the current snapshot was loaded
func (s *Service) CatalogLoadedAt() time.Time {
	return s.registry.LoadedAt()
}

// CatalogLoaded reports whether a catalog snapshot is available
func (s *Service) CatalogLoaded() bool {
	return s.registry.Loaded()
}

// CatalogPath returns the directory the catalog is loaded from
func (s *Service) CatalogPath() string {
	return s.registry.Loader().BasePath()
}

// Wait blocks until in-flight completion deliveries finish
func (s *Service) Wait() {
	s.controller.Wait()
}

func (s *Service) catalog() (*catalog.Catalog, error) {
	c := s.registry.Snapshot()
	if c == nil {
		return nil, domain.ErrCatalogNotLoaded
	}
	return c, nil
}
