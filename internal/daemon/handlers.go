package daemon

import (
	"errors"
	"net/http"
	"time"

	"github.com/felixgeelhaar/lessonplay/internal/domain"
	"github.com/felixgeelhaar/lessonplay/internal/navigation"
	"github.com/felixgeelhaar/lessonplay/internal/progress"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"catalog_loaded": s.player.CatalogLoaded(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"status":            "running",
		"version":           Version,
		"catalog":           s.player.Stats(),
		"catalog_path":      s.player.CatalogPath(),
		"catalog_loaded_at": s.player.CatalogLoadedAt(),
		"default_locale":    s.cfg.Catalog.DefaultLocale,
		"progress_backend":  s.cfg.Progress.Backend,
		"queue_enabled":     s.cfg.Queue.Enabled,
	})
}

// Lesson handlers

func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	list, err := s.player.ListLessons(r.Context(), GetLearnerID(r.Context()), r.URL.Query().Get("locale"))
	if err != nil {
		s.playerError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, list)
}

func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	cursor, ok := s.cursor(w, r)
	if !ok {
		return
	}

	view, err := s.player.Chapter(r.URL.Query().Get("locale"), cursor)
	if err != nil {
		s.playerError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, view)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	cursor, ok := s.cursor(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, s.player.Next(r.Context(), GetLearnerID(r.Context()), cursor))
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	cursor, ok := s.cursor(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, s.player.Back(r.Context(), cursor))
}

// Progress handlers

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	view, err := s.player.Progress(r.Context(), GetLearnerID(r.Context()))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to read progress", err)
		return
	}
	jsonResponse(w, http.StatusOK, view)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	learnerID := GetLearnerID(r.Context())
	events, err := s.player.History(r.Context(), learnerID)
	if err != nil {
		if errors.Is(err, progress.ErrNoCompletionLog) {
			jsonError(w, http.StatusNotImplemented, "completion history unavailable", err)
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to read history", err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"learner_id":  learnerID,
		"completions": events,
	})
}

// Catalog handlers

func (s *Server) handleValidateCatalog(w http.ResponseWriter, r *http.Request) {
	report, err := s.player.Validate()
	if err != nil {
		s.playerError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

func (s *Server) handleReloadCatalog(w http.ResponseWriter, r *http.Request) {
	stats, err := s.player.Reload()
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "catalog reload failed", err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"reloaded": true,
		"catalog":  stats,
	})
}

// cursor parses the lesson and chapter path values, writing a 400 on failure
func (s *Server) cursor(w http.ResponseWriter, r *http.Request) (domain.Cursor, bool) {
	cursor, err := navigation.ParseCursor(r.PathValue("lesson"), r.PathValue("chapter"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid lesson route", err)
		return domain.Cursor{}, false
	}
	return cursor, true
}

func (s *Server) playerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrCatalogNotLoaded):
		jsonError(w, http.StatusServiceUnavailable, "catalog not loaded", err)
	case errors.Is(err, domain.ErrLessonNotFound):
		jsonError(w, http.StatusNotFound, "lesson not found", err)
	default:
		jsonError(w, http.StatusInternalServerError, "internal error", err)
	}
}
