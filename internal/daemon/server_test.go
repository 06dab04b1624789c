package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/lessonplay/internal/catalog"
	"github.com/felixgeelhaar/lessonplay/internal/config"
	"github.com/felixgeelhaar/lessonplay/internal/player"
	"github.com/felixgeelhaar/lessonplay/internal/progress"
)

var testCatalogFiles = map[string]string{
	"lessons.yaml": `lessons:
  - title: Basics
    chapters: [Contracts, Fields]
  - title: Types
    chapters: [Integers]
`,
	"codes/lesson1.yaml": `chapters:
  - initial_code: "contract A()"
    answer_code: "contract A()\nend"
  - initial_code: ""
    answer_code: "field f : Uint32 = Uint32 0"
`,
	"instructions/en.yaml": `lesson1:
  - title: Contracts
    content: "Declare a contract."
  - title: Fields
    content: "Declare a field."
`,
}

// setupTestServer creates a server over a small catalog and in-memory progress
func setupTestServer(t *testing.T, loadCatalog bool) *Server {
	t.Helper()

	dir := t.TempDir()
	catalogDir := filepath.Join(dir, "catalog")
	for name, content := range testCatalogFiles {
		path := filepath.Join(catalogDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.DefaultLocalConfig(dir)
	cfg.RateLimit.Enabled = false

	registry := catalog.NewRegistry(catalog.NewLoader(catalogDir))
	if loadCatalog {
		if err := registry.Load(); err != nil {
			t.Fatalf("load catalog: %v", err)
		}
	}

	server, err := NewServer(ServerConfig{
		Config: cfg,
		Player: player.NewService(player.Config{
			Registry:      registry,
			Progress:      progress.NewService(progress.NewMemoryStore()),
			DefaultLocale: cfg.Catalog.DefaultLocale,
		}),
	})
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	t.Cleanup(func() { server.Shutdown(context.Background()) })
	return server
}

func doRequest(t *testing.T, s *Server, method, path, learnerID string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if learnerID != "" {
		req.Header.Set(LearnerIDHeader, learnerID)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response for %s %s: %v", method, path, err)
	}
	return rec, body
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	if _, err := NewServer(ServerConfig{}); err == nil {
		t.Error("NewServer() without config should fail")
	}
	if _, err := NewServer(ServerConfig{Config: config.DefaultLocalConfig(t.TempDir())}); err == nil {
		t.Error("NewServer() without player should fail")
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := setupTestServer(t, true)

	rec, body := doRequest(t, s, http.MethodGet, "/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", body["status"])
	}
	if body["catalog_loaded"] != true {
		t.Errorf("catalog_loaded = %v, want true", body["catalog_loaded"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	s := setupTestServer(t, true)

	rec, body := doRequest(t, s, http.MethodGet, "/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["version"] != Version {
		t.Errorf("version = %v, want %s", body["version"], Version)
	}
	if body["progress_backend"] != config.BackendLocal {
		t.Errorf("progress_backend = %v", body["progress_backend"])
	}
}

func TestListLessons(t *testing.T) {
	s := setupTestServer(t, true)

	rec, body := doRequest(t, s, http.MethodGet, "/v1/lessons", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	lessons, ok := body["lessons"].([]any)
	if !ok || len(lessons) != 2 {
		t.Fatalf("lessons = %v, want 2 entries", body["lessons"])
	}
	first := lessons[0].(map[string]any)
	if first["resume_path"] != "/lesson/1/chapter/1" {
		t.Errorf("resume_path = %v", first["resume_path"])
	}
	if first["progress_label"] != "" {
		t.Errorf("anonymous progress_label = %v, want empty", first["progress_label"])
	}
}

func TestListLessons_CatalogNotLoaded(t *testing.T) {
	s := setupTestServer(t, false)

	rec, body := doRequest(t, s, http.MethodGet, "/v1/lessons", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if body["error"] != "catalog not loaded" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestGetChapter(t *testing.T) {
	s := setupTestServer(t, true)

	tests := []struct {
		name          string
		path          string
		wantStatus    int
		wantAvailable bool
	}{
		{"available", "/v1/lessons/1/chapters/1", http.StatusOK, true},
		{"other locale", "/v1/lessons/1/chapters/1?locale=fr", http.StatusOK, false},
		{"out of range", "/v1/lessons/1/chapters/5", http.StatusOK, false},
		{"unknown lesson", "/v1/lessons/7/chapters/1", http.StatusNotFound, false},
		{"bad route", "/v1/lessons/abc/chapters/1", http.StatusBadRequest, false},
		{"negative chapter", "/v1/lessons/1/chapters/-9223372036854775808", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doRequest(t, s, http.MethodGet, tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%v)", rec.Code, tt.wantStatus, body)
			}
			if rec.Code != http.StatusOK {
				return
			}
			if body["available"] != tt.wantAvailable {
				t.Errorf("available = %v, want %v", body["available"], tt.wantAvailable)
			}
		})
	}
}

func TestNavigation_CompletesChapters(t *testing.T) {
	s := setupTestServer(t, true)

	rec, body := doRequest(t, s, http.MethodPost, "/v1/lessons/1/chapters/1/next", "learner-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["kind"] != "chapter" || body["path"] != "/lesson/1/chapter/2" {
		t.Errorf("next transition = %v", body)
	}

	_, body = doRequest(t, s, http.MethodPost, "/v1/lessons/1/chapters/2/next", "learner-1")
	if body["kind"] != "lesson_complete" || body["path"] != "/lesson-complete/1" {
		t.Errorf("last next transition = %v", body)
	}

	_, body = doRequest(t, s, http.MethodPost, "/v1/lessons/1/chapters/2/back", "learner-1")
	if body["path"] != "/lesson/1/chapter/1" {
		t.Errorf("back transition = %v", body)
	}

	s.player.Wait()

	_, body = doRequest(t, s, http.MethodGet, "/v1/progress", "learner-1")
	completed := body["completed"].(map[string]any)
	if completed["lesson1"] != float64(2) {
		t.Errorf("completed[lesson1] = %v, want 2", completed["lesson1"])
	}

	_, body = doRequest(t, s, http.MethodGet, "/v1/lessons", "learner-1")
	first := body["lessons"].([]any)[0].(map[string]any)
	if first["progress_label"] != "(2/2)" {
		t.Errorf("progress_label = %v, want (2/2)", first["progress_label"])
	}
}

func TestNavigation_NoOps(t *testing.T) {
	s := setupTestServer(t, true)

	tests := []struct {
		name       string
		path       string
		wantReason string
	}{
		{"back from first chapter", "/v1/lessons/1/chapters/1/back", "already at first chapter"},
		{"next without code scaffold", "/v1/lessons/2/chapters/1/next", "not ready"},
		{"next past the end", "/v1/lessons/1/chapters/9/next", "chapter out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doRequest(t, s, http.MethodPost, tt.path, "learner-1")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if body["kind"] != "none" || body["reason"] != tt.wantReason {
				t.Errorf("transition = %v, want none/%s", body, tt.wantReason)
			}
		})
	}
}

func TestGetProgress_Anonymous(t *testing.T) {
	s := setupTestServer(t, true)

	rec, body := doRequest(t, s, http.MethodGet, "/v1/progress", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["anonymous"] != true {
		t.Errorf("anonymous = %v, want true", body["anonymous"])
	}
}

func TestGetHistory_WithoutCompletionLog(t *testing.T) {
	s := setupTestServer(t, true)

	rec, body := doRequest(t, s, http.MethodGet, "/v1/progress/history", "learner-1")
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", rec.Code)
	}
	if body["error"] != "completion history unavailable" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestCatalogEndpoints(t *testing.T) {
	s := setupTestServer(t, false)

	rec, _ := doRequest(t, s, http.MethodGet, "/v1/catalog/validate", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("validate before load status = %d, want 503", rec.Code)
	}

	rec, body := doRequest(t, s, http.MethodPost, "/v1/catalog/reload", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reload status = %d, want 200 (%v)", rec.Code, body)
	}
	stats := body["catalog"].(map[string]any)
	if stats["lesson_count"] != float64(2) {
		t.Errorf("lesson_count = %v, want 2", stats["lesson_count"])
	}

	rec, body = doRequest(t, s, http.MethodGet, "/v1/catalog/validate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("validate status = %d, want 200", rec.Code)
	}
	if warnings := body["warnings"].([]any); len(warnings) == 0 {
		t.Error("expected warnings for lesson2 without code scaffold")
	}
}

func TestUnknownRoute(t *testing.T) {
	s := setupTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/v1/unknown", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
