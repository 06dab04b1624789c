package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/google/uuid"
)

func TestGetCorrelationID(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"set", "corr-123", "corr-123"},
		{"wrong type", 12345, ""},
		{"missing", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.value != nil {
				ctx = context.WithValue(ctx, CorrelationIDKey, tt.value)
			}
			if got := GetCorrelationID(ctx); got != tt.want {
				t.Errorf("GetCorrelationID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCorrelationIDMiddleware(t *testing.T) {
	t.Run("generates id", func(t *testing.T) {
		var captured string
		handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetCorrelationID(r.Context())
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/lessons", nil))

		if _, err := uuid.Parse(captured); err != nil {
			t.Errorf("generated ID %q is not a UUID: %v", captured, err)
		}
		if got := rec.Header().Get(CorrelationIDHeader); got != captured {
			t.Errorf("response header = %q, want %q", got, captured)
		}
	})

	t.Run("propagates id", func(t *testing.T) {
		var captured string
		handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetCorrelationID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/lessons", nil)
		req.Header.Set(CorrelationIDHeader, "upstream-id")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if captured != "upstream-id" {
			t.Errorf("captured = %q, want upstream-id", captured)
		}
		if got := rec.Header().Get(CorrelationIDHeader); got != "upstream-id" {
			t.Errorf("response header = %q, want upstream-id", got)
		}
	})
}

func TestLearnerMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"signed in", "learner-7", "learner-7"},
		{"anonymous", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := learnerMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetLearnerID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/progress", nil)
			if tt.header != "" {
				req.Header.Set(LearnerIDHeader, tt.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("GetLearnerID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimitKey(t *testing.T) {
	anon := httptest.NewRequest(http.MethodGet, "/v1/lessons", nil)
	anon.RemoteAddr = "10.0.0.5:51234"
	learner := anon.WithContext(context.WithValue(anon.Context(), LearnerIDKey, "learner-1"))

	tests := []struct {
		name    string
		req     *http.Request
		trusted bool
		want    string
	}{
		{"anonymous", anon, false, "addr:10.0.0.5"},
		{"anonymous trusted", anon, true, "addr:10.0.0.5"},
		{"learner header untrusted", learner, false, "addr:10.0.0.5"},
		{"learner header trusted", learner, true, "learner:learner-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rateLimitKey(tt.req, tt.trusted); got != tt.want {
				t.Errorf("rateLimitKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimitMiddleware_RotatingLearnerHeader(t *testing.T) {
	limiter := ratelimit.New(&ratelimit.Config{Rate: 1, Burst: 1, Interval: time.Hour})
	defer limiter.Close()

	handler := learnerMiddleware(rateLimitMiddleware(limiter, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	codes := make([]int, 0, 2)
	for _, learnerID := range []string{"learner-a", "learner-b"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/lessons", nil)
		req.RemoteAddr = "10.0.0.7:4000"
		req.Header.Set(LearnerIDHeader, learnerID)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 429]", codes)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.New(&ratelimit.Config{Rate: 1, Burst: 1, Interval: time.Hour})
	defer limiter.Close()

	handler := rateLimitMiddleware(limiter, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.9:4000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do("/v1/lessons"); code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", code)
	}
	if code := do("/v1/lessons"); code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", code)
	}
	if code := do("/v1/health"); code != http.StatusOK {
		t.Errorf("health status = %d, want 200", code)
	}
}

func TestLoggingMiddleware_CapturesStatusCode(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		writeHeader bool
	}{
		{"ok", http.StatusOK, true},
		{"bad request", http.StatusBadRequest, true},
		{"internal error", http.StatusInternalServerError, true},
		{"implicit ok", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.writeHeader {
					w.WriteHeader(tt.statusCode)
				}
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

			if rec.Code != tt.statusCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.statusCode)
			}
		})
	}
}

func TestMiddlewareChain_WithPanic(t *testing.T) {
	var captured string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetCorrelationID(r.Context())
		panic("simulated panic")
	})
	handler := correlationIDMiddleware(recoveryMiddleware(learnerMiddleware(loggingMiddleware(inner))))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	if captured == "" {
		t.Error("correlation ID should be set before the panic")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}
