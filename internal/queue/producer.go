package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/lessonplay/internal/domain"
)

// Publisher sends a JSON message to a queue
type Publisher interface {
	PublishJSON(ctx context.Context, queue string, messageID string, data any) error
}

// ProducerConfig configures publish resilience
type ProducerConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// Consecutive failures before publishing is short-circuited
	BreakerThreshold int
	BreakerTimeout   time.Duration
}

// DefaultProducerConfig returns sensible defaults
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		MaxAttempts:      3,
		InitialDelay:     200 * time.Millisecond,
		MaxDelay:         2 * time.Second,
		BreakerThreshold: 5,
		BreakerTimeout:   30 * time.Second,
	}
}

// Producer publishes chapter completion events
type Producer struct {
	publisher Publisher
	retrier   retry.Retry[struct{}]
	breaker   circuitbreaker.CircuitBreaker[struct{}]
}

// NewProducer creates a new completion producer
func NewProducer(publisher Publisher, cfg ProducerConfig) *Producer {
	def := DefaultProducerConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = def.BreakerThreshold
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = def.BreakerTimeout
	}

	return &Producer{
		publisher: publisher,
		retrier: retry.New[struct{}](retry.Config{
			MaxAttempts:   cfg.MaxAttempts,
			InitialDelay:  cfg.InitialDelay,
			MaxDelay:      cfg.MaxDelay,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryable,
		}),
		breaker: circuitbreaker.New[struct{}](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return int(counts.ConsecutiveFailures) >= cfg.BreakerThreshold
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				slog.Warn("completion publisher circuit state change",
					"from", from.String(),
					"to", to.String())
			},
		}),
	}
}

// PublishCompletion publishes a chapter completion event
func (p *Producer) PublishCompletion(ctx context.Context, event domain.ChapterCompletedEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	_, err := p.breaker.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return p.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, p.publisher.PublishJSON(ctx, CompletionQueueName, event.EventID().String(), event)
		})
	})
	if err != nil {
		return fmt.Errorf("failed to publish completion: %w", err)
	}

	slog.Info("published completion",
		"event_id", event.EventID(),
		"learner_id", event.LearnerID,
		"lesson", event.LessonKey,
		"completed", event.Completed,
	)
	return nil
}

// Complete implements navigation.CompletionSink
func (p *Producer) Complete(ctx context.Context, event domain.ChapterCompletedEvent) error {
	return p.PublishCompletion(ctx, event)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, domain.ErrInvalidEvent)
}
