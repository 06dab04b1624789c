package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/lessonplay/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// CompletionHandler applies a completion event
type CompletionHandler func(ctx context.Context, event domain.ChapterCompletedEvent) error

// DeliverySource hands out completion deliveries and reports reconnects.
// *Connection implements it.
type DeliverySource interface {
	Deliveries(prefetch int) (<-chan amqp.Delivery, error)
	NotifyReconnect(ch chan struct{}) <-chan struct{}
	Lost() <-chan struct{}
}

// Consumer consumes completion events from the queue
type Consumer struct {
	source     DeliverySource
	handler    CompletionHandler
	workers    int
	prefetch   int
	timeout    time.Duration
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Workers        int           // Number of concurrent workers
	Prefetch       int           // Unacked messages per channel
	HandlerTimeout time.Duration // Deadline for applying one event
}

// DefaultConsumerConfig returns sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:        3,
		Prefetch:       10,
		HandlerTimeout: 10 * time.Second,
	}
}

// NewConsumer creates a new queue consumer
func NewConsumer(source DeliverySource, handler CompletionHandler, cfg ConsumerConfig) *Consumer {
	def := DefaultConsumerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = def.Prefetch
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = def.HandlerTimeout
	}

	return &Consumer{
		source:   source,
		handler:  handler,
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
		timeout:  cfg.HandlerTimeout,
	}
}

// Start begins consuming messages. It does not resubscribe after a
// reconnect; use Run for that.
func (c *Consumer) Start(ctx context.Context) error {
	_, err := c.subscribe(c.withCancel(ctx))
	return err
}

func (c *Consumer) withCancel(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()
	return ctx
}

// subscribe starts one set of workers on a fresh delivery channel. The
// returned channel is closed once all of them have exited.
func (c *Consumer) subscribe(ctx context.Context) (<-chan struct{}, error) {
	if c.source == nil {
		return nil, ErrNotConnected
	}
	msgs, err := c.source.Deliveries(c.prefetch)
	if err != nil {
		return nil, err
	}

	slog.Info("starting completion consumer", "workers", c.workers, "prefetch", c.prefetch)

	var group sync.WaitGroup
	group.Add(c.workers)
	c.wg.Add(c.workers)
	for i := 0; i < c.workers; i++ {
		go func(id int) {
			defer c.wg.Done()
			defer group.Done()
			c.worker(ctx, id, msgs)
		}(i)
	}

	done := make(chan struct{})
	go func() {
		group.Wait()
		close(done)
	}()
	return done, nil
}

func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			slog.Debug("worker stopping", "worker_id", id)
			return

		case msg, ok := <-msgs:
			if !ok {
				slog.Info("message channel closed", "worker_id", id)
				return
			}
			c.processMessage(ctx, id, msg)
		}
	}
}

// processMessage applies one delivery. Malformed and invalid events are
// dead-lettered at once; handler failures get one redelivery.
func (c *Consumer) processMessage(ctx context.Context, workerID int, msg amqp.Delivery) {
	var event domain.ChapterCompletedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		slog.Error("failed to unmarshal completion", "worker_id", workerID, "error", err)
		_ = msg.Reject(false)
		return
	}
	if err := event.Validate(); err != nil {
		slog.Error("invalid completion", "worker_id", workerID, "event_id", event.EventID(), "error", err)
		_ = msg.Reject(false)
		return
	}

	handlerCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	if err := c.handler(handlerCtx, event); err != nil {
		requeue := !msg.Redelivered && !errors.Is(err, domain.ErrInvalidEvent)
		slog.Error("completion handling failed",
			"worker_id", workerID,
			"event_id", event.EventID(),
			"requeue", requeue,
			"error", err,
		)
		_ = msg.Nack(false, requeue)
		return
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("failed to ack message", "worker_id", workerID, "event_id", event.EventID(), "error", err)
		return
	}

	slog.Debug("completion applied",
		"worker_id", workerID,
		"event_id", event.EventID(),
		"duration", time.Since(start),
	)
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	slog.Info("consumer stopped")
}

// Run consumes until ctx is cancelled. When the broker connection drops,
// the workers exit and Run resubscribes after the next reconnect. It
// returns ErrConnectionLost once reconnection has given up.
func (c *Consumer) Run(ctx context.Context) error {
	if c.source == nil {
		return ErrNotConnected
	}
	reconnected := c.source.NotifyReconnect(make(chan struct{}, 1))

	ctx = c.withCancel(ctx)
	done, err := c.subscribe(ctx)
	if err != nil {
		c.Stop()
		return err
	}

	pending := false
	resubscribe := func() {
		next, err := c.subscribe(ctx)
		if err != nil {
			slog.Error("failed to resume consuming", "error", err)
			return
		}
		done, pending = next, false
		slog.Info("resumed consuming completions")
	}

	for {
		select {
		case <-ctx.Done():
			c.Stop()
			return nil

		case <-c.source.Lost():
			c.Stop()
			return ErrConnectionLost

		case <-done:
			done = nil
			if ctx.Err() != nil {
				continue
			}
			slog.Warn("completion deliveries stopped, waiting for reconnect")
			if pending {
				resubscribe()
			}

		case <-reconnected:
			if done != nil {
				pending = true
				continue
			}
			resubscribe()
		}
	}
}
