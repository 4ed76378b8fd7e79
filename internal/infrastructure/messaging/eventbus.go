// Package messaging implements the in-process event bus that connects the
// progress engine to its projections. Events are fire-and-forget: the write
// path never waits on projection handlers.
package messaging

import (
	"errors"
	"sync"
	"time"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
	"github.com/lingua-hub/lingua-progress-hub/pkg/logger"
)

// ErrEventBusClosed is returned when operating on a closed bus.
var ErrEventBusClosed = errors.New("event bus is closed")

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus is a single-instance implementation of shared.EventBus.
// The engine is the only writer of progress data, so cross-instance delivery
// is not needed; the scheduled leaderboard rebuild covers missed events.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	asyncMode   bool
	workerPool  chan struct{}
	log         *logger.Logger
	metrics     *EventBusMetrics
	closed      bool
	closeCh     chan struct{}
	wg          sync.WaitGroup
}

// Config contains configuration for InMemoryEventBus.
type Config struct {
	// AsyncMode runs handlers on a worker pool instead of the publisher's
	// goroutine. Synchronous mode is useful in tests.
	AsyncMode bool

	// WorkerPoolSize bounds concurrent handler executions in async mode.
	WorkerPoolSize int

	// Logger for structured logging.
	Logger *logger.Logger

	// EnableMetrics enables in-process counters.
	EnableMetrics bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		AsyncMode:      true,
		WorkerPoolSize: 10,
		EnableMetrics:  true,
	}
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(config Config) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}

	bus := &InMemoryEventBus{
		handlers:    make(map[shared.EventType][]shared.EventHandler),
		allHandlers: make([]shared.EventHandler, 0),
		asyncMode:   config.AsyncMode,
		workerPool:  make(chan struct{}, config.WorkerPoolSize),
		log:         config.Logger.With(logger.Component("eventbus")),
		closeCh:     make(chan struct{}),
	}

	if config.EnableMetrics {
		bus.metrics = NewEventBusMetrics()
	}

	return bus
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.log.Debug("subscribed handler", logger.String("event_type", string(eventType)))

	return nil
}

// SubscribeAll registers a handler for all events.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Publish sends an event to all subscribed handlers.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}

	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	if b.metrics != nil {
		b.metrics.RecordPublish(event.EventType())
	}

	if b.asyncMode {
		for _, handler := range handlers {
			b.executeAsync(event, handler)
		}
		return nil
	}

	for _, handler := range handlers {
		if err := b.executeSync(event, handler); err != nil {
			b.log.Error("handler error",
				logger.String("event_type", string(event.EventType())),
				logger.Err(err))
		}
	}
	return nil
}

// executeAsync executes a handler on the worker pool.
func (b *InMemoryEventBus) executeAsync(event shared.Event, handler shared.EventHandler) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		select {
		case b.workerPool <- struct{}{}:
			defer func() { <-b.workerPool }()
		case <-b.closeCh:
			return
		}

		start := time.Now()
		err := handler(event)
		duration := time.Since(start)

		if b.metrics != nil {
			b.metrics.RecordHandlerExecution(event.EventType(), duration, err == nil)
		}

		if err != nil {
			b.log.Error("async handler error",
				logger.String("event_type", string(event.EventType())),
				logger.Duration("duration", duration),
				logger.Err(err))
		}
	}()
}

// executeSync executes a handler on the caller's goroutine.
func (b *InMemoryEventBus) executeSync(event shared.Event, handler shared.EventHandler) error {
	start := time.Now()
	err := handler(event)

	if b.metrics != nil {
		b.metrics.RecordHandlerExecution(event.EventType(), time.Since(start), err == nil)
	}

	return err
}

// Close shuts down the bus after pending handlers complete.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.closeCh)
	b.mu.Unlock()

	b.wg.Wait()

	b.log.Info("event bus closed")
	return nil
}

// Metrics returns the current metrics (nil when disabled).
func (b *InMemoryEventBus) Metrics() *EventBusMetrics {
	return b.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// EventBusMetrics tracks publish and handler counters.
type EventBusMetrics struct {
	mu sync.RWMutex

	publishedTotal       map[shared.EventType]int64
	handlerExecutions    int64
	handlerSuccesses     int64
	handlerFailures      int64
	handlerTotalDuration time.Duration
}

// NewEventBusMetrics creates a new metrics tracker.
func NewEventBusMetrics() *EventBusMetrics {
	return &EventBusMetrics{
		publishedTotal: make(map[shared.EventType]int64),
	}
}

// RecordPublish records a published event.
func (m *EventBusMetrics) RecordPublish(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedTotal[eventType]++
}

// RecordHandlerExecution records one handler run.
func (m *EventBusMetrics) RecordHandlerExecution(eventType shared.EventType, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlerExecutions++
	m.handlerTotalDuration += duration
	if success {
		m.handlerSuccesses++
	} else {
		m.handlerFailures++
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	PublishedTotal    map[shared.EventType]int64 `json:"published_total"`
	HandlerExecutions int64                      `json:"handler_executions"`
	HandlerSuccesses  int64                      `json:"handler_successes"`
	HandlerFailures   int64                      `json:"handler_failures"`
	AvgHandlerLatency time.Duration              `json:"avg_handler_latency"`
}

// Snapshot returns a copy of the current counters.
func (m *EventBusMetrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	published := make(map[shared.EventType]int64, len(m.publishedTotal))
	for k, v := range m.publishedTotal {
		published[k] = v
	}

	var avg time.Duration
	if m.handlerExecutions > 0 {
		avg = m.handlerTotalDuration / time.Duration(m.handlerExecutions)
	}

	return Snapshot{
		PublishedTotal:    published,
		HandlerExecutions: m.handlerExecutions,
		HandlerSuccesses:  m.handlerSuccesses,
		HandlerFailures:   m.handlerFailures,
		AvgHandlerLatency: avg,
	}
}
