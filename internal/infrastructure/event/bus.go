// Package event dispatches domain events to in-process subscribers such as
// the notification and metrics handlers.
package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/bidhouse/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ErrBusStopped is returned by Publish after Stop in async mode
var ErrBusStopped = errors.New("event bus stopped")

type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// InMemoryEventBus implements shared.EventBus. By default handlers run
// synchronously inside Publish. WithAsync moves dispatch onto a worker pool
// so slow subscribers never hold up a bid.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger

	workers int
	queue   chan envelope
	running atomic.Bool
	mu      sync.RWMutex
	wg      sync.WaitGroup
}

// BusOption configures the event bus
type BusOption func(*InMemoryEventBus)

// WithAsync dispatches through a queue of the given size served by workers goroutines
func WithAsync(workers, queueSize int) BusOption {
	return func(b *InMemoryEventBus) {
		if workers < 1 {
			workers = 1
		}
		if queueSize < 1 {
			queueSize = 1
		}
		b.workers = workers
		b.queue = make(chan envelope, queueSize)
	}
}

func NewInMemoryEventBus(log *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	if log == nil {
		log = zap.NewNop()
	}
	b := &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish hands events to every subscribed handler. Handler failures are
// logged and never returned to the publisher.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.queue == nil {
		for _, ev := range events {
			b.dispatch(ctx, ev)
		}
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.running.Load() {
		return ErrBusStopped
	}
	// the request context is cancelled once the response is written
	detached := context.WithoutCancel(ctx)
	for _, ev := range events {
		select {
		case b.queue <- envelope{ctx: detached, event: ev}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Event handler subscribed", zap.Strings("event_types", eventTypes))
}

func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start launches the workers in async mode
func (b *InMemoryEventBus) Start(_ context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return nil
	}
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.work()
	}
	b.logger.Info("Event bus started",
		zap.Int("workers", b.workers),
		zap.Int("handlers", b.registry.Count()),
	)
	return nil
}

// Stop drains queued events, or gives up when ctx expires
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	if !b.running.CompareAndSwap(true, false) {
		return nil
	}
	if b.queue != nil {
		b.mu.Lock()
		close(b.queue)
		b.mu.Unlock()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("Event bus stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *InMemoryEventBus) work() {
	defer b.wg.Done()
	for env := range b.queue {
		b.dispatch(env.ctx, env.event)
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, ev shared.DomainEvent) {
	for _, handler := range b.registry.GetHandlers(ev.EventType()) {
		if err := b.safeHandle(ctx, handler, ev); err != nil {
			b.logger.Error("Event handler failed",
				zap.String("request_id", logger.GetRequestID(ctx)),
				zap.String("event_type", ev.EventType()),
				zap.String("event_id", ev.EventID().String()),
				zap.String("aggregate_id", ev.AggregateID().String()),
				zap.Error(err),
			)
		}
	}
}

func (b *InMemoryEventBus) safeHandle(ctx context.Context, handler shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked",
				zap.String("event_type", ev.EventType()),
				zap.Any("panic", r),
			)
			err = errors.New("handler panicked")
		}
	}()
	return handler.Handle(ctx, ev)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
