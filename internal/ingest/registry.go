package ingest

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
)

// ErrRegistryClosed is returned by Acquire after Close.
var ErrRegistryClosed = errors.New("subscription registry closed")

// Subscription is an open subject subscription.
type Subscription interface {
	Unsubscribe() error
}

// Subscriber opens subscriptions. ConnSubscriber adapts a *nats.Conn.
type Subscriber interface {
	Subscribe(subject string, handler nats.MsgHandler) (Subscription, error)
}

// ConnSubscriber subscribes through a NATS connection.
type ConnSubscriber struct {
	Conn *nats.Conn
}

// Subscribe implements Subscriber.
func (c ConnSubscriber) Subscribe(subject string, handler nats.MsgHandler) (Subscription, error) {
	sub, err := c.Conn.Subscribe(subject, handler)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Release drops one reference taken by Acquire. Calling it more than once
// has no further effect.
type Release func()

type handlerEntry struct {
	id      uint64
	handler nats.MsgHandler
}

type subjectEntry struct {
	sub      Subscription
	handlers []handlerEntry
}

// Registry owns the open push subscriptions. Each subject is subscribed at
// most once; handlers acquired on the same subject share it and the
// subscription is closed when the last one is released.
type Registry struct {
	subscriber Subscriber
	logger     *slog.Logger

	mu      sync.Mutex
	entries map[string]*subjectEntry
	nextID  uint64
	closed  bool
}

// NewRegistry creates an empty registry subscribing through s.
func NewRegistry(s Subscriber, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		subscriber: s,
		logger:     logger,
		entries:    make(map[string]*subjectEntry),
	}
}

// Acquire registers handler for subject, subscribing if this is the first
// handler for it.
func (r *Registry) Acquire(subject string, handler nats.MsgHandler) (Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}

	e, ok := r.entries[subject]
	if !ok {
		sub, err := r.subscriber.Subscribe(subject, func(msg *nats.Msg) {
			r.dispatch(subject, msg)
		})
		if err != nil {
			return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
		}
		e = &subjectEntry{sub: sub}
		r.entries[subject] = e
		r.logger.Debug("subscribed", slog.String("subject", subject))
	}

	r.nextID++
	id := r.nextID
	e.handlers = append(e.handlers, handlerEntry{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { r.release(subject, id) })
	}, nil
}

// Refs returns the number of live handlers on subject.
func (r *Registry) Refs(subject string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[subject]; ok {
		return len(e.handlers)
	}
	return 0
}

// Len returns the number of open subscriptions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close unsubscribes everything. Later Acquire calls fail and outstanding
// Release funcs become no-ops.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for subject, e := range r.entries {
		if err := e.sub.Unsubscribe(); err != nil {
			errs = append(errs, fmt.Errorf("unsubscribing %s: %w", subject, err))
		}
		delete(r.entries, subject)
	}
	return errors.Join(errs...)
}

func (r *Registry) release(subject string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[subject]
	if !ok {
		return
	}
	for i, h := range e.handlers {
		if h.id == id {
			e.handlers = append(e.handlers[:i], e.handlers[i+1:]...)
			break
		}
	}
	if len(e.handlers) > 0 {
		return
	}

	delete(r.entries, subject)
	if err := e.sub.Unsubscribe(); err != nil {
		r.logger.Warn("unsubscribe failed",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
		return
	}
	r.logger.Debug("unsubscribed", slog.String("subject", subject))
}

// dispatch fans msg out to the handlers registered for subject. Handlers
// run outside the lock so they may call Acquire or Release.
func (r *Registry) dispatch(subject string, msg *nats.Msg) {
	r.mu.Lock()
	e, ok := r.entries[subject]
	var handlers []nats.MsgHandler
	if ok {
		handlers = make([]nats.MsgHandler, len(e.handlers))
		for i, h := range e.handlers {
			handlers[i] = h.handler
		}
	}
	r.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
}
