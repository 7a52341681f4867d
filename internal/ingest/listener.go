package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nats-io/nats.go"

	"github.com/nhle/inbox/internal/model"
)

// ReceivedMsg is a tea.Msg sent after a push notification has been stored.
type ReceivedMsg struct {
	Identity     string
	Notification model.Notification
}

// storeTimeout bounds a single store write from a NATS callback.
const storeTimeout = 5 * time.Second

// Listener subscribes to the push subject of one identity at a time and
// stores every notification it receives.
type Listener struct {
	registry *Registry
	ingestor *Ingestor
	prefix   string
	logger   *slog.Logger

	mu       sync.Mutex
	identity string
	release  Release

	received chan ReceivedMsg
}

// NewListener creates a stopped Listener.
func NewListener(reg *Registry, in *Ingestor, prefix string, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		registry: reg,
		ingestor: in,
		prefix:   prefix,
		logger:   logger,
		received: make(chan ReceivedMsg, 16),
	}
}

// Start listens for identity, replacing any previous identity.
func (l *Listener) Start(identity string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.release != nil && l.identity == identity {
		return nil
	}
	l.stopLocked()

	release, err := l.registry.Acquire(WildcardSubject(l.prefix, identity), func(msg *nats.Msg) {
		l.handle(identity, msg)
	})
	if err != nil {
		return fmt.Errorf("listening for %s: %w", identity, err)
	}
	l.identity = identity
	l.release = release
	l.logger.Info("listening for push notifications", slog.String("identity", identity))
	return nil
}

// Stop releases the current subscription. Stopping a stopped Listener is
// fine.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

func (l *Listener) stopLocked() {
	if l.release == nil {
		return
	}
	l.release()
	l.release = nil
	l.identity = ""
}

// Identity returns the identity being listened for, or "".
func (l *Listener) Identity() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.identity
}

// Received exposes stored notifications for non-TUI callers.
func (l *Listener) Received() <-chan ReceivedMsg {
	return l.received
}

// WaitForNext returns a tea.Cmd that waits for the next stored
// notification. Call it again after handling each ReceivedMsg.
func (l *Listener) WaitForNext() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-l.received
		if !ok {
			return nil
		}
		return msg
	}
}

func (l *Listener) handle(identity string, msg *nats.Msg) {
	c, err := categoryOf(msg.Subject)
	if err != nil {
		l.logger.Warn("dropping push notification",
			slog.String("subject", msg.Subject),
			slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	n, err := l.ingestor.Ingest(ctx, identity, c, msg.Data)
	if err != nil {
		l.logger.Warn("dropping push notification",
			slog.String("subject", msg.Subject),
			slog.String("error", err.Error()))
		return
	}

	select {
	case l.received <- ReceivedMsg{Identity: identity, Notification: n}:
	default:
		// Channel full; the next reload picks the record up from the store.
	}
}
