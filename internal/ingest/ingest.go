// Package ingest receives push notifications over NATS and appends them to
// the on-device store.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/store"
)

// ErrBadMessage is returned for a push body that cannot be decoded.
var ErrBadMessage = errors.New("malformed push message")

// Message is the wire body of a push notification.
type Message struct {
	ID      string        `json:"id,omitempty"`
	Payload model.Payload `json:"payload"`
}

// Ingestor turns push bodies into stored notification records.
type Ingestor struct {
	store  store.Appender
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithIngestClock replaces time.Now for receivedAt stamps.
func WithIngestClock(now func() time.Time) IngestorOption {
	return func(in *Ingestor) { in.now = now }
}

// WithIDGenerator replaces the UUID generator for messages without an id.
func WithIDGenerator(f func() string) IngestorOption {
	return func(in *Ingestor) { in.newID = f }
}

// WithIngestLogger sets the logger.
func WithIngestLogger(l *slog.Logger) IngestorOption {
	return func(in *Ingestor) {
		if l != nil {
			in.logger = l
		}
	}
}

// NewIngestor creates an Ingestor appending to s.
func NewIngestor(s store.Appender, opts ...IngestorOption) *Ingestor {
	in := &Ingestor{
		store:  s,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Ingest decodes body, stamps it and appends it to identity's list for c.
func (in *Ingestor) Ingest(ctx context.Context, identity string, c model.Category, body []byte) (model.Notification, error) {
	if !c.Valid() {
		return model.Notification{}, fmt.Errorf("%w: %q", model.ErrUnknownCategory, c)
	}

	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return model.Notification{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}

	n := model.Notification{
		ID:         strings.TrimSpace(m.ID),
		Category:   c,
		ReceivedAt: in.now().UTC().Format(time.RFC3339Nano),
		Payload:    m.Payload,
	}
	if n.ID == "" {
		n.ID = in.newID()
	}

	if err := in.store.Append(ctx, identity, n); err != nil {
		return model.Notification{}, fmt.Errorf("storing %s notification: %w", c, err)
	}

	in.logger.Debug("notification stored",
		slog.String("id", n.ID),
		slog.String("category", c.String()))
	return n, nil
}

// Publisher sends raw messages. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Publish sends m to identity's subject for c.
func Publish(p Publisher, prefix, identity string, c model.Category, m Message) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnknownCategory, c)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding push message: %w", err)
	}
	subject := Subject(prefix, identity, c)
	if err := p.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}
