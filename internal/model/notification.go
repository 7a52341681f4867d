package model

import (
	"fmt"
	"strings"
	"time"
)

// Notification is a single push event persisted on the device.
type Notification struct {
	// ID is used for list-rendering identity. It is not unique across
	// categories.
	ID string `json:"id"`

	// Category classifies the event.
	Category Category `json:"category"`

	// ReceivedAt is the ISO-8601 instant the notification was stored locally.
	ReceivedAt string `json:"receivedAt"`

	// Payload carries the category-specific data shown by the inbox.
	Payload Payload `json:"payload"`
}

// Payload holds the sender and target of a notification.
type Payload struct {
	SenderID   string `json:"senderId,omitempty"`
	SenderName string `json:"senderName,omitempty"`
	TargetID   string `json:"targetId,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
	Text       string `json:"text,omitempty"`
}

// receivedAtLayouts are tried in order when parsing ReceivedAt.
var receivedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
}

// Time parses ReceivedAt.
func (n Notification) Time() (time.Time, error) {
	s := strings.TrimSpace(n.ReceivedAt)
	for _, layout := range receivedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing receivedAt %q of notification %s", n.ReceivedAt, n.ID)
}

// Sender returns the best display name for the notification's sender.
func (n Notification) Sender() string {
	switch {
	case n.Payload.SenderName != "":
		return n.Payload.SenderName
	case n.Payload.SenderID != "":
		return n.Payload.SenderID
	default:
		return "Someone"
	}
}

// Summary renders the one-line sentence for the notification.
func (n Notification) Summary() string {
	s := n.Sender() + " " + n.Category.Info().Verb
	if n.Payload.Text != "" {
		s += ": " + n.Payload.Text
	}
	return s
}
