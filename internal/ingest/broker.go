package ingest

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/nhle/inbox/internal/model"
)

// Broker is a NATS connection, optionally to a server running in-process.
type Broker struct {
	Conn     *nats.Conn
	embedded *server.Server
}

// Connect dials cfg.URL, or starts an embedded server when cfg.Embedded is
// set.
func Connect(cfg model.PushConfig, logger *slog.Logger) (*Broker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if !cfg.Embedded {
		conn, err := nats.Connect(cfg.URL, nats.Name("inbox"))
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS at %s: %w", cfg.URL, err)
		}
		logger.Debug("connected to NATS", slog.String("url", cfg.URL))
		return &Broker{Conn: conn}, nil
	}

	ns, err := StartEmbedded()
	if err != nil {
		return nil, err
	}
	conn, err := nats.Connect(ns.ClientURL())
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("connecting to embedded NATS: %w", err)
	}
	logger.Info("embedded NATS server started", slog.String("url", ns.ClientURL()))
	return &Broker{Conn: conn, embedded: ns}, nil
}

// StartEmbedded runs a NATS server on a random local port.
func StartEmbedded() (*server.Server, error) {
	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedded NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("embedded NATS server failed to start")
	}
	return ns, nil
}

// Subscriber returns a Subscriber over the broker's connection.
func (b *Broker) Subscriber() Subscriber {
	return ConnSubscriber{Conn: b.Conn}
}

// Close drains the connection and stops an embedded server.
func (b *Broker) Close() {
	if b.Conn != nil {
		_ = b.Conn.Drain()
		b.Conn.Close()
	}
	if b.embedded != nil {
		b.embedded.Shutdown()
		b.embedded.WaitForShutdown()
	}
}
