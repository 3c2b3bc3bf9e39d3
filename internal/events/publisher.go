package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// PublisherConfig configures the JetStream connection
type PublisherConfig struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	MaxWait       time.Duration
}

// DefaultPublisherConfig returns a config that reconnects forever
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:           url,
		Name:          "vibe-domain-service",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		MaxWait:       30 * time.Second,
	}
}

// Publisher publishes events to NATS JetStream
type Publisher struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *logrus.Logger
}

// NewPublisher connects to NATS and opens a JetStream context
func NewPublisher(cfg PublisherConfig, logger *logrus.Logger) (*Publisher, error) {
	if logger == nil {
		logger = logrus.New()
	}
	entry := logger.WithField("component", "nats")

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			entry.WithError(err).Warn("Disconnected from NATS")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			entry.WithField("url", nc.ConnectedUrl()).Info("Reconnected to NATS")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			entry.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream(nats.MaxWait(cfg.MaxWait))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	entry.WithField("url", cfg.URL).Info("Connected to NATS")

	return &Publisher{conn: conn, js: js, logger: logger}, nil
}

// EnsureStream creates the stream when it does not exist yet
func (p *Publisher) EnsureStream(ctx context.Context, name string, subjects []string) error {
	_, err := p.js.AddStream(&nats.StreamConfig{
		Name:      name,
		Subjects:  subjects,
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Discard:   nats.DiscardOld,
	}, nats.Context(ctx))
	if err == nil {
		p.logger.WithField("stream", name).Info("Created stream")
		return nil
	}
	if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		p.logger.WithField("stream", name).Debug("Stream already exists")
		return nil
	}
	return fmt.Errorf("failed to create stream %s: %w", name, err)
}

// Publish publishes an event on the subject named by its type
func (p *Publisher) Publish(ctx context.Context, evt *Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(evt.Type, data, nats.Context(ctx), nats.MsgId(evt.ID)); err != nil {
		return fmt.Errorf("failed to publish %s: %w", evt.Type, err)
	}

	p.logger.WithFields(logrus.Fields{
		"subject":  evt.Type,
		"event_id": evt.ID,
	}).Debug("Published event")
	return nil
}

// Close drains and closes the NATS connection
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
