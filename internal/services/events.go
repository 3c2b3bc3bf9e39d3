package services

import (
	"context"
	"time"

	"vibe-domain-service/internal/events"

	"github.com/rs/zerolog/log"
)

// EventPublisher publishes site and domain events
type EventPublisher interface {
	Publish(ctx context.Context, evt *events.Event) error
}

const eventPublishTimeout = 10 * time.Second

// publishEvent publishes asynchronously so the caller never waits on NATS
func publishEvent(publisher EventPublisher, evt *events.Event) {
	if publisher == nil {
		log.Debug().Str("event", evt.Type).Msg("Event publisher not configured, skipping event")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
		defer cancel()

		if err := publisher.Publish(ctx, evt); err != nil {
			log.Error().Err(err).
				Str("event_type", evt.Type).
				Str("domain", evt.Domain).
				Str("project_id", evt.ProjectID).
				Msg("Failed to publish event")
			return
		}
		log.Debug().Str("event_type", evt.Type).Str("event_id", evt.ID).Msg("Event published")
	}()
}
