package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/broadside/api/internal/repository"
)

const publishTimeout = 2 * time.Second

// EventRelay fans game events out across server instances. Events emitted
// here go to the local hub and onto the bus; events other instances put on
// the bus are delivered to the local hub by Start.
type EventRelay struct {
	bus    repository.EventBus
	local  Broadcaster
	origin string
}

// NewEventRelay creates an EventRelay. origin must be unique per instance.
func NewEventRelay(bus repository.EventBus, local Broadcaster, origin string) *EventRelay {
	if local == nil {
		local = NoopBroadcaster{}
	}
	return &EventRelay{bus: bus, local: local, origin: origin}
}

// BroadcastGameEvent implements Broadcaster.
func (r *EventRelay) BroadcastGameEvent(gameID string, eventType string, data any) {
	r.local.BroadcastGameEvent(gameID, eventType, data)

	raw, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Str("type", eventType).Msg("Failed to encode relayed event")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	ev := repository.GameEvent{Origin: r.origin, GameID: gameID, Type: eventType, Data: raw}
	if err := r.bus.PublishGameEvent(ctx, ev); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Str("type", eventType).Msg("Failed to publish game event")
	}
}

// Start delivers events from other instances to the local hub until ctx is
// cancelled or the subscription ends.
func (r *EventRelay) Start(ctx context.Context) error {
	events, err := r.bus.SubscribeGameEvents(ctx)
	if err != nil {
		return err
	}
	log.Info().Str("origin", r.origin).Msg("Event relay started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Event relay stopped")
			return nil
		case ev, ok := <-events:
			if !ok {
				log.Warn().Msg("Event subscription closed")
				return nil
			}
			if ev.Origin == r.origin {
				continue
			}
			r.local.BroadcastGameEvent(ev.GameID, ev.Type, ev.Data)
		}
	}
}
