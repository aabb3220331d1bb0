package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/broadside/api/internal/repository"
)

// EventsChannel is the pub/sub channel shared by every server instance.
const EventsChannel = "broadside:events"

// PublishGameEvent sends ev to every subscribed instance.
func (c *Client) PublishGameEvent(ctx context.Context, ev repository.GameEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return c.rdb.Publish(ctx, EventsChannel, data).Err()
}

// SubscribeGameEvents streams events from the channel until ctx is done.
// Malformed payloads are logged and dropped.
func (c *Client) SubscribeGameEvents(ctx context.Context) (<-chan repository.GameEvent, error) {
	pubsub := c.rdb.Subscribe(ctx, EventsChannel)
	// Wait for the subscription to be confirmed so no event published after
	// return is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", EventsChannel, err)
	}

	out := make(chan repository.GameEvent, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev repository.GameEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn().Err(err).Msg("Dropping malformed game event")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
