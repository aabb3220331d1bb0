package handler

import "github.com/freeeve/broadside/api/internal/service"

var _ service.Broadcaster = (*Hub)(nil)

// BroadcastGameEvent implements service.Broadcaster using the WebSocket hub.
// data is either a payload map from the game service or raw JSON relayed
// from another instance; both marshal into the envelope unchanged.
func (h *Hub) BroadcastGameEvent(gameID string, eventType string, data any) {
	h.BroadcastToGame(gameID, WSEvent{
		Type:   eventType,
		GameID: gameID,
		Data:   data,
	})
}
