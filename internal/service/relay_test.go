package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestEventRelayAcrossInstances(t *testing.T) {
	bus := &memBus{}
	hubA, hubB := &mockBroadcaster{}, &mockBroadcaster{}
	relayA := NewEventRelay(bus, hubA, "a")
	relayB := NewEventRelay(bus, hubB, "b")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{}, 2)
	for _, r := range []*EventRelay{relayA, relayB} {
		go func() {
			r.Start(ctx)
			done <- struct{}{}
		}()
	}
	// Wait until both relays have subscribed.
	deadline := time.Now().Add(2 * time.Second)
	for {
		bus.mu.Lock()
		n := len(bus.subs)
		bus.mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("relays never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	relayA.BroadcastGameEvent("g1", EventGameUpdated, map[string]any{"moveCount": 3})

	deadline = time.Now().Add(2 * time.Second)
	for len(hubB.types()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("instance b never received the event")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hubB.mu.Lock()
	got := hubB.events[0]
	hubB.mu.Unlock()
	if got.GameID != "g1" || got.Type != EventGameUpdated {
		t.Fatalf("unexpected relayed event: %+v", got)
	}
	var data map[string]int
	if err := json.Unmarshal(got.Data.(json.RawMessage), &data); err != nil || data["moveCount"] != 3 {
		t.Errorf("relayed payload = %s (%v)", got.Data, err)
	}

	// The origin delivers locally exactly once and ignores its own echo.
	time.Sleep(20 * time.Millisecond)
	if n := len(hubA.types()); n != 1 {
		t.Errorf("origin hub got %d events, want 1", n)
	}

	cancel()
	for range 2 {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("relay did not stop on cancel")
		}
	}
}
