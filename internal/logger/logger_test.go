package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestForGame(t *testing.T) {
	tests := []struct {
		name      string
		requestID string
	}{
		{"with request", "abc12345"},
		{"background", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)
			ctx := context.Background()
			if tt.requestID != "" {
				ctx = WithRequestID(ctx, tt.requestID)
			}

			l := ForGame(ctx, "game-1")
			l.Info().Msg("shot fired")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("decode log line %q: %v", buf.String(), err)
			}
			if entry["gameId"] != "game-1" {
				t.Errorf("expected gameId field, got %v", entry)
			}
			got, ok := entry["requestId"]
			if tt.requestID == "" && ok {
				t.Errorf("unexpected requestId %v", got)
			}
			if tt.requestID != "" && got != tt.requestID {
				t.Errorf("expected requestId %q, got %v", tt.requestID, got)
			}
		})
	}
}

func TestNewRequestID(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	if len(a) != 8 || len(b) != 8 {
		t.Fatalf("expected 8-char ids, got %q %q", a, b)
	}
	if a == b {
		t.Error("expected distinct request ids")
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("expected req-1, got %q", got)
	}
}
