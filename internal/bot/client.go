package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/broadside/api/pkg/battleship"
)

// WSEvent mirrors handler.WSEvent for client-side deserialization.
type WSEvent struct {
	Type   string         `json:"type"`
	GameID string         `json:"game_id"`
	Data   map[string]any `json:"data"`
}

// Client is an HTTP+WebSocket client for a single bot player.
type Client struct {
	name     string
	baseURL  string
	token    string
	userID   string
	wsConn   *websocket.Conn
	events   chan WSEvent
	httpC    *http.Client
	mu       sync.Mutex
	closedWS bool
}

// NewClient creates a new bot client targeting the given server URL.
func NewClient(name, baseURL string) *Client {
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		events:  make(chan WSEvent, 64),
		httpC:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the bot name.
func (c *Client) Name() string { return c.name }

// UserID returns the bot's user ID after login.
func (c *Client) UserID() string { return c.userID }

// Participant returns the bot's seat reference.
func (c *Client) Participant() battleship.ParticipantRef { return battleship.Human(c.userID) }

// Login authenticates via the dev login endpoint.
func (c *Client) Login(ctx context.Context) error {
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/dev?name="+url.QueryEscape(c.name), nil, &tokens); err != nil {
		return fmt.Errorf("dev login: %w", err)
	}
	c.token = tokens.AccessToken

	var user struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me", nil, &user); err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	c.userID = user.ID
	log.Debug().Str("bot", c.name).Str("userId", c.userID).Msg("Bot logged in")
	return nil
}

// CreateGame creates a new game and returns its snapshot.
func (c *Client) CreateGame(ctx context.Context, isAI bool) (*battleship.Game, error) {
	return c.gameCall(ctx, http.MethodPost, "/api/v1/games", map[string]bool{"is_ai": isAI})
}

// JoinGame joins an existing game.
func (c *Client) JoinGame(ctx context.Context, gameID string) (*battleship.Game, error) {
	return c.gameCall(ctx, http.MethodPost, "/api/v1/games/"+gameID+"/join", nil)
}

// AutoPlace asks the server to place this player's fleet at random.
func (c *Client) AutoPlace(ctx context.Context, gameID string) (*battleship.Game, error) {
	return c.gameCall(ctx, http.MethodPost, "/api/v1/games/"+gameID+"/board/auto", nil)
}

// SubmitBoard submits a fully placed board.
func (c *Client) SubmitBoard(ctx context.Context, gameID string, b battleship.Board) (*battleship.Game, error) {
	return c.gameCall(ctx, http.MethodPost, "/api/v1/games/"+gameID+"/board", map[string]any{"board": b})
}

// Fire attacks a cell on the opponent's board.
func (c *Client) Fire(ctx context.Context, gameID string, target battleship.Coord) (*battleship.Game, error) {
	return c.gameCall(ctx, http.MethodPost, "/api/v1/games/"+gameID+"/moves", target)
}

// GetGame fetches the full game snapshot.
func (c *Client) GetGame(ctx context.Context, gameID string) (*battleship.Game, error) {
	return c.gameCall(ctx, http.MethodGet, "/api/v1/games/"+gameID, nil)
}

func (c *Client) gameCall(ctx context.Context, method, path string, payload any) (*battleship.Game, error) {
	var g battleship.Game
	if err := c.do(ctx, method, path, payload, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// ConnectWS opens a WebSocket connection and starts listening for events.
func (c *Client) ConnectWS() error {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/api/v1/ws?token=" + url.QueryEscape(c.token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}
	c.wsConn = conn

	go c.readWSLoop()
	return nil
}

// SubscribeGame sends a subscribe message for the given game.
func (c *Client) SubscribeGame(gameID string) error {
	msg := map[string]string{"action": "subscribe", "game_id": gameID}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wsConn == nil {
		return fmt.Errorf("ws not connected")
	}
	return c.wsConn.WriteJSON(msg)
}

// Events returns the channel of incoming WebSocket events. It is never
// closed if ConnectWS was not called.
func (c *Client) Events() <-chan WSEvent { return c.events }

// CloseWS closes the WebSocket connection.
func (c *Client) CloseWS() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wsConn != nil && !c.closedWS {
		c.closedWS = true
		c.wsConn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.wsConn.Close()
	}
}

func (c *Client) readWSLoop() {
	defer close(c.events)
	for {
		_, msg, err := c.wsConn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closedWS
			c.mu.Unlock()
			if !closed {
				log.Debug().Err(err).Str("bot", c.name).Msg("WS read error")
			}
			return
		}
		var event WSEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			continue
		}
		select {
		case c.events <- event:
		default:
			log.Debug().Str("bot", c.name).Str("type", event.Type).Msg("Dropping WS event, buffer full")
		}
	}
}

// do sends a request with the bot's bearer token and decodes a JSON response
// into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	} else if method == http.MethodPost {
		bodyReader = bytes.NewReader([]byte("{}"))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpC.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
