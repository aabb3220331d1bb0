package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/freeeve/broadside/api/internal/model"
	"github.com/freeeve/broadside/api/internal/repository"
	"github.com/freeeve/broadside/api/pkg/battleship"
)

// mockGameRepo stores snapshots as JSON so callers never share memory with
// the store, the way a real database behaves.
type mockGameRepo struct {
	mu     sync.Mutex
	games  map[string][]byte
	order  []string
	saves  int
	stale  int // forces this many SaveIfVersion conflicts
	failOn error

	// afterFind runs once, after the next FindByID has read its snapshot.
	afterFind func()
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{games: make(map[string][]byte)}
}

func (m *mockGameRepo) Create(_ context.Context, g *battleship.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.Version = 1
	data, _ := json.Marshal(g)
	m.games[g.ID] = data
	m.order = append(m.order, g.ID)
	return nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*battleship.Game, error) {
	m.mu.Lock()
	g := m.decode(id)
	hook := m.afterFind
	m.afterFind = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return g, nil
}

func (m *mockGameRepo) decode(id string) *battleship.Game {
	data, ok := m.games[id]
	if !ok {
		return nil
	}
	var g battleship.Game
	if err := json.Unmarshal(data, &g); err != nil {
		panic(err)
	}
	return &g
}

func (m *mockGameRepo) SaveIfVersion(_ context.Context, g *battleship.Game, expected int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return m.failOn
	}
	if m.stale > 0 {
		m.stale--
		return repository.ErrVersionConflict
	}
	cur := m.decode(g.ID)
	if cur == nil || cur.Version != expected {
		return repository.ErrVersionConflict
	}
	g.Version = expected + 1
	data, _ := json.Marshal(g)
	m.games[g.ID] = data
	m.saves++
	return nil
}

func (m *mockGameRepo) List(_ context.Context, limit int) ([]*battleship.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*battleship.Game
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.decode(m.order[i]))
	}
	return out, nil
}

type mockRecords struct {
	mu     sync.Mutex
	wins   map[string]int
	losses map[string]int
}

func newMockRecords() *mockRecords {
	return &mockRecords{wins: map[string]int{}, losses: map[string]int{}}
}

func (m *mockRecords) RecordResult(_ context.Context, winnerID, loserID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wins[winnerID]++
	m.losses[loserID]++
	return nil
}

func (m *mockRecords) ListScores(_ context.Context) ([]model.Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := map[string]bool{}
	for id := range m.wins {
		ids[id] = true
	}
	for id := range m.losses {
		ids[id] = true
	}
	var scores []model.Score
	for id := range ids {
		scores = append(scores, model.Score{UserID: id, Username: id, Wins: m.wins[id], Losses: m.losses[id]})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].Wins > scores[j].Wins })
	return scores, nil
}

type mockCache struct {
	mu    sync.Mutex
	games map[string]*battleship.Game
}

func newMockCache() *mockCache {
	return &mockCache{games: make(map[string]*battleship.Game)}
}

func (m *mockCache) SetGame(_ context.Context, g *battleship.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g.Clone()
	return nil
}

func (m *mockCache) FillGame(_ context.Context, g *battleship.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.games[g.ID]; ok && cur.Version >= g.Version {
		return nil
	}
	m.games[g.ID] = g.Clone()
	return nil
}

func (m *mockCache) GetGame(_ context.Context, gameID string) (*battleship.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, nil
	}
	return g.Clone(), nil
}

func (m *mockCache) DeleteGame(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, gameID)
	return nil
}

type mockLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	acquired int
}

func (m *mockLocker) LockGame(_ context.Context, gameID string, _ time.Duration) (func(context.Context) error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held == nil {
		m.held = map[string]bool{}
	}
	if m.held[gameID] {
		return nil, repository.ErrLockHeld
	}
	m.held[gameID] = true
	m.acquired++
	return func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, gameID)
		return nil
	}, nil
}

type sentEvent struct {
	GameID string
	Type   string
	Data   any
}

type mockBroadcaster struct {
	mu     sync.Mutex
	events []sentEvent
}

func (m *mockBroadcaster) BroadcastGameEvent(gameID, eventType string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, sentEvent{gameID, eventType, data})
}

func (m *mockBroadcaster) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

// memBus is an in-process EventBus shared by several relays.
type memBus struct {
	mu   sync.Mutex
	subs []chan repository.GameEvent
}

func (b *memBus) PublishGameEvent(_ context.Context, ev repository.GameEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		ch <- ev
	}
	return nil
}

func (b *memBus) SubscribeGameEvents(ctx context.Context) (<-chan repository.GameEvent, error) {
	ch := make(chan repository.GameEvent, 16)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch, nil
}
