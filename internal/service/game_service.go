package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/broadside/api/internal/bot"
	"github.com/freeeve/broadside/api/internal/logger"
	"github.com/freeeve/broadside/api/internal/repository"
	"github.com/freeeve/broadside/api/pkg/battleship"
)

var ErrGameNotFound = errors.New("game not found")

// Event types pushed to game subscribers.
const (
	EventGameUpdated   = "game_updated"
	EventGameStarted   = "game_started"
	EventGameCompleted = "game_completed"
	EventPlayerJoined  = "player_joined"
)

const (
	// maxSaveAttempts bounds the reload-and-reapply loop on version
	// conflicts.
	maxSaveAttempts = 3
	lockTTL         = 10 * time.Second
	listLimit       = 200
)

// GameService owns every mutation of a game: it loads the snapshot, runs an
// engine command, saves under an optimistic version and fans out the result.
type GameService struct {
	games       repository.GameRepository
	records     repository.PlayerRecordStore
	cache       repository.GameCache  // optional
	locker      repository.GameLocker // optional
	broadcaster Broadcaster
	env         battleship.Env

	// gameLocks serializes mutations of one game within this process.
	gameLocks sync.Map
}

// NewGameService creates a GameService. The AI opponent picks targets with
// bot.RandomStrategy.
func NewGameService(games repository.GameRepository, records repository.PlayerRecordStore, broadcaster Broadcaster) *GameService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &GameService{
		games:       games,
		records:     records,
		broadcaster: broadcaster,
		env: battleship.Env{
			Rand:     bot.Source{},
			Opponent: bot.RandomStrategy{},
		},
	}
}

// SetCache configures the optional snapshot cache.
func (s *GameService) SetCache(cache repository.GameCache) {
	s.cache = cache
}

// SetLocker configures the optional cross-instance game lock.
func (s *GameService) SetLocker(locker repository.GameLocker) {
	s.locker = locker
}

// SetOpponent swaps the AI's targeting strategy.
func (s *GameService) SetOpponent(o battleship.Opponent) {
	s.env.Opponent = o
}

// CreateGame opens a new game for creatorID. An AI game comes back with the
// AI already seated and placed.
func (s *GameService) CreateGame(ctx context.Context, creatorID string, isAI bool) (*battleship.Game, error) {
	g, err := battleship.NewGame(uuid.NewString(), battleship.Human(creatorID), isAI, s.env)
	if err != nil {
		return nil, err
	}
	if err := s.games.Create(ctx, g); err != nil {
		return nil, err
	}
	s.cacheGame(ctx, g)
	log.Info().Str("gameId", g.ID).Str("userId", creatorID).Bool("isAI", isAI).Msg("Game created")
	return g, nil
}

// SubmitBoard records userID's fleet.
func (s *GameService) SubmitBoard(ctx context.Context, gameID, userID string, board battleship.Board) (*battleship.Game, error) {
	return s.mutate(ctx, gameID, battleship.SubmitBoard{Participant: battleship.Human(userID), Board: board})
}

// AutoPlaceBoard places userID's fleet randomly.
func (s *GameService) AutoPlaceBoard(ctx context.Context, gameID, userID string) (*battleship.Game, error) {
	return s.mutate(ctx, gameID, battleship.AutoPlace{Participant: battleship.Human(userID)})
}

// JoinGame seats userID as the second player of an open PVP game.
func (s *GameService) JoinGame(ctx context.Context, gameID, userID string) (*battleship.Game, error) {
	return s.mutate(ctx, gameID, battleship.Join{Joiner: battleship.Human(userID)})
}

// SubmitMove fires at (row, col) on the opponent's board. In an AI game the
// returned snapshot already includes the AI's reply.
func (s *GameService) SubmitMove(ctx context.Context, gameID, userID string, row, col int) (*battleship.Game, error) {
	return s.mutate(ctx, gameID, battleship.Attack{
		Attacker: battleship.Human(userID),
		Target:   battleship.Coord{Row: row, Col: col},
	})
}

// GetGame returns the current snapshot.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*battleship.Game, error) {
	g, _, err := s.load(ctx, gameID, true)
	return g, err
}

// ListGames categorizes recent games from userID's point of view.
func (s *GameService) ListGames(ctx context.Context, userID string) (battleship.Lobby, error) {
	games, err := s.games.List(ctx, listLimit)
	if err != nil {
		return battleship.Lobby{}, err
	}
	return battleship.Categorize(games, battleship.Human(userID)), nil
}

// ListGamesForGuest returns the lobby for an anonymous visitor.
func (s *GameService) ListGamesForGuest(ctx context.Context) (battleship.Lobby, error) {
	games, err := s.games.List(ctx, listLimit)
	if err != nil {
		return battleship.Lobby{}, err
	}
	return battleship.GuestView(games), nil
}

// gameLock returns the mutex for a given game ID.
func (s *GameService) gameLock(gameID string) *sync.Mutex {
	v, _ := s.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// mutate applies cmd to the stored game and persists the result. Engine
// errors are returned as-is so callers can classify them.
func (s *GameService) mutate(ctx context.Context, gameID string, cmd battleship.Command) (*battleship.Game, error) {
	l := logger.ForGame(ctx, gameID)
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	if s.locker != nil {
		unlock, err := s.locker.LockGame(ctx, gameID, lockTTL)
		if err != nil {
			return nil, fmt.Errorf("lock game %s: %w", gameID, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				l.Warn().Err(err).Msg("Failed to release game lock")
			}
		}()
	}

	var prev, next *battleship.Game
	for attempt := 1; ; attempt++ {
		var err error
		// After a conflict the cache is suspect, so go to the store.
		prev, next, err = s.loadAndApply(ctx, gameID, cmd, attempt == 1)
		if err != nil {
			s.forgetIfFinished(prev)
			return nil, err
		}
		err = s.games.SaveIfVersion(ctx, next, prev.Version)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrVersionConflict) || attempt >= maxSaveAttempts {
			s.evict(ctx, gameID)
			return nil, fmt.Errorf("save game %s: %w", gameID, err)
		}
		l.Warn().Int("attempt", attempt).Msg("Version conflict, reloading game")
	}

	s.recordResult(ctx, prev, next)
	s.cacheGame(ctx, next)
	s.forgetIfFinished(next)
	s.broadcaster.BroadcastGameEvent(gameID, eventFor(prev, next), eventPayload(next))
	return next, nil
}

// forgetIfFinished drops the in-process lock of a completed game. Nothing
// mutates a finished game, so the entry would only accumulate.
func (s *GameService) forgetIfFinished(g *battleship.Game) {
	if g != nil && g.Status == battleship.StatusCompleted {
		s.gameLocks.Delete(g.ID)
	}
}

// loadAndApply runs cmd against the latest snapshot. A cached snapshot can
// trail the store, so a command it rejects is retried once against the
// store before the error is returned. prev is set alongside an engine
// error.
func (s *GameService) loadAndApply(ctx context.Context, gameID string, cmd battleship.Command, useCache bool) (prev, next *battleship.Game, err error) {
	prev, fromCache, err := s.load(ctx, gameID, useCache)
	if err != nil {
		return nil, nil, err
	}
	next, err = battleship.Apply(prev, cmd, s.env)
	if err != nil && fromCache {
		l := logger.ForGame(ctx, gameID)
		l.Debug().Err(err).Int("cachedVersion", prev.Version).Msg("Cached game rejected command, retrying from store")
		prev, _, err = s.load(ctx, gameID, false)
		if err != nil {
			return nil, nil, err
		}
		next, err = battleship.Apply(prev, cmd, s.env)
	}
	if err != nil {
		return prev, nil, err
	}
	return prev, next, nil
}

// load reads the game from the cache when allowed, falling back to the
// repository. fromCache reports which one answered. A store read only
// fills the cache if nothing newer is already there, because reads run
// outside the game lock.
func (s *GameService) load(ctx context.Context, gameID string, useCache bool) (g *battleship.Game, fromCache bool, err error) {
	if useCache && s.cache != nil {
		g, err := s.cache.GetGame(ctx, gameID)
		if err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("Cache read failed, using store")
		} else if g != nil {
			return g, true, nil
		}
	}
	g, err = s.games.FindByID(ctx, gameID)
	if err != nil {
		return nil, false, fmt.Errorf("find game: %w", err)
	}
	if g == nil {
		return nil, false, ErrGameNotFound
	}
	if s.cache != nil {
		if err := s.cache.FillGame(ctx, g); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to fill game cache")
		}
	}
	return g, false, nil
}

func (s *GameService) cacheGame(ctx context.Context, g *battleship.Game) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetGame(ctx, g); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("Failed to cache game")
	}
}

func (s *GameService) evict(ctx context.Context, gameID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteGame(ctx, gameID); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to evict cached game")
	}
}

// recordResult bumps the win/loss counters when a PVP game has just
// finished. AI games never count.
func (s *GameService) recordResult(ctx context.Context, prev, next *battleship.Game) {
	if next.IsAI || prev.Status == battleship.StatusCompleted || next.Status != battleship.StatusCompleted {
		return
	}
	loser, ok := next.Loser()
	if !ok {
		return
	}
	winner := *next.Winner
	if err := s.records.RecordResult(ctx, winner.UserID(), loser.UserID()); err != nil {
		log.Error().Err(err).Str("gameId", next.ID).Str("winner", winner.UserID()).
			Str("loser", loser.UserID()).Msg("Failed to record game result")
		return
	}
	log.Info().Str("gameId", next.ID).Str("winner", winner.UserID()).Str("loser", loser.UserID()).Msg("Game result recorded")
}

func eventFor(prev, next *battleship.Game) string {
	switch {
	case next.Status == battleship.StatusCompleted && prev.Status != battleship.StatusCompleted:
		return EventGameCompleted
	case next.Status == battleship.StatusActive && prev.Status == battleship.StatusOpen:
		return EventGameStarted
	case len(next.Participants) > len(prev.Participants):
		return EventPlayerJoined
	default:
		return EventGameUpdated
	}
}

// eventPayload carries no boards; subscribers fetch their own view.
func eventPayload(g *battleship.Game) map[string]any {
	payload := map[string]any{"game": g.Summarize()}
	if n := len(g.Moves); n > 0 {
		payload["lastMove"] = g.Moves[n-1]
	}
	return payload
}
