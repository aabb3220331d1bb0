package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/broadside/api/internal/auth"
	"github.com/freeeve/broadside/api/internal/bot"
	"github.com/freeeve/broadside/api/internal/config"
	"github.com/freeeve/broadside/api/internal/handler"
	"github.com/freeeve/broadside/api/internal/logger"
	"github.com/freeeve/broadside/api/internal/middleware"
	"github.com/freeeve/broadside/api/internal/repository"
	"github.com/freeeve/broadside/api/internal/repository/postgres"
	redisrepo "github.com/freeeve/broadside/api/internal/repository/redis"
	"github.com/freeeve/broadside/api/internal/repository/sqlite"
	"github.com/freeeve/broadside/api/internal/service"
)

const migrationPath = "migrations/001_initial.up.sql"

type stores struct {
	db    *sql.DB
	users interface {
		repository.UserRepository
		repository.PlayerRecordStore
	}
	games repository.GameRepository
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.StoreDriver == config.StoreSQLite {
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &stores{db: db, users: sqlite.NewUserRepo(db), games: sqlite.NewGameRepo(db)}, nil
	}

	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db, migrationPath); err != nil {
		db.Close()
		return nil, err
	}
	return &stores{db: db, users: postgres.NewUserRepo(db), games: postgres.NewGameRepo(db)}, nil
}

func main() {
	logger.Init()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().Str("store", cfg.StoreDriver).Bool("redis", cfg.RedisURL != "").Bool("dev", cfg.DevMode).Msg("Config loaded")

	if cfg.AISeed != 0 {
		bot.SeedBotRng(cfg.AISeed)
		log.Info().Int64("seed", cfg.AISeed).Msg("AI RNG seeded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer st.db.Close()

	// WebSocket hub
	wsHub := handler.NewHub()
	var broadcaster service.Broadcaster = wsHub

	// Redis is optional: without it a single instance serves every game.
	var redisClient *redisrepo.Client
	if cfg.RedisURL != "" {
		redisClient, err = redisrepo.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		defer redisClient.Close()

		origin := uuid.NewString()
		relay := service.NewEventRelay(redisClient, wsHub, origin)
		broadcaster = relay
		go func() {
			if err := relay.Start(ctx); err != nil {
				log.Error().Err(err).Msg("Event relay stopped")
			}
		}()
		log.Info().Str("origin", origin).Msg("Redis cache, locks and event relay enabled")
	}

	// Services
	gameSvc := service.NewGameService(st.games, st.users, broadcaster)
	if redisClient != nil {
		gameSvc.SetCache(redisClient)
		gameSvc.SetLocker(redisClient)
	}

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	googleOAuth := auth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	mux := handler.NewRouter(handler.RouterDeps{
		GameSvc:       gameSvc,
		Users:         st.users,
		Records:       st.users,
		JWT:           jwtMgr,
		Google:        googleOAuth,
		Hub:           wsHub,
		DevMode:       cfg.DevMode,
		SecureCookies: cfg.SecureCookies(),
		AllowedOrigin: cfg.CORSOrigin,
	})

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.Recoverer, middleware.CORS(cfg.CORSOrigin))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
