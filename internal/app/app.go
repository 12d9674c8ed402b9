package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kkysen/listenup/internal/config"
	"github.com/kkysen/listenup/internal/content"
	"github.com/kkysen/listenup/internal/content/external"
	"github.com/kkysen/listenup/internal/db"
	"github.com/kkysen/listenup/internal/db/repository"
	"github.com/kkysen/listenup/internal/game"
	"github.com/kkysen/listenup/internal/logging"
	"github.com/kkysen/listenup/internal/server"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	audioWorker *content.AudioWorker
	bgCancels   []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis, the content pools and
// the HTTP server. Both pool indexes are primed from Postgres before the
// server accepts traffic, so duplicate detection sees every record ever
// stored.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	queries := db.New(pool)
	questionRepo := repository.NewQuestionRepository(queries)
	songRepo := repository.NewSongRepository(queries)
	userRepo := repository.NewUserRepository(queries)
	reader := repository.NewContentReader(questionRepo, songRepo)

	// Upstream content providers
	triviaClient := external.NewOpenTDBClient(cfg.Trivia.BaseURL, &http.Client{Timeout: cfg.Trivia.HTTPTimeout})
	musicClient := external.NewMusixmatchClient(cfg.Music.BaseURL, cfg.Music.APIKey, cfg.Music.Country, &http.Client{Timeout: cfg.Music.HTTPTimeout})

	// Audio synthesis is optional; without a TTS endpoint items simply
	// carry no narration files.
	var audioWorker *content.AudioWorker
	var audio content.AudioEnqueuer
	if cfg.TTS.URL != "" {
		synth := external.NewWatsonTTSClient(cfg.TTS.URL, cfg.TTS.APIKey, cfg.TTS.Voice, cfg.TTS.Encoding, cfg.TTS.HTTPTimeout)
		audioWorker = content.NewAudioWorker(synth, queries, nil, cfg.TTS.AudioDir, cfg.TTS.Encoding, cfg.TTS.HTTPTimeout, logger)
		audio = audioWorker
	}

	questionPool := content.NewPool(content.KindQuestion, questionRepo, audio, logger)
	songPool := content.NewPool(content.KindSong, songRepo, audio, logger)
	if err := questionPool.Load(ctx); err != nil {
		return nil, err
	}
	if err := songPool.Load(ctx); err != nil {
		return nil, err
	}
	// Resume the chart cursor past pages already harvested.
	musicClient.SetStartPage(uint64(songPool.Size()))

	coord := game.NewCoordinator(questionPool, songPool, triviaClient, musicClient, game.CoordinatorOptions{
		LowWaterMark:     cfg.Game.LowWaterMark,
		BufferSize:       cfg.Game.BufferSize,
		ReplenishTimeout: cfg.Game.ReplenishTimeout,
	}, logger)
	if audioWorker != nil {
		// The coordinator is the foreground gate.
		audioWorker.SetGate(coord)
	}

	cache := content.NewCache(redisClient, cfg.Game.CacheTTL)
	gameSvc := game.NewService(coord, questionPool, songPool, userRepo, reader, cache, game.ServiceOptions{
		WinningPoints: cfg.Game.WinningPoints,
	}, logger)
	handlers := game.NewHTTPHandlers(gameSvc, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, handlers, cfg.TTS.AudioDir)

	return &Application{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		redis:       redisClient,
		http:        apiServer,
		audioWorker: audioWorker,
		bgCancels:   make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.audioWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.audioWorker.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("audio worker stopped")
			}
		}()
	}
}
