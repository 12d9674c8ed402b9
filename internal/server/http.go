package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kkysen/listenup/internal/config"
	"github.com/kkysen/listenup/internal/game"
	"github.com/kkysen/listenup/internal/logging"
)

// NewHTTPServer wires base routes (health, metrics) plus the game API.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redis *redis.Client, handlers *game.HTTPHandlers, audioDir string) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := pingDependencies(r.Context(), pool, redis); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/users", handlers.CreateUser)
	mux.HandleFunc("/v1/game/me", handlers.Me)
	mux.HandleFunc("/v1/game/next-question", handlers.NextQuestion)
	mux.HandleFunc("/v1/game/check-answer", handlers.CheckAnswer)
	mux.HandleFunc("/v1/game/next-song", handlers.NextSong)
	mux.HandleFunc("/v1/game/song-played", handlers.SongPlayed)
	mux.HandleFunc("/v1/game/options", handlers.SetOptions)

	// Synthesized narration files are served straight off disk.
	mux.Handle("/audio/", http.StripPrefix("/audio/", http.FileServer(http.Dir(audioDir))))

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: withLogger(mux, logger),
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redis *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := redis.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}

func withLogger(next http.Handler, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.IntoContext(r.Context(), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
