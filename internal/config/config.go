package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"listenup"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres Postgres
	Redis    Redis
	Trivia   Trivia
	Music    Music
	TTS      TTS
	Game     Game
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds cache configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Trivia configures the upstream question provider.
type Trivia struct {
	BaseURL     string        `env:"TRIVIA_BASE_URL" envDefault:"https://opentdb.com"`
	HTTPTimeout time.Duration `env:"TRIVIA_HTTP_TIMEOUT" envDefault:"10s"`
}

// Music configures the chart and lyrics provider.
type Music struct {
	BaseURL     string        `env:"MUSIC_BASE_URL" envDefault:"https://api.musixmatch.com/ws/1.1"`
	APIKey      string        `env:"MUSIC_API_KEY,notEmpty"`
	Country     string        `env:"MUSIC_CHART_COUNTRY" envDefault:"us"`
	HTTPTimeout time.Duration `env:"MUSIC_HTTP_TIMEOUT" envDefault:"10s"`
}

// TTS configures the speech synthesizer and where audio files land.
type TTS struct {
	URL         string        `env:"TTS_URL"`
	APIKey      string        `env:"TTS_API_KEY"`
	Voice       string        `env:"TTS_VOICE" envDefault:"en-US_AllisonV3Voice"`
	Encoding    string        `env:"TTS_ENCODING" envDefault:"wav"`
	AudioDir    string        `env:"TTS_AUDIO_DIR" envDefault:"audio"`
	HTTPTimeout time.Duration `env:"TTS_HTTP_TIMEOUT" envDefault:"30s"`
}

// Game groups gameplay thresholds and replenishment behavior.
type Game struct {
	LowWaterMark     int           `env:"GAME_LOW_WATER_MARK" envDefault:"5"`
	BufferSize       int           `env:"GAME_BUFFER_SIZE" envDefault:"5"`
	WinningPoints    int           `env:"GAME_WINNING_POINTS" envDefault:"5"`
	ReplenishTimeout time.Duration `env:"GAME_REPLENISH_TIMEOUT" envDefault:"15s"`
	CacheTTL         time.Duration `env:"GAME_CACHE_TTL" envDefault:"10m"`
}

// Load parses environment variables into App config.
func Load() (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
