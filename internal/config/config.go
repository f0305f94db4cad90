package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	ServerPort string `env:"SERVER_PORT" envDefault:"3000"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	PlayerServiceURL string `env:"PLAYER_SVC_URL" envDefault:"http://player-service:3001"`
	GameServiceURL   string `env:"GAME_SVC_URL" envDefault:"http://game-service:3002"`
	TeamServiceURL   string `env:"TEAM_SVC_URL" envDefault:"http://team-service:3003"`
	ResultServiceURL string `env:"RESULT_SVC_URL" envDefault:"http://result-service:3004"`

	HeaderTimeout    time.Duration `env:"HTTP_HEADERS_TIMEOUT" envDefault:"3s"`
	BodyTimeout      time.Duration `env:"HTTP_BODY_TIMEOUT" envDefault:"3s"`
	MaxResponseBytes int64         `env:"MAX_RESPONSE_BYTES" envDefault:"1048576"`
	BodyLimit        int64         `env:"BODY_LIMIT" envDefault:"1048576"`

	BreakerFailureThreshold uint32        `env:"BREAKER_FAILURE_THRESHOLD" envDefault:"5"`
	BreakerWindow           time.Duration `env:"BREAKER_WINDOW" envDefault:"1m"`
	BreakerCoolDown         time.Duration `env:"BREAKER_COOL_DOWN" envDefault:"30s"`

	// DetailsDeadline bounds one whole aggregation, game fetch plus fan-out. Zero disables it.
	DetailsDeadline time.Duration `env:"DETAILS_DEADLINE" envDefault:"10s"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("player_svc_url", cfg.PlayerServiceURL).
		Str("game_svc_url", cfg.GameServiceURL).
		Str("team_svc_url", cfg.TeamServiceURL).
		Str("result_svc_url", cfg.ResultServiceURL).
		Dur("headers_timeout", cfg.HeaderTimeout).
		Dur("body_timeout", cfg.BodyTimeout).
		Int64("max_response_bytes", cfg.MaxResponseBytes).
		Uint32("breaker_failure_threshold", cfg.BreakerFailureThreshold).
		Dur("breaker_window", cfg.BreakerWindow).
		Dur("breaker_cool_down", cfg.BreakerCoolDown).
		Dur("details_deadline", cfg.DetailsDeadline).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	for name, raw := range map[string]string{
		"PLAYER_SVC_URL": c.PlayerServiceURL,
		"GAME_SVC_URL":   c.GameServiceURL,
		"TEAM_SVC_URL":   c.TeamServiceURL,
		"RESULT_SVC_URL": c.ResultServiceURL,
	} {
		if err := validateBaseURL(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if c.ServerPort == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.HeaderTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_HEADERS_TIMEOUT must be positive"))
	}
	if c.BodyTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_BODY_TIMEOUT must be positive"))
	}
	if c.MaxResponseBytes <= 0 {
		errs = append(errs, errors.New("MAX_RESPONSE_BYTES must be positive"))
	}
	if c.BodyLimit <= 0 {
		errs = append(errs, errors.New("BODY_LIMIT must be positive"))
	}
	if c.BreakerFailureThreshold == 0 {
		errs = append(errs, errors.New("BREAKER_FAILURE_THRESHOLD must be positive"))
	}
	if c.BreakerWindow < 0 {
		errs = append(errs, errors.New("BREAKER_WINDOW must not be negative"))
	}
	if c.BreakerCoolDown <= 0 {
		errs = append(errs, errors.New("BREAKER_COOL_DOWN must be positive"))
	}
	if c.DetailsDeadline < 0 {
		errs = append(errs, errors.New("DETAILS_DEADLINE must not be negative"))
	}

	return errors.Join(errs...)
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

var Module = fx.Provide(Load)
