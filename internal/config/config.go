package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration for the marketplace server.
type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	FeeAccount    string `env:"FEE_ACCOUNT" envDefault:"treasury"`
	FeePercent    int64  `env:"FEE_PERCENT" envDefault:"1"`
	EscrowAccount string `env:"ESCROW_ACCOUNT" envDefault:"marketplace"`

	JournalPath string `env:"JOURNAL_PATH"`

	WebhookTimeout time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d, must be between 1 and 65535", cfg.Port)
	}
	if !isValidLogLevel(cfg.LogLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", cfg.LogLevel)
	}
	if cfg.FeePercent < 0 || cfg.FeePercent > 100 {
		return nil, fmt.Errorf("invalid FEE_PERCENT: %d, must be between 0 and 100", cfg.FeePercent)
	}
	if cfg.FeeAccount == "" {
		return nil, fmt.Errorf("FEE_ACCOUNT must not be empty")
	}
	if cfg.EscrowAccount == "" {
		return nil, fmt.Errorf("ESCROW_ACCOUNT must not be empty")
	}
	if cfg.FeeAccount == cfg.EscrowAccount {
		return nil, fmt.Errorf("FEE_ACCOUNT and ESCROW_ACCOUNT must differ")
	}
	if cfg.RateLimitRPS < 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %v, must be >= 0", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst < 1 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %d, must be >= 1", cfg.RateLimitBurst)
	}

	return &cfg, nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
