// config.go
//
// Server configuration loaded from environment variables (with .env support
// in development via godotenv in main).

package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type config struct {
	Port           string `env:"PORT" envDefault:"5000"`
	DatabasePath   string `env:"DATABASE_PATH" envDefault:"./data/wordheist.db"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev-secret-key-change-in-production"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"wordheist_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:3000"`
	DailySalt      string `env:"DAILY_SALT" envDefault:"local_dev_salt"`
	HintAllowance  int    `env:"HINT_ALLOWANCE" envDefault:"3"`
	RateLimitRPS   int    `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int    `env:"RATE_LIMIT_BURST" envDefault:"10"`
	Production     bool   `env:"PRODUCTION" envDefault:"false"`
}

func loadConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
