// main.go
//
// Word Heist server entrypoint: load config, open the database, apply
// migrations, build the puzzle catalog, and serve the API with graceful
// shutdown.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wordheist/wordheist/internal/httpserver"
	"github.com/wordheist/wordheist/internal/puzzle"
	"github.com/wordheist/wordheist/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	catalog, err := puzzle.NewCatalog(cfg.DailySalt)
	if err != nil {
		log.Fatal().Err(err).Msg("load puzzle catalog")
	}

	srv := httpserver.New(httpserver.Config{
		JWTSecret:      cfg.JWTSecret,
		JWTExpiresDays: cfg.JWTExpiresDays,
		CookieName:     cfg.CookieName,
		ClientOrigin:   cfg.ClientOrigin,
		SecureCookies:  cfg.Production,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		HintAllowance:  cfg.HintAllowance,
	}, store.NewMemoryStore(), db, catalog)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		log.Info().Msg("shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("http server shutdown")
		}
		close(idleConnsClosed)
	}()

	log.Info().Str("port", cfg.Port).Msg("starting wordheist server")
	if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server exited")
	}
	<-idleConnsClosed
	log.Info().Msg("server shutdown complete")
}
