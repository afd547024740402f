package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/chirp-im/chirp/internal/adapters/http"
	wsignal "github.com/chirp-im/chirp/internal/adapters/signal"
	"github.com/chirp-im/chirp/internal/config"
	"github.com/chirp-im/chirp/internal/directory"
	"github.com/chirp-im/chirp/internal/lifecycle"
	"github.com/chirp-im/chirp/internal/media"
	"github.com/chirp-im/chirp/internal/presence"
	routing "github.com/chirp-im/chirp/internal/router"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	registry := presence.NewRegistry()
	rt := routing.New(registry, cfg.CallTTL)
	life := lifecycle.NewManager(registry)
	ctl := wsignal.NewController(rt, life, cfg)

	go rt.Run(ctx)

	r := router.SetupRouter(cfg, router.Deps{
		Signal:   ctl,
		Registry: registry,
		Dir:      directory.NewInMemory(),
		Tokens:   media.NewIssuer(cfg.MediaSecret, cfg.MediaTokenTTL),
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Chirp signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
