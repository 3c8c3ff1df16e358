package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/tbensonwest/payform/internal/api"
	"github.com/tbensonwest/payform/internal/config"
	"github.com/tbensonwest/payform/internal/domain"
	"github.com/tbensonwest/payform/internal/gateway"
	"github.com/tbensonwest/payform/internal/service"
	"github.com/tbensonwest/payform/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	ctx := context.Background()
	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()

	backend := "memory"
	if cfg.DatabaseURL != "" {
		backend = "postgres"
	}
	log.Info().
		Str("backend", backend).
		Str("port", cfg.Port).
		Str("env", cfg.Env).
		Msg("starting payform api")

	if err := ensureAdmin(ctx, st, cfg); err != nil {
		log.Fatal().Err(err).Msg("admin seed failed")
	}

	handler := api.NewHandler(st, service.NewPaymentService(st, gateway.NewSimulated()), cfg)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(handler.Routes())

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     corsHandler,
		ReadTimeout: 10 * time.Second,
		// The submit path holds the connection through the simulated
		// gateway delay.
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		log.Warn().Msg("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}
	}()

	log.Info().Msg("http listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}
}

// ensureAdmin creates the configured admin account on first boot. A conflict
// from a concurrently booting instance is fine.
func ensureAdmin(ctx context.Context, st store.Store, cfg *config.Config) error {
	_, err := st.GetUserByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = st.CreateUser(ctx, &domain.User{Username: cfg.AdminUsername, Password: string(hash)})
	if errors.Is(err, store.ErrConflict) {
		return nil
	}
	if err == nil {
		log.Info().Str("username", cfg.AdminUsername).Msg("admin user created")
	}
	return err
}
