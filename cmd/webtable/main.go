package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Baccarat/internal/analyze"
	"github.com/Alias1177/Baccarat/internal/config"
	"github.com/Alias1177/Baccarat/internal/database"
	"github.com/Alias1177/Baccarat/internal/payment"
	"github.com/Alias1177/Baccarat/internal/session"
	"github.com/Alias1177/Baccarat/internal/web"
	"github.com/Alias1177/Baccarat/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.SetupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The journal is optional for the web table
	var journal models.Journal
	if cfg.WebJournal {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer db.Close()
		journal = db
	}

	defaultStrategy, err := analyze.NewStrategy(cfg.Strategy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid strategy")
	}

	// Web visitors have no account, so premium strategies are locked while checkout is on
	stripeService := payment.NewStripeService(cfg.StripeAPIKey, cfg.StripePriceID, cfg.StripeWebhookSecret, cfg.TelegramBotUsername)
	access := payment.NewAnonymousGate(cfg.PremiumStrategies, stripeService)
	if access.Allow(0, cfg.Strategy) != nil {
		log.Warn().Str("strategy", cfg.Strategy).Msg("Default strategy is premium, web visitors cannot analyze with it")
	}

	store := session.NewStore(defaultStrategy)
	go store.Run(ctx, cfg.SweepInterval, cfg.SessionTTL)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           web.NewServer(store, journal, access, cfg.Strategy, cfg.CommandsPerSec).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("strategy", cfg.Strategy).Msg("Starting web table")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
