package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Baccarat/internal/analyze"
	"github.com/Alias1177/Baccarat/internal/config"
	"github.com/Alias1177/Baccarat/internal/database"
	"github.com/Alias1177/Baccarat/internal/payment"
	"github.com/Alias1177/Baccarat/internal/session"
	"github.com/Alias1177/Baccarat/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.SetupLogging(cfg.LogLevel)

	if cfg.TelegramBotToken == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN not set in environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	stripeService := payment.NewStripeService(cfg.StripeAPIKey, cfg.StripePriceID, cfg.StripeWebhookSecret, cfg.TelegramBotUsername)
	if !stripeService.Enabled() {
		log.Warn().Msg("Stripe is not configured, premium strategies are open to everyone")
	}
	gate := payment.NewGate(cfg.PremiumStrategies, db, stripeService)

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}
	log.Info().Str("username", bot.Self.UserName).Msg("Authorized on Telegram")

	defaultStrategy, err := analyze.NewStrategy(cfg.Strategy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid strategy")
	}
	store := session.NewStore(defaultStrategy)
	go store.Run(ctx, cfg.SweepInterval, cfg.SessionTTL)

	// Regularly close expired subscriptions
	go checkExpiredSubscriptions(ctx, db)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := bot.GetUpdatesChan(updateConfig)

	handler := telegram.NewHandler(bot, store, db, stripeService, gate, cfg.HistoryWindow)
	handler.Run(ctx, updates)

	bot.StopReceivingUpdates()
	log.Info().Msg("Bot stopped")
}

// checkExpiredSubscriptions runs periodically to update expired subscriptions
func checkExpiredSubscriptions(ctx context.Context, db *database.DB) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.CheckAndUpdateExpirations()
			if err != nil {
				log.Error().Err(err).Msg("Error checking expired subscriptions")
				continue
			}
			if n > 0 {
				log.Info().Int64("expired", n).Msg("Closed expired subscriptions")
			}
		}
	}
}
