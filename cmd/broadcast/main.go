package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Alias1177/Baccarat/internal/config"
	"github.com/Alias1177/Baccarat/internal/database"
	"github.com/Alias1177/Baccarat/models"
)

const defaultMessage = "📢 New on the table tracker!\n\n" +
	"• Derived road analysis with big eye boy, small road and cockroach\n" +
	"• /stats shows how your past suggestions played out\n" +
	"• Type a whole scorecard like \"B B P T\" to catch up fast\n\n" +
	"Use the /start command to open your table!"

func main() {
	message := flag.String("message", defaultMessage, "text to send")
	activeOnly := flag.Bool("active", false, "only send to users with an accepted subscription")
	flag.Parse()

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

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}

	users, err := db.GetAllUsers()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get users from database")
	}
	log.Info().Int("users", len(users)).Msg("Found users in database")

	// Telegram allows about 30 messages per second for bots
	limiter := rate.NewLimiter(rate.Limit(cfg.BroadcastRate), 1)

	successCount := 0
	errorCount := 0

	for i, user := range users {
		if *activeOnly && user.Status != models.PaymentStatusAccepted {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			log.Warn().Err(err).Msg("Broadcast interrupted")
			break
		}

		msg := tgbotapi.NewMessage(user.ChatID, *message)
		if _, err := bot.Send(msg); err != nil {
			log.Error().Err(err).Int64("user_id", user.UserID).Int64("chat_id", user.ChatID).Msg("Failed to send message")
			errorCount++
			continue
		}
		log.Debug().Int64("user_id", user.UserID).Int("n", i+1).Int("of", len(users)).Msg("Message sent")
		successCount++
	}

	total := successCount + errorCount
	successRate := 0.0
	if total > 0 {
		successRate = float64(successCount) / float64(total) * 100
	}
	log.Info().
		Int("sent", successCount).
		Int("failed", errorCount).
		Float64("success_rate", successRate).
		Msg("Broadcast completed")

	fmt.Printf("\n🎯 Broadcast completed!\n")
	fmt.Printf("📊 Stats: %d sent, %d failed out of %d attempted\n", successCount, errorCount, total)
}
