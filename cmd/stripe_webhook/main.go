package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Baccarat/internal/config"
	"github.com/Alias1177/Baccarat/internal/database"
	"github.com/Alias1177/Baccarat/internal/payment"
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

	log.Info().
		Str("driver", cfg.Database.Driver).
		Str("host", cfg.Database.Host).
		Str("dbname", cfg.Database.DBName).
		Msg("Webhook server starting")

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	stripeService := payment.NewStripeService(cfg.StripeAPIKey, cfg.StripePriceID, cfg.StripeWebhookSecret, cfg.TelegramBotUsername)
	log.Info().Str("webhook_secret", maskSecret(cfg.StripeWebhookSecret)).Msg("Stripe initialized")

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", webhookHandler(db, stripeService))

	// Add a simple health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Webhook server is running"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("Starting webhook server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

func webhookHandler(db *database.DB, stripeService *payment.StripeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
		if err != nil {
			log.Error().Err(err).Msg("Error reading request body")
			http.Error(w, "Error reading request body", http.StatusBadRequest)
			return
		}

		signature := r.Header.Get("Stripe-Signature")
		if signature == "" {
			http.Error(w, "Stripe-Signature header required", http.StatusBadRequest)
			return
		}

		// Verify webhook signature and parse the event
		event, err := stripeService.VerifyWebhookSignature(body, signature)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to verify webhook signature")
			http.Error(w, "Invalid signature", http.StatusBadRequest)
			return
		}

		logger := log.With().Str("event_id", event.ID).Str("event_type", string(event.Type)).Logger()

		paymentEvent, err := stripeService.ProcessSubscriptionPayment(event)
		if errors.Is(err, payment.ErrUnhandledEvent) {
			// Acknowledge so Stripe stops retrying
			logger.Debug().Msg("Ignoring event")
			w.WriteHeader(http.StatusOK)
			return
		}
		if err != nil {
			logger.Error().Err(err).Msg("Failed to process payment event")
			http.Error(w, "Error processing event", http.StatusInternalServerError)
			return
		}

		if err := applyPaymentEvent(db, paymentEvent, event.ID, time.Now()); err != nil {
			logger.Error().Err(err).Int64("user_id", paymentEvent.UserID).Msg("Failed to update subscription status")
			http.Error(w, "Error updating subscription", http.StatusInternalServerError)
			return
		}

		if paymentEvent.SubscriptionID != "" && paymentEvent.Status == models.PaymentStatusAccepted {
			if err := db.UpdateStripeSubscriptionID(paymentEvent.UserID, paymentEvent.SubscriptionID); err != nil {
				logger.Error().Err(err).Int64("user_id", paymentEvent.UserID).Msg("Failed to store Stripe subscription ID")
			}
		}

		logger.Info().
			Int64("user_id", paymentEvent.UserID).
			Str("status", paymentEvent.Status).
			Str("strategy", paymentEvent.Strategy).
			Msg("Subscription updated")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}
}

// subscriptionStore is the part of the database the webhook writes to
type subscriptionStore interface {
	RenewSubscription(userID int64, paymentID string, until time.Time) error
	UpdateSubscriptionStatus(userID int64, status string, paymentID string) error
}

// applyPaymentEvent stores a status change. Accepted payments extend the
// expiry to the billed period end, or one month when Stripe sends none.
func applyPaymentEvent(db subscriptionStore, ev payment.PaymentEvent, paymentID string, now time.Time) error {
	if ev.Status != models.PaymentStatusAccepted {
		return db.UpdateSubscriptionStatus(ev.UserID, ev.Status, paymentID)
	}

	until := ev.PaidThrough
	if until.IsZero() || until.Before(now) {
		until = now.AddDate(0, 1, 0)
	}
	return db.RenewSubscription(ev.UserID, paymentID, until)
}

// maskSecret masks a secret string for logging (shows first 3 and last 3 characters)
func maskSecret(secret string) string {
	if len(secret) < 7 {
		return "***"
	}
	return secret[:3] + "..." + secret[len(secret)-3:]
}
