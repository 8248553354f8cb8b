package payment

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/subscription"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Alias1177/Baccarat/models"
)

// ErrUnhandledEvent is returned for webhook events that carry no status change
var ErrUnhandledEvent = errors.New("unhandled event type")

// StripeService handles Stripe payment operations
type StripeService struct {
	SubscriptionPriceID string
	WebhookSecret       string
	BotUsername         string

	apiKey string
}

// PaymentEvent is the status change carried by a webhook event
type PaymentEvent struct {
	UserID         int64
	Status         string
	SubscriptionID string
	Strategy       string
	// PaidThrough is the end of the billed period, zero when the event carries none
	PaidThrough time.Time
}

// NewStripeService creates a new Stripe payment service
func NewStripeService(apiKey, priceID, webhookSecret, botUsername string) *StripeService {
	// Initialize Stripe with the API key
	if apiKey != "" {
		stripe.Key = apiKey
	}

	return &StripeService{
		SubscriptionPriceID: priceID,
		WebhookSecret:       webhookSecret,
		BotUsername:         botUsername,
		apiKey:              apiKey,
	}
}

// Enabled reports whether checkout can be offered at all
func (s *StripeService) Enabled() bool {
	return s != nil && s.apiKey != "" && s.SubscriptionPriceID != ""
}

// CreateCheckoutSession creates a new Stripe checkout session for a subscription
func (s *StripeService) CreateCheckoutSession(userID int64, strategy string) (string, string, error) {
	successURL := fmt.Sprintf("https://t.me/%s?start=payment_success", s.BotUsername)
	cancelURL := fmt.Sprintf("https://t.me/%s?start=payment_cancel", s.BotUsername)

	metadata := map[string]string{
		"user_id":  strconv.FormatInt(userID, 10),
		"strategy": strategy,
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.SubscriptionPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}

	var sess *stripe.CheckoutSession
	operation := func() error {
		var err error
		sess, err = session.New(params)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 10 * time.Second

	if err := backoff.Retry(operation, backoffStrategy); err != nil {
		return "", "", fmt.Errorf("creating checkout session: %w", err)
	}

	return sess.ID, sess.URL, nil
}

// retryable reports whether a Stripe error is worth another attempt
func retryable(err error) bool {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return true // network level failure
	}
	return stripeErr.HTTPStatusCode == 429 || stripeErr.HTTPStatusCode >= 500
}

// VerifyWebhookSignature verifies the signature of a Stripe webhook event
func (s *StripeService) VerifyWebhookSignature(payload []byte, signature string) (*stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.WebhookSecret)
	return &event, err
}

// ProcessSubscriptionPayment maps a Stripe webhook event to a status change
func (s *StripeService) ProcessSubscriptionPayment(event *stripe.Event) (PaymentEvent, error) {
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return PaymentEvent{}, fmt.Errorf("failed to parse checkout session: %w", err)
		}

		log.Debug().Str("session_id", sess.ID).Str("mode", string(sess.Mode)).Msg("Checkout session completed")

		userID, err := userIDFromMetadata(sess.Metadata)
		if err != nil {
			return PaymentEvent{}, err
		}

		subscriptionID := ""
		if sess.Subscription != nil {
			subscriptionID = sess.Subscription.ID
		}

		return PaymentEvent{
			UserID:         userID,
			Status:         models.PaymentStatusAccepted,
			SubscriptionID: subscriptionID,
			Strategy:       sess.Metadata["strategy"],
		}, nil

	case "invoice.paid":
		// Renewals carry the subscription metadata on the invoice lines
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return PaymentEvent{}, fmt.Errorf("failed to parse invoice: %w", err)
		}
		if invoice.SubscriptionDetails == nil {
			return PaymentEvent{}, fmt.Errorf("invoice %s has no subscription details", invoice.ID)
		}

		userID, err := userIDFromMetadata(invoice.SubscriptionDetails.Metadata)
		if err != nil {
			return PaymentEvent{}, err
		}

		subscriptionID := ""
		if invoice.Subscription != nil {
			subscriptionID = invoice.Subscription.ID
		}

		return PaymentEvent{
			UserID:         userID,
			Status:         models.PaymentStatusAccepted,
			SubscriptionID: subscriptionID,
			Strategy:       invoice.SubscriptionDetails.Metadata["strategy"],
			PaidThrough:    paidThrough(&invoice),
		}, nil

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return PaymentEvent{}, fmt.Errorf("failed to parse subscription: %w", err)
		}

		userID, err := userIDFromMetadata(sub.Metadata)
		if err != nil {
			return PaymentEvent{}, err
		}

		return PaymentEvent{
			UserID:         userID,
			Status:         models.PaymentStatusClosed,
			SubscriptionID: sub.ID,
			Strategy:       sub.Metadata["strategy"],
		}, nil

	default:
		return PaymentEvent{}, fmt.Errorf("%w: %s", ErrUnhandledEvent, event.Type)
	}
}

// paidThrough is the latest period end across the invoice lines
func paidThrough(invoice *stripe.Invoice) time.Time {
	var end int64
	if invoice.Lines != nil {
		for _, line := range invoice.Lines.Data {
			if line != nil && line.Period != nil && line.Period.End > end {
				end = line.Period.End
			}
		}
	}
	if end == 0 {
		return time.Time{}
	}
	return time.Unix(end, 0).UTC()
}

func userIDFromMetadata(metadata map[string]string) (int64, error) {
	userIDStr, ok := metadata["user_id"]
	if !ok {
		return 0, fmt.Errorf("user_id not found in metadata")
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user_id: %w", err)
	}
	return userID, nil
}

// CancelSubscription cancels a user's Stripe subscription
func (s *StripeService) CancelSubscription(subscriptionID string) error {
	// Cancel the subscription immediately
	params := &stripe.SubscriptionCancelParams{}

	_, err := subscription.Cancel(subscriptionID, params)
	return err
}
