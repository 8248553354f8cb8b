package telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Alias1177/Baccarat/models"
)

// handleSubscribe starts a Stripe checkout for a premium strategy
func (h *Handler) handleSubscribe(userID, chatID int64, strategy string) {
	if h.checkout == nil || !h.checkout.Enabled() {
		h.reply(chatID, "Payments are not configured. All strategies are available.")
		return
	}

	// Send a loading message
	sentMsg, err := h.bot.Send(tgbotapi.NewMessage(chatID, "Creating payment session..."))
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Error sending loading message")
	}

	if _, err := h.db.CreateSubscription(userID, chatID, strategy); err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Error creating subscription")
		h.reply(chatID, genericError)
		return
	}

	sessionID, paymentURL, err := h.checkout.CreateCheckoutSession(userID, strategy)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Error creating Stripe session")
		h.reply(chatID, "Payment system error. Please try again or contact support.")
		return
	}
	h.logger.Info().Int64("user_id", userID).Str("session_id", sessionID).Str("strategy", strategy).Msg("Checkout session created")

	editMsg := tgbotapi.NewEditMessageText(chatID, sentMsg.MessageID, "Please complete your payment to unlock premium strategies.")
	editMsg.ReplyMarkup = &tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
			{tgbotapi.NewInlineKeyboardButtonURL("Pay Now", paymentURL)},
		},
	}
	h.send(editMsg)
	h.reply(chatID, "After completing payment, return to this chat. Your subscription will be activated automatically.")
}

// handlePaymentSuccess reports the subscription after the checkout return.
// Only the Stripe webhook accepts a subscription.
func (h *Handler) handlePaymentSuccess(userID, chatID int64) {
	sub, err := h.db.GetSubscription(userID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Error retrieving subscription")
		h.reply(chatID, genericError)
		return
	}
	if sub == nil {
		h.reply(chatID, "No subscription found. Pick a premium strategy with /strategy to subscribe.")
		return
	}

	switch sub.Status {
	case models.PaymentStatusPending:
		h.logger.Info().Int64("user_id", userID).Msg("Payment return before webhook confirmation")
		h.reply(chatID, "Thank you! We are waiting for Stripe to confirm your payment. Your subscription will be activated automatically, check /status in a minute.")
	case models.PaymentStatusAccepted:
		daysLeft := int(time.Until(sub.ExpiresAt).Hours() / 24)
		h.reply(chatID, fmt.Sprintf("Your subscription is active and will expire in %d days.\n\n%s", daysLeft, disclaimer))
	default:
		h.reply(chatID, fmt.Sprintf("Your subscription status is: %s. Please contact support if you believe this is an error.", sub.Status))
	}

	if s, ok := h.store.Get(owner(userID)); ok {
		h.sendBoard(chatID, s, s.Overview())
	}
}

const disclaimer = "Baccarat rounds are independent. Suggestions are pattern readings for entertainment, not a statistical edge. Never bet more than you can afford to lose."

func (h *Handler) handleStatus(userID, chatID int64) {
	sub, err := h.db.GetSubscription(userID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Error retrieving subscription")
		h.reply(chatID, genericError)
		return
	}

	var statusMsg string
	switch {
	case sub == nil:
		statusMsg = "You don't have a subscription. Free strategies are always available."
	case sub.Status == models.PaymentStatusPending:
		statusMsg = "Your subscription is pending payment. Please complete the payment to activate it."
	case sub.Status == models.PaymentStatusAccepted:
		daysLeft := int(time.Until(sub.ExpiresAt).Hours() / 24)
		statusMsg = fmt.Sprintf("You have an active subscription. It will expire in %d days.", daysLeft)
	case sub.Status == models.PaymentStatusClosed:
		statusMsg = "Your subscription has expired. Subscribe again to use premium strategies."
	default:
		statusMsg = "Your subscription status is unknown. Please contact support."
	}

	if s, ok := h.store.Get(owner(userID)); ok {
		statusMsg += fmt.Sprintf("\nTable: %d rounds, strategy %s.", s.Len(), s.Strategy().Name())
	}
	h.reply(chatID, statusMsg)
}

// handleCancelSubscription cancels in Stripe first, then closes the row
func (h *Handler) handleCancelSubscription(userID, chatID int64) {
	h.logger.Info().Int64("user_id", userID).Msg("User requested subscription cancellation")

	sub, err := h.db.GetSubscription(userID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Error getting subscription from database")
		h.reply(chatID, genericError)
		return
	}
	if sub == nil {
		h.reply(chatID, "No subscription found.")
		return
	}
	if sub.Status == models.PaymentStatusClosed {
		h.reply(chatID, "Subscription is already cancelled.")
		return
	}

	stripeCancelled := false
	if sub.StripeSubscriptionID != "" && h.checkout != nil {
		if err := h.checkout.CancelSubscription(sub.StripeSubscriptionID); err != nil {
			h.logger.Error().Err(err).Str("subscription_id", sub.StripeSubscriptionID).Msg("Failed to cancel Stripe subscription")
		} else {
			stripeCancelled = true
		}
	}

	if err := h.db.CloseSubscription(userID); err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Error cancelling subscription in database")
		h.reply(chatID, genericError)
		return
	}

	h.logger.Info().Int64("user_id", userID).Bool("stripe_success", stripeCancelled).Msg("Subscription cancellation completed")
	if stripeCancelled || sub.StripeSubscriptionID == "" {
		h.reply(chatID, "Subscription cancelled. You will not be charged again.")
	} else {
		h.reply(chatID, "Subscription cancelled here, but Stripe did not confirm the cancellation. Please contact support to make sure you are not charged again.")
	}
}
