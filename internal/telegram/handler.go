// Package telegram is the chat display surface: a scoring pad, strategy
// picker and premium checkout on top of the session store.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Baccarat/internal/analyze"
	"github.com/Alias1177/Baccarat/internal/payment"
	"github.com/Alias1177/Baccarat/internal/render"
	"github.com/Alias1177/Baccarat/internal/session"
	"github.com/Alias1177/Baccarat/models"
)

const genericError = "Sorry, there was an error. Please try again later."

// Sender is the part of *tgbotapi.BotAPI the handler uses
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Database is the persistence the bot needs
type Database interface {
	models.Journal
	models.SubscriptionSource
	CreateSubscription(userID, chatID int64, strategy string) (*models.UserSubscription, error)
	CloseSubscription(userID int64) error
	UpdateLastPredicted(userID int64) error
	JournalStats(ctx context.Context, userID int64) (models.JournalStats, error)
}

// Checkout creates and cancels paid subscriptions
type Checkout interface {
	Enabled() bool
	CreateCheckoutSession(userID int64, strategy string) (string, string, error)
	CancelSubscription(subscriptionID string) error
}

// Handler routes bot updates to sessions
type Handler struct {
	bot      Sender
	store    *session.Store
	commands *session.Commands
	db       Database
	checkout Checkout
	gate     *payment.Gate
	window   int
	logger   zerolog.Logger
}

// NewHandler wires the bot to its sessions, database and checkout
func NewHandler(bot Sender, store *session.Store, db Database, checkout Checkout, gate *payment.Gate, window int) *Handler {
	return &Handler{
		bot:      bot,
		store:    store,
		commands: session.NewCommands(db, models.SurfaceTelegram),
		db:       db,
		checkout: checkout,
		gate:     gate,
		window:   window,
		logger:   log.With().Str("component", "telegram").Logger(),
	}
}

// Run handles updates until the channel closes or ctx is cancelled
func (h *Handler) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches a single update
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		h.handleMessage(ctx, update.Message)
	} else if update.CallbackQuery != nil {
		h.handleCallback(ctx, update.CallbackQuery)
	}
}

func owner(userID int64) string {
	return "tg:" + strconv.FormatInt(userID, 10)
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send message")
	}
}

func (h *Handler) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

// handleMessage processes commands and typed-in results
func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	userID := message.From.ID
	chatID := message.Chat.ID

	switch message.Command() {
	case "start":
		switch message.CommandArguments() {
		case "payment_success":
			h.handlePaymentSuccess(userID, chatID)
			return
		case "payment_cancel":
			h.reply(chatID, "Your payment was cancelled. You can try again later when you're ready.")
			return
		}
		s := h.store.Open(owner(userID), userID)
		h.reply(chatID, "Welcome to the baccarat table tracker! Tap the result of each round, then Analyze for a suggestion.")
		h.sendBoard(chatID, s, s.Overview())
	case "table":
		s := h.store.Open(owner(userID), userID)
		h.sendBoard(chatID, s, s.Overview())
	case "strategy":
		s := h.store.Open(owner(userID), userID)
		msg := tgbotapi.NewMessage(chatID, "Choose a strategy:")
		msg.ReplyMarkup = strategyKeyboard(s.Strategy().Name(), h.gate.IsPremium)
		h.send(msg)
	case "stats":
		h.handleStats(ctx, userID, chatID)
	case "status":
		h.handleStatus(userID, chatID)
	case "cancel":
		h.handleCancelSubscription(userID, chatID)
	case "end":
		if err := h.store.Discard(owner(userID)); err != nil {
			h.reply(chatID, "No open table. Send /start to begin.")
			return
		}
		h.reply(chatID, "Table closed. Send /start to open a new one.")
	case "help":
		h.reply(chatID, helpText)
	case "":
		h.recordText(ctx, userID, chatID, message.Text)
	default:
		h.reply(chatID, "Unknown command.\n\n"+helpText)
	}
}

const helpText = `/start - open the scoring table
/table - show the table again
/strategy - choose the prediction strategy
/stats - hit rate of your past suggestions
/status - subscription status
/cancel - cancel your subscription
/end - close the table
You can also type results, e.g. "B P P T".`

// recordText records typed results such as "B B P T"
func (h *Handler) recordText(ctx context.Context, userID, chatID int64, text string) {
	outcomes, err := models.ParseOutcomes(text)
	if err != nil || len(outcomes) == 0 {
		h.reply(chatID, "Could not read that. Use B, P and T, e.g. \"B P P T\".")
		return
	}

	s := h.store.Open(owner(userID), userID)
	var report models.Report
	for _, o := range outcomes {
		if report, err = h.commands.Record(ctx, s, o); err != nil {
			h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to record result")
			h.reply(chatID, genericError)
			return
		}
	}
	h.sendBoard(chatID, s, report)
}

// handleCallback processes keyboard presses
func (h *Handler) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID
	data := callback.Data

	// Acknowledge the callback query
	if _, err := h.bot.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to answer callback")
	}

	s := h.store.Open(owner(userID), userID)

	switch {
	case data == cbBanker, data == cbPlayer, data == cbTie:
		o, err := models.ParseOutcome(strings.TrimPrefix(data, "rec_"))
		if err != nil {
			return
		}
		report, err := h.commands.Record(ctx, s, o)
		if err != nil {
			h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to record result")
			return
		}
		h.editBoard(chatID, messageID, s, report)
	case data == cbUndo:
		report, ok := h.commands.Undo(s)
		if !ok {
			return
		}
		h.editBoard(chatID, messageID, s, report)
	case data == cbClear:
		h.editBoard(chatID, messageID, s, h.commands.Clear(s))
	case data == cbAnalyze:
		h.handleAnalyze(ctx, userID, chatID, messageID, s)
	case data == cbTable:
		h.sendBoard(chatID, s, s.Overview())
	case strings.HasPrefix(data, cbStrategy):
		h.handleStrategy(userID, chatID, s, strings.TrimPrefix(data, cbStrategy))
	case strings.HasPrefix(data, cbPay):
		h.handleSubscribe(userID, chatID, strings.TrimPrefix(data, cbPay))
	}
}

func (h *Handler) handleAnalyze(ctx context.Context, userID, chatID int64, messageID int, s *session.Session) {
	name := s.Strategy().Name()
	if err := h.gate.Allow(userID, name); err != nil {
		if errors.Is(err, payment.ErrPremiumRequired) {
			h.offerSubscription(chatID, name)
			return
		}
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Error checking access")
		h.reply(chatID, genericError)
		return
	}

	report := h.commands.Analyze(ctx, s)
	if h.gate.IsPremium(name) {
		if err := h.db.UpdateLastPredicted(userID); err != nil {
			h.logger.Error().Err(err).Int64("user_id", userID).Msg("Error updating last predicted time")
		}
	}
	h.editBoard(chatID, messageID, s, report)
}

func (h *Handler) handleStrategy(userID, chatID int64, s *session.Session, name string) {
	strategy, err := analyze.NewStrategy(name)
	if err != nil {
		h.reply(chatID, "Unknown strategy.")
		return
	}
	if err := h.gate.Allow(userID, name); err != nil {
		if errors.Is(err, payment.ErrPremiumRequired) {
			h.offerSubscription(chatID, name)
			return
		}
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Error checking access")
		h.reply(chatID, genericError)
		return
	}

	s.SetStrategy(strategy)
	h.logger.Info().Int64("user_id", userID).Str("strategy", name).Msg("Strategy changed")
	h.reply(chatID, fmt.Sprintf("Strategy set to %s.", name))
}

func (h *Handler) offerSubscription(chatID int64, strategy string) {
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("The %s strategy needs a premium subscription.", strategy))
	msg.ReplyMarkup = paymentKeyboard(strategy)
	h.send(msg)
}

func (h *Handler) handleStats(ctx context.Context, userID, chatID int64) {
	stats, err := h.db.JournalStats(ctx, userID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Error loading journal stats")
		h.reply(chatID, genericError)
		return
	}
	h.reply(chatID, render.JournalStats(stats))
}

// board renders everything the table message shows
func (h *Handler) board(s *session.Session, report models.Report) string {
	var sb strings.Builder
	sb.WriteString(render.Summary(report, h.window, s.Recent(h.window)))
	sb.WriteString("\n\n")
	sb.WriteString(render.Roads(report))
	if report.Prediction.Status != "" {
		sb.WriteString("\n\n")
		sb.WriteString(render.Advice(report.Prediction))
	}
	fmt.Fprintf(&sb, "\n\nStrategy: %s", report.Strategy)
	return sb.String()
}

func (h *Handler) sendBoard(chatID int64, s *session.Session, report models.Report) {
	msg := tgbotapi.NewMessage(chatID, h.board(s, report))
	msg.ReplyMarkup = tableKeyboard()
	h.send(msg)
}

func (h *Handler) editBoard(chatID int64, messageID int, s *session.Session, report models.Report) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, h.board(s, report), tableKeyboard())
	if _, err := h.bot.Send(edit); err != nil {
		// Telegram rejects edits that leave the text unchanged
		h.logger.Debug().Err(err).Msg("Board edit rejected")
	}
}
