package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Alias1177/Baccarat/internal/analyze"
)

// Callback data
const (
	cbBanker   = "rec_B"
	cbPlayer   = "rec_P"
	cbTie      = "rec_T"
	cbUndo     = "undo"
	cbClear    = "clear"
	cbAnalyze  = "analyze"
	cbStrategy = "strategy_"
	cbPay      = "subscribe_"
	cbTable    = "table"
)

// tableKeyboard is the scoring pad attached to the board message
func tableKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Banker", cbBanker),
			tgbotapi.NewInlineKeyboardButtonData("Player", cbPlayer),
			tgbotapi.NewInlineKeyboardButtonData("Tie", cbTie),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Undo", cbUndo),
			tgbotapi.NewInlineKeyboardButtonData("Clear", cbClear),
			tgbotapi.NewInlineKeyboardButtonData("Analyze", cbAnalyze),
		),
	)
}

// strategyKeyboard lists every strategy, marking premium ones
func strategyKeyboard(current string, premium func(string) bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, name := range analyze.Names() {
		label := strings.ReplaceAll(name, "_", " ")
		if premium(name) {
			label += " ⭐"
		}
		if name == current {
			label = "• " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbStrategy+name),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// paymentKeyboard offers a checkout for a premium strategy
func paymentKeyboard(strategy string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Subscribe", cbPay+strategy),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("← Back to table", cbTable),
		),
	)
}
