// Package notifications sends operational alerts to Telegram.
package notifications

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type TelegramNotifier struct {
	token  string
	chatID string
	client *http.Client
}

func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) SendAlert(level, message string) error {
	emoji := "ℹ️"
	switch level {
	case "warning":
		emoji = "⚠️"
	case "error":
		emoji = "🚨"
	case "success":
		emoji = "✅"
	}

	text := fmt.Sprintf("%s *AlgoCrypto Alert*\n\n%s", emoji, message)

	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)

	data := url.Values{}
	data.Set("chat_id", t.chatID)
	data.Set("text", text)
	data.Set("parse_mode", "Markdown")

	resp, err := t.client.Post(apiURL, "application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// NotifyTradeOpened formats and sends a position-opened alert.
func (t *TelegramNotifier) NotifyTradeOpened(symbol, side string, qty, price float64) error {
	return t.SendAlert("success", fmt.Sprintf(
		"Opened %s %s\nSize: %.6f\nEntry: %.4f", side, symbol, qty, price))
}

// NotifyTradeClosed formats and sends a position-closed alert.
func (t *TelegramNotifier) NotifyTradeClosed(symbol, side, reason string, pnl float64) error {
	level := "success"
	if pnl < 0 {
		level = "warning"
	}
	return t.SendAlert(level, fmt.Sprintf(
		"Closed %s %s (%s)\nPnL: %.4f", side, symbol, reason, pnl))
}

// NotifyDrawdownHalt sends the kill-switch alert.
func (t *TelegramNotifier) NotifyDrawdownHalt(drawdown, limit float64) error {
	return t.SendAlert("error", fmt.Sprintf(
		"Drawdown kill switch engaged\nDrawdown: %.2f%% (limit %.2f%%)\nNew entries are refused until the portfolio recovers.",
		drawdown*100, limit*100))
}
