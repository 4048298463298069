package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/stockai-go/internal/models"
)

// maxSignalsPerAlert bounds how many signals a single message lists.
const maxSignalsPerAlert = 5

// NotificationService delivers watchlist signals to Telegram chats.
type NotificationService struct {
	bot     *bot.Bot
	chatIDs []int64
	logger  *logrus.Logger
}

// NewNotificationService creates a Telegram notifier. serverURL overrides the
// Bot API endpoint and is empty in production.
func NewNotificationService(token string, chatIDs []string, serverURL string, logger *logrus.Logger) (*NotificationService, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is required")
	}

	ids := make([]int64, 0, len(chatIDs))
	for _, raw := range chatIDs {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat ID %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("at least one telegram chat ID is required")
	}

	opts := []bot.Option{bot.WithSkipGetMe()}
	if serverURL != "" {
		opts = append(opts, bot.WithServerURL(serverURL))
	}
	telegramBot, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &NotificationService{bot: telegramBot, chatIDs: ids, logger: logger}, nil
}

// NotifySignals implements SignalNotifier. Delivery continues past a failing
// chat; the joined error reports every failure.
func (ns *NotificationService) NotifySignals(ctx context.Context, signals []*models.AnalysisResult) error {
	if len(signals) == 0 {
		return nil
	}

	message := formatSignalMessage(signals)

	var errs []error
	for _, chatID := range ns.chatIDs {
		_, err := ns.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      message,
			ParseMode: tgmodels.ParseModeMarkdown,
		})
		if err != nil {
			ns.logger.WithFields(logrus.Fields{
				"chat_id": chatID,
				"error":   err.Error(),
			}).Error("Failed to send signal alert")
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
			continue
		}
		ns.logger.WithFields(logrus.Fields{
			"chat_id": chatID,
			"signals": len(signals),
		}).Info("Sent signal alert")
	}

	return errors.Join(errs...)
}

func formatSignalMessage(signals []*models.AnalysisResult) string {
	top := signals
	if len(top) > maxSignalsPerAlert {
		top = top[:maxSignalsPerAlert]
	}

	var b strings.Builder
	b.WriteString("📊 *Watchlist Signals*\n\n")
	fmt.Fprintf(&b, "Found %d actionable signals:\n\n", len(signals))

	for i, s := range top {
		icon := "📈"
		if s.Decision.Action == models.ActionSell {
			icon = "📉"
		}
		fmt.Fprintf(&b, "*%d. %s* %s %s\n", i+1, s.Symbol, icon, s.Decision.Action)
		fmt.Fprintf(&b, "💵 Price: $%.2f\n", s.CurrentPrice)
		fmt.Fprintf(&b, "🎯 Confidence: *%.0f%%*\n", s.Decision.Confidence*100)
		if rsi, ok := s.Indicators.RSI.Get(); ok {
			fmt.Fprintf(&b, "RSI: %.1f\n", rsi)
		}
		if summary, ok := s.Sentiment.Get(); ok {
			fmt.Fprintf(&b, "📰 News: %s (%.2f)\n", summary.OverallSentiment, summary.OverallScore)
		}
		b.WriteString("\n")
	}

	if len(signals) > maxSignalsPerAlert {
		fmt.Fprintf(&b, "...and %d more signals\n\n", len(signals)-maxSignalsPerAlert)
	}

	b.WriteString("_Signals are informational and not investment advice._")
	return b.String()
}
