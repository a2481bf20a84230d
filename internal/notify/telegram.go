package notify

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram fans a message out to every configured chat. A send failure to
// one chat is logged and does not prevent delivery to the rest, and is
// never surfaced to the caller — the contract forbids raising on transport
// failure.
type Telegram struct {
	api     *tgbotapi.BotAPI
	chatIDs []int64
	logger  *zap.Logger
}

// NewTelegram creates a Telegram notifier bound to botToken, fanning out
// to chatIDs.
func NewTelegram(botToken string, chatIDs []int64, logger *zap.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Telegram{api: api, chatIDs: chatIDs, logger: logger}, nil
}

func (t *Telegram) Send(text string) {
	if len(t.chatIDs) == 0 {
		t.logger.Warn("telegram notifier has no configured chat ids, dropping message")
		return
	}

	for _, chatID := range t.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := t.api.Send(msg); err != nil {
			t.logger.Warn("telegram send failed", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}
