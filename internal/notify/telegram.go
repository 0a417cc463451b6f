package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// TelegramNotifier sends reminders as Telegram messages. The destination is
// the numeric chat ID of the user's private chat with the bot.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	logger *logrus.Logger
}

// NewTelegramNotifier authorizes against the Bot API with the given token.
func NewTelegramNotifier(token string, logger *logrus.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)

	return &TelegramNotifier{api: api, logger: logger}, nil
}

// Send delivers the reminder text to the chat identified by destination.
func (n *TelegramNotifier) Send(ctx context.Context, destination, text string) error {
	chatID, err := strconv.ParseInt(destination, 10, 64)
	if err != nil {
		return fmt.Errorf("destination %q is not a valid chat ID: %w", destination, err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
