package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"shoezclean/backend/internal/domain"
)

// LogNotifier writes realtime insert notices to the log.
type LogNotifier struct {
	log *logrus.Entry
}

func NewLogNotifier(log *logrus.Entry) *LogNotifier {
	if log == nil {
		log = logrus.WithField("module", "notify")
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NewRecord(_ context.Context, table domain.Table) {
	n.log.WithField("table", table).Info(NewRecordText(table))
}

// NewRecordText is the staff-facing notice for a record another client added.
func NewRecordText(table domain.Table) string {
	return fmt.Sprintf("Ada %s baru masuk", table.Label())
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts realtime insert notices to a staff chat.
type TelegramNotifier struct {
	bot    sender
	chatID int64
	log    *logrus.Entry
}

func NewTelegramNotifier(token string, chatID int64, log *logrus.Entry) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	if log == nil {
		log = logrus.WithField("module", "notify")
	}
	log.WithField("bot", bot.Self.UserName).Info("telegram notifier ready")
	return &TelegramNotifier{bot: bot, chatID: chatID, log: log}, nil
}

func (n *TelegramNotifier) NewRecord(_ context.Context, table domain.Table) {
	msg := tgbotapi.NewMessage(n.chatID, NewRecordText(table))
	if _, err := n.bot.Send(msg); err != nil {
		n.log.WithField("table", table).WithError(err).Warn("telegram notice failed")
	}
}
