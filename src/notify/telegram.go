package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

const rowsPerMessage = 5

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts payloads to chats. Recipients are numeric chat ids.
type Telegram struct {
	bot telegramSender
}

func NewTelegram(token string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}
	return &Telegram{bot: bot}, nil
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Deliver(ctx context.Context, recipient string, p Payload) error {
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", recipient, err)
	}

	for _, text := range telegramMessages(p) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			return err
		}
	}
	return nil
}

// telegramMessages splits a payload into messages of at most five rows each.
func telegramMessages(p Payload) []string {
	if p.Kind != Success {
		return []string{p.Subject() + "\n\n" + p.Text()}
	}

	var messages []string
	rows := p.Rows
	for len(rows) > 0 {
		n := rowsPerMessage
		if len(rows) < n {
			n = len(rows)
		}

		blocks := make([]string, 0, n+1)
		if len(messages) == 0 {
			blocks = append(blocks, p.Subject())
		}
		for _, row := range rows[:n] {
			blocks = append(blocks, rowBlock(row))
		}
		messages = append(messages, strings.Join(blocks, "\n"))
		rows = rows[n:]
	}
	return messages
}
