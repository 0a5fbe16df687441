package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

// StartPolling begins long-polling for Telegram commands. Only messages from
// the configured chat are handled. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.api.GetUpdatesChan(u)
	t.log.Infof("Telegram polling started")

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			t.log.Infof("Telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.dispatch(ctx, update, handler)
		}
	}
}

func (t *TelegramNotifier) dispatch(ctx context.Context, update tgbotapi.Update, handler CommandHandler) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return
	}
	if msg.Chat.ID != t.chatID {
		t.log.Warnf("ignoring command from unknown chat %d", msg.Chat.ID)
		return
	}
	text := strings.TrimSpace(msg.Text)
	// "/run@sentinel_bot" -> "/run"
	if at := strings.IndexByte(text, '@'); at > 0 && strings.HasPrefix(text, "/") {
		text = text[:at]
	}
	t.log.Infof("received command: %s", text)
	reply := handler(ctx, text)
	if reply == "" {
		return
	}
	if err := t.Send(reply); err != nil {
		t.log.Errorf("send reply: %v", err)
	}
}
