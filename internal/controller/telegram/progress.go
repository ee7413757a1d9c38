package telegram

import (
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"audio_extract_bot/entity"
	"audio_extract_bot/pkg/logger"
)

// statusNotifier renders pipeline progress by editing one status message.
// Repeated identical texts are dropped so the Bot API is not hammered with
// no-op edits.
type statusNotifier struct {
	bot       *tgbotapi.BotAPI
	chatID    int64
	messageID int
	l         logger.Interface

	mu   sync.Mutex
	last string
}

func newStatusNotifier(bot *tgbotapi.BotAPI, chatID int64, messageID int, l logger.Interface) *statusNotifier {
	return &statusNotifier{bot: bot, chatID: chatID, messageID: messageID, l: l}
}

var _ entity.ProgressNotifier = (*statusNotifier)(nil)

func (n *statusNotifier) Notify(ev entity.ProgressEvent) {
	// Terminal states are rendered by the controller, which knows the
	// user-facing error text.
	if ev.Phase == entity.PhaseFailed || ev.Phase == entity.PhaseDone {
		return
	}
	n.set(render(ev))
}

func (n *statusNotifier) set(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if text == "" || text == n.last {
		return
	}
	n.last = text

	edit := tgbotapi.NewEditMessageText(n.chatID, n.messageID, text)
	if _, err := n.bot.Send(edit); err != nil {
		n.l.Warn("status edit failed: %v", err)
	}
}

func render(ev entity.ProgressEvent) string {
	switch ev.Phase {
	case entity.PhaseResolving:
		return "🔎 Resolving the link..."
	case entity.PhaseDownloading:
		if ev.Percent >= 0 {
			// Round down to 10% steps, one edit per step.
			return fmt.Sprintf("📥 Downloading video... %d%%", ev.Percent/10*10)
		}
		return "📥 Downloading video..."
	case entity.PhaseExtracting:
		return "🎵 Extracting audio track..."
	case entity.PhaseUploading:
		return "📤 Sending audio..."
	}
	return ""
}
