// Package telegram is the chat transport: it turns incoming messages into
// pipeline requests and reports progress back by editing a status message.
package telegram

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"audio_extract_bot/entity"
	"audio_extract_bot/pkg/logger"
)

const (
	startReply = "Send me a video link (Yandex Disk, Mail.ru, direct links, or any yt-dlp supported site) or upload a video file. I'll extract the audio track and send it back."
	helpReply  = "Commands:\n/start — what this bot does\n/help — this message\n\nSend a video link or upload a video to get its audio track."
)

type Controller struct {
	bot         *tgbotapi.BotAPI
	l           logger.Interface
	pollTimeout int

	// sem bounds concurrently processed requests; workspaces are disjoint
	// so this is purely a host-resource limit.
	sem chan struct{}
	wg  sync.WaitGroup
}

func NewController(token string, pollTimeout, maxConcurrent int, l logger.Interface) (*Controller, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram bot init")
	}
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	return &Controller{
		bot:         bot,
		l:           l,
		pollTimeout: pollTimeout,
		sem:         make(chan struct{}, maxConcurrent),
	}, nil
}

// Run polls for updates until ctx is cancelled, then waits for in-flight
// requests to finish.
func (c *Controller) Run(ctx context.Context, uc entity.ExtractUsecase) {
	c.l.Info("telegram bot connected as @%s", c.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.pollTimeout
	updates := c.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			c.l.Info("telegram controller stopping")
			c.bot.StopReceivingUpdates()
			c.wg.Wait()
			return
		case update, ok := <-updates:
			if !ok {
				c.wg.Wait()
				return
			}
			c.handleUpdate(ctx, update, uc)
		}
	}
}

func (c *Controller) handleUpdate(ctx context.Context, update tgbotapi.Update, uc entity.ExtractUsecase) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	if msg.IsCommand() {
		c.handleCommand(msg)
		return
	}

	req, ok := requestFrom(msg)
	if !ok {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.sem <- struct{}{}
		defer func() { <-c.sem }()
		c.process(ctx, req, uc)
	}()
}

func (c *Controller) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		c.reply(msg.Chat.ID, startReply)
	case "help":
		c.reply(msg.Chat.ID, helpReply)
	}
}

// requestFrom classifies an inbound message: a link, an uploaded video, or
// something this bot ignores.
func requestFrom(msg *tgbotapi.Message) (entity.ExtractRequest, bool) {
	req := entity.ExtractRequest{ChatID: msg.Chat.ID, MessageID: msg.MessageID}

	switch {
	case msg.Video != nil:
		req.Upload = &entity.Upload{FileID: msg.Video.FileID, FileName: msg.Video.FileName, Size: int64(msg.Video.FileSize)}
	case msg.VideoNote != nil:
		req.Upload = &entity.Upload{FileID: msg.VideoNote.FileID, FileName: "video_note.mp4", Size: int64(msg.VideoNote.FileSize)}
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "video/"):
		req.Upload = &entity.Upload{FileID: msg.Document.FileID, FileName: msg.Document.FileName, Size: int64(msg.Document.FileSize)}
	case strings.HasPrefix(strings.TrimSpace(msg.Text), "http"):
		req.Link = strings.TrimSpace(msg.Text)
	default:
		return entity.ExtractRequest{}, false
	}

	return req, true
}

func (c *Controller) process(ctx context.Context, req entity.ExtractRequest, uc entity.ExtractUsecase) {
	status, err := c.bot.Send(tgbotapi.NewMessage(req.ChatID, "🔎 Got it, starting..."))
	if err != nil {
		c.l.Error("status message send failed: %v", err)
		return
	}

	notifier := newStatusNotifier(c.bot, req.ChatID, status.MessageID, c.l)

	if err := uc.Process(ctx, req, notifier); err != nil {
		c.l.Error("request for chat %d failed: %v", req.ChatID, err)
		notifier.set(entity.UserMessage(err))
		return
	}

	notifier.set("✅ Done.")
}

func (c *Controller) reply(chatID int64, text string) {
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		c.l.Error("telegram send failed: %v", err)
	}
}
