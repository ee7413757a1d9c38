package telegram

import (
	"context"
	"io"
	"net/http"
	"path/filepath"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"audio_extract_bot/entity"
)

// The controller doubles as the pipeline's file gateway: it opens chat
// uploads for reading and sends finished audio back.
var (
	_ entity.UploadOpener = (*Controller)(nil)
	_ entity.Deliverer    = (*Controller)(nil)
)

// OpenUpload streams the content of a file the user sent to the chat.
func (c *Controller) OpenUpload(ctx context.Context, fileID string) (io.ReadCloser, error) {
	file, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, errors.Wrap(err, "telegram GetFile")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(c.bot.Token), nil)
	if err != nil {
		return nil, errors.Wrap(err, "upload request")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "upload fetch")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("upload fetch: HTTP %d", resp.StatusCode)
	}

	return resp.Body, nil
}

// DeliverAudio sends the extracted audio file as an audio message.
func (c *Controller) DeliverAudio(ctx context.Context, chatID int64, audio entity.ExtractionResult) error {
	msg := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(audio.Path))
	msg.Caption = "Here is your audio 🎧"
	msg.Title = filepath.Base(audio.Path)
	if audio.Duration > 0 {
		msg.Duration = int(audio.Duration.Seconds())
	}

	if _, err := c.bot.Send(msg); err != nil {
		return errors.Wrapf(entity.ErrDeliveryFailed, "send audio: %v", err)
	}
	return nil
}
