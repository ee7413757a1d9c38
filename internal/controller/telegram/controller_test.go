package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"audio_extract_bot/entity"
)

func TestRequestFrom(t *testing.T) {
	chat := &tgbotapi.Chat{ID: 42}

	tests := []struct {
		name       string
		msg        *tgbotapi.Message
		ok         bool
		wantLink   string
		wantUpload bool
	}{
		{
			name:     "http link",
			msg:      &tgbotapi.Message{Chat: chat, Text: "  https://example.com/v.mp4  "},
			ok:       true,
			wantLink: "https://example.com/v.mp4",
		},
		{
			name: "plain text ignored",
			msg:  &tgbotapi.Message{Chat: chat, Text: "hello there"},
			ok:   false,
		},
		{
			name:       "video upload",
			msg:        &tgbotapi.Message{Chat: chat, Video: &tgbotapi.Video{FileID: "vid-1", FileName: "clip.mp4", FileSize: 10}},
			ok:         true,
			wantUpload: true,
		},
		{
			name:       "video note",
			msg:        &tgbotapi.Message{Chat: chat, VideoNote: &tgbotapi.VideoNote{FileID: "note-1", FileSize: 5}},
			ok:         true,
			wantUpload: true,
		},
		{
			name:       "video document",
			msg:        &tgbotapi.Message{Chat: chat, Document: &tgbotapi.Document{FileID: "doc-1", FileName: "clip.mkv", MimeType: "video/x-matroska"}},
			ok:         true,
			wantUpload: true,
		},
		{
			name: "non-video document ignored",
			msg:  &tgbotapi.Message{Chat: chat, Document: &tgbotapi.Document{FileID: "doc-2", FileName: "notes.pdf", MimeType: "application/pdf"}},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, ok := requestFrom(tt.msg)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if req.ChatID != 42 {
				t.Errorf("chat id = %d", req.ChatID)
			}
			if req.Link != tt.wantLink {
				t.Errorf("link = %q, want %q", req.Link, tt.wantLink)
			}
			if (req.Upload != nil) != tt.wantUpload {
				t.Errorf("upload = %v, want upload %v", req.Upload, tt.wantUpload)
			}
		})
	}
}

func TestRenderPhases(t *testing.T) {
	tests := []struct {
		ev   entity.ProgressEvent
		want string
	}{
		{entity.ProgressEvent{Phase: entity.PhaseResolving, Percent: entity.IndeterminatePercent}, "🔎 Resolving the link..."},
		{entity.ProgressEvent{Phase: entity.PhaseDownloading, Percent: entity.IndeterminatePercent}, "📥 Downloading video..."},
		{entity.ProgressEvent{Phase: entity.PhaseDownloading, Percent: 47}, "📥 Downloading video... 40%"},
		{entity.ProgressEvent{Phase: entity.PhaseDownloading, Percent: 100}, "📥 Downloading video... 100%"},
		{entity.ProgressEvent{Phase: entity.PhaseExtracting, Percent: entity.IndeterminatePercent}, "🎵 Extracting audio track..."},
		{entity.ProgressEvent{Phase: entity.PhaseUploading, Percent: entity.IndeterminatePercent}, "📤 Sending audio..."},
		{entity.ProgressEvent{Phase: entity.PhaseDone, Percent: 100}, ""},
	}

	for _, tt := range tests {
		if got := render(tt.ev); got != tt.want {
			t.Errorf("render(%s, %d) = %q, want %q", tt.ev.Phase, tt.ev.Percent, got, tt.want)
		}
	}
}

func TestRenderCoalescesPercentSteps(t *testing.T) {
	// 41 through 49 must render identically so the notifier's dedup drops them.
	base := render(entity.ProgressEvent{Phase: entity.PhaseDownloading, Percent: 40})
	for p := 41; p < 50; p++ {
		if got := render(entity.ProgressEvent{Phase: entity.PhaseDownloading, Percent: p}); got != base {
			t.Fatalf("render(%d%%) = %q, want %q", p, got, base)
		}
	}
}
