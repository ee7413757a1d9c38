package entity

import (
	"context"
	"io"
	"time"
)

// Upload references a file the user sent to the chat directly instead of a link.
type Upload struct {
	FileID   string
	FileName string
	Size     int64
}

// ExtractRequest is one unit of work: a chat asking for the audio track of a video.
// Exactly one of Link or Upload is set.
type ExtractRequest struct {
	ChatID    int64
	MessageID int
	Link      string
	Upload    *Upload
}

// SourceKind tags the fetch strategy chosen for a link.
type SourceKind int

const (
	// SourceDirect is a plain http(s) link to a media file.
	SourceDirect SourceKind = iota
	// SourceCloudAPI is a cloud-storage public link resolved to a direct URL
	// through the provider API.
	SourceCloudAPI
	// SourceDelegated hands the link to the external downloader (yt-dlp).
	SourceDelegated
)

func (k SourceKind) String() string {
	switch k {
	case SourceDirect:
		return "direct"
	case SourceCloudAPI:
		return "cloud-api"
	case SourceDelegated:
		return "delegated"
	}
	return "unknown"
}

// ResolvedSource is the concrete fetch strategy for a link. DirectURL is set
// for SourceDirect and SourceCloudAPI; delegated downloads keep only the
// original URL.
type ResolvedSource struct {
	Kind      SourceKind
	URL       string
	DirectURL string
	Filename  string
}

// DownloadResult describes a fetched video file inside a workspace.
type DownloadResult struct {
	Path     string
	Filename string
	Size     int64
	Source   string
}

// ExtractionResult describes the produced audio file.
type ExtractionResult struct {
	Path     string
	Format   string
	Bitrate  string
	Size     int64
	Duration time.Duration
}

// ExtractUsecase runs one request through the pipeline.
type ExtractUsecase interface {
	Process(ctx context.Context, req ExtractRequest, notifier ProgressNotifier) error
}

// SourceResolver picks the fetch strategy for a user-supplied link.
type SourceResolver interface {
	Resolve(ctx context.Context, link string) (ResolvedSource, error)
}

// Downloader fetches a resolved source into dir, reporting progress.
type Downloader interface {
	Download(ctx context.Context, src ResolvedSource, dir string, progress ProgressFunc) (DownloadResult, error)
}

// AudioExtractor produces an audio file next to the source video.
type AudioExtractor interface {
	Extract(ctx context.Context, videoPath string) (ExtractionResult, error)
}

// UploadOpener streams the content of a chat upload. The transport owns how
// the bytes are actually fetched from the messaging backend.
type UploadOpener interface {
	OpenUpload(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// Deliverer hands the produced audio back to the chat.
type Deliverer interface {
	DeliverAudio(ctx context.Context, chatID int64, audio ExtractionResult) error
}
