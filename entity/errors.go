package entity

import "errors"

// Pipeline error taxonomy. Every failure the orchestrator surfaces wraps
// exactly one of these, so the transport can map it to a single user-facing
// notice without leaking internals.
var (
	ErrUnsupportedLink  = errors.New("unsupported link")
	ErrDownloadFailed   = errors.New("download failed")
	ErrExtractionFailed = errors.New("extraction failed")
	ErrDeliveryFailed   = errors.New("delivery failed")
	ErrInternal         = errors.New("internal error")
)

// UserMessage maps a pipeline error to the short notice shown in chat.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedLink):
		return "I can't handle that link. Send a direct video link, a Yandex Disk or Mail.ru public link, or upload the file."
	case errors.Is(err, ErrDownloadFailed):
		return "Downloading the video failed. Check the link and try again."
	case errors.Is(err, ErrExtractionFailed):
		return "Extracting the audio track failed."
	case errors.Is(err, ErrDeliveryFailed):
		return "The audio was ready but sending it failed. Try again."
	default:
		return "Something went wrong. Try again later."
	}
}
