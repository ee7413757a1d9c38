// Package downloader fetches resolved sources into a request workspace.
// Direct and cloud-API sources stream over HTTP; everything else is
// delegated to yt-dlp.
package downloader

import (
	"context"

	"github.com/pkg/errors"

	"audio_extract_bot/entity"
)

// Downloader dispatches on the resolved source kind. The switch is
// exhaustive: an unknown kind is a programming error, not a user error.
type Downloader struct {
	http  *HTTPFetcher
	ytdlp *YTDLP
}

func New(http *HTTPFetcher, ytdlp *YTDLP) *Downloader {
	return &Downloader{http: http, ytdlp: ytdlp}
}

var _ entity.Downloader = (*Downloader)(nil)

func (d *Downloader) Download(ctx context.Context, src entity.ResolvedSource, dir string, progress entity.ProgressFunc) (entity.DownloadResult, error) {
	switch src.Kind {
	case entity.SourceDirect, entity.SourceCloudAPI:
		return d.http.Fetch(ctx, src, dir, progress)
	case entity.SourceDelegated:
		return d.ytdlp.Fetch(ctx, src, dir, progress)
	default:
		return entity.DownloadResult{}, errors.Wrapf(entity.ErrInternal, "unhandled source kind %d", src.Kind)
	}
}
