package downloader

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"audio_extract_bot/entity"
	"audio_extract_bot/pkg/logger"
)

const delegatedFilename = "video.mp4"

// YTDLP fetches arbitrary platform links through the yt-dlp binary. The
// process runs under the request context, so cancelling the request kills
// the download instead of leaving it running.
type YTDLP struct {
	binPath  string
	l        logger.Interface
	maxBytes int64
	timeout  time.Duration
}

func NewYTDLP(binPath string, l logger.Interface, maxBytes int64, timeout time.Duration) *YTDLP {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &YTDLP{binPath: binPath, l: l, maxBytes: maxBytes, timeout: timeout}
}

func (y *YTDLP) Fetch(ctx context.Context, src entity.ResolvedSource, dir string, progress entity.ProgressFunc) (entity.DownloadResult, error) {
	if y.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.timeout)
		defer cancel()
	}

	dest := filepath.Join(dir, delegatedFilename)

	if progress != nil {
		progress(0, entity.IndeterminatePercent)
	}

	cmd := exec.CommandContext(ctx, y.binPath, y.args(src.URL, dest)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		y.l.Error("yt-dlp failed: %v: %s", err, stderr.String())
		return entity.DownloadResult{}, errors.Wrapf(entity.ErrDownloadFailed, "yt-dlp: %s", lastLine(stderr.String()))
	}

	info, err := os.Stat(dest)
	if err != nil {
		return entity.DownloadResult{}, errors.Wrap(entity.ErrDownloadFailed, "yt-dlp reported success but file is missing")
	}
	if info.Size() == 0 {
		return entity.DownloadResult{}, errors.Wrap(entity.ErrDownloadFailed, "zero-byte download")
	}
	if y.maxBytes > 0 && info.Size() > y.maxBytes {
		os.Remove(dest)
		return entity.DownloadResult{}, errors.Wrap(entity.ErrDownloadFailed, "file exceeds maximum allowed size")
	}

	if progress != nil {
		progress(info.Size(), info.Size())
	}

	return entity.DownloadResult{
		Path:     dest,
		Filename: delegatedFilename,
		Size:     info.Size(),
		Source:   src.Kind.String(),
	}, nil
}

func (y *YTDLP) args(link, dest string) []string {
	return []string{
		"-f", "best[height<=720]/best",
		"-o", dest,
		"--no-playlist",
		"--no-progress",
		"--geo-bypass",
		"--retry-sleep", "1",
		"--retries", "3",
		"--user-agent", userAgent,
		"--referer", link,
		link,
	}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
