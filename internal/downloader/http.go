package downloader

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"audio_extract_bot/entity"
	"audio_extract_bot/pkg/logger"
)

const (
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// progressStep limits how often the progress callback fires.
	progressStep = 1 << 20
)

// HTTPFetcher streams a direct URL into the workspace, enforcing the size
// cap mid-stream and reporting byte progress.
type HTTPFetcher struct {
	client   *http.Client
	l        logger.Interface
	maxBytes int64
	timeout  time.Duration
}

func NewHTTPFetcher(l logger.Interface, maxBytes int64, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:   &http.Client{},
		l:        l,
		maxBytes: maxBytes,
		timeout:  timeout,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, src entity.ResolvedSource, dir string, progress entity.ProgressFunc) (entity.DownloadResult, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.DirectURL, nil)
	if err != nil {
		return entity.DownloadResult{}, errors.Wrapf(entity.ErrDownloadFailed, "bad direct url: %v", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", src.URL)

	resp, err := f.client.Do(req)
	if err != nil {
		return entity.DownloadResult{}, errors.Wrapf(entity.ErrDownloadFailed, "request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entity.DownloadResult{}, errors.Wrapf(entity.ErrDownloadFailed, "HTTP %d", resp.StatusCode)
	}

	filename := src.Filename
	if filename == "" {
		filename = "video.bin"
	}
	dest := filepath.Join(dir, filename)

	out, err := os.Create(dest)
	if err != nil {
		return entity.DownloadResult{}, errors.Wrapf(entity.ErrDownloadFailed, "create file: %v", err)
	}
	defer out.Close()

	size, err := f.copyWithProgress(out, resp.Body, resp.ContentLength, progress)
	if err != nil {
		return entity.DownloadResult{}, err
	}
	if size == 0 {
		return entity.DownloadResult{}, errors.Wrap(entity.ErrDownloadFailed, "zero-byte download")
	}

	return entity.DownloadResult{
		Path:     dest,
		Filename: filename,
		Size:     size,
		Source:   src.Kind.String(),
	}, nil
}

func (f *HTTPFetcher) copyWithProgress(dst io.Writer, src io.Reader, total int64, progress entity.ProgressFunc) (int64, error) {
	var written, lastReport int64
	buf := make([]byte, 32*1024)

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			written += int64(n)
			if f.maxBytes > 0 && written > f.maxBytes {
				return written, errors.Wrap(entity.ErrDownloadFailed, "file exceeds maximum allowed size")
			}
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, errors.Wrapf(entity.ErrDownloadFailed, "write: %v", werr)
			}
			if progress != nil && written-lastReport >= progressStep {
				lastReport = written
				progress(written, total)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return written, errors.Wrapf(entity.ErrDownloadFailed, "read: %v", rerr)
		}
	}

	if progress != nil {
		progress(written, total)
	}
	return written, nil
}
