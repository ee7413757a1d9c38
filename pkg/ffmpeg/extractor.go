// Package ffmpeg extracts audio tracks from local video files by invoking the
// ffmpeg binary. Arguments are built with ffmpeg-go and executed through
// exec.CommandContext so the process dies with the request context.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"audio_extract_bot/entity"
)

type Extractor struct {
	binPath string
	format  string
	bitrate string
	timeout time.Duration
}

func NewExtractor(binPath, format, bitrate string, timeout time.Duration) *Extractor {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	if format == "" {
		format = "mp3"
	}
	if bitrate == "" {
		bitrate = "192k"
	}
	return &Extractor{binPath: binPath, format: format, bitrate: bitrate, timeout: timeout}
}

var _ entity.AudioExtractor = (*Extractor)(nil)

// Extract transcodes videoPath into an audio file in the same directory.
// Exit code 0 plus a non-empty output file is the only success condition.
func (e *Extractor) Extract(ctx context.Context, videoPath string) (entity.ExtractionResult, error) {
	outPath := outputPath(videoPath, e.format)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.binPath, e.args(videoPath, outPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return entity.ExtractionResult{}, errors.Wrapf(entity.ErrExtractionFailed,
			"ffmpeg: %v: %s", err, lastLine(stderr.String()))
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return entity.ExtractionResult{}, errors.Wrap(entity.ErrExtractionFailed, "ffmpeg produced no output file")
	}
	if info.Size() == 0 {
		return entity.ExtractionResult{}, errors.Wrap(entity.ErrExtractionFailed, "ffmpeg produced an empty file")
	}

	return entity.ExtractionResult{
		Path:     outPath,
		Format:   e.format,
		Bitrate:  e.bitrate,
		Size:     info.Size(),
		Duration: probeDuration(videoPath),
	}, nil
}

// args builds the ffmpeg command line with ffmpeg-go, without running it.
func (e *Extractor) args(videoPath, outPath string) []string {
	return ffmpeg.Input(videoPath).
		Output(outPath, ffmpeg.KwArgs{
			"map":    "a",
			"acodec": e.codec(),
			"b:a":    e.bitrate,
		}).
		GlobalArgs("-hide_banner").
		OverWriteOutput().
		GetArgs()
}

func (e *Extractor) codec() string {
	if e.format == "mp3" {
		return "libmp3lame"
	}
	return "aac"
}

func outputPath(videoPath, format string) string {
	stem := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	return stem + "." + format
}

// probeDuration asks ffprobe for the container duration. Best effort: a
// missing ffprobe or an unparseable answer just leaves the duration zero.
func probeDuration(videoPath string) time.Duration {
	out, err := ffmpeg.Probe(videoPath)
	if err != nil {
		return 0
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(out), &probe); err != nil {
		return 0
	}

	sec, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0
	}
	return time.Duration(sec * float64(time.Second))
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
