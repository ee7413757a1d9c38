package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"audio_extract_bot/entity"
	"audio_extract_bot/internal/telemetry/metric"
	"audio_extract_bot/internal/workspace"
	"audio_extract_bot/pkg/logger"
)

type fakeResolver struct {
	src   entity.ResolvedSource
	err   error
	calls int
}

func (f *fakeResolver) Resolve(_ context.Context, link string) (entity.ResolvedSource, error) {
	f.calls++
	if f.err != nil {
		return entity.ResolvedSource{}, f.err
	}
	src := f.src
	if src.URL == "" {
		src.URL = link
	}
	return src, nil
}

type fakeDownloader struct {
	failKinds map[entity.SourceKind]error
	kinds     []entity.SourceKind
}

func (f *fakeDownloader) Download(_ context.Context, src entity.ResolvedSource, dir string, progress entity.ProgressFunc) (entity.DownloadResult, error) {
	f.kinds = append(f.kinds, src.Kind)
	if err := f.failKinds[src.Kind]; err != nil {
		return entity.DownloadResult{}, err
	}

	dest := filepath.Join(dir, "video.mp4")
	if err := os.WriteFile(dest, []byte("video-bytes"), 0o644); err != nil {
		return entity.DownloadResult{}, err
	}
	if progress != nil {
		progress(11, 11)
	}
	return entity.DownloadResult{Path: dest, Filename: "video.mp4", Size: 11, Source: src.Kind.String()}, nil
}

type fakeExtractor struct {
	err   error
	paths []string
}

func (f *fakeExtractor) Extract(_ context.Context, videoPath string) (entity.ExtractionResult, error) {
	f.paths = append(f.paths, videoPath)
	if f.err != nil {
		return entity.ExtractionResult{}, f.err
	}

	out := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".mp3"
	if err := os.WriteFile(out, []byte("audio-bytes"), 0o644); err != nil {
		return entity.ExtractionResult{}, err
	}
	return entity.ExtractionResult{Path: out, Format: "mp3", Bitrate: "192k", Size: 11}, nil
}

type fakeOpener struct {
	content string
	err     error
	calls   int
}

func (f *fakeOpener) OpenUpload(_ context.Context, _ string) (io.ReadCloser, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.content)), nil
}

type fakeDeliverer struct {
	err   error
	audio []entity.ExtractionResult
}

func (f *fakeDeliverer) DeliverAudio(_ context.Context, _ int64, audio entity.ExtractionResult) error {
	if f.err != nil {
		return f.err
	}
	f.audio = append(f.audio, audio)
	return nil
}

type eventRecorder struct {
	events []entity.ProgressEvent
}

func (r *eventRecorder) Notify(ev entity.ProgressEvent) { r.events = append(r.events, ev) }

func (r *eventRecorder) phases() []entity.Phase {
	var out []entity.Phase
	for _, ev := range r.events {
		if len(out) == 0 || out[len(out)-1] != ev.Phase {
			out = append(out, ev.Phase)
		}
	}
	return out
}

type fixture struct {
	uc        *Usecase
	root      string
	resolver  *fakeResolver
	down      *fakeDownloader
	extract   *fakeExtractor
	opener    *fakeOpener
	deliverer *fakeDeliverer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		root:      t.TempDir(),
		resolver:  &fakeResolver{src: entity.ResolvedSource{Kind: entity.SourceDirect, DirectURL: "https://example.com/v.mp4", Filename: "v.mp4"}},
		down:      &fakeDownloader{},
		extract:   &fakeExtractor{},
		opener:    &fakeOpener{content: "upload-bytes"},
		deliverer: &fakeDeliverer{},
	}

	f.uc = NewUsecase(
		f.resolver,
		f.down,
		f.extract,
		f.opener,
		f.deliverer,
		workspace.NewManager(f.root),
		metric.New(prometheus.NewRegistry()),
		logger.New("error"),
	)
	return f
}

func (f *fixture) assertRootEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.root)
	if err != nil {
		t.Fatalf("read workspace root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("workspace root not empty after Process: %d entries", len(entries))
	}
}

func equalPhases(got, want []entity.Phase) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestProcessLinkHappyPath(t *testing.T) {
	f := newFixture(t)
	rec := &eventRecorder{}

	err := f.uc.Process(context.Background(), entity.ExtractRequest{ChatID: 7, Link: "https://example.com/v.mp4"}, rec)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	want := []entity.Phase{
		entity.PhaseResolving,
		entity.PhaseDownloading,
		entity.PhaseExtracting,
		entity.PhaseUploading,
		entity.PhaseDone,
	}
	if got := rec.phases(); !equalPhases(got, want) {
		t.Fatalf("phase sequence = %v, want %v", got, want)
	}

	if len(f.deliverer.audio) != 1 {
		t.Fatalf("delivered %d audio files, want 1", len(f.deliverer.audio))
	}
	if f.opener.calls != 0 {
		t.Fatal("upload opener called for a link request")
	}
	f.assertRootEmpty(t)
}

func TestProcessUploadSkipsResolver(t *testing.T) {
	f := newFixture(t)
	rec := &eventRecorder{}

	req := entity.ExtractRequest{ChatID: 7, Upload: &entity.Upload{FileID: "file-1", FileName: "clip.mp4"}}
	if err := f.uc.Process(context.Background(), req, rec); err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if f.resolver.calls != 0 {
		t.Fatal("resolver called for an upload request")
	}
	if f.opener.calls != 1 {
		t.Fatalf("opener calls = %d, want 1", f.opener.calls)
	}
	if len(f.down.kinds) != 0 {
		t.Fatal("downloader called for an upload request")
	}
	f.assertRootEmpty(t)
}

func TestProcessDownloadFailure(t *testing.T) {
	f := newFixture(t)
	f.down.failKinds = map[entity.SourceKind]error{entity.SourceDirect: entity.ErrDownloadFailed}
	rec := &eventRecorder{}

	err := f.uc.Process(context.Background(), entity.ExtractRequest{ChatID: 7, Link: "https://example.com/v.mp4"}, rec)
	if !errors.Is(err, entity.ErrDownloadFailed) {
		t.Fatalf("error = %v, want ErrDownloadFailed", err)
	}

	for _, ev := range rec.events {
		if ev.Phase == entity.PhaseExtracting {
			t.Fatal("extracting phase reached after a failed download")
		}
	}
	last := rec.events[len(rec.events)-1]
	if last.Phase != entity.PhaseFailed {
		t.Fatalf("last event phase = %s, want failed", last.Phase)
	}
	if last.Detail != string(entity.PhaseDownloading) {
		t.Fatalf("failure detail = %q, want downloading", last.Detail)
	}
	if len(f.extract.paths) != 0 {
		t.Fatal("extractor called after a failed download")
	}
	f.assertRootEmpty(t)
}

func TestProcessCloudAPIFallsBackOnce(t *testing.T) {
	f := newFixture(t)
	f.resolver.src = entity.ResolvedSource{Kind: entity.SourceCloudAPI, DirectURL: "https://dead.example/v", Filename: "v.mp4"}
	f.down.failKinds = map[entity.SourceKind]error{entity.SourceCloudAPI: entity.ErrDownloadFailed}
	rec := &eventRecorder{}

	err := f.uc.Process(context.Background(), entity.ExtractRequest{ChatID: 7, Link: "https://cloud.example/public/a/b"}, rec)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	wantKinds := []entity.SourceKind{entity.SourceCloudAPI, entity.SourceDelegated}
	if len(f.down.kinds) != len(wantKinds) {
		t.Fatalf("downloader called %d times, want %d", len(f.down.kinds), len(wantKinds))
	}
	for i := range wantKinds {
		if f.down.kinds[i] != wantKinds[i] {
			t.Fatalf("download kinds = %v, want %v", f.down.kinds, wantKinds)
		}
	}
	f.assertRootEmpty(t)
}

func TestProcessCloudAPIFallbackAlsoFails(t *testing.T) {
	f := newFixture(t)
	f.resolver.src = entity.ResolvedSource{Kind: entity.SourceCloudAPI, DirectURL: "https://dead.example/v"}
	f.down.failKinds = map[entity.SourceKind]error{
		entity.SourceCloudAPI:  entity.ErrDownloadFailed,
		entity.SourceDelegated: entity.ErrDownloadFailed,
	}

	err := f.uc.Process(context.Background(), entity.ExtractRequest{ChatID: 7, Link: "https://cloud.example/public/a/b"}, &eventRecorder{})
	if !errors.Is(err, entity.ErrDownloadFailed) {
		t.Fatalf("error = %v, want ErrDownloadFailed", err)
	}
	if len(f.down.kinds) != 2 {
		t.Fatalf("downloader called %d times, want exactly 2", len(f.down.kinds))
	}
	f.assertRootEmpty(t)
}

func TestProcessDirectFailureDoesNotFallBack(t *testing.T) {
	f := newFixture(t)
	f.down.failKinds = map[entity.SourceKind]error{entity.SourceDirect: entity.ErrDownloadFailed}

	err := f.uc.Process(context.Background(), entity.ExtractRequest{ChatID: 7, Link: "https://example.com/v.mp4"}, &eventRecorder{})
	if !errors.Is(err, entity.ErrDownloadFailed) {
		t.Fatalf("error = %v, want ErrDownloadFailed", err)
	}
	if len(f.down.kinds) != 1 {
		t.Fatalf("downloader called %d times, want 1", len(f.down.kinds))
	}
}

func TestProcessZeroByteUpload(t *testing.T) {
	f := newFixture(t)
	f.opener.content = ""
	rec := &eventRecorder{}

	req := entity.ExtractRequest{ChatID: 7, Upload: &entity.Upload{FileID: "file-1", FileName: "clip.mp4"}}
	err := f.uc.Process(context.Background(), req, rec)
	if !errors.Is(err, entity.ErrDownloadFailed) {
		t.Fatalf("error = %v, want ErrDownloadFailed", err)
	}
	if len(f.extract.paths) != 0 {
		t.Fatal("extractor called for a zero-byte upload")
	}
	f.assertRootEmpty(t)
}

func TestProcessExtractionFailure(t *testing.T) {
	f := newFixture(t)
	f.extract.err = entity.ErrExtractionFailed

	err := f.uc.Process(context.Background(), entity.ExtractRequest{ChatID: 7, Link: "https://example.com/v.mp4"}, &eventRecorder{})
	if !errors.Is(err, entity.ErrExtractionFailed) {
		t.Fatalf("error = %v, want ErrExtractionFailed", err)
	}
	f.assertRootEmpty(t)
}

func TestProcessDeliveryFailureIsWrapped(t *testing.T) {
	f := newFixture(t)
	f.deliverer.err = errors.New("chat is gone")

	err := f.uc.Process(context.Background(), entity.ExtractRequest{ChatID: 7, Link: "https://example.com/v.mp4"}, &eventRecorder{})
	if !errors.Is(err, entity.ErrDeliveryFailed) {
		t.Fatalf("error = %v, want ErrDeliveryFailed", err)
	}
	f.assertRootEmpty(t)
}

func TestProcessClassifiesStrayErrors(t *testing.T) {
	f := newFixture(t)
	f.resolver.err = errors.New("boom")

	err := f.uc.Process(context.Background(), entity.ExtractRequest{ChatID: 7, Link: "https://example.com/v"}, &eventRecorder{})
	if !errors.Is(err, entity.ErrInternal) {
		t.Fatalf("error = %v, want ErrInternal", err)
	}
	f.assertRootEmpty(t)
}

func TestProcessNilNotifier(t *testing.T) {
	f := newFixture(t)

	if err := f.uc.Process(context.Background(), entity.ExtractRequest{ChatID: 7, Link: "https://example.com/v.mp4"}, nil); err != nil {
		t.Fatalf("Process() with nil notifier: %v", err)
	}
	f.assertRootEmpty(t)
}
