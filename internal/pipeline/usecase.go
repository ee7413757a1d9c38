// Package pipeline sequences resolve → download → extract → deliver for one
// request and owns the workspace lifecycle and failure classification.
package pipeline

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"audio_extract_bot/entity"
	"audio_extract_bot/internal/telemetry/metric"
	"audio_extract_bot/internal/workspace"
	"audio_extract_bot/pkg/logger"
)

const traceName = "extract-pipeline"

type Usecase struct {
	resolver   entity.SourceResolver
	downloader entity.Downloader
	extractor  entity.AudioExtractor
	uploads    entity.UploadOpener
	deliverer  entity.Deliverer
	ws         *workspace.Manager
	m          *metric.Metrics
	l          logger.Interface
}

func NewUsecase(
	resolver entity.SourceResolver,
	downloader entity.Downloader,
	extractor entity.AudioExtractor,
	uploads entity.UploadOpener,
	deliverer entity.Deliverer,
	ws *workspace.Manager,
	m *metric.Metrics,
	l logger.Interface,
) *Usecase {
	return &Usecase{
		resolver:   resolver,
		downloader: downloader,
		extractor:  extractor,
		uploads:    uploads,
		deliverer:  deliverer,
		ws:         ws,
		m:          m,
		l:          l,
	}
}

// Process walks one request through the state machine. It returns exactly
// one terminal error, already mapped to the pipeline taxonomy, and
// guarantees the workspace is gone before it returns.
func (u *Usecase) Process(ctx context.Context, req entity.ExtractRequest, notifier entity.ProgressNotifier) error {
	ctx, span := otel.Tracer(traceName).Start(ctx, "Process")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat_id", req.ChatID))

	started := time.Now()
	phase := entity.PhaseIdle

	ws, err := u.ws.Create()
	if err != nil {
		u.l.Error("workspace create failed: %v", err)
		err = errors.Wrap(entity.ErrInternal, err.Error())
		u.finish(notifier, phase, started, err)
		return err
	}

	defer func() {
		if rmErr := u.ws.Remove(ws); rmErr != nil {
			u.l.Error("workspace %s cleanup failed: %v", ws.ID, rmErr)
		}
	}()

	err = u.run(ctx, req, ws, notifier, &phase)
	err = classify(err)
	u.finish(notifier, phase, started, err)
	return err
}

func (u *Usecase) run(ctx context.Context, req entity.ExtractRequest, ws workspace.Workspace, notifier entity.ProgressNotifier, phase *entity.Phase) error {
	videoPath, err := u.obtainVideo(ctx, req, ws, notifier, phase)
	if err != nil {
		return err
	}

	*phase = entity.PhaseExtracting
	emit(notifier, entity.PhaseExtracting, entity.IndeterminatePercent, "")

	audio, err := u.extract(ctx, videoPath)
	if err != nil {
		return err
	}

	*phase = entity.PhaseUploading
	emit(notifier, entity.PhaseUploading, entity.IndeterminatePercent, "")

	if err := u.deliverer.DeliverAudio(ctx, req.ChatID, audio); err != nil {
		if !errors.Is(err, entity.ErrDeliveryFailed) {
			err = errors.Wrap(entity.ErrDeliveryFailed, err.Error())
		}
		return err
	}

	*phase = entity.PhaseDone
	return nil
}

// obtainVideo places the source video inside the workspace, either by
// copying a chat upload or by resolving and downloading a link.
func (u *Usecase) obtainVideo(ctx context.Context, req entity.ExtractRequest, ws workspace.Workspace, notifier entity.ProgressNotifier, phase *entity.Phase) (string, error) {
	if req.Upload != nil {
		*phase = entity.PhaseDownloading
		emit(notifier, entity.PhaseDownloading, entity.IndeterminatePercent, "copying upload")
		return u.copyUpload(ctx, req.Upload, ws)
	}

	*phase = entity.PhaseResolving
	emit(notifier, entity.PhaseResolving, entity.IndeterminatePercent, "")

	src, err := u.resolve(ctx, req.Link)
	if err != nil {
		return "", err
	}

	*phase = entity.PhaseDownloading
	progress := downloadProgress(notifier)
	emit(notifier, entity.PhaseDownloading, entity.IndeterminatePercent, "")

	res, err := u.download(ctx, src, ws.Dir, progress)
	if err != nil && src.Kind == entity.SourceCloudAPI {
		// The provider API handed out a dead direct URL. One shot through
		// the delegated downloader before giving up.
		u.l.Warn("cloud-api download failed, delegating once: %v", err)
		emit(notifier, entity.PhaseDownloading, entity.IndeterminatePercent, "retrying via delegated downloader")
		fallback := entity.ResolvedSource{Kind: entity.SourceDelegated, URL: src.URL}
		res, err = u.download(ctx, fallback, ws.Dir, progress)
	}
	if err != nil {
		return "", err
	}

	u.m.DownloadedBytes.Add(float64(res.Size))
	return res.Path, nil
}

func (u *Usecase) resolve(ctx context.Context, link string) (entity.ResolvedSource, error) {
	ctx, span := otel.Tracer(traceName).Start(ctx, "Resolve")
	defer span.End()

	src, err := u.resolver.Resolve(ctx, link)
	if err != nil {
		return entity.ResolvedSource{}, err
	}
	span.SetAttributes(attribute.String("source_kind", src.Kind.String()))
	return src, nil
}

func (u *Usecase) download(ctx context.Context, src entity.ResolvedSource, dir string, progress entity.ProgressFunc) (entity.DownloadResult, error) {
	ctx, span := otel.Tracer(traceName).Start(ctx, "Download")
	defer span.End()
	span.SetAttributes(attribute.String("source_kind", src.Kind.String()))

	return u.downloader.Download(ctx, src, dir, progress)
}

func (u *Usecase) extract(ctx context.Context, videoPath string) (entity.ExtractionResult, error) {
	ctx, span := otel.Tracer(traceName).Start(ctx, "Extract")
	defer span.End()

	audio, err := u.extractor.Extract(ctx, videoPath)
	if err != nil {
		return entity.ExtractionResult{}, err
	}
	span.SetAttributes(attribute.Int64("audio_bytes", audio.Size))
	return audio, nil
}

func (u *Usecase) copyUpload(ctx context.Context, up *entity.Upload, ws workspace.Workspace) (string, error) {
	ctx, span := otel.Tracer(traceName).Start(ctx, "CopyUpload")
	defer span.End()

	rc, err := u.uploads.OpenUpload(ctx, up.FileID)
	if err != nil {
		return "", errors.Wrapf(entity.ErrDownloadFailed, "open upload: %v", err)
	}
	defer rc.Close()

	name := up.FileName
	if name == "" {
		name = "upload.bin"
	}
	dest := ws.Join(name)

	out, err := os.Create(dest)
	if err != nil {
		return "", errors.Wrapf(entity.ErrDownloadFailed, "create file: %v", err)
	}
	defer out.Close()

	size, err := io.Copy(out, rc)
	if err != nil {
		return "", errors.Wrapf(entity.ErrDownloadFailed, "copy upload: %v", err)
	}
	if size == 0 {
		return "", errors.Wrap(entity.ErrDownloadFailed, "zero-byte upload")
	}

	return dest, nil
}

// finish emits the terminal event and records metrics for the request.
func (u *Usecase) finish(notifier entity.ProgressNotifier, phase entity.Phase, started time.Time, err error) {
	u.m.PipelineDuration.Observe(time.Since(started).Seconds())

	if err == nil {
		u.m.RequestsTotal.WithLabelValues("success").Inc()
		emit(notifier, entity.PhaseDone, 100, "")
		return
	}

	u.m.RequestsTotal.WithLabelValues("failure").Inc()
	u.m.PhaseFailures.WithLabelValues(string(phase)).Inc()
	emit(notifier, entity.PhaseFailed, entity.IndeterminatePercent, string(phase))
}

// classify maps any stray error onto the pipeline taxonomy so the transport
// never sees an unclassified failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		entity.ErrUnsupportedLink,
		entity.ErrDownloadFailed,
		entity.ErrExtractionFailed,
		entity.ErrDeliveryFailed,
		entity.ErrInternal,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return errors.Wrap(entity.ErrInternal, err.Error())
}

func emit(notifier entity.ProgressNotifier, phase entity.Phase, percent int, detail string) {
	if notifier == nil {
		return
	}
	notifier.Notify(entity.ProgressEvent{Phase: phase, Percent: percent, Detail: detail})
}

// downloadProgress converts byte counts into percentage events.
func downloadProgress(notifier entity.ProgressNotifier) entity.ProgressFunc {
	return func(written, total int64) {
		percent := entity.IndeterminatePercent
		if total > 0 {
			percent = int(written * 100 / total)
		}
		emit(notifier, entity.PhaseDownloading, percent, "")
	}
}
