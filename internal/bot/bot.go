// Package bot wires the application together and owns its lifecycle.
package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"audio_extract_bot/config"
	"audio_extract_bot/internal/controller/http/ops"
	"audio_extract_bot/internal/controller/telegram"
	"audio_extract_bot/internal/downloader"
	"audio_extract_bot/internal/pipeline"
	"audio_extract_bot/internal/resolver"
	"audio_extract_bot/internal/telemetry/metric"
	ttrace "audio_extract_bot/internal/telemetry/trace"
	"audio_extract_bot/internal/workspace"
	"audio_extract_bot/pkg/ffmpeg"
	"audio_extract_bot/pkg/httpserver"
	"audio_extract_bot/pkg/logger"
)

// NewBot ...
func NewBot(cfg *config.Config) *Bot {
	bot := &Bot{}

	bot.InitGlobalProvider(cfg.App.Name, cfg.OTEL.JaegerEndpoint)

	return bot
}

type Bot struct {
	traceProviderCloseFn []ttrace.CloseFunc
}

// Run ...
func (b *Bot) Run(ctx context.Context, cfg *config.Config) error {
	l := logger.New(cfg.Log.Level)

	maxBytes := cfg.Download.MaxFileSizeMB * 1024 * 1024
	downloadTimeout := time.Duration(cfg.Download.TimeoutSec) * time.Second

	ws := workspace.NewManager(cfg.Download.TempDir)
	res := resolver.NewResolver(l, cfg.Download.YadiskToken)
	dl := downloader.New(
		downloader.NewHTTPFetcher(l, maxBytes, downloadTimeout),
		downloader.NewYTDLP(cfg.Download.YTDLPPath, l, maxBytes, downloadTimeout),
	)
	ext := ffmpeg.NewExtractor(cfg.FFmpeg.Path, cfg.FFmpeg.Format, cfg.FFmpeg.Bitrate,
		time.Duration(cfg.FFmpeg.TimeoutSec)*time.Second)

	reg := prometheus.NewRegistry()
	m := metric.New(reg)

	ctrl, err := telegram.NewController(cfg.Telegram.Token, cfg.Telegram.PollTimeoutSec, cfg.Telegram.MaxConcurrent, l)
	if err != nil {
		l.Fatal(err)
	}

	uc := pipeline.NewUsecase(res, dl, ext, ctrl, ctrl, ws, m, l)

	// Ops HTTP server
	handler := gin.New()
	ops.NewRouter(handler, l, reg, cfg.App.Version)
	httpServer := httpserver.New(b.cors().Handler(handler), httpserver.Port(cfg.Ops.Port))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	botDone := make(chan struct{})
	go func() {
		ctrl.Run(runCtx, uc)
		close(botDone)
	}()

	l.Info("audio extract bot started")

	// Waiting signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: " + s.String())
	case err := <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	case <-botDone:
		l.Warn("app - Run - telegram controller stopped")
	}

	log.Printf("bot stopping")

	cancel()
	<-botDone

	ctxShutDown, cancelShutDown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutDown()

	// Shutdown
	if err := httpServer.Shutdown(); err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	for _, closeFn := range b.traceProviderCloseFn {
		closeFn := closeFn
		go func() {
			if err := closeFn(ctxShutDown); err != nil {
				log.Error().Err(err).Msgf("Unable to close trace provider")
			}
		}()
	}

	log.Printf("bot exited properly")

	return nil
}

func (b *Bot) cors() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:     []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		MaxAge:             60, // 1 minutes
		AllowCredentials:   true,
		OptionsPassthrough: false,
		Debug:              false,
	})
}
