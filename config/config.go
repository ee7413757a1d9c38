package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type (
	// Config -.
	Config struct {
		App      `yaml:"app"`
		Log      `yaml:"logger"`
		Telegram `yaml:"telegram"`
		Download `yaml:"download"`
		FFmpeg   `yaml:"ffmpeg"`
		Ops      `yaml:"ops"`
		OTEL     `yaml:"otel"`
	}

	// App -.
	App struct {
		Name    string `env-required:"true" yaml:"name"    env:"APP_NAME"`
		Version string `env-required:"true" yaml:"version" env:"APP_VERSION"`
	}

	// Log -.
	Log struct {
		Level string `env-required:"true" yaml:"log_level" env:"LOG_LEVEL"`
	}

	// Telegram -.
	Telegram struct {
		Token          string `env-required:"true" yaml:"token" env:"BOT_TOKEN"`
		PollTimeoutSec int    `yaml:"poll_timeout_sec" env:"BOT_POLL_TIMEOUT_SEC" env-default:"30"`
		MaxConcurrent  int    `yaml:"max_concurrent"   env:"BOT_MAX_CONCURRENT"   env-default:"4"`
	}

	// Download -.
	Download struct {
		TempDir       string `yaml:"temp_dir"         env:"TEMP_DIR"         env-default:"/tmp/audio-extract-bot"`
		MaxFileSizeMB int64  `yaml:"max_file_size_mb" env:"MAX_FILE_SIZE_MB" env-default:"2000"`
		YadiskToken   string `yaml:"yadisk_token"     env:"YADISK_TOKEN"`
		YTDLPPath     string `yaml:"ytdlp_path"       env:"YTDLP_PATH"       env-default:"yt-dlp"`
		TimeoutSec    int    `yaml:"timeout_sec"      env:"DOWNLOAD_TIMEOUT_SEC" env-default:"900"`
	}

	// FFmpeg -.
	FFmpeg struct {
		Path       string `yaml:"path"        env:"FFMPEG_PATH"       env-default:"ffmpeg"`
		Format     string `yaml:"format"      env:"AUDIO_FORMAT"      env-default:"mp3"`
		Bitrate    string `yaml:"bitrate"     env:"AUDIO_BITRATE"     env-default:"192k"`
		TimeoutSec int    `yaml:"timeout_sec" env:"FFMPEG_TIMEOUT_SEC" env-default:"600"`
	}

	// Ops -.
	Ops struct {
		Port string `yaml:"port" env:"OPS_PORT" env-default:"8080"`
	}

	OTEL struct {
		JaegerEndpoint string `yaml:"jaeger_endpoint" env:"JAEGER_ENDPOINT" env-default:"http://localhost:14268/api/traces"`
	}
)

const defaultConfigPath = "./config/config.yml"

// NewConfig returns app config. The yaml file is optional so the bot can run
// from environment variables alone (containers, systemd units).
func NewConfig() (*Config, error) {
	cfg := &Config{}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
