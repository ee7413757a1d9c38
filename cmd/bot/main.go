package main

import (
	"context"
	"log"

	"audio_extract_bot/config"
	"audio_extract_bot/internal/bot"
)

func main() {
	// Configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	// Run
	ctx := context.Background()
	b := bot.NewBot(cfg)
	b.Run(ctx, cfg)
}
