package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"songbook/catalog"
	"songbook/config"
	"songbook/database"
	"songbook/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := database.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to open store")
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to close store")
		}
	}()

	n, err := catalog.NewService(store, cfg.Server.RequestTimeout).Seed(ctx, catalog.DemoSongs)
	if err != nil {
		log.Error().Err(err).Int("inserted", n).Msg("Failed to seed songs")
		return
	}
	log.Info().Int("inserted", n).Str("backend", cfg.Store.Backend).Msg("Seed complete")
}
