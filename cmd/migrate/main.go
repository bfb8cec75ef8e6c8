package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"songbook/logging"
)

func main() {
	dir := flag.String("dir", "./database/migrations", "directory holding *.sql migrations")
	flag.Parse()

	_ = godotenv.Load()
	logging.Setup(logging.Config{Level: os.Getenv("LOG_LEVEL"), Format: "text"})

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal().Msg("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect")
	}
	defer conn.Close(context.Background())

	files, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("Failed to read migrations")
	}

	var sqlFiles []string
	for _, file := range files {
		if !file.IsDir() && filepath.Ext(file.Name()) == ".sql" {
			sqlFiles = append(sqlFiles, file.Name())
		}
	}
	sort.Strings(sqlFiles)

	for _, file := range sqlFiles {
		log.Info().Str("file", file).Msg("Running migration")

		content, err := os.ReadFile(filepath.Join(*dir, file))
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("Failed to read migration")
		}

		if _, err := conn.Exec(ctx, string(content)); err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("Failed to execute migration")
		}
	}

	log.Info().Int("count", len(sqlFiles)).Msg("All migrations completed")
}
