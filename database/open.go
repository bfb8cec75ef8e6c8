package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"songbook/config"
)

// Open connects the backend selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		conn, err := Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(conn), nil
	case config.BackendMongo:
		return ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.BackendMemory:
		log.Warn().Str("backend", "memory").Msg("Using in-memory store; data is lost on exit")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
