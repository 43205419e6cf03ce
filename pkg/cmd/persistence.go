package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dealgrid/dealgrid/pkg/persistence"
	"github.com/dealgrid/dealgrid/pkg/persistence/file"
	"github.com/dealgrid/dealgrid/pkg/persistence/postgresql"
	"github.com/dealgrid/dealgrid/pkg/persistence/redis"
)

// NewPersistence creates a persistence backend from a database URL. The URL
// scheme selects the provider; anything unrecognized is treated as a file path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL persistence: %w", err))
		}

		return store
	case "redis", "rediss":
		store, err := redis.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create Redis persistence: %w", err))
		}

		return store
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
	}
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
