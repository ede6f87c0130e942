package commands

import (
	"context"
	"fmt"

	"github.com/graphgate/graphgate/internal/logger"
	postgresstore "github.com/graphgate/graphgate/internal/store/postgres"
)

// MigrateCmd applies pending database migrations and exits. Used by
// deployment pipelines that run migrations as a separate step rather
// than on server startup.
type MigrateCmd struct {
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

func (c *MigrateCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	cfg := c.PostgresStore.PoolConfig()
	cfg.AutoMigrate = false

	pool, err := connectPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	if err := postgresstore.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("Database migrations completed")

	return nil
}
