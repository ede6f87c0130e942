package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/graphgate/graphgate/internal/auth"
	"github.com/graphgate/graphgate/internal/graphengine"
	"github.com/graphgate/graphgate/internal/logger"
	"github.com/graphgate/graphgate/internal/membership"
	"github.com/graphgate/graphgate/internal/registry"
	"github.com/graphgate/graphgate/internal/schema"
	"github.com/graphgate/graphgate/internal/server"
	"github.com/graphgate/graphgate/internal/store"
	memorystore "github.com/graphgate/graphgate/internal/store/memory"
	postgresstore "github.com/graphgate/graphgate/internal/store/postgres"
	"github.com/graphgate/graphgate/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8000" env:"GRAPHGATE_LISTEN"`
	Cert   string `help:"path to TLS cert file" default:"" env:"GRAPHGATE_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"GRAPHGATE_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"http://localhost:3000" env:"GRAPHGATE_CORS_ORIGINS"`

	// Authentication configuration
	JWTPublicKey string `help:"path to PEM-encoded ECDSA public key for JWT verification" env:"GRAPHGATE_JWT_PUBLIC_KEY"`

	// Schema behaviour
	ClosedSchema bool `help:"reject vertex attributes not declared on the node type" default:"false" env:"GRAPHGATE_CLOSED_SCHEMA"`

	// Operational modes
	Tracing bool `help:"enable tracing" default:"false" env:"GRAPHGATE_TRACING"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"GRAPHGATE_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"GRAPHGATE_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (s *PostgresStoreFlags) PoolConfig() *postgresstore.PoolConfig {
	return &postgresstore.PoolConfig{
		ConnString:      s.ConnString,
		MaxConns:        s.MaxConns,
		MinConns:        s.MinConns,
		MaxConnLifetime: s.MaxConnLifetime,
		MaxConnIdleTime: s.MaxConnIdleTime,
		AutoMigrate:     s.AutoMigrate,
	}
}

// connectPool dials PostgreSQL with exponential backoff so the server
// survives the database coming up after it, which is the normal ordering
// under container orchestration.
func connectPool(ctx context.Context, cfg *postgresstore.PoolConfig) (*pgxpool.Pool, error) {
	return backoff.Retry(ctx, func() (*pgxpool.Pool, error) {
		return postgresstore.NewPool(ctx, cfg)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(time.Minute),
	)
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, "graphgate-server", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	// Create stores and graph engine based on store type
	var (
		userStore       store.UserStore
		orgStore        store.OrganizationStore
		graphStore      store.GraphStore
		membershipStore store.MembershipStore
		schemaStore     store.SchemaStore
		engine          graphengine.Engine
	)

	switch c.StoreType {
	case "postgres":
		// All stores and the AGE engine share one connection pool
		pool, err := connectPool(ctx, c.PostgresStore.PoolConfig())
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()

		userStore = postgresstore.NewUserStore(pool)
		orgStore = postgresstore.NewOrganizationStore(pool)
		graphStore = postgresstore.NewGraphStore(pool)
		membershipStore = postgresstore.NewMembershipStore(pool)
		schemaStore = postgresstore.NewSchemaStore(pool)
		engine = graphengine.NewAGE(pool)

		log.Info().Msg("Using PostgreSQL stores with shared connection pool")

	default:
		memOrgs := memorystore.NewOrganizationStore()
		userStore = memorystore.NewUserStore()
		orgStore = memOrgs
		graphStore = memorystore.NewGraphStore(memOrgs)
		membershipStore = memorystore.NewMembershipStore()
		schemaStore = memorystore.NewSchemaStore()
		engine = graphengine.NewMemory()

		log.Info().Msg("Using in-memory stores and graph engine")
	}

	reg := registry.New(orgStore, graphStore, membershipStore, schemaStore, engine)
	catalog := schema.NewCatalog(schemaStore, graphStore, engine, schema.CatalogConfig{
		ClosedSchema: c.ClosedSchema,
	})
	directory := membership.NewDirectory(membershipStore, orgStore, graphStore)
	authz := auth.NewEngine(directory, orgStore, graphStore)

	if c.JWTPublicKey == "" {
		return errors.New("JWT public key is required (--jwt-public-key or GRAPHGATE_JWT_PUBLIC_KEY)")
	}
	publicKeyPEM, err := os.ReadFile(c.JWTPublicKey)
	if err != nil {
		return fmt.Errorf("failed to read JWT public key: %w", err)
	}
	verifier, err := auth.NewVerifier(string(publicKeyPEM))
	if err != nil {
		return fmt.Errorf("failed to create JWT verifier: %w", err)
	}

	srv := server.NewServer(reg, catalog, directory, authz, engine, userStore)
	handler := srv.Handler(log, verifier, c.CORSOrigins)

	httpServer := configureHTTPServer(c.Listen, handler)

	if c.Cert != "" && c.Key != "" {
		log.Info().Str("addr", c.Listen).Msg("Starting HTTPS server")
		return httpServer.ListenAndServeTLS(c.Cert, c.Key)
	}

	log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
	return httpServer.ListenAndServe()
}
