// pkg/db/session.go
package db

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ingestkit/tableloader/pkg/config"
)

// Session is the database handle for one or more runs. It is created
// explicitly at startup and must be closed on every exit path; no package
// holds process-wide connection state.
type Session struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
}

// Open creates and verifies a PostgreSQL session
func Open(ctx context.Context, cfg *config.PostgresConfig, logger *zap.Logger) (*Session, error) {
	log := logger.Named("postgres")

	log.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	database, err := sqlx.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	// Configure connection pool
	database.SetMaxOpenConns(cfg.MaxOpenConns)
	database.SetMaxIdleConns(cfg.MaxIdleConns)
	database.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	database.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Set statement timeout if configured
	if cfg.StatementTimeout > 0 {
		_, err = database.ExecContext(
			ctx,
			fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds()),
		)
		if err != nil {
			log.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	// Verify connection
	if err := pingWithTimeout(ctx, database, 5*time.Second); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	return &Session{
		db:     database,
		logger: log,
		cfg:    cfg,
	}, nil
}

// DB returns the underlying database handle
func (s *Session) DB() *sqlx.DB {
	return s.db
}

// EnsureSchema creates the destination schema if it doesn't exist
func (s *Session) EnsureSchema(ctx context.Context, schemaName string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	if err != nil {
		return fmt.Errorf("failed to create/verify schema %s: %w", schemaName, err)
	}
	return nil
}

// Close closes the database connection
func (s *Session) Close() error {
	s.logger.Info("Closing PostgreSQL connection",
		zap.String("database", s.cfg.Database))
	return s.db.Close()
}

func pingWithTimeout(ctx context.Context, database *sqlx.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return database.PingContext(pingCtx)
}
