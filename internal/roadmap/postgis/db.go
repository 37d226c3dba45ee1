// Package postgis is the concrete FullMapReader (spec.md §6): a
// PostgreSQL + PostGIS-backed reader of the target road network,
// grounded on the teacher's internal/repository/postgresosm/db.go
// connection-pooling idiom (sqlx over the pgx/v5 stdlib driver) and its
// ST_* query style. It is ambient persistence infrastructure, not
// domain logic -- internal/analyzer depends only on the
// roadmap.FullMapReader interface, never on this package.
package postgis

import (
	"context"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/tomtom-odat/odat-go/internal/config"
	"github.com/tomtom-odat/odat-go/internal/pkg/apperrors"
)

// DB wraps a connection pool to the PostGIS database holding the target
// road network's lines and nodes tables.
type DB struct {
	*sqlx.DB
	logger *zap.Logger
}

// NewDB opens and pings a connection pool per cfg, in the teacher's
// db.New idiom. One DB is opened per worker (spec.md §5: "the full-map
// database connection is per-worker; workers must not share database
// handles").
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sqlx.Connect("pgx", cfg.DSN)
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithDetails(map[string]interface{}{"cause": err.Error()})
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, apperrors.ErrDatabaseError.WithDetails(map[string]interface{}{"cause": err.Error()})
	}

	logger.Info("target map database connected", zap.Int("max_conns", cfg.MaxConns))
	return &DB{DB: db, logger: logger}, nil
}

func (db *DB) Close() error {
	db.logger.Info("closing target map database connection")
	return db.DB.Close()
}

func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}
