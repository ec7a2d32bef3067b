// Package database opens the connection pool shared by a whole process.
//
// Open is called once at startup and the returned pool is closed by its
// owner on shutdown:
//
//	conn, err := database.Open(cfg)
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//	registry := services.New(psql.NewExecutor(conn))
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/defenseportal/psql"
	"github.com/defenseportal/psql/config"
	"github.com/gopsql/db"
	"github.com/gopsql/pgx"
	"github.com/gopsql/pq"
	"github.com/gopsql/standard"
	_ "github.com/lib/pq"
)

// Open opens a pool for cfg.DatabaseURL with the configured driver:
// jackc/pgx (pgx), lib/pq (pq) or lib/pq through database/sql (standard).
// Drivers connect lazily; Ping checks that the database is reachable.
func Open(cfg *config.Config) (db.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var (
		conn db.DB
		err  error
	)
	switch cfg.Driver {
	case config.DriverPgx:
		conn, err = pgx.Open(cfg.DatabaseURL)
	case config.DriverPq:
		conn, err = pq.Open(cfg.DatabaseURL)
	case config.DriverStandard:
		var sqlDB *sql.DB
		sqlDB, err = sql.Open("postgres", cfg.DatabaseURL)
		if err == nil {
			conn = standard.NewDB("postgres", sqlDB)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", cfg.Driver, err)
	}
	return conn, nil
}

// Ping runs a trivial query to check the database answers.
func Ping(ctx context.Context, ex *psql.Executor) error {
	var one int
	if err := ex.QueryRow(ctx, "SELECT 1", []interface{}{&one}); err != nil {
		return fmt.Errorf("database: ping: %w", err)
	}
	return nil
}

// ServerVersion returns the version string reported by the server.
func ServerVersion(ctx context.Context, ex *psql.Executor) (string, error) {
	var version string
	err := ex.QueryRow(ctx, "SHOW server_version", []interface{}{&version})
	return version, err
}
