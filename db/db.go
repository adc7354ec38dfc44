// Package db persists Sieve scripts and the host-side state the engine's
// ScriptEnv capabilities (duplicate suppression, vacation throttling) need
// across script runs.
package db

import (
	_ "embed"
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// Database holds the SQL connection pool shared by the ManageSieve host and
// the ScriptEnv adapters in host/.
type Database struct {
	Pool *pgxpool.Pool
}

// NewDatabase opens a connection pool and ensures the schema exists.
func NewDatabase(ctx context.Context, host, port, user, password, dbname string) (*Database, error) {
	connString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, dbname)

	log.Printf("connecting to database: postgres://%s@%s:%s/%s?sslmode=disable", user, host, port, dbname)

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	config.ConnConfig.Tracer = &CustomTracer{}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("connecting to the database: %w", err)
	}

	d := &Database{Pool: pool}
	if err := d.migrate(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Close releases the connection pool.
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

func (db *Database) migrate(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, schema)
	return err
}
