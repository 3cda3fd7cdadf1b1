// Package database owns the MySQL connection pool for the record store.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/finbridge/backoffice/internal/config"
)

// Open connects to the record store and verifies connectivity before
// returning the pool. The DSN always carries parseTime and loc=UTC so the
// lifecycle timestamps (created_at, updated_at, deleted_at) scan into
// time.Time in one zone regardless of the server's setting.
func Open(cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping record store: %w", err)
	}
	return db, nil
}

func dsn(cfg config.DBConfig) string {
	auth := cfg.User
	if cfg.Pass != "" {
		auth = cfg.User + ":" + cfg.Pass
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, cfg.Host, cfg.Port, cfg.Name)
}
