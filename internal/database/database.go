// Package database centralises sqlx connection helpers.  The driver is
// go-sql-driver/mysql, which also works with MariaDB.
//
// Public entry points:
//
//	Open(ctx, dsn)                              – conservative pool sizes.
//	OpenWithOptions(ctx, dsn, maxOpen, maxIdle) – fine-grained control.
//
// Both helpers force parseTime=true on the DSN and Ping the database before
// returning so callers can fail fast during bootstrap.  Callers should
// Close() the returned *sqlx.DB when no longer needed.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Open returns a *sqlx.DB with sane defaults: 15 max open, 5 idle, and a
// 30-minute connection lifetime.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, 15, 5)
}

// OpenWithOptions lets callers tune maxOpen and maxIdle.
func OpenWithOptions(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	dsn, err := normalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// normalizeDSN parses dsn and turns on the options the content store relies
// on: DATETIME → time.Time in UTC.
func normalizeDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("database: parse dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}
