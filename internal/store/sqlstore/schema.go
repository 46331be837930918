package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema lists the DDL statements for every table the store touches, in
// dependency order.  Each statement is idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS announcements (
	    id        BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
	    title     VARCHAR(200) NOT NULL,
	    content   TEXT         NOT NULL,
	    date      DATETIME(3)  NOT NULL,
	    featured  TINYINT(1)   NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS stream_settings (
	    id                BIGINT UNSIGNED PRIMARY KEY,
	    featured_channel  VARCHAR(128) NOT NULL,
	    auto_detect       TINYINT(1)   NOT NULL DEFAULT 1,
	    offline_behavior  VARCHAR(32)  NOT NULL DEFAULT 'message'
	)`,
	`CREATE TABLE IF NOT EXISTS stream_channels (
	    id            BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
	    name          VARCHAR(128) NOT NULL,
	    url           VARCHAR(512) NOT NULL,
	    display_name  VARCHAR(256) NOT NULL,
	    type          VARCHAR(64)  NOT NULL,
	    schedule      VARCHAR(256) NOT NULL DEFAULT '',
	    is_main       TINYINT(1)   NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS theme_settings (
	    id                BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
	    name              VARCHAR(128) NOT NULL,
	    primary_color     VARCHAR(32)  NOT NULL,
	    secondary_color   VARCHAR(32)  NOT NULL,
	    accent_color      VARCHAR(32)  NOT NULL,
	    text_color        VARCHAR(32)  NOT NULL,
	    background_type   VARCHAR(32)  NOT NULL,
	    background_value  VARCHAR(1024) NOT NULL,
	    heading_font      VARCHAR(128) NOT NULL,
	    body_font         VARCHAR(128) NOT NULL,
	    is_active         TINYINT(1)   NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
	    id         BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
	    action     VARCHAR(128) NOT NULL,
	    details    TEXT         NOT NULL,
	    admin_id   BIGINT       NULL,
	    timestamp  DATETIME(3)  NOT NULL,
	    category   VARCHAR(32)  NOT NULL
	)`,
}

// Migrate applies Schema.  Safe to call on every boot.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
