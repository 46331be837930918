// internal/store/sqlstore/sqlstore.go
//
// MySQL implementation of store.Store.
//
// Context
// -------
// Deployments that want content to survive without the snapshot files run
// against MySQL (or MariaDB).  The store issues plain parameterised SQL via
// sqlx and maps rows onto the `content` records through `db` tags.
//
// Workflow
// --------
//  1. cmd/web opens a pool through internal/database and calls Migrate.
//  2. Single-statement reads run directly on the pool.
//  3. Multi-statement writes (flag exclusivity, upserts) run inside a
//     transaction via atomic(), which reuses the caller's transaction when
//     the store is already bound to one.
//  4. WithinTx exposes the same mechanism to the backup restorer so a whole
//     restore commits or rolls back as one unit.
//
// Notes
// -----
//   - The DSN must carry parseTime=true so DATETIME columns scan into
//     time.Time.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/streamsite/internal/content"
	"github.com/yanizio/streamsite/internal/store"
)

var (
	_ store.Store      = (*Store)(nil)
	_ store.Transactor = (*Store)(nil)
)

// Store runs every call against q, which is either the pool or an open
// transaction.
type Store struct {
	db  *sqlx.DB
	q   sqlx.ExtContext
	tx  *sqlx.Tx
	now func() time.Time
}

// New binds a Store to an open pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, q: db, now: time.Now}
}

/*──────────────────────────── transactions ────────────────────────────────*/

// WithinTx runs fn against a transaction-bound Store.  Nested calls reuse
// the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(store.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	bound := &Store{db: s.db, q: tx, tx: tx, now: s.now}
	if err := fn(bound); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}

func (s *Store) atomic(ctx context.Context, fn func(*Store) error) error {
	return s.WithinTx(ctx, func(st store.Store) error { return fn(st.(*Store)) })
}

// notFound maps sql.ErrNoRows onto store.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// deleted turns a zero-row DELETE into store.ErrNotFound.
func deleted(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

/*──────────────────────────── announcements ───────────────────────────────*/

const announcementCols = `id, title, content, date, featured`

func (s *Store) ListAnnouncements(ctx context.Context) ([]content.Announcement, error) {
	rows := make([]content.Announcement, 0, 8)
	err := sqlx.SelectContext(ctx, s.q, &rows,
		`SELECT `+announcementCols+` FROM announcements ORDER BY date DESC, id ASC`)
	return rows, err
}

func (s *Store) GetAnnouncement(ctx context.Context, id int64) (content.Announcement, error) {
	var a content.Announcement
	err := sqlx.GetContext(ctx, s.q, &a,
		`SELECT `+announcementCols+` FROM announcements WHERE id = ?`, id)
	return a, notFound(err)
}

func (s *Store) CreateAnnouncement(ctx context.Context, d content.AnnouncementData) (content.Announcement, error) {
	if d.Date.IsZero() {
		d.Date = s.now().UTC()
	}
	var out content.Announcement
	err := s.atomic(ctx, func(tx *Store) error {
		if d.Featured {
			if _, err := tx.q.ExecContext(ctx,
				`UPDATE announcements SET featured = FALSE WHERE featured = TRUE`); err != nil {
				return err
			}
		}
		res, err := tx.q.ExecContext(ctx,
			`INSERT INTO announcements (title, content, date, featured) VALUES (?, ?, ?, ?)`,
			d.Title, d.Content, d.Date, d.Featured)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		out = content.Announcement{ID: id, AnnouncementData: d}
		return nil
	})
	return out, err
}

func (s *Store) UpdateAnnouncement(ctx context.Context, id int64, d content.AnnouncementData) (content.Announcement, error) {
	var out content.Announcement
	err := s.atomic(ctx, func(tx *Store) error {
		cur, err := tx.GetAnnouncement(ctx, id)
		if err != nil {
			return err
		}
		if d.Date.IsZero() {
			d.Date = cur.Date
		}
		if d.Featured {
			if _, err := tx.q.ExecContext(ctx,
				`UPDATE announcements SET featured = FALSE WHERE featured = TRUE AND id <> ?`, id); err != nil {
				return err
			}
		}
		if _, err := tx.q.ExecContext(ctx,
			`UPDATE announcements SET title = ?, content = ?, date = ?, featured = ? WHERE id = ?`,
			d.Title, d.Content, d.Date, d.Featured, id); err != nil {
			return err
		}
		out = content.Announcement{ID: id, AnnouncementData: d}
		return nil
	})
	return out, err
}

func (s *Store) DeleteAnnouncement(ctx context.Context, id int64) error {
	return deleted(s.q.ExecContext(ctx, `DELETE FROM announcements WHERE id = ?`, id))
}

func (s *Store) FeaturedAnnouncement(ctx context.Context) (content.Announcement, error) {
	var a content.Announcement
	err := sqlx.GetContext(ctx, s.q, &a,
		`SELECT `+announcementCols+` FROM announcements WHERE featured = TRUE ORDER BY id LIMIT 1`)
	return a, notFound(err)
}

func (s *Store) SetFeaturedAnnouncement(ctx context.Context, id int64) error {
	return s.atomic(ctx, func(tx *Store) error {
		if _, err := tx.GetAnnouncement(ctx, id); err != nil {
			return err
		}
		_, err := tx.q.ExecContext(ctx,
			`UPDATE announcements SET featured = (id = ?)`, id)
		return err
	})
}

/*──────────────────────────── stream settings ─────────────────────────────*/

const settingsID = 1

func (s *Store) GetStreamSettings(ctx context.Context) (*content.StreamSetting, error) {
	var st content.StreamSetting
	err := sqlx.GetContext(ctx, s.q, &st,
		`SELECT id, featured_channel, auto_detect, offline_behavior
		   FROM stream_settings ORDER BY id LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) PutStreamSettings(ctx context.Context, d content.StreamSettingData) (content.StreamSetting, error) {
	if d.OfflineBehavior == "" {
		d.OfflineBehavior = content.DefaultOfflineBehavior
	}
	var out content.StreamSetting
	err := s.atomic(ctx, func(tx *Store) error {
		cur, err := tx.GetStreamSettings(ctx)
		if err != nil {
			return err
		}
		if cur == nil {
			_, err = tx.q.ExecContext(ctx,
				`INSERT INTO stream_settings (id, featured_channel, auto_detect, offline_behavior)
				 VALUES (?, ?, ?, ?)`,
				settingsID, d.FeaturedChannel, d.AutoDetect, d.OfflineBehavior)
			out = content.StreamSetting{ID: settingsID, StreamSettingData: d}
			return err
		}
		_, err = tx.q.ExecContext(ctx,
			`UPDATE stream_settings SET featured_channel = ?, auto_detect = ?, offline_behavior = ?
			  WHERE id = ?`,
			d.FeaturedChannel, d.AutoDetect, d.OfflineBehavior, cur.ID)
		out = content.StreamSetting{ID: cur.ID, StreamSettingData: d}
		return err
	})
	return out, err
}

/*──────────────────────────── stream channels ─────────────────────────────*/

const channelCols = `id, name, url, display_name, type, schedule, is_main`

func (s *Store) ListStreamChannels(ctx context.Context) ([]content.StreamChannel, error) {
	rows := make([]content.StreamChannel, 0, 4)
	err := sqlx.SelectContext(ctx, s.q, &rows,
		`SELECT `+channelCols+` FROM stream_channels ORDER BY id`)
	return rows, err
}

func (s *Store) GetStreamChannel(ctx context.Context, id int64) (content.StreamChannel, error) {
	var c content.StreamChannel
	err := sqlx.GetContext(ctx, s.q, &c,
		`SELECT `+channelCols+` FROM stream_channels WHERE id = ?`, id)
	return c, notFound(err)
}

func (s *Store) CreateStreamChannel(ctx context.Context, d content.StreamChannelData) (content.StreamChannel, error) {
	var out content.StreamChannel
	err := s.atomic(ctx, func(tx *Store) error {
		if d.IsMain {
			if _, err := tx.q.ExecContext(ctx,
				`UPDATE stream_channels SET is_main = FALSE WHERE is_main = TRUE`); err != nil {
				return err
			}
		}
		res, err := tx.q.ExecContext(ctx,
			`INSERT INTO stream_channels (name, url, display_name, type, schedule, is_main)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			d.Name, d.URL, d.DisplayName, d.Type, d.Schedule, d.IsMain)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		out = content.StreamChannel{ID: id, StreamChannelData: d}
		return nil
	})
	return out, err
}

func (s *Store) UpdateStreamChannel(ctx context.Context, id int64, d content.StreamChannelData) (content.StreamChannel, error) {
	var out content.StreamChannel
	err := s.atomic(ctx, func(tx *Store) error {
		if _, err := tx.GetStreamChannel(ctx, id); err != nil {
			return err
		}
		if d.IsMain {
			if _, err := tx.q.ExecContext(ctx,
				`UPDATE stream_channels SET is_main = FALSE WHERE is_main = TRUE AND id <> ?`, id); err != nil {
				return err
			}
		}
		if _, err := tx.q.ExecContext(ctx,
			`UPDATE stream_channels
			    SET name = ?, url = ?, display_name = ?, type = ?, schedule = ?, is_main = ?
			  WHERE id = ?`,
			d.Name, d.URL, d.DisplayName, d.Type, d.Schedule, d.IsMain, id); err != nil {
			return err
		}
		out = content.StreamChannel{ID: id, StreamChannelData: d}
		return nil
	})
	return out, err
}

func (s *Store) DeleteStreamChannel(ctx context.Context, id int64) error {
	return deleted(s.q.ExecContext(ctx, `DELETE FROM stream_channels WHERE id = ?`, id))
}

/*──────────────────────────── themes ──────────────────────────────────────*/

const themeCols = `id, name, primary_color, secondary_color, accent_color, text_color,
	background_type, background_value, heading_font, body_font, is_active`

func (s *Store) ListThemes(ctx context.Context) ([]content.ThemeSetting, error) {
	rows := make([]content.ThemeSetting, 0, 4)
	err := sqlx.SelectContext(ctx, s.q, &rows,
		`SELECT `+themeCols+` FROM theme_settings ORDER BY id`)
	return rows, err
}

func (s *Store) GetTheme(ctx context.Context, id int64) (content.ThemeSetting, error) {
	var t content.ThemeSetting
	err := sqlx.GetContext(ctx, s.q, &t,
		`SELECT `+themeCols+` FROM theme_settings WHERE id = ?`, id)
	return t, notFound(err)
}

func (s *Store) ActiveTheme(ctx context.Context) (content.ThemeSetting, error) {
	var t content.ThemeSetting
	err := sqlx.GetContext(ctx, s.q, &t,
		`SELECT `+themeCols+` FROM theme_settings WHERE is_active = TRUE ORDER BY id LIMIT 1`)
	return t, notFound(err)
}

func (s *Store) CreateTheme(ctx context.Context, d content.ThemeData) (content.ThemeSetting, error) {
	var out content.ThemeSetting
	err := s.atomic(ctx, func(tx *Store) error {
		if d.IsActive {
			if _, err := tx.q.ExecContext(ctx,
				`UPDATE theme_settings SET is_active = FALSE WHERE is_active = TRUE`); err != nil {
				return err
			}
		}
		res, err := tx.q.ExecContext(ctx,
			`INSERT INTO theme_settings (name, primary_color, secondary_color, accent_color,
			        text_color, background_type, background_value, heading_font, body_font, is_active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.Name, d.PrimaryColor, d.SecondaryColor, d.AccentColor, d.TextColor,
			d.BackgroundType, d.BackgroundValue, d.HeadingFont, d.BodyFont, d.IsActive)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		out = content.ThemeSetting{ID: id, ThemeData: d}
		return nil
	})
	return out, err
}

func (s *Store) UpdateTheme(ctx context.Context, id int64, d content.ThemeData) (content.ThemeSetting, error) {
	var out content.ThemeSetting
	err := s.atomic(ctx, func(tx *Store) error {
		if _, err := tx.GetTheme(ctx, id); err != nil {
			return err
		}
		if d.IsActive {
			if _, err := tx.q.ExecContext(ctx,
				`UPDATE theme_settings SET is_active = FALSE WHERE is_active = TRUE AND id <> ?`, id); err != nil {
				return err
			}
		}
		if _, err := tx.q.ExecContext(ctx,
			`UPDATE theme_settings
			    SET name = ?, primary_color = ?, secondary_color = ?, accent_color = ?,
			        text_color = ?, background_type = ?, background_value = ?,
			        heading_font = ?, body_font = ?, is_active = ?
			  WHERE id = ?`,
			d.Name, d.PrimaryColor, d.SecondaryColor, d.AccentColor, d.TextColor,
			d.BackgroundType, d.BackgroundValue, d.HeadingFont, d.BodyFont, d.IsActive, id); err != nil {
			return err
		}
		out = content.ThemeSetting{ID: id, ThemeData: d}
		return nil
	})
	return out, err
}

func (s *Store) DeleteTheme(ctx context.Context, id int64) error {
	return deleted(s.q.ExecContext(ctx, `DELETE FROM theme_settings WHERE id = ?`, id))
}

func (s *Store) SetActiveTheme(ctx context.Context, id int64) error {
	return s.atomic(ctx, func(tx *Store) error {
		if _, err := tx.GetTheme(ctx, id); err != nil {
			return err
		}
		_, err := tx.q.ExecContext(ctx,
			`UPDATE theme_settings SET is_active = (id = ?)`, id)
		return err
	})
}

/*──────────────────────────── activity log ────────────────────────────────*/

func (s *Store) ListLogs(ctx context.Context) ([]content.ActivityLog, error) {
	rows := make([]content.ActivityLog, 0, 32)
	err := sqlx.SelectContext(ctx, s.q, &rows,
		`SELECT id, action, details, admin_id, timestamp, category
		   FROM activity_logs ORDER BY timestamp DESC, id DESC`)
	return rows, err
}

func (s *Store) CreateLog(ctx context.Context, d content.ActivityLogData) (content.ActivityLog, error) {
	ts := s.now().UTC()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO activity_logs (action, details, admin_id, timestamp, category)
		 VALUES (?, ?, ?, ?, ?)`,
		d.Action, d.Details, d.AdminID, ts, d.Category)
	if err != nil {
		return content.ActivityLog{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return content.ActivityLog{}, err
	}
	return content.ActivityLog{ID: id, Timestamp: ts, ActivityLogData: d}, nil
}
