// internal/store/sqlstore/sqlstore_test.go
//
// Unit-tests for the MySQL store using sqlmock.
//
// Run: go test ./internal/store/sqlstore -v

package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/streamsite/internal/content"
	"github.com/yanizio/streamsite/internal/store"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "mysql")), mock
}

func TestCreateAnnouncement_FeaturedClearsOthers(t *testing.T) {
	s, mock := newMock(t)
	when := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE announcements SET featured = FALSE WHERE featured = TRUE`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO announcements`).
		WithArgs("Hello", "Body", when, true).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	got, err := s.CreateAnnouncement(context.Background(), content.AnnouncementData{
		Title: "Hello", Content: "Body", Date: when, Featured: true,
	})
	if err != nil {
		t.Fatalf("CreateAnnouncement: %v", err)
	}
	if got.ID != 7 || !got.Date.Equal(when) {
		t.Fatalf("unexpected row: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestGetAnnouncement_NotFound(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM announcements WHERE id = \?`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content", "date", "featured"}))

	if _, err := s.GetAnnouncement(context.Background(), 3); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestListStreamChannels(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM stream_channels ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "url", "display_name", "type", "schedule", "is_main"}).
			AddRow(1, "rennsz", "https://www.twitch.tv/rennsz", "RENNSZ", "IRL", "Tue", true).
			AddRow(2, "rennszino", "https://www.twitch.tv/rennszino", "RENNSZINO", "Gaming", "", false))

	got, err := s.ListStreamChannels(context.Background())
	if err != nil {
		t.Fatalf("ListStreamChannels: %v", err)
	}
	if len(got) != 2 || got[0].Name != "rennsz" || !got[0].IsMain || got[1].DisplayName != "RENNSZINO" {
		t.Fatalf("unexpected rows: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestGetStreamSettings_Empty(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(`SELECT id, featured_channel, auto_detect, offline_behavior`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "featured_channel", "auto_detect", "offline_behavior"}))

	got, err := s.GetStreamSettings(context.Background())
	if err != nil || got != nil {
		t.Fatalf("GetStreamSettings = %+v, %v; want nil, nil", got, err)
	}
}

func TestPutStreamSettings_InsertsWhenAbsent(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, featured_channel, auto_detect, offline_behavior`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "featured_channel", "auto_detect", "offline_behavior"}))
	mock.ExpectExec(`INSERT INTO stream_settings`).
		WithArgs(settingsID, "rennsz", true, content.DefaultOfflineBehavior).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	got, err := s.PutStreamSettings(context.Background(), content.StreamSettingData{
		FeaturedChannel: "rennsz", AutoDetect: true,
	})
	if err != nil {
		t.Fatalf("PutStreamSettings: %v", err)
	}
	if got.ID != settingsID || got.OfflineBehavior != content.DefaultOfflineBehavior {
		t.Fatalf("unexpected settings: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestDeleteTheme_ZeroRows(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec(`DELETE FROM theme_settings WHERE id = \?`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.DeleteTheme(context.Background(), 5); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s, mock := newMock(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM announcements WHERE id = \?`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := s.WithinTx(context.Background(), func(tx store.Store) error {
		if err := tx.DeleteAnnouncement(context.Background(), 1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestListLogs_NullAdmin(t *testing.T) {
	s, mock := newMock(t)
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	admin := int64(1)

	mock.ExpectQuery(`FROM activity_logs ORDER BY timestamp DESC`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "action", "details", "admin_id", "timestamp", "category"}).
			AddRow(2, "System Restore", "restored", nil, ts, content.CategorySystem).
			AddRow(1, "Login", "Admin admin logged in", admin, ts, content.CategoryAuth))

	got, err := s.ListLogs(context.Background())
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if len(got) != 2 || got[0].AdminID != nil || got[1].AdminID == nil || *got[1].AdminID != 1 {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	for range Schema {
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS`).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	if err := Migrate(context.Background(), sqlx.NewDb(db, "mysql")); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
