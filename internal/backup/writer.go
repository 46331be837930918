// internal/backup/writer.go
//
// Snapshot Writer: store → one new file.
//
// Workflow
// --------
//  1. Capture reads announcements, stream settings, channels, themes, and
//     the active theme, in that order, from the store.
//  2. The creation instant is taken from the clock and bumped by 1 ms when
//     it has not advanced past the previous snapshot, so names stay unique
//     and increasing, also across restarts.
//  3. The document is encoded to `<name>.tmp`, fsynced, and renamed into
//     place.  Readers therefore see either no file or a complete one.
//
// The Writer does not lock anything itself; Manager holds the Gate around
// every call.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/streamsite/internal/content"
	"github.com/yanizio/streamsite/internal/metrics"
	"github.com/yanizio/streamsite/internal/store"
)

// Writer serialises the store into snapshot files under dir.
type Writer struct {
	dir   string
	store store.Store
	log   *zap.Logger
	now   func() time.Time

	mu   sync.Mutex
	last int64 // millis of the previous snapshot
}

// NewWriter returns a Writer for dir.  A nil logger falls back to zap.L().
func NewWriter(dir string, st store.Store, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.L().Named("backup")
	}
	return &Writer{dir: dir, store: st, log: log, now: time.Now}
}

// Capture reads the full store state into a Snapshot.  CreatedAt is left
// zero; Write stamps it.
func (w *Writer) Capture(ctx context.Context) (*Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Announcements, err = w.store.ListAnnouncements(ctx); err != nil {
		return nil, fmt.Errorf("backup: read announcements: %w", err)
	}
	if snap.StreamSettings, err = w.store.GetStreamSettings(ctx); err != nil {
		return nil, fmt.Errorf("backup: read stream settings: %w", err)
	}
	if snap.StreamChannels, err = w.store.ListStreamChannels(ctx); err != nil {
		return nil, fmt.Errorf("backup: read stream channels: %w", err)
	}
	if snap.ThemeSettings, err = w.store.ListThemes(ctx); err != nil {
		return nil, fmt.Errorf("backup: read themes: %w", err)
	}
	active, err := w.store.ActiveTheme(ctx)
	switch {
	case err == nil:
		id := active.ID
		snap.ActiveThemeID = &id
	case errors.Is(err, store.ErrNotFound):
	default:
		return nil, fmt.Errorf("backup: read active theme: %w", err)
	}

	// Always emit arrays; nil would read back as "skip this collection".
	if snap.Announcements == nil {
		snap.Announcements = []content.Announcement{}
	}
	if snap.StreamChannels == nil {
		snap.StreamChannels = []content.StreamChannel{}
	}
	if snap.ThemeSettings == nil {
		snap.ThemeSettings = []content.ThemeSetting{}
	}
	return &snap, nil
}

// Write captures the store and persists it.  It returns the path of the
// new file.
func (w *Writer) Write(ctx context.Context) (string, error) {
	path, err := w.write(ctx)
	if err != nil {
		metrics.SnapshotErrorsTotal.Inc()
		return "", err
	}
	metrics.SnapshotsCreatedTotal.Inc()
	return path, nil
}

func (w *Writer) write(ctx context.Context) (string, error) {
	snap, err := w.Capture(ctx)
	if err != nil {
		return "", err
	}
	ms := w.stamp()
	snap.CreatedAt = time.UnixMilli(ms).UTC()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("backup: create dir: %w", err)
	}
	path := filepath.Join(w.dir, FileName(ms))
	if err := writeFile(path, snap); err != nil {
		return "", err
	}

	metrics.LastSnapshotTimestamp.Set(float64(ms) / 1e3)
	w.log.Info("snapshot written",
		zap.String("file", filepath.Base(path)),
		zap.Int("announcements", len(snap.Announcements)),
		zap.Int("channels", len(snap.StreamChannels)),
		zap.Int("themes", len(snap.ThemeSettings)),
	)
	return path, nil
}

// stamp returns a creation time in millis strictly greater than the
// previous one.  The first call starts from the newest file on disk, so a
// clock that stepped back since the last run cannot sort a new snapshot
// behind an old one.
func (w *Writer) stamp() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last == 0 {
		if info, err := Latest(w.dir); err == nil {
			w.last = info.millis
		}
	}
	ms := w.now().UnixMilli()
	if ms <= w.last {
		ms = w.last + 1
	}
	w.last = ms
	return ms
}

// writeFile encodes snap to path via a synced temp file and rename.
func writeFile(path string, snap *Snapshot) (err error) {
	tmp := path + tmpExt
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("backup: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err = enc.Encode(snap); err != nil {
		f.Close()
		return fmt.Errorf("backup: encode: %w", err)
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("backup: sync: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("backup: close: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("backup: rename: %w", err)
	}
	return nil
}
