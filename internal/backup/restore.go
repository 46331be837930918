// internal/backup/restore.go
//
// Restore Engine: snapshot → store.
//
// Context
// -------
// A restore replaces every live collection with the snapshot's contents.
// Rows are always re-created so the store hands out fresh identifiers;
// ids in the file are only used to locate the active theme.
//
// Steps (fixed order)
// -------------------
//  1. audit           – one "System Restore" activity log entry.
//  2. announcements   – delete all, re-create in snapshot order.
//  3. stream settings – upsert; a null record leaves the store untouched.
//  4. stream channels – delete all, re-create in snapshot order.
//  5. themes          – delete all, re-create, then activate the new theme
//     at the index the old active id had in the snapshot list.
//
// A failing step aborts the rest.  Earlier steps stay applied unless the
// store implements store.Transactor, in which case the whole restore runs
// in one transaction.
package backup

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yanizio/streamsite/internal/content"
	"github.com/yanizio/streamsite/internal/metrics"
	"github.com/yanizio/streamsite/internal/store"
)

// RestoreAction is the activity log action written by every restore.
const RestoreAction = "System Restore"

// Restorer applies snapshots to a store.
type Restorer struct {
	store store.Store
	log   *zap.Logger
}

// NewRestorer returns a Restorer bound to st.
func NewRestorer(st store.Store, log *zap.Logger) *Restorer {
	if log == nil {
		log = zap.L().Named("backup")
	}
	return &Restorer{store: st, log: log}
}

type restoreStep struct {
	name string
	run  func(ctx context.Context, st store.Store, snap *Snapshot) error
}

var restoreSteps = []restoreStep{
	{"audit", recordRestore},
	{"announcements", restoreAnnouncements},
	{"stream settings", restoreStreamSettings},
	{"stream channels", restoreStreamChannels},
	{"themes", restoreThemes},
}

// RestoreFile loads path and restores it.  A file that cannot be read or
// decoded aborts before any store write.
func (r *Restorer) RestoreFile(ctx context.Context, path string) error {
	snap, err := Load(path)
	if err != nil {
		metrics.RestoreErrorsTotal.Inc()
		return err
	}
	return r.Restore(ctx, snap)
}

// Restore replaces the store's content with snap.
func (r *Restorer) Restore(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		metrics.RestoreErrorsTotal.Inc()
		return errors.New("backup: restore: nil snapshot")
	}

	apply := func(st store.Store) error {
		for _, step := range restoreSteps {
			if err := step.run(ctx, st, snap); err != nil {
				return fmt.Errorf("backup: restore %s: %w", step.name, err)
			}
			r.log.Debug("restore step done", zap.String("step", step.name))
		}
		return nil
	}

	var err error
	if tx, ok := r.store.(store.Transactor); ok {
		err = tx.WithinTx(ctx, apply)
	} else {
		err = apply(r.store)
	}
	if err != nil {
		metrics.RestoreErrorsTotal.Inc()
		return err
	}

	metrics.RestoresTotal.Inc()
	r.log.Info("snapshot restored", zap.Time("created_at", snap.CreatedAt))
	return nil
}

/*──────────────────────────── steps ───────────────────────────────────────*/

// restoredAtLayout keeps the millisecond that also names the file.
const restoredAtLayout = "2006-01-02T15:04:05.000Z07:00"

func recordRestore(ctx context.Context, st store.Store, snap *Snapshot) error {
	_, err := st.CreateLog(ctx, content.ActivityLogData{
		Action:   RestoreAction,
		Details:  "Restored system from backup created at " + snap.CreatedAt.UTC().Format(restoredAtLayout),
		Category: content.CategorySystem,
	})
	return err
}

func restoreAnnouncements(ctx context.Context, st store.Store, snap *Snapshot) error {
	if snap.Announcements == nil {
		return nil
	}
	current, err := st.ListAnnouncements(ctx)
	if err != nil {
		return err
	}
	for _, a := range current {
		if err := ignoreMissing(st.DeleteAnnouncement(ctx, a.ID)); err != nil {
			return err
		}
	}
	for _, a := range snap.Announcements {
		if _, err := st.CreateAnnouncement(ctx, a.AnnouncementData); err != nil {
			return err
		}
	}
	return nil
}

func restoreStreamSettings(ctx context.Context, st store.Store, snap *Snapshot) error {
	if snap.StreamSettings == nil {
		return nil
	}
	_, err := st.PutStreamSettings(ctx, snap.StreamSettings.StreamSettingData)
	return err
}

func restoreStreamChannels(ctx context.Context, st store.Store, snap *Snapshot) error {
	if snap.StreamChannels == nil {
		return nil
	}
	current, err := st.ListStreamChannels(ctx)
	if err != nil {
		return err
	}
	for _, c := range current {
		if err := ignoreMissing(st.DeleteStreamChannel(ctx, c.ID)); err != nil {
			return err
		}
	}
	for _, c := range snap.StreamChannels {
		if _, err := st.CreateStreamChannel(ctx, c.StreamChannelData); err != nil {
			return err
		}
	}
	return nil
}

func restoreThemes(ctx context.Context, st store.Store, snap *Snapshot) error {
	if snap.ThemeSettings == nil {
		return nil
	}
	current, err := st.ListThemes(ctx)
	if err != nil {
		return err
	}
	for _, t := range current {
		if err := ignoreMissing(st.DeleteTheme(ctx, t.ID)); err != nil {
			return err
		}
	}

	created := make([]int64, len(snap.ThemeSettings))
	for i, t := range snap.ThemeSettings {
		row, err := st.CreateTheme(ctx, t.ThemeData)
		if err != nil {
			return err
		}
		created[i] = row.ID
	}

	if idx := activeIndex(snap); idx >= 0 {
		return st.SetActiveTheme(ctx, created[idx])
	}
	return nil
}

// activeIndex returns the position of ActiveThemeID in the snapshot's theme
// list, or -1.
func activeIndex(snap *Snapshot) int {
	if snap.ActiveThemeID == nil {
		return -1
	}
	for i, t := range snap.ThemeSettings {
		if t.ID == *snap.ActiveThemeID {
			return i
		}
	}
	return -1
}

func ignoreMissing(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}
