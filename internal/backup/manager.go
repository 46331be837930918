// internal/backup/manager.go
//
// Manager: one entry point for snapshot, prune, and restore.
//
// Context
// -------
// The scheduler and the admin API both drive backups.  Manager owns the
// Writer, Pruner, and Restorer for one directory and serialises their store
// access through the Gate, so a content request never interleaves with a
// snapshot or a restore.
//
// Workflow
// --------
//   - CreateSnapshot  – write under the Gate.  Concurrent manual triggers
//     collapse into one write via singleflight.
//   - Prune           – apply the retention policy; no Gate needed.
//   - RestoreLatest   – restore the newest file on disk under the Gate.
//   - RestoreNamed    – restore a specific `backup_<ms>.json` under the Gate.
//   - Cycle           – write, prune, and optionally restore the newest file,
//     holding the Gate from the write through the restore so no edit can
//     land in between and be rolled back.
//
// Notes
// -----
//   - Cycle never returns an error; every failure is logged and counted.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/streamsite/internal/metrics"
	"github.com/yanizio/streamsite/internal/store"
)

// Manager coordinates backups for one store and directory.
type Manager struct {
	dir      string
	writer   *Writer
	pruner   *Pruner
	restorer *Restorer
	gate     *Gate
	sfg      singleflight.Group
	log      *zap.Logger
}

// NewManager wires a Writer, Pruner, and Restorer around st.  retention
// <= 0 selects DefaultRetention.
func NewManager(st store.Store, dir string, retention int, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.L().Named("backup")
	}
	return &Manager{
		dir:      dir,
		writer:   NewWriter(dir, st, log),
		pruner:   NewPruner(dir, retention, log),
		restorer: NewRestorer(st, log),
		gate:     &Gate{},
		log:      log,
	}
}

// Dir returns the snapshot directory.
func (m *Manager) Dir() string { return m.dir }

// Gate returns the lock content requests must share.
func (m *Manager) Gate() *Gate { return m.gate }

// List returns the snapshots on disk, oldest first.
func (m *Manager) List() ([]Info, error) { return List(m.dir) }

// Latest returns the newest snapshot on disk.
func (m *Manager) Latest() (Info, error) { return Latest(m.dir) }

// CreateSnapshot writes one snapshot.  Callers that arrive while a write is
// in flight share its result.
func (m *Manager) CreateSnapshot(ctx context.Context) (Info, error) {
	v, err, _ := m.sfg.Do("snapshot", func() (interface{}, error) {
		var path string
		err := m.gate.Exclusive(func() error {
			var err error
			path, err = m.writer.Write(ctx)
			return err
		})
		if err != nil {
			return Info{}, err
		}
		return infoFor(path)
	})
	if err != nil {
		return Info{}, err
	}
	return v.(Info), nil
}

// Prune applies the retention policy and returns the number of deleted
// files.
func (m *Manager) Prune(ctx context.Context) int { return m.pruner.Prune(ctx) }

// RestoreLatest restores the newest snapshot on disk.
func (m *Manager) RestoreLatest(ctx context.Context) (Info, error) {
	var info Info
	err := m.gate.Exclusive(func() error {
		var err error
		info, err = m.restoreLatestLocked(ctx)
		return err
	})
	return info, err
}

// RestoreNamed restores the snapshot file called name.
func (m *Manager) RestoreNamed(ctx context.Context, name string) (Info, error) {
	if filepath.Base(name) != name {
		return Info{}, ErrInvalidName
	}
	if _, ok := ParseName(name); !ok {
		return Info{}, ErrInvalidName
	}
	info, err := infoFor(filepath.Join(m.dir, name))
	if err != nil {
		return Info{}, err
	}
	err = m.gate.Exclusive(func() error {
		return m.restorer.RestoreFile(ctx, info.Path)
	})
	return info, err
}

// Cycle runs one scheduled pass: write, prune, and, when restore is true,
// restore from the newest file on disk.  A failed write skips the restore.
func (m *Manager) Cycle(ctx context.Context, restore bool) {
	start := time.Now()
	defer func() { metrics.CycleDuration.Observe(time.Since(start).Seconds()) }()

	_ = m.gate.Exclusive(func() error {
		_, werr := m.writer.Write(ctx)
		if werr != nil {
			m.log.Error("cycle: snapshot failed", zap.Error(werr))
		}
		m.pruner.Prune(ctx)
		if werr != nil || !restore {
			return nil
		}
		info, err := m.restoreLatestLocked(ctx)
		if err != nil {
			m.log.Error("cycle: restore failed", zap.String("file", info.Name), zap.Error(err))
			return nil
		}
		m.log.Info("cycle complete", zap.String("file", info.Name), zap.Duration("took", time.Since(start)))
		return nil
	})
}

func (m *Manager) restoreLatestLocked(ctx context.Context) (Info, error) {
	info, err := Latest(m.dir)
	if err != nil {
		return Info{}, err
	}
	return info, m.restorer.RestoreFile(ctx, info.Path)
}

// infoFor stats path and builds its Info.
func infoFor(path string) (Info, error) {
	name := filepath.Base(path)
	ms, ok := ParseName(name)
	if !ok {
		return Info{}, ErrInvalidName
	}
	fi, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return Info{}, ErrSnapshotNotFound
	}
	if err != nil {
		return Info{}, fmt.Errorf("backup: stat %s: %w", name, err)
	}
	return Info{
		Name:      name,
		CreatedAt: time.UnixMilli(ms).UTC(),
		Size:      fi.Size(),
		Path:      path,
		millis:    ms,
	}, nil
}
