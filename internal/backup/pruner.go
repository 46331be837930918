// internal/backup/pruner.go
//
// pruner.go bounds disk usage by keeping only the newest `keep` snapshot
// files.  It works like an LRU trim: list, sort oldest first, and remove
// everything beyond the limit.
//
// Per-file failures, including files that vanished underneath us, are
// logged and skipped.  Prune never reports an error to its caller.
package backup

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/yanizio/streamsite/internal/metrics"
)

// Pruner deletes old snapshots from dir.
type Pruner struct {
	dir    string
	keep   int
	log    *zap.Logger
	remove func(string) error
}

// NewPruner returns a Pruner that keeps `keep` files.  keep <= 0 selects
// DefaultRetention.
func NewPruner(dir string, keep int, log *zap.Logger) *Pruner {
	if keep <= 0 {
		keep = DefaultRetention
	}
	if log == nil {
		log = zap.L().Named("backup")
	}
	return &Pruner{dir: dir, keep: keep, log: log, remove: os.Remove}
}

// Keep reports the retention count.
func (p *Pruner) Keep() int { return p.keep }

// Prune removes the oldest snapshots beyond the retention count and
// returns how many files it deleted.
func (p *Pruner) Prune(ctx context.Context) int {
	infos, skipped, err := scan(p.dir)
	if err != nil {
		p.log.Error("prune: list snapshots", zap.Error(err))
		return 0
	}
	for _, name := range skipped {
		p.log.Warn("prune: skipping unparsable snapshot name", zap.String("file", name))
	}

	excess := len(infos) - p.keep
	if excess <= 0 {
		metrics.SnapshotsOnDisk.Set(float64(len(infos)))
		return 0
	}

	removed := 0
	for _, info := range infos[:excess] {
		if ctx.Err() != nil {
			p.log.Warn("prune: interrupted", zap.Error(ctx.Err()))
			break
		}
		if err := p.remove(info.Path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				p.log.Warn("prune: snapshot already gone", zap.String("file", info.Name))
			} else {
				p.log.Error("prune: remove snapshot", zap.String("file", info.Name), zap.Error(err))
			}
			continue
		}
		removed++
		metrics.SnapshotsPrunedTotal.Inc()
		p.log.Info("snapshot pruned", zap.String("file", info.Name))
	}
	metrics.SnapshotsOnDisk.Set(float64(len(infos) - removed))
	return removed
}
