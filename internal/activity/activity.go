// internal/activity/activity.go
//
// Admin activity recorder.
//
// Workflow
// --------
//   1. Record writes an ActivityLog row with the signed-in admin's id
//      (nil for system actions).
//   2. ActivityEventsTotal{category} is incremented.
//   3. A notification goroutine posts the event to the configured notifier
//      using a context detached from the request, so a client that hangs up
//      does not cancel delivery.
//
// Notes
// -----
//   • Store failures are returned; notifier failures are only logged.
//   • Wait blocks until in-flight notifications finish.  main calls it
//     during shutdown.
package activity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/streamsite/internal/auth"
	"github.com/yanizio/streamsite/internal/content"
	"github.com/yanizio/streamsite/internal/metrics"
	"github.com/yanizio/streamsite/internal/notify"
	"github.com/yanizio/streamsite/internal/requestinfo"
	"github.com/yanizio/streamsite/internal/store"
)

const notifyTimeout = 15 * time.Second

// Recorder persists and announces admin actions.
type Recorder struct {
	store  store.Store
	notify notify.Notifier
	log    *zap.Logger
	wg     sync.WaitGroup
}

// New wires a Recorder.  A nil notifier disables announcements.
func New(st store.Store, n notify.Notifier, log *zap.Logger) *Recorder {
	if n == nil {
		n = notify.Nop{}
	}
	return &Recorder{store: st, notify: n, log: log}
}

// Record stores one activity entry and schedules its notification.
func (r *Recorder) Record(ctx context.Context, action, details, category string) (content.ActivityLog, error) {
	entry, err := r.store.CreateLog(ctx, content.ActivityLogData{
		Action:   action,
		Details:  details,
		AdminID:  auth.AdminID(ctx),
		Category: category,
	})
	if err != nil {
		r.log.Error("activity log write failed",
			zap.String("action", action), zap.Error(err))
		return content.ActivityLog{}, err
	}
	metrics.ActivityEventsTotal.WithLabelValues(category).Inc()

	ev := notify.Event{
		Action:   action,
		Details:  details,
		Category: category,
		Client:   requestinfo.FromContext(ctx).Summary(),
		At:       entry.Timestamp,
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := r.notify.Notify(nctx, ev); err != nil {
			r.log.Warn("activity notification failed",
				zap.String("action", action), zap.Error(err))
		}
	}()
	return entry, nil
}

// Wait blocks until pending notifications have been delivered or failed.
func (r *Recorder) Wait() { r.wg.Wait() }
