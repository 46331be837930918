package component

import (
	"context"

	"go.uber.org/zap"

	"github.com/yanizio/streamsite/internal/activity"
	"github.com/yanizio/streamsite/internal/auth"
	"github.com/yanizio/streamsite/internal/backup"
	"github.com/yanizio/streamsite/internal/session"
	"github.com/yanizio/streamsite/internal/store"
)

// Env exposes process-wide resources to Components during Init.
type Env struct {
	Store       store.Store
	Backups     *backup.Manager
	Sessions    *session.Manager
	Activity    *activity.Recorder
	Credentials *auth.Credentials
	Log         *zap.Logger

	gate *backup.Gate
}

// Gate returns the backup gate content routes share, or a private one when
// backups are not wired (tests).
func (e *Env) Gate() *backup.Gate {
	if e.Backups != nil {
		return e.Backups.Gate()
	}
	if e.gate == nil {
		e.gate = &backup.Gate{}
	}
	return e.gate
}

func (e *Env) logger() *zap.Logger {
	if e.Log == nil {
		return zap.L()
	}
	return e.Log
}

// Record logs an admin action through the activity recorder.  Failures are
// logged and swallowed; the request that triggered them already succeeded.
func (e *Env) Record(ctx context.Context, action, details, category string) {
	if e.Activity == nil {
		return
	}
	if _, err := e.Activity.Record(ctx, action, details, category); err != nil {
		e.logger().Warn("record activity", zap.String("action", action), zap.Error(err))
	}
}
