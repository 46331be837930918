// cmd/web/main.go
//
// streamsite – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Console bootstrap logger, then config (.env → conf/global.yaml →
//     STREAMSITE_* env, vault: references resolved).
//
//  2. Daily rotating JSON logger (tees to console when running in a TTY).
//
//  3. Content store: in-memory, or MySQL with schema migration.  An empty
//     store is seeded with the launch content when store.seed is on.
//
//  4. Backup manager and scheduler goroutine: one snapshot after the
//     initial delay, then write → prune → restore every interval.
//
//  5. Sessions, admin credentials, Discord notifier, activity recorder,
//     and the request-info resolver (optional GeoLite2 database).
//
//  6. Router: security headers, metrics, optional HTTPS redirect, panic
//     recovery, request info, and session loading in front of every
//     registered component at /api/<name>.  /metrics and /healthz sit
//     alongside.
//
//  7. Serve until SIGINT/SIGTERM, drain requests, stop the scheduler, and
//     flush pending notifications.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/yanizio/streamsite/internal/activity"
	"github.com/yanizio/streamsite/internal/auth"
	"github.com/yanizio/streamsite/internal/backup"
	"github.com/yanizio/streamsite/internal/component"
	"github.com/yanizio/streamsite/internal/config"
	"github.com/yanizio/streamsite/internal/database"
	"github.com/yanizio/streamsite/internal/logger"
	"github.com/yanizio/streamsite/internal/notify"
	"github.com/yanizio/streamsite/internal/requestinfo"
	"github.com/yanizio/streamsite/internal/server"
	"github.com/yanizio/streamsite/internal/session"
	"github.com/yanizio/streamsite/internal/store"
	"github.com/yanizio/streamsite/internal/store/memory"
	"github.com/yanizio/streamsite/internal/store/sqlstore"

	_ "github.com/yanizio/streamsite/components/admin"
	_ "github.com/yanizio/streamsite/components/announcements"
	_ "github.com/yanizio/streamsite/components/backups"
	_ "github.com/yanizio/streamsite/components/logs"
	_ "github.com/yanizio/streamsite/components/streamchannels"
	_ "github.com/yanizio/streamsite/components/streamsettings"
	_ "github.com/yanizio/streamsite/components/themes"
)

func main() {
	restoreLog := logger.Bootstrap()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		zap.S().Fatalw("load config", "err", err)
	}
	restoreLog()

	log, err := logger.New(cfg.Paths.Root, logger.IsTTY())
	if err != nil {
		zap.S().Fatalw("start logger", "err", err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(ctx, cfg, log.Desugar()); err != nil {
		log.Fatalw("streamsite stopped", "err", err)
	}
	log.Infow("streamsite stopped cleanly")
}

// run wires every subsystem and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	//
	// ── 1.  Content store ───────────────────────────────────────────────
	//
	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.Store.Seed {
		seeded, err := store.Seed(ctx, st)
		if err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
		log.Info("store ready", zap.String("driver", cfg.Store.Driver), zap.Bool("seeded", seeded))
	}

	//
	// ── 2.  Backups ─────────────────────────────────────────────────────
	//
	backups := backup.NewManager(st, cfg.Abs(cfg.Backup.Dir), cfg.Backup.Retention, log.Named("backup"))
	sched := backup.NewScheduler(backups, backup.Schedule{
		InitialDelay:       cfg.Backup.InitialDelay,
		Interval:           cfg.Backup.Interval,
		RestoreAfterBackup: cfg.Backup.RestoreAfterBackup,
		CycleTimeout:       cfg.Backup.CycleTimeout,
	}, log.Named("backup"))

	schedCtx, stopSched := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(schedCtx)
	}()
	defer func() {
		stopSched()
		wg.Wait()
	}()

	//
	// ── 3.  Admin plumbing ──────────────────────────────────────────────
	//
	rec := activity.New(st, notify.New(cfg.Discord.WebhookURL), log.Named("activity"))
	defer rec.Wait()

	res, err := requestinfo.NewResolver(cfg.Abs(cfg.Geo.DBPath))
	if err != nil {
		return err
	}
	defer res.Close()

	env := &component.Env{
		Store:       st,
		Backups:     backups,
		Sessions:    session.New(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.CookieName, cfg.Session.Secure),
		Activity:    rec,
		Credentials: auth.NewCredentials(cfg.Admin.ID, cfg.Admin.Username, cfg.Admin.PasswordHash),
		Log:         log.Named("http"),
	}

	//
	// ── 4.  Router and server ───────────────────────────────────────────
	//
	router, err := buildRouter(env, res, cfg.HTTP.ForceHTTPS)
	if err != nil {
		return err
	}
	return server.Serve(ctx, server.New(cfg.HTTP.ListenAddr, router))
}

// openStore returns the configured Store and its closer.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Store, func(), error) {
	if cfg.Store.Driver != "mysql" {
		return memory.New(), func() {}, nil
	}

	log.Info("connecting to content DB …")
	db, err := database.Open(ctx, cfg.Store.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect content DB: %w", err)
	}
	if err := sqlstore.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate content DB: %w", err)
	}
	log.Info("content DB online")
	return sqlstore.New(db), func() { _ = db.Close() }, nil
}
