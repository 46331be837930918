// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// streamsite writes lifecycle, backup, and admin-activity events to one JSON
// log per day under `<root>/logs/YYYY-MM-DD.log`.  When running in an
// interactive TTY we tee the same events to stdout.  Rotation, compression,
// and retention are handled by Lumberjack; no external log-rotate job is
// required.
//
// Usage
// -----
//
//	log, err := logger.New(cfg.Paths.Root, logger.IsTTY())
//	if err != nil { … }
//	log.Infow("http listening", "addr", cfg.HTTP.ListenAddr)
//
// Notes
// -----
// • Zap core uses ISO-8601 timestamps and lowercase levels.
// • Errors are written to the same sink via `ErrorOutput`.
// • Subsystems take `zap.L().Named("backup")` style child loggers.
package logger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a *zap.SugaredLogger that writes JSON to /logs/YYYY-MM-DD.log.
// When tee == true, a console core is also attached.  The logger is
// installed as the process-wide default via zap.ReplaceGlobals.
func New(rootDir string, tee bool) (*zap.SugaredLogger, error) {
	logDir := filepath.Join(rootDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	fileName := time.Now().Format("2006-01-02") + ".log"
	fileSink := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, fileName),
		MaxSize:    50, // MB
		MaxBackups: 7,  // keep last seven files
		MaxAge:     14, // days
		Compress:   true,
	}

	encCfg := encoderConfig()
	jsonCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(fileSink),
		zap.InfoLevel,
	)

	cores := []zapcore.Core{jsonCore}
	if tee {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(os.Stdout),
			zap.InfoLevel,
		))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.ErrorOutput(zapcore.AddSync(fileSink)),
		zap.AddCaller(),
	).Sugar()

	// Make this the global logger so zap.L() works everywhere after startup.
	zap.ReplaceGlobals(z.Desugar())

	z.Infow("logger online", "tee", tee, "dir", logDir)
	return z, nil
}

// Bootstrap installs a console-only logger for the window before config is
// loaded.  The returned func restores the previous globals.
func Bootstrap() func() {
	z := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.AddSync(os.Stderr),
		zap.InfoLevel,
	))
	return zap.ReplaceGlobals(z)
}

// IsTTY reports whether stdout is a character device.
func IsTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		NameKey:      "logger",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
}
