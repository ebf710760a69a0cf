package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects where the req command writes its logs.
type Config struct {
	// Path of a JSON log file rotated by size. Empty logs text to Stderr.
	Path  string
	Debug bool
	// Stderr receives text logs when Path is empty. Defaults to os.Stderr.
	Stderr io.Writer
}

var (
	mu      sync.Mutex
	rotator *lumberjack.Logger
	logPath string
)

// Setup installs the process wide slog default and returns a cleanup that restores the
// previous default and closes the log file.
func Setup(cfg Config) (func() error, error) {
	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	previous := slog.Default()

	var h slog.Handler
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, err
		}
		r := &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		h = slog.NewJSONHandler(r, &slog.HandlerOptions{
			Level:     level,
			AddSource: cfg.Debug,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
					a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
				}
				return a
			},
		})

		mu.Lock()
		rotator = r
		logPath = cfg.Path
		mu.Unlock()
	} else {
		w := cfg.Stderr
		if w == nil {
			w = os.Stderr
		}
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(h))
	slog.Debug("logger.initialized", "path", cfg.Path, "debug", cfg.Debug)

	cleanup := func() error {
		mu.Lock()
		defer mu.Unlock()

		slog.SetDefault(previous)
		var cerr error
		if rotator != nil {
			cerr = rotator.Close()
		}
		rotator = nil
		logPath = ""
		return cerr
	}
	return cleanup, nil
}

// Path returns the active log file, if any.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}
