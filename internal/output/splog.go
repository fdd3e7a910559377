// Package output provides console and file logging for stageport.
package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

const fileTimeLayout = "2006-01-02 15:04:05.000"

// levelPrefix is prepended to console lines above info
var levelPrefix = map[slog.Level]string{
	slog.LevelWarn:  "⚠️  ",
	slog.LevelError: "❌ ",
}

// consoleHandler prints the bare message, one per line
type consoleHandler struct {
	w     io.Writer
	debug bool
	quiet *atomic.Bool
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level > slog.LevelDebug || h.debug
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	if h.quiet.Load() {
		return nil
	}
	_, err := io.WriteString(h.w, levelPrefix[r.Level]+r.Message+"\n")
	return err
}

func (h *consoleHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *consoleHandler) WithGroup(string) slog.Handler      { return h }

// fanout hands every record to each handler that accepts its level
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}

// envInt reads a positive integer (or zero when allowZero) from name
func envInt(name string, fallback int, allowZero bool) int {
	v, err := strconv.Atoi(os.Getenv(name))
	if err != nil || v < 0 || (v == 0 && !allowZero) {
		return fallback
	}
	return v
}

// rotatingFile opens a size-rotated log file. Limits come from
// STAGEPORT_LOG_MAX_SIZE (MB), STAGEPORT_LOG_MAX_BACKUPS and
// STAGEPORT_LOG_MAX_AGE (days).
func rotatingFile(path string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    envInt("STAGEPORT_LOG_MAX_SIZE", 1, false),
		MaxBackups: envInt("STAGEPORT_LOG_MAX_BACKUPS", 2, true),
		MaxAge:     envInt("STAGEPORT_LOG_MAX_AGE", 30, false),
	}, nil
}

func fileHandler(w io.Writer) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(a.Key, a.Value.Time().Format(fileTimeLayout))
			}
			return a
		},
	})
}

// Splog writes user-facing messages to the console and, optionally,
// everything including debug messages to a rotating log file.
type Splog struct {
	logger *slog.Logger
	file   io.WriteCloser
	quiet  atomic.Bool
}

// Options configures a Splog
type Options struct {
	Writer      io.Writer // console writer, defaults to os.Stdout
	LogFilePath string    // rotating log file, disabled when empty
	Debug       bool      // show debug messages on the console
}

// NewSplog returns a console-only Splog. DEBUG in the environment turns on
// debug messages.
func NewSplog() *Splog {
	s, _ := NewSplogWithOptions(Options{Debug: os.Getenv("DEBUG") != ""})
	return s
}

// NewSplogWithOptions builds a Splog from opts
func NewSplogWithOptions(opts Options) (*Splog, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	s := &Splog{}
	handlers := fanout{&consoleHandler{w: opts.Writer, debug: opts.Debug, quiet: &s.quiet}}

	if opts.LogFilePath != "" {
		f, err := rotatingFile(opts.LogFilePath)
		if err != nil {
			return nil, err
		}
		s.file = f
		handlers = append(handlers, fileHandler(f))
	}

	s.logger = slog.New(handlers)
	return s, nil
}

// LogFilePath is STAGEPORT_LOG_FILE when set, else ~/.stageport/logs/stageport.log
func LogFilePath() string {
	if p := os.Getenv("STAGEPORT_LOG_FILE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "stageport.log"
	}
	return filepath.Join(home, ".stageport", "logs", "stageport.log")
}

// SetQuiet silences the console. The log file keeps receiving messages.
func (s *Splog) SetQuiet(quiet bool) { s.quiet.Store(quiet) }

// IsQuiet reports whether the console is silenced
func (s *Splog) IsQuiet() bool { return s.quiet.Load() }

// HasLogFile reports whether messages are also written to a log file
func (s *Splog) HasLogFile() bool { return s.file != nil }

func (s *Splog) log(level slog.Level, f string, args []any) {
	msg := f
	if len(args) > 0 {
		msg = fmt.Sprintf(f, args...)
	}
	s.logger.Log(context.Background(), level, msg)
}

// Info writes an info message
func (s *Splog) Info(f string, args ...any) { s.log(slog.LevelInfo, f, args) }

// Warn writes a warning
func (s *Splog) Warn(f string, args ...any) { s.log(slog.LevelWarn, f, args) }

// Error writes an error
func (s *Splog) Error(f string, args ...any) { s.log(slog.LevelError, f, args) }

// Debug writes a message shown only in debug mode or in the log file
func (s *Splog) Debug(f string, args ...any) { s.log(slog.LevelDebug, f, args) }

// Close flushes and closes the log file, if any
func (s *Splog) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
