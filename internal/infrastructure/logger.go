package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cunydash/internal/config"
)

type traceKey struct{}

// logSink owns the process logger and the file it may write to.
type logSink struct {
	once   sync.Once
	logger *slog.Logger

	mu   sync.Mutex
	file *os.File
}

var sink = &logSink{}

// InitializeLogger builds the process logger from cfg and makes it the slog
// default. Later calls return the first logger unchanged.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var err error
	sink.once.Do(func() {
		sink.logger, err = NewLogger(cfg)
		if sink.logger != nil {
			slog.SetDefault(sink.logger)
		}
	})
	return sink.logger, err
}

// GetLogger falls back to slog.Default until InitializeLogger succeeds.
func GetLogger() *slog.Logger {
	if sink.logger == nil {
		return slog.Default()
	}
	return sink.logger
}

// NewLogger builds a logger for cfg. Output "file" and "both" open
// cfg.FilePath, which CloseLogFile releases.
func NewLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	out := io.Writer(os.Stdout)
	switch mode := strings.ToLower(cfg.Output); mode {
	case "file", "both":
		f, err := createLogFile(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		sink.setFile(f)
		out = f
		if mode == "both" {
			out = io.MultiWriter(os.Stdout, f)
		}
	}
	return NewLoggerWithWriter(out, cfg.Level), nil
}

// NewLoggerWithWriter returns a JSON logger on w that stamps each record
// with the context trace ID.
func NewLoggerWithWriter(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(traceIDHandler{slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true, Level: lvl})})
}

type traceIDHandler struct {
	slog.Handler
}

func (h traceIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceIDHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceIDHandler) WithGroup(name string) slog.Handler {
	return traceIDHandler{h.Handler.WithGroup(name)}
}

// WithTraceID returns ctx carrying id for log correlation.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// GetTraceID returns the ID set by WithTraceID, or "".
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

// CloseLogFile releases the log file opened by NewLogger, if any.
func CloseLogFile() error {
	return sink.setFile(nil)
}

// ResetLoggerForTesting forgets the process logger so tests can initialize
// it again.
func ResetLoggerForTesting() {
	CloseLogFile()
	sink.logger = nil
	sink.once = sync.Once{}
}

// setFile swaps in f and closes the file it replaces.
func (s *logSink) setFile(f *os.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.file
	s.file = f
	if prev == nil {
		return nil
	}
	return prev.Close()
}

func createLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
