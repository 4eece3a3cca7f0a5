package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
)

// serviceName is attached to every log entry.
const serviceName = "graylogic-node"

// Logger is the node's structured logger. It satisfies the small Logger
// interfaces declared by the cycle, queue, quiet, channel and mqtt packages.
type Logger struct {
	*slog.Logger
}

// New builds the logger described by the logging section of node.yaml.
// Every entry carries service, version and, when nodeID is set, node_id.
func New(cfg config.LoggingConfig, version, nodeID string) *Logger {
	return newWithWriter(outputFor(cfg.Output), cfg, version, nodeID)
}

// newWithWriter is New with an explicit destination.
func newWithWriter(w io.Writer, cfg config.LoggingConfig, version, nodeID string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	attrs := []slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	}
	if nodeID != "" {
		attrs = append(attrs, slog.String("node_id", nodeID))
	}

	return &Logger{Logger: slog.New(handler.WithAttrs(attrs))}
}

// outputFor maps the output setting to a stream; anything but "stderr"
// goes to stdout.
func outputFor(name string) io.Writer {
	if strings.EqualFold(name, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

// parseLevel converts a level name to slog.Level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a Logger that adds args to every entry.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default is the startup logger used until node.yaml has been loaded:
// JSON to stdout at info, without a node_id.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev", "")
}

// Discard returns a logger that drops every entry.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
