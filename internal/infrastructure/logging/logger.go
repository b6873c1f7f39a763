package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/availwatch/internal/infrastructure/config"
)

// serviceName is attached to every record so log aggregation can tell
// this service apart from the rest of the deployment.
const serviceName = "availwatch"

// levelNames maps config strings to slog levels. Unknown names fall
// back to info rather than erroring; a typo in the config should not
// silence the service.
var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// Logger is the structured logger handed to every component. It embeds
// slog.Logger, so the usual Info/Warn/Error/Debug methods are available
// directly, each record carrying the service and version attrs.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New creates a Logger from the logging section of the configuration.
//
// Format selects the handler: "text" for development, anything else is
// JSON. Output selects stderr or stdout. Level filters records; see
// levelNames for accepted values.
func New(cfg config.LoggingConfig, version string) *Logger {
	return NewWithWriter(cfg, version, destination(cfg.Output))
}

// NewWithWriter is New with an explicit destination. Tests use it to
// capture records in a buffer.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: Level(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

// Level resolves a config level name to its slog.Level, defaulting to
// info for unrecognised names.
func Level(name string) slog.Level {
	if lvl, ok := levelNames[strings.ToLower(name)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// destination maps the config output name to a writer.
func destination(output string) io.Writer {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

// With returns a child Logger carrying additional default attributes.
//
// Example:
//
//	apiLog := logger.With("component", "api")
//	apiLog.Info("listening") // includes component=api
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default is the logger used during early startup, before the
// configuration file has been read: JSON to stdout at info level.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}
