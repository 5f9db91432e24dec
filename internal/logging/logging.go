// internal/logging/logging.go
package logging

import (
	"fmt"
	"io"
	stdLog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu sync.Mutex
	// output is where log lines go. Reports are written to stdout, so logs stay on stderr.
	output io.Writer = os.Stderr
)

// stdLogWriter forwards stdlib log output into zerolog at debug level.
type stdLogWriter struct {
	logger zerolog.Logger
}

func (w *stdLogWriter) Write(p []byte) (n int, err error) {
	message := strings.TrimSuffix(string(p), "\n")

	// Example stdlog output: "2025/05/23 14:40:15 server.go:35: message"
	parts := strings.SplitN(message, " ", 4)
	if len(parts) >= 4 {
		stdTime, err := time.Parse("2006/01/02 15:04:05", parts[0]+" "+parts[1])
		if err == nil {
			w.logger.Debug().
				Str("file", strings.TrimSuffix(parts[2], ":")).
				Time("time", stdTime).
				Msg(parts[3])
			return len(p), nil
		}
	}

	w.logger.Debug().Msg(message)
	return len(p), nil
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// ConfigureGlobalLogging sets the global level and output format.
// format is "text" (console writer) or "json".
func ConfigureGlobalLogging(levelStr, format string) error {
	level := parseLogLevel(levelStr)

	w, err := writerFor(format)
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(level)
	logContext := zerolog.New(w).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	stdLog.SetFlags(0)
	stdLog.SetOutput(&stdLogWriter{logger: log.Logger})
	return nil
}

func writerFor(format string) (io.Writer, error) {
	mu.Lock()
	out := output
	mu.Unlock()

	switch strings.ToLower(format) {
	case "", "text":
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}, nil
	case "json":
		return out, nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}

// parseLogLevel converts a string log level to zerolog.Level.
func parseLogLevel(levelString string) zerolog.Level {
	if levelString == "" {
		return zerolog.InfoLevel
	}

	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil || level == zerolog.NoLevel {
		log.Warn().
			Str("logLevel", levelString).
			Msg("Invalid log level provided. Defaulting to error level.")
		return zerolog.ErrorLevel
	}
	return level
}

// SetOutput changes where subsequently configured loggers write.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// NewLogger returns a JSON logger for one component writing to the configured output.
func NewLogger(component string, level zerolog.Level) zerolog.Logger {
	mu.Lock()
	out := output
	mu.Unlock()
	return NewLoggerWithWriter(component, level, out)
}

// NewLoggerWithWriter is NewLogger with an explicit writer.
func NewLoggerWithWriter(component string, level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Str("component", component).Logger()
}
