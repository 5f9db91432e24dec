package logging

import (
	"bytes"
	stdLog "log"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// restoreGlobals undoes the global changes ConfigureGlobalLogging makes.
func restoreGlobals(t *testing.T) {
	level := zerolog.GlobalLevel()
	logger := log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(level)
		log.Logger = logger
		SetOutput(os.Stderr)
		stdLog.SetOutput(os.Stderr)
		stdLog.SetFlags(stdLog.LstdFlags)
	})
}

func TestNewLoggerWithWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("fetch", zerolog.DebugLevel, &buf)

	logger.Debug().Msg("test debug message")
	assert.Contains(t, buf.String(), "test debug message")
	assert.Contains(t, buf.String(), `"component":"fetch"`)
	assert.Contains(t, buf.String(), `"level":"debug"`)
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("test", zerolog.InfoLevel, &buf)

	logger.Debug().Msg("debug message")
	assert.NotContains(t, buf.String(), "debug message")

	logger.Info().Msg("info message")
	assert.Contains(t, buf.String(), "info message")
}

func TestNewLoggerUsesConfiguredOutput(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer
	SetOutput(&buf)

	NewLogger("server", zerolog.InfoLevel).Info().Msg("listening")
	assert.Contains(t, buf.String(), `"component":"server"`)
}

func TestConfigureGlobalLoggingJSON(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer
	SetOutput(&buf)

	require.NoError(t, ConfigureGlobalLogging("debug", "json"))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	log.Debug().Str("url", "https://example.com").Msg("fetching")
	out := buf.String()
	assert.Contains(t, out, `"message":"fetching"`)
	assert.Contains(t, out, `"url":"https://example.com"`)
	assert.Contains(t, out, `"caller"`)
}

func TestConfigureGlobalLoggingText(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer
	SetOutput(&buf)

	require.NoError(t, ConfigureGlobalLogging("warn", "text"))
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.NotContains(t, buf.String(), `"message"`, "console writer output is not JSON")
}

func TestConfigureGlobalLoggingRedirectsStdlog(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer
	SetOutput(&buf)

	require.NoError(t, ConfigureGlobalLogging("debug", "json"))
	stdLog.Print("from the standard logger")
	assert.Contains(t, buf.String(), "from the standard logger")
}

func TestConfigureGlobalLoggingRejectsUnknownFormat(t *testing.T) {
	restoreGlobals(t)
	assert.Error(t, ConfigureGlobalLogging("info", "xml"))
}

func TestParseLogLevel(t *testing.T) {
	restoreGlobals(t)
	SetOutput(&bytes.Buffer{})

	assert.Equal(t, zerolog.InfoLevel, parseLogLevel(""))
	assert.Equal(t, zerolog.DebugLevel, parseLogLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLogLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, parseLogLevel("chatty"))
}
