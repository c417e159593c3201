package observability

import (
	"testing"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]string{
		"trace":   "TRACE",
		"DEBUG":   "DEBUG",
		" info ":  "INFO",
		"":        "INFO",
		"warning": "WARN",
		"error":   "ERROR",
		"verbose": "INFO",
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLogLevel(in), "level %q", in)
	}
}

func TestServerLoggerConfig(t *testing.T) {
	cfg := ServerLoggerConfig("chatrelay", "debug", "")
	assert.Equal(t, logging.ProfileStructured, cfg.Profile)
	assert.Equal(t, "DEBUG", cfg.DefaultLevel)
	assert.Equal(t, "production", cfg.Environment)
	require.Len(t, cfg.Sinks, 1)
	assert.Equal(t, "json", cfg.Sinks[0].Format)
	require.Len(t, cfg.Middleware, 1)
	assert.Equal(t, "correlation", cfg.Middleware[0].Name)

	logger, err := logging.New(ServerLoggerConfig("chatrelay-test", "info", "test"))
	require.NoError(t, err)
	logger.Info("gateway logger ready", zap.String("provider", "openai"))
}

func TestInitLoggers(t *testing.T) {
	origCLI, origServer := CLILogger, ServerLogger
	t.Cleanup(func() {
		CLILogger, ServerLogger = origCLI, origServer
	})

	InitCLILogger("chatrelay-test", true)
	require.NotNil(t, CLILogger)
	CLILogger.Debug("verbose cli logger")

	InitServerLogger("chatrelay-test", "warn", "test")
	require.NotNil(t, ServerLogger)
	ServerLogger.Warn("structured warning", zap.String("role", "secondary"))

	Sync()
}

func TestResolvePort(t *testing.T) {
	port, err := resolvePort("[::]:9464")
	require.NoError(t, err)
	assert.Equal(t, 9464, port)

	_, err = resolvePort("no-port")
	assert.Error(t, err)
}

func TestCrucibleVersionAvailable(t *testing.T) {
	version := crucible.GetVersion()
	assert.NotEmpty(t, version.Gofulmen)
	assert.NotEmpty(t, version.Crucible)
}
