package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/surgeprotector/surgeprotector/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "TRACE", parseLogLevel("trace"))
	assert.Equal(t, "DEBUG", parseLogLevel(" Debug "))
	assert.Equal(t, "WARN", parseLogLevel("warning"))
	assert.Equal(t, "ERROR", parseLogLevel("error"))
	assert.Equal(t, "INFO", parseLogLevel(""))
	assert.Equal(t, "INFO", parseLogLevel("chatty"))
}

func TestInitCLILogger(t *testing.T) {
	InitCLILogger("surgeprotector-test", "warn", true)
	require.NotNil(t, CLILogger)

	CLILogger.Debug("debug message", zap.String("mode", "verbose"))
	CLILogger.Info("info message", zap.Int("limit", 10))
}

func TestNewCLILogger(t *testing.T) {
	logger, err := NewCLILogger("surgeprotector-test", "error")
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.SetLevel(logging.DEBUG)
	logger.Debug("debug after level change")
}

func TestAuditLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	audit := newAuditLogger(&buf)

	audit.Info(EventBlocked, zap.String("cycle_id", "c-1"), zap.String("address", "1.2.3.4"), zap.Int64("blocked_at", 1700000000))
	audit.Info(EventExpired, zap.String("cycle_id", "c-1"), zap.String("address", "fe80::1"))
	require.NoError(t, audit.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, EventBlocked, first["event"])
	assert.Equal(t, "1.2.3.4", first["address"])
	assert.Equal(t, "c-1", first["cycle_id"])
	assert.EqualValues(t, 1700000000, first["blocked_at"])
	assert.NotEmpty(t, first["time"])
	assert.NotContains(t, first, "level")
}

func TestNewAuditLoggerDisabled(t *testing.T) {
	audit := NewAuditLogger(config.LoggingConfig{})
	require.NotNil(t, audit)
	audit.Info(EventNotified)
}

func TestNewAuditLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit.log")
	audit := NewAuditLogger(config.LoggingConfig{AuditFile: path, AuditMaxSizeMB: 1, AuditMaxBackups: 1})

	audit.Info(EventNotified, zap.String("command", "reload"))
	require.NoError(t, audit.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"event":"notified"`)
	assert.Contains(t, string(data), `"command":"reload"`)
}
