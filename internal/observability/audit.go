package observability

import (
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/surgeprotector/surgeprotector/internal/config"
)

// Audit event names.
const (
	EventBlocked  = "blocked"
	EventExpired  = "expired"
	EventNotified = "notified"
)

// NewAuditLogger returns a JSON-lines logger writing to a size-rotated
// file. An empty AuditFile disables auditing and yields a no-op logger.
func NewAuditLogger(cfg config.LoggingConfig) *zap.Logger {
	path := strings.TrimSpace(cfg.AuditFile)
	if path == "" {
		return zap.NewNop()
	}

	return newAuditLogger(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.AuditMaxSizeMB,
		MaxBackups: cfg.AuditMaxBackups,
		Compress:   false,
	})
}

func newAuditLogger(w io.Writer) *zap.Logger {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "",
		NameKey:        "",
		MessageKey:     "event",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     utcTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(w),
		zap.InfoLevel,
	)
	return zap.New(core)
}

func utcTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(time.RFC3339))
}
