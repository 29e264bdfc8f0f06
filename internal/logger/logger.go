package logger

import (
	"regexp"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	base = zap.NewNop()

	emailRegex  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	tokenRegex  = regexp.MustCompile(`eyJ[^\s"]+`)
	bearerRegex = regexp.MustCompile(`(?i)bearer\s+[^\s"]+`)
)

// Logger is a module-tagged facade over the process logger. It is safe to
// create one at package init time; it picks up whatever Init installed.
type Logger struct {
	fields []zap.Field
}

// New creates a new Logger
func New() *Logger {
	return &Logger{}
}

// With returns a Logger that attaches fields to every entry
func (l *Logger) With(fields ...zap.Field) *Logger {
	merged := make([]zap.Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{fields: merged}
}

// Init installs the process logger. env "production" selects the JSON encoder.
func Init(env, level string) error {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	cfg.DisableStacktrace = true

	z, err := cfg.Build()
	if err != nil {
		return err
	}
	Set(z)
	return nil
}

// Set replaces the process logger; tests use it with zaptest/observer cores.
func Set(z *zap.Logger) {
	mu.Lock()
	base = z
	mu.Unlock()
}

// L returns the underlying zap logger
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Sync flushes buffered entries
func Sync() {
	_ = L().Sync()
}

// Anonymize replaces sensitive information in logs (emails, tokens)
func Anonymize(s string) string {
	s = emailRegex.ReplaceAllString(s, "[REDACTED_EMAIL]")
	s = bearerRegex.ReplaceAllString(s, "Bearer [REDACTED_TOKEN]")
	s = tokenRegex.ReplaceAllString(s, "[REDACTED_TOKEN]")
	return s
}

func (l *Logger) entry(module string, fields []zap.Field) []zap.Field {
	out := make([]zap.Field, 0, len(l.fields)+len(fields)+1)
	out = append(out, zap.String("module", module))
	out = append(out, l.fields...)
	return append(out, fields...)
}

// --- Convenient methods ---
func (l *Logger) Info(module, msg string, fields ...zap.Field) {
	L().Info(Anonymize(msg), l.entry(module, fields)...)
}

func (l *Logger) Debug(module, msg string, fields ...zap.Field) {
	L().Debug(Anonymize(msg), l.entry(module, fields)...)
}

func (l *Logger) Warn(module, msg string, fields ...zap.Field) {
	L().Warn(Anonymize(msg), l.entry(module, fields)...)
}

func (l *Logger) Error(module, msg string, err error, fields ...zap.Field) {
	fs := l.entry(module, fields)
	if err != nil {
		fs = append(fs, zap.String("error", Anonymize(err.Error())))
	}
	L().Error(Anonymize(msg), fs...)
}
