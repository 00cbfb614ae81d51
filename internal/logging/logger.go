package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger builds the application logger and installs it as zap's global.
// level: "debug", "info", "warn", "error" (defaults to "info")
// format: "json" or "console" (defaults to "json")
func InitLogger(level, format string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level.SetLevel(lvl)

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(l)
	return l, nil
}

// WithUser returns a logger with the user_id field.
func WithUser(l *zap.Logger, userID uint) *zap.Logger {
	return l.With(zap.Uint("user_id", userID))
}

// WithTarget returns a logger tagged with a votable target.
func WithTarget(l *zap.Logger, typeCode string, targetID uint) *zap.Logger {
	return l.With(zap.String("target_type", typeCode), zap.Uint("target_id", targetID))
}
