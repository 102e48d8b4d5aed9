package logger

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Name is the root logger name.
const Name = "dirsync"

// New builds the root logger. The debug level selects zap's development
// preset; any other level uses the production preset at that level.
func New(cfg *Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		level.SetLevel(parsed)
	}

	config := zap.NewProductionConfig()
	if level.Level() == zapcore.DebugLevel {
		config = zap.NewDevelopmentConfig()
	}
	config.Level = level

	switch cfg.Format {
	case "console":
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.DisableStacktrace = true
	case "json", "":
		config.Encoding = "json"
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.NameKey = "logger"

	l, err := config.Build()
	if err != nil {
		return nil, err
	}
	return l.Named(Name), nil
}

// WithRayID returns a logger with the ray_id field set from the Fiber context.
func WithRayID(l *zap.Logger, c *fiber.Ctx) *zap.Logger {
	if rid, ok := c.Locals("ray_id").(string); ok && rid != "" {
		return l.With(zap.String("ray_id", rid))
	}
	return l
}

// WithTask returns a logger with the task field set.
func WithTask(l *zap.Logger, task string) *zap.Logger {
	if task == "" {
		return l
	}
	return l.With(zap.String("task", task))
}

// WithEntry returns a logger tagged with an operation kind and the DN it targets.
func WithEntry(l *zap.Logger, kind, dn string) *zap.Logger {
	return l.With(zap.String("kind", kind), zap.String("dn", dn))
}
