// Package logger builds the zap logger and carries request-scoped loggers
// through contexts, gin and GORM.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	Output string // stdout, stderr or a file path
	// Fields are attached to every entry, e.g. service and env
	Fields map[string]string
}

// New builds a JSON logger, or a colored console one for local work.
// Errors and above carry a stack trace.
func New(cfg *Config) (*zap.Logger, error) {
	if cfg == nil {
		cfg = &Config{Level: "info", Format: "console"}
	}
	sink, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(ec)
	} else {
		ec := zap.NewProductionEncoderConfig()
		ec.TimeKey = "time"
		ec.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		ec.EncodeDuration = zapcore.MillisDurationEncoder
		encoder = zapcore.NewJSONEncoder(ec)
	}

	fields := make([]zap.Field, 0, len(cfg.Fields))
	for k, v := range cfg.Fields {
		fields = append(fields, zap.String(k, v))
	}

	core := zapcore.NewCore(encoder, sink, ParseLevel(cfg.Level))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel), zap.Fields(fields...)), nil
}

// ParseLevel maps a level name to zap, defaulting to info
func ParseLevel(level string) zapcore.Level {
	if level == "warning" {
		level = "warn"
	}
	l, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func openSink(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", output, err)
	}
	return zapcore.AddSync(f), nil
}

// Sync flushes buffered entries. Errors from syncing a terminal are ignored.
func Sync(logger *zap.Logger) error {
	err := logger.Sync()
	if err != nil && strings.Contains(err.Error(), "inappropriate ioctl") {
		return nil
	}
	return err
}
