// Package logging builds the file logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "info"

// Options selects where and how much to log.
type Options struct {
	Level string
	File  string
	// MaxSizeMB rotates the file after this many megabytes.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New returns a JSON logger writing to a rotating file. The terminal belongs to
// the TUI, so an empty File or the level "off" disables logging instead of
// falling back to stdout.
func New(opts Options) (*zap.Logger, error) {
	levelName := strings.ToLower(strings.TrimSpace(opts.Level))
	if levelName == "" {
		levelName = DefaultLevel
	}
	if levelName == "off" || opts.File == "" {
		return zap.NewNop(), nil
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:   "message",
		LevelKey:     "level",
		TimeKey:      "time",
		CallerKey:    "caller",
		EncodeLevel:  zapcore.CapitalLevelEncoder,
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    orDefault(opts.MaxSizeMB, 5),
		MaxBackups: orDefault(opts.MaxBackups, 3),
		MaxAge:     orDefault(opts.MaxAgeDays, 28),
	})
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), writer, level)
	return zap.New(core, zap.AddCaller()), nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
