// Package logger wires zap for the viewer and the command-line tools.
//
// The package-level logger discards everything until Init runs, so library
// packages such as lod and layer can log unconditionally.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Log is the global logger instance.
	Log = zap.NewNop()

	// Sugar is the sugared form of Log.
	Sugar = Log.Sugar()

	level = zap.NewAtomicLevel()
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Rotation controls lumberjack file rotation.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultRotation keeps three compressed 50MB files for a week.
func DefaultRotation() Rotation {
	return Rotation{MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 7, Compress: true}
}

// Options selects where and how log entries are written.
type Options struct {
	Level     string // debug, info, warn, error
	Format    string // console or json; applies to both outputs
	File      string // empty disables file output
	Rotation  Rotation
	NoConsole bool
}

// Init replaces the global logger. With neither console nor file output the
// logger discards everything.
func Init(opts Options) error {
	if err := SetLevel(opts.Level); err != nil {
		return err
	}
	if opts.Format == "" {
		opts.Format = FormatConsole
	}
	if opts.Format != FormatConsole && opts.Format != FormatJSON {
		return fmt.Errorf("unknown log format %q", opts.Format)
	}

	var cores []zapcore.Core
	if !opts.NoConsole {
		cores = append(cores, zapcore.NewCore(
			newEncoder(opts.Format, true),
			zapcore.Lock(os.Stdout),
			level,
		))
	}
	if opts.File != "" {
		rot := opts.Rotation
		if rot == (Rotation{}) {
			rot = DefaultRotation()
		}
		cores = append(cores, zapcore.NewCore(
			newEncoder(opts.Format, false),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    rot.MaxSizeMB,
				MaxBackups: rot.MaxBackups,
				MaxAge:     rot.MaxAgeDays,
				Compress:   rot.Compress,
				LocalTime:  true,
			}),
			level,
		))
	}

	if len(cores) == 0 {
		Nop()
		return nil
	}
	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	Sugar = Log.Sugar()
	return nil
}

// newEncoder builds the entry encoder. Terminal output gets colour and a
// short clock; files get full timestamps.
func newEncoder(format string, terminal bool) zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	if format == FormatJSON {
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	if terminal {
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(cfg)
}

// SetLevel changes the minimum level of the running logger. An empty string
// means info.
func SetLevel(lvl string) error {
	if lvl == "" {
		level.SetLevel(zapcore.InfoLevel)
		return nil
	}
	parsed, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return err
	}
	level.SetLevel(parsed)
	return nil
}

// Level reports the current minimum level.
func Level() zapcore.Level {
	return level.Level()
}

// Nop resets the global logger to discard all output.
func Nop() {
	Log = zap.NewNop()
	Sugar = Log.Sugar()
}

// Named returns a child of the global logger tagged with a component name.
// The child is bound to the logger current at call time.
func Named(component string) *zap.Logger {
	return Log.Named(component)
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = Log.Sync()
}

// Debug logs a debug message.
func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

// Info logs an info message.
func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// Warn logs a warning message.
func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

// Error logs an error message.
func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}
