// Package logging provides the structured logger shared by every
// component of the orchestrator, built on top of zerolog the same way
// the reference chaos-runner project builds its reporting logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Level is a logging verbosity threshold.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects the wire shape of emitted log lines.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config configures a Logger.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Logger is a structured logger wrapping a zerolog.Logger.
type Logger struct {
	z zerolog.Logger
}

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	return &Logger{z: build(cfg)}
}

func build(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	var out io.Writer = cfg.Output
	if cfg.Format == FormatText {
		out = zerolog.ConsoleWriter{
			Out:        cfg.Output,
			TimeFormat: time.RFC3339,
			NoColor:    false,
		}
	}

	z := zerolog.New(out).With().Timestamp().Logger()
	return z.Level(levelOf(cfg.Level))
}

func levelOf(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug(msg string, fields ...any) { l.emit(l.z.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...any)  { l.emit(l.z.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...any)  { l.emit(l.z.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...any) { l.emit(l.z.Error(), msg, fields) }
func (l *Logger) Fatal(msg string, fields ...any) { l.emit(l.z.Fatal(), msg, fields) }

// WithField returns a child logger carrying one extra structured field.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{z: l.z.With().Interface(key, value).Logger()}
}

// WithFields returns a child logger carrying several extra fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	ctx := l.z.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{z: ctx.Logger()}
}

// WithError returns a child logger carrying an "error" field.
func (l *Logger) WithError(err error) *Logger {
	return l.WithField("error", err.Error())
}

func (l *Logger) emit(event *zerolog.Event, msg string, fields []any) {
	addFields(event, fields...)
	event.Msg(msg)
}

func addFields(event *zerolog.Event, fields ...any) *zerolog.Event {
	if len(fields)%2 != 0 {
		return event.Str("log_error", "odd number of fields")
	}
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			event.Str("log_error", fmt.Sprintf("field key at index %d is not a string", i))
			continue
		}
		event.Interface(key, fields[i+1])
	}
	return event
}

// InitGlobal installs cfg as the github.com/rs/zerolog/log global logger,
// used by the package-level convenience functions below.
func InitGlobal(cfg Config) {
	log.Logger = build(cfg)
}

func Debug(msg string, fields ...any) { addFields(log.Debug(), fields...).Msg(msg) }
func Info(msg string, fields ...any)  { addFields(log.Info(), fields...).Msg(msg) }
func Warn(msg string, fields ...any)  { addFields(log.Warn(), fields...).Msg(msg) }
func Error(msg string, fields ...any) { addFields(log.Error(), fields...).Msg(msg) }
func Fatal(msg string, fields ...any) { addFields(log.Fatal(), fields...).Msg(msg) }
