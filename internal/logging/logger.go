// Package logging wraps zerolog with the Config shape and With*
// chaining API this codebase's callers already expect, so call sites
// never touch zerolog directly.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level       string `json:"level"`        // DEBUG, INFO, WARN, ERROR
	Output      string `json:"output"`       // "stdout", "stderr", or file path
	Component   string `json:"component"`
	IncludeFile bool   `json:"include_file"` // Include file and line number
	JSONFormat  bool   `json:"json_format"`  // Output as JSON vs console-pretty
}

// Logger wraps a zerolog.Logger scoped to a component.
type Logger struct {
	z zerolog.Logger
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// New creates a new logger with the given configuration.
func New(cfg *Config) *Logger {
	var output io.Writer = os.Stdout
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "", "stdout":
		output = os.Stdout
	default:
		if file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
			output = file
		}
	}

	if !cfg.JSONFormat {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	ctx := zerolog.New(output).With().Timestamp()
	if cfg.IncludeFile {
		ctx = ctx.Caller()
	}
	if cfg.Component != "" {
		ctx = ctx.Str("component", cfg.Component)
	}

	return &Logger{z: ctx.Logger().Level(parseLevel(cfg.Level))}
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings_ToLower(s))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func strings_ToLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Default returns the default logger instance.
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(&Config{Level: "INFO", Output: "stdout", Component: "app", JSONFormat: true})
	})
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(l *Logger) {
	defaultLogger = l
}

// WithComponent returns a new logger scoped to the given component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{z: l.z.With().Str("component", component).Logger()}
}

// WithTraceID returns a new logger tagged with a trace/correlation id.
func (l *Logger) WithTraceID(traceID string) *Logger {
	return &Logger{z: l.z.With().Str("trace_id", traceID).Logger()}
}

// WithField returns a new logger with an additional structured field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{z: l.z.With().Interface(key, value).Logger()}
}

// WithFields returns a new logger with additional structured fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{z: l.z.With().Fields(fields).Logger()}
}

// WithError returns a new logger with an error field attached.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{z: l.z.With().Err(err).Logger()}
}

func (l *Logger) Debug(msg string, args ...interface{}) { logWith(l.z.Debug(), msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { logWith(l.z.Info(), msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { logWith(l.z.Warn(), msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { logWith(l.z.Error(), msg, args...) }
func (l *Logger) Fatal(msg string, args ...interface{}) { logWith(l.z.Fatal(), msg, args...) }

// logWith interprets trailing args as either printf-style formatting
// arguments or key/value pairs, matching the calling convention every
// engine in this codebase already uses.
func logWith(event *zerolog.Event, msg string, args ...interface{}) {
	if len(args) == 0 {
		event.Msg(msg)
		return
	}
	if len(args) >= 2 && len(args)%2 == 0 {
		if _, ok := args[0].(string); ok {
			for i := 0; i < len(args); i += 2 {
				key, ok := args[i].(string)
				if !ok {
					continue
				}
				if err, isErr := args[i+1].(error); isErr {
					event.AnErr(key, err)
				} else {
					event.Interface(key, args[i+1])
				}
			}
			event.Msg(msg)
			return
		}
	}
	event.Msgf(msg, args...)
}

// Package-level functions delegating to the default logger.

func Debug(msg string, args ...interface{}) { Default().Debug(msg, args...) }
func Info(msg string, args ...interface{})  { Default().Info(msg, args...) }
func Warn(msg string, args ...interface{})  { Default().Warn(msg, args...) }
func Error(msg string, args ...interface{}) { Default().Error(msg, args...) }
func Fatal(msg string, args ...interface{}) { Default().Fatal(msg, args...) }

func WithComponent(component string) *Logger            { return Default().WithComponent(component) }
func WithTraceID(traceID string) *Logger                { return Default().WithTraceID(traceID) }
func WithField(key string, value interface{}) *Logger   { return Default().WithField(key, value) }
func WithFields(fields map[string]interface{}) *Logger  { return Default().WithFields(fields) }
func WithError(err error) *Logger                       { return Default().WithError(err) }
