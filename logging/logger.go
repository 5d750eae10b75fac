// Package logging wraps zerolog behind a Logger which supports console output alongside any number of
// structured writers. Each package creates its own sub-logger so log output stays attributable.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// GlobalLogger describes a Logger that is disabled by default and is enabled when a fuzzing session is
// created. Each package should create its own sub-logger from it.
var GlobalLogger = NewLogger(zerolog.Disabled, false)

// Logger describes a logging object that can log events to console and to any arbitrary writers in
// structured format.
type Logger struct {
	// level describes the log level events must meet to be emitted.
	level zerolog.Level

	// multiLogger describes a logger emitting structured output to the registered writers.
	multiLogger zerolog.Logger

	// consoleLogger describes a logger emitting human-readable output to console.
	consoleLogger zerolog.Logger

	// writers describes the writers structured log output is sent to.
	writers []io.Writer
}

// NewLogger creates a new Logger with a specific log level. The Logger can output to console, if
// enabled, and to any number of additional writers in structured format.
func NewLogger(level zerolog.Level, consoleEnabled bool, writers ...io.Writer) *Logger {
	// Both base loggers start without a sink so that a logger with no writers is safe to use at any
	// level.
	baseMultiLogger := zerolog.New(io.Discard).Level(zerolog.Disabled)
	baseConsoleLogger := zerolog.New(io.Discard).Level(zerolog.Disabled)

	if len(writers) > 0 {
		baseMultiLogger = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	}
	if consoleEnabled {
		consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout}
		baseConsoleLogger = zerolog.New(consoleWriter).Level(level)
	}

	return &Logger{
		level:         level,
		multiLogger:   baseMultiLogger,
		consoleLogger: baseConsoleLogger,
		writers:       writers,
	}
}

// NewSubLogger creates a new Logger with unique context in the form of a key-value pair. Each package
// should have its own sub-logger so parsing of logs stays grep-able by key.
func (l *Logger) NewSubLogger(key string, value string) *Logger {
	subMultiLogger := l.multiLogger.With().Str(key, value).Logger()
	subConsoleLogger := l.consoleLogger.With().Str(key, value).Logger()
	return &Logger{
		level:         l.level,
		multiLogger:   subMultiLogger,
		consoleLogger: subConsoleLogger,
		writers:       l.writers,
	}
}

// AddWriter adds a writer to the list of channels structured log output is sent to.
func (l *Logger) AddWriter(writer io.Writer) {
	for _, w := range l.writers {
		if writer == w {
			return
		}
	}
	l.writers = append(l.writers, writer)
	l.multiLogger = zerolog.New(zerolog.MultiLevelWriter(l.writers...)).Level(l.level).With().Timestamp().Logger()
}

// Level gets the log level of the Logger.
func (l *Logger) Level() zerolog.Level {
	return l.level
}

// SetLevel updates the log level of the Logger.
func (l *Logger) SetLevel(level zerolog.Level) {
	l.level = level
	l.multiLogger = l.multiLogger.Level(level)
	l.consoleLogger = l.consoleLogger.Level(level)
}

// EnableConsole enables human-readable console output at the Logger's current level.
func (l *Logger) EnableConsole() {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout}
	l.consoleLogger = zerolog.New(consoleWriter).Level(l.level)
}

// log emits one event at the given level to both underlying loggers.
func (l *Logger) log(level zerolog.Level, err error, msg string) {
	consoleLog := l.consoleLogger.WithLevel(level)
	multiLog := l.multiLogger.WithLevel(level)
	if err != nil {
		consoleLog = consoleLog.Err(err)
		multiLog = multiLog.Err(err).Stack()
	}
	consoleLog.Msg(msg)
	multiLog.Msg(msg)
}

// Trace logs a trace event with an optional error.
func (l *Logger) Trace(msg string, err error) {
	l.log(zerolog.TraceLevel, err, msg)
}

// Debug logs a debug event with an optional error.
func (l *Logger) Debug(msg string, err error) {
	l.log(zerolog.DebugLevel, err, msg)
}

// Info logs an info event.
func (l *Logger) Info(msg string) {
	l.log(zerolog.InfoLevel, nil, msg)
}

// Warn logs a warning event with an optional error.
func (l *Logger) Warn(msg string, err error) {
	l.log(zerolog.WarnLevel, err, msg)
}

// Error logs an error event.
func (l *Logger) Error(msg string, err error) {
	l.log(zerolog.ErrorLevel, err, msg)
}

// Panic logs a panic-level event and then panics.
func (l *Logger) Panic(msg string, err error) {
	l.log(zerolog.PanicLevel, err, msg)
	if err != nil {
		panic(err)
	}
	panic(msg)
}
