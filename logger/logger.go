package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger represents a structured logger
type Logger struct {
	logger zerolog.Logger
}

// Fields represents log fields
type Fields map[string]interface{}

var (
	// Default is the default logger instance
	Default *Logger

	initOnce sync.Once
)

// Init initializes the logger from LOG_LEVEL / APP_ENVIRONMENT
func Init() {
	initOnce.Do(func() {
		InitWithWriter(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	})
}

// InitWithWriter replaces the default logger with one writing to w
func InitWithWriter(w io.Writer) {
	level := getLogLevel()

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	Default = &Logger{logger: zerolog.New(w).With().Timestamp().Logger()}

	Default.Debug().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// getLogLevel returns the log level from environment variable
func getLogLevel() zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if os.Getenv("APP_ENVIRONMENT") == "production" {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func defaultLogger() *Logger {
	if Default == nil {
		Init()
	}
	return Default
}

// WithFields creates a new logger with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{logger: ctx.Logger()}
}

// WithField creates a new logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

// Debug returns a debug event
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info returns an info event
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn returns a warn event
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error returns an error event
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

// Fatal returns a fatal event
func (l *Logger) Fatal() *zerolog.Event {
	return l.logger.Fatal()
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	defaultLogger().Debug().Msgf(format, v...)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	defaultLogger().Info().Msgf(format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	defaultLogger().Warn().Msgf(format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	defaultLogger().Error().Msgf(format, v...)
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return defaultLogger().logger.GetLevel() <= zerolog.DebugLevel &&
		zerolog.GlobalLevel() <= zerolog.DebugLevel
}

// ForSite creates a logger for a site strategy
func ForSite(site string) *Logger {
	return defaultLogger().WithField("site", site)
}

// ForSession creates a logger for the acquisition session of one page
func ForSession(pageURL string) *Logger {
	return defaultLogger().WithFields(Fields{"component": "session", "url": pageURL})
}

// ForWorker creates a logger for the worker
func ForWorker() *Logger {
	return defaultLogger().WithField("component", "worker")
}

// ForStore creates a logger for the storage context
func ForStore() *Logger {
	return defaultLogger().WithField("component", "store")
}

// ForTransport creates a logger for the messaging transport
func ForTransport() *Logger {
	return defaultLogger().WithField("component", "transport")
}

// ForAnalysis creates a logger for the analysis client
func ForAnalysis() *Logger {
	return defaultLogger().WithField("component", "analysis")
}

// ForPublisher creates a logger for the publisher
func ForPublisher() *Logger {
	return defaultLogger().WithField("component", "publisher")
}

// ForCache creates a logger for the cache
func ForCache() *Logger {
	return defaultLogger().WithField("component", "cache")
}

// ForAPI creates a logger for the HTTP API
func ForAPI() *Logger {
	return defaultLogger().WithField("component", "api")
}

// LogError is a convenience method for logging errors with context
func LogError(component string, err error, format string, v ...interface{}) {
	defaultLogger().Error().
		Str("component", component).
		Err(err).
		Msg(fmt.Sprintf(format, v...))
}

// LogInfo is a convenience method for logging info with context
func LogInfo(component string, format string, v ...interface{}) {
	defaultLogger().Info().
		Str("component", component).
		Msg(fmt.Sprintf(format, v...))
}
