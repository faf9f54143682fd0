package logger

import "gitlab.com/appserver.net/internal/adapter/logging"

// Logger is the process-wide logger used before configuration is loaded
var Logger = logging.NewZapLogger()

// SetLevel replaces the process-wide logger with one at the given level and returns it
func SetLevel(level string) *logging.ZapLogger {
	Logger = logging.NewZapLoggerWithLevel(level)
	return Logger
}

func Info(msg string, args ...interface{}) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...interface{}) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...interface{}) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...interface{}) {
	Logger.Warn(msg, args...)
}
