package internal

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

var (
	logLevel = LogLevelInfo
	atom     = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger   = newLogger(zapcore.Lock(os.Stderr))
)

func newLogger(w zapcore.WriteSyncer) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), w, atom)
	return zap.New(core).Sugar()
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	logLevel = level
	switch level {
	case LogLevelError:
		atom.SetLevel(zapcore.ErrorLevel)
	case LogLevelWarn:
		atom.SetLevel(zapcore.WarnLevel)
	case LogLevelInfo:
		atom.SetLevel(zapcore.InfoLevel)
	default:
		atom.SetLevel(zapcore.DebugLevel)
	}
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LogLevelDebug)
	} else {
		SetLogLevel(LogLevelInfo)
	}
}

// SetLogOutput redirects log output, mainly for tests
func SetLogOutput(w io.Writer) {
	logger = newLogger(zapcore.AddSync(w))
}

// SyncLogs flushes buffered log entries
func SyncLogs() {
	_ = logger.Sync()
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}
