package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	baseLogger = zap.NewNop()
	sugar      = baseLogger.Sugar()
)

// InitLogger initializes the loggers. Every level gets its own daily file
// under logDir; development mode also writes to stdout.
func InitLogger(logDir string, development bool) error {
	if logDir == "" {
		logDir = "logs"
	}
	// Create logs directory if it doesn't exist
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	levels := []struct {
		name    string
		enabled zap.LevelEnablerFunc
	}{
		{"debug", func(l zapcore.Level) bool { return l == zapcore.DebugLevel }},
		{"info", func(l zapcore.Level) bool { return l == zapcore.InfoLevel || l == zapcore.WarnLevel }},
		{"error", func(l zapcore.Level) bool { return l >= zapcore.ErrorLevel }},
	}

	var cores []zapcore.Core
	for _, lvl := range levels {
		f, err := os.OpenFile(
			filepath.Join(logDir, fmt.Sprintf("%s-%s.log", lvl.name, timestamp)),
			os.O_APPEND|os.O_CREATE|os.O_WRONLY,
			0644,
		)
		if err != nil {
			return fmt.Errorf("failed to open %s log file: %w", lvl.name, err)
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(f), lvl.enabled))
	}

	if development {
		console := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(console, zapcore.Lock(os.Stdout), zapcore.DebugLevel))
	}

	SetLogger(zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1)))
	return nil
}

// SetLogger replaces the process logger. Tests use it to install zaptest or observer loggers.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	baseLogger = l
	sugar = l.Sugar()
}

// Logger returns the structured logger
func Logger() *zap.Logger {
	return baseLogger
}

// SyncLogger flushes buffered log entries
func SyncLogger() {
	_ = baseLogger.Sync()
}

// LogInfo logs an informational message
func LogInfo(format string, v ...interface{}) {
	sugar.Infof(format, v...)
}

// LogWarn logs a warning message
func LogWarn(format string, v ...interface{}) {
	sugar.Warnf(format, v...)
}

// LogError logs an error message
func LogError(format string, v ...interface{}) {
	sugar.Errorf(format, v...)
}

// LogDebug logs a debug message
func LogDebug(format string, v ...interface{}) {
	sugar.Debugf(format, v...)
}

// LogRequest logs HTTP request details
func LogRequest(method, path, ip, requestID string, status int, duration time.Duration) {
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.String("ip", ip),
		zap.Int("status", status),
		zap.Duration("latency", duration),
	}
	switch {
	case status >= 500:
		baseLogger.Error("Server error", fields...)
	case status >= 400:
		baseLogger.Warn("Client error", fields...)
	default:
		baseLogger.Info("Request completed", fields...)
	}
}

// LogErrorWithStack logs an error with stack trace
func LogErrorWithStack(err error, stack []byte) {
	baseLogger.Error("Recovered panic", zap.Error(err), zap.ByteString("stack", stack))
}
