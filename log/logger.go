// Package log provides structured logging for transfer paths.
//
// The codec packages stay log-free; logging belongs to the storage and
// CLI layers. Entries are JSON on stderr so rendered command output on
// stdout stays parseable.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured logging with transfer context.
// Every entry carries the backend and bucket the client was built
// against; per-transfer entries add transfer_id via WithTransfer.
type Logger struct {
	zap *zap.Logger
}

// NewLogger creates a logger carrying backend and bucket context.
// Output goes to os.Stderr.
func NewLogger(backend, bucket string) *Logger {
	return newLoggerWithWriter(backend, bucket, os.Stderr)
}

// WithTransfer returns a child logger scoped to a single transfer.
// Every entry from the child carries the transfer_id field.
func (l *Logger) WithTransfer(transferID string) *Logger {
	return &Logger{zap: l.zap.With(zap.String("transfer_id", transferID))}
}

// WithOutput returns a new logger with a different output writer.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:     "timestamp",
			LevelKey:    "level",
			MessageKey:  "message",
			EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
			EncodeLevel: zapcore.LowercaseLevelEncoder,
		}),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return &Logger{zap: l.zap.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))}
}

func newLoggerWithWriter(backend, bucket string, w io.Writer) *Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:     "timestamp",
			LevelKey:    "level",
			MessageKey:  "message",
			EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
			EncodeLevel: zapcore.LowercaseLevelEncoder,
		}),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)

	contextFields := []zap.Field{
		zap.String("backend", backend),
	}
	if bucket != "" {
		contextFields = append(contextFields, zap.String("bucket", bucket))
	}

	return &Logger{zap: zap.New(core).With(contextFields...)}
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields map[string]any) {
	l.zap.Debug(message, zap.Any("fields", fields))
}

// Info logs an info message.
func (l *Logger) Info(message string, fields map[string]any) {
	l.zap.Info(message, zap.Any("fields", fields))
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields map[string]any) {
	l.zap.Warn(message, zap.Any("fields", fields))
}

// Error logs an error message.
func (l *Logger) Error(message string, fields map[string]any) {
	l.zap.Error(message, zap.Any("fields", fields))
}
