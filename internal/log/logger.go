package log

import (
	"context"
	stderrors "errors"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/felixgeelhaar/complyscan/internal/errors"
)

// Logger provides structured key/value logging on top of zap
type Logger struct {
	sugar  *zap.SugaredLogger
	config Config
}

// New creates a new Logger with the given configuration
func New(config Config) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch config.Format {
	case FormatText:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(config.Output.Writer()), config.Level.zapLevel())

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if config.AddSource {
		opts = append(opts, zap.AddCaller())
	}

	base := zap.New(core, opts...)
	if config.ServiceName != "" {
		base = base.With(zap.String("service", config.ServiceName))
	}

	return &Logger{
		sugar:  base.Sugar(),
		config: config,
	}
}

// Default creates a logger with default configuration
func Default() *Logger {
	return New(DefaultConfig())
}

// Development creates a logger with development configuration
func Development() *Logger {
	return New(DevelopmentConfig())
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), config: DefaultConfig()}
}

// With returns a new Logger with the given key/value pairs added to all log entries
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		sugar:  l.sugar.With(args...),
		config: l.config,
	}
}

// Named returns a new Logger whose entries carry the given logger name
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		sugar:  l.sugar.Named(name),
		config: l.config,
	}
}

// WithError adds error details to the logger.
// Coded errors contribute error_code, suggestions and cause.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}

	var coded *errors.Error
	if stderrors.As(err, &coded) {
		args := []any{
			"error", coded.Message,
			"error_code", string(coded.Code),
		}

		if len(coded.Suggestions) > 0 {
			args = append(args, "suggestions", coded.Suggestions)
		}

		if coded.Cause != nil {
			args = append(args, "cause", coded.Cause.Error())
		}

		return l.With(args...)
	}

	return l.With("error", err.Error())
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

// LogError logs an error with full details
func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}

	var coded *errors.Error
	if stderrors.As(err, &coded) {
		args := []any{
			"error_code", string(coded.Code),
			"error_message", coded.Message,
		}

		if len(coded.Suggestions) > 0 {
			args = append(args, "suggestions", coded.Suggestions)
		}

		if coded.DocsURL != "" {
			args = append(args, "docs_url", coded.DocsURL)
		}

		if coded.Cause != nil {
			args = append(args, "cause", coded.Cause.Error())
		}

		l.Error("operation failed", args...)
		return
	}

	l.Error("operation failed", "error", err.Error())
}

// Enabled returns whether the logger is enabled for the given level
func (l *Logger) Enabled(_ context.Context, level Level) bool {
	return l.sugar.Desugar().Core().Enabled(level.zapLevel())
}

// Sync flushes any buffered entries
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// Config returns the logger configuration
func (l *Logger) Config() Config {
	return l.config
}
