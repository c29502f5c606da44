package utils

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/awantoch/portflow/constants"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	userLogger      *log.Logger
	userWriter      io.Writer = os.Stdout
	internalLogger  *zap.SugaredLogger
	loggerMode      = "production"
	loggerModeMutex sync.RWMutex
)

type runIDKeyType struct{}

var runIDKey = runIDKeyType{}

func init() {
	userLogger = log.New(userWriter, "", 0)
	initLoggers("production")
}

func initLoggers(mode string) {
	// Internal logger: stderr, console encoding, debug gated by mode or env
	internalCfg := zap.NewProductionConfig()
	internalCfg.OutputPaths = []string{"stderr"}
	internalCfg.Encoding = "console"
	internalCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if os.Getenv(constants.EnvDebug) != "" || mode == "debug" {
		internalCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		internalCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	l, err := internalCfg.Build()
	if err != nil {
		log.Printf("Failed to initialize zap logger: %v, falling back to standard logger", err)
		internalLogger = nil
		return
	}
	internalLogger = l.Sugar()
}

// User prints user-facing output on stdout.
func User(format string, v ...any) {
	if userLogger != nil {
		userLogger.Printf(format, v...)
	}
}

func Info(format string, v ...any) {
	if internalLogger != nil {
		internalLogger.Infof(format, v...)
	}
}

func Warn(format string, v ...any) {
	if internalLogger != nil {
		internalLogger.Warnf(format, v...)
	}
}

func Error(format string, v ...any) {
	if internalLogger != nil {
		internalLogger.Errorf(format, v...)
	}
}

func Debug(format string, v ...any) {
	if internalLogger != nil {
		internalLogger.Debugf(format, v...)
	}
}

func SetUserOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	userWriter = w
	userLogger = log.New(userWriter, "", 0)
}

// SetInternalOutput redirects internal logs, always at debug level so tests can capture them.
func SetInternalOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	internalLogger = zap.New(core).Sugar()
}

// SetMode switches between "production" and "debug" logging.
func SetMode(mode string) {
	loggerModeMutex.Lock()
	defer loggerModeMutex.Unlock()
	loggerMode = mode
	initLoggers(mode)
}

func getMode() string {
	loggerModeMutex.RLock()
	defer loggerModeMutex.RUnlock()
	return loggerMode
}

// IsDebug reports whether debug logging is active.
func IsDebug() bool {
	return getMode() == "debug" || os.Getenv(constants.EnvDebug) != ""
}

// Errorf logs the error message and returns it as an error value.
func Errorf(format string, v ...any) error {
	err := fmt.Errorf(format, v...)
	if internalLogger != nil {
		internalLogger.Errorf("%s", err)
	}
	return err
}

// LoggerWriter adapts a log function to io.Writer, one call per non-blank line.
type LoggerWriter struct {
	Fn     func(string, ...any)
	Prefix string
}

func (w *LoggerWriter) Write(p []byte) (n int, err error) {
	for _, line := range strings.Split(string(p), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		w.Fn("%s%s", w.Prefix, line)
	}
	return len(p), nil
}

// WithRunID returns a new context carrying the batch run ID.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext extracts the batch run ID from context, if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(runIDKey).(string)
	return s, ok
}

func withRunID(ctx context.Context, fields []any) []any {
	if runID, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, "run_id", runID)
	}
	return fields
}

// InfoCtx logs an info message with key/value fields, including the run ID if present.
func InfoCtx(ctx context.Context, msg string, fields ...any) {
	if internalLogger != nil {
		internalLogger.Infow(msg, withRunID(ctx, fields)...)
	}
}

// WarnCtx logs a warning with key/value fields, including the run ID if present.
func WarnCtx(ctx context.Context, msg string, fields ...any) {
	if internalLogger != nil {
		internalLogger.Warnw(msg, withRunID(ctx, fields)...)
	}
}

// ErrorCtx logs an error with key/value fields, including the run ID if present.
func ErrorCtx(ctx context.Context, msg string, fields ...any) {
	if internalLogger != nil {
		internalLogger.Errorw(msg, withRunID(ctx, fields)...)
	}
}

// DebugCtx logs a debug message with key/value fields, including the run ID if present.
func DebugCtx(ctx context.Context, msg string, fields ...any) {
	if internalLogger != nil {
		internalLogger.Debugw(msg, withRunID(ctx, fields)...)
	}
}
