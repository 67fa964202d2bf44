// Package logging provides the shared progress sink. All workers and the
// scheduler write through one Logger, which serializes line emission so
// concurrent callers never interleave characters within a line.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a thread-safe line emitter backed by zap. Emitting never fails:
// write errors on the underlying sink are swallowed.
type Logger struct {
	log *zap.Logger

	mu        sync.Mutex
	debugMode bool
}

// New builds a Logger writing to w. The write syncer is wrapped in
// zapcore.Lock so one emitted line is exactly one serialized write.
func New(w io.Writer, debug bool) *Logger {
	l := &Logger{debugMode: debug}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.LevelEnablerFunc(func(level zapcore.Level) bool {
			if level == zapcore.DebugLevel {
				l.mu.Lock()
				defer l.mu.Unlock()
				return l.debugMode
			}
			return true
		}),
	)

	l.log = zap.New(core)
	return l
}

// NewStdout builds a Logger writing to standard output.
func NewStdout(debug bool) *Logger {
	return New(os.Stdout, debug)
}

// SetDebugMode toggles emission of Debug lines.
func (l *Logger) SetDebugMode(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugMode = on
}

// Infof emits one INFO line.
func (l *Logger) Infof(format string, args ...any) {
	l.log.Info(fmt.Sprintf(format, args...))
}

// Warnf emits one WARN line.
func (l *Logger) Warnf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

// Errorf emits one ERROR line.
func (l *Logger) Errorf(format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...))
}

// Debugf emits one DEBUG line when debug mode is on.
func (l *Logger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

// Sync flushes buffered lines. Failures are reported but not fatal.
func (l *Logger) Sync() {
	if err := l.log.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "logger sync: %v\n", err)
	}
}
