// Package logger provides structured, leveled logging for the scheduler and
// its CLI, built on zap. It exposes exactly the five severities a step's
// Sink needs — Debug, Info, Notice, Warning, Error — plus a richer *f family
// of convenience wrappers for ambient, non-core code.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a log severity. Unlike zapcore.Level, it includes Notice, a
// custom severity between Info and Warning that the console encoder
// displays distinctively but that zap itself treats as InfoLevel.
type Level int8

const (
	DebugLevel Level = iota - 1
	InfoLevel
	NoticeLevel
	WarningLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case NoticeLevel:
		return "notice"
	case WarningLevel:
		return "warning"
	case ErrorLevel:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", l)
	}
}

// CapitalString returns the upper-case form used by the console encoder's
// bracketed level prefix.
func (l Level) CapitalString() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case NoticeLevel:
		return "NOTICE"
	case WarningLevel:
		return "WARNING"
	case ErrorLevel:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", l)
	}
}

// ToZapLevel maps Level onto the nearest zapcore.Level. NoticeLevel has no
// zap equivalent, so it collapses to InfoLevel; the console encoder
// recovers the distinction from the "customlevel" field logWithLevel sets.
func (l Level) ToZapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel, NoticeLevel:
		return zapcore.InfoLevel
	case WarningLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sink is the narrow logging capability a step's execution context exposes.
// *Logger implements it; NopSink discards everything.
type Sink interface {
	Debug(template string, args ...interface{})
	Info(template string, args ...interface{})
	Notice(template string, args ...interface{})
	Warning(template string, args ...interface{})
	Error(template string, args ...interface{})
}

// Options configures a Logger.
type Options struct {
	ConsoleLevel    Level
	ConsoleOutput   bool
	ColorConsole    bool
	TimestampFormat string
	// ConsoleWriter is where console output is written. Defaults to
	// os.Stdout if nil. The worker subcommand overrides this to os.Stderr,
	// since its stdout is a machine channel reserved for exactly one
	// workerproc.Response envelope — any stray log line interleaved into it
	// would corrupt the coordinator's read (spec.md §5).
	ConsoleWriter io.Writer
}

// DefaultOptions returns console-only, colored, Info-and-above logging to
// stdout.
func DefaultOptions() Options {
	return Options{
		ConsoleLevel:    InfoLevel,
		ConsoleOutput:   true,
		ColorConsole:    true,
		TimestampFormat: time.RFC3339,
		ConsoleWriter:   os.Stdout,
	}
}

// Logger wraps zap.SugaredLogger with the five-level Sink contract and the
// package's colored console encoder.
type Logger struct {
	*zap.SugaredLogger
	opts Options
	mu   sync.Mutex
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Init initializes the global logger. Subsequent calls are no-ops.
func Init(opts Options) {
	once.Do(func() {
		var err error
		globalLogger, err = NewLogger(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger: init failed: %v; falling back to zap development logger\n", err)
			cfg := zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
			l, _ := cfg.Build(zap.AddCallerSkip(1))
			globalLogger = &Logger{SugaredLogger: l.Sugar(), opts: Options{ConsoleOutput: true, ConsoleLevel: InfoLevel, ColorConsole: true}}
		}
	})
}

// Get returns the global logger, initializing it with DefaultOptions if Init
// was never called.
func Get() *Logger {
	if globalLogger == nil {
		Init(DefaultOptions())
	}
	return globalLogger
}

// NewLogger builds a standalone Logger instance, independent of the global
// one. Init uses it to build the global logger, including in the worker
// subcommand, whose Options route console output to stderr.
func NewLogger(opts Options) (*Logger, error) {
	if opts.TimestampFormat == "" {
		opts.TimestampFormat = time.RFC3339
	}
	if opts.ConsoleWriter == nil {
		opts.ConsoleWriter = os.Stdout
	}

	var cores []zapcore.Core
	if opts.ConsoleOutput {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout(opts.TimestampFormat)
		cfg.TimeKey = "time"
		cfg.LevelKey = ""
		cfg.CallerKey = "caller"
		cfg.MessageKey = "msg"
		cfg.NameKey = "logger"
		cfg.StacktraceKey = "stacktrace"

		var enc zapcore.Encoder
		if opts.ColorConsole {
			enc = NewColorConsoleEncoder(cfg, opts)
		} else {
			enc = NewPlainTextConsoleEncoder(cfg, opts)
		}

		enabler := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= opts.ConsoleLevel.ToZapLevel()
		})
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(opts.ConsoleWriter)), enabler))
	}

	if len(cores) == 0 {
		return &Logger{SugaredLogger: zap.NewNop().Sugar(), opts: opts}, nil
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return &Logger{SugaredLogger: zapLogger.Sugar(), opts: opts}, nil
}

// logWithLevel routes through SugaredLogger at the nearest zap level,
// stamping the original Level as a "customlevel" field so the console
// encoder can recover NoticeLevel's distinct display.
func (l *Logger) logWithLevel(level Level, template string, args ...interface{}) {
	if l == nil || l.SugaredLogger == nil {
		fmt.Fprintf(os.Stderr, "logger: not initialized: [%s] "+template+"\n", append([]interface{}{level.CapitalString()}, args...)...)
		return
	}
	msg := fmt.Sprintf(template, args...)
	field := zap.String("customlevel", level.CapitalString())
	skipped := l.SugaredLogger.WithOptions(zap.AddCallerSkip(1))

	switch level {
	case DebugLevel:
		skipped.Debugw(msg, field)
	case InfoLevel, NoticeLevel:
		skipped.Infow(msg, field)
	case WarningLevel:
		skipped.Warnw(msg, field)
	case ErrorLevel:
		skipped.Errorw(msg, field)
	}
}

func (l *Logger) Debugf(template string, args ...interface{})   { l.logWithLevel(DebugLevel, template, args...) }
func (l *Logger) Infof(template string, args ...interface{})    { l.logWithLevel(InfoLevel, template, args...) }
func (l *Logger) Noticef(template string, args ...interface{})  { l.logWithLevel(NoticeLevel, template, args...) }
func (l *Logger) Warningf(template string, args ...interface{}) { l.logWithLevel(WarningLevel, template, args...) }
func (l *Logger) Errorf(template string, args ...interface{})   { l.logWithLevel(ErrorLevel, template, args...) }

// Sink implementation — identical signatures, distinct names, so a *Logger
// satisfies logger.Sink directly.
func (l *Logger) Debug(template string, args ...interface{})   { l.logWithLevel(DebugLevel, template, args...) }
func (l *Logger) Info(template string, args ...interface{})    { l.logWithLevel(InfoLevel, template, args...) }
func (l *Logger) Notice(template string, args ...interface{})  { l.logWithLevel(NoticeLevel, template, args...) }
func (l *Logger) Warning(template string, args ...interface{}) { l.logWithLevel(WarningLevel, template, args...) }
func (l *Logger) Error(template string, args ...interface{})   { l.logWithLevel(ErrorLevel, template, args...) }

func (l *Logger) Sync() error {
	if l == nil || l.SugaredLogger == nil {
		return nil
	}
	return l.SugaredLogger.Sync()
}

func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...), opts: l.opts}
}

// NopSink discards every call; used by tests and embedders that don't want
// console output.
type NopSink struct{}

func (NopSink) Debug(string, ...interface{})   {}
func (NopSink) Info(string, ...interface{})    {}
func (NopSink) Notice(string, ...interface{})  {}
func (NopSink) Warning(string, ...interface{}) {}
func (NopSink) Error(string, ...interface{})   {}

// Global convenience wrappers over the package-level logger.

func Debug(template string, args ...interface{})   { Get().logWithLevel(DebugLevel, template, args...) }
func Info(template string, args ...interface{})    { Get().logWithLevel(InfoLevel, template, args...) }
func Notice(template string, args ...interface{})  { Get().logWithLevel(NoticeLevel, template, args...) }
func Warning(template string, args ...interface{}) { Get().logWithLevel(WarningLevel, template, args...) }
func Error(template string, args ...interface{})   { Get().logWithLevel(ErrorLevel, template, args...) }

func SyncGlobal() error { return Get().Sync() }
