package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	sfaerrors "github.com/YuminosukeSato/sfasweep/pkg/errors"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
	componentKey      = "component"
)

// ParseLevel converts a --verbosity value into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, sfaerrors.NewValidationError("verbosity", "must be one of debug, info, warn, error", level)
	}
}

func toZerologLevel(l Level) zerolog.Level {
	switch {
	case l <= LevelDebug:
		return zerolog.DebugLevel
	case l <= LevelInfo:
		return zerolog.InfoLevel
	case l <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// zerologLogger adapts zerolog.Logger to the Logger interface.
// The minimum level is shared with the provider so SetLevel applies to
// loggers that were handed out earlier.
type zerologLogger struct {
	zl    zerolog.Logger
	level *atomic.Int64
}

// NewZerologLogger returns a Logger writing JSON lines to w.
func NewZerologLogger(w io.Writer, level Level) Logger {
	lv := &atomic.Int64{}
	lv.Store(int64(level))
	return &zerologLogger{
		zl:    zerolog.New(w).With().Timestamp().Logger(),
		level: lv,
	}
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	l.emit(LevelDebug, msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	l.emit(LevelInfo, msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	l.emit(LevelWarn, msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	l.emit(LevelError, msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for _, kv := range pairs(fields) {
		ctx = ctx.Interface(kv.key, fieldValue(kv.value))
	}
	return &zerologLogger{zl: ctx.Logger(), level: l.level}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return level >= Level(l.level.Load())
}

func (l *zerologLogger) emit(level Level, msg string, fields []any) {
	if !l.Enabled(context.Background(), level) {
		return
	}
	ev := l.zl.WithLevel(toZerologLevel(level))
	for _, kv := range pairs(fields) {
		err, ok := kv.value.(error)
		if !ok {
			ev = ev.Interface(kv.key, kv.value)
			continue
		}
		ev = ev.Str(kv.key, err.Error())
		var m zerolog.LogObjectMarshaler
		if errors.As(err, &m) {
			ev = ev.Object(kv.key+"_detail", m)
		}
		if st := extractStacktrace(err); st != "" {
			ev = ev.Str(StacktraceAttrKey, st)
		}
	}
	ev.Msg(msg)
}

type field struct {
	key   string
	value any
}

// pairs splits variadic fields into key/value pairs. A leading error without
// a key is logged under ErrAttrKey.
func pairs(fields []any) []field {
	var out []field
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			out = append(out, field{key: ErrAttrKey, value: err})
			fields = fields[1:]
		}
	}
	for i := 0; i+1 < len(fields); i += 2 {
		out = append(out, field{key: fmt.Sprint(fields[i]), value: fields[i+1]})
	}
	return out
}

func fieldValue(v any) any {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return v
}

// extractStacktrace renders the innermost cockroachdb stack attached to err.
func extractStacktrace(err error) string {
	if errors.GetReportableStackTrace(err) == nil {
		return ""
	}
	s := fmt.Sprintf("%+v", err)
	if i := strings.Index(s, "\n"); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return ""
}

// zerologProvider hands out named loggers sharing one writer and level.
type zerologProvider struct {
	root zerologLogger
}

// NewZerologProvider creates a LoggerProvider writing to w.
func NewZerologProvider(w io.Writer, level Level) LoggerProvider {
	return &zerologProvider{root: *NewZerologLogger(w, level).(*zerologLogger)}
}

func (p *zerologProvider) GetLogger() Logger {
	return &zerologLogger{zl: p.root.zl, level: p.root.level}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(componentKey, name)
}

func (p *zerologProvider) SetLevel(level Level) {
	p.root.level.Store(int64(level))
}

var (
	providerMu sync.RWMutex
	provider   = NewZerologProvider(os.Stderr, LevelInfo)
)

// SetProvider replaces the global provider. Tests use it to capture output.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}

// GetProvider returns the global provider.
func GetProvider() LoggerProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider
}

// GetLogger returns the default logger of the global provider.
func GetLogger() Logger {
	return GetProvider().GetLogger()
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return GetProvider().GetLoggerWithName(name)
}

// SetLevel changes the minimum level of the global provider.
func SetLevel(level Level) {
	GetProvider().SetLevel(level)
}

// SetupLogger installs a console zerolog provider on stderr at the given
// verbosity and routes pkg/errors warnings through it.
func SetupLogger(verbosity string) error {
	lv, err := ParseLevel(verbosity)
	if err != nil {
		return err
	}
	SetProvider(NewZerologProvider(zerolog.ConsoleWriter{Out: os.Stderr}, lv))
	sfaerrors.SetZerologWarnFunc(func(w error) {
		GetLoggerWithName("warnings").Warn(w.Error(), ErrAttrKey, w)
	})
	return nil
}
