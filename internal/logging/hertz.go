package logging

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/rs/zerolog"
)

// HertzLogger routes hertz's framework logs into zerolog
type HertzLogger struct {
	logger zerolog.Logger
}

var _ hlog.FullLogger = (*HertzLogger)(nil)

// NewHertzLogger wraps logger for hlog.SetLogger
func NewHertzLogger(logger zerolog.Logger) *HertzLogger {
	return &HertzLogger{logger: logger.With().Str("component", "hertz").Logger()}
}

func (h *HertzLogger) emit(logger *zerolog.Logger, level zerolog.Level, msg string) {
	logger.WithLevel(level).Msg(msg)
}

func (h *HertzLogger) Trace(v ...interface{}) { h.emit(&h.logger, zerolog.TraceLevel, sprint(v...)) }
func (h *HertzLogger) Debug(v ...interface{}) { h.emit(&h.logger, zerolog.DebugLevel, sprint(v...)) }
func (h *HertzLogger) Info(v ...interface{})  { h.emit(&h.logger, zerolog.InfoLevel, sprint(v...)) }
func (h *HertzLogger) Notice(v ...interface{}) {
	h.emit(&h.logger, zerolog.InfoLevel, sprint(v...))
}
func (h *HertzLogger) Warn(v ...interface{})  { h.emit(&h.logger, zerolog.WarnLevel, sprint(v...)) }
func (h *HertzLogger) Error(v ...interface{}) { h.emit(&h.logger, zerolog.ErrorLevel, sprint(v...)) }

// Fatal is logged as an error; the relay decides itself when to exit.
func (h *HertzLogger) Fatal(v ...interface{}) { h.emit(&h.logger, zerolog.ErrorLevel, sprint(v...)) }

func (h *HertzLogger) Tracef(format string, v ...interface{}) {
	h.emit(&h.logger, zerolog.TraceLevel, fmt.Sprintf(format, v...))
}

func (h *HertzLogger) Debugf(format string, v ...interface{}) {
	h.emit(&h.logger, zerolog.DebugLevel, fmt.Sprintf(format, v...))
}

func (h *HertzLogger) Infof(format string, v ...interface{}) {
	h.emit(&h.logger, zerolog.InfoLevel, fmt.Sprintf(format, v...))
}

func (h *HertzLogger) Noticef(format string, v ...interface{}) {
	h.emit(&h.logger, zerolog.InfoLevel, fmt.Sprintf(format, v...))
}

func (h *HertzLogger) Warnf(format string, v ...interface{}) {
	h.emit(&h.logger, zerolog.WarnLevel, fmt.Sprintf(format, v...))
}

func (h *HertzLogger) Errorf(format string, v ...interface{}) {
	h.emit(&h.logger, zerolog.ErrorLevel, fmt.Sprintf(format, v...))
}

func (h *HertzLogger) Fatalf(format string, v ...interface{}) {
	h.emit(&h.logger, zerolog.ErrorLevel, fmt.Sprintf(format, v...))
}

func (h *HertzLogger) CtxTracef(ctx context.Context, format string, v ...interface{}) {
	h.emit(h.ctxLogger(ctx), zerolog.TraceLevel, fmt.Sprintf(format, v...))
}

func (h *HertzLogger) CtxDebugf(ctx context.Context, format string, v ...interface{}) {
	h.emit(h.ctxLogger(ctx), zerolog.DebugLevel, fmt.Sprintf(format, v...))
}

func (h *HertzLogger) CtxInfof(ctx context.Context, format string, v ...interface{}) {
	h.emit(h.ctxLogger(ctx), zerolog.InfoLevel, fmt.Sprintf(format, v...))
}

func (h *HertzLogger) CtxNoticef(ctx context.Context, format string, v ...interface{}) {
	h.emit(h.ctxLogger(ctx), zerolog.InfoLevel, fmt.Sprintf(format, v...))
}

func (h *HertzLogger) CtxWarnf(ctx context.Context, format string, v ...interface{}) {
	h.emit(h.ctxLogger(ctx), zerolog.WarnLevel, fmt.Sprintf(format, v...))
}

func (h *HertzLogger) CtxErrorf(ctx context.Context, format string, v ...interface{}) {
	h.emit(h.ctxLogger(ctx), zerolog.ErrorLevel, fmt.Sprintf(format, v...))
}

func (h *HertzLogger) CtxFatalf(ctx context.Context, format string, v ...interface{}) {
	h.emit(h.ctxLogger(ctx), zerolog.ErrorLevel, fmt.Sprintf(format, v...))
}

// ctxLogger prefers the request logger so request ids carry over
func (h *HertzLogger) ctxLogger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &h.logger
}

// SetLevel maps hertz levels onto the wrapped logger
func (h *HertzLogger) SetLevel(level hlog.Level) {
	h.logger = h.logger.Level(hertzLevel(level))
}

// SetOutput replaces the destination, keeping the fields
func (h *HertzLogger) SetOutput(w io.Writer) {
	h.logger = h.logger.Output(w)
}

func hertzLevel(level hlog.Level) zerolog.Level {
	switch level {
	case hlog.LevelTrace:
		return zerolog.TraceLevel
	case hlog.LevelDebug:
		return zerolog.DebugLevel
	case hlog.LevelInfo, hlog.LevelNotice:
		return zerolog.InfoLevel
	case hlog.LevelWarn:
		return zerolog.WarnLevel
	case hlog.LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.FatalLevel
	}
}

func sprint(v ...interface{}) string {
	if len(v) == 1 {
		if s, ok := v[0].(string); ok {
			return s
		}
	}
	return fmt.Sprint(v...)
}
