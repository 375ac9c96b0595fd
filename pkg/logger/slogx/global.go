package slogx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
)

var (
	dl          atomic.Pointer[Logger]
	globalLevel slog.LevelVar
)

// NewHandler writes JSON records, or colored text for terminals when pretty
// is set, dropping records below lvl.
func NewHandler(w io.Writer, lvl slog.Leveler, pretty bool) slog.Handler {
	if pretty {
		return tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
		})
	}

	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
}

// InitGlobal installs the process logger. Each wrap is applied in order
// around the base handler, e.g. to add request-scoped attributes. Records
// written through log/slog by libraries take the same path.
func InitGlobal(
	w io.Writer,
	logLevel string,
	pretty bool,
	wraps ...func(slog.Handler) slog.Handler,
) error {
	lvl, err := ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("init global logger: %v", err)
	}
	globalLevel.Set(lvl)

	handler := NewHandler(w, &globalLevel, pretty)
	for _, wrap := range wraps {
		handler = wrap(handler)
	}

	SetDefault(New(handler))
	slog.SetDefault(slog.New(handler))

	return nil
}

// SetLevel changes the minimum level of the logger installed by InitGlobal.
func SetLevel(lvl slog.Level) {
	globalLevel.Set(lvl)
}

func SetDefault(l *Logger) {
	dl.Store(l)
}

// Default returns the process logger, falling back to slog's default
// handler until InitGlobal has run.
func Default() *Logger {
	if l := dl.Load(); l != nil {
		return l
	}

	return New(slog.Default().Handler())
}

func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Info(ctx, msg, attrs...)
}

func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Debug(ctx, msg, attrs...)
}

func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Warn(ctx, msg, attrs...)
}

func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Error(ctx, msg, attrs...)
}

func Log(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	Default().Log(ctx, level, msg, attrs...)
}
