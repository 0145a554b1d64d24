// Package logging provides logging functionality.
package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"

	"github.com/fatih/color"
)

// New returns the application logger. In production it logs with the
// standard slog text handler; everywhere else it uses a colorized handler
// that is easier to read during development.
func New(out io.Writer, production bool) *slog.Logger {
	if production {
		return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return slog.New(NewColorHandler(out, slog.LevelDebug))
}

// ErrAttr creates an attribute with the key "err" and the given error value.
func ErrAttr(err error) slog.Attr {
	return slog.Any("err", err)
}

// ColorHandler is a slog.Handler that prints colorized, human-readable log
// lines. It is intended for development only.
type ColorHandler struct {
	l     *log.Logger
	level slog.Level
	attrs []slog.Attr
}

// NewColorHandler creates a ColorHandler writing to out at the given level.
func NewColorHandler(out io.Writer, level slog.Level) *ColorHandler {
	return &ColorHandler{
		l:     log.New(out, "", 0),
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *ColorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats and prints the record.
func (h *ColorHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"

	switch r.Level {
	case slog.LevelDebug:
		level = color.MagentaString(level)
	case slog.LevelInfo:
		level = color.HiBlueString(level)
	case slog.LevelWarn:
		level = color.YellowString(level)
	case slog.LevelError:
		level = color.RedString(level)
	}

	attrsStr := ""
	for _, a := range h.attrs {
		attrsStr += color.GreenString(a.Key) + "=" + fmt.Sprint(a.Value.Any()) + " "
	}
	r.Attrs(func(a slog.Attr) bool {
		attrsStr += color.GreenString(a.Key) + "=" + fmt.Sprint(a.Value.Any()) + " "

		return true
	})

	h.l.Println(
		r.Time.Format("15:04:05.000"),
		level,
		r.Message,
		attrsStr,
	)

	return nil
}

// WithAttrs returns a handler that includes the given attributes on every record.
func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ColorHandler{
		l:     h.l,
		level: h.level,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

// WithGroup is a no-op for this handler; groups are flattened.
func (h *ColorHandler) WithGroup(_ string) slog.Handler {
	return h
}
