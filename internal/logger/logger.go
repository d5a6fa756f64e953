// Package logger wraps log/slog with a request-scoped logger carried in the
// context, so handlers and the order engine log with the request id attached.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

var L = New(os.Stdout, "local")

// New builds a JSON logger for production and a text logger otherwise.
func New(w io.Writer, env string) *slog.Logger {
	switch env {
	case "production", "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// Init replaces the base logger and makes it the slog default.
func Init(env string) {
	L = New(os.Stdout, env)
	slog.SetDefault(L)
}

type ctxKey struct{}

// Inject stores log in ctx.
func Inject(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromCtx returns the logger stored by Inject, or the base logger.
func FromCtx(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	return L
}
