package signout

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

type tabIDKey struct{}

// ContextWithTabID returns a copy of ctx carrying the tab identifier.
func ContextWithTabID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, tabIDKey{}, id)
}

// TabIDFromContext returns the tab identifier stored in ctx, or "".
func TabIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(tabIDKey{}).(string)
	return id
}

// LoggerExtractor returns a ContextExtractor that logs the tab identifier.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := TabIDFromContext(ctx); id != "" {
			return logger.TabID(id), true
		}
		return slog.Attr{}, false
	}
}
