package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/registros/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx so service
// logs for mutations can name the caller.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithClientIP(ctx, clientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
