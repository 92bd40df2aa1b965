package core

import (
	"context"
	"log/slog"

	"github.com/JonMunkholm/registros/internal/logging"
)

type contextKey string

const (
	ctxKeyClientIP  contextKey = "client_ip"
	ctxKeyUserAgent contextKey = "user_agent"
)

// ContextWithClientIP adds the caller's IP to ctx for mutation logs.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyClientIP, ip)
}

// ContextWithUserAgent adds the caller's User-Agent to ctx.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// ClientIPFromContext returns the IP stored by ContextWithClientIP, or "".
func ClientIPFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyClientIP).(string); ok {
		return v
	}
	return ""
}

// UserAgentFromContext returns the User-Agent stored by ContextWithUserAgent, or "".
func UserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}

// callerLogger is the request logger for mutations, tagged with the client
// IP and User-Agent stored on ctx.
func callerLogger(ctx context.Context, args ...any) *slog.Logger {
	args = append(args, "ip", ClientIPFromContext(ctx), "user_agent", UserAgentFromContext(ctx))
	return logging.WithFields(ctx, args...)
}
