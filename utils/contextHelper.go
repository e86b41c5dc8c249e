package utils

import (
	"context"

	"github.com/mmdatafocus/pos_sync/appctx"
)

// Alias the shared context key type so callers only import utils.
type contextKey = appctx.ContextKey

var (
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyAuthenticated = appctx.ContextKeyAuthenticated
	ContextKeyClientAddr    = appctx.ContextKeyClientAddr
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func IsAuthenticated(ctx context.Context) bool {
	v, ok := appctx.GetBool(ctx, ContextKeyAuthenticated)
	return ok && v
}

func SetAuthenticatedInContext(ctx context.Context, authenticated bool) context.Context {
	return appctx.Set(ctx, ContextKeyAuthenticated, authenticated)
}

func GetClientAddrFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyClientAddr)
}

func SetClientAddrInContext(ctx context.Context, addr string) context.Context {
	return appctx.Set(ctx, ContextKeyClientAddr, addr)
}
