package ctxutil

import (
	"context"

	types "github.com/yungbote/casegraph-backend/internal/domain"
)

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

type traceDataKey struct{}

// TraceData correlates a request across logs and spans. CaseID is whatever
// case the request names and is never used for authorisation.
type TraceData struct {
	TraceID   string
	RequestID string
	CaseID    string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

type principalKey struct{}

// WithPrincipal attaches the authenticated caller to ctx.
func WithPrincipal(ctx context.Context, p *types.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func GetPrincipal(ctx context.Context) *types.Principal {
	if p, ok := ctx.Value(principalKey{}).(*types.Principal); ok {
		return p
	}
	return nil
}
