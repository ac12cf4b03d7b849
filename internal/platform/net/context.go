// Package net holds the request scoped identities analytics requests carry:
// the request id chi assigns, the tenant the caller acts for and their user
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const (
	keyTenantID ctxKey = iota
	keyUserID
)

// WithTenant scopes ctx to tenantID; empty ids leave ctx alone
func WithTenant(ctx context.Context, tenantID string) context.Context {
	if tenantID == "" {
		return ctx
	}
	return context.WithValue(ctx, keyTenantID, tenantID)
}

// WithUser records the authenticated user; empty ids leave ctx alone
func WithUser(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, keyUserID, userID)
}

// RequestID is the id chi's RequestID middleware put on ctx
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

func TenantID(ctx context.Context) string {
	s, _ := ctx.Value(keyTenantID).(string)
	return s
}

func UserID(ctx context.Context) string {
	s, _ := ctx.Value(keyUserID).(string)
	return s
}
