package store

import "context"

type (
	tenantKey     struct{}
	superadminKey struct{}
)

// WithTenant scopes ctx to a tenant; a transaction opened under it publishes
// the tenant as app.tenant_id for row level security
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// TenantID returns the tenant ctx is scoped to
func TenantID(ctx context.Context) (string, bool) {
	s, _ := ctx.Value(tenantKey{}).(string)
	return s, s != ""
}

// WithSuperadmin lets transactions opened under ctx bypass tenant policies
func WithSuperadmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, superadminKey{}, true)
}

// IsSuperadmin reports whether ctx bypasses tenant policies
func IsSuperadmin(ctx context.Context) bool {
	b, _ := ctx.Value(superadminKey{}).(bool)
	return b
}

// RunInTenant runs fn in one transaction scoped to tenantID
func RunInTenant(ctx context.Context, tx TxRunner, tenantID string, fn func(ctx context.Context, q RowQuerier) error) error {
	return run(WithTenant(ctx, tenantID), tx, fn)
}

// RunAsSuperadmin runs fn in one transaction that sees every tenant. Schema
// migrations use it
func RunAsSuperadmin(ctx context.Context, tx TxRunner, fn func(ctx context.Context, q RowQuerier) error) error {
	return run(WithSuperadmin(ctx), tx, fn)
}

func run(ctx context.Context, tx TxRunner, fn func(ctx context.Context, q RowQuerier) error) error {
	return tx.Tx(ctx, func(q RowQuerier) error { return fn(ctx, q) })
}
