package handler

import (
	"context"

	"wopiproxy/internal/model"
)

func contextWithTenant(ctx context.Context, t *model.Tenant) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, t)
}

func tenantFromContext(ctx context.Context) *model.Tenant {
	t, _ := ctx.Value(tenantContextKey{}).(*model.Tenant)
	return t
}
