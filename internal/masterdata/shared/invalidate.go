package shared

import (
	"context"
	"log/slog"
)

// Invalidator drops cached catalog lookups after a master data write.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Invalidate bumps the catalog version. Failures are logged; stale entries
// expire with the cache TTL.
func Invalidate(ctx context.Context, inv Invalidator, logger *slog.Logger) {
	if inv == nil {
		return
	}
	if err := inv.Bump(ctx); err != nil && logger != nil {
		logger.Warn("catalog cache bump failed", slog.Any("error", err))
	}
}
