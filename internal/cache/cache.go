package cache

import (
	"context"
	"time"

	"vegstock/backend/internal/domain"
)

// ReportCache holds built fleet-wide reports for a short TTL so repeated
// dashboard refreshes do not re-scan every collection.
type ReportCache interface {
	Get(ctx context.Context, key string) (*domain.Report, bool, error)
	Set(ctx context.Context, key string, value *domain.Report, ttl time.Duration) error
}

type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string) (*domain.Report, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ *domain.Report, _ time.Duration) error {
	return nil
}
