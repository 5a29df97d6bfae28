package ports

import (
	"context"
	"time"
)

// ReportCache stores rendered KPI reports. A miss is (nil, false, nil).
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
