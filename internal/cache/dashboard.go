package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/autoforecast/backend-go/internal/config"
	"github.com/andresuchdata/autoforecast/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const dashboardSummaryKeyPrefix = "dashboard:summary"

type DashboardSummaryCache interface {
	GetSummary(ctx context.Context, asOfWeek int, settingsFingerprint string) (*domain.DashboardSummary, bool, error)
	SetSummary(ctx context.Context, asOfWeek int, settingsFingerprint string, summary *domain.DashboardSummary) error
	InvalidateAll(ctx context.Context) error
}

type redisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDashboardCache struct{}

func NewDashboardCache(cfg config.CacheConfig) (DashboardSummaryCache, error) {
	if !cfg.Enabled {
		return &noopDashboardCache{}, nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisDashboardCache{
		client: client,
		ttl:    ttlOrDefault(cfg.DashboardTTLSeconds),
	}, nil
}

func NewNoopDashboardCache() DashboardSummaryCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) GetSummary(ctx context.Context, asOfWeek int, settingsFingerprint string) (*domain.DashboardSummary, bool, error) {
	var summary domain.DashboardSummary
	ok, err := getJSON(ctx, c.client, dashboardKey(asOfWeek, settingsFingerprint), &summary)
	if err != nil || !ok {
		return nil, false, err
	}
	return &summary, true, nil
}

func (c *redisDashboardCache) SetSummary(ctx context.Context, asOfWeek int, settingsFingerprint string, summary *domain.DashboardSummary) error {
	return setJSON(ctx, c.client, dashboardKey(asOfWeek, settingsFingerprint), summary, c.ttl)
}

func (c *redisDashboardCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, dashboardSummaryKeyPrefix, scanBatchSize)
}

func (n *noopDashboardCache) GetSummary(ctx context.Context, asOfWeek int, settingsFingerprint string) (*domain.DashboardSummary, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) SetSummary(ctx context.Context, asOfWeek int, settingsFingerprint string, summary *domain.DashboardSummary) error {
	return nil
}

func (n *noopDashboardCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func dashboardKey(asOfWeek int, settingsFingerprint string) string {
	return fmt.Sprintf("%s:%d:%s", dashboardSummaryKeyPrefix, asOfWeek, settingsFingerprint)
}
