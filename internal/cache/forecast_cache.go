package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/autoforecast/backend-go/internal/config"
	"github.com/andresuchdata/autoforecast/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const forecastReportKeyPrefix = "forecast:report"

// ForecastCache memoizes per-product forecast reports by input fingerprint.
type ForecastCache interface {
	GetReport(ctx context.Context, asin, fingerprint string) (*domain.ForecastReport, bool, error)
	SetReport(ctx context.Context, asin, fingerprint string, report *domain.ForecastReport) error
	InvalidateProduct(ctx context.Context, asin string) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{
		client: client,
		ttl:    ttlOrDefault(cfg.ForecastTTLSeconds),
	}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetReport(ctx context.Context, asin, fingerprint string) (*domain.ForecastReport, bool, error) {
	var report domain.ForecastReport
	ok, err := getJSON(ctx, c.client, reportKey(asin, fingerprint), &report)
	if err != nil || !ok {
		return nil, false, err
	}
	return &report, true, nil
}

func (c *redisForecastCache) SetReport(ctx context.Context, asin, fingerprint string, report *domain.ForecastReport) error {
	return setJSON(ctx, c.client, reportKey(asin, fingerprint), report, c.ttl)
}

func (c *redisForecastCache) InvalidateProduct(ctx context.Context, asin string) error {
	return deleteKeysWithPrefix(ctx, c.client, reportKeyPrefix(asin), scanBatchSize)
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastReportKeyPrefix+":", scanBatchSize)
}

func (n *noopForecastCache) GetReport(ctx context.Context, asin, fingerprint string) (*domain.ForecastReport, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetReport(ctx context.Context, asin, fingerprint string, report *domain.ForecastReport) error {
	return nil
}

func (n *noopForecastCache) InvalidateProduct(ctx context.Context, asin string) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func reportKeyPrefix(asin string) string {
	return fmt.Sprintf("%s:%s:", forecastReportKeyPrefix, asin)
}

func reportKey(asin, fingerprint string) string {
	return reportKeyPrefix(asin) + fingerprint
}
