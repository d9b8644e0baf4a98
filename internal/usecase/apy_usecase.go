package usecase

import (
	"context"

	"go.uber.org/zap"

	"onchain_yield_api/internal/domain"
	"onchain_yield_api/internal/port"
	"onchain_yield_api/pkg/metrics"
)

// APYUseCase serves the supply APY of one reserve from cache, going to the
// chain only on a miss. Failures are returned as-is and never cached.
type APYUseCase struct {
	client  port.APYClient
	cache   port.APYCache
	reserve domain.ReserveKey
	metrics *metrics.Metrics
}

func NewAPYUseCase(
	client port.APYClient,
	cache port.APYCache,
	reserve domain.ReserveKey,
	m *metrics.Metrics,
) *APYUseCase {
	return &APYUseCase{client: client, cache: cache, reserve: reserve, metrics: m}
}

func (uc *APYUseCase) Execute(ctx context.Context) (float64, error) {
	if v, ok := uc.cache.Get(uc.reserve); ok {
		uc.metrics.CacheLookup(true)
		return v, nil
	}
	uc.metrics.CacheLookup(false)

	apy, err := uc.client.SupplyAPY(ctx, uc.reserve.Pool, uc.reserve.Asset)
	if err != nil {
		zap.L().Error("failed to fetch aave apy",
			zap.Stringer("pool", uc.reserve.Pool),
			zap.Stringer("asset", uc.reserve.Asset),
			zap.Error(err))
		return 0, err
	}

	uc.cache.Add(uc.reserve, apy)
	uc.metrics.APY(apy)
	return apy, nil
}
