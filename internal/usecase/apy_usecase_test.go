package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"onchain_yield_api/internal/adapter/execution"
	"onchain_yield_api/internal/domain"
	"onchain_yield_api/internal/usecase"
)

var reserve = domain.ReserveKey{
	Pool:  common.HexToAddress("0x794a61358D6845594F94dc1DB02A252b5b4814aD"),
	Asset: common.HexToAddress("0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"),
}

type countingAPYClient struct {
	calls atomic.Int32
	apy   float64
	err   error
}

func (c *countingAPYClient) SupplyAPY(ctx context.Context, pool, asset common.Address) (float64, error) {
	c.calls.Add(1)
	return c.apy, c.err
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newCache(t *testing.T, clock *fakeClock) *execution.APYCache {
	t.Helper()
	c, err := execution.NewAPYCacheWithClock(4, 60*time.Second, clock.Now)
	require.NoError(t, err)
	return c
}

func TestAPYUseCase_CachedWithinWindow(t *testing.T) {
	zap.ReplaceGlobals(zap.NewNop())
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	client := &countingAPYClient{apy: 4.23}
	uc := usecase.NewAPYUseCase(client, newCache(t, clock), reserve, nil)

	first, err := uc.Execute(context.Background())
	require.NoError(t, err)

	client.apy = 9.99
	clock.Advance(59 * time.Second)
	second, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4.23, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), client.calls.Load())
}

func TestAPYUseCase_RefetchesAfterWindow(t *testing.T) {
	zap.ReplaceGlobals(zap.NewNop())
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	client := &countingAPYClient{apy: 4.23}
	uc := usecase.NewAPYUseCase(client, newCache(t, clock), reserve, nil)

	_, err := uc.Execute(context.Background())
	require.NoError(t, err)

	client.apy = 5.5
	clock.Advance(61 * time.Second)
	got, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5.5, got)
	assert.Equal(t, int32(2), client.calls.Load())

	// and the refreshed value is cached again
	_, _ = uc.Execute(context.Background())
	assert.Equal(t, int32(2), client.calls.Load())
}

func TestAPYUseCase_ErrorIsPropagatedAndNotCached(t *testing.T) {
	zap.ReplaceGlobals(zap.NewNop())
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	boom := errors.New("all rpc endpoints failed")
	client := &countingAPYClient{err: boom}
	cache := newCache(t, clock)
	uc := usecase.NewAPYUseCase(client, cache, reserve, nil)

	_, err := uc.Execute(context.Background())
	require.ErrorIs(t, err, boom)

	_, found := cache.Get(reserve)
	assert.False(t, found, "a failed fetch must not populate the cache")

	_, err = uc.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), client.calls.Load())
}

func TestAPYUseCase_StaleEntryIsNotServedOnError(t *testing.T) {
	zap.ReplaceGlobals(zap.NewNop())
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	client := &countingAPYClient{apy: 4.23}
	uc := usecase.NewAPYUseCase(client, newCache(t, clock), reserve, nil)

	_, err := uc.Execute(context.Background())
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	client.err = errors.New("rpc down")
	_, err = uc.Execute(context.Background())
	assert.Error(t, err)
}

func TestAPYUseCase_ConcurrentMisses(t *testing.T) {
	zap.ReplaceGlobals(zap.NewNop())
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	client := &countingAPYClient{apy: 4.23}
	uc := usecase.NewAPYUseCase(client, newCache(t, clock), reserve, nil)

	const callers = 16
	var wg sync.WaitGroup
	results := make([]float64, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = uc.Execute(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 4.23, results[i])
	}
	calls := client.calls.Load()
	assert.GreaterOrEqual(t, calls, int32(1))
	assert.LessOrEqual(t, calls, int32(callers))
}
