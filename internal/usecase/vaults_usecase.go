package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"onchain_yield_api/internal/domain"
	"onchain_yield_api/pkg/metrics"
)

// FallbackPolicy decides what the vault listing does when the live APY
// cannot be read.
type FallbackPolicy string

const (
	// FallbackStatic serves the static catalogue and marks it as such.
	FallbackStatic FallbackPolicy = "static"
	// FallbackError returns the failure to the caller.
	FallbackError FallbackPolicy = "error"
)

func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch p := FallbackPolicy(s); p {
	case FallbackStatic, FallbackError:
		return p, nil
	}
	return "", fmt.Errorf("unknown vault fallback policy %q", s)
}

// LiveAPYVault is the catalogue entry whose APY comes from the lending pool.
const LiveAPYVault = "Stablecoin Growth"

func StaticVaults() []domain.Vault {
	return []domain.Vault{
		{Name: LiveAPYVault, Assets: []string{"USDC", "DAI"}, Risk: "Low", APY: 8.2},
		{Name: "Ethereum Yield Farm", Assets: []string{"WETH"}, Risk: "Medium", APY: 15.6},
		{Name: "BTC Optimizer", Assets: []string{"WBTC"}, Risk: "Medium", APY: 12.1},
		{Name: "High-Yield DeFi Basket", Assets: []string{"ETH", "UNI", "AAVE"}, Risk: "High", APY: 25.9},
	}
}

type apyReader interface {
	Execute(ctx context.Context) (float64, error)
}

type VaultsUseCase struct {
	apy      apyReader
	timeout  time.Duration
	fallback FallbackPolicy
	metrics  *metrics.Metrics
}

func NewVaultsUseCase(apy apyReader, timeout time.Duration, fallback FallbackPolicy, m *metrics.Metrics) *VaultsUseCase {
	return &VaultsUseCase{apy: apy, timeout: timeout, fallback: fallback, metrics: m}
}

// Execute lists the vaults with the live APY applied. The APY read is bounded
// by the use case timeout on top of whatever deadline ctx already carries.
func (uc *VaultsUseCase) Execute(ctx context.Context) (domain.Vaults, error) {
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	vaults := StaticVaults()
	apy, err := uc.apy.Execute(ctx)
	if err != nil {
		if uc.fallback != FallbackStatic {
			return domain.Vaults{}, err
		}
		zap.L().Error("serving static vault data", zap.String("fallback", string(uc.fallback)), zap.Error(err))
		uc.metrics.VaultSource(domain.SourceStatic)
		return domain.Vaults{Items: vaults, Source: domain.SourceStatic}, nil
	}

	for i := range vaults {
		if vaults[i].Name == LiveAPYVault {
			vaults[i].APY = apy
		}
	}
	uc.metrics.VaultSource(domain.SourceLive)
	return domain.Vaults{Items: vaults, Source: domain.SourceLive}, nil
}
