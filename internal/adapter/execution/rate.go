package execution

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// RayDecimals is the fixed-point scale of Aave rates (1 RAY = 1e27).
const RayDecimals = 27

// RayToPercent converts a RAY rate to a percentage, (rate / 1e27) * 100.
// The division is exact; precision is only lost in the final float64.
func RayToPercent(rate *big.Int) (float64, error) {
	if rate == nil {
		return 0, fmt.Errorf("liquidity rate is nil")
	}
	if rate.Sign() < 0 {
		return 0, fmt.Errorf("negative liquidity rate %s", rate)
	}
	pct, _ := decimal.NewFromBigInt(rate, -(RayDecimals - 2)).Float64()
	return pct, nil
}
