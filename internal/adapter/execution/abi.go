package execution

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// getReserveData of the Aave V3 Pool. The ReserveData struct holds only
// static types, so its tuple encoding is identical to these flat outputs.
const poolABIJSON = `[
  {
    "name": "getReserveData",
    "type": "function",
    "stateMutability": "view",
    "inputs": [{"name": "asset", "type": "address"}],
    "outputs": [
      {"name": "configuration", "type": "uint256"},
      {"name": "liquidityIndex", "type": "uint128"},
      {"name": "currentLiquidityRate", "type": "uint128"},
      {"name": "variableBorrowIndex", "type": "uint128"},
      {"name": "currentVariableBorrowRate", "type": "uint128"},
      {"name": "currentStableBorrowRate", "type": "uint128"},
      {"name": "lastUpdateTimestamp", "type": "uint40"},
      {"name": "id", "type": "uint16"},
      {"name": "aTokenAddress", "type": "address"},
      {"name": "stableDebtTokenAddress", "type": "address"},
      {"name": "variableDebtTokenAddress", "type": "address"},
      {"name": "interestRateStrategyAddress", "type": "address"},
      {"name": "accruedToTreasury", "type": "uint128"},
      {"name": "unbacked", "type": "uint128"},
      {"name": "isolationModeTotalDebt", "type": "uint128"}
    ]
  }
]`

const getReserveData = "getReserveData"

// PoolABI is the parsed lending-pool interface used to encode calls and
// decode reserve data.
var PoolABI = mustParseABI(poolABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
