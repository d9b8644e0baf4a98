package execution

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"onchain_yield_api/internal/failover"
	"onchain_yield_api/internal/port"
)

type ExecutionClient struct {
	executor *failover.Executor
}

func NewExecutionClient(executor *failover.Executor) (*ExecutionClient, error) {
	if executor == nil {
		return nil, errors.New("execution client needs a failover executor")
	}
	return &ExecutionClient{executor: executor}, nil
}

// Dial returns a dialer that opens a new ethclient for every attempt. A nil
// httpClient uses the rpc package default.
func Dial(httpClient *http.Client) failover.Dialer {
	return func(ctx context.Context, endpoint string) (port.ChainReader, error) {
		var opts []rpc.ClientOption
		if httpClient != nil {
			opts = append(opts, rpc.WithHTTPClient(httpClient))
		}
		rpcClient, err := rpc.DialOptions(ctx, endpoint, opts...)
		if err != nil {
			return nil, err
		}
		return ethclient.NewClient(rpcClient), nil
	}
}

func (ec *ExecutionClient) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return failover.Do(ctx, ec.executor, func(ctx context.Context, conn port.ChainReader) (uint64, error) {
		return conn.BlockNumber(ctx)
	})
}

// SupplyAPY reads the reserve's currentLiquidityRate from the pool and
// returns it as a percentage. Decode and conversion errors count as a failure
// of the endpoint that produced the response.
func (ec *ExecutionClient) SupplyAPY(ctx context.Context, pool, asset common.Address) (float64, error) {
	data, err := PoolABI.Pack(getReserveData, asset)
	if err != nil {
		return 0, fmt.Errorf("pack %s: %w", getReserveData, err)
	}

	return failover.Do(ctx, ec.executor, func(ctx context.Context, conn port.ChainReader) (float64, error) {
		raw, err := conn.CallContract(ctx, ethereum.CallMsg{To: &pool, Data: data}, nil)
		if err != nil {
			return 0, err
		}
		rate, err := decodeLiquidityRate(raw)
		if err != nil {
			return 0, err
		}
		return RayToPercent(rate)
	})
}

type reserveData struct {
	Configuration               *big.Int
	LiquidityIndex              *big.Int
	CurrentLiquidityRate        *big.Int
	VariableBorrowIndex         *big.Int
	CurrentVariableBorrowRate   *big.Int
	CurrentStableBorrowRate     *big.Int
	LastUpdateTimestamp         *big.Int
	Id                          uint16
	ATokenAddress               common.Address
	StableDebtTokenAddress      common.Address
	VariableDebtTokenAddress    common.Address
	InterestRateStrategyAddress common.Address
	AccruedToTreasury           *big.Int
	Unbacked                    *big.Int
	IsolationModeTotalDebt      *big.Int
}

func decodeLiquidityRate(raw []byte) (*big.Int, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty getReserveData response, is the pool address right?")
	}
	var out reserveData
	if err := PoolABI.UnpackIntoInterface(&out, getReserveData, raw); err != nil {
		return nil, fmt.Errorf("decode reserve data: %w", err)
	}
	if out.CurrentLiquidityRate == nil {
		return nil, errors.New("reserve data has no liquidity rate")
	}
	return out.CurrentLiquidityRate, nil
}
