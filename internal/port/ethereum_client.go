package port

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// ChainReader is a single-endpoint connection handle. *ethclient.Client
// satisfies it.
type ChainReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

type BlockNumberClient interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// APYClient returns the supply APY of a reserve as a percentage.
type APYClient interface {
	SupplyAPY(ctx context.Context, pool, asset common.Address) (float64, error)
}
