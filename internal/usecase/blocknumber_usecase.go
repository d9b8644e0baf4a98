package usecase

import (
	"context"

	"go.uber.org/zap"

	"onchain_yield_api/internal/domain"
	"onchain_yield_api/internal/port"
)

// BlockNumberUseCase always reads the chain head live.
type BlockNumberUseCase struct {
	client port.BlockNumberClient
}

func NewBlockNumberUseCase(client port.BlockNumberClient) *BlockNumberUseCase {
	return &BlockNumberUseCase{client: client}
}

func (uc *BlockNumberUseCase) Execute(ctx context.Context) (domain.ChainStatus, error) {
	head, err := uc.client.LatestBlockNumber(ctx)
	if err != nil {
		zap.L().Error("failed to fetch latest block number", zap.Error(err))
		return domain.ChainStatus{}, err
	}
	return domain.ChainStatus{LatestBlockNumber: head}, nil
}
