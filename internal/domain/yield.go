package domain

import "github.com/ethereum/go-ethereum/common"

// ReserveKey identifies one asset reserve on one lending pool.
type ReserveKey struct {
	Pool  common.Address
	Asset common.Address
}

type ChainStatus struct {
	LatestBlockNumber uint64 `json:"latestBlockNumber"`
}

type Vault struct {
	Name   string   `json:"name"`
	Assets []string `json:"assets"`
	Risk   string   `json:"risk"`
	APY    float64  `json:"apy"`
}

const (
	SourceLive   = "live"
	SourceStatic = "static"
)

type Vaults struct {
	Items  []Vault
	Source string
}
