package port

import "onchain_yield_api/internal/domain"

type APYCache interface {
	Add(key domain.ReserveKey, apy float64)
	Get(key domain.ReserveKey) (float64, bool)
}
