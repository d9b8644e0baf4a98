package handler

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi"
	"go.uber.org/zap"

	"onchain_yield_api/internal/domain"
	"onchain_yield_api/internal/errors"
	"onchain_yield_api/internal/failover"
)

type blockNumberReader interface {
	Execute(ctx context.Context) (domain.ChainStatus, error)
}

type apyReader interface {
	Execute(ctx context.Context) (float64, error)
}

type vaultsReader interface {
	Execute(ctx context.Context) (domain.Vaults, error)
}

type Handler struct {
	statusUseCase blockNumberReader
	apyUseCase    apyReader
	vaultsUseCase vaultsReader
}

func NewHandler(status blockNumberReader, apy apyReader, vaults vaultsReader) *Handler {
	return &Handler{statusUseCase: status, apyUseCase: apy, vaultsUseCase: vaults}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.getStatus)
		r.Get("/apy", h.getAPY)
		r.Get("/vaults", h.getVaults)
	})
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.statusUseCase.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) getAPY(w http.ResponseWriter, r *http.Request) {
	apy, err := h.apyUseCase.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, struct {
		APY float64 `json:"apy"`
	}{APY: apy})
}

func (h *Handler) getVaults(w http.ResponseWriter, r *http.Request) {
	result, err := h.vaultsUseCase.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("X-Data-Source", result.Source)
	writeJSON(w, result.Items)
}

// toHTTPError maps core failures onto API errors. Exhaustion is checked
// first because it may wrap a per-attempt deadline.
func toHTTPError(err error) errors.HTTPError {
	var he errors.HTTPError
	switch {
	case stderrors.As(err, &he):
		return he
	case stderrors.Is(err, failover.ErrEndpointsExhausted):
		return errors.ErrUpstreamUnavailable
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.ErrRequestTimeout
	}
	return errors.ErrInternal
}

func writeError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	if he == errors.ErrInternal {
		zap.L().Error("unexpected error", zap.Error(err))
	}
	WriteErrorJSON(w, he.StatusCode(), he.Error())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to write JSON response", zap.Error(err))
	}
}

// WriteErrorJSON writes {"error": msg} with the given status.
func WriteErrorJSON(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		zap.L().Error("failed to write JSON error response", zap.Error(err))
	}
}
