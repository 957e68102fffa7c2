package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
)

// NewRouter wires every endpoint of the service onto one mux. The caller
// mounts /metrics separately so the prometheus handler stays optional.
func NewRouter(registryHandler *RegistryHandler, paymentHandler *PaymentHandler, status *StatusHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", status.Healthz)
	mux.HandleFunc("GET /status", status.Status)

	mux.HandleFunc("POST /providers", registryHandler.Register)
	mux.HandleFunc("DELETE /providers", registryHandler.Unregister)
	mux.HandleFunc("GET /providers", registryHandler.ListProviders)
	mux.HandleFunc("GET /providers/{key}", registryHandler.GetProvider)
	mux.HandleFunc("POST /providers/{key}/pause", registryHandler.PauseByOwner)
	mux.HandleFunc("POST /providers/{key}/unpause", registryHandler.UnpauseByOwner)
	mux.HandleFunc("POST /providers/{key}/admin-pause", registryHandler.PauseByAdmin)
	mux.HandleFunc("POST /providers/{key}/admin-unpause", registryHandler.UnpauseByAdmin)
	mux.HandleFunc("GET /providers/{key}/rate", registryHandler.GetExpectedRate)
	mux.HandleFunc("GET /rates", registryHandler.GetExpectedRates)
	mux.HandleFunc("GET /rates/range", registryHandler.GetExpectedRateRange)

	mux.HandleFunc("POST /payments/tokens", paymentHandler.TransferWithTokens)
	mux.HandleFunc("POST /payments/native", paymentHandler.TransferWithEthers)

	return mux
}

// StatusHandler serves liveness plus a small operational summary.
type StatusHandler struct {
	env    string
	policy domain.PolicyStore
}

func NewStatusHandler(env string, policy domain.PolicyStore) *StatusHandler {
	return &StatusHandler{env: env, policy: policy}
}

func (h *StatusHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type statusResponse struct {
	Env            string `json:"env"`
	PlatformPaused bool   `json:"platform_paused"`
	PlatformFeeBps uint64 `json:"platform_fee_bps"`
}

func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paused, pausedErr := h.policy.GetBool(ctx, domain.PlatformPausedKey())
	feeBps, feeErr := h.policy.GetUint(ctx, domain.PlatformFeeBpsKey())
	if pausedErr != nil || feeErr != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to read platform policy")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statusResponse{
		Env:            h.env,
		PlatformPaused: paused,
		PlatformFeeBps: feeBps,
	})
}
