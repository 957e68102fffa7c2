package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/LavaJover/shvark-swap-service/internal/usecase/registry"
)

type RegistryHandler struct {
	registry registry.ProviderRegistry
}

func NewRegistryHandler(providerRegistry registry.ProviderRegistry) *RegistryHandler {
	return &RegistryHandler{registry: providerRegistry}
}

type registerProviderRequest struct {
	Key     string `json:"key"`
	Address string `json:"address"`
}

type providerResponse struct {
	Key           string    `json:"key"`
	Address       string    `json:"address"`
	OwnerAddress  string    `json:"owner_address"`
	CreatedAt     time.Time `json:"created_at"`
	PausedByOwner bool      `json:"paused_by_owner"`
	PausedByAdmin bool      `json:"paused_by_admin"`
	Valid         bool      `json:"valid"`
}

func (h *RegistryHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerProviderRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "invalid request body")
		return
	}

	if err := h.registry.RegisterProvider(r.Context(), callerAddress(r), req.Key, req.Address); err != nil {
		writeUsecaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *RegistryHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	var req registerProviderRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "invalid request body")
		return
	}

	if err := h.registry.UnregisterProvider(r.Context(), callerAddress(r), req.Key, req.Address); err != nil {
		writeUsecaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RegistryHandler) PauseByOwner(w http.ResponseWriter, r *http.Request) {
	h.pause(w, r, h.registry.PauseByOwner)
}

func (h *RegistryHandler) UnpauseByOwner(w http.ResponseWriter, r *http.Request) {
	h.pause(w, r, h.registry.UnpauseByOwner)
}

func (h *RegistryHandler) PauseByAdmin(w http.ResponseWriter, r *http.Request) {
	h.pause(w, r, h.registry.PauseByAdmin)
}

func (h *RegistryHandler) UnpauseByAdmin(w http.ResponseWriter, r *http.Request) {
	h.pause(w, r, h.registry.UnpauseByAdmin)
}

func (h *RegistryHandler) pause(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, caller, key string) error) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing_key", "provider key is required")
		return
	}

	if err := op(r.Context(), callerAddress(r), key); err != nil {
		writeUsecaseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RegistryHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	record, err := h.registry.GetProvider(r.Context(), key)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(providerResponse{
		Key:           record.Key,
		Address:       record.Address,
		OwnerAddress:  record.OwnerAddress,
		CreatedAt:     record.CreatedAt,
		PausedByOwner: record.PausedByOwner,
		PausedByAdmin: record.PausedByAdmin,
		Valid:         record.IsValid(),
	})
}

func (h *RegistryHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	records, err := h.registry.ListProviders(r.Context())
	if err != nil {
		writeUsecaseError(w, err)
		return
	}

	resp := make([]providerResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, providerResponse{
			Key:           record.Key,
			Address:       record.Address,
			OwnerAddress:  record.OwnerAddress,
			CreatedAt:     record.CreatedAt,
			PausedByOwner: record.PausedByOwner,
			PausedByAdmin: record.PausedByAdmin,
			Valid:         record.IsValid(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type rateResponse struct {
	ProviderKey string `json:"provider_key,omitempty"`
	MinRate     uint64 `json:"min_rate"`
	MaxRate     uint64 `json:"max_rate"`
	Exists      bool   `json:"exists"`
}

func rateQuery(r *http.Request) (source, target string, amount uint64, ok bool) {
	source = r.URL.Query().Get("source")
	target = r.URL.Query().Get("target")
	amount, err := strconv.ParseUint(r.URL.Query().Get("amount"), 10, 64)
	if source == "" || target == "" || err != nil {
		return "", "", 0, false
	}
	return source, target, amount, true
}

func (h *RegistryHandler) GetExpectedRate(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	source, target, amount, ok := rateQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_rate_query", "source, target and amount are required")
		return
	}

	supported, minRate, maxRate, err := h.registry.GetExpectedRate(r.Context(), key, source, target, amount)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rateResponse{
		ProviderKey: key,
		MinRate:     minRate,
		MaxRate:     maxRate,
		Exists:      supported,
	})
}

func (h *RegistryHandler) GetExpectedRates(w http.ResponseWriter, r *http.Request) {
	source, target, amount, ok := rateQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_rate_query", "source, target and amount are required")
		return
	}

	rates, total, err := h.registry.GetExpectedRates(r.Context(), source, target, amount)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}

	resp := make([]rateResponse, 0, total)
	for rate := range rates {
		resp = append(resp, rateResponse{
			ProviderKey: rate.ProviderKey,
			MinRate:     rate.MinRate,
			MaxRate:     rate.MaxRate,
			Exists:      rate.Exists,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *RegistryHandler) GetExpectedRateRange(w http.ResponseWriter, r *http.Request) {
	source, target, amount, ok := rateQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_rate_query", "source, target and amount are required")
		return
	}

	minRate, maxRate, err := h.registry.GetExpectedRateRange(r.Context(), source, target, amount)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rateResponse{MinRate: minRate, MaxRate: maxRate, Exists: true})
}
