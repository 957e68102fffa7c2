package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
	"github.com/LavaJover/shvark-swap-service/internal/usecase/payment"
)

type PaymentHandler struct {
	payments payment.PaymentUsecase
}

func NewPaymentHandler(payments payment.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type paymentRequest struct {
	ProviderKey       string `json:"provider_key"`
	SourceAsset       string `json:"source_asset"`
	TargetAsset       string `json:"target_asset"`
	SourceAmount      uint64 `json:"source_amount"`
	TargetAmount      uint64 `json:"target_amount"`
	MinRate           uint64 `json:"min_rate"`
	MaxRate           uint64 `json:"max_rate"`
	FromAddress       string `json:"from_address"`
	ToAddress         string `json:"to_address"`
	PostActionAddress string `json:"post_action_address,omitempty"`
	Data              []byte `json:"data,omitempty"`

	// Value is the attached native amount, native path only.
	Value uint64 `json:"value,omitempty"`
}

func (r paymentRequest) order() *domain.Order {
	return &domain.Order{
		SourceAsset:       r.SourceAsset,
		TargetAsset:       r.TargetAsset,
		SourceAmount:      r.SourceAmount,
		TargetAmount:      r.TargetAmount,
		MinRate:           r.MinRate,
		MaxRate:           r.MaxRate,
		FromAddress:       r.FromAddress,
		ToAddress:         r.ToAddress,
		PostActionAddress: r.PostActionAddress,
		Data:              r.Data,
	}
}

type paymentResponse struct {
	PaymentID string `json:"payment_id"`
	FeeAmount uint64 `json:"fee_amount"`
	NetAmount uint64 `json:"net_amount"`
	Leftover  uint64 `json:"leftover"`
	FastPath  bool   `json:"fast_path"`
}

func (h *PaymentHandler) TransferWithTokens(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "invalid request body")
		return
	}

	result, err := h.payments.TransferWithTokens(r.Context(), callerAddress(r), req.order(), req.ProviderKey)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	writePaymentResult(w, result)
}

func (h *PaymentHandler) TransferWithEthers(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "invalid request body")
		return
	}

	result, err := h.payments.TransferWithEthers(r.Context(), callerAddress(r), req.order(), req.ProviderKey, req.Value)
	if err != nil {
		writeUsecaseError(w, err)
		return
	}
	writePaymentResult(w, result)
}

func writePaymentResult(w http.ResponseWriter, result *payment.PaymentResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(paymentResponse{
		PaymentID: result.PaymentID,
		FeeAmount: result.FeeAmount,
		NetAmount: result.NetAmount,
		Leftover:  result.Leftover,
		FastPath:  result.FastPath,
	})
}
