package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
)

// HTTPSwapProvider is a swap provider whose pricing and swap decisions
// live behind a remote HTTP API while settlement happens on the local
// ledger. The remote side decides whether a pair is supported and at
// what rate; this adapter executes the resulting ledger movements from
// the provider's settlement address.
type HTTPSwapProvider struct {
	address string
	baseURL string
	client  *http.Client
}

func NewHTTPSwapProvider(address, baseURL string) *HTTPSwapProvider {
	return &HTTPSwapProvider{
		address: address,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (p *HTTPSwapProvider) Address() string {
	return p.address
}

type quoteResponse struct {
	Supported bool   `json:"supported"`
	MinRate   uint64 `json:"min_rate"`
	MaxRate   uint64 `json:"max_rate"`
}

func (p *HTTPSwapProvider) Quote(ctx context.Context, sourceAsset, targetAsset string, amount uint64) (bool, uint64, uint64, error) {
	url := fmt.Sprintf("%s/quote?source=%s&target=%s&amount=%d", p.baseURL, sourceAsset, targetAsset, amount)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return false, 0, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false, 0, 0, fmt.Errorf("failed to get quote from provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, 0, 0, fmt.Errorf("provider quote API returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, 0, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	var quote quoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return false, 0, 0, fmt.Errorf("failed to parse quote response: %w", err)
	}

	return quote.Supported, quote.MinRate, quote.MaxRate, nil
}

type swapRequest struct {
	SourceAsset  string `json:"source_asset"`
	TargetAsset  string `json:"target_asset"`
	SourceAmount uint64 `json:"source_amount"`
	TargetAmount uint64 `json:"target_amount"`
	MinRate      uint64 `json:"min_rate"`
	MaxRate      uint64 `json:"max_rate"`
	Native       bool   `json:"native"`
	Value        uint64 `json:"value,omitempty"`
}

type swapDecision struct {
	Accepted     bool   `json:"accepted"`
	TargetAmount uint64 `json:"target_amount"`
	SourceRefund uint64 `json:"source_refund"`
	SourceSpend  uint64 `json:"source_spend"`
}

// Swap asks the remote side to price the order, then settles on the
// ledger: target delivery to the beneficiary plus any source refund.
// A declined order moves nothing and reports ok=false.
func (p *HTTPSwapProvider) Swap(ctx context.Context, ledger domain.Ledger, order *domain.Order, beneficiary string) (bool, error) {
	decision, err := p.decide(ctx, swapRequest{
		SourceAsset:  order.SourceAsset,
		TargetAsset:  order.TargetAsset,
		SourceAmount: order.SourceAmount,
		TargetAmount: order.TargetAmount,
		MinRate:      order.MinRate,
		MaxRate:      order.MaxRate,
	})
	if err != nil {
		return false, err
	}
	if !decision.Accepted {
		return false, nil
	}

	if decision.SourceRefund > 0 {
		if err := ledger.Transfer(ctx, order.SourceAsset, p.address, beneficiary, decision.SourceRefund); err != nil {
			return false, fmt.Errorf("refunding source leftover: %w", err)
		}
	}
	if err := ledger.Transfer(ctx, order.TargetAsset, p.address, beneficiary, decision.TargetAmount); err != nil {
		return false, fmt.Errorf("delivering target amount: %w", err)
	}
	return true, nil
}

// SwapNative settles an order funded with attached native value. The
// provider pulls only the spend the remote side reports, leaving the
// remainder with the beneficiary.
func (p *HTTPSwapProvider) SwapNative(ctx context.Context, ledger domain.Ledger, order *domain.Order, beneficiary string, value uint64) (bool, error) {
	decision, err := p.decide(ctx, swapRequest{
		SourceAsset:  order.SourceAsset,
		TargetAsset:  order.TargetAsset,
		SourceAmount: order.SourceAmount,
		TargetAmount: order.TargetAmount,
		MinRate:      order.MinRate,
		MaxRate:      order.MaxRate,
		Native:       true,
		Value:        value,
	})
	if err != nil {
		return false, err
	}
	if !decision.Accepted {
		return false, nil
	}

	spend := decision.SourceSpend
	if spend > value {
		return false, fmt.Errorf("provider reported spend %d above attached value %d", spend, value)
	}
	if spend > 0 {
		if err := ledger.Transfer(ctx, domain.NativeAsset, beneficiary, p.address, spend); err != nil {
			return false, fmt.Errorf("collecting native spend: %w", err)
		}
	}
	if err := ledger.Transfer(ctx, order.TargetAsset, p.address, beneficiary, decision.TargetAmount); err != nil {
		return false, fmt.Errorf("delivering target amount: %w", err)
	}
	return true, nil
}

func (p *HTTPSwapProvider) decide(ctx context.Context, request swapRequest) (*swapDecision, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/swap", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call provider swap API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider swap API returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var decision swapDecision
	if err := json.Unmarshal(body, &decision); err != nil {
		return nil, fmt.Errorf("failed to parse swap response: %w", err)
	}
	return &decision, nil
}
