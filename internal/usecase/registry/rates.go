package registry

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
)

// GetExpectedRate queries a single valid provider and returns its quote
// verbatim.
func (r *DefaultProviderRegistry) GetExpectedRate(ctx context.Context, key, sourceAsset, targetAsset string, amount uint64) (bool, uint64, uint64, error) {
	record, err := r.Repo.GetByKey(ctx, key)
	if err != nil {
		return false, 0, 0, fmt.Errorf("loading provider %s: %w", key, err)
	}
	if !record.IsValid() {
		return false, 0, 0, domain.Errorf(domain.KindInvalidState,
			"provider %s is not valid for quoting", key)
	}
	provider, err := r.Resolver.Resolve(record.Address)
	if err != nil {
		return false, 0, 0, domain.WrapError(domain.KindProvider, err,
			"resolving provider %s", key)
	}
	supported, minRate, maxRate, err := provider.Quote(ctx, sourceAsset, targetAsset, amount)
	if err != nil {
		return false, 0, 0, domain.WrapError(domain.KindProvider, err,
			"quoting provider %s", key)
	}
	r.Metrics.RecordRateLookup(key)
	return supported, minRate, maxRate, nil
}

// GetExpectedRates walks the full registry index in insertion order and
// yields one slot per index entry. The sequence is lazy, fixed-length and
// single-use. For a supported pair the provider's quoted min rate is
// surfaced in the slot's MaxRate field as well, since downstream consumers
// read "rate" as an exchange multiplier from that field.
func (r *DefaultProviderRegistry) GetExpectedRates(ctx context.Context, sourceAsset, targetAsset string, amount uint64) (iter.Seq[domain.ExpectedRate], int, error) {
	keys, err := r.Repo.IndexKeys(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("loading provider index: %w", err)
	}

	consumed := false
	seq := func(yield func(domain.ExpectedRate) bool) {
		if consumed {
			return
		}
		consumed = true
		for _, key := range keys {
			if !yield(r.expectedRateSlot(ctx, key, sourceAsset, targetAsset, amount)) {
				return
			}
		}
	}
	return seq, len(keys), nil
}

func (r *DefaultProviderRegistry) expectedRateSlot(ctx context.Context, key, sourceAsset, targetAsset string, amount uint64) domain.ExpectedRate {
	record, err := r.Repo.GetByKey(ctx, key)
	if err != nil || !record.IsValid() {
		return domain.ExpectedRate{Exists: false}
	}
	provider, err := r.Resolver.Resolve(record.Address)
	if err != nil {
		return domain.ExpectedRate{ProviderKey: key, Exists: true}
	}
	supported, minRate, _, err := provider.Quote(ctx, sourceAsset, targetAsset, amount)
	if err != nil {
		slog.Warn("provider quote failed", "provider", key, "error", err.Error())
		return domain.ExpectedRate{ProviderKey: key, Exists: true}
	}
	if !supported {
		return domain.ExpectedRate{ProviderKey: key, Exists: true}
	}
	return domain.ExpectedRate{
		ProviderKey: key,
		MinRate:     minRate,
		MaxRate:     minRate,
		Exists:      true,
	}
}

// GetExpectedRateRange aggregates quotes across all valid, supporting
// providers into the tightest bounds: the maximum of the reported min rates
// and the minimum of the reported max rates, both seeded at zero. Returns
// (0, 0) when no provider supports the pair.
func (r *DefaultProviderRegistry) GetExpectedRateRange(ctx context.Context, sourceAsset, targetAsset string, amount uint64) (uint64, uint64, error) {
	keys, err := r.Repo.IndexKeys(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("loading provider index: %w", err)
	}

	var minRate, maxRate uint64
	for _, key := range keys {
		record, err := r.Repo.GetByKey(ctx, key)
		if err != nil || !record.IsValid() {
			continue
		}
		provider, err := r.Resolver.Resolve(record.Address)
		if err != nil {
			continue
		}
		supported, pMin, pMax, err := provider.Quote(ctx, sourceAsset, targetAsset, amount)
		if err != nil || !supported {
			continue
		}
		if pMin > minRate {
			minRate = pMin
		}
		if pMax != 0 && (maxRate == 0 || pMax < maxRate) {
			maxRate = pMax
		}
	}
	return minRate, maxRate, nil
}
