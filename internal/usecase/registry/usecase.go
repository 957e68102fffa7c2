package registry

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/LavaJover/shvark-swap-service/internal/clock"
	"github.com/LavaJover/shvark-swap-service/internal/domain"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-swap-service/internal/usecase"
)

type ProviderRegistry interface {
	RegisterProvider(ctx context.Context, caller, key, address string) error
	UnregisterProvider(ctx context.Context, caller, key, address string) error
	PauseByOwner(ctx context.Context, caller, key string) error
	UnpauseByOwner(ctx context.Context, caller, key string) error
	PauseByAdmin(ctx context.Context, caller, key string) error
	UnpauseByAdmin(ctx context.Context, caller, key string) error

	IsValid(ctx context.Context, key string) (bool, error)
	IsPaused(ctx context.Context, key string) (bool, error)
	GetProvider(ctx context.Context, key string) (*domain.ProviderRecord, error)
	ListProviders(ctx context.Context) ([]*domain.ProviderRecord, error)

	GetExpectedRate(ctx context.Context, key, sourceAsset, targetAsset string, amount uint64) (bool, uint64, uint64, error)
	GetExpectedRates(ctx context.Context, sourceAsset, targetAsset string, amount uint64) (iter.Seq[domain.ExpectedRate], int, error)
	GetExpectedRateRange(ctx context.Context, sourceAsset, targetAsset string, amount uint64) (uint64, uint64, error)
}

type DefaultProviderRegistry struct {
	Repo     domain.ProviderRepository
	Policy   domain.PolicyStore
	Resolver domain.ProviderResolver
	Audit    domain.AuditRecorder
	Guard    *usecase.EntryGuard
	Clock    clock.Clock
	Metrics  *metrics.SwapMetrics
}

func NewDefaultProviderRegistry(
	repo domain.ProviderRepository,
	policy domain.PolicyStore,
	resolver domain.ProviderResolver,
	audit domain.AuditRecorder,
	guard *usecase.EntryGuard,
	clk clock.Clock,
	swapMetrics *metrics.SwapMetrics) *DefaultProviderRegistry {

	return &DefaultProviderRegistry{
		Repo:     repo,
		Policy:   policy,
		Resolver: resolver,
		Audit:    audit,
		Guard:    guard,
		Clock:    clk,
		Metrics:  swapMetrics,
	}
}

func (r *DefaultProviderRegistry) IsValid(ctx context.Context, key string) (bool, error) {
	record, err := r.Repo.GetByKey(ctx, key)
	if err != nil {
		return false, fmt.Errorf("loading provider %s: %w", key, err)
	}
	return record.IsValid(), nil
}

func (r *DefaultProviderRegistry) IsPaused(ctx context.Context, key string) (bool, error) {
	record, err := r.Repo.GetByKey(ctx, key)
	if err != nil {
		return false, fmt.Errorf("loading provider %s: %w", key, err)
	}
	return record.IsPaused(), nil
}

func (r *DefaultProviderRegistry) GetProvider(ctx context.Context, key string) (*domain.ProviderRecord, error) {
	record, err := r.Repo.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading provider %s: %w", key, err)
	}
	if record == nil || !record.Exists {
		return nil, domain.Errorf(domain.KindNotFound, "provider %s is not registered", key)
	}
	return record, nil
}

// ListProviders enumerates live records in index (insertion) order.
func (r *DefaultProviderRegistry) ListProviders(ctx context.Context) ([]*domain.ProviderRecord, error) {
	keys, err := r.Repo.IndexKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading provider index: %w", err)
	}
	records := make([]*domain.ProviderRecord, 0, len(keys))
	for _, key := range keys {
		record, err := r.Repo.GetByKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("loading provider %s: %w", key, err)
		}
		if record != nil && record.Exists {
			records = append(records, record)
		}
	}
	return records, nil
}

func (r *DefaultProviderRegistry) isAdmin(ctx context.Context, caller string) (bool, error) {
	ok, err := r.Policy.GetBool(ctx, domain.AdminRoleKey(caller))
	if err != nil {
		return false, fmt.Errorf("reading admin role for %s: %w", caller, err)
	}
	return ok, nil
}

func (r *DefaultProviderRegistry) record(ctx context.Context, events ...domain.AuditEvent) {
	if r.Audit == nil {
		return
	}
	if err := r.Audit.Record(ctx, events...); err != nil {
		slog.Error("failed to record audit events", "error", err.Error())
	}
}
