package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-swap-service/internal/clock"
	"github.com/LavaJover/shvark-swap-service/internal/domain"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-swap-service/internal/usecase"
	"github.com/LavaJover/shvark-swap-service/internal/usecase/registry"
	"github.com/jaevor/go-nanoid"
)

type PaymentUsecase interface {
	TransferWithTokens(ctx context.Context, caller string, order *domain.Order, providerKey string) (*PaymentResult, error)
	TransferWithEthers(ctx context.Context, caller string, order *domain.Order, providerKey string, value uint64) (*PaymentResult, error)
}

// PaymentResult summarizes one completed orchestration call.
type PaymentResult struct {
	PaymentID string
	FeeAmount uint64
	NetAmount uint64
	Leftover  uint64
	FastPath  bool
}

type DefaultPaymentUsecase struct {
	Ledgers             domain.LedgerStore
	Registry            registry.ProviderRegistry
	Resolver            domain.ProviderResolver
	Policy              domain.PolicyStore
	Vault               domain.Vault
	PostActions         domain.PostActionResolver
	Audit               domain.AuditRecorder
	Guard               *usecase.EntryGuard
	Clock               clock.Clock
	Metrics             *metrics.SwapMetrics
	OrchestratorAddress string
}

func NewDefaultPaymentUsecase(
	ledgers domain.LedgerStore,
	providerRegistry registry.ProviderRegistry,
	resolver domain.ProviderResolver,
	policy domain.PolicyStore,
	vault domain.Vault,
	postActions domain.PostActionResolver,
	audit domain.AuditRecorder,
	guard *usecase.EntryGuard,
	clk clock.Clock,
	swapMetrics *metrics.SwapMetrics,
	orchestratorAddress string) *DefaultPaymentUsecase {

	return &DefaultPaymentUsecase{
		Ledgers:             ledgers,
		Registry:            providerRegistry,
		Resolver:            resolver,
		Policy:              policy,
		Vault:               vault,
		PostActions:         postActions,
		Audit:               audit,
		Guard:               guard,
		Clock:               clk,
		Metrics:             swapMetrics,
		OrchestratorAddress: orchestratorAddress,
	}
}

// validateOrder runs every precondition that needs no ledger state. Any
// failure aborts before the unit of work is opened.
func (uc *DefaultPaymentUsecase) validateOrder(ctx context.Context, caller string, order *domain.Order) error {
	paused, err := uc.Policy.GetBool(ctx, domain.PlatformPausedKey())
	if err != nil {
		return fmt.Errorf("reading platform pause flag: %w", err)
	}
	if paused {
		return domain.Errorf(domain.KindInvalidState, "platform is paused")
	}

	if order.PostActionAddress != "" {
		registered, err := uc.Policy.GetBool(ctx, domain.RegisteredContractKey(order.PostActionAddress))
		if err != nil {
			return fmt.Errorf("reading post-action registration: %w", err)
		}
		if !registered {
			return domain.Errorf(domain.KindValidation,
				"post-action address %s is not registered", order.PostActionAddress)
		}
	}

	available, err := uc.Policy.GetBool(ctx, domain.AssetAvailableKey(order.TargetAsset))
	if err != nil {
		return fmt.Errorf("reading asset availability: %w", err)
	}
	if !available {
		return domain.Errorf(domain.KindValidation,
			"target asset %s is not available", order.TargetAsset)
	}

	if order.SourceAmount == 0 || order.TargetAmount == 0 {
		return domain.Errorf(domain.KindValidation, "order amounts must be positive")
	}
	if caller != order.FromAddress {
		return domain.Errorf(domain.KindValidation,
			"caller %s does not match order sender %s", caller, order.FromAddress)
	}
	if order.ToAddress == "" {
		return domain.Errorf(domain.KindValidation, "recipient address must not be zero")
	}
	return nil
}

// validProvider resolves providerKey to a registry-valid provider record and
// its swap capability.
func (uc *DefaultPaymentUsecase) validProvider(ctx context.Context, providerKey string) (*domain.ProviderRecord, domain.SwapProvider, error) {
	record, err := uc.Registry.GetProvider(ctx, providerKey)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, nil, domain.Errorf(domain.KindInvalidState,
				"provider %s is not registered", providerKey)
		}
		return nil, nil, err
	}
	if !record.IsValid() {
		return nil, nil, domain.Errorf(domain.KindInvalidState,
			"provider %s is paused", providerKey)
	}
	provider, err := uc.Resolver.Resolve(record.Address)
	if err != nil {
		return nil, nil, domain.WrapError(domain.KindProvider, err,
			"resolving capability of provider %s", providerKey)
	}
	return record, provider, nil
}

func newEventID() string {
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return ""
	}
	return idGenerator()
}

// publish records audit events after the unit of work has committed (or,
// for failure events, after the rollback). Recording problems are logged,
// never surfaced: the payment outcome is already final.
func (uc *DefaultPaymentUsecase) publish(ctx context.Context, events ...domain.AuditEvent) {
	if uc.Audit == nil {
		return
	}
	if err := uc.Audit.Record(ctx, events...); err != nil {
		slog.Error("failed to record audit events", "error", err.Error())
	}
}

func (uc *DefaultPaymentUsecase) paymentSentEvent(paymentID string, order *domain.Order) domain.AuditEvent {
	return domain.AuditEvent{
		ID:           newEventID(),
		Type:         domain.EventPaymentSent,
		OccurredAt:   uc.Clock.Now().Unix(),
		PaymentID:    paymentID,
		FromAddress:  order.FromAddress,
		ToAddress:    order.ToAddress,
		SourceAsset:  order.SourceAsset,
		TargetAsset:  order.TargetAsset,
		SourceAmount: order.SourceAmount,
		TargetAmount: order.TargetAmount,
	}
}

func (uc *DefaultPaymentUsecase) successEvent(paymentID string, order *domain.Order, providerKey string, fee, net, leftover uint64) domain.AuditEvent {
	return domain.AuditEvent{
		ID:           newEventID(),
		Type:         domain.EventExecutionTransferSuccess,
		OccurredAt:   uc.Clock.Now().Unix(),
		PaymentID:    paymentID,
		ProviderKey:  providerKey,
		FromAddress:  order.FromAddress,
		ToAddress:    order.ToAddress,
		SourceAsset:  order.SourceAsset,
		TargetAsset:  order.TargetAsset,
		SourceAmount: order.SourceAmount,
		TargetAmount: order.TargetAmount,
		FeeAmount:    fee,
		NetAmount:    net,
		Leftover:     leftover,
	}
}

func (uc *DefaultPaymentUsecase) failureEvent(paymentID string, order *domain.Order, providerKey, reason string) domain.AuditEvent {
	return domain.AuditEvent{
		ID:           newEventID(),
		Type:         domain.EventExecutionTransferFailed,
		OccurredAt:   uc.Clock.Now().Unix(),
		PaymentID:    paymentID,
		ProviderKey:  providerKey,
		FromAddress:  order.FromAddress,
		SourceAsset:  order.SourceAsset,
		TargetAsset:  order.TargetAsset,
		SourceAmount: order.SourceAmount,
		TargetAmount: order.TargetAmount,
		Reason:       reason,
	}
}

// abortProviderFailure rolls the unit of work back, then records the one
// audit event an aborted call leaves behind.
func (uc *DefaultPaymentUsecase) abortProviderFailure(ctx context.Context, tx domain.TxLedger, committed *bool, paymentID string, order *domain.Order, providerKey, reason string) error {
	if err := tx.Rollback(); err != nil {
		slog.Error("failed to roll back payment", "payment_id", paymentID, "error", err.Error())
	}
	*committed = true
	uc.Metrics.RecordProviderFailure(providerKey)
	uc.publish(ctx, uc.failureEvent(paymentID, order, providerKey, reason))
	return domain.Errorf(domain.KindProvider,
		"provider %s reported swap failure: %s", providerKey, reason)
}
