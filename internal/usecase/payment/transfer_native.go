package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
	"github.com/LavaJover/shvark-swap-service/internal/usecase/reconcile"
	"github.com/google/uuid"
)

const pathNative = "native"

// TransferWithEthers mirrors TransferWithTokens for the native currency.
// The attached value must be positive and equal the order's source amount;
// it moves caller -> orchestrator -> provider inside the same transaction,
// and the leftover of the orchestrator's native balance is refunded to the
// caller.
func (uc *DefaultPaymentUsecase) TransferWithEthers(ctx context.Context, caller string, order *domain.Order, providerKey string, value uint64) (*PaymentResult, error) {
	if err := uc.Guard.Acquire(); err != nil {
		return nil, err
	}
	defer uc.Guard.Release()

	start := time.Now()
	result, err := uc.transferWithEthers(ctx, caller, order, providerKey, value)
	if err != nil {
		uc.Metrics.RecordPaymentError(pathNative, string(domain.KindOf(err)))
		uc.Metrics.RecordPaymentDuration(pathNative, "aborted", time.Since(start))
		return nil, err
	}
	uc.Metrics.RecordPaymentDuration(pathNative, "success", time.Since(start))
	return result, nil
}

func (uc *DefaultPaymentUsecase) transferWithEthers(ctx context.Context, caller string, order *domain.Order, providerKey string, value uint64) (*PaymentResult, error) {
	if order.SourceAsset != domain.NativeAsset {
		return nil, domain.Errorf(domain.KindValidation,
			"native path requires the native source asset, got %s", order.SourceAsset)
	}
	if value == 0 {
		return nil, domain.Errorf(domain.KindValidation, "attached value must be positive")
	}
	if value != order.SourceAmount {
		return nil, domain.Errorf(domain.KindValidation,
			"attached value %d does not match source amount %d", value, order.SourceAmount)
	}
	if err := uc.validateOrder(ctx, caller, order); err != nil {
		return nil, err
	}

	paymentID := uuid.New().String()
	slog.Info("native payment started",
		"payment_id", paymentID,
		"target_asset", order.TargetAsset,
		"provider_key", providerKey)

	tx, err := uc.Ledgers.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning unit of work: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("failed to roll back payment", "payment_id", paymentID, "error", rbErr.Error())
			}
		}
	}()

	// Native fast path: the attached value covers the target amount and no
	// allowance is involved.
	if order.SourceAsset == order.TargetAsset {
		if order.TargetAmount > value {
			return nil, domain.Errorf(domain.KindValidation,
				"attached value %d is below target amount %d", value, order.TargetAmount)
		}
		if err := tx.Transfer(ctx, domain.NativeAsset, order.FromAddress, order.ToAddress, order.TargetAmount); err != nil {
			return nil, domain.WrapError(domain.KindTransfer, err, "fast-path transfer")
		}
		if err := tx.Commit(); err != nil {
			return nil, domain.WrapError(domain.KindTransfer, err, "committing payment")
		}
		committed = true

		uc.publish(ctx,
			uc.paymentSentEvent(paymentID, order),
			uc.successEvent(paymentID, order, "", 0, order.TargetAmount, 0))
		uc.Metrics.RecordPayment(pathNative, order.SourceAsset, order.TargetAsset, order.TargetAmount, 0, 0)
		return &PaymentResult{PaymentID: paymentID, NetAmount: order.TargetAmount, FastPath: true}, nil
	}

	_, provider, err := uc.validProvider(ctx, providerKey)
	if err != nil {
		return nil, err
	}

	// Attach the value: the caller's native funds are held by the
	// orchestrator for the duration of the call.
	if err := tx.Transfer(ctx, domain.NativeAsset, order.FromAddress, uc.OrchestratorAddress, value); err != nil {
		return nil, domain.WrapError(domain.KindTransfer, err, "attaching value %d", value)
	}

	nativePre, err := tx.BalanceOf(ctx, domain.NativeAsset, uc.OrchestratorAddress)
	if err != nil {
		return nil, fmt.Errorf("reading native balance: %w", err)
	}
	targetPre, err := tx.BalanceOf(ctx, order.TargetAsset, uc.OrchestratorAddress)
	if err != nil {
		return nil, fmt.Errorf("reading target balance: %w", err)
	}

	ok, swapErr := provider.SwapNative(ctx, tx, order, uc.OrchestratorAddress, value)
	if swapErr != nil || !ok {
		reason := "swap rejected"
		if swapErr != nil {
			reason = swapErr.Error()
		}
		return nil, uc.abortProviderFailure(ctx, tx, &committed, paymentID, order, providerKey, reason)
	}

	nativePost, err := tx.BalanceOf(ctx, domain.NativeAsset, uc.OrchestratorAddress)
	if err != nil {
		return nil, fmt.Errorf("reading native balance: %w", err)
	}
	_, leftover, err := reconcile.RefundLeftoverIfSpend(ctx, tx, domain.NativeAsset, uc.OrchestratorAddress, order.FromAddress, value, nativePre, nativePost)
	if err != nil {
		return nil, err
	}

	targetPost, err := tx.BalanceOf(ctx, order.TargetAsset, uc.OrchestratorAddress)
	if err != nil {
		return nil, fmt.Errorf("reading target balance: %w", err)
	}
	if err := reconcile.CheckExactTarget(order.TargetAmount, targetPre, targetPost); err != nil {
		return nil, err
	}

	fee, net, err := uc.runFeePipeline(ctx, tx, paymentID, order)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.WrapError(domain.KindTransfer, err, "committing payment")
	}
	committed = true

	uc.publish(ctx,
		uc.paymentSentEvent(paymentID, order),
		uc.successEvent(paymentID, order, providerKey, fee, net, leftover))
	uc.Metrics.RecordPayment(pathNative, order.SourceAsset, order.TargetAsset, order.TargetAmount, fee, leftover)
	slog.Info("native payment finished", "payment_id", paymentID, "fee", fee, "net", net, "leftover", leftover)

	return &PaymentResult{
		PaymentID: paymentID,
		FeeAmount: fee,
		NetAmount: net,
		Leftover:  leftover,
	}, nil
}
