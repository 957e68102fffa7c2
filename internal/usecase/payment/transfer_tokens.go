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

const pathTokens = "tokens"

// TransferWithTokens orchestrates one token payment: validation, the
// equal-asset fast path or the provider-swap path, reconciliation, the
// fee/post-action pipeline and audit emission. The whole call is one ledger
// transaction; nothing survives an abort.
func (uc *DefaultPaymentUsecase) TransferWithTokens(ctx context.Context, caller string, order *domain.Order, providerKey string) (*PaymentResult, error) {
	if err := uc.Guard.Acquire(); err != nil {
		return nil, err
	}
	defer uc.Guard.Release()

	start := time.Now()
	result, err := uc.transferWithTokens(ctx, caller, order, providerKey)
	if err != nil {
		uc.Metrics.RecordPaymentError(pathTokens, string(domain.KindOf(err)))
		uc.Metrics.RecordPaymentDuration(pathTokens, "aborted", time.Since(start))
		return nil, err
	}
	uc.Metrics.RecordPaymentDuration(pathTokens, "success", time.Since(start))
	return result, nil
}

func (uc *DefaultPaymentUsecase) transferWithTokens(ctx context.Context, caller string, order *domain.Order, providerKey string) (*PaymentResult, error) {
	if err := uc.validateOrder(ctx, caller, order); err != nil {
		return nil, err
	}

	paymentID := uuid.New().String()
	slog.Info("token payment started",
		"payment_id", paymentID,
		"source_asset", order.SourceAsset,
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

	// Equal-asset fast path: direct transfer, no fee, no provider, no
	// post-action.
	if order.SourceAsset == order.TargetAsset {
		allowance, err := tx.Allowance(ctx, order.TargetAsset, order.FromAddress, uc.OrchestratorAddress)
		if err != nil {
			return nil, fmt.Errorf("reading allowance: %w", err)
		}
		if allowance < order.TargetAmount {
			return nil, domain.Errorf(domain.KindValidation,
				"allowance %d is below target amount %d", allowance, order.TargetAmount)
		}
		if err := tx.TransferFrom(ctx, order.TargetAsset, order.FromAddress, uc.OrchestratorAddress, order.ToAddress, order.TargetAmount); err != nil {
			return nil, domain.WrapError(domain.KindTransfer, err, "fast-path transfer")
		}
		if err := tx.Commit(); err != nil {
			return nil, domain.WrapError(domain.KindTransfer, err, "committing payment")
		}
		committed = true

		uc.publish(ctx,
			uc.paymentSentEvent(paymentID, order),
			uc.successEvent(paymentID, order, "", 0, order.TargetAmount, 0))
		uc.Metrics.RecordPayment(pathTokens, order.SourceAsset, order.TargetAsset, order.TargetAmount, 0, 0)
		return &PaymentResult{PaymentID: paymentID, NetAmount: order.TargetAmount, FastPath: true}, nil
	}

	record, provider, err := uc.validProvider(ctx, providerKey)
	if err != nil {
		return nil, err
	}

	allowance, err := tx.Allowance(ctx, order.SourceAsset, order.FromAddress, uc.OrchestratorAddress)
	if err != nil {
		return nil, fmt.Errorf("reading allowance: %w", err)
	}
	if allowance < order.SourceAmount {
		return nil, domain.Errorf(domain.KindValidation,
			"allowance %d is below source amount %d", allowance, order.SourceAmount)
	}
	if err := tx.TransferFrom(ctx, order.SourceAsset, order.FromAddress, uc.OrchestratorAddress, record.Address, order.SourceAmount); err != nil {
		return nil, domain.WrapError(domain.KindTransfer, err, "funding provider %s", providerKey)
	}

	sourcePre, err := tx.BalanceOf(ctx, order.SourceAsset, uc.OrchestratorAddress)
	if err != nil {
		return nil, fmt.Errorf("reading source balance: %w", err)
	}
	targetPre, err := tx.BalanceOf(ctx, order.TargetAsset, uc.OrchestratorAddress)
	if err != nil {
		return nil, fmt.Errorf("reading target balance: %w", err)
	}

	ok, swapErr := provider.Swap(ctx, tx, order, uc.OrchestratorAddress)
	if swapErr != nil || !ok {
		reason := "swap rejected"
		if swapErr != nil {
			reason = swapErr.Error()
		}
		return nil, uc.abortProviderFailure(ctx, tx, &committed, paymentID, order, providerKey, reason)
	}

	// Sweep any source-asset refund the provider returned to the
	// orchestrator back to the payer.
	sourcePost, err := tx.BalanceOf(ctx, order.SourceAsset, uc.OrchestratorAddress)
	if err != nil {
		return nil, fmt.Errorf("reading source balance: %w", err)
	}
	_, leftover, err := reconcile.DiffDeposit(ctx, tx, order.SourceAsset, uc.OrchestratorAddress, order.FromAddress, sourcePre, sourcePost)
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
	uc.Metrics.RecordPayment(pathTokens, order.SourceAsset, order.TargetAsset, order.TargetAmount, fee, leftover)
	slog.Info("token payment finished", "payment_id", paymentID, "fee", fee, "net", net, "leftover", leftover)

	return &PaymentResult{
		PaymentID: paymentID,
		FeeAmount: fee,
		NetAmount: net,
		Leftover:  leftover,
	}, nil
}
