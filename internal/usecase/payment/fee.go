package payment

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
)

// FeeAmount computes the platform fee with integer floor division. Basis
// points arrive pre-scaled by 100 (0.5% stored as 50); the fee is never
// rounded up. The 128-bit intermediate keeps large target amounts exact.
// feeBps must be below 10000: bits.Div64 panics once the quotient no longer
// fits in uint64, so callers validate the rate first (see platformFeeBps).
func FeeAmount(targetAmount, feeBps uint64) uint64 {
	hi, lo := bits.Mul64(targetAmount, feeBps)
	fee, _ := bits.Div64(hi, lo, 10000)
	return fee
}

func (uc *DefaultPaymentUsecase) platformFeeBps(ctx context.Context) (uint64, error) {
	feeBps, err := uc.Policy.GetUint(ctx, domain.PlatformFeeBpsKey())
	if err != nil {
		return 0, fmt.Errorf("reading platform fee basis points: %w", err)
	}
	if feeBps >= 10000 {
		return 0, domain.Errorf(domain.KindInvalidState,
			"platform fee of %d basis points is out of range", feeBps)
	}
	return feeBps, nil
}

// transferFee moves the fee from the orchestrator to the vault. Native fees
// go through the vault's deposit capability.
func (uc *DefaultPaymentUsecase) transferFee(ctx context.Context, tx domain.TxLedger, asset string, fee uint64) error {
	if fee == 0 {
		return nil
	}
	if asset == domain.NativeAsset {
		if err := uc.Vault.Deposit(ctx, tx, uc.OrchestratorAddress, fee); err != nil {
			return domain.WrapError(domain.KindTransfer, err, "depositing fee %d into vault", fee)
		}
		return nil
	}
	if err := tx.Transfer(ctx, asset, uc.OrchestratorAddress, uc.Vault.Address(), fee); err != nil {
		return domain.WrapError(domain.KindTransfer, err, "transferring fee %d of %s to vault", fee, asset)
	}
	return nil
}

// resolvePostAction picks the hook address: the order's registered explicit
// address wins, otherwise the configured default. Neither present is a
// fatal condition.
func (uc *DefaultPaymentUsecase) resolvePostAction(ctx context.Context, order *domain.Order) (string, error) {
	if order.PostActionAddress != "" {
		return order.PostActionAddress, nil
	}
	fallback, err := uc.Policy.GetString(ctx, domain.DefaultPostActionKey())
	if err != nil {
		return "", fmt.Errorf("reading default post-action: %w", err)
	}
	if fallback == "" {
		return "", domain.Errorf(domain.KindInvalidState,
			"no post-action hook resolvable for order")
	}
	return fallback, nil
}

// runFeePipeline deducts the platform fee, transfers the net target amount
// to the resolved post-action hook and invokes it with a fresh snapshot.
// Returns (fee, net) for the audit event.
func (uc *DefaultPaymentUsecase) runFeePipeline(ctx context.Context, tx domain.TxLedger, paymentID string, order *domain.Order) (uint64, uint64, error) {
	feeBps, err := uc.platformFeeBps(ctx)
	if err != nil {
		return 0, 0, err
	}
	fee := FeeAmount(order.TargetAmount, feeBps)
	if err := uc.transferFee(ctx, tx, order.TargetAsset, fee); err != nil {
		return 0, 0, err
	}

	net := order.TargetAmount - fee
	hookAddress, err := uc.resolvePostAction(ctx, order)
	if err != nil {
		return 0, 0, err
	}
	if err := tx.Transfer(ctx, order.TargetAsset, uc.OrchestratorAddress, hookAddress, net); err != nil {
		return 0, 0, domain.WrapError(domain.KindTransfer, err,
			"transferring net %d of %s to post-action %s", net, order.TargetAsset, hookAddress)
	}

	hook, err := uc.PostActions.Resolve(hookAddress)
	if err != nil {
		return 0, 0, domain.WrapError(domain.KindInvalidState, err,
			"no capability behind post-action %s", hookAddress)
	}
	data := &domain.PostActionData{
		PaymentID:    paymentID,
		SourceAsset:  order.SourceAsset,
		TargetAsset:  order.TargetAsset,
		SourceAmount: order.SourceAmount,
		TargetAmount: order.TargetAmount,
		FeeAmount:    fee,
		NetAmount:    net,
		MinRate:      order.MinRate,
		MaxRate:      order.MaxRate,
		FromAddress:  order.FromAddress,
		ToAddress:    order.ToAddress,
		Data:         order.Data,
	}
	if err := hook.Execute(ctx, tx, data); err != nil {
		return 0, 0, domain.WrapError(domain.KindProvider, err,
			"post-action %s failed", hookAddress)
	}
	return fee, net, nil
}
