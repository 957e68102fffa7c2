// Package reconcile verifies that balance deltas observed around an external
// provider call match expected bounds, and moves leftover/refund amounts
// back to their owners.
package reconcile

import (
	"context"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
)

// DiffSpend computes the leftover of a spend: a spend must not increase the
// holder's balance and must not consume more than was sent.
func DiffSpend(sent, initial, final uint64) (uint64, error) {
	if final > initial {
		return 0, domain.Errorf(domain.KindInvariant,
			"balance increased during spend: initial %d, final %d", initial, final)
	}
	used := initial - final
	if used > sent {
		return 0, domain.Errorf(domain.KindInvariant,
			"spend of %d exceeds sent amount %d", used, sent)
	}
	return sent - used, nil
}

// RefundLeftoverIfSpend computes the spend leftover and, when positive,
// transfers it from holder back to recipient.
func RefundLeftoverIfSpend(ctx context.Context, ledger domain.Ledger, asset, holder, recipient string, sent, initial, final uint64) (bool, uint64, error) {
	leftover, err := DiffSpend(sent, initial, final)
	if err != nil {
		return false, 0, err
	}
	if leftover > 0 {
		if err := ledger.Transfer(ctx, asset, holder, recipient, leftover); err != nil {
			return false, 0, domain.WrapError(domain.KindTransfer, err,
				"refunding leftover %d of %s", leftover, asset)
		}
	}
	return true, leftover, nil
}

// DiffDeposit sweeps any surplus the holder received between the two
// snapshots to the recipient. Used on the token-swap path for source-asset
// refunds the provider returned to the orchestrator.
func DiffDeposit(ctx context.Context, ledger domain.Ledger, asset, holder, recipient string, initial, final uint64) (bool, uint64, error) {
	if final < initial {
		return false, 0, domain.Errorf(domain.KindInvariant,
			"balance decreased during deposit: initial %d, final %d", initial, final)
	}
	delta := final - initial
	if delta > 0 {
		if err := ledger.Transfer(ctx, asset, holder, recipient, delta); err != nil {
			return false, 0, domain.WrapError(domain.KindTransfer, err,
				"sweeping deposit %d of %s", delta, asset)
		}
	}
	return true, delta, nil
}

// CheckExactTarget requires the delta between the two snapshots to equal
// targetAmount exactly. Both under- and over-delivery by a provider are
// invariant violations.
func CheckExactTarget(targetAmount, initial, final uint64) error {
	if final < initial {
		return domain.Errorf(domain.KindInvariant,
			"target balance decreased: initial %d, final %d", initial, final)
	}
	if delta := final - initial; delta != targetAmount {
		return domain.Errorf(domain.KindInvariant,
			"provider delivered %d, expected exactly %d", delta, targetAmount)
	}
	return nil
}
