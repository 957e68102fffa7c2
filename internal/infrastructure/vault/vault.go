package vault

import (
	"context"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
)

// LedgerVault is a plain ledger account holding accumulated platform
// fees. Deposit moves native currency into it; token fees are sent to
// Address() directly by the fee pipeline.
type LedgerVault struct {
	address string
}

func NewLedgerVault(address string) *LedgerVault {
	return &LedgerVault{address: address}
}

func (v *LedgerVault) Address() string {
	return v.address
}

func (v *LedgerVault) Deposit(ctx context.Context, ledger domain.Ledger, from string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	return ledger.Transfer(ctx, domain.NativeAsset, from, v.address, amount)
}
