package payment

import (
	"context"
	"math"
	"testing"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestFeeAmount(t *testing.T) {
	cases := []struct {
		name   string
		target uint64
		bps    uint64
		want   uint64
	}{
		{"half percent of 1000", 1000, 50, 5},
		{"floors down", 995, 50, 4},
		{"zero fee", 1000, 0, 0},
		{"zero target", 0, 50, 0},
		{"small target floors to zero", 999, 1, 0},
		{"max target does not overflow", math.MaxUint64, 5000, math.MaxUint64 / 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, FeeAmount(tc.target, tc.bps))
		})
	}
}

func TestPlatformFeeBpsOutOfRange(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)
	f.ledger.Mint("TKA", payerAddr, 100)
	f.ledger.Mint("TKB", provAddr, 2000)
	require.NoError(t, f.ledger.Approve(ctx, "TKA", payerAddr, orchAddr, 100))
	f.provider.DeliverTarget = 995
	f.policy.SetUint(domain.PlatformFeeBpsKey(), 10000)

	_, err := f.uc.TransferWithTokens(ctx, payerAddr, tokenOrder(), provKey)
	require.True(t, domain.IsKind(err, domain.KindInvalidState))
	require.Equal(t, uint64(100), f.balance(t, "TKA", payerAddr), "a misconfigured fee aborts the whole payment")
}
