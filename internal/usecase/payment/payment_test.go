package payment

import (
	"context"
	"testing"
	"time"

	"github.com/LavaJover/shvark-swap-service/internal/clock"
	"github.com/LavaJover/shvark-swap-service/internal/domain"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/vault"
	"github.com/LavaJover/shvark-swap-service/internal/testutil"
	"github.com/LavaJover/shvark-swap-service/internal/usecase"
	"github.com/LavaJover/shvark-swap-service/internal/usecase/registry"
	"github.com/stretchr/testify/require"
)

const (
	orchAddr  = "0xorch"
	vaultAddr = "0xvault"
	hookAddr  = "0xhook"
	payerAddr = "0xpayer"
	recvAddr  = "0xrecv"
	provAddr  = "0xprov"
	provKey   = "swapper-1"
)

type paymentFixture struct {
	uc       *DefaultPaymentUsecase
	ledger   *testutil.MemLedger
	policy   *testutil.MemPolicyStore
	provider *testutil.FakeProvider
	hook     *testutil.FakePostAction
	audit    *testutil.RecordingAudit
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	ctx := context.Background()

	ledger := testutil.NewMemLedger()
	policy := testutil.NewMemPolicyStore()
	policy.SetUint(domain.PlatformFeeBpsKey(), 50)
	policy.SetBool(domain.RegisteredContractKey(hookAddr), true)
	policy.SetBool(domain.AssetAvailableKey("TKA"), true)
	policy.SetBool(domain.AssetAvailableKey("TKB"), true)
	policy.SetBool(domain.AssetAvailableKey(domain.NativeAsset), true)

	provider := &testutil.FakeProvider{Address: provAddr, Supported: true, MinRate: 1, MaxRate: 100}
	resolver := &testutil.FakeResolver{Providers: map[string]domain.SwapProvider{provAddr: provider}}

	repo := testutil.NewMemProviderRepo()
	guard := usecase.NewEntryGuard()
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	providerRegistry := registry.NewDefaultProviderRegistry(repo, policy, resolver, nil, guard, clk, nil)
	require.NoError(t, providerRegistry.RegisterProvider(ctx, "0xowner", provKey, provAddr))

	hook := &testutil.FakePostAction{}
	audit := &testutil.RecordingAudit{}

	uc := NewDefaultPaymentUsecase(
		ledger,
		providerRegistry,
		resolver,
		policy,
		vault.NewLedgerVault(vaultAddr),
		&testutil.FakePostActionResolver{Hooks: map[string]domain.PostAction{hookAddr: hook}},
		audit,
		guard,
		clk,
		nil,
		orchAddr,
	)
	return &paymentFixture{uc: uc, ledger: ledger, policy: policy, provider: provider, hook: hook, audit: audit}
}

func tokenOrder() *domain.Order {
	return &domain.Order{
		SourceAsset:       "TKA",
		TargetAsset:       "TKB",
		SourceAmount:      100,
		TargetAmount:      995,
		MinRate:           1,
		MaxRate:           100,
		FromAddress:       payerAddr,
		ToAddress:         recvAddr,
		PostActionAddress: hookAddr,
	}
}

func (f *paymentFixture) balance(t *testing.T, asset, address string) uint64 {
	t.Helper()
	balance, err := f.ledger.BalanceOf(context.Background(), asset, address)
	require.NoError(t, err)
	return balance
}

func TestTransferWithTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("provider swap with fee and post-action", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.ledger.Mint("TKA", payerAddr, 100)
		f.ledger.Mint("TKB", provAddr, 2000)
		require.NoError(t, f.ledger.Approve(ctx, "TKA", payerAddr, orchAddr, 100))
		f.provider.DeliverTarget = 995

		result, err := f.uc.TransferWithTokens(ctx, payerAddr, tokenOrder(), provKey)
		require.NoError(t, err)
		require.False(t, result.FastPath)
		require.Equal(t, uint64(4), result.FeeAmount, "995 * 50bps floors to 4")
		require.Equal(t, uint64(991), result.NetAmount)
		require.Equal(t, uint64(0), result.Leftover)

		require.Equal(t, uint64(0), f.balance(t, "TKA", payerAddr))
		require.Equal(t, uint64(100), f.balance(t, "TKA", provAddr))
		require.Equal(t, uint64(4), f.balance(t, "TKB", vaultAddr))
		require.Equal(t, uint64(991), f.balance(t, "TKB", hookAddr))
		require.Equal(t, uint64(0), f.balance(t, "TKB", orchAddr))

		require.Len(t, f.hook.Executed, 1)
		require.Equal(t, result.PaymentID, f.hook.Executed[0].PaymentID)
		require.Equal(t, uint64(991), f.hook.Executed[0].NetAmount)

		require.Len(t, f.audit.OfType(domain.EventPaymentSent), 1)
		require.Len(t, f.audit.OfType(domain.EventExecutionTransferSuccess), 1)
	})

	t.Run("source refund is swept back to the payer", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.ledger.Mint("TKA", payerAddr, 100)
		f.ledger.Mint("TKB", provAddr, 2000)
		require.NoError(t, f.ledger.Approve(ctx, "TKA", payerAddr, orchAddr, 100))
		f.provider.DeliverTarget = 995
		f.provider.RefundSource = 20

		result, err := f.uc.TransferWithTokens(ctx, payerAddr, tokenOrder(), provKey)
		require.NoError(t, err)
		require.Equal(t, uint64(20), result.Leftover)
		require.Equal(t, uint64(20), f.balance(t, "TKA", payerAddr))
		require.Equal(t, uint64(80), f.balance(t, "TKA", provAddr))
	})

	t.Run("equal assets take the fast path", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.ledger.Mint("TKA", payerAddr, 100)
		require.NoError(t, f.ledger.Approve(ctx, "TKA", payerAddr, orchAddr, 60))

		order := tokenOrder()
		order.TargetAsset = "TKA"
		order.SourceAmount = 60
		order.TargetAmount = 60

		result, err := f.uc.TransferWithTokens(ctx, payerAddr, order, provKey)
		require.NoError(t, err)
		require.True(t, result.FastPath)
		require.Equal(t, uint64(0), result.FeeAmount, "fast path charges no fee")
		require.Equal(t, uint64(60), f.balance(t, "TKA", recvAddr))
		require.Equal(t, 0, f.provider.SwapCalls)
		require.Empty(t, f.hook.Executed)
	})

	t.Run("insufficient allowance", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.ledger.Mint("TKA", payerAddr, 100)
		require.NoError(t, f.ledger.Approve(ctx, "TKA", payerAddr, orchAddr, 50))

		_, err := f.uc.TransferWithTokens(ctx, payerAddr, tokenOrder(), provKey)
		require.True(t, domain.IsKind(err, domain.KindValidation))
	})

	t.Run("provider rejection aborts atomically", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.ledger.Mint("TKA", payerAddr, 100)
		f.ledger.Mint("TKB", provAddr, 2000)
		require.NoError(t, f.ledger.Approve(ctx, "TKA", payerAddr, orchAddr, 100))
		f.provider.FailSwap = true

		_, err := f.uc.TransferWithTokens(ctx, payerAddr, tokenOrder(), provKey)
		require.True(t, domain.IsKind(err, domain.KindProvider))

		require.Equal(t, uint64(100), f.balance(t, "TKA", payerAddr), "funding transfer rolled back")
		require.Equal(t, uint64(0), f.balance(t, "TKA", provAddr))

		allowance, aerr := f.ledger.Allowance(ctx, "TKA", payerAddr, orchAddr)
		require.NoError(t, aerr)
		require.Equal(t, uint64(100), allowance, "allowance restored by rollback")

		require.Empty(t, f.audit.OfType(domain.EventPaymentSent))
		require.Len(t, f.audit.OfType(domain.EventExecutionTransferFailed), 1)
	})

	t.Run("wrong delivery aborts with an invariant violation", func(t *testing.T) {
		for name, deliver := range map[string]uint64{"under": 990, "over": 1000} {
			t.Run(name, func(t *testing.T) {
				f := newPaymentFixture(t)
				f.ledger.Mint("TKA", payerAddr, 100)
				f.ledger.Mint("TKB", provAddr, 2000)
				require.NoError(t, f.ledger.Approve(ctx, "TKA", payerAddr, orchAddr, 100))
				f.provider.DeliverTarget = deliver

				_, err := f.uc.TransferWithTokens(ctx, payerAddr, tokenOrder(), provKey)
				require.True(t, domain.IsKind(err, domain.KindInvariant))
				require.Equal(t, uint64(100), f.balance(t, "TKA", payerAddr))
				require.Equal(t, uint64(2000), f.balance(t, "TKB", provAddr))
				require.Empty(t, f.audit.Events)
			})
		}
	})

	t.Run("default hook serves orders that name none", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.ledger.Mint("TKA", payerAddr, 100)
		f.ledger.Mint("TKB", provAddr, 2000)
		require.NoError(t, f.ledger.Approve(ctx, "TKA", payerAddr, orchAddr, 100))
		f.provider.DeliverTarget = 995
		f.policy.SetString(domain.DefaultPostActionKey(), hookAddr)

		order := tokenOrder()
		order.PostActionAddress = ""

		result, err := f.uc.TransferWithTokens(ctx, payerAddr, order, provKey)
		require.NoError(t, err)
		require.Equal(t, uint64(991), result.NetAmount)
		require.Equal(t, uint64(991), f.balance(t, "TKB", hookAddr))
		require.Len(t, f.hook.Executed, 1)
		require.Equal(t, uint64(991), f.hook.Executed[0].NetAmount)
	})

	t.Run("no explicit and no default hook aborts", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.ledger.Mint("TKA", payerAddr, 100)
		f.ledger.Mint("TKB", provAddr, 2000)
		require.NoError(t, f.ledger.Approve(ctx, "TKA", payerAddr, orchAddr, 100))
		f.provider.DeliverTarget = 995

		order := tokenOrder()
		order.PostActionAddress = ""

		_, err := f.uc.TransferWithTokens(ctx, payerAddr, order, provKey)
		require.True(t, domain.IsKind(err, domain.KindInvalidState))

		require.Equal(t, uint64(100), f.balance(t, "TKA", payerAddr), "rollback undoes the provider funding")
		require.Equal(t, uint64(2000), f.balance(t, "TKB", provAddr))
		require.Equal(t, uint64(0), f.balance(t, "TKB", hookAddr))
		require.Empty(t, f.hook.Executed)
		require.Empty(t, f.audit.Events)
	})

	t.Run("failing post-action aborts the payment", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.ledger.Mint("TKA", payerAddr, 100)
		f.ledger.Mint("TKB", provAddr, 2000)
		require.NoError(t, f.ledger.Approve(ctx, "TKA", payerAddr, orchAddr, 100))
		f.provider.DeliverTarget = 995
		f.hook.Fail = true

		_, err := f.uc.TransferWithTokens(ctx, payerAddr, tokenOrder(), provKey)
		require.True(t, domain.IsKind(err, domain.KindProvider))
		require.Equal(t, uint64(100), f.balance(t, "TKA", payerAddr))
		require.Equal(t, uint64(0), f.balance(t, "TKB", hookAddr))
	})

	t.Run("order preconditions", func(t *testing.T) {
		f := newPaymentFixture(t)

		t.Run("platform paused", func(t *testing.T) {
			f.policy.SetBool(domain.PlatformPausedKey(), true)
			_, err := f.uc.TransferWithTokens(ctx, payerAddr, tokenOrder(), provKey)
			require.True(t, domain.IsKind(err, domain.KindInvalidState))
			f.policy.SetBool(domain.PlatformPausedKey(), false)
		})

		t.Run("unregistered post-action address", func(t *testing.T) {
			order := tokenOrder()
			order.PostActionAddress = "0xstranger"
			_, err := f.uc.TransferWithTokens(ctx, payerAddr, order, provKey)
			require.True(t, domain.IsKind(err, domain.KindValidation))
		})

		t.Run("unavailable target asset", func(t *testing.T) {
			order := tokenOrder()
			order.TargetAsset = "TKZ"
			_, err := f.uc.TransferWithTokens(ctx, payerAddr, order, provKey)
			require.True(t, domain.IsKind(err, domain.KindValidation))
		})

		t.Run("caller must be the sender", func(t *testing.T) {
			_, err := f.uc.TransferWithTokens(ctx, "0ximpostor", tokenOrder(), provKey)
			require.True(t, domain.IsKind(err, domain.KindValidation))
		})

		t.Run("zero amounts", func(t *testing.T) {
			order := tokenOrder()
			order.TargetAmount = 0
			_, err := f.uc.TransferWithTokens(ctx, payerAddr, order, provKey)
			require.True(t, domain.IsKind(err, domain.KindValidation))
		})

		t.Run("zero recipient", func(t *testing.T) {
			order := tokenOrder()
			order.ToAddress = ""
			_, err := f.uc.TransferWithTokens(ctx, payerAddr, order, provKey)
			require.True(t, domain.IsKind(err, domain.KindValidation))
		})

		t.Run("unknown provider key", func(t *testing.T) {
			f.ledger.Mint("TKA", payerAddr, 100)
			require.NoError(t, f.ledger.Approve(ctx, "TKA", payerAddr, orchAddr, 100))
			_, err := f.uc.TransferWithTokens(ctx, payerAddr, tokenOrder(), "ghost")
			require.True(t, domain.IsKind(err, domain.KindInvalidState))
		})
	})

	t.Run("in-flight call blocks a second entry", func(t *testing.T) {
		f := newPaymentFixture(t)
		require.NoError(t, f.uc.Guard.Acquire())
		defer f.uc.Guard.Release()

		_, err := f.uc.TransferWithTokens(ctx, payerAddr, tokenOrder(), provKey)
		require.True(t, domain.IsKind(err, domain.KindInvalidState))
	})
}

func TestTransferWithEthers(t *testing.T) {
	ctx := context.Background()

	nativeOrder := func() *domain.Order {
		return &domain.Order{
			SourceAsset:       domain.NativeAsset,
			TargetAsset:       "TKB",
			SourceAmount:      100,
			TargetAmount:      500,
			MinRate:           1,
			MaxRate:           100,
			FromAddress:       payerAddr,
			ToAddress:         recvAddr,
			PostActionAddress: hookAddr,
		}
	}

	t.Run("native swap refunds unspent value", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.ledger.Mint(domain.NativeAsset, payerAddr, 1000)
		f.ledger.Mint("TKB", provAddr, 2000)
		f.provider.DeliverTarget = 500
		f.provider.KeepValue = 80

		result, err := f.uc.TransferWithEthers(ctx, payerAddr, nativeOrder(), provKey, 100)
		require.NoError(t, err)
		require.Equal(t, uint64(2), result.FeeAmount, "500 * 50bps floors to 2")
		require.Equal(t, uint64(498), result.NetAmount)
		require.Equal(t, uint64(20), result.Leftover)

		require.Equal(t, uint64(920), f.balance(t, domain.NativeAsset, payerAddr))
		require.Equal(t, uint64(80), f.balance(t, domain.NativeAsset, provAddr))
		require.Equal(t, uint64(0), f.balance(t, domain.NativeAsset, orchAddr))
		require.Equal(t, uint64(2), f.balance(t, "TKB", vaultAddr))
		require.Equal(t, uint64(498), f.balance(t, "TKB", hookAddr))
	})

	t.Run("native-to-native takes the fast path", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.ledger.Mint(domain.NativeAsset, payerAddr, 1000)

		order := nativeOrder()
		order.TargetAsset = domain.NativeAsset
		order.TargetAmount = 90

		result, err := f.uc.TransferWithEthers(ctx, payerAddr, order, provKey, 100)
		require.NoError(t, err)
		require.True(t, result.FastPath)
		require.Equal(t, uint64(90), f.balance(t, domain.NativeAsset, recvAddr))
		require.Equal(t, 0, f.provider.SwapCalls)
	})

	t.Run("value preconditions", func(t *testing.T) {
		f := newPaymentFixture(t)

		order := nativeOrder()
		order.SourceAsset = "TKA"
		_, err := f.uc.TransferWithEthers(ctx, payerAddr, order, provKey, 100)
		require.True(t, domain.IsKind(err, domain.KindValidation), "source asset must be native")

		_, err = f.uc.TransferWithEthers(ctx, payerAddr, nativeOrder(), provKey, 0)
		require.True(t, domain.IsKind(err, domain.KindValidation), "zero value")

		_, err = f.uc.TransferWithEthers(ctx, payerAddr, nativeOrder(), provKey, 99)
		require.True(t, domain.IsKind(err, domain.KindValidation), "value must equal source amount")
	})

	t.Run("provider failure refunds the attached value", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.ledger.Mint(domain.NativeAsset, payerAddr, 1000)
		f.ledger.Mint("TKB", provAddr, 2000)
		f.provider.FailSwap = true

		_, err := f.uc.TransferWithEthers(ctx, payerAddr, nativeOrder(), provKey, 100)
		require.True(t, domain.IsKind(err, domain.KindProvider))
		require.Equal(t, uint64(1000), f.balance(t, domain.NativeAsset, payerAddr))
		require.Len(t, f.audit.OfType(domain.EventExecutionTransferFailed), 1)
	})
}
