package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LavaJover/shvark-swap-service/internal/clock"
	"github.com/LavaJover/shvark-swap-service/internal/domain"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/vault"
	"github.com/LavaJover/shvark-swap-service/internal/testutil"
	"github.com/LavaJover/shvark-swap-service/internal/usecase"
	"github.com/LavaJover/shvark-swap-service/internal/usecase/payment"
	"github.com/LavaJover/shvark-swap-service/internal/usecase/registry"
	"github.com/stretchr/testify/require"
)

type serverFixture struct {
	mux    *http.ServeMux
	ledger *testutil.MemLedger
	policy *testutil.MemPolicyStore
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	ledger := testutil.NewMemLedger()
	policy := testutil.NewMemPolicyStore()
	policy.SetBool(domain.AssetAvailableKey("TKA"), true)
	policy.SetUint(domain.PlatformFeeBpsKey(), 50)

	repo := testutil.NewMemProviderRepo()
	resolver := &testutil.FakeResolver{Providers: map[string]domain.SwapProvider{}}
	guard := usecase.NewEntryGuard()
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	providerRegistry := registry.NewDefaultProviderRegistry(repo, policy, resolver, nil, guard, clk, nil)
	paymentUsecase := payment.NewDefaultPaymentUsecase(
		ledger,
		providerRegistry,
		resolver,
		policy,
		vault.NewLedgerVault("0xvault"),
		&testutil.FakePostActionResolver{Hooks: map[string]domain.PostAction{}},
		nil,
		guard,
		clk,
		nil,
		"0xorch",
	)

	mux := NewRouter(
		NewRegistryHandler(providerRegistry),
		NewPaymentHandler(paymentUsecase),
		NewStatusHandler("test", policy),
	)
	return &serverFixture{mux: mux, ledger: ledger, policy: policy}
}

func (f *serverFixture) do(method, target, caller, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if caller != "" {
		req.Header.Set("X-Caller-Address", caller)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func TestProviderEndpoints(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(http.MethodPost, "/providers", "0xowner", `{"key":"swapper-1","address":"0xcap1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodPost, "/providers", "0xother", `{"key":"swapper-1","address":"0xcap2"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodGet, "/providers/swapper-1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var provider providerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &provider))
	require.Equal(t, "0xcap1", provider.Address)
	require.True(t, provider.Valid)

	rec = f.do(http.MethodGet, "/providers/ghost", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/providers/swapper-1/pause", "0xother", "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/providers/swapper-1/pause", "0xowner", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodGet, "/providers", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var providers []providerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &providers))
	require.Len(t, providers, 1)
	require.False(t, providers[0].Valid)
}

func TestPaymentEndpoint(t *testing.T) {
	f := newServerFixture(t)
	ctx := context.Background()
	f.ledger.Mint("TKA", "0xpayer", 100)
	require.NoError(t, f.ledger.Approve(ctx, "TKA", "0xpayer", "0xorch", 60))

	body := `{"provider_key":"any","source_asset":"TKA","target_asset":"TKA",` +
		`"source_amount":60,"target_amount":60,"from_address":"0xpayer","to_address":"0xrecv"}`
	rec := f.do(http.MethodPost, "/payments/tokens", "0xpayer", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var result paymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.True(t, result.FastPath)
	require.Equal(t, uint64(60), result.NetAmount)
	require.NotEmpty(t, result.PaymentID)

	t.Run("validation maps to 400", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/payments/tokens", "0ximpostor", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "validation", resp.Code)
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/payments/tokens", "0xpayer", `{"nope":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStatusEndpoints(t *testing.T) {
	f := newServerFixture(t)
	f.policy.SetBool(domain.PlatformPausedKey(), true)

	rec := f.do(http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, "test", status.Env)
	require.True(t, status.PlatformPaused)
	require.Equal(t, uint64(50), status.PlatformFeeBps)
}
