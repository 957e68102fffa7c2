package domain

import (
	"context"
	"time"
)

// ProviderRecord is the registry's view of one liquidity provider. Records
// are never physically deleted: unregistering sets Exists=false and a dead
// key can be re-registered by any owner.
type ProviderRecord struct {
	Key           string
	Address       string
	OwnerAddress  string
	CreatedAt     time.Time
	PausedByOwner bool
	PausedByAdmin bool
	Exists        bool
}

func (r *ProviderRecord) IsValid() bool {
	return r != nil && r.Exists && !r.PausedByOwner && !r.PausedByAdmin
}

func (r *ProviderRecord) IsPaused() bool {
	return r != nil && r.Exists && (r.PausedByOwner || r.PausedByAdmin)
}

// ExpectedRate is a per-provider quote slot produced when aggregating rates
// across the registry index. Transient, never persisted.
type ExpectedRate struct {
	ProviderKey string
	MinRate     uint64
	MaxRate     uint64
	Exists      bool
}

// SwapProvider is the capability implemented by each external liquidity
// provider. The orchestrator treats a false return from Swap/SwapNative as
// "no conversion performed"; anything the provider already moved before
// returning false is discarded with the enclosing ledger transaction.
type SwapProvider interface {
	// Quote reports whether the pair is supported and the provider's
	// min/max exchange rates for the given quantity.
	Quote(ctx context.Context, sourceAsset, targetAsset string, amount uint64) (supported bool, minRate, maxRate uint64, err error)

	// Swap converts the order's source amount, already sitting in the
	// provider's account, and delivers exactly order.TargetAmount of the
	// target asset to beneficiary. Unused source may be returned to
	// beneficiary as well.
	Swap(ctx context.Context, ledger Ledger, order *Order, beneficiary string) (bool, error)

	// SwapNative is the native-currency variant: the provider pulls value
	// from beneficiary's native balance and delivers the target asset back
	// to beneficiary, refunding any unused value.
	SwapNative(ctx context.Context, ledger Ledger, order *Order, beneficiary string, value uint64) (bool, error)
}

// ProviderResolver dials the swap capability behind a registered provider
// address.
type ProviderResolver interface {
	Resolve(address string) (SwapProvider, error)
}

// ProviderRepository stores provider records plus the insertion-ordered,
// deduplicated key index used for full enumeration. Save maintains the
// reverse address->key mapping: it is set while the record exists and
// cleared on logical delete.
type ProviderRepository interface {
	// GetByKey returns (nil, nil) for a key that was never registered.
	GetByKey(ctx context.Context, key string) (*ProviderRecord, error)
	// GetKeyByAddress returns "" when no live record holds the address.
	GetKeyByAddress(ctx context.Context, address string) (string, error)
	Save(ctx context.Context, record *ProviderRecord) error
	// AppendIndex appends key to the enumeration index; it is a no-op if
	// the key is already present. Index entries are never removed.
	AppendIndex(ctx context.Context, key string) error
	IndexKeys(ctx context.Context) ([]string, error)
}
