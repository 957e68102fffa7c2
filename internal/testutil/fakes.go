package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
)

// MemProviderRepo is an in-memory domain.ProviderRepository.
type MemProviderRepo struct {
	mu      sync.Mutex
	records map[string]domain.ProviderRecord
	byAddr  map[string]string
	index   []string
	indexed map[string]bool
}

func NewMemProviderRepo() *MemProviderRepo {
	return &MemProviderRepo{
		records: make(map[string]domain.ProviderRecord),
		byAddr:  make(map[string]string),
		indexed: make(map[string]bool),
	}
}

func (r *MemProviderRepo) GetByKey(_ context.Context, key string) (*domain.ProviderRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *MemProviderRepo) GetKeyByAddress(_ context.Context, address string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byAddr[address], nil
}

func (r *MemProviderRepo) Save(_ context.Context, record *domain.ProviderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.records[record.Key]; ok && old.Address != "" {
		delete(r.byAddr, old.Address)
	}
	r.records[record.Key] = *record
	if record.Exists && record.Address != "" {
		r.byAddr[record.Address] = record.Key
	}
	return nil
}

func (r *MemProviderRepo) AppendIndex(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.indexed[key] {
		r.indexed[key] = true
		r.index = append(r.index, key)
	}
	return nil
}

func (r *MemProviderRepo) IndexKeys(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, len(r.index))
	copy(keys, r.index)
	return keys, nil
}

// MemPolicyStore is an in-memory domain.PolicyStore with setters for test
// and bootstrap use.
type MemPolicyStore struct {
	mu      sync.Mutex
	bools   map[domain.PolicyKey]bool
	strings map[domain.PolicyKey]string
	uints   map[domain.PolicyKey]uint64
}

func NewMemPolicyStore() *MemPolicyStore {
	return &MemPolicyStore{
		bools:   make(map[domain.PolicyKey]bool),
		strings: make(map[domain.PolicyKey]string),
		uints:   make(map[domain.PolicyKey]uint64),
	}
}

func (p *MemPolicyStore) SetBool(key domain.PolicyKey, v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bools[key] = v
}

func (p *MemPolicyStore) SetString(key domain.PolicyKey, v string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.strings[key] = v
}

func (p *MemPolicyStore) SetUint(key domain.PolicyKey, v uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uints[key] = v
}

func (p *MemPolicyStore) GetBool(_ context.Context, key domain.PolicyKey) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bools[key], nil
}

func (p *MemPolicyStore) GetString(_ context.Context, key domain.PolicyKey) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.strings[key], nil
}

func (p *MemPolicyStore) GetUint(_ context.Context, key domain.PolicyKey) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uints[key], nil
}

// FakeProvider is a configurable domain.SwapProvider. Swap delivers
// DeliverTarget of the order's target asset from the provider's account to
// the beneficiary and optionally returns RefundSource of the source asset.
type FakeProvider struct {
	Address       string
	Supported     bool
	MinRate       uint64
	MaxRate       uint64
	QuoteErr      error
	FailSwap      bool
	SwapErr       error
	DeliverTarget uint64
	RefundSource  uint64
	KeepValue     uint64 // native path: value retained; the rest is refunded

	SwapCalls  int
	QuoteCalls int
}

func (p *FakeProvider) Quote(_ context.Context, _, _ string, _ uint64) (bool, uint64, uint64, error) {
	p.QuoteCalls++
	if p.QuoteErr != nil {
		return false, 0, 0, p.QuoteErr
	}
	return p.Supported, p.MinRate, p.MaxRate, nil
}

func (p *FakeProvider) Swap(ctx context.Context, ledger domain.Ledger, order *domain.Order, beneficiary string) (bool, error) {
	p.SwapCalls++
	if p.SwapErr != nil {
		return false, p.SwapErr
	}
	if p.FailSwap {
		return false, nil
	}
	if p.RefundSource > 0 {
		if err := ledger.Transfer(ctx, order.SourceAsset, p.Address, beneficiary, p.RefundSource); err != nil {
			return false, err
		}
	}
	if err := ledger.Transfer(ctx, order.TargetAsset, p.Address, beneficiary, p.DeliverTarget); err != nil {
		return false, err
	}
	return true, nil
}

func (p *FakeProvider) SwapNative(ctx context.Context, ledger domain.Ledger, order *domain.Order, beneficiary string, value uint64) (bool, error) {
	p.SwapCalls++
	if p.SwapErr != nil {
		return false, p.SwapErr
	}
	if p.FailSwap {
		return false, nil
	}
	keep := p.KeepValue
	if keep == 0 || keep > value {
		keep = value
	}
	if err := ledger.Transfer(ctx, domain.NativeAsset, beneficiary, p.Address, keep); err != nil {
		return false, err
	}
	if err := ledger.Transfer(ctx, order.TargetAsset, p.Address, beneficiary, p.DeliverTarget); err != nil {
		return false, err
	}
	return true, nil
}

// FakeResolver maps provider addresses to capabilities.
type FakeResolver struct {
	Providers map[string]domain.SwapProvider
}

func (r *FakeResolver) Resolve(address string) (domain.SwapProvider, error) {
	p, ok := r.Providers[address]
	if !ok {
		return nil, fmt.Errorf("no provider capability at %s", address)
	}
	return p, nil
}

// RecordingAudit collects audit events in memory.
type RecordingAudit struct {
	mu     sync.Mutex
	Events []domain.AuditEvent
}

func (a *RecordingAudit) Record(_ context.Context, events ...domain.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Events = append(a.Events, events...)
	return nil
}

func (a *RecordingAudit) OfType(t domain.EventType) []domain.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []domain.AuditEvent
	for _, e := range a.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// FakePostAction records execution and can be told to fail.
type FakePostAction struct {
	Fail     bool
	Executed []*domain.PostActionData
}

func (p *FakePostAction) Execute(_ context.Context, _ domain.Ledger, data *domain.PostActionData) error {
	if p.Fail {
		return fmt.Errorf("post-action rejected payment %s", data.PaymentID)
	}
	p.Executed = append(p.Executed, data)
	return nil
}

// FakePostActionResolver maps hook addresses to capabilities.
type FakePostActionResolver struct {
	Hooks map[string]domain.PostAction
}

func (r *FakePostActionResolver) Resolve(address string) (domain.PostAction, error) {
	h, ok := r.Hooks[address]
	if !ok {
		return nil, fmt.Errorf("no post-action capability at %s", address)
	}
	return h, nil
}
