// Package testutil holds in-memory fakes for the external collaborators so
// usecase tests can run without postgres or kafka.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
)

type balanceKey struct {
	asset   string
	address string
}

type allowanceKey struct {
	asset   string
	owner   string
	spender string
}

// MemLedger is an in-memory domain.LedgerStore with snapshot-based
// transactions: Begin copies the state, Commit writes it back, Rollback
// discards it.
type MemLedger struct {
	mu         sync.Mutex
	balances   map[balanceKey]uint64
	allowances map[allowanceKey]uint64
}

func NewMemLedger() *MemLedger {
	return &MemLedger{
		balances:   make(map[balanceKey]uint64),
		allowances: make(map[allowanceKey]uint64),
	}
}

// Mint credits an account out of thin air. Test setup only.
func (l *MemLedger) Mint(asset, address string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[balanceKey{asset, address}] += amount
}

func (l *MemLedger) BalanceOf(_ context.Context, asset, address string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[balanceKey{asset, address}], nil
}

func (l *MemLedger) Allowance(_ context.Context, asset, owner, spender string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[allowanceKey{asset, owner, spender}], nil
}

func (l *MemLedger) Approve(_ context.Context, asset, owner, spender string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowances[allowanceKey{asset, owner, spender}] = amount
	return nil
}

func (l *MemLedger) Transfer(_ context.Context, asset, from, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return transfer(l.balances, asset, from, to, amount)
}

func (l *MemLedger) TransferFrom(_ context.Context, asset, owner, spender, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	ak := allowanceKey{asset, owner, spender}
	if l.allowances[ak] < amount {
		return fmt.Errorf("allowance of %s for %s/%s is %d, need %d", asset, owner, spender, l.allowances[ak], amount)
	}
	if err := transfer(l.balances, asset, owner, to, amount); err != nil {
		return err
	}
	l.allowances[ak] -= amount
	return nil
}

func (l *MemLedger) Begin(_ context.Context) (domain.TxLedger, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx := &memTx{
		parent:     l,
		balances:   make(map[balanceKey]uint64, len(l.balances)),
		allowances: make(map[allowanceKey]uint64, len(l.allowances)),
	}
	for k, v := range l.balances {
		tx.balances[k] = v
	}
	for k, v := range l.allowances {
		tx.allowances[k] = v
	}
	return tx, nil
}

type memTx struct {
	parent     *MemLedger
	balances   map[balanceKey]uint64
	allowances map[allowanceKey]uint64
	done       bool
}

func (t *memTx) BalanceOf(_ context.Context, asset, address string) (uint64, error) {
	return t.balances[balanceKey{asset, address}], nil
}

func (t *memTx) Allowance(_ context.Context, asset, owner, spender string) (uint64, error) {
	return t.allowances[allowanceKey{asset, owner, spender}], nil
}

func (t *memTx) Approve(_ context.Context, asset, owner, spender string, amount uint64) error {
	t.allowances[allowanceKey{asset, owner, spender}] = amount
	return nil
}

func (t *memTx) Transfer(_ context.Context, asset, from, to string, amount uint64) error {
	return transfer(t.balances, asset, from, to, amount)
}

func (t *memTx) TransferFrom(_ context.Context, asset, owner, spender, to string, amount uint64) error {
	ak := allowanceKey{asset, owner, spender}
	if t.allowances[ak] < amount {
		return fmt.Errorf("allowance of %s for %s/%s is %d, need %d", asset, owner, spender, t.allowances[ak], amount)
	}
	if err := transfer(t.balances, asset, owner, to, amount); err != nil {
		return err
	}
	t.allowances[ak] -= amount
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	t.parent.balances = t.balances
	t.parent.allowances = t.allowances
	return nil
}

func (t *memTx) Rollback() error {
	t.done = true
	return nil
}

func transfer(balances map[balanceKey]uint64, asset, from, to string, amount uint64) error {
	fk := balanceKey{asset, from}
	if balances[fk] < amount {
		return fmt.Errorf("balance of %s for %s is %d, need %d", asset, from, balances[fk], amount)
	}
	balances[fk] -= amount
	balances[balanceKey{asset, to}] += amount
	return nil
}
