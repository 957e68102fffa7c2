package domain

import "context"

// Ledger is the asset-transfer collaborator. Balances and allowances follow
// standard fungible-token semantics; the native currency moves through the
// same interface under the NativeAsset identifier (no allowance required,
// the orchestrator attaches value by transferring it up front).
type Ledger interface {
	BalanceOf(ctx context.Context, asset, address string) (uint64, error)
	Allowance(ctx context.Context, asset, owner, spender string) (uint64, error)
	Approve(ctx context.Context, asset, owner, spender string, amount uint64) error
	Transfer(ctx context.Context, asset, from, to string, amount uint64) error
	// TransferFrom moves amount of owner's funds to the recipient, spending
	// the allowance owner granted to spender.
	TransferFrom(ctx context.Context, asset, owner, spender, to string, amount uint64) error
}

// TxLedger is a ledger handle scoped to one unit of work. A payment either
// commits all of its movements or none of them.
type TxLedger interface {
	Ledger
	Commit() error
	Rollback() error
}

// LedgerStore opens ledger transactions and serves reads outside any unit of
// work.
type LedgerStore interface {
	Ledger
	Begin(ctx context.Context) (TxLedger, error)
}

// Vault custodies accumulated platform fees. Token fees are transferred to
// its address; native fees are swept through Deposit.
type Vault interface {
	Address() string
	Deposit(ctx context.Context, ledger Ledger, from string, amount uint64) error
}
