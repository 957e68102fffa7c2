package domain

import "context"

// PostAction is the hook invoked after a successful transfer with a summary
// of the transaction. Any failure must surface as an abort of the whole
// order.
type PostAction interface {
	Execute(ctx context.Context, ledger Ledger, data *PostActionData) error
}

// PostActionResolver dials the hook capability behind a registered
// post-action address.
type PostActionResolver interface {
	Resolve(address string) (PostAction, error)
}
