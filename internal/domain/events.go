package domain

import "context"

// AuditTopic is the kafka topic carrying the audit event stream.
const AuditTopic = "swap-audit-events"

type EventType string

const (
	EventProviderRegistered       EventType = "PROVIDER_REGISTERED"
	EventProviderUnregistered     EventType = "PROVIDER_UNREGISTERED"
	EventProviderPausedByOwner    EventType = "PROVIDER_PAUSED_BY_OWNER"
	EventProviderUnpausedByOwner  EventType = "PROVIDER_UNPAUSED_BY_OWNER"
	EventProviderPausedByAdmin    EventType = "PROVIDER_PAUSED_BY_ADMIN"
	EventProviderUnpausedByAdmin  EventType = "PROVIDER_UNPAUSED_BY_ADMIN"
	EventPaymentSent              EventType = "PAYMENT_SENT"
	EventExecutionTransferSuccess EventType = "EXECUTION_TRANSFER_SUCCESS"
	EventExecutionTransferFailed  EventType = "EXECUTION_TRANSFER_FAILED"
)

// AuditEvent is one entry of the append-only audit stream. Each event
// carries enough fields to reconstruct the financial effect of one call;
// consumers treat the stream as a replay log, not a queryable store.
type AuditEvent struct {
	ID              string    `json:"id"`
	Type            EventType `json:"type"`
	OccurredAt      int64     `json:"occurred_at"`
	ProviderKey     string    `json:"provider_key,omitempty"`
	ProviderAddress string    `json:"provider_address,omitempty"`
	OwnerAddress    string    `json:"owner_address,omitempty"`
	PaymentID       string    `json:"payment_id,omitempty"`
	FromAddress     string    `json:"from_address,omitempty"`
	ToAddress       string    `json:"to_address,omitempty"`
	SourceAsset     string    `json:"source_asset,omitempty"`
	TargetAsset     string    `json:"target_asset,omitempty"`
	SourceAmount    uint64    `json:"source_amount,omitempty"`
	TargetAmount    uint64    `json:"target_amount,omitempty"`
	FeeAmount       uint64    `json:"fee_amount,omitempty"`
	NetAmount       uint64    `json:"net_amount,omitempty"`
	Leftover        uint64    `json:"leftover,omitempty"`
	Reason          string    `json:"reason,omitempty"`
}

// AuditRecorder appends events to the audit stream. Orchestrator calls
// buffer their events and record them only after the unit of work has
// committed, so aborted calls leave nothing behind.
type AuditRecorder interface {
	Record(ctx context.Context, events ...AuditEvent) error
}

// MultiAuditRecorder fans events out to several sinks (kafka stream plus
// the postgres replay log).
type MultiAuditRecorder []AuditRecorder

func (m MultiAuditRecorder) Record(ctx context.Context, events ...AuditEvent) error {
	var firstErr error
	for _, r := range m {
		if err := r.Record(ctx, events...); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
