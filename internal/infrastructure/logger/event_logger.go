package logger

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
	"gorm.io/gorm"
)

// AuditEventRow is the persisted replay copy of an audit event. Kafka is
// the primary audit channel; this table survives broker outages and lets
// operators rebuild the event stream.
type AuditEventRow struct {
	ID           uint   `gorm:"primaryKey"`
	EventID      string `gorm:"index"`
	EventType    string
	ProviderKey  string
	ProviderAddr string
	OwnerAddr    string
	PaymentID    string `gorm:"index"`
	FromAddr     string
	ToAddr       string
	SourceAsset  string
	TargetAsset  string
	SourceAmount uint64
	TargetAmount uint64
	FeeAmount    uint64
	NetAmount    uint64
	Leftover     uint64
	Reason       string
	OccurredAt   int64
	LoggedAt     time.Time
}

func (AuditEventRow) TableName() string {
	return "audit_events"
}

type PGAuditLogger struct {
	db *gorm.DB
}

func NewPGAuditLogger(db *gorm.DB) *PGAuditLogger {
	return &PGAuditLogger{db: db}
}

func (l *PGAuditLogger) Record(ctx context.Context, events ...domain.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]AuditEventRow, 0, len(events))
	now := time.Now()
	for _, event := range events {
		rows = append(rows, AuditEventRow{
			EventID:      event.ID,
			EventType:    string(event.Type),
			ProviderKey:  event.ProviderKey,
			ProviderAddr: event.ProviderAddress,
			OwnerAddr:    event.OwnerAddress,
			PaymentID:    event.PaymentID,
			FromAddr:     event.FromAddress,
			ToAddr:       event.ToAddress,
			SourceAsset:  event.SourceAsset,
			TargetAsset:  event.TargetAsset,
			SourceAmount: event.SourceAmount,
			TargetAmount: event.TargetAmount,
			FeeAmount:    event.FeeAmount,
			NetAmount:    event.NetAmount,
			Leftover:     event.Leftover,
			Reason:       event.Reason,
			OccurredAt:   event.OccurredAt,
			LoggedAt:     now,
		})
	}
	return l.db.WithContext(ctx).Create(&rows).Error
}
