package models

import "time"

type ProviderRecordModel struct {
	Key           string `gorm:"primaryKey"`
	Address       string `gorm:"index:idx_provider_address"`
	OwnerAddress  string
	CreatedAt     time.Time
	PausedByOwner bool
	PausedByAdmin bool
	Exists        bool
}

func (ProviderRecordModel) TableName() string { return "provider_records" }

// ProviderIndexModel is the insertion-ordered enumeration index. Rows are
// appended once per key and never deleted.
type ProviderIndexModel struct {
	Position uint64 `gorm:"primaryKey;autoIncrement"`
	Key      string `gorm:"uniqueIndex"`
}

func (ProviderIndexModel) TableName() string { return "provider_index" }

// PolicyEntryModel backs the permission/policy store: one typed value per
// hashed logical path.
type PolicyEntryModel struct {
	KeyHash     string `gorm:"primaryKey"`
	BoolValue   bool
	StringValue string
	UintValue   uint64
}

func (PolicyEntryModel) TableName() string { return "policy_entries" }
