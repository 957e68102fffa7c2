package models

// LedgerAccountModel holds one (asset, address) balance.
type LedgerAccountModel struct {
	Asset   string `gorm:"primaryKey"`
	Address string `gorm:"primaryKey"`
	Balance uint64 `gorm:"not null;default:0"`
}

func (LedgerAccountModel) TableName() string { return "ledger_accounts" }

// AllowanceModel holds the amount an owner allows a spender to move.
type AllowanceModel struct {
	Asset   string `gorm:"primaryKey"`
	Owner   string `gorm:"primaryKey"`
	Spender string `gorm:"primaryKey"`
	Amount  uint64 `gorm:"not null;default:0"`
}

func (AllowanceModel) TableName() string { return "ledger_allowances" }
