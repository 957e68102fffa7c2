package postgres

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PGLedgerStore implements domain.LedgerStore on top of postgres. A unit of
// work maps to one database transaction; balance rows are locked for update
// so concurrent calls cannot double-spend.
type PGLedgerStore struct {
	DB *gorm.DB
}

func NewPGLedgerStore(db *gorm.DB) *PGLedgerStore {
	return &PGLedgerStore{DB: db}
}

func (s *PGLedgerStore) Begin(ctx context.Context) (domain.TxLedger, error) {
	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("beginning ledger transaction: %w", tx.Error)
	}
	return &pgLedgerTx{db: tx}, nil
}

func (s *PGLedgerStore) BalanceOf(ctx context.Context, asset, address string) (uint64, error) {
	return balanceOf(s.DB.WithContext(ctx), asset, address, false)
}

func (s *PGLedgerStore) Allowance(ctx context.Context, asset, owner, spender string) (uint64, error) {
	return allowance(s.DB.WithContext(ctx), asset, owner, spender)
}

func (s *PGLedgerStore) Approve(ctx context.Context, asset, owner, spender string, amount uint64) error {
	return approve(s.DB.WithContext(ctx), asset, owner, spender, amount)
}

func (s *PGLedgerStore) Transfer(ctx context.Context, asset, from, to string, amount uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return transfer(tx, asset, from, to, amount)
	})
}

func (s *PGLedgerStore) TransferFrom(ctx context.Context, asset, owner, spender, to string, amount uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return transferFrom(tx, asset, owner, spender, to, amount)
	})
}

type pgLedgerTx struct {
	db *gorm.DB
}

func (t *pgLedgerTx) BalanceOf(_ context.Context, asset, address string) (uint64, error) {
	return balanceOf(t.db, asset, address, false)
}

func (t *pgLedgerTx) Allowance(_ context.Context, asset, owner, spender string) (uint64, error) {
	return allowance(t.db, asset, owner, spender)
}

func (t *pgLedgerTx) Approve(_ context.Context, asset, owner, spender string, amount uint64) error {
	return approve(t.db, asset, owner, spender, amount)
}

func (t *pgLedgerTx) Transfer(_ context.Context, asset, from, to string, amount uint64) error {
	return transfer(t.db, asset, from, to, amount)
}

func (t *pgLedgerTx) TransferFrom(_ context.Context, asset, owner, spender, to string, amount uint64) error {
	return transferFrom(t.db, asset, owner, spender, to, amount)
}

func (t *pgLedgerTx) Commit() error {
	return t.db.Commit().Error
}

func (t *pgLedgerTx) Rollback() error {
	return t.db.Rollback().Error
}

func balanceOf(db *gorm.DB, asset, address string, forUpdate bool) (uint64, error) {
	var account models.LedgerAccountModel
	query := db
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := query.First(&account, "asset = ? AND address = ?", asset, address).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func allowance(db *gorm.DB, asset, owner, spender string) (uint64, error) {
	var row models.AllowanceModel
	err := db.First(&row, "asset = ? AND owner = ? AND spender = ?", asset, owner, spender).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Amount, nil
}

func approve(db *gorm.DB, asset, owner, spender string, amount uint64) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset"}, {Name: "owner"}, {Name: "spender"}},
		DoUpdates: clause.Assignments(map[string]any{"amount": amount}),
	}).Create(&models.AllowanceModel{
		Asset:   asset,
		Owner:   owner,
		Spender: spender,
		Amount:  amount,
	}).Error
}

func transfer(db *gorm.DB, asset, from, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	balance, err := balanceOf(db, asset, from, true)
	if err != nil {
		return err
	}
	if balance < amount {
		return fmt.Errorf("balance of %s for %s is %d, need %d", asset, from, balance, amount)
	}
	if err := db.Model(&models.LedgerAccountModel{}).
		Where("asset = ? AND address = ?", asset, from).
		Update("balance", gorm.Expr("balance - ?", amount)).Error; err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset"}, {Name: "address"}},
		DoUpdates: clause.Assignments(map[string]any{"balance": gorm.Expr("ledger_accounts.balance + ?", amount)}),
	}).Create(&models.LedgerAccountModel{
		Asset:   asset,
		Address: to,
		Balance: amount,
	}).Error
}

func transferFrom(db *gorm.DB, asset, owner, spender, to string, amount uint64) error {
	granted, err := allowance(db, asset, owner, spender)
	if err != nil {
		return err
	}
	if granted < amount {
		return fmt.Errorf("allowance of %s for %s/%s is %d, need %d", asset, owner, spender, granted, amount)
	}
	if err := transfer(db, asset, owner, to, amount); err != nil {
		return err
	}
	return db.Model(&models.AllowanceModel{}).
		Where("asset = ? AND owner = ? AND spender = ?", asset, owner, spender).
		Update("amount", gorm.Expr("amount - ?", amount)).Error
}
