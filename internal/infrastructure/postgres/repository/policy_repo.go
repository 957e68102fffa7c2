package repository

import (
	"context"
	"encoding/hex"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PGPolicyStore implements domain.PolicyStore on the policy_entries table.
// The core consumes it read-only; the Set methods exist for bootstrap and
// operator tooling. Missing keys read as zero values.
type PGPolicyStore struct {
	DB *gorm.DB
}

func NewPGPolicyStore(db *gorm.DB) *PGPolicyStore {
	return &PGPolicyStore{DB: db}
}

func (s *PGPolicyStore) get(ctx context.Context, key domain.PolicyKey) (*models.PolicyEntryModel, error) {
	var entry models.PolicyEntryModel
	err := s.DB.WithContext(ctx).First(&entry, "key_hash = ?", hashString(key)).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *PGPolicyStore) GetBool(ctx context.Context, key domain.PolicyKey) (bool, error) {
	entry, err := s.get(ctx, key)
	if err != nil || entry == nil {
		return false, err
	}
	return entry.BoolValue, nil
}

func (s *PGPolicyStore) GetString(ctx context.Context, key domain.PolicyKey) (string, error) {
	entry, err := s.get(ctx, key)
	if err != nil || entry == nil {
		return "", err
	}
	return entry.StringValue, nil
}

func (s *PGPolicyStore) GetUint(ctx context.Context, key domain.PolicyKey) (uint64, error) {
	entry, err := s.get(ctx, key)
	if err != nil || entry == nil {
		return 0, err
	}
	return entry.UintValue, nil
}

func (s *PGPolicyStore) SetBool(ctx context.Context, key domain.PolicyKey, value bool) error {
	return s.upsert(ctx, &models.PolicyEntryModel{KeyHash: hashString(key), BoolValue: value},
		map[string]any{"bool_value": value})
}

func (s *PGPolicyStore) SetString(ctx context.Context, key domain.PolicyKey, value string) error {
	return s.upsert(ctx, &models.PolicyEntryModel{KeyHash: hashString(key), StringValue: value},
		map[string]any{"string_value": value})
}

func (s *PGPolicyStore) SetUint(ctx context.Context, key domain.PolicyKey, value uint64) error {
	return s.upsert(ctx, &models.PolicyEntryModel{KeyHash: hashString(key), UintValue: value},
		map[string]any{"uint_value": value})
}

func (s *PGPolicyStore) upsert(ctx context.Context, entry *models.PolicyEntryModel, assignments map[string]any) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key_hash"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(entry).Error
}

func hashString(key domain.PolicyKey) string {
	return hex.EncodeToString(key[:])
}
