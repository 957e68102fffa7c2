package repository

import (
	"context"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultProviderRepository struct {
	DB *gorm.DB
}

func NewDefaultProviderRepository(db *gorm.DB) *DefaultProviderRepository {
	return &DefaultProviderRepository{DB: db}
}

func (r *DefaultProviderRepository) GetByKey(ctx context.Context, key string) (*domain.ProviderRecord, error) {
	var model models.ProviderRecordModel
	err := r.DB.WithContext(ctx).First(&model, "key = ?", key).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainRecord(&model), nil
}

func (r *DefaultProviderRepository) GetKeyByAddress(ctx context.Context, address string) (string, error) {
	var model models.ProviderRecordModel
	err := r.DB.WithContext(ctx).First(&model, "address = ? AND \"exists\" = true", address).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return model.Key, nil
}

func (r *DefaultProviderRepository) Save(ctx context.Context, record *domain.ProviderRecord) error {
	return r.DB.WithContext(ctx).Save(toGORMRecord(record)).Error
}

func (r *DefaultProviderRepository) AppendIndex(ctx context.Context, key string) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&models.ProviderIndexModel{Key: key}).Error
}

func (r *DefaultProviderRepository) IndexKeys(ctx context.Context) ([]string, error) {
	var keys []string
	err := r.DB.WithContext(ctx).
		Model(&models.ProviderIndexModel{}).
		Order("position ASC").
		Pluck("key", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func toDomainRecord(model *models.ProviderRecordModel) *domain.ProviderRecord {
	return &domain.ProviderRecord{
		Key:           model.Key,
		Address:       model.Address,
		OwnerAddress:  model.OwnerAddress,
		CreatedAt:     model.CreatedAt,
		PausedByOwner: model.PausedByOwner,
		PausedByAdmin: model.PausedByAdmin,
		Exists:        model.Exists,
	}
}

func toGORMRecord(record *domain.ProviderRecord) *models.ProviderRecordModel {
	return &models.ProviderRecordModel{
		Key:           record.Key,
		Address:       record.Address,
		OwnerAddress:  record.OwnerAddress,
		CreatedAt:     record.CreatedAt,
		PausedByOwner: record.PausedByOwner,
		PausedByAdmin: record.PausedByAdmin,
		Exists:        record.Exists,
	}
}
