package postgres

import (
	"log"

	"github.com/LavaJover/shvark-swap-service/internal/config"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func MustInitDB(cfg *config.SwapConfig) *gorm.DB {
	dsn := cfg.SwapDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	db.AutoMigrate(
		&models.LedgerAccountModel{},
		&models.AllowanceModel{},
		&models.ProviderRecordModel{},
		&models.ProviderIndexModel{},
		&models.PolicyEntryModel{},
	)

	return db
}
