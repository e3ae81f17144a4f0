package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"github.com/bsm/redislock"
	"gorm.io/gorm"
)

// MigrateTable runs gorm auto-migration for every table.
func MigrateTable() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&Product{},
		&Sale{},
		&SaleItem{},
		&InventoryMovement{},
		&User{},
		&StoreSetting{},
	)
}

// EnsureStoreSettings inserts the default settings row when none exists.
func EnsureStoreSettings(ctx context.Context) error {
	db := config.GetDB()

	var settings StoreSetting
	err := db.WithContext(ctx).Order("id ASC").First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.WithContext(ctx).Create(&StoreSetting{
			StoreName:    "Supermarket POS",
			CurrencyCode: "USD",
			TaxRate:      defaultTaxRate,
		}).Error
	}
	return err
}

// MigrateTableWithLock serializes migration across replicas with a
// best-effort redis lock. AutoMigrate is idempotent, so losing the lock
// (or running without redis) only risks duplicate DDL attempts, which
// MySQL resolves; the lock just avoids the noise.
func MigrateTableWithLock(ctx context.Context) error {
	logger := config.GetLogger()
	locker := config.GetRedisLock()

	if locker != nil {
		lock, err := locker.Obtain(ctx, "lock:migrate", 2*time.Minute, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(2*time.Second), 30),
		})
		if err == nil {
			defer lock.Release(ctx)
		} else {
			logger.WithError(err).Warn("could not obtain migration lock; migrating anyway")
		}
	}

	if err := MigrateTable(); err != nil {
		return err
	}
	return EnsureStoreSettings(ctx)
}
