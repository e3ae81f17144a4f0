package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StoreSetting is a single-row table holding store-wide configuration.
// TaxRate is a fraction (0.16 = 16%) applied to the discounted subtotal.
type StoreSetting struct {
	ID           int             `gorm:"primary_key" json:"id"`
	StoreName    string          `gorm:"size:255;not null;default:'Supermarket POS'" json:"store_name"`
	CurrencyCode string          `gorm:"size:3;not null;default:'USD'" json:"currency_code"`
	TaxRate      decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0.16" json:"tax_rate"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

var defaultTaxRate = decimal.NewFromFloat(0.16)

// GetStoreSettings returns the settings row, falling back to defaults
// when the row has not been seeded yet so checkout never hard-fails on
// a fresh database.
func GetStoreSettings(ctx context.Context) (*StoreSetting, error) {
	db := config.GetDB()

	var settings StoreSetting
	err := db.WithContext(ctx).Order("id ASC").First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &StoreSetting{
			StoreName:    "Supermarket POS",
			CurrencyCode: "USD",
			TaxRate:      defaultTaxRate,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

type UpdateSettingsInput struct {
	StoreName    string          `json:"store_name" binding:"required"`
	CurrencyCode string          `json:"currency_code" binding:"required,len=3"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
}

func UpdateStoreSettings(ctx context.Context, input *UpdateSettingsInput) (*StoreSetting, error) {
	db := config.GetDB()

	if strings.TrimSpace(input.StoreName) == "" {
		return nil, NewValidationError("store name is required")
	}
	if input.TaxRate.IsNegative() || input.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, NewValidationError("tax rate must be a fraction between 0 and 1")
	}

	var settings StoreSetting
	err := db.WithContext(ctx).Order("id ASC").First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = StoreSetting{
			StoreName:    strings.TrimSpace(input.StoreName),
			CurrencyCode: strings.ToUpper(input.CurrencyCode),
			TaxRate:      input.TaxRate,
		}
		if err := db.WithContext(ctx).Create(&settings).Error; err != nil {
			return nil, NewPersistenceError(err)
		}
		return &settings, nil
	}
	if err != nil {
		return nil, NewPersistenceError(err)
	}

	err = db.WithContext(ctx).Model(&settings).Updates(map[string]interface{}{
		"store_name":    strings.TrimSpace(input.StoreName),
		"currency_code": strings.ToUpper(input.CurrencyCode),
		"tax_rate":      input.TaxRate,
	}).Error
	if err != nil {
		return nil, NewPersistenceError(err)
	}
	return &settings, nil
}
