package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"gorm.io/gorm"
)

// InventoryMovement is the append-only stock ledger: one row per
// stock-affecting operation (stock-in, sale decrement, manual
// adjustment). Rows are never updated or deleted.
type InventoryMovement struct {
	ID            int          `gorm:"primary_key" json:"id"`
	ProductId     int          `gorm:"index;not null" json:"product_id"`
	Kind          MovementKind `gorm:"type:enum('stock_in','sale','adjustment');not null" json:"kind"`
	Quantity      int          `gorm:"not null" json:"quantity"` // signed delta
	PreviousStock int          `gorm:"not null" json:"previous_stock"`
	NewStock      int          `gorm:"not null" json:"new_stock"`
	Reason        string       `gorm:"size:255" json:"reason"`
	UserId        int          `gorm:"index" json:"user_id"`
	CreatedAt     time.Time    `gorm:"autoCreateTime;index" json:"created_at"`
}

// recordMovement appends one ledger row inside the caller's transaction.
// It is never called outside a transaction: previous/new stock must
// reflect the value the same transaction applied to the product row.
func recordMovement(tx *gorm.DB, ctx context.Context, m *InventoryMovement) error {
	if !m.Kind.IsValid() {
		return NewValidationError("invalid movement kind %q", m.Kind)
	}
	if m.PreviousStock+m.Quantity != m.NewStock {
		return fmt.Errorf("inventory movement does not balance: %d + %d != %d",
			m.PreviousStock, m.Quantity, m.NewStock)
	}
	return tx.WithContext(ctx).Create(m).Error
}

type MovementFilter struct {
	ProductId int
	Kind      MovementKind
	Page      int
	Limit     int
}

// GetInventoryMovements lists ledger entries, newest first.
func GetInventoryMovements(ctx context.Context, filter MovementFilter) ([]*InventoryMovement, int64, error) {
	db := config.GetDB()

	if filter.Kind != "" && !filter.Kind.IsValid() {
		return nil, 0, NewValidationError("invalid movement kind %q", filter.Kind)
	}
	if filter.Limit <= 0 {
		filter.Limit = config.SearchLimit
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	query := db.WithContext(ctx).Model(&InventoryMovement{})
	if filter.ProductId > 0 {
		if err := utils.ValidateResourceId[Product](ctx, filter.ProductId); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return nil, 0, NewProductNotFoundError(filter.ProductId)
			}
			return nil, 0, NewPersistenceError(err)
		}
		query = query.Where("product_id = ?", filter.ProductId)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*InventoryMovement
	err := query.
		Order("created_at DESC, id DESC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&results).Error
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
