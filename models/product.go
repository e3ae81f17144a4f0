package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Name         string          `gorm:"size:255;not null;index" json:"name" binding:"required"`
	Barcode      string          `gorm:"size:14;not null;unique" json:"barcode" binding:"required"`
	Price        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	Quantity     int             `gorm:"not null;default:0" json:"quantity"`
	Category     string          `gorm:"size:100" json:"category"`
	Location     string          `gorm:"size:100" json:"location"`
	ReorderLevel int             `gorm:"not null;default:10" json:"reorder_level"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name         string          `json:"name" binding:"required"`
	Barcode      string          `json:"barcode" binding:"required,barcode"`
	Price        decimal.Decimal `json:"price" binding:"required"`
	Quantity     int             `json:"quantity" binding:"min=0"`
	Category     string          `json:"category"`
	Location     string          `json:"location"`
	ReorderLevel int             `json:"reorder_level" binding:"min=0"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProduct) validate(ctx context.Context, id int) error {
	if input.Price.IsNegative() {
		return NewValidationError("price must not be negative")
	}
	if input.Quantity < 0 {
		return NewValidationError("quantity must not be negative")
	}
	if err := utils.ValidateUnique[Product](ctx, "barcode", input.Barcode, id); err != nil {
		return NewValidationError("product with this barcode already exists")
	}
	return nil
}

func GetAllProducts(ctx context.Context, search string) ([]*Product, error) {
	db := config.GetDB()
	var results []*Product

	query := db.WithContext(ctx).Model(&Product{})
	if s := strings.TrimSpace(search); s != "" {
		pattern := "%" + s + "%"
		query = query.Where("name LIKE ? OR barcode LIKE ?", pattern, pattern)
	}
	if err := query.Order("name ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return utils.FetchSingleModel[Product](ctx, id)
}

func GetProductByBarcode(ctx context.Context, barcode string) (*Product, error) {
	db := config.GetDB()
	var result Product
	if err := db.WithContext(ctx).Where("barcode = ?", barcode).First(&result).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

// GetLowStockProducts returns products at or below their reorder level,
// lowest quantity first. Products with no reorder level configured fall
// back to a fixed threshold.
const lowStockFallbackThreshold = 5

func GetLowStockProducts(ctx context.Context) ([]*Product, error) {
	db := config.GetDB()
	var results []*Product
	err := db.WithContext(ctx).
		Where("quantity <= IF(reorder_level > 0, reorder_level, ?)", lowStockFallbackThreshold).
		Order("quantity ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CreateProduct inserts the product and, when it arrives with opening
// stock, the matching stock_in ledger entry in the same transaction.
func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	db := config.GetDB()

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, NewUnauthorizedError("operator identity is required")
	}

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	product := Product{
		Name:         strings.TrimSpace(input.Name),
		Barcode:      input.Barcode,
		Price:        input.Price,
		Quantity:     input.Quantity,
		Category:     input.Category,
		Location:     input.Location,
		ReorderLevel: input.ReorderLevel,
	}
	if product.ReorderLevel == 0 {
		product.ReorderLevel = 10
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, NewPersistenceError(tx.Error)
	}

	if err := tx.WithContext(ctx).Create(&product).Error; err != nil {
		tx.Rollback()
		return nil, NewPersistenceError(err)
	}

	if product.Quantity > 0 {
		movement := InventoryMovement{
			ProductId:     product.ID,
			Kind:          MovementKindStockIn,
			Quantity:      product.Quantity,
			PreviousStock: 0,
			NewStock:      product.Quantity,
			Reason:        "Initial stock",
			UserId:        userId,
		}
		if err := recordMovement(tx, ctx, &movement); err != nil {
			tx.Rollback()
			return nil, NewPersistenceError(err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, NewPersistenceError(err)
	}
	return &product, nil
}

// UpdateProduct rewrites catalog fields. A quantity change is a manual
// adjustment and appends a ledger entry in the same transaction.
func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	db := config.GetDB()

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, NewUnauthorizedError("operator identity is required")
	}

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, NewPersistenceError(tx.Error)
	}

	var product Product
	if err := tx.WithContext(ctx).First(&product, id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewProductNotFoundError(id)
		}
		return nil, NewPersistenceError(err)
	}

	previousStock := product.Quantity
	err := tx.WithContext(ctx).Model(&product).Updates(map[string]interface{}{
		"name":          strings.TrimSpace(input.Name),
		"barcode":       input.Barcode,
		"price":         input.Price,
		"quantity":      input.Quantity,
		"category":      input.Category,
		"location":      input.Location,
		"reorder_level": input.ReorderLevel,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, NewPersistenceError(err)
	}

	if input.Quantity != previousStock {
		movement := InventoryMovement{
			ProductId:     product.ID,
			Kind:          MovementKindAdjustment,
			Quantity:      input.Quantity - previousStock,
			PreviousStock: previousStock,
			NewStock:      input.Quantity,
			Reason:        "Manual adjustment",
			UserId:        userId,
		}
		if err := recordMovement(tx, ctx, &movement); err != nil {
			tx.Rollback()
			return nil, NewPersistenceError(err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, NewPersistenceError(err)
	}
	return &product, nil
}

type NewStockIn struct {
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Reason   string `json:"reason"`
}

// StockIn adds received stock. The increment is unconditional (stock
// only grows here) but still runs in one transaction with its ledger
// entry so the ledger's new_stock matches the product row.
func StockIn(ctx context.Context, id int, input *NewStockIn) (*Product, error) {
	db := config.GetDB()

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, NewUnauthorizedError("operator identity is required")
	}
	if input.Quantity < 1 {
		return nil, NewValidationError("stock-in quantity must be at least 1")
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, NewPersistenceError(tx.Error)
	}

	res := tx.WithContext(ctx).Model(&Product{}).
		Where("id = ?", id).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", input.Quantity))
	if res.Error != nil {
		tx.Rollback()
		return nil, NewPersistenceError(res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, NewProductNotFoundError(id)
	}

	var product Product
	if err := tx.WithContext(ctx).First(&product, id).Error; err != nil {
		tx.Rollback()
		return nil, NewPersistenceError(err)
	}

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = "Stock received"
	}
	movement := InventoryMovement{
		ProductId:     product.ID,
		Kind:          MovementKindStockIn,
		Quantity:      input.Quantity,
		PreviousStock: product.Quantity - input.Quantity,
		NewStock:      product.Quantity,
		Reason:        reason,
		UserId:        userId,
	}
	if err := recordMovement(tx, ctx, &movement); err != nil {
		tx.Rollback()
		return nil, NewPersistenceError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, NewPersistenceError(err)
	}
	return &product, nil
}

// DeleteProduct refuses to remove a product that historical sales or
// ledger entries still reference: receipts and the audit trail must
// keep resolving. Zero the stock instead and stop selling it.
func DeleteProduct(ctx context.Context, id int) (*Product, error) {
	db := config.GetDB()

	product, err := GetProduct(ctx, id)
	if err != nil {
		return nil, NewProductNotFoundError(id)
	}

	saleRefs, err := utils.ResourceCountWhere[SaleItem](ctx, "product_id = ?", id)
	if err != nil {
		return nil, NewPersistenceError(err)
	}
	ledgerRefs, err := utils.ResourceCountWhere[InventoryMovement](ctx, "product_id = ?", id)
	if err != nil {
		return nil, NewPersistenceError(err)
	}
	if saleRefs > 0 || ledgerRefs > 0 {
		return nil, NewValidationError(
			"product %q is referenced by %d sale item(s) and %d inventory movement(s) and cannot be deleted",
			product.Name, saleRefs, ledgerRefs)
	}

	if err := db.WithContext(ctx).Delete(&Product{}, id).Error; err != nil {
		return nil, NewPersistenceError(err)
	}
	return product, nil
}

func (p *Product) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Barcode)
}
