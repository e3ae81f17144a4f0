package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer trace.Tracer = otel.Tracer("pos_backend/models")

// Sale is immutable once created: there is no update or delete path.
// Line items snapshot product name and unit price at sale time so
// historical receipts survive later catalog changes.
type Sale struct {
	ID              int             `gorm:"primary_key" json:"id"`
	TransactionId   string          `gorm:"size:64;not null;unique" json:"transaction_id"`
	Items           []SaleItem      `gorm:"foreignKey:SaleId" json:"items"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(8,4);default:0" json:"discount_percent"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	Tax             decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"tax"`
	Total           decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
	PaymentMethod   string          `gorm:"size:20;not null;default:cash" json:"payment_method"`
	CashierId       int             `gorm:"index;not null" json:"cashier_id"`
	CashierName     string          `gorm:"size:100;not null" json:"cashier_name"`
	CreatedAt       time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

type SaleItem struct {
	ID        int             `gorm:"primary_key" json:"id"`
	SaleId    int             `gorm:"index;not null" json:"sale_id"`
	ProductId int             `gorm:"index;not null" json:"product_id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Total     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
}

type NewSaleItem struct {
	ProductId int `json:"productId" binding:"required"`
	Quantity  int `json:"quantity" binding:"required,min=1"`
}

// NewSale is the cart payload. Client-submitted totals are never
// accepted: amounts are recomputed from stored unit prices.
type NewSale struct {
	Items           []NewSaleItem   `json:"items" binding:"required,min=1,dive"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	PaymentMethod   string          `json:"paymentMethod"`
}

func (input *NewSale) validate() error {
	if len(input.Items) == 0 {
		return NewValidationError("cart must contain at least one item")
	}
	for i, item := range input.Items {
		if item.ProductId <= 0 {
			return NewValidationError("item %d: productId is required", i)
		}
		if item.Quantity < 1 {
			return NewValidationError("item %d: quantity must be at least 1", i)
		}
	}
	if input.DiscountPercent.IsNegative() || input.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return NewValidationError("discount percent must be between 0 and 100")
	}
	return nil
}

// mergedLines collapses duplicate product lines so a cart yields one
// decrement and one ledger entry per distinct product. Lines come back
// ordered by product id: every checkout locks product rows in the same
// order, so two carts sharing products cannot deadlock each other.
func (input *NewSale) mergedLines() []NewSaleItem {
	index := make(map[int]int, len(input.Items))
	lines := make([]NewSaleItem, 0, len(input.Items))
	for _, item := range input.Items {
		if pos, ok := index[item.ProductId]; ok {
			lines[pos].Quantity += item.Quantity
			continue
		}
		index[item.ProductId] = len(lines)
		lines = append(lines, item)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductId < lines[j].ProductId })
	return lines
}

type SaleTotals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Tax            decimal.Decimal
	Total          decimal.Decimal
}

// ComputeSaleTotals applies the discount before tax:
// total = subtotal * (1 - discount/100) * (1 + taxRate).
// Full precision is retained; rounding happens at display time.
func ComputeSaleTotals(subtotal decimal.Decimal, discountPercent decimal.Decimal, taxRate decimal.Decimal) SaleTotals {
	discountAmount := utils.CalculateDiscountAmount(subtotal, discountPercent)
	discounted := subtotal.Sub(discountAmount)
	tax := utils.CalculateTaxAmount(discounted, taxRate)
	return SaleTotals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		Tax:            tax,
		Total:          discounted.Add(tax),
	}
}

// NextTransactionId returns an opaque unique receipt token.
func NextTransactionId() string {
	return fmt.Sprintf("TXN-%d-%s", time.Now().UnixMilli(), strings.SplitN(uuid.NewString(), "-", 2)[0])
}

// ProcessSale converts a cart into a durable, stock-consistent Sale.
//
// All coordination lives in the database: each line item is decremented
// with `UPDATE products SET quantity = quantity - ? WHERE id = ? AND
// quantity >= ?` inside one transaction that also writes the sale, its
// items and the ledger entries. A zero-row update aborts the whole
// transaction, so a cart either fully applies or leaves no trace, and
// two concurrent sales can never drive a quantity negative.
func ProcessSale(ctx context.Context, input *NewSale) (*Sale, error) {
	ctx, span := tracer.Start(ctx, "ProcessSale")
	defer span.End()

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, NewUnauthorizedError("operator identity is required")
	}
	userName, _ := utils.GetUserNameFromContext(ctx)

	if err := input.validate(); err != nil {
		return nil, err
	}

	settings, err := GetStoreSettings(ctx)
	if err != nil {
		return nil, NewPersistenceError(err)
	}

	db := config.GetDB()
	transactionId := NextTransactionId()

	tx := db.Begin()
	if tx.Error != nil {
		return nil, NewPersistenceError(tx.Error)
	}

	var (
		saleItems []SaleItem
		movements []InventoryMovement
		subtotal  decimal.Decimal
	)

	for _, line := range input.mergedLines() {
		// Conditional decrement: the availability check and the
		// mutation are one statement, serialized by the database.
		res := tx.WithContext(ctx).Model(&Product{}).
			Where("id = ? AND quantity >= ?", line.ProductId, line.Quantity).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", line.Quantity))
		if res.Error != nil {
			tx.Rollback()
			return nil, NewPersistenceError(res.Error)
		}
		if res.RowsAffected == 0 {
			var product Product
			lookupErr := tx.WithContext(ctx).First(&product, line.ProductId).Error
			tx.Rollback()
			if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
				return nil, NewProductNotFoundError(line.ProductId)
			}
			if lookupErr != nil {
				return nil, NewPersistenceError(lookupErr)
			}
			return nil, NewInsufficientStockError(product.Name, product.Quantity, line.Quantity)
		}

		// Re-read inside the transaction: quantity here is the value
		// this transaction applied, not a separately-queried snapshot.
		var product Product
		if err := tx.WithContext(ctx).First(&product, line.ProductId).Error; err != nil {
			tx.Rollback()
			return nil, NewPersistenceError(err)
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		saleItems = append(saleItems, SaleItem{
			ProductId: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  line.Quantity,
			Total:     lineTotal,
		})
		movements = append(movements, InventoryMovement{
			ProductId:     product.ID,
			Kind:          MovementKindSale,
			Quantity:      -line.Quantity,
			PreviousStock: product.Quantity + line.Quantity,
			NewStock:      product.Quantity,
			Reason:        "Sale - " + transactionId,
			UserId:        userId,
		})
	}

	totals := ComputeSaleTotals(subtotal, input.DiscountPercent, settings.TaxRate)
	if totals.Total.IsNegative() {
		tx.Rollback()
		return nil, NewValidationError("computed total must not be negative")
	}

	paymentMethod := strings.TrimSpace(input.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}

	sale := Sale{
		TransactionId:   transactionId,
		Items:           saleItems,
		Subtotal:        totals.Subtotal,
		DiscountPercent: input.DiscountPercent,
		DiscountAmount:  totals.DiscountAmount,
		Tax:             totals.Tax,
		Total:           totals.Total,
		PaymentMethod:   paymentMethod,
		CashierId:       userId,
		CashierName:     userName,
	}
	if err := tx.WithContext(ctx).Create(&sale).Error; err != nil {
		tx.Rollback()
		return nil, NewPersistenceError(err)
	}

	for i := range movements {
		if err := recordMovement(tx, ctx, &movements[i]); err != nil {
			tx.Rollback()
			return nil, NewPersistenceError(err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, NewPersistenceError(err)
	}

	return &sale, nil
}

type SalesFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Cashier   string
	Page      int
	Limit     int
}

// GetSales returns sale history, newest first.
func GetSales(ctx context.Context, filter SalesFilter) ([]*Sale, int64, error) {
	db := config.GetDB()

	if filter.Limit <= 0 {
		filter.Limit = config.SearchLimit
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	query := db.WithContext(ctx).Model(&Sale{})
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}
	if c := strings.TrimSpace(filter.Cashier); c != "" {
		query = query.Where("cashier_name LIKE ?", "%"+c+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*Sale
	err := query.
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&results).Error
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

type DailySummary struct {
	Date                string          `json:"date"`
	TotalSales          decimal.Decimal `json:"total_sales"`
	TotalTransactions   int64           `json:"total_transactions"`
	TotalItems          int64           `json:"total_items"`
	TotalTax            decimal.Decimal `json:"total_tax"`
	AvgTransactionValue decimal.Decimal `json:"avg_transaction_value"`
}

// GetDailySummary aggregates one calendar day of sales. A day without
// sales is a zero summary, not an error.
func GetDailySummary(ctx context.Context, day time.Time) (*DailySummary, error) {
	db := config.GetDB()

	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	endOfDay := startOfDay.Add(24*time.Hour - time.Nanosecond)

	var result DailySummary
	err := db.WithContext(ctx).Raw(`
SELECT
    COALESCE(SUM(s.total), 0) AS total_sales,
    COUNT(s.id) AS total_transactions,
    COALESCE((SELECT SUM(si.quantity)
              FROM sale_items AS si
              JOIN sales AS s2 ON s2.id = si.sale_id
              WHERE s2.created_at BETWEEN @startOfDay AND @endOfDay), 0) AS total_items,
    COALESCE(SUM(s.tax), 0) AS total_tax,
    COALESCE(AVG(s.total), 0) AS avg_transaction_value
FROM sales AS s
WHERE s.created_at BETWEEN @startOfDay AND @endOfDay
`, map[string]interface{}{
		"startOfDay": startOfDay,
		"endOfDay":   endOfDay,
	}).Scan(&result).Error
	if err != nil {
		return nil, err
	}
	result.Date = startOfDay.Format("2006-01-02")
	return &result, nil
}

type TopProduct struct {
	ProductId     int             `json:"product_id"`
	Name          string          `json:"name"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

// GetTopProducts ranks products by quantity sold since the given time.
func GetTopProducts(ctx context.Context, since time.Time, limit int) ([]*TopProduct, error) {
	db := config.GetDB()

	if limit <= 0 {
		limit = 10
	}

	var results []*TopProduct
	err := db.WithContext(ctx).Raw(`
SELECT
    si.product_id,
    si.name,
    SUM(si.quantity) AS total_quantity,
    SUM(si.total) AS total_revenue
FROM sale_items AS si
JOIN sales AS s ON s.id = si.sale_id
WHERE s.created_at >= @since
GROUP BY si.product_id, si.name
ORDER BY total_quantity DESC
LIMIT @limit
`, map[string]interface{}{
		"since": since,
		"limit": limit,
	}).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
