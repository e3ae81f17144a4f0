package reports

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"github.com/shopspring/decimal"
)

type RevenueReport struct {
	From         string          `json:"from"`
	To           string          `json:"to"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalTax     decimal.Decimal `json:"total_tax"`
	TotalItems   int64           `json:"total_items"`
	Transactions int64           `json:"transactions"`
}

// GetRevenueReport sums completed sales inside [from, to].
func GetRevenueReport(ctx context.Context, from time.Time, to time.Time) (*RevenueReport, error) {
	started := time.Now()
	defer logSlowReport(ctx, "revenue", started, map[string]any{"from": from, "to": to})

	db := config.GetDB()

	var result RevenueReport
	err := db.WithContext(ctx).Raw(`
SELECT
    COALESCE(SUM(s.total), 0) AS total_revenue,
    COALESCE(SUM(s.tax), 0) AS total_tax,
    COALESCE((SELECT SUM(si.quantity)
              FROM sale_items AS si
              JOIN sales AS s2 ON s2.id = si.sale_id
              WHERE s2.created_at BETWEEN @from AND @to), 0) AS total_items,
    COUNT(s.id) AS transactions
FROM sales AS s
WHERE s.created_at BETWEEN @from AND @to
`, map[string]interface{}{
		"from": from,
		"to":   to,
	}).Scan(&result).Error
	if err != nil {
		return nil, err
	}
	result.From = from.Format("2006-01-02")
	result.To = to.Format("2006-01-02")
	return &result, nil
}
