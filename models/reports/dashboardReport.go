package reports

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/shopspring/decimal"
)

type SalesByDay struct {
	Date         string          `json:"date"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	Transactions int64           `json:"transactions"`
}

type MonthlyRevenue struct {
	Month        string          `json:"month"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalTax     decimal.Decimal `json:"total_tax"`
	Transactions int64           `json:"transactions"`
}

// DashboardReport is a composite of independent sections. A failing
// section leaves its slot empty and records the failure in Errors; the
// rest of the dashboard still renders.
type DashboardReport struct {
	LowStock       []*models.Product    `json:"low_stock"`
	SalesByDay     []*SalesByDay        `json:"sales_by_day"`
	TopProducts    []*models.TopProduct `json:"top_products"`
	MonthlyRevenue []*MonthlyRevenue    `json:"monthly_revenue"`
	Errors         map[string]string    `json:"errors,omitempty"`
}

const dashboardTopProductLimit = 3

func dashboardCacheKey() string {
	return "report:dashboard:" + time.Now().Format("2006-01-02")
}

// InvalidateDashboardCache drops the cached dashboard for today. Called
// after a completed sale so the next dashboard read reflects it instead
// of waiting out the TTL.
func InvalidateDashboardCache() {
	if !reportCacheEnabled() {
		return
	}
	_ = config.RemoveRedisKey(dashboardCacheKey())
}

func GetDashboardReport(ctx context.Context, days int) (*DashboardReport, error) {
	started := time.Now()
	defer logSlowReport(ctx, "dashboard", started, map[string]any{"days": days})

	if days <= 0 {
		days = 7
	}

	cacheKey := dashboardCacheKey()
	if reportCacheEnabled() {
		var cached DashboardReport
		if ok, err := cacheGet(cacheKey, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	report := &DashboardReport{Errors: map[string]string{}}
	since := time.Now().AddDate(0, 0, -days)

	lowStock, err := models.GetLowStockProducts(ctx)
	if err != nil {
		report.Errors["low_stock"] = err.Error()
	} else {
		report.LowStock = lowStock
	}

	salesByDay, err := GetSalesByDay(ctx, since)
	if err != nil {
		report.Errors["sales_by_day"] = err.Error()
	} else {
		report.SalesByDay = salesByDay
	}

	topProducts, err := models.GetTopProducts(ctx, since, dashboardTopProductLimit)
	if err != nil {
		report.Errors["top_products"] = err.Error()
	} else {
		report.TopProducts = topProducts
	}

	monthlyRevenue, err := GetMonthlyRevenue(ctx, 12)
	if err != nil {
		report.Errors["monthly_revenue"] = err.Error()
	} else {
		report.MonthlyRevenue = monthlyRevenue
	}

	if len(report.Errors) == 0 {
		report.Errors = nil
		if reportCacheEnabled() {
			_ = cacheSet(cacheKey, report, reportCacheTTL())
		}
	}
	return report, nil
}

// GetSalesByDay groups completed sales by calendar day since the given
// time. Days with no sales are simply absent.
func GetSalesByDay(ctx context.Context, since time.Time) ([]*SalesByDay, error) {
	db := config.GetDB()

	var results []*SalesByDay
	err := db.WithContext(ctx).Raw(`
SELECT
    DATE_FORMAT(created_at, '%Y-%m-%d') AS date,
    COALESCE(SUM(total), 0) AS total_sales,
    COUNT(id) AS transactions
FROM sales
WHERE created_at >= ?
GROUP BY DATE_FORMAT(created_at, '%Y-%m-%d')
ORDER BY date ASC
`, since).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetMonthlyRevenue returns per-month revenue for the trailing N months.
func GetMonthlyRevenue(ctx context.Context, months int) ([]*MonthlyRevenue, error) {
	db := config.GetDB()

	if months <= 0 {
		months = 12
	}
	since := time.Now().AddDate(0, -months, 0)

	var results []*MonthlyRevenue
	err := db.WithContext(ctx).Raw(`
SELECT
    DATE_FORMAT(created_at, '%Y-%m') AS month,
    COALESCE(SUM(total), 0) AS total_revenue,
    COALESCE(SUM(tax), 0) AS total_tax,
    COUNT(id) AS transactions
FROM sales
WHERE created_at >= ?
GROUP BY DATE_FORMAT(created_at, '%Y-%m')
ORDER BY month ASC
`, since).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
