package models_test

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/models/reports"
	"github.com/shopspring/decimal"
)

func TestLowStockUsesReorderLevelWithFallback(t *testing.T) {
	ctx := setupCheckoutDB(t)

	// reorder_level 10: quantity 10 is low, 11 is not.
	mustCreateProductFull(t, ctx, "At Level", "40063813000110", 10, 10)
	mustCreateProductFull(t, ctx, "Above Level", "40063813000127", 11, 10)
	// reorder_level 0 falls back to the fixed threshold of 5.
	mustCreateProductFull(t, ctx, "Fallback Low", "40063813000134", 5, 0)
	mustCreateProductFull(t, ctx, "Fallback OK", "40063813000141", 6, 0)

	low, err := models.GetLowStockProducts(ctx)
	if err != nil {
		t.Fatalf("GetLowStockProducts: %v", err)
	}

	names := map[string]bool{}
	for _, p := range low {
		names[p.Name] = true
	}
	if !names["At Level"] || !names["Fallback Low"] {
		t.Fatalf("expected At Level and Fallback Low in %v", names)
	}
	if names["Above Level"] || names["Fallback OK"] {
		t.Fatalf("did not expect Above Level / Fallback OK in %v", names)
	}
	// Lowest quantity first.
	for i := 1; i < len(low); i++ {
		if low[i-1].Quantity > low[i].Quantity {
			t.Fatalf("low stock not sorted by quantity: %v", low)
		}
	}
}

func TestTopProductsRankedByQuantitySold(t *testing.T) {
	ctx := setupCheckoutDB(t)

	a := mustCreateProduct(t, ctx, "Product A", "40063813000158", "1.00", 100)
	b := mustCreateProduct(t, ctx, "Product B", "40063813000165", "1.00", 100)
	c := mustCreateProduct(t, ctx, "Product C", "40063813000172", "1.00", 100)

	sell := func(id, qty int) {
		t.Helper()
		if _, err := models.ProcessSale(ctx, &models.NewSale{
			Items: []models.NewSaleItem{{ProductId: id, Quantity: qty}},
		}); err != nil {
			t.Fatalf("ProcessSale: %v", err)
		}
	}
	sell(a.ID, 5)
	sell(c.ID, 3)
	sell(c.ID, 5)
	sell(b.ID, 2)

	top, err := models.GetTopProducts(ctx, time.Now().AddDate(0, 0, -1), 2)
	if err != nil {
		t.Fatalf("GetTopProducts: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(top))
	}
	if top[0].Name != "Product C" || top[0].TotalQuantity != 8 {
		t.Fatalf("top[0] = %+v, want Product C qty 8", top[0])
	}
	if top[1].Name != "Product A" || top[1].TotalQuantity != 5 {
		t.Fatalf("top[1] = %+v, want Product A qty 5", top[1])
	}
}

func TestDailySummaryAggregatesTodaysSales(t *testing.T) {
	ctx := setupCheckoutDB(t)

	p := mustCreateProduct(t, ctx, "Summary Item", "40063813000189", "10.00", 50)
	for i := 0; i < 3; i++ {
		if _, err := models.ProcessSale(ctx, &models.NewSale{
			Items: []models.NewSaleItem{{ProductId: p.ID, Quantity: 2}},
		}); err != nil {
			t.Fatalf("ProcessSale: %v", err)
		}
	}

	summary, err := models.GetDailySummary(ctx, time.Now())
	if err != nil {
		t.Fatalf("GetDailySummary: %v", err)
	}
	if summary.TotalTransactions != 3 {
		t.Fatalf("transactions = %d, want 3", summary.TotalTransactions)
	}
	if summary.TotalItems != 6 {
		t.Fatalf("items = %d, want 6", summary.TotalItems)
	}
	// 3 x (20.00 * 1.16) = 69.60
	if summary.TotalSales.Cmp(decimal.RequireFromString("69.60")) != 0 {
		t.Fatalf("total sales = %s, want 69.60", summary.TotalSales)
	}

	// A day with no sales yields a zero summary, not an error.
	empty, err := models.GetDailySummary(ctx, time.Now().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("GetDailySummary(empty): %v", err)
	}
	if empty.TotalTransactions != 0 || !empty.TotalSales.IsZero() {
		t.Fatalf("expected zero summary, got %+v", empty)
	}
}

func TestDashboardReportSections(t *testing.T) {
	ctx := setupCheckoutDB(t)

	p := mustCreateProductFull(t, ctx, "Dashboard Item", "40063813000196", 4, 10)
	if _, err := models.ProcessSale(ctx, &models.NewSale{
		Items: []models.NewSaleItem{{ProductId: p.ID, Quantity: 1}},
	}); err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}

	report, err := reports.GetDashboardReport(ctx, 7)
	if err != nil {
		t.Fatalf("GetDashboardReport: %v", err)
	}
	if report.Errors != nil {
		t.Fatalf("expected no section errors, got %v", report.Errors)
	}
	if len(report.LowStock) == 0 {
		t.Fatal("expected low stock section to include the item")
	}
	if len(report.SalesByDay) != 1 {
		t.Fatalf("expected one sales-by-day bucket, got %d", len(report.SalesByDay))
	}
	if len(report.TopProducts) != 1 || report.TopProducts[0].Name != "Dashboard Item" {
		t.Fatalf("unexpected top products: %+v", report.TopProducts)
	}
	if len(report.MonthlyRevenue) != 1 {
		t.Fatalf("expected one monthly revenue bucket, got %d", len(report.MonthlyRevenue))
	}
}

func TestDashboardReportSectionFailureIsIsolated(t *testing.T) {
	ctx := setupCheckoutDB(t)
	db := config.GetDB()

	p := mustCreateProductFull(t, ctx, "Isolated Item", "40063813000202", 4, 10)
	if _, err := models.ProcessSale(ctx, &models.NewSale{
		Items: []models.NewSaleItem{{ProductId: p.ID, Quantity: 1}},
	}); err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}

	// Break only the top-products query; the other sections do not
	// touch sale_items.
	if err := db.Exec("RENAME TABLE sale_items TO sale_items_hidden").Error; err != nil {
		t.Fatalf("rename sale_items: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Exec("RENAME TABLE sale_items_hidden TO sale_items").Error
	})

	report, err := reports.GetDashboardReport(ctx, 7)
	if err != nil {
		t.Fatalf("GetDashboardReport: %v", err)
	}
	if report.Errors == nil || report.Errors["top_products"] == "" {
		t.Fatalf("expected top_products section error, got %v", report.Errors)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("expected only top_products to fail, got %v", report.Errors)
	}
	if len(report.LowStock) == 0 {
		t.Fatal("low stock section should survive a top-products failure")
	}
	if len(report.SalesByDay) != 1 {
		t.Fatalf("sales-by-day section should survive, got %d buckets", len(report.SalesByDay))
	}
	if len(report.MonthlyRevenue) != 1 {
		t.Fatalf("monthly revenue section should survive, got %d buckets", len(report.MonthlyRevenue))
	}
}

func TestExportSalesExcelWellFormed(t *testing.T) {
	ctx := setupCheckoutDB(t)

	p := mustCreateProduct(t, ctx, "Export Item", "40063813000219", "10.00", 20)
	sale, err := models.ProcessSale(ctx, &models.NewSale{
		Items: []models.NewSaleItem{{ProductId: p.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}

	f, err := reports.ExportSalesExcel(ctx, models.SalesFilter{})
	if err != nil {
		t.Fatalf("ExportSalesExcel: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	if idx, err := f.GetSheetIndex("Sales"); err != nil || idx < 0 {
		t.Fatalf("missing Sales sheet (idx=%d err=%v)", idx, err)
	}

	headers := []string{"Transaction", "Date", "Cashier", "Payment", "Items", "Subtotal", "Discount", "Tax", "Total"}
	for i, want := range headers {
		cell := string(rune('A'+i)) + "1"
		got, err := f.GetCellValue("Sales", cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", cell, err)
		}
		if got != want {
			t.Fatalf("header %s = %q, want %q", cell, got, want)
		}
	}

	txn, err := f.GetCellValue("Sales", "A2")
	if err != nil {
		t.Fatalf("GetCellValue(A2): %v", err)
	}
	if txn != sale.TransactionId {
		t.Fatalf("row 1 transaction = %q, want %q", txn, sale.TransactionId)
	}
	// Amounts round to 2 places on export: 2 x 10.00 x 1.16 = 23.2.
	total, err := f.GetCellValue("Sales", "I2")
	if err != nil {
		t.Fatalf("GetCellValue(I2): %v", err)
	}
	if total != "23.2" {
		t.Fatalf("row 1 total = %q, want 23.2", total)
	}
}

// mustCreateProductFull creates a product with an explicit reorder
// level. Create defaults a zero reorder level to 10, so a zero goes
// through an update to exercise the low-stock fallback.
func mustCreateProductFull(t *testing.T, ctx context.Context, name, barcode string, qty, reorderLevel int) *models.Product {
	t.Helper()
	input := models.NewProduct{
		Name:         name,
		Barcode:      barcode,
		Price:        decimal.RequireFromString("1.00"),
		Quantity:     qty,
		ReorderLevel: reorderLevel,
	}
	p, err := models.CreateProduct(ctx, &input)
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", name, err)
	}
	if reorderLevel == 0 {
		p, err = models.UpdateProduct(ctx, p.ID, &input)
		if err != nil {
			t.Fatalf("UpdateProduct(%s): %v", name, err)
		}
	}
	return p
}
