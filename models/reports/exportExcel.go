package reports

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/xuri/excelize/v2"
)

// ExportSalesExcel renders sale history as an xlsx workbook, one row
// per transaction. Amounts are rounded to 2 places for display here;
// the stored values keep full precision.
func ExportSalesExcel(ctx context.Context, filter models.SalesFilter) (*excelize.File, error) {
	filter.Limit = 10000
	filter.Page = 1

	sales, _, err := models.GetSales(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Sales"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Transaction", "Date", "Cashier", "Payment", "Items", "Subtotal", "Discount", "Tax", "Total"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sheetName, cell, h)
	}

	for i, s := range sales {
		row := i + 2
		itemCount := 0
		for _, item := range s.Items {
			itemCount += item.Quantity
		}
		f.SetCellValue(sheetName, "A"+fmt.Sprint(row), s.TransactionId)
		f.SetCellValue(sheetName, "B"+fmt.Sprint(row), s.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheetName, "C"+fmt.Sprint(row), s.CashierName)
		f.SetCellValue(sheetName, "D"+fmt.Sprint(row), s.PaymentMethod)
		f.SetCellValue(sheetName, "E"+fmt.Sprint(row), itemCount)
		f.SetCellValue(sheetName, "F"+fmt.Sprint(row), s.Subtotal.Round(2).String())
		f.SetCellValue(sheetName, "G"+fmt.Sprint(row), s.DiscountAmount.Round(2).String())
		f.SetCellValue(sheetName, "H"+fmt.Sprint(row), s.Tax.Round(2).String())
		f.SetCellValue(sheetName, "I"+fmt.Sprint(row), s.Total.Round(2).String())
	}

	return f, nil
}
