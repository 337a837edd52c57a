package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"vegstock/backend/internal/domain"
)

// RenderXLSX writes the report as a workbook: a Summary sheet plus one sheet
// per data slice present in the report.
func RenderXLSX(rep domain.Report, branding domain.ReportSettings, reportType string, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()

	if err := writeSummarySheet(f, rep, branding, reportType, generatedAt); err != nil {
		return nil, err
	}

	names := itemNames(rep)
	if rep.Item != nil {
		if err := writeTransactionsSheet(f, rep.Transactions, names); err != nil {
			return nil, err
		}
		if err := writeExpensesSheet(f, rep.Expenses, names); err != nil {
			return nil, err
		}
	} else {
		switch reportType {
		case TypeTransactions:
			if err := writeTransactionsSheet(f, rep.Transactions, names); err != nil {
				return nil, err
			}
		case TypeExpenses:
			if err := writeExpensesSheet(f, rep.Expenses, names); err != nil {
				return nil, err
			}
		default:
			if err := writeItemsSheet(f, rep.Items); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, rep domain.Report, branding domain.ReportSettings, reportType string, generatedAt time.Time) error {
	const sheet = "Sheet1"
	if err := f.SetSheetName(sheet, "Summary"); err != nil {
		return err
	}

	company := branding.CompanyName
	if company == "" {
		company = "Vegetable Inventory Management"
	}

	type cell struct {
		ref   string
		value any
	}
	cells := []cell{
		{"A1", company},
		{"A2", reportTitle(rep, reportType)},
		{"A3", "Generated: " + generatedAt.Format("2006-01-02")},
		{"A5", "TotalQuantity"}, {"B5", rep.Summary.TotalQuantity},
		{"A6", "TotalValue"}, {"B6", rep.Summary.TotalValue},
		{"A7", "TotalPurchases"}, {"B7", rep.Summary.TotalPurchases},
		{"A8", "TotalSales"}, {"B8", rep.Summary.TotalSales},
		{"A9", "TotalExpenses"}, {"B9", rep.Summary.TotalExpenses},
		{"A10", "Profit"}, {"B10", rep.Summary.Profit},
	}
	if rep.Item == nil {
		cells = append(cells, cell{"A4", "TotalItems"}, cell{"B4", rep.Summary.TotalItems})
	}
	for _, c := range cells {
		if err := f.SetCellValue("Summary", c.ref, c.value); err != nil {
			return err
		}
	}
	return nil
}

func writeItemsSheet(f *excelize.File, items []domain.Item) error {
	if _, err := f.NewSheet("Items"); err != nil {
		return err
	}
	headers := []string{"Name", "Category", "Quantity", "Unit", "Price", "Value", "LastUpdated"}
	for i, header := range headers {
		ref, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue("Items", ref, header); err != nil {
			return err
		}
	}
	for row, item := range items {
		values := []any{item.Name, item.Category, item.Quantity, item.Unit, item.Price, item.Quantity * item.Price, item.LastUpdated}
		for col, value := range values {
			ref, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue("Items", ref, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeTransactionsSheet(f *excelize.File, transactions []domain.Transaction, names map[string]string) error {
	if _, err := f.NewSheet("Transactions"); err != nil {
		return err
	}
	headers := []string{"Date", "Item", "Type", "Quantity", "Price", "Total"}
	for i, header := range headers {
		ref, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue("Transactions", ref, header); err != nil {
			return err
		}
	}
	for row, tx := range transactions {
		values := []any{tx.Date, itemName(names, tx.ItemID), tx.Type, tx.Quantity, tx.Price, tx.TotalAmount}
		for col, value := range values {
			ref, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue("Transactions", ref, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeExpensesSheet(f *excelize.File, expenses []domain.Expense, names map[string]string) error {
	if _, err := f.NewSheet("Expenses"); err != nil {
		return err
	}
	headers := []string{"Date", "Item", "Description", "Amount"}
	for i, header := range headers {
		ref, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue("Expenses", ref, header); err != nil {
			return err
		}
	}
	for row, expense := range expenses {
		values := []any{expense.Date, itemName(names, expense.ItemID), expense.Description, expense.Amount}
		for col, value := range values {
			ref, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue("Expenses", ref, value); err != nil {
				return err
			}
		}
	}
	return nil
}
