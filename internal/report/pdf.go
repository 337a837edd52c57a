package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"vegstock/backend/internal/domain"
)

const (
	TypeInventory    = "inventory"
	TypeTransactions = "transactions"
	TypeExpenses     = "expenses"
)

// RenderPDF produces the paginated report artifact: branded header,
// generation date, summary block, then one table per data slice. Single-item
// reports render the item's details followed by its transaction and expense
// tables.
func RenderPDF(rep domain.Report, branding domain.ReportSettings, reportType string, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	pageWidth, _ := pdf.GetPageSize()

	writeHeader(pdf, branding, pageWidth)

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetXY(14, 40)
	pdf.CellFormat(0, 6, "Date: "+generatedAt.Format("02/01/2006"), "", 1, "L", false, 0, "")

	title := reportTitle(rep, reportType)
	pdf.SetFont("Helvetica", "B", 15)
	pdf.SetY(48)
	pdf.CellFormat(0, 8, title, "", 1, "C", false, 0, "")

	writeSummary(pdf, rep.Summary)

	names := itemNames(rep)
	if rep.Item != nil {
		writeItemDetails(pdf, *rep.Item)
		writeTransactionTable(pdf, rep.Transactions, names)
		writeExpenseTable(pdf, rep.Expenses, names)
	} else {
		switch reportType {
		case TypeTransactions:
			writeTransactionTable(pdf, rep.Transactions, names)
		case TypeExpenses:
			writeExpenseTable(pdf, rep.Expenses, names)
		default:
			writeInventoryTable(pdf, rep.Items)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func reportTitle(rep domain.Report, reportType string) string {
	if rep.Item != nil {
		return "Vegetable Report: " + rep.Item.Name
	}
	switch reportType {
	case TypeTransactions:
		return "Transaction Report"
	case TypeExpenses:
		return "Expense Report"
	default:
		return "Inventory Report"
	}
}

func writeHeader(pdf *gofpdf.Fpdf, branding domain.ReportSettings, pageWidth float64) {
	company := branding.CompanyName
	if company == "" {
		company = "Vegetable Inventory Management"
	}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetY(12)
	pdf.CellFormat(0, 9, company, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	if branding.Address != "" {
		pdf.CellFormat(0, 5, branding.Address, "", 1, "C", false, 0, "")
	}
	contact := branding.Contact
	if branding.Email != "" {
		if contact != "" {
			contact += " | "
		}
		contact += branding.Email
	}
	if contact != "" {
		pdf.CellFormat(0, 5, contact, "", 1, "C", false, 0, "")
	}
	if branding.GSTIN != "" {
		pdf.CellFormat(0, 5, "GSTIN: "+branding.GSTIN, "", 1, "C", false, 0, "")
	}

	pdf.SetDrawColor(180, 180, 180)
	pdf.Line(14, 36, pageWidth-14, 36)
}

func writeSummary(pdf *gofpdf.Fpdf, summary domain.ReportSummary) {
	pdf.SetY(60)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "Summary", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	lines := []string{}
	if summary.TotalItems > 0 {
		lines = append(lines, fmt.Sprintf("Total Items: %d", summary.TotalItems))
	}
	lines = append(lines,
		fmt.Sprintf("Total Quantity: %.2f", summary.TotalQuantity),
		fmt.Sprintf("Total Stock Value: %.2f", summary.TotalValue),
		fmt.Sprintf("Total Purchases: %.2f", summary.TotalPurchases),
		fmt.Sprintf("Total Sales: %.2f", summary.TotalSales),
		fmt.Sprintf("Total Expenses: %.2f", summary.TotalExpenses),
		fmt.Sprintf("Profit: %.2f", summary.Profit),
	)
	for _, line := range lines {
		pdf.CellFormat(0, 5.5, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func writeItemDetails(pdf *gofpdf.Fpdf, item domain.Item) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "Item Details", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	details := []string{
		"Category: " + item.Category,
		fmt.Sprintf("Quantity: %.2f %s", item.Quantity, item.Unit),
		fmt.Sprintf("Price: %.2f per %s", item.Price, item.Unit),
		"Last Updated: " + item.LastUpdated,
	}
	for _, line := range details {
		pdf.CellFormat(0, 5.5, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func writeInventoryTable(pdf *gofpdf.Fpdf, items []domain.Item) {
	headers := []string{"Name", "Category", "Quantity", "Unit", "Price", "Value", "Last Updated"}
	widths := []float64{44, 26, 22, 16, 22, 26, 26}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.Name,
			item.Category,
			fmt.Sprintf("%.2f", item.Quantity),
			item.Unit,
			fmt.Sprintf("%.2f", item.Price),
			fmt.Sprintf("%.2f", item.Quantity*item.Price),
			item.LastUpdated,
		})
	}
	writeTable(pdf, "Items", headers, widths, rows)
}

func writeTransactionTable(pdf *gofpdf.Fpdf, transactions []domain.Transaction, names map[string]string) {
	headers := []string{"Date", "Item", "Type", "Quantity", "Price", "Total"}
	widths := []float64{26, 50, 24, 26, 26, 30}

	rows := make([][]string, 0, len(transactions))
	for _, tx := range transactions {
		rows = append(rows, []string{
			tx.Date,
			itemName(names, tx.ItemID),
			tx.Type,
			fmt.Sprintf("%.2f", tx.Quantity),
			fmt.Sprintf("%.2f", tx.Price),
			fmt.Sprintf("%.2f", tx.TotalAmount),
		})
	}
	writeTable(pdf, "Transactions", headers, widths, rows)
}

func writeExpenseTable(pdf *gofpdf.Fpdf, expenses []domain.Expense, names map[string]string) {
	headers := []string{"Date", "Item", "Description", "Amount"}
	widths := []float64{28, 50, 70, 34}

	rows := make([][]string, 0, len(expenses))
	for _, expense := range expenses {
		rows = append(rows, []string{
			expense.Date,
			itemName(names, expense.ItemID),
			expense.Description,
			fmt.Sprintf("%.2f", expense.Amount),
		})
	}
	writeTable(pdf, "Expenses", headers, widths, rows)
}

func writeTable(pdf *gofpdf.Fpdf, caption string, headers []string, widths []float64, rows [][]string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, caption, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 6, header, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	if len(rows) == 0 {
		total := 0.0
		for _, w := range widths {
			total += w
		}
		pdf.CellFormat(total, 6, "No records", "1", 1, "C", false, 0, "")
		pdf.Ln(3)
		return
	}
	for _, row := range rows {
		for i, cell := range row {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(3)
}
