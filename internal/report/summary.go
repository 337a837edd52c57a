// Package report computes read-only aggregations over items, transactions and
// expenses, and renders them into downloadable documents.
package report

import (
	"vegstock/backend/internal/domain"
)

// Summarize reduces a fleet-wide slice into its financial totals. Profit is
// totalSales - totalPurchases - totalExpenses.
func Summarize(items []domain.Item, transactions []domain.Transaction, expenses []domain.Expense) domain.ReportSummary {
	summary := domain.ReportSummary{TotalItems: len(items)}
	for _, item := range items {
		summary.TotalQuantity += item.Quantity
		summary.TotalValue += item.Quantity * item.Price
	}
	applyLedgers(&summary, transactions, expenses)
	return summary
}

// SummarizeItem reduces a single item's slice. TotalItems is omitted from the
// single-item variant.
func SummarizeItem(item domain.Item, transactions []domain.Transaction, expenses []domain.Expense) domain.ReportSummary {
	summary := domain.ReportSummary{
		TotalQuantity: item.Quantity,
		TotalValue:    item.Quantity * item.Price,
	}
	applyLedgers(&summary, transactions, expenses)
	return summary
}

func applyLedgers(summary *domain.ReportSummary, transactions []domain.Transaction, expenses []domain.Expense) {
	for _, tx := range transactions {
		switch tx.Type {
		case domain.TxTypePurchase:
			summary.TotalPurchases += tx.TotalAmount
		case domain.TxTypeSale:
			summary.TotalSales += tx.TotalAmount
		}
	}
	for _, expense := range expenses {
		summary.TotalExpenses += expense.Amount
	}
	summary.Profit = summary.TotalSales - summary.TotalPurchases - summary.TotalExpenses
}

// itemNames indexes display names by item id. Rows with an unresolved item
// reference render as "Unknown Item" rather than failing.
func itemNames(rep domain.Report) map[string]string {
	names := make(map[string]string, len(rep.Items)+1)
	for _, item := range rep.Items {
		names[item.ID] = item.Name
	}
	if rep.Item != nil {
		names[rep.Item.ID] = rep.Item.Name
	}
	return names
}

func itemName(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return "Unknown Item"
}
