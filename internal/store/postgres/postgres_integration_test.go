package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"vegstock/backend/internal/domain"
	"vegstock/backend/internal/store"
)

func TestRecordTransactionAdjustsStock(t *testing.T) {
	databaseURL := os.Getenv("VEGSTOCK_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set VEGSTOCK_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	stamp := time.Now().UnixNano()
	itemID := fmt.Sprintf("item-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transactions WHERE item_id = $1`, itemID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM expenses WHERE item_id = $1`, itemID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, itemID)
	})

	if _, err := s.CreateItem(ctx, domain.Item{
		ID:          itemID,
		Name:        "Onion (IT)",
		Category:    "other",
		Quantity:    100,
		Unit:        "kg",
		Price:       20,
		LastUpdated: "2024-03-01",
	}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	if _, err := s.RecordTransaction(ctx, domain.Transaction{
		ItemID: itemID, Type: domain.TxTypeSale, Quantity: 30, Price: 25, TotalAmount: 750, Date: "2024-03-02",
	}); err != nil {
		t.Fatalf("record sale: %v", err)
	}

	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Quantity != 70 {
		t.Fatalf("expected quantity 70 after sale, got %v", item.Quantity)
	}
	if item.LastUpdated != "2024-03-02" {
		t.Fatalf("expected lastUpdated stamped, got %s", item.LastUpdated)
	}

	if _, err := s.RecordTransaction(ctx, domain.Transaction{
		ItemID: itemID, Type: domain.TxTypeSale, Quantity: 1000, Price: 25, TotalAmount: 25000, Date: "2024-03-03",
	}); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	transactions, err := s.ListTransactions(ctx, domain.TransactionFilter{ItemID: itemID})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(transactions) != 1 {
		t.Fatalf("expected only the accepted sale in the ledger, got %d", len(transactions))
	}

	item, err = s.GetItem(ctx, itemID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Quantity != 70 {
		t.Fatalf("expected quantity unchanged after rejected sale, got %v", item.Quantity)
	}

	if err := s.DeleteItem(ctx, itemID); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	transactions, err = s.ListTransactions(ctx, domain.TransactionFilter{ItemID: itemID})
	if err != nil {
		t.Fatalf("list transactions after delete: %v", err)
	}
	if len(transactions) != 0 {
		t.Fatalf("expected ledger cascade-deleted, got %d entries", len(transactions))
	}
}
