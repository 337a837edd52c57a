package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"vegstock/backend/internal/domain"
	"vegstock/backend/internal/store"
	"vegstock/backend/internal/xid"
)

// Store is an in-memory Repository used for dev mode and tests. A single
// mutex serializes every operation, so the read-check-adjust sequence in
// RecordTransaction is trivially atomic.
type Store struct {
	mu           sync.RWMutex
	items        map[string]domain.Item
	transactions []domain.Transaction
	expenses     []domain.Expense
	suppliers    []domain.Supplier
	godowns      []domain.Godown
	settings     *domain.Settings
}

func New() *Store {
	return &Store{
		items: make(map[string]domain.Item),
	}
}

// NewSeeded returns a store preloaded with a small wholesale dataset for
// dev/demo mode.
func NewSeeded() *Store {
	s := New()
	today := time.Now().UTC().Format("2006-01-02")

	suppliers := []domain.Supplier{
		{ID: xid.New("sup"), Name: "Ramesh Traders", Address: "Azadpur Mandi, Delhi", Contact: "+91 98100 11223"},
		{ID: xid.New("sup"), Name: "Green Valley Farms", Address: "Nashik, Maharashtra", Contact: "+91 98220 44556"},
	}
	godowns := []domain.Godown{
		{ID: xid.New("gd"), Name: "Cold Storage A", Location: "Gate 3", Capacity: "2000 bags"},
		{ID: xid.New("gd"), Name: "Open Shed", Location: "Gate 1", Capacity: "800 bags"},
	}
	items := []domain.Item{
		{ID: xid.New("item"), Name: "Potato (Jyoti)", Category: "potatoes", Quantity: 1200, Unit: "kg", Price: 18, SupplierID: suppliers[0].ID, GodownID: godowns[0].ID, BagCount: 24, LastUpdated: today},
		{ID: xid.New("item"), Name: "Tomato (Hybrid)", Category: "tomatoes", Quantity: 450, Unit: "kg", Price: 32, SupplierID: suppliers[1].ID, GodownID: godowns[1].ID, BagCount: 18, LastUpdated: today},
		{ID: xid.New("item"), Name: "Onion (Nashik Red)", Category: "other", Quantity: 900, Unit: "kg", Price: 26, SupplierID: suppliers[1].ID, GodownID: godowns[0].ID, BagCount: 30, LastUpdated: today},
		{ID: xid.New("item"), Name: "Spinach", Category: "leafy", Quantity: 60, Unit: "kg", Price: 40, SupplierID: suppliers[0].ID, GodownID: godowns[1].ID, LastUpdated: today},
	}

	s.suppliers = suppliers
	s.godowns = godowns
	for _, item := range items {
		s.items[item.ID] = item
	}
	return s
}

func (s *Store) ListItems(_ context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.Item, 0, len(s.items))
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, item := range s.items {
		if filter.Category != "" && filter.Category != "all" && item.Category != filter.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(item.Name), search) {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (s *Store) GetItem(_ context.Context, id string) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &item, nil
}

func (s *Store) CreateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = xid.New("item")
	}
	s.items[item.ID] = item
	created := item
	return &created, nil
}

func (s *Store) UpdateItem(_ context.Context, id string, patch domain.ItemUpdateRequest, lastUpdated string) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.Quantity != nil {
		item.Quantity = patch.Quantity.Float64()
	}
	if patch.Unit != nil {
		item.Unit = *patch.Unit
	}
	if patch.Price != nil {
		item.Price = patch.Price.Float64()
	}
	if patch.SupplierID != nil {
		item.SupplierID = *patch.SupplierID
	}
	if patch.GodownID != nil {
		item.GodownID = *patch.GodownID
	}
	if patch.BagCount != nil {
		item.BagCount = patch.BagCount.Float64()
	}
	item.LastUpdated = lastUpdated

	s.items[id] = item
	updated := item
	return &updated, nil
}

func (s *Store) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)

	kept := s.transactions[:0]
	for _, tx := range s.transactions {
		if tx.ItemID != id {
			kept = append(kept, tx)
		}
	}
	s.transactions = kept

	keptExpenses := s.expenses[:0]
	for _, expense := range s.expenses {
		if expense.ItemID != id {
			keptExpenses = append(keptExpenses, expense)
		}
	}
	s.expenses = keptExpenses

	return nil
}

func (s *Store) ListTransactions(_ context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transactions := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if filter.ItemID != "" && tx.ItemID != filter.ItemID {
			continue
		}
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if !dateInRange(tx.Date, filter.StartDate, filter.EndDate) {
			continue
		}
		transactions = append(transactions, tx)
	}
	sort.SliceStable(transactions, func(i, j int) bool { return transactions[i].Date > transactions[j].Date })
	return transactions, nil
}

func (s *Store) RecordTransaction(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[tx.ItemID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if tx.Type == domain.TxTypeSale && item.Quantity < tx.Quantity {
		return nil, store.ErrInsufficientStock
	}

	if tx.ID == "" {
		tx.ID = xid.New("tx")
	}
	s.transactions = append(s.transactions, tx)

	if tx.Type == domain.TxTypePurchase {
		item.Quantity += tx.Quantity
	} else {
		item.Quantity -= tx.Quantity
	}
	item.LastUpdated = tx.Date
	s.items[tx.ItemID] = item

	created := tx
	return &created, nil
}

func (s *Store) ListExpenses(_ context.Context, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]domain.Expense, 0, len(s.expenses))
	for _, expense := range s.expenses {
		if filter.ItemID != "" && expense.ItemID != filter.ItemID {
			continue
		}
		if !dateInRange(expense.Date, filter.StartDate, filter.EndDate) {
			continue
		}
		expenses = append(expenses, expense)
	}
	sort.SliceStable(expenses, func(i, j int) bool { return expenses[i].Date > expenses[j].Date })
	return expenses, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	s.expenses = append(s.expenses, expense)
	created := expense
	return &created, nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, len(s.suppliers))
	copy(suppliers, s.suppliers)
	return suppliers, nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	s.suppliers = append(s.suppliers, supplier)
	created := supplier
	return &created, nil
}

func (s *Store) ListGodowns(_ context.Context) ([]domain.Godown, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	godowns := make([]domain.Godown, len(s.godowns))
	copy(godowns, s.godowns)
	return godowns, nil
}

func (s *Store) CreateGodown(_ context.Context, godown domain.Godown) (*domain.Godown, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if godown.ID == "" {
		godown.ID = xid.New("gd")
	}
	s.godowns = append(s.godowns, godown)
	created := godown
	return &created, nil
}

func (s *Store) GetSettings(_ context.Context) (*domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, store.ErrNotFound
	}
	settings := *s.settings
	return &settings, nil
}

func (s *Store) UpsertSettings(_ context.Context, settings domain.Settings) (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings.Type = domain.SettingsType
	s.settings = &settings
	saved := settings
	return &saved, nil
}

// dateInRange treats empty bounds as open. Dates are YYYY-MM-DD strings, so
// lexical comparison is chronological.
func dateInRange(date string, start string, end string) bool {
	if start != "" && date < start {
		return false
	}
	if end != "" && date > end {
		return false
	}
	return true
}
