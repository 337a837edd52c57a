package store

import (
	"context"
	"errors"

	"vegstock/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrMissingFields     = errors.New("missing required fields")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repository interface {
	ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	UpdateItem(ctx context.Context, id string, patch domain.ItemUpdateRequest, lastUpdated string) (*domain.Item, error)
	DeleteItem(ctx context.Context, id string) error

	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	// RecordTransaction appends the ledger entry and adjusts the referenced
	// item's quantity and lastUpdated date as one logical unit. Sales that
	// exceed the item's on-hand quantity fail with ErrInsufficientStock and
	// leave both collections untouched.
	RecordTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)

	ListExpenses(ctx context.Context, filter domain.ExpenseFilter) ([]domain.Expense, error)
	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)

	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)

	ListGodowns(ctx context.Context) ([]domain.Godown, error)
	CreateGodown(ctx context.Context, godown domain.Godown) (*domain.Godown, error)

	GetSettings(ctx context.Context) (*domain.Settings, error)
	UpsertSettings(ctx context.Context, settings domain.Settings) (*domain.Settings, error)
}
