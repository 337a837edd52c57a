package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"vegstock/backend/internal/domain"
	"vegstock/backend/internal/store"
	"vegstock/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the five collections plus the settings table. Safe to
// run on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS items (
			id           text PRIMARY KEY,
			name         text NOT NULL,
			category     text NOT NULL,
			quantity     double precision NOT NULL DEFAULT 0,
			unit         text NOT NULL DEFAULT '',
			price        double precision NOT NULL DEFAULT 0,
			supplier_id  text NOT NULL DEFAULT '',
			godown_id    text NOT NULL DEFAULT '',
			bag_count    double precision NOT NULL DEFAULT 0,
			last_updated text NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS transactions (
			id           text PRIMARY KEY,
			item_id      text NOT NULL,
			type         text NOT NULL,
			quantity     double precision NOT NULL,
			price        double precision NOT NULL,
			total_amount double precision NOT NULL,
			date         text NOT NULL
		);
		CREATE INDEX IF NOT EXISTS transactions_item_id_idx ON transactions (item_id);
		CREATE TABLE IF NOT EXISTS expenses (
			id          text PRIMARY KEY,
			item_id     text NOT NULL,
			description text NOT NULL,
			amount      double precision NOT NULL,
			date        text NOT NULL
		);
		CREATE INDEX IF NOT EXISTS expenses_item_id_idx ON expenses (item_id);
		CREATE TABLE IF NOT EXISTS suppliers (
			id      text PRIMARY KEY,
			name    text NOT NULL,
			address text NOT NULL DEFAULT '',
			contact text NOT NULL DEFAULT '',
			email   text NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS godowns (
			id       text PRIMARY KEY,
			name     text NOT NULL,
			location text NOT NULL DEFAULT '',
			capacity text NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS settings (
			type    text PRIMARY KEY,
			payload jsonb NOT NULL
		);
	`)
	return err
}

func (s *Store) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	query := `
		SELECT id, name, category, quantity, unit, price, supplier_id, godown_id, bag_count, last_updated
		FROM items
	`
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if filter.Category != "" && filter.Category != "all" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Item, 0, 64)
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Unit, &item.Price, &item.SupplierID, &item.GodownID, &item.BagCount, &item.LastUpdated); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	var item domain.Item
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, quantity, unit, price, supplier_id, godown_id, bag_count, last_updated
		FROM items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Unit, &item.Price, &item.SupplierID, &item.GodownID, &item.BagCount, &item.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if item.ID == "" {
		item.ID = xid.New("item")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, name, category, quantity, unit, price, supplier_id, godown_id, bag_count, last_updated)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, item.ID, item.Name, item.Category, item.Quantity, item.Unit, item.Price, item.SupplierID, item.GodownID, item.BagCount, item.LastUpdated)
	if err != nil {
		return nil, err
	}
	created := item
	return &created, nil
}

func (s *Store) UpdateItem(ctx context.Context, id string, patch domain.ItemUpdateRequest, lastUpdated string) (*domain.Item, error) {
	// Only supplied fields are written; omitted fields keep their stored
	// values, mirroring a partial $set.
	sets := make([]string, 0, 9)
	args := make([]any, 0, 10)
	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		addSet("name", *patch.Name)
	}
	if patch.Category != nil {
		addSet("category", *patch.Category)
	}
	if patch.Quantity != nil {
		addSet("quantity", patch.Quantity.Float64())
	}
	if patch.Unit != nil {
		addSet("unit", *patch.Unit)
	}
	if patch.Price != nil {
		addSet("price", patch.Price.Float64())
	}
	if patch.SupplierID != nil {
		addSet("supplier_id", *patch.SupplierID)
	}
	if patch.GodownID != nil {
		addSet("godown_id", *patch.GodownID)
	}
	if patch.BagCount != nil {
		addSet("bag_count", patch.BagCount.Float64())
	}
	addSet("last_updated", lastUpdated)

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE items SET %s
		WHERE id = $%d
		RETURNING id, name, category, quantity, unit, price, supplier_id, godown_id, bag_count, last_updated
	`, strings.Join(sets, ", "), len(args))

	var item domain.Item
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Unit, &item.Price, &item.SupplierID, &item.GodownID, &item.BagCount, &item.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	// Referential cleanup is application-level; the ledgers reference items
	// by weak text id, not a foreign key.
	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE item_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE item_id = $1`, id); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	query := `
		SELECT id, item_id, type, quantity, price, total_amount, date
		FROM transactions
	`
	conditions := make([]string, 0, 4)
	args := make([]any, 0, 4)
	if filter.ItemID != "" {
		args = append(args, filter.ItemID)
		conditions = append(conditions, fmt.Sprintf("item_id = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.StartDate != "" {
		args = append(args, filter.StartDate)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.EndDate != "" {
		args = append(args, filter.EndDate)
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0, 64)
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.ItemID, &tx.Type, &tx.Quantity, &tx.Price, &tx.TotalAmount, &tx.Date); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func (s *Store) RecordTransaction(ctx context.Context, t domain.Transaction) (*domain.Transaction, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var quantity float64
	err = pgTx.QueryRowContext(ctx, `SELECT quantity FROM items WHERE id = $1`, t.ItemID).Scan(&quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if t.Type == domain.TxTypeSale && quantity < t.Quantity {
		return nil, store.ErrInsufficientStock
	}

	if t.ID == "" {
		t.ID = xid.New("tx")
	}
	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO transactions (id, item_id, type, quantity, price, total_amount, date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, t.ID, t.ItemID, t.Type, t.Quantity, t.Price, t.TotalAmount, t.Date)
	if err != nil {
		return nil, err
	}

	// The adjustment is a single guarded UPDATE so the decrement is atomic at
	// the row level; the guard re-checks stock so a concurrent sale cannot
	// push the quantity negative between the read above and this write.
	if t.Type == domain.TxTypeSale {
		res, err := pgTx.ExecContext(ctx, `
			UPDATE items
			SET quantity = quantity - $1, last_updated = $2
			WHERE id = $3 AND quantity >= $1
		`, t.Quantity, t.Date, t.ItemID)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, store.ErrInsufficientStock
		}
	} else {
		if _, err := pgTx.ExecContext(ctx, `
			UPDATE items
			SET quantity = quantity + $1, last_updated = $2
			WHERE id = $3
		`, t.Quantity, t.Date, t.ItemID); err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	created := t
	return &created, nil
}

func (s *Store) ListExpenses(ctx context.Context, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	query := `
		SELECT id, item_id, description, amount, date
		FROM expenses
	`
	conditions := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if filter.ItemID != "" {
		args = append(args, filter.ItemID)
		conditions = append(conditions, fmt.Sprintf("item_id = $%d", len(args)))
	}
	if filter.StartDate != "" {
		args = append(args, filter.StartDate)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.EndDate != "" {
		args = append(args, filter.EndDate)
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 32)
	for rows.Next() {
		var expense domain.Expense
		if err := rows.Scan(&expense.ID, &expense.ItemID, &expense.Description, &expense.Amount, &expense.Date); err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, item_id, description, amount, date)
		VALUES ($1,$2,$3,$4,$5)
	`, expense.ID, expense.ItemID, expense.Description, expense.Amount, expense.Date)
	if err != nil {
		return nil, err
	}
	created := expense
	return &created, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, address, contact, email
		FROM suppliers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 16)
	for rows.Next() {
		var supplier domain.Supplier
		if err := rows.Scan(&supplier.ID, &supplier.Name, &supplier.Address, &supplier.Contact, &supplier.Email); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, supplier)
	}
	return suppliers, rows.Err()
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, address, contact, email)
		VALUES ($1,$2,$3,$4,$5)
	`, supplier.ID, supplier.Name, supplier.Address, supplier.Contact, supplier.Email)
	if err != nil {
		return nil, err
	}
	created := supplier
	return &created, nil
}

func (s *Store) ListGodowns(ctx context.Context) ([]domain.Godown, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, location, capacity
		FROM godowns
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	godowns := make([]domain.Godown, 0, 8)
	for rows.Next() {
		var godown domain.Godown
		if err := rows.Scan(&godown.ID, &godown.Name, &godown.Location, &godown.Capacity); err != nil {
			return nil, err
		}
		godowns = append(godowns, godown)
	}
	return godowns, rows.Err()
}

func (s *Store) CreateGodown(ctx context.Context, godown domain.Godown) (*domain.Godown, error) {
	if godown.ID == "" {
		godown.ID = xid.New("gd")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO godowns (id, name, location, capacity)
		VALUES ($1,$2,$3,$4)
	`, godown.ID, godown.Name, godown.Location, godown.Capacity)
	if err != nil {
		return nil, err
	}
	created := godown
	return &created, nil
}

func (s *Store) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM settings WHERE type = $1`, domain.SettingsType).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	var settings domain.Settings
	if err := json.Unmarshal(payload, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *Store) UpsertSettings(ctx context.Context, settings domain.Settings) (*domain.Settings, error) {
	settings.Type = domain.SettingsType
	payload, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (type, payload)
		VALUES ($1, $2)
		ON CONFLICT (type)
		DO UPDATE SET payload = EXCLUDED.payload
	`, domain.SettingsType, payload)
	if err != nil {
		return nil, err
	}

	saved := settings
	return &saved, nil
}
