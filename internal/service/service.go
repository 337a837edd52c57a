package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vegstock/backend/internal/cache"
	"vegstock/backend/internal/domain"
	"vegstock/backend/internal/report"
	"vegstock/backend/internal/store"
)

const dateLayout = "2006-01-02"

type Service struct {
	repo      store.Repository
	reports   cache.ReportCache
	reportTTL time.Duration

	// now is the injected clock used for date defaulting; tests override it.
	now func() time.Time
}

func New(repo store.Repository, reports cache.ReportCache, reportTTL time.Duration) *Service {
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	if reportTTL <= 0 {
		reportTTL = 20 * time.Second
	}
	return &Service{
		repo:      repo,
		reports:   reports,
		reportTTL: reportTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) today() string {
	return s.now().Format(dateLayout)
}

func (s *Service) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.ListItems(ctx, filter)
}

func (s *Service) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: item id required", store.ErrInvalidArgument)
	}
	return s.repo.GetItem(ctx, id)
}

func (s *Service) CreateItem(ctx context.Context, req domain.ItemCreateRequest) (domain.Item, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.Unit = strings.TrimSpace(req.Unit)

	if req.Name == "" || req.Category == "" || req.Unit == "" || req.Quantity == nil || req.Price == nil {
		return domain.Item{}, store.ErrMissingFields
	}
	if req.Quantity.Float64() < 0 || req.Price.Float64() < 0 {
		return domain.Item{}, fmt.Errorf("%w: quantity and price must not be negative", store.ErrInvalidArgument)
	}

	item := domain.Item{
		Name:        req.Name,
		Category:    req.Category,
		Quantity:    req.Quantity.Float64(),
		Unit:        req.Unit,
		Price:       req.Price.Float64(),
		SupplierID:  strings.TrimSpace(req.SupplierID),
		GodownID:    strings.TrimSpace(req.GodownID),
		LastUpdated: s.today(),
	}
	if req.BagCount != nil {
		item.BagCount = req.BagCount.Float64()
	}

	created, err := s.repo.CreateItem(ctx, item)
	if err != nil {
		return domain.Item{}, err
	}
	return *created, nil
}

func (s *Service) UpdateItem(ctx context.Context, id string, req domain.ItemUpdateRequest) (domain.Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Item{}, fmt.Errorf("%w: item id required", store.ErrInvalidArgument)
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return domain.Item{}, fmt.Errorf("%w: name must not be empty", store.ErrInvalidArgument)
	}
	if req.Quantity != nil && req.Quantity.Float64() < 0 {
		return domain.Item{}, fmt.Errorf("%w: quantity must not be negative", store.ErrInvalidArgument)
	}
	if req.Price != nil && req.Price.Float64() < 0 {
		return domain.Item{}, fmt.Errorf("%w: price must not be negative", store.ErrInvalidArgument)
	}

	updated, err := s.repo.UpdateItem(ctx, id, req, s.today())
	if err != nil {
		return domain.Item{}, err
	}
	return *updated, nil
}

// DeleteItem removes the item and cascades deletion of every transaction and
// expense referencing it.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: item id required", store.ErrInvalidArgument)
	}
	return s.repo.DeleteItem(ctx, id)
}

// ListLowStockItems returns items whose quantity has fallen below the
// configured low-stock threshold.
func (s *Service) ListLowStockItems(ctx context.Context) ([]domain.Item, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListItems(ctx, domain.ItemFilter{})
	if err != nil {
		return nil, err
	}

	low := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if item.Quantity < settings.LowStockThreshold {
			low = append(low, item)
		}
	}
	return low, nil
}

func (s *Service) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	// An unrecognized type filter is ignored rather than rejected.
	if filter.Type != domain.TxTypePurchase && filter.Type != domain.TxTypeSale {
		filter.Type = ""
	}
	return s.repo.ListTransactions(ctx, filter)
}

// RecordTransaction validates the request, defaults the date to today, freezes
// totalAmount at quantity*price, and delegates the append-plus-adjust sequence
// to the repository, which performs it as one logical unit.
func (s *Service) RecordTransaction(ctx context.Context, req domain.TransactionCreateRequest) (domain.Transaction, error) {
	req.ItemID = strings.TrimSpace(req.ItemID)
	req.Type = strings.TrimSpace(req.Type)
	req.Date = strings.TrimSpace(req.Date)

	if req.ItemID == "" || req.Type == "" || req.Quantity == nil || req.Price == nil {
		return domain.Transaction{}, store.ErrMissingFields
	}
	if req.Type != domain.TxTypePurchase && req.Type != domain.TxTypeSale {
		return domain.Transaction{}, fmt.Errorf("%w: transaction type must be 'purchase' or 'sale'", store.ErrInvalidArgument)
	}

	quantity := req.Quantity.Float64()
	price := req.Price.Float64()
	if quantity <= 0 || price <= 0 {
		return domain.Transaction{}, fmt.Errorf("%w: quantity and price must be positive", store.ErrInvalidArgument)
	}

	date := req.Date
	if date == "" {
		date = s.today()
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrInvalidArgument)
	}

	tx := domain.Transaction{
		ItemID:      req.ItemID,
		Type:        req.Type,
		Quantity:    quantity,
		Price:       price,
		TotalAmount: quantity * price,
		Date:        date,
	}

	created, err := s.repo.RecordTransaction(ctx, tx)
	if err != nil {
		return domain.Transaction{}, err
	}
	return *created, nil
}

func (s *Service) ListExpenses(ctx context.Context, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	return s.repo.ListExpenses(ctx, filter)
}

func (s *Service) RecordExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	req.ItemID = strings.TrimSpace(req.ItemID)
	req.Description = strings.TrimSpace(req.Description)
	req.Date = strings.TrimSpace(req.Date)

	if req.ItemID == "" || req.Description == "" || req.Amount == nil {
		return domain.Expense{}, store.ErrMissingFields
	}
	if req.Amount.Float64() <= 0 {
		return domain.Expense{}, fmt.Errorf("%w: amount must be positive", store.ErrInvalidArgument)
	}

	date := req.Date
	if date == "" {
		date = s.today()
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return domain.Expense{}, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrInvalidArgument)
	}

	expense := domain.Expense{
		ItemID:      req.ItemID,
		Description: req.Description,
		Amount:      req.Amount.Float64(),
		Date:        date,
	}

	created, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}
	return *created, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (domain.Supplier, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Supplier{}, store.ErrMissingFields
	}

	created, err := s.repo.CreateSupplier(ctx, domain.Supplier{
		Name:    req.Name,
		Address: strings.TrimSpace(req.Address),
		Contact: strings.TrimSpace(req.Contact),
		Email:   strings.TrimSpace(req.Email),
	})
	if err != nil {
		return domain.Supplier{}, err
	}
	return *created, nil
}

func (s *Service) ListGodowns(ctx context.Context) ([]domain.Godown, error) {
	return s.repo.ListGodowns(ctx)
}

func (s *Service) CreateGodown(ctx context.Context, req domain.GodownCreateRequest) (domain.Godown, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Godown{}, store.ErrMissingFields
	}

	created, err := s.repo.CreateGodown(ctx, domain.Godown{
		Name:     req.Name,
		Location: strings.TrimSpace(req.Location),
		Capacity: strings.TrimSpace(req.Capacity),
	})
	if err != nil {
		return domain.Godown{}, err
	}
	return *created, nil
}

// GetSettings materializes the default settings document on first read and
// returns the persisted document on every subsequent call.
func (s *Service) GetSettings(ctx context.Context) (domain.Settings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err == nil {
		return *settings, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Settings{}, err
	}

	saved, err := s.repo.UpsertSettings(ctx, domain.DefaultSettings())
	if err != nil {
		return domain.Settings{}, err
	}
	return *saved, nil
}

// UpdateSettings replaces the singleton document. The discriminator is forced
// on write regardless of caller input.
func (s *Service) UpdateSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	settings.Type = domain.SettingsType
	saved, err := s.repo.UpsertSettings(ctx, settings)
	if err != nil {
		return domain.Settings{}, err
	}
	return *saved, nil
}

// BuildReport joins items, transactions and expenses over the filter and
// computes the financial summary. With an itemId the report covers that item
// only; otherwise it covers the fleet, where the category filter applies to
// items but deliberately does not propagate to the transaction/expense join.
func (s *Service) BuildReport(ctx context.Context, filter domain.ReportFilter) (domain.Report, error) {
	if itemID := strings.TrimSpace(filter.ItemID); itemID != "" {
		return s.buildItemReport(ctx, itemID, filter)
	}

	key := fmt.Sprintf("report:%s:%s:%s", filter.StartDate, filter.EndDate, filter.Category)
	if cached, ok, err := s.reports.Get(ctx, key); err == nil && ok {
		return *cached, nil
	} else if err != nil {
		logrus.WithError(err).Warn("report cache read failed")
	}

	items, err := s.repo.ListItems(ctx, domain.ItemFilter{Category: filter.Category})
	if err != nil {
		return domain.Report{}, err
	}
	transactions, err := s.repo.ListTransactions(ctx, domain.TransactionFilter{StartDate: filter.StartDate, EndDate: filter.EndDate})
	if err != nil {
		return domain.Report{}, err
	}
	expenses, err := s.repo.ListExpenses(ctx, domain.ExpenseFilter{StartDate: filter.StartDate, EndDate: filter.EndDate})
	if err != nil {
		return domain.Report{}, err
	}

	rep := domain.Report{
		Items:        items,
		Transactions: transactions,
		Expenses:     expenses,
		Summary:      report.Summarize(items, transactions, expenses),
	}

	if err := s.reports.Set(ctx, key, &rep, s.reportTTL); err != nil {
		logrus.WithError(err).Warn("report cache write failed")
	}
	return rep, nil
}

func (s *Service) buildItemReport(ctx context.Context, itemID string, filter domain.ReportFilter) (domain.Report, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return domain.Report{}, err
	}

	transactions, err := s.repo.ListTransactions(ctx, domain.TransactionFilter{ItemID: itemID, StartDate: filter.StartDate, EndDate: filter.EndDate})
	if err != nil {
		return domain.Report{}, err
	}
	expenses, err := s.repo.ListExpenses(ctx, domain.ExpenseFilter{ItemID: itemID, StartDate: filter.StartDate, EndDate: filter.EndDate})
	if err != nil {
		return domain.Report{}, err
	}

	return domain.Report{
		Item:         item,
		Transactions: transactions,
		Expenses:     expenses,
		Summary:      report.SummarizeItem(*item, transactions, expenses),
	}, nil
}

// ExportReport builds the report and renders it into a downloadable document
// using the branding block from settings.
func (s *Service) ExportReport(ctx context.Context, filter domain.ReportFilter, format string, reportType string) (domain.Document, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "pdf"
	}
	if format != "pdf" && format != "xlsx" {
		return domain.Document{}, fmt.Errorf("%w: format must be 'pdf' or 'xlsx'", store.ErrInvalidArgument)
	}

	reportType = strings.ToLower(strings.TrimSpace(reportType))
	switch reportType {
	case "":
		reportType = report.TypeInventory
	case report.TypeInventory, report.TypeTransactions, report.TypeExpenses:
	default:
		return domain.Document{}, fmt.Errorf("%w: unknown report type %q", store.ErrInvalidArgument, reportType)
	}

	rep, err := s.BuildReport(ctx, filter)
	if err != nil {
		return domain.Document{}, err
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return domain.Document{}, err
	}

	generatedAt := s.now()
	baseName := fmt.Sprintf("%s-report-%s", reportType, generatedAt.Format(dateLayout))
	if rep.Item != nil {
		baseName = fmt.Sprintf("item-report-%s-%s", rep.Item.ID, generatedAt.Format(dateLayout))
	}

	if format == "xlsx" {
		data, err := report.RenderXLSX(rep, settings.ReportSettings, reportType, generatedAt)
		if err != nil {
			return domain.Document{}, err
		}
		return domain.Document{
			FileName:    baseName + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	}

	data, err := report.RenderPDF(rep, settings.ReportSettings, reportType, generatedAt)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		FileName:    baseName + ".pdf",
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}
