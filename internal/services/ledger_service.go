package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"tresorier/internal/cache"
	"tresorier/internal/core"
	"tresorier/internal/events"
	"tresorier/internal/log"
	"tresorier/internal/storage"
)

// LedgerService orchestrates the accounting side: fiscal years, accounts,
// operation categories, ledger operations and the financial report. Writes
// validate first, then persist, then publish a mutation event; a publish
// failure never fails the request.
type LedgerService struct {
	storage   *storage.Repository
	publisher *events.Client
	logger    *log.Logger

	// Reports are cached per filter and invalidated by generation: every
	// write bumps the counter, stale entries age out of the LRU.
	reportCache *cache.LRU[core.FinancialReport]
	generation  atomic.Uint64
}

func NewLedgerService(storage *storage.Repository, publisher *events.Client, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerService{
		storage:     storage,
		publisher:   publisher,
		logger:      logger.WithComponent(log.ComponentEngine),
		reportCache: cache.NewLRU[core.FinancialReport](64, 10*time.Minute),
	}
}

func (s *LedgerService) publish(ctx context.Context, entity, action string, id int64) {
	s.generation.Add(1)
	if err := s.publisher.Publish(ctx, entity, action, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish mutation event",
			log.FieldEntity, entity, log.FieldEntityID, id, log.FieldError, err)
	}
}

func (s *LedgerService) ListFiscalYears(ctx context.Context, order core.YearOrder) ([]core.FiscalYearRow, error) {
	return s.storage.ListFiscalYears(ctx, order)
}

func (s *LedgerService) GetFiscalYear(ctx context.Context, id int64) (*core.FiscalYear, error) {
	return s.storage.GetFiscalYear(ctx, id)
}

func (s *LedgerService) SaveFiscalYear(ctx context.Context, fy *core.FiscalYear) error {
	if err := fy.Validate(); err != nil {
		return err
	}
	if err := s.storage.SaveFiscalYear(ctx, fy); err != nil {
		return err
	}
	s.publish(ctx, events.EntityFiscalYear, events.ActionSaved, fy.ID)
	return nil
}

func (s *LedgerService) DeleteFiscalYear(ctx context.Context, id int64) error {
	if err := s.storage.DeleteFiscalYear(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.EntityFiscalYear, events.ActionDeleted, id)
	return nil
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]core.AccountRow, error) {
	return s.storage.ListAccounts(ctx)
}

func (s *LedgerService) GetAccount(ctx context.Context, id int64) (*core.Account, error) {
	return s.storage.GetAccount(ctx, id)
}

func (s *LedgerService) SaveAccount(ctx context.Context, a *core.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := s.storage.SaveAccount(ctx, a); err != nil {
		return err
	}
	s.publish(ctx, events.EntityAccount, events.ActionSaved, a.ID)
	return nil
}

func (s *LedgerService) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.storage.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.EntityAccount, events.ActionDeleted, id)
	return nil
}

func (s *LedgerService) ListCategories(ctx context.Context) ([]core.CategoryRow, error) {
	return s.storage.ListCategories(ctx)
}

func (s *LedgerService) GetCategory(ctx context.Context, id int64) (*core.OperationCategory, error) {
	return s.storage.GetCategory(ctx, id)
}

func (s *LedgerService) SaveCategory(ctx context.Context, c *core.OperationCategory) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.storage.SaveCategory(ctx, c); err != nil {
		return err
	}
	s.publish(ctx, events.EntityCategory, events.ActionSaved, c.ID)
	return nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.storage.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.EntityCategory, events.ActionDeleted, id)
	return nil
}

// ListOperations returns the filtered ledger with the running accumulation
// filled in, newest operation first.
func (s *LedgerService) ListOperations(ctx context.Context, filter core.OperationFilter) ([]core.OperationRow, error) {
	rows, err := s.storage.ListOperations(ctx, filter)
	if err != nil {
		return nil, err
	}
	core.Accumulate(rows)
	return rows, nil
}

func (s *LedgerService) GetOperation(ctx context.Context, id int64) (*core.Operation, error) {
	return s.storage.GetOperation(ctx, id)
}

func (s *LedgerService) SaveOperation(ctx context.Context, op *core.Operation) error {
	if err := op.Validate(); err != nil {
		return err
	}
	if err := s.storage.SaveOperation(ctx, op); err != nil {
		return err
	}
	s.publish(ctx, events.EntityOperation, events.ActionSaved, op.ID)
	return nil
}

func (s *LedgerService) DeleteOperation(ctx context.Context, id int64) error {
	if err := s.storage.DeleteOperation(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.EntityOperation, events.ActionDeleted, id)
	return nil
}

// Report builds the grouped income/outcome report for a filtered slice of
// the ledger.
func (s *LedgerService) Report(ctx context.Context, filter core.OperationFilter) (*core.FinancialReport, error) {
	key := s.reportKey(filter)
	if report, ok := s.reportCache.Get(key); ok {
		return &report, nil
	}

	rows, err := s.storage.ListOperations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load report operations: %w", err)
	}
	report := core.BuildReport(rows)
	s.reportCache.Set(key, report)
	return &report, nil
}

// reportKey encodes the generation and the filter; a bumped generation
// makes every previous key unreachable.
func (s *LedgerService) reportKey(filter core.OperationFilter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "g%d", s.generation.Load())
	if filter.FiscalYearID != nil {
		fmt.Fprintf(&b, "|fy%d", *filter.FiscalYearID)
	}
	if filter.AccountID != nil {
		fmt.Fprintf(&b, "|ac%d", *filter.AccountID)
	}
	if filter.CategoryID != nil {
		fmt.Fprintf(&b, "|ct%d", *filter.CategoryID)
	}
	if filter.Checked != nil {
		fmt.Fprintf(&b, "|ch%t", *filter.Checked)
	}
	if filter.Year != nil {
		fmt.Fprintf(&b, "|y%d", *filter.Year)
	}
	if !filter.DateStart.IsEmpty() {
		fmt.Fprintf(&b, "|ds%s", filter.DateStart)
	}
	if !filter.DateEnd.IsEmpty() {
		fmt.Fprintf(&b, "|de%s", filter.DateEnd)
	}
	if filter.AmountMin != nil {
		fmt.Fprintf(&b, "|am%s", filter.AmountMin)
	}
	if filter.AmountMax != nil {
		fmt.Fprintf(&b, "|ax%s", filter.AmountMax)
	}
	return b.String()
}

// Close releases the service's storage and broker handles.
func (s *LedgerService) Close() error {
	var errs []error

	if s.reportCache != nil {
		s.reportCache.Close()
	}
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
