package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"paydesk/internal/domain/employee"
	cryptoutil "paydesk/internal/platform/crypto"
)

type Service struct {
	store      employee.Store
	crypto     *cryptoutil.Service
	payslipDir string
	now        func() time.Time

	runMu sync.Mutex
}

func NewService(store employee.Store, crypto *cryptoutil.Service, payslipDir string) *Service {
	return &Service{store: store, crypto: crypto, payslipDir: payslipDir, now: time.Now}
}

// Preview calculates pay for one employee without persisting anything.
func (s *Service) Preview(ctx context.Context, code int) (Breakdown, employee.Record, error) {
	rec, err := s.store.GetEmployee(ctx, code)
	if err != nil {
		return Breakdown{}, employee.Record{}, err
	}
	roles, err := s.store.RoleTable(ctx)
	if err != nil {
		return Breakdown{}, employee.Record{}, err
	}
	b, updated, err := ApplyToRecord(rec, roles)
	if err != nil {
		return Breakdown{}, employee.Record{}, err
	}
	return b, updated, nil
}

// Calculate calculates pay for one employee and persists the updated record,
// debiting the loan balance once.
func (s *Service) Calculate(ctx context.Context, code int) (Breakdown, employee.Record, error) {
	roles, err := s.store.RoleTable(ctx)
	if err != nil {
		return Breakdown{}, employee.Record{}, err
	}
	var b Breakdown
	updated, err := s.store.UpdateEmployee(ctx, code, func(rec *employee.Record) error {
		breakdown, next, err := ApplyToRecord(*rec, roles)
		if err != nil {
			return err
		}
		b = breakdown
		*rec = next
		return nil
	})
	if err != nil {
		return Breakdown{}, employee.Record{}, err
	}
	if b.RateDefaulted {
		slog.Warn("role missing from rate table, default rate used", "code", code, "role", updated.Role, "rate", DefaultHourlyRate)
	}
	return b, updated, nil
}

// CurrentMonth returns the month a scheduled run would target.
func (s *Service) CurrentMonth() string {
	return s.now().Format(monthLayout)
}

// MonthRun reports whether payroll history already has month.
func (s *Service) MonthRun(ctx context.Context, month string) (bool, error) {
	history, err := s.store.History(ctx)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(history, func(h employee.HistoryEntry) bool { return h.Month == month }), nil
}

// RunMonth calculates and persists pay for every employee and records the
// month's total expense. A month can only be run once, since each run debits
// loan balances. Any failure leaves every record untouched.
func (s *Service) RunMonth(ctx context.Context, month string) (RunSummary, error) {
	if _, err := time.Parse(monthLayout, month); err != nil {
		return RunSummary{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	done, err := s.MonthRun(ctx, month)
	if err != nil {
		return RunSummary{}, err
	}
	if done {
		return RunSummary{}, fmt.Errorf("%w: %s", ErrMonthAlreadyRun, month)
	}

	roles, err := s.store.RoleTable(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	// Every record and the history entry land in one store write, so a failed
	// run debits nobody and can be retried.
	var summary RunSummary
	err = s.store.CloseMonth(ctx, month, func(records []employee.Record) (employee.HistoryEntry, error) {
		summary = RunSummary{Month: month}
		defaulted := map[string]bool{}
		for i, rec := range records {
			b, next, err := ApplyToRecord(rec, roles)
			if err != nil {
				return employee.HistoryEntry{}, fmt.Errorf("employee %d: %w", rec.Code, err)
			}
			records[i] = next
			summary.Employees++
			summary.TotalExpense += b.GrossPay
			summary.TotalLoanDebit += b.LoanDebit
			if b.RateDefaulted && !defaulted[rec.Role] {
				defaulted[rec.Role] = true
				summary.DefaultedRoles = append(summary.DefaultedRoles, rec.Role)
			}
		}
		slices.Sort(summary.DefaultedRoles)
		return employee.HistoryEntry{Month: month, TotalExpense: summary.TotalExpense, Employees: summary.Employees}, nil
	})
	if errors.Is(err, employee.ErrHistoryExists) {
		return RunSummary{}, fmt.Errorf("%w: %s", ErrMonthAlreadyRun, month)
	}
	if err != nil {
		return RunSummary{}, err
	}

	for _, role := range summary.DefaultedRoles {
		slog.Warn("role missing from rate table, default rate used", "month", month, "role", role, "rate", DefaultHourlyRate)
	}
	slog.Info("payroll month run", "month", month, "employees", summary.Employees, "totalExpense", summary.TotalExpense)
	return summary, nil
}
