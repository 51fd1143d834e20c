package reports

import (
	"context"
	"io"
	"log/slog"

	"paydesk/internal/domain/employee"
	"paydesk/internal/domain/payroll"
)

type Service struct {
	store   employee.Store
	payroll *payroll.Service
}

func NewService(store employee.Store, payrollSvc *payroll.Service) *Service {
	return &Service{store: store, payroll: payrollSvc}
}

// Summary runs the calculator for every employee without persisting and
// aggregates the results. Records the calculator rejects are left out.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return Summary{}, err
	}
	roles, err := s.store.RoleTable(ctx)
	if err != nil {
		return Summary{}, err
	}
	history, err := s.store.History(ctx)
	if err != nil {
		return Summary{}, err
	}
	lines := make([]PayLine, 0, len(employees))
	for _, rec := range employees {
		b, _, err := payroll.ApplyToRecord(rec, roles)
		if err != nil {
			slog.Warn("employee left out of report totals", "code", rec.Code, "error", err)
			continue
		}
		lines = append(lines, PayLine{Code: rec.Code, Role: rec.Role, Breakdown: b})
	}
	return Summarize(lines, roles, history), nil
}

func (s *Service) AdminDashboard(ctx context.Context) (AdminDashboard, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return AdminDashboard{}, err
	}
	out := AdminDashboard{Summary: summary, CurrentMonth: s.payroll.CurrentMonth()}
	if n := len(summary.Trend); n > 0 {
		last := summary.Trend[n-1]
		out.LastRun = &last
	}
	for _, t := range summary.Trend {
		if t.Month == out.CurrentMonth {
			out.CurrentMonthRun = true
		}
	}
	return out, nil
}

func (s *Service) EmployeeDashboard(ctx context.Context, code int) (EmployeeDashboard, error) {
	rec, err := s.store.GetEmployee(ctx, code)
	if err != nil {
		return EmployeeDashboard{}, err
	}
	b, _, err := s.payroll.Preview(ctx, code)
	if err != nil {
		return EmployeeDashboard{}, err
	}
	return EmployeeDashboard{Employee: rec.Public(), Preview: b}, nil
}

func (s *Service) Chart(ctx context.Context, w io.Writer, name string) error {
	summary, err := s.Summary(ctx)
	if err != nil {
		return err
	}
	return WriteChart(w, name, summary)
}
