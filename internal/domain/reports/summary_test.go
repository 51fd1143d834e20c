package reports

import (
	"testing"

	"paydesk/internal/domain/employee"
	"paydesk/internal/domain/payroll"
)

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil, nil)
	if s.Headcount != 0 || s.TotalGross != 0 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.Averages != (Averages{}) {
		t.Fatalf("expected zero averages, got %+v", s.Averages)
	}
	if len(s.Roles) != 0 || len(s.Trend) != 0 {
		t.Fatalf("expected no roles or trend, got %+v", s)
	}
}

func TestSummarize(t *testing.T) {
	lines := []PayLine{
		{Code: 1, Role: "Engineer", Breakdown: payroll.Breakdown{GrossPay: 1000, PF: 10, Tax: 5, LoanDebit: 7}},
		{Code: 2, Role: "Engineer", Breakdown: payroll.Breakdown{GrossPay: 2000, PF: 20, Tax: 6}},
		{Code: 3, Role: "Astronaut", Breakdown: payroll.Breakdown{GrossPay: 500, PF: 1, Tax: 1}},
	}
	roles := employee.RoleTable{"Engineer": {HourlyRate: 300}, "Intern": {HourlyRate: 150}}
	history := []employee.HistoryEntry{
		{Month: "2026-02", TotalExpense: 900, Employees: 3},
		{Month: "2026-01", TotalExpense: 800, Employees: 2},
	}

	s := Summarize(lines, roles, history)
	if s.Headcount != 3 || s.TotalGross != 3500 {
		t.Fatalf("unexpected totals: %+v", s)
	}

	want := []RoleTotal{
		{Role: "Astronaut", Employees: 1, TotalGross: 500},
		{Role: "Engineer", Employees: 2, TotalGross: 3000, Configured: true},
		{Role: "Intern", Configured: true},
	}
	if len(s.Roles) != len(want) {
		t.Fatalf("expected %d roles, got %+v", len(want), s.Roles)
	}
	for i := range want {
		if s.Roles[i] != want[i] {
			t.Fatalf("role %d: expected %+v, got %+v", i, want[i], s.Roles[i])
		}
	}

	// 31/3, 12/3, 7/3
	if s.Averages.PF != 10.33 || s.Averages.Tax != 4 || s.Averages.LoanDebit != 2.33 {
		t.Fatalf("unexpected averages: %+v", s.Averages)
	}

	if len(s.Trend) != 2 || s.Trend[0].Month != "2026-01" || s.Trend[1].TotalExpense != 900 {
		t.Fatalf("expected trend sorted by month, got %+v", s.Trend)
	}
}
