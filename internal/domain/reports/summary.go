package reports

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"paydesk/internal/domain/employee"
)

// Summarize aggregates calculated pay lines and payroll history. Roles from
// the rate table are listed even when nobody holds them; roles held by
// employees but missing from the table are listed as not configured.
func Summarize(lines []PayLine, roles employee.RoleTable, history []employee.HistoryEntry) Summary {
	byRole := map[string]*RoleTotal{}
	for name := range roles {
		byRole[name] = &RoleTotal{Role: name, Configured: true}
	}

	var s Summary
	var pf, tax, loan int64
	for _, line := range lines {
		total, ok := byRole[line.Role]
		if !ok {
			total = &RoleTotal{Role: line.Role}
			byRole[line.Role] = total
		}
		total.Employees++
		total.TotalGross += line.Breakdown.GrossPay

		s.Headcount++
		s.TotalGross += line.Breakdown.GrossPay
		pf += line.Breakdown.PF
		tax += line.Breakdown.Tax
		loan += line.Breakdown.LoanDebit
	}

	s.Roles = make([]RoleTotal, 0, len(byRole))
	for _, total := range byRole {
		s.Roles = append(s.Roles, *total)
	}
	slices.SortFunc(s.Roles, func(a, b RoleTotal) int { return cmp.Compare(a.Role, b.Role) })

	s.Averages = Averages{
		PF:        average(pf, s.Headcount),
		Tax:       average(tax, s.Headcount),
		LoanDebit: average(loan, s.Headcount),
	}

	s.Trend = make([]TrendPoint, 0, len(history))
	for _, h := range history {
		s.Trend = append(s.Trend, TrendPoint{Month: h.Month, TotalExpense: h.TotalExpense, Employees: h.Employees})
	}
	slices.SortFunc(s.Trend, func(a, b TrendPoint) int { return cmp.Compare(a.Month, b.Month) })
	return s
}

func average(sum int64, n int) float64 {
	if n == 0 {
		return 0
	}
	return decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(n))).Round(2).InexactFloat64()
}
