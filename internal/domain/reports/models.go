package reports

import (
	"paydesk/internal/domain/employee"
	"paydesk/internal/domain/payroll"
)

// PayLine is one employee's freshly calculated pay.
type PayLine struct {
	Code      int
	Role      string
	Breakdown payroll.Breakdown
}

type RoleTotal struct {
	Role       string `json:"role"`
	Employees  int    `json:"employees"`
	TotalGross int64  `json:"totalGross"`
	Configured bool   `json:"configured"`
}

// Averages are per-employee means of the cached deductions, rounded to two
// decimals.
type Averages struct {
	PF        float64 `json:"pf"`
	Tax       float64 `json:"tax"`
	LoanDebit float64 `json:"loanDebit"`
}

type TrendPoint struct {
	Month        string `json:"month"`
	TotalExpense int64  `json:"totalExpense"`
	Employees    int    `json:"employees"`
}

type Summary struct {
	Headcount  int          `json:"headcount"`
	TotalGross int64        `json:"totalGross"`
	Roles      []RoleTotal  `json:"roles"`
	Averages   Averages     `json:"averages"`
	Trend      []TrendPoint `json:"trend"`
}

type AdminDashboard struct {
	Summary
	LastRun         *TrendPoint `json:"lastRun,omitempty"`
	CurrentMonth    string      `json:"currentMonth"`
	CurrentMonthRun bool        `json:"currentMonthRun"`
}

// EmployeeDashboard is what an employee sees about themselves: the stored
// record and a preview of the next calculation.
type EmployeeDashboard struct {
	Employee employee.Record   `json:"employee"`
	Preview  payroll.Breakdown `json:"preview"`
}
