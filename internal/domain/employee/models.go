package employee

import (
	"slices"
	"strings"
)

// Record is one employee's payroll state. Field names match the flat data file.
type Record struct {
	Code         int     `json:"code"`
	Name         string  `json:"name"`
	Username     string  `json:"username"`
	PasswordHash string  `json:"password_hash,omitempty"`
	Role         string  `json:"role"`
	Department   string  `json:"department"`
	Exp          int     `json:"exp"`
	WorkingHours float64 `json:"working_hours"`
	LoanBalance  float64 `json:"loan_balance"`

	// Cached from the most recent calculation.
	Salary             int64   `json:"salary"`
	HRA                int64   `json:"hra"`
	DA                 int64   `json:"da"`
	PF                 int64   `json:"pf"`
	Tax                int64   `json:"tax"`
	MealAllowance      int64   `json:"meal_allowance"`
	MedicalAllowance   int64   `json:"medical_allowance"`
	TransportAllowance int64   `json:"transport_allowance"`
	LoanDebit          int64   `json:"loan_debit"`
	GrossPay           int64   `json:"grosspay"`
	EffectiveRate      float64 `json:"effective_rate"`
}

// Public returns a copy safe to hand to API clients.
func (r Record) Public() Record {
	r.PasswordHash = ""
	return r
}

type RoleRate struct {
	HourlyRate float64 `json:"hourly_rate" yaml:"hourly_rate"`
}

// RoleTable maps role name to its pay rate.
type RoleTable map[string]RoleRate

// Names returns the role names sorted alphabetically.
func (t RoleTable) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type HistoryEntry struct {
	Month        string `json:"month"`
	TotalExpense int64  `json:"total_expense"`
	Employees    int    `json:"employees"`
}

type AdminLogin struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	TOTPSecret   string `json:"totp_secret,omitempty"`
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
