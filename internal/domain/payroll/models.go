package payroll

import "github.com/shopspring/decimal"

// Input is everything the calculator needs for one employee and one period.
type Input struct {
	Hours       decimal.Decimal
	LoanBalance decimal.Decimal
	HourlyRate  decimal.Decimal
	Experience  int
}

// Breakdown is the result of one calculation. Money values are whole units.
type Breakdown struct {
	Hours         decimal.Decimal `json:"hours"`
	HourlyRate    decimal.Decimal `json:"hourlyRate"`
	Multiplier    decimal.Decimal `json:"expMultiplier"`
	EffectiveRate decimal.Decimal `json:"effectiveRate"`
	RateDefaulted bool            `json:"rateDefaulted"`

	Basic              int64 `json:"basic"`
	HRA                int64 `json:"hra"`
	DA                 int64 `json:"da"`
	MealAllowance      int64 `json:"mealAllowance"`
	MedicalAllowance   int64 `json:"medicalAllowance"`
	TransportAllowance int64 `json:"transportAllowance"`

	PF        int64 `json:"pf"`
	Tax       int64 `json:"tax"`
	LoanDebit int64 `json:"loanDebit"`

	LoanBalance      int64 `json:"loanBalance"`
	LoanBalanceAfter int64 `json:"loanBalanceAfter"`
	GrossPay         int64 `json:"grossPay"`
	NetPay           int64 `json:"netPay"`
}

// Earnings is the sum of basic pay and every allowance.
func (b Breakdown) Earnings() int64 {
	return b.Basic + b.MealAllowance + b.MedicalAllowance + b.TransportAllowance + b.HRA + b.DA
}

// Deductions is the sum of PF, tax and the loan debit.
func (b Breakdown) Deductions() int64 {
	return b.PF + b.Tax + b.LoanDebit
}

// RunSummary reports one monthly payroll run.
type RunSummary struct {
	Month          string   `json:"month"`
	Employees      int      `json:"employees"`
	TotalExpense   int64    `json:"totalExpense"`
	TotalLoanDebit int64    `json:"totalLoanDebit"`
	DefaultedRoles []string `json:"defaultedRoles,omitempty"`
}
