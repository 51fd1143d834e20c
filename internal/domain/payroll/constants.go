package payroll

import "github.com/shopspring/decimal"

const (
	DefaultHourlyRate = 300

	MealAllowance      = 300
	MedicalAllowance   = 300
	TransportAllowance = 300
)

// Fractions of basic pay. Kept as decimals so the products are exact before
// they are floored to whole currency units.
var (
	TaxRate       = decimal.RequireFromString("0.04")
	DARate        = decimal.RequireFromString("1.20")
	PFRate        = decimal.RequireFromString("0.12")
	HRARate       = decimal.RequireFromString("0.27")
	LoanDebitRate = decimal.RequireFromString("0.09")
)

var (
	multiplierNone   = decimal.RequireFromString("1.00")
	multiplierJunior = decimal.RequireFromString("1.05")
	multiplierMid    = decimal.RequireFromString("1.10")
	multiplierSenior = decimal.RequireFromString("1.15")
	multiplierLead   = decimal.RequireFromString("1.20")
)

const monthLayout = "2006-01"
