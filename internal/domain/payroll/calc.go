package payroll

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"paydesk/internal/domain/employee"
)

// ExperienceMultiplier maps years of experience to the seniority factor applied
// to the hourly rate.
func ExperienceMultiplier(exp int) decimal.Decimal {
	switch {
	case exp <= 1:
		return multiplierNone
	case exp <= 3:
		return multiplierJunior
	case exp <= 5:
		return multiplierMid
	case exp <= 7:
		return multiplierSenior
	default:
		return multiplierLead
	}
}

func (in Input) validate() error {
	if in.Hours.IsNegative() {
		return &InputError{Field: "hours", Value: in.Hours.String()}
	}
	if in.LoanBalance.IsNegative() {
		return &InputError{Field: "loan_balance", Value: in.LoanBalance.String()}
	}
	if !in.HourlyRate.IsPositive() {
		return &InputError{Field: "hourly_rate", Value: in.HourlyRate.String()}
	}
	if in.Experience < 0 {
		return &InputError{Field: "exp", Value: strconv.Itoa(in.Experience)}
	}
	return nil
}

// ComputeBreakdown calculates one period's pay. Every monetary value is floored
// to a whole unit before it feeds the next step, and the loan debit never
// exceeds the outstanding balance.
func ComputeBreakdown(in Input) (Breakdown, error) {
	if err := in.validate(); err != nil {
		return Breakdown{}, err
	}

	multiplier := ExperienceMultiplier(in.Experience)
	effectiveRate := in.HourlyRate.Mul(multiplier)
	basic := floorUnits(in.Hours.Mul(effectiveRate))
	basicDec := decimal.NewFromInt(basic)

	b := Breakdown{
		Hours:              in.Hours,
		HourlyRate:         in.HourlyRate,
		Multiplier:         multiplier,
		EffectiveRate:      effectiveRate,
		Basic:              basic,
		Tax:                floorUnits(TaxRate.Mul(basicDec)),
		DA:                 floorUnits(DARate.Mul(basicDec)),
		PF:                 floorUnits(PFRate.Mul(basicDec)),
		HRA:                floorUnits(HRARate.Mul(basicDec)),
		MealAllowance:      MealAllowance,
		MedicalAllowance:   MedicalAllowance,
		TransportAllowance: TransportAllowance,
		LoanBalance:        floorUnits(in.LoanBalance),
	}

	b.LoanDebit = min(floorUnits(LoanDebitRate.Mul(basicDec)), b.LoanBalance)
	b.LoanBalanceAfter = b.LoanBalance - b.LoanDebit
	b.GrossPay = b.Earnings() - b.Deductions()
	b.NetPay = b.GrossPay
	return b, nil
}

// RateFor returns the hourly rate configured for role. A role missing from the
// table gets DefaultHourlyRate and defaulted is reported as true.
func RateFor(role string, roles employee.RoleTable) (rate decimal.Decimal, defaulted bool, err error) {
	entry, ok := roles[role]
	if !ok {
		return decimal.NewFromInt(DefaultHourlyRate), true, nil
	}
	rate, err = decimalFromFloat("hourly_rate", entry.HourlyRate)
	return rate, false, err
}

// ApplyToRecord calculates pay for rec and returns the breakdown together with a
// copy of rec whose cached pay fields and loan balance reflect it. rec itself
// is left untouched; persisting the copy is the caller's job.
func ApplyToRecord(rec employee.Record, roles employee.RoleTable) (Breakdown, employee.Record, error) {
	rate, defaulted, err := RateFor(rec.Role, roles)
	if err != nil {
		return Breakdown{}, rec, err
	}
	hours, err := decimalFromFloat("hours", rec.WorkingHours)
	if err != nil {
		return Breakdown{}, rec, err
	}
	loan, err := decimalFromFloat("loan_balance", rec.LoanBalance)
	if err != nil {
		return Breakdown{}, rec, err
	}

	b, err := ComputeBreakdown(Input{
		Hours:       hours,
		LoanBalance: loan,
		HourlyRate:  rate,
		Experience:  rec.Exp,
	})
	if err != nil {
		return Breakdown{}, rec, err
	}
	b.RateDefaulted = defaulted

	updated := rec
	updated.Salary = b.Basic
	updated.HRA = b.HRA
	updated.DA = b.DA
	updated.PF = b.PF
	updated.Tax = b.Tax
	updated.MealAllowance = b.MealAllowance
	updated.MedicalAllowance = b.MedicalAllowance
	updated.TransportAllowance = b.TransportAllowance
	updated.LoanDebit = b.LoanDebit
	updated.LoanBalance = float64(b.LoanBalanceAfter)
	updated.GrossPay = b.GrossPay
	updated.EffectiveRate = b.EffectiveRate.InexactFloat64()
	return b, updated, nil
}

func floorUnits(d decimal.Decimal) int64 {
	return d.Floor().IntPart()
}

func decimalFromFloat(field string, v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Decimal{}, &InputError{Field: field, Value: strconv.FormatFloat(v, 'g', -1, 64)}
	}
	return decimal.NewFromFloat(v), nil
}
