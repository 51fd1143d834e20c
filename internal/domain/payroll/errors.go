package payroll

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid payroll input")
	ErrInvalidMonth    = errors.New("month must be formatted as YYYY-MM")
	ErrMonthAlreadyRun = errors.New("payroll already run for month")
	ErrPayslipNotFound = errors.New("payslip not found")
)

// InputError names the calculator input that was rejected.
type InputError struct {
	Field string
	Value string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid payroll input %s: %s", e.Field, e.Value)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}
