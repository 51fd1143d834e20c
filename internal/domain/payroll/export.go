package payroll

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

const registerSheet = "Register"

// RegisterRow is one employee line of the payroll register. LoanBalance is
// the balance before this period's debit.
type RegisterRow struct {
	Code          int     `csv:"code"`
	Name          string  `csv:"name"`
	Role          string  `csv:"role"`
	Department    string  `csv:"department"`
	Exp           int     `csv:"exp"`
	WorkingHours  float64 `csv:"working_hours"`
	EffectiveRate float64 `csv:"effective_rate"`
	Basic         int64   `csv:"basic"`
	HRA           int64   `csv:"hra"`
	DA            int64   `csv:"da"`
	Allowances    int64   `csv:"allowances"`
	PF            int64   `csv:"pf"`
	Tax           int64   `csv:"tax"`
	LoanDebit     int64   `csv:"loan_debit"`
	Deductions    int64   `csv:"deductions"`
	LoanBalance   float64 `csv:"loan_balance"`
	GrossPay      int64   `csv:"grosspay"`
	NetPay        int64   `csv:"netpay"`
}

var registerHeader = []any{
	"Code", "Name", "Role", "Department", "Exp", "Working Hours", "Effective Rate",
	"Basic", "HRA", "DA", "Allowances", "PF", "Tax", "Loan Debit", "Deductions", "Loan Balance", "Gross Pay", "Net Pay",
}

func (r RegisterRow) cells() []any {
	return []any{
		r.Code, r.Name, r.Role, r.Department, r.Exp, r.WorkingHours, r.EffectiveRate,
		r.Basic, r.HRA, r.DA, r.Allowances, r.PF, r.Tax, r.LoanDebit, r.Deductions, r.LoanBalance, r.GrossPay, r.NetPay,
	}
}

// Register calculates every employee's pay without persisting it and lists
// the results ordered by code. Records the calculator rejects are left out.
func (s *Service) Register(ctx context.Context) ([]RegisterRow, error) {
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := s.store.RoleTable(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]RegisterRow, 0, len(employees))
	for _, rec := range employees {
		b, _, err := ApplyToRecord(rec, roles)
		if err != nil {
			slog.Warn("employee left out of payroll register", "code", rec.Code, "error", err)
			continue
		}
		rows = append(rows, RegisterRow{
			Code:          rec.Code,
			Name:          rec.Name,
			Role:          rec.Role,
			Department:    rec.Department,
			Exp:           rec.Exp,
			WorkingHours:  rec.WorkingHours,
			EffectiveRate: b.EffectiveRate.InexactFloat64(),
			Basic:         b.Basic,
			HRA:           b.HRA,
			DA:            b.DA,
			Allowances:    b.MealAllowance + b.MedicalAllowance + b.TransportAllowance,
			PF:            b.PF,
			Tax:           b.Tax,
			LoanDebit:     b.LoanDebit,
			Deductions:    b.Deductions(),
			LoanBalance:   float64(b.LoanBalance),
			GrossPay:      b.GrossPay,
			NetPay:        b.NetPay,
		})
	}
	slices.SortFunc(rows, func(a, b RegisterRow) int { return cmp.Compare(a.Code, b.Code) })
	return rows, nil
}

func WriteRegisterCSV(w io.Writer, rows []RegisterRow) error {
	if rows == nil {
		rows = []RegisterRow{}
	}
	return gocsv.Marshal(&rows, w)
}

func WriteRegisterXLSX(w io.Writer, rows []RegisterRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(registerSheet, "A1", &registerHeader); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row.cells()
		if err := f.SetSheetRow(registerSheet, cell, &values); err != nil {
			return fmt.Errorf("register row %d: %w", row.Code, err)
		}
	}
	_, err := f.WriteTo(w)
	return err
}
