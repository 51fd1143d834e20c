package reports

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	ChartSalaryDistribution = "salary-distribution"
	ChartDeductions         = "deductions"
	ChartPayrollTrend       = "payroll-trend"
)

var (
	chartWidth  = 8 * vg.Inch
	chartHeight = 5 * vg.Inch
)

// WriteChart renders the named chart for s as PNG.
func WriteChart(w io.Writer, name string, s Summary) error {
	var (
		p   *plot.Plot
		err error
	)
	switch name {
	case ChartSalaryDistribution:
		p, err = salaryDistribution(s)
	case ChartDeductions:
		p, err = deductions(s)
	case ChartPayrollTrend:
		p, err = payrollTrend(s)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownChart, name)
	}
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func salaryDistribution(s Summary) (*plot.Plot, error) {
	if len(s.Roles) == 0 {
		return nil, ErrNoRoles
	}
	values := make(plotter.Values, 0, len(s.Roles))
	names := make([]string, 0, len(s.Roles))
	for _, r := range s.Roles {
		values = append(values, float64(r.TotalGross))
		names = append(names, r.Role)
	}

	p := plot.New()
	p.Title.Text = "Gross pay by role"
	p.Y.Label.Text = "Gross pay"
	bars, err := plotter.NewBarChart(values, vg.Points(28))
	if err != nil {
		return nil, err
	}
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}

// deductions is drawn as bars; plot has no pie chart.
func deductions(s Summary) (*plot.Plot, error) {
	values := plotter.Values{s.Averages.PF, s.Averages.Tax, s.Averages.LoanDebit}

	p := plot.New()
	p.Title.Text = "Average deductions per employee"
	p.Y.Label.Text = "Amount"
	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return nil, err
	}
	p.Add(bars)
	p.NominalX("PF", "Tax", "Loan debit")
	return p, nil
}

func payrollTrend(s Summary) (*plot.Plot, error) {
	if len(s.Trend) == 0 {
		return nil, ErrNoHistory
	}
	points := make(plotter.XYs, len(s.Trend))
	months := make([]string, len(s.Trend))
	for i, t := range s.Trend {
		points[i].X = float64(i)
		points[i].Y = float64(t.TotalExpense)
		months[i] = t.Month
	}

	p := plot.New()
	p.Title.Text = "Monthly payroll expense"
	p.Y.Label.Text = "Total expense"
	line, err := plotter.NewLine(points)
	if err != nil {
		return nil, err
	}
	marks, err := plotter.NewScatter(points)
	if err != nil {
		return nil, err
	}
	p.Add(line, marks, plotter.NewGrid())
	p.NominalX(months...)
	return p, nil
}
