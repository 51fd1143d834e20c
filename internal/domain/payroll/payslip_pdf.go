package payroll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"paydesk/internal/domain/employee"
)

const encryptedSuffix = ".enc"

var storedPayslipName = regexp.MustCompile(`^Payslip_[A-Za-z0-9_-]+_[A-Z][a-z]{2}_[0-9]{4}\.pdf(\.enc)?$`)

type Payslip struct {
	FileName  string
	Path      string
	Encrypted bool
	Content   []byte
}

type StoredPayslip struct {
	FileName  string    `json:"fileName"`
	Encrypted bool      `json:"encrypted"`
	Size      int64     `json:"size"`
	StoredAt  time.Time `json:"storedAt"`
}

// PayslipFileName builds Payslip_<Name>_<Mon_YYYY>.pdf with anything outside
// [A-Za-z0-9_-] dropped from the name.
func PayslipFileName(name string, issued time.Time) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == ' ':
			sb.WriteByte('_')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			sb.WriteRune(r)
		}
	}
	safe := sb.String()
	if safe == "" {
		safe = "Employee"
	}
	return fmt.Sprintf("Payslip_%s_%s.pdf", safe, issued.Format("Jan_2006"))
}

// WritePayslipPDF lays out a single-page payslip for rec and b.
func WritePayslipPDF(w io.Writer, rec employee.Record, b Breakdown, issued time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payslip", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Company Payroll Payslip")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Date: "+issued.Format("02 January 2006"))
	pdf.Ln(12)

	section(pdf, "Employee Details")
	details := [][2]string{
		{"Name", rec.Name},
		{"Employee Code", strconv.Itoa(rec.Code)},
		{"Role", rec.Role},
		{"Department", rec.Department},
		{"Experience", fmt.Sprintf("%d years", rec.Exp)},
		{"Working Hours", b.Hours.String() + " Hrs"},
		{"Hourly Rate", b.HourlyRate.StringFixed(2)},
		{"Effective Rate", b.EffectiveRate.StringFixed(2) + " (x" + b.Multiplier.StringFixed(2) + ")"},
	}
	for _, d := range details {
		pdf.Cell(5, 6, "")
		pdf.Cell(0, 6, d[0]+": "+d[1])
		pdf.Ln(6)
	}
	if b.RateDefaulted {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.Cell(5, 6, "")
		pdf.Cell(0, 6, "Role rate not configured; default rate applied.")
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 10)
	}
	pdf.Ln(4)

	section(pdf, "Earnings")
	amountRow(pdf, "Basic Pay", b.Basic)
	amountRow(pdf, "HRA (27%)", b.HRA)
	amountRow(pdf, "DA (120%)", b.DA)
	amountRow(pdf, "Meal Allowance", b.MealAllowance)
	amountRow(pdf, "Medical Allowance", b.MedicalAllowance)
	amountRow(pdf, "Transport Allowance", b.TransportAllowance)
	pdf.Ln(4)

	section(pdf, "Deductions")
	amountRow(pdf, "PF (12%)", b.PF)
	amountRow(pdf, "Tax (4%)", b.Tax)
	amountRow(pdf, "Loan Debit", b.LoanDebit)
	amountRow(pdf, "Loan Balance Remaining", b.LoanBalanceAfter)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 8, "Net Pay:", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, strconv.FormatInt(b.NetPay, 10), "T", 1, "R", false, 0, "")
	pdf.Ln(16)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "This is a computer-generated payslip and does not require a signature.", "", 1, "C", false, 0, "")

	return pdf.Output(w)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
}

func amountRow(pdf *gofpdf.Fpdf, label string, amount int64) {
	pdf.CellFormat(5, 6, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(115, 6, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, strconv.FormatInt(amount, 10), "", 1, "R", false, 0, "")
}

// GeneratePayslip renders the current breakdown for code, stores it in the
// employee's payslip directory and returns the plain PDF bytes. The stored copy is
// encrypted when an encryption key is configured.
func (s *Service) GeneratePayslip(ctx context.Context, code int) (Payslip, error) {
	b, rec, err := s.Preview(ctx, code)
	if err != nil {
		return Payslip{}, err
	}
	issued := s.now()

	var buf bytes.Buffer
	if err := WritePayslipPDF(&buf, rec, b, issued); err != nil {
		return Payslip{}, fmt.Errorf("render payslip: %w", err)
	}

	slip := Payslip{FileName: PayslipFileName(rec.Name, issued), Content: buf.Bytes()}
	if s.payslipDir == "" {
		return slip, nil
	}
	dir := s.employeePayslipDir(code)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Payslip{}, err
	}
	slip.Path = filepath.Join(dir, slip.FileName)

	stored := slip.Content
	if s.crypto != nil && s.crypto.Configured() {
		encrypted, err := s.crypto.Encrypt(stored)
		if err != nil {
			return Payslip{}, err
		}
		stored = encrypted
		slip.Path += encryptedSuffix
		slip.Encrypted = true
	}
	if err := os.WriteFile(slip.Path, stored, 0o600); err != nil {
		return Payslip{}, err
	}
	return slip, nil
}

func (s *Service) employeePayslipDir(code int) string {
	return filepath.Join(s.payslipDir, strconv.Itoa(code))
}

// ListPayslips lists the stored copies for code, newest first.
func (s *Service) ListPayslips(ctx context.Context, code int) ([]StoredPayslip, error) {
	if _, err := s.store.GetEmployee(ctx, code); err != nil {
		return nil, err
	}
	out := []StoredPayslip{}
	if s.payslipDir == "" {
		return out, nil
	}
	entries, err := os.ReadDir(s.employeePayslipDir(code))
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() || !storedPayslipName.MatchString(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, StoredPayslip{
			FileName:  entry.Name(),
			Encrypted: strings.HasSuffix(entry.Name(), encryptedSuffix),
			Size:      info.Size(),
			StoredAt:  info.ModTime().UTC(),
		})
	}
	slices.SortFunc(out, func(a, b StoredPayslip) int {
		if c := b.StoredAt.Compare(a.StoredAt); c != 0 {
			return c
		}
		return strings.Compare(a.FileName, b.FileName)
	})
	return out, nil
}

// ReadStoredPayslip returns a stored copy for code as plain PDF bytes. A plain
// .pdf name also finds its encrypted copy.
func (s *Service) ReadStoredPayslip(ctx context.Context, code int, file string) (Payslip, error) {
	if file != filepath.Base(file) || !storedPayslipName.MatchString(file) {
		return Payslip{}, fmt.Errorf("%w: payslip file name %q", ErrInvalidInput, file)
	}
	if _, err := s.store.GetEmployee(ctx, code); err != nil {
		return Payslip{}, err
	}
	if s.payslipDir == "" {
		return Payslip{}, ErrPayslipNotFound
	}

	path := filepath.Join(s.employeePayslipDir(code), file)
	content, err := s.readPayslip(path)
	if errors.Is(err, fs.ErrNotExist) && !strings.HasSuffix(path, encryptedSuffix) {
		path += encryptedSuffix
		content, err = s.readPayslip(path)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return Payslip{}, fmt.Errorf("%w: %s", ErrPayslipNotFound, file)
	}
	if err != nil {
		return Payslip{}, err
	}
	return Payslip{
		FileName:  strings.TrimSuffix(filepath.Base(path), encryptedSuffix),
		Path:      path,
		Encrypted: strings.HasSuffix(path, encryptedSuffix),
		Content:   content,
	}, nil
}

// readPayslip loads a stored payslip, decrypting it when needed.
func (s *Service) readPayslip(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, encryptedSuffix) {
		return data, nil
	}
	if s.crypto == nil || !s.crypto.Configured() {
		return nil, fmt.Errorf("payslip %s is encrypted but no key is configured", filepath.Base(path))
	}
	return s.crypto.Decrypt(data)
}
