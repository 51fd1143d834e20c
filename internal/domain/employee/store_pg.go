package employee

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const updateEmployeeSQL = `
    UPDATE employees
    SET name = $2, username = $3, password_hash = $4, role = $5, department = $6,
        exp = $7, working_hours = $8, loan_balance = $9,
        salary = $10, hra = $11, da = $12, pf = $13, tax = $14,
        meal_allowance = $15, medical_allowance = $16, transport_allowance = $17,
        loan_debit = $18, grosspay = $19, effective_rate = $20, updated_at = now()
    WHERE code = $1
  `

const employeeColumns = `
  code, name, username, password_hash, role, department, exp, working_hours, loan_balance,
  salary, hra, da, pf, tax, meal_allowance, medical_allowance, transport_allowance,
  loan_debit, grosspay, effective_rate`

// PGStore persists records in Postgres. Per-record exclusion comes from row
// locks taken inside UpdateEmployee.
type PGStore struct {
	DB *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.Code, &rec.Name, &rec.Username, &rec.PasswordHash, &rec.Role, &rec.Department,
		&rec.Exp, &rec.WorkingHours, &rec.LoanBalance,
		&rec.Salary, &rec.HRA, &rec.DA, &rec.PF, &rec.Tax,
		&rec.MealAllowance, &rec.MedicalAllowance, &rec.TransportAllowance,
		&rec.LoanDebit, &rec.GrossPay, &rec.EffectiveRate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrEmployeeNotFound
	}
	return rec, err
}

func (s *PGStore) ListEmployees(ctx context.Context) ([]Record, error) {
	rows, err := s.DB.Query(ctx, "SELECT"+employeeColumns+" FROM employees ORDER BY code")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PGStore) GetEmployee(ctx context.Context, code int) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, "SELECT"+employeeColumns+" FROM employees WHERE code = $1", code))
}

func (s *PGStore) FindByUsername(ctx context.Context, username string) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, "SELECT"+employeeColumns+" FROM employees WHERE lower(username) = $1", normalizeUsername(username)))
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// adminNamed reports whether username belongs to the admin login, which is
// checked before employee records at login.
func adminNamed(ctx context.Context, q rowQuerier, username string) (bool, error) {
	var taken bool
	err := q.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM admin_login WHERE lower(username) = $1)", normalizeUsername(username)).Scan(&taken)
	return taken, err
}

func (s *PGStore) CreateEmployee(ctx context.Context, rec Record) (Record, error) {
	taken, err := adminNamed(ctx, s.DB, rec.Username)
	if err != nil {
		return Record{}, err
	}
	if taken {
		return Record{}, ErrUsernameTaken
	}
	assign := rec.Code == 0
	for range codeAttemptLimit {
		if assign {
			rec.Code = minEmployeeCode + rand.IntN(maxEmployeeCode-minEmployeeCode+1)
		}
		err := s.insert(ctx, rec)
		if err == nil {
			return rec, nil
		}
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
			return Record{}, err
		}
		if pgErr.ConstraintName == "employees_username_key" {
			return Record{}, ErrUsernameTaken
		}
		if !assign {
			return Record{}, fmt.Errorf("employee code %d already exists", rec.Code)
		}
	}
	return Record{}, errors.New("no free employee code")
}

func (s *PGStore) insert(ctx context.Context, rec Record) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO employees (`+employeeColumns+`)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
  `, recordArgs(rec)...)
	return err
}

func recordArgs(rec Record) []any {
	return []any{
		rec.Code, rec.Name, rec.Username, rec.PasswordHash, rec.Role, rec.Department,
		rec.Exp, rec.WorkingHours, rec.LoanBalance,
		rec.Salary, rec.HRA, rec.DA, rec.PF, rec.Tax,
		rec.MealAllowance, rec.MedicalAllowance, rec.TransportAllowance,
		rec.LoanDebit, rec.GrossPay, rec.EffectiveRate,
	}
}

func (s *PGStore) UpdateEmployee(ctx context.Context, code int, fn func(*Record) error) (Record, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Record{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rec, err := scanRecord(tx.QueryRow(ctx, "SELECT"+employeeColumns+" FROM employees WHERE code = $1 FOR UPDATE", code))
	if err != nil {
		return Record{}, err
	}
	if err := fn(&rec); err != nil {
		return Record{}, err
	}
	if rec.Code != code {
		return Record{}, ErrCodeImmutable
	}
	taken, err := adminNamed(ctx, tx, rec.Username)
	if err != nil {
		return Record{}, err
	}
	if taken {
		return Record{}, ErrUsernameTaken
	}

	if _, err := tx.Exec(ctx, updateEmployeeSQL, recordArgs(rec)...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Record{}, ErrUsernameTaken
		}
		return Record{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *PGStore) DeleteEmployee(ctx context.Context, code int) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM employees WHERE code = $1", code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *PGStore) RoleTable(ctx context.Context) (RoleTable, error) {
	rows, err := s.DB.Query(ctx, "SELECT name, hourly_rate FROM roles")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	table := RoleTable{}
	for rows.Next() {
		var name string
		var rate RoleRate
		if err := rows.Scan(&name, &rate.HourlyRate); err != nil {
			return nil, err
		}
		table[name] = rate
	}
	return table, rows.Err()
}

func (s *PGStore) UpsertRole(ctx context.Context, name string, rate RoleRate) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO roles (name, hourly_rate) VALUES ($1, $2)
    ON CONFLICT (name) DO UPDATE SET hourly_rate = EXCLUDED.hourly_rate
  `, name, rate.HourlyRate)
	return err
}

func (s *PGStore) AppendHistory(ctx context.Context, entry HistoryEntry) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO payroll_history (month, total_expense, employees) VALUES ($1, $2, $3)
  `, entry.Month, entry.TotalExpense, entry.Employees)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrHistoryExists
	}
	return err
}

// CloseMonth locks every employee row, applies fn and writes the records and
// the history row in one transaction.
func (s *PGStore) CloseMonth(ctx context.Context, month string, fn func(records []Record) (HistoryEntry, error)) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM payroll_history WHERE month = $1)", month).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrHistoryExists
	}

	rows, err := tx.Query(ctx, "SELECT"+employeeColumns+" FROM employees ORDER BY code FOR UPDATE")
	if err != nil {
		return err
	}
	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			rows.Close()
			return err
		}
		records = append(records, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	codes := make([]int, len(records))
	for i, rec := range records {
		codes[i] = rec.Code
	}
	entry, err := fn(records)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, rec := range records {
		if rec.Code != codes[i] {
			return ErrCodeImmutable
		}
		batch.Queue(updateEmployeeSQL, recordArgs(rec)...)
	}
	batch.Queue(`
    INSERT INTO payroll_history (month, total_expense, employees) VALUES ($1, $2, $3)
  `, month, entry.TotalExpense, entry.Employees)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrHistoryExists
		}
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) History(ctx context.Context) ([]HistoryEntry, error) {
	rows, err := s.DB.Query(ctx, "SELECT month, total_expense, employees FROM payroll_history ORDER BY month")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		if err := rows.Scan(&entry.Month, &entry.TotalExpense, &entry.Employees); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *PGStore) AdminLogin(ctx context.Context) (AdminLogin, error) {
	var login AdminLogin
	err := s.DB.QueryRow(ctx, "SELECT username, password_hash, totp_secret FROM admin_login WHERE id = 1").
		Scan(&login.Username, &login.PasswordHash, &login.TOTPSecret)
	if errors.Is(err, pgx.ErrNoRows) {
		return AdminLogin{}, ErrAdminNotConfigured
	}
	return login, err
}

func (s *PGStore) SetAdminLogin(ctx context.Context, login AdminLogin) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO admin_login (id, username, password_hash, totp_secret) VALUES (1, $1, $2, $3)
    ON CONFLICT (id) DO UPDATE
    SET username = EXCLUDED.username, password_hash = EXCLUDED.password_hash, totp_secret = EXCLUDED.totp_secret
  `, login.Username, login.PasswordHash, login.TOTPSecret)
	return err
}
