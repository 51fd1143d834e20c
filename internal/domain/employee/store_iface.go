package employee

import "context"

// Store is the persistence seam for employee records, the role rate table and
// payroll history. Implementations own any locking needed so that
// UpdateEmployee is an atomic read-modify-write of a single record.
type Store interface {
	Ping(ctx context.Context) error

	ListEmployees(ctx context.Context) ([]Record, error)
	GetEmployee(ctx context.Context, code int) (Record, error)
	FindByUsername(ctx context.Context, username string) (Record, error)
	CreateEmployee(ctx context.Context, rec Record) (Record, error)
	UpdateEmployee(ctx context.Context, code int, fn func(*Record) error) (Record, error)
	DeleteEmployee(ctx context.Context, code int) error

	RoleTable(ctx context.Context) (RoleTable, error)
	UpsertRole(ctx context.Context, name string, rate RoleRate) error

	AppendHistory(ctx context.Context, entry HistoryEntry) error
	// CloseMonth passes every employee record to fn, which may modify them in
	// place and returns the month's history entry. The records and the entry
	// are written together or not at all. ErrHistoryExists is returned when
	// month is already recorded.
	CloseMonth(ctx context.Context, month string, fn func(records []Record) (HistoryEntry, error)) error
	History(ctx context.Context) ([]HistoryEntry, error)

	AdminLogin(ctx context.Context) (AdminLogin, error)
	SetAdminLogin(ctx context.Context, login AdminLogin) error
}
