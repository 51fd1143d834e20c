package employee

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *JSONStore {
	t.Helper()
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "data", "employees.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestJSONStoreCreatesSkeleton(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "employees.json")
	if _, err := NewJSONStore(path); err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected data file to exist: %v", err)
	}
}

func TestJSONStoreEmployeeLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created, err := store.CreateEmployee(ctx, Record{Name: "Asha Rao", Username: "asha", Role: "Engineer", Exp: 2, WorkingHours: 160, LoanBalance: 10000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Code < minEmployeeCode || created.Code > maxEmployeeCode {
		t.Fatalf("expected generated code in range, got %d", created.Code)
	}

	got, err := store.GetEmployee(ctx, created.Code)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Username != "asha" || got.WorkingHours != 160 {
		t.Fatalf("unexpected record: %+v", got)
	}

	byName, err := store.FindByUsername(ctx, "ASHA")
	if err != nil || byName.Code != created.Code {
		t.Fatalf("expected case-insensitive username lookup, got %+v, %v", byName, err)
	}

	updated, err := store.UpdateEmployee(ctx, created.Code, func(r *Record) error {
		r.LoanBalance = 5464
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.LoanBalance != 5464 {
		t.Fatalf("expected updated balance, got %v", updated.LoanBalance)
	}

	if err := store.DeleteEmployee(ctx, created.Code); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetEmployee(ctx, created.Code); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := store.DeleteEmployee(ctx, created.Code); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestJSONStoreRejectsDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.CreateEmployee(ctx, Record{Name: "A", Username: "dup", Role: "Engineer"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CreateEmployee(ctx, Record{Name: "B", Username: "Dup", Role: "Engineer"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected username conflict, got %v", err)
	}

	second, err := store.CreateEmployee(ctx, Record{Name: "C", Username: "other", Role: "Engineer"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = store.UpdateEmployee(ctx, second.Code, func(r *Record) error {
		r.Username = first.Username
		return nil
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected username conflict on update, got %v", err)
	}
}

func TestJSONStoreUpdateKeepsCode(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rec, err := store.CreateEmployee(ctx, Record{Name: "A", Username: "a-user", Role: "Engineer"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = store.UpdateEmployee(ctx, rec.Code, func(r *Record) error {
		r.Code++
		return nil
	})
	if !errors.Is(err, ErrCodeImmutable) {
		t.Fatalf("expected immutable code error, got %v", err)
	}
}

func TestJSONStoreUpdateAbortsOnCallbackError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rec, err := store.CreateEmployee(ctx, Record{Name: "A", Username: "abort", Role: "Engineer", LoanBalance: 100})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	boom := errors.New("boom")
	_, err = store.UpdateEmployee(ctx, rec.Code, func(r *Record) error {
		r.LoanBalance = 0
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	got, err := store.GetEmployee(ctx, rec.Code)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LoanBalance != 100 {
		t.Fatalf("expected balance unchanged, got %v", got.LoanBalance)
	}
}

func TestJSONStoreConcurrentUpdatesSerialize(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rec, err := store.CreateEmployee(ctx, Record{Name: "A", Username: "race", Role: "Engineer", LoanBalance: 1000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const workers = 20
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.UpdateEmployee(ctx, rec.Code, func(r *Record) error {
				r.LoanBalance -= 10
				return nil
			}); err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := store.GetEmployee(ctx, rec.Code)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LoanBalance != 800 {
		t.Fatalf("expected 800 after %d debits, got %v", workers, got.LoanBalance)
	}
}

func TestJSONStoreFreeCodeSkipsTaken(t *testing.T) {
	store := newTestStore(t)
	store.codeFunc = func() int { return 1234 }

	code := store.freeCode([]Record{{Code: 1234}})
	if code != maxEmployeeCode+1 {
		t.Fatalf("expected fallback code %d, got %d", maxEmployeeCode+1, code)
	}
	if code := store.freeCode(nil); code != 1234 {
		t.Fatalf("expected 1234, got %d", code)
	}
}

func TestJSONStoreRolesHistoryAndAdmin(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.UpsertRole(ctx, "Engineer", RoleRate{HourlyRate: 300}); err != nil {
		t.Fatalf("upsert role: %v", err)
	}
	roles, err := store.RoleTable(ctx)
	if err != nil {
		t.Fatalf("roles: %v", err)
	}
	if roles["Engineer"].HourlyRate != 300 {
		t.Fatalf("unexpected roles: %+v", roles)
	}

	for _, month := range []string{"2026-02", "2026-01"} {
		if err := store.AppendHistory(ctx, HistoryEntry{Month: month, TotalExpense: 100, Employees: 1}); err != nil {
			t.Fatalf("append history: %v", err)
		}
	}
	if err := store.AppendHistory(ctx, HistoryEntry{Month: "2026-01"}); !errors.Is(err, ErrHistoryExists) {
		t.Fatalf("expected duplicate month error, got %v", err)
	}
	history, err := store.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Month != "2026-01" {
		t.Fatalf("expected sorted history, got %+v", history)
	}

	if _, err := store.AdminLogin(ctx); !errors.Is(err, ErrAdminNotConfigured) {
		t.Fatalf("expected admin not configured, got %v", err)
	}
	if err := store.SetAdminLogin(ctx, AdminLogin{Username: "admin", PasswordHash: "hash"}); err != nil {
		t.Fatalf("set admin: %v", err)
	}
	admin, err := store.AdminLogin(ctx)
	if err != nil || admin.Username != "admin" {
		t.Fatalf("unexpected admin: %+v, %v", admin, err)
	}
}

func TestJSONStoreCloseMonth(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	a, _ := store.CreateEmployee(ctx, Record{Name: "A", Username: "a", Role: "Engineer", LoanBalance: 1000})
	b, _ := store.CreateEmployee(ctx, Record{Name: "B", Username: "b", Role: "Engineer", LoanBalance: 2000})

	errAbort := errors.New("abort")
	err := store.CloseMonth(ctx, "2026-01", func(records []Record) (HistoryEntry, error) {
		records[0].LoanBalance = 0
		return HistoryEntry{}, errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("expected abort, got %v", err)
	}
	if got, _ := store.GetEmployee(ctx, a.Code); got.LoanBalance != 1000 {
		t.Fatalf("aborted close changed balance: %v", got.LoanBalance)
	}

	err = store.CloseMonth(ctx, "2026-01", func(records []Record) (HistoryEntry, error) {
		records[0].Code = 42
		return HistoryEntry{}, nil
	})
	if !errors.Is(err, ErrCodeImmutable) {
		t.Fatalf("expected ErrCodeImmutable, got %v", err)
	}

	err = store.CloseMonth(ctx, "2026-01", func(records []Record) (HistoryEntry, error) {
		for i := range records {
			records[i].LoanBalance -= 500
		}
		return HistoryEntry{Month: "ignored", TotalExpense: 900, Employees: len(records)}, nil
	})
	if err != nil {
		t.Fatalf("close month: %v", err)
	}
	for code, want := range map[int]float64{a.Code: 500, b.Code: 1500} {
		if got, _ := store.GetEmployee(ctx, code); got.LoanBalance != want {
			t.Fatalf("employee %d: expected balance %v, got %v", code, want, got.LoanBalance)
		}
	}
	history, _ := store.History(ctx)
	if len(history) != 1 || history[0].Month != "2026-01" || history[0].Employees != 2 {
		t.Fatalf("unexpected history: %+v", history)
	}

	called := false
	err = store.CloseMonth(ctx, "2026-01", func(records []Record) (HistoryEntry, error) {
		called = true
		return HistoryEntry{}, nil
	})
	if !errors.Is(err, ErrHistoryExists) || called {
		t.Fatalf("expected ErrHistoryExists without calling fn, got %v (called=%v)", err, called)
	}
}

func TestJSONStoreReservesAdminUsername(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if err := store.SetAdminLogin(ctx, AdminLogin{Username: "Admin", PasswordHash: "hash"}); err != nil {
		t.Fatalf("set admin: %v", err)
	}

	if _, err := store.CreateEmployee(ctx, Record{Name: "Imposter", Username: " admin ", Role: "Engineer"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken on create, got %v", err)
	}
	rec, err := store.CreateEmployee(ctx, Record{Name: "Asha", Username: "asha", Role: "Engineer"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = store.UpdateEmployee(ctx, rec.Code, func(r *Record) error {
		r.Username = "ADMIN"
		return nil
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken on update, got %v", err)
	}
	if got, _ := store.GetEmployee(ctx, rec.Code); got.Username != "asha" {
		t.Fatalf("rejected update changed username to %q", got.Username)
	}
}
