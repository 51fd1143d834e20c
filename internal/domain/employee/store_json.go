package employee

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

const (
	minEmployeeCode  = 1000
	maxEmployeeCode  = 9999
	codeAttemptLimit = 64
)

type document struct {
	Roles          RoleTable      `json:"roles"`
	Employees      []Record       `json:"employees"`
	PayrollHistory []HistoryEntry `json:"payroll_history"`
	Admin          AdminLogin     `json:"admin"`
}

// JSONStore keeps every record in a single JSON document on disk. All access is
// serialized through one mutex, so each call sees and writes a consistent file.
type JSONStore struct {
	mu       sync.Mutex
	path     string
	codeFunc func() int
}

func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{
		path:     path,
		codeFunc: func() int { return minEmployeeCode + rand.IntN(maxEmployeeCode-minEmployeeCode+1) },
	}
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) ensureFile() error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return s.save(document{
		Roles:          RoleTable{},
		Employees:      []Record{},
		PayrollHistory: []HistoryEntry{},
	})
}

func (s *JSONStore) load() (document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return document{}, fmt.Errorf("read data file: %w", err)
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return document{}, fmt.Errorf("decode data file: %w", err)
	}
	if doc.Roles == nil {
		doc.Roles = RoleTable{}
	}
	return doc, nil
}

func (s *JSONStore) save(doc document) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".employees-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write data file: %w", err)
	}
	return nil
}

// view runs fn against a freshly loaded document without writing it back.
func (s *JSONStore) view(fn func(doc *document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	return fn(&doc)
}

// mutate runs fn against a freshly loaded document and saves it if fn succeeds.
func (s *JSONStore) mutate(fn func(doc *document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	return s.save(doc)
}

func (s *JSONStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := os.Stat(s.path)
	return err
}

func (s *JSONStore) ListEmployees(ctx context.Context) ([]Record, error) {
	var out []Record
	err := s.view(func(doc *document) error {
		out = slices.Clone(doc.Employees)
		return nil
	})
	return out, err
}

func (s *JSONStore) GetEmployee(ctx context.Context, code int) (Record, error) {
	var out Record
	err := s.view(func(doc *document) error {
		idx := indexByCode(doc.Employees, code)
		if idx < 0 {
			return ErrEmployeeNotFound
		}
		out = doc.Employees[idx]
		return nil
	})
	return out, err
}

func (s *JSONStore) FindByUsername(ctx context.Context, username string) (Record, error) {
	var out Record
	err := s.view(func(doc *document) error {
		idx := indexByUsername(doc.Employees, username)
		if idx < 0 {
			return ErrEmployeeNotFound
		}
		out = doc.Employees[idx]
		return nil
	})
	return out, err
}

func (s *JSONStore) CreateEmployee(ctx context.Context, rec Record) (Record, error) {
	err := s.mutate(func(doc *document) error {
		if indexByUsername(doc.Employees, rec.Username) >= 0 || doc.adminNamed(rec.Username) {
			return ErrUsernameTaken
		}
		if rec.Code == 0 {
			rec.Code = s.freeCode(doc.Employees)
		} else if indexByCode(doc.Employees, rec.Code) >= 0 {
			return fmt.Errorf("employee code %d already exists", rec.Code)
		}
		doc.Employees = append(doc.Employees, rec)
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *JSONStore) freeCode(employees []Record) int {
	for range codeAttemptLimit {
		code := s.codeFunc()
		if indexByCode(employees, code) < 0 {
			return code
		}
	}
	highest := maxEmployeeCode
	for _, emp := range employees {
		highest = max(highest, emp.Code)
	}
	return highest + 1
}

func (s *JSONStore) UpdateEmployee(ctx context.Context, code int, fn func(*Record) error) (Record, error) {
	var out Record
	err := s.mutate(func(doc *document) error {
		idx := indexByCode(doc.Employees, code)
		if idx < 0 {
			return ErrEmployeeNotFound
		}
		updated := doc.Employees[idx]
		if err := fn(&updated); err != nil {
			return err
		}
		if updated.Code != code {
			return ErrCodeImmutable
		}
		if other := indexByUsername(doc.Employees, updated.Username); other >= 0 && other != idx {
			return ErrUsernameTaken
		}
		if doc.adminNamed(updated.Username) {
			return ErrUsernameTaken
		}
		doc.Employees[idx] = updated
		out = updated
		return nil
	})
	return out, err
}

func (s *JSONStore) DeleteEmployee(ctx context.Context, code int) error {
	return s.mutate(func(doc *document) error {
		idx := indexByCode(doc.Employees, code)
		if idx < 0 {
			return ErrEmployeeNotFound
		}
		doc.Employees = slices.Delete(doc.Employees, idx, idx+1)
		return nil
	})
}

func (s *JSONStore) RoleTable(ctx context.Context) (RoleTable, error) {
	out := RoleTable{}
	err := s.view(func(doc *document) error {
		for name, rate := range doc.Roles {
			out[name] = rate
		}
		return nil
	})
	return out, err
}

func (s *JSONStore) UpsertRole(ctx context.Context, name string, rate RoleRate) error {
	return s.mutate(func(doc *document) error {
		doc.Roles[name] = rate
		return nil
	})
}

func (s *JSONStore) AppendHistory(ctx context.Context, entry HistoryEntry) error {
	return s.mutate(func(doc *document) error {
		for _, existing := range doc.PayrollHistory {
			if existing.Month == entry.Month {
				return ErrHistoryExists
			}
		}
		doc.PayrollHistory = append(doc.PayrollHistory, entry)
		return nil
	})
}

func (s *JSONStore) CloseMonth(ctx context.Context, month string, fn func(records []Record) (HistoryEntry, error)) error {
	return s.mutate(func(doc *document) error {
		if slices.ContainsFunc(doc.PayrollHistory, func(h HistoryEntry) bool { return h.Month == month }) {
			return ErrHistoryExists
		}
		records := slices.Clone(doc.Employees)
		entry, err := fn(records)
		if err != nil {
			return err
		}
		for i := range records {
			if records[i].Code != doc.Employees[i].Code {
				return ErrCodeImmutable
			}
		}
		entry.Month = month
		doc.Employees = records
		doc.PayrollHistory = append(doc.PayrollHistory, entry)
		return nil
	})
}

func (s *JSONStore) History(ctx context.Context) ([]HistoryEntry, error) {
	var out []HistoryEntry
	err := s.view(func(doc *document) error {
		out = slices.Clone(doc.PayrollHistory)
		return nil
	})
	slices.SortFunc(out, func(a, b HistoryEntry) int { return strings.Compare(a.Month, b.Month) })
	return out, err
}

func (s *JSONStore) AdminLogin(ctx context.Context) (AdminLogin, error) {
	var out AdminLogin
	err := s.view(func(doc *document) error {
		if doc.Admin.Username == "" || doc.Admin.PasswordHash == "" {
			return ErrAdminNotConfigured
		}
		out = doc.Admin
		return nil
	})
	return out, err
}

func (s *JSONStore) SetAdminLogin(ctx context.Context, login AdminLogin) error {
	return s.mutate(func(doc *document) error {
		doc.Admin = login
		return nil
	})
}

// adminNamed reports whether username belongs to the admin login, which is
// checked before employee records at login.
func (d *document) adminNamed(username string) bool {
	return d.Admin.Username != "" && normalizeUsername(d.Admin.Username) == normalizeUsername(username)
}

func indexByCode(employees []Record, code int) int {
	return slices.IndexFunc(employees, func(r Record) bool { return r.Code == code })
}

func indexByUsername(employees []Record, username string) int {
	key := normalizeUsername(username)
	return slices.IndexFunc(employees, func(r Record) bool { return normalizeUsername(r.Username) == key })
}
