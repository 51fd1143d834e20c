package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"paydesk/internal/domain/employee"
)

type roleEntry struct {
	Name       string  `yaml:"name"`
	HourlyRate float64 `yaml:"hourly_rate"`
}

type rolesFile struct {
	Version int         `yaml:"version"`
	Roles   []roleEntry `yaml:"roles"`
}

// LoadRoleTable reads the role rate file used to seed an empty store.
func LoadRoleTable(path string) (employee.RoleTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRoleTable(b)
}

func ParseRoleTable(b []byte) (employee.RoleTable, error) {
	var rf rolesFile
	if err := yaml.Unmarshal(b, &rf); err != nil {
		return nil, fmt.Errorf("roles: %w", err)
	}
	if rf.Version != 1 {
		return nil, errors.New("roles: unsupported version")
	}
	if len(rf.Roles) == 0 {
		return nil, errors.New("roles: empty")
	}

	table := make(employee.RoleTable, len(rf.Roles))
	for _, r := range rf.Roles {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, errors.New("roles: role without a name")
		}
		if r.HourlyRate <= 0 {
			return nil, fmt.Errorf("roles: %s must have a positive hourly_rate", name)
		}
		if _, dup := table[name]; dup {
			return nil, fmt.Errorf("roles: %s listed twice", name)
		}
		table[name] = employee.RoleRate{HourlyRate: r.HourlyRate}
	}
	return table, nil
}
