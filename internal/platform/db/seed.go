package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"paydesk/internal/domain/auth"
	"paydesk/internal/domain/employee"
)

type SeedOptions struct {
	Roles           employee.RoleTable
	AdminUsername   string
	AdminPassword   string
	AdminTOTPSecret string
}

// Seed fills an empty store: role rates when none exist and the admin login
// when none is configured. Existing data is never overwritten.
func Seed(ctx context.Context, store employee.Store, opts SeedOptions) error {
	existing, err := store.RoleTable(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		for _, name := range opts.Roles.Names() {
			if err := store.UpsertRole(ctx, name, opts.Roles[name]); err != nil {
				return err
			}
		}
		slog.Info("role rates seeded", "roles", len(opts.Roles))
	}

	_, err = store.AdminLogin(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, employee.ErrAdminNotConfigured) {
		return err
	}
	if strings.TrimSpace(opts.AdminUsername) == "" || opts.AdminPassword == "" {
		slog.Warn("admin login not configured; set SEED_ADMIN_PASSWORD to create one")
		return nil
	}
	hash, err := auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return err
	}
	if err := store.SetAdminLogin(ctx, employee.AdminLogin{
		Username:     strings.TrimSpace(opts.AdminUsername),
		PasswordHash: hash,
		TOTPSecret:   opts.AdminTOTPSecret,
	}); err != nil {
		return err
	}
	slog.Info("admin login seeded", "username", opts.AdminUsername, "totp", opts.AdminTOTPSecret != "")
	return nil
}
