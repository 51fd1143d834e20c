package db

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestMigrationFilesOrdered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_history.sql", "001_payroll.sql", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := migrationFiles(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !slices.Equal(files, []string{"001_payroll.sql", "002_history.sql"}) {
		t.Fatalf("unexpected files: %v", files)
	}
}

func TestMigrateAgainstDatabase(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	dir := filepath.Join("..", "..", "..", "migrations")
	if err := Migrate(ctx, pool, dir); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// A second run finds everything applied.
	if err := Migrate(ctx, pool, dir); err != nil {
		t.Fatalf("migrate again: %v", err)
	}
}
