package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestMigrationFilesSortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_lists.sql", "0001_init.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	names, err := migrationFiles(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "0001_init.sql" || names[1] != "0002_lists.sql" {
		t.Fatalf("unexpected migrations: %v", names)
	}
}

func TestMigrationFilesMissingDir(t *testing.T) {
	if _, err := migrationFiles(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, []string{"0001_init.sql", "0002_more.sql"}, map[string]struct{}{"0001_init.sql": {}})

	want := "[x] 0001_init.sql\n[ ] 0002_more.sql\n"
	if buf.String() != want {
		t.Fatalf("status output = %q, want %q", buf.String(), want)
	}
}

func TestSeedFileName(t *testing.T) {
	if got := seedFileName("dev"); got != "dev_seed.sql" {
		t.Fatalf("seedFileName(dev) = %q", got)
	}
	if got := seedFileName("custom.sql"); got != "custom.sql" {
		t.Fatalf("seedFileName(custom.sql) = %q", got)
	}
}

func TestResolveDir(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "migrations")
	if got, err := resolveDir(abs); err != nil || got != abs {
		t.Fatalf("resolveDir(abs) = %q, %v", got, err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if got, err := resolveDir("migrations"); err != nil || got != filepath.Join(wd, "migrations") {
		t.Fatalf("resolveDir(rel) = %q, %v", got, err)
	}
}
