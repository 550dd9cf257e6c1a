package database

import (
	"testing"
	"testing/fstest"
)

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name   string
		want   int
		wantOK bool
	}{
		{"001_exchanges.sql", 1, true},
		{"012_add_index.sql", 12, true},
		{"abc_bad.sql", 0, false},
		{"000_zero.sql", 0, false},
		{"noprefix.sql", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := migrationVersion(tc.name)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("Expected (%d, %v), got (%d, %v)", tc.want, tc.wantOK, got, ok)
			}
		})
	}
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/010_later.sql":  {Data: []byte("SELECT 10;")},
		"m/002_second.sql": {Data: []byte("SELECT 2;")},
		"m/README.md":      {Data: []byte("notes")},
	}

	migrations, err := loadMigrations(fsys, "m")
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(migrations) != 2 || migrations[0].version != 2 || migrations[1].version != 10 {
		t.Fatalf("expected versions [2 10], got %+v", migrations)
	}

	todo := pending(migrations, map[int]bool{2: true})
	if len(todo) != 1 || todo[0].name != "010_later.sql" {
		t.Fatalf("expected only 010 pending, got %+v", todo)
	}
}

func TestLoadMigrations_Rejects(t *testing.T) {
	tests := map[string]fstest.MapFS{
		"duplicate version": {
			"m/001_a.sql": {Data: []byte("SELECT 1;")},
			"m/001_b.sql": {Data: []byte("SELECT 1;")},
		},
		"unnumbered": {
			"m/exchanges.sql": {Data: []byte("SELECT 1;")},
		},
	}
	for name, fsys := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := loadMigrations(fsys, "m"); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	migrations, err := loadMigrations(migrationFiles, "migrations")
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(migrations) == 0 || migrations[0].name != "001_exchanges.sql" {
		t.Fatalf("expected embedded exchanges migration, got %+v", migrations)
	}
}
