package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestFS_MigrationsAreVersionedGooseFiles(t *testing.T) {
	names, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no migrations embedded")
	}
	for _, name := range names {
		body, err := fs.ReadFile(FS, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !strings.Contains(string(body), "-- +goose Up") {
			t.Errorf("%s has no Up section", name)
		}
		if name[0] < '0' || name[0] > '9' {
			t.Errorf("%s does not start with a version number", name)
		}
	}
}

func TestFS_InitialSchemaDefinesKVTable(t *testing.T) {
	body, err := fs.ReadFile(FS, "001_initial_schema.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(body), "CREATE TABLE kv_entries") {
		t.Error("kv_entries table not created")
	}
	if !strings.Contains(string(body), "DROP TABLE kv_entries") {
		t.Error("down migration does not drop kv_entries")
	}
}
