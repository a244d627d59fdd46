package database

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenEnablesForeignKeys(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys pragma: %v", err)
	}
	if fk != 1 {
		t.Fatalf("foreign_keys = %d, want 1", fk)
	}
}

func TestOpenSetsWALJournalMode(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode pragma: %v", err)
	}
	if strings.ToLower(mode) != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
}

// Cascade must fire on a handle configured only by Open, with no test-side
// pragma help.
func TestOpenCascadeDelete(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`INSERT INTO users (handle, name, email, password_hash) VALUES ('alice', 'Alice', 'alice@example.com', 'hash')`); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO grocery_lists (name) VALUES ('Groceries')`); err != nil {
		t.Fatalf("insert list: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO grocery_items (list_id, name, quantity) VALUES (1, 'Eggs', '1 dozen')`); err != nil {
		t.Fatalf("insert item: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO access_grants (list_id, user_id, owner) VALUES (1, 1, 1)`); err != nil {
		t.Fatalf("insert grant: %v", err)
	}

	if _, err := db.Exec(`DELETE FROM grocery_lists WHERE id = 1`); err != nil {
		t.Fatalf("delete list: %v", err)
	}

	var items, grants int
	if err := db.QueryRow(`SELECT COUNT(*) FROM grocery_items WHERE list_id = 1`).Scan(&items); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM access_grants WHERE list_id = 1`).Scan(&grants); err != nil {
		t.Fatalf("count grants: %v", err)
	}
	if items != 0 || grants != 0 {
		t.Fatalf("expected cascade to remove children, got %d items and %d grants", items, grants)
	}
}
