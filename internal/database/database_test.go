package database

import (
	"path/filepath"
	"testing"
)

// These open a file-backed database the way main does, with the default
// connection pool and no manual pragmas.

func TestOpenEnablesForeignKeys(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		t.Fatalf("query pragma: %v", err)
	}
	if enabled != 1 {
		t.Fatalf("foreign_keys = %d, want 1", enabled)
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}

	var timeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("query busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}
}

func TestOpenCascadesWithoutManualPragma(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	res, err := db.Exec(
		"INSERT INTO users (email, password_hash, display_name) VALUES (?, ?, ?)",
		"alice@example.com", "hash", "Alice",
	)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	userID, _ := res.LastInsertId()

	res, err = db.Exec(
		"INSERT INTO recipes (user_id, title, prep_time, servings, directions) VALUES (?, ?, ?, ?, ?)",
		userID, "Toast", "5 min", 1, "Toast the bread.",
	)
	if err != nil {
		t.Fatalf("insert recipe: %v", err)
	}
	recipeID, _ := res.LastInsertId()

	if _, err := db.Exec(
		"INSERT INTO ingredients (recipe_id, name, sort_order) VALUES (?, ?, ?)",
		recipeID, "Bread", 0,
	); err != nil {
		t.Fatalf("insert ingredient: %v", err)
	}

	if _, err := db.Exec("DELETE FROM recipes WHERE id = ?", recipeID); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}

	var orphans int
	if err := db.QueryRow("SELECT COUNT(*) FROM ingredients WHERE recipe_id = ?", recipeID).Scan(&orphans); err != nil {
		t.Fatalf("count ingredients: %v", err)
	}
	if orphans != 0 {
		t.Errorf("orphaned ingredients after recipe delete: %d, want 0", orphans)
	}
}
