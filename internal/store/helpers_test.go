package store

import (
	"database/sql"
	"testing"

	"github.com/dukerupert/larder/internal/database"
)

// newTestDB opens a migrated in-memory database. The pool is pinned to one
// connection so every statement sees the same in-memory instance.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// seedUser creates a user for tests that need an owner row.
func seedUser(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	us := NewUserStore(db)
	u, err := us.Create(email, "hash", "Test User")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.ID
}

// seedRecipe creates a minimal recipe owned by userID.
func seedRecipe(t *testing.T, db *sql.DB, userID int64, title string, private bool) int64 {
	t.Helper()
	rs := NewRecipeStore(db)
	r, err := rs.Create(userID, RecipeInput{
		Title:      title,
		PrepTime:   "30 min",
		Servings:   4,
		Directions: "Mix and bake.",
		IsPrivate:  private,
	})
	if err != nil {
		t.Fatalf("seed recipe: %v", err)
	}
	return r.ID
}
