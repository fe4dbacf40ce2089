package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/larder/internal/model"
)

type ShareStore struct {
	db *sql.DB
}

func NewShareStore(db *sql.DB) *ShareStore {
	return &ShareStore{db: db}
}

func scanShareGrant(scanner interface{ Scan(...any) error }) (*model.ShareGrant, error) {
	var g model.ShareGrant
	err := scanner.Scan(&g.ID, &g.RecipeID, &g.SharedWithEmail, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

const shareGrantCols = `id, recipe_id, shared_with_email, created_at`

// Create grants the email read access to the recipe. Granting the same
// email twice returns the existing grant.
func (s *ShareStore) Create(recipeID int64, email string) (*model.ShareGrant, error) {
	result, err := s.db.Exec(
		`INSERT OR IGNORE INTO share_grants (recipe_id, shared_with_email) VALUES (?, ?)`,
		recipeID, email,
	)
	if err != nil {
		return nil, fmt.Errorf("insert share grant: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		row := s.db.QueryRow(`SELECT `+shareGrantCols+` FROM share_grants WHERE id = ?`, id)
		return scanShareGrant(row)
	}
	return s.Get(recipeID, email)
}

// Get returns the grant for (recipe, email), or nil if none exists.
func (s *ShareStore) Get(recipeID int64, email string) (*model.ShareGrant, error) {
	row := s.db.QueryRow(
		`SELECT `+shareGrantCols+` FROM share_grants WHERE recipe_id = ? AND shared_with_email = ?`,
		recipeID, email,
	)
	g, err := scanShareGrant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get share grant: %w", err)
	}
	return g, nil
}

// Exists reports whether the email holds a grant for the recipe.
func (s *ShareStore) Exists(recipeID int64, email string) (bool, error) {
	g, err := s.Get(recipeID, email)
	if err != nil {
		return false, err
	}
	return g != nil, nil
}

// ListRecipeIDsByEmail returns the ids of recipes shared with the email, in
// grant order.
func (s *ShareStore) ListRecipeIDsByEmail(email string) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT recipe_id FROM share_grants WHERE shared_with_email = ? ORDER BY created_at ASC, id ASC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("list shared recipe ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recipe id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Revoke removes the grant for (recipe, email).
func (s *ShareStore) Revoke(recipeID int64, email string) error {
	_, err := s.db.Exec(
		`DELETE FROM share_grants WHERE recipe_id = ? AND shared_with_email = ?`,
		recipeID, email,
	)
	if err != nil {
		return fmt.Errorf("revoke share grant: %w", err)
	}
	return nil
}
