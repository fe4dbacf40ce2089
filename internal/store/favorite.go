package store

import (
	"database/sql"
	"fmt"
)

type FavoriteStore struct {
	db *sql.DB
}

func NewFavoriteStore(db *sql.DB) *FavoriteStore {
	return &FavoriteStore{db: db}
}

// Toggle flips the favorite state for the (user, recipe) pair and returns
// the new state plus a freshly recomputed count. Delete-else-insert runs in
// one transaction; the UNIQUE(user_id, recipe_id) index guarantees the pair
// never holds more than one row even when toggles race, and INSERT OR
// IGNORE tolerates losing that race.
func (s *FavoriteStore) Toggle(userID, recipeID int64) (bool, int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`DELETE FROM favorites WHERE user_id = ? AND recipe_id = ?`,
		userID, recipeID,
	)
	if err != nil {
		return false, 0, fmt.Errorf("delete favorite: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return false, 0, fmt.Errorf("rows affected: %w", err)
	}

	favorited := false
	if deleted == 0 {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO favorites (user_id, recipe_id) VALUES (?, ?)`,
			userID, recipeID,
		); err != nil {
			return false, 0, fmt.Errorf("insert favorite: %w", err)
		}
		favorited = true
	}

	var count int
	if err := tx.QueryRow(
		`SELECT COUNT(*) FROM favorites WHERE recipe_id = ?`, recipeID,
	).Scan(&count); err != nil {
		return false, 0, fmt.Errorf("count favorites: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit: %w", err)
	}
	return favorited, count, nil
}

// Count returns the live number of favorites for the recipe.
func (s *FavoriteStore) Count(recipeID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM favorites WHERE recipe_id = ?`, recipeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count favorites: %w", err)
	}
	return count, nil
}

// Exists reports whether the user has favorited the recipe.
func (s *FavoriteStore) Exists(userID, recipeID int64) (bool, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM favorites WHERE user_id = ? AND recipe_id = ?`,
		userID, recipeID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("favorite exists: %w", err)
	}
	return true, nil
}

// ListRecipeIDsByUser returns the ids of recipes the user has favorited, in
// favorite-creation order.
func (s *FavoriteStore) ListRecipeIDsByUser(userID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT recipe_id FROM favorites WHERE user_id = ? ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list favorited recipe ids: %w", err)
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
