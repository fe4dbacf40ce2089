package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/larder/internal/model"
)

// RecipeStore owns recipes together with their ingredients and photos.
// Ingredients and photos have no lifecycle of their own: they are written
// wholesale with the recipe and replaced wholesale on update.
type RecipeStore struct {
	db *sql.DB
}

func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

// RecipeInput is a validated create/update payload.
type RecipeInput struct {
	Title       string
	PrepTime    string
	Servings    int
	Directions  string
	IsPrivate   bool
	Ingredients []IngredientInput
	Photos      []string
}

type IngredientInput struct {
	Amount      string
	Unit        string
	Name        string
	Description string
	Link        string
}

func scanRecipe(scanner interface{ Scan(...any) error }) (*model.Recipe, error) {
	var r model.Recipe
	var isPrivate int
	err := scanner.Scan(
		&r.ID, &r.UserID, &r.Title, &r.PrepTime, &r.Servings,
		&r.Directions, &isPrivate, &r.ImagePath, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.IsPrivate = isPrivate != 0
	return &r, nil
}

const recipeCols = `id, user_id, title, prep_time, servings, directions, is_private, image_path, created_at, updated_at`

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Create inserts the recipe plus its ingredient and photo lists in a single
// transaction, so a reader never sees the recipe without them.
func (s *RecipeStore) Create(userID int64, in RecipeInput) (*model.Recipe, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO recipes (user_id, title, prep_time, servings, directions, is_private) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, in.Title, in.PrepTime, in.Servings, in.Directions, boolToInt(in.IsPrivate),
	)
	if err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := insertIngredients(tx, id, in.Ingredients); err != nil {
		return nil, err
	}
	if err := insertPhotos(tx, id, in.Photos); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func insertIngredients(tx *sql.Tx, recipeID int64, ingredients []IngredientInput) error {
	for i, ing := range ingredients {
		if _, err := tx.Exec(
			`INSERT INTO ingredients (recipe_id, amount, unit, name, description, link, sort_order) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			recipeID, ing.Amount, ing.Unit, ing.Name, ing.Description, ing.Link, i,
		); err != nil {
			return fmt.Errorf("insert ingredient: %w", err)
		}
	}
	return nil
}

func insertPhotos(tx *sql.Tx, recipeID int64, photos []string) error {
	for i, path := range photos {
		if _, err := tx.Exec(
			`INSERT INTO recipe_photos (recipe_id, image_path, sort_order) VALUES (?, ?, ?)`,
			recipeID, path, i,
		); err != nil {
			return fmt.Errorf("insert photo: %w", err)
		}
	}
	return nil
}

func (s *RecipeStore) GetByID(id int64) (*model.Recipe, error) {
	row := s.db.QueryRow(`SELECT `+recipeCols+` FROM recipes WHERE id = ?`, id)
	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return r, nil
}

// Update rewrites the recipe's base fields and, when replaceIngredients is
// set, replaces the whole ingredient list. Delete-all-then-insert-all runs
// inside one transaction so no reader observes a half-replaced list.
func (s *RecipeStore) Update(id int64, in RecipeInput, replaceIngredients bool) (*model.Recipe, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE recipes SET title = ?, prep_time = ?, servings = ?, directions = ?, is_private = ?, updated_at = datetime('now') WHERE id = ?`,
		in.Title, in.PrepTime, in.Servings, in.Directions, boolToInt(in.IsPrivate), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	if replaceIngredients {
		if _, err := tx.Exec(`DELETE FROM ingredients WHERE recipe_id = ?`, id); err != nil {
			return nil, fmt.Errorf("delete ingredients: %w", err)
		}
		if err := insertIngredients(tx, id, in.Ingredients); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// UpdateImage records the stable object path of the recipe's primary image.
func (s *RecipeStore) UpdateImage(id int64, imagePath string) error {
	_, err := s.db.Exec(
		`UPDATE recipes SET image_path = ?, updated_at = datetime('now') WHERE id = ?`,
		imagePath, id,
	)
	if err != nil {
		return fmt.Errorf("update recipe image: %w", err)
	}
	return nil
}

// Delete removes the recipe; ingredients, photos, favorites, and share
// grants follow via FK cascades.
func (s *RecipeStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

// ListIngredients returns the recipe's ingredients in display order,
// insertion order breaking ties.
func (s *RecipeStore) ListIngredients(recipeID int64) ([]model.Ingredient, error) {
	rows, err := s.db.Query(
		`SELECT id, recipe_id, amount, unit, name, description, link, sort_order FROM ingredients WHERE recipe_id = ? ORDER BY sort_order ASC, id ASC`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []model.Ingredient
	for rows.Next() {
		var ing model.Ingredient
		if err := rows.Scan(&ing.ID, &ing.RecipeID, &ing.Amount, &ing.Unit, &ing.Name, &ing.Description, &ing.Link, &ing.SortOrder); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, rows.Err()
}

func (s *RecipeStore) ListPhotos(recipeID int64) ([]model.RecipePhoto, error) {
	rows, err := s.db.Query(
		`SELECT id, recipe_id, image_path, sort_order, created_at FROM recipe_photos WHERE recipe_id = ? ORDER BY sort_order ASC, id ASC`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photos []model.RecipePhoto
	for rows.Next() {
		var p model.RecipePhoto
		if err := rows.Scan(&p.ID, &p.RecipeID, &p.ImagePath, &p.SortOrder, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (s *RecipeStore) listIDs(query string, args ...any) ([]int64, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipe ids: %w", err)
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

// ListIDsByOwner returns the owner's recipe ids, newest first, regardless of
// privacy.
func (s *RecipeStore) ListIDsByOwner(userID int64) ([]int64, error) {
	return s.listIDs(
		`SELECT id FROM recipes WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
}

// ListPublicIDs returns all public recipe ids, newest first.
func (s *RecipeStore) ListPublicIDs() ([]int64, error) {
	return s.listIDs(
		`SELECT id FROM recipes WHERE is_private = 0 ORDER BY created_at DESC, id DESC`,
	)
}
