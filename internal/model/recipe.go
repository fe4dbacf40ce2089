package model

import "time"

type Recipe struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Title      string    `json:"title"`
	PrepTime   string    `json:"prep_time"`
	Servings   int       `json:"servings"`
	Directions string    `json:"directions"`
	IsPrivate  bool      `json:"is_private"`
	ImagePath  string    `json:"image_path"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Ingredient struct {
	ID          int64  `json:"id"`
	RecipeID    int64  `json:"recipe_id"`
	Amount      string `json:"amount"`
	Unit        string `json:"unit"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Link        string `json:"link"`
	SortOrder   int    `json:"sort_order"`
}

type RecipePhoto struct {
	ID        int64     `json:"id"`
	RecipeID  int64     `json:"recipe_id"`
	ImagePath string    `json:"image_path"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

type Favorite struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	RecipeID  int64     `json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ShareGrant lets the holder of an email address read a private recipe.
type ShareGrant struct {
	ID              int64     `json:"id"`
	RecipeID        int64     `json:"recipe_id"`
	SharedWithEmail string    `json:"shared_with_email"`
	CreatedAt       time.Time `json:"created_at"`
}

// RecipeDetail is the denormalized view assembled at read time.
type RecipeDetail struct {
	Recipe
	Ingredients   []Ingredient  `json:"ingredients"`
	Photos        []RecipePhoto `json:"photos"`
	Author        Author        `json:"author"`
	FavoriteCount int           `json:"favorite_count"`
	IsFavorited   bool          `json:"is_favorited"`
}
