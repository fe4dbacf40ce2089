// Package catalog assembles denormalized recipe views from the normalized
// stores and answers the four listing queries.
package catalog

import (
	"fmt"

	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
)

// unknownAuthor stands in when a recipe's owner row is missing. A detail
// view always carries some author rather than failing the whole read.
var unknownAuthor = model.Author{DisplayName: "Unknown"}

type Service struct {
	recipes   *store.RecipeStore
	users     *store.UserStore
	favorites *store.FavoriteStore
	shares    *store.ShareStore
}

func NewService(rs *store.RecipeStore, us *store.UserStore, fs *store.FavoriteStore, ss *store.ShareStore) *Service {
	return &Service{recipes: rs, users: us, favorites: fs, shares: ss}
}

// RecipeDetail assembles the full view for one recipe: base fields, ordered
// ingredients, photos, author, live favorite count, and the viewer's
// favorited flag. Returns (nil, nil) when the recipe does not exist.
// IsFavorited is always false for anonymous viewers (nil viewerID).
func (s *Service) RecipeDetail(recipeID int64, viewerID *int64) (*model.RecipeDetail, error) {
	recipe, err := s.recipes.GetByID(recipeID)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, nil
	}

	ingredients, err := s.recipes.ListIngredients(recipeID)
	if err != nil {
		return nil, err
	}
	photos, err := s.recipes.ListPhotos(recipeID)
	if err != nil {
		return nil, err
	}

	author := unknownAuthor
	owner, err := s.users.GetByID(recipe.UserID)
	if err != nil {
		return nil, err
	}
	if owner != nil {
		author = model.Author{ID: owner.ID, DisplayName: owner.DisplayName, AvatarURL: owner.AvatarURL}
	}

	count, err := s.favorites.Count(recipeID)
	if err != nil {
		return nil, err
	}

	favorited := false
	if viewerID != nil {
		favorited, err = s.favorites.Exists(*viewerID, recipeID)
		if err != nil {
			return nil, err
		}
	}

	if ingredients == nil {
		ingredients = []model.Ingredient{}
	}
	if photos == nil {
		photos = []model.RecipePhoto{}
	}

	return &model.RecipeDetail{
		Recipe:        *recipe,
		Ingredients:   ingredients,
		Photos:        photos,
		Author:        author,
		FavoriteCount: count,
		IsFavorited:   favorited,
	}, nil
}

// hydrate resolves each id to a detail view, dropping ids whose recipe has
// disappeared between listing and hydration.
func (s *Service) hydrate(ids []int64, viewerID *int64) ([]model.RecipeDetail, error) {
	details := []model.RecipeDetail{}
	for _, id := range ids {
		d, err := s.RecipeDetail(id, viewerID)
		if err != nil {
			return nil, fmt.Errorf("hydrate recipe %d: %w", id, err)
		}
		if d == nil {
			continue
		}
		details = append(details, *d)
	}
	return details, nil
}

// Owned lists the viewer's own recipes, newest first, private included.
func (s *Service) Owned(userID int64) ([]model.RecipeDetail, error) {
	ids, err := s.recipes.ListIDsByOwner(userID)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ids, &userID)
}

// Public lists every public recipe, newest first. A nil viewerID is an
// anonymous browse.
func (s *Service) Public(viewerID *int64) ([]model.RecipeDetail, error) {
	ids, err := s.recipes.ListPublicIDs()
	if err != nil {
		return nil, err
	}
	return s.hydrate(ids, viewerID)
}

// FavoritedBy lists the recipes the user has favorited, in favorite order.
func (s *Service) FavoritedBy(userID int64) ([]model.RecipeDetail, error) {
	ids, err := s.favorites.ListRecipeIDsByUser(userID)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ids, &userID)
}

// SharedWith lists the recipes shared with the email, in grant order. The
// email is asserted by the caller, not verified.
func (s *Service) SharedWith(email string, viewerID *int64) ([]model.RecipeDetail, error) {
	ids, err := s.shares.ListRecipeIDsByEmail(email)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ids, viewerID)
}
