package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/catalog"
	"github.com/dukerupert/larder/internal/email"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/policy"
	"github.com/dukerupert/larder/internal/store"
	"github.com/dukerupert/larder/internal/websocket"
)

type RecipeHandler struct {
	recipeStore   *store.RecipeStore
	favoriteStore *store.FavoriteStore
	shareStore    *store.ShareStore
	userStore     *store.UserStore
	catalog       *catalog.Service
	policy        *policy.Service
	emailClient   *email.Client
	hub           *websocket.Hub
}

func NewRecipeHandler(
	rs *store.RecipeStore,
	fs *store.FavoriteStore,
	ss *store.ShareStore,
	us *store.UserStore,
	cat *catalog.Service,
	pol *policy.Service,
	ec *email.Client,
	hub *websocket.Hub,
) *RecipeHandler {
	return &RecipeHandler{
		recipeStore:   rs,
		favoriteStore: fs,
		shareStore:    ss,
		userStore:     us,
		catalog:       cat,
		policy:        pol,
		emailClient:   ec,
		hub:           hub,
	}
}

func (h *RecipeHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type ingredientRequest struct {
	Amount      string `json:"amount"`
	Unit        string `json:"unit"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

type recipeRequest struct {
	Title       string              `json:"title"`
	PrepTime    string              `json:"prep_time"`
	Servings    int                 `json:"servings"`
	Directions  string              `json:"directions"`
	IsPrivate   bool                `json:"is_private"`
	Ingredients []ingredientRequest `json:"ingredients"`
	Photos      []string            `json:"photos"`
}

// validate normalizes the request and returns an error message, or "" when
// the payload is acceptable.
func (req *recipeRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	req.PrepTime = strings.TrimSpace(req.PrepTime)
	req.Directions = strings.TrimSpace(req.Directions)

	if req.Title == "" {
		return "title is required"
	}
	if req.PrepTime == "" {
		return "prep_time is required"
	}
	if req.Servings <= 0 {
		return "servings must be a positive number"
	}
	if req.Directions == "" {
		return "directions are required"
	}
	for i := range req.Ingredients {
		req.Ingredients[i].Name = strings.TrimSpace(req.Ingredients[i].Name)
		if req.Ingredients[i].Name == "" {
			return "every ingredient needs a name"
		}
	}
	return ""
}

func (req *recipeRequest) toInput() store.RecipeInput {
	in := store.RecipeInput{
		Title:      req.Title,
		PrepTime:   req.PrepTime,
		Servings:   req.Servings,
		Directions: req.Directions,
		IsPrivate:  req.IsPrivate,
		Photos:     req.Photos,
	}
	for _, ing := range req.Ingredients {
		in.Ingredients = append(in.Ingredients, store.IngredientInput{
			Amount:      ing.Amount,
			Unit:        ing.Unit,
			Name:        ing.Name,
			Description: ing.Description,
			Link:        ing.Link,
		})
	}
	return in
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	recipe, err := h.recipeStore.Create(ac.UserID, req.toInput())
	if err != nil {
		log.Printf("failed to create recipe: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create recipe"})
		return
	}

	h.broadcast(websocket.NewMessage("recipe", "created", recipe.ID, nil))

	detail, err := h.catalog.RecipeDetail(recipe.ID, &ac.UserID)
	if err != nil || detail == nil {
		log.Printf("failed to load created recipe: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load recipe"})
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// getReadable loads the recipe and applies the read policy. A recipe the
// caller may not see is reported as absent, so probing cannot distinguish
// private from nonexistent.
func (h *RecipeHandler) getReadable(w http.ResponseWriter, r *http.Request) *model.Recipe {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return nil
	}

	recipe, err := h.recipeStore.GetByID(id)
	if err != nil {
		log.Printf("failed to get recipe: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get recipe"})
		return nil
	}
	if recipe == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "recipe not found"})
		return nil
	}

	allowed, err := h.policy.CanReadRecipe(recipe, actorFrom(r))
	if err != nil {
		log.Printf("failed to check recipe access: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check access"})
		return nil
	}
	if !allowed {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "recipe not found"})
		return nil
	}
	return recipe
}

// getWritable loads the recipe and applies the write policy. Callers who can
// read but not write get a 403; everyone else gets the same 404 as a missing
// recipe.
func (h *RecipeHandler) getWritable(w http.ResponseWriter, r *http.Request) *model.Recipe {
	recipe := h.getReadable(w, r)
	if recipe == nil {
		return nil
	}
	if !h.policy.CanWriteRecipe(recipe, actorFrom(r)) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "only the owner can modify this recipe"})
		return nil
	}
	return recipe
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	recipe := h.getReadable(w, r)
	if recipe == nil {
		return
	}

	var viewerID *int64
	if ac, ok := auth.FromContext(r.Context()); ok {
		viewerID = &ac.UserID
	}

	detail, err := h.catalog.RecipeDetail(recipe.ID, viewerID)
	if err != nil {
		log.Printf("failed to assemble recipe detail: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get recipe"})
		return
	}
	if detail == nil {
		// Deleted between the policy check and hydration
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "recipe not found"})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// List answers the four browse modes: mine, public, favorites, and shared.
// The default is the public catalog, which works anonymously.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, authed := auth.FromContext(r.Context())
	var viewerID *int64
	if authed {
		viewerID = &ac.UserID
	}

	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "public"
	}

	var (
		details []model.RecipeDetail
		err     error
	)
	switch mode {
	case "public":
		details, err = h.catalog.Public(viewerID)
	case "mine":
		if !authed {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			return
		}
		details, err = h.catalog.Owned(ac.UserID)
	case "favorites":
		if !authed {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			return
		}
		details, err = h.catalog.FavoritedBy(ac.UserID)
	case "shared":
		emailAddr := strings.TrimSpace(r.URL.Query().Get("email"))
		if emailAddr == "" {
			emailAddr = ac.Email
		}
		if emailAddr == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			return
		}
		details, err = h.catalog.SharedWith(emailAddr, viewerID)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "mode must be mine, public, favorites, or shared"})
		return
	}
	if err != nil {
		log.Printf("failed to list recipes (mode=%s): %v", mode, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list recipes"})
		return
	}

	writeJSON(w, http.StatusOK, details)
}

func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	recipe := h.getWritable(w, r)
	if recipe == nil {
		return
	}

	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	// A null ingredients field keeps the existing list; a present list,
	// empty included, replaces it wholesale.
	replaceIngredients := req.Ingredients != nil

	if _, err := h.recipeStore.Update(recipe.ID, req.toInput(), replaceIngredients); err != nil {
		log.Printf("failed to update recipe: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update recipe"})
		return
	}

	h.broadcast(websocket.NewMessage("recipe", "updated", recipe.ID, nil))

	ac, _ := auth.FromContext(r.Context())
	detail, err := h.catalog.RecipeDetail(recipe.ID, &ac.UserID)
	if err != nil || detail == nil {
		log.Printf("failed to load updated recipe: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load recipe"})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	recipe := h.getWritable(w, r)
	if recipe == nil {
		return
	}

	if err := h.recipeStore.Delete(recipe.ID); err != nil {
		log.Printf("failed to delete recipe: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete recipe"})
		return
	}

	h.broadcast(websocket.NewMessage("recipe", "deleted", recipe.ID, nil))

	w.WriteHeader(http.StatusNoContent)
}

// ToggleFavorite flips the caller's favorite for the recipe and returns the
// new state with the live count.
func (h *RecipeHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	recipe := h.getReadable(w, r)
	if recipe == nil {
		return
	}

	favorited, count, err := h.favoriteStore.Toggle(ac.UserID, recipe.ID)
	if err != nil {
		log.Printf("failed to toggle favorite: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to toggle favorite"})
		return
	}

	h.broadcast(websocket.NewMessage("recipe", "favorited", recipe.ID, map[string]any{
		"favorite_count": count,
	}))

	writeJSON(w, http.StatusOK, map[string]any{
		"is_favorited":   favorited,
		"favorite_count": count,
	})
}

type shareRequest struct {
	Email string `json:"email"`
}

// Share grants an email address read access to a recipe the caller owns and
// sends a best-effort notification.
func (h *RecipeHandler) Share(w http.ResponseWriter, r *http.Request) {
	recipe := h.getWritable(w, r)
	if recipe == nil {
		return
	}

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a valid email is required"})
		return
	}

	grant, err := h.shareStore.Create(recipe.ID, req.Email)
	if err != nil {
		log.Printf("failed to create share grant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to share recipe"})
		return
	}

	// Notification failures never fail the share
	if h.emailClient != nil && h.emailClient.Configured() {
		sharerName := ""
		if owner, err := h.userStore.GetByID(recipe.UserID); err == nil && owner != nil {
			sharerName = owner.DisplayName
		}
		if err := h.emailClient.SendShareNotice(req.Email, sharerName, recipe.Title, recipe.ID); err != nil {
			log.Printf("failed to send share notice: %v", err)
		}
	}

	writeJSON(w, http.StatusCreated, grant)
}

// RevokeShare removes an email's access grant. Revoking an email that was
// never granted is a no-op.
func (h *RecipeHandler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	recipe := h.getWritable(w, r)
	if recipe == nil {
		return
	}

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}

	if err := h.shareStore.Revoke(recipe.ID, req.Email); err != nil {
		log.Printf("failed to revoke share grant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to revoke share"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
