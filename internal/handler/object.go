package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/objects"
	"github.com/dukerupert/larder/internal/policy"
	"github.com/dukerupert/larder/internal/store"
	"github.com/dukerupert/larder/internal/websocket"
)

// objectPathPrefix is the stable serving prefix recorded on recipes. The
// upload key never appears in recipe rows without it.
const objectPathPrefix = "/objects/"

type ObjectHandler struct {
	objects     *objects.Service
	recipeStore *store.RecipeStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewObjectHandler(os *objects.Service, rs *store.RecipeStore, hub *websocket.Hub, logger *slog.Logger) *ObjectHandler {
	return &ObjectHandler{
		objects:     os,
		recipeStore: rs,
		hub:         hub,
		logger:      logger,
	}
}

func (h *ObjectHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// Upload hands the caller a presigned PUT URL. The client uploads the bytes
// directly to object storage; the server never proxies them.
func (h *ObjectHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.objects.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "object storage is not configured"})
		return
	}

	target, err := h.objects.IssueUploadTarget(r.Context())
	if err != nil {
		h.logger.Error("issue upload target", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create upload target"})
		return
	}

	writeJSON(w, http.StatusOK, target)
}

// AttachImage finalizes an uploaded object as a recipe's primary image: it
// verifies the upload landed, stamps the access descriptor, and only then
// records the stable path on the recipe. A failed stamp leaves the recipe
// untouched.
func (h *ObjectHandler) AttachImage(recipes *RecipeHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipe := recipes.getWritable(w, r)
		if recipe == nil {
			return
		}

		if !h.objects.Configured() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "object storage is not configured"})
			return
		}

		var req struct {
			ObjectKey string `json:"object_key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
			return
		}
		key := normalizeObjectKey(req.ObjectKey)
		if key == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "object_key is required"})
			return
		}

		exists, err := h.objects.Exists(r.Context(), key)
		if err != nil {
			h.logger.Error("check object", "error", err, "key", key)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check object"})
			return
		}
		if !exists {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "object not found; the upload may have expired"})
			return
		}

		acl := model.ObjectACL{
			OwnerID:    recipe.UserID,
			Visibility: model.VisibilityPublic,
		}
		if err := h.objects.SetACL(r.Context(), key, acl); err != nil {
			h.logger.Error("stamp object acl", "error", err, "key", key)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to finalize object"})
			return
		}

		objectPath := objectPathPrefix + key
		if err := h.recipeStore.UpdateImage(recipe.ID, objectPath); err != nil {
			h.logger.Error("record recipe image", "error", err, "recipe_id", recipe.ID)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update recipe"})
			return
		}

		h.broadcast(websocket.NewMessage("recipe", "updated", recipe.ID, nil))

		writeJSON(w, http.StatusOK, map[string]string{"object_path": objectPath})
	}
}

// Serve streams a stored object after checking its access descriptor. A
// denied or unstamped object looks identical to a missing one.
func (h *ObjectHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if !h.objects.Configured() {
		http.NotFound(w, r)
		return
	}

	key := normalizeObjectKey(r.PathValue("key"))
	if key == "" {
		http.NotFound(w, r)
		return
	}

	acl, err := h.objects.GetACL(r.Context(), key)
	if err != nil {
		h.logger.Error("read object acl", "error", err, "key", key)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !policy.CanReadObject(acl, actorFrom(r)) {
		http.NotFound(w, r)
		return
	}

	obj, err := h.objects.Download(r.Context(), key)
	if err != nil {
		h.logger.Error("download object", "error", err, "key", key)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if obj == nil {
		http.NotFound(w, r)
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.Warn("stream object", "error", err, "key", key)
	}
}

// normalizeObjectKey accepts either a bare storage key or a serving path and
// returns the storage key.
func normalizeObjectKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, objectPathPrefix)
	return strings.TrimPrefix(s, "/")
}
