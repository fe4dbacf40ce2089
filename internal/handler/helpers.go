package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/policy"
)

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// actorFrom derives the policy actor for the request. Requests without an
// auth context act as the anonymous viewer.
func actorFrom(r *http.Request) policy.Actor {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		return policy.Anonymous
	}
	return policy.Actor{UserID: &ac.UserID, Email: ac.Email}
}
