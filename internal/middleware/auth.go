package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/store"
)

const sessionCookieName = "larder_session"

// RequireAuth validates the session cookie and populates AuthContext.
// Requests without a valid session get a JSON 401.
func RequireAuth(sessionStore *store.SessionStore, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := resolveSession(r, sessionStore, userStore)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"})
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// OptionalAuth populates AuthContext when a valid session cookie is
// present and otherwise lets the request through anonymously. Read
// endpoints use it so public content stays reachable without an account.
func OptionalAuth(sessionStore *store.SessionStore, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ac, ok := resolveSession(r, sessionStore, userStore); ok {
				r = r.WithContext(auth.WithAuth(r.Context(), ac))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveSession(r *http.Request, sessionStore *store.SessionStore, userStore *store.UserStore) (auth.AuthContext, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return auth.AuthContext{}, false
	}

	sess, err := sessionStore.GetByToken(cookie.Value)
	if err != nil || sess == nil {
		return auth.AuthContext{}, false
	}

	user, err := userStore.GetByID(sess.UserID)
	if err != nil || user == nil {
		return auth.AuthContext{}, false
	}

	return auth.AuthContext{
		UserID:    user.ID,
		Email:     user.Email,
		SessionID: sess.ID,
	}, true
}
