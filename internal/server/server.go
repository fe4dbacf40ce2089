package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/larder/internal/catalog"
	"github.com/dukerupert/larder/internal/email"
	"github.com/dukerupert/larder/internal/handler"
	"github.com/dukerupert/larder/internal/middleware"
	"github.com/dukerupert/larder/internal/objects"
	"github.com/dukerupert/larder/internal/policy"
	"github.com/dukerupert/larder/internal/store"
	ws "github.com/dukerupert/larder/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	recipeH      *handler.RecipeHandler
	objectH      *handler.ObjectHandler
	sessionStore *store.SessionStore
	userStore    *store.UserStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, objectsSvc *objects.Service, emailClient *email.Client, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	recipeStore := store.NewRecipeStore(db)
	favoriteStore := store.NewFavoriteStore(db)
	shareStore := store.NewShareStore(db)

	catalogSvc := catalog.NewService(recipeStore, userStore, favoriteStore, shareStore)
	policySvc := policy.NewService(shareStore)

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		recipeH:      handler.NewRecipeHandler(recipeStore, favoriteStore, shareStore, userStore, catalogSvc, policySvc, emailClient, hub),
		objectH:      handler.NewObjectHandler(objectsSvc, recipeStore, hub, logger.With("component", "objects")),
		sessionStore: sessionStore,
		userStore:    userStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.RequireAuth(s.sessionStore, s.userStore)
	optionalAuth := middleware.OptionalAuth(s.sessionStore, s.userStore)

	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}
	open := func(h http.HandlerFunc) http.Handler {
		return optionalAuth(h)
	}

	mux.HandleFunc("GET /health", s.healthHandler)

	// Credential endpoints are rate limited per client IP
	mux.HandleFunc("POST /api/auth/signup", s.rateLimitedHandler(s.authH.Signup))
	mux.HandleFunc("POST /api/auth/signin", s.rateLimitedHandler(s.authH.Signin))
	mux.HandleFunc("POST /api/auth/signout", s.authH.Signout)
	mux.Handle("GET /api/auth/session", protected(s.authH.Session))
	mux.Handle("PUT /api/auth/profile", protected(s.authH.UpdateProfile))

	// Reads work anonymously; the policy layer narrows what each viewer sees
	mux.Handle("GET /api/recipes", open(s.recipeH.List))
	mux.Handle("GET /api/recipes/{id}", open(s.recipeH.Get))
	mux.Handle("GET /objects/{key...}", open(s.objectH.Serve))

	// Mutations require a signed-in user
	mux.Handle("POST /api/recipes", protected(s.recipeH.Create))
	mux.Handle("PUT /api/recipes/{id}", protected(s.recipeH.Update))
	mux.Handle("DELETE /api/recipes/{id}", protected(s.recipeH.Delete))
	mux.Handle("POST /api/recipes/{id}/favorite", protected(s.recipeH.ToggleFavorite))
	mux.Handle("POST /api/recipes/{id}/share", protected(s.recipeH.Share))
	mux.Handle("DELETE /api/recipes/{id}/share", protected(s.recipeH.RevokeShare))
	mux.Handle("POST /api/objects/upload", protected(s.objectH.Upload))
	mux.Handle("PUT /api/recipes/{id}/image", protected(s.objectH.AttachImage(s.recipeH)))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
