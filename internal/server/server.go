package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/pantrylist/internal/access"
	"github.com/dukerupert/pantrylist/internal/handler"
	"github.com/dukerupert/pantrylist/internal/middleware"
	"github.com/dukerupert/pantrylist/internal/service"
	"github.com/dukerupert/pantrylist/internal/store"
	ws "github.com/dukerupert/pantrylist/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	groceryH     *handler.GroceryHandler
	templateH    *handler.TemplateHandler
	authH        *handler.AuthHandler
	sessionStore *store.SessionStore
	userStore    *store.UserStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	listStore := store.NewListStore(db)
	itemStore := store.NewItemStore(db)
	grantStore := store.NewGrantStore(db)
	sessionStore := store.NewSessionStore(db)

	eval := access.NewEvaluator(grantStore)
	svc := service.New(userStore, listStore, itemStore, grantStore, eval, logger.With("component", "service"))

	return &Server{
		db:           db,
		hub:          hub,
		groceryH:     handler.NewGroceryHandler(svc, eval, logger.With("component", "grocery")),
		templateH:    handler.NewTemplateHandler(listStore, itemStore, grantStore, userStore, eval, logger.With("component", "template")),
		authH:        handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		sessionStore: sessionStore,
		userStore:    userStore,
		rateLimiter:  middleware.NewRateLimiter(6*time.Second, 10),
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

// Hub returns the notification hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /login", s.authH.LoginPage)
	outerMux.HandleFunc("POST /login", s.rateLimited(s.authH.Login))
	outerMux.HandleFunc("GET /register", s.authH.RegisterPage)
	outerMux.HandleFunc("POST /register", s.rateLimited(s.authH.Register))
	outerMux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	// Apply request logging middleware
	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)

	// Mutation API
	mux.HandleFunc("POST /api/lists", s.groceryH.CreateList)
	mux.HandleFunc("PUT /api/lists/{id}/name", s.groceryH.RenameList)
	mux.HandleFunc("DELETE /api/lists/{id}", s.groceryH.DeleteList)
	mux.HandleFunc("POST /api/lists/{list_id}/items", s.groceryH.AddItem)
	mux.HandleFunc("DELETE /api/items/{id}", s.groceryH.RemoveItem)
	mux.HandleFunc("POST /api/items/{id}/check", s.groceryH.CheckItem)
	mux.HandleFunc("POST /api/items/{id}/uncheck", s.groceryH.UncheckItem)
	mux.HandleFunc("POST /api/lists/{id}/grants", s.groceryH.GrantAccess)
	mux.HandleFunc("DELETE /api/grants/{id}", s.groceryH.RevokeAccess)

	// Pages
	mux.HandleFunc("GET /", s.templateH.Index)
	mux.HandleFunc("GET /lists/{id}/edit", s.templateH.EditPage)
	mux.HandleFunc("GET /lists/{id}/shop", s.templateH.ShoppingPage)
	mux.HandleFunc("GET /lists/{id}/permissions", s.templateH.PermissionsPage)

	// Row fragments spliced in by the reconciliation scripts
	mux.HandleFunc("GET /partials/lists/{id}/row", s.templateH.ListRow)
	mux.HandleFunc("GET /partials/lists/{id}/meta", s.templateH.ListMeta)
	mux.HandleFunc("GET /partials/items/{id}/row", s.templateH.ItemRow)
	mux.HandleFunc("GET /partials/items/{id}/shop-row", s.templateH.ShopRow)
	mux.HandleFunc("GET /partials/grants/{id}/row", s.templateH.PermissionRow)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
