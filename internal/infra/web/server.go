package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"musicqr-server/internal/usecase"
)

// Server is the authenticated surface: batch sync for the code generator
// client (API key) and the admin console API (JWT session).
type Server struct {
	adminUC usecase.AdminUseCase
	syncUC  usecase.SyncUseCase
	statsUC usecase.StatsUseCase
	auth    *AuthManager
	apiKey  string // expected sync key, derived once at startup

	log *zerolog.Logger
}

func NewServer(adminUC usecase.AdminUseCase, syncUC usecase.SyncUseCase, statsUC usecase.StatsUseCase, auth *AuthManager, apiKey string, logger *zerolog.Logger) *Server {
	return &Server{
		adminUC: adminUC,
		syncUC:  syncUC,
		statsUC: statsUC,
		auth:    auth,
		apiKey:  apiKey,
		log:     logger,
	}
}

// Register attaches the sync and admin routes.
func (s *Server) Register(r chi.Router) {
	r.Post("/api/sync-codes", s.handleSync)

	r.Post("/admin/login", s.handleLogin)
	r.Post("/admin/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/admin/dashboard", s.handleDashboard)
		r.Get("/admin/codes", s.handleListCodes)
		r.Post("/admin/codes", s.handleCreateCodes)
		r.Get("/admin/codes/{code}", s.handleCodeDetail)
		r.Delete("/admin/codes/{code}", s.handleDeleteCode)
		r.Post("/admin/codes/bulk-delete", s.handleBulkDelete)
		r.Get("/admin/export", s.handleExport)
	})
}

// requireAdmin gates the console routes on a valid session token. The core
// trusts this gate: handlers past it assume an authorized caller.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
