// internal/httpserver/server.go
//
// HTTP server wiring for the Word Heist backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/api/health".
//   - Game endpoints (optional auth): daily puzzle, word validation, hints,
//     score submission, leaderboards.
//   - Auth + profile endpoints: /api/register, /api/login, /api/logout,
//     /api/auth/me, /api/user-stats.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token
//     is present; guest play still works via the anonymous cookie.
//   - Mutating game routes sit behind a per-IP rate limiter.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wordheist/wordheist/internal/puzzle"
	"github.com/wordheist/wordheist/internal/store"
)

// Config carries everything the server needs from the environment.
type Config struct {
	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	ClientOrigin   string
	SecureCookies  bool
	RateLimitRPS   int
	RateLimitBurst int
	HintAllowance  int
}

// Server bundles router, live-session store, puzzle catalog, and DB handle.
type Server struct {
	r       *chi.Mux
	cfg     Config
	store   store.Store
	db      *sql.DB
	catalog *puzzle.Catalog
	limits  *ipLimiter
	plays   *playLocks
	log     zerolog.Logger
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg Config, st store.Store, db *sql.DB, catalog *puzzle.Catalog) *Server {
	if cfg.CookieName == "" {
		cfg.CookieName = "wordheist_token"
	}
	if cfg.JWTExpiresDays <= 0 {
		cfg.JWTExpiresDays = 14
	}
	if cfg.HintAllowance <= 0 {
		cfg.HintAllowance = 3
	}
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     cfg,
		store:   st,
		db:      db,
		catalog: catalog,
		limits:  newIPLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		plays:   newPlayLocks(),
		log:     log.With().Str("component", "httpserver").Logger(),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Word Heist API",
			"status":  "running",
			"endpoints": []string{
				"/api/health", "/api/daily-puzzle", "POST /api/validate-word",
				"POST /api/use-hint", "POST /api/submit-score", "/api/leaderboard",
			},
		})
	})
	s.r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"message": "Word Heist API is running",
		})
	})

	// Auth
	s.r.Post("/api/register", s.handleRegister)
	s.r.Post("/api/login", s.handleLogin)
	s.r.Post("/api/logout", s.handleLogout)
	s.r.With(s.requireAuth()).Get("/api/auth/me", s.handleMe)

	// Game - optional auth (guests can play), mutations rate limited
	s.r.With(s.withOptionalAuth()).Get("/api/daily-puzzle", s.handleDailyPuzzle)
	s.r.With(s.withOptionalAuth(), s.rateLimit).Post("/api/validate-word", s.handleValidateWord)
	s.r.With(s.withOptionalAuth(), s.rateLimit).Post("/api/use-hint", s.handleUseHint)
	s.r.With(s.withOptionalAuth(), s.rateLimit).Post("/api/submit-score", s.handleSubmitScore)
	s.r.Get("/api/leaderboard", s.handleLeaderboard)

	// Profile (require auth)
	s.r.With(s.requireAuth()).Get("/api/user-stats", s.handleUserStats)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "endpoint not found",
			"path":  r.URL.Path,
		})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests and for main's
// graceful-shutdown http.Server).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	if origin == "" {
		origin = "http://localhost:3000"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- AUTH routes -------------------------------

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authRes struct {
	Token string         `json:"token"`
	User  map[string]any `json:"user"`
}

// handleRegister creates a user, signs a JWT, sets the auth cookie, and
// claims any guest results recorded under the anonymous cookie.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body registerReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := s.createUser(body.Username, body.Email, body.Password)
	if err != nil {
		if errors.Is(err, errUsernameTaken) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.finishAuth(w, r, u)
}

// handleLogin authenticates a user and sets the auth cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := s.findUserByUsername(normalizeUsername(body.Username))
	if err != nil || !checkPassword(u.PasswordHash, body.Password) {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	s.finishAuth(w, r, u)
}

// finishAuth signs the token, sets the cookie, claims guest history, and
// writes the auth response.
func (s *Server) finishAuth(w http.ResponseWriter, r *http.Request, u *userRow) {
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign failed")
		return
	}
	s.setAuthCookie(w, tok, exp)
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		s.claimAnonResults(c.Value, u.ID)
	}
	writeJSON(w, http.StatusOK, authRes{Token: tok, User: map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
		"premium":  u.Premium,
	}})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleMe returns the current user.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	if me == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := s.findUserByID(me.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
		"premium":  u.Premium,
	})
}

// ------------------------------ small util ---------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
