// internal/httpserver/auth.go
//
// Authentication for the Word Heist API.
// Responsibilities:
//   - User records: signup validation, bcrypt hashing, lookup helpers.
//   - HS256 JWTs carrying id/username, read from the Authorization header
//     or the auth cookie.
//   - Optional-auth middleware (guests allowed) and require-auth middleware.
//   - Anonymous cookie identity for guest sessions, claimable on login.

package httpserver

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// userRow matches the users table shape.
type userRow struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	CreatedAt     time.Time
	Streak        int
	TotalScore    int
	PuzzlesSolved int
	Premium       bool
}

// authUser is placed into request context by the auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

// currentUser returns the authenticated user from context, or nil.
func currentUser(r *http.Request) *authUser {
	u, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	return u
}

// ----------------------------- user records --------------------------------

func normalizeUsername(u string) string { return strings.TrimSpace(u) }

// validateSignup enforces basic username/email/password rules.
func validateSignup(username, email, password string) error {
	if len(username) < 3 || len(username) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range username {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if !strings.Contains(email, "@") || len(email) > 120 {
		return errors.New("invalid email")
	}
	if len(password) < 8 || len(password) > 100 {
		return errors.New("password must be 8-100 chars")
	}
	return nil
}

// createUser validates input, checks uniqueness, hashes the password, and
// inserts a new user row.
func (s *Server) createUser(username, email, password string) (*userRow, error) {
	username = normalizeUsername(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateSignup(username, email, password); err != nil {
		return nil, err
	}
	var exists int
	_ = s.db.QueryRow(`SELECT 1 FROM users WHERE lower(username)=lower(?) OR email=?`, username, email).Scan(&exists)
	if exists == 1 {
		return nil, errUsernameTaken
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	id := uuid.NewString()
	if _, err := s.db.Exec(`INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?,?,?,?,?)`,
		id, username, email, string(h), now); err != nil {
		return nil, err
	}
	return &userRow{ID: id, Username: username, Email: email, PasswordHash: string(h), CreatedAt: mustParse(now)}, nil
}

var errUsernameTaken = errors.New("username or email taken")

func (s *Server) findUserByUsername(username string) (*userRow, error) {
	row := s.db.QueryRow(`SELECT id, username, email, password_hash, created_at, streak, total_score, puzzles_solved, premium
	                      FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}

func (s *Server) findUserByID(id string) (*userRow, error) {
	row := s.db.QueryRow(`SELECT id, username, email, password_hash, created_at, streak, total_score, puzzles_solved, premium
	                      FROM users WHERE id=?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*userRow, error) {
	var u userRow
	var created string
	var premium int
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &created,
		&u.Streak, &u.TotalScore, &u.PuzzlesSolved, &premium); err != nil {
		return nil, err
	}
	u.CreatedAt = mustParse(created)
	u.Premium = premium == 1
	return &u, nil
}

// mustParse parses RFC3339 timestamps; on error returns zero time.
func mustParse(v string) time.Time {
	t, _ := time.Parse(time.RFC3339, v)
	return t
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// ------------------------------ JWT & cookies ------------------------------

// signJWT creates an HS256 JWT with id/username claims.
func (s *Server) signJWT(id, username string) (string, time.Time, error) {
	exp := time.Now().Add(time.Duration(s.cfg.JWTExpiresDays) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, err := t.SignedString([]byte(s.cfg.JWTSecret))
	return ss, exp, err
}

func (s *Server) parseJWT(tokenStr string) (id, username string, err error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", "", errors.New("invalid token")
	}
	id, _ = claims["id"].(string)
	username, _ = claims["username"].(string)
	if id == "" || username == "" {
		return "", "", errors.New("invalid token")
	}
	return id, username, nil
}

// setAuthCookie writes the auth token cookie.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.SecureCookies {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: sameSite,
		Expires:  exp,
	})
}

func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.SecureCookies {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a token from the Authorization header or cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// ---------------------------- auth middleware ------------------------------

// withOptionalAuth decorates requests with user context when a valid JWT is
// present. It never 401s; used for routes where guests are allowed.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := s.bearerOrCookie(r); tok != "" {
				if id, username, err := s.parseJWT(tok); err == nil {
					if _, err := s.findUserByID(id); err == nil {
						ctx := context.WithValue(r.Context(), ctxUserKey{}, &authUser{ID: id, Username: username})
						r = r.WithContext(ctx)
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth enforces a valid JWT and injects authUser into context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := s.bearerOrCookie(r)
			if tok == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			id, username, err := s.parseJWT(tok)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			// Ensure the user still exists.
			if _, err := s.findUserByID(id); err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, &authUser{ID: id, Username: username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ------------------------- anonymous identity ------------------------------

const anonCookieName = "wordheist_anon"

// ensureAnonID returns an existing anon cookie or sets a new one, so guest
// sessions survive page reloads.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	sameSite := http.SameSiteLaxMode
	if s.cfg.SecureCookies {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: sameSite,
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// claimAnonResults transfers guest results to a user account after auth.
func (s *Server) claimAnonResults(anonID, userID string) {
	if anonID == "" || userID == "" {
		return
	}
	if _, err := s.db.Exec(`UPDATE OR IGNORE results SET user_id=? WHERE user_id=?`, userID, anonID); err != nil {
		s.log.Warn().Err(err).Msg("claim anonymous results")
	}
}

// ownerID resolves the stable identity for the current request: the user ID
// when authenticated, an anonymous cookie ID otherwise.
func (s *Server) ownerID(w http.ResponseWriter, r *http.Request) (id string, authed bool) {
	if me := currentUser(r); me != nil {
		return me.ID, true
	}
	return s.ensureAnonID(w, r), false
}
