// apps/go-server/internal/httpserver/auth.go
//
// Authentication for the vino backend.
// Responsibilities:
//   - Signup/login/logout/me endpoints.
//   - HS256 JWT issue + verification (Authorization: Bearer or auth cookie).
//   - bcrypt password hashing.
//   - Loading the caller's role and subscription state as an access.Principal.
//
// Tokens only carry identity; role and subscription are re-read from the users
// table on every request so admin changes take effect immediately.

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
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/vino/apps/go-server/internal/access"
)

var errUsernameTaken = errors.New("username taken")

// authUser is placed into request context by the auth middleware.
type authUser struct {
	ID                 string                    `json:"id"`
	Username           string                    `json:"username"`
	Role               access.Role               `json:"role"`
	SubscriptionStatus access.SubscriptionStatus `json:"subscriptionStatus"`
}

// Principal converts the user into the access-policy view.
func (u *authUser) Principal() *access.Principal {
	if u == nil {
		return nil
	}
	return &access.Principal{Role: u.Role, SubscriptionStatus: u.SubscriptionStatus}
}

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

// currentUser returns the signed-in user or nil.
func currentUser(r *http.Request) *authUser {
	u, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	return u
}

// Request payloads for signup/login.
type signupReq struct {
	Username string `json:"username" validate:"required,min=3,max=24,username"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}
type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// mountAuthRoutes registers /auth/*.
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)
	s.r.With(s.guard(access.Guard{RequireAuth: true})).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, currentUser(r))
	})
}

// handleSignup creates a learner account, signs a JWT and sets the auth cookie.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupReq
	if !s.decodeAndValidate(w, r, &body) {
		return
	}
	u, err := s.createUser(r.Context(), strings.TrimSpace(body.Username), body.Password)
	if errors.Is(err, errUsernameTaken) {
		writeError(w, http.StatusConflict, "username_taken")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("create user")
		writeError(w, http.StatusInternalServerError, "signup_failed")
		return
	}
	if !s.issueSession(w, u) {
		return
	}
	writeJSON(w, http.StatusCreated, u.public())
}

// handleLogin authenticates a user and sets the auth cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if !s.decodeAndValidate(w, r, &body) {
		return
	}
	u, err := s.findUserByUsername(r.Context(), strings.TrimSpace(body.Username))
	if err != nil || !checkPassword(u.PasswordHash, body.Password) {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	if !s.issueSession(w, u) {
		return
	}
	writeJSON(w, http.StatusOK, u.public())
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) issueSession(w http.ResponseWriter, u *userRow) bool {
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		log.Error().Err(err).Msg("sign jwt")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	s.setAuthCookie(w, tok, exp)
	w.Header().Set("Authorization", "Bearer "+tok)
	return true
}

// --------------------------- optional auth ---------------------------------

// withOptionalAuth decorates requests with the user when a valid JWT is present.
// Bad tokens and deleted users pass through as anonymous; access.Guard decides
// what an anonymous caller may reach.
func (s *Server) withOptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := s.bearerOrCookie(r); tok != "" {
			if id, err := s.parseJWT(tok); err == nil {
				u, err := s.findUserByID(r.Context(), id)
				switch {
				case err == nil:
					ctx := context.WithValue(r.Context(), ctxUserKey{}, u.auth())
					r = r.WithContext(ctx)
				case !errors.Is(err, sql.ErrNoRows):
					// A valid token whose user cannot be loaded is a server fault,
					// not an anonymous caller.
					log.Error().Err(err).Str("user_id", id).Msg("load session user")
					writeError(w, http.StatusInternalServerError, "server_error")
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------ users -----------------------------

// userRow matches the users table shape.
type userRow struct {
	ID                 string
	Username           string
	PasswordHash       string
	CreatedAt          time.Time
	Role               access.Role
	SubscriptionStatus access.SubscriptionStatus
}

func (u *userRow) auth() *authUser {
	return &authUser{ID: u.ID, Username: u.Username, Role: u.Role, SubscriptionStatus: u.SubscriptionStatus}
}

func (u *userRow) public() map[string]any {
	return map[string]any{
		"id":                 u.ID,
		"username":           u.Username,
		"createdAt":          u.CreatedAt,
		"role":               u.Role,
		"subscriptionStatus": u.SubscriptionStatus,
	}
}

// createUser checks uniqueness, hashes the password, and inserts a learner.
func (s *Server) createUser(ctx context.Context, username, pw string) (*userRow, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if err == nil {
		return nil, errUsernameTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &userRow{
		ID:                 uuid.NewString(),
		Username:           username,
		PasswordHash:       string(h),
		CreatedAt:          s.now().Truncate(time.Second),
		Role:               access.RoleLearner,
		SubscriptionStatus: access.SubscriptionInactive,
	}
	if err := s.insertUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// insertUser stores u. A concurrent signup that wins the race trips the
// UNIQUE constraint, which is reported as errUsernameTaken.
func (s *Server) insertUser(ctx context.Context, u *userRow) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, created_at, role, subscription_status)
	                                 VALUES (?,?,?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339), u.Role, u.SubscriptionStatus)
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return errUsernameTaken
	}
	return err
}

const userColumns = `id, username, password_hash, created_at, role, subscription_status`

func (s *Server) findUserByUsername(ctx context.Context, username string) (*userRow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}

func (s *Server) findUserByID(ctx context.Context, id string) (*userRow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	return scanUser(row)
}

// scanUser converts a *sql.Row into a userRow, validating the enum columns.
func scanUser(row *sql.Row) (*userRow, error) {
	var (
		u                     userRow
		created, role, status string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &role, &status); err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	var err error
	if u.Role, err = access.ParseRole(role); err != nil {
		return nil, err
	}
	if u.SubscriptionStatus, err = access.ParseSubscriptionStatus(status); err != nil {
		return nil, err
	}
	return &u, nil
}

// checkPassword is a bcrypt verifier.
func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// ------------------------------ JWT & cookies ------------------------------

// signJWT creates an HS256 JWT with id/username and the configured expiry.
func (s *Server) signJWT(id, username string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.cfg.JWTExpiry())
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString([]byte(s.cfg.JWTSecret))
	return ss, exp, err
}

// parseJWT verifies tok and returns the user id claim.
func (s *Server) parseJWT(tok string) (string, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}
	if !t.Valid {
		return "", errors.New("invalid token")
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return "", errors.New("token without id")
	}
	return id, nil
}

// setAuthCookie writes the auth token cookie with appropriate security attributes.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	secure := s.cfg.Production()
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// clearAuthCookie deletes the auth token cookie.
func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	secure := s.cfg.Production()
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}
