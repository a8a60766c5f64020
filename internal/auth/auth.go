package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenExpiry is how long an issued token stays valid
	TokenExpiry = 72 * time.Hour
	// AdminSubject is the token subject used for the admin account
	AdminSubject = "admin"
)

// Election-themed words for password generation
var ballotWords = []string{
	"ballot", "booth", "candidate", "civic", "count",
	"district", "elect", "franchise", "poll", "quorum",
	"ward", "tally", "turnout", "verdict", "vote",
	"mandate", "caucus", "citizen", "charter",
}

// ErrInvalidToken is returned for tokens that fail parsing or validation
var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims carried by session tokens
type Claims struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	jwt.RegisteredClaims
}

// CanActFor reports whether the token holder may act as userID
func (c *Claims) CanActFor(userID string) bool {
	return c.Admin || (userID != "" && c.Subject == userID)
}

// Auth issues and verifies tokens and checks the admin password
type Auth struct {
	secret    []byte
	adminHash []byte
	now       func() time.Time
}

// New creates an Auth signing with secret. The admin password is kept only
// as a bcrypt hash.
func New(secret, adminPassword string) (*Auth, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &Auth{secret: []byte(secret), adminHash: hash, now: time.Now}, nil
}

// SetClock replaces the clock used for issuing and validating (for testing)
func (a *Auth) SetClock(now func() time.Time) {
	a.now = now
}

// GeneratePassword creates a random 3-word password
func GeneratePassword() string {
	words := make([]string, 3)
	for i := range words {
		words[i] = ballotWords[randomInt(len(ballotWords))]
	}
	return strings.Join(words, "-")
}

// GenerateSecret returns a random hex string for signing tokens
func GenerateSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// IssueToken signs an HS256 token for a user
func (a *Auth) IssueToken(userID, username string, admin bool) (string, error) {
	now := a.now()
	claims := Claims{
		Username: username,
		Admin:    admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken verifies a token's signature and expiry
func (a *Auth) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// AdminLogin checks password and returns an admin token when it matches
func (a *Auth) AdminLogin(password string) (string, bool) {
	if bcrypt.CompareHashAndPassword(a.adminHash, []byte(password)) != nil {
		return "", false
	}
	token, err := a.IssueToken(AdminSubject, AdminSubject, true)
	if err != nil {
		return "", false
	}
	return token, true
}

type claimsKey struct{}

// WithClaims returns ctx carrying claims
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the claims stored by RequireUser
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// bearerToken extracts the token from an "Authorization: Bearer" header
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// RequireUser middleware rejects requests without a valid bearer token
func (a *Auth) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := bearerToken(r)
		if tokenStr == "" {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid token")
			return
		}
		claims, err := a.ParseToken(tokenStr)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireAdmin middleware only admits admin tokens
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return a.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || !claims.Admin {
			writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"success":false,"code":%q,"message":%q}`, code, message)
}

// randomInt returns a uniformly random int in [0, max)
func randomInt(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}
	return int(n.Int64())
}
