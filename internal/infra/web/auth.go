package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"musicqr-server/internal/domain"
)

const cookieName = "musicqr_admin"

// AuthManager mints and validates admin session tokens (HS256 JWT), delivered
// as an HttpOnly cookie and accepted as a bearer token too.
type AuthManager struct {
	secret   []byte
	username string
	password string
	ttl      time.Duration
	secure   bool
}

func NewAuthManager(jwtSecret, username, password string, ttl time.Duration, secure bool) *AuthManager {
	return &AuthManager{
		secret:   []byte(jwtSecret),
		username: username,
		password: password,
		ttl:      ttl,
		secure:   secure,
	}
}

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// CheckCredentials compares the submitted login against the configured admin
// account in constant time.
func (a *AuthManager) CheckCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	return userOK && passOK
}

func (a *AuthManager) Mint(w http.ResponseWriter, username string) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			Subject:   username,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(a.ttl.Seconds()),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return signed, nil
}

func (a *AuthManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (a *AuthManager) ParseFromRequest(r *http.Request) (*AdminClaims, error) {
	// Authorization: Bearer <jwt>
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			return a.parse(strings.TrimSpace(hdr[7:]))
		}
	}
	// Cookie
	if c, err := r.Cookie(cookieName); err == nil {
		return a.parse(c.Value)
	}
	return nil, fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
}

func (a *AuthManager) parse(tok string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	return claims, nil
}

// DeriveAPIKey is the shared-secret scheme the batch sync client uses:
// HMAC-SHA256(secret, salt), hex encoded. Both sides derive the same key and
// the client sends it with each sync request.
func DeriveAPIKey(secret, salt string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(salt))
	return hex.EncodeToString(mac.Sum(nil))
}

// CheckAPIKey validates a presented sync key in constant time.
func CheckAPIKey(presented, expected string) bool {
	if presented == "" {
		return false
	}
	return hmac.Equal([]byte(presented), []byte(expected))
}
