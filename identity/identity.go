// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"crypto/hmac"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/danielhkuo/agora/models"
)

var ErrInvalidToken = errors.New("invalid auth token")

// AdminTestHeader carries the shared secret that switches a request into
// admin test mode. Test mode is an explicit operational escape hatch: it
// substitutes synthetic per-call voter keys so repeated votes/supports
// are possible. It is never the default, and it is disabled entirely
// when no secret is configured.
const AdminTestHeader = "X-Admin-Test"

type claims struct {
	UID         string `json:"uid,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
	Provider    string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// Resolver maps an incoming request to a stable user identity. The auth
// providers are external; what arrives here is their session token as a
// Bearer JWT.
type Resolver struct {
	jwtSecret       string
	adminTestSecret string
}

func NewResolver(jwtSecret, adminTestSecret string) *Resolver {
	return &Resolver{jwtSecret: jwtSecret, adminTestSecret: adminTestSecret}
}

// Resolve returns the caller's identity. No Authorization header means
// anonymous, not an error; a malformed or badly-signed token is an error.
func (res *Resolver) Resolve(r *http.Request) (models.Identity, error) {
	ident := models.Identity{AdminTest: res.isAdminTest(r)}

	header := r.Header.Get("Authorization")
	if header == "" {
		return ident, nil
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return models.Identity{}, ErrInvalidToken
	}
	tokenStr := strings.TrimSpace(header[7:])

	var c claims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, ErrInvalidToken
			}
			return []byte(res.jwtSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return models.Identity{}, ErrInvalidToken
	}

	// Some providers put the user id in uid, others only in sub.
	uid := c.UID
	if uid == "" {
		uid = c.Subject
	}
	if uid == "" {
		return models.Identity{}, ErrInvalidToken
	}

	ident.UID = uid
	ident.Email = c.Email
	ident.DisplayName = c.DisplayName
	ident.Provider = c.Provider
	return ident, nil
}

func (res *Resolver) isAdminTest(r *http.Request) bool {
	if res.adminTestSecret == "" {
		return false
	}
	given := r.Header.Get(AdminTestHeader)
	if given == "" {
		return false
	}
	return hmac.Equal([]byte(given), []byte(res.adminTestSecret))
}

// SyntheticVoterID generates a fresh uniqueness key for an admin-test
// write. Each call yields a new key, so the (scope, user) constraint is
// bypassed by construction rather than disabled.
func SyntheticVoterID() string {
	return "test-" + uuid.NewString()
}

// SignToken mints an HS256 session token for the given identity. Used by
// tests and local tooling; production tokens come from the auth provider.
func SignToken(ident models.Identity, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UID:         ident.UID,
		Email:       ident.Email,
		DisplayName: ident.DisplayName,
		Provider:    ident.Provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: ident.UID,
		},
	})
	return token.SignedString([]byte(secret))
}
