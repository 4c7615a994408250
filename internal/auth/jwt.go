// Package auth is the access gate: it authenticates bearer credentials and
// enforces role and ownership predicates before any handler runs.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"classattend/internal/apperr"
)

// Role is a caller's role as carried in the bearer credential.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is one of the supported values.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	default:
		return false
	}
}

// Identity is the authenticated caller.
type Identity struct {
	ID   string
	Role Role
}

// CanActOn reports whether the identity may mutate a resource owned by
// ownerID. Admins may act on anything.
func (id Identity) CanActOn(ownerID string) bool {
	return id.Role == RoleAdmin || id.ID == ownerID
}

// Claims represents the JWT payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs an access token for the given user. Token minting belongs to
// the identity collaborator; it lives here so the gate and its tests share
// one definition of the credential format.
func Issue(userID string, role Role, issuer, key string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Parse validates a token and returns the caller identity.
func Parse(tokenStr, key, issuer string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Identity{}, apperr.Wrap(apperr.KindUnauthorized, "invalid token", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, apperr.Unauthorized("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Identity{}, apperr.Unauthorized("issuer mismatch")
	}
	id := Identity{ID: claims.Subject, Role: Role(claims.Role)}
	if id.ID == "" || !id.Role.Valid() {
		return Identity{}, apperr.Unauthorized("invalid token claims")
	}
	return id, nil
}
