// Package auth verifies tokens issued by the external identity service and
// exposes the caller's identity to handlers. Login, refresh, and password
// flows live outside this service.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	internal "github.com/wytlabs/cardops/internal"
)

// Role of an authenticated user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleMIS     Role = "mis"
	RoleHandler Role = "handler"
	RoleFinance Role = "finance"
)

// Privileged roles get their created entries auto-accepted.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleMIS
}

// CanViewAllUnits reports whether the role sees entries across every
// business unit instead of only its own.
func (r Role) CanViewAllUnits() bool {
	return r == RoleAdmin || r == RoleMIS || r == RoleFinance
}

// Claims is the token payload the identity service signs for us.
type Claims struct {
	UserID        int64    `json:"user_id"`
	Email         string   `json:"email"`
	Name          string   `json:"name"`
	Role          string   `json:"role"`
	BusinessUnits []string `json:"business_units"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller as seen by handlers and services.
type Principal struct {
	UserID        int64
	Email         string
	Name          string
	Role          Role
	BusinessUnits []string
}

// VerifyToken parses and validates an HMAC-signed token.
func VerifyToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, internal.NewUnauthorizedError("unexpected signing method", internal.ErrCodeInvalidToken)
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, internal.NewUnauthorizedError("invalid token", internal.ErrCodeInvalidToken).WithCause(err)
	}
	if !token.Valid {
		return nil, internal.NewUnauthorizedError("invalid token", internal.ErrCodeInvalidToken)
	}
	return claims, nil
}

type principalKey struct{}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}
