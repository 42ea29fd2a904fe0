package auth

import (
	"fmt"
	"strings"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/workflow"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload issued by the identity provider. Role,
// department and company gate which workflow transitions are permitted.
type Claims struct {
	jwt.RegisteredClaims
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Company    string `json:"company"`
}

// TokenValidator validates bearer tokens and yields the acting user.
type TokenValidator struct {
	secret []byte
	issuer string
}

// NewTokenValidator creates a validator for HMAC-signed tokens.
func NewTokenValidator(secret, issuer string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret), issuer: issuer}
}

// Validate parses and verifies a token string and returns the actor.
func (v *TokenValidator) Validate(tokenString string) (*workflow.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, fmt.Errorf("unexpected token issuer %q", claims.Issuer)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return &workflow.Actor{
		ID:         claims.Subject,
		Name:       claims.Name,
		Role:       workflow.Role(strings.ToLower(claims.Role)),
		Department: claims.Department,
		Company:    claims.Company,
	}, nil
}

// Sign issues a token for the given actor. Used by tests and local tooling;
// production tokens come from the identity provider.
func (v *TokenValidator) Sign(actor workflow.Actor) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: actor.ID,
			Issuer:  v.issuer,
		},
		Name:       actor.Name,
		Role:       string(actor.Role),
		Department: actor.Department,
		Company:    actor.Company,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
