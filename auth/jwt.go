/*
jwt.go - Credential verification for import callers

PURPOSE:
  Import runs are gated on the caller's operational role. Callers present
  an HS256-signed bearer token carrying a "role" claim; the verifier checks
  signature and expiry and hands the role back. Whether the role may import
  is decided by the orchestrator, not here.

TOKENS:
  {
    "sub":  "<user id or username>",
    "role": "ADMIN",
    "iat":  1700000000,
    "exp":  1700003600
  }

SEE ALSO:
  - engine/orchestrator.go: role membership check
  - cmd/importer: issues a short-lived local token for CLI runs
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingRole  = errors.New("token carries no role claim")
)

// Claims is the payload of an import credential.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Verify returns the role claim of a valid token, upper-cased.
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (string, error) {
	claims := &Claims{}
	tok, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return "", ErrInvalidToken
	}
	role := strings.ToUpper(strings.TrimSpace(claims.Role))
	if role == "" {
		return "", ErrMissingRole
	}
	return role, nil
}

// Issuer signs tokens with the same secret the verifier checks.
type Issuer struct {
	secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), TTL: ttl, Now: time.Now}
}

// Issue signs a token for subject with role.
func (i *Issuer) Issue(subject, role string) (string, error) {
	now := i.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// BearerToken extracts the token from an Authorization header value.
// It returns "" when the header is not a bearer credential.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
