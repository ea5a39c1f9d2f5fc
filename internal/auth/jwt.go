// Package auth holds the client's access-control pieces:
//
//   - the Route Guard (guard.go): a pure decision function over a Session Record
//   - chi middleware that applies the guard to every access-controlled view
//   - TokenService (this file): HS256 sealing of the persisted Session Record
//
// WHY SEAL THE PERSISTED RECORD?
// The Durable Session Store is a plain file on disk. Anyone who can edit it
// could flip "role":"user" to "role":"admin". When a SESSION_SECRET is
// configured, the record is written as the claims of a signed JWT instead of
// bare JSON; a record whose signature does not verify is treated exactly like
// a malformed one and the client silently falls back to "unauthenticated".
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: the Session Record fields + iss/iat
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/mentorlink/internal/model"
)

const issuer = "mentorlink"

// TokenService seals and opens Session Records.
//
// The same secret must be used for both operations. Rotating the secret
// logs the user out on the next start, which is the intended effect.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// Example: SESSION_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// sessionClaims is the JWT payload: the Session Record plus registered claims.
// No expiry: a session lasts until logout, like the browser original.
type sessionClaims struct {
	Authenticated bool            `json:"authenticated"`
	Identity      *model.Identity `json:"identity"`
	Role          model.Role      `json:"role"`
	jwt.RegisteredClaims
}

// Seal signs rec and returns the compact JWT string.
func (s *TokenService) Seal(rec model.SessionRecord) (string, error) {
	c := sessionClaims{
		Authenticated: rec.Authenticated,
		Identity:      rec.Identity,
		Role:          rec.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  rec.ID(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
			Issuer:   issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session: %w", err)
	}
	return signed, nil
}

// Open verifies tokenStr and returns the Session Record it carries.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Issuer matches "mentorlink"
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// Open does not check the record invariant; that is the caller's job.
func (s *TokenService) Open(tokenStr string) (model.SessionRecord, error) {
	c := &sessionClaims{}
	token, err := jwt.ParseWithClaims(
		tokenStr,
		c,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return model.SessionRecord{}, fmt.Errorf("auth: invalid session token: %w", err)
	}
	if !token.Valid {
		return model.SessionRecord{}, errors.New("auth: invalid session token")
	}

	return model.SessionRecord{
		Authenticated: c.Authenticated,
		Identity:      c.Identity,
		Role:          c.Role,
	}, nil
}
