// Package model defines the data structures shared across the client core.
// In Go, we use plain structs for records: no inheritance, just composition.
package model

import "strings"

// Role is the authorization role carried by a Session Record.
type Role string

const (
	// RoleNone is the zero value. On a Session Record it means "no role"
	// (unauthenticated); as a route requirement it means "any role".
	RoleNone  Role = ""
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a backend role string onto a Role.
//
// The auth backend only ever answers "user" or "admin", but older accounts
// may carry a localized label. Anything that is not explicitly "admin" is
// treated as an ordinary user so it can never escalate.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// Valid reports whether r is one of the two concrete roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is the nested identity block of a persisted Session Record.
type Identity struct {
	Identity string `json:"identity"`
	Role     Role   `json:"role"`
}

// SessionRecord is the authenticated-identity-and-role value for the
// current browser session.
//
// INVARIANT: Authenticated == false implies Identity == nil and Role == RoleNone.
// The zero value is the unauthenticated record.
//
// The JSON layout is the persisted layout:
//
//	{"authenticated":true,"identity":{"identity":"u1","role":"user"},"role":"user"}
type SessionRecord struct {
	Authenticated bool      `json:"authenticated"`
	Identity      *Identity `json:"identity"`
	Role          Role      `json:"role"`
}

// Unauthenticated returns the cleared Session Record.
func Unauthenticated() SessionRecord {
	return SessionRecord{}
}

// Authenticated builds the record written by a successful login.
func Authenticated(identity string, role Role) SessionRecord {
	return SessionRecord{
		Authenticated: true,
		Identity:      &Identity{Identity: identity, Role: role},
		Role:          role,
	}
}

// ID returns the identity string, or "" when unauthenticated.
func (s SessionRecord) ID() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Identity
}

// Clone returns a deep copy so callers never share the nested Identity.
func (s SessionRecord) Clone() SessionRecord {
	if s.Identity != nil {
		id := *s.Identity
		s.Identity = &id
	}
	return s
}

// WellFormed reports whether the record satisfies the Session Record invariant.
// A record read back from storage that is not well formed is treated as corrupt.
//
// An authenticated record only needs a known role. Admin logins come back
// without a user id, so a missing or blank identity is kept, and the
// top-level role wins over whatever the nested identity says.
func (s SessionRecord) WellFormed() bool {
	if !s.Authenticated {
		return s.Identity == nil && s.Role == RoleNone
	}
	return s.Role.Valid()
}
