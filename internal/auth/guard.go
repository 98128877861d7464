package auth

import (
	"errors"
	"strings"
)

// Reason explains an access decision.
type Reason string

const (
	ReasonOK               Reason = "OK"
	ReasonNoToken          Reason = "NO_TOKEN"
	ReasonInvalidToken     Reason = "INVALID_TOKEN"
	ReasonExpired          Reason = "EXPIRED"
	ReasonInsufficientRole Reason = "INSUFFICIENT_ROLE"
)

// Unauthenticated reports whether the reason is an identity failure rather
// than an authorization failure.
func (r Reason) Unauthenticated() bool {
	switch r {
	case ReasonNoToken, ReasonInvalidToken, ReasonExpired:
		return true
	}
	return false
}

// Decision is the outcome of a single access check. Claims is set whenever
// the token verified, including INSUFFICIENT_ROLE.
type Decision struct {
	Allowed bool
	Reason  Reason
	Claims  *Claims
}

// RoleSet is the set of roles allowed through a guarded route.
type RoleSet map[string]struct{}

// NewRoleSet builds a set from roles.
func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}

// Contains reports membership.
func (s RoleSet) Contains(role string) bool {
	_, ok := s[role]
	return ok
}

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// Guard decides whether a bearer token grants one of a set of roles.
type Guard struct {
	verifier TokenVerifier
}

// NewGuard builds a guard backed by verifier.
func NewGuard(verifier TokenVerifier) *Guard {
	return &Guard{verifier: verifier}
}

// Check evaluates token against required. An empty token means none was presented.
func (g *Guard) Check(required RoleSet, token string) Decision {
	if strings.TrimSpace(token) == "" {
		return Decision{Reason: ReasonNoToken}
	}

	claims, err := g.verifier.Verify(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return Decision{Reason: ReasonExpired}
		}
		return Decision{Reason: ReasonInvalidToken}
	}

	if !required.Contains(claims.Role) {
		return Decision{Reason: ReasonInsufficientRole, Claims: claims}
	}
	return Decision{Allowed: true, Reason: ReasonOK, Claims: claims}
}
