package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/commerce-auth/pkg/util"
)

const claimsKey = "auth_claims"

// DecisionObserver is notified of every guard decision.
type DecisionObserver interface {
	ObserveAccessDecision(reason string)
}

// AuthMiddleware runs the Guard in front of protected handlers.
type AuthMiddleware struct {
	guard    *Guard
	observer DecisionObserver
}

// NewAuthMiddleware constructs middleware. observer may be nil.
func NewAuthMiddleware(guard *Guard, observer DecisionObserver) *AuthMiddleware {
	return &AuthMiddleware{guard: guard, observer: observer}
}

// RequireRoles admits callers whose token carries one of roles.
// Identity failures become 401, role failures 403.
func (m *AuthMiddleware) RequireRoles(roles ...string) fiber.Handler {
	required := NewRoleSet(roles...)

	return func(c *fiber.Ctx) error {
		decision := m.guard.Check(required, BearerToken(c))
		if m.observer != nil {
			m.observer.ObserveAccessDecision(string(decision.Reason))
		}
		if decision.Allowed {
			c.Locals(claimsKey, decision.Claims)
			return c.Next()
		}

		details := map[string]any{"reason": string(decision.Reason)}
		switch decision.Reason {
		case ReasonNoToken:
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return apperrors.NewUnauthorizedWithDetails("not authenticated", details)
		case ReasonExpired:
			c.Set(fiber.HeaderWWWAuthenticate, `Bearer error="invalid_token"`)
			return apperrors.NewUnauthorizedWithDetails("token expired", details)
		case ReasonInvalidToken:
			c.Set(fiber.HeaderWWWAuthenticate, `Bearer error="invalid_token"`)
			return apperrors.NewUnauthorizedWithDetails("invalid token", details)
		default:
			return apperrors.NewForbidden("not enough permissions")
		}
	}
}

// BearerToken extracts the bearer credential from the Authorization header.
// Any other scheme counts as no token.
func BearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// ClaimsFromContext retrieves the verified claims stored by RequireRoles.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok && claims != nil
}
