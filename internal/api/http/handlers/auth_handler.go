package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/commerce-auth/internal/api/dto"
	"github.com/spec-kit/commerce-auth/internal/auth"
	"github.com/spec-kit/commerce-auth/internal/domain"
	"github.com/spec-kit/commerce-auth/internal/service"
	apperrors "github.com/spec-kit/commerce-auth/pkg/util"
)

// Authenticator is the registration and login surface of service.AuthService.
type Authenticator interface {
	Register(ctx context.Context, in service.RegisterInput) (*domain.PublicCredential, error)
	Login(ctx context.Context, email, password string) (*auth.IssuedToken, error)
}

// AuthHandler exposes the auth endpoints.
type AuthHandler struct {
	auth Authenticator
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService Authenticator) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError("invalid registration", dto.ValidationDetails(err))
	}

	created, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEmail):
			return apperrors.NewBadRequest("EMAIL_ALREADY_REGISTERED", "Email already registered")
		case errors.Is(err, service.ErrInvalidRole):
			return apperrors.NewValidationError("invalid registration", map[string]any{"role": "role is not allowed"})
		case errors.Is(err, auth.ErrPasswordTooLong), errors.Is(err, auth.ErrEmptyPassword):
			return apperrors.NewValidationError("invalid registration", map[string]any{"password": err.Error()})
		}
		return err
	}

	return c.Status(http.StatusCreated).JSON(created)
}

// Token handles POST /api/v1/auth/token. Both form and JSON bodies are accepted.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError("invalid token request", dto.ValidationDetails(err))
	}

	issued, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return apperrors.NewUnauthorized("Incorrect email or password")
		case errors.Is(err, service.ErrTooManyAttempts):
			return apperrors.NewTooManyRequests("too many failed login attempts; try again later")
		}
		return err
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(dto.TokenResponse{
		AccessToken: issued.Token,
		TokenType:   issued.TokenType,
		ExpiresAt:   issued.ExpiresAt,
	})
}

// Protected handles GET /api/v1/auth/protected, reachable by admins only.
func (h *AuthHandler) Protected(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "You have access to this protected resource"})
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	resp := dto.MeResponse{Email: claims.Subject, Role: claims.Role}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	return c.JSON(resp)
}
