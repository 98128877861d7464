package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-auth/internal/auth"
	"github.com/spec-kit/commerce-auth/internal/config"
	"github.com/spec-kit/commerce-auth/internal/domain"
	"github.com/spec-kit/commerce-auth/internal/events"
	"github.com/spec-kit/commerce-auth/internal/repository"
)

// RegisterInput carries a registration request. An empty Role means the default role.
type RegisterInput struct {
	Email    string
	Password string
	Role     string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	credentials  repository.CredentialRepository
	hasher       *auth.PasswordHasher
	tokenMgr     *auth.TokenManager
	throttle     *LoginThrottle
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	defaultRole  string
	allowedRoles []string
	dummyHash    string
}

// AuthDependencies encapsulates collaborators of the auth service.
// Throttle, Dispatcher and Logger are optional.
type AuthDependencies struct {
	Credentials  repository.CredentialRepository
	Throttle     *LoginThrottle
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	TokenOptions []auth.TokenOption
}

// NewAuthService builds the service. It fails when the signing configuration is unusable.
func NewAuthService(cfg config.Config, deps AuthDependencies) (*AuthService, error) {
	if deps.Credentials == nil {
		return nil, errors.New("credential repository is required")
	}
	tokenMgr, err := auth.NewTokenManager(cfg.Auth, deps.TokenOptions...)
	if err != nil {
		return nil, err
	}

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	// Compared against when the email is unknown so both login failures cost one bcrypt run.
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	defaultRole := cfg.Auth.DefaultRole
	if defaultRole == "" {
		defaultRole = domain.RoleUser
	}

	return &AuthService{
		credentials:  deps.Credentials,
		hasher:       hasher,
		tokenMgr:     tokenMgr,
		throttle:     deps.Throttle,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
		defaultRole:  defaultRole,
		allowedRoles: cfg.Auth.AllowedRoles,
		dummyHash:    dummyHash,
	}, nil
}

// NormalizeEmail trims and lower-cases an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account and returns its public projection.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.PublicCredential, error) {
	email := NormalizeEmail(in.Email)
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = s.defaultRole
	}
	if !s.roleAllowed(role) {
		return nil, s.registrationRejected(ctx, email, ErrInvalidRole, "invalid_role")
	}

	if _, err := s.credentials.FindByEmail(ctx, email); err == nil {
		return nil, s.registrationRejected(ctx, email, ErrDuplicateEmail, "duplicate_email")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	cred := &domain.Credential{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	// The existence check above is only a fast path; the store's unique
	// constraint decides concurrent registrations.
	if err := s.credentials.Insert(ctx, cred); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, s.registrationRejected(ctx, email, ErrDuplicateEmail, "duplicate_email")
		}
		return nil, err
	}

	s.publish(ctx, events.EventUserRegistered, email, events.UserRegisteredPayload{UserID: cred.ID, Role: role})
	public := cred.Public()
	return &public, nil
}

// Login verifies credentials and issues an access token carrying the stored role.
// Unknown email and wrong password yield the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*auth.IssuedToken, error) {
	email = NormalizeEmail(email)

	locked, err := s.throttle.Locked(ctx, email)
	if err != nil {
		s.logger.Warn("login throttle unavailable", zap.Error(err))
	}
	if locked {
		s.publish(ctx, events.EventLoginLocked, email, nil)
		return nil, ErrTooManyAttempts
	}

	cred, err := s.credentials.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		s.hasher.Verify(password, s.dummyHash)
		return nil, s.loginFailed(ctx, email, "unknown_email")
	}
	if !s.hasher.Verify(password, cred.PasswordHash) {
		return nil, s.loginFailed(ctx, email, "wrong_password")
	}
	if !cred.IsActive {
		return nil, s.loginFailed(ctx, email, "inactive")
	}

	issued, err := s.tokenMgr.Issue(cred.Email, cred.Role, 0)
	if err != nil {
		return nil, err
	}
	if err := s.throttle.Reset(ctx, email); err != nil {
		s.logger.Warn("reset login throttle", zap.Error(err))
	}

	s.publish(ctx, events.EventLoginSucceeded, email, events.LoginSucceededPayload{Role: cred.Role, ExpiresAt: issued.ExpiresAt})
	return issued, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// AllowedRoles lists the roles accounts may hold.
func (s *AuthService) AllowedRoles() []string {
	return append([]string(nil), s.allowedRoles...)
}

func (s *AuthService) registrationRejected(ctx context.Context, email string, err error, reason string) error {
	s.publish(ctx, events.EventRegistrationRejected, email, events.RegistrationRejectedPayload{Reason: reason})
	return err
}

func (s *AuthService) loginFailed(ctx context.Context, email, reason string) error {
	failures, err := s.throttle.RecordFailure(ctx, email)
	if err != nil {
		s.logger.Warn("record login failure", zap.Error(err))
	}
	s.publish(ctx, events.EventLoginFailed, email, events.LoginFailedPayload{Reason: reason, Failures: failures})
	return ErrInvalidCredentials
}

func (s *AuthService) roleAllowed(role string) bool {
	if len(s.allowedRoles) == 0 {
		return role == s.defaultRole
	}
	for _, allowed := range s.allowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, subject string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		Type:    eventType,
		Subject: subject,
		Payload: payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
