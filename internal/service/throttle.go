package service

import (
	"context"
	"time"

	"github.com/spec-kit/commerce-auth/internal/config"
)

const loginFailuresKeyPrefix = "auth:login:failures:"

// AttemptCounter is a shared expiring counter store. persistence.Redis implements it.
type AttemptCounter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	Count(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

// LoginThrottle locks an email after repeated failed logins. A nil
// *LoginThrottle never locks.
type LoginThrottle struct {
	counter     AttemptCounter
	maxAttempts int64
	window      time.Duration
}

// NewLoginThrottle returns nil when throttling is disabled by configuration.
func NewLoginThrottle(counter AttemptCounter, cfg config.AuthConfig) *LoginThrottle {
	if counter == nil || cfg.MaxLoginAttempts <= 0 || cfg.LoginLockout() <= 0 {
		return nil
	}
	return &LoginThrottle{
		counter:     counter,
		maxAttempts: int64(cfg.MaxLoginAttempts),
		window:      cfg.LoginLockout(),
	}
}

// Locked reports whether email has reached the failure limit.
func (t *LoginThrottle) Locked(ctx context.Context, email string) (bool, error) {
	if t == nil {
		return false, nil
	}
	n, err := t.counter.Count(ctx, loginFailuresKeyPrefix+email)
	if err != nil {
		return false, err
	}
	return n >= t.maxAttempts, nil
}

// RecordFailure counts a failed login and returns the failures in the window.
func (t *LoginThrottle) RecordFailure(ctx context.Context, email string) (int64, error) {
	if t == nil {
		return 0, nil
	}
	return t.counter.Increment(ctx, loginFailuresKeyPrefix+email, t.window)
}

// Reset clears the failures for email.
func (t *LoginThrottle) Reset(ctx context.Context, email string) error {
	if t == nil {
		return nil
	}
	return t.counter.Reset(ctx, loginFailuresKeyPrefix+email)
}
