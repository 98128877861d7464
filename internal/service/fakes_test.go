package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/commerce-auth/internal/config"
	"github.com/spec-kit/commerce-auth/internal/domain"
	"github.com/spec-kit/commerce-auth/internal/repository"
)

const testSecret = "service-test-secret-0123456789abcdef"

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             testSecret,
			JWTAlgorithm:          "HS256",
			Issuer:                "commerce-auth-test",
			AccessTokenTTLMinutes: 30,
			BcryptCost:            4,
			DefaultRole:           "user",
			AllowedRoles:          []string{"user", "admin", "seller"},
			MaxLoginAttempts:      3,
			LoginLockoutMinutes:   15,
		},
	}
}

// memoryCredentials enforces email uniqueness on insert like the users table does.
type memoryCredentials struct {
	mu    sync.Mutex
	byKey map[string]domain.Credential
}

func newMemoryCredentials() *memoryCredentials {
	return &memoryCredentials{byKey: make(map[string]domain.Credential)}
}

func (m *memoryCredentials) FindByEmail(_ context.Context, email string) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cred, ok := m.byKey[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cred, nil
}

func (m *memoryCredentials) Insert(_ context.Context, cred *domain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byKey[cred.Email]; ok {
		return repository.ErrConflict
	}
	cred.CreatedAt = time.Now().UTC()
	m.byKey[cred.Email] = *cred
	return nil
}

func (m *memoryCredentials) count(email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byKey[email]; ok {
		return 1
	}
	return 0
}

// blindCredentials never finds anything, simulating a registration that lost
// the race between the existence check and the insert.
type blindCredentials struct {
	*memoryCredentials
}

func (b blindCredentials) FindByEmail(context.Context, string) (*domain.Credential, error) {
	return nil, repository.ErrNotFound
}

type memoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{counts: make(map[string]int64)}
}

func (c *memoryCounter) Increment(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return c.counts[key], nil
}

func (c *memoryCounter) Count(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key], nil
}

func (c *memoryCounter) Reset(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, key)
	return nil
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordLogin(outcome string) {
	m.Called(outcome)
}

func (m *mockRecorder) RecordRegistration(outcome string) {
	m.Called(outcome)
}
