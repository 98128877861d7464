package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/commerce-auth/internal/domain"
)

// Querier is the subset of *pgxpool.Pool used by repositories.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CredentialRepository persists credentials keyed by email.
type CredentialRepository interface {
	// FindByEmail returns ErrNotFound when no credential has the email.
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
	// Insert returns ErrConflict when the email is already taken.
	Insert(ctx context.Context, cred *domain.Credential) error
}

type credentialRepository struct {
	db Querier
}

// NewCredentialRepository returns a Postgres-backed implementation.
func NewCredentialRepository(db Querier) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	const query = `
        SELECT id, email, password_hash, role, is_active, created_at
        FROM users WHERE email=$1`

	var cred domain.Credential
	if err := r.db.QueryRow(ctx, query, email).Scan(
		&cred.ID,
		&cred.Email,
		&cred.PasswordHash,
		&cred.Role,
		&cred.IsActive,
		&cred.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return &cred, nil
}

// Insert relies on the UNIQUE(email) constraint so concurrent registrations
// of one email cannot both succeed.
func (r *credentialRepository) Insert(ctx context.Context, cred *domain.Credential) error {
	const query = `
        INSERT INTO users (id, email, password_hash, role, is_active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		cred.ID,
		cred.Email,
		cred.PasswordHash,
		cred.Role,
		cred.IsActive,
	).Scan(&cred.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}
