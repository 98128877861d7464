package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/commerce-auth/internal/domain"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: want %d destinations, got %d", len(r.values), len(dest))
	}
	for i, d := range dest {
		switch ptr := d.(type) {
		case *string:
			*ptr = r.values[i].(string)
		case *bool:
			*ptr = r.values[i].(bool)
		case *time.Time:
			*ptr = r.values[i].(time.Time)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type fakeQuerier struct {
	row   fakeRow
	query string
	args  []any
}

func (q *fakeQuerier) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	q.query = query
	q.args = args
	return q.row
}

func TestFindByEmail(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	q := &fakeQuerier{row: fakeRow{values: []any{"id-1", "a@x.com", "$2a$hash", "user", true, created}}}
	repo := NewCredentialRepository(q)

	cred, err := repo.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, &domain.Credential{
		ID:           "id-1",
		Email:        "a@x.com",
		PasswordHash: "$2a$hash",
		Role:         "user",
		IsActive:     true,
		CreatedAt:    created,
	}, cred)
	assert.Contains(t, q.query, "FROM users WHERE email=$1")
	assert.Equal(t, []any{"a@x.com"}, q.args)
}

func TestFindByEmailNotFound(t *testing.T) {
	repo := NewCredentialRepository(&fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}})

	_, err := repo.FindByEmail(context.Background(), "missing@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByEmailPropagatesErrors(t *testing.T) {
	cause := errors.New("connection refused")
	repo := NewCredentialRepository(&fakeQuerier{row: fakeRow{err: cause}})

	_, err := repo.FindByEmail(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestInsert(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	q := &fakeQuerier{row: fakeRow{values: []any{created}}}
	repo := NewCredentialRepository(q)

	cred := &domain.Credential{ID: "id-1", Email: "a@x.com", PasswordHash: "h", Role: "user", IsActive: true}
	require.NoError(t, repo.Insert(context.Background(), cred))
	assert.Equal(t, created, cred.CreatedAt)
	assert.Equal(t, []any{"id-1", "a@x.com", "h", "user", true}, q.args)
}

func TestInsertMapsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	repo := NewCredentialRepository(&fakeQuerier{row: fakeRow{err: fmt.Errorf("exec: %w", pgErr)}})

	err := repo.Insert(context.Background(), &domain.Credential{Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestInsertPropagatesOtherErrors(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23502"}
	repo := NewCredentialRepository(&fakeQuerier{row: fakeRow{err: pgErr}})

	err := repo.Insert(context.Background(), &domain.Credential{Email: "a@x.com"})
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Error(t, err)
}
