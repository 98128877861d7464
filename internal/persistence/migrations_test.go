package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingExecer struct {
	statements []string
	failOn     int
}

func (e *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	e.statements = append(e.statements, sql)
	if e.failOn > 0 && len(e.statements) == e.failOn {
		return pgconn.CommandTag{}, errors.New("syntax error")
	}
	return pgconn.CommandTag{}, nil
}

func TestRunMigrationsAppliesInOrder(t *testing.T) {
	db := &recordingExecer{}
	require.NoError(t, RunMigrations(context.Background(), db, zap.NewNop()))

	require.Len(t, db.statements, 2)
	assert.Contains(t, db.statements[0], "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, db.statements[0], "UNIQUE (email)")
	assert.Contains(t, db.statements[1], "CREATE TABLE IF NOT EXISTS payments")
}

func TestRunMigrationsStopsOnError(t *testing.T) {
	db := &recordingExecer{failOn: 1}
	err := RunMigrations(context.Background(), db, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0001_users.sql")
	assert.Len(t, db.statements, 1)
}

func TestRunMigrationsWithoutPool(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, zap.NewNop()))
}
