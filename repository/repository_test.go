package repository_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/repository"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, repository.CreateSchema(context.Background(), db))
	return db
}

func mustEmail(t *testing.T, raw string) identity.Email {
	t.Helper()
	email, err := identity.NewEmail(raw)
	require.NoError(t, err)
	return email
}

func mustName(t *testing.T, raw string) identity.Name {
	t.Helper()
	name, err := identity.NewName(raw)
	require.NoError(t, err)
	return name
}

func mustProviderUserID(t *testing.T, raw string) identity.ProviderUserID {
	t.Helper()
	id, err := identity.NewProviderUserID(raw)
	require.NoError(t, err)
	return id
}

func mustUser(t *testing.T, name, email, passwordHash string, accounts ...identity.Account) *identity.User {
	t.Helper()
	user, err := identity.NewUser(
		identity.NewUserID(),
		mustName(t, name),
		mustEmail(t, email),
		identity.PasswordHash(passwordHash),
		accounts,
	)
	require.NoError(t, err)
	return user
}
