// Package pgtest starts a throwaway PostgreSQL for repository tests.
//
// Containers only start when OTPGATE_INTEGRATION is set; otherwise the calling
// test is skipped.
package pgtest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/migrations"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const image = "postgres:17-alpine"

// New returns a pool to a migrated database that is torn down with t.
func New(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("OTPGATE_INTEGRATION") == "" {
		t.Skip("set OTPGATE_INTEGRATION=1 to run against a postgres container")
	}

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, image,
		postgres.WithDatabase("otpgate"),
		postgres.WithUsername("otpgate"),
		postgres.WithPassword("otpgate"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.Up(ctx, pool))
	return pool
}

// SeedAccount inserts a bare account row.
func SeedAccount(t *testing.T, pool *pgxpool.Pool, id int64, email string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO accounts (id, company_name, email, password_hash) VALUES ($1, $2, $3, 'x')`,
		id, "Acme", email)
	require.NoError(t, err)
}

// SeedAPIKey inserts an active key for accountID.
func SeedAPIKey(t *testing.T, pool *pgxpool.Pool, id, accountID int64, keyHash string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO api_keys (id, account_id, key_hash, key_prefix, sender_email, sender_secret)
		 VALUES ($1, $2, $3, left($3, 8), 'noreply@acme.test', '\x00'::bytea)`,
		id, accountID, keyHash)
	require.NoError(t, err)
}
