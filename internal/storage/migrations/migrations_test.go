package migrations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/storage/postgres"
)

func TestLoad(t *testing.T) {
	pg, err := Load(DialectPostgres)
	require.NoError(t, err)
	require.Len(t, pg, 2)
	assert.Equal(t, 1, pg[0].Version)
	assert.Equal(t, "001_trade_caches.sql", pg[0].Name)
	assert.Equal(t, 2, pg[1].Version)
	assert.Contains(t, pg[1].SQL, "simulation_results")

	ch, err := Load(DialectClickhouse)
	require.NoError(t, err)
	require.Len(t, ch, 1)
	assert.Equal(t, "001_copy_fills.sql", ch[0].Name)

	stmts, err := splitStatements(ch[0].SQL)
	require.NoError(t, err)
	assert.Len(t, stmts, 1)
}

func TestLoad_UnknownDialect(t *testing.T) {
	_, err := Load("sqlite")
	assert.Error(t, err)
}

func TestSplitStatements(t *testing.T) {
	input := `
-- leading comment
CREATE TABLE a (x String) ENGINE = MergeTree() ORDER BY x;

-- second
CREATE TABLE b (
    y UInt32 DEFAULT 1 -- trailing comment
) ENGINE = MergeTree()
ORDER BY y;
`
	stmts, err := splitStatements(input)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x String) ENGINE = MergeTree() ORDER BY x", stmts[0])
	assert.Contains(t, stmts[1], "CREATE TABLE b (")
	assert.NotContains(t, stmts[1], "--")
	assert.NotContains(t, stmts[1], "trailing")
}

func TestSplitStatements_Literals(t *testing.T) {
	stmts, err := splitStatements(`SELECT 'a;b', 'it''s -- fine' FROM t; SELECT 1`)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, `SELECT 'a;b', 'it''s -- fine' FROM t`, stmts[0])
	assert.Equal(t, "SELECT 1", stmts[1])

	_, err = splitStatements(`SELECT 'open`)
	assert.ErrorIs(t, err, errUnterminatedString)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default@localhost:9000/copysim")
	require.NoError(t, err)
	assert.Equal(t, "copysim", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)

	_, err = databaseFromDSN("clickhouse://localhost:9000/copy;DROP")
	assert.Error(t, err)
}

func TestRunPostgresMigrations_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	defer container.Terminate(ctx)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	applied, err := RunPostgresMigrations(ctx, pool)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	applied, err = RunPostgresMigrations(ctx, pool)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 2, count)
}
