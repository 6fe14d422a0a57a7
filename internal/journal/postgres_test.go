package journal

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lokeshwaran100/ic-swipe/pkg/models"
)

// setupTestDB starts a disposable Postgres and applies the embedded
// migrations. Set ICSWIPE_PG_TESTS=1 to run these tests; they need Docker.
func setupTestDB(t *testing.T) *Pool {
	t.Helper()
	if testing.Short() || os.Getenv("ICSWIPE_PG_TESTS") == "" {
		t.Skip("postgres tests disabled; set ICSWIPE_PG_TESTS=1")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("icswipe"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool, nil))
	// Applying twice must be harmless.
	require.NoError(t, Migrate(ctx, pool, nil))
	return pool
}

func TestPostgresStore(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	s := &PostgresStore{pool: pool, now: time.Now}

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, sym := range []string{"DOGE", "SHIB", "PEPE"} {
		e := entry("s1", sym, models.OutcomeFilled)
		e.CreatedAt = at.Add(time.Duration(i) * time.Minute)
		e.BalanceBefore = 1000
		e.BalanceAfter = 500
		if sym == "SHIB" {
			e.SessionID = "s2"
			e.Decision = models.DecisionReject
			e.Outcome = models.OutcomeSkipped
		}
		got, err := s.Record(ctx, e)
		require.NoError(t, err)
		assert.NotEmpty(t, got.ID)
	}

	recent, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "SHIB", recent[0].Symbol)
	assert.Equal(t, "PEPE", recent[1].Symbol)
	assert.Equal(t, models.DecisionReject, recent[0].Decision)

	all, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, models.Amount(500), all[0].BalanceAfter)
	assert.True(t, all[0].CreatedAt.Equal(at))

	s1, err := s.BySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, s1, 2)
	assert.Equal(t, "DOGE", s1[0].Symbol)
	assert.Equal(t, models.OutcomeFilled, s1[1].Outcome)
}
