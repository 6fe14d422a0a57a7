package journal

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/lokeshwaran100/ic-swipe/internal/infra"
	"github.com/lokeshwaran100/ic-swipe/pkg/models"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Pool wraps pgxpool.Pool.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to Postgres and verifies the connection.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

// Migrate applies the embedded SQL files in name order. Every file is
// idempotent so re-running is safe.
func Migrate(ctx context.Context, pool *Pool, log *logrus.Logger) error {
	entry := infra.Component(log, "journal")
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		sql, err := migrationFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		entry.WithField("migration", name).Debug("migration applied")
	}
	return nil
}

// PostgresStore implements Store on a journal_entries table.
type PostgresStore struct {
	pool *Pool
	now  func() time.Time
}

// NewPostgresStore creates a store over an already migrated pool.
func NewPostgresStore(pool *Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

var _ Store = (*PostgresStore)(nil)

const entryColumns = `id, session_id, candidate_id, symbol, decision, outcome,
	amount, balance_before, balance_after, message, created_at`

const selectColumns = `SELECT ` + entryColumns + ` FROM journal_entries`

// Record inserts an entry.
func (s *PostgresStore) Record(ctx context.Context, e models.JournalEntry) (models.JournalEntry, error) {
	e = stamp(e, s.now)
	query := `
		INSERT INTO journal_entries (
			id, session_id, candidate_id, symbol, decision, outcome,
			amount, balance_before, balance_after, message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.pool.Exec(ctx, query,
		e.ID,
		e.SessionID,
		e.CandidateID,
		e.Symbol,
		string(e.Decision),
		string(e.Outcome),
		int64(e.Amount),
		int64(e.BalanceBefore),
		int64(e.BalanceAfter),
		e.Message,
		e.CreatedAt,
	)
	if err != nil {
		return models.JournalEntry{}, fmt.Errorf("insert journal entry: %w", err)
	}
	return e, nil
}

// Recent returns the last n entries, oldest first.
func (s *PostgresStore) Recent(ctx context.Context, n int) ([]models.JournalEntry, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if n <= 0 {
		rows, err = s.pool.Query(ctx, selectColumns+` ORDER BY seq ASC`)
	} else {
		rows, err = s.pool.Query(ctx, `SELECT `+entryColumns+` FROM (
			SELECT seq, `+entryColumns+` FROM journal_entries ORDER BY seq DESC LIMIT $1
		) recent ORDER BY seq ASC`, n)
	}
	if err != nil {
		return nil, fmt.Errorf("query recent journal entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// BySession returns one session's entries.
func (s *PostgresStore) BySession(ctx context.Context, sessionID string) ([]models.JournalEntry, error) {
	rows, err := s.pool.Query(ctx, selectColumns+` WHERE session_id = $1 ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session journal entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func scanEntries(rows pgx.Rows) ([]models.JournalEntry, error) {
	var out []models.JournalEntry
	for rows.Next() {
		var (
			e                           models.JournalEntry
			decision, outcome           string
			amount, balBefore, balAfter int64
		)
		err := rows.Scan(
			&e.ID, &e.SessionID, &e.CandidateID, &e.Symbol, &decision, &outcome,
			&amount, &balBefore, &balAfter, &e.Message, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		e.Decision = models.Decision(decision)
		e.Outcome = models.TradeOutcome(outcome)
		e.Amount = models.Amount(amount)
		e.BalanceBefore = models.Amount(balBefore)
		e.BalanceAfter = models.Amount(balAfter)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal rows: %w", err)
	}
	return out, nil
}
