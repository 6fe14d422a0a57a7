// Package journal keeps the audit trail of swipe decisions. Every accept
// and reject the engine processes lands here with its outcome and the
// balance before and after.
package journal

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lokeshwaran100/ic-swipe/internal/config"
	"github.com/lokeshwaran100/ic-swipe/pkg/models"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

var (
	ErrUnknownDriver = errors.New("journal: unknown driver")
	ErrMissingDSN    = errors.New("journal: postgres driver needs journal.postgres_dsn")
)

// Store records and queries journal entries.
type Store interface {
	// Record appends e, filling ID and CreatedAt when unset.
	Record(ctx context.Context, e models.JournalEntry) (models.JournalEntry, error)

	// Recent returns the last n entries, oldest first. n <= 0 means all.
	Recent(ctx context.Context, n int) ([]models.JournalEntry, error)

	// BySession returns every entry of one session, oldest first.
	BySession(ctx context.Context, sessionID string) ([]models.JournalEntry, error)

	Close()
}

// Open builds the store named by cfg.Journal.Driver. A configured DSN
// selects postgres even when the driver is left at its default.
func Open(ctx context.Context, cfg *config.Config, log *logrus.Logger) (Store, error) {
	driver := cfg.Journal.Driver
	if driver == "" || (driver == DriverMemory && cfg.Journal.PostgresDSN != "") {
		if cfg.Journal.PostgresDSN != "" {
			driver = DriverPostgres
		} else {
			driver = DriverMemory
		}
	}

	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverPostgres:
		if cfg.Journal.PostgresDSN == "" {
			return nil, ErrMissingDSN
		}
		pool, err := NewPool(ctx, cfg.Journal.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, err
		}
		return NewPostgresStore(pool), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func stamp(e models.JournalEntry, now func() time.Time) models.JournalEntry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	return e
}

// ════════════════════════════════════════════════════════════════════
// Memory Store
// ════════════════════════════════════════════════════════════════════

// MemoryStore keeps the journal in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries []models.JournalEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory journal.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make([]models.JournalEntry, 0, 100),
		now:     time.Now,
	}
}

// Record appends an entry.
func (m *MemoryStore) Record(_ context.Context, e models.JournalEntry) (models.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e = stamp(e, m.now)
	m.entries = append(m.entries, e)
	return e, nil
}

// Recent returns the last n entries.
func (m *MemoryStore) Recent(_ context.Context, n int) ([]models.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || n >= len(m.entries) {
		return slices.Clone(m.entries), nil
	}
	return slices.Clone(m.entries[len(m.entries)-n:]), nil
}

// BySession returns one session's entries.
func (m *MemoryStore) BySession(_ context.Context, sessionID string) ([]models.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.JournalEntry
	for _, e := range m.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() {}
