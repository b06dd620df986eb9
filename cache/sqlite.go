package cache

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db        *sql.DB
	ctx       context.Context
	cancel    context.CancelFunc
	waitGroup sync.WaitGroup
	once      sync.Once
	cfg       config
}

var _ Store = (*sqliteStore)(nil)

// NewSQLite returns a Store backed by a SQLite database. Values are
// msgpack-serialized and stored as BLOBs. If dbPath is empty or ":memory:",
// an in-memory database is used; a file path survives process restarts.
func NewSQLite(parent context.Context, dbPath string, opts ...Option) (Store, error) {
	cfg := applyOptions(opts)
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL mode for concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS responses (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER NOT NULL,
		hits INTEGER NOT NULL DEFAULT 0
	)`); err != nil {
		db.Close()
		return nil, err
	}

	// Index on expires_at for efficient sweeps.
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_responses_expires_at ON responses(expires_at)`); err != nil {
		db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	s := &sqliteStore{
		db:     db,
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
	}

	s.waitGroup.Add(1)
	go s.run()

	return s, nil
}

func (s *sqliteStore) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.cfg.queryTimeout)
}

func (s *sqliteStore) Get(ctx context.Context, key string) (bool, any, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	now := time.Now().UnixNano()
	var data []byte
	var expiresAt int64
	err := s.db.QueryRowContext(qctx,
		`SELECT value, expires_at FROM responses WHERE key = ?`, key,
	).Scan(&data, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}

	if expiresAt < now {
		// Lazily delete the expired entry.
		_, _ = s.db.ExecContext(qctx, `DELETE FROM responses WHERE key = ?`, key)
		return false, nil, nil
	}

	_, _ = s.db.ExecContext(qctx, `UPDATE responses SET hits = hits + 1 WHERE key = ?`, key)

	return true, data, nil
}

func (s *sqliteStore) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.cfg.defaultTTL
	}
	data, err := msgpack.Marshal(val)
	if err != nil {
		return err
	}
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	expiresAt := time.Now().Add(ttl).UnixNano()
	_, err = s.db.ExecContext(qctx,
		`INSERT INTO responses (key, value, expires_at, hits) VALUES (?, ?, ?, 0)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at, hits = 0`,
		key, data, expiresAt,
	)
	return err
}

func (s *sqliteStore) Delete(ctx context.Context, key string) (bool, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	result, err := s.db.ExecContext(qctx, `DELETE FROM responses WHERE key = ?`, key)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *sqliteStore) Hits(ctx context.Context, key string) (bool, int) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	var hits int
	err := s.db.QueryRowContext(qctx, `SELECT hits FROM responses WHERE key = ?`, key).Scan(&hits)
	if err != nil {
		return false, 0
	}
	return true, hits
}

func (s *sqliteStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	var expiresAt int64
	err := s.db.QueryRowContext(qctx, `SELECT expires_at FROM responses WHERE key = ?`, key).Scan(&expiresAt)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	remaining := time.Until(time.Unix(0, expiresAt))
	if remaining <= 0 {
		_, _ = s.db.ExecContext(qctx, `DELETE FROM responses WHERE key = ?`, key)
		return 0, false, nil
	}
	return remaining, true, nil
}

func (s *sqliteStore) Close(_ context.Context) error {
	var dbErr error
	s.once.Do(func() {
		s.cancel()
		s.waitGroup.Wait()
		dbErr = s.db.Close()
	})
	return dbErr
}

func (s *sqliteStore) run() {
	defer s.waitGroup.Done()
	ticker := time.NewTicker(s.cfg.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UnixNano()
			_, _ = s.db.Exec(`DELETE FROM responses WHERE expires_at < ?`, now)
		}
	}
}
