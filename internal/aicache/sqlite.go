package aicache

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// SqliteStore persists cache entries in SQLite so responses survive process
// restarts. It shares the connection opened by the event store factory.
type SqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSqliteStore bootstraps the cache table on the given connection.
func NewSqliteStore(db *sql.DB) (*SqliteStore, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS AICache (
        CacheKey TEXT PRIMARY KEY,
        Content TEXT NOT NULL,
        PromptTokens INTEGER NOT NULL,
        CompletionTokens INTEGER NOT NULL,
        TotalTokens INTEGER NOT NULL,
        CostUSD REAL NOT NULL,
        ExpiresAt TIMESTAMP NOT NULL
    );`)
	if err != nil {
		return nil, err
	}
	return &SqliteStore{db: db, now: time.Now}, nil
}

func (s *SqliteStore) Get(ctx context.Context, key string) (*Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT Content, PromptTokens, CompletionTokens, TotalTokens, CostUSD, ExpiresAt
        FROM AICache WHERE CacheKey = ?`, key)

	var (
		e         Entry
		expiresAt time.Time
	)
	err := row.Scan(&e.Content, &e.Usage.PromptTokens, &e.Usage.CompletionTokens, &e.Usage.TotalTokens, &e.CostUSD, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if s.now().After(expiresAt) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM AICache WHERE CacheKey = ?`, key)
		return nil, false, nil
	}
	return &e, true, nil
}

func (s *SqliteStore) Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO AICache (CacheKey, Content, PromptTokens, CompletionTokens, TotalTokens, CostUSD, ExpiresAt)
        VALUES (?,?,?,?,?,?,?)
        ON CONFLICT(CacheKey) DO UPDATE SET
            Content=excluded.Content,
            PromptTokens=excluded.PromptTokens,
            CompletionTokens=excluded.CompletionTokens,
            TotalTokens=excluded.TotalTokens,
            CostUSD=excluded.CostUSD,
            ExpiresAt=excluded.ExpiresAt`,
		key, e.Content, e.Usage.PromptTokens, e.Usage.CompletionTokens, e.Usage.TotalTokens, e.CostUSD, s.now().Add(ttl).UTC())
	return err
}

func (s *SqliteStore) DeletePattern(ctx context.Context, pattern string) error {
	// Glob-style '*' maps onto SQL LIKE '%'.
	like := strings.ReplaceAll(pattern, "%", `\%`)
	like = strings.ReplaceAll(like, "*", "%")
	_, err := s.db.ExecContext(ctx, `DELETE FROM AICache WHERE CacheKey LIKE ? ESCAPE '\'`, like)
	return err
}

var _ Store = (*SqliteStore)(nil)
