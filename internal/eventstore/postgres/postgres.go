package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/storyarc/storyarc/internal/eventstore"
	"github.com/storyarc/storyarc/internal/model"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres-backed store over database/sql.
func NewWithDB(db *sql.DB) eventstore.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Events() eventstore.Events           { return &events{db: s.db} }
func (s *pgStore) Biographies() eventstore.Biographies { return &biographies{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Events ---

type events struct{ db *sql.DB }

func (e *events) Fetch(ctx context.Context, userID string) ([]model.TimelineEvent, error) {
	rows, err := e.db.QueryContext(ctx, `
        SELECT event_id, source_type, source_id, ts, content, metadata, category, tags, sentiment
        FROM timeline_events WHERE user_id = $1 ORDER BY seq ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TimelineEvent
	for rows.Next() {
		var (
			ev       model.TimelineEvent
			meta     []byte
			category sql.NullString
			tags     []byte
			sent     []byte
		)
		ev.UserID = userID
		if err := rows.Scan(&ev.ID, &ev.SourceType, &ev.SourceID, &ev.Timestamp, &ev.Content, &meta, &category, &tags, &sent); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &ev.Metadata); err != nil {
				return nil, fmt.Errorf("decode event metadata %s: %w", ev.ID, err)
			}
		}
		if category.Valid && category.String != "" {
			c := model.Category(category.String)
			ev.Category = &c
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &ev.Tags); err != nil {
				return nil, fmt.Errorf("decode event tags %s: %w", ev.ID, err)
			}
		}
		if len(sent) > 0 {
			var sv model.Sentiment
			if err := json.Unmarshal(sent, &sv); err != nil {
				return nil, fmt.Errorf("decode event sentiment %s: %w", ev.ID, err)
			}
			ev.Sentiment = &sv
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (e *events) Insert(ctx context.Context, ev *model.TimelineEvent) error {
	meta, err := json.Marshal(ev.Metadata)
	if err != nil {
		return err
	}
	_, err = e.db.ExecContext(ctx, `
        INSERT INTO timeline_events (event_id, user_id, source_type, source_id, ts, content, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		ev.ID, ev.UserID, ev.SourceType, ev.SourceID, ev.Timestamp.UTC(), ev.Content, meta)
	return err
}

func (e *events) UpdateEnrichment(ctx context.Context, userID, eventID string, category model.Category, tags []string, sentiment *model.Sentiment) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	var sentJSON []byte
	if sentiment != nil {
		sentJSON, err = json.Marshal(sentiment)
		if err != nil {
			return err
		}
	}
	res, err := e.db.ExecContext(ctx, `
        UPDATE timeline_events SET category = $1, tags = $2, sentiment = COALESCE($3, sentiment)
        WHERE user_id = $4 AND event_id = $5`,
		string(category), tagsJSON, sentJSON, userID, eventID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Biographies ---

type biographies struct{ db *sql.DB }

func (b *biographies) Save(ctx context.Context, bio *model.Biography) error {
	chapters, err := json.Marshal(bio.Chapters)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(bio.Metadata)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx, `
        INSERT INTO biographies (biography_id, user_id, title, style, introduction, conclusion, chapters, metadata, generated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		bio.ID, bio.UserID, bio.Title, string(bio.Style), bio.Introduction, bio.Conclusion,
		chapters, meta, bio.Metadata.GeneratedAt.UTC())
	return err
}

func (b *biographies) GetByID(ctx context.Context, userID, biographyID string) (*model.Biography, error) {
	row := b.db.QueryRowContext(ctx, `
        SELECT title, style, introduction, conclusion, chapters, metadata
        FROM biographies WHERE user_id = $1 AND biography_id = $2`, userID, biographyID)

	var (
		bio            model.Biography
		chapters, meta []byte
	)
	bio.ID = biographyID
	bio.UserID = userID
	err := row.Scan(&bio.Title, &bio.Style, &bio.Introduction, &bio.Conclusion, &chapters, &meta)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(chapters, &bio.Chapters); err != nil {
		return nil, fmt.Errorf("decode biography chapters %s: %w", bio.ID, err)
	}
	if err := json.Unmarshal(meta, &bio.Metadata); err != nil {
		return nil, fmt.Errorf("decode biography metadata %s: %w", bio.ID, err)
	}
	return &bio, nil
}

func (b *biographies) List(ctx context.Context, userID string) ([]*model.Biography, error) {
	rows, err := b.db.QueryContext(ctx, `
        SELECT biography_id, title, style, introduction, conclusion, chapters, metadata
        FROM biographies WHERE user_id = $1 ORDER BY generated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Biography
	for rows.Next() {
		var (
			bio            model.Biography
			chapters, meta []byte
		)
		bio.UserID = userID
		if err := rows.Scan(&bio.ID, &bio.Title, &bio.Style, &bio.Introduction, &bio.Conclusion, &chapters, &meta); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(chapters, &bio.Chapters); err != nil {
			return nil, fmt.Errorf("decode biography chapters %s: %w", bio.ID, err)
		}
		if err := json.Unmarshal(meta, &bio.Metadata); err != nil {
			return nil, fmt.Errorf("decode biography metadata %s: %w", bio.ID, err)
		}
		out = append(out, &bio)
	}
	return out, rows.Err()
}
