package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/storyarc/storyarc/internal/eventstore"
	"github.com/storyarc/storyarc/internal/model"
)

// New opens (or creates) a SQLite database file and bootstraps the schema.
func New(path string) (eventstore.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB allows wiring with an existing connection (used by the factory
// and by tests sharing an in-memory database).
func NewWithDB(db *sql.DB) (eventstore.Store, error) {
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema bootstrap: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Events() eventstore.Events           { return &events{db: s.db} }
func (s *sqliteStore) Biographies() eventstore.Biographies { return &biographies{db: s.db} }

// DB exposes the underlying connection (local-only use case).
func (s *sqliteStore) DB() *sql.DB { return s.db }

// HealthPing verifies database connectivity.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Events ---

type events struct{ db *sql.DB }

func (e *events) Fetch(ctx context.Context, userID string) ([]model.TimelineEvent, error) {
	// Seq order preserves insertion order for equal timestamps; the timeline
	// constructor relies on that for stable sorting.
	rows, err := e.db.QueryContext(ctx, `
        SELECT EventId, SourceType, SourceId, Timestamp, Content, Metadata, Category, Tags, Sentiment
        FROM TimelineEvents WHERE UserId = ? ORDER BY Seq ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TimelineEvent
	for rows.Next() {
		var (
			ev                       model.TimelineEvent
			metaRaw, tagsRaw, sentRaw sql.NullString
			category                 sql.NullString
		)
		ev.UserID = userID
		if err := rows.Scan(&ev.ID, &ev.SourceType, &ev.SourceID, &ev.Timestamp, &ev.Content, &metaRaw, &category, &tagsRaw, &sentRaw); err != nil {
			return nil, err
		}
		if metaRaw.Valid && metaRaw.String != "" {
			if err := json.Unmarshal([]byte(metaRaw.String), &ev.Metadata); err != nil {
				return nil, fmt.Errorf("decode event metadata %s: %w", ev.ID, err)
			}
		}
		if category.Valid && category.String != "" {
			c := model.Category(category.String)
			ev.Category = &c
		}
		if tagsRaw.Valid && tagsRaw.String != "" {
			if err := json.Unmarshal([]byte(tagsRaw.String), &ev.Tags); err != nil {
				return nil, fmt.Errorf("decode event tags %s: %w", ev.ID, err)
			}
		}
		if sentRaw.Valid && sentRaw.String != "" {
			var sent model.Sentiment
			if err := json.Unmarshal([]byte(sentRaw.String), &sent); err != nil {
				return nil, fmt.Errorf("decode event sentiment %s: %w", ev.ID, err)
			}
			ev.Sentiment = &sent
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
        INSERT INTO TimelineEvents (EventId, UserId, SourceType, SourceId, Timestamp, Content, Metadata)
        VALUES (?,?,?,?,?,?,?)`,
		ev.ID, ev.UserID, ev.SourceType, ev.SourceID, ev.Timestamp.UTC(), ev.Content, string(meta))
	return err
}

func (e *events) UpdateEnrichment(ctx context.Context, userID, eventID string, category model.Category, tags []string, sentiment *model.Sentiment) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	var sentJSON *string
	if sentiment != nil {
		b, err := json.Marshal(sentiment)
		if err != nil {
			return err
		}
		s := string(b)
		sentJSON = &s
	}
	res, err := e.db.ExecContext(ctx, `
        UPDATE TimelineEvents SET Category = ?, Tags = ?, Sentiment = COALESCE(?, Sentiment)
        WHERE UserId = ? AND EventId = ?`,
		string(category), string(tagsJSON), sentJSON, userID, eventID)
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
        INSERT INTO Biographies (BiographyId, UserId, Title, Style, Introduction, Conclusion, Chapters, Metadata, GeneratedAt)
        VALUES (?,?,?,?,?,?,?,?,?)`,
		bio.ID, bio.UserID, bio.Title, string(bio.Style), bio.Introduction, bio.Conclusion,
		string(chapters), string(meta), bio.Metadata.GeneratedAt.UTC())
	return err
}

func (b *biographies) GetByID(ctx context.Context, userID, biographyID string) (*model.Biography, error) {
	row := b.db.QueryRowContext(ctx, `
        SELECT Title, Style, Introduction, Conclusion, Chapters, Metadata
        FROM Biographies WHERE UserId = ? AND BiographyId = ?`, userID, biographyID)
	return scanBiography(row, userID, biographyID)
}

func (b *biographies) List(ctx context.Context, userID string) ([]*model.Biography, error) {
	rows, err := b.db.QueryContext(ctx, `
        SELECT BiographyId, Title, Style, Introduction, Conclusion, Chapters, Metadata
        FROM Biographies WHERE UserId = ? ORDER BY GeneratedAt DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Biography
	for rows.Next() {
		var (
			bio            model.Biography
			chapters, meta string
		)
		bio.UserID = userID
		if err := rows.Scan(&bio.ID, &bio.Title, &bio.Style, &bio.Introduction, &bio.Conclusion, &chapters, &meta); err != nil {
			return nil, err
		}
		if err := decodeBiographyJSON(&bio, chapters, meta); err != nil {
			return nil, err
		}
		out = append(out, &bio)
	}
	return out, rows.Err()
}

func scanBiography(row *sql.Row, userID, biographyID string) (*model.Biography, error) {
	var (
		bio            model.Biography
		chapters, meta string
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
	if err := decodeBiographyJSON(&bio, chapters, meta); err != nil {
		return nil, err
	}
	return &bio, nil
}

func decodeBiographyJSON(bio *model.Biography, chapters, meta string) error {
	if err := json.Unmarshal([]byte(chapters), &bio.Chapters); err != nil {
		return fmt.Errorf("decode biography chapters %s: %w", bio.ID, err)
	}
	if err := json.Unmarshal([]byte(meta), &bio.Metadata); err != nil {
		return fmt.Errorf("decode biography metadata %s: %w", bio.ID, err)
	}
	return nil
}
