package eventstore

import (
	"context"

	"github.com/storyarc/storyarc/internal/model"
)

// Store exposes persistence operations required by the pipeline and the API.
// Implementations live under internal/eventstore/<driver>/ (sqlite, postgres).
type Store interface {
	Events() Events
	Biographies() Biographies
}

// Events is the read contract of the event store adapter plus the write
// operations used by ingestion and enrichment.
type Events interface {
	// Fetch returns every normalized event for the user in insertion order.
	// Zero rows is not an error.
	Fetch(ctx context.Context, userID string) ([]model.TimelineEvent, error)
	Insert(ctx context.Context, e *model.TimelineEvent) error
	// UpdateEnrichment attaches category, tags and sentiment to an event.
	UpdateEnrichment(ctx context.Context, userID, eventID string, category model.Category, tags []string, sentiment *model.Sentiment) error
}

// Biographies persists completed generation runs.
type Biographies interface {
	Save(ctx context.Context, b *model.Biography) error
	GetByID(ctx context.Context, userID, biographyID string) (*model.Biography, error)
	List(ctx context.Context, userID string) ([]*model.Biography, error)
}
