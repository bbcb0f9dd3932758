// Package headliner holds the domain types shared between the upstream
// client, the persistence layer, and the HTTP surface.
package headliner

import (
	"context"
	"errors"
	"time"
)

var (
	ErrConflict = errors.New("resource already exists")
	ErrNotFound = errors.New("resource not found")
)

type (
	// Article represents one news item as persisted.
	//
	// The link is the natural key: re-ingesting an already stored link is
	// a no-op and never touches existing fields.
	Article struct {
		ID          string     `db:"id"`
		Title       string     `db:"title"`
		Link        string     `db:"link"`
		Snippet     string     `db:"snippet"`
		PhotoURL    string     `db:"photo_url"`
		PublishedAt *time.Time `db:"published_at"`
		SourceName  string     `db:"source_name"`
		Topic       string     `db:"topic"`
		CreatedAt   time.Time  `db:"created_at"`
		UpdatedAt   time.Time  `db:"updated_at"`
	}

	Repository interface {
		Article(ctx context.Context, id string) (Article, error)
		// InsertArticle inserts the article if its link is absent and
		// reports whether a new row was created.
		InsertArticle(ctx context.Context, a Article) (bool, error)
		ArticlesByTopic(ctx context.Context, topic string, limit int) ([]Article, error)
	}
)

// IngestStatus is the outcome of one ingestion attempt.
type IngestStatus string

const (
	IngestCreated IngestStatus = "created"
	IngestSkipped IngestStatus = "skipped"
	IngestFailed  IngestStatus = "failed"
)

type (
	// IngestOutcome records what happened to a single fetched article.
	IngestOutcome struct {
		Link   string
		Status IngestStatus
		Reason string
	}

	// BatchSummary aggregates the outcomes of one ingestion batch.
	BatchSummary struct {
		Created  int
		Skipped  int
		Failed   int
		Outcomes []IngestOutcome
	}
)

// Add folds a single outcome into the summary.
func (s *BatchSummary) Add(o IngestOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Status {
	case IngestCreated:
		s.Created++
	case IngestSkipped:
		s.Skipped++
	case IngestFailed:
		s.Failed++
	}
}
