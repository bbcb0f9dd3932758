// Package news holds the wire types for the public news API.
package news

import (
	"encoding/json"
	"time"
)

// Article is the response shape for one stored article.
type Article struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Snippet     string     `json:"snippet"`
	PhotoURL    string     `json:"photo_url"`
	PublishedAt *time.Time `json:"published_at"`
	SourceName  string     `json:"source_name"`
	Topic       string     `json:"topic"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SearchResponse answers GET /search.
type SearchResponse struct {
	Count    int       `json:"count"`
	Saved    int       `json:"saved"`
	Articles []Article `json:"articles"`
}

// HeadlinesResponse answers GET /headlines, on both the success and the
// terminal-failure path.
type HeadlinesResponse struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Cached  bool            `json:"cached"`
	Error   string          `json:"error,omitempty"`
}

// ReaderResponse answers GET /articles/{id}/reader with the extracted
// readable content of the article's source page.
type ReaderResponse struct {
	ID      string `json:"id"`
	Link    string `json:"link"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// HealthResponse answers GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
}
