// Package news orchestrates the search flow: upstream fetch, idempotent
// persistence, and ranked read-back.
package news

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/mvasani/headliner/internal/headliner"
	"github.com/mvasani/headliner/internal/upstream"
)

const (
	// DefaultTopic is used when a search request carries no query.
	DefaultTopic = "India"

	// How many stored articles a search responds with at most.
	readBackLimit = 30

	maxFieldLen = 2048
)

// SearchClient is the part of the upstream client the service needs.
type SearchClient interface {
	Search(ctx context.Context, topic string) []upstream.Result
}

type Service struct {
	client SearchClient
	repo   headliner.Repository
}

func New(client SearchClient, repo headliner.Repository) *Service {
	return &Service{
		client: client,
		repo:   repo,
	}
}

// SearchResult is what a completed search flow produces.
type SearchResult struct {
	Topic    string
	Saved    int
	Articles []headliner.Article
	Summary  headliner.BatchSummary
}

// SearchTopic runs the whole flow for one request.
//
// The upstream client absorbs its own failures, so a provider outage
// degrades to "nothing new saved, stored articles returned".
func (s *Service) SearchTopic(ctx context.Context, topic string) (SearchResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = DefaultTopic
	}

	fetched := s.client.Search(ctx, topic)
	summary := s.ingest(ctx, topic, fetched)
	slog.Info("search ingestion finished",
		"topic", topic,
		"fetched", len(fetched),
		"created", summary.Created,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)

	articles, err := s.repo.ArticlesByTopic(ctx, topic, readBackLimit)
	if err != nil {
		return SearchResult{}, fmt.Errorf("error reading back articles: %w", err)
	}
	if articles == nil {
		articles = []headliner.Article{}
	}

	return SearchResult{
		Topic:    topic,
		Saved:    summary.Created,
		Articles: articles,
		Summary:  summary,
	}, nil
}

// ingest persists each fetched article independently. One bad record
// never aborts the rest of the batch.
func (s *Service) ingest(ctx context.Context, topic string, fetched []upstream.Result) headliner.BatchSummary {
	var summary headliner.BatchSummary
	for _, res := range fetched {
		article, skipReason := normalize(topic, res)
		if skipReason != "" {
			summary.Add(headliner.IngestOutcome{
				Link:   res.Link,
				Status: headliner.IngestSkipped,
				Reason: skipReason,
			})
			continue
		}

		created, err := s.repo.InsertArticle(ctx, article)
		if err != nil {
			slog.Error("error saving article", "link", article.Link, "error", err)
			summary.Add(headliner.IngestOutcome{
				Link:   article.Link,
				Status: headliner.IngestFailed,
				Reason: err.Error(),
			})
			continue
		}
		if !created {
			summary.Add(headliner.IngestOutcome{
				Link:   article.Link,
				Status: headliner.IngestSkipped,
				Reason: "duplicate link",
			})
			continue
		}

		summary.Add(headliner.IngestOutcome{
			Link:   article.Link,
			Status: headliner.IngestCreated,
		})
	}

	return summary
}

var stripPolicy = bluemonday.StrictPolicy()

// normalize maps a provider result onto the canonical record. Records
// without a link cannot satisfy the uniqueness key and are skipped.
func normalize(topic string, res upstream.Result) (headliner.Article, string) {
	link := strings.TrimSpace(res.Link)
	if link == "" {
		return headliner.Article{}, "missing link"
	}

	article := headliner.Article{
		Title:      sanitize(res.Title),
		Link:       link,
		Snippet:    sanitize(res.Snippet),
		PhotoURL:   strings.TrimSpace(res.PhotoURL),
		SourceName: sanitize(res.SourceName),
		Topic:      topic,
	}
	if t, err := time.Parse(time.RFC3339, res.PublishedAt); err == nil {
		article.PublishedAt = &t
	}

	return article, ""
}

// Removes all html tags from the string and caps its length.
func sanitize(s string) string {
	s = strings.TrimSpace(stripPolicy.Sanitize(s))
	if len(s) > maxFieldLen {
		s = s[:maxFieldLen]
	}

	return s
}
