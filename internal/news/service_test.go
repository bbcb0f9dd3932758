package news_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mvasani/headliner/internal/headliner"
	"github.com/mvasani/headliner/internal/migrations"
	"github.com/mvasani/headliner/internal/news"
	hlsqlite "github.com/mvasani/headliner/internal/sqlite"
	"github.com/mvasani/headliner/internal/upstream"
)

func testRepo(t *testing.T) hlsqlite.Repo {
	t.Helper()

	dbx, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })

	require.NoError(t, migrations.Run(dbx))

	return hlsqlite.New(dbx)
}

// fakeProvider serves a canned payload the way the real provider shapes it.
func fakeProvider(t *testing.T, payload string) *upstream.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)

	return upstream.New(srv.URL, "test-key")
}

const threeArticles = `{
  "data": [
    {"title": "AI lab opens", "link": "https://example.com/lab", "snippet": "New lab.", "published_datetime_utc": "2025-08-25T08:00:00.000Z", "source_name": "Wire"},
    {"title": "AI chips ship", "link": "https://example.com/chips", "snippet": "Chips.", "published_datetime_utc": "2025-08-26T08:00:00.000Z", "source_name": "Biz"},
    {"title": "AI act passes", "link": "https://example.com/act", "snippet": "Law.", "published_datetime_utc": "2025-08-24T08:00:00.000Z", "source_name": "Gov"}
  ]
}`

func TestSearchTopic_EndToEnd(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = testRepo(t)
	)

	// One of the three links is already stored, under different fields.
	_, err := repo.InsertArticle(ctx, headliner.Article{
		Title:   "Original act coverage",
		Link:    "https://example.com/act",
		Snippet: "The original snippet.",
		Topic:   "AI",
	})
	require.NoError(t, err)

	svc := news.New(fakeProvider(t, threeArticles), repo)

	res, err := svc.SearchTopic(ctx, "AI")
	require.NoError(t, err)

	assert.Equal(t, "AI", res.Topic)
	assert.Equal(t, 2, res.Saved)
	assert.Len(t, res.Articles, 3)
	assert.Equal(t, 2, res.Summary.Created)
	assert.Equal(t, 1, res.Summary.Skipped)
	assert.Equal(t, 0, res.Summary.Failed)

	// Descending publish order; the duplicate keeps its first-written fields.
	assert.Equal(t, "https://example.com/chips", res.Articles[0].Link)
	assert.Equal(t, "https://example.com/lab", res.Articles[1].Link)

	stored, err := repo.ArticlesByTopic(ctx, "AI", 30)
	require.NoError(t, err)
	for _, a := range stored {
		if a.Link == "https://example.com/act" {
			assert.Equal(t, "Original act coverage", a.Title)
			assert.Equal(t, "The original snippet.", a.Snippet)
		}
	}
}

func TestSearchTopic_SecondRunSavesNothing(t *testing.T) {
	repo := testRepo(t)
	svc := news.New(fakeProvider(t, threeArticles), repo)

	res, err := svc.SearchTopic(context.Background(), "AI")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Saved)

	res, err = svc.SearchTopic(context.Background(), "AI")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Saved)
	assert.Len(t, res.Articles, 3)
}

func TestSearchTopic_DefaultTopic(t *testing.T) {
	var topics []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		topics = append(topics, r.URL.Query().Get("query"))
		w.Write([]byte(`{"data": []}`))
	}))
	t.Cleanup(srv.Close)

	svc := news.New(upstream.New(srv.URL, "test-key"), testRepo(t))

	res, err := svc.SearchTopic(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, news.DefaultTopic, res.Topic)

	res, err = svc.SearchTopic(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, news.DefaultTopic, res.Topic)

	assert.Equal(t, []string{news.DefaultTopic, news.DefaultTopic}, topics)
}

func TestSearchTopic_UpstreamOutageDegrades(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = testRepo(t)
	)

	_, err := repo.InsertArticle(ctx, headliner.Article{
		Link:  "https://example.com/stored",
		Title: "Previously stored",
		Topic: "AI",
	})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	svc := news.New(upstream.New(srv.URL, "test-key"), repo)

	res, err := svc.SearchTopic(ctx, "AI")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Saved)
	require.Len(t, res.Articles, 1)
	assert.Equal(t, "Previously stored", res.Articles[0].Title)
}

func TestSearchTopic_SkipsAndSanitizes(t *testing.T) {
	payload := `{
	  "data": [
	    {"title": "<b>Bold claim</b>", "link": "https://example.com/bold", "snippet": "<script>alert(1)</script>plain text"},
	    {"title": "No link at all", "link": ""}
	  ]
	}`

	repo := testRepo(t)
	svc := news.New(fakeProvider(t, payload), repo)

	res, err := svc.SearchTopic(context.Background(), "claims")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Saved)
	assert.Equal(t, 1, res.Summary.Skipped)
	require.Len(t, res.Summary.Outcomes, 2)
	assert.Equal(t, headliner.IngestSkipped, res.Summary.Outcomes[1].Status)
	assert.Equal(t, "missing link", res.Summary.Outcomes[1].Reason)

	require.Len(t, res.Articles, 1)
	assert.Equal(t, "Bold claim", res.Articles[0].Title)
	assert.NotContains(t, res.Articles[0].Snippet, "<script>")
	assert.Contains(t, res.Articles[0].Snippet, "plain text")
}

func TestSearchTopic_FailedInsertDoesNotAbortBatch(t *testing.T) {
	repo := testRepo(t)
	svc := news.New(fakeProvider(t, threeArticles), &flakyRepo{Repo: repo, failLink: "https://example.com/chips"})

	res, err := svc.SearchTopic(context.Background(), "AI")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Saved)
	assert.Equal(t, 1, res.Summary.Failed)
	assert.Len(t, res.Articles, 2)
}

// flakyRepo fails inserts for one specific link.
type flakyRepo struct {
	hlsqlite.Repo
	failLink string
}

func (f *flakyRepo) InsertArticle(ctx context.Context, a headliner.Article) (bool, error) {
	if a.Link == f.failLink {
		return false, fmt.Errorf("store unavailable")
	}
	return f.Repo.InsertArticle(ctx, a)
}
