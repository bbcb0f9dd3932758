package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/gorilla/mux"
	"github.com/microcosm-cc/bluemonday"

	newsv1 "github.com/mvasani/headliner/api/news/v1"
	hlerrs "github.com/mvasani/headliner/internal/errors"
	"github.com/mvasani/headliner/internal/headliner"
)

const serviceName = "headliner"

func apiArticle(a headliner.Article) newsv1.Article {
	return newsv1.Article{
		ID:          a.ID,
		Title:       a.Title,
		Link:        a.Link,
		Snippet:     a.Snippet,
		PhotoURL:    a.PhotoURL,
		PublishedAt: a.PublishedAt,
		SourceName:  a.SourceName,
		Topic:       a.Topic,
		CreatedAt:   a.CreatedAt,
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) error {
	res, err := s.searcher.SearchTopic(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		return hlerrs.E("failed to fetch news", http.StatusInternalServerError)
	}

	resp := newsv1.SearchResponse{
		Count:    len(res.Articles),
		Saved:    res.Saved,
		Articles: make([]newsv1.Article, 0, len(res.Articles)),
	}
	for _, a := range res.Articles {
		resp.Articles = append(resp.Articles, apiArticle(a))
	}

	return writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHeadlines(w http.ResponseWriter, r *http.Request) error {
	res, err := s.headlines.Headlines(r.Context())
	if err != nil {
		return writeJSON(w, http.StatusInternalServerError, newsv1.HeadlinesResponse{
			Message: "unable to fetch headlines",
			Error:   err.Error(),
		})
	}

	message := "headlines fetched from api"
	if res.Cached {
		message = "headlines fetched from cache"
	}

	return writeJSON(w, http.StatusOK, newsv1.HeadlinesResponse{
		Message: message,
		Data:    res.Payload,
		Cached:  res.Cached,
		Error:   res.Note,
	})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) error {
	article, err := s.repo.Article(r.Context(), mux.Vars(r)["articleID"])
	if errors.Is(err, headliner.ErrNotFound) {
		return hlerrs.E("article not found", http.StatusNotFound)
	}
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, apiArticle(article))
}

var readerPolicy = bluemonday.UGCPolicy()

func (s *Server) handleReader(w http.ResponseWriter, r *http.Request) error {
	article, err := s.repo.Article(r.Context(), mux.Vars(r)["articleID"])
	if errors.Is(err, headliner.ErrNotFound) {
		return hlerrs.E("article not found", http.StatusNotFound)
	}
	if err != nil {
		return err
	}

	// Cache results for less processing and prevent refetches
	if resp, ok := s.readerCache.Get(article.ID); ok {
		return writeJSON(w, http.StatusOK, resp)
	}

	u, err := url.Parse(article.Link)
	if err != nil {
		return fmt.Errorf("error with the article's link: %s", err)
	}

	// Fetch the actual site
	resp, err := s.fetchClient.Get(article.Link)
	if err != nil {
		return hlerrs.E("could not fetch the article source", http.StatusBadGateway)
	}
	defer resp.Body.Close()

	// Strip it for readability and sanitize
	parser := readability.NewParser()
	parsed, err := parser.Parse(resp.Body, u)
	if err != nil {
		return fmt.Errorf("error extracting readable content: %s", err)
	}

	ret := newsv1.ReaderResponse{
		ID:      article.ID,
		Link:    article.Link,
		Title:   article.Title,
		Content: readerPolicy.Sanitize(parsed.Content),
	}
	// Add to the cache for next time
	s.readerCache.Add(article.ID, ret)

	return writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, newsv1.HealthResponse{
		Status:    "OK",
		Message:   "service is running",
		Timestamp: time.Now().UTC(),
		Service:   serviceName,
	})
}
