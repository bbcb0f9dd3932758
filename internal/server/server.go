// Package server is the HTTP surface: routing, middleware, and the
// handlers for search, headlines, and the reader view.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"

	newsv1 "github.com/mvasani/headliner/api/news/v1"
	hlerrs "github.com/mvasani/headliner/internal/errors"
	"github.com/mvasani/headliner/internal/headliner"
	"github.com/mvasani/headliner/internal/headlines"
	"github.com/mvasani/headliner/internal/news"
	"github.com/mvasani/headliner/logger"
)

type (
	// NewsSearcher runs the search-and-cache flow for a topic.
	NewsSearcher interface {
		SearchTopic(ctx context.Context, topic string) (news.SearchResult, error)
	}

	// HeadlinesProvider serves the cached-or-fresh headlines payload.
	HeadlinesProvider interface {
		Headlines(ctx context.Context) (headlines.Result, error)
	}

	// Server handles the public news API.
	Server struct {
		*http.Server

		searcher  NewsSearcher
		headlines HeadlinesProvider
		repo      headliner.Repository

		fetchClient *http.Client
		readerCache *lru.Cache[string, newsv1.ReaderResponse]
	}

	Config struct {
		Port       int
		CORSOrigin string
	}
)

func New(config Config, searcher NewsSearcher, headlinesCache HeadlinesProvider, repo headliner.Repository) *Server {
	var (
		r        = errRouter{Router: mux.NewRouter()}
		cache, _ = lru.New[string, newsv1.ReaderResponse](1024)
	)

	srvr := Server{
		searcher:  searcher,
		headlines: headlinesCache,
		repo:      repo,
		fetchClient: &http.Client{
			Timeout: 2 * time.Second,
		},
		readerCache: cache,
		Server: &http.Server{
			Addr:        fmt.Sprintf(":%d", config.Port),
			ReadTimeout: 5 * time.Second,
			// Search requests may wait on the upstream provider.
			WriteTimeout: 30 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{config.CORSOrigin}),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type"}),
			)(r),
		},
	}

	r.Use(accessLogMiddleware)
	r.HandleFuncE("/search", srvr.handleSearch).Methods(http.MethodGet)
	r.HandleFuncE("/headlines", srvr.handleHeadlines).Methods(http.MethodGet)
	r.HandleFuncE("/articles/{articleID}", srvr.handleGetArticle).Methods(http.MethodGet)
	r.HandleFuncE("/articles/{articleID}/reader", srvr.handleReader).Methods(http.MethodGet)
	r.HandleFuncE("/health", srvr.handleHealth).Methods(http.MethodGet)

	slog.Debug("configured headliner server", "port", config.Port)

	return &srvr
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("error encoding json response: %s", err)
	}

	return nil
}

func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.Ctx(r.Context(), slog.String("request_id", uuid.NewString()))
		slog.InfoContext(ctx, "request received", "method", r.Method, "path", r.URL.Path)
		start := time.Now()

		writer := &respCodeWriter{ResponseWriter: w}
		next.ServeHTTP(writer, r.WithContext(ctx))

		slog.InfoContext(ctx, "request completed",
			"method", r.Method,
			"url", r.URL.String(),
			"duration", time.Since(start),
			"status_code", writer.code,
		)
	})
}

// To trap the response status code for logging later.
type respCodeWriter struct {
	http.ResponseWriter
	code int
}

func (w *respCodeWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// HandlerFuncE is a modified type of [http.HandlerFunc] that returns an error.
type HandlerFuncE func(w http.ResponseWriter, r *http.Request) error

func (f HandlerFuncE) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := f(w, r)
	if err == nil {
		return
	}

	// Either it's already a structured error, or coerce it to one
	sErr := &hlerrs.Error{}
	if !errors.As(err, &sErr) {
		slog.ErrorContext(r.Context(), "unexpected handler error", "error", err)
		sErr = hlerrs.E(http.StatusInternalServerError, "internal server error")
	}

	if err := writeJSON(w, sErr.Status, sErr); err != nil {
		slog.ErrorContext(r.Context(), "error writing response", "error", err)
	}
}

// errRouter is a newtype around a mux router that allows attaching handlers that return errors.
type errRouter struct {
	*mux.Router
}

func (r errRouter) HandleFuncE(path string, f HandlerFuncE) *mux.Route {
	return r.Handle(path, f)
}
