package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mvasani/headliner/internal/headliner"
)

const articleNamespace = "-art"

func (r Repo) Article(ctx context.Context, id string) (headliner.Article, error) {
	const q = `SELECT * FROM articles WHERE id = ?;`

	var article headliner.Article
	err := r.db.GetContext(ctx, &article, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return headliner.Article{}, headliner.ErrNotFound
	}
	if err != nil {
		return headliner.Article{}, fmt.Errorf("error fetching article: %s", err)
	}

	return article, nil
}

// InsertArticle stores the article unless its link already exists.
//
// An existing row is left untouched: first write wins. The returned bool
// reports whether a new row was actually created.
func (r Repo) InsertArticle(ctx context.Context, a headliner.Article) (bool, error) {
	const q = `INSERT INTO articles (id, title, link, snippet, photo_url, published_at, source_name, topic)
	VALUES (:id, :title, :link, :snippet, :photo_url, :published_at, :source_name, :topic)
	ON CONFLICT(link) DO NOTHING;`

	a.ID = fmt.Sprintf("%s%s", uuid.NewString(), articleNamespace)
	res, err := r.db.NamedExecContext(ctx, q, a)
	if err != nil {
		return false, fmt.Errorf("error inserting article: %s", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading rows affected: %s", err)
	}

	return n > 0, nil
}

// ArticlesByTopic returns up to limit articles for the topic, most
// recently published first.
func (r Repo) ArticlesByTopic(ctx context.Context, topic string, limit int) ([]headliner.Article, error) {
	query, args, err := sq.Select("*").
		From("articles").
		Where(sq.Eq{"topic": topic}).
		OrderBy("published_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %s", err)
	}

	var articles []headliner.Article
	if err := r.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, fmt.Errorf("error fetching articles: %s", err)
	}

	return articles, nil
}
