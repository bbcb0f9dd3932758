package sqlite

import (
	"github.com/jmoiron/sqlx"

	"github.com/mvasani/headliner/internal/headliner"
)

// Ensure Repo implements the Repository interface
var _ headliner.Repository = (*Repo)(nil)

type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) Repo {
	return Repo{db: db}
}
