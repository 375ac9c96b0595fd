package repository

import (
	"context"
	"embed"

	"github.com/google/uuid"

	"github.com/evgeniy-krivenko/notes-api/pkg/database"
)

//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"

type db interface {
	database.Tx
	RunInTx(ctx context.Context, f func(context.Context) error) error
}

type Repo struct {
	db db
}

func New(db db) *Repo {
	return &Repo{db: db}
}

// UUIDCodec recognizes the note identifiers issued by Repo.
type UUIDCodec struct{}

func (UUIDCodec) Valid(id string) bool {
	return uuid.Validate(id) == nil
}
