package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/evgeniy-krivenko/notes-api/internal/config"
	"github.com/evgeniy-krivenko/notes-api/internal/contentstore"
	"github.com/evgeniy-krivenko/notes-api/internal/entity"
	"github.com/evgeniy-krivenko/notes-api/internal/repository"
	"github.com/evgeniy-krivenko/notes-api/internal/repository/memrepo"
	"github.com/evgeniy-krivenko/notes-api/internal/repository/mongorepo"
	"github.com/evgeniy-krivenko/notes-api/pkg/database"
	"github.com/evgeniy-krivenko/notes-api/pkg/logger/slogx"
	"github.com/evgeniy-krivenko/notes-api/pkg/mongodb"
)

type notesGateway interface {
	CreateNote(ctx context.Context, title, content string) (entity.Note, error)
	GetNote(ctx context.Context, id string) (entity.Note, error)
	ListNotes(ctx context.Context) ([]entity.Note, error)
	UpdateNote(ctx context.Context, id string, patch entity.NotePatch) (entity.Note, error)
	DeleteNote(ctx context.Context, id string) (entity.Note, error)
}

type idCodec interface {
	Valid(id string) bool
}

type gateway struct {
	gateway notesGateway
	ids     idCodec
}

type contentStore interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
}

func openGateway(ctx context.Context, cfg config.Config, logger *slogx.Logger) (gateway, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pool, err := database.NewPGX(ctx, database.NewOptions(
			net.JoinHostPort(cfg.Database.Host, cfg.Database.Port),
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Name,
			database.WithRetryAttempts(cfg.Database.RetryAttempts),
			database.WithLogger(logger),
		))
		if err != nil {
			return gateway{}, nil, fmt.Errorf("connect to postgres: %v", err)
		}

		db := database.NewDatabase(pool)
		if err := db.Migrate(ctx, repository.Migrations, repository.MigrationsDir); err != nil {
			db.Close()
			return gateway{}, nil, err
		}

		logger.Info(ctx, "using postgres gateway", slog.String("db", cfg.Database.Name))

		return gateway{gateway: repository.New(db), ids: repository.UUIDCodec{}}, db.Close, nil

	case config.StoreDriverMongo:
		client, err := mongodb.Connect(ctx, mongodb.NewOptions(
			cfg.Mongo.URI,
			mongodb.WithRetryAttempts(cfg.Mongo.RetryAttempts),
			mongodb.WithLogger(logger),
		))
		if err != nil {
			return gateway{}, nil, err
		}

		disconnect := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn(ctx, "disconnect from mongo", slogx.Err(err))
			}
		}

		repo := mongorepo.New(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection))
		if err := repo.EnsureIndexes(ctx); err != nil {
			disconnect()
			return gateway{}, nil, err
		}

		logger.Info(ctx, "using mongo gateway",
			slog.String("db", cfg.Mongo.Database),
			slog.String("collection", cfg.Mongo.Collection),
		)

		return gateway{gateway: repo, ids: mongorepo.ObjectIDCodec{}}, disconnect, nil

	default:
		logger.Warn(ctx, "using in-memory gateway, notes are lost on restart")

		return gateway{gateway: memrepo.New(), ids: repository.UUIDCodec{}}, func() {}, nil
	}
}

// openContentStore also returns the directory to serve under the uploads
// prefix, empty when files are not on local disk.
func openContentStore(ctx context.Context, cfg config.Config) (contentStore, string, error) {
	if cfg.ContentStore == config.ContentStoreS3 {
		store, err := contentstore.NewS3(ctx, contentstore.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			PublicURL:       cfg.S3.PublicURL,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		if err != nil {
			return nil, "", err
		}

		return store, "", nil
	}

	store, err := contentstore.NewFS(cfg.Uploads.Dir, cfg.Uploads.URLPrefix)
	if err != nil {
		return nil, "", err
	}

	return store, store.Dir(), nil
}
