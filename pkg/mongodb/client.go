package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type logger interface {
	Warn(context.Context, string, ...slog.Attr)
}

//go:generate go run github.com/kazhuravlev/options-gen/cmd/options-gen@v0.55.3 -out-filename=client_options.gen.go -from-struct=Options
type Options struct {
	uri string `option:"mandatory" validate:"required,uri"`

	retryAttempts uint          `default:"1" validate:"min=1,max=10"`
	timeout       time.Duration `default:"10s" validate:"min=100ms"`

	logger logger
}

// Connect opens a client and waits until the primary answers a ping.
func Connect(ctx context.Context, opts Options) (*mongo.Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validate options for mongo: %v", err)
	}

	if opts.logger == nil {
		opts.logger = noopLogger{}
	}

	client, err := mongo.Connect(
		options.Client().
			ApplyURI(opts.uri).
			SetTimeout(opts.timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %v", err)
	}

	if err := retry.Do(
		func() error { return client.Ping(ctx, readpref.Primary()) },
		retry.Context(ctx),
		retry.Delay(time.Millisecond*300),
		retry.Attempts(opts.retryAttempts),
		retry.OnRetry(func(attempt uint, err error) {
			opts.logger.Warn(
				ctx,
				"failed ping to mongo",
				slog.Any("err", err),
				slog.Uint64("attempt", uint64(attempt)),
			)
		}),
	); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping to mongo: %v", err)
	}

	return client, nil
}

type noopLogger struct{}

func (n noopLogger) Warn(context.Context, string, ...slog.Attr) {}
