package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/evgeniy-krivenko/notes-api/internal/api/health"
	"github.com/evgeniy-krivenko/notes-api/internal/api/notes"
	"github.com/evgeniy-krivenko/notes-api/internal/config"
	"github.com/evgeniy-krivenko/notes-api/internal/ctxtr"
	"github.com/evgeniy-krivenko/notes-api/internal/usecase/images"
	notesuc "github.com/evgeniy-krivenko/notes-api/internal/usecase/notes"
	"github.com/evgeniy-krivenko/notes-api/pkg/grpcx"
	"github.com/evgeniy-krivenko/notes-api/pkg/gwserver"
	"github.com/evgeniy-krivenko/notes-api/pkg/logger/slogx"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("run app: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Parse()
	if err != nil {
		return fmt.Errorf("parse cfg: %v", err)
	}

	if err := slogx.InitGlobal(os.Stdout, cfg.App.LogLevel, cfg.App.Pretty, ctxtr.LogHandler); err != nil {
		return fmt.Errorf("init logger: %v", err)
	}

	logger := slogx.Default()

	repo, closeRepo, err := openGateway(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open gateway: %v", err)
	}
	defer closeRepo()

	contents, uploadsDir, err := openContentStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open content store: %v", err)
	}

	notesUC, err := notesuc.New(notesuc.NewOptions(repo.gateway, contents, repo.ids))
	if err != nil {
		return fmt.Errorf("init notes usecase: %v", err)
	}

	imagesUC, err := images.New(images.NewOptions(
		repo.gateway,
		contents,
		repo.ids,
		images.WithMaxFilesPerNote(cfg.Uploads.MaxFilesPerNote),
		images.WithMaxFileSize(cfg.Uploads.MaxFileSize()),
	))
	if err != nil {
		return fmt.Errorf("init images usecase: %v", err)
	}

	eg, ctx := errgroup.WithContext(ctx)

	handlerOpts := []notes.OptOptionsSetter{
		notes.WithUploadsDir(uploadsDir),
		notes.WithUploadsPrefix(cfg.Uploads.URLPrefix),
		notes.WithTrustedProxies(cfg.HTTP.TrustedProxies),
	}
	if cfg.RateLimit.RPS > 0 {
		limiter := notes.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		handlerOpts = append(handlerOpts, notes.WithUploadLimiter(limiter))
		eg.Go(func() error { return limiter.Run(ctx) })
	}

	handler, err := notes.New(notes.NewOptions(notesUC, imagesUC, handlerOpts...))
	if err != nil {
		return fmt.Errorf("init http handler: %v", err)
	}

	httpSrv, err := gwserver.New(gwserver.NewOptions(
		cfg.HTTP.Addr,
		handler.Engine(),
		gwserver.WithMiddlewares(notes.CORS(cfg.CORS.Origins())),
		gwserver.WithLogger(logger),
	))
	if err != nil {
		return fmt.Errorf("init http server: %v", err)
	}

	healthSvc := health.New()

	grpcSrv, err := grpcx.New(grpcx.NewOptions(
		cfg.GRPC.Addr,
		grpcx.WithServices(healthSvc),
		grpcx.WithLogger(logger),
		grpcx.WithInterceptors(slogx.LoggingInterceptor),
		grpcx.WithMaxConcurrentStreams(cfg.GRPC.MaxConcurrentStreams),
		grpcx.WithTime(cfg.GRPC.KeepaliveTime),
		grpcx.WithTimeout(cfg.GRPC.KeepaliveTimeout),
	))
	if err != nil {
		return fmt.Errorf("init grpc server: %v", err)
	}

	eg.Go(func() error { return httpSrv.Run(ctx) })
	eg.Go(func() error { return grpcSrv.Run(ctx) })
	eg.Go(func() error {
		<-ctx.Done()
		healthSvc.Shutdown()
		return nil
	})

	healthSvc.SetServing()
	logger.Info(ctx, "notes service started")

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("wait app stop: %v", err)
	}

	return nil
}
