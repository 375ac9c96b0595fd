package grpcx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

type logger interface {
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)
}

type Service interface {
	RegisterService(grpc.ServiceRegistrar)
}

//go:generate go run github.com/kazhuravlev/options-gen/cmd/options-gen@v0.55.3 -out-filename=server_options.gen.go -from-struct=Options -all-variadic true
type Options struct {
	addr     string    `option:"mandatory" validate:"required,hostname_port"`
	services []Service `validate:"required,min=1"`

	logger logger

	interceptors []grpc.UnaryServerInterceptor
	grpcOptions  []grpc.ServerOption

	reflection bool `default:"true"`

	maxConcurrentStreams uint32        `default:"50"`
	maxConnIdle          time.Duration `default:"5m"`
	time                 time.Duration `default:"2h"`
	timeout              time.Duration `default:"20s"`
}

type Server struct {
	opts   Options
	srv    *grpc.Server
	logger logger
}

func New(opts Options) (*Server, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("grpc server validate: %v", err)
	}

	if opts.logger == nil {
		opts.logger = &noopLogger{}
	}

	s := &Server{opts: opts, logger: opts.logger}

	// Recovery goes first so panics in later interceptors are caught too.
	interceptors := append([]grpc.UnaryServerInterceptor{
		recovery.UnaryServerInterceptor(recovery.WithRecoveryHandlerContext(s.recoverPanic)),
	}, opts.interceptors...)

	grpcOptions := append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(interceptors...),
		grpc.MaxConcurrentStreams(opts.maxConcurrentStreams),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: opts.maxConnIdle,
			Time:              opts.time,
			Timeout:           opts.timeout,
		}),
	}, opts.grpcOptions...)

	s.srv = grpc.NewServer(grpcOptions...)

	for _, svc := range opts.services {
		svc.RegisterService(s.srv)
	}

	if opts.reflection {
		reflection.Register(s.srv)
	}

	return s, nil
}

func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.addr)
	if err != nil {
		return fmt.Errorf("run grpc: %v", err)
	}

	return s.Serve(ctx, listener)
}

// Serve accepts connections on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	go func() {
		<-ctx.Done()
		s.srv.GracefulStop()
	}()

	s.logger.Info(
		ctx,
		"run grpc server",
		slog.String("addr", l.Addr().String()),
	)

	if err := s.srv.Serve(l); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("listen and server: %v", err)
	}

	return nil
}

func (s *Server) recoverPanic(ctx context.Context, p any) error {
	s.logger.Error(ctx, "grpc handler panic", slog.Any("panic", p))
	return status.Error(codes.Internal, "internal error")
}

type noopLogger struct{}

func (n *noopLogger) Info(context.Context, string, ...slog.Attr) {}

func (n *noopLogger) Error(context.Context, string, ...slog.Attr) {}
