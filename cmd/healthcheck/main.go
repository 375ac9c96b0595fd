// Command healthcheck asks the notes service for its gRPC health status and
// exits non-zero unless it reports SERVING. Used as a container probe.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/evgeniy-krivenko/notes-api/pkg/logger/slogx"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("healthcheck: %v", err)
	}
}

func run() error {
	addr := flag.String("addr", "127.0.0.1:50051", "grpc address of the service")
	service := flag.String("service", "", "service name to check, empty for the whole server")
	timeout := flag.Duration("timeout", 3*time.Second, "check deadline")
	flag.Parse()

	if err := slogx.InitGlobal(os.Stderr, "info", false); err != nil {
		return fmt.Errorf("init logger: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("new client conn: %v", err)
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: *service})
	if err != nil {
		return fmt.Errorf("check: %v", err)
	}

	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("status %s", resp.GetStatus())
	}

	slogx.Info(ctx, "service is healthy", slog.String("addr", *addr))

	return nil
}
