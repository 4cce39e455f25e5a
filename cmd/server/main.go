package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/louisbranch/wordclash/internal/app/server"
	platformcmd "github.com/louisbranch/wordclash/internal/platform/cmd"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceServer, func(ctx context.Context) error {
		cfg, err := server.ConfigFromEnv()
		if err != nil {
			return err
		}
		srv, err := server.New(cfg)
		if err != nil {
			return err
		}
		return srv.Run(ctx)
	})
	if err != nil {
		log.Fatalf("server: %v", err)
	}
}
