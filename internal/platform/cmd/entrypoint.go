// Package cmd carries the shared entrypoint plumbing for wordclash binaries:
// configuration loading and the telemetry bracket around a run loop.
package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/louisbranch/wordclash/internal/platform/config"
	"github.com/louisbranch/wordclash/internal/platform/otel"
)

const otelShutdownTimeout = 5 * time.Second

// Service identifiers used for startup telemetry.
const (
	ServiceServer = "server"
	ServiceSeed   = "seed"
)

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// ParseConfigFromArgs loads env defaults first, then lets flags override.
func ParseConfigFromArgs[T any](cfg *T, fs *flag.FlagSet, args []string) error {
	if err := ParseConfig(cfg); err != nil {
		return err
	}
	return ParseArgs(fs, args)
}

// RunWithTelemetry sets up tracing for the named service, executes run, and
// flushes pending spans on the way out.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()

	return run(ctx)
}
