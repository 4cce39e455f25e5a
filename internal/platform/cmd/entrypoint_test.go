package cmd

import (
	"context"
	"flag"
	"testing"
)

type testConfig struct {
	Addr     string `env:"CMD_TEST_ADDR" envDefault:"127.0.0.1:8080"`
	DataDir  string `env:"CMD_TEST_DATA_DIR" envDefault:"data"`
	PackPath string `env:"CMD_TEST_PACK" envDefault:"data/pack.json"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_ADDR", "env:9000")
	t.Setenv("CMD_TEST_DATA_DIR", "/env/data")

	var cfg testConfig
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	if err := ParseArgs(fs, []string{"-addr", "flag:9001"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	if cfg.Addr != "flag:9001" {
		t.Fatalf("addr = %q, want %q", cfg.Addr, "flag:9001")
	}
	if cfg.DataDir != "/env/data" {
		t.Fatalf("data dir = %q, want %q", cfg.DataDir, "/env/data")
	}
	if cfg.PackPath != "data/pack.json" {
		t.Fatalf("pack path = %q, want default", cfg.PackPath)
	}
}

func TestParseConfigFromArgs(t *testing.T) {
	t.Setenv("CMD_TEST_ADDR", "env:9000")

	var cfg testConfig
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", "", "listen address")
	if err := ParseConfigFromArgs(&cfg, fs, []string{"-addr", "flag:9002"}); err != nil {
		t.Fatalf("parse config and args: %v", err)
	}
	if cfg.Addr != "flag:9002" {
		t.Fatalf("addr = %q, want %q", cfg.Addr, "flag:9002")
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, nil); err == nil {
		t.Fatal("ParseArgs(nil) = nil, want error")
	}
}

func TestRunWithTelemetryValidatesInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("empty service name accepted")
	}
	if err := RunWithTelemetry(context.Background(), ServiceServer, nil); err == nil {
		t.Fatal("nil run function accepted")
	}
}

func TestRunWithTelemetryRunsFunction(t *testing.T) {
	ran := false
	err := RunWithTelemetry(context.Background(), ServiceSeed, func(context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !ran {
		t.Fatal("run function never executed")
	}
}
