package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddress != ":8545" {
		t.Fatalf("unexpected listen address %q", cfg.ListenAddress)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.RateLimit.Burst != cfg.RateLimit.Burst {
		t.Fatalf("burst mismatch after reload: %d vs %d", reloaded.RateLimit.Burst, cfg.RateLimit.Burst)
	}
}

func TestLoadParsesSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `ListenAddress = "127.0.0.1:9000"
DataDir = "./data"
GenesisFile = "genesis.json"
Environment = "testnet"
LogFile = "gridd.log"
PausedModules = ["VotingEscrow"]

[RateLimit]
RequestsPerSecond = 5.5
Burst = 10

[Telemetry]
Endpoint = "otel:4318"
Traces = true
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddress != "127.0.0.1:9000" || cfg.Environment != "testnet" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.PausedModules) != 1 || cfg.PausedModules[0] != "VotingEscrow" {
		t.Fatalf("unexpected paused modules %v", cfg.PausedModules)
	}
	if cfg.RateLimit.RequestsPerSecond != 5.5 || cfg.RateLimit.Burst != 10 {
		t.Fatalf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if !cfg.Telemetry.Traces || cfg.Telemetry.Endpoint != "otel:4318" {
		t.Fatalf("unexpected telemetry %+v", cfg.Telemetry)
	}
	if got := ResolvePath(path, cfg.GenesisFile); got != filepath.Join(dir, "genesis.json") {
		t.Fatalf("unexpected resolved path %s", got)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "Bogus = 1\n",
		"unknown module": "PausedModules = [\"lending\"]\n",
		"burst":          "[RateLimit]\nRequestsPerSecond = 1.0\nBurst = 0\n",
		"log level":      "LogLevel = \"loud\"\n",
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatalf("expected error for %s", strings.TrimSpace(contents))
			}
		})
	}
}
