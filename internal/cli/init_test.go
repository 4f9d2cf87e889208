package cli

import (
	"context"
	"testing"

	"github.com/anisur046/accounting/internal/config"
	"github.com/anisur046/accounting/internal/log"
)

func TestLoadConfigRejectsInvalidEnv(t *testing.T) {
	t.Setenv("DATA_BACKEND", "spreadsheet")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "8088")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8088" || cfg.DataBackend != "memory" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestSetupLogger(t *testing.T) {
	cfg := config.Defaults()
	cfg.LogLevel = "debug"
	logger := SetupLogger(cfg, log.ComponentCLI)
	if logger.Component() != log.ComponentCLI {
		t.Fatalf("component = %q", logger.Component())
	}
	if !logger.Enabled(context.Background(), log.ParseLevel("debug")) {
		t.Fatal("debug level not enabled")
	}
}

func TestOpenStoreMemory(t *testing.T) {
	cfg := config.Defaults()
	res, err := OpenStore(context.Background(), cfg, log.Discard())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer res.Cleanup()
	if err := res.Store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestSignalContextCancel(t *testing.T) {
	ctx, cancel := SignalContext(log.Discard())
	cancel()
	<-ctx.Done()
}
