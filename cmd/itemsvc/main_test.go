package main

import (
	"testing"

	"github.com/alfagnish/itemsvc/internal/config"
)

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("APP_ENV", "")
	t.Setenv("FLASK_ENV", "")

	v := config.New()
	cmd := newRootCmd(v)
	if err := cmd.Flags().Set("port", "8123"); err != nil {
		t.Fatalf("set port: %v", err)
	}
	if err := cmd.Flags().Set("env", "development"); err != nil {
		t.Fatalf("set env: %v", err)
	}

	cfg := config.Load(v)
	if cfg.Port != 8123 {
		t.Fatalf("port: got %d", cfg.Port)
	}
	if !cfg.Debug() {
		t.Fatalf("expected development mode")
	}
}

func TestEnvUsedWithoutFlags(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("GRPC_PORT", "0")

	v := config.New()
	newRootCmd(v)

	cfg := config.Load(v)
	if cfg.Port != 8081 {
		t.Fatalf("port: got %d", cfg.Port)
	}
	if cfg.GRPCAddr() != "" {
		t.Fatalf("grpc should be disabled")
	}
}
