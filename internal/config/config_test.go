package config

import (
	"os"
	"testing"
)

func TestConfigLoad_Defaults(t *testing.T) {
	_ = os.Unsetenv("SHIELDX_BUILD_TARGET")
	_ = os.Unsetenv("SHIELDX_DB_DRIVER")
	_ = os.Unsetenv("SHIELDX_PROBE_URL")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.BuildTarget != "local" || cfg.DBDriver != "sqlite" {
		t.Fatalf("unexpected default driver resolution: %+v", cfg)
	}
	if cfg.ProbeURL != "http://www.google.com" || cfg.ProbeTimeoutSeconds != 5 {
		t.Fatalf("unexpected default probe config: %+v", cfg)
	}
	if cfg.ResponseWindowSeconds != 60 || cfg.TimeoutSweepSeconds != 10 || cfg.JourneyScanSeconds != 30 {
		t.Fatalf("unexpected default cadences: %+v", cfg)
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	_ = os.Setenv("SHIELDX_DB_DRIVER", "memory")
	defer func() { _ = os.Unsetenv("SHIELDX_DB_DRIVER") }()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "memory" {
		t.Fatalf("db driver env override failed, got %s", cfg.DBDriver)
	}
}

func TestResolveDefaults_CloudTargetsUsePostgres(t *testing.T) {
	cfg := &Config{BuildTarget: "cloud-dev", DBDriver: "auto"}
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("expected postgres, got %s", cfg.DBDriver)
	}
}

func TestResolveDefaults_RejectsUnknownTargetAndDriver(t *testing.T) {
	cfg := &Config{BuildTarget: "mainframe"}
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error for unknown build target")
	}

	cfg = &Config{BuildTarget: "local", DBDriver: "mongo"}
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error for unknown db driver")
	}
}

func TestResolveDefaults_SQLitePathDerived(t *testing.T) {
	cfg := &Config{BuildTarget: "local", DBDriver: "sqlite"}
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.SQLitePath == "" {
		t.Fatalf("expected derived sqlite path")
	}
}
