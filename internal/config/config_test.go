package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_EADefaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.EABaseURL != "https://proclubs.ea.com/api/nhl" {
		t.Fatalf("unexpected EABaseURL: %q", cfg.EABaseURL)
	}
	if cfg.EAPlatform != "common-gen5" {
		t.Fatalf("unexpected EAPlatform: %q", cfg.EAPlatform)
	}
	if cfg.EAMatchType != "club_private" {
		t.Fatalf("unexpected EAMatchType: %q", cfg.EAMatchType)
	}
	if cfg.EATimeout != 15*time.Second {
		t.Fatalf("unexpected EATimeout: %s", cfg.EATimeout)
	}
	if cfg.EAMaxRetries != 3 {
		t.Fatalf("unexpected EAMaxRetries: %d", cfg.EAMaxRetries)
	}
	if cfg.SchedulerShutdownGrace != 30*time.Second {
		t.Fatalf("unexpected SchedulerShutdownGrace: %s", cfg.SchedulerShutdownGrace)
	}
}

func TestLoad_EATimeoutValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("EA_TIMEOUT", "0s")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for EA_TIMEOUT=0s")
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_LogLevelParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("APP_LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel.String() != "warn" {
		t.Fatalf("unexpected LogLevel: %s", cfg.LogLevel.String())
	}
}
