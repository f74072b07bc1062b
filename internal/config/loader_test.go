package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.File != "" {
		t.Fatalf("expected no config file, got %q", cfg.File)
	}
	want := DefaultConfig()
	if !reflect.DeepEqual(cfg.Data, want.Data) || !reflect.DeepEqual(cfg.Server, want.Server) {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.Database.Enabled {
		t.Fatalf("expected database to be disabled by default")
	}
}

func TestLoadReadsYAMLAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := `server:
  addr: ":9090"
  allowed_origins:
    - https://feria.example
  read_timeout: 5s
data:
  master_path: /srv/feria/registro.xlsx
  ledger_path: /srv/feria/verificacion.xlsx
log:
  level: debug
  format: text
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FAIR_DATA_LEDGER_PATH", "/tmp/verificacion.csv")
	t.Setenv("FAIR_DATABASE_ENABLED", "true")
	t.Setenv("FAIR_DATABASE_PORT", "6543")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.File == "" {
		t.Fatalf("expected the config file to be reported")
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if !reflect.DeepEqual(cfg.Server.AllowedOrigins, []string{"https://feria.example"}) {
		t.Fatalf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.WriteTimeout != DefaultConfig().Server.WriteTimeout {
		t.Fatalf("expected unset keys to keep defaults, got %s", cfg.Server.WriteTimeout)
	}
	if cfg.Data.MasterPath != "/srv/feria/registro.xlsx" || cfg.Data.LedgerPath != "/tmp/verificacion.csv" {
		t.Fatalf("unexpected data config %+v", cfg.Data)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
	if !cfg.Database.Enabled || cfg.Database.Port != 6543 {
		t.Fatalf("unexpected database config %+v", cfg.Database)
	}
}

func TestLoadSplitsOriginsFromEnv(t *testing.T) {
	t.Setenv("FAIR_SERVER_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.Server.AllowedOrigins, want) {
		t.Fatalf("expected %v, got %v", want, cfg.Server.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Data.LedgerPath = "./" + cfg.Data.MasterPath
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when both datasets share a file")
	}

	cfg = DefaultConfig()
	cfg.Data.MasterPath = " "
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for an empty master path")
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
