package internal

import (
	"strings"
	"testing"

	"github.com/starford/lending/internal/store"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	sc := cfg.Storage.StoreConfig()
	if sc.Driver != store.DriverSQLite || sc.DSN != "./lending.db" {
		t.Errorf("store config = %+v", sc)
	}
	if cfg.Inbox.Enabled() {
		t.Error("inbox should be disabled by default")
	}
}

func TestStorageConfig_Postgres(t *testing.T) {
	cfg := StorageConfig{Driver: store.DriverPostgres}
	if err := cfg.Validate(); err == nil {
		t.Fatal("postgres without dsn should fail")
	}
	cfg.Postgres = PostgresConfig{DSN: "postgres://lending@localhost/lending", MaxConns: 8}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("postgres with dsn: %v", err)
	}
	sc := cfg.StoreConfig()
	if sc.DSN != cfg.Postgres.DSN || sc.MaxOpenConns != 8 {
		t.Errorf("store config = %+v", sc)
	}
	if cfg.Location() != "postgres" {
		t.Errorf("location leaks dsn: %q", cfg.Location())
	}
}

func TestStorageConfig_UnknownDriver(t *testing.T) {
	cfg := StorageConfig{Driver: "mysql", SQLite: SQLiteConfig{Path: "x.db"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown driver should fail")
	}
}

func TestStorageConfig_EmptyDriverDefaultsSQLite(t *testing.T) {
	cfg := StorageConfig{SQLite: SQLiteConfig{Path: "x.db"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty driver: %v", err)
	}
	if cfg.Driver != store.DriverSQLite {
		t.Errorf("driver = %q", cfg.Driver)
	}
}

func TestFullConfig_NegativeOverdueDays(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Circulation.OverdueDays = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative overdue days should fail")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
