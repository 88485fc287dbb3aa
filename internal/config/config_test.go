package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalogd.yaml")

	content := `version: 1
store:
  connection_string: "mongodb://localhost:27017"
  database: catalogd
tenants:
  acme:
    type: mysql
    host: localhost
    port: 3306
    schema: shop
    username: catalog_ro
    password: testpass
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("expected version 1, got %d", cfg.Version)
	}
	if cfg.Store.Database != "catalogd" {
		t.Errorf("expected store database catalogd, got %s", cfg.Store.Database)
	}
	tenant, ok := cfg.Tenants["acme"]
	if !ok {
		t.Fatal("expected tenant acme")
	}
	if tenant.Type != "mysql" {
		t.Errorf("expected tenant type mysql, got %s", tenant.Type)
	}
	if tenant.MaxConnections != 10 {
		t.Errorf("expected default max_connections 10, got %d", tenant.MaxConnections)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
}

func TestLoadInvalidVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalogd.yaml")

	content := `version: 99
store:
  connection_string: "mongodb://localhost:27017"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid version")
	}
}

func TestResolveEnvSecret(t *testing.T) {
	t.Setenv("TEST_SECRET", "mysecret")
	val, err := ResolveValue("${ENV:TEST_SECRET}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "mysecret" {
		t.Errorf("expected mysecret, got %s", val)
	}
}

func TestResolveEnvSecretUnset(t *testing.T) {
	_, err := ResolveValue("${ENV:CATALOGD_TEST_UNSET_VAR}")
	if err == nil {
		t.Fatal("expected error for unset environment variable")
	}
}

func TestResolvePlainValue(t *testing.T) {
	val, err := ResolveValue("plaintext")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "plaintext" {
		t.Errorf("expected plaintext, got %s", val)
	}
}

func TestTenantSecretResolved(t *testing.T) {
	t.Setenv("ACME_DB_PASSWORD", "s3cret")

	dir := t.TempDir()
	path := filepath.Join(dir, "catalogd.yaml")

	content := `version: 1
store:
  connection_string: "mongodb://localhost:27017"
  database: catalogd
tenants:
  acme:
    type: mysql
    host: localhost
    port: 3306
    schema: shop
    username: catalog_ro
    password: "${ENV:ACME_DB_PASSWORD}"
    max_connections: 100
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tenant := cfg.Tenants["acme"]
	if tenant.Password != "s3cret" {
		t.Errorf("expected resolved password, got %s", tenant.Password)
	}
	if tenant.MaxConnections != 50 {
		t.Errorf("expected max_connections capped at 50, got %d", tenant.MaxConnections)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalogd.yaml")

	cfg := &Config{
		Version: 1,
		Store:   StoreConfig{ConnectionString: "mongodb://localhost:27017", Database: "catalogd"},
		Tenants: map[string]TenantConfig{
			"acme": {Type: "postgresql", Host: "db.internal", Port: 5432, Schema: "shop", Username: "ro"},
		},
	}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Tenants["acme"].Host != "db.internal" {
		t.Errorf("expected tenant host db.internal, got %s", loaded.Tenants["acme"].Host)
	}
}
