//go:build integration

package integration

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
)

func mysqlHost(t *testing.T) string {
	t.Helper()
	return envOrDefault("CATALOGD_TEST_MYSQL_HOST", "localhost")
}

func mysqlPort(t *testing.T) int {
	t.Helper()
	p := envOrDefault("CATALOGD_TEST_MYSQL_PORT", "23306")
	var port int
	fmt.Sscanf(p, "%d", &port)
	return port
}

func mysqlSchema(t *testing.T) string {
	t.Helper()
	return envOrDefault("CATALOGD_TEST_MYSQL_SCHEMA", "catalogd_test")
}

func mysqlUser(t *testing.T) string {
	t.Helper()
	return envOrDefault("CATALOGD_TEST_MYSQL_USER", "root")
}

func mysqlPassword(t *testing.T) string {
	t.Helper()
	return envOrDefault("CATALOGD_TEST_MYSQL_PASSWORD", "root")
}

func oracleHost(t *testing.T) string {
	t.Helper()
	return envOrDefault("CATALOGD_TEST_ORACLE_HOST", "localhost")
}

func oraclePort(t *testing.T) int {
	t.Helper()
	p := envOrDefault("CATALOGD_TEST_ORACLE_PORT", "21521")
	var port int
	fmt.Sscanf(p, "%d", &port)
	return port
}

func oracleSchema(t *testing.T) string {
	t.Helper()
	return envOrDefault("CATALOGD_TEST_ORACLE_SCHEMA", "catalogd_test")
}

func oracleUser(t *testing.T) string {
	t.Helper()
	return envOrDefault("CATALOGD_TEST_ORACLE_USER", "system")
}

func oraclePassword(t *testing.T) string {
	t.Helper()
	return envOrDefault("CATALOGD_TEST_ORACLE_PASSWORD", "oracle")
}

func mongoURI(t *testing.T) string {
	t.Helper()
	return envOrDefault("CATALOGD_TEST_MONGO_URI", "mongodb://localhost:37017/?directConnection=true")
}

func mongoDatabase(t *testing.T) string {
	t.Helper()
	return envOrDefault("CATALOGD_TEST_MONGO_DATABASE", "catalogd_test")
}

func skipIfNoMySQL(t *testing.T) {
	t.Helper()
	if os.Getenv("CATALOGD_TEST_MYSQL_HOST") == "" && os.Getenv("CATALOGD_TEST_MYSQL_PORT") == "" {
		t.Skip("skipping: CATALOGD_TEST_MYSQL_HOST/PORT not set")
	}
}

func skipIfNoOracle(t *testing.T) {
	t.Helper()
	if os.Getenv("CATALOGD_TEST_ORACLE_HOST") == "" && os.Getenv("CATALOGD_TEST_ORACLE_PORT") == "" {
		t.Skip("skipping: CATALOGD_TEST_ORACLE_HOST/PORT not set")
	}
}

func skipIfNoMongo(t *testing.T) {
	t.Helper()
	if os.Getenv("CATALOGD_TEST_MONGO_URI") == "" {
		t.Skip("skipping: CATALOGD_TEST_MONGO_URI not set")
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
