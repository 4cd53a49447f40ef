package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Index.Source != "file" {
		t.Errorf("Index.Source = %q, want file", cfg.Index.Source)
	}
	if cfg.Tokenizer.MinTokenLength != 2 || !cfg.Tokenizer.Stemming {
		t.Errorf("tokenizer defaults = %+v", cfg.Tokenizer)
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.MaxResults != 100 {
		t.Errorf("search defaults = %+v", cfg.Search)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9999
index:
  source: postgres
search:
  cacheEnabled: true
kafka:
  brokers:
    - broker1:9092
    - broker2:9092
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Index.Source != "postgres" {
		t.Errorf("Index.Source = %q, want postgres", cfg.Index.Source)
	}
	if !cfg.Search.CacheEnabled {
		t.Error("Search.CacheEnabled not set")
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("Kafka.Brokers = %v", cfg.Kafka.Brokers)
	}
	// Untouched sections keep their defaults.
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Metrics.Port = %d, want 9090", cfg.Metrics.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/no/such/config.yaml"); err == nil {
		t.Error("missing config file must be an error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SE_SERVER_PORT", "7070")
	t.Setenv("SE_INDEX_SOURCE", "mongo")
	t.Setenv("SE_KAFKA_BROKERS", "a:9092,b:9092,c:9092")
	t.Setenv("SE_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Index.Source != "mongo" {
		t.Errorf("Index.Source = %q, want mongo", cfg.Index.Source)
	}
	if len(cfg.Kafka.Brokers) != 3 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Errorf("Kafka.Brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "db", Port: 5433, Database: "idx", User: "u", Password: "p", SSLMode: "disable",
	}
	want := "host=db port=5433 user=u password=p dbname=idx sslmode=disable"
	if got := p.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
