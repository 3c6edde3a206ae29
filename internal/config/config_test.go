package config

import (
	"io"
	"log"
	"testing"
	"time"
)

func init() { log.SetOutput(io.Discard) }

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.DBDriver != DriverSQLite {
		t.Fatalf("DBDriver=%q", cfg.DBDriver)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("TokenTTL=%s", cfg.TokenTTL)
	}
	if cfg.HTTPAddr != ":3000" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("LOGIN_BURST", "not-a-number")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173")

	cfg := Load()
	if cfg.DBDriver != DriverPostgres {
		t.Fatalf("DBDriver=%q", cfg.DBDriver)
	}
	if cfg.TokenTTL != 90*time.Minute {
		t.Fatalf("TokenTTL=%s", cfg.TokenTTL)
	}
	if cfg.LoginBurst != 5 {
		t.Fatalf("LoginBurst=%d, want default on bad input", cfg.LoginBurst)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
		t.Fatalf("KafkaBrokers=%v", cfg.KafkaBrokers)
	}
	if len(cfg.CORSOrigins) != 1 {
		t.Fatalf("CORSOrigins=%v", cfg.CORSOrigins)
	}
}
