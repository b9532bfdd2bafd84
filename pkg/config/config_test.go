package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimal = `
environment: test
backend:
  type: clickhouse
clickhouse:
  host: localhost
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("port = %d, want 8080", c.Server.Port)
	}
	if c.Cache.StatisticsTTL != 10*time.Minute {
		t.Fatalf("statistics ttl = %v", c.Cache.StatisticsTTL)
	}
	if c.Suggestion.HistoryLimit != 500 {
		t.Fatalf("history limit = %d", c.Suggestion.HistoryLimit)
	}
	if len(c.Lotteries) != 2 {
		t.Fatalf("lotteries = %v", c.Lotteries)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing env":  "backend:\n  type: clickhouse\nclickhouse:\n  host: x\n",
		"bad backend":  "environment: t\nbackend:\n  type: s3\nclickhouse:\n  host: x\n",
		"kafka topic":  "environment: t\nbackend:\n  type: kafka\nclickhouse:\n  host: x\n",
		"bad lottery":  minimal + "lotteries: [keno]\n",
		"queue w/o rd": minimal + "queue:\n  enabled: true\n",
		"sync w/o url": minimal + "sync:\n  enabled: true\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadWithEnv_Overrides(t *testing.T) {
	t.Setenv("BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("KAFKA_TOPIC", "draws")
	t.Setenv("LOTTERIES", "mega645")
	t.Setenv("SERVER_PORT", "9999")

	c, err := LoadWithEnv(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("LoadWithEnv() error = %v", err)
	}
	if c.Backend.Type != "kafka" || len(c.Kafka.Brokers) != 2 || c.Kafka.Topic != "draws" {
		t.Fatalf("kafka overrides not applied: %+v", c.Kafka)
	}
	if len(c.Lotteries) != 1 || c.Lotteries[0] != "mega645" {
		t.Fatalf("lotteries = %v", c.Lotteries)
	}
	if c.Server.Port != 9999 {
		t.Fatalf("port = %d", c.Server.Port)
	}
}
