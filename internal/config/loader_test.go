package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/doris-sinker/kafka-poller/pkg/errors"
	"github.com/doris-sinker/kafka-poller/pkg/logger"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// quietLoader 不输出日志，也不读取环境变量
func quietLoader() *Loader {
	return NewLoader(logger.Nop()).WithEnvPrefix("")
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, "config.json",
		`{"topics":["t1"],"broker_servers":[{"host":"h","port":9092}],"group_id":"g1"}`)

	cfg, err := quietLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Topics, []string{"t1"}) {
		t.Errorf("Topics = %v", cfg.Topics)
	}
	if !reflect.DeepEqual(cfg.Brokers, []string{"h:9092"}) {
		t.Errorf("Brokers = %v", cfg.Brokers)
	}
	if cfg.GroupID != "g1" {
		t.Errorf("GroupID = %q", cfg.GroupID)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	tests := []struct {
		name    string
		content string
		topics  []string
		brokers []string
		groupID string
	}{
		{
			name:    "empty object",
			content: `{}`,
			topics:  []string{DefaultTopic},
			brokers: []string{DefaultBroker},
			groupID: DefaultGroupID,
		},
		{
			name:    "empty arrays",
			content: `{"topics":[],"broker_servers":[],"group_id":"g"}`,
			topics:  []string{DefaultTopic},
			brokers: []string{DefaultBroker},
			groupID: "g",
		},
		{
			name:    "nulls",
			content: `{"topics":null,"broker_servers":null,"group_id":null}`,
			topics:  []string{DefaultTopic},
			brokers: []string{DefaultBroker},
			groupID: DefaultGroupID,
		},
		{
			name:    "blank group id",
			content: `{"topics":["a","b"],"group_id":"   "}`,
			topics:  []string{"a", "b"},
			brokers: []string{DefaultBroker},
			groupID: DefaultGroupID,
		},
		{
			name:    "missing topics only",
			content: `{"broker_servers":[{"host":"k1","port":"19092"},{"host":"k2","port":29092}],"group_id":"orders"}`,
			topics:  []string{DefaultTopic},
			brokers: []string{"k1:19092", "k2:29092"},
			groupID: "orders",
		},
		{
			name:    "port normalized",
			content: `{"broker_servers":[{"host":" k1 ","port":"09092"},{"host":"::1","port":9092}]}`,
			topics:  []string{DefaultTopic},
			brokers: []string{"k1:9092", "[::1]:9092"},
			groupID: DefaultGroupID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := quietLoader().Load(writeConfig(t, "config.json", tt.content))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !reflect.DeepEqual(cfg.Topics, tt.topics) {
				t.Errorf("Topics = %v, want %v", cfg.Topics, tt.topics)
			}
			if !reflect.DeepEqual(cfg.Brokers, tt.brokers) {
				t.Errorf("Brokers = %v, want %v", cfg.Brokers, tt.brokers)
			}
			if cfg.GroupID != tt.groupID {
				t.Errorf("GroupID = %q, want %q", cfg.GroupID, tt.groupID)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := quietLoader().Load(filepath.Join(t.TempDir(), "absent.json"))
	if cfg != nil {
		t.Fatalf("expected no config, got %v", cfg)
	}
	if !errors.Is(err, errors.ErrCodeConfigNotFound) {
		t.Fatalf("expected ErrCodeConfigNotFound, got %v", err)
	}
}

func TestLoadParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{"topics": [`},
		{"top-level array", `["t1"]`},
		{"json null", `null`},
		{"topics not strings", `{"topics":[1,2]}`},
		{"topics object", `{"topics":{"name":"t1"}}`},
		{"blank topic", `{"topics":["t1"," "]}`},
		{"broker missing host", `{"broker_servers":[{"port":9092}]}`},
		{"broker missing port", `{"broker_servers":[{"host":"h"}]}`},
		{"broker bad port", `{"broker_servers":[{"host":"h","port":"http"}]}`},
		{"broker port out of range", `{"broker_servers":[{"host":"h","port":70000}]}`},
		{"broker not object", `{"broker_servers":["h:9092"]}`},
		{"broker signed port", `{"broker_servers":[{"host":"h","port":"+9092"}]}`},
		{"broker negative port", `{"broker_servers":[{"host":"h","port":-1}]}`},
		{"broker fractional port", `{"broker_servers":[{"host":"h","port":9092.5}]}`},
		{"brokers as string", `{"broker_servers":"not a broker list"}`},
		{"brokers as host string", `{"broker_servers":"h"}`},
		{"topics as string", `{"topics":"a,b"}`},
		{"group id number", `{"group_id":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := quietLoader().Load(writeConfig(t, "config.json", tt.content))
			if !errors.Is(err, errors.ErrCodeConfigParse) {
				t.Fatalf("expected ErrCodeConfigParse, got %v", err)
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
topics: [payments]
broker_servers:
  - host: kafka-0
    port: 9092
group_id: billing
poll:
  timeout_ms: 250
output:
  format: text
`)

	cfg, err := quietLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Brokers, []string{"kafka-0:9092"}) {
		t.Errorf("Brokers = %v", cfg.Brokers)
	}
	if cfg.GroupID != "billing" || cfg.Poll.TimeoutMs != 250 || cfg.Output.Format != "text" {
		t.Errorf("unexpected config %+v", cfg)
	}
	// 未覆盖的字段保持默认值
	if cfg.Poll.MaxRecords != 500 || cfg.Client.Backend != "franz" {
		t.Errorf("defaults lost: %+v %+v", cfg.Poll, cfg.Client)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POLLER_GROUP_ID", "from-env")
	t.Setenv("POLLER_TOPICS", "a, b")
	t.Setenv("POLLER_BROKER_SERVERS", "k1:19092, [::1]:09092")
	t.Setenv("POLLER_LOG__LEVEL", "debug")
	t.Setenv("POLLER_POLL__MAX_RECORDS", "42")

	cfg, err := NewLoader(logger.Nop()).Load(writeConfig(t, "config.json",
		`{"group_id":"from-file","topics":["x"],"broker_servers":[{"host":"h","port":1}]}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GroupID != "from-env" {
		t.Errorf("GroupID = %q", cfg.GroupID)
	}
	if !reflect.DeepEqual(cfg.Topics, []string{"a", "b"}) {
		t.Errorf("Topics = %v", cfg.Topics)
	}
	if !reflect.DeepEqual(cfg.Brokers, []string{"k1:19092", "[::1]:9092"}) {
		t.Errorf("Brokers = %v", cfg.Brokers)
	}
	if cfg.Log.Level != "debug" || cfg.Poll.MaxRecords != 42 {
		t.Errorf("env overrides not applied: log=%+v poll=%+v", cfg.Log, cfg.Poll)
	}
}

func TestLoadEnvBrokerErrors(t *testing.T) {
	for _, list := range []string{"h", "not a broker list", "h:+9092", ":9092", "h:9092,k2:0"} {
		t.Run(list, func(t *testing.T) {
			t.Setenv("POLLER_BROKER_SERVERS", list)

			_, err := NewLoader(logger.Nop()).Load(writeConfig(t, "config.json", `{}`))
			if !errors.Is(err, errors.ErrCodeConfigParse) {
				t.Fatalf("expected ErrCodeConfigParse, got %v", err)
			}
		})
	}
}

func TestLoadWithoutEnvPrefixIgnoresEnvironment(t *testing.T) {
	t.Setenv("POLLER_TOPICS", "stray")
	t.Setenv("POLLER_GROUP_ID", "stray")

	cfg, err := quietLoader().Load(writeConfig(t, "config.json", `{}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Topics, []string{DefaultTopic}) || cfg.GroupID != DefaultGroupID {
		t.Fatalf("environment leaked into config: topics=%v group=%q", cfg.Topics, cfg.GroupID)
	}
}

func TestLoadValidatesAmbientSections(t *testing.T) {
	_, err := quietLoader().Load(writeConfig(t, "config.json", `{"client":{"backend":"sarama"}}`))
	if !errors.Is(err, errors.ErrCodeConfigValidate) {
		t.Fatalf("expected ErrCodeConfigValidate, got %v", err)
	}
}

func TestLoadLogsResolvedFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	loader := NewLoader(logger.NewObserver(zap.New(core))).WithEnvPrefix("")

	path := writeConfig(t, "config.json", `{"topics":["t1"]}`)
	if _, err := loader.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if logs.FilterField(zap.String("path", path)).Len() == 0 {
		t.Error("resolved path was not logged")
	}
	for _, msg := range []string{"topics", "brokers", "consumer group id"} {
		if logs.FilterMessage(msg).Len() != 1 {
			t.Errorf("expected one %q entry", msg)
		}
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Poll.TimeoutMs != 100 {
		t.Errorf("Poll.TimeoutMs = %d", cfg.Poll.TimeoutMs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"heartbeat above session", func(c *Config) { c.Client.HeartbeatInterval = c.Client.SessionTimeout }},
		{"zero poll timeout", func(c *Config) { c.Poll.TimeoutMs = 0 }},
		{"zero max records", func(c *Config) { c.Poll.MaxRecords = 0 }},
		{"unknown output", func(c *Config) { c.Output.Format = "csv" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"file output without path", func(c *Config) { c.Log.Output = "file" }},
		{"port conflict", func(c *Config) {
			c.Pprof.Enabled = true
			c.Pprof.Port = c.Metrics.Port
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); !errors.Is(err, errors.ErrCodeConfigValidate) {
				t.Fatalf("expected ErrCodeConfigValidate, got %v", err)
			}
		})
	}
}
