package config

import (
	"github.com/doris-sinker/kafka-poller/pkg/logger"
)

const (
	DefaultTopic   = "quickstart-events"
	DefaultBroker  = "localhost:9092"
	DefaultGroupID = "consumer-group"

	// DefaultPath CLI未指定配置文件时使用的路径
	DefaultPath = "src/config.json"
)

// Config 全局配置
type Config struct {
	Topics  []string
	Brokers []string // host:port
	GroupID string

	Client  ClientConfig
	Poll    PollConfig
	Output  OutputConfig
	Log     logger.Config
	Metrics MetricsConfig
	Pprof   PprofConfig
}

// ClientConfig Kafka客户端配置
type ClientConfig struct {
	Backend           string `koanf:"backend"` // franz, segmentio
	ClientID          string `koanf:"client_id"`
	FromEarliest      bool   `koanf:"from_earliest"`
	SessionTimeout    int    `koanf:"session_timeout"`    // 秒
	HeartbeatInterval int    `koanf:"heartbeat_interval"` // 秒
	ConnectTimeout    int    `koanf:"connect_timeout"`    // 秒
	MaxFetchBytes     int    `koanf:"max_fetch_bytes"`
}

// PollConfig 拉取循环配置
type PollConfig struct {
	TimeoutMs  int `koanf:"timeout_ms"`
	MaxRecords int `koanf:"max_records"`
}

// OutputConfig 记录输出配置
type OutputConfig struct {
	Format string `koanf:"format"` // json, text
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Port    int    `koanf:"port"`
	Path    string `koanf:"path"`
}

// PprofConfig pprof配置
type PprofConfig struct {
	Enabled bool `koanf:"enabled"`
	Port    int  `koanf:"port"`
}

// defaultValues 默认配置，作为koanf的第一层
func defaultValues() map[string]interface{} {
	return map[string]interface{}{
		"client.backend":            "franz",
		"client.client_id":          "kafka-poller",
		"client.from_earliest":      false,
		"client.session_timeout":    45,
		"client.heartbeat_interval": 3,
		"client.connect_timeout":    10,
		"client.max_fetch_bytes":    52428800, // 50MB

		"poll.timeout_ms":  100,
		"poll.max_records": 500,

		"output.format": "json",

		"log.level":           "info",
		"log.output":          "stderr",
		"log.format":          "json",
		"log.enable_sampling": true,
		"log.max_size":        100,
		"log.max_age":         7,
		"log.max_backups":     10,

		"metrics.enabled": true,
		"metrics.port":    9090,
		"metrics.path":    "/metrics",

		"pprof.enabled": false,
		"pprof.port":    6060,
	}
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	k, err := newKoanf()
	if err != nil {
		panic(err)
	}
	cfg, err := resolve(k, nil)
	if err != nil {
		panic(err)
	}
	return cfg
}
