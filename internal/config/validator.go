package config

import (
	"fmt"

	"github.com/doris-sinker/kafka-poller/pkg/errors"
)

// Validate 验证配置
func Validate(cfg *Config) error {
	if len(cfg.Topics) == 0 {
		return errors.New(errors.ErrCodeConfigValidate, "topics is required")
	}
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeConfigValidate, "broker_servers is required")
	}
	if cfg.GroupID == "" {
		return errors.New(errors.ErrCodeConfigValidate, "group_id is required")
	}

	// 验证客户端配置
	switch cfg.Client.Backend {
	case "franz", "segmentio":
	default:
		return errors.New(errors.ErrCodeConfigValidate, "client.backend must be 'franz' or 'segmentio'")
	}
	if cfg.Client.ConnectTimeout <= 0 {
		return errors.New(errors.ErrCodeConfigValidate, "client.connect_timeout must be positive")
	}
	if cfg.Client.SessionTimeout <= 0 {
		return errors.New(errors.ErrCodeConfigValidate, "client.session_timeout must be positive")
	}
	if cfg.Client.HeartbeatInterval <= 0 || cfg.Client.HeartbeatInterval >= cfg.Client.SessionTimeout {
		return errors.New(errors.ErrCodeConfigValidate, "client.heartbeat_interval must be positive and below client.session_timeout")
	}
	if cfg.Client.MaxFetchBytes <= 0 {
		return errors.New(errors.ErrCodeConfigValidate, "client.max_fetch_bytes must be positive")
	}

	// 验证拉取配置
	if cfg.Poll.TimeoutMs <= 0 {
		return errors.New(errors.ErrCodeConfigValidate, "poll.timeout_ms must be positive")
	}
	if cfg.Poll.MaxRecords <= 0 {
		return errors.New(errors.ErrCodeConfigValidate, "poll.max_records must be positive")
	}

	if cfg.Output.Format != "json" && cfg.Output.Format != "text" {
		return errors.New(errors.ErrCodeConfigValidate, "output.format must be 'json' or 'text'")
	}

	// 验证日志配置
	switch cfg.Log.Format {
	case "json", "console", "logfmt":
	default:
		return errors.New(errors.ErrCodeConfigValidate, "log.format must be 'json', 'console' or 'logfmt'")
	}
	switch cfg.Log.Output {
	case "stdout", "stderr":
	case "file", "both":
		if cfg.Log.FilePath == "" {
			return errors.New(errors.ErrCodeConfigValidate, "log.file_path is required when log.output writes to a file")
		}
	default:
		return errors.New(errors.ErrCodeConfigValidate, "log.output must be 'stdout', 'stderr', 'file' or 'both'")
	}

	// 验证监控配置
	if cfg.Metrics.Enabled && cfg.Metrics.Port <= 0 {
		return errors.New(errors.ErrCodeConfigValidate, "metrics.port must be positive when enabled")
	}

	// 验证pprof配置
	if cfg.Pprof.Enabled && cfg.Pprof.Port <= 0 {
		return errors.New(errors.ErrCodeConfigValidate, "pprof.port must be positive when enabled")
	}

	// 验证端口冲突
	if cfg.Metrics.Enabled && cfg.Pprof.Enabled && cfg.Metrics.Port == cfg.Pprof.Port {
		return errors.New(errors.ErrCodeConfigValidate, "metrics.port and pprof.port cannot be the same")
	}

	return nil
}

// String 返回配置的字符串表示
func (c *Config) String() string {
	return fmt.Sprintf("Config{Topics: %v, Brokers: %v, GroupID: %s, Backend: %s}",
		c.Topics,
		c.Brokers,
		c.GroupID,
		c.Client.Backend,
	)
}
