package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"go.uber.org/zap"

	"github.com/doris-sinker/kafka-poller/pkg/errors"
	"github.com/doris-sinker/kafka-poller/pkg/logger"
	"github.com/doris-sinker/kafka-poller/pkg/utils"
)

// EnvPrefix 环境变量覆盖前缀，如 POLLER_GROUP_ID、POLLER_LOG__LEVEL
const EnvPrefix = "POLLER_"

// Loader 配置加载器
type Loader struct {
	obs       logger.Observer
	envPrefix string
}

// NewLoader 创建配置加载器
func NewLoader(obs logger.Observer) *Loader {
	return &Loader{obs: obs, envPrefix: EnvPrefix}
}

// WithEnvPrefix 设置环境变量前缀，空字符串表示不读取环境变量
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load 使用全局logger从文件加载配置
func Load(path string) (*Config, error) {
	return NewLoader(logger.Default()).Load(path)
}

// Load 从文件加载配置：默认值 < 文件 < 环境变量
func (l *Loader) Load(path string) (*Config, error) {
	l.obs.Info("parsing config file", zap.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeConfigNotFound, "config file not found: "+path, err)
		}
		return nil, errors.Wrap(errors.ErrCodeConfigLoad, "failed to read config file", err)
	}

	k, err := newKoanf()
	if err != nil {
		return nil, err
	}
	if err := k.Load(rawbytes.Provider(data), parserFor(path)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigParse, "failed to parse config file", err)
	}
	overrides, err := l.loadEnv()
	if err != nil {
		return nil, err
	}

	l.obs.Info("config loaded from given file path",
		zap.String("path", path),
		zap.ByteString("config", data),
	)

	cfg, err := resolve(k, overrides)
	if err != nil {
		return nil, err
	}

	l.obs.Info("topics", zap.Strings("topics", cfg.Topics))
	l.obs.Info("brokers", zap.Strings("brokers", cfg.Brokers))
	l.obs.Info("consumer group id", zap.String("group_id", cfg.GroupID))

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey POLLER_LOG__LEVEL -> log.level
func (l *Loader) envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// loadEnv 环境变量单独成层，topics/broker_servers 只在这一层接受逗号分隔字符串
func (l *Loader) loadEnv() (*koanf.Koanf, error) {
	if l.envPrefix == "" {
		return nil, nil
	}
	k := koanf.New(".")
	if err := k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigLoad, "failed to read environment overrides", err)
	}
	return k, nil
}

func newKoanf() (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigLoad, "failed to load default config", err)
	}
	return k, nil
}

// resolve 从koanf中提取配置并填充默认值，overrides 为环境变量层，可为nil
func resolve(k *koanf.Koanf, overrides *koanf.Koanf) (*Config, error) {
	cfg := &Config{}

	var err error
	if cfg.Topics, err = resolveTopics(k.Get("topics")); err != nil {
		return nil, err
	}
	if cfg.Brokers, err = resolveBrokers(k.Get("broker_servers")); err != nil {
		return nil, err
	}

	if overrides != nil {
		if topics := utils.SplitList(overrides.String("topics")); len(topics) > 0 {
			cfg.Topics = topics
		}
		if list := overrides.String("broker_servers"); strings.TrimSpace(list) != "" {
			if cfg.Brokers, err = parseBrokerList(list); err != nil {
				return nil, err
			}
		}
		if err := k.Merge(overrides); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigLoad, "failed to apply environment overrides", err)
		}
	}

	if cfg.GroupID, err = resolveGroupID(k.Get("group_id")); err != nil {
		return nil, err
	}

	sections := []struct {
		path string
		out  interface{}
	}{
		{"client", &cfg.Client},
		{"poll", &cfg.Poll},
		{"output", &cfg.Output},
		{"log", &cfg.Log},
		{"metrics", &cfg.Metrics},
		{"pprof", &cfg.Pprof},
	}
	for _, s := range sections {
		if err := k.Unmarshal(s.path, s.out); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigParse, "invalid "+s.path+" section", err)
		}
	}

	return cfg, nil
}

func resolveTopics(v interface{}) ([]string, error) {
	var topics []string

	switch val := v.(type) {
	case nil:
	case []interface{}:
		for i, item := range val {
			topic, ok := item.(string)
			if !ok || strings.TrimSpace(topic) == "" {
				return nil, errors.New(errors.ErrCodeConfigParse,
					fmt.Sprintf("topics[%d] must be a non-empty string", i))
			}
			topics = append(topics, topic)
		}
	default:
		return nil, errors.New(errors.ErrCodeConfigParse, "topics must be an array of strings")
	}

	if len(topics) == 0 {
		return []string{DefaultTopic}, nil
	}
	return topics, nil
}

func resolveBrokers(v interface{}) ([]string, error) {
	var brokers []string

	switch val := v.(type) {
	case nil:
	case []interface{}:
		for i, item := range val {
			addr, err := brokerAddress(item)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeConfigParse,
					fmt.Sprintf("invalid broker_servers[%d]", i), err)
			}
			brokers = append(brokers, addr)
		}
	default:
		return nil, errors.New(errors.ErrCodeConfigParse, "broker_servers must be an array of {host, port} objects")
	}

	if len(brokers) == 0 {
		return []string{DefaultBroker}, nil
	}
	return brokers, nil
}

// brokerAddress 将 {host, port} 拼接为 host:port
func brokerAddress(item interface{}) (string, error) {
	server, ok := item.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("entry is not an object")
	}

	host, ok := server["host"].(string)
	if !ok || strings.TrimSpace(host) == "" {
		return "", fmt.Errorf("missing host")
	}

	rawPort, ok := server["port"]
	if !ok || rawPort == nil {
		return "", fmt.Errorf("missing port")
	}
	port, err := parsePort(utils.ToString(rawPort))
	if err != nil {
		return "", err
	}

	return net.JoinHostPort(strings.TrimSpace(host), strconv.Itoa(port)), nil
}

// parseBrokerList 解析 host:port,host:port 形式的broker列表
func parseBrokerList(list string) ([]string, error) {
	var brokers []string
	for i, item := range utils.SplitList(list) {
		host, rawPort, err := net.SplitHostPort(item)
		if err == nil && strings.TrimSpace(host) == "" {
			err = fmt.Errorf("missing host")
		}
		var port int
		if err == nil {
			port, err = parsePort(rawPort)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigParse,
				fmt.Sprintf("invalid broker_servers[%d] %q", i, item), err)
		}
		brokers = append(brokers, net.JoinHostPort(strings.TrimSpace(host), strconv.Itoa(port)))
	}
	return brokers, nil
}

// parsePort 只接受十进制数字，范围 1..65535
func parsePort(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing port")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid port %q", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return n, nil
}

func resolveGroupID(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return DefaultGroupID, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return DefaultGroupID, nil
		}
		return strings.TrimSpace(val), nil
	default:
		return "", errors.New(errors.ErrCodeConfigParse, "group_id must be a string")
	}
}
