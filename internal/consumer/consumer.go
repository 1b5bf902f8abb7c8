package consumer

import (
	"context"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/doris-sinker/kafka-poller/internal/config"
	"github.com/doris-sinker/kafka-poller/pkg/utils"
)

// StringDeserializer key/value均按字符串解码
const StringDeserializer = "string"

// Record 一次poll返回的Kafka消息
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       string
	Value     string
	Timestamp time.Time
}

// Client 外部Kafka客户端能力：连接、订阅在创建时完成
type Client interface {
	// Ping 确认至少一个broker可达
	Ping(ctx context.Context) error
	// Poll 阻塞直到有记录或ctx结束；ctx结束时返回ctx.Err()
	Poll(ctx context.Context, maxRecords int) ([]Record, error)
	Close() error
}

// Dialer 按属性创建已订阅的客户端
type Dialer func(props Properties, cfg config.ClientConfig) (Client, error)

// DialBackend 按 client.backend 选择客户端实现，hooks仅作用于franz
func DialBackend(hooks ...kgo.Hook) Dialer {
	return func(props Properties, cfg config.ClientConfig) (Client, error) {
		if cfg.Backend == "segmentio" {
			c, err := NewSegmentioClient(props, cfg)
			if err != nil {
				return nil, err
			}
			return c, nil
		}

		c, err := NewFranzClient(props, cfg, hooks...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Properties 客户端连接属性
type Properties struct {
	BootstrapServers  string // 大写、逗号分隔
	GroupID           string
	KeyDeserializer   string
	ValueDeserializer string
	Topics            []string
}

// NewProperties 由配置构建客户端属性
func NewProperties(cfg *config.Config) Properties {
	servers := make([]string, len(cfg.Brokers))
	for i, b := range cfg.Brokers {
		servers[i] = strings.ToUpper(b)
	}

	topics := make([]string, len(cfg.Topics))
	copy(topics, cfg.Topics)

	return Properties{
		BootstrapServers:  strings.Join(servers, ","),
		GroupID:           cfg.GroupID,
		KeyDeserializer:   StringDeserializer,
		ValueDeserializer: StringDeserializer,
		Topics:            topics,
	}
}

// Servers 拆分bootstrap地址
func (p Properties) Servers() []string {
	return utils.SplitList(p.BootstrapServers)
}

// Map 以Kafka属性名返回
func (p Properties) Map() map[string]string {
	return map[string]string{
		"bootstrap.servers":  p.BootstrapServers,
		"group.id":           p.GroupID,
		"key.deserializer":   p.KeyDeserializer,
		"value.deserializer": p.ValueDeserializer,
	}
}
