package consumer

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/multierr"

	"github.com/doris-sinker/kafka-poller/internal/config"
	"github.com/doris-sinker/kafka-poller/pkg/errors"
)

// SegmentioClient kafka-go Reader实现
type SegmentioClient struct {
	reader  *kafka.Reader
	dialer  *kafka.Dialer
	brokers []string
}

// NewSegmentioClient 创建kafka-go Reader并订阅topics
func NewSegmentioClient(props Properties, cfg config.ClientConfig) (*SegmentioClient, error) {
	dialer := &kafka.Dialer{
		ClientID:  cfg.ClientID,
		Timeout:   time.Duration(cfg.ConnectTimeout) * time.Second,
		DualStack: true,
	}

	startOffset := kafka.LastOffset
	if cfg.FromEarliest {
		startOffset = kafka.FirstOffset
	}

	rc := kafka.ReaderConfig{
		Brokers:           props.Servers(),
		GroupID:           props.GroupID,
		GroupTopics:       props.Topics,
		Dialer:            dialer,
		MaxBytes:          cfg.MaxFetchBytes,
		SessionTimeout:    time.Duration(cfg.SessionTimeout) * time.Second,
		HeartbeatInterval: time.Duration(cfg.HeartbeatInterval) * time.Second,
		StartOffset:       startOffset,
	}
	// NewReader对非法配置直接panic
	if err := rc.Validate(); err != nil {
		return nil, err
	}

	return &SegmentioClient{
		reader:  kafka.NewReader(rc),
		dialer:  dialer,
		brokers: rc.Brokers,
	}, nil
}

// Ping 依次拨号，任一broker可达即成功
func (c *SegmentioClient) Ping(ctx context.Context) error {
	var errs error
	for _, broker := range c.brokers {
		conn, err := c.dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		_ = conn.Close()
		return nil
	}
	return errs
}

// Poll 读取消息直到maxRecords或ctx结束；offset由Reader按group自动提交
func (c *SegmentioClient) Poll(ctx context.Context, maxRecords int) ([]Record, error) {
	var records []Record
	for len(records) < maxRecords {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				return records, errors.New(errors.ErrCodeConsumerClosed, "kafka reader closed")
			}
			return records, err
		}
		records = append(records, fromKafkaGo(msg))
	}
	return records, nil
}

// Close 关闭Reader
func (c *SegmentioClient) Close() error {
	return c.reader.Close()
}

func fromKafkaGo(m kafka.Message) Record {
	return Record{
		Topic:     m.Topic,
		Partition: int32(m.Partition),
		Offset:    m.Offset,
		Key:       string(m.Key),
		Value:     string(m.Value),
		Timestamp: m.Time,
	}
}
