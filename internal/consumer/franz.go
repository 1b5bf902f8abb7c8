package consumer

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/multierr"

	"github.com/doris-sinker/kafka-poller/internal/config"
	"github.com/doris-sinker/kafka-poller/pkg/errors"
)

// FranzClient franz-go客户端实现
type FranzClient struct {
	client *kgo.Client
}

// NewFranzClient 创建franz-go客户端并订阅topics
func NewFranzClient(props Properties, cfg config.ClientConfig, hooks ...kgo.Hook) (*FranzClient, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(props.Servers()...),
		kgo.ConsumerGroup(props.GroupID),
		kgo.ConsumeTopics(props.Topics...),
		kgo.ClientID(cfg.ClientID),
		kgo.FetchMaxBytes(int32(cfg.MaxFetchBytes)),
		kgo.SessionTimeout(time.Duration(cfg.SessionTimeout) * time.Second),
		kgo.HeartbeatInterval(time.Duration(cfg.HeartbeatInterval) * time.Second),
	}

	// 设置消费起始位置
	if cfg.FromEarliest {
		opts = append(opts, kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()))
	} else {
		opts = append(opts, kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()))
	}

	if len(hooks) > 0 {
		opts = append(opts, kgo.WithHooks(hooks...))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}

	return &FranzClient{client: client}, nil
}

// Ping 测试连接
func (c *FranzClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

// Poll 拉取消息，分区错误合并为一个error返回
func (c *FranzClient) Poll(ctx context.Context, maxRecords int) ([]Record, error) {
	fetches := c.client.PollRecords(ctx, maxRecords)
	if fetches.IsClientClosed() {
		return nil, errors.New(errors.ErrCodeConsumerClosed, "kafka client closed")
	}

	var errs, ctxErr error
	fetches.EachError(func(topic string, partition int32, err error) {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			ctxErr = err
			return
		}
		errs = multierr.Append(errs, fmt.Errorf("%s[%d]: %w", topic, partition, err))
	})

	records := make([]Record, 0, fetches.NumRecords())
	fetches.EachRecord(func(r *kgo.Record) {
		records = append(records, fromKgo(r))
	})

	if errs != nil {
		return records, errs
	}
	return records, ctxErr
}

// Close 关闭客户端，自动提交已拉取的offset
func (c *FranzClient) Close() error {
	c.client.Close()
	return nil
}

func fromKgo(r *kgo.Record) Record {
	return Record{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       string(r.Key),
		Value:     string(r.Value),
		Timestamp: r.Timestamp,
	}
}
