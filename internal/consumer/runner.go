package consumer

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/doris-sinker/kafka-poller/internal/config"
	"github.com/doris-sinker/kafka-poller/internal/metrics"
	"github.com/doris-sinker/kafka-poller/pkg/errors"
	"github.com/doris-sinker/kafka-poller/pkg/logger"
)

// State 消费者生命周期状态
type State int32

const (
	StateUnconfigured State = iota
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Runner 持有唯一的消费者Handle，按需创建，Close后不可重开。
// 除State外的方法不支持并发调用。
type Runner struct {
	dial   Dialer
	obs    logger.Observer
	handle *Handle
	state  atomic.Int32
}

// NewRunner 创建Runner
func NewRunner(dial Dialer, obs logger.Observer) *Runner {
	return &Runner{dial: dial, obs: obs}
}

// State 当前状态，可并发读取
func (r *Runner) State() State {
	return State(r.state.Load())
}

// Ready 已连接时返回true
func (r *Runner) Ready() bool {
	return r.State() == StateConnected
}

// current 已存在Handle时直接返回；已关闭时返回错误
func (r *Runner) current() (*Handle, error) {
	switch r.State() {
	case StateConnected:
		return r.handle, nil
	case StateClosed:
		return nil, errors.New(errors.ErrCodeConsumerClosed, "consumer is closed, create a new runner")
	default:
		return nil, nil
	}
}

// Setup 加载配置并打开Handle；Handle已存在时忽略path直接返回
func (r *Runner) Setup(ctx context.Context, path string) (*Handle, error) {
	if h, err := r.current(); h != nil || err != nil {
		return h, err
	}

	cfg, err := config.NewLoader(r.obs).Load(path)
	if err != nil {
		return nil, err
	}
	return r.Open(ctx, cfg)
}

// Open 用已加载的配置打开Handle，幂等
func (r *Runner) Open(ctx context.Context, cfg *config.Config) (*Handle, error) {
	if h, err := r.current(); h != nil || err != nil {
		return h, err
	}

	props := NewProperties(cfg)
	r.obs.Info("consuming the message",
		zap.String("group_id", props.GroupID),
		zap.String("bootstrap_servers", props.BootstrapServers),
		zap.Strings("topics", props.Topics),
		zap.String("backend", cfg.Client.Backend),
	)

	client, err := r.dial(props, cfg.Client)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeKafkaConnect, "failed to create kafka client", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Client.ConnectTimeout)*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		_ = client.Close()
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeCancelled, "setup cancelled", ctx.Err())
		}
		return nil, errors.Wrap(errors.ErrCodeKafkaConnect, "failed to reach any broker", err)
	}

	r.handle = &Handle{
		client:     client,
		props:      props,
		obs:        r.obs,
		interval:   time.Duration(cfg.Poll.TimeoutMs) * time.Millisecond,
		maxRecords: cfg.Poll.MaxRecords,
	}
	r.state.Store(int32(StateConnected))
	metrics.ConsumerConnected.Set(1)

	r.obs.Info("kafka consumer connected", zap.Strings("topics", props.Topics))
	return r.handle, nil
}

// Close 释放连接；没有Handle时为空操作
func (r *Runner) Close() error {
	if r.handle == nil {
		return nil
	}

	err := r.handle.close()
	r.handle = nil
	r.state.Store(int32(StateClosed))
	metrics.ConsumerConnected.Set(0)

	r.obs.Info("kafka consumer closed")
	return err
}

// Consume 打开Handle后执行一次poll，只返回消息内容
func (r *Runner) Consume(ctx context.Context, path string, timeout time.Duration) ([]string, error) {
	h, err := r.Setup(ctx, path)
	if err != nil {
		r.obs.Error("error occurred while starting the consumer", err)
		return nil, err
	}

	records, err := h.PollOnce(ctx, timeout)
	if err != nil {
		r.obs.Error("error occurred while consuming the message", err)
		return nil, err
	}

	values := make([]string, len(records))
	for i, rec := range records {
		values[i] = rec.Value
	}
	return values, nil
}

// Handle 已连接并订阅的消费者
type Handle struct {
	client     Client
	props      Properties
	obs        logger.Observer
	interval   time.Duration
	maxRecords int
	closed     bool
}

// Properties 返回连接属性
func (h *Handle) Properties() Properties {
	return h.props
}

// PollOnce 执行一次poll，最多阻塞timeout。
// 超时无记录返回空切片；ctx取消返回ErrCodeCancelled；broker错误返回ErrCodeKafkaPoll。
func (h *Handle) PollOnce(ctx context.Context, timeout time.Duration) ([]Record, error) {
	if h.closed {
		return nil, errors.New(errors.ErrCodeConsumerClosed, "consumer handle is closed")
	}
	if err := ctx.Err(); err != nil {
		metrics.PollTotal.WithLabelValues("cancelled").Inc()
		return nil, errors.Wrap(errors.ErrCodeCancelled, "poll cancelled", err)
	}

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	startTime := time.Now()
	records, err := h.client.Poll(pollCtx, h.maxRecords)
	metrics.PollDuration.Observe(time.Since(startTime).Seconds())

	switch {
	case err == nil:
	case ctx.Err() != nil:
		metrics.PollTotal.WithLabelValues("cancelled").Inc()
		return records, errors.Wrap(errors.ErrCodeCancelled, "poll cancelled", ctx.Err())
	case errors.Is(err, errors.ErrCodeConsumerClosed):
		metrics.PollTotal.WithLabelValues("error").Inc()
		metrics.PollErrors.WithLabelValues(errors.ErrCodeConsumerClosed.String()).Inc()
		return records, err
	case stderrors.Is(err, context.DeadlineExceeded):
		// 本次poll时间用完
	default:
		metrics.PollTotal.WithLabelValues("error").Inc()
		metrics.PollErrors.WithLabelValues(errors.ErrCodeKafkaPoll.String()).Inc()
		return records, errors.Wrap(errors.ErrCodeKafkaPoll, "poll failed", err)
	}

	if len(records) == 0 {
		metrics.PollTotal.WithLabelValues("empty").Inc()
		return records, nil
	}

	metrics.PollTotal.WithLabelValues("records").Inc()
	for _, rec := range records {
		metrics.RecordsConsumed.WithLabelValues(rec.Topic).Inc()
		metrics.BytesConsumed.WithLabelValues(rec.Topic).Add(float64(len(rec.Value)))
	}
	return records, nil
}

// Run 以固定超时循环poll并逐条emit，直到ctx取消。
// poll错误记录日志后跳过本轮；取消时返回nil。
func (h *Handle) Run(ctx context.Context, emit func(Record) error) error {
	h.obs.Info("poll loop started",
		zap.Duration("timeout", h.interval),
		zap.Int("max_records", h.maxRecords),
	)

	for {
		records, err := h.PollOnce(ctx, h.interval)

		for _, rec := range records {
			if emitErr := emit(rec); emitErr != nil {
				return errors.Wrap(errors.ErrCodeOutput, "failed to emit record", emitErr)
			}
			metrics.RecordsEmitted.Inc()
		}

		if err == nil {
			continue
		}

		switch {
		case errors.Is(err, errors.ErrCodeCancelled):
			h.obs.Info("poll loop stopped")
			return nil
		case errors.Is(err, errors.ErrCodeConsumerClosed):
			return err
		default:
			h.obs.Error("error occurred while consuming the message, skipping iteration", err,
				zap.Errors("causes", multierr.Errors(stderrors.Unwrap(err))),
			)
		}
	}
}

func (h *Handle) close() error {
	if h.closed {
		return nil
	}
	h.closed = true

	if err := h.client.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeKafkaConnect, "failed to close kafka client", err)
	}
	return nil
}
