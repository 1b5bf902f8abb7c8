package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 拉取循环指标
	PollTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poller_polls_total",
			Help: "Total number of poll calls by outcome",
		},
		[]string{"status"}, // records, empty, error, cancelled
	)

	PollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poller_poll_duration_seconds",
			Help:    "Poll call duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 5, 30},
		},
	)

	PollErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poller_poll_errors_total",
			Help: "Total number of poll errors by error code",
		},
		[]string{"error_type"},
	)

	// 记录指标
	RecordsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poller_records_consumed_total",
			Help: "Total number of records returned by poll",
		},
		[]string{"topic"},
	)

	BytesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poller_bytes_consumed_total",
			Help: "Total record value bytes returned by poll",
		},
		[]string{"topic"},
	)

	RecordsEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poller_records_emitted_total",
			Help: "Total number of records written to the output",
		},
	)

	// 连接状态
	ConsumerConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poller_consumer_connected",
			Help: "1 while a consumer handle is connected, 0 otherwise",
		},
	)
)
