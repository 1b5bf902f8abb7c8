package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"

	"github.com/doris-sinker/kafka-poller/internal/config"
	"github.com/doris-sinker/kafka-poller/internal/consumer"
	"github.com/doris-sinker/kafka-poller/internal/output"
	"github.com/doris-sinker/kafka-poller/internal/server"
	"github.com/doris-sinker/kafka-poller/internal/signal"
	"github.com/doris-sinker/kafka-poller/pkg/logger"
)

var version = "1.0.0"

var (
	app        = kingpin.New("kafka-poller", "Poll records from Kafka topics and print them.")
	configPath = app.Arg("config", "Path to the JSON or YAML config file, defaults to "+config.DefaultPath).String()
	format     = app.Flag("format", "Record output format, overrides output.format").Short('f').Enum(output.FormatJSON, output.FormatText)
	logLevel   = app.Flag("log-level", "Log level, overrides log.level").String()
	once       = app.Flag("once", "Poll once, print the record values and exit").Bool()
	timeout    = app.Flag("timeout", "Poll timeout used with --once").Default("10s").Duration()
)

func main() {
	app.Version(version)
	kingpin.MustParse(app.Parse(os.Args[1:]))
	os.Exit(run())
}

// configFile 未传参数时使用默认路径
func configFile(arg string) (path string, defaulted bool) {
	if arg == "" {
		return config.DefaultPath, true
	}
	return arg, false
}

func run() int {
	path, defaulted := configFile(*configPath)
	if defaulted {
		logger.Info("config file path argument not provided, using default", zap.String("path", path))
	}

	// 1. 加载配置
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	// 2. 初始化日志
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("kafka-poller starting",
		zap.String("version", version),
		zap.String("config", cfg.String()),
	)

	// 3. 创建上下文
	ctx, cancel := signal.NotifyShutdown(context.Background())
	defer cancel()

	// 4. 创建Runner
	clientMetrics := kprom.NewMetrics("kafka_poller")
	runner := consumer.NewRunner(consumer.DialBackend(clientMetrics), logger.Default())
	defer func() {
		if err := runner.Close(); err != nil {
			logger.Error("failed to close consumer", zap.Error(err))
		}
	}()

	printer := output.NewPrinter(os.Stdout, cfg.Output.Format)

	if *once {
		// Open之后Consume复用同一个Handle
		if _, err := runner.Open(ctx, cfg); err != nil {
			logger.Error("error occurred while starting the consumer", zap.Error(err))
			return 1
		}
		values, err := runner.Consume(ctx, path, *timeout)
		if err != nil {
			return 1
		}
		if err := printer.PrintValues(values); err != nil {
			logger.Error("failed to print values", zap.Error(err))
			return 1
		}
		return 0
	}

	// 5. 启动HTTP服务器
	srv := server.NewServer(*cfg, runner.Ready)
	srv.Mount(cfg.Metrics.Path+"/client", clientMetrics.Handler())
	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", zap.Error(err))
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("failed to stop server", zap.Error(err))
		}
	}()

	// 6. 连接Kafka
	handle, err := runner.Open(ctx, cfg)
	if err != nil {
		logger.Error("error occurred while starting the consumer", zap.Error(err))
		return 1
	}

	logger.Info("kafka-poller started successfully")

	// 7. 拉取直到收到关闭信号
	if err := handle.Run(ctx, printer.Emit); err != nil {
		logger.Error("poll loop failed", zap.Error(err))
		return 1
	}

	logger.Info("kafka-poller stopped")
	return 0
}
