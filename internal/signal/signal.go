package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/doris-sinker/kafka-poller/pkg/logger"
	"go.uber.org/zap"
)

// NotifyShutdown 返回在收到SIGINT/SIGTERM时取消的ctx。
// 第二次收到信号时不再拦截，进程按默认行为退出。
func NotifyShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("received shutdown signal", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
