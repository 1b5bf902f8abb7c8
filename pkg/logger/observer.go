package logger

import (
	"go.uber.org/zap"
)

// Observer 核心逻辑使用的窄日志接口
type Observer interface {
	Info(msg string, fields ...zap.Field)
	Error(msg string, err error, fields ...zap.Field)
}

type zapObserver struct {
	l *zap.Logger
}

// NewObserver 用指定logger构建Observer
func NewObserver(l *zap.Logger) Observer {
	return zapObserver{l: l.WithOptions(zap.AddCallerSkip(1))}
}

func (o zapObserver) Info(msg string, fields ...zap.Field) {
	o.l.Info(msg, fields...)
}

func (o zapObserver) Error(msg string, err error, fields ...zap.Field) {
	o.l.Error(msg, append(fields, zap.Error(err))...)
}

type globalObserver struct{}

// Default 返回写入全局logger的Observer，Init之后的配置同样生效
func Default() Observer {
	return globalObserver{}
}

func (globalObserver) Info(msg string, fields ...zap.Field) {
	Get().WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

func (globalObserver) Error(msg string, err error, fields ...zap.Field) {
	Get().WithOptions(zap.AddCallerSkip(1)).Error(msg, append(fields, zap.Error(err))...)
}

// Nop 丢弃所有日志
func Nop() Observer {
	return NewObserver(zap.NewNop())
}
