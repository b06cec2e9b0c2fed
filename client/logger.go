package client

import "go.uber.org/zap"

// Logger 日志接口
//
// args 为交替出现的键值对，例如 Debug("request", "method", m, "id", id)。
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// NopLogger 丢弃所有日志
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}

// zapLogger 基于 zap 的 Logger 实现
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger 将 zap.Logger 适配为 Logger
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{sugar: l.Sugar()}
}

func (l *zapLogger) Debug(msg string, args ...interface{}) { l.sugar.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...interface{})  { l.sugar.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...interface{})  { l.sugar.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...interface{}) { l.sugar.Errorw(msg, args...) }

// With 返回携带固定字段的子日志器
func With(l Logger, args ...interface{}) Logger {
	if zl, ok := l.(*zapLogger); ok {
		return &zapLogger{sugar: zl.sugar.With(args...)}
	}
	return &fieldLogger{base: l, fields: args}
}

type fieldLogger struct {
	base   Logger
	fields []interface{}
}

func (l *fieldLogger) merge(args []interface{}) []interface{} {
	out := make([]interface{}, 0, len(l.fields)+len(args))
	out = append(out, l.fields...)
	return append(out, args...)
}

func (l *fieldLogger) Debug(msg string, args ...interface{}) { l.base.Debug(msg, l.merge(args)...) }
func (l *fieldLogger) Info(msg string, args ...interface{})  { l.base.Info(msg, l.merge(args)...) }
func (l *fieldLogger) Warn(msg string, args ...interface{})  { l.base.Warn(msg, l.merge(args)...) }
func (l *fieldLogger) Error(msg string, args ...interface{}) { l.base.Error(msg, l.merge(args)...) }
