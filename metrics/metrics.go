// Package metrics 交易构建的 Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace 默认指标命名空间
const DefaultNamespace = "ledger_sdk"

// Collector 交易构建指标
//
// 方法对 nil 接收者安全，未配置指标时调用方无需判空。
type Collector struct {
	buildsCompleted prometheus.Counter
	buildsFailed    *prometheus.CounterVec
	tasksDrained    prometheus.Counter
	drainDuration   prometheus.Histogram
}

// NewCollector 创建指标集合；namespace 为空时使用 DefaultNamespace
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Collector{
		buildsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "txbuilder",
			Name:      "builds_completed_total",
			Help:      "Transactions built and balanced successfully.",
		}),
		buildsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "txbuilder",
			Name:      "builds_failed_total",
			Help:      "Transaction builds that failed, by error code.",
		}, []string{"code"}),
		tasksDrained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "txbuilder",
			Name:      "tasks_drained_total",
			Help:      "Deferred builder tasks executed.",
		}),
		drainDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "txbuilder",
			Name:      "drain_duration_seconds",
			Help:      "Time spent draining the deferred task queue.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}

// Register 注册到 Registerer
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, m := range []prometheus.Collector{c.buildsCompleted, c.buildsFailed, c.tasksDrained, c.drainDuration} {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// BuildCompleted 记录一次成功构建
func (c *Collector) BuildCompleted() {
	if c == nil {
		return
	}
	c.buildsCompleted.Inc()
}

// BuildFailed 记录一次失败构建；code 为空时记为 "unknown"
func (c *Collector) BuildFailed(code string) {
	if c == nil {
		return
	}
	if code == "" {
		code = "unknown"
	}
	c.buildsFailed.WithLabelValues(code).Inc()
}

// QueueDrained 记录一次队列执行
func (c *Collector) QueueDrained(tasks int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.tasksDrained.Add(float64(tasks))
	c.drainDuration.Observe(elapsed.Seconds())
}
