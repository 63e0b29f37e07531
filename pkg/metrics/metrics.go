// Package metrics 提供 Prometheus 指标定义与暴露，覆盖 HTTP、购物车、下单与 outbox 投递
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/pizzashop/pkg/logger"
)

const namespace = "pizzashop"

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 购物车操作计数，按操作和结果区分
	CartOperationsTotal *prometheus.CounterVec

	// 业务指标
	OrdersCreatedTotal      prometheus.Counter
	OrderAmount             prometheus.Histogram
	OrderStatusChangesTotal *prometheus.CounterVec
	OrdersCancelledTotal    prometheus.Counter

	// outbox 投递结果：sent, retry, dead
	OutboxEventsTotal *prometheus.CounterVec
}

// New 创建指标实例，使用独立 registry
func New(serviceName string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		CartOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "cart_operations_total",
			Help:      "Cart mutations by operation and result",
		}, []string{"operation", "result"}),
		OrdersCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "orders_created_total",
			Help:      "Total orders created from carts",
		}),
		OrderAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "order_amount",
			Help:      "Order total amount",
			Buckets:   []float64{10, 20, 40, 60, 100, 200, 500},
		}),
		OrderStatusChangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "order_status_changes_total",
			Help:      "Order status changes by target status",
		}, []string{"status"}),
		OrdersCancelledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "orders_cancelled_total",
			Help:      "Total cancelled orders",
		}),
		OutboxEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "outbox_events_total",
			Help:      "Outbox relay results by event type",
		}, []string{"event_type", "result"}),
	}
	return m
}

// Register 注册所有指标以及 Go 运行时指标
func (m *Metrics) Register() error {
	cs := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CartOperationsTotal,
		m.OrdersCreatedTotal,
		m.OrderAmount,
		m.OrderStatusChangesTotal,
		m.OrdersCancelledTotal,
		m.OutboxEventsTotal,
	}

	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// Handler 暴露 /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// NewHTTPServer 构建独立端口的指标服务，由调用方负责启动与关闭
func (m *Metrics) NewHTTPServer(port int, path string) *http.Server {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// 以下记录方法允许 nil 接收者，未启用指标时调用方无需判空

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCartOperation 记录购物车操作
func (m *Metrics) RecordCartOperation(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CartOperationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordOrderCreated 记录下单及金额
func (m *Metrics) RecordOrderCreated(amount float64) {
	if m == nil {
		return
	}
	m.OrdersCreatedTotal.Inc()
	m.OrderAmount.Observe(amount)
}

// RecordStatusChange 记录状态变更
func (m *Metrics) RecordStatusChange(status string) {
	if m == nil {
		return
	}
	m.OrderStatusChangesTotal.WithLabelValues(status).Inc()
}

// RecordOrderCancelled 记录取消
func (m *Metrics) RecordOrderCancelled() {
	if m == nil {
		return
	}
	m.OrdersCancelledTotal.Inc()
}

// RecordOutbox 记录 outbox 投递结果
func (m *Metrics) RecordOutbox(eventType, result string) {
	if m == nil {
		return
	}
	m.OutboxEventsTotal.WithLabelValues(eventType, result).Inc()
}
