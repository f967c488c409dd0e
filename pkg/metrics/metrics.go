// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集 HTTP、批次生命周期、上传与分区维护指标.
//
// Example:
//
//	import "github.com/yeisme/ingestvault/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// 记录指标
//	metrics.BatchTransitions.WithLabelValues("COMPLETED").Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/ingestvault/pkg/configs"
)

const namespace = "ingestvault"

// 全局指标变量，未启用 Metrics 时照常计数但不暴露.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 活跃连接数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	// BatchTransitions 批次进入各状态的次数.
	BatchTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_transitions_total",
			Help:      "Number of batches that entered a status",
		},
		[]string{"status"},
	)

	// UploadedFiles 成功入库的文件数.
	UploadedFiles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_files_total",
			Help:      "Number of uploaded files persisted",
		},
	)

	// UploadedBytes 成功入库的字节数.
	UploadedBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Number of bytes written to object storage",
		},
	)

	// UploadFailures 上传失败次数，按错误类别区分.
	UploadFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_failures_total",
			Help:      "Number of rejected or failed file uploads",
		},
		[]string{"reason"},
	)

	// ErrorLogs 写入的错误日志条数.
	ErrorLogs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "error_logs_total",
			Help:      "Number of error log records appended",
		},
		[]string{"scope"},
	)

	// PartitionOperations 分区维护操作结果.
	PartitionOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partition_operations_total",
			Help:      "Partition maintenance operations by result",
		},
		[]string{"op", "result"},
	)

	// SweepDuration 超时扫描耗时.
	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_sweep_duration_seconds",
			Help:      "Duration of batch timeout sweeps",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
	initOnce sync.Once
)

// InitMetrics 注册指标，重复调用只生效一次.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	var err error

	initOnce.Do(func() {
		if config.RuntimeMetrics {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		// 常量标签只加在本服务自己的指标上
		reg := prometheus.WrapRegistererWith(prometheus.Labels(config.Labels), registry)
		for _, c := range []prometheus.Collector{
			RequestCounter,
			RequestDuration,
			ActiveConnections,
			BatchTransitions,
			UploadedFiles,
			UploadedBytes,
			UploadFailures,
			ErrorLogs,
			PartitionOperations,
			SweepDuration,
		} {
			if err = reg.Register(c); err != nil {
				return
			}
		}
	})

	return err
}

// StartMetricsServer 在 HTTP 引擎上挂载指标与 pprof 端点.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	engine.GET(config.GetPath(), gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
