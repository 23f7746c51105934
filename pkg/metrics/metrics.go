package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Server Metrics

	// APIRequestsTotal API请求总数
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// APIRequestDuration API请求处理时长
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Workflow Metrics

	// SparePartRequestsTotal 备件申请创建总数（按初始状态区分自动审批/人工审批）
	SparePartRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spare_part_requests_total",
			Help: "Total number of spare part requests created",
		},
		[]string{"status"},
	)

	// ApprovalDecisionsTotal 审批决定总数
	ApprovalDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_decisions_total",
			Help: "Total number of approval decisions processed",
		},
		[]string{"decision"},
	)

	// ActiveReservations 当前活跃的库存预留数量
	ActiveReservations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stock_reservations_active",
			Help: "Number of currently active stock reservations",
		},
	)

	// ReservationsSweptTotal 被后台扫描释放的过期预留总数
	ReservationsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_reservations_swept_total",
			Help: "Total number of expired reservations released by the sweeper",
		},
	)

	// StockUnavailableTotal 库存不足导致的预留失败总数
	StockUnavailableTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_reservations_unavailable_total",
			Help: "Total number of reservation attempts rejected for insufficient stock",
		},
	)

	// LimitExceededTotal 超出技术员限额的申请总数
	LimitExceededTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "technician_limit_exceeded_total",
			Help: "Total number of requests rejected by technician limits",
		},
		[]string{"scope"},
	)

	// PartsInstalledTotal 完成安装的备件申请总数
	PartsInstalledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spare_parts_installed_total",
			Help: "Total number of spare part requests that reached installed status",
		},
	)
)
