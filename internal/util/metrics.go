package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StockInTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_in_units_total",
		Help: "Total units registered into hub inventories",
	})

	StockOutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_out_units_total",
		Help: "Total units consumed from hub inventories",
	})

	BatchMergeConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batch_merge_conflicts_total",
		Help: "Duplicate-key batch creation races recovered by merging",
	})

	InsufficientStockTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "insufficient_stock_total",
		Help: "Dispatch attempts rejected for insufficient stock",
	})

	DispatchesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatches_created_total",
		Help: "Total number of dispatches created",
	})

	DispatchesCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatches_completed_total",
		Help: "Total number of dispatches received and reconciled",
	})

	DispatchesCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatches_cancelled_total",
		Help: "Total number of cancelled dispatches",
	})

	ResourceAssignmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resource_assignments_total",
		Help: "Driver/vehicle pairs assigned to dispatches",
	})

	ResourceShortageTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resource_shortage_total",
		Help: "Assignment attempts that found no idle resource",
	}, []string{"resource"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
