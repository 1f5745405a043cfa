package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "freight_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	operationLatency *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec

	settlementTotal  *prometheus.CounterVec
	settlementAmount prometheus.Counter
	reportBytes      *prometheus.HistogramVec
	importedTrips    prometheus.Counter
	rejectedReports  prometheus.Counter
	rateCacheLookups *prometheus.CounterVec
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		operationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "operation_latency_seconds",
				Help:    "Repository and service operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "result"},
		)
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method and status",
			},
			[]string{"method", "status"},
		)
		settlementTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_operations_total",
				Help: "Total settlement operations by kind and result",
			},
			[]string{"kind", "result"},
		)
		settlementAmount = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_finalized_amount_total",
				Help: "Sum of finalized amounts due over all plates",
			},
		)
		reportBytes = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_size_bytes",
				Help:    "Generated report size in bytes by format",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
			[]string{"format"},
		)
		importedTrips = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "imported_trips_total",
				Help: "Total trips imported from tracker reports",
			},
		)
		rejectedReports = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "rejected_reports_total",
				Help: "Total uploaded reports that could not be parsed",
			},
		)
		rateCacheLookups = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rate_cache_lookups_total",
				Help: "Rate cache lookups by outcome",
			},
			[]string{"outcome"},
		)

		prometheus.MustRegister(
			operationLatency,
			httpRequests,
			settlementTotal,
			settlementAmount,
			reportBytes,
			importedTrips,
			rejectedReports,
			rateCacheLookups,
		)
	})
}

// ObserveOperation records an operation duration. No-op before Init.
func ObserveOperation(op, result string, d time.Duration) {
	if operationLatency != nil {
		operationLatency.WithLabelValues(op, result).Observe(d.Seconds())
	}
}

func IncHTTPRequest(method, status string) {
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, status).Inc()
	}
}

// IncSettlement counts preview, finalize, delete and report operations.
func IncSettlement(kind, result string) {
	if settlementTotal != nil {
		settlementTotal.WithLabelValues(kind, result).Inc()
	}
}

func AddFinalizedAmount(amount float64) {
	if settlementAmount != nil && amount > 0 {
		settlementAmount.Add(amount)
	}
}

func ObserveReportSize(format string, n int) {
	if reportBytes != nil {
		reportBytes.WithLabelValues(format).Observe(float64(n))
	}
}

func AddImportedTrips(n int) {
	if importedTrips != nil && n > 0 {
		importedTrips.Add(float64(n))
	}
}

func AddRejectedReports(n int) {
	if rejectedReports != nil && n > 0 {
		rejectedReports.Add(float64(n))
	}
}

// IncRateCache counts "hit", "miss" and "error" outcomes.
func IncRateCache(outcome string) {
	if rateCacheLookups != nil {
		rateCacheLookups.WithLabelValues(outcome).Inc()
	}
}
