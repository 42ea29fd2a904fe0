package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	documentsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_created_total",
			Help: "Total number of documents created",
		},
		[]string{"type"}, // mr, po
	)

	approvalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approvals_total",
			Help: "Total number of approval operations",
		},
		[]string{"type", "action"}, // validate, approve, reject, ...
	)

	budgetDebitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "budget_debits_total",
			Help: "Total number of cost center debits fired by MR approval",
		},
	)

	budgetDebitedAmount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "budget_debited_amount_total",
			Help: "Total rupiah debited from cost centers",
		},
	)

	negativeCostCenters = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cost_centers_negative_balance",
			Help: "Number of cost centers currently below zero",
		},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of notification deliveries by outcome",
		},
		[]string{"outcome"}, // sent, failed
	)

	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)
)

var once sync.Once

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(documentsCreatedTotal)
	prometheus.MustRegister(approvalsTotal)
	prometheus.MustRegister(budgetDebitsTotal)
	prometheus.MustRegister(budgetDebitedAmount)
	prometheus.MustRegister(negativeCostCenters)
	prometheus.MustRegister(notificationsTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)

	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest records one HTTP request.
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordDocumentCreated records an MR or PO creation.
func RecordDocumentCreated(docType string) {
	documentsCreatedTotal.WithLabelValues(docType).Inc()
}

// RecordApproval records one workflow action on a document type.
func RecordApproval(docType, action string) {
	approvalsTotal.WithLabelValues(docType, action).Inc()
}

// RecordBudgetDebit records a fired budget debit.
func RecordBudgetDebit(amount int64) {
	budgetDebitsTotal.Inc()
	budgetDebitedAmount.Add(float64(amount))
}

// RecordNotification records one notification delivery outcome.
func RecordNotification(outcome string) {
	notificationsTotal.WithLabelValues(outcome).Inc()
}

// SetNegativeCostCenters updates the negative-balance gauge.
func SetNegativeCostCenters(count float64) {
	negativeCostCenters.Set(count)
}

// UpdateDatabaseConnections refreshes the DB pool gauges.
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}
