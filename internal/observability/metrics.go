package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rockae_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache hits and misses by cache name.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rockae_cache_lookups_total",
		Help: "Cache lookups by cache and result",
	}, []string{"cache", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rockae_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DomainEvents counts state changes such as community creation or membership updates.
	DomainEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rockae_domain_events_total",
		Help: "Total domain events by type",
	}, []string{"event"})
)

// Domain event names.
const (
	EventCommunityCreated     = "community_created"
	EventCommunityDeleted     = "community_deleted"
	EventMembershipChanged    = "membership_changed"
	EventOwnershipTransferred = "ownership_transferred"
	EventPaymentPlanSaved     = "payment_plan_saved"
	EventSubscriptionChanged  = "subscription_changed"
	EventTransactionChanged   = "transaction_changed"
	EventWheelHandoffChanged  = "wheel_handoff_changed"
	EventQuizJobChanged       = "quiz_job_changed"
	EventUserCreated          = "user_created"
	EventPollVoteCast         = "poll_vote_cast"
	EventCertificateIssued    = "certificate_issued"
)

// RecordEvent increments the domain event counter.
func RecordEvent(event string) {
	DomainEvents.WithLabelValues(event).Inc()
}

const metricsStartKey = "metrics:start"

// MetricsPlugin is a GORM plugin that records query latency for every statement.
type MetricsPlugin struct{}

// Name implements gorm.Plugin.
func (MetricsPlugin) Name() string {
	return "rockae:metrics"
}

// Initialize registers before/after callbacks around every GORM processor.
func (p MetricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	steps := []error{
		cb.Create().Before("gorm:create").Register("metrics:before_create", startTimer),
		cb.Create().After("gorm:create").Register("metrics:after_create", observe("create")),
		cb.Query().Before("gorm:query").Register("metrics:before_query", startTimer),
		cb.Query().After("gorm:query").Register("metrics:after_query", observe("query")),
		cb.Update().Before("gorm:update").Register("metrics:before_update", startTimer),
		cb.Update().After("gorm:update").Register("metrics:after_update", observe("update")),
		cb.Delete().Before("gorm:delete").Register("metrics:before_delete", startTimer),
		cb.Delete().After("gorm:delete").Register("metrics:after_delete", observe("delete")),
		cb.Row().Before("gorm:row").Register("metrics:before_row", startTimer),
		cb.Row().After("gorm:row").Register("metrics:after_row", observe("row")),
		cb.Raw().Before("gorm:raw").Register("metrics:before_raw", startTimer),
		cb.Raw().After("gorm:raw").Register("metrics:after_raw", observe("raw")),
	}
	for _, err := range steps {
		if err != nil {
			return err
		}
	}
	return nil
}

func startTimer(db *gorm.DB) {
	db.InstanceSet(metricsStartKey, time.Now())
}

func observe(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(metricsStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
