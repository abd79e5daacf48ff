// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vidvault"

var (
	// HTTPRequestsTotal counts served HTTP requests.
	// Labels:
	//   - method: GET, POST, ...
	//   - route: chi route pattern, e.g. /videos/{id}
	//   - status: response status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes request latency per route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// CacheOperationsTotal tracks cache operations (get, set, delete).
	// Labels:
	//   - operation: get, set, delete
	//   - status: hit, miss, success, error
	//   - cache_type: redis
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "status", "cache_type"},
	)

	// DBQueriesTotal tracks document store queries.
	// Labels:
	//   - query_type: select, insert, update, delete
	//   - table: document collection name
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_queries_total",
			Help:      "Total number of database queries",
		},
		[]string{"query_type", "table"},
	)

	// BlobOperationsTotal tracks blob store operations.
	// Labels:
	//   - operation: put, get, stat, delete
	//   - status: success, not_found, error
	BlobOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blob_operations_total",
			Help:      "Total number of blob store operations",
		},
		[]string{"operation", "status"},
	)

	// BlobBytesTotal counts bytes moved through the blob store.
	// Labels:
	//   - direction: in, out
	BlobBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blob_bytes_total",
			Help:      "Total number of bytes uploaded to or downloaded from the blob store",
		},
		[]string{"direction"},
	)

	// EventsTotal tracks published and consumed domain events.
	// Labels:
	//   - direction: published, consumed
	//   - event_type: video.updated, creator.deleted, ...
	//   - status: success, error, dropped
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Total number of domain events published or consumed",
		},
		[]string{"direction", "event_type", "status"},
	)

	// SingleflightRequestsTotal tracks singleflight behavior.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet    = "get"
	CacheOpSet    = "set"
	CacheOpDelete = "delete"
)

// Cache type constants.
const (
	CacheTypeRedis = "redis"
)

// DB query type constants.
const (
	DBQuerySelect = "select"
	DBQueryInsert = "insert"
	DBQueryUpdate = "update"
	DBQueryDelete = "delete"
)

// Blob operation constants.
const (
	BlobOpPut    = "put"
	BlobOpGet    = "get"
	BlobOpStat   = "stat"
	BlobOpDelete = "delete"

	BlobStatusSuccess  = "success"
	BlobStatusNotFound = "not_found"
	BlobStatusError    = "error"

	BlobDirectionIn  = "in"
	BlobDirectionOut = "out"
)

// Event constants.
const (
	EventDirectionPublished = "published"
	EventDirectionConsumed  = "consumed"

	EventStatusSuccess = "success"
	EventStatusError   = "error"
	EventStatusDropped = "dropped"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)
