// Package metrics defines and registers the custom Prometheus metrics of the
// marketplace API. It is the single source of truth for metric names, labels
// and help strings. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts request authentication outcomes.
// Labels:
//   - method: "bearer", "basic" or "login"
//   - result: "success" or "failure"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// UsersRegisteredTotal counts new accounts, by role.
var UsersRegisteredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of registered users, by role.",
	},
	[]string{"role"},
)

// ── Ad metrics ────────────────────────────────────────────────────────────────

// AdsCreatedTotal counts ad creations.
// Label:
//   - result: "created" or "replayed" (Idempotency-Key matched an earlier create)
var AdsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ads_created_total",
		Help:      "Total number of ad create requests, by result.",
	},
	[]string{"result"},
)

// AdsDeletedTotal counts deleted ads.
var AdsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ads_deleted_total",
		Help:      "Total number of deleted ads.",
	},
)

// CommentsCreatedTotal counts created comments.
var CommentsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "comments_created_total",
		Help:      "Total number of created comments.",
	},
)

// ImageUploadBytes observes the size of accepted image uploads.
// Label:
//   - collection: "ads" or "users"
var ImageUploadBytes = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "image_upload_bytes",
		Help:      "Size of accepted image uploads in bytes.",
		Buckets:   prometheus.ExponentialBuckets(1<<10, 4, 8), // 1KiB .. 16MiB
	},
	[]string{"collection"},
)

// ── Error metrics ─────────────────────────────────────────────────────────────

// ErrorsTotal counts error responses rendered by the HTTP error handler.
// Label:
//   - kind: "not_found", "forbidden", "unauthenticated", "validation",
//     "conflict", "http" (router/bind errors) or "internal"
var ErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Total number of error responses, by kind.",
	},
	[]string{"kind"},
)
