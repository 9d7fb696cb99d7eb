// Package metrics содержит прометеевские метрики движка подписок.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы обработки колбэка шлюза.
const (
	OutcomeActivated  = "activated"
	OutcomeDuplicate  = "duplicate"
	OutcomeRejected   = "rejected"
	OutcomeUnverified = "unverified"
	OutcomeFailed     = "failed"
)

// WebhookEvents считает обработанные колбэки платёжного шлюза по исходам.
var WebhookEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Processed payment gateway callbacks by outcome.",
	},
	[]string{"outcome"},
)

// PremiumCorrections считает ленивые коррекции премиум-флага.
var PremiumCorrections = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "premium_flag_corrections_total",
		Help: "Premium flags lowered by lazy expiry correction.",
	},
)
