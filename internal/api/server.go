package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentralabs/agentic-identity-sub001/internal/config"
)

// Metrics are the Prometheus counters the demo binary updates as it
// exercises the core — anchors rotated, receipts signed/verified, grants
// issued/revoked. This is ambient operations surface around the core; the
// core packages themselves never import prometheus.
type Metrics struct {
	AnchorsCreated   prometheus.Counter
	AnchorsRotated   prometheus.Counter
	ReceiptsSigned   prometheus.Counter
	ReceiptsVerified prometheus.Counter
	GrantsIssued     prometheus.Counter
	GrantsRevoked    prometheus.Counter
}

// NewMetrics registers the demo binary's counters against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AnchorsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentic_identity_anchors_created_total",
			Help: "Identity anchors created.",
		}),
		AnchorsRotated: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentic_identity_anchors_rotated_total",
			Help: "Identity anchor key rotations performed.",
		}),
		ReceiptsSigned: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentic_identity_receipts_signed_total",
			Help: "Action receipts built and signed.",
		}),
		ReceiptsVerified: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentic_identity_receipts_verified_total",
			Help: "Action receipts verified.",
		}),
		GrantsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentic_identity_grants_issued_total",
			Help: "Trust grants issued.",
		}),
		GrantsRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentic_identity_grants_revoked_total",
			Help: "Trust grants revoked.",
		}),
	}
}

// Router builds the demo binary's HTTP surface: health, readiness, and
// (when enabled) Prometheus metrics.
func Router(cfg *config.Config, reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	if cfg.Metrics.Enable {
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	return mux
}
