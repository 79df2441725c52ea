// Package metrics exposes Prometheus metrics for documents and oracle
// traffic.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/OFFIS-RIT/ned/pkg/oracle"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DocumentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ned_documents_processed_total",
			Help: "Total number of disambiguated documents",
		},
		[]string{"status"}, // "completed", "failed"
	)

	DisambiguationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ned_disambiguation_duration_seconds",
			Help:    "Duration of disambiguating one document",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	OracleRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ned_oracle_requests_total",
			Help: "Total number of knowledge-base lookups",
		},
		[]string{"kind", "outcome"}, // kind: candidates, links, backlinks
	)

	OracleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ned_oracle_request_duration_seconds",
			Help:    "Duration of knowledge-base lookups",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordDocument counts one processed document.
func RecordDocument(err error, duration time.Duration) {
	status := "completed"
	if err != nil {
		status = "failed"
	}
	DocumentsProcessed.WithLabelValues(status).Inc()
	DisambiguationDuration.Observe(duration.Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case oracle.IsTransient(err):
		return "transient"
	case oracle.IsMalformed(err):
		return "malformed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func recordOracle(kind string, start time.Time, err error) {
	OracleRequests.WithLabelValues(kind, outcome(err)).Inc()
	OracleDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

type candidates struct{ inner oracle.CandidateProvider }

func (c candidates) GetCandidates(ctx context.Context, mention string) ([]string, error) {
	start := time.Now()
	out, err := c.inner.GetCandidates(ctx, mention)
	recordOracle("candidates", start, err)
	return out, err
}

type links struct{ inner oracle.LinkOracle }

func (l links) OutgoingLinks(ctx context.Context, title string) (oracle.LinkSet, error) {
	start := time.Now()
	out, err := l.inner.OutgoingLinks(ctx, title)
	recordOracle("links", start, err)
	return out, err
}

type backlinks struct{ inner oracle.PopularityOracle }

func (b backlinks) BacklinkPage(ctx context.Context, title string, continuation string) (oracle.BacklinkPage, error) {
	start := time.Now()
	out, err := b.inner.BacklinkPage(ctx, title, continuation)
	recordOracle("backlinks", start, err)
	return out, err
}

func InstrumentCandidates(p oracle.CandidateProvider) oracle.CandidateProvider {
	if p == nil {
		return nil
	}
	return candidates{p}
}

func InstrumentLinks(l oracle.LinkOracle) oracle.LinkOracle {
	if l == nil {
		return nil
	}
	return links{l}
}

func InstrumentBacklinks(p oracle.PopularityOracle) oracle.PopularityOracle {
	if p == nil {
		return nil
	}
	return backlinks{p}
}

// Instrument wraps every member of o.
func Instrument(o oracle.Oracles) oracle.Oracles {
	return oracle.Oracles{
		Candidates: InstrumentCandidates(o.Candidates),
		Links:      InstrumentLinks(o.Links),
		Popularity: InstrumentBacklinks(o.Popularity),
	}
}
