package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "snake"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_in_flight_requests",
		Help:      "Current number of in-flight HTTP requests",
	})

	scoresSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scores_submitted_total",
		Help:      "Scores accepted, by game mode and ingestion source",
	}, []string{"mode", "source"})

	leaderboardReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leaderboard_reads_total",
		Help:      "Leaderboard reads, by cache outcome (hit, miss, bypass)",
	}, []string{"cache"})

	leaderboardLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "leaderboard_query_duration_seconds",
		Help:      "Time spent ranking scores in the store",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	signupConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signup_conflicts_total",
		Help:      "Signups rejected because the username or email was taken",
	}, []string{"field"})
)

// ScoreSubmitted counts an accepted score.
func ScoreSubmitted(mode, source string) {
	scoresSubmitted.WithLabelValues(mode, source).Inc()
}

// LeaderboardRead counts a leaderboard read with its cache outcome.
func LeaderboardRead(cache string) {
	leaderboardReads.WithLabelValues(cache).Inc()
}

// ObserveLeaderboardQuery records how long a store ranking query took.
func ObserveLeaderboardQuery(d time.Duration) {
	leaderboardLatency.Observe(d.Seconds())
}

// SignupConflict counts a signup rejected on a unique field.
func SignupConflict(field string) {
	signupConflicts.WithLabelValues(field).Inc()
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// unmatchedRoute labels requests no chi route matched, so arbitrary 404 paths
// share one series.
const unmatchedRoute = "unmatched"

// Middleware records request metrics labelled by chi route pattern, which keeps
// ids in paths like /scores/{id} from exploding label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		labels := prometheus.Labels{
			"method": r.Method,
			"route":  route,
			"status": strconv.Itoa(rec.status),
		}
		httpRequests.With(labels).Inc()
		httpLatency.With(labels).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
