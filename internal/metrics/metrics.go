// Package metrics exposes Regenmon gameplay counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regenmon",
			Name:      "actions_total",
			Help:      "Care actions by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	chatRepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regenmon",
			Name:      "chat_replies_total",
			Help:      "Pet chat replies by responder.",
		},
		[]string{"offline"},
	)

	coinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regenmon",
			Name:      "coins_total",
			Help:      "Coins earned and spent.",
		},
		[]string{"direction"},
	)

	evaluationScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "regenmon",
			Name:      "training_score",
			Help:      "Training evaluation scores.",
			Buckets:   []float64{20, 40, 60, 80, 100},
		},
		[]string{"fallback"},
	)

	hubSyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regenmon",
			Subsystem: "hub",
			Name:      "syncs_total",
			Help:      "HUB sync attempts by result.",
		},
		[]string{"result"},
	)

	nudgesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "regenmon",
			Name:      "nudges_total",
			Help:      "Distress nudges sent to players.",
		},
	)

	sessionsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "regenmon",
			Name:      "sessions_loaded",
			Help:      "Player sessions currently in memory.",
		},
	)
)

// Recorder feeds the package counters. The zero value is ready to use.
type Recorder struct{}

func (Recorder) Action(action, outcome string) {
	actionsTotal.WithLabelValues(action, outcome).Inc()
}

func (Recorder) ChatReply(offline bool) {
	chatRepliesTotal.WithLabelValues(strconv.FormatBool(offline)).Inc()
}

func (Recorder) CoinsChanged(amount int) {
	switch {
	case amount > 0:
		coinsTotal.WithLabelValues("earned").Add(float64(amount))
	case amount < 0:
		coinsTotal.WithLabelValues("spent").Add(float64(-amount))
	}
}

func (Recorder) Evaluation(score int, fallback bool) {
	evaluationScore.WithLabelValues(strconv.FormatBool(fallback)).Observe(float64(score))
}

func (Recorder) HubSync(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	hubSyncsTotal.WithLabelValues(result).Inc()
}

func (Recorder) Nudge() { nudgesTotal.Inc() }

func (Recorder) Sessions(n int) { sessionsLoaded.Set(float64(n)) }

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler { return promhttp.Handler() }

// Serve exposes /metrics on addr until ctx is cancelled. A blank addr
// disables the endpoint.
func Serve(ctx context.Context, addr string, log *slog.Logger) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics: listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
