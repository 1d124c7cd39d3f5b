// Package metrics exposes Prometheus instrumentation for the trading loops.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "coinsniper"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	buys            *prometheus.CounterVec
	sells           *prometheus.CounterVec
	sellFailures    prometheus.Counter
	openPositions   prometheus.Gauge
	priceLookups    *prometheus.CounterVec
	feedErrors      prometheus.Counter
	entryCaptured   *prometheus.CounterVec
	ingestCycles    prometheus.Counter
	monitorTicks    prometheus.Counter
	candidatesFound prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		buys: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "buys_total",
				Help:      "Buy commands by delivery result (sent|failed).",
			},
			[]string{"result"},
		),
		sells: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sells_total",
				Help:      "Delivered sell commands by exit rule.",
			},
			[]string{"reason"},
		),
		sellFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sell_failures_total",
			Help:      "Sell commands that could not be delivered.",
		}),
		openPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_positions",
			Help:      "Positions not yet fully exited.",
		}),
		priceLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "price_lookups_total",
				Help:      "Spot price lookups by result (ok|unavailable|error).",
			},
			[]string{"result"},
		),
		feedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_errors_total",
			Help:      "Feed reads that failed for a handle.",
		}),
		entryCaptured: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entry_captured_total",
				Help:      "Entry prices filled in after the buy, by source.",
			},
			[]string{"source"},
		),
		ingestCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_cycles_total",
			Help:      "Completed scans over every monitored handle.",
		}),
		monitorTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_ticks_total",
			Help:      "Completed price monitoring ticks.",
		}),
		candidatesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Token identifiers extracted from posts, duplicates included.",
		}),
	}

	reg.MustRegister(
		m.buys, m.sells, m.sellFailures, m.openPositions, m.priceLookups,
		m.feedErrors, m.entryCaptured, m.ingestCycles, m.monitorTicks,
		m.candidatesFound,
	)
	return m
}

func (m *Metrics) BuySent() {
	if m != nil {
		m.buys.WithLabelValues("sent").Inc()
	}
}

func (m *Metrics) BuyFailed() {
	if m != nil {
		m.buys.WithLabelValues("failed").Inc()
	}
}

func (m *Metrics) Sell(reason string) {
	if m != nil {
		m.sells.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) SellFailed() {
	if m != nil {
		m.sellFailures.Inc()
	}
}

func (m *Metrics) SetOpenPositions(n int) {
	if m != nil {
		m.openPositions.Set(float64(n))
	}
}

// PriceLookup records a lookup outcome: "ok", "unavailable" or "error".
func (m *Metrics) PriceLookup(result string) {
	if m != nil {
		m.priceLookups.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) FeedError() {
	if m != nil {
		m.feedErrors.Inc()
	}
}

func (m *Metrics) EntryCaptured(source string) {
	if m != nil {
		m.entryCaptured.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) IngestCycle() {
	if m != nil {
		m.ingestCycles.Inc()
	}
}

func (m *Metrics) MonitorTick() {
	if m != nil {
		m.monitorTicks.Inc()
	}
}

func (m *Metrics) Candidates(n int) {
	if m != nil && n > 0 {
		m.candidatesFound.Add(float64(n))
	}
}

// Serve exposes /metrics and /healthz on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("📈 Serving metrics", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	}
}
