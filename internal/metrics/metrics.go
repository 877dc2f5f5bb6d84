// Package metrics exports crawl counters in the Prometheus text format so a
// node_exporter textfile collector can pick them up after each run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gnomegl/iceslurp/internal/spider"
	"github.com/gnomegl/iceslurp/internal/store"
)

const namespace = "iceslurp"

type Metrics struct {
	registry *prometheus.Registry

	seeds           prometheus.Counter
	cacheHits       prometheus.Counter
	foreignersFound prometheus.Counter
	localsCreated   prometheus.Counter
	unresolved      prometheus.Counter
	lookupBatches   prometheus.Counter
	retries         prometheus.Counter
	expansions      *prometheus.CounterVec
	followersSeen   prometheus.Counter

	locals          prometheus.Gauge
	foreigners      prometheus.Gauge
	edges           prometheus.Gauge
	unexpanded      prometheus.Gauge
	runSeconds      prometheus.Gauge
	budgetExhausted prometheus.Gauge
	lastRun         prometheus.Gauge
}

func New() *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),

		seeds:           counter("seeds_found_total", "New local accounts found by the seed search."),
		cacheHits:       counter("cache_hits_total", "Candidates classified from stored state without a remote lookup."),
		foreignersFound: counter("foreigners_found_total", "Accounts newly classified as foreign."),
		localsCreated:   counter("locals_created_total", "Accounts newly classified as local."),
		unresolved:      counter("unresolved_total", "Looked up ids the remote did not return."),
		lookupBatches:   counter("lookup_batches_total", "Batched account lookups sent to the remote."),
		retries:         counter("remote_retries_total", "Remote calls retried after a transient fault."),
		expansions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expansions_total",
			Help:      "Account expansions by outcome.",
		}, []string{"outcome"}),
		followersSeen: counter("followers_seen_total", "Follower entries returned by follower listings."),

		locals:          gauge("local_accounts", "Local accounts in the relationship store."),
		foreigners:      gauge("foreign_accounts", "Accounts in the foreigner cache."),
		edges:           gauge("follower_edges", "Recorded local follower edges."),
		unexpanded:      gauge("unexpanded_accounts", "Local accounts whose follower list is still empty."),
		runSeconds:      gauge("run_duration_seconds", "Wall-clock duration of the last run."),
		budgetExhausted: gauge("budget_exhausted", "1 if the last run stopped on its time budget."),
		lastRun:         gauge("last_run_timestamp_seconds", "Unix time the last run finished."),
	}

	m.registry.MustRegister(
		m.seeds, m.cacheHits, m.foreignersFound, m.localsCreated, m.unresolved,
		m.lookupBatches, m.retries, m.expansions, m.followersSeen,
		m.locals, m.foreigners, m.edges, m.unexpanded,
		m.runSeconds, m.budgetExhausted, m.lastRun,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) SeedsFound(n int) {
	m.seeds.Add(float64(n))
}

func (m *Metrics) Retry() {
	m.retries.Inc()
}

func (m *Metrics) ObserveIngest(r spider.IngestResult) {
	m.cacheHits.Add(float64(r.CacheHits))
	m.foreignersFound.Add(float64(r.ForeignersFound))
	m.localsCreated.Add(float64(r.LocalsCreated))
	m.unresolved.Add(float64(r.Unresolved))
	m.lookupBatches.Add(float64(r.Batches))
}

func (m *Metrics) ObserveExpand(r spider.ExpandResult, err error) {
	m.ObserveIngest(r.Ingest)
	m.followersSeen.Add(float64(r.Followers))

	outcome := "complete"
	switch {
	case err != nil:
		outcome = "failed"
	case r.Truncated:
		outcome = "truncated"
	}
	m.expansions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveState(s *store.State) {
	m.locals.Set(float64(s.Relationships.Len()))
	m.foreigners.Set(float64(s.Foreigners.Len()))
	m.edges.Set(float64(s.Relationships.EdgeCount()))
	m.unexpanded.Set(float64(len(s.Relationships.Unexpanded())))
}

func (m *Metrics) Finish(elapsed time.Duration, stoppedByBudget bool) {
	m.runSeconds.Set(elapsed.Seconds())
	if stoppedByBudget {
		m.budgetExhausted.Set(1)
	} else {
		m.budgetExhausted.Set(0)
	}
	m.lastRun.SetToCurrentTime()
}

// WriteTextfile writes every metric to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
