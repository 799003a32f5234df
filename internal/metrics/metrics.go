// Package metrics records migration runs as Prometheus metrics.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/AndyHydro/plasma-contracts/internal/deploy"
)

const namespace = "plasma_migrate"

// Collector holds the run metrics on its own registry. A collector serves a
// single network; Push carries the network as a grouping key.
type Collector struct {
	registry *prometheus.Registry

	runsTotal    *prometheus.CounterVec
	stepsTotal   *prometheus.CounterVec
	gasUsedTotal *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	lastRun      *prometheus.GaugeVec
}

// New creates a collector with a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total migration runs by outcome",
			},
			[]string{"status"},
		),
		stepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_total",
				Help:      "Total deployment steps by outcome",
			},
			[]string{"status"},
		),
		gasUsedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gas_used_total",
				Help:      "Gas used by confirmed contract creations",
			},
			[]string{"contract"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Time from submission to confirmation of a deployment",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 15, 30, 60, 120, 300},
			},
			[]string{"contract"},
		),
		lastRun: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last run finished",
			},
			[]string{"status"},
		),
	}
}

// Registry returns the registry the collectors are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe is a deploy.Observer.
func (c *Collector) Observe(_ context.Context, ev deploy.Event) {
	switch ev.Kind {
	case deploy.EventStepCompleted:
		c.stepsTotal.WithLabelValues("completed").Inc()
		if ev.Entry != nil {
			c.gasUsedTotal.WithLabelValues(ev.Entry.Contract).Add(float64(ev.Entry.GasUsed))
			c.stepDuration.WithLabelValues(ev.Entry.Contract).Observe(ev.Entry.Duration.Seconds())
		}
	case deploy.EventStepFailed:
		c.stepsTotal.WithLabelValues("failed").Inc()
	case deploy.EventRunCompleted:
		c.runsTotal.WithLabelValues("completed").Inc()
		c.lastRun.WithLabelValues("completed").Set(float64(ev.At.Unix()))
	case deploy.EventRunFailed:
		c.runsTotal.WithLabelValues("failed").Inc()
		c.lastRun.WithLabelValues("failed").Set(float64(ev.At.Unix()))
	}
}

// Push sends the registry to a Pushgateway under job, grouped by network.
func (c *Collector) Push(ctx context.Context, url, job, network string, client *http.Client) error {
	if client == nil {
		client = http.DefaultClient
	}
	pusher := push.New(url, job).
		Gatherer(c.registry).
		Grouping("network", network).
		Client(&ctxClient{ctx: ctx, client: client})
	if err := pusher.Push(); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// ctxClient binds requests made by the pusher to ctx.
type ctxClient struct {
	ctx    context.Context
	client *http.Client
}

func (c *ctxClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}
