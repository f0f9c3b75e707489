// Package metrics provides Prometheus instrumentation for the agent loop
// and its HTTP surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the process metrics. Each collector registers against its
// own registry so tests can instantiate freely.
type Collector struct {
	registry *prometheus.Registry

	chatTotal      *prometheus.CounterVec
	chatIterations prometheus.Histogram
	chatDuration   prometheus.Histogram

	toolExecutions *prometheus.CounterVec
	toolDuration   *prometheus.HistogramVec

	tokensUsed *prometheus.CounterVec
	costUSD    prometheus.Counter

	wsClients prometheus.Gauge
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,

		chatTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_invocations_total",
			Help:      "Total chat invocations by outcome.",
		}, []string{"outcome"}),

		chatIterations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_iterations",
			Help:      "Provider round trips per chat invocation.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),

		chatDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_duration_seconds",
			Help:      "Wall clock duration of chat invocations.",
			Buckets:   prometheus.DefBuckets,
		}),

		toolExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_executions_total",
			Help:      "Total tool executions by tool and outcome.",
		}, []string{"tool", "outcome"}),

		toolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Tool execution duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),

		tokensUsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Tokens consumed by kind (prompt, completion).",
		}, []string{"kind"}),

		costUSD: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimated_cost_usd_total",
			Help:      "Estimated USD cost of all provider calls.",
		}),

		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Currently connected websocket clients.",
		}),
	}
}

// ChatOutcome values.
const (
	OutcomeCompleted = "completed"
	OutcomeAborted   = "aborted"
	OutcomeFailed    = "failed"
)

// ObserveChat records one finished chat invocation.
func (c *Collector) ObserveChat(outcome string, iterations int, duration time.Duration) {
	c.chatTotal.WithLabelValues(outcome).Inc()
	if iterations > 0 {
		c.chatIterations.Observe(float64(iterations))
	}
	c.chatDuration.Observe(duration.Seconds())
}

// ObserveTool records one tool execution.
func (c *Collector) ObserveTool(tool string, failed bool, duration time.Duration) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	c.toolExecutions.WithLabelValues(tool, outcome).Inc()
	c.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// ObserveUsage records token and cost totals from one chat invocation.
func (c *Collector) ObserveUsage(promptTokens, completionTokens int, costUSD float64) {
	c.tokensUsed.WithLabelValues("prompt").Add(float64(promptTokens))
	c.tokensUsed.WithLabelValues("completion").Add(float64(completionTokens))
	c.costUSD.Add(costUSD)
}

// SetWSClients records the current websocket client count.
func (c *Collector) SetWSClients(n int) {
	c.wsClients.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
