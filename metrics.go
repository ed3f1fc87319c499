// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wayfarer

import (
	promclient "github.com/prometheus/client_golang/prometheus"
)

// MetricsRecorder records quantitative engine events. The engine never
// requires Prometheus: the default recorder is a no-op, and any
// implementation (Prometheus, OTel metrics, a test spy) may be injected
// via WithMetricsRecorder.
type MetricsRecorder interface {
	// NavigationOutcome records a completed navigation's terminal state:
	// the engine reports "committed" for a commit and "error" for an
	// unmatched URL; a superseded or redirecting navigation is not reported.
	NavigationOutcome(outcome string)
	// FetcherOperation records a fetcher call by HTTP-style verb ("get" or
	// "post").
	FetcherOperation(verb string)
	// DeferredSettled records a tracked deferred value's terminal state:
	// "resolved", "rejected", or "aborted".
	DeferredSettled(status string)
}

type noopRecorder struct{}

func (noopRecorder) NavigationOutcome(string) {}
func (noopRecorder) FetcherOperation(string)  {}
func (noopRecorder) DeferredSettled(string)   {}

// NoopMetricsRecorder returns the default no-op MetricsRecorder.
func NoopMetricsRecorder() MetricsRecorder { return noopRecorder{} }

// PrometheusRecorder is a MetricsRecorder backed by
// github.com/prometheus/client_golang, grounded on the teacher's own
// Prometheus wiring (metrics.go). NewPrometheusRecorder registers its
// collectors with the Registerer the caller passes in; the engine never
// starts an HTTP server for /metrics itself.
type PrometheusRecorder struct {
	navigations *promclient.CounterVec
	fetchers    *promclient.CounterVec
	deferreds   *promclient.CounterVec
}

// NewPrometheusRecorder creates a PrometheusRecorder and registers its
// collectors with reg. Pass promclient.DefaultRegisterer to use the
// global registry.
func NewPrometheusRecorder(reg promclient.Registerer) *PrometheusRecorder {
	p := &PrometheusRecorder{
		navigations: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: "wayfarer",
			Name:      "navigations_total",
			Help:      "Navigations by terminal outcome.",
		}, []string{"outcome"}),
		fetchers: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: "wayfarer",
			Name:      "fetcher_operations_total",
			Help:      "Fetcher operations by verb.",
		}, []string{"verb"}),
		deferreds: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: "wayfarer",
			Name:      "deferred_settlements_total",
			Help:      "Deferred field settlements by terminal status.",
		}, []string{"status"}),
	}
	reg.MustRegister(p.navigations, p.fetchers, p.deferreds)
	return p
}

func (p *PrometheusRecorder) NavigationOutcome(outcome string) {
	p.navigations.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) FetcherOperation(verb string) {
	p.fetchers.WithLabelValues(verb).Inc()
}

func (p *PrometheusRecorder) DeferredSettled(status string) {
	p.deferreds.WithLabelValues(status).Inc()
}
