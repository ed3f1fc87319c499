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
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a Router at Create time.
type Option func(*Router)

// WithLogger sets the logger used for navigation/fetcher diagnostics.
// Default is a no-op logger (slog.New(slog.DiscardHandler) equivalent),
// mirroring the teacher's diagnostics default of "off unless configured".
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithBasename sets the path prefix stripped from every URL before
// matching (spec.md §4.1). Must prefix the history's initial location
// pathname or Create returns ErrUnknownBasename.
func WithBasename(basename string) Option {
	return func(r *Router) {
		r.basename = basename
	}
}

// WithHydrationData seeds the initial RouterState with server-rendered
// data, skipping loaders for routes it already covers (spec.md §6
// "Hydration data").
func WithHydrationData(data *HydrationData) Option {
	return func(r *Router) {
		r.hydrationData = data
	}
}

// WithObserver installs a NavigationObserver for lifecycle hooks. Default
// is NoopObserver().
func WithObserver(observer NavigationObserver) Option {
	return func(r *Router) {
		if observer != nil {
			r.observer = observer
		}
	}
}

// WithMetricsRecorder installs a MetricsRecorder. Default is
// NoopMetricsRecorder(); see PrometheusRecorder for a ready-made one.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(r *Router) {
		if recorder != nil {
			r.metrics = recorder
		}
	}
}

// WithTracer installs an OpenTelemetry trace.Tracer for per-navigation
// spans. Default is a no-op tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Router) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithScrollRestoration enables scroll-position bookkeeping
// (spec.md §6 "enableScrollRestoration"), equivalent to calling
// EnableScrollRestoration immediately after Create.
func WithScrollRestoration(getKey func(loc Location) string) Option {
	return func(r *Router) {
		r.scrollGetKey = getKey
		r.scrollEnabled = true
	}
}
