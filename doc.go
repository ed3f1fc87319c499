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

// Package wayfarer provides a framework-agnostic, data-aware client-side
// routing engine: it owns a location, matches URLs against a nested route
// tree, orchestrates loaders and actions for each navigation, and exposes
// an observable, serializable state snapshot.
//
// # Key Features
//
//   - Static, dynamic (":param"), optional, and splat ("*") route matching
//   - Parallel loader/action invocation with cancellation on interruption
//   - Streamed ("deferred") loader values with partial commit
//   - A revalidation planner with a per-route override hook
//   - An independent, keyed Fetcher Registry for non-navigational data
//   - A stateless Static Handler for server-side rendering
//
// # Constructor Pattern
//
//   - Create returns (*Router, error) because factory-time validation can
//     fail (empty route tree, duplicate ids, an unknown basename).
//   - MustCreate panics instead, for callers that treat those as program
//     bugs rather than recoverable conditions.
//   - All configuration uses the "With" prefix (WithLogger, WithBasename,
//     WithObserver, WithMetricsRecorder, WithTracer).
//
// # Quick Start
//
//	routes, _ := route.Build([]*route.Route{
//	    {Path: "/", Loader: func(ctx context.Context, req *route.Request) (any, error) {
//	        return "ROOT", nil
//	    }},
//	})
//	h := history.NewMemory(history.Location{Pathname: "/"}, 0)
//	r, err := wayfarer.Create(routes, h)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	unsubscribe := r.Subscribe(func(state wayfarer.RouterState) {
//	    fmt.Println(state.Location.Pathname)
//	})
//	defer unsubscribe()
//	r.Initialize(context.Background())
//
// # Observability
//
// OpenTelemetry tracing and Prometheus metrics are both optional and
// injected the same way:
//
//	r, err := wayfarer.Create(routes, h,
//	    wayfarer.WithTracer(tracer),
//	    wayfarer.WithMetricsRecorder(wayfarer.NewPrometheusRecorder(promclient.DefaultRegisterer)),
//	)
package wayfarer
