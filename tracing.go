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
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// defaultTracer is used when no WithTracer option is supplied; its spans
// are always no-ops, so tracing is entirely opt-in (grounded on the
// teacher's tracing.go, which defaults to otel.Tracer(...) against
// whatever global TracerProvider is configured — here we default to the
// no-op provider explicitly rather than relying on a global).
func defaultTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("github.com/wayfarer-dev/wayfarer")
}

// startNavigationSpan opens the "wayfarer.navigate" span for one
// navigationId, recording the target location as an attribute.
func startNavigationSpan(ctx context.Context, tracer trace.Tracer, navigationID, location string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "wayfarer.navigate",
		trace.WithAttributes(
			attribute.String("wayfarer.navigation_id", navigationID),
			attribute.String("wayfarer.location", location),
		),
	)
}

// startFetchSpan opens the "wayfarer.fetch" span for one fetcher call.
func startFetchSpan(ctx context.Context, tracer trace.Tracer, key, routeID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "wayfarer.fetch",
		trace.WithAttributes(
			attribute.String("wayfarer.fetcher_key", key),
			attribute.String("wayfarer.route_id", routeID),
		),
	)
}

// startStaticQuerySpan opens the "wayfarer.static.query" span.
func startStaticQuerySpan(ctx context.Context, tracer trace.Tracer, url string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "wayfarer.static.query",
		trace.WithAttributes(attribute.String("wayfarer.url", url)),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
