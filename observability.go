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

import "context"

// NavigationObserver provides lifecycle hooks around each navigation
// attempt, mirroring the three pillars of observability (metrics, tracing,
// logging) the way a router's request lifecycle does: a start hook that
// may enrich the context, and an end hook carrying the outcome.
//
// Thread safety: implementations must be safe for concurrent use — fetcher
// operations and navigations may call these concurrently.
type NavigationObserver interface {
	// OnNavigationStart is called when a navigationId begins processing
	// (navigate, revalidate, or a POP). Returns an enriched context (e.g.
	// carrying a trace span) propagated to every loader/action of this
	// navigation.
	OnNavigationStart(ctx context.Context, navigationID string, location string) context.Context

	// OnNavigationEnd is called once a navigation commits: outcome is
	// "committed", or "error" for an unmatched URL. A navigation that is
	// superseded, or that redirects, ends without this call.
	OnNavigationEnd(ctx context.Context, navigationID string, outcome string)

	// OnFetcherEnd is called when a fetcher operation settles.
	OnFetcherEnd(ctx context.Context, key string, outcome string)
}

// noopObserver implements NavigationObserver with no side effects; it is
// the engine's default so callers never have to supply one.
type noopObserver struct{}

func (noopObserver) OnNavigationStart(ctx context.Context, _ string, _ string) context.Context {
	return ctx
}
func (noopObserver) OnNavigationEnd(context.Context, string, string) {}
func (noopObserver) OnFetcherEnd(context.Context, string, string)    {}

// NoopObserver returns the default no-op NavigationObserver.
func NoopObserver() NavigationObserver { return noopObserver{} }
