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
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"

	"github.com/wayfarer-dev/wayfarer/fetch"
	"github.com/wayfarer-dev/wayfarer/history"
	"github.com/wayfarer-dev/wayfarer/match"
	"github.com/wayfarer-dev/wayfarer/route"
)

// Router is the engine: it owns the active location, the route tree, the
// fetcher registry, and every subscriber, and serializes all state
// mutations through a single mutex (spec.md §5 "Scheduling" models a
// single-threaded event loop; Go callers get the same guarantee via the
// lock rather than an assumption about single-threadedness).
type Router struct {
	mu sync.Mutex

	routes   []*route.Route
	history  history.History
	basename string
	fetchers *fetch.Registry

	logger        *slog.Logger
	observer      NavigationObserver
	metrics       MetricsRecorder
	tracer        trace.Tracer
	hydrationData *HydrationData

	scrollEnabled bool
	scrollGetKey  func(Location) string
	scrollMu      sync.Mutex
	scrollPos     map[string]float64

	state       RouterState
	subscribers map[int]func(RouterState)
	subID       int

	navCounter uint64
	navCancel  context.CancelFunc
	navID      string

	// deferredCancel tracks one independent cancellation context per route
	// with in-flight streamed loader data, keyed by route id. It is
	// deliberately NOT derived from navCancel's context: a reused route's
	// deferred values must survive the navigation that reuses it without
	// revalidating that route, and only retire when the route's loader
	// reruns or the route drops out of the matched set (spec.md §5
	// "Cancellation").
	deferredCancel map[string]context.CancelFunc

	disposed atomic.Bool
	unlisten func()
}

// Create constructs a Router over routes, driven by history h. It
// validates structural invariants synchronously (spec.md §7 "Structural
// errors"): an empty route tree, or a basename that does not prefix the
// history's initial location pathname.
func Create(routes []*route.Route, h history.History, opts ...Option) (*Router, error) {
	if len(routes) == 0 {
		return nil, ErrNoRoutes
	}
	if h == nil {
		return nil, ErrNoHistory
	}
	built, err := route.Build(routes)
	if err != nil {
		return nil, err
	}

	r := &Router{
		routes:      built,
		history:     h,
		fetchers:    fetch.NewRegistry(),
		logger:      slog.New(discardHandler{}),
		observer:    NoopObserver(),
		metrics:     NoopMetricsRecorder(),
		tracer:      defaultTracer(),
		subscribers:    make(map[int]func(RouterState)),
		scrollPos:      make(map[string]float64),
		deferredCancel: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.basename != "" {
		if _, ok := match.StripBasename(h.Location().Pathname, r.basename); !ok {
			return nil, fmt.Errorf("wayfarer: %w: %q", ErrUnknownBasename, r.basename)
		}
	}

	loc := h.Location()
	matches, _ := r.matchLocation(loc)
	r.state = RouterState{
		HistoryAction: ActionPop,
		Location:      loc,
		Matches:       matches,
		Navigation:    Navigation{State: NavIdle},
		Revalidation:  RevalidationIdle,
		LoaderData:    make(map[string]any),
		Errors:        make(map[string]error),
		Fetchers:      make(map[string]fetch.Fetcher),
	}
	if r.hydrationData != nil {
		if len(r.hydrationData.LoaderData) > 0 || len(r.hydrationData.Errors) > 0 {
			r.state.Initialized = true
		}
		for k, v := range r.hydrationData.LoaderData {
			r.state.LoaderData[k] = v
		}
		for k, v := range r.hydrationData.Errors {
			r.state.Errors[k] = v
		}
		r.state.ActionData = r.hydrationData.ActionData
	}

	r.unlisten = h.Listen(r.onHistoryPop)
	return r, nil
}

// MustCreate panics if Create returns an error (mirrors the teacher's
// New/MustNew split documented in doc.go).
func MustCreate(routes []*route.Route, h history.History, opts ...Option) *Router {
	r, err := Create(routes, h, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// discardHandler is a slog.Handler that drops every record, used as the
// engine's default logger so callers never have to supply one.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Routes returns the built route tree.
func (r *Router) Routes() []*route.Route { return r.routes }

// State returns the current RouterState snapshot.
func (r *Router) State() RouterState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Disposed reports whether Dispose has already run.
func (r *Router) Disposed() bool { return r.disposed.Load() }

// Subscribe registers fn to be called synchronously after every commit
// (spec.md §5 "subscribers are notified synchronously after each
// commit"). The returned function unsubscribes.
func (r *Router) Subscribe(fn func(RouterState)) (unsubscribe func()) {
	r.mu.Lock()
	id := r.subID
	r.subID++
	r.subscribers[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subscribers, id)
		r.mu.Unlock()
	}
}

// CreateHref delegates to the history adapter.
func (r *Router) CreateHref(loc Location) string {
	return r.history.CreateHref(loc)
}

// GetFetcher returns the current snapshot for key, or an idle sentinel
// for an unknown key (spec.md §4.6 "getFetcher").
func (r *Router) GetFetcher(key string) fetch.Fetcher {
	return r.fetchers.Get(key)
}

// DeleteFetcher aborts any inflight operation for key and removes its
// state (spec.md §4.6 "deleteFetcher").
func (r *Router) DeleteFetcher(key string) {
	r.fetchers.Delete(key)
	r.commit(func(s *RouterState) {
		delete(s.Fetchers, key)
	})
}

// EnableScrollRestoration turns on scroll-position bookkeeping
// (spec.md §6). getKey derives the storage key for a location; if nil,
// the location's Key field is used.
func (r *Router) EnableScrollRestoration(getKey func(Location) string) {
	r.mu.Lock()
	r.scrollEnabled = true
	r.scrollGetKey = getKey
	r.mu.Unlock()
}

// CaptureScrollPosition records y for the current location's key, for
// later restoration on a POP back to it.
func (r *Router) CaptureScrollPosition(y float64) {
	r.mu.Lock()
	enabled := r.scrollEnabled
	loc := r.state.Location
	getKey := r.scrollGetKey
	r.mu.Unlock()
	if !enabled {
		return
	}
	key := loc.Key
	if getKey != nil {
		key = getKey(loc)
	}
	r.scrollMu.Lock()
	r.scrollPos[key] = y
	r.scrollMu.Unlock()
}

// GetScrollRestoration returns the captured position for key, if any.
func (r *Router) GetScrollRestoration(key string) (float64, bool) {
	r.scrollMu.Lock()
	defer r.scrollMu.Unlock()
	y, ok := r.scrollPos[key]
	return y, ok
}

// Dispose releases every resource the engine owns: it aborts the active
// navigation and all fetchers, and unsubscribes from history. Dispose is
// idempotent (spec.md SUPPLEMENTED FEATURES): calling it twice is safe.
// Afterward Navigate, Revalidate and Fetch return ErrRouterDisposed and
// NavigateDelta does nothing; the other methods do not check for disposal.
func (r *Router) Dispose() {
	if !r.disposed.CompareAndSwap(false, true) {
		return
	}
	r.mu.Lock()
	if r.navCancel != nil {
		r.navCancel()
	}
	deferredCancels := r.deferredCancel
	r.deferredCancel = make(map[string]context.CancelFunc)
	if r.unlisten != nil {
		r.unlisten()
	}
	r.mu.Unlock()
	for _, cancel := range deferredCancels {
		cancel()
	}
	r.fetchers.DisposeAll()
}

// retireDeferredExcept cancels and forgets every tracked per-route deferred
// context whose route id is not in keep — used when a route drops out of
// the matched set (spec.md §5 "Cancellation"); a rerun loader's old
// context is retired by startDeferredCtx instead. A nil keep retires
// everything (no routes matched).
func (r *Router) retireDeferredExcept(keep map[string]bool) {
	r.mu.Lock()
	var toCancel []context.CancelFunc
	for id, cancel := range r.deferredCancel {
		if !keep[id] {
			toCancel = append(toCancel, cancel)
			delete(r.deferredCancel, id)
		}
	}
	r.mu.Unlock()
	for _, cancel := range toCancel {
		cancel()
	}
}

// startDeferredCtx returns an independent, trackable context for routeID's
// streamed loader values, cancelling any previous one still tracked for
// the same route (it is about to be superseded by a fresh loader run).
func (r *Router) startDeferredCtx(routeID string) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	if old, ok := r.deferredCancel[routeID]; ok {
		old()
	}
	r.deferredCancel[routeID] = cancel
	r.mu.Unlock()
	return ctx
}

func (r *Router) matchLocation(loc Location) (route.Matches, error) {
	pathname := loc.Pathname
	if r.basename != "" {
		stripped, ok := match.StripBasename(pathname, r.basename)
		if !ok {
			return nil, nil
		}
		pathname = stripped
	}
	return match.Match(r.routes, pathname)
}

// commit applies mutate to a copy of the current state under the lock,
// stores it, and notifies every subscriber outside the lock (spec.md §5
// "Mutable snapshot distribution": each commit produces a new top-level
// snapshot reference).
func (r *Router) commit(mutate func(s *RouterState)) RouterState {
	r.mu.Lock()
	next := r.state
	next.LoaderData = copyAnyMap(r.state.LoaderData)
	next.Errors = copyErrMap(r.state.Errors)
	next.Fetchers = copyFetcherMap(r.state.Fetchers)
	mutate(&next)
	r.state = next
	subs := make([]func(RouterState), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		subs = append(subs, fn)
	}
	r.mu.Unlock()
	for _, fn := range subs {
		fn(next)
	}
	return next
}

func copyAnyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyErrMap(m map[string]error) map[string]error {
	out := make(map[string]error, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyFetcherMap(m map[string]fetch.Fetcher) map[string]fetch.Fetcher {
	out := make(map[string]fetch.Fetcher, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func trimHash(href string) (pathAndSearch, hash string) {
	if idx := strings.IndexByte(href, '#'); idx >= 0 {
		return href[:idx], href[idx:]
	}
	return href, ""
}

func trimSearch(pathAndSearch string) (pathname, search string) {
	if idx := strings.IndexByte(pathAndSearch, '?'); idx >= 0 {
		return pathAndSearch[:idx], pathAndSearch[idx:]
	}
	return pathAndSearch, ""
}

func parseHref(href string) Location {
	pathAndSearch, hash := trimHash(href)
	pathname, search := trimSearch(pathAndSearch)
	return Location{Pathname: pathname, Search: search, Hash: hash}
}
