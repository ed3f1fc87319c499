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

// Package fetch implements the Fetcher Registry of spec.md §4.6: keyed,
// UI-independent operations that run in parallel to the active navigation.
package fetch

import (
	"context"
	"sync"
)

// State is a fetcher's lifecycle state.
type State int

const (
	Idle State = iota
	Loading
	Submitting
)

// Fetcher is a snapshot of one keyed operation's state (spec.md §3).
type Fetcher struct {
	Key     string
	RouteID string
	State   State
	Data    any
	Err     error
}

// Call is the work a Fetch invocation performs: a loader or action already
// bound to its route and request, returning the same (value, error) shape
// as route.Loader/route.Action.
type Call func(ctx context.Context) (any, error)

type entry struct {
	mu         sync.Mutex
	fetcher    Fetcher
	cancel     context.CancelFunc
	seq        uint64
	lastCall   Call
	lastIsLoad bool // true if lastCall was a GET (loader) call, eligible for revalidation
}

// Registry holds every live fetcher, keyed by caller-provided string.
// Fetchers outlive navigations; only explicit deletion or engine disposal
// removes them (spec.md §4.6 "Identity").
type Registry struct {
	mu       sync.Mutex
	entries  map[string]*entry
	disposed bool
}

// NewRegistry returns an empty fetcher registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

func (r *Registry) entryFor(key, routeID string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{fetcher: Fetcher{Key: key, RouteID: routeID, State: Idle}}
		r.entries[key] = e
	}
	return e
}

// Get returns the current snapshot for key, or an idle-with-no-data
// sentinel if key is unknown (spec.md §4.6 "getFetcher").
func (r *Registry) Get(key string) Fetcher {
	r.mu.Lock()
	e, ok := r.entries[key]
	r.mu.Unlock()
	if !ok {
		return Fetcher{Key: key, State: Idle}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fetcher
}

// Delete aborts any inflight operation for key and removes its state
// (spec.md §4.6 "deleteFetcher").
func (r *Registry) Delete(key string) {
	r.mu.Lock()
	e, ok := r.entries[key]
	if ok {
		delete(r.entries, key)
	}
	r.mu.Unlock()
	if ok {
		e.mu.Lock()
		if e.cancel != nil {
			e.cancel()
		}
		e.mu.Unlock()
	}
}

// Fetch runs call under key/routeID, aborting any operation already
// inflight for key and applying this call's result only if no newer
// submission for the same key has since superseded it (spec.md §4.6
// "Ordering guarantees").
//
// submitting marks the fetcher as Submitting (action) rather than Loading
// (loader) while call runs.
func (r *Registry) Fetch(parent context.Context, key, routeID string, submitting bool, call Call) (any, error) {
	e := r.entryFor(key, routeID)

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel() // newer submission aborts the older inflight one for this key
	}
	ctx, cancel := context.WithCancel(parent)
	e.seq++
	mySeq := e.seq
	e.cancel = cancel
	e.fetcher.RouteID = routeID
	e.lastCall = call
	e.lastIsLoad = !submitting
	if submitting {
		e.fetcher.State = Submitting
	} else {
		e.fetcher.State = Loading
	}
	e.mu.Unlock()

	value, err := call(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if mySeq != e.seq {
		// a newer submission for this key has already started; our result
		// is stale and must not overwrite the newer operation's state.
		return value, err
	}
	if ctx.Err() != nil {
		return value, err
	}
	if err != nil {
		// spec.md §4.6 "Error placement": an errored fetcher drops its data
		// and is removed from the registry entirely.
		r.mu.Lock()
		if cur, ok := r.entries[key]; ok && cur == e {
			delete(r.entries, key)
		}
		r.mu.Unlock()
		return value, err
	}
	e.fetcher.State = Idle
	e.fetcher.Data = value
	e.fetcher.Err = nil
	e.cancel = nil
	return value, nil
}

// SweepInfo is one fetcher's input to a revalidation sweep (spec.md §4.6
// "Fetcher participation").
type SweepInfo struct {
	RouteID string
	Call    Call
	// ConsultShouldRevalidate is true for an idle fetcher with previously
	// loaded data whose last call was a GET: it may opt out via its
	// owning route's ShouldRevalidate. Every other fetcher — no data yet,
	// or currently loading/submitting — does not opt out and is always
	// re-run.
	ConsultShouldRevalidate bool
}

// Sweep returns key's revalidation input, or ok=false if key has no prior
// call to replay.
func (r *Registry) Sweep(key string) (SweepInfo, bool) {
	r.mu.Lock()
	e, exists := r.entries[key]
	r.mu.Unlock()
	if !exists {
		return SweepInfo{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastCall == nil {
		return SweepInfo{}, false
	}
	consult := e.fetcher.State == Idle && e.fetcher.Data != nil && e.lastIsLoad
	return SweepInfo{RouteID: e.fetcher.RouteID, Call: e.lastCall, ConsultShouldRevalidate: consult}, true
}

// Keys returns every currently registered fetcher key, for revalidation
// sweeps that must visit all idle fetchers.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	return keys
}

// DisposeAll aborts every inflight fetcher and empties the registry
// (engine Dispose, spec.md §6).
func (r *Registry) DisposeAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.disposed = true
	r.mu.Unlock()
	for _, e := range entries {
		e.mu.Lock()
		if e.cancel != nil {
			e.cancel()
		}
		e.mu.Unlock()
	}
}
