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

// Package route defines the immutable route tree the engine matches against.
//
// A Route never changes after the tree is built: the engine only ever reads
// id, path, loader/action presence, and children while matching and
// dispatching. Construction happens once, in the route module provider that
// the host application supplies to wayfarer.Create.
package route

import (
	"context"
	"fmt"
)

// ShouldRevalidateArgs carries everything a route's ShouldRevalidate hook
// needs to decide whether its loader should re-run on a given transition.
// Field set mirrors spec.md §4.4.
type ShouldRevalidateArgs struct {
	CurrentParams  map[string]string
	CurrentURL     string
	NextParams     map[string]string
	NextURL        string
	FormMethod     string
	FormData       map[string][]string
	FormEncType    string
	FormAction     string
	ActionResult   any
	ActionErr      error
	DefaultShould  bool
}

// ShouldRevalidateFunc overrides the default revalidation decision for a
// route. Returning (false, true) opts out of a default-true decision;
// returning (true, true) opts into a default-false decision. Returning
// ok=false defers to the default.
type ShouldRevalidateFunc func(args ShouldRevalidateArgs) (should bool, ok bool)

// Loader fetches data for a route match. ctx carries the call's abort
// signal (cancelled per §5 "Cancellation"); req carries URL/method/headers
// built by the reqbuild package.
type Loader func(ctx context.Context, req *Request) (any, error)

// Action mutates external state for a non-GET navigation or fetcher
// submission. Same request shape as Loader.
type Action func(ctx context.Context, req *Request) (any, error)

// Request is the minimal request-like object a Loader/Action receives.
// reqbuild's Request.ToRouteRequest constructs these; Route only needs the
// shape to type the Loader/Action signatures without importing reqbuild
// (which itself imports route for this type), avoiding a cycle.
type Request struct {
	URL     string
	Method  string
	Headers map[string][]string
	Body    []byte
	Form    map[string][]string
}

// Route is an immutable node in the route tree.
//
// Invariant: ids are globally unique across the tree (enforced by Build).
// Invariant: an index route (Index == true) never has Children.
type Route struct {
	ID               string
	Path             string // pattern segment owned by this route, e.g. ":id" or "invoices"
	Index            bool
	Loader           Loader
	Action           Action
	HasErrorBoundary bool
	ShouldRevalidate ShouldRevalidateFunc
	Children         []*Route
}

// Build assigns missing ids (in declaration order, root-to-leaf,
// depth-first) and validates the tree's invariants. It returns the root
// routes unchanged in structure — Build never reorders or mutates Path,
// Loader, Action, or Children.
func Build(routes []*Route) ([]*Route, error) {
	if len(routes) == 0 {
		return nil, fmt.Errorf("route: %w", ErrEmptyTree)
	}
	seen := make(map[string]bool)
	counter := 0
	var walk func(r *Route) error
	walk = func(r *Route) error {
		if r.ID == "" {
			counter++
			r.ID = fmt.Sprintf("route-%d", counter)
		}
		if seen[r.ID] {
			return fmt.Errorf("route: %w: %q", ErrDuplicateID, r.ID)
		}
		seen[r.ID] = true
		if r.Index && len(r.Children) > 0 {
			return fmt.Errorf("route: %w: %q", ErrIndexWithChildren, r.ID)
		}
		for _, c := range r.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range routes {
		if err := walk(r); err != nil {
			return nil, err
		}
	}
	return routes, nil
}

// Lookup finds a route by id anywhere in the forest, depth-first.
func Lookup(routes []*Route, id string) *Route {
	for _, r := range routes {
		if r.ID == id {
			return r
		}
		if found := Lookup(r.Children, id); found != nil {
			return found
		}
	}
	return nil
}
