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

// Package revalidate implements the Revalidation Planner of spec.md §4.4:
// given the previous and next matches for a transition, it decides which
// routes' loaders must run.
package revalidate

import (
	"reflect"

	"github.com/wayfarer-dev/wayfarer/route"
)

// Submission describes the non-GET request that triggered this transition,
// if any.
type Submission struct {
	FormMethod  string
	FormData    map[string][]string
	FormEncType string
	FormAction  string
}

// Plan is the input to Decide.
type Plan struct {
	PrevMatches      route.Matches
	NextMatches      route.Matches
	PrevURL          string
	NextURL          string
	PrevHash         string
	NextHash         string
	Submission       *Submission   // non-nil for a just-processed non-GET submission
	ActionResult     any           // the action's resolved value, if any
	ActionErr        error         // the action's error, if any
	ForceRevalidate  bool          // X-Remix-Revalidate seen on a loader/action response
	SameURLRequested bool          // explicit refresh: navigated to the same URL again
	PrevErrored      map[string]bool // route ids whose previous result was an error
}

// Decide returns the set of route ids (from NextMatches) whose loaders must
// run for this transition, applying the default policy and then each
// route's ShouldRevalidate override (spec.md §4.4).
func Decide(p Plan) map[string]bool {
	result := make(map[string]bool, len(p.NextMatches))

	urlChanged := p.PrevURL != p.NextURL
	hashOnly := !urlChanged && p.PrevHash != p.NextHash

	for _, next := range p.NextMatches {
		id := next.Route.ID
		prev, wasMatched := p.PrevMatches.ByID(id)

		def := defaultShould(p, next, prev, wasMatched, urlChanged, hashOnly)

		should := def
		if next.Route.ShouldRevalidate != nil {
			args := buildArgs(p, next, prev, def)
			if override, ok := next.Route.ShouldRevalidate(args); ok {
				should = override
			}
		}
		if should {
			result[id] = true
		}
	}
	return result
}

func defaultShould(p Plan, next, prev route.Match, wasMatched bool, urlChanged, hashOnly bool) bool {
	if !wasMatched {
		return true // newly matched
	}
	if !reflect.DeepEqual(prev.Params, next.Params) {
		return true
	}
	if urlChanged {
		return true
	}
	if hashOnly {
		return false // hash-only changes skip all loaders unless newly matched (handled above)
	}
	if p.Submission != nil && !isGet(p.Submission.FormMethod) {
		return true
	}
	if p.ForceRevalidate {
		return true
	}
	if p.SameURLRequested {
		return true
	}
	if p.PrevErrored != nil && p.PrevErrored[next.Route.ID] {
		return true
	}
	return false
}

func buildArgs(p Plan, next, prev route.Match, def bool) route.ShouldRevalidateArgs {
	args := route.ShouldRevalidateArgs{
		CurrentParams: prev.Params,
		CurrentURL:    p.PrevURL,
		NextParams:    next.Params,
		NextURL:       p.NextURL,
		ActionResult:  p.ActionResult,
		ActionErr:     p.ActionErr,
		DefaultShould: def,
	}
	if p.Submission != nil {
		args.FormMethod = p.Submission.FormMethod
		args.FormData = p.Submission.FormData
		args.FormEncType = p.Submission.FormEncType
		args.FormAction = p.Submission.FormAction
	}
	return args
}

func isGet(method string) bool {
	return method == "" || method == "GET" || method == "get" || method == "Get"
}

// FetcherShouldRevalidate applies the same decision to an idle fetcher with
// previously loaded data, consulting its owning route's ShouldRevalidate
// with defaultShouldRevalidate=true per spec.md §4.4 "Fetcher participation".
func FetcherShouldRevalidate(owner *route.Route, p Plan) bool {
	if owner == nil || owner.ShouldRevalidate == nil {
		return true
	}
	args := route.ShouldRevalidateArgs{DefaultShould: true}
	if p.Submission != nil {
		args.FormMethod = p.Submission.FormMethod
		args.FormData = p.Submission.FormData
		args.FormEncType = p.Submission.FormEncType
		args.FormAction = p.Submission.FormAction
	}
	args.ActionResult = p.ActionResult
	args.ActionErr = p.ActionErr
	if should, ok := owner.ShouldRevalidate(args); ok {
		return should
	}
	return true
}
