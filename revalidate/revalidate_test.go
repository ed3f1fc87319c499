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

package revalidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-dev/wayfarer/route"
)

func invoiceRoute() *route.Route {
	return &route.Route{ID: "invoice", Path: "invoices/:id"}
}

func TestDecideNewlyMatchedRouteAlwaysRevalidates(t *testing.T) {
	r := invoiceRoute()
	next := route.Matches{{Route: r, Params: map[string]string{"id": "1"}}}

	plan := Plan{
		PrevMatches: nil,
		NextMatches: next,
		PrevURL:     "/",
		NextURL:     "/invoices/1",
	}
	result := Decide(plan)
	assert.True(t, result["invoice"])
}

func TestDecideUnchangedParamsAndURLSkipsRevalidation(t *testing.T) {
	r := invoiceRoute()
	m := route.Match{Route: r, Params: map[string]string{"id": "1"}}
	plan := Plan{
		PrevMatches: route.Matches{m},
		NextMatches: route.Matches{m},
		PrevURL:     "/invoices/1",
		NextURL:     "/invoices/1",
	}
	result := Decide(plan)
	assert.False(t, result["invoice"])
}

func TestDecideChangedParamsRevalidates(t *testing.T) {
	r := invoiceRoute()
	prev := route.Match{Route: r, Params: map[string]string{"id": "1"}}
	next := route.Match{Route: r, Params: map[string]string{"id": "2"}}
	plan := Plan{
		PrevMatches: route.Matches{prev},
		NextMatches: route.Matches{next},
		PrevURL:     "/invoices/1",
		NextURL:     "/invoices/2",
	}
	result := Decide(plan)
	assert.True(t, result["invoice"])
}

func TestDecideHashOnlyChangeSkipsRevalidation(t *testing.T) {
	r := invoiceRoute()
	m := route.Match{Route: r, Params: map[string]string{"id": "1"}}
	plan := Plan{
		PrevMatches: route.Matches{m},
		NextMatches: route.Matches{m},
		PrevURL:     "/invoices/1",
		NextURL:     "/invoices/1",
		PrevHash:    "#a",
		NextHash:    "#b",
	}
	result := Decide(plan)
	assert.False(t, result["invoice"])
}

func TestDecideNonGetSubmissionForcesRevalidation(t *testing.T) {
	r := invoiceRoute()
	m := route.Match{Route: r, Params: map[string]string{"id": "1"}}
	plan := Plan{
		PrevMatches: route.Matches{m},
		NextMatches: route.Matches{m},
		PrevURL:     "/invoices/1",
		NextURL:     "/invoices/1",
		Submission:  &Submission{FormMethod: "post"},
	}
	result := Decide(plan)
	assert.True(t, result["invoice"])
}

func TestDecideForceRevalidateHeaderForcesRevalidation(t *testing.T) {
	r := invoiceRoute()
	m := route.Match{Route: r, Params: map[string]string{"id": "1"}}
	plan := Plan{
		PrevMatches:     route.Matches{m},
		NextMatches:     route.Matches{m},
		PrevURL:         "/invoices/1",
		NextURL:         "/invoices/1",
		ForceRevalidate: true,
	}
	result := Decide(plan)
	assert.True(t, result["invoice"])
}

func TestDecideSameURLRefreshForcesRevalidation(t *testing.T) {
	r := invoiceRoute()
	m := route.Match{Route: r, Params: map[string]string{"id": "1"}}
	plan := Plan{
		PrevMatches:      route.Matches{m},
		NextMatches:      route.Matches{m},
		PrevURL:          "/invoices/1",
		NextURL:          "/invoices/1",
		SameURLRequested: true,
	}
	result := Decide(plan)
	assert.True(t, result["invoice"])
}

func TestDecidePreviousErrorAlwaysReRuns(t *testing.T) {
	r := invoiceRoute()
	m := route.Match{Route: r, Params: map[string]string{"id": "1"}}
	plan := Plan{
		PrevMatches: route.Matches{m},
		NextMatches: route.Matches{m},
		PrevURL:     "/invoices/1",
		NextURL:     "/invoices/1",
		PrevErrored: map[string]bool{"invoice": true},
	}
	result := Decide(plan)
	assert.True(t, result["invoice"])
}

func TestDecideOverrideFalseSuppressesDefaultTrue(t *testing.T) {
	r := invoiceRoute()
	r.ShouldRevalidate = func(args route.ShouldRevalidateArgs) (bool, bool) {
		return false, true
	}
	prev := route.Match{Route: r, Params: map[string]string{"id": "1"}}
	next := route.Match{Route: r, Params: map[string]string{"id": "2"}}
	plan := Plan{
		PrevMatches: route.Matches{prev},
		NextMatches: route.Matches{next},
		PrevURL:     "/invoices/1",
		NextURL:     "/invoices/2",
	}
	result := Decide(plan)
	assert.False(t, result["invoice"])
}

func TestDecideOverrideTrueForcesDefaultFalse(t *testing.T) {
	r := invoiceRoute()
	r.ShouldRevalidate = func(args route.ShouldRevalidateArgs) (bool, bool) {
		require.False(t, args.DefaultShould)
		return true, true
	}
	m := route.Match{Route: r, Params: map[string]string{"id": "1"}}
	plan := Plan{
		PrevMatches: route.Matches{m},
		NextMatches: route.Matches{m},
		PrevURL:     "/invoices/1",
		NextURL:     "/invoices/1",
	}
	result := Decide(plan)
	assert.True(t, result["invoice"])
}

func TestDecideOverrideDefersWhenNotOk(t *testing.T) {
	r := invoiceRoute()
	r.ShouldRevalidate = func(args route.ShouldRevalidateArgs) (bool, bool) {
		return false, false // defers to default
	}
	m := route.Match{Route: r, Params: map[string]string{"id": "1"}}
	plan := Plan{
		PrevMatches: route.Matches{m},
		NextMatches: route.Matches{m},
		PrevURL:     "/invoices/1",
		NextURL:     "/invoices/1",
		Submission:  &Submission{FormMethod: "post"},
	}
	result := Decide(plan)
	assert.True(t, result["invoice"]) // default (non-GET submission) still applies
}

func TestFetcherShouldRevalidateDefaultsTrueWithoutHook(t *testing.T) {
	assert.True(t, FetcherShouldRevalidate(nil, Plan{}))
	r := invoiceRoute()
	assert.True(t, FetcherShouldRevalidate(r, Plan{}))
}

func TestFetcherShouldRevalidateHonorsOverride(t *testing.T) {
	r := invoiceRoute()
	r.ShouldRevalidate = func(args route.ShouldRevalidateArgs) (bool, bool) {
		return false, true
	}
	assert.False(t, FetcherShouldRevalidate(r, Plan{}))
}
