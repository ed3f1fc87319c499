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
	"encoding/json"

	"github.com/wayfarer-dev/wayfarer/fetch"
	"github.com/wayfarer-dev/wayfarer/history"
	"github.com/wayfarer-dev/wayfarer/route"
)

// Location is the engine's view of one history entry (spec.md §3).
type Location = history.Location

// HistoryAction mirrors the commit action the orchestrator chose.
type HistoryAction string

const (
	ActionPop     HistoryAction = "POP"
	ActionPush    HistoryAction = "PUSH"
	ActionReplace HistoryAction = "REPLACE"
)

// NavState is the lifecycle of the active navigation (spec.md §3).
type NavState string

const (
	NavIdle       NavState = "idle"
	NavLoading    NavState = "loading"
	NavSubmitting NavState = "submitting"
)

// Navigation describes the inflight (or idle) navigation.
type Navigation struct {
	State       NavState
	Location    Location
	FormMethod  string
	FormEncType string
	FormData    map[string][]string
}

// RevalidationState is the engine-wide revalidation indicator, distinct
// from the per-navigation state (spec.md §3).
type RevalidationState string

const (
	RevalidationIdle    RevalidationState = "idle"
	RevalidationLoading RevalidationState = "loading"
)

// HydrationData seeds the initial RouterState from a server-rendered
// payload (spec.md §6).
type HydrationData struct {
	LoaderData map[string]any
	ActionData any
	Errors     map[string]error
}

// RouterState is the single observable snapshot the engine commits after
// every transition (spec.md §3). Top-level fields are replaced wholesale
// on each commit; inner maps are copy-on-write per entry.
type RouterState struct {
	HistoryAction         HistoryAction
	Location              Location
	Matches               route.Matches
	Initialized           bool
	Navigation            Navigation
	Revalidation          RevalidationState
	LoaderData            map[string]any
	ActionData            any
	Errors                map[string]error
	Fetchers              map[string]fetch.Fetcher
	PreventScrollReset    bool
	RestoreScrollPosition *float64
}

// jsonSnapshot is RouterState's JSON-safe rendering: errors become a tag
// distinguishing an ErrorResponse from a plain error (spec.md §6 "SSR
// hydration payload").
type jsonSnapshot struct {
	HistoryAction      HistoryAction          `json:"historyAction"`
	Location           Location               `json:"location"`
	MatchIDs           []string               `json:"matches"`
	Initialized        bool                   `json:"initialized"`
	Navigation         Navigation             `json:"navigation"`
	Revalidation       RevalidationState      `json:"revalidation"`
	LoaderData         map[string]any         `json:"loaderData"`
	ActionData         any                    `json:"actionData"`
	Errors             map[string]errorTag    `json:"errors,omitempty"`
	Fetchers           map[string]fetch.Fetcher `json:"fetchers"`
	PreventScrollReset bool                   `json:"preventScrollReset"`
}

type errorTag struct {
	Type       string `json:"__type"`
	Status     int    `json:"status,omitempty"`
	StatusText string `json:"statusText,omitempty"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Serialize renders an SSR hydration payload for this state: a
// JSON-safe snapshot distinguishing RouteErrorResponse entries from plain
// Error entries (spec.md §6).
func (s RouterState) Serialize() ([]byte, error) {
	snap := jsonSnapshot{
		HistoryAction:      s.HistoryAction,
		Location:           s.Location,
		MatchIDs:           s.Matches.IDs(),
		Initialized:        s.Initialized,
		Navigation:         s.Navigation,
		Revalidation:       s.Revalidation,
		LoaderData:         s.LoaderData,
		ActionData:         s.ActionData,
		Fetchers:           s.Fetchers,
		PreventScrollReset: s.PreventScrollReset,
	}
	if len(s.Errors) > 0 {
		snap.Errors = make(map[string]errorTag, len(s.Errors))
		for id, err := range s.Errors {
			if errResp, ok := err.(*route.ErrorResponse); ok {
				snap.Errors[id] = errorTag{
					Type:       "RouteErrorResponse",
					Status:     errResp.Status,
					StatusText: errResp.StatusText,
					Data:       errResp.Data,
				}
				continue
			}
			snap.Errors[id] = errorTag{Type: "Error", Message: err.Error()}
		}
	}
	return json.Marshal(snap)
}
