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

package route

// Match binds a Route to concrete params for one navigation (spec.md §3).
type Match struct {
	Route        *Route
	Params       map[string]string
	Pathname     string // portion of the URL this route owns
	PathnameBase string // portion inherited by children
}

// Matches is always root-to-leaf and contains exactly one terminal route
// (leaf or index route) per spec.md §3.
type Matches []Match

// Leaf returns the terminal (last) match, or the zero Match if empty.
func (m Matches) Leaf() (Match, bool) {
	if len(m) == 0 {
		return Match{}, false
	}
	return m[len(m)-1], true
}

// IDs returns the route ids in root-to-leaf order.
func (m Matches) IDs() []string {
	ids := make([]string, len(m))
	for i, match := range m {
		ids[i] = match.Route.ID
	}
	return ids
}

// ByID returns the Match for the given route id, if present.
func (m Matches) ByID(id string) (Match, bool) {
	for _, match := range m {
		if match.Route.ID == id {
			return match, true
		}
	}
	return Match{}, false
}

// NearestBoundary returns the id of the nearest ancestor (inclusive, walking
// leaf-to-root) of fromID that has an error boundary, falling back to the
// root route's id if none do (spec.md §3 invariant on errors).
func (m Matches) NearestBoundary(fromID string) string {
	start := len(m) - 1
	for i, match := range m {
		if match.Route.ID == fromID {
			start = i
			break
		}
	}
	for i := start; i >= 0; i-- {
		if m[i].Route.HasErrorBoundary {
			return m[i].Route.ID
		}
	}
	if len(m) > 0 {
		return m[0].Route.ID
	}
	return ""
}
