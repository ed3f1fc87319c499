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

import "errors"

// Static errors for engine construction and lifecycle. These are wrapped
// with fmt.Errorf and %w at call sites when route id/path context helps.
var (
	// Factory errors (spec.md §7 "Structural errors", thrown synchronously
	// at factory time).
	ErrNoRoutes        = errors.New("wayfarer: no routes supplied")
	ErrNoHistory       = errors.New("wayfarer: no history adapter supplied")
	ErrUnknownBasename = errors.New("wayfarer: basename does not prefix the initial location")

	// Lifecycle errors.
	ErrRouterDisposed = errors.New("wayfarer: router has been disposed")

	// Navigation errors.
	ErrNavigationSuperseded = errors.New("wayfarer: navigation superseded by a newer one")
)
