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

package match

import "strings"

// segmentKind classifies one path segment of a route pattern. The relative
// ranking (static > dynamic > splat) is spec.md §4.1's only hard
// requirement; the numeric weights in match.go are an implementation
// choice (spec.md "Open questions").
type segmentKind int

const (
	kindStatic segmentKind = iota
	kindDynamic
	kindOptional
	kindSplat
)

// segment is one "/"-delimited piece of a route's path pattern.
type segment struct {
	kind  segmentKind
	value string // literal text, or the param name without ':'/'?' decoration
}

// splitPattern splits a route path pattern into segments, ignoring leading
// and trailing slashes and collapsing empty segments (so "/a//b/" behaves
// like "/a/b").
func splitPattern(pattern string) []segment {
	trimmed := strings.Trim(pattern, "/")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, "/")
	segments := make([]segment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		segments = append(segments, classify(part))
	}
	return segments
}

func classify(part string) segment {
	switch {
	case part == "*":
		return segment{kind: kindSplat, value: "*"}
	case strings.HasPrefix(part, "*"):
		return segment{kind: kindSplat, value: part[1:]}
	case strings.HasSuffix(part, "?") && strings.HasPrefix(part, ":"):
		return segment{kind: kindOptional, value: strings.TrimSuffix(part[1:], "?")}
	case strings.HasPrefix(part, ":"):
		return segment{kind: kindDynamic, value: part[1:]}
	default:
		return segment{kind: kindStatic, value: part}
	}
}
