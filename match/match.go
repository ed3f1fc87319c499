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

// Package match implements the pure-function matcher of spec.md §4.1: it
// maps a pathname against a route tree to an ordered, root-to-leaf list of
// route.Matches, or reports no match.
//
// The algorithm enumerates every branch of the tree whose segments admit the
// pathname (static, dynamic ":param", optional ":param?", and splat "*"
// segments, plus index-route disambiguation), scores each branch per the
// relation in spec.md §4.1/§9 (static > dynamic > splat; index beats its
// parent when the pathname ends exactly there; earlier declaration order
// breaks ties), and returns the highest-scoring branch. This mirrors the
// teacher's radix tree (node/edge/param/wildcard in radix.go) conceptually,
// but trades the radix tree's single-pass traversal for branch enumeration
// + scoring because spec.md requires comparing ambiguous branches rather
// than committing to the first structural match.
package match

import (
	"net/url"
	"strings"

	"github.com/wayfarer-dev/wayfarer/route"
)

// Weights used to score a branch. Only the relative ordering
// (static > dynamic > splat) and the index bonus are load-bearing per
// spec.md §9's open question; the exact numbers are an implementation
// detail.
const (
	weightStatic  = 3
	weightDynamic = 2
	weightSplat   = 1
	indexBonus    = 1
)

type candidate struct {
	matches route.Matches
	score   int
}

// StripBasename removes a leading basename prefix from pathname. It
// reports ok=false if pathname does not start with basename at a segment
// boundary.
func StripBasename(pathname, basename string) (stripped string, ok bool) {
	if basename == "" || basename == "/" {
		return pathname, true
	}
	basename = strings.TrimSuffix(basename, "/")
	if pathname == basename {
		return "/", true
	}
	if strings.HasPrefix(pathname, basename+"/") {
		return pathname[len(basename):], true
	}
	return "", false
}

// splitPath splits a URL pathname into decoded segments.
func splitPath(pathname string) ([]string, error) {
	trimmed := strings.Trim(pathname, "/")
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.Split(trimmed, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		decoded, err := url.PathUnescape(p)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

// Match maps pathname (with basename already stripped by the caller via
// StripBasename, or "" if none) against routes. It returns nil if nothing
// matches; callers synthesize a 404 at the root boundary per spec.md §4.1.
func Match(routes []*route.Route, pathname string) (route.Matches, error) {
	segments, err := splitPath(pathname)
	if err != nil {
		return nil, err
	}
	var candidates []candidate
	walk(routes, segments, nil, "", 0, &candidates)
	if len(candidates) == 0 {
		return nil, nil
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score {
			best = c
		}
	}
	return best.matches, nil
}

func walk(nodes []*route.Route, input []string, prefix route.Matches, prefixPathname string, accScore int, out *[]candidate) {
	for _, node := range nodes {
		for _, own := range matchOwnSegments(splitPattern(node.Path), input) {
			remaining := input[own.consumed:]
			pathname := joinPathname(prefixPathname, input[:own.consumed])
			thisMatch := route.Match{
				Route:        node,
				Params:       own.params,
				Pathname:     pathname,
				PathnameBase: pathname,
			}
			newPrefix := appendMatch(prefix, thisMatch)
			score := accScore + own.score

			if len(node.Children) == 0 {
				if len(remaining) == 0 {
					*out = append(*out, candidate{matches: newPrefix, score: score})
				}
				continue
			}

			if len(remaining) == 0 {
				for _, child := range node.Children {
					if child.Index {
						indexMatch := route.Match{
							Route:        child,
							Params:       copyParams(own.params),
							Pathname:     pathname,
							PathnameBase: pathname,
						}
						*out = append(*out, candidate{
							matches: appendMatch(newPrefix, indexMatch),
							score:   score + indexBonus,
						})
					}
				}
			}

			var nonIndex []*route.Route
			for _, child := range node.Children {
				if !child.Index {
					nonIndex = append(nonIndex, child)
				}
			}
			if len(nonIndex) > 0 {
				walk(nonIndex, remaining, newPrefix, pathname, score, out)
			}
		}
	}
}

func appendMatch(prefix route.Matches, m route.Match) route.Matches {
	out := make(route.Matches, len(prefix)+1)
	copy(out, prefix)
	out[len(prefix)] = m
	return out
}

func copyParams(p map[string]string) map[string]string {
	if p == nil {
		return nil
	}
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func joinPathname(prefix string, segments []string) string {
	if len(segments) == 0 {
		if prefix == "" {
			return "/"
		}
		return prefix
	}
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(prefix, "/"))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(s)
	}
	return b.String()
}

type ownMatch struct {
	params   map[string]string
	consumed int
	score    int
}

// matchOwnSegments matches one route node's own pattern segments against a
// prefix of input, returning every way the (possibly optional) segments can
// consume input. Most patterns produce exactly one result; a pattern with
// optional segments produces one result per combination of
// consumed/skipped.
func matchOwnSegments(pattern []segment, input []string) []ownMatch {
	if len(pattern) == 0 {
		return []ownMatch{{params: map[string]string{}, consumed: 0, score: 0}}
	}
	return tryMatch(pattern, 0, input, 0, map[string]string{}, 0)
}

func tryMatch(pattern []segment, pi int, input []string, ii int, params map[string]string, score int) []ownMatch {
	if pi == len(pattern) {
		return []ownMatch{{params: params, consumed: ii, score: score}}
	}
	seg := pattern[pi]
	switch seg.kind {
	case kindSplat:
		val := strings.Join(input[ii:], "/")
		p2 := copyParams(params)
		name := seg.value
		if name == "" {
			name = "*"
		}
		p2[name] = val
		return []ownMatch{{params: p2, consumed: len(input), score: score + weightSplat}}
	case kindStatic:
		if ii < len(input) && input[ii] == seg.value {
			return tryMatch(pattern, pi+1, input, ii+1, params, score+weightStatic)
		}
		return nil
	case kindDynamic:
		if ii < len(input) {
			p2 := copyParams(params)
			p2[seg.value] = input[ii]
			return tryMatch(pattern, pi+1, input, ii+1, p2, score+weightDynamic)
		}
		return nil
	case kindOptional:
		var results []ownMatch
		if ii < len(input) {
			p2 := copyParams(params)
			p2[seg.value] = input[ii]
			results = append(results, tryMatch(pattern, pi+1, input, ii+1, p2, score+weightDynamic)...)
		}
		results = append(results, tryMatch(pattern, pi+1, input, ii, copyParams(params), score)...)
		return results
	default:
		return nil
	}
}
