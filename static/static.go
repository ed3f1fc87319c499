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

// Package static implements the Static Handler of spec.md §4.7: a
// synchronous, non-streaming query over the route tree for server-side
// rendering, awaiting every deferred value before returning.
package static

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wayfarer-dev/wayfarer/deferred"
	"github.com/wayfarer-dev/wayfarer/match"
	"github.com/wayfarer-dev/wayfarer/reqbuild"
	"github.com/wayfarer-dev/wayfarer/route"
)

// ErrMethodNotAllowed is returned for HEAD/OPTIONS requests, which the
// handler rejects outright (spec.md §4.7 "Preconditions").
var ErrMethodNotAllowed = errors.New("static: method not allowed")

// ErrAborted is returned when the request's context is cancelled while a
// query is in flight.
var ErrAborted = errors.New("static: call aborted")

// Context is the serializable result of Query.
type Context struct {
	StatusCode    int
	Matches       route.Matches
	LoaderData    map[string]any
	ActionData    any
	Errors        map[string]error
	ActionHeaders map[string]map[string][]string
	LoaderHeaders map[string]map[string][]string
	Redirect      *route.Response // non-nil short-circuits the whole query
}

// Query runs the full matching + action (if submission) + loading
// pipeline synchronously, awaiting every streamed value, and returns a
// serializable Context (spec.md §4.7 "query").
func Query(routes []*route.Route, req *reqbuild.Request) (*Context, error) {
	if req.Method == "HEAD" || req.Method == "OPTIONS" {
		return nil, ErrMethodNotAllowed
	}

	u := req.URL
	if idx := strings.IndexByte(u, '?'); idx >= 0 {
		u = u[:idx]
	}
	matches, err := match.Match(routes, u)
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		Matches:       matches,
		LoaderData:    make(map[string]any),
		Errors:        make(map[string]error),
		ActionHeaders: make(map[string]map[string][]string),
		LoaderHeaders: make(map[string]map[string][]string),
	}

	if len(matches) == 0 {
		ctx.StatusCode = 404
		leaf := ""
		if len(routes) > 0 {
			leaf = routes[0].ID
		}
		ctx.Errors[leaf] = &route.ErrorResponse{Status: 404, StatusText: "Not Found"}
		return ctx, nil
	}

	isSubmission := !isGet(req.Method)
	leaf, _ := matches.Leaf()

	if isSubmission {
		if leaf.Route.Action == nil {
			boundary := matches.NearestBoundary(leaf.Route.ID)
			ctx.Errors[boundary] = &route.ErrorResponse{Status: 405, StatusText: "Method Not Allowed"}
			if err := runLoaderSet(ctx, req, ancestorsThrough(matches, boundary)); err != nil {
				if req.Context().Err() != nil {
					return nil, ErrAborted
				}
				return nil, err
			}
			if ctx.Redirect != nil {
				return ctx, nil
			}
			ctx.StatusCode = resolveStatus(ctx, isSubmission)
			return ctx, nil
		}
		value, actionErr := leaf.Route.Action(req.Context(), req.ToRouteRequest())
		if resp, ok := asResponse(value, actionErr); ok && resp.IsRedirect() {
			ctx.Redirect = resp
			return ctx, nil
		}
		if actionErr != nil {
			boundary := matches.NearestBoundary(leaf.Route.ID)
			if errResp, ok := toErrorResponse(actionErr); ok {
				ctx.Errors[boundary] = errResp
			} else {
				ctx.Errors[boundary] = actionErr
			}
			if err := runLoaderSet(ctx, req, ancestorsThrough(matches, boundary)); err != nil {
				if req.Context().Err() != nil {
					return nil, ErrAborted
				}
				return nil, err
			}
			if ctx.Redirect != nil {
				return ctx, nil
			}
			ctx.StatusCode = resolveStatus(ctx, isSubmission)
			return ctx, nil
		}
		ctx.ActionData = value
		if resp, ok := value.(*route.Response); ok {
			ctx.ActionHeaders[leaf.Route.ID] = resp.Header
			ctx.StatusCode = resp.Status
		}
	}

	if req.Context().Err() != nil {
		return nil, ErrAborted
	}

	if err := runLoaderSet(ctx, req, matches); err != nil {
		if req.Context().Err() != nil {
			return nil, ErrAborted
		}
		return nil, err
	}

	if ctx.Redirect != nil {
		return ctx, nil
	}

	ctx.StatusCode = resolveStatus(ctx, isSubmission)
	return ctx, nil
}

// ancestorsThrough returns every match from the root down to and including
// boundaryID, so a boundary's own loader reruns alongside its ancestors
// when an error or 405 lands on it (spec.md §4.7/§7: "ancestor loaders ran").
func ancestorsThrough(matches route.Matches, boundaryID string) route.Matches {
	var out route.Matches
	for _, m := range matches {
		out = append(out, m)
		if m.Route.ID == boundaryID {
			break
		}
	}
	return out
}

// runLoaderSet runs every loader in set in parallel, writing results and
// errors into ctx. It is shared by the GET path (full match set) and the
// submission 405/error paths (ancestors-through-boundary only).
func runLoaderSet(ctx *Context, req *reqbuild.Request, set route.Matches) error {
	var g errgroup.Group
	var mu sync.Mutex
	for _, m := range set {
		m := m
		if m.Route.Loader == nil {
			continue
		}
		g.Go(func() error {
			value, loaderErr := m.Route.Loader(req.Context(), req.ToRouteRequest())
			mu.Lock()
			defer mu.Unlock()
			if resp, ok := asResponse(value, loaderErr); ok && resp.IsRedirect() {
				if ctx.Redirect == nil {
					ctx.Redirect = resp
				}
				return nil
			}
			if loaderErr != nil {
				if errResp, ok := toErrorResponse(loaderErr); ok {
					ctx.Errors[ctx.Matches.NearestBoundary(m.Route.ID)] = errResp
				} else {
					ctx.Errors[ctx.Matches.NearestBoundary(m.Route.ID)] = loaderErr
				}
				return nil
			}
			if raw, ok := value.(map[string]any); ok {
				dset := deferred.Wrap(req.Context(), raw)
				if awaitErr := dset.AwaitAll(req.Context()); awaitErr != nil {
					return awaitErr
				}
				merged := dset.Sync()
				for _, k := range dset.Keys() {
					_, data, _, _ := dset.Snapshot(k)
					merged[k] = data
				}
				ctx.LoaderData[m.Route.ID] = merged
			} else {
				ctx.LoaderData[m.Route.ID] = value
			}
			if resp, ok := value.(*route.Response); ok {
				ctx.LoaderHeaders[m.Route.ID] = resp.Header
			}
			return nil
		})
	}
	return g.Wait()
}

// QueryRoute runs a single route's loader/action and returns its raw
// value without unwrapping Responses, so callers can stream binary
// payloads (spec.md §4.7 "queryRoute").
func QueryRoute(routes []*route.Route, routeID string, req *reqbuild.Request) (any, error) {
	if req.Method == "HEAD" || req.Method == "OPTIONS" {
		return nil, ErrMethodNotAllowed
	}
	r := route.Lookup(routes, routeID)
	if r == nil {
		return nil, &route.ErrorResponse{Status: 404, StatusText: "Not Found"}
	}
	if isGet(req.Method) {
		if r.Loader == nil {
			return nil, &route.ErrorResponse{Status: 405, StatusText: "Method Not Allowed"}
		}
		return r.Loader(req.Context(), req.ToRouteRequest())
	}
	if r.Action == nil {
		return nil, &route.ErrorResponse{Status: 405, StatusText: "Method Not Allowed"}
	}
	return r.Action(req.Context(), req.ToRouteRequest())
}

func isGet(method string) bool {
	return method == "" || strings.EqualFold(method, "GET")
}

func asResponse(value any, err error) (*route.Response, bool) {
	if resp, ok := route.AsResponse(err); ok {
		return resp, true
	}
	if resp, ok := value.(*route.Response); ok {
		return resp, true
	}
	return nil, false
}

// toErrorResponse normalizes a thrown, non-redirect Response into an
// ErrorResponse with Data parsed per content type (spec.md §4.7).
func toErrorResponse(err error) (*route.ErrorResponse, bool) {
	if errResp, ok := err.(*route.ErrorResponse); ok {
		return errResp, true
	}
	resp, ok := route.AsResponse(err)
	if !ok || resp.IsRedirect() {
		return nil, false
	}
	errResp := &route.ErrorResponse{Status: resp.Status, StatusText: httpStatusText(resp.Status)}
	if route.IsJSON(resp.Header) {
		var parsed any
		if jsonErr := json.Unmarshal(resp.Body, &parsed); jsonErr == nil {
			errResp.Data = parsed
		}
	} else {
		errResp.Data = string(resp.Body)
	}
	return errResp, true
}

func httpStatusText(status int) string {
	switch status {
	case 400:
		return "Bad Request"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 500:
		return "Internal Server Error"
	default:
		return "Error"
	}
}

// resolveStatus implements spec.md §4.7 "Status code": the action's status
// if the submission succeeded; the shallowest 4xx/5xx if any error exists;
// otherwise the deepest non-error 2xx loader status; default 200.
func resolveStatus(ctx *Context, isSubmission bool) int {
	if isSubmission && ctx.StatusCode != 0 && len(ctx.Errors) == 0 {
		return ctx.StatusCode
	}
	if len(ctx.Errors) > 0 {
		shallowest := -1
		for _, id := range ctx.Matches.IDs() {
			if errResp, ok := ctx.Errors[id].(*route.ErrorResponse); ok {
				shallowest = errResp.Status
				break
			}
			if _, ok := ctx.Errors[id]; ok {
				shallowest = 500
				break
			}
		}
		if shallowest == -1 {
			shallowest = 500
		}
		return shallowest
	}
	status := 200
	for _, id := range ctx.Matches.IDs() {
		if resp, ok := ctx.LoaderData[id].(*route.Response); ok {
			status = resp.Status
		}
	}
	return status
}
