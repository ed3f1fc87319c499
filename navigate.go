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
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wayfarer-dev/wayfarer/deferred"
	"github.com/wayfarer-dev/wayfarer/fetch"
	"github.com/wayfarer-dev/wayfarer/history"
	"github.com/wayfarer-dev/wayfarer/reqbuild"
	"github.com/wayfarer-dev/wayfarer/revalidate"
	"github.com/wayfarer-dev/wayfarer/route"
)

// Initialize runs the loaders needed for the engine's initial location
// (skipping any route already covered by hydration data, per spec.md §6)
// and marks the state Initialized.
func (r *Router) Initialize(ctx context.Context) error {
	r.mu.Lock()
	already := r.state.Initialized
	matches := r.state.Matches
	loc := r.state.Location
	skip := make(map[string]bool, len(r.state.LoaderData)+len(r.state.Errors))
	for id := range r.state.LoaderData {
		skip[id] = true
	}
	for id := range r.state.Errors {
		skip[id] = true
	}
	r.mu.Unlock()

	loadSet := make(map[string]bool)
	for _, m := range matches {
		if m.Route.Loader != nil && !skip[m.Route.ID] {
			loadSet[m.Route.ID] = true
		}
	}
	if already && len(loadSet) == 0 {
		r.commit(func(s *RouterState) { s.Initialized = true })
		return nil
	}
	results, errs := r.runLoaders(ctx, matches, loc, loadSet)
	if results.redirect != nil {
		return nil // initial redirect: not followed here, and nothing is committed
	}
	r.commit(func(s *RouterState) {
		s.Initialized = true
		for id, v := range results.data {
			s.LoaderData[id] = v
		}
		for id, e := range errs {
			s.Errors[id] = e
		}
	})
	return nil
}

// Navigate performs a GET or submission navigation to href (spec.md §4.5
// "navigate(to, opts?)").
func (r *Router) Navigate(ctx context.Context, href string, opts *NavigateOptions) error {
	if r.disposed.Load() {
		return ErrRouterDisposed
	}
	target := parseHref(href)
	return r.runNavigation(ctx, target, opts, false, false, nil)
}

// NavigateDelta moves delta entries in history (spec.md §4.5
// "navigate(delta:int)"); the resulting POP is picked up by the history
// listener.
func (r *Router) NavigateDelta(delta int) {
	if r.disposed.Load() {
		return
	}
	r.history.Go(delta)
}

// Revalidate forces every currently matched loader to re-run without
// changing location (spec.md §4.5 "revalidate()").
func (r *Router) Revalidate(ctx context.Context) error {
	if r.disposed.Load() {
		return ErrRouterDisposed
	}
	r.mu.Lock()
	loc := r.state.Location
	r.mu.Unlock()
	return r.runNavigation(ctx, loc, nil, false, true, nil)
}

// onHistoryPop is the history.Listener invoked for Go()-driven transitions.
func (r *Router) onHistoryPop(loc history.Location, action history.Action) {
	if action != history.Pop || r.disposed.Load() {
		return
	}
	_ = r.runNavigation(context.Background(), loc, nil, true, false, nil)
}

func (r *Router) isCurrent(myNav uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return myNav == r.navCounter && !r.disposed.Load()
}

// runNavigation is the Navigation Orchestrator's single entry point
// (spec.md §4.5). forcedAction, when non-nil, pins the eventual history
// commit action (used for action-induced redirects, which always REPLACE).
func (r *Router) runNavigation(ctx context.Context, target Location, opts *NavigateOptions, isPop, forceAll bool, forcedAction *HistoryAction) error {
	r.mu.Lock()
	prevLoc := r.state.Location
	prevMatches := r.state.Matches
	prevErrors := r.state.Errors
	r.navCounter++
	myNav := r.navCounter
	if r.navCancel != nil {
		r.navCancel()
	}
	navCtx, cancel := context.WithCancel(ctx)
	r.navCancel = cancel
	navIDStr := fmt.Sprintf("nav-%d", myNav)
	r.navID = navIDStr
	r.mu.Unlock()

	navCtx = r.observer.OnNavigationStart(navCtx, navIDStr, target.Pathname+target.Search+target.Hash)
	navCtx, span := startNavigationSpan(navCtx, r.tracer, navIDStr, target.Pathname)
	defer func() { endSpan(span, nil) }()

	isSubmission := opts.isSubmission()

	// Hash-only fast path (spec.md §4.5 "Hash-only navigations").
	if !isSubmission && !isPop && !forceAll &&
		target.Pathname == prevLoc.Pathname && target.Search == prevLoc.Search && target.Hash != prevLoc.Hash {
		target.Key = uuid.NewString()
		action := ActionPush
		if opts != nil && opts.Replace {
			action = ActionReplace
		}
		if !r.isCurrent(myNav) {
			return nil
		}
		if action == ActionPush {
			r.history.Push(target)
		} else {
			r.history.Replace(target)
		}
		final := r.history.Location()
		r.commit(func(s *RouterState) {
			s.HistoryAction = action
			s.Location = final
			s.Navigation = Navigation{State: NavIdle}
		})
		r.metrics.NavigationOutcome("committed")
		r.observer.OnNavigationEnd(navCtx, navIDStr, "committed")
		return nil
	}

	matches, _ := r.matchLocation(target)

	if len(matches) == 0 {
		rootID := ""
		if len(r.routes) > 0 {
			rootID = r.routes[0].ID
		}
		if !r.isCurrent(myNav) {
			return nil
		}
		r.retireDeferredExcept(nil) // no routes matched
		action := decideHistoryAction(isPop, opts, forcedAction, target, prevLoc)
		commitHistoryAction(r, action, &target)
		r.commit(func(s *RouterState) {
			s.HistoryAction = action
			s.Location = target
			s.Matches = nil
			s.Navigation = Navigation{State: NavIdle}
			s.ActionData = nil
			newData := make(map[string]any)
			if v, ok := s.LoaderData[rootID]; ok {
				newData[rootID] = v
			}
			s.LoaderData = newData
			s.Errors = map[string]error{rootID: &route.ErrorResponse{Status: 404, StatusText: "Not Found"}}
		})
		r.metrics.NavigationOutcome("error")
		r.observer.OnNavigationEnd(navCtx, navIDStr, "error")
		return nil
	}

	leaf, _ := matches.Leaf()

	var actionValue any
	var actionErr error
	actionRan := false
	var boundaryErrID string

	if isSubmission {
		if !r.isCurrent(myNav) {
			return nil
		}
		r.commit(func(s *RouterState) {
			s.Navigation = Navigation{
				State: NavSubmitting, Location: target,
				FormMethod: opts.FormMethod, FormEncType: opts.FormEncType, FormData: opts.FormData,
			}
		})
		if leaf.Route.Action == nil {
			boundaryErrID = matches.NearestBoundary(leaf.Route.ID)
			actionErr = &route.ErrorResponse{Status: 405, StatusText: "Method Not Allowed",
				Data: fmt.Sprintf("No action found for %s", target.Pathname)}
		} else {
			sub := &reqbuild.Submission{FormMethod: opts.FormMethod, FormEncType: opts.FormEncType, FormData: opts.FormData}
			req, buildErr := reqbuild.Build(navCtx, hrefOf(target), "", sub)
			if buildErr != nil {
				boundaryErrID = matches.NearestBoundary(leaf.Route.ID)
				actionErr = buildErr
			} else {
				actionValue, actionErr = leaf.Route.Action(req.Context(), req.ToRouteRequest())
				actionRan = true
				boundaryErrID = matches.NearestBoundary(leaf.Route.ID)
			}
		}
	}

	// Action redirect: reseed the pipeline (spec.md §4.5 "Redirects").
	if isSubmission {
		if resp, ok := responseFrom(actionValue, actionErr); ok && resp.IsRedirect() {
			newTarget, newOpts := redirectFollowUp(resp, opts.FormMethod, opts, true)
			replaceAction := ActionReplace
			forceHeader := hasRevalidateHeader(resp.Header)
			return r.runNavigation(ctx, newTarget, newOpts, false, forceHeader, &replaceAction)
		}
	}

	loadSet := make(map[string]bool)
	var submissionErrMap map[string]error

	switch {
	case isSubmission && actionErr != nil:
		submissionErrMap = map[string]error{boundaryErrID: normalizeErr(actionErr)}
		for _, m := range ancestorsThrough(matches, boundaryErrID) {
			if m.Route.Loader != nil {
				loadSet[m.Route.ID] = true
			}
		}
	case isSubmission && actionRan:
		for _, m := range matches {
			if m.Route.Loader != nil {
				loadSet[m.Route.ID] = true
			}
		}
	default:
		if forceAll {
			for _, m := range matches {
				if m.Route.Loader != nil {
					loadSet[m.Route.ID] = true
				}
			}
		} else {
			plan := revalidate.Plan{
				PrevMatches: prevMatches, NextMatches: matches,
				PrevURL: prevLoc.Pathname + prevLoc.Search, NextURL: target.Pathname + target.Search,
				PrevHash: prevLoc.Hash, NextHash: target.Hash,
				PrevErrored:      errKeys(prevErrors),
				SameURLRequested: !isPop && target.Pathname == prevLoc.Pathname && target.Search == prevLoc.Search,
			}
			decide := revalidate.Decide(plan)
			for _, m := range matches {
				if m.Route.Loader != nil && decide[m.Route.ID] {
					loadSet[m.Route.ID] = true
				}
			}
		}
	}

	if !isSubmission {
		if !r.isCurrent(myNav) {
			return nil
		}
		r.commit(func(s *RouterState) { s.Navigation = Navigation{State: NavLoading, Location: target} })
	}

	results, loaderErrs := r.runLoaders(navCtx, matches, target, loadSet)

	if results.redirect != nil {
		if results.redirectThrown {
			cancel()
		}
		newTarget, newOpts := redirectFollowUp(results.redirect, "GET", nil, false)
		var forcedHistAction *HistoryAction
		if opts != nil && opts.Replace {
			a := ActionReplace
			forcedHistAction = &a
		}
		forceHeader := hasRevalidateHeader(results.redirect.Header)
		return r.runNavigation(ctx, newTarget, newOpts, false, forceHeader, forcedHistAction)
	}

	if !r.isCurrent(myNav) {
		return ErrNavigationSuperseded
	}

	keepIDs := make(map[string]bool, len(matches))
	for _, m := range matches {
		keepIDs[m.Route.ID] = true
	}
	r.retireDeferredExcept(keepIDs) // routes no longer matched lose their streamed data

	finalErrors := make(map[string]error)
	for id, e := range submissionErrMap {
		finalErrors[id] = e
	}
	for id, e := range loaderErrs {
		finalErrors[id] = e
	}

	action := decideHistoryAction(isPop, opts, forcedAction, target, prevLoc)
	commitHistoryAction(r, action, &target)

	r.commit(func(s *RouterState) {
		s.HistoryAction = action
		s.Location = target
		s.Matches = matches
		s.Navigation = Navigation{State: NavIdle}
		s.Errors = finalErrors
		if isSubmission && actionRan && actionErr == nil {
			s.ActionData = actionValue
		} else {
			s.ActionData = nil
		}
		newData := make(map[string]any, len(matches))
		for _, m := range matches {
			id := m.Route.ID
			if v, ok := results.data[id]; ok {
				newData[id] = v
			} else if v, ok := s.LoaderData[id]; ok {
				newData[id] = v
			}
		}
		s.LoaderData = newData
	})

	r.metrics.NavigationOutcome("committed")
	r.observer.OnNavigationEnd(navCtx, navIDStr, "committed")

	if isSubmission || forceAll {
		go r.sweepFetchers(context.Background(), opts)
	}
	return nil
}

// loaderResults is the aggregate outcome of one parallel loader fan-out.
type loaderResults struct {
	mu             sync.Mutex
	data           map[string]any
	redirect       *route.Response
	redirectThrown bool
}

func (r *Router) runLoaders(ctx context.Context, matches route.Matches, target Location, loadSet map[string]bool) (*loaderResults, map[string]error) {
	results := &loaderResults{data: make(map[string]any)}
	errs := make(map[string]error)
	var errMu sync.Mutex

	var g errgroup.Group
	for _, m := range matches {
		m := m
		if !loadSet[m.Route.ID] {
			continue
		}
		g.Go(func() error {
			req, buildErr := reqbuild.Build(ctx, hrefOf(target), "", nil)
			if buildErr != nil {
				errMu.Lock()
				errs[matches.NearestBoundary(m.Route.ID)] = buildErr
				errMu.Unlock()
				return nil
			}
			value, err := m.Route.Loader(req.Context(), req.ToRouteRequest())

			if resp, ok := responseFrom(value, err); ok && resp.IsRedirect() {
				results.mu.Lock()
				if results.redirect == nil {
					results.redirect = resp
					_, results.redirectThrown = route.AsResponse(err)
				}
				results.mu.Unlock()
				return nil
			}
			if err != nil {
				errMu.Lock()
				errs[matches.NearestBoundary(m.Route.ID)] = normalizeErr(err)
				errMu.Unlock()
				return nil
			}
			if raw, ok := value.(map[string]any); ok {
				dctx := r.startDeferredCtx(m.Route.ID)
				set := deferred.Wrap(dctx, raw)
				merged := set.Sync()
				results.mu.Lock()
				results.data[m.Route.ID] = merged
				results.mu.Unlock()
				if len(set.Keys()) > 0 {
					go r.awaitDeferred(dctx, m.Route.ID, set)
				}
			} else {
				results.mu.Lock()
				results.data[m.Route.ID] = value
				results.mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, errs
}

// awaitDeferred commits the fully-settled streamed fields for one route
// once every tracked field resolves, so late goroutines never write state
// for a superseded navigation.
func (r *Router) awaitDeferred(ctx context.Context, routeID string, set *deferred.Set) {
	if err := set.AwaitAll(ctx); err != nil {
		return
	}
	merged := set.Sync()
	for _, k := range set.Keys() {
		status, data, _, _ := set.Snapshot(k)
		merged[k] = data
		switch status {
		case deferred.Resolved:
			r.metrics.DeferredSettled("resolved")
		case deferred.Rejected:
			r.metrics.DeferredSettled("rejected")
		case deferred.Aborted:
			r.metrics.DeferredSettled("aborted")
		}
	}
	r.mu.Lock()
	stillMatched := false
	for _, m := range r.state.Matches {
		if m.Route.ID == routeID {
			stillMatched = true
			break
		}
	}
	r.mu.Unlock()
	if !stillMatched {
		return
	}
	r.commit(func(s *RouterState) {
		s.LoaderData[routeID] = merged
	})
}

func errKeys(m map[string]error) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

// ancestorsThrough returns every match from the root down to and including
// boundaryID: the routes whose loaders must rerun when an error lands at
// that boundary, since the boundary route is what actually renders
// (spec.md §4.5/§7; the boundary's own loader data still backs its view).
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

func responseFrom(value any, err error) (*route.Response, bool) {
	if resp, ok := route.AsResponse(err); ok {
		return resp, true
	}
	if resp, ok := value.(*route.Response); ok {
		return resp, true
	}
	return nil, false
}

func normalizeErr(err error) error {
	if errResp, ok := err.(*route.ErrorResponse); ok {
		return errResp
	}
	if resp, ok := route.AsResponse(err); ok && !resp.IsRedirect() {
		return &route.ErrorResponse{Status: resp.Status, StatusText: "Error", Data: string(resp.Body)}
	}
	return err
}

func hasRevalidateHeader(header map[string][]string) bool {
	for k := range header {
		if equalFoldHeader(k, "X-Remix-Revalidate") {
			return true
		}
	}
	return false
}

func equalFoldHeader(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// redirectFollowUp computes the next navigation's target/opts for a
// redirect response (spec.md §4.5 "Redirects"): GET after loader
// redirects; POST becomes GET after action redirects unless 307/308.
func redirectFollowUp(resp *route.Response, originalMethod string, originalOpts *NavigateOptions, fromAction bool) (Location, *NavigateOptions) {
	target := parseHref(resp.Location())
	if fromAction && (resp.Status == 307 || resp.Status == 308) && originalOpts != nil {
		return target, originalOpts
	}
	return target, nil
}

func hrefOf(loc Location) string {
	return loc.Pathname + loc.Search
}

func decideHistoryAction(isPop bool, opts *NavigateOptions, forced *HistoryAction, target, prev Location) HistoryAction {
	if forced != nil {
		return *forced
	}
	if isPop {
		return ActionPop
	}
	if opts != nil && opts.Replace {
		return ActionReplace
	}
	if target.Pathname == prev.Pathname && target.Search == prev.Search && target.Hash == prev.Hash {
		return ActionReplace
	}
	return ActionPush
}

func commitHistoryAction(r *Router, action HistoryAction, target *Location) {
	if action == ActionPop {
		return // the history stack already moved via Go(); nothing to push
	}
	if target.Key == "" {
		target.Key = uuid.NewString()
	}
	switch action {
	case ActionPush:
		r.history.Push(*target)
	case ActionReplace:
		r.history.Replace(*target)
	}
	*target = r.history.Location()
}

// sweepFetchers runs after a submission or a forced revalidation. Idle
// fetchers with previously loaded data consult their owning route's
// ShouldRevalidate and may opt out; every other fetcher — without data
// yet, or still loading/submitting — does not opt out and is always
// re-run (spec.md §4.4/§4.6 "Fetcher participation").
func (r *Router) sweepFetchers(ctx context.Context, opts *NavigateOptions) {
	var sub *revalidate.Submission
	if opts != nil {
		sub = &revalidate.Submission{FormMethod: opts.FormMethod, FormEncType: opts.FormEncType}
	}
	for _, key := range r.fetchers.Keys() {
		info, ok := r.fetchers.Sweep(key)
		if !ok {
			continue
		}
		if info.ConsultShouldRevalidate {
			rte := route.Lookup(r.routes, info.RouteID)
			if !revalidate.FetcherShouldRevalidate(rte, revalidate.Plan{Submission: sub}) {
				continue
			}
		}
		value, err := r.fetchers.Fetch(ctx, key, info.RouteID, false, info.Call)
		r.commit(func(s *RouterState) {
			if err != nil {
				delete(s.Fetchers, key)
			} else {
				s.Fetchers[key] = fetch.Fetcher{Key: key, RouteID: info.RouteID, State: fetch.Idle, Data: value}
			}
		})
		r.observer.OnFetcherEnd(ctx, key, outcomeOf(err))
		r.metrics.FetcherOperation("get")
	}
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "committed"
}

// Fetch runs a keyed, UI-independent loader or action call against routeID
// (spec.md §4.6). A fetcher-triggered redirect starts a fresh top-level
// navigation rather than settling the fetcher.
func (r *Router) Fetch(ctx context.Context, key, routeID, href string, opts *FetchOptions) (any, error) {
	if r.disposed.Load() {
		return nil, ErrRouterDisposed
	}
	rte := route.Lookup(r.routes, routeID)
	if rte == nil {
		return nil, fmt.Errorf("wayfarer: unknown route id %q", routeID)
	}
	submitting := opts != nil && opts.FormMethod != "" && !isGetMethod(opts.FormMethod)

	var call fetch.Call
	if submitting {
		if rte.Action == nil {
			return nil, fmt.Errorf("wayfarer: route %q has no action", routeID)
		}
		sub := &reqbuild.Submission{FormMethod: opts.FormMethod, FormEncType: opts.FormEncType, FormData: opts.FormData}
		call = func(callCtx context.Context) (any, error) {
			req, err := reqbuild.Build(callCtx, href, "", sub)
			if err != nil {
				return nil, err
			}
			return rte.Action(req.Context(), req.ToRouteRequest())
		}
	} else {
		if rte.Loader == nil {
			return nil, fmt.Errorf("wayfarer: route %q has no loader", routeID)
		}
		call = func(callCtx context.Context) (any, error) {
			req, err := reqbuild.Build(callCtx, href, "", nil)
			if err != nil {
				return nil, err
			}
			return rte.Loader(req.Context(), req.ToRouteRequest())
		}
	}

	fetchCtx, span := startFetchSpan(ctx, r.tracer, key, routeID)
	defer func() { endSpan(span, nil) }()

	initState := fetch.Loading
	if submitting {
		initState = fetch.Submitting
	}
	r.commit(func(s *RouterState) {
		s.Fetchers[key] = fetch.Fetcher{Key: key, RouteID: routeID, State: initState}
	})

	value, err := r.fetchers.Fetch(fetchCtx, key, routeID, submitting, call)

	verb := "get"
	if submitting {
		verb = "post"
	}
	r.metrics.FetcherOperation(verb)

	if resp, ok := responseFrom(value, err); ok && resp.IsRedirect() {
		r.commit(func(s *RouterState) { delete(s.Fetchers, key) })
		method := ""
		if opts != nil {
			method = opts.FormMethod
		}
		newTarget, newOpts := redirectFollowUp(resp, method, nil, submitting)
		go func() { _ = r.runNavigation(context.Background(), newTarget, newOpts, false, hasRevalidateHeader(resp.Header), nil) }()
		r.observer.OnFetcherEnd(fetchCtx, key, "redirected")
		return nil, nil
	}

	if err != nil {
		r.commit(func(s *RouterState) { delete(s.Fetchers, key) })
		r.observer.OnFetcherEnd(fetchCtx, key, "error")
		return value, err
	}

	r.commit(func(s *RouterState) { s.Fetchers[key] = r.fetchers.Get(key) })
	r.observer.OnFetcherEnd(fetchCtx, key, "committed")

	if submitting {
		go r.sweepFetchers(context.Background(), &NavigateOptions{FormMethod: opts.FormMethod, FormEncType: opts.FormEncType})
	}
	return value, nil
}
