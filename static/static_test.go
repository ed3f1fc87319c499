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

package static

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-dev/wayfarer/reqbuild"
	"github.com/wayfarer-dev/wayfarer/route"
)

func buildTree(t *testing.T) []*route.Route {
	t.Helper()
	tree := []*route.Route{
		{ID: "root", Path: "", HasErrorBoundary: true,
			Loader: func(ctx context.Context, req *route.Request) (any, error) {
				return "root-data", nil
			},
			Children: []*route.Route{
				{ID: "about", Path: "about",
					Loader: func(ctx context.Context, req *route.Request) (any, error) {
						return "about-data", nil
					},
				},
				{ID: "submit", Path: "submit",
					Action: func(ctx context.Context, req *route.Request) (any, error) {
						return "submitted", nil
					},
				},
				{ID: "boom", Path: "boom",
					Loader: func(ctx context.Context, req *route.Request) (any, error) {
						return nil, &route.ErrorResponse{Status: 400, StatusText: "Bad Request"}
					},
				},
			},
		},
	}
	built, err := route.Build(tree)
	require.NoError(t, err)
	return built
}

func buildReq(t *testing.T, method, url string) *reqbuild.Request {
	t.Helper()
	req, err := reqbuild.Build(context.Background(), url, "", nil)
	require.NoError(t, err)
	req.Method = method
	return req
}

func TestQueryRunsLoadersForEveryMatchedRoute(t *testing.T) {
	tree := buildTree(t)
	req := buildReq(t, "GET", "/about")

	ctx, err := Query(tree, req)
	require.NoError(t, err)
	assert.Equal(t, 200, ctx.StatusCode)
	assert.Equal(t, "root-data", ctx.LoaderData["root"])
	assert.Equal(t, "about-data", ctx.LoaderData["about"])
}

func TestQueryRejectsHeadAndOptions(t *testing.T) {
	tree := buildTree(t)
	_, err := Query(tree, buildReq(t, "HEAD", "/about"))
	assert.ErrorIs(t, err, ErrMethodNotAllowed)
	_, err = Query(tree, buildReq(t, "OPTIONS", "/about"))
	assert.ErrorIs(t, err, ErrMethodNotAllowed)
}

func TestQueryNoMatchReturns404(t *testing.T) {
	tree := buildTree(t)
	ctx, err := Query(tree, buildReq(t, "GET", "/nope"))
	require.NoError(t, err)
	assert.Equal(t, 404, ctx.StatusCode)
}

func TestQuerySubmissionRunsActionAndSetsActionData(t *testing.T) {
	tree := buildTree(t)
	ctx, err := Query(tree, buildReq(t, "POST", "/submit"))
	require.NoError(t, err)
	assert.Equal(t, "submitted", ctx.ActionData)
}

func TestQuerySubmissionWithoutActionReturns405(t *testing.T) {
	tree := buildTree(t)
	ctx, err := Query(tree, buildReq(t, "POST", "/about"))
	require.NoError(t, err)
	assert.Equal(t, 405, ctx.StatusCode)
	assert.Equal(t, "root-data", ctx.LoaderData["root"]) // ancestor loaders still ran
}

func TestQuerySubmissionActionErrorStillRunsAncestorLoaders(t *testing.T) {
	tree := []*route.Route{
		{ID: "root", Path: "", HasErrorBoundary: true,
			Loader: func(ctx context.Context, req *route.Request) (any, error) {
				return "root-data", nil
			},
			Children: []*route.Route{
				{ID: "failing", Path: "failing",
					Action: func(ctx context.Context, req *route.Request) (any, error) {
						return nil, &route.ErrorResponse{Status: 400, StatusText: "Bad Request"}
					},
				},
			},
		},
	}
	built, err := route.Build(tree)
	require.NoError(t, err)

	ctx, err := Query(built, buildReq(t, "POST", "/failing"))
	require.NoError(t, err)
	assert.Equal(t, 400, ctx.StatusCode)
	require.Contains(t, ctx.Errors, "root")
	assert.Equal(t, "root-data", ctx.LoaderData["root"]) // boundary's own loader ran
}

func TestQueryLoaderErrorSetsStatusFromErrorResponse(t *testing.T) {
	tree := buildTree(t)
	ctx, err := Query(tree, buildReq(t, "GET", "/boom"))
	require.NoError(t, err)
	assert.Equal(t, 400, ctx.StatusCode)
	require.Contains(t, ctx.Errors, "root") // boom has no error boundary; nearest is root
}

func TestQueryRouteReturnsRawLoaderValue(t *testing.T) {
	tree := buildTree(t)
	value, err := QueryRoute(tree, "about", buildReq(t, "GET", "/about"))
	require.NoError(t, err)
	assert.Equal(t, "about-data", value)
}

func TestQueryRouteUnknownRouteIDReturns404(t *testing.T) {
	tree := buildTree(t)
	_, err := QueryRoute(tree, "missing", buildReq(t, "GET", "/about"))
	require.Error(t, err)
	errResp, ok := err.(*route.ErrorResponse)
	require.True(t, ok)
	assert.Equal(t, 404, errResp.Status)
}
