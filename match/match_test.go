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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-dev/wayfarer/route"
)

func buildTree(t *testing.T) []*route.Route {
	t.Helper()
	tree := []*route.Route{
		{ID: "root", Path: "", Children: []*route.Route{
			{ID: "index", Index: true},
			{ID: "invoices", Path: "invoices", Children: []*route.Route{
				{ID: "invoices-index", Index: true},
				{ID: "invoice", Path: ":id"},
			}},
			{ID: "files", Path: "files", Children: []*route.Route{
				{ID: "file", Path: "*"},
			}},
		}},
	}
	built, err := route.Build(tree)
	require.NoError(t, err)
	return built
}

func TestMatchStaticAndIndex(t *testing.T) {
	tree := buildTree(t)

	m, err := Match(tree, "/")
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.Equal(t, "root", m[0].Route.ID)
	assert.Equal(t, "index", m[1].Route.ID)
}

func TestMatchDynamicParam(t *testing.T) {
	tree := buildTree(t)

	m, err := Match(tree, "/invoices/42")
	require.NoError(t, err)
	require.Len(t, m, 3)
	leaf, ok := m.Leaf()
	require.True(t, ok)
	assert.Equal(t, "invoice", leaf.Route.ID)
	assert.Equal(t, "42", leaf.Params["id"])
}

func TestMatchInvoicesIndex(t *testing.T) {
	tree := buildTree(t)

	m, err := Match(tree, "/invoices")
	require.NoError(t, err)
	leaf, _ := m.Leaf()
	assert.Equal(t, "invoices-index", leaf.Route.ID)
}

func TestMatchSplatBindsRemainder(t *testing.T) {
	tree := buildTree(t)

	m, err := Match(tree, "/files/a/b/c")
	require.NoError(t, err)
	leaf, _ := m.Leaf()
	assert.Equal(t, "file", leaf.Route.ID)
	assert.Equal(t, "a/b/c", leaf.Params["*"])
}

func TestMatchSplatEmptyRemainder(t *testing.T) {
	tree := buildTree(t)

	m, err := Match(tree, "/files")
	require.NoError(t, err)
	leaf, _ := m.Leaf()
	assert.Equal(t, "file", leaf.Route.ID)
	assert.Equal(t, "", leaf.Params["*"])
}

func TestMatchNoMatchReturnsNil(t *testing.T) {
	tree := buildTree(t)

	m, err := Match(tree, "/nope/nowhere")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestMatchTrailingSlashTolerated(t *testing.T) {
	tree := buildTree(t)

	m1, err := Match(tree, "/invoices/42")
	require.NoError(t, err)
	m2, err := Match(tree, "/invoices/42/")
	require.NoError(t, err)
	assert.Equal(t, m1.IDs(), m2.IDs())
}

func TestStripBasename(t *testing.T) {
	stripped, ok := StripBasename("/app/invoices/1", "/app")
	require.True(t, ok)
	assert.Equal(t, "/invoices/1", stripped)

	_, ok = StripBasename("/other/invoices/1", "/app")
	assert.False(t, ok)

	stripped, ok = StripBasename("/app", "/app")
	require.True(t, ok)
	assert.Equal(t, "/", stripped)
}

func TestStaticBeatsDynamicOnTie(t *testing.T) {
	tree := []*route.Route{
		{ID: "root", Children: []*route.Route{
			{ID: "static", Path: "new"},
			{ID: "dynamic", Path: ":id"},
		}},
	}
	built, err := route.Build(tree)
	require.NoError(t, err)

	m, err := Match(built, "/new")
	require.NoError(t, err)
	leaf, _ := m.Leaf()
	assert.Equal(t, "static", leaf.Route.ID)
}
