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

package reqbuild

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlainLoaderRequest(t *testing.T) {
	req, err := Build(context.Background(), "/invoices/1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/invoices/1", req.URL)
}

func TestBuildGetSubmissionSerializesToQuery(t *testing.T) {
	sub := &Submission{FormMethod: "get", FormData: url.Values{"q": {"go"}}}
	req, err := Build(context.Background(), "/search", "", sub)
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/search?q=go", req.URL)
}

func TestBuildGetSubmissionRejectsBinary(t *testing.T) {
	sub := &Submission{FormMethod: "get", Files: map[string][]byte{"f": {1, 2, 3}}}
	_, err := Build(context.Background(), "/upload", "", sub)
	require.ErrorIs(t, err, ErrBinaryGet)
}

func TestBuildPostSubmissionDefaultsURLEncoded(t *testing.T) {
	sub := &Submission{FormMethod: "post", FormData: url.Values{"name": {"ana"}}}
	req, err := Build(context.Background(), "/users", "", sub)
	require.NoError(t, err)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, []string{"application/x-www-form-urlencoded"}, req.Headers["Content-Type"])
	assert.Equal(t, "name=ana", string(req.Body))
}

func TestBuildPostSubmissionWithFilesUsesMultipart(t *testing.T) {
	sub := &Submission{FormMethod: "post", Files: map[string][]byte{"avatar": {1, 2, 3}}}
	req, err := Build(context.Background(), "/users", "", sub)
	require.NoError(t, err)
	require.Len(t, req.Headers["Content-Type"], 1)
	assert.Contains(t, req.Headers["Content-Type"][0], "multipart/form-data")
	assert.NotEmpty(t, req.Body)
}

func TestBuildHrefOverridesLocationURL(t *testing.T) {
	req, err := Build(context.Background(), "/current", "/explicit", nil)
	require.NoError(t, err)
	assert.Equal(t, "/explicit", req.URL)
}
