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

// Package reqbuild composes the request-like object passed to every
// loader/action call (spec.md §4.2).
package reqbuild

import (
	"context"
	"errors"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/wayfarer-dev/wayfarer/route"
)

// ErrBinaryGet is returned when a GET submission carries a binary field; the
// caller must synthesize a 400 ErrorResponse at the nearest boundary above
// the targeted route per spec.md §4.2.
var ErrBinaryGet = errors.New("reqbuild: cannot submit binary form data using GET")

// Submission describes the non-GET (or GET-with-formData) payload for a
// navigation or fetcher call.
type Submission struct {
	FormMethod  string // defaults to "get" if empty
	FormEncType string // defaults to "application/x-www-form-urlencoded"
	FormData    url.Values
	Files       map[string][]byte // non-empty implies multipart/form-data
}

// Request is the request-like object every Loader/Action receives.
type Request struct {
	URL     string
	Method  string
	Headers map[string][]string
	Body    []byte
	Form    url.Values

	ctx context.Context
}

// Context returns the request's associated context, whose Done channel
// closes when the call is aborted (spec.md §5).
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// ToRouteRequest returns the minimal route.Request shape a Loader/Action
// receives, carrying this Request's URL/method/headers/body/form.
func (r *Request) ToRouteRequest() *route.Request {
	return &route.Request{
		URL:     r.URL,
		Method:  r.Method,
		Headers: r.Headers,
		Body:    r.Body,
		Form:    r.Form,
	}
}

// Build constructs a Request for one loader/action invocation.
//
// href, when non-empty, overrides the URL the request is built for — used
// by submissions that must preserve existing query parameters on POST but
// strip them on GET (spec.md §4.5).
func Build(ctx context.Context, locationURL string, href string, sub *Submission) (*Request, error) {
	target := locationURL
	if href != "" {
		target = href
	}

	if sub == nil {
		return &Request{URL: target, Method: "GET", Headers: map[string][]string{}, ctx: ctx}, nil
	}

	method := sub.FormMethod
	if method == "" {
		method = "GET"
	}
	method = strings.ToUpper(method)

	if isGet(method) {
		if len(sub.Files) > 0 {
			return nil, ErrBinaryGet
		}
		u, err := url.Parse(target)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		for k, vs := range sub.FormData {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		return &Request{
			URL:     u.String(),
			Method:  "GET",
			Headers: map[string][]string{},
			ctx:     ctx,
		}, nil
	}

	encType := sub.FormEncType
	if encType == "" {
		encType = "application/x-www-form-urlencoded"
	}
	if len(sub.Files) > 0 {
		encType = "multipart/form-data"
	}

	req := &Request{
		URL:    target,
		Method: method,
		Headers: map[string][]string{
			"Content-Type": {encType},
		},
		Form: sub.FormData,
		ctx:  ctx,
	}

	if encType == "multipart/form-data" {
		body, boundary, err := encodeMultipart(sub.FormData, sub.Files)
		if err != nil {
			return nil, err
		}
		req.Body = body
		req.Headers["Content-Type"] = []string{"multipart/form-data; boundary=" + boundary}
	} else {
		req.Body = []byte(sub.FormData.Encode())
	}

	return req, nil
}

func isGet(method string) bool {
	return strings.EqualFold(method, "GET")
}

func encodeMultipart(form url.Values, files map[string][]byte) ([]byte, string, error) {
	var buf writerBuf
	mw := multipart.NewWriter(&buf)
	for k, vs := range form {
		for _, v := range vs {
			if err := mw.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
	}
	for name, data := range files {
		part, err := mw.CreateFormFile(name, name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.data, mw.Boundary(), nil
}

type writerBuf struct{ data []byte }

func (w *writerBuf) Write(p []byte) (int, error) {
	w.data = append(w.data, p...)
	return len(p), nil
}
