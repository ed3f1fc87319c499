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

import (
	"errors"
	"strings"
)

// Response is the shape a Loader/Action may return (as its value) or signal
// (as its error, via AsResponse) when it wants to hand the engine a raw
// HTTP-shaped result: a redirect (status 300-399) or any other status the
// caller wants surfaced verbatim, per spec.md §4.5/§4.7.
type Response struct {
	Status int
	Header map[string][]string
	Body   []byte
}

// IsRedirect reports whether this response's status is in the 3xx range.
func (r *Response) IsRedirect() bool {
	return r != nil && r.Status >= 300 && r.Status < 400
}

// Location returns the redirect target, or "" if this is not a redirect.
func (r *Response) Location() string {
	if !r.IsRedirect() {
		return ""
	}
	if vs := r.Header["Location"]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// responseErr lets a Loader/Action signal a Response via its error return
// (the "thrown Response" of spec.md §4.5/§5), distinguished from an
// ordinary Go error by Go's normal error-wrapping machinery (errors.As).
type responseErr struct {
	Response *Response
}

func (e *responseErr) Error() string {
	return "route: thrown response"
}

// Throw wraps a Response so it can be returned as a Loader/Action's error,
// signalling a thrown (rather than returned) Response. The navigation
// engine lets every sibling loader of the same fan-out run to completion
// before it follows a redirect, whether the redirect was thrown or returned.
func Throw(resp *Response) error {
	return &responseErr{Response: resp}
}

// AsResponse extracts a thrown Response from an error, mirroring
// errors.As. ok is false for ordinary errors.
func AsResponse(err error) (*Response, bool) {
	var re *responseErr
	if !errors.As(err, &re) {
		return nil, false
	}
	return re.Response, true
}

// ErrorResponse wraps a non-redirect thrown Response (4xx/5xx), with Data
// parsed per the response's content type (spec.md §4.7 / §4.5 error model).
type ErrorResponse struct {
	Status     int
	StatusText string
	Data       any
}

func (e *ErrorResponse) Error() string {
	return "route: " + e.StatusText
}

// IsJSON reports whether header carries a JSON content type, used to
// decide how to parse a thrown Response's body into ErrorResponse.Data.
func IsJSON(header map[string][]string) bool {
	for _, v := range header["Content-Type"] {
		if strings.HasPrefix(v, "application/json") {
			return true
		}
	}
	return false
}
