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

import "net/url"

// NavigateOptions are the submission opts of spec.md §6. When FormMethod
// is empty and FormData is non-empty, behavior matches FormMethod="get".
type NavigateOptions struct {
	FormMethod         string
	FormEncType        string
	FormData           url.Values
	Replace            bool
	PreventScrollReset bool
}

// FetchOptions are the opts accepted by Fetch (spec.md §4.6).
type FetchOptions struct {
	FormMethod  string
	FormEncType string
	FormData    url.Values
}

func (o *NavigateOptions) isSubmission() bool {
	if o == nil {
		return false
	}
	if o.FormMethod == "" {
		return false // absent formMethod + formData behaves like GET (§6)
	}
	return !isGetMethod(o.FormMethod)
}

func isGetMethod(method string) bool {
	return method == "" || method == "GET" || method == "get" || method == "Get"
}
