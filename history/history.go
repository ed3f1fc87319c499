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

// Package history defines the History adapter interface spec.md §1/§2
// treats as an external collaborator, plus a minimal in-memory reference
// implementation so the engine is usable headless and in tests without a
// browser or DOM history stack.
package history

import (
	"errors"

	"github.com/google/uuid"
)

// Action is the kind of history transition that produced a Location.
type Action int

const (
	Pop Action = iota
	Push
	Replace
)

// Location is one history entry (spec.md §3).
type Location struct {
	Pathname string
	Search   string
	Hash     string
	State    any
	Key      string
}

// Listener is notified after every push/replace/go.
type Listener func(loc Location, action Action)

// History is the adapter interface the engine depends on. A real browser,
// hash, or memory-stack implementation is an external collaborator; this
// package ships only the in-memory reference adapter below.
type History interface {
	Location() Location
	Push(loc Location)
	Replace(loc Location)
	Go(delta int)
	Listen(fn Listener) (unsubscribe func())
	CreateHref(loc Location) string
}

// ErrOutOfRange names a delta that would move outside the stack. Memory.Go
// does not return it: it clamps to the stack's bounds instead.
var ErrOutOfRange = errors.New("history: delta out of range")

// Memory is an in-memory History adapter backed by a slice of entries,
// analogous to a browser's session history but with no window/DOM
// dependency (spec.md §1 names the real adapter as external; this is a
// reference implementation for headless hosts and tests).
type Memory struct {
	entries   []Location
	index     int
	listeners map[int]Listener
	nextID    int
	maxLen    int
}

// NewMemory creates a Memory history seeded with one initial entry whose
// key is "default" (spec.md §3 "the initial entry's key is 'default'").
// maxLen bounds the entry slice; 0 means unbounded.
func NewMemory(initial Location, maxLen int) *Memory {
	if initial.Key == "" {
		initial.Key = "default"
	}
	return &Memory{
		entries:   []Location{initial},
		index:     0,
		listeners: make(map[int]Listener),
		maxLen:    maxLen,
	}
}

func (m *Memory) Location() Location {
	return m.entries[m.index]
}

func (m *Memory) Push(loc Location) {
	if loc.Key == "" {
		loc.Key = uuid.NewString()
	}
	m.entries = append(m.entries[:m.index+1], loc)
	m.index++
	m.trim()
	m.notify(loc, Push)
}

func (m *Memory) Replace(loc Location) {
	if loc.Key == "" {
		loc.Key = uuid.NewString()
	}
	m.entries[m.index] = loc
	m.notify(loc, Replace)
}

// Go moves by delta entries, clamping to the stack's bounds (a no-op past
// either end, matching a browser history stack's observable behavior
// rather than erroring the caller for an ordinary bounds-miss).
func (m *Memory) Go(delta int) {
	target := m.index + delta
	if target < 0 {
		target = 0
	}
	if target > len(m.entries)-1 {
		target = len(m.entries) - 1
	}
	if target == m.index {
		return
	}
	m.index = target
	m.notify(m.entries[m.index], Pop)
}

func (m *Memory) Listen(fn Listener) func() {
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() { delete(m.listeners, id) }
}

func (m *Memory) CreateHref(loc Location) string {
	href := loc.Pathname
	if loc.Search != "" {
		href += loc.Search
	}
	if loc.Hash != "" {
		href += loc.Hash
	}
	return href
}

// trim drops the oldest entries once the stack exceeds maxLen.
func (m *Memory) trim() {
	if m.maxLen <= 0 || len(m.entries) <= m.maxLen {
		return
	}
	drop := len(m.entries) - m.maxLen
	m.entries = m.entries[drop:]
	m.index -= drop
	if m.index < 0 {
		m.index = 0
	}
}

func (m *Memory) notify(loc Location, action Action) {
	for _, fn := range m.listeners {
		fn(loc, action)
	}
}
