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

package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUnknownKeyReturnsIdleSentinel(t *testing.T) {
	r := NewRegistry()
	f := r.Get("missing")
	assert.Equal(t, Idle, f.State)
	assert.Nil(t, f.Data)
}

func TestFetchCommitsDataAndReturnsToIdle(t *testing.T) {
	r := NewRegistry()
	value, err := r.Fetch(context.Background(), "k1", "route-1", false, func(ctx context.Context) (any, error) {
		return "hello", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", value)

	f := r.Get("k1")
	assert.Equal(t, Idle, f.State)
	assert.Equal(t, "hello", f.Data)
}

func TestFetchErrorRemovesFetcherFromRegistry(t *testing.T) {
	r := NewRegistry()
	_, err := r.Fetch(context.Background(), "k1", "route-1", false, func(ctx context.Context) (any, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)

	f := r.Get("k1")
	assert.Equal(t, Idle, f.State)
	assert.Nil(t, f.Data) // sentinel for unknown key, not retained error data
}

func TestFetchNewerSubmissionAbortsOlderForSameKey(t *testing.T) {
	r := NewRegistry()
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		r.Fetch(context.Background(), "k1", "route-1", false, func(ctx context.Context) (any, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})
	}()

	<-started
	value, err := r.Fetch(context.Background(), "k1", "route-1", false, func(ctx context.Context) (any, error) {
		return "second", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "second", value)

	wg.Wait()
	f := r.Get("k1")
	assert.Equal(t, "second", f.Data) // stale first result never overwrites the newer one
}

func TestDeleteAbortsInflightAndRemovesEntry(t *testing.T) {
	r := NewRegistry()
	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := r.Fetch(context.Background(), "k1", "route-1", false, func(ctx context.Context) (any, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})
		done <- err
	}()

	<-started
	r.Delete("k1")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fetch did not abort after delete")
	}

	f := r.Get("k1")
	assert.Equal(t, Idle, f.State)
	assert.Nil(t, f.Data)
}

func TestFetchSubmittingMarksActionState(t *testing.T) {
	r := NewRegistry()
	stateDuring := make(chan State, 1)
	_, _ = r.Fetch(context.Background(), "k1", "route-1", true, func(ctx context.Context) (any, error) {
		stateDuring <- r.Get("k1").State
		return "ok", nil
	})
	assert.Equal(t, Submitting, <-stateDuring)
}

func TestSweepUnknownKeyReturnsNotOK(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Sweep("missing")
	assert.False(t, ok)
}

func TestSweepIdleWithDataFromLoaderConsultsShouldRevalidate(t *testing.T) {
	r := NewRegistry()
	_, err := r.Fetch(context.Background(), "k1", "route-1", false, func(ctx context.Context) (any, error) {
		return "data", nil
	})
	require.NoError(t, err)

	info, ok := r.Sweep("k1")
	require.True(t, ok)
	assert.Equal(t, "route-1", info.RouteID)
	assert.True(t, info.ConsultShouldRevalidate)
}

func TestSweepIdleFromActionDoesNotConsultShouldRevalidate(t *testing.T) {
	r := NewRegistry()
	_, err := r.Fetch(context.Background(), "k1", "route-1", true, func(ctx context.Context) (any, error) {
		return "data", nil
	})
	require.NoError(t, err)

	info, ok := r.Sweep("k1")
	require.True(t, ok)
	assert.False(t, info.ConsultShouldRevalidate) // last call was a submission, not a GET
}

func TestSweepInflightFetcherDoesNotConsultShouldRevalidate(t *testing.T) {
	r := NewRegistry()
	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		r.Fetch(context.Background(), "k1", "route-1", false, func(ctx context.Context) (any, error) {
			close(started)
			<-release
			return "data", nil
		})
	}()

	<-started
	info, ok := r.Sweep("k1")
	require.True(t, ok)
	assert.False(t, info.ConsultShouldRevalidate) // still Loading: always re-run, never opts out

	close(release)
	wg.Wait()
}

func TestDisposeAllAbortsAndEmptiesRegistry(t *testing.T) {
	r := NewRegistry()
	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := r.Fetch(context.Background(), "k1", "route-1", false, func(ctx context.Context) (any, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})
		done <- err
	}()

	<-started
	r.DisposeAll()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fetch did not abort after dispose")
	}
	assert.Empty(t, r.Keys())
}
