// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedCache(t *testing.T) {
	c := New[int](time.Minute, time.Minute)

	_, found := c.Get("a")
	assert.False(t, found)

	c.Set("a", 1, DefaultExpiration)
	v, found := c.Get("a")
	assert.True(t, found)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, c.Len())

	c.Delete("a")
	_, found = c.Get("a")
	assert.False(t, found)
}

func TestGetOrCompute(t *testing.T) {
	tests := []struct {
		name       string
		seed       *string
		cbValue    string
		cbErr      error
		wantValue  string
		wantErr    bool
		wantCalls  int
		wantCached bool
	}{
		{
			name:       "miss computes and caches",
			cbValue:    "computed",
			wantValue:  "computed",
			wantCalls:  1,
			wantCached: true,
		},
		{
			name:      "miss with error is not cached",
			cbErr:     errors.New("lookup failed"),
			wantErr:   true,
			wantCalls: 1,
		},
		{
			name:       "hit skips callback",
			seed:       ptr("seeded"),
			wantValue:  "seeded",
			wantCalls:  0,
			wantCached: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New[string](time.Minute, time.Minute)
			if tt.seed != nil {
				c.Set("k", *tt.seed, NoExpiration)
			}
			calls := 0
			got, err := c.GetOrCompute("k", NoExpiration, func() (string, error) {
				calls++
				return tt.cbValue, tt.cbErr
			})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantValue, got)
			}
			assert.Equal(t, tt.wantCalls, calls)
			_, found := c.Get("k")
			assert.Equal(t, tt.wantCached, found)
		})
	}
}

func TestGetOrComputeExpires(t *testing.T) {
	c := New[int](time.Minute, 10*time.Millisecond)
	calls := 0
	cb := func() (int, error) {
		calls++
		return calls, nil
	}

	v, err := c.GetOrCompute("k", 50*time.Millisecond, cb)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = c.GetOrCompute("k", 50*time.Millisecond, cb)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	require.Eventually(t, func() bool {
		_, found := c.Get("k")
		return !found
	}, time.Second, 10*time.Millisecond)

	v, err = c.GetOrCompute("k", 50*time.Millisecond, cb)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestSharedHelpers(t *testing.T) {
	FlushShared()
	t.Cleanup(FlushShared)

	got, err := GetWithExpiration("shared-key", func() ([]byte, error) { return []byte{1, 2}, nil }, NoExpiration)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, got)

	got, err = GetWithExpiration("shared-key", func() ([]byte, error) {
		t.Fatal("callback should not be called on cache hit")
		return nil, nil
	}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, got)

	_, err = GetWithExpiration("failing", func() (int, error) { return 0, errors.New("boom") }, time.Minute)
	require.Error(t, err)
	_, found := shared.Get("failing")
	assert.False(t, found)
}

func ptr[T any](v T) *T {
	return &v
}
